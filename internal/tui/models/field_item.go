package models

import (
	"strings"

	"github.com/brizzai/agent-settings/internal/settings"
	"github.com/charmbracelet/lipgloss"
)

// FieldItem wraps a form field for display in the list
// Implements list.Item
type FieldItem struct {
	Field   settings.Field
	Preview string
	Err     string
}

func (i FieldItem) Title() string {
	return i.Field.Title()
}

func (i FieldItem) Description() string {
	if i.Err != "" {
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Render("[" + i.Err + "]")
	}
	return i.Preview
}

// WithBuffer returns a copy reflecting the field's current buffer and
// validation state.
func (i FieldItem) WithBuffer(buffer, errMsg string) FieldItem {
	i.Preview = previewLine(buffer)
	i.Err = errMsg
	return i
}

func (i FieldItem) FilterValue() string {
	return i.Field.Title()
}

// previewLine collapses a JSON buffer to a single trimmed line for the list.
func previewLine(buffer string) string {
	fields := strings.Fields(buffer)
	line := strings.Join(fields, " ")
	if len(line) > 80 {
		line = line[:77] + "..."
	}
	return line
}

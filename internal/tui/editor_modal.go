package tui

// JSONEditorModal provides a modal textarea for editing one JSON buffer.
import (
	"fmt"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
)

type errMsg error

// JSONEditorModal holds the textarea and error state for the modal.
type JSONEditorModal struct {
	textarea textarea.Model
	err      error
}

// initialModal creates a new JSONEditorModal with a focused textarea.
func initialModal() JSONEditorModal {
	ti := textarea.New()
	ti.Placeholder = "{}"
	ti.SetHeight(12)
	ti.Focus()

	return JSONEditorModal{
		textarea: ti,
		err:      nil,
	}
}

// Init returns the initial command for the modal (textarea blink).
func (m JSONEditorModal) Init() tea.Cmd {
	return textarea.Blink
}

// Update handles messages for the modal, including key events and errors.
func (m JSONEditorModal) Update(msg tea.Msg) (JSONEditorModal, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEsc:
			if m.textarea.Focused() {
				m.textarea.Blur()
			}
		case tea.KeyCtrlC:
			return m, tea.Quit
		default:
			if !m.textarea.Focused() {
				cmd = m.textarea.Focus()
				cmds = append(cmds, cmd)
			}
		}
	case errMsg:
		m.err = msg
		return m, nil
	}

	m.textarea, cmd = m.textarea.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// Value returns the current text of the textarea.
func (m JSONEditorModal) Value() string {
	return m.textarea.Value()
}

// View renders the modal UI.
func (m JSONEditorModal) View(title string) string {
	return fmt.Sprintf(
		"%s\n\n%s\n\n%s",
		editHeaderStyle.Render(title),
		m.textarea.View(),
		"(ctrl+s to apply)",
	) + "\n\n"
}

func NewEditModal(initial string) JSONEditorModal {
	modal := initialModal()
	modal.textarea.SetValue(initial)
	return modal
}

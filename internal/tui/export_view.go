package tui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/brizzai/agent-settings/internal/profile"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"gopkg.in/yaml.v3"
)

// ExportView handles prompting for a filename and exporting the resolved
// agent settings for local use
type ExportView struct {
	settings     profile.Settings
	textInput    textinput.Model
	err          error
	width        int
	height       int
	exportStatus string
	Success      bool
}

// NewExportView creates a new export view
func NewExportView(settings profile.Settings) ExportView {
	ti := textinput.New()
	ti.Placeholder = "agent-settings.yaml"
	ti.Focus()
	ti.Width = 40

	return ExportView{
		settings:  settings,
		textInput: ti,
	}
}

// Init initializes the export view
func (m ExportView) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the export view
func (m ExportView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			// Return to the fields page
			return m, func() tea.Msg { return BackToFieldsMsg{} }
		case "enter":
			// Process export
			if m.textInput.Value() == "" {
				m.exportStatus = "Please enter a filename"
				return m, nil
			}

			filename := m.textInput.Value()
			if !strings.HasSuffix(filename, ".yaml") && !strings.HasSuffix(filename, ".yml") {
				filename += ".yaml"
			}

			err := ExportSettingsToYamlFile(m.settings, filename)
			if err != nil {
				m.err = err
				m.exportStatus = fmt.Sprintf("Error exporting: %v", err)
				return m, nil
			}

			if _, err := os.Stat(filename); os.IsNotExist(err) {
				m.exportStatus = fmt.Sprintf("Error: File %s was not created", filename)
				return m, nil
			}

			m.Success = true
			m.exportStatus = completeMessageStyle(fmt.Sprintf("Successfully exported to %s", filename))
			// Wait for 1 second, then exit the application
			return m, tea.Sequence(
				tea.Tick(time.Second*1, func(time.Time) tea.Msg {
					return tea.Quit()
				}),
			)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

// View renders the export view
func (m ExportView) View() string {
	var sb strings.Builder

	// Calculate vertical centering
	verticalPadding := (m.height - 6) / 2
	for i := 0; i < verticalPadding; i++ {
		sb.WriteString("\n")
	}

	title := titleStyle.Render("Export Agent Settings")
	sb.WriteString(centerText(title, m.width))
	sb.WriteString("\n\n")

	prompt := "Enter filename to export the resolved settings:"
	sb.WriteString(centerText(prompt, m.width))
	sb.WriteString("\n")

	input := m.textInput.View()
	sb.WriteString(centerText(input, m.width))
	sb.WriteString("\n\n")

	if m.exportStatus != "" {
		sb.WriteString(centerText(m.exportStatus, m.width))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(centerText("(esc) Back to editor | (enter) Export", m.width))

	return sb.String()
}

// BackToFieldsMsg signals to go back to the fields page
type BackToFieldsMsg struct{}

// exportDocument is the YAML layout written by the export view
type exportDocument struct {
	ClaudeCode exportAgent `yaml:"claude_code"`
	Codex      exportAgent `yaml:"codex"`
}

type exportAgent struct {
	Env         map[string]string `yaml:"env"`
	Credentials interface{}       `yaml:"credentials,omitempty"`
}

// ExportSettingsToYamlFile writes the resolved settings for both agents to a
// YAML file. Credentials are included only when meaningful.
func ExportSettingsToYamlFile(s profile.Settings, filename string) error {
	doc := exportDocument{
		ClaudeCode: exportAgent{Env: s.ClaudeCode.Env},
		Codex:      exportAgent{Env: s.Codex.Env},
	}
	if profile.MeaningfulCredentials(s.ClaudeCode.Credentials) {
		doc.ClaudeCode.Credentials = s.ClaudeCode.Credentials
	}

	yamlData, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}

	return os.WriteFile(filename, yamlData, 0o644)
}

// Helper function to center text horizontally
func centerText(text string, width int) string {
	if width <= len(text) {
		return text
	}

	padding := (width - len(text)) / 2
	return strings.Repeat(" ", padding) + text
}

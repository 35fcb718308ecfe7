package tui

import (
	"github.com/brizzai/agent-settings/internal/settings"
	"github.com/brizzai/agent-settings/internal/tui/models"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

// newItemDelegate returns a list.DefaultDelegate with custom update and help functions.
func newItemDelegate(keys *delegateKeyMap, form *settings.Form) list.DefaultDelegate {
	d := list.NewDefaultDelegate()

	d.UpdateFunc = func(msg tea.Msg, m *list.Model) tea.Cmd {
		item, ok := m.SelectedItem().(models.FieldItem)
		if !ok {
			return nil
		}

		switch msg := msg.(type) {
		case tea.KeyMsg:
			switch {
			case key.Matches(msg, keys.reset):
				index := m.Index()
				form.SetField(item.Field, settings.DefaultBuffer(item.Field))
				m.SetItem(index, item.WithBuffer(form.Buffer(item.Field), form.FieldError(item.Field)))
				return m.NewStatusMessage(statusMessageStyle("Reset " + item.Title() + " to defaults"))
			}
		}
		return nil
	}

	help := []key.Binding{keys.reset}

	d.ShortHelpFunc = func() []key.Binding {
		return help
	}

	d.FullHelpFunc = func() [][]key.Binding {
		return [][]key.Binding{help}
	}

	return d
}

// delegateKeyMap holds key bindings for list item actions.
type delegateKeyMap struct {
	reset key.Binding
}

// ShortHelp returns additional short help entries for the delegate.
func (d delegateKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		d.reset,
	}
}

// FullHelp returns additional full help entries for the delegate.
func (d delegateKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{
			d.reset,
		},
	}
}

// newDelegateKeyMap creates a new delegateKeyMap with default bindings.
func newDelegateKeyMap() *delegateKeyMap {
	return &delegateKeyMap{
		reset: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Reset field to defaults"),
		),
	}
}

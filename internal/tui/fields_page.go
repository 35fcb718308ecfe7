package tui

import (
	"context"

	"github.com/brizzai/agent-settings/internal/profile"
	"github.com/brizzai/agent-settings/internal/settings"
	"github.com/brizzai/agent-settings/internal/store"
	"github.com/brizzai/agent-settings/internal/tui/models"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"

	tea "github.com/charmbracelet/bubbletea"
)

// fieldsKeyMap holds key bindings for the settings field list.
type fieldsKeyMap struct {
	edit   key.Binding
	save   key.Binding
	finish key.Binding
	quit   key.Binding
}

// DoneMsg is sent when the user moves on to the export page
type DoneMsg struct{}

// SaveResultMsg carries the outcome of a backend save. Exactly one is emitted
// per save attempt, and it becomes exactly one status toast.
type SaveResultMsg struct {
	Err error
}

// newFieldsKeyMap creates a new fieldsKeyMap with default bindings.
func newFieldsKeyMap() *fieldsKeyMap {
	return &fieldsKeyMap{
		edit: key.NewBinding(
			key.WithKeys("E", "e", "enter"),
			key.WithHelp("e", "Edit Field"),
		),
		save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "Save to Profile"),
		),
		finish: key.NewBinding(
			key.WithKeys("F", "f"),
			key.WithHelp("F", "Finish"),
		),
		quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "Quit"),
		),
	}
}

// FieldsModel is the list-based editor for the three JSON settings fields
type FieldsModel struct {
	list      list.Model
	keys      *fieldsKeyMap
	form      *settings.Form
	client    store.Client
	cache     *store.Cache
	editing   bool
	editIndex int
	editModal JSONEditorModal // Holds the edit modal when editing
	saving    bool
}

// Init returns the initial command for the fields model.
func (m FieldsModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the list and modal, including editing logic.
func (m FieldsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.editing {
		return m.handleEditModeUpdate(msg)
	}
	return m.handleListModeUpdate(msg)
}

// handleEditModeUpdate handles messages when in edit mode
func (m FieldsModel) handleEditModeUpdate(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.save) {
			m.editing = false
			item := m.list.SelectedItem().(models.FieldItem)
			m.form.SetField(item.Field, m.editModal.Value())
			updated := item.WithBuffer(m.form.Buffer(item.Field), m.form.FieldError(item.Field))
			m.list.SetItem(m.editIndex, updated)
			if updated.Err != "" {
				return m, m.list.NewStatusMessage(errorMessageStyle(updated.Err + ": " + item.Title()))
			}
			return m, m.list.NewStatusMessage(statusMessageStyle("Updated " + item.Title()))
		}

	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v)
	}
	var cmd tea.Cmd
	m.editModal, cmd = m.editModal.Update(msg)
	return m, cmd
}

// handleListModeUpdate handles messages when in list mode
func (m FieldsModel) handleListModeUpdate(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case SaveResultMsg:
		m.saving = false
		if msg.Err != nil {
			return m, m.list.NewStatusMessage(errorMessageStyle("Save failed: " + msg.Err.Error()))
		}
		return m, m.list.NewStatusMessage(completeMessageStyle("Settings saved to profile"))

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.edit):
			idx := m.list.Index()
			item, ok := m.list.SelectedItem().(models.FieldItem)
			if ok {
				m.editing = true
				m.editIndex = idx
				// Create the modal with the current buffer as initial value
				m.editModal = NewEditModal(m.form.Buffer(item.Field))
				return m, nil
			}
		case key.Matches(msg, m.keys.save):
			if m.saving {
				return m, m.list.NewStatusMessage(statusMessageStyle("Save already in progress"))
			}
			snapshot, err := m.form.Settings()
			if err != nil {
				m.syncItems()
				return m, m.list.NewStatusMessage(errorMessageStyle("Fix invalid JSON fields before saving"))
			}
			m.saving = true
			return m, saveCmd(snapshot, m.client, m.cache)
		case key.Matches(msg, m.keys.finish):
			return m, func() tea.Msg {
				return DoneMsg{}
			}
		}
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// saveCmd persists a settings snapshot. The snapshot is taken on the update
// loop before the command is returned, so this goroutine never touches the
// form while the user keeps typing.
func saveCmd(snapshot profile.Settings, client store.Client, cache *store.Cache) tea.Cmd {
	return func() tea.Msg {
		_, err := settings.SaveSettings(context.Background(), snapshot, client, cache)
		return SaveResultMsg{Err: err}
	}
}

// syncItems refreshes every list item from the form's buffers and errors
func (m *FieldsModel) syncItems() {
	for i, raw := range m.list.Items() {
		item := raw.(models.FieldItem)
		m.list.SetItem(i, item.WithBuffer(m.form.Buffer(item.Field), m.form.FieldError(item.Field)))
	}
}

// View renders either the list or the modal
func (m FieldsModel) View() string {
	if m.editing {
		return docStyle.Render(m.editModal.View(m.list.SelectedItem().(models.FieldItem).Title()))
	}
	return docStyle.Render(m.list.View())
}

// NewFieldsModel creates a TUI model for the settings form fields
func NewFieldsModel(form *settings.Form, client store.Client, cache *store.Cache) FieldsModel {
	listKeys := newFieldsKeyMap()

	items := make([]list.Item, len(settings.Fields))
	for i, field := range settings.Fields {
		items[i] = models.FieldItem{Field: field}.
			WithBuffer(form.Buffer(field), form.FieldError(field))
	}
	delegateKeyMap := newDelegateKeyMap()
	delegate := newItemDelegate(delegateKeyMap, form)

	l := list.New(items, delegate, 0, 0)

	l.Title = titleStyle.Render("Agent Settings editor")
	l.SetShowFilter(false)
	l.SetFilteringEnabled(false)

	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{
			listKeys.edit,
			listKeys.save,
			listKeys.finish,
			listKeys.quit,
		}
	}
	return FieldsModel{
		list:      l,
		keys:      listKeys,
		form:      form,
		client:    client,
		cache:     cache,
		editing:   false,
		editIndex: -1,
		editModal: JSONEditorModal{},
	}
}

// Settings returns the normalized settings reflected by the cache, for the
// export page.
func (m FieldsModel) Settings() profile.Settings {
	var prefs map[string]interface{}
	if p := m.cache.Profile(); p != nil {
		prefs = p.Preferences
	}
	return profile.Normalize(prefs)
}

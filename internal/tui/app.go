package tui

import (
	"github.com/brizzai/agent-settings/internal/profile"
	"github.com/brizzai/agent-settings/internal/settings"
	"github.com/brizzai/agent-settings/internal/store"
	tea "github.com/charmbracelet/bubbletea"
)

// AppModel is the main application model that manages page switching
type AppModel struct {
	mainPage   MainPageModel
	fieldsPage FieldsModel
	exportView ExportView
	client     store.Client
	cache      *store.Cache
	formReady  bool
	page       string // "main" or "fields" or "export"
}

// NewAppModel creates a new AppModel bound to the profile store
func NewAppModel(client store.Client, cache *store.Cache) AppModel {
	return AppModel{
		mainPage:   NewMainPageModel(cache),
		exportView: ExportView{}, // Initialized properly on DoneMsg
		client:     client,
		cache:      cache,
		page:       "main",
	}
}

// Init initializes the AppModel
func (m AppModel) Init() tea.Cmd {
	return m.mainPage.Init()
}

// Update handles app-level messages and delegates to the appropriate page model
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case ProfileLoadedMsg:
		// The form is seeded once from the first load; later refreshes never
		// overwrite buffers the user may have started editing.
		if !m.formReady {
			var prefs map[string]interface{}
			if msg.Profile != nil {
				prefs = msg.Profile.Preferences
			}
			form := settings.NewForm(profile.Normalize(prefs))
			m.fieldsPage = NewFieldsModel(form, m.client, m.cache)
			m.formReady = true
		}

	case OpenFieldsMsg:
		m.page = "fields"
		cmd := m.fieldsPage.Init()
		return m, cmd

	case DoneMsg:
		m.page = "export"
		m.exportView = NewExportView(m.fieldsPage.Settings())
		cmd := m.exportView.Init()
		return m, cmd

	case BackToFieldsMsg:
		m.page = "fields"
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "esc" && m.page == "fields" && !m.fieldsPage.editing {
			m.page = "main"
			return m, nil
		}

	case tea.WindowSizeMsg:
		var cmd tea.Cmd
		var tempModel tea.Model

		// Update all models with the window size
		tempModel, cmd = m.mainPage.Update(msg)
		m.mainPage = tempModel.(MainPageModel)
		cmds = append(cmds, cmd)

		if m.formReady {
			tempModel, cmd = m.fieldsPage.Update(msg)
			m.fieldsPage = tempModel.(FieldsModel)
			cmds = append(cmds, cmd)
		}

		tempModel, cmd = m.exportView.Update(msg)
		m.exportView = tempModel.(ExportView)
		cmds = append(cmds, cmd)

		return m, tea.Batch(cmds...)
	}

	// Delegate message to the active page
	var cmd tea.Cmd
	var tempModel tea.Model
	switch m.page {
	case "main":
		tempModel, cmd = m.mainPage.Update(msg)
		m.mainPage = tempModel.(MainPageModel)
		cmds = append(cmds, cmd)
	case "fields":
		tempModel, cmd = m.fieldsPage.Update(msg)
		m.fieldsPage = tempModel.(FieldsModel)
		cmds = append(cmds, cmd)
	case "export":
		tempModel, cmd = m.exportView.Update(msg)
		m.exportView = tempModel.(ExportView)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View renders the active page
func (m AppModel) View() string {
	switch m.page {
	case "fields":
		return m.fieldsPage.View()
	case "export":
		return m.exportView.View()
	default: // main
		return m.mainPage.View()
	}
}

// Settings returns the normalized settings reflected by the cache
func (m AppModel) Settings() profile.Settings {
	if m.formReady {
		return m.fieldsPage.Settings()
	}
	return profile.Normalize(nil)
}

// IsFinished checks if the user has completed the TUI flow
// by verifying they've reached the export page
func (m AppModel) IsFinished() bool {
	return m.exportView.Success
}

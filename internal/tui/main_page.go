package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/brizzai/agent-settings/internal/profile"
	"github.com/brizzai/agent-settings/internal/store"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// MainPageKeyMap holds key bindings for the main page actions
type MainPageKeyMap struct {
	open    key.Binding
	refresh key.Binding
	quit    key.Binding
}

func newMainPageKeyMap() *MainPageKeyMap {
	return &MainPageKeyMap{
		open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Open Settings Editor"),
		),
		refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Refresh Profile"),
		),
		quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("ctrl+c/q", "Quit"),
		),
	}
}

// ProfileLoadedMsg carries the result of a profile fetch or refresh
type ProfileLoadedMsg struct {
	Profile *profile.Profile
	Err     error
}

// OpenFieldsMsg is sent when the user chooses to open the settings editor
type OpenFieldsMsg struct{}

// MainPageModel represents the main landing page of the application
type MainPageModel struct {
	keys    *MainPageKeyMap
	width   int
	height  int
	cache   *store.Cache
	profile *profile.Profile
	err     error
	loading bool
}

// NewMainPageModel creates a new main page model
func NewMainPageModel(cache *store.Cache) MainPageModel {
	return MainPageModel{
		keys:    newMainPageKeyMap(),
		cache:   cache,
		loading: true,
	}
}

// fetchProfileCmd loads the profile through the cache. The cache guarantees
// this fetch happens exactly once; later calls reuse the stored copy.
func fetchProfileCmd(cache *store.Cache) tea.Cmd {
	return func() tea.Msg {
		p, err := cache.Get(context.Background())
		return ProfileLoadedMsg{Profile: p, Err: err}
	}
}

// refreshProfileCmd re-fetches the profile from the service
func refreshProfileCmd(cache *store.Cache) tea.Cmd {
	return func() tea.Msg {
		p, err := cache.Refresh(context.Background())
		return ProfileLoadedMsg{Profile: p, Err: err}
	}
}

// Init triggers the initial profile fetch
func (m MainPageModel) Init() tea.Cmd {
	return fetchProfileCmd(m.cache)
}

// Update handles messages for the main page
func (m MainPageModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ProfileLoadedMsg:
		m.loading = false
		m.profile = msg.Profile
		m.err = msg.Err
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.refresh):
			if !m.loading {
				m.loading = true
				return m, refreshProfileCmd(m.cache)
			}
		case key.Matches(msg, m.keys.open):
			if !m.loading {
				return m, func() tea.Msg {
					return OpenFieldsMsg{}
				}
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	return m, nil
}

// View renders the main page
func (m MainPageModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := titleStyle.Render("Code Agent Settings")

	descStyle := lipgloss.NewStyle().
		Padding(1, 0).
		Width(m.width - 4).
		Align(lipgloss.Center)

	description := descStyle.Render(
		"Configure the environment variables and credentials used by the\n" +
			"Claude Code and Codex CLIs. Changes are stored on your user profile.",
	)

	statusStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#7aa2f7")).
		Padding(1, 1).
		Width(m.width - 10).
		Align(lipgloss.Left)

	var status strings.Builder
	switch {
	case m.loading:
		status.WriteString("Fetching profile...")
	case m.err != nil:
		status.WriteString(errorMessageStyle(fmt.Sprintf("Failed to load profile: %v", m.err)))
		if m.profile != nil {
			status.WriteString("\nShowing the last loaded copy. Press r to retry.")
		} else {
			status.WriteString("\nPress r to retry.")
		}
	default:
		status.WriteString(identitySummary(m.profile))
		status.WriteString("\n\n")
		status.WriteString(settingsSummary(m.profile))
	}

	help := lipgloss.NewStyle().
		Padding(1, 0).
		Faint(true).
		Render(fmt.Sprintf("%s • %s • %s",
			m.keys.open.Help().Key+" "+m.keys.open.Help().Desc,
			m.keys.refresh.Help().Key+" "+m.keys.refresh.Help().Desc,
			m.keys.quit.Help().Key+" "+m.keys.quit.Help().Desc,
		))

	return docStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		title,
		description,
		statusStyle.Render(status.String()),
		help,
	))
}

func identitySummary(p *profile.Profile) string {
	if p == nil {
		return "No profile loaded."
	}
	who := p.Name
	if who == "" {
		who = p.Email
	}
	if who == "" {
		who = p.ID
	}
	return "Profile: " + who
}

// settingsSummary previews the env keys currently configured per agent
func settingsSummary(p *profile.Profile) string {
	var prefs map[string]interface{}
	if p != nil {
		prefs = p.Preferences
	}
	s := profile.Normalize(prefs)

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Claude Code: %s", envKeysPreview(s.ClaudeCode.Env)))
	if profile.MeaningfulCredentials(s.ClaudeCode.Credentials) {
		b.WriteString(" (credentials configured)")
	}
	b.WriteString(fmt.Sprintf("\nCodex:       %s", envKeysPreview(s.Codex.Env)))
	return b.String()
}

func envKeysPreview(env map[string]string) string {
	if len(env) == 0 {
		return "no environment variables"
	}
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("%s (%s)", pluralize(len(keys), "variable"), strings.Join(keys, ", "))
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

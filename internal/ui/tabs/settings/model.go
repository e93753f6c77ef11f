// Package settings provides the endpoint settings tab.
package settings

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/relaywatch-tui/internal/app"
	"github.com/j-veylop/relaywatch-tui/internal/models"
)

type keyMap struct {
	Edit        key.Binding
	ToggleScope key.Binding
	Reset       key.Binding
	Reload      key.Binding
	Escape      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Edit: key.NewBinding(
			key.WithKeys("e", "enter"),
			key.WithHelp("e", "edit"),
		),
		ToggleScope: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "station/global"),
		),
		Reset: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "reset to defaults"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

// Model represents the settings tab state.
type Model struct {
	state      *app.State
	form       *settingsForm
	keys       keyMap
	settings   *models.EndpointSettings
	loadedFor  string
	lastError  string
	width      int
	height     int
	global     bool
	overridden bool
}

// New creates a settings tab.
func New(state *app.State) *Model {
	return &Model{
		state: state,
		keys:  defaultKeyMap(),
	}
}

// Init initializes the settings tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// scopeID returns the settings key being edited, or "" when there is no
// active station to edit.
func (m *Model) scopeID() string {
	if m.global {
		return models.GlobalSettingsID
	}
	if active := m.state.GetActiveStation(); active != nil {
		return active.ID
	}
	return ""
}

func (m *Model) scopeName() string {
	if m.global {
		return "global defaults"
	}
	if active := m.state.GetActiveStation(); active != nil {
		return active.Name
	}
	return "no station"
}

// Activate loads the settings for the current scope.
func (m *Model) Activate() tea.Cmd {
	return m.load()
}

func (m *Model) load() tea.Cmd {
	id := m.scopeID()
	if id == "" {
		m.settings = nil
		m.loadedFor = ""
		return nil
	}
	return app.SendMsg(app.LoadSettingsMsg{StationID: id})
}

// CapturingInput reports whether the edit form owns the keyboard.
func (m *Model) CapturingInput() bool {
	return m.form != nil
}

// Update handles messages for the settings tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	if msg, ok := msg.(app.SettingsLoadedMsg); ok {
		m.handleLoaded(msg)
		return m, nil
	}

	if m.form != nil {
		return m, m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case app.StationsLoadedMsg:
		if !m.global && m.scopeID() != m.loadedFor {
			return m, m.load()
		}

	case tea.KeyMsg:
		return m, m.handleKeyMsg(msg)
	}

	return m, nil
}

func (m *Model) handleLoaded(msg app.SettingsLoadedMsg) {
	if msg.StationID != m.scopeID() {
		return
	}
	if msg.Error != nil {
		m.lastError = msg.Error.Error()
		return
	}
	s := msg.Settings
	m.settings = &s
	m.overridden = msg.Overridden
	m.loadedFor = msg.StationID
	m.lastError = ""
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.ToggleScope):
		m.global = !m.global
		m.settings = nil
		return m.load()

	case key.Matches(msg, m.keys.Reload):
		return m.load()

	case key.Matches(msg, m.keys.Edit):
		if m.settings == nil || m.scopeID() == "" {
			return nil
		}
		m.form = newSettingsForm(m.scopeName(), *m.settings)
		return m.form.Init()

	case key.Matches(msg, m.keys.Reset):
		id := m.scopeID()
		if id == "" {
			return nil
		}
		return app.SendMsg(app.ResetSettingsMsg{StationID: id})
	}
	return nil
}

func (m *Model) updateForm(msg tea.Msg) tea.Cmd {
	cmd := m.form.Update(msg)
	if !m.form.completed {
		return cmd
	}

	form := m.form
	m.form = nil
	if form.cancelled {
		return nil
	}

	s, err := form.settings()
	if err != nil {
		return app.NotifyError("Invalid settings: " + err.Error())
	}
	return app.SendMsg(app.SaveSettingsMsg{StationID: m.scopeID(), Settings: s})
}

// SetSize sets the available size for the settings tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	if m.form != nil {
		return []key.Binding{
			key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
			m.keys.Escape,
		}
	}
	return []key.Binding{m.keys.Edit, m.keys.ToggleScope, m.keys.Reset, m.keys.Reload}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Edit, m.keys.Reset},
		{m.keys.ToggleScope, m.keys.Reload},
	}
}

// Package balances provides the balance overview tab.
package balances

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/relaywatch-tui/internal/app"
	"github.com/j-veylop/relaywatch-tui/internal/models"
	"github.com/j-veylop/relaywatch-tui/internal/relay"
	"github.com/j-veylop/relaywatch-tui/internal/ui/components"
)

type shimmerTickMsg time.Time

func shimmerTickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*40, func(t time.Time) tea.Msg {
		return shimmerTickMsg(t)
	})
}

// keyMap defines the key bindings specific to the balance tab.
type keyMap struct {
	Next      key.Binding
	Prev      key.Binding
	First     key.Binding
	Last      key.Binding
	Refresh   key.Binding
	Activate  key.Binding
	ShowRaw   key.Binding
	CopyRaw   key.Binding
	CloseView key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Next: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "next station"),
		),
		Prev: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "prev station"),
		),
		First: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "first station"),
		),
		Last: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "last station"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh balance"),
		),
		Activate: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "make active"),
		),
		ShowRaw: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "raw response"),
		),
		CopyRaw: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "copy raw response"),
		),
		CloseView: key.NewBinding(
			key.WithKeys("esc", "v"),
			key.WithHelp("esc", "close"),
		),
	}
}

// Model represents the balance tab state.
type Model struct {
	state         *app.State
	viewer        *components.JSONViewer
	spinner       components.LoadingSpinner
	keys          keyMap
	viewport      viewport.Model
	bar           components.BalanceBar
	barStation    string
	threshold     float64
	width         int
	height        int
	selectedIndex int
	frame         int
	shimmering    bool
}

// New creates a balance tab. threshold is the low balance alert level used
// for coloring amounts.
func New(state *app.State, threshold float64) *Model {
	return &Model{
		state:     state,
		viewer:    components.NewJSONViewer(),
		spinner:   components.NewSpinner("Loading stations..."),
		keys:      defaultKeyMap(),
		viewport:  viewport.New(0, 0),
		bar:       components.NewBalanceBar(30),
		threshold: threshold,
	}
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick(), m.startShimmer())
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case shimmerTickMsg:
		m.frame++
		if m.needsShimmer() {
			cmds = append(cmds, shimmerTickCmd())
		} else {
			m.shimmering = false
		}

	case components.AnimationTickMsg:
		var cmd tea.Cmd
		m.bar, cmd = m.bar.Update(msg)
		cmds = append(cmds, cmd)

	case app.StationsLoadedMsg, app.BalanceRefreshedMsg, app.ServiceEventMsg, app.RefreshBalanceMsg:
		m.clampSelection()
		cmds = append(cmds, m.syncBar(), m.startShimmer())

	case tea.KeyMsg:
		cmds = append(cmds, m.handleKeyMsg(msg))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// Activate syncs the selection with the station list when the tab is shown.
func (m *Model) Activate() tea.Cmd {
	m.clampSelection()
	return tea.Batch(m.syncBar(), m.startShimmer())
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	if m.viewer.Visible() {
		switch {
		case key.Matches(msg, m.keys.CloseView):
			m.viewer.Hide()
			return nil
		case key.Matches(msg, m.keys.CopyRaw):
			return app.Copy(m.viewer.Raw(), "raw response")
		}
		return m.viewer.Update(msg)
	}

	list := m.state.GetStations()
	n := len(list)

	switch {
	case key.Matches(msg, m.keys.Next):
		if n > 0 {
			m.selectedIndex = (m.selectedIndex + 1) % n
		}
		return m.syncBar()
	case key.Matches(msg, m.keys.Prev):
		if n > 0 {
			m.selectedIndex = (m.selectedIndex - 1 + n) % n
		}
		return m.syncBar()
	case key.Matches(msg, m.keys.First):
		m.selectedIndex = 0
		return m.syncBar()
	case key.Matches(msg, m.keys.Last):
		m.selectedIndex = max(n-1, 0)
		return m.syncBar()
	}

	sel := m.selected(list)
	if sel == nil {
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.Refresh):
		return app.SendMsg(app.RefreshBalanceMsg{StationID: sel.ID})
	case key.Matches(msg, m.keys.Activate):
		if sel.IsActive {
			return nil
		}
		return app.SendMsg(app.SwitchStationMsg{StationID: sel.ID})
	case key.Matches(msg, m.keys.ShowRaw):
		if sel.Balance == nil {
			return app.NotifyInfo("No response yet, press r to query " + sel.Name)
		}
		m.viewer.Show("Raw response · "+sel.Name, sel.Balance.RawResponse)
		return nil
	case key.Matches(msg, m.keys.CopyRaw):
		if sel.Balance == nil {
			return nil
		}
		return app.Copy(relay.PrettyJSON(sel.Balance.RawResponse), "raw response")
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return cmd
}

func (m *Model) selected(list []models.StationBalance) *models.StationBalance {
	if m.selectedIndex < 0 || m.selectedIndex >= len(list) {
		return nil
	}
	return &list[m.selectedIndex]
}

func (m *Model) clampSelection() {
	n := m.state.GetStationCount()
	if m.selectedIndex >= n {
		m.selectedIndex = max(n-1, 0)
	}
}

// syncBar points the detail bar at the selected station's remaining share.
func (m *Model) syncBar() tea.Cmd {
	sel := m.selected(m.state.GetStations())
	if sel == nil {
		return nil
	}

	pct, ok := remainingPercent(*sel)
	if !ok {
		pct = 0
	}
	if sel.ID != m.barStation {
		m.barStation = sel.ID
		m.bar = components.NewBalanceBar(30)
	}
	return m.bar.SetPercent(pct)
}

func (m *Model) needsShimmer() bool {
	if m.state.AnyLoading() {
		return true
	}
	for _, st := range m.state.GetStations() {
		if st.Balance == nil || m.state.IsRefreshing(st.ID) {
			return true
		}
	}
	return false
}

func (m *Model) startShimmer() tea.Cmd {
	if m.shimmering || !m.needsShimmer() {
		return nil
	}
	m.shimmering = true
	return shimmerTickCmd()
}

// SetSize sets the available size for the tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
	m.viewer.SetSize(max(width-4, 20), height)
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	if m.viewer.Visible() {
		return m.viewer.KeyBindings()
	}
	return []key.Binding{
		m.keys.Next,
		m.keys.Prev,
		m.keys.Refresh,
		m.keys.Activate,
		m.keys.ShowRaw,
		m.keys.CopyRaw,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Next, m.keys.Prev},
		{m.keys.First, m.keys.Last},
		{m.keys.Refresh, m.keys.Activate},
		{m.keys.ShowRaw, m.keys.CopyRaw},
	}
}

// Package logs provides the call log tab.
package logs

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/relaywatch-tui/internal/app"
	"github.com/j-veylop/relaywatch-tui/internal/relay"
	"github.com/j-veylop/relaywatch-tui/internal/ui/components"
	"github.com/j-veylop/relaywatch-tui/internal/ui/styles"
)

// chart modes shown under the table
type chartMode int

const (
	chartQuota chartMode = iota
	chartTokens
	chartHourly
	chartModels
	chartModeCount
)

func (c chartMode) String() string {
	switch c {
	case chartQuota:
		return "quota per call"
	case chartTokens:
		return "tokens per call"
	case chartHourly:
		return "calls per hour"
	case chartModels:
		return "quota per model"
	default:
		return "unknown"
	}
}

// keyMap defines the key bindings specific to the logs tab.
type keyMap struct {
	Refresh     key.Binding
	NextPage    key.Binding
	PrevPage    key.Binding
	ToggleOrder key.Binding
	ToggleChart key.Binding
	ShowRaw     key.Binding
	ShowEntry   key.Binding
	CopyRaw     key.Binding
	CloseView   key.Binding
	Up          key.Binding
	Down        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refetch page"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "prev page"),
		),
		ToggleOrder: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "toggle requested order"),
		),
		ToggleChart: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "cycle chart"),
		),
		ShowRaw: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "raw response"),
		),
		ShowEntry: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "entry JSON"),
		),
		CopyRaw: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "copy JSON"),
		),
		CloseView: key.NewBinding(
			key.WithKeys("esc", "v"),
			key.WithHelp("esc", "close"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
	}
}

// Model represents the logs tab state.
type Model struct {
	state   *app.State
	viewer  *components.JSONViewer
	spinner components.LoadingSpinner
	keys    keyMap
	table   table.Model
	items   []relay.LogEntry
	order     string
	stationID string
	width     int
	height    int
	page      int
	chart     chartMode
}

// New creates a logs tab.
func New(state *app.State) *Model {
	t := table.New(
		table.WithColumns(columnsFor(100)),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = styles.TableHeaderStyle.Padding(0, 1)
	s.Selected = styles.TableSelectedStyle
	t.SetStyles(s)

	return &Model{
		state:   state,
		viewer:  components.NewJSONViewer(),
		spinner: components.NewSpinner("Fetching logs..."),
		keys:    defaultKeyMap(),
		table:   t,
		order:   relay.DefaultOrder,
		page:    1,
	}
}

// Init initializes the logs tab.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick()
}

// Activate fetches the first page when nothing was loaded for the active
// station yet.
func (m *Model) Activate() tea.Cmd {
	m.syncRows()
	active := m.state.GetActiveStation()
	if m.state.GetLogs() != nil || active == nil {
		return nil
	}
	m.page = 1
	return m.fetch()
}

func (m *Model) fetch() tea.Cmd {
	if m.state.IsLoading(app.ResourceLogs) {
		return nil
	}
	if active := m.state.GetActiveStation(); active != nil {
		m.stationID = active.ID
	}
	return app.SendMsg(app.FetchLogsMsg{Page: m.page, Order: m.order})
}

// Update handles messages for the logs tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case app.LogsLoadedMsg:
		m.syncRows()

	case app.StationsLoadedMsg:
		active := m.state.GetActiveStation()
		if active == nil || active.ID == m.stationID {
			return m, nil
		}
		m.syncRows()
		m.page = 1
		return m, m.fetch()

	case tea.KeyMsg:
		return m, m.handleKeyMsg(msg)

	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	if m.viewer.Visible() {
		switch {
		case key.Matches(msg, m.keys.CloseView):
			m.viewer.Hide()
			return nil
		case key.Matches(msg, m.keys.CopyRaw):
			return app.Copy(m.viewer.Raw(), "JSON")
		}
		return m.viewer.Update(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Refresh):
		return m.fetch()

	case key.Matches(msg, m.keys.NextPage):
		if m.state.IsLoading(app.ResourceLogs) {
			return nil
		}
		m.page++
		return m.fetch()

	case key.Matches(msg, m.keys.PrevPage):
		if m.page <= 1 || m.state.IsLoading(app.ResourceLogs) {
			return nil
		}
		m.page--
		return m.fetch()

	case key.Matches(msg, m.keys.ToggleOrder):
		if m.order == "desc" {
			m.order = "asc"
		} else {
			m.order = "desc"
		}
		m.page = 1
		return m.fetch()

	case key.Matches(msg, m.keys.ToggleChart):
		m.chart = (m.chart + 1) % chartModeCount
		return nil

	case key.Matches(msg, m.keys.ShowRaw):
		page := m.state.GetLogs()
		if page == nil || page.Result == nil {
			return app.NotifyInfo("No logs fetched yet")
		}
		m.viewer.Show("Raw response", page.Result)
		return nil

	case key.Matches(msg, m.keys.ShowEntry):
		if e := m.selectedEntry(); e != nil {
			m.viewer.Show("Log entry", e)
		}
		return nil

	case key.Matches(msg, m.keys.CopyRaw):
		if e := m.selectedEntry(); e != nil {
			return app.Copy(relay.PrettyJSON(e), "log entry")
		}
		return nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return cmd
}

func (m *Model) selectedEntry() relay.LogEntry {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.items) {
		return nil
	}
	return m.items[i]
}

// syncRows rebuilds the table from the cached page.
func (m *Model) syncRows() {
	page := m.state.GetLogs()
	if page == nil || page.Result == nil || page.Result.Failed() {
		m.items = nil
		m.table.SetRows(nil)
		return
	}

	m.stationID = page.StationID
	m.page = max(page.Page, 1)
	if page.Order != "" {
		m.order = page.Order
	}
	m.items = page.Result.Items

	rows := make([]table.Row, 0, len(m.items))
	for _, e := range m.items {
		rows = append(rows, entryRow(e))
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

// SetSize sets the available size for the logs tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.table.SetColumns(columnsFor(width))
	m.table.SetHeight(max(height-chartHeight-10, 5))
	m.viewer.SetSize(max(width-4, 20), height)
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	if m.viewer.Visible() {
		return m.viewer.KeyBindings()
	}
	return []key.Binding{
		m.keys.Refresh,
		m.keys.PrevPage,
		m.keys.NextPage,
		m.keys.ToggleOrder,
		m.keys.ToggleChart,
		m.keys.ShowRaw,
		m.keys.ShowEntry,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Up, m.keys.Down},
		{m.keys.PrevPage, m.keys.NextPage, m.keys.ToggleOrder},
		{m.keys.Refresh, m.keys.ToggleChart},
		{m.keys.ShowRaw, m.keys.ShowEntry, m.keys.CopyRaw},
	}
}

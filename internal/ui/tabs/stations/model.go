// Package stations provides the station management tab.
package stations

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/relaywatch-tui/internal/app"
	"github.com/j-veylop/relaywatch-tui/internal/models"
	"github.com/j-veylop/relaywatch-tui/internal/ui/styles"
)

// keyMap defines the key bindings specific to the stations tab.
type keyMap struct {
	Enter   key.Binding
	Delete  key.Binding
	Add     key.Binding
	Edit    key.Binding
	Refresh key.Binding
	CopyURL key.Binding
	Escape  key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "make active"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "delete"),
		),
		Add: key.NewBinding(
			key.WithKeys("n", "a"),
			key.WithHelp("n", "add station"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "query balance"),
		),
		CopyURL: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "copy base URL"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

// Model represents the stations tab state.
type Model struct {
	state         *app.State
	form          *stationForm
	keys          keyMap
	table         table.Model
	stationIDs    []string
	deleteID      string
	deleteName    string
	width         int
	height        int
	confirmDelete bool
}

// New creates a stations tab.
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
		state: state,
		table: t,
		keys:  defaultKeyMap(),
	}
}

// Init initializes the stations tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Activate refreshes the table from state.
func (m *Model) Activate() tea.Cmd {
	m.updateTableData()
	return nil
}

// CapturingInput reports whether an edit form or delete prompt owns the keyboard.
func (m *Model) CapturingInput() bool {
	return m.form != nil || m.confirmDelete
}

// Update handles messages for the stations tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	if m.form != nil {
		return m, m.updateForm(msg)
	}
	if m.confirmDelete {
		return m.updateDeleteConfirm(msg)
	}

	switch msg := msg.(type) {
	case app.StationsLoadedMsg, app.SaveStationResultMsg, app.DeleteStationResultMsg, app.SwitchStationResultMsg:
		m.updateTableData()

	case tea.KeyMsg:
		return m, m.handleKeyMsg(msg)
	}

	return m, nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Add):
		return m.openForm(nil)

	case key.Matches(msg, m.keys.Edit):
		if st := m.selected(); st != nil {
			return m.openForm(&st.Station)
		}
		return nil

	case key.Matches(msg, m.keys.Enter):
		if st := m.selected(); st != nil && !st.IsActive {
			return app.SendMsg(app.SwitchStationMsg{StationID: st.ID})
		}
		return nil

	case key.Matches(msg, m.keys.Refresh):
		if st := m.selected(); st != nil {
			return app.SendMsg(app.RefreshBalanceMsg{StationID: st.ID})
		}
		return nil

	case key.Matches(msg, m.keys.CopyURL):
		if st := m.selected(); st != nil {
			return app.Copy(st.BaseURL, "base URL")
		}
		return nil

	case key.Matches(msg, m.keys.Delete):
		if st := m.selected(); st != nil {
			m.confirmDelete = true
			m.deleteID = st.ID
			m.deleteName = st.Name
		}
		return nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return cmd
}

func (m *Model) openForm(original *models.Station) tea.Cmd {
	m.form = newStationForm(original, m.nameTaken)
	return m.form.Init()
}

// nameTaken reports whether another station already uses name.
func (m *Model) nameTaken(name, exceptID string) bool {
	for _, st := range m.state.GetStations() {
		if st.ID != exceptID && strings.EqualFold(st.Name, name) {
			return true
		}
	}
	return false
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

	st, err := form.station()
	if err != nil {
		return app.NotifyError("Invalid station: " + err.Error())
	}
	return app.SendMsg(app.SaveStationMsg{Station: st, IsNew: form.isNew()})
}

// updateDeleteConfirm handles the delete confirmation.
func (m *Model) updateDeleteConfirm(msg tea.Msg) (app.Tab, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "y", "Y":
		id := m.deleteID
		m.clearDelete()
		return m, app.SendMsg(app.DeleteStationMsg{StationID: id})
	case "n", "N", "esc":
		m.clearDelete()
	}
	return m, nil
}

func (m *Model) clearDelete() {
	m.confirmDelete = false
	m.deleteID = ""
	m.deleteName = ""
}

func (m *Model) selected() *models.StationBalance {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.stationIDs) {
		return nil
	}
	for _, st := range m.state.GetStations() {
		if st.ID == m.stationIDs[i] {
			return &st
		}
	}
	return nil
}

// updateTableData updates the table with current station data.
func (m *Model) updateTableData() {
	list := m.state.GetStations()
	rows := make([]table.Row, 0, len(list))
	m.stationIDs = m.stationIDs[:0]

	for _, st := range list {
		marker := ""
		if st.IsActive {
			marker = "●"
		}
		proxy := st.ProxyURL
		if proxy == "" {
			proxy = "-"
		}
		rows = append(rows, table.Row{
			marker,
			st.Name,
			st.BaseURL,
			st.MaskedKey(),
			proxy,
			balanceSummary(st),
		})
		m.stationIDs = append(m.stationIDs, st.ID)
	}

	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

// SetSize sets the available size for the stations tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.table.SetHeight(max(height-12, 5))
	m.table.SetColumns(columnsFor(width))
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
	if m.confirmDelete {
		return []key.Binding{
			key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "delete")),
			key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "keep")),
		}
	}
	return []key.Binding{
		m.keys.Enter,
		m.keys.Add,
		m.keys.Edit,
		m.keys.Delete,
		m.keys.Refresh,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Enter, m.keys.Refresh, m.keys.CopyURL},
		{m.keys.Add, m.keys.Edit, m.keys.Delete},
	}
}

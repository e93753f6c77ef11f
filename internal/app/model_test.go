package app

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/relaywatch-tui/internal/models"
	"github.com/j-veylop/relaywatch-tui/internal/relay"
	"github.com/j-veylop/relaywatch-tui/internal/services"
)

type fakeTab struct {
	name      string
	keys      []string
	width     int
	height    int
	activated int
	capturing bool
}

func (f *fakeTab) Init() tea.Cmd { return nil }

func (f *fakeTab) Update(msg tea.Msg) (Tab, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		f.keys = append(f.keys, k.String())
	}
	return f, nil
}

func (f *fakeTab) View() string { return "fake:" + f.name }

func (f *fakeTab) SetSize(w, h int) { f.width, f.height = w, h }

func (f *fakeTab) ShortHelp() []key.Binding {
	return []key.Binding{key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "do thing"))}
}

func (f *fakeTab) FullHelp() [][]key.Binding { return [][]key.Binding{f.ShortHelp()} }

func (f *fakeTab) Activate() tea.Cmd {
	f.activated++
	return nil
}

func (f *fakeTab) CapturingInput() bool { return f.capturing }

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func newFakeTabs() []*fakeTab {
	tabs := make([]*fakeTab, len(tabNames))
	for i, name := range tabNames {
		tabs[i] = &fakeTab{name: name}
	}
	return tabs
}

func modelWithFakeTabs() (*Model, []*fakeTab) {
	m := NewModel(nil)
	fakes := newFakeTabs()
	tabs := make([]Tab, len(fakes))
	for i, f := range fakes {
		tabs[i] = f
	}
	m.SetTabs(tabs)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m, fakes
}

func runNotification(t *testing.T, m *Model, cmd tea.Cmd) Notification {
	t.Helper()
	msg := cmd()
	add, ok := msg.(AddNotificationMsg)
	if !ok {
		t.Fatalf("Expected AddNotificationMsg, got %T", msg)
	}
	m.Update(add)
	notifs := m.state.GetNotifications()
	if len(notifs) == 0 {
		t.Fatal("no notifications")
	}
	return notifs[len(notifs)-1]
}

func TestNewModel(t *testing.T) {
	model := NewModel(nil)
	if model == nil {
		t.Fatal("NewModel returned nil")
	}
	if model.GetState() == nil {
		t.Error("State should be initialized")
	}
	if model.GetActiveTab() != TabBalance {
		t.Error("Default tab should be Balance")
	}
	if len(model.tabs) != 5 {
		t.Errorf("Should have 5 tab placeholders, got %d", len(model.tabs))
	}
	if model.GetServices() != nil {
		t.Error("services should be nil")
	}
}

func TestModel_Init(t *testing.T) {
	model := NewModel(nil)
	if model.Init() == nil {
		t.Error("Init returned nil command")
	}
	notifs := model.state.GetNotifications()
	if len(notifs) != 1 || notifs[0].Type != NotificationLoading {
		t.Errorf("Init should show a loading notification, got %+v", notifs)
	}
}

func TestModel_Update_WindowSize(t *testing.T) {
	m, fakes := modelWithFakeTabs()

	if !m.IsReady() {
		t.Error("Model should be ready after WindowSizeMsg")
	}
	if m.width != 100 || m.height != 40 {
		t.Errorf("size = %dx%d, want 100x40", m.width, m.height)
	}
	for _, f := range fakes {
		if f.width != 100 || f.height != 35 {
			t.Errorf("%s size = %dx%d, want 100x35", f.name, f.width, f.height)
		}
	}
}

func TestModel_TabSwitching(t *testing.T) {
	m, fakes := modelWithFakeTabs()

	tests := []struct {
		key  rune
		want TabID
	}{
		{'2', TabLogs},
		{'3', TabStations},
		{'4', TabSettings},
		{'5', TabInfo},
		{'1', TabBalance},
	}
	for _, tt := range tests {
		m.Update(runeKey(tt.key))
		if m.GetActiveTab() != tt.want {
			t.Errorf("after %q ActiveTab = %v, want %v", tt.key, m.GetActiveTab(), tt.want)
		}
	}

	if fakes[TabLogs].activated != 1 {
		t.Errorf("Logs activated %d times, want 1", fakes[TabLogs].activated)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.GetActiveTab() != TabLogs {
		t.Errorf("tab key should move to Logs, got %v", m.GetActiveTab())
	}
	m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.GetActiveTab() != TabInfo {
		t.Errorf("shift+tab should wrap to Info, got %v", m.GetActiveTab())
	}

	m.Update(TabSwitchMsg{Tab: TabStations})
	if m.GetActiveTab() != TabStations {
		t.Errorf("TabSwitchMsg ActiveTab = %v, want Stations", m.GetActiveTab())
	}

	m.Update(TabSwitchMsg{Tab: TabID(42)})
	if m.GetActiveTab() != TabStations {
		t.Error("out of range tab should be ignored")
	}
}

func TestModel_KeysReachTab(t *testing.T) {
	m, fakes := modelWithFakeTabs()

	m.Update(runeKey('r'))
	if len(fakes[TabBalance].keys) != 1 || fakes[TabBalance].keys[0] != "r" {
		t.Errorf("tab keys = %v, want [r]", fakes[TabBalance].keys)
	}

	m.Update(runeKey('2'))
	if len(fakes[TabBalance].keys) != 1 {
		t.Error("global keys should not reach the tab")
	}
}

func TestModel_InputCapture(t *testing.T) {
	m, fakes := modelWithFakeTabs()
	fakes[TabBalance].capturing = true

	m.Update(runeKey('2'))
	m.Update(runeKey('q'))

	if m.GetActiveTab() != TabBalance {
		t.Error("tab switch keys must go to a capturing tab")
	}
	if got := strings.Join(fakes[TabBalance].keys, ""); got != "2q" {
		t.Errorf("captured keys = %q, want 2q", got)
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Error("ctrl+c should quit even while capturing")
	}
}

func TestModel_Quit(t *testing.T) {
	m, _ := modelWithFakeTabs()
	cmd, handled := m.handleKeyMsg(runeKey('q'))
	if !handled || cmd == nil {
		t.Fatal("q should be handled with a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}

	_, cmd = m.Update(QuitMsg{})
	if cmd == nil {
		t.Error("QuitMsg should return a command")
	}
}

func TestModel_RefreshAllKey(t *testing.T) {
	m, _ := modelWithFakeTabs()
	cmd, handled := m.handleKeyMsg(tea.KeyMsg{Type: tea.KeyCtrlR})
	if !handled || cmd == nil {
		t.Fatal("ctrl+r should be handled")
	}
	msg, ok := cmd().(RefreshMsg)
	if !ok || msg.Resource != "all" {
		t.Errorf("ctrl+r sent %#v", msg)
	}
}

func TestModel_Update_Tick(t *testing.T) {
	model := NewModel(nil)
	_, cmd := model.Update(TickMsg{Time: time.Now()})
	if cmd == nil {
		t.Error("TickMsg should return a command (next tick)")
	}
}

func TestModel_View(t *testing.T) {
	model := NewModel(nil)

	if !strings.Contains(model.View(), "Loading...") {
		t.Error("View should show Loading when not ready")
	}

	model.Update(tea.WindowSizeMsg{Width: 100, Height: 24})
	view := model.View()
	for _, name := range tabNames {
		if !strings.Contains(view, name) {
			t.Errorf("View should show %s tab", name)
		}
	}
	if !strings.Contains(view, "not yet implemented") {
		t.Error("View should show placeholder text")
	}

	model.state.SetStations([]models.StationBalance{stationBalance("a", "alpha", true)})
	if !strings.Contains(model.View(), "alpha") {
		t.Error("navbar should show the active station")
	}
}

func TestModel_Help(t *testing.T) {
	m, _ := modelWithFakeTabs()

	m.Update(ToggleHelpMsg{})
	if !m.showHelp {
		t.Error("showHelp should be true")
	}

	view := m.View()
	if !strings.Contains(view, "Keyboard Shortcuts") {
		t.Error("View should show help modal")
	}
	if !strings.Contains(view, "do thing") {
		t.Error("help should list the active tab's keys")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.showHelp {
		t.Error("esc should close help")
	}

	m.handleKeyMsg(runeKey('?'))
	if !m.showHelp {
		t.Error("? should open help")
	}
	m.handleKeyMsg(runeKey('?'))
	if m.showHelp {
		t.Error("showHelp should be false after toggle")
	}
}

func TestModel_Notifications(t *testing.T) {
	model := NewModel(nil)

	model.Update(AddNotificationMsg{Message: "Test Note", Type: NotificationInfo})
	if len(model.state.GetNotifications()) != 1 {
		t.Errorf("Expected 1 notification, got %d", len(model.state.GetNotifications()))
	}

	model.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	if !strings.Contains(model.View(), "Test Note") {
		t.Error("View should show notification")
	}

	_, cmd := model.Update(AddNotificationMsg{Message: "timed", Type: NotificationInfo, Duration: time.Second})
	if cmd == nil {
		t.Error("timed notification should schedule its removal")
	}

	id := model.state.GetNotifications()[0].ID
	model.Update(RemoveNotificationMsg{ID: id})
	model.Update(ClearExpiredNotificationsMsg{})
	if len(model.state.GetNotifications()) != 1 {
		t.Errorf("Expected 1 notification, got %d", len(model.state.GetNotifications()))
	}
}

func TestModel_HandleServiceEvent(t *testing.T) {
	model := NewModel(nil)
	model.state.SetStations([]models.StationBalance{stationBalance("a", "alpha", true)})

	model.handleServiceEvent(services.StatsEvent{StationCount: 5})
	if model.state.GetStats().StationCount != 5 {
		t.Error("Stats should be updated")
	}

	model.handleServiceEvent(services.BalanceRefreshingEvent{StationID: "a"})
	if !model.state.IsRefreshing("a") {
		t.Error("station should be refreshing")
	}

	rem := 3.0
	model.handleServiceEvent(services.BalanceUpdatedEvent{StationID: "a", Result: &relay.BalanceResult{RemainingUSD: &rem}})
	if model.state.IsRefreshing("a") {
		t.Error("refreshing should be cleared")
	}
	if b := model.state.GetStations()[0].Balance; b == nil || *b.RemainingUSD != 3 {
		t.Errorf("Balance = %+v", b)
	}

	cmd := model.handleServiceEvent(services.ErrorEvent{Service: "stations", Error: errors.New("boom")})
	if cmd == nil {
		t.Fatal("Error event should trigger notification command")
	}
	n := runNotification(t, model, cmd)
	if n.Type != NotificationError || !strings.Contains(n.Message, "boom") {
		t.Errorf("notification = %+v", n)
	}

	if cmd := model.handleServiceEvent(services.StationsChangedEvent{}); cmd != nil {
		t.Error("without services a stations change has nothing to reload")
	}
}

func TestModel_ServiceEventMsg_Rearms(t *testing.T) {
	model := NewModel(nil)
	ch := make(chan services.ServiceEvent, 1)
	model.Update(SubscriptionEventMsg{Channel: ch})

	cmds := model.handleServiceEventMsg(ServiceEventMsg{Event: services.StatsEvent{}})
	if len(cmds) != 1 {
		t.Fatalf("expected the wait command to be re-armed, got %d cmds", len(cmds))
	}
	ch <- services.StatsEvent{StationCount: 2}
	if _, ok := cmds[0]().(ServiceEventMsg); !ok {
		t.Error("re-armed command should yield the next event")
	}
}

func TestModel_Update_Messages(t *testing.T) {
	model := NewModel(nil)

	model.Update(StartLoadingMsg{Resource: ResourceBalance})
	if !model.state.IsLoading(ResourceBalance) {
		t.Error("balance loading should be true")
	}
	model.Update(StopLoadingMsg{Resource: ResourceBalance})
	if model.state.IsLoading(ResourceBalance) {
		t.Error("balance loading should be false")
	}

	list := []models.StationBalance{stationBalance("a", "alpha", true)}
	model.Update(StationsLoadedMsg{Stations: list, Stats: services.StatsEvent{StationCount: 1}})
	if model.state.GetStationCount() != 1 {
		t.Error("Stations should be updated")
	}
	if model.state.GetStats().StationCount != 1 {
		t.Error("Stats should be updated")
	}
	if model.state.IsInitialLoading() {
		t.Error("Initial loading should be false")
	}

	// Without services the request messages are dropped.
	for _, msg := range []tea.Msg{
		RefreshMsg{Resource: "all"},
		RefreshMsg{Resource: "balance"},
		RefreshMsg{Resource: "stations"},
		RefreshBalanceMsg{},
		FetchLogsMsg{Page: 1},
		SwitchStationMsg{StationID: "a"},
		SaveStationMsg{},
		DeleteStationMsg{StationID: "a"},
		LoadSettingsMsg{},
		SaveSettingsMsg{},
		ResetSettingsMsg{},
	} {
		if cmds := model.handleAppMsg(msg); len(cmds) != 0 {
			t.Errorf("%T should produce no commands without services", msg)
		}
	}

	if cmds := model.handleAppMsg(CopyToClipboardMsg{Text: "x"}); len(cmds) != 1 {
		t.Error("copy should not need services")
	}
}

func TestModel_ResultNotifications(t *testing.T) {
	model := NewModel(nil)
	fail := errors.New("fail")
	failed := &relay.BalanceResult{Error: "無法取得金額"}
	rem := 5.0
	ok := &relay.BalanceResult{RemainingUSD: &rem}

	tests := []struct {
		name string
		cmds []tea.Cmd
		want NotificationType
		text string
	}{
		{"balance ok", model.handleBalanceRefreshed(BalanceRefreshedMsg{StationID: "a", Result: ok}), NotificationSuccess, "Balance refreshed"},
		{"balance failed", model.handleBalanceRefreshed(BalanceRefreshedMsg{StationID: "a", Result: failed}), NotificationWarning, "無法取得金額"},
		{"balance error", model.handleBalanceRefreshed(BalanceRefreshedMsg{Error: fail}), NotificationError, "fail"},
		{"logs error", model.handleLogsLoaded(LogsLoadedMsg{Error: fail}), NotificationError, "Failed to fetch logs"},
		{"logs failed", model.handleLogsLoaded(LogsLoadedMsg{Page: LogsPage{Result: &relay.LogResult{Error: "empty"}}}), NotificationWarning, "empty"},
		{"switch ok", model.handleSwitchStationResult(SwitchStationResultMsg{Name: "alpha"}), NotificationSuccess, "Switched to alpha"},
		{"switch error", model.handleSwitchStationResult(SwitchStationResultMsg{Error: fail}), NotificationError, "switch"},
		{"add ok", model.handleSaveStationResult(SaveStationResultMsg{Station: models.Station{Name: "alpha"}, IsNew: true}), NotificationSuccess, "Added station alpha"},
		{"update ok", model.handleSaveStationResult(SaveStationResultMsg{Station: models.Station{Name: "alpha"}}), NotificationSuccess, "Updated station alpha"},
		{"save error", model.handleSaveStationResult(SaveStationResultMsg{Error: fail}), NotificationError, "save"},
		{"delete ok", model.handleDeleteStationResult(DeleteStationResultMsg{}), NotificationSuccess, "deleted"},
		{"delete error", model.handleDeleteStationResult(DeleteStationResultMsg{Error: fail}), NotificationError, "delete"},
		{"settings error", model.handleAppMsg(SettingsLoadedMsg{Error: fail}), NotificationError, "Endpoint settings"},
		{"copy ok", model.handleAppMsg(ClipboardResultMsg{Label: "raw response"}), NotificationSuccess, "Copied raw response"},
		{"copy error", model.handleAppMsg(ClipboardResultMsg{Error: fail}), NotificationError, "Copy failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if len(tt.cmds) == 0 {
				t.Fatal("expected a notification command")
			}
			n := runNotification(t, model, tt.cmds[0])
			if n.Type != tt.want {
				t.Errorf("Type = %v, want %v", n.Type, tt.want)
			}
			if !strings.Contains(n.Message, tt.text) {
				t.Errorf("Message = %q, want it to contain %q", n.Message, tt.text)
			}
		})
	}

	if cmds := model.handleLogsLoaded(LogsLoadedMsg{Page: LogsPage{StationID: "a", Result: &relay.LogResult{}}}); len(cmds) != 0 {
		t.Error("successful logs fetch should be silent")
	}
	if model.state.GetLogs() == nil {
		t.Error("logs should be stored")
	}
}

func TestModel_RequestsWithServices(t *testing.T) {
	mgr, _ := newTestManager(t)
	st := addTestStation(t, mgr, "alpha")

	model := NewModel(mgr)

	cmds := model.handleRequestMsg(RefreshBalanceMsg{StationID: st.ID})
	if len(cmds) != 1 {
		t.Fatalf("RefreshBalanceMsg returned %d cmds", len(cmds))
	}
	if !model.state.IsRefreshing(st.ID) || !model.state.IsLoading(ResourceBalance) {
		t.Error("balance refresh should mark loading state")
	}
	res, ok := cmds[0]().(BalanceRefreshedMsg)
	if !ok || res.Error != nil || res.StationID != st.ID {
		t.Fatalf("refresh result = %+v", res)
	}

	cmds = model.handleRequestMsg(FetchLogsMsg{Page: 1, Order: "desc"})
	if len(cmds) != 1 {
		t.Fatalf("FetchLogsMsg returned %d cmds", len(cmds))
	}
	logs, ok := cmds[0]().(LogsLoadedMsg)
	if !ok || logs.Error != nil {
		t.Fatalf("logs result = %+v", logs)
	}
	model.Update(logs)
	if model.state.GetLogs() == nil || model.state.IsLoading(ResourceLogs) {
		t.Error("logs should be stored and loading cleared")
	}

	cmds = model.handleRequestMsg(LoadSettingsMsg{StationID: st.ID})
	if loaded, ok := cmds[0]().(SettingsLoadedMsg); !ok || loaded.Error != nil {
		t.Errorf("settings result = %+v", loaded)
	}

	cmds = model.handleRequestMsg(SaveSettingsMsg{StationID: st.ID, Settings: models.EndpointSettings{LogsPageSize: 5}})
	if len(cmds) != 2 {
		t.Errorf("SaveSettingsMsg returned %d cmds, want 2", len(cmds))
	}
	cmds = model.handleRequestMsg(ResetSettingsMsg{StationID: st.ID})
	if len(cmds) != 2 {
		t.Errorf("ResetSettingsMsg returned %d cmds, want 2", len(cmds))
	}

	if cmd := model.handleServiceEvent(services.StationsChangedEvent{}); cmd == nil {
		t.Error("stations change should reload the list")
	} else if _, ok := cmd().(StationsLoadedMsg); !ok {
		t.Error("reload should yield StationsLoadedMsg")
	}
}

func TestModel_HandleSpinnerTick(t *testing.T) {
	model := NewModel(nil)
	_, cmd := model.Update(spinner.TickMsg{})
	if cmd == nil {
		t.Error("Spinner tick should return command")
	}
}

func TestTabID_String(t *testing.T) {
	tests := map[TabID]string{
		TabBalance:  "Balance",
		TabLogs:     "Logs",
		TabStations: "Stations",
		TabSettings: "Settings",
		TabInfo:     "Info",
		TabID(999):  "Unknown",
		TabID(-1):   "Unknown",
	}
	for id, want := range tests {
		if got := id.String(); got != want {
			t.Errorf("TabID(%d).String() = %q, want %q", id, got, want)
		}
	}
}

func TestDefaultKeyMap(t *testing.T) {
	km := DefaultKeyMap()
	if len(km.ShortHelp()) == 0 {
		t.Error("ShortHelp empty")
	}
	if len(km.FullHelp()) != 4 {
		t.Errorf("FullHelp has %d groups, want 4", len(km.FullHelp()))
	}
}

func TestDefaultStyles(t *testing.T) {
	s := DefaultStyles()
	if s.Title.Render("x") == "" {
		t.Error("Title style should render")
	}
}

// Package app implements the main Bubble Tea application with tab-based navigation.
package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/j-veylop/relaywatch-tui/internal/services"
	"github.com/j-veylop/relaywatch-tui/internal/ui/styles"
)

// TabID represents the identifier for a tab in the application.
type TabID int

const (
	// TabBalance is the ID for the balance tab.
	TabBalance TabID = iota
	// TabLogs is the ID for the call logs tab.
	TabLogs
	// TabStations is the ID for the station management tab.
	TabStations
	// TabSettings is the ID for the endpoint settings tab.
	TabSettings
	// TabInfo is the ID for the info tab.
	TabInfo
)

var tabNames = []string{"Balance", "Logs", "Stations", "Settings", "Info"}

// String returns the string representation of the TabID.
func (t TabID) String() string {
	if t < 0 || int(t) >= len(tabNames) {
		return "Unknown"
	}
	return tabNames[t]
}

// Tab defines the interface that all tabs must implement.
type Tab interface {
	// Init initializes the tab and returns any initial commands.
	Init() tea.Cmd

	// Update handles messages and returns the updated tab and any commands.
	Update(msg tea.Msg) (Tab, tea.Cmd)

	// View renders the tab content.
	View() string

	// SetSize sets the available size for the tab.
	SetSize(width, height int)

	// ShortHelp returns key bindings for the short help view.
	ShortHelp() []key.Binding

	// FullHelp returns key bindings for the full help view.
	FullHelp() [][]key.Binding
}

// Activator is implemented by tabs that load data when they become visible.
type Activator interface {
	Activate() tea.Cmd
}

// InputCapturer is implemented by tabs that embed text inputs. While
// CapturingInput reports true only ctrl+c is handled globally.
type InputCapturer interface {
	CapturingInput() bool
}

// KeyMap defines the keybindings for the application.
type KeyMap struct {
	Tab1       key.Binding
	Tab2       key.Binding
	Tab3       key.Binding
	Tab4       key.Binding
	Tab5       key.Binding
	NextTab    key.Binding
	PrevTab    key.Binding
	RefreshAll key.Binding
	Help       key.Binding
	Quit       key.Binding
	ForceQuit  key.Binding
	Up         key.Binding
	Down       key.Binding
	Enter      key.Binding
	Escape     key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	km := KeyMap{}
	km = setTabKeys(km)
	km = setActionKeys(km)
	km = setNavigationKeys(km)
	return km
}

func setTabKeys(k KeyMap) KeyMap {
	k.Tab1 = key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "balance"))
	k.Tab2 = key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "logs"))
	k.Tab3 = key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "stations"))
	k.Tab4 = key.NewBinding(key.WithKeys("4"), key.WithHelp("4", "settings"))
	k.Tab5 = key.NewBinding(key.WithKeys("5"), key.WithHelp("5", "info"))
	k.NextTab = key.NewBinding(key.WithKeys("tab", "l", "right"), key.WithHelp("tab/→", "next tab"))
	k.PrevTab = key.NewBinding(key.WithKeys("shift+tab", "h", "left"), key.WithHelp("shift+tab/←", "prev tab"))
	return k
}

func setActionKeys(k KeyMap) KeyMap {
	k.RefreshAll = key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "refresh all stations"))
	k.Help = key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help"))
	k.Quit = key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit"))
	k.ForceQuit = key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit"))
	return k
}

func setNavigationKeys(k KeyMap) KeyMap {
	k.Up = key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up"))
	k.Down = key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down"))
	k.Enter = key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select"))
	k.Escape = key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel"))
	return k
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.RefreshAll, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab1, k.Tab2, k.Tab3, k.Tab4, k.Tab5},
		{k.NextTab, k.PrevTab},
		{k.Up, k.Down, k.Enter, k.Escape},
		{k.RefreshAll, k.Help, k.Quit},
	}
}

// Styles defines the application styles.
type Styles struct {
	// Tab bar styles
	TabBar      lipgloss.Style
	ActiveTab   lipgloss.Style
	InactiveTab lipgloss.Style

	// Notification styles
	NotificationSuccess lipgloss.Style
	NotificationError   lipgloss.Style
	NotificationWarning lipgloss.Style
	NotificationInfo    lipgloss.Style

	// Content styles
	Content lipgloss.Style
	Help    lipgloss.Style
	Toast   lipgloss.Style

	// Common styles
	Title     lipgloss.Style
	Subtle    lipgloss.Style
	Highlight lipgloss.Style
}

// DefaultStyles returns the default application styles.
func DefaultStyles() Styles {
	subtle := lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"}
	highlight := lipgloss.AdaptiveColor{Light: "#0F766E", Dark: "#2DD4BF"}
	success := lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#04B575"}
	warning := lipgloss.AdaptiveColor{Light: "#FF8C00", Dark: "#FF8C00"}
	errorColor := lipgloss.AdaptiveColor{Light: "#FF5F87", Dark: "#FF5F87"}
	info := lipgloss.AdaptiveColor{Light: "#0087D7", Dark: "#5FAFFF"}

	s := Styles{}
	s.TabBar = lipgloss.NewStyle().Padding(0, 1).BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).BorderForeground(subtle)
	s.ActiveTab = lipgloss.NewStyle().Bold(true).Foreground(highlight).Padding(0, 2)
	s.InactiveTab = lipgloss.NewStyle().Foreground(subtle).Padding(0, 2)

	s.NotificationSuccess = lipgloss.NewStyle().Foreground(success).Padding(0, 1)
	s.NotificationError = lipgloss.NewStyle().Foreground(errorColor).Bold(true).Padding(0, 1)
	s.NotificationWarning = lipgloss.NewStyle().Foreground(warning).Padding(0, 1)
	s.NotificationInfo = lipgloss.NewStyle().Foreground(info).Padding(0, 1)

	s.Content = lipgloss.NewStyle().Padding(1, 2)
	s.Help = lipgloss.NewStyle().Foreground(subtle).Padding(0, 1)
	s.Toast = styles.ToastStyle

	s.Title = lipgloss.NewStyle().Bold(true).Foreground(highlight)
	s.Subtle = lipgloss.NewStyle().Foreground(subtle)
	s.Highlight = lipgloss.NewStyle().Foreground(highlight)

	return s
}

// Model is the main application model.
type Model struct {
	state        *State
	services     *services.Manager
	eventChannel chan services.ServiceEvent
	tabs         []Tab
	spinner      spinner.Model
	styles       Styles
	keymap       KeyMap
	activeTab    TabID
	width        int
	height       int
	showHelp     bool
	ready        bool
}

// NewModel initializes a new application model. mgr may be nil in tests.
func NewModel(mgr *services.Manager) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	return &Model{
		activeTab: TabBalance,
		tabs:      make([]Tab, len(tabNames)),
		state:     NewState(),
		services:  mgr,
		keymap:    DefaultKeyMap(),
		styles:    DefaultStyles(),
		spinner:   s,
	}
}

// SetTabs sets the tabs for the model.
func (m *Model) SetTabs(tabs []Tab) {
	m.tabs = tabs
	if m.width > 0 && m.height > 0 {
		m.updateTabSizes()
	}
}

// GetState returns the application state.
func (m *Model) GetState() *State {
	return m.state
}

// GetServices returns the service manager.
func (m *Model) GetServices() *services.Manager {
	return m.services
}

// GetActiveTab returns the currently active tab ID.
func (m *Model) GetActiveTab() TabID {
	return m.activeTab
}

// IsReady returns true if the model is ready (window size received).
func (m *Model) IsReady() bool {
	return m.ready
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	m.state.SetLoadingNotification("Loading stations...")

	cmds := []tea.Cmd{
		m.spinner.Tick,
		defaultTickCmd(),
	}

	if m.services != nil {
		cmds = append(cmds, subscribeToServicesCmd(m.services))
		cmds = append(cmds, loadStationsCmd(m.services))
	}

	for _, tab := range m.tabs {
		if tab != nil {
			cmds = append(cmds, tab.Init())
		}
	}

	return tea.Batch(cmds...)
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.handleWindowSize(msg)

	case tea.KeyMsg:
		cmd, handled := m.handleKeyMsg(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		if handled {
			return m, tea.Batch(cmds...)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	default:
		cmds = append(cmds, m.handleAppMsg(msg)...)
	}

	if cmd := m.updateActiveTab(msg); cmd != nil {
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleAppMsg(msg tea.Msg) []tea.Cmd {
	switch msg := msg.(type) {
	case TickMsg:
		m.state.ClearExpiredNotifications()
		return []tea.Cmd{defaultTickCmd()}
	case SubscriptionEventMsg:
		m.eventChannel = msg.Channel
		return []tea.Cmd{waitForServiceEventCmd(m.eventChannel)}
	case ServiceEventMsg:
		return m.handleServiceEventMsg(msg)
	case StationsLoadedMsg:
		m.handleStationsLoaded(msg)
	case BalanceRefreshedMsg:
		return m.handleBalanceRefreshed(msg)
	case LogsLoadedMsg:
		return m.handleLogsLoaded(msg)
	case SwitchStationResultMsg:
		return m.handleSwitchStationResult(msg)
	case SaveStationResultMsg:
		return m.handleSaveStationResult(msg)
	case DeleteStationResultMsg:
		return m.handleDeleteStationResult(msg)
	case SettingsLoadedMsg:
		if msg.Error != nil {
			return []tea.Cmd{notifyErrorCmd(fmt.Sprintf("Endpoint settings error: %v", msg.Error))}
		}
	case ClipboardResultMsg:
		if msg.Error != nil {
			return []tea.Cmd{notifyErrorCmd(fmt.Sprintf("Copy failed: %v", msg.Error))}
		}
		return []tea.Cmd{notifySuccessCmd(fmt.Sprintf("Copied %s", msg.Label))}
	case AddNotificationMsg:
		return m.handleAddNotification(msg)
	case RemoveNotificationMsg:
		m.state.RemoveNotification(msg.ID)
	case ClearExpiredNotificationsMsg:
		m.state.ClearExpiredNotifications()
	case StartLoadingMsg:
		m.state.SetLoading(msg.Resource, true)
		m.state.SetLoadingNotification("Refreshing...")
	case StopLoadingMsg:
		m.stopLoading(msg.Resource)
	case ErrorMsg:
		return []tea.Cmd{notifyErrorCmd(fmt.Sprintf("%s: %v", msg.Context, msg.Error))}
	case TabSwitchMsg:
		return []tea.Cmd{m.setActiveTab(msg.Tab)}
	case ToggleHelpMsg:
		m.showHelp = !m.showHelp
	case QuitMsg:
		return []tea.Cmd{tea.Quit}
	default:
		return m.handleRequestMsg(msg)
	}
	return nil
}

// handleRequestMsg runs the service calls that tabs request by message.
func (m *Model) handleRequestMsg(msg tea.Msg) []tea.Cmd {
	switch msg := msg.(type) {
	case RefreshMsg:
		return m.handleRefresh(msg)
	case RefreshBalanceMsg:
		if m.services == nil {
			return nil
		}
		m.state.SetLoading(ResourceBalance, true)
		if msg.StationID != "" {
			m.state.SetRefreshing(msg.StationID, true)
		}
		return []tea.Cmd{refreshBalanceCmd(m.services, msg.StationID)}
	case FetchLogsMsg:
		if m.services == nil {
			return nil
		}
		m.state.SetLoading(ResourceLogs, true)
		m.state.SetLoadingNotification("Fetching logs...")
		return []tea.Cmd{fetchLogsCmd(m.services, msg.Page, msg.Order)}
	case SwitchStationMsg:
		if m.services != nil {
			return []tea.Cmd{switchStationCmd(m.services, msg.StationID)}
		}
	case SaveStationMsg:
		if m.services != nil {
			return []tea.Cmd{saveStationCmd(m.services, msg.Station, msg.IsNew)}
		}
	case DeleteStationMsg:
		if m.services != nil {
			return []tea.Cmd{deleteStationCmd(m.services, msg.StationID)}
		}
	case LoadSettingsMsg:
		if m.services != nil {
			return []tea.Cmd{loadSettingsCmd(m.services, msg.StationID)}
		}
	case SaveSettingsMsg:
		if m.services != nil {
			return []tea.Cmd{saveSettingsCmd(m.services, msg.StationID, msg.Settings), notifySuccessCmd("Endpoint settings saved")}
		}
	case ResetSettingsMsg:
		if m.services != nil {
			return []tea.Cmd{resetSettingsCmd(m.services, msg.StationID), notifyInfoCmd("Endpoint settings restored to defaults")}
		}
	case CopyToClipboardMsg:
		return []tea.Cmd{copyToClipboardCmd(msg.Text, msg.Label)}
	}
	return nil
}

func (m *Model) handleWindowSize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height
	m.ready = true
	m.updateTabSizes()
}

func (m *Model) handleServiceEventMsg(msg ServiceEventMsg) []tea.Cmd {
	var cmds []tea.Cmd
	if cmd := m.handleServiceEvent(msg.Event); cmd != nil {
		cmds = append(cmds, cmd)
	}
	if m.eventChannel != nil {
		cmds = append(cmds, waitForServiceEventCmd(m.eventChannel))
	}
	return cmds
}

func (m *Model) handleServiceEvent(event services.ServiceEvent) tea.Cmd {
	switch e := event.(type) {
	case services.StationsChangedEvent:
		if m.services != nil {
			return loadStationsCmd(m.services)
		}

	case services.BalanceRefreshingEvent:
		m.state.SetRefreshing(e.StationID, true)

	case services.BalanceUpdatedEvent:
		m.state.SetBalance(e.StationID, e.Result)
		if m.services != nil {
			return loadStationsCmd(m.services)
		}

	case services.ErrorEvent:
		return notifyErrorCmd(fmt.Sprintf("[%s] %v", e.Service, e.Error))

	case services.StatsEvent:
		m.state.SetStats(e)
	}

	return nil
}

func (m *Model) handleStationsLoaded(msg StationsLoadedMsg) {
	m.state.SetLoading(ResourceInitial, false)
	m.state.SetLoading(ResourceStations, false)
	m.state.SetStations(msg.Stations)
	m.state.SetStats(msg.Stats)
	if !m.state.AnyLoading() {
		m.state.ClearLoadingNotification()
	}
}

func (m *Model) stopLoading(resource string) {
	m.state.SetLoading(resource, false)
	if !m.state.AnyLoading() {
		m.state.ClearLoadingNotification()
	}
}

func (m *Model) handleBalanceRefreshed(msg BalanceRefreshedMsg) []tea.Cmd {
	m.stopLoading(ResourceBalance)
	if msg.StationID != "" {
		m.state.SetRefreshing(msg.StationID, false)
	}

	var cmds []tea.Cmd
	switch {
	case msg.Error != nil:
		cmds = append(cmds, notifyErrorCmd(fmt.Sprintf("Failed to refresh balance: %v", msg.Error)))
	case msg.Result != nil && msg.Result.Failed():
		m.state.SetBalance(msg.StationID, msg.Result)
		cmds = append(cmds, notifyWarningCmd(msg.Result.Error))
	default:
		m.state.SetBalance(msg.StationID, msg.Result)
		cmds = append(cmds, notifySuccessCmd("Balance refreshed"))
	}

	if m.services != nil {
		cmds = append(cmds, loadStationsCmd(m.services))
	}
	return cmds
}

func (m *Model) handleLogsLoaded(msg LogsLoadedMsg) []tea.Cmd {
	m.stopLoading(ResourceLogs)
	if msg.Error != nil {
		return []tea.Cmd{notifyErrorCmd(fmt.Sprintf("Failed to fetch logs: %v", msg.Error))}
	}

	m.state.SetLogs(msg.Page)
	if res := msg.Page.Result; res != nil && res.Failed() {
		return []tea.Cmd{notifyWarningCmd(res.Error)}
	}
	return nil
}

func (m *Model) handleSwitchStationResult(msg SwitchStationResultMsg) []tea.Cmd {
	if msg.Error != nil {
		return []tea.Cmd{notifyErrorCmd(fmt.Sprintf("Failed to switch station: %v", msg.Error))}
	}

	cmds := []tea.Cmd{notifySuccessCmd(fmt.Sprintf("Switched to %s", msg.Name))}
	if m.services != nil {
		cmds = append(cmds, loadStationsCmd(m.services))
	}
	return cmds
}

func (m *Model) handleSaveStationResult(msg SaveStationResultMsg) []tea.Cmd {
	if msg.Error != nil {
		return []tea.Cmd{notifyErrorCmd(fmt.Sprintf("Failed to save station: %v", msg.Error))}
	}

	verb := "Updated"
	if msg.IsNew {
		verb = "Added"
	}
	cmds := []tea.Cmd{notifySuccessCmd(fmt.Sprintf("%s station %s", verb, msg.Station.Name))}
	if m.services != nil {
		cmds = append(cmds, loadStationsCmd(m.services))
	}
	return cmds
}

func (m *Model) handleDeleteStationResult(msg DeleteStationResultMsg) []tea.Cmd {
	if msg.Error != nil {
		return []tea.Cmd{notifyErrorCmd(fmt.Sprintf("Failed to delete station: %v", msg.Error))}
	}

	cmds := []tea.Cmd{notifySuccessCmd("Station deleted")}
	if m.services != nil {
		cmds = append(cmds, loadStationsCmd(m.services))
	}
	return cmds
}

func (m *Model) handleAddNotification(msg AddNotificationMsg) []tea.Cmd {
	id := m.state.AddNotification(msg.Type, msg.Message, msg.Duration)
	if msg.Duration > 0 {
		return []tea.Cmd{clearNotificationCmd(id, msg.Duration)}
	}
	return nil
}

func (m *Model) handleRefresh(msg RefreshMsg) []tea.Cmd {
	if m.services == nil {
		return nil
	}

	switch msg.Resource {
	case "all":
		m.state.SetLoading(ResourceBalance, true)
		m.state.SetLoadingNotification("Refreshing all stations...")
		return []tea.Cmd{tea.Sequence(refreshAllCmd(m.services), SendMsg(StopLoadingMsg{Resource: ResourceBalance}))}
	case "balance":
		return m.handleRequestMsg(RefreshBalanceMsg{})
	default:
		m.state.SetLoading(ResourceStations, true)
		return []tea.Cmd{loadStationsCmd(m.services)}
	}
}

func (m *Model) setActiveTab(id TabID) tea.Cmd {
	if id < 0 || int(id) >= len(m.tabs) {
		return nil
	}
	m.activeTab = id
	m.updateTabSizes()

	if a, ok := m.tabs[id].(Activator); ok {
		return a.Activate()
	}
	return nil
}

func (m *Model) updateActiveTab(msg tea.Msg) tea.Cmd {
	if int(m.activeTab) < len(m.tabs) && m.tabs[m.activeTab] != nil {
		var cmd tea.Cmd
		m.tabs[m.activeTab], cmd = m.tabs[m.activeTab].Update(msg)
		return cmd
	}
	return nil
}

func (m *Model) updateTabSizes() {
	contentHeight := max(0, m.height-5)

	for _, tab := range m.tabs {
		if tab != nil {
			tab.SetSize(m.width, contentHeight)
		}
	}
}

func (m *Model) activeTabCapturesInput() bool {
	if int(m.activeTab) >= len(m.tabs) {
		return false
	}
	c, ok := m.tabs[m.activeTab].(InputCapturer)
	return ok && c.CapturingInput()
}

// handleKeyMsg handles global keys. handled reports whether the key must not
// reach the active tab.
func (m *Model) handleKeyMsg(msg tea.KeyMsg) (cmd tea.Cmd, handled bool) {
	if key.Matches(msg, m.keymap.ForceQuit) {
		return tea.Quit, true
	}
	if m.activeTabCapturesInput() {
		return nil, false
	}

	switch {
	case key.Matches(msg, m.keymap.Quit):
		return tea.Quit, true

	case key.Matches(msg, m.keymap.Help):
		m.showHelp = !m.showHelp
		return nil, true

	case key.Matches(msg, m.keymap.Escape):
		if m.showHelp {
			m.showHelp = false
			return nil, true
		}

	case key.Matches(msg, m.keymap.Tab1):
		return m.setActiveTab(TabBalance), true

	case key.Matches(msg, m.keymap.Tab2):
		return m.setActiveTab(TabLogs), true

	case key.Matches(msg, m.keymap.Tab3):
		return m.setActiveTab(TabStations), true

	case key.Matches(msg, m.keymap.Tab4):
		return m.setActiveTab(TabSettings), true

	case key.Matches(msg, m.keymap.Tab5):
		return m.setActiveTab(TabInfo), true

	case key.Matches(msg, m.keymap.NextTab):
		if !m.showHelp && len(m.tabs) > 0 {
			return m.setActiveTab(TabID((int(m.activeTab) + 1) % len(m.tabs))), true
		}
		return nil, true

	case key.Matches(msg, m.keymap.PrevTab):
		if !m.showHelp && len(m.tabs) > 0 {
			return m.setActiveTab(TabID((int(m.activeTab) - 1 + len(m.tabs)) % len(m.tabs))), true
		}
		return nil, true

	case key.Matches(msg, m.keymap.RefreshAll):
		return SendMsg(RefreshMsg{Resource: "all"}), true
	}

	// Let the tab handle other keys
	return nil, m.showHelp
}

// View renders the application UI.
func (m *Model) View() string {
	var b strings.Builder

	if m.width > 0 {
		b.WriteString(m.renderNavbar())
		b.WriteString("\n")
	}

	if !m.ready {
		b.WriteString(m.styles.Content.Render(fmt.Sprintf("%s Loading...", m.spinner.View())))
		return b.String()
	}

	if int(m.activeTab) < len(m.tabs) && m.tabs[m.activeTab] != nil {
		b.WriteString(m.tabs[m.activeTab].View())
	} else {
		b.WriteString(m.renderPlaceholder())
	}

	mainView := b.String()

	if m.showHelp {
		mainView = m.overlayCentered(mainView, m.renderHelp())
	}

	if notifications := m.renderNotifications(); len(notifications) > 0 {
		return m.overlayToasts(mainView, notifications)
	}

	return mainView
}

func (m *Model) overlayCentered(mainView string, overlay string) string {
	mainLines := m.padLines(strings.Split(mainView, "\n"))
	overlayLines := strings.Split(overlay, "\n")

	overlayWidth := lipgloss.Width(overlay)

	y := max(0, (m.height-len(overlayLines))/2)
	x := max(0, (m.width-overlayWidth)/2)

	for i, overlayLine := range overlayLines {
		mainY := y + i
		if mainY >= len(mainLines) {
			break
		}

		mainLine := mainLines[mainY]

		left := ansi.Truncate(mainLine, x, "")
		right := ansi.TruncateLeft(mainLine, x+overlayWidth, "")

		if w := lipgloss.Width(left); w < x {
			left += strings.Repeat(" ", x-w)
		}

		mainLines[mainY] = left + overlayLine + right
	}

	return strings.Join(mainLines, "\n")
}

// padLines extends short views to the window height so overlays have room.
func (m *Model) padLines(lines []string) []string {
	for len(lines) < m.height {
		lines = append(lines, "")
	}
	return lines
}

func (m *Model) renderNavbar() string {
	tabs := make([]string, 0, len(tabNames))

	for i, name := range tabNames {
		if TabID(i) == m.activeTab {
			tabs = append(tabs, m.styles.ActiveTab.Render(fmt.Sprintf("[%d] %s", i+1, name)))
		} else {
			tabs = append(tabs, m.styles.InactiveTab.Render(fmt.Sprintf(" %d  %s", i+1, name)))
		}
	}

	bar := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	if active := m.state.GetActiveStation(); active != nil {
		bar = lipgloss.JoinHorizontal(lipgloss.Top, bar, m.styles.Subtle.Render("  ● "+active.Name))
	}

	return m.styles.TabBar.Width(m.width).Render(bar)
}

func (m *Model) renderNotifications() []string {
	notifications := m.state.GetNotifications()
	if len(notifications) == 0 {
		return nil
	}

	toasts := make([]string, 0, len(notifications))
	for _, n := range notifications {
		var style lipgloss.Style
		var prefix string

		switch n.Type {
		case NotificationSuccess:
			style = m.styles.NotificationSuccess
			prefix = "[OK]"
		case NotificationError:
			style = m.styles.NotificationError
			prefix = "[ERR]"
		case NotificationWarning:
			style = m.styles.NotificationWarning
			prefix = "[WARN]"
		case NotificationInfo:
			style = m.styles.NotificationInfo
			prefix = "[INFO]"
		case NotificationLoading:
			style = m.styles.NotificationInfo
			prefix = m.spinner.View()
		}

		content := style.Render(fmt.Sprintf("%s %s", prefix, n.Message))
		toasts = append(toasts, m.styles.Toast.Render(content))
	}

	return toasts
}

func (m *Model) overlayToasts(mainView string, toasts []string) string {
	toastStack := lipgloss.JoinVertical(lipgloss.Right, toasts...)
	toastLines := strings.Split(toastStack, "\n")
	mainLines := m.padLines(strings.Split(mainView, "\n"))

	startX := max(m.width-lipgloss.Width(toastStack)-2, 0)
	startY := 2

	for i, toastLine := range toastLines {
		lineIdx := startY + i
		if lineIdx >= len(mainLines) {
			break
		}

		mainLine := mainLines[lineIdx]

		if w := lipgloss.Width(mainLine); w < startX {
			mainLines[lineIdx] = mainLine + strings.Repeat(" ", startX-w) + toastLine
		} else {
			mainLines[lineIdx] = ansi.Truncate(mainLine, startX, "") + toastLine
		}
	}

	return strings.Join(mainLines, "\n")
}

func (m *Model) renderHelp() string {
	lines := []string{
		m.styles.Title.Render("Keyboard Shortcuts"),
		"",
		m.styles.Highlight.Render("Navigation"),
		"  1-5        Switch tabs",
		"  Tab        Next tab",
		"  Shift+Tab  Previous tab",
		"",
		m.styles.Highlight.Render("Actions"),
		"  Ctrl+R     Refresh all stations",
		"  ?          Toggle help",
		"  q/Ctrl+C   Quit",
		"",
	}

	if int(m.activeTab) < len(m.tabs) && m.tabs[m.activeTab] != nil {
		if tabHelp := m.tabs[m.activeTab].ShortHelp(); len(tabHelp) > 0 {
			lines = append(lines, m.styles.Highlight.Render(fmt.Sprintf("%s Tab", m.activeTab)))
			for _, binding := range tabHelp {
				lines = append(lines, fmt.Sprintf("  %-10s %s", binding.Help().Key, binding.Help().Desc))
			}
			lines = append(lines, "")
		}
	}

	lines = append(lines, m.styles.Subtle.Render("Press ? or Esc to close"))

	return styles.HelpPanelStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderPlaceholder() string {
	content := fmt.Sprintf(
		"Tab %d: %s\n\n%s",
		m.activeTab+1,
		m.activeTab,
		m.styles.Subtle.Render("This tab is not yet implemented."),
	)
	return m.styles.Content.Render(content)
}

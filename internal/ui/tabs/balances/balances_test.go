package balances

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/relaywatch-tui/internal/app"
	"github.com/j-veylop/relaywatch-tui/internal/models"
	"github.com/j-veylop/relaywatch-tui/internal/relay"
)

func ptr(v float64) *float64 { return &v }

func usdBalance(remaining, limit float64) *relay.BalanceResult {
	return &relay.BalanceResult{
		HardLimitUSD: ptr(limit),
		UsedUSD:      ptr(limit - remaining),
		RemainingUSD: ptr(remaining),
		RawResponse:  map[string]any{"subscription": map[string]any{"hard_limit_usd": limit}},
		Attempts: []relay.Attempt{
			{Source: relay.SourceSubscription},
			{Source: relay.SourceUsage},
		},
	}
}

func newTestModel(t *testing.T) (*Model, *app.State) {
	t.Helper()
	state := app.NewState()
	state.SetLoading(app.ResourceInitial, false)
	state.SetStations([]models.StationBalance{
		{
			Station:   models.Station{ID: "a", Name: "alpha", BaseURL: "https://alpha.example", APIKey: "sk-alpha-secret"},
			Balance:   usdBalance(25, 100),
			UpdatedAt: time.Now(),
			IsActive:  true,
		},
		{
			Station: models.Station{ID: "b", Name: "beta", BaseURL: "https://beta.example", APIKey: "sk-beta-secret"},
			Balance: &relay.BalanceResult{
				Error:       relay.ErrNoBalance,
				RawResponse: map[string]any{},
				Attempts: []relay.Attempt{
					{Source: relay.SourceToken, Err: errors.New("401 bad key sk-beta-secret")},
				},
			},
		},
	})
	m := New(state, 1)
	m.SetSize(120, 60)
	return m, state
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func runCmd(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	return cmd()
}

func TestNew(t *testing.T) {
	m := New(app.NewState(), 1)
	if m == nil {
		t.Fatal("New returned nil")
	}
	if m.Init() == nil {
		t.Error("Init returned nil")
	}
}

func TestModel_ViewLoading(t *testing.T) {
	m := New(app.NewState(), 1)
	m.SetSize(80, 20)
	if !strings.Contains(m.View(), "Loading stations") {
		t.Error("initial load should show the spinner")
	}
}

func TestModel_ViewEmpty(t *testing.T) {
	state := app.NewState()
	state.SetLoading(app.ResourceInitial, false)
	m := New(state, 1)
	m.SetSize(100, 30)

	if !strings.Contains(m.View(), "No stations configured") {
		t.Error("empty list should say so")
	}
}

func TestModel_View(t *testing.T) {
	m, _ := newTestModel(t)
	view := m.View()

	for _, want := range []string{"alpha", "beta", "ACTIVE", "$25.00", "$100.00", relay.ErrNoBalance} {
		if !strings.Contains(view, want) {
			t.Errorf("View should contain %q", want)
		}
	}
	if strings.Contains(view, "sk-beta-secret") {
		t.Error("API key must be redacted from error messages")
	}
}

func TestModel_Navigation(t *testing.T) {
	m, _ := newTestModel(t)

	m.Update(runeKey('j'))
	if m.selectedIndex != 1 {
		t.Errorf("selectedIndex = %d, want 1", m.selectedIndex)
	}
	m.Update(runeKey('j'))
	if m.selectedIndex != 0 {
		t.Errorf("selection should wrap, got %d", m.selectedIndex)
	}
	m.Update(runeKey('G'))
	if m.selectedIndex != 1 {
		t.Errorf("G should select last, got %d", m.selectedIndex)
	}
	m.Update(runeKey('g'))
	if m.selectedIndex != 0 {
		t.Errorf("g should select first, got %d", m.selectedIndex)
	}
}

func TestModel_Actions(t *testing.T) {
	m, _ := newTestModel(t)

	_, cmd := m.Update(runeKey('r'))
	if msg, ok := runCmd(t, cmd).(app.RefreshBalanceMsg); !ok || msg.StationID != "a" {
		t.Errorf("r sent %#v", msg)
	}

	if cmd := m.handleKeyMsg(tea.KeyMsg{Type: tea.KeyEnter}); cmd != nil {
		t.Error("enter on the active station should do nothing")
	}

	m.Update(runeKey('j'))
	msg := runCmd(t, m.handleKeyMsg(tea.KeyMsg{Type: tea.KeyEnter}))
	if sw, ok := msg.(app.SwitchStationMsg); !ok || sw.StationID != "b" {
		t.Errorf("enter sent %#v", msg)
	}
}

func TestModel_RawViewer(t *testing.T) {
	m, _ := newTestModel(t)

	m.Update(runeKey('v'))
	if !m.viewer.Visible() {
		t.Fatal("v should open the viewer")
	}
	if !strings.Contains(m.View(), "hard_limit_usd") {
		t.Error("viewer should show the raw response")
	}
	if len(m.ShortHelp()) != len(m.viewer.KeyBindings()) {
		t.Error("help should describe the viewer keys")
	}

	msg := runCmd(t, m.handleKeyMsg(runeKey('c')))
	cp, ok := msg.(app.CopyToClipboardMsg)
	if !ok || !strings.Contains(cp.Text, "hard_limit_usd") {
		t.Errorf("c sent %#v", msg)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.viewer.Visible() {
		t.Error("esc should close the viewer")
	}

	msg = runCmd(t, m.handleKeyMsg(runeKey('c')))
	if _, ok := msg.(app.CopyToClipboardMsg); !ok {
		t.Errorf("c outside the viewer sent %#v", msg)
	}
}

func TestModel_RawViewerWithoutBalance(t *testing.T) {
	state := app.NewState()
	state.SetLoading(app.ResourceInitial, false)
	state.SetStations([]models.StationBalance{{Station: models.Station{ID: "a", Name: "alpha"}}})
	m := New(state, 1)

	msg := runCmd(t, m.handleKeyMsg(runeKey('v')))
	if _, ok := msg.(app.AddNotificationMsg); !ok {
		t.Errorf("v without data sent %#v", msg)
	}
	if m.viewer.Visible() {
		t.Error("viewer should stay closed")
	}
	if m.handleKeyMsg(runeKey('c')) != nil {
		t.Error("nothing to copy yet")
	}
}

func TestModel_Shimmer(t *testing.T) {
	m, state := newTestModel(t)

	if m.needsShimmer() {
		t.Error("all stations answered, nothing to animate")
	}
	state.SetRefreshing("a", true)
	if !m.needsShimmer() {
		t.Error("refreshing station should animate")
	}

	if cmd := m.startShimmer(); cmd == nil {
		t.Error("startShimmer should tick")
	}
	if cmd := m.startShimmer(); cmd != nil {
		t.Error("shimmer already running")
	}

	_, cmd := m.Update(shimmerTickMsg(time.Now()))
	if cmd == nil {
		t.Error("tick should continue while refreshing")
	}

	state.SetRefreshing("a", false)
	m.Update(shimmerTickMsg(time.Now()))
	if m.shimmering {
		t.Error("shimmer should stop when idle")
	}
}

func TestRemainingPercent(t *testing.T) {
	tests := []struct {
		name string
		res  *relay.BalanceResult
		want float64
		ok   bool
	}{
		{"nil", nil, 0, false},
		{"failed", &relay.BalanceResult{Error: "x"}, 0, false},
		{"usd", usdBalance(25, 100), 25, true},
		{"tokens", &relay.BalanceResult{TotalGranted: ptr(200), TotalUsed: ptr(50), TotalAvailable: ptr(150)}, 75, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := remainingPercent(models.StationBalance{Balance: tt.res})
			if got != tt.want || ok != tt.ok {
				t.Errorf("got %v, %v; want %v, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestHelpers(t *testing.T) {
	if got := formatUSD(-1.5); got != "-$1.50" {
		t.Errorf("formatUSD(-1.5) = %q", got)
	}
	if got := truncate("abcdefghij", 6); got != "abc..." {
		t.Errorf("truncate = %q", got)
	}
	if got := timeAgo(time.Now()); got != "just now" {
		t.Errorf("timeAgo(now) = %q", got)
	}
	if got := timeAgo(time.Now().Add(-2 * time.Minute)); got != "2m ago" {
		t.Errorf("timeAgo(-2m) = %q", got)
	}
}

func TestModel_Help(t *testing.T) {
	m := New(app.NewState(), 1)
	if len(m.ShortHelp()) == 0 {
		t.Error("ShortHelp empty")
	}
	if len(m.FullHelp()) == 0 {
		t.Error("FullHelp empty")
	}
}

package balance

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/j-veylop/relaywatch-tui/internal/models"
	"github.com/j-veylop/relaywatch-tui/internal/relay"
)

// MockQuerier implements Querier for testing
type MockQuerier struct {
	BalanceFunc func(creds relay.Credentials, paths relay.BalancePaths) relay.BalanceResult
	LogsFunc    func(q relay.LogQuery) relay.LogResult
	mu          sync.Mutex
	balanceN    int
	lastLogs    relay.LogQuery
	lastPaths   relay.BalancePaths
}

func (m *MockQuerier) QueryBalance(creds relay.Credentials, paths relay.BalancePaths) relay.BalanceResult {
	m.mu.Lock()
	m.balanceN++
	m.lastPaths = paths
	m.mu.Unlock()
	return m.BalanceFunc(creds, paths)
}

func (m *MockQuerier) QueryLogs(q relay.LogQuery) relay.LogResult {
	m.mu.Lock()
	m.lastLogs = q
	m.mu.Unlock()
	return m.LogsFunc(q)
}

// MockStationProvider implements StationProvider for testing
type MockStationProvider struct {
	Stations []models.Station
}

func (m *MockStationProvider) GetStations() []models.Station {
	return m.Stations
}

func (m *MockStationProvider) GetStation(idOrName string) *models.Station {
	for i := range m.Stations {
		if m.Stations[i].ID == idOrName || m.Stations[i].Name == idOrName {
			st := m.Stations[i]
			return &st
		}
	}
	return nil
}

// MockStore implements EndpointStore for testing
type MockStore struct {
	Err      error
	Settings map[string]models.EndpointSettings
}

func (m *MockStore) GetEndpointSettings(stationID string) (models.EndpointSettings, error) {
	if m.Err != nil {
		return models.EndpointSettings{}, m.Err
	}
	if s, ok := m.Settings[stationID]; ok {
		return s.Normalize(), nil
	}
	return models.DefaultEndpointSettings(), nil
}

// MockNotifier records notifications
type MockNotifier struct {
	mu     sync.Mutex
	Titles []string
}

func (m *MockNotifier) Notify(title, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Titles = append(m.Titles, title)
	return nil
}

func (m *MockNotifier) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Titles)
}

func ptr(v float64) *float64 { return &v }

func usdResult(remaining float64) relay.BalanceResult {
	return relay.BalanceResult{
		HardLimitUSD: ptr(100),
		UsedUSD:      ptr(100 - remaining),
		RemainingUSD: ptr(remaining),
		RawResponse:  map[string]any{},
	}
}

func testStations() *MockStationProvider {
	return &MockStationProvider{Stations: []models.Station{
		{ID: "s1", Name: "one", BaseURL: "https://one.example", APIKey: "sk-one"},
		{ID: "s2", Name: "two", BaseURL: "https://two.example", APIKey: "sk-two", ProxyURL: "https://own-proxy.example"},
	}}
}

func newTestService(t *testing.T, q *MockQuerier, store EndpointStore, cfg Config) (*Service, *MockNotifier) {
	t.Helper()
	n := &MockNotifier{}
	svc := New(q, testStations(), store, cfg, WithNotifier(n))
	t.Cleanup(func() { _ = svc.Close() })
	return svc, n
}

func drain(ch <-chan Event) []Event {
	var out []Event
	for {
		select {
		case e := <-ch:
			out = append(out, e)
		default:
			return out
		}
	}
}

func TestRefreshBalance_Success(t *testing.T) {
	q := &MockQuerier{BalanceFunc: func(relay.Credentials, relay.BalancePaths) relay.BalanceResult {
		return usdResult(42)
	}}
	store := &MockStore{Settings: map[string]models.EndpointSettings{
		"s1": {SubscriptionPath: "/custom/sub"},
	}}
	svc, _ := newTestService(t, q, store, DefaultConfig())

	res, err := svc.RefreshBalance("s1")
	if err != nil {
		t.Fatalf("RefreshBalance() error = %v", err)
	}
	if res == nil || *res.RemainingUSD != 42 {
		t.Fatalf("unexpected result %+v", res)
	}
	if q.lastPaths.Subscription != "/custom/sub" || q.lastPaths.Usage != relay.DefaultUsagePath {
		t.Errorf("paths = %+v", q.lastPaths)
	}

	snap, ok := svc.GetBalance("s1")
	if !ok || snap.Result != res || snap.UpdatedAt.IsZero() {
		t.Errorf("balance not cached: %+v", snap)
	}

	events := drain(svc.Events())
	if len(events) != 2 || events[0].Type != EventBalanceRefreshing || events[1].Type != EventBalanceUpdated {
		t.Errorf("events = %+v", events)
	}
}

func TestRefreshBalance_QueryFailureIsData(t *testing.T) {
	q := &MockQuerier{BalanceFunc: func(relay.Credentials, relay.BalancePaths) relay.BalanceResult {
		return relay.BalanceResult{
			Error:       relay.ErrNoBalance,
			RawResponse: map[string]any{},
			Attempts:    []relay.Attempt{{Source: relay.SourceToken, Err: errors.New("boom sk-one")}},
		}
	}}
	svc, _ := newTestService(t, q, nil, DefaultConfig())

	res, err := svc.RefreshBalance("one")
	if err != nil {
		t.Fatalf("query failures should not be Go errors: %v", err)
	}
	if !res.Failed() {
		t.Error("result should carry the error")
	}

	events := drain(svc.Events())
	last := events[len(events)-1]
	if last.Type != EventBalanceError || last.Error == nil || last.Error.Error() != relay.ErrNoBalance {
		t.Errorf("last event = %+v", last)
	}
	if last.StationID != "s1" {
		t.Errorf("event StationID = %q, want s1", last.StationID)
	}
}

func TestRefreshBalance_Lookups(t *testing.T) {
	q := &MockQuerier{BalanceFunc: func(relay.Credentials, relay.BalancePaths) relay.BalanceResult {
		return usdResult(1)
	}}

	svc, _ := newTestService(t, q, nil, DefaultConfig())
	if _, err := svc.RefreshBalance("missing"); !errors.Is(err, ErrStationNotFound) {
		t.Errorf("RefreshBalance() = %v, want ErrStationNotFound", err)
	}

	svc, _ = newTestService(t, q, &MockStore{Err: errors.New("db closed")}, DefaultConfig())
	if _, err := svc.RefreshBalance("s1"); err == nil {
		t.Error("store failure should be reported")
	}
	if q.balanceN != 0 {
		t.Errorf("no query should run on lookup failure, ran %d", q.balanceN)
	}
}

func TestCheckThreshold_NotifiesOncePerCrossing(t *testing.T) {
	var mu sync.Mutex
	remaining := 50.0
	q := &MockQuerier{BalanceFunc: func(relay.Credentials, relay.BalancePaths) relay.BalanceResult {
		mu.Lock()
		defer mu.Unlock()
		return usdResult(remaining)
	}}
	cfg := DefaultConfig()
	cfg.LowBalanceThreshold = 5
	svc, n := newTestService(t, q, nil, cfg)

	set := func(v float64) {
		mu.Lock()
		remaining = v
		mu.Unlock()
	}

	steps := []struct {
		remaining float64
		wantTotal int
	}{
		{50, 0},
		{4, 1},
		{3, 1},
		{10, 2},
		{2, 3},
	}
	for _, step := range steps {
		set(step.remaining)
		if _, err := svc.RefreshBalance("s1"); err != nil {
			t.Fatal(err)
		}
		if got := n.count(); got != step.wantTotal {
			t.Errorf("after remaining=%v notifications = %d, want %d", step.remaining, got, step.wantTotal)
		}
	}
}

func TestCheckThreshold_TokenFallbackAndDisabled(t *testing.T) {
	q := &MockQuerier{BalanceFunc: func(relay.Credentials, relay.BalancePaths) relay.BalanceResult {
		return relay.BalanceResult{
			TotalGranted:   ptr(10),
			TotalUsed:      ptr(9.5),
			TotalAvailable: ptr(0.5),
			RawResponse:    map[string]any{},
		}
	}}

	svc, n := newTestService(t, q, nil, DefaultConfig())
	_, _ = svc.RefreshBalance("s1")
	if n.count() != 1 {
		t.Errorf("token total below threshold should notify, got %d", n.count())
	}

	cfg := DefaultConfig()
	cfg.LowBalanceThreshold = 0
	svc, n = newTestService(t, q, nil, cfg)
	_, _ = svc.RefreshBalance("s1")
	if n.count() != 0 {
		t.Errorf("threshold 0 disables alerts, got %d", n.count())
	}
}

func TestFetchLogs(t *testing.T) {
	q := &MockQuerier{LogsFunc: func(relay.LogQuery) relay.LogResult {
		return relay.LogResult{Total: 1, Items: []relay.LogEntry{{"created_at": float64(1)}}, RawResponse: map[string]any{}}
	}}
	store := &MockStore{Settings: map[string]models.EndpointSettings{
		"s1": {LogsPath: "/api/log/self", LogsPageSize: 20},
	}}
	cfg := DefaultConfig()
	cfg.DefaultProxyURL = "https://default-proxy.example"
	svc, _ := newTestService(t, q, store, cfg)

	res, err := svc.FetchLogs("s1", 2, "asc")
	if err != nil {
		t.Fatalf("FetchLogs() error = %v", err)
	}
	if res.Total != 1 {
		t.Errorf("Total = %d", res.Total)
	}

	want := relay.LogQuery{
		APIKey:     "sk-one",
		BaseURL:    "https://one.example",
		PageSize:   20,
		Page:       2,
		Order:      "asc",
		CustomPath: "/api/log/self",
		ProxyURL:   "https://default-proxy.example",
	}
	if q.lastLogs != want {
		t.Errorf("query = %+v\nwant %+v", q.lastLogs, want)
	}

	if _, err := svc.FetchLogs("s2", 1, "desc"); err != nil {
		t.Fatal(err)
	}
	if q.lastLogs.ProxyURL != "https://own-proxy.example" {
		t.Errorf("station proxy should win, got %q", q.lastLogs.ProxyURL)
	}
	if q.lastLogs.PageSize != relay.DefaultPageSize {
		t.Errorf("PageSize = %d, want default", q.lastLogs.PageSize)
	}

	events := drain(svc.Events())
	if len(events) != 2 || events[0].Type != EventLogsUpdated || events[0].Logs == nil {
		t.Errorf("events = %+v", events)
	}
}

func TestFetchLogs_Failure(t *testing.T) {
	q := &MockQuerier{LogsFunc: func(relay.LogQuery) relay.LogResult {
		return relay.LogResult{Error: relay.ErrEmptyLogResponse}
	}}
	svc, _ := newTestService(t, q, nil, DefaultConfig())

	res, err := svc.FetchLogs("s1", 1, "desc")
	if err != nil {
		t.Fatal(err)
	}
	if res.Error != relay.ErrEmptyLogResponse {
		t.Errorf("Error = %q", res.Error)
	}
	events := drain(svc.Events())
	if len(events) != 1 || events[0].Type != EventLogsError {
		t.Errorf("events = %+v", events)
	}
}

func TestRefreshAll(t *testing.T) {
	q := &MockQuerier{BalanceFunc: func(relay.Credentials, relay.BalancePaths) relay.BalanceResult {
		return usdResult(20)
	}}
	svc, _ := newTestService(t, q, nil, DefaultConfig())

	svc.RefreshAll()

	all := svc.GetAllBalances()
	if len(all) != 2 {
		t.Errorf("GetAllBalances() has %d entries, want 2", len(all))
	}

	svc.Forget("s1")
	if _, ok := svc.GetBalance("s1"); ok {
		t.Error("Forget should drop the cached balance")
	}
}

func TestPolling(t *testing.T) {
	q := &MockQuerier{BalanceFunc: func(relay.Credentials, relay.BalancePaths) relay.BalanceResult {
		return usdResult(20)
	}}
	cfg := DefaultConfig()
	cfg.PollInterval = 10 * time.Millisecond
	svc, _ := newTestService(t, q, nil, cfg)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		q.mu.Lock()
		n := q.balanceN
		q.mu.Unlock()
		if n >= 4 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := svc.Close(); err != nil {
		t.Fatal(err)
	}

	q.mu.Lock()
	n := q.balanceN
	q.mu.Unlock()
	if n < 4 {
		t.Errorf("expected at least two polling rounds, got %d queries", n)
	}
}

func TestSendEvent_Full(t *testing.T) {
	svc, _ := newTestService(t, &MockQuerier{}, nil, DefaultConfig())

	for i := 0; i < 110; i++ {
		svc.sendEvent(Event{Type: EventBalanceUpdated})
	}

	if len(svc.Events()) != 100 {
		t.Errorf("expected 100 events, got %d", len(svc.Events()))
	}
}

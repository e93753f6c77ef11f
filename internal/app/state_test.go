package app

import (
	"testing"
	"time"

	"github.com/j-veylop/relaywatch-tui/internal/models"
	"github.com/j-veylop/relaywatch-tui/internal/relay"
	"github.com/j-veylop/relaywatch-tui/internal/services"
)

func stationBalance(id, name string, active bool) models.StationBalance {
	return models.StationBalance{
		Station:  models.Station{ID: id, Name: name},
		IsActive: active,
	}
}

func TestNewState(t *testing.T) {
	s := NewState()
	if s == nil {
		t.Fatal("NewState returned nil")
	}
	if len(s.Stations) != 0 {
		t.Error("Stations should be empty")
	}
	if !s.IsInitialLoading() {
		t.Error("Initial loading should be true")
	}
	if s.GetActiveStation() != nil {
		t.Error("no station should be active")
	}
	if s.TimeSinceUpdate() != 0 {
		t.Error("TimeSinceUpdate should be zero before any update")
	}
}

func TestState_SetLoading(t *testing.T) {
	s := NewState()

	s.SetLoading(ResourceStations, true)
	if !s.IsLoading(ResourceStations) {
		t.Error("Stations loading should be true")
	}
	if !s.AnyLoading() {
		t.Error("AnyLoading should be true")
	}

	s.SetLoading(ResourceStations, false)
	if !s.AnyLoading() {
		t.Error("AnyLoading should be true (Initial is true)")
	}

	s.SetLoading(ResourceInitial, false)
	if s.AnyLoading() {
		t.Error("AnyLoading should be false")
	}
	if len(s.GetLoadingResources()) != 0 {
		t.Errorf("GetLoadingResources should be empty, got %v", s.GetLoadingResources())
	}

	s.SetLoading(ResourceLogs, true)
	resources := s.GetLoadingResources()
	if len(resources) != 1 || resources[0] != ResourceLogs {
		t.Errorf("GetLoadingResources = %v, want [logs]", resources)
	}

	s.SetLoading("unknown", true)
	if s.IsLoading("unknown") {
		t.Error("unknown resources are never loading")
	}
}

func TestState_Stations(t *testing.T) {
	s := NewState()

	s.SetStations([]models.StationBalance{
		stationBalance("a", "alpha", false),
		stationBalance("b", "beta", true),
	})

	if s.GetStationCount() != 2 {
		t.Errorf("GetStationCount = %d, want 2", s.GetStationCount())
	}

	active := s.GetActiveStation()
	if active == nil {
		t.Fatal("GetActiveStation returned nil")
	}
	if active.Name != "beta" {
		t.Errorf("active = %s, want beta", active.Name)
	}

	list := s.GetStations()
	list[0].Name = "mutated"
	if s.GetStations()[0].Name != "alpha" {
		t.Error("GetStations should return a copy")
	}

	if s.GetLastUpdated().IsZero() {
		t.Error("LastUpdated should be set")
	}
}

func TestState_Balance(t *testing.T) {
	s := NewState()
	s.SetStations([]models.StationBalance{stationBalance("a", "alpha", true)})

	s.SetRefreshing("a", true)
	if !s.IsRefreshing("a") {
		t.Error("a should be refreshing")
	}

	rem := 12.5
	s.SetBalance("a", &relay.BalanceResult{RemainingUSD: &rem})

	if s.IsRefreshing("a") {
		t.Error("SetBalance should clear the refreshing flag")
	}
	got := s.GetStations()[0]
	if got.Balance == nil || *got.Balance.RemainingUSD != 12.5 {
		t.Errorf("Balance = %+v", got.Balance)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("UpdatedAt should be set")
	}

	s.SetRefreshing("b", true)
	s.SetRefreshing("b", false)
	if s.IsRefreshing("b") {
		t.Error("b should not be refreshing")
	}
}

func TestState_Logs(t *testing.T) {
	s := NewState()
	s.SetStations([]models.StationBalance{stationBalance("a", "alpha", true)})

	if s.GetLogs() != nil {
		t.Error("GetLogs should be nil initially")
	}

	s.SetLogs(LogsPage{StationID: "a", Page: 2, Order: "asc", Result: &relay.LogResult{Total: 3}})
	page := s.GetLogs()
	if page == nil || page.Page != 2 || page.Result.Total != 3 {
		t.Fatalf("GetLogs = %+v", page)
	}
	if page.FetchedAt.IsZero() {
		t.Error("FetchedAt should be set")
	}

	// Same active station keeps the page.
	s.SetStations([]models.StationBalance{stationBalance("a", "alpha", true)})
	if s.GetLogs() == nil {
		t.Error("logs should survive a reload of the same station")
	}

	s.SetStations([]models.StationBalance{
		stationBalance("a", "alpha", false),
		stationBalance("b", "beta", true),
	})
	if s.GetLogs() != nil {
		t.Error("logs should be dropped when the active station changes")
	}
}

func TestState_Stats(t *testing.T) {
	s := NewState()
	if s.GetStats() != nil {
		t.Error("GetStats should be nil initially")
	}

	s.SetStats(services.StatsEvent{StationCount: 3, TotalRemainingUSD: 42})
	if st := s.GetStats(); st == nil || st.StationCount != 3 || st.TotalRemainingUSD != 42 {
		t.Errorf("GetStats = %+v", st)
	}
}

func TestState_Notifications(t *testing.T) {
	s := NewState()

	id := s.AddNotification(NotificationInfo, "test", time.Minute)
	if id == "" {
		t.Error("AddNotification returned empty ID")
	}

	notifs := s.GetNotifications()
	if len(notifs) != 1 || notifs[0].Message != "test" {
		t.Fatalf("GetNotifications = %+v", notifs)
	}

	s.RemoveNotification(id)
	if len(s.GetNotifications()) != 0 {
		t.Error("notification should be removed")
	}

	s.AddNotification(NotificationError, "expired", time.Nanosecond)
	time.Sleep(time.Millisecond)
	s.ClearExpiredNotifications()
	if len(s.GetNotifications()) != 0 {
		t.Error("expired notification should be cleared")
	}

	for i := 0; i < maxNotifications+5; i++ {
		s.AddNotification(NotificationInfo, "n", 0)
	}
	if got := len(s.GetNotifications()); got != maxNotifications {
		t.Errorf("len = %d, want %d", got, maxNotifications)
	}

	s.ClearAllNotifications()
	if len(s.GetNotifications()) != 0 {
		t.Error("ClearAllNotifications should empty the list")
	}
}

func TestState_LoadingNotification(t *testing.T) {
	s := NewState()

	s.SetLoadingNotification("Loading...")
	s.SetLoadingNotification("Still loading...")

	notifs := s.GetNotifications()
	if len(notifs) != 1 {
		t.Fatalf("len = %d, want 1", len(notifs))
	}
	if notifs[0].Type != NotificationLoading || notifs[0].Message != "Still loading..." {
		t.Errorf("notification = %+v", notifs[0])
	}

	s.ClearLoadingNotification()
	if len(s.GetNotifications()) != 0 {
		t.Error("loading notification should be removed")
	}
}

func TestNotification_IsExpired(t *testing.T) {
	n := Notification{CreatedAt: time.Now(), Duration: 0}
	if n.IsExpired() {
		t.Error("zero duration never expires")
	}

	n = Notification{CreatedAt: time.Now().Add(-time.Hour), Duration: time.Second}
	if !n.IsExpired() {
		t.Error("should be expired")
	}
}

func TestNotificationType_String(t *testing.T) {
	tests := map[NotificationType]string{
		NotificationSuccess:  "success",
		NotificationError:    "error",
		NotificationWarning:  "warning",
		NotificationInfo:     "info",
		NotificationLoading:  "loading",
		NotificationType(99): "unknown",
	}
	for n, want := range tests {
		if got := n.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", n, got, want)
		}
	}
}

// Package app provides the main Bubble Tea application model and state management.
package app

import (
	"fmt"
	"sync"
	"time"

	"github.com/j-veylop/relaywatch-tui/internal/models"
	"github.com/j-veylop/relaywatch-tui/internal/relay"
	"github.com/j-veylop/relaywatch-tui/internal/services"
)

// NotificationType defines the type of notification.
type NotificationType int

const (
	// NotificationSuccess represents a success notification.
	NotificationSuccess NotificationType = iota
	// NotificationError represents an error notification.
	NotificationError
	// NotificationWarning represents a warning notification.
	NotificationWarning
	// NotificationInfo represents an informational notification.
	NotificationInfo
	// NotificationLoading represents a loading notification with spinner.
	NotificationLoading
)

// LoadingNotificationID is the fixed ID for loading notifications.
const LoadingNotificationID = "__loading__"

const maxNotifications = 10

// String returns the string representation of a NotificationType.
func (n NotificationType) String() string {
	switch n {
	case NotificationSuccess:
		return "success"
	case NotificationError:
		return "error"
	case NotificationWarning:
		return "warning"
	case NotificationInfo:
		return "info"
	case NotificationLoading:
		return "loading"
	default:
		return "unknown"
	}
}

// Notification represents a user-facing notification message.
type Notification struct {
	CreatedAt time.Time
	ID        string
	Message   string
	Duration  time.Duration
	Type      NotificationType
}

// IsExpired returns true if the notification has expired.
func (n *Notification) IsExpired() bool {
	if n.Duration <= 0 {
		return false
	}
	return time.Since(n.CreatedAt) > n.Duration
}

// Loading resources.
const (
	ResourceInitial  = "initial"
	ResourceStations = "stations"
	ResourceBalance  = "balance"
	ResourceLogs     = "logs"
)

// LoadingState tracks loading states for different resources.
type LoadingState struct {
	Initial  bool
	Stations bool
	Balance  bool
	Logs     bool
}

// LogsPage is the most recent page of call logs fetched for a station.
type LogsPage struct {
	FetchedAt time.Time
	Result    *relay.LogResult
	StationID string
	Order     string
	Page      int
}

// State is shared by the root model and all tabs.
type State struct {
	LastUpdated   time.Time
	ActiveStation *models.StationBalance
	Stats         *services.StatsEvent
	Logs          *LogsPage
	refreshing    map[string]bool
	Stations      []models.StationBalance
	notifications []Notification
	Loading       LoadingState
	notifySeq     int
	mu            sync.RWMutex
}

// NewState creates the initial application state.
func NewState() *State {
	return &State{
		Stations:      make([]models.StationBalance, 0),
		refreshing:    make(map[string]bool),
		notifications: make([]Notification, 0),
		Loading: LoadingState{
			Initial: true,
		},
	}
}

// SetLoading sets the loading state for a specific resource.
func (s *State) SetLoading(resource string, loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch resource {
	case ResourceInitial:
		s.Loading.Initial = loading
	case ResourceStations:
		s.Loading.Stations = loading
	case ResourceBalance:
		s.Loading.Balance = loading
	case ResourceLogs:
		s.Loading.Logs = loading
	}
}

// AnyLoading returns true if any resource is currently loading.
func (s *State) AnyLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l := s.Loading
	return l.Initial || l.Stations || l.Balance || l.Logs
}

// IsInitialLoading returns true if initial data is still loading.
func (s *State) IsInitialLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Loading.Initial
}

// IsLoading reports whether a single resource is loading.
func (s *State) IsLoading(resource string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch resource {
	case ResourceInitial:
		return s.Loading.Initial
	case ResourceStations:
		return s.Loading.Stations
	case ResourceBalance:
		return s.Loading.Balance
	case ResourceLogs:
		return s.Loading.Logs
	}
	return false
}

// GetLoadingResources returns a list of currently loading resources.
func (s *State) GetLoadingResources() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var resources []string
	if s.Loading.Initial {
		resources = append(resources, ResourceInitial)
	}
	if s.Loading.Stations {
		resources = append(resources, ResourceStations)
	}
	if s.Loading.Balance {
		resources = append(resources, ResourceBalance)
	}
	if s.Loading.Logs {
		resources = append(resources, ResourceLogs)
	}
	return resources
}

// SetStations replaces the station list and finds the active station.
func (s *State) SetStations(list []models.StationBalance) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Stations = list
	s.LastUpdated = time.Now()

	s.ActiveStation = nil
	for i := range list {
		if list[i].IsActive {
			s.ActiveStation = &list[i]
			break
		}
	}

	if s.Logs != nil && s.ActiveStation != nil && s.Logs.StationID != s.ActiveStation.ID {
		s.Logs = nil
	}
}

// GetStations returns a copy of the station list.
func (s *State) GetStations() []models.StationBalance {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]models.StationBalance, len(s.Stations))
	copy(list, s.Stations)
	return list
}

// GetStationCount returns the number of stations.
func (s *State) GetStationCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.Stations)
}

// GetActiveStation returns the active station, or nil when none is configured.
func (s *State) GetActiveStation() *models.StationBalance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ActiveStation == nil {
		return nil
	}
	st := *s.ActiveStation
	return &st
}

// SetBalance stores a fresh balance result for one station.
func (s *State) SetBalance(stationID string, res *relay.BalanceResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.refreshing, stationID)
	for i := range s.Stations {
		if s.Stations[i].ID == stationID {
			s.Stations[i].Balance = res
			s.Stations[i].UpdatedAt = time.Now()
			s.LastUpdated = s.Stations[i].UpdatedAt
		}
	}
}

// SetRefreshing marks a station's balance query as in flight or done.
func (s *State) SetRefreshing(stationID string, refreshing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if refreshing {
		s.refreshing[stationID] = true
		return
	}
	delete(s.refreshing, stationID)
}

// IsRefreshing reports whether a balance query for the station is in flight.
func (s *State) IsRefreshing(stationID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshing[stationID]
}

// SetLogs stores the latest page of logs.
func (s *State) SetLogs(page LogsPage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	page.FetchedAt = time.Now()
	s.Logs = &page
}

// GetLogs returns the latest page of logs, or nil.
func (s *State) GetLogs() *LogsPage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Logs == nil {
		return nil
	}
	page := *s.Logs
	return &page
}

// SetStats updates the statistics.
func (s *State) SetStats(stats services.StatsEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Stats = &stats
}

// GetStats returns the current statistics.
func (s *State) GetStats() *services.StatsEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Stats
}

// AddNotification adds a new notification and returns its ID.
func (s *State) AddNotification(notifType NotificationType, message string, duration time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notifySeq++
	id := fmt.Sprintf("%s-%d", time.Now().Format("20060102150405"), s.notifySeq)

	s.notifications = append(s.notifications, Notification{
		ID:        id,
		Type:      notifType,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  duration,
	})

	if len(s.notifications) > maxNotifications {
		s.notifications = s.notifications[len(s.notifications)-maxNotifications:]
	}

	return id
}

// RemoveNotification removes a notification by ID.
func (s *State) RemoveNotification(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// ClearExpiredNotifications removes all expired notifications.
func (s *State) ClearExpiredNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	s.notifications = active
}

// GetNotifications returns a copy of all active notifications.
func (s *State) GetNotifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	return active
}

// ClearAllNotifications removes all notifications.
func (s *State) ClearAllNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = make([]Notification, 0)
}

// SetLoadingNotification sets a loading notification message.
func (s *State) SetLoadingNotification(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications[i].Message = message
			return
		}
	}

	s.notifications = append(s.notifications, Notification{
		ID:        LoadingNotificationID,
		Type:      NotificationLoading,
		Message:   message,
		CreatedAt: time.Now(),
	})
}

// ClearLoadingNotification removes the loading notification.
func (s *State) ClearLoadingNotification() {
	s.RemoveNotification(LoadingNotificationID)
}

// GetLastUpdated returns the last time the state was updated.
func (s *State) GetLastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastUpdated
}

// TimeSinceUpdate returns the duration since the last update.
func (s *State) TimeSinceUpdate() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.LastUpdated.IsZero() {
		return 0
	}
	return time.Since(s.LastUpdated)
}

// Package services provides service orchestration for the TUI.
package services

import (
	"errors"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/relaywatch-tui/internal/config"
	"github.com/j-veylop/relaywatch-tui/internal/db"
	"github.com/j-veylop/relaywatch-tui/internal/logger"
	"github.com/j-veylop/relaywatch-tui/internal/models"
	"github.com/j-veylop/relaywatch-tui/internal/relay"
	"github.com/j-veylop/relaywatch-tui/internal/services/balance"
	"github.com/j-veylop/relaywatch-tui/internal/services/stations"
)

type (
	// StationsChangedEvent is emitted when the station list changes.
	StationsChangedEvent struct {
		ActiveStation *models.Station
		Stations      []models.Station
	}

	// BalanceRefreshingEvent is emitted when a balance query starts.
	BalanceRefreshingEvent struct {
		StationID string
	}

	// BalanceUpdatedEvent is emitted when a balance query finishes. A failed
	// query still produces this event; the result carries the error message.
	BalanceUpdatedEvent struct {
		Result    *relay.BalanceResult
		StationID string
	}

	// LogsUpdatedEvent is emitted when a page of logs was fetched.
	LogsUpdatedEvent struct {
		Result    *relay.LogResult
		StationID string
	}

	// ErrorEvent is emitted when an error occurs in any service.
	ErrorEvent struct {
		Error   error
		Service string
	}

	// StatsEvent is emitted when global statistics change.
	StatsEvent struct {
		StationCount      int
		BalancesCached    int
		FailedBalances    int
		TotalRemainingUSD float64
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (StationsChangedEvent) isServiceEvent()   {}
func (BalanceRefreshingEvent) isServiceEvent() {}
func (BalanceUpdatedEvent) isServiceEvent()    {}
func (LogsUpdatedEvent) isServiceEvent()       {}
func (ErrorEvent) isServiceEvent()             {}
func (StatsEvent) isServiceEvent()             {}

// Manager orchestrates services and event routing.
type Manager struct {
	stations    *stations.Service
	balance     *balance.Service
	database    *db.DB
	eventChan   chan ServiceEvent
	stopChan    chan struct{}
	subscribers []chan ServiceEvent
	mu          sync.RWMutex
	wg          sync.WaitGroup
	closeOnce   sync.Once
}

type managerOptions struct {
	querier  balance.Querier
	notifier balance.Notifier
}

// Option configures a Manager.
type Option func(*managerOptions)

// WithQuerier replaces the relay client used for balance and log queries.
func WithQuerier(q balance.Querier) Option {
	return func(o *managerOptions) {
		o.querier = q
	}
}

// WithNotifier replaces the desktop notifier used for low balance alerts.
func WithNotifier(n balance.Notifier) Option {
	return func(o *managerOptions) {
		o.notifier = n
	}
}

// NewManager creates a new service manager.
func NewManager(cfg *config.Config, opts ...Option) (*Manager, error) {
	o := managerOptions{querier: relay.DefaultClient()}
	for _, opt := range opts {
		opt(&o)
	}

	m := &Manager{
		eventChan: make(chan ServiceEvent, 100),
		stopChan:  make(chan struct{}),
	}

	var err error
	m.stations, err = stations.New(cfg.StationsPath)
	if err != nil {
		return nil, err
	}

	m.database, err = db.New(cfg.DatabasePath)
	if err != nil {
		_ = m.stations.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	balanceConfig := balance.DefaultConfig()
	balanceConfig.DefaultProxyURL = cfg.DefaultProxyURL
	balanceConfig.PollInterval = cfg.BalanceRefreshInterval
	balanceConfig.LowBalanceThreshold = cfg.LowBalanceThreshold

	var balanceOpts []balance.Option
	if o.notifier != nil {
		balanceOpts = append(balanceOpts, balance.WithNotifier(o.notifier))
	}
	m.balance = balance.New(o.querier, m.stations, m.database, balanceConfig, balanceOpts...)

	m.wg.Add(1)
	go m.routeEvents()

	return m, nil
}

// routeEvents routes events from individual services to subscribers.
func (m *Manager) routeEvents() {
	defer m.wg.Done()

	for {
		select {
		case event := <-m.stations.Events():
			m.handleStationEvent(event)

		case event := <-m.balance.Events():
			m.handleBalanceEvent(event)

		case <-m.stopChan:
			return
		}
	}
}

// handleStationEvent converts and broadcasts station events.
func (m *Manager) handleStationEvent(event stations.Event) {
	switch event.Type {
	case stations.EventStationDeleted:
		if event.Station != nil {
			m.forgetStation(event.Station.ID)
		}
		m.broadcastStations()

	case stations.EventStationAdded:
		if event.Station != nil {
			id := event.Station.ID
			m.wg.Add(1)
			go func() {
				defer m.wg.Done()
				if _, err := m.balance.RefreshBalance(id); err != nil {
					logger.Debug("initial balance refresh skipped", "station", id, "error", err)
				}
			}()
		}
		m.broadcastStations()

	case stations.EventStationsLoaded, stations.EventStationsChanged,
		stations.EventStationUpdated, stations.EventActiveStationChanged:
		m.broadcastStations()

	case stations.EventError:
		m.broadcast(ErrorEvent{
			Service: "stations",
			Error:   event.Error,
		})
	}
}

func (m *Manager) broadcastStations() {
	m.broadcast(StationsChangedEvent{
		Stations:      m.stations.GetStations(),
		ActiveStation: m.stations.GetActiveStation(),
	})
}

// forgetStation drops everything tied to a removed station.
func (m *Manager) forgetStation(id string) {
	m.balance.Forget(id)
	if err := m.database.DeleteEndpointSettings(id); err != nil {
		logger.Warn("failed to delete endpoint settings", "station", id, "error", err)
	}
}

func (m *Manager) handleBalanceEvent(event balance.Event) {
	switch event.Type {
	case balance.EventBalanceRefreshing:
		m.broadcast(BalanceRefreshingEvent{StationID: event.StationID})

	case balance.EventBalanceUpdated, balance.EventBalanceError:
		m.broadcast(BalanceUpdatedEvent{
			StationID: event.StationID,
			Result:    event.Balance,
		})

	case balance.EventLogsUpdated, balance.EventLogsError:
		m.broadcast(LogsUpdatedEvent{
			StationID: event.StationID,
			Result:    event.Logs,
		})
	}
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	// Send to main event channel
	select {
	case m.eventChan <- event:
	default:
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events.
// Returns a tea.Cmd that can be used in Bubble Tea's Init or Update.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, WaitForEvent(ch)
}

// WaitForEvent returns a tea.Cmd for the next event on a channel. A closed
// channel yields a nil message.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return event
	}
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// GetStationsWithBalance returns all stations with their cached balances.
func (m *Manager) GetStationsWithBalance() []models.StationBalance {
	list := m.stations.GetStations()
	balances := m.balance.GetAllBalances()
	activeID := m.stations.GetActiveStationID()

	result := make([]models.StationBalance, len(list))
	for i, st := range list {
		snap := balances[st.ID]
		result[i] = models.StationBalance{
			Station:   st,
			Balance:   snap.Result,
			UpdatedAt: snap.UpdatedAt,
			IsActive:  st.ID == activeID,
		}
	}
	return result
}

// RefreshBalance queries the balance of a station by ID or name.
func (m *Manager) RefreshBalance(idOrName string) (*relay.BalanceResult, error) {
	return m.balance.RefreshBalance(idOrName)
}

// RefreshActiveBalance queries the balance of the active station.
func (m *Manager) RefreshActiveBalance() (*relay.BalanceResult, error) {
	active := m.stations.GetActiveStation()
	if active == nil {
		return nil, stations.ErrNotFound
	}
	return m.balance.RefreshBalance(active.ID)
}

// RefreshAll refreshes the balance of every station.
func (m *Manager) RefreshAll() {
	m.balance.RefreshAll()
}

// FetchLogs fetches a page of call logs for a station by ID or name.
func (m *Manager) FetchLogs(idOrName string, page int, order string) (*relay.LogResult, error) {
	return m.balance.FetchLogs(idOrName, page, order)
}

// EndpointSettings returns the endpoint settings in effect for a station.
// Pass models.GlobalSettingsID for the settings shared by all stations.
func (m *Manager) EndpointSettings(stationID string) (models.EndpointSettings, error) {
	return m.database.GetEndpointSettings(stationID)
}

// SaveEndpointSettings stores endpoint overrides for a station or globally.
func (m *Manager) SaveEndpointSettings(stationID string, s models.EndpointSettings) error {
	return m.database.SaveEndpointSettings(stationID, s)
}

// ResetEndpointSettings removes overrides and returns the settings now in effect.
func (m *Manager) ResetEndpointSettings(stationID string) (models.EndpointSettings, error) {
	return m.database.ResetEndpointSettings(stationID)
}

// GetStats returns aggregated statistics.
func (m *Manager) GetStats() StatsEvent {
	stats := StatsEvent{StationCount: m.stations.Count()}

	for _, snap := range m.balance.GetAllBalances() {
		if snap.Result == nil {
			continue
		}
		stats.BalancesCached++
		if snap.Result.Failed() {
			stats.FailedBalances++
			continue
		}
		if snap.Result.RemainingUSD != nil {
			stats.TotalRemainingUSD += *snap.Result.RemainingUSD
		}
	}
	return stats
}

// Stations returns the stations service.
func (m *Manager) Stations() *stations.Service {
	return m.stations
}

// Balance returns the balance service.
func (m *Manager) Balance() *balance.Service {
	return m.balance
}

// Database returns the database instance for direct access.
func (m *Manager) Database() *db.DB {
	return m.database
}

// Close closes the manager and all its services.
func (m *Manager) Close() error {
	var errs []error

	m.closeOnce.Do(func() {
		if m.stopChan != nil {
			close(m.stopChan)
		}
		m.wg.Wait()

		m.mu.Lock()
		for _, sub := range m.subscribers {
			close(sub)
		}
		m.subscribers = nil
		m.mu.Unlock()

		if m.balance != nil {
			errs = append(errs, m.balance.Close())
		}
		if m.stations != nil {
			errs = append(errs, m.stations.Close())
		}
		if m.database != nil {
			errs = append(errs, m.database.Close())
		}
	})

	return errors.Join(errs...)
}

// InitialState returns the initial state of all services for TUI initialization.
func (m *Manager) InitialState() ([]models.StationBalance, StatsEvent) {
	return m.GetStationsWithBalance(), m.GetStats()
}

// Package balance refreshes station balances and call logs and keeps the
// latest balance of every station in memory.
package balance

import (
	"errors"
	"fmt"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/gen2brain/beeep"

	"github.com/j-veylop/relaywatch-tui/internal/logger"
	"github.com/j-veylop/relaywatch-tui/internal/models"
	"github.com/j-veylop/relaywatch-tui/internal/relay"
)

// Querier runs balance and log queries against a station.
type Querier interface {
	QueryBalance(creds relay.Credentials, paths relay.BalancePaths) relay.BalanceResult
	QueryLogs(q relay.LogQuery) relay.LogResult
}

// StationProvider is an interface for getting station profiles.
type StationProvider interface {
	GetStations() []models.Station
	GetStation(idOrName string) *models.Station
}

// EndpointStore resolves the endpoint settings in effect for a station.
type EndpointStore interface {
	GetEndpointSettings(stationID string) (models.EndpointSettings, error)
}

// Notifier delivers user alerts.
type Notifier interface {
	Notify(title, message string) error
}

// DesktopNotifier shows alerts as desktop notifications.
type DesktopNotifier struct{}

// Notify implements Notifier.
func (DesktopNotifier) Notify(title, message string) error {
	return beeep.Notify(title, message, "")
}

// ErrStationNotFound is returned for unknown station IDs.
var ErrStationNotFound = errors.New("station not found")

// Event represents a balance service event.
type Event struct {
	Error     error
	Balance   *relay.BalanceResult
	Logs      *relay.LogResult
	StationID string
	Type      EventType
}

// EventType defines the type of balance event.
type EventType int

const (
	// EventBalanceRefreshing indicates that a balance query started.
	EventBalanceRefreshing EventType = iota
	// EventBalanceUpdated indicates that at least one balance source answered.
	EventBalanceUpdated
	// EventBalanceError indicates that no balance source answered.
	EventBalanceError
	// EventLogsUpdated indicates that a page of logs was fetched.
	EventLogsUpdated
	// EventLogsError indicates that a log fetch failed.
	EventLogsError
)

// Config holds configuration for the balance service.
type Config struct {
	DefaultProxyURL     string
	PollInterval        time.Duration
	LowBalanceThreshold float64
	MaxConcurrent       int
}

// DefaultConfig returns the default configuration. Polling is off.
func DefaultConfig() Config {
	return Config{
		LowBalanceThreshold: 1,
		MaxConcurrent:       4,
	}
}

// Snapshot is the latest balance of a station.
type Snapshot struct {
	UpdatedAt time.Time
	Result    *relay.BalanceResult
}

// Service manages balance fetching and caching.
type Service struct {
	querier    Querier
	stations   StationProvider
	store      EndpointStore
	notifier   Notifier
	balances   map[string]Snapshot
	lowAlerted map[string]bool
	eventChan  chan Event
	stopChan   chan struct{}
	refreshSem chan struct{}
	config     Config
	wg         sync.WaitGroup
	mu         sync.RWMutex
	closeOnce  sync.Once
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier replaces the desktop notifier.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// New creates a new balance service. When config.PollInterval is positive a
// background goroutine refreshes every station on that period.
func New(querier Querier, stations StationProvider, store EndpointStore, config Config, opts ...Option) *Service {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = DefaultConfig().MaxConcurrent
	}

	s := &Service{
		querier:    querier,
		stations:   stations,
		store:      store,
		notifier:   DesktopNotifier{},
		balances:   make(map[string]Snapshot),
		lowAlerted: make(map[string]bool),
		eventChan:  make(chan Event, 100),
		stopChan:   make(chan struct{}),
		refreshSem: make(chan struct{}, config.MaxConcurrent),
		config:     config,
	}
	for _, opt := range opts {
		opt(s)
	}

	if config.PollInterval > 0 {
		s.wg.Add(1)
		go s.pollBalances()
	}

	return s
}

// Events returns the event channel.
func (s *Service) Events() <-chan Event {
	return s.eventChan
}

func (s *Service) resolve(stationID string) (*models.Station, models.EndpointSettings, error) {
	station := s.stations.GetStation(stationID)
	if station == nil {
		return nil, models.EndpointSettings{}, fmt.Errorf("%w: %s", ErrStationNotFound, stationID)
	}

	settings := models.DefaultEndpointSettings()
	if s.store != nil {
		var err error
		settings, err = s.store.GetEndpointSettings(station.ID)
		if err != nil {
			return nil, models.EndpointSettings{}, fmt.Errorf("failed to load endpoint settings: %w", err)
		}
	}
	return station, settings, nil
}

// RefreshBalance queries the station's balance and caches the result. The
// error reports only lookup problems; query failures are carried in the
// result's Error field.
func (s *Service) RefreshBalance(stationID string) (*relay.BalanceResult, error) {
	station, settings, err := s.resolve(stationID)
	if err != nil {
		return nil, err
	}

	s.sendEvent(Event{Type: EventBalanceRefreshing, StationID: station.ID})

	res := s.querier.QueryBalance(station.Credentials(), settings.BalancePaths())

	for _, a := range res.FailedAttempts() {
		logger.Warn("balance source failed",
			"station", station.Name,
			"source", a.Source,
			"error", relay.Redact(a.Err.Error(), station.APIKey))
	}

	s.mu.Lock()
	s.balances[station.ID] = Snapshot{Result: &res, UpdatedAt: time.Now()}
	s.mu.Unlock()

	if res.Failed() {
		s.sendEvent(Event{
			Type:      EventBalanceError,
			StationID: station.ID,
			Balance:   &res,
			Error:     errors.New(res.Error),
		})
		return &res, nil
	}

	s.checkThreshold(station, &res)
	s.sendEvent(Event{Type: EventBalanceUpdated, StationID: station.ID, Balance: &res})
	return &res, nil
}

// checkThreshold alerts once when the remaining balance drops below the
// threshold and once when it recovers.
func (s *Service) checkThreshold(station *models.Station, res *relay.BalanceResult) {
	threshold := s.config.LowBalanceThreshold
	if threshold <= 0 {
		return
	}
	remaining, ok := res.Remaining()
	if !ok {
		return
	}

	below := remaining < threshold

	s.mu.Lock()
	wasBelow := s.lowAlerted[station.ID]
	s.lowAlerted[station.ID] = below
	notifier := s.notifier
	s.mu.Unlock()

	if notifier == nil || below == wasBelow {
		return
	}

	var title, body string
	if below {
		title = fmt.Sprintf("Low balance: %s", station.Name)
		body = fmt.Sprintf("Remaining balance %.2f is below %.2f", remaining, threshold)
	} else {
		title = fmt.Sprintf("Balance restored: %s", station.Name)
		body = fmt.Sprintf("Remaining balance is now %.2f", remaining)
	}
	if err := notifier.Notify(title, body); err != nil {
		logger.Warn("failed to send notification", "station", station.Name, "error", err)
	}
}

// FetchLogs fetches one page of the station's call logs using its
// endpoint settings and proxy, falling back to the configured default proxy.
func (s *Service) FetchLogs(stationID string, page int, order string) (*relay.LogResult, error) {
	station, settings, err := s.resolve(stationID)
	if err != nil {
		return nil, err
	}

	proxy := strings.TrimSpace(station.ProxyURL)
	if proxy == "" {
		proxy = s.config.DefaultProxyURL
	}

	res := s.querier.QueryLogs(relay.LogQuery{
		APIKey:     station.APIKey,
		BaseURL:    station.BaseURL,
		PageSize:   settings.LogsPageSize,
		Page:       page,
		Order:      order,
		CustomPath: settings.LogsPath,
		ProxyURL:   proxy,
	})

	if res.Failed() {
		logger.Warn("log fetch failed", "station", station.Name, "error", relay.Redact(res.Error, station.APIKey))
		s.sendEvent(Event{
			Type:      EventLogsError,
			StationID: station.ID,
			Logs:      &res,
			Error:     errors.New(res.Error),
		})
		return &res, nil
	}

	s.sendEvent(Event{Type: EventLogsUpdated, StationID: station.ID, Logs: &res})
	return &res, nil
}

// GetBalance returns the cached balance for a station.
func (s *Service) GetBalance(stationID string) (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.balances[stationID]
	return snap, ok
}

// GetAllBalances returns all cached balances keyed by station ID.
func (s *Service) GetAllBalances() map[string]Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]Snapshot, len(s.balances))
	maps.Copy(result, s.balances)
	return result
}

// Forget drops cached state for a removed station.
func (s *Service) Forget(stationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.balances, stationID)
	delete(s.lowAlerted, stationID)
}

// RefreshAll refreshes every station, at most MaxConcurrent at a time.
func (s *Service) RefreshAll() {
	if s.stations == nil {
		return
	}

	stations := s.stations.GetStations()
	var wg sync.WaitGroup

	for i := range stations {
		wg.Add(1)
		go func(id, name string) {
			defer wg.Done()

			s.refreshSem <- struct{}{}
			defer func() { <-s.refreshSem }()

			if _, err := s.RefreshBalance(id); err != nil {
				logger.Error("failed to refresh balance", "station", name, "error", err)
			}
		}(stations[i].ID, stations[i].Name)
	}

	wg.Wait()
}

// pollBalances runs the background polling goroutine.
func (s *Service) pollBalances() {
	defer s.wg.Done()

	s.RefreshAll()

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.RefreshAll()
		case <-s.stopChan:
			return
		}
	}
}

// sendEvent sends an event to the event channel non-blocking.
func (s *Service) sendEvent(event Event) {
	select {
	case s.eventChan <- event:
	default:
		// Channel full, drop oldest
		select {
		case <-s.eventChan:
		default:
		}
		select {
		case s.eventChan <- event:
		default:
		}
	}
}

// Close stops the polling goroutine.
func (s *Service) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
	})
	s.wg.Wait()
	return nil
}

// Package stations provides station profile management with file watching and persistence.
package stations

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/j-veylop/relaywatch-tui/internal/logger"
	"github.com/j-veylop/relaywatch-tui/internal/models"
)

const fileVersion = 1

// ErrNotFound is returned when no station matches an ID or name.
var ErrNotFound = errors.New("station not found")

// Event represents a stations service event.
type Event struct {
	Error   error
	Station *models.Station
	Type    EventType
}

// EventType defines the type of stations event.
type EventType int

const (
	EventStationsLoaded EventType = iota
	EventStationsChanged
	EventStationAdded
	EventStationUpdated
	EventStationDeleted
	EventActiveStationChanged
	EventError
)

// Service manages station profiles with file watching and change notifications.
type Service struct {
	watcher       *fsnotify.Watcher
	eventChan     chan Event
	stopChan      chan struct{}
	debounceTimer *time.Timer
	filePath      string
	activeStation string
	stations      []models.Station
	mu            sync.RWMutex
	timerMu       sync.Mutex
	closeOnce     sync.Once
}

// New creates a new stations service and starts file watching.
func New(filePath string) (*Service, error) {
	if filePath == "" {
		return nil, errors.New("stations file path is required")
	}

	s := &Service{
		stations:  make([]models.Station, 0),
		filePath:  filePath,
		eventChan: make(chan Event, 100),
		stopChan:  make(chan struct{}),
	}

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create stations directory: %w", err)
	}

	if err := s.load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load stations: %w", err)
		}
		if err := s.save(); err != nil {
			return nil, fmt.Errorf("failed to create stations file: %w", err)
		}
	}

	if err := s.startWatcher(); err != nil {
		return nil, fmt.Errorf("failed to start file watcher: %w", err)
	}

	s.sendEvent(Event{Type: EventStationsLoaded})

	return s, nil
}

// Path returns the stations file path.
func (s *Service) Path() string {
	return s.filePath
}

// Events returns the event channel for subscribing to station changes.
func (s *Service) Events() <-chan Event {
	return s.eventChan
}

// GetStations returns a copy of all stations.
func (s *Service) GetStations() []models.Station {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Station, len(s.stations))
	copy(out, s.stations)
	return out
}

// GetStation returns the station with the given ID or name.
func (s *Service) GetStation(idOrName string) *models.Station {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexLocked(idOrName); i >= 0 {
		st := s.stations[i].Clone()
		return &st
	}
	return nil
}

// GetActiveStation returns the active station, or the first one when none
// is marked active.
func (s *Service) GetActiveStation() *models.Station {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexLocked(s.activeStation); i >= 0 {
		st := s.stations[i].Clone()
		return &st
	}
	if len(s.stations) > 0 {
		st := s.stations[0].Clone()
		return &st
	}
	return nil
}

// GetActiveStationID returns the ID of the active station.
func (s *Service) GetActiveStationID() string {
	if st := s.GetActiveStation(); st != nil {
		return st.ID
	}
	return ""
}

// SetActiveStation marks a station active and records its last use.
func (s *Service) SetActiveStation(idOrName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(idOrName)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, idOrName)
	}

	prevActive, prevUsed := s.activeStation, s.stations[i].LastUsed
	s.activeStation = s.stations[i].ID
	s.stations[i].LastUsed = time.Now()

	if err := s.saveLocked(); err != nil {
		s.activeStation, s.stations[i].LastUsed = prevActive, prevUsed
		return fmt.Errorf("failed to save stations: %w", err)
	}

	st := s.stations[i]
	s.sendEvent(Event{Type: EventActiveStationChanged, Station: &st})
	return nil
}

// AddStation validates and stores a new station, assigning its ID. The
// first station becomes active.
func (s *Service) AddStation(station models.Station) (models.Station, error) {
	station = trimStation(station)
	if err := station.Validate(); err != nil {
		return models.Station{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, st := range s.stations {
		if strings.EqualFold(st.Name, station.Name) {
			return models.Station{}, fmt.Errorf("station %q already exists", station.Name)
		}
	}

	if station.ID == "" {
		station.ID = uuid.NewString()
	}
	if station.AddedAt.IsZero() {
		station.AddedAt = time.Now()
	}

	s.stations = append(s.stations, station)
	prevActive := s.activeStation
	if len(s.stations) == 1 {
		s.activeStation = station.ID
	}

	if err := s.saveLocked(); err != nil {
		s.stations = s.stations[:len(s.stations)-1]
		s.activeStation = prevActive
		return models.Station{}, fmt.Errorf("failed to save stations: %w", err)
	}

	s.sendEvent(Event{Type: EventStationAdded, Station: &station})
	return station, nil
}

// UpdateStation replaces the station with the same ID.
func (s *Service) UpdateStation(station models.Station) error {
	station = trimStation(station)
	if err := station.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(station.ID)
	if i < 0 || s.stations[i].ID != station.ID {
		return fmt.Errorf("%w: %s", ErrNotFound, station.ID)
	}
	for j, st := range s.stations {
		if j != i && strings.EqualFold(st.Name, station.Name) {
			return fmt.Errorf("station %q already exists", station.Name)
		}
	}

	prev := s.stations[i]
	if station.AddedAt.IsZero() {
		station.AddedAt = prev.AddedAt
	}
	if station.LastUsed.IsZero() {
		station.LastUsed = prev.LastUsed
	}
	s.stations[i] = station

	if err := s.saveLocked(); err != nil {
		s.stations[i] = prev
		return fmt.Errorf("failed to save stations: %w", err)
	}

	s.sendEvent(Event{Type: EventStationUpdated, Station: &station})
	return nil
}

// DeleteStation removes a station by ID or name.
func (s *Service) DeleteStation(idOrName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(idOrName)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, idOrName)
	}

	deleted := s.stations[i]
	prevStations := s.stations
	prevActive := s.activeStation

	s.stations = append(append([]models.Station{}, s.stations[:i]...), s.stations[i+1:]...)
	if s.activeStation == deleted.ID {
		s.activeStation = ""
		if len(s.stations) > 0 {
			s.activeStation = s.stations[0].ID
		}
	}

	if err := s.saveLocked(); err != nil {
		s.stations, s.activeStation = prevStations, prevActive
		return fmt.Errorf("failed to save stations: %w", err)
	}

	s.sendEvent(Event{Type: EventStationDeleted, Station: &deleted})
	return nil
}

// Count returns the number of stations.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.stations)
}

// indexLocked finds a station by exact ID, then by case-insensitive name.
func (s *Service) indexLocked(idOrName string) int {
	if idOrName == "" {
		return -1
	}
	for i := range s.stations {
		if s.stations[i].ID == idOrName {
			return i
		}
	}
	for i := range s.stations {
		if strings.EqualFold(s.stations[i].Name, idOrName) {
			return i
		}
	}
	return -1
}

func trimStation(st models.Station) models.Station {
	st.Name = strings.TrimSpace(st.Name)
	st.BaseURL = strings.TrimSpace(st.BaseURL)
	st.APIKey = strings.TrimSpace(st.APIKey)
	st.ProxyURL = strings.TrimSpace(st.ProxyURL)
	return st
}

// parseStations decodes the stations file and resolves the active station.
func parseStations(data []byte) ([]models.Station, string, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return []models.Station{}, "", nil
	}

	var file models.StationsFile
	if err := sonic.ConfigStd.Unmarshal(data, &file); err != nil {
		return nil, "", fmt.Errorf("failed to parse stations file: %w", err)
	}
	if file.Version > fileVersion {
		return nil, "", fmt.Errorf("unsupported stations file version %d", file.Version)
	}

	stations := make([]models.Station, 0, len(file.Stations))
	seen := make(map[string]bool, len(file.Stations))
	for _, st := range file.Stations {
		// Hand-edited entries may lack an ID.
		if st.ID == "" || seen[st.ID] {
			st.ID = uuid.NewString()
		}
		seen[st.ID] = true
		stations = append(stations, st)
	}

	active := file.ActiveStation
	if !seen[active] {
		active = ""
		if len(stations) > 0 {
			active = stations[0].ID
		}
	}
	return stations, active, nil
}

// load reads stations from the file.
func (s *Service) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	stations, active, err := parseStations(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.stations = stations
	s.activeStation = active
	s.mu.Unlock()
	return nil
}

func (s *Service) save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

// saveLocked writes the stations file atomically (must hold lock).
func (s *Service) saveLocked() error {
	file := models.StationsFile{
		ActiveStation: s.activeStation,
		Stations:      s.stations,
		Version:       fileVersion,
	}

	data, err := sonic.ConfigStd.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal stations: %w", err)
	}

	// The file holds API keys.
	tmpFile := s.filePath + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmpFile, s.filePath); err != nil {
		if removeErr := os.Remove(tmpFile); removeErr != nil {
			logger.Error("failed to remove temp file", "error", removeErr)
		}
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// startWatcher starts the file system watcher.
func (s *Service) startWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	s.watcher = watcher

	// Watch the directory so atomic renames are seen.
	if err := watcher.Add(filepath.Dir(s.filePath)); err != nil {
		if closeErr := watcher.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return err
	}

	go s.watchLoop()
	return nil
}

// watchLoop handles file system events with debouncing.
func (s *Service) watchLoop() {
	const debounceInterval = 100 * time.Millisecond

	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}

			if filepath.Base(event.Name) != filepath.Base(s.filePath) {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				s.timerMu.Lock()
				if s.debounceTimer != nil {
					s.debounceTimer.Stop()
				}
				s.debounceTimer = time.AfterFunc(debounceInterval, s.handleFileChange)
				s.timerMu.Unlock()
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.sendEvent(Event{Type: EventError, Error: err})

		case <-s.stopChan:
			return
		}
	}
}

// handleFileChange reloads stations after an external change.
func (s *Service) handleFileChange() {
	select {
	case <-s.stopChan:
		return
	default:
	}

	if err := s.load(); err != nil {
		if os.IsNotExist(err) {
			return
		}
		logger.Warn("failed to reload stations", "path", s.filePath, "error", err)
		s.sendEvent(Event{Type: EventError, Error: err})
		return
	}

	s.sendEvent(Event{Type: EventStationsChanged})
}

// sendEvent sends an event to the event channel non-blocking.
func (s *Service) sendEvent(event Event) {
	select {
	case s.eventChan <- event:
	default:
		// Channel full, drop oldest event
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

// Close stops the file watcher and cleans up resources.
func (s *Service) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.stopChan)

		s.timerMu.Lock()
		if s.debounceTimer != nil {
			s.debounceTimer.Stop()
		}
		s.timerMu.Unlock()

		if s.watcher != nil {
			err = s.watcher.Close()
		}
	})
	return err
}

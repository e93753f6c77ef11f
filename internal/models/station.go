// Package models defines data structures and domain types.
package models

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/j-veylop/relaywatch-tui/internal/relay"
)

// Station is a saved relay-station profile.
type Station struct {
	AddedAt  time.Time `json:"addedAt"`
	LastUsed time.Time `json:"lastUsed,omitempty"`
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	BaseURL  string    `json:"baseUrl"`
	APIKey   string    `json:"apiKey"`
	ProxyURL string    `json:"proxyUrl,omitempty"`
}

// Validation errors.
var (
	ErrStationNameRequired = errors.New("station name is required")
	ErrBaseURLRequired     = errors.New("base URL is required")
	ErrAPIKeyRequired      = errors.New("API key is required")
)

// Validate checks the fields needed to query the station.
func (s *Station) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrStationNameRequired
	}
	if strings.TrimSpace(s.BaseURL) == "" {
		return ErrBaseURLRequired
	}
	if err := ValidateHTTPURL(s.BaseURL); err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if strings.TrimSpace(s.APIKey) == "" {
		return ErrAPIKeyRequired
	}
	if strings.TrimSpace(s.ProxyURL) != "" {
		if err := ValidateHTTPURL(s.ProxyURL); err != nil {
			return fmt.Errorf("invalid proxy URL: %w", err)
		}
	}
	return nil
}

// ValidateHTTPURL checks that raw is an absolute http or https URL.
func ValidateHTTPURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("host is missing")
	}
	return nil
}

// MaskedKey shows only the ends of the API key.
func (s *Station) MaskedKey() string {
	k := []rune(s.APIKey)
	if len(k) <= 8 {
		return strings.Repeat("*", len(k))
	}
	return string(k[:4]) + "…" + string(k[len(k)-4:])
}

// Credentials returns what the relay client needs to authenticate.
func (s *Station) Credentials() relay.Credentials {
	return relay.Credentials{APIKey: s.APIKey, BaseURL: s.BaseURL}
}

// Clone returns a copy of the station.
func (s *Station) Clone() Station {
	return *s
}

// StationsFile is the on-disk layout of the stations file.
type StationsFile struct {
	ActiveStation string    `json:"activeStation,omitempty"`
	Stations      []Station `json:"stations"`
	Version       int       `json:"version"`
}

// StationBalance combines a station with its latest balance result.
type StationBalance struct {
	UpdatedAt time.Time
	Balance   *relay.BalanceResult
	Station
	IsActive bool
}

// HasBalance reports whether a balance query has completed for the station.
func (sb *StationBalance) HasBalance() bool {
	return sb.Balance != nil
}

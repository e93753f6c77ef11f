package models

import (
	"strings"

	"github.com/j-veylop/relaywatch-tui/internal/relay"
)

// GlobalSettingsID keys the endpoint settings shared by stations without
// their own override.
const GlobalSettingsID = "*"

// EndpointSettings overrides the endpoint paths and log page size for a station.
type EndpointSettings struct {
	SubscriptionPath string `json:"subscriptionPath"`
	UsagePath        string `json:"usagePath"`
	LogsPath         string `json:"logsPath"`
	LogsPageSize     int    `json:"logsPageSize"`
}

// DefaultEndpointSettings returns the stock endpoints.
func DefaultEndpointSettings() EndpointSettings {
	return EndpointSettings{
		SubscriptionPath: relay.DefaultSubscriptionPath,
		UsagePath:        relay.DefaultUsagePath,
		LogsPath:         relay.DefaultLogsPath,
		LogsPageSize:     relay.DefaultPageSize,
	}
}

// Normalize trims the paths and replaces blank paths and non-positive page
// sizes with the defaults.
func (s EndpointSettings) Normalize() EndpointSettings {
	def := DefaultEndpointSettings()
	s.SubscriptionPath = orDefault(s.SubscriptionPath, def.SubscriptionPath)
	s.UsagePath = orDefault(s.UsagePath, def.UsagePath)
	s.LogsPath = orDefault(s.LogsPath, def.LogsPath)
	if s.LogsPageSize <= 0 {
		s.LogsPageSize = def.LogsPageSize
	}
	return s
}

// IsDefault reports whether the normalized settings equal the stock ones.
func (s EndpointSettings) IsDefault() bool {
	return s.Normalize() == DefaultEndpointSettings()
}

// BalancePaths returns the paths for a balance query.
func (s EndpointSettings) BalancePaths() relay.BalancePaths {
	n := s.Normalize()
	return relay.BalancePaths{Subscription: n.SubscriptionPath, Usage: n.UsagePath}
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}

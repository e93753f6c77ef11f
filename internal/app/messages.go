package app

import (
	"time"

	"github.com/j-veylop/relaywatch-tui/internal/models"
	"github.com/j-veylop/relaywatch-tui/internal/relay"
	"github.com/j-veylop/relaywatch-tui/internal/services"
)

// TickMsg is sent periodically to trigger state refresh.
type TickMsg struct {
	Time time.Time
}

// StartLoadingMsg signals that a resource is starting to load.
type StartLoadingMsg struct {
	Resource string
}

// StopLoadingMsg signals that a resource has finished loading.
type StopLoadingMsg struct {
	Resource string
}

// StationsLoadedMsg contains the station list with cached balances.
type StationsLoadedMsg struct {
	Stations []models.StationBalance
	Stats    services.StatsEvent
}

// RefreshMsg requests a refresh of data.
type RefreshMsg struct {
	Resource string // "all", "stations", "balance"
}

// RefreshBalanceMsg requests a balance query for one station.
// An empty StationID means the active station.
type RefreshBalanceMsg struct {
	StationID string
}

// BalanceRefreshedMsg contains a finished balance query.
type BalanceRefreshedMsg struct {
	Error     error
	Result    *relay.BalanceResult
	StationID string
}

// FetchLogsMsg requests a page of logs for the active station.
type FetchLogsMsg struct {
	Order string
	Page  int
}

// LogsLoadedMsg contains a fetched page of logs.
type LogsLoadedMsg struct {
	Error error
	Page  LogsPage
}

// SwitchStationMsg requests switching the active station.
type SwitchStationMsg struct {
	StationID string
}

// SwitchStationResultMsg contains the result of a station switch.
type SwitchStationResultMsg struct {
	Error     error
	StationID string
	Name      string
}

// SaveStationMsg requests adding or updating a station.
type SaveStationMsg struct {
	Station models.Station
	IsNew   bool
}

// SaveStationResultMsg contains the result of a station save.
type SaveStationResultMsg struct {
	Error   error
	Station models.Station
	IsNew   bool
}

// DeleteStationMsg requests deletion of a station.
type DeleteStationMsg struct {
	StationID string
}

// DeleteStationResultMsg contains the result of a station deletion.
type DeleteStationResultMsg struct {
	Error     error
	StationID string
}

// LoadSettingsMsg requests the endpoint settings in effect for a station.
type LoadSettingsMsg struct {
	StationID string
}

// SettingsLoadedMsg contains endpoint settings for a station.
type SettingsLoadedMsg struct {
	Error      error
	StationID  string
	Settings   models.EndpointSettings
	Overridden bool
}

// SaveSettingsMsg requests storing endpoint settings.
type SaveSettingsMsg struct {
	StationID string
	Settings  models.EndpointSettings
}

// ResetSettingsMsg requests dropping endpoint overrides.
type ResetSettingsMsg struct {
	StationID string
}

// AddNotificationMsg requests adding a new notification.
type AddNotificationMsg struct {
	Message  string
	Duration time.Duration
	Type     NotificationType
}

// RemoveNotificationMsg requests removal of a notification.
type RemoveNotificationMsg struct {
	ID string
}

// ClearExpiredNotificationsMsg triggers clearing of expired notifications.
type ClearExpiredNotificationsMsg struct{}

// ServiceEventMsg wraps a service event from the service manager.
type ServiceEventMsg struct {
	Event services.ServiceEvent
}

// SubscriptionEventMsg is the callback wrapper for service subscription.
type SubscriptionEventMsg struct {
	Channel chan services.ServiceEvent
}

// ErrorMsg represents a general error.
type ErrorMsg struct {
	Error   error
	Context string
}

// QuitMsg requests the application to quit.
type QuitMsg struct{}

// TabSwitchMsg requests switching to a specific tab.
type TabSwitchMsg struct {
	Tab TabID
}

// ToggleHelpMsg toggles the help display.
type ToggleHelpMsg struct{}

// CopyToClipboardMsg requests copying text to clipboard.
type CopyToClipboardMsg struct {
	Text  string
	Label string
}

// ClipboardResultMsg contains the result of a clipboard operation.
type ClipboardResultMsg struct {
	Error error
	Label string
}

package app

import (
	"errors"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/relaywatch-tui/internal/models"
	"github.com/j-veylop/relaywatch-tui/internal/relay"
	"github.com/j-veylop/relaywatch-tui/internal/services"
)

const (
	// DefaultTickInterval is the default interval between ticks.
	DefaultTickInterval = 2 * time.Second

	// DefaultNotificationDuration is the default duration for notifications.
	DefaultNotificationDuration = 5 * time.Second

	// QuickNotificationDuration is for brief notifications.
	QuickNotificationDuration = 3 * time.Second

	// LongNotificationDuration is for important notifications.
	LongNotificationDuration = 10 * time.Second
)

var errNoActiveStation = errors.New("no active station")

// clipboardWrite is replaced in tests.
var clipboardWrite = clipboard.WriteAll

// tickCmd returns a command that sends a TickMsg after the specified interval.
func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

// defaultTickCmd returns a command that sends a TickMsg after the default interval.
func defaultTickCmd() tea.Cmd {
	return tickCmd(DefaultTickInterval)
}

// loadStationsCmd returns a command that loads stations with their balances.
func loadStationsCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		return StationsLoadedMsg{
			Stations: mgr.GetStationsWithBalance(),
			Stats:    mgr.GetStats(),
		}
	}
}

// refreshBalanceCmd queries one station's balance. An empty ID means the
// active station.
func refreshBalanceCmd(mgr *services.Manager, stationID string) tea.Cmd {
	return func() tea.Msg {
		var (
			res *relay.BalanceResult
			err error
		)
		if stationID == "" {
			res, err = mgr.RefreshActiveBalance()
			if active := mgr.Stations().GetActiveStation(); active != nil {
				stationID = active.ID
			}
		} else {
			res, err = mgr.RefreshBalance(stationID)
		}
		return BalanceRefreshedMsg{StationID: stationID, Result: res, Error: err}
	}
}

// refreshAllCmd refreshes every station and reloads the list.
func refreshAllCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		mgr.RefreshAll()
		return StationsLoadedMsg{
			Stations: mgr.GetStationsWithBalance(),
			Stats:    mgr.GetStats(),
		}
	}
}

// fetchLogsCmd fetches a page of logs for the active station.
func fetchLogsCmd(mgr *services.Manager, page int, order string) tea.Cmd {
	return func() tea.Msg {
		active := mgr.Stations().GetActiveStation()
		if active == nil {
			return LogsLoadedMsg{Error: errNoActiveStation}
		}
		res, err := mgr.FetchLogs(active.ID, page, order)
		return LogsLoadedMsg{
			Error: err,
			Page: LogsPage{
				StationID: active.ID,
				Page:      page,
				Order:     order,
				Result:    res,
			},
		}
	}
}

// subscribeToServicesCmd returns a command that subscribes to service events.
func subscribeToServicesCmd(mgr *services.Manager) tea.Cmd {
	ch, _ := mgr.Subscribe()
	return func() tea.Msg {
		return SubscriptionEventMsg{Channel: ch}
	}
}

// waitForServiceEventCmd returns a command that waits for the next service event.
func waitForServiceEventCmd(ch <-chan services.ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return ServiceEventMsg{Event: event}
	}
}

// clearNotificationCmd returns a command that removes a notification after a delay.
func clearNotificationCmd(id string, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(_ time.Time) tea.Msg {
		return RemoveNotificationMsg{ID: id}
	})
}

// switchStationCmd returns a command that switches the active station.
func switchStationCmd(mgr *services.Manager, stationID string) tea.Cmd {
	return func() tea.Msg {
		err := mgr.Stations().SetActiveStation(stationID)
		name := stationID
		if st := mgr.Stations().GetStation(stationID); st != nil {
			name = st.Name
		}
		return SwitchStationResultMsg{StationID: stationID, Name: name, Error: err}
	}
}

// saveStationCmd adds or updates a station.
func saveStationCmd(mgr *services.Manager, st models.Station, isNew bool) tea.Cmd {
	return func() tea.Msg {
		if isNew {
			added, err := mgr.Stations().AddStation(st)
			return SaveStationResultMsg{Station: added, IsNew: true, Error: err}
		}
		err := mgr.Stations().UpdateStation(st)
		return SaveStationResultMsg{Station: st, Error: err}
	}
}

// deleteStationCmd returns a command that deletes a station.
func deleteStationCmd(mgr *services.Manager, stationID string) tea.Cmd {
	return func() tea.Msg {
		err := mgr.Stations().DeleteStation(stationID)
		return DeleteStationResultMsg{StationID: stationID, Error: err}
	}
}

// loadSettingsCmd loads the endpoint settings in effect for a station.
func loadSettingsCmd(mgr *services.Manager, stationID string) tea.Cmd {
	return func() tea.Msg {
		s, err := mgr.EndpointSettings(stationID)
		if err != nil {
			return SettingsLoadedMsg{StationID: stationID, Error: err}
		}
		overridden, err := mgr.Database().HasEndpointSettings(stationID)
		return SettingsLoadedMsg{StationID: stationID, Settings: s, Overridden: overridden, Error: err}
	}
}

// saveSettingsCmd stores endpoint settings and reloads them.
func saveSettingsCmd(mgr *services.Manager, stationID string, s models.EndpointSettings) tea.Cmd {
	return func() tea.Msg {
		if err := mgr.SaveEndpointSettings(stationID, s); err != nil {
			return SettingsLoadedMsg{StationID: stationID, Error: err}
		}
		return loadSettingsCmd(mgr, stationID)()
	}
}

// resetSettingsCmd drops endpoint overrides for a station.
func resetSettingsCmd(mgr *services.Manager, stationID string) tea.Cmd {
	return func() tea.Msg {
		s, err := mgr.ResetEndpointSettings(stationID)
		return SettingsLoadedMsg{StationID: stationID, Settings: s, Error: err}
	}
}

// copyToClipboardCmd writes text to the system clipboard.
func copyToClipboardCmd(text, label string) tea.Cmd {
	return func() tea.Msg {
		return ClipboardResultMsg{Label: label, Error: clipboardWrite(text)}
	}
}

// notifySuccessCmd returns a command that adds a success notification.
func notifySuccessCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationSuccess,
			Message:  message,
			Duration: DefaultNotificationDuration,
		}
	}
}

// notifyErrorCmd returns a command that adds an error notification.
func notifyErrorCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationError,
			Message:  message,
			Duration: LongNotificationDuration,
		}
	}
}

// notifyWarningCmd returns a command that adds a warning notification.
func notifyWarningCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationWarning,
			Message:  message,
			Duration: DefaultNotificationDuration,
		}
	}
}

// notifyInfoCmd returns a command that adds an info notification.
func notifyInfoCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationInfo,
			Message:  message,
			Duration: QuickNotificationDuration,
		}
	}
}

// SendMsg wraps a message into a command. Tabs use it to hand requests to
// the root model.
func SendMsg(msg tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return msg
	}
}

// NotifySuccess returns a command that adds a success notification.
func NotifySuccess(message string) tea.Cmd {
	return notifySuccessCmd(message)
}

// NotifyError returns a command that adds an error notification.
func NotifyError(message string) tea.Cmd {
	return notifyErrorCmd(message)
}

// NotifyInfo returns a command that adds an info notification.
func NotifyInfo(message string) tea.Cmd {
	return notifyInfoCmd(message)
}

// Copy returns a command that asks the root model to copy text to the clipboard.
func Copy(text, label string) tea.Cmd {
	return SendMsg(CopyToClipboardMsg{Text: text, Label: label})
}

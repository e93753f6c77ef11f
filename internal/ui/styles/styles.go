// Package styles defines the visual styling for the application.
package styles

import "github.com/charmbracelet/lipgloss"

// Color definitions for the relay theme.
var (
	// Primary colors
	Primary   = lipgloss.Color("43")  // Teal
	Secondary = lipgloss.Color("111") // Sky
	Subtle    = lipgloss.Color("240") // Gray

	// Balance kinds
	USD    = lipgloss.Color("78")  // Green
	Tokens = lipgloss.Color("141") // Lavender

	// Status colors
	Success = lipgloss.Color("42")  // Green
	Error   = lipgloss.Color("196") // Red
	Warning = lipgloss.Color("220") // Yellow
	Info    = lipgloss.Color("39")  // Blue

	// Background colors
	BgDark   = lipgloss.Color("235")
	BgLight  = lipgloss.Color("237")
	BgAccent = lipgloss.Color("236")

	// Text colors
	TextPrimary   = lipgloss.Color("252")
	TextSecondary = lipgloss.Color("245")
	TextMuted     = lipgloss.Color("240")

	// ToastStyle for floating notifications.
	ToastStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(0, 1).
			MarginBottom(1)
)

// TitleStyle is used for main headings.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary).
	MarginBottom(1)

// SubTitleStyle is used for section headings.
var SubTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Secondary).
	MarginBottom(1)

// DocStyle provides consistent document margins.
var DocStyle = lipgloss.NewStyle().
	Margin(1, 2).
	Padding(0, 1)

// CardStyle creates a bordered card container.
var CardStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Subtle).
	Padding(1, 2).
	MarginBottom(1)

// ActiveCardStyle highlights the card of the active station.
var ActiveCardStyle = CardStyle.
	BorderForeground(Primary)

// CardTitleStyle styles card headers.
var CardTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary).
	MarginBottom(1)

// FocusedBorderStyle creates a focused border.
var FocusedBorderStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Primary).
	Padding(0, 1)

// ProgressLabelStyle styles progress bar labels.
var ProgressLabelStyle = lipgloss.NewStyle().
	Foreground(TextSecondary).
	Width(20)

// HelpStyle is the base style for help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(TextMuted)

// HelpPanelStyle creates the help overlay panel.
var HelpPanelStyle = lipgloss.NewStyle().
	Border(lipgloss.DoubleBorder()).
	BorderForeground(Primary).
	Padding(1, 3).
	Background(BgDark)

// TableHeaderStyle styles table headers.
var TableHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary).
	BorderStyle(lipgloss.NormalBorder()).
	BorderBottom(true).
	BorderForeground(Subtle)

// TableSelectedStyle styles selected table rows.
var TableSelectedStyle = lipgloss.NewStyle().
	Background(BgAccent).
	Foreground(TextPrimary).
	Bold(true)

// ActiveBadgeStyle marks the active station.
var ActiveBadgeStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("229")).
	Background(Primary).
	Bold(true).
	Padding(0, 1)

// BalanceHighStyle for a comfortable remaining balance.
var BalanceHighStyle = lipgloss.NewStyle().
	Foreground(Success)

// BalanceMediumStyle for a balance getting close to the alert threshold.
var BalanceMediumStyle = lipgloss.NewStyle().
	Foreground(Warning)

// BalanceLowStyle for a balance below the alert threshold.
var BalanceLowStyle = lipgloss.NewStyle().
	Foreground(Error).
	Bold(true)

// BalanceUnknownStyle for stations that never answered.
var BalanceUnknownStyle = lipgloss.NewStyle().
	Foreground(Subtle).
	Italic(true)

// ErrorTextStyle for error messages.
var ErrorTextStyle = lipgloss.NewStyle().
	Foreground(Error)

// SuccessTextStyle for success messages.
var SuccessTextStyle = lipgloss.NewStyle().
	Foreground(Success)

// WarningTextStyle for warning messages.
var WarningTextStyle = lipgloss.NewStyle().
	Foreground(Warning)

// InfoTextStyle for info messages.
var InfoTextStyle = lipgloss.NewStyle().
	Foreground(Info)

// ModalContentStyle styles modal content.
var ModalContentStyle = lipgloss.NewStyle().
	Border(lipgloss.DoubleBorder()).
	BorderForeground(Primary).
	Padding(1, 2).
	Background(BgDark)

// GetBalanceStyle returns the style for a remaining amount. threshold is the
// low balance alert level; amounts under three times the threshold render as
// a warning.
func GetBalanceStyle(remaining, threshold float64) lipgloss.Style {
	switch {
	case remaining < threshold:
		return BalanceLowStyle
	case remaining < threshold*3:
		return BalanceMediumStyle
	default:
		return BalanceHighStyle
	}
}

// GetPercentStyle returns the style for the share of a grant still left.
func GetPercentStyle(percent float64) lipgloss.Style {
	switch {
	case percent > 50:
		return BalanceHighStyle
	case percent > 20:
		return BalanceMediumStyle
	default:
		return BalanceLowStyle
	}
}

// CenterHorizontal centers content horizontally within a given width.
func CenterHorizontal(content string, width int) string {
	return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Render(content)
}

// CenterBoth centers content both horizontally and vertically.
func CenterBoth(content string, width, height int) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center).
		AlignVertical(lipgloss.Center).
		Render(content)
}

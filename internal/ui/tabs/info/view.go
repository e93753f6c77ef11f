package info

import (
	"fmt"
	"runtime"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/relaywatch-tui/internal/ui/styles"
	"github.com/j-veylop/relaywatch-tui/internal/version"
)

// View renders the info tab.
func (m *Model) View() string {
	sections := []string{
		m.renderTitle(),
		m.renderConfigCard(),
		m.renderStatsCard(),
		m.renderAboutCard(),
	}

	m.viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, sections...))

	return styles.DocStyle.Render(m.viewport.View())
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Info")
	subtitle := styles.HelpStyle.Render("Configuration and application information")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) cardWidth() int {
	return min(max(m.width-6, 50), 90)
}

// renderConfigCard renders the configuration paths card.
func (m *Model) renderConfigCard() string {
	rows := []string{styles.CardTitleStyle.Render("Configuration")}

	if m.config != nil {
		envFile := m.config.EnvFile
		if envFile == "" {
			envFile = "none found"
		}
		proxy := m.config.DefaultProxyURL
		if proxy == "" {
			proxy = "none"
		}
		refresh := "off"
		if m.config.BalanceRefreshInterval > 0 {
			refresh = m.config.BalanceRefreshInterval.String()
		}

		rows = append(rows,
			m.renderConfigRow("Stations File", m.config.StationsPath),
			m.renderConfigRow("Database", m.config.DatabasePath),
			m.renderConfigRow("Log File", m.config.LogFile),
			m.renderConfigRow("Env File", envFile),
			m.renderConfigRow("Log Level", m.config.LogLevel.String()),
			m.renderConfigRow("Default Proxy", proxy),
			m.renderConfigRow("Auto Refresh", refresh),
			m.renderConfigRow("Low Balance", fmt.Sprintf("$%.2f", m.config.LowBalanceThreshold)),
		)
	} else {
		rows = append(rows, styles.HelpStyle.Render("Configuration not loaded"))
	}

	rows = append(rows, "", styles.HelpStyle.Render("Press 'c' or 'l' to copy paths"))

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// renderConfigRow renders a configuration key-value row.
func (m *Model) renderConfigRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Width(18).
		Foreground(styles.TextMuted)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}

func (m *Model) renderStatsCard() string {
	rows := []string{styles.CardTitleStyle.Render("Stations")}

	stats := m.state.GetStats()
	rows = append(rows, m.renderConfigRow("Configured", fmt.Sprintf("%d", m.state.GetStationCount())))
	if active := m.state.GetActiveStation(); active != nil {
		rows = append(rows, m.renderConfigRow("Active", active.Name))
	}
	if stats != nil {
		rows = append(rows,
			m.renderConfigRow("Balances Cached", fmt.Sprintf("%d", stats.BalancesCached)),
			m.renderConfigRow("Failed Queries", fmt.Sprintf("%d", stats.FailedBalances)),
			m.renderConfigRow("Total Remaining", fmt.Sprintf("$%.2f", stats.TotalRemainingUSD)),
		)
	}
	if last := m.state.GetLastUpdated(); !last.IsZero() {
		rows = append(rows, m.renderConfigRow("Last Update", last.Format("15:04:05")))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// renderAboutCard renders the about/version information card.
func (m *Model) renderAboutCard() string {
	rows := []string{
		styles.CardTitleStyle.Render("About RelayWatch"),
		m.renderConfigRow("Version", version.GetVersion()),
		m.renderConfigRow("Build Date", version.GetDate()),
		m.renderConfigRow("Git Commit", version.GetCommit()),
		m.renderConfigRow("Go Version", runtime.Version()),
		m.renderConfigRow("Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)),
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

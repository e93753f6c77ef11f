package balances

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/relaywatch-tui/internal/models"
	"github.com/j-veylop/relaywatch-tui/internal/relay"
	"github.com/j-veylop/relaywatch-tui/internal/ui/components"
	"github.com/j-veylop/relaywatch-tui/internal/ui/styles"
)

// View renders the balance tab.
func (m *Model) View() string {
	if m.state.IsInitialLoading() {
		return components.RenderSpinnerCentered(m.spinner, m.width, m.height)
	}

	if m.viewer.Visible() {
		return styles.DocStyle.Render(m.viewer.View())
	}

	sections := []string{m.renderTitle(), m.renderStationList()}
	if detail := m.renderDetail(); detail != "" {
		sections = append(sections, detail)
	}

	m.viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, sections...))

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Relay Balances")

	subtitle := "Remaining credit on every saved relay station"
	if stats := m.state.GetStats(); stats != nil && stats.BalancesCached > 0 {
		subtitle = fmt.Sprintf("$%.2f remaining across %d stations", stats.TotalRemainingUSD, stats.StationCount)
		if stats.FailedBalances > 0 {
			subtitle += fmt.Sprintf(" · %d failed", stats.FailedBalances)
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, styles.HelpStyle.Render(subtitle), "")
}

func (m *Model) renderStationList() string {
	list := m.state.GetStations()
	cardWidth := max(m.width-6, 40)

	icon := lipgloss.NewStyle().Foreground(styles.Primary).Render("◈")
	rows := []string{fmt.Sprintf("%s %s", icon, styles.CardTitleStyle.Render("Stations"))}

	if len(list) == 0 {
		empty := lipgloss.NewStyle().Foreground(styles.Subtle).Render("○")
		rows = append(rows,
			"",
			fmt.Sprintf("  %s %s", empty, styles.HelpStyle.Render("No stations configured")),
			"",
			styles.InfoTextStyle.Render("  ╰─▶ Press 3 and n to add one, or run rwt stations add"),
		)
		return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	divider := lipgloss.NewStyle().Foreground(styles.Subtle).Render(
		"  ├" + strings.Repeat("─", max(cardWidth-8, 20)) + "┤",
	)

	rows = append(rows, "")
	for i, st := range list {
		rows = append(rows, m.renderStationRow(st, i == m.selectedIndex, cardWidth-4))
		if i < len(list)-1 {
			rows = append(rows, "", divider, "")
		}
	}
	rows = append(rows, "")

	return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderStationRow(st models.StationBalance, selected bool, width int) string {
	lines := []string{m.renderStationHeader(st, selected)}
	contentWidth := max(width-4, 20)

	switch {
	case st.Balance == nil || m.state.IsRefreshing(st.ID):
		lines = append(lines, "    "+components.BalanceBarLoading(contentWidth, m.frame, styles.Primary))
	case st.Balance.Failed():
		lines = append(lines, m.renderFailure(st, contentWidth)...)
	default:
		lines = append(lines, m.renderAmounts(st.Balance, contentWidth)...)
	}

	if !st.UpdatedAt.IsZero() {
		lines = append(lines, styles.HelpStyle.Render("    updated "+timeAgo(st.UpdatedAt)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m *Model) renderStationHeader(st models.StationBalance, selected bool) string {
	prefix := "  "
	if selected {
		prefix = lipgloss.NewStyle().Foreground(styles.Primary).Bold(true).Render("▸ ")
	}

	indicator := lipgloss.NewStyle().Foreground(styles.Subtle).Render("○ ")
	badge := ""
	if st.IsActive {
		indicator = styles.SuccessTextStyle.Render("● ")
		badge = " " + styles.ActiveBadgeStyle.Render("ACTIVE")
	}

	name := lipgloss.NewStyle().Bold(true).Render(truncate(st.Name, 30))
	url := styles.HelpStyle.Render(truncate(st.BaseURL, 40))

	return fmt.Sprintf("%s%s%s  %s%s", prefix, indicator, name, url, badge)
}

func (m *Model) renderAmounts(res *relay.BalanceResult, width int) []string {
	var lines []string

	if res.HasUSD() {
		rem := *res.RemainingUSD
		amount := styles.GetBalanceStyle(rem, m.threshold).Render(formatUSD(rem))
		lines = append(lines, fmt.Sprintf("    %s %s of %s · used %s",
			lipgloss.NewStyle().Foreground(styles.USD).Render("USD   "),
			amount, formatUSD(*res.HardLimitUSD), formatUSD(*res.UsedUSD)))
		lines = append(lines, "    "+components.SimpleBalanceBar(
			components.RemainingPercent(rem, *res.HardLimitUSD), "left", width))
	}

	if res.HasTokens() {
		avail := *res.TotalAvailable
		lines = append(lines, fmt.Sprintf("    %s %s of %s · used %s",
			lipgloss.NewStyle().Foreground(styles.Tokens).Render("Tokens"),
			lipgloss.NewStyle().Bold(true).Render(components.FormatCompact(avail)),
			components.FormatCompact(*res.TotalGranted),
			components.FormatCompact(*res.TotalUsed)))
		lines = append(lines, "    "+components.SimpleBalanceBar(
			components.RemainingPercent(avail, *res.TotalGranted), "left", width))
	}

	return lines
}

func (m *Model) renderFailure(st models.StationBalance, width int) []string {
	lines := []string{"    " + styles.ErrorTextStyle.Render("✗ "+st.Balance.Error)}
	for _, a := range st.Balance.FailedAttempts() {
		msg := relay.Redact(a.Err.Error(), st.APIKey)
		lines = append(lines, styles.HelpStyle.Render(
			"      "+truncate(fmt.Sprintf("%-12s %s", a.Source, msg), width)))
	}
	return lines
}

// renderDetail shows the animated remaining bar and the per-source outcome of
// the selected station's last query.
func (m *Model) renderDetail() string {
	sel := m.selected(m.state.GetStations())
	if sel == nil || sel.Balance == nil {
		return ""
	}

	cardWidth := max(m.width-6, 40)
	rows := []string{styles.CardTitleStyle.Render("Selected · " + sel.Name)}

	if _, ok := remainingPercent(*sel); ok {
		rows = append(rows, m.bar.View("Remaining", cardWidth-4), "")
	}

	for _, source := range []string{relay.SourceSubscription, relay.SourceUsage, relay.SourceToken} {
		rows = append(rows, renderAttempt(source, sel.Balance, sel.APIKey))
	}

	rows = append(rows, "", styles.HelpStyle.Render("v raw response · c copy · r refresh · enter make active"))

	return styles.ActiveCardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func renderAttempt(source string, res *relay.BalanceResult, apiKey string) string {
	label := lipgloss.NewStyle().Width(14).Render(source)
	for _, a := range res.Attempts {
		if a.Source != source {
			continue
		}
		if a.OK() {
			return label + styles.SuccessTextStyle.Render("✓ ok")
		}
		return label + styles.ErrorTextStyle.Render("✗ "+truncate(relay.Redact(a.Err.Error(), apiKey), 60))
	}
	if _, ok := res.RawResponse[source]; ok {
		return label + styles.SuccessTextStyle.Render("✓ ok")
	}
	return label + styles.BalanceUnknownStyle.Render("– not queried")
}

// remainingPercent prefers the USD grant and falls back to the token grant.
func remainingPercent(st models.StationBalance) (float64, bool) {
	res := st.Balance
	switch {
	case res == nil || res.Failed():
		return 0, false
	case res.HasUSD():
		return components.RemainingPercent(*res.RemainingUSD, *res.HardLimitUSD), true
	case res.HasTokens():
		return components.RemainingPercent(*res.TotalAvailable, *res.TotalGranted), true
	}
	return 0, false
}

func formatUSD(v float64) string {
	if v < 0 {
		return fmt.Sprintf("-$%.2f", -v)
	}
	return fmt.Sprintf("$%.2f", v)
}

func timeAgo(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < 5*time.Second:
		return "just now"
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return t.Format("2006-01-02 15:04")
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 3 || len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

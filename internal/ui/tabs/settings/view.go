package settings

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/relaywatch-tui/internal/models"
	"github.com/j-veylop/relaywatch-tui/internal/ui/styles"
)

// View renders the settings tab.
func (m *Model) View() string {
	sections := []string{m.renderTitle()}

	switch {
	case m.form != nil:
		sections = append(sections, m.renderForm())
	case m.scopeID() == "":
		sections = append(sections, styles.HelpStyle.Render("No active station. Press g to edit the global defaults."))
	case m.settings == nil && m.lastError == "":
		sections = append(sections, styles.HelpStyle.Render("Loading settings..."))
	default:
		sections = append(sections, m.renderCard())
	}

	if m.lastError != "" && m.form == nil {
		sections = append(sections, styles.ErrorTextStyle.Render("✗ "+m.lastError))
	}

	return styles.DocStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Endpoint Settings")
	subtitle := styles.HelpStyle.Render("Editing: " + m.scopeName())
	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) cardWidth() int {
	return min(max(m.width-6, 50), 90)
}

func (m *Model) renderCard() string {
	if m.settings == nil {
		return ""
	}
	s := *m.settings
	def := models.DefaultEndpointSettings()

	status := styles.HelpStyle.Render("Using stock endpoints")
	switch {
	case m.overridden:
		status = styles.SuccessTextStyle.Render("● Custom overrides saved")
	case !s.IsDefault() && !m.global:
		status = styles.InfoTextStyle.Render("Inherited from global defaults")
	}

	rows := []string{
		styles.CardTitleStyle.Render("◈ " + m.scopeName()),
		m.renderRow("Subscription", s.SubscriptionPath, def.SubscriptionPath),
		m.renderRow("Usage", s.UsagePath, def.UsagePath),
		m.renderRow("Logs", s.LogsPath, def.LogsPath),
		m.renderRow("Page size", strconv.Itoa(s.LogsPageSize), strconv.Itoa(def.LogsPageSize)),
		"",
		status,
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderRow(label, value, def string) string {
	labelStyle := lipgloss.NewStyle().Width(14).Foreground(styles.TextMuted)
	valueStyle := lipgloss.NewStyle().Foreground(styles.TextPrimary)
	if value != def {
		valueStyle = valueStyle.Foreground(styles.Secondary).Bold(true)
	}
	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}

func (m *Model) renderForm() string {
	return styles.FocusedBorderStyle.Width(m.cardWidth()).Render(m.form.View())
}

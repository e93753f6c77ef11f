package stations

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/relaywatch-tui/internal/models"
	"github.com/j-veylop/relaywatch-tui/internal/ui/components"
	"github.com/j-veylop/relaywatch-tui/internal/ui/styles"
)

// columnsFor sizes the table to the available width.
func columnsFor(width int) []table.Column {
	urlWidth := min(max(width-88, 24), 48)
	return []table.Column{
		{Title: "", Width: 2},
		{Title: "Name", Width: 18},
		{Title: "Base URL", Width: urlWidth},
		{Title: "Key", Width: 12},
		{Title: "Proxy", Width: 20},
		{Title: "Balance", Width: 16},
	}
}

func balanceSummary(st models.StationBalance) string {
	switch b := st.Balance; {
	case b == nil:
		return "-"
	case b.Failed():
		return "failed"
	case b.HasUSD():
		return fmt.Sprintf("$%.2f", *b.RemainingUSD)
	case b.HasTokens():
		return components.FormatCompact(*b.TotalAvailable) + " tok"
	default:
		return "-"
	}
}

// View renders the stations tab.
func (m *Model) View() string {
	sections := []string{m.renderTitle()}

	switch {
	case m.form != nil:
		sections = append(sections, m.renderForm())
	case m.confirmDelete:
		sections = append(sections, m.renderDeleteConfirm(), m.renderTable())
	default:
		sections = append(sections, m.renderTable())
	}

	return styles.DocStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Stations")

	subtitle := fmt.Sprintf("%d stations configured", m.state.GetStationCount())
	if active := m.state.GetActiveStation(); active != nil {
		subtitle += " · active: " + active.Name
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, styles.HelpStyle.Render(subtitle), "")
}

func (m *Model) renderTable() string {
	cardWidth := max(m.width-6, 60)

	if m.state.GetStationCount() == 0 {
		content := lipgloss.JoinVertical(lipgloss.Center,
			"",
			styles.SubTitleStyle.Render("No Stations Configured"),
			"",
			styles.HelpStyle.Render("Add a relay station to start tracking its balance."),
			"",
			styles.InfoTextStyle.Render("Press 'n' to add a new station"),
			"",
		)
		return styles.CardStyle.Width(cardWidth).Render(content)
	}

	return styles.CardStyle.Width(cardWidth).Render(m.table.View())
}

func (m *Model) renderForm() string {
	cardWidth := min(max(m.width-10, 50), 80)
	heading := "Add New Station"
	if !m.form.isNew() {
		heading = "Edit Station"
	}
	return styles.FocusedBorderStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, styles.CardTitleStyle.Render(heading), m.form.View()),
	)
}

func (m *Model) renderDeleteConfirm() string {
	msg := fmt.Sprintf("Delete station %s? Its endpoint settings go with it. (y/n)", m.deleteName)
	return styles.ModalContentStyle.Render(styles.WarningTextStyle.Render(msg))
}

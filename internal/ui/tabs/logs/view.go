package logs

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/relaywatch-tui/internal/app"
	"github.com/j-veylop/relaywatch-tui/internal/relay"
	"github.com/j-veylop/relaywatch-tui/internal/ui/components"
	"github.com/j-veylop/relaywatch-tui/internal/ui/styles"
)

const (
	chartHeight   = 8
	maxModelBars  = 6
	timeLayout    = "01-02 15:04:05"
	unknownColumn = "-"
)

// columnsFor sizes the table columns to the available width. Document
// margins take 6 columns and cell padding another 14.
func columnsFor(width int) []table.Column {
	avail := max(width-20, 60)
	fixed := 15 + 10 + 8 + 8 + 10
	flex := max(avail-fixed, 20)
	return []table.Column{
		{Title: "Time", Width: 15},
		{Title: "Model", Width: flex * 3 / 5},
		{Title: "Token", Width: flex - flex*3/5},
		{Title: "Quota", Width: 10},
		{Title: "Prompt", Width: 8},
		{Title: "Compl.", Width: 8},
		{Title: "Use Time", Width: 10},
	}
}

// entryRow converts one log entry to a table row.
func entryRow(e relay.LogEntry) table.Row {
	return table.Row{
		formatCreatedAt(e),
		stringField(e, "model_name"),
		stringField(e, "token_name"),
		numberField(e, "quota"),
		numberField(e, "prompt_tokens"),
		numberField(e, "completion_tokens"),
		useTime(e),
	}
}

func formatCreatedAt(e relay.LogEntry) string {
	ts := relay.CreatedAt(e)
	if ts <= 0 {
		return unknownColumn
	}
	return time.Unix(int64(ts), 0).Format(timeLayout)
}

func stringField(e relay.LogEntry, name string) string {
	switch v := e[name].(type) {
	case string:
		if v == "" {
			return unknownColumn
		}
		return v
	case nil:
		return unknownColumn
	default:
		return fmt.Sprint(v)
	}
}

func numberField(e relay.LogEntry, name string) string {
	f, ok := relay.Float(e[name])
	if !ok {
		return unknownColumn
	}
	return components.FormatCompact(f)
}

func useTime(e relay.LogEntry) string {
	f, ok := relay.Float(e["use_time"])
	if !ok {
		return unknownColumn
	}
	return fmt.Sprintf("%gs", f)
}

// View renders the logs tab.
func (m *Model) View() string {
	if m.viewer.Visible() {
		return styles.DocStyle.Render(m.viewer.View())
	}

	active := m.state.GetActiveStation()
	if active == nil {
		return styles.DocStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
			styles.TitleStyle.Render("Call Logs"),
			styles.HelpStyle.Render("No active station. Add one on the Stations tab."),
		))
	}

	sections := []string{m.renderHeader(active.Name)}

	page := m.state.GetLogs()
	switch {
	case page == nil && m.state.IsLoading(app.ResourceLogs):
		sections = append(sections, "", m.spinner.ViewWithLabel())
	case page == nil:
		sections = append(sections, "", styles.HelpStyle.Render("No logs fetched yet. Press r to fetch."))
	case page.Result == nil:
		sections = append(sections, "", styles.HelpStyle.Render("Empty result"))
	case page.Result.Failed():
		sections = append(sections, "", styles.ErrorTextStyle.Render("✗ "+page.Result.Error))
	case len(m.items) == 0:
		sections = append(sections, "", styles.HelpStyle.Render("No log entries on this page"))
	default:
		sections = append(sections, m.table.View(), "", m.renderChart())
	}

	return styles.DocStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m *Model) renderHeader(station string) string {
	title := styles.TitleStyle.Render("Call Logs")

	parts := []string{
		station,
		fmt.Sprintf("page %d", m.page),
		"requested " + m.order,
		"shown newest first",
	}
	if page := m.state.GetLogs(); page != nil && page.Result != nil && !page.Result.Failed() {
		parts = append(parts, fmt.Sprintf("%d of %d entries", len(page.Result.Items), page.Result.Total))
		if !page.FetchedAt.IsZero() {
			parts = append(parts, "fetched "+page.FetchedAt.Format("15:04:05"))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, styles.HelpStyle.Render(strings.Join(parts, " · ")), "")
}

func (m *Model) renderChart() string {
	width := max(m.width-20, 30)
	label := styles.CardTitleStyle.MarginBottom(0).Render("◈ " + m.chart.String())
	hint := styles.HelpStyle.Render("  (t to cycle)")

	var body string
	switch m.chart {
	case chartQuota:
		body = components.RenderLineChart(m.series("quota"), width, chartHeight, "oldest → newest")
	case chartTokens:
		body = lipgloss.JoinVertical(lipgloss.Left,
			components.RenderTokenChart(m.series("prompt_tokens"), m.series("completion_tokens"), width, chartHeight, "oldest → newest"),
			components.RenderLegend([]components.LegendItem{
				{Label: "prompt", Color: components.ChartPromptColor},
				{Label: "completion", Color: components.ChartCompletionColor},
			}),
		)
	case chartHourly:
		body = components.RenderHourlyHeatmap(m.hourlyBuckets())
	case chartModels:
		values, labels := m.quotaByModel()
		body = components.RenderBarChart(values, labels, width)
	}

	return styles.CardStyle.Width(max(m.width-6, 40)).Render(lipgloss.JoinVertical(lipgloss.Left, label+hint, "", body))
}

// series returns a numeric field of every entry in chronological order.
func (m *Model) series(name string) []float64 {
	out := make([]float64, 0, len(m.items))
	for i := len(m.items) - 1; i >= 0; i-- {
		f, _ := relay.Float(m.items[i][name])
		out = append(out, f)
	}
	return out
}

func (m *Model) hourlyBuckets() []float64 {
	buckets := make([]float64, 24)
	for _, e := range m.items {
		ts := relay.CreatedAt(e)
		if ts <= 0 {
			continue
		}
		buckets[time.Unix(int64(ts), 0).Hour()]++
	}
	return buckets
}

// quotaByModel sums quota per model, largest first.
func (m *Model) quotaByModel() ([]float64, []string) {
	totals := make(map[string]float64)
	for _, e := range m.items {
		q, _ := relay.Float(e["quota"])
		totals[stringField(e, "model_name")] += q
	}

	names := make([]string, 0, len(totals))
	for name := range totals {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if totals[names[i]] != totals[names[j]] {
			return totals[names[i]] > totals[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > maxModelBars {
		names = names[:maxModelBars]
	}

	values := make([]float64, len(names))
	for i, name := range names {
		values[i] = totals[name]
	}
	return values, names
}

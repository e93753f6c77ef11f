// Package components provides reusable UI components for the TUI.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/j-veylop/relaywatch-tui/internal/ui/styles"
)

// Chart series colors.
var (
	ChartPromptColor     = lipgloss.Color("#5fafff")
	ChartCompletionColor = lipgloss.Color("#d787ff")
	ChartQuotaColor      = lipgloss.Color("#2dd4bf")
)

var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// RenderLineChart creates a single-series ASCII line chart.
func RenderLineChart(data []float64, width, height int, caption string) string {
	if len(data) == 0 {
		return styles.HelpStyle.Render("No data available")
	}

	width = max(width, 20)
	height = max(height, 3)

	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(asciigraph.Cyan),
	)
}

// RenderTokenChart plots prompt and completion tokens of the same calls.
func RenderTokenChart(prompt, completion []float64, width, height int, caption string) string {
	if len(prompt) == 0 && len(completion) == 0 {
		return styles.HelpStyle.Render("No data available")
	}

	width = max(width, 20)
	height = max(height, 3)

	// Pad the shorter series with zeros
	n := max(len(prompt), len(completion))
	p := make([]float64, n)
	c := make([]float64, n)
	copy(p, prompt)
	copy(c, completion)

	return asciigraph.PlotMany([][]float64{p, c},
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(asciigraph.Blue, asciigraph.Magenta),
	)
}

// RenderBarChart creates a simple horizontal bar chart.
func RenderBarChart(values []float64, labels []string, width int) string {
	if len(values) == 0 {
		return ""
	}

	maxVal := maxOf(values)

	maxLabelLen := 0
	for _, l := range labels {
		maxLabelLen = max(maxLabelLen, lipgloss.Width(l))
	}

	barWidth := max(width-maxLabelLen-12, 10)

	lines := make([]string, 0, len(values))
	for i, v := range values {
		label := ""
		if i < len(labels) {
			label = labels[i]
		}
		pad := strings.Repeat(" ", maxLabelLen-lipgloss.Width(label))

		barLen := max(int((v/maxVal)*float64(barWidth)), 0)
		bar := lipgloss.NewStyle().Foreground(ChartQuotaColor).Render(strings.Repeat("█", barLen))

		lines = append(lines, fmt.Sprintf("%s%s │%s %s", pad, label, bar, FormatCompact(v)))
	}

	return strings.Join(lines, "\n")
}

// HeatmapBlocks are Unicode block characters for heatmaps (low to high intensity).
var HeatmapBlocks = []rune{'░', '▒', '▓', '█'}

// RenderHourlyHeatmap renders 24 buckets of call counts, midnight first.
func RenderHourlyHeatmap(buckets []float64) string {
	if len(buckets) != 24 {
		padded := make([]float64, 24)
		copy(padded, buckets)
		buckets = padded
	}

	maxVal := maxOf(buckets)

	var b strings.Builder
	b.WriteString("00 ")

	for i, v := range buckets {
		intensity := clamp(int((v/maxVal)*float64(len(HeatmapBlocks)-1)), 0, len(HeatmapBlocks)-1)
		if v > 0 && intensity == 0 {
			intensity = 1
		}

		var style lipgloss.Style
		switch intensity {
		case 0:
			style = lipgloss.NewStyle().Foreground(styles.Subtle)
		case 1:
			style = lipgloss.NewStyle().Foreground(styles.Success)
		case 2:
			style = lipgloss.NewStyle().Foreground(styles.Warning)
		default:
			style = lipgloss.NewStyle().Foreground(styles.Error)
		}

		b.WriteString(style.Render(string(HeatmapBlocks[intensity])))

		if i == 11 {
			b.WriteString(" ")
		}
	}

	b.WriteString(" 23")
	return b.String()
}

// RenderSparkline creates a compact inline sparkline chart.
func RenderSparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}

	maxVal := maxOf(values)
	step := max(float64(len(values))/float64(width), 1)

	var b strings.Builder
	for i := 0; i < width && int(float64(i)*step) < len(values); i++ {
		v := values[int(float64(i)*step)]
		idx := clamp(int((v/maxVal)*float64(len(sparkChars)-1)), 0, len(sparkChars)-1)
		b.WriteRune(sparkChars[idx])
	}

	return b.String()
}

// RenderLegend creates a chart legend.
func RenderLegend(items []LegendItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		colorBox := lipgloss.NewStyle().Foreground(item.Color).Render("■")
		parts = append(parts, fmt.Sprintf("%s %s", colorBox, item.Label))
	}
	return strings.Join(parts, "  ")
}

// LegendItem represents a single legend entry.
type LegendItem struct {
	Label string
	Color lipgloss.Color
}

// FormatCompact renders large counts as 1.2k / 3.4M.
func FormatCompact(v float64) string {
	switch {
	case v >= 1e9 || v <= -1e9:
		return fmt.Sprintf("%.1fB", v/1e9)
	case v >= 1e6 || v <= -1e6:
		return fmt.Sprintf("%.1fM", v/1e6)
	case v >= 1e3 || v <= -1e3:
		return fmt.Sprintf("%.1fk", v/1e3)
	case v == float64(int64(v)):
		return fmt.Sprintf("%d", int64(v))
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

// maxOf returns the largest value, or 1 when nothing is positive.
func maxOf(values []float64) float64 {
	m := 0.0
	for _, v := range values {
		m = max(m, v)
	}
	if m == 0 {
		return 1
	}
	return m
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/relaywatch-tui/internal/logger"
	"github.com/j-veylop/relaywatch-tui/internal/ui/styles"
)

// Gradient ends of the remaining-balance bar, empty to full.
const (
	barEmptyColor = "#ff6b6b"
	barFullColor  = "#51cf66"
)

// AnimationTickMsg advances bar animations.
type AnimationTickMsg time.Time

func animationTick() tea.Cmd {
	return tea.Tick(50*time.Millisecond, func(t time.Time) tea.Msg {
		return AnimationTickMsg(t)
	})
}

// BalanceBar shows how much of a grant is left and eases towards new values.
type BalanceBar struct {
	progress progress.Model
	current  float64
	target   float64
	animate  bool
}

// NewBalanceBar creates a balance bar of the given width.
func NewBalanceBar(width int) BalanceBar {
	return BalanceBar{
		progress: progress.New(
			progress.WithScaledGradient(barEmptyColor, barFullColor),
			progress.WithWidth(max(width, 10)),
			progress.WithoutPercentage(),
		),
	}
}

// Percent returns the percentage currently drawn.
func (b BalanceBar) Percent() float64 {
	return b.current
}

// SetPercent starts moving the bar towards percent (0-100).
func (b *BalanceBar) SetPercent(percent float64) tea.Cmd {
	b.target = clampPercent(percent)
	if b.animate {
		return nil
	}
	b.animate = true
	return animationTick()
}

// SetWidth sets the progress bar width.
func (b *BalanceBar) SetWidth(width int) {
	b.progress.Width = max(width, 10)
}

// Update steps the animation.
func (b BalanceBar) Update(msg tea.Msg) (BalanceBar, tea.Cmd) {
	if _, ok := msg.(AnimationTickMsg); !ok || !b.animate {
		return b, nil
	}

	diff := b.target - b.current
	if diff == 0 {
		b.animate = false
		return b, nil
	}

	step := diff / 10
	switch {
	case step > 0 && step < 0.5:
		step = 0.5
	case step < 0 && step > -0.5:
		step = -0.5
	}
	b.current += step
	if (step > 0 && b.current > b.target) || (step < 0 && b.current < b.target) {
		b.current = b.target
	}
	return b, animationTick()
}

// View renders the bar with a label and the remaining percentage.
func (b BalanceBar) View(label string, width int) string {
	b.progress.Width = max(width-30, 10)
	bar := b.progress.ViewAs(b.current / 100)

	percentStr := styles.GetPercentStyle(b.current).
		Width(6).
		Align(lipgloss.Right).
		Render(fmt.Sprintf("%.0f%%", b.current))

	return lipgloss.JoinHorizontal(
		lipgloss.Center,
		styles.ProgressLabelStyle.Width(15).Render(label),
		bar,
		" ",
		percentStr,
	)
}

// RemainingPercent converts remaining and total amounts to a 0-100 share.
// A non-positive total yields 0.
func RemainingPercent(remaining, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return clampPercent(remaining / total * 100)
}

func clampPercent(p float64) float64 {
	return min(max(p, 0), 100)
}

// RenderGradientBar renders just the bar part with gradient colors.
func RenderGradientBar(percent float64, width int) string {
	if width < 1 {
		return ""
	}

	filled := clamp(int(float64(width)*percent/100), 0, width)

	var b strings.Builder
	for i := range width {
		if i < filled {
			t := float64(i) / float64(max(1, width-1))
			color := interpolateColor(barEmptyColor, barFullColor, t)
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("█"))
		} else {
			b.WriteString(lipgloss.NewStyle().Foreground(styles.Subtle).Render("░"))
		}
	}

	return b.String()
}

// SimpleBalanceBar renders label, gradient bar and percentage on one line.
func SimpleBalanceBar(percent float64, label string, width int) string {
	const percentWidth = 6
	barWidth := max(width-lipgloss.Width(label)-percentWidth-5, 5)

	labelStr := lipgloss.NewStyle().Foreground(styles.TextSecondary).Render(label)
	percentStr := styles.GetPercentStyle(percent).
		Width(percentWidth).
		Align(lipgloss.Right).
		Render(fmt.Sprintf("%.0f%%", percent))

	return fmt.Sprintf("%s [%s] %s", labelStr, RenderGradientBar(percent, barWidth), percentStr)
}

// BalanceBarLoading renders a shimmering placeholder while a query runs.
// frame advances the shimmer.
func BalanceBarLoading(width int, frame int, accent lipgloss.Color) string {
	const cycle = 120
	barWidth := max(width-12, 10)

	t := float64(frame%cycle) / float64(cycle)
	p := t * 2
	if t >= 0.5 {
		p = (1 - t) * 2
	}
	eased := p * p * (3 - 2*p)
	shimmerPos := int(eased * float64(barWidth))

	var b strings.Builder
	for i := range barWidth {
		dist := shimmerPos - i
		if dist < 0 {
			dist = -dist
		}

		switch {
		case dist < 3:
			b.WriteString(lipgloss.NewStyle().Foreground(accent).Render("▓"))
		case dist < 5:
			b.WriteString(lipgloss.NewStyle().Foreground(styles.TextSecondary).Render("▒"))
		default:
			b.WriteString(lipgloss.NewStyle().Foreground(styles.BgLight).Render("░"))
		}
	}

	dots := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	dot := lipgloss.NewStyle().Foreground(accent).Render(dots[(frame/2)%len(dots)])

	return "[" + b.String() + "] " + dot
}

func interpolateColor(fromHex, toHex string, t float64) string {
	from := hexToRGB(fromHex)
	to := hexToRGB(toHex)

	r := int(float64(from[0]) + t*(float64(to[0])-float64(from[0])))
	g := int(float64(from[1]) + t*(float64(to[1])-float64(from[1])))
	b := int(float64(from[2]) + t*(float64(to[2])-float64(from[2])))

	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func hexToRGB(hex string) [3]int {
	hex = strings.TrimPrefix(hex, "#")
	var r, g, b int
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
		logger.Error("failed to parse hex color", "hex", hex, "error", err)
		return [3]int{0, 0, 0}
	}
	return [3]int{r, g, b}
}

package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/relaywatch-tui/internal/ui/styles"
)

func TestSpinner(t *testing.T) {
	s := NewSpinner("Init")

	s.SetLabel("Loading")
	if s.Label() != "Loading" {
		t.Errorf("Label = %s, want Loading", s.Label())
	}
	if s.View() == "" {
		t.Error("View returned empty")
	}
	if !strings.Contains(s.ViewWithLabel(), "Loading") {
		t.Error("ViewWithLabel should contain the label")
	}
	if s.Tick() == nil {
		t.Error("Tick should return command")
	}
	if _, cmd := s.Update(spinner.TickMsg{ID: s.spinner.ID()}); cmd == nil {
		t.Error("Update should return command for tick")
	}
	if RenderSpinnerCentered(s, 20, 5) == "" {
		t.Error("RenderSpinnerCentered returned empty")
	}
}

func TestRenderLineChart(t *testing.T) {
	if !strings.Contains(RenderLineChart(nil, 20, 5, "x"), "No data") {
		t.Error("empty chart should say no data")
	}
	if s := RenderLineChart([]float64{1, 2, 3, 4}, 20, 5, "Quota"); !strings.Contains(s, "Quota") {
		t.Error("chart should include its caption")
	}
}

func TestRenderTokenChart(t *testing.T) {
	if !strings.Contains(RenderTokenChart(nil, nil, 20, 5, "x"), "No data") {
		t.Error("empty chart should say no data")
	}
	if RenderTokenChart([]float64{1, 2, 3}, []float64{3}, 20, 5, "Tokens") == "" {
		t.Error("RenderTokenChart returned empty")
	}
}

func TestRenderBarChart(t *testing.T) {
	if RenderBarChart(nil, nil, 20) != "" {
		t.Error("no values should render nothing")
	}
	s := RenderBarChart([]float64{10, 2500}, []string{"gpt-4o", "claude"}, 40)
	lines := strings.Split(s, "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if !strings.Contains(lines[1], "2.5k") {
		t.Errorf("second line = %q, want compact value", lines[1])
	}
}

func TestRenderHourlyHeatmap(t *testing.T) {
	s := RenderHourlyHeatmap([]float64{1, 0, 3})
	if !strings.HasPrefix(s, "00 ") || !strings.HasSuffix(s, " 23") {
		t.Errorf("heatmap = %q", s)
	}
}

func TestRenderSparkline(t *testing.T) {
	if RenderSparkline(nil, 10) != "" {
		t.Error("empty sparkline should be empty")
	}
	s := RenderSparkline([]float64{0, 4, 8}, 10)
	if []rune(s)[0] != '▁' || []rune(s)[2] != '█' {
		t.Errorf("sparkline = %q", s)
	}
	if n := len([]rune(RenderSparkline(make([]float64, 100), 10))); n != 10 {
		t.Errorf("sparkline width = %d, want 10", n)
	}
}

func TestRenderLegend(t *testing.T) {
	s := RenderLegend([]LegendItem{{Label: "prompt", Color: lipgloss.Color("#ffffff")}})
	if !strings.Contains(s, "prompt") {
		t.Error("legend should contain label")
	}
}

func TestFormatCompact(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{42, "42"},
		{1.5, "1.50"},
		{1200, "1.2k"},
		{3400000, "3.4M"},
		{2e9, "2.0B"},
	}
	for _, tt := range tests {
		if got := FormatCompact(tt.in); got != tt.want {
			t.Errorf("FormatCompact(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRemainingPercent(t *testing.T) {
	tests := []struct {
		remaining, total, want float64
	}{
		{50, 100, 50},
		{150, 100, 100},
		{-5, 100, 0},
		{5, 0, 0},
	}
	for _, tt := range tests {
		if got := RemainingPercent(tt.remaining, tt.total); got != tt.want {
			t.Errorf("RemainingPercent(%v, %v) = %v, want %v", tt.remaining, tt.total, got, tt.want)
		}
	}
}

func TestBalanceBar_Animation(t *testing.T) {
	bar := NewBalanceBar(40)
	if cmd := bar.SetPercent(10); cmd == nil {
		t.Fatal("SetPercent should start the animation")
	}
	if cmd := bar.SetPercent(10); cmd != nil {
		t.Error("a running animation should not be restarted")
	}

	var cmd tea.Cmd
	for range 100 {
		bar, cmd = bar.Update(AnimationTickMsg{})
		if cmd == nil {
			break
		}
	}
	if bar.Percent() != 10 {
		t.Errorf("Percent = %v, want 10", bar.Percent())
	}
	if cmd != nil {
		t.Error("animation should stop at the target")
	}

	if _, cmd := bar.Update(AnimationTickMsg{}); cmd != nil {
		t.Error("idle bar should ignore ticks")
	}

	bar.SetWidth(20)
	if !strings.Contains(bar.View("Remaining", 60), "10%") {
		t.Error("View should show the percentage")
	}
}

func TestSimpleBalanceBar(t *testing.T) {
	s := SimpleBalanceBar(75, "USD", 40)
	if !strings.Contains(s, "USD") || !strings.Contains(s, "75%") {
		t.Errorf("bar = %q", s)
	}
	if RenderGradientBar(50, 0) != "" {
		t.Error("zero width bar should be empty")
	}
}

func TestBalanceBarLoading(t *testing.T) {
	a := BalanceBarLoading(40, 0, styles.Primary)
	b := BalanceBarLoading(40, 30, styles.Primary)
	if a == "" || a == b {
		t.Error("shimmer should move between frames")
	}
}

func TestInterpolateColor(t *testing.T) {
	if got := interpolateColor("#000000", "#ffffff", 0); got != "#000000" {
		t.Errorf("t=0 => %s", got)
	}
	if got := interpolateColor("#000000", "#ffffff", 1); got != "#ffffff" {
		t.Errorf("t=1 => %s", got)
	}
	if got := hexToRGB("zz"); got != [3]int{0, 0, 0} {
		t.Errorf("bad hex => %v", got)
	}
}

func TestJSONViewer(t *testing.T) {
	v := NewJSONViewer()
	if v.Visible() || v.View() != "" {
		t.Error("new viewer should be hidden")
	}

	v.SetSize(60, 10)
	v.Show("Raw response", map[string]any{"object": "list", "名前": "中文"})
	if !v.Visible() {
		t.Fatal("viewer should be visible")
	}
	if !strings.Contains(v.Raw(), `"名前": "中文"`) {
		t.Errorf("Raw = %s", v.Raw())
	}
	view := v.View()
	if !strings.Contains(view, "Raw response") || !strings.Contains(view, "list") {
		t.Errorf("View = %s", view)
	}
	if len(v.KeyBindings()) == 0 {
		t.Error("KeyBindings empty")
	}
	_ = v.Update(tea.KeyMsg{Type: tea.KeyDown})

	v.Hide()
	if v.Visible() {
		t.Error("viewer should be hidden")
	}
	if v.Update(tea.KeyMsg{Type: tea.KeyDown}) != nil {
		t.Error("hidden viewer should ignore input")
	}
}

func TestHighlightKeys(t *testing.T) {
	in := "{\n  \"a\": 1,\n  \"b\": [\n    \"x\"\n  ]\n}"
	out := highlightKeys(in)
	if !strings.Contains(out, "\"a\"") || !strings.Contains(out, "\"x\"") {
		t.Errorf("out = %q", out)
	}
}

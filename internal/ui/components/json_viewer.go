package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/relaywatch-tui/internal/relay"
	"github.com/j-veylop/relaywatch-tui/internal/ui/styles"
)

var (
	jsonKeyStyle    = lipgloss.NewStyle().Foreground(styles.Secondary)
	jsonHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(styles.Primary).PaddingLeft(1)
	jsonLineStyle   = lipgloss.NewStyle().Foreground(styles.Subtle)
)

// JSONViewer is a scrollable panel showing a raw relay response.
type JSONViewer struct {
	viewport viewport.Model
	title    string
	raw      string
	width    int
	height   int
	visible  bool
}

// NewJSONViewer creates a hidden viewer.
func NewJSONViewer() *JSONViewer {
	return &JSONViewer{viewport: viewport.New(0, 0)}
}

// Show opens the viewer on v, pretty-printed.
func (j *JSONViewer) Show(title string, v any) {
	j.title = title
	j.raw = relay.PrettyJSON(v)
	j.viewport.SetContent(highlightKeys(j.raw))
	j.viewport.GotoTop()
	j.visible = true
}

// Hide closes the viewer.
func (j *JSONViewer) Hide() {
	j.visible = false
}

// Visible reports whether the viewer is open.
func (j *JSONViewer) Visible() bool {
	return j.visible
}

// Raw returns the pretty-printed text, unstyled.
func (j *JSONViewer) Raw() string {
	return j.raw
}

// SetSize resizes the panel. Three lines are taken by the header and rules.
func (j *JSONViewer) SetSize(width, height int) {
	j.width = width
	j.height = height
	j.viewport.Width = max(width, 1)
	j.viewport.Height = max(height-3, 1)
}

// Update scrolls the viewport.
func (j *JSONViewer) Update(msg tea.Msg) tea.Cmd {
	if !j.visible {
		return nil
	}
	var cmd tea.Cmd
	j.viewport, cmd = j.viewport.Update(msg)
	return cmd
}

// KeyBindings lists the keys the viewer reacts to.
func (j *JSONViewer) KeyBindings() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("up", "k", "down", "j"), key.WithHelp("↑/↓", "scroll")),
		key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy JSON")),
		key.NewBinding(key.WithKeys("esc", "v"), key.WithHelp("esc/v", "close")),
	}
}

// View renders the panel.
func (j *JSONViewer) View() string {
	if !j.visible {
		return ""
	}

	line := jsonLineStyle.Render(strings.Repeat("═", max(j.width, 1)))
	header := jsonHeaderStyle.Render(j.title)
	if j.viewport.TotalLineCount() > j.viewport.Height {
		header += styles.HelpStyle.Render(
			strings.Repeat(" ", 2) + percentLabel(j.viewport.ScrollPercent()))
	}

	return line + "\n" + header + "\n" + j.viewport.View() + "\n" + line
}

func percentLabel(p float64) string {
	return FormatCompact(float64(int(p*100))) + "%"
}

// highlightKeys colors object keys in indented JSON.
func highlightKeys(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		trimmed := strings.TrimLeft(l, " ")
		if !strings.HasPrefix(trimmed, `"`) {
			continue
		}
		end := strings.Index(trimmed, `": `)
		if end < 0 {
			end = strings.Index(trimmed, `":`)
		}
		if end < 0 {
			continue
		}
		indent := l[:len(l)-len(trimmed)]
		lines[i] = indent + jsonKeyStyle.Render(trimmed[:end+1]) + trimmed[end+1:]
	}
	return strings.Join(lines, "\n")
}

package settings

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/j-veylop/relaywatch-tui/internal/models"
)

const maxPageSize = 1000

// settingsForm edits endpoint paths and the log page size.
type settingsForm struct {
	form             *huh.Form
	subscriptionPath string
	usagePath        string
	logsPath         string
	pageSize         string
	completed        bool
	cancelled        bool
}

func newSettingsForm(scope string, current models.EndpointSettings) *settingsForm {
	def := models.DefaultEndpointSettings()
	sf := &settingsForm{
		subscriptionPath: current.SubscriptionPath,
		usagePath:        current.UsagePath,
		logsPath:         current.LogsPath,
		pageSize:         strconv.Itoa(current.LogsPageSize),
	}

	sf.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Subscription path").
				Description(fmt.Sprintf("Editing %s · blank restores %s", scope, def.SubscriptionPath)).
				Value(&sf.subscriptionPath).
				Placeholder(def.SubscriptionPath).
				Validate(validatePath),
			huh.NewInput().
				Title("Usage path").
				Value(&sf.usagePath).
				Placeholder(def.UsagePath).
				Validate(validatePath),
			huh.NewInput().
				Title("Logs path").
				Value(&sf.logsPath).
				Placeholder(def.LogsPath).
				Validate(validatePath),
			huh.NewInput().
				Title("Logs page size").
				Value(&sf.pageSize).
				Placeholder(strconv.Itoa(def.LogsPageSize)).
				Validate(validatePageSize),
		),
	).WithShowHelp(true)

	return sf
}

func validatePath(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if strings.Contains(s, "://") {
		return fmt.Errorf("enter a path, not a URL")
	}
	if strings.ContainsAny(s, " \t") {
		return fmt.Errorf("path must not contain spaces")
	}
	return nil
}

func validatePageSize(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("page size must be a number")
	}
	if n < 1 || n > maxPageSize {
		return fmt.Errorf("page size must be between 1 and %d", maxPageSize)
	}
	return nil
}

func (sf *settingsForm) Init() tea.Cmd {
	return sf.form.Init()
}

// Update forwards msg to the form. Esc cancels.
func (sf *settingsForm) Update(msg tea.Msg) tea.Cmd {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "esc" {
		sf.cancelled = true
		sf.completed = true
		return nil
	}

	form, cmd := sf.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		sf.form = f
	}

	switch sf.form.State {
	case huh.StateCompleted:
		sf.completed = true
		return nil
	case huh.StateAborted:
		sf.completed = true
		sf.cancelled = true
		return nil
	}
	return cmd
}

func (sf *settingsForm) View() string {
	return sf.form.View()
}

// settings returns the edited values, normalized.
func (sf *settingsForm) settings() (models.EndpointSettings, error) {
	for _, p := range []string{sf.subscriptionPath, sf.usagePath, sf.logsPath} {
		if err := validatePath(p); err != nil {
			return models.EndpointSettings{}, err
		}
	}
	if err := validatePageSize(sf.pageSize); err != nil {
		return models.EndpointSettings{}, err
	}

	size, _ := strconv.Atoi(strings.TrimSpace(sf.pageSize))
	return models.EndpointSettings{
		SubscriptionPath: sf.subscriptionPath,
		UsagePath:        sf.usagePath,
		LogsPath:         sf.logsPath,
		LogsPageSize:     size,
	}.Normalize(), nil
}

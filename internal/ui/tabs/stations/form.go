package stations

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/j-veylop/relaywatch-tui/internal/models"
)

// stationForm edits one station profile. A nil original means a new station.
type stationForm struct {
	form      *huh.Form
	original  *models.Station
	values    models.Station
	taken     func(name, exceptID string) bool
	completed bool
	cancelled bool
}

func newStationForm(original *models.Station, taken func(name, exceptID string) bool) *stationForm {
	sf := &stationForm{original: original, taken: taken}
	if original != nil {
		sf.values = original.Clone()
	}

	title := "Add station"
	keyDesc := "Sent as Bearer token"
	if original != nil {
		title = fmt.Sprintf("Edit %s", original.Name)
		keyDesc = fmt.Sprintf("Current: %s", original.MaskedKey())
	}

	sf.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Description(title).
				Value(&sf.values.Name).
				Placeholder("my-relay").
				Validate(sf.validateName),
			huh.NewInput().
				Title("Base URL").
				Value(&sf.values.BaseURL).
				Placeholder("https://api.example.com").
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return models.ErrBaseURLRequired
					}
					return models.ValidateHTTPURL(s)
				}),
			huh.NewInput().
				Title("API key").
				Description(keyDesc).
				Value(&sf.values.APIKey).
				EchoMode(huh.EchoModePassword).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return models.ErrAPIKeyRequired
					}
					return nil
				}),
			huh.NewInput().
				Title("Proxy URL").
				Description("Optional, used for log queries").
				Value(&sf.values.ProxyURL).
				Placeholder("https://proxy.example.com").
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}
					return models.ValidateHTTPURL(s)
				}),
		),
	).WithShowHelp(true)

	return sf
}

func (sf *stationForm) validateName(s string) error {
	name := strings.TrimSpace(s)
	if name == "" {
		return models.ErrStationNameRequired
	}
	exceptID := ""
	if sf.original != nil {
		exceptID = sf.original.ID
	}
	if sf.taken != nil && sf.taken(name, exceptID) {
		return fmt.Errorf("station %s already exists", name)
	}
	return nil
}

func (sf *stationForm) Init() tea.Cmd {
	return sf.form.Init()
}

// Update forwards msg to the form. Esc cancels.
func (sf *stationForm) Update(msg tea.Msg) tea.Cmd {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "esc" {
		sf.cancelled = true
		sf.completed = true
		return nil
	}

	form, cmd := sf.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		sf.form = f
	}

	if sf.form.State == huh.StateCompleted {
		sf.completed = true
		return nil
	}
	if sf.form.State == huh.StateAborted {
		sf.cancelled = true
		sf.completed = true
		return nil
	}
	return cmd
}

func (sf *stationForm) View() string {
	return sf.form.View()
}

func (sf *stationForm) isNew() bool {
	return sf.original == nil
}

// station returns the edited station, trimmed and validated.
func (sf *stationForm) station() (models.Station, error) {
	st := sf.values
	st.Name = strings.TrimSpace(st.Name)
	st.BaseURL = strings.TrimRight(strings.TrimSpace(st.BaseURL), "/")
	st.APIKey = strings.TrimSpace(st.APIKey)
	st.ProxyURL = strings.TrimSpace(st.ProxyURL)

	if err := st.Validate(); err != nil {
		return st, err
	}
	if err := sf.validateName(st.Name); err != nil {
		return st, err
	}
	return st, nil
}

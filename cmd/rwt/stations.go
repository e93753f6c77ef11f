package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/j-veylop/relaywatch-tui/internal/config"
	"github.com/j-veylop/relaywatch-tui/internal/db"
	"github.com/j-veylop/relaywatch-tui/internal/logger"
	"github.com/j-veylop/relaywatch-tui/internal/models"
	stationsvc "github.com/j-veylop/relaywatch-tui/internal/services/stations"
	"github.com/j-veylop/relaywatch-tui/internal/ui/styles"
)

func newStationsCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "stations",
		Aliases: []string{"station"},
		Short:   "Manage saved relay stations",
	}

	cmd.AddCommand(
		newStationsListCmd(root),
		newStationsAddCmd(root),
		newStationsRemoveCmd(root),
		newStationsUseCmd(root),
	)
	return cmd
}

// withStations opens the stations file for the duration of fn.
func withStations(root *rootOptions, fn func(cfg *config.Config, svc *stationsvc.Service) error) error {
	cfg, closer, err := setup(root)
	if err != nil {
		return err
	}
	defer closer.Close()

	svc, err := stationsvc.New(cfg.StationsPath)
	if err != nil {
		return err
	}
	defer svc.Close()

	return fn(cfg, svc)
}

func newStationsListCmd(root *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved stations",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStations(root, func(_ *config.Config, svc *stationsvc.Service) error {
				return printStations(cmd.OutOrStdout(), svc.GetStations(), svc.GetActiveStationID(), asJSON)
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON with masked keys")
	return cmd
}

func printStations(out io.Writer, list []models.Station, activeID string, asJSON bool) error {
	if asJSON {
		type row struct {
			ID       string `json:"id"`
			Name     string `json:"name"`
			BaseURL  string `json:"baseUrl"`
			APIKey   string `json:"apiKey"`
			ProxyURL string `json:"proxyUrl,omitempty"`
			Active   bool   `json:"active"`
		}
		rows := make([]row, 0, len(list))
		for _, st := range list {
			rows = append(rows, row{st.ID, st.Name, st.BaseURL, st.MaskedKey(), st.ProxyURL, st.ID == activeID})
		}
		writeJSON(out, rows)
		return nil
	}

	if len(list) == 0 {
		fmt.Fprintln(out, "No stations configured. Add one with: rwt stations add NAME --base-url URL --key KEY")
		return nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(styles.Subtle)).
		Headers("", "NAME", "BASE URL", "KEY", "PROXY")
	for _, st := range list {
		marker := ""
		if st.ID == activeID {
			marker = "*"
		}
		proxy := st.ProxyURL
		if proxy == "" {
			proxy = "-"
		}
		t.Row(marker, st.Name, st.BaseURL, st.MaskedKey(), proxy)
	}

	fmt.Fprintln(out, t.Render())
	return nil
}

func newStationsAddCmd(root *rootOptions) *cobra.Command {
	var (
		st       models.Station
		activate bool
	)

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Save a relay station",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st.Name = args[0]
			return withStations(root, func(_ *config.Config, svc *stationsvc.Service) error {
				added, err := svc.AddStation(st)
				if err != nil {
					return fmt.Errorf("failed to add station: %w", err)
				}
				if activate {
					if err := svc.SetActiveStation(added.ID); err != nil {
						return err
					}
				}
				logger.Info("station added", "name", added.Name, "id", added.ID)

				suffix := ""
				if svc.GetActiveStationID() == added.ID {
					suffix = " (active)"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added station %s%s\n", added.Name, suffix)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&st.BaseURL, "base-url", "", "Relay base URL (required)")
	cmd.Flags().StringVarP(&st.APIKey, "key", "k", "", "API key (required)")
	cmd.Flags().StringVar(&st.ProxyURL, "proxy", "", "Forwarding proxy for log queries")
	cmd.Flags().BoolVar(&activate, "activate", false, "Make this the active station")
	_ = cmd.MarkFlagRequired("base-url")
	_ = cmd.MarkFlagRequired("key")

	return cmd
}

func newStationsRemoveCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "remove NAME",
		Aliases: []string{"rm"},
		Short:   "Delete a saved station and its endpoint settings",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStations(root, func(cfg *config.Config, svc *stationsvc.Service) error {
				st := svc.GetStation(args[0])
				if st == nil {
					return fmt.Errorf("%w: %s", stationsvc.ErrNotFound, args[0])
				}
				id, name := st.ID, st.Name

				if err := svc.DeleteStation(id); err != nil {
					return err
				}

				database, err := db.New(cfg.DatabasePath)
				if err != nil {
					return fmt.Errorf("failed to open database: %w", err)
				}
				defer database.Close()
				if err := database.DeleteEndpointSettings(id); err != nil {
					logger.Warn("failed to delete endpoint settings", "station", id, "error", err)
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Removed station %s\n", name)
				return nil
			})
		},
	}
}

func newStationsUseCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "use NAME",
		Short: "Make a saved station the active one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStations(root, func(_ *config.Config, svc *stationsvc.Service) error {
				if err := svc.SetActiveStation(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Active station: %s\n", svc.GetActiveStation().Name)
				return nil
			})
		},
	}
}

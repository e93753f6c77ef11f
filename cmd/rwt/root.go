package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/j-veylop/relaywatch-tui/internal/app"
	"github.com/j-veylop/relaywatch-tui/internal/config"
	"github.com/j-veylop/relaywatch-tui/internal/logger"
	"github.com/j-veylop/relaywatch-tui/internal/relay"
	"github.com/j-veylop/relaywatch-tui/internal/services"
	"github.com/j-veylop/relaywatch-tui/internal/services/balance"
	"github.com/j-veylop/relaywatch-tui/internal/ui/tabs/balances"
	"github.com/j-veylop/relaywatch-tui/internal/ui/tabs/info"
	"github.com/j-veylop/relaywatch-tui/internal/ui/tabs/logs"
	"github.com/j-veylop/relaywatch-tui/internal/ui/tabs/settings"
	"github.com/j-veylop/relaywatch-tui/internal/ui/tabs/stations"
	"github.com/j-veylop/relaywatch-tui/internal/version"
)

// Replaced in tests.
var (
	loadConfig = config.Load
	newQuerier = func() balance.Querier { return relay.DefaultClient() }
)

type rootOptions struct {
	debug bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "rwt",
		Short: "Relay station balance and call log monitor",
		Long: `rwt tracks the balance and call logs of OpenAI-compatible relay stations.

Run without arguments to open the dashboard. The subcommands query a station
once and print the result as JSON.

Examples:
  rwt                                        # Open the dashboard
  rwt stations add work --base-url https://api.example.com --key sk-...
  rwt balance                                # Query the active station
  rwt balance --base-url https://api.example.com --key sk-...
  rwt logs --station work --page 2 --order asc`,
		Version:       version.GetVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(opts)
		},
	}

	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	cmd.AddCommand(
		newBalanceCmd(opts),
		newLogsCmd(opts),
		newStationsCmd(opts),
		newVersionCmd(),
	)

	return cmd
}

// setup loads configuration and starts file logging.
func setup(opts *rootOptions) (*config.Config, io.Closer, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if opts.debug {
		cfg.LogLevel = slog.LevelDebug
	}

	closer, err := logger.Setup(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	return cfg, closer, nil
}

// runTUI contains the dashboard startup, separated for cleaner error handling.
func runTUI(opts *rootOptions) error {
	cfg, logCloser, err := setup(opts)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	logger.Info("starting dashboard", "version", version.GetVersion(), "stations", cfg.StationsPath)

	svcManager, err := services.NewManager(cfg, services.WithQuerier(newQuerier()))
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer func() {
		if closeErr := svcManager.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: error closing services: %v\n", closeErr)
		}
	}()

	model := app.NewModel(svcManager)

	state := model.GetState()
	model.SetTabs([]app.Tab{
		balances.New(state, cfg.LowBalanceThreshold),
		logs.New(state),
		stations.New(state),
		settings.New(state),
		info.New(state, cfg),
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	go func() {
		<-sigChan
		p.Send(tea.Quit())
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Info())
		},
	}
}

package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/j-veylop/relaywatch-tui/internal/config"
	"github.com/j-veylop/relaywatch-tui/internal/db"
	"github.com/j-veylop/relaywatch-tui/internal/logger"
	"github.com/j-veylop/relaywatch-tui/internal/models"
	"github.com/j-veylop/relaywatch-tui/internal/relay"
	stationsvc "github.com/j-veylop/relaywatch-tui/internal/services/stations"
)

var (
	errQueryFailed  = errors.New("query failed")
	errNoStation    = errors.New("no station configured; add one with 'rwt stations add' or pass --base-url and --key")
	errPartialAdHoc = errors.New("--base-url and --key must be given together")
	errNotPositive  = errors.New("must be positive")
)

// targetFlags select the station a query runs against.
type targetFlags struct {
	station string
	baseURL string
	apiKey  string
}

func (f *targetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.station, "station", "s", "", "Saved station name or ID (default: active station)")
	cmd.Flags().StringVar(&f.baseURL, "base-url", "", "Relay base URL for a one-off query")
	cmd.Flags().StringVarP(&f.apiKey, "key", "k", "", "API key for a one-off query")
}

func (f *targetFlags) adHoc() (bool, error) {
	hasURL := strings.TrimSpace(f.baseURL) != ""
	hasKey := strings.TrimSpace(f.apiKey) != ""
	if hasURL != hasKey {
		return false, errPartialAdHoc
	}
	return hasURL, nil
}

// target is a resolved station plus the endpoint settings in effect for it.
type target struct {
	station  models.Station
	settings models.EndpointSettings
}

// resolveTarget returns the ad-hoc station from the flags, or a saved station
// with its stored endpoint settings.
func resolveTarget(cfg *config.Config, f *targetFlags) (target, error) {
	adHoc, err := f.adHoc()
	if err != nil {
		return target{}, err
	}
	if adHoc {
		if f.station != "" {
			return target{}, errors.New("--station cannot be combined with --base-url/--key")
		}
		st := models.Station{Name: "ad-hoc", BaseURL: f.baseURL, APIKey: f.apiKey}
		return target{station: st, settings: models.DefaultEndpointSettings()}, nil
	}

	svc, err := stationsvc.New(cfg.StationsPath)
	if err != nil {
		return target{}, err
	}
	defer svc.Close()

	var st *models.Station
	if f.station != "" {
		st = svc.GetStation(f.station)
		if st == nil {
			return target{}, fmt.Errorf("%w: %s", stationsvc.ErrNotFound, f.station)
		}
	} else if st = svc.GetActiveStation(); st == nil {
		return target{}, errNoStation
	}

	database, err := db.New(cfg.DatabasePath)
	if err != nil {
		return target{}, fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	settings, err := database.GetEndpointSettings(st.ID)
	if err != nil {
		return target{}, err
	}
	return target{station: *st, settings: settings}, nil
}

func writeJSON(w io.Writer, v any) {
	fmt.Fprintln(w, relay.PrettyJSON(v))
}

type balanceOptions struct {
	target           targetFlags
	subscriptionPath string
	usagePath        string
}

func newBalanceCmd(root *rootOptions) *cobra.Command {
	opts := &balanceOptions{}

	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Query a station's balance and print it as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, closer, err := setup(root)
			if err != nil {
				return err
			}
			defer closer.Close()

			return runBalance(cmd.OutOrStdout(), cfg, opts)
		},
	}

	opts.target.register(cmd)
	cmd.Flags().StringVar(&opts.subscriptionPath, "subscription-path", "", "Override the subscription endpoint path")
	cmd.Flags().StringVar(&opts.usagePath, "usage-path", "", "Override the usage endpoint path")

	return cmd
}

func runBalance(out io.Writer, cfg *config.Config, opts *balanceOptions) error {
	t, err := resolveTarget(cfg, &opts.target)
	if err != nil {
		return err
	}

	paths := t.settings.BalancePaths()
	if opts.subscriptionPath != "" {
		paths.Subscription = opts.subscriptionPath
	}
	if opts.usagePath != "" {
		paths.Usage = opts.usagePath
	}

	logger.Debug("querying balance", "station", t.station.Name, "subscription", paths.Subscription, "usage", paths.Usage)
	res := newQuerier().QueryBalance(t.station.Credentials(), paths)
	writeJSON(out, res)

	if res.Failed() {
		logger.Warn("balance query failed", "station", t.station.Name, "error", res.Error)
		return fmt.Errorf("%w: %s", errQueryFailed, res.Error)
	}
	return nil
}

type logsOptions struct {
	target   targetFlags
	order    string
	path     string
	proxy    string
	pageSize int
	page     int
}

func newLogsCmd(root *rootOptions) *cobra.Command {
	opts := &logsOptions{}

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Fetch a page of call logs and print it as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.page < 1 {
				return fmt.Errorf("--page %w", errNotPositive)
			}
			if opts.pageSize < 0 {
				return fmt.Errorf("--page-size %w", errNotPositive)
			}
			if opts.order != "asc" && opts.order != "desc" {
				return fmt.Errorf("--order must be asc or desc, got %q", opts.order)
			}

			cfg, closer, err := setup(root)
			if err != nil {
				return err
			}
			defer closer.Close()

			return runLogs(cmd.OutOrStdout(), cfg, opts)
		},
	}

	opts.target.register(cmd)
	cmd.Flags().IntVar(&opts.pageSize, "page-size", 0, "Entries per page (default: station setting)")
	cmd.Flags().IntVarP(&opts.page, "page", "p", 1, "Page number, starting at 1")
	cmd.Flags().StringVar(&opts.order, "order", relay.DefaultOrder, "Requested order: asc or desc")
	cmd.Flags().StringVar(&opts.path, "path", "", "Override the logs endpoint path")
	cmd.Flags().StringVar(&opts.proxy, "proxy", "", "Forwarding proxy for the request")

	return cmd
}

func runLogs(out io.Writer, cfg *config.Config, opts *logsOptions) error {
	t, err := resolveTarget(cfg, &opts.target)
	if err != nil {
		return err
	}

	q := relay.LogQuery{
		APIKey:     t.station.APIKey,
		BaseURL:    t.station.BaseURL,
		PageSize:   t.settings.LogsPageSize,
		Page:       opts.page,
		Order:      opts.order,
		CustomPath: t.settings.LogsPath,
		ProxyURL:   firstNonEmpty(opts.proxy, t.station.ProxyURL, cfg.DefaultProxyURL),
	}
	if opts.pageSize > 0 {
		q.PageSize = opts.pageSize
	}
	if opts.path != "" {
		q.CustomPath = opts.path
	}

	logger.Debug("fetching logs", "station", t.station.Name, "page", q.Page, "path", q.CustomPath)
	res := newQuerier().QueryLogs(q)
	writeJSON(out, res)

	if res.Failed() {
		logger.Warn("log fetch failed", "station", t.station.Name, "error", relay.Redact(res.Error, q.APIKey))
		return fmt.Errorf("%w: %s", errQueryFailed, res.Error)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

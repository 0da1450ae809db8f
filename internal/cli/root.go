package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/pool-watch/internal/config"
	"github.com/ogulcanaydogan/pool-watch/pkg/chains"
	"github.com/ogulcanaydogan/pool-watch/pkg/cooldown"
	"github.com/ogulcanaydogan/pool-watch/pkg/notify"
	"github.com/ogulcanaydogan/pool-watch/pkg/runner"
	"github.com/ogulcanaydogan/pool-watch/pkg/state"
	"github.com/ogulcanaydogan/pool-watch/pkg/storage"
	"github.com/ogulcanaydogan/pool-watch/pkg/upstream"
)

// Version is set at build time via ldflags.
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "poolwatch",
	Short: "Pool Watch - liquidity pool alerts for chat webhooks",
	Long: `Pool Watch polls a liquidity-pool analytics API, keeps the pools that clear
the configured APR, fee and volume thresholds, and posts them to a chat webhook.
A pool is not reported again until its cooldown expires or its volume grows
past the configured ratio.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./poolwatch.yaml or ~/.poolwatch/poolwatch.yaml)")
}

// loadConfig loads the configuration.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

// newLogger creates a structured logger from config.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler)
}

// initChains builds the chain registry, merging the optional file.
func initChains(cfg *config.Config) (*chains.Registry, error) {
	registry := chains.NewRegistry()
	if cfg.Chains.File != "" {
		if err := registry.LoadFile(cfg.Chains.File); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// initState opens and loads the notified-pool state.
func initState(cfg *config.Config, logger *slog.Logger) (*state.Store, error) {
	st, err := state.New(cfg.Storage.StatePath, logger)
	if err != nil {
		return nil, err
	}
	if err := st.Load(); err != nil {
		return nil, err
	}
	return st, nil
}

// initHistory opens the history database, or returns nil when disabled.
func initHistory(cfg *config.Config) (storage.Storage, error) {
	if cfg.Storage.HistoryPath == "" {
		return nil, nil
	}
	db, err := storage.NewSQLite(cfg.Storage.HistoryPath)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// errNoHistory is returned by read-only commands before any cycle has run.
var errNoHistory = errors.New("no history recorded yet")

// openHistory opens an existing history database without creating one.
func openHistory(path string) (storage.Storage, error) {
	if path == "" {
		return nil, errors.New("history is disabled (storage.history_path is empty)")
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", errNoHistory, path)
		}
		return nil, fmt.Errorf("stat history: %w", err)
	}
	db, err := storage.NewSQLite(path)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// app is a fully wired poll runner and the resources it owns.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *state.Store
	history  storage.Storage
	registry *prometheus.Registry
	runner   *runner.Runner
}

func (a *app) Close() {
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			a.logger.Error("close history", "error", err)
		}
	}
}

// initApp wires config into a runner.
func initApp(cfg *config.Config) (*app, error) {
	logger := newLogger(cfg)

	registry, err := initChains(cfg)
	if err != nil {
		return nil, err
	}

	formatter, err := notify.NewFormatter(cfg.Notify.Format, registry)
	if err != nil {
		return nil, err
	}
	notifier := notify.NewWebhookNotifier(cfg.Notify.WebhookURL, cfg.Notify.Secret, formatter, logger)

	store, err := initState(cfg, logger)
	if err != nil {
		return nil, err
	}

	history, err := initHistory(cfg)
	if err != nil {
		return nil, fmt.Errorf("init history: %w", err)
	}

	client := upstream.NewClient(upstream.Options{
		BaseURL:   cfg.API.BaseURL,
		ChainIDs:  cfg.API.ChainIDs,
		PageCount: cfg.API.PageCount,
		PageSize:  cfg.API.PageSize,
		PageDelay: cfg.API.PageDelay,
		Timeout:   cfg.API.Timeout,
	}, logger)

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	opts := []runner.Option{runner.WithMetrics(runner.NewMetrics(promRegistry))}
	if history != nil {
		opts = append(opts, runner.WithHistory(history))
	}

	r := runner.New(
		client,
		notifier,
		store,
		cooldown.New(cfg.Cooldown(), cfg.Notify.GrowthRatio),
		cfg.ModelThresholds(),
		logger,
		opts...,
	)

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		history:  history,
		registry: promRegistry,
		runner:   r,
	}, nil
}

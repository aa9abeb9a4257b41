package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sky-flux/vocab"
	"github.com/sky-flux/vocab/internal/config"
	"github.com/sky-flux/vocab/internal/study"
	"github.com/sky-flux/vocab/store"
	"github.com/sky-flux/vocab/store/memstore"
	"github.com/sky-flux/vocab/store/sqlite"
)

var (
	// Global flags
	cfgFile  string
	output   string
	logLevel string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "vocabd",
	Short: "Spaced-repetition vocabulary server",
	Long: `vocabd keeps a vocabulary catalog and schedules each word for review
when its predicted recall drops.

Serve:
  serve      Run the HTTP API and the due-word reminder

Catalog:
  add        Add a word
  list       List words
  rename     Change a word's term or meaning
  delete     Delete a word
  import     Import words from YAML
  export     Export words to YAML

Study:
  due        Show the words due now
  review     Record an answer
  reschedule Rebuild a word's state from its history
  stats      Show catalog totals
  optimize   Fit model weights to the review history

Setup:
  config     Write or show the config file`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ./"+config.DefaultPath+" if present)")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log.level")
}

// app bundles what a command needs to talk to the catalog.
type app struct {
	cfg   *config.Config
	log   *slog.Logger
	store store.Store
	svc   *study.Service
}

// loadConfig loads the config file and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// newLogger builds the slog handler named by the log config.
func newLogger(w io.Writer, cfg *config.Config) (*slog.Logger, error) {
	level, err := cfg.LogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	switch cfg.Log.Format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Log.Format)
	}
}

// openStore opens the configured backend.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Driver {
	case "memory":
		return memstore.New(), nil
	case "sqlite":
		return sqlite.Open(ctx, cfg.Store.Path)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// openApp loads config and opens the store. Callers must Close the app.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return newApp(ctx, cfg, os.Stderr)
}

func newApp(ctx context.Context, cfg *config.Config, logw io.Writer) (*app, error) {
	log, err := newLogger(logw, cfg)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(log)

	sc, err := cfg.SchedulerConfig()
	if err != nil {
		return nil, err
	}
	sched, err := vocab.NewScheduler(sc)
	if err != nil {
		return nil, err
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	log.Debug("store opened", "driver", cfg.Store.Driver, "path", cfg.Store.Path)

	return &app{
		cfg:   cfg,
		log:   log,
		store: st,
		svc:   study.New(st, sched, study.WithLogger(log)),
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// withApp opens the app for the duration of fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck
	return fn(ctx, a)
}

// Package config loads vocabd configuration from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"github.com/sky-flux/vocab"
)

// DefaultPath is read when no explicit path is given and the file exists.
const DefaultPath = "vocab.yaml"

// EnvPrefix prefixes environment overrides: VOCAB_STORE_PATH sets store.path.
const EnvPrefix = "VOCAB"

// Load reads configuration from path (or DefaultPath when path is empty and
// the file exists), applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		if _, err := os.Stat(DefaultPath); err == nil {
			path = DefaultPath
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports configuration errors.
func (c *Config) Validate() error {
	var errs []error

	for _, o := range c.Server.CORSOrigins {
		if o != "*" && !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			errs = append(errs, fmt.Errorf("server.cors_origins: %q must be \"*\" or start with http:// or https://", o))
		}
	}

	switch c.Store.Driver {
	case "sqlite":
		if c.Store.Path == "" {
			errs = append(errs, errors.New("store.path is required for the sqlite driver"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("unknown store.driver %q", c.Store.Driver))
	}

	if _, err := c.SchedulerConfig(); err != nil {
		errs = append(errs, err)
	}

	if c.Reminder.Schedule != "" {
		if _, err := cron.ParseStandard(c.Reminder.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("reminder.schedule: %w", err))
		}
	}

	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log.format %q", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// SchedulerConfig converts the scheduler section into a vocab.SchedulerConfig
// and checks it by building a scheduler.
func (c *Config) SchedulerConfig() (vocab.SchedulerConfig, error) {
	sc := vocab.SchedulerConfig{
		GraceWindow:     c.Scheduler.GraceWindow,
		DefaultLimit:    c.Scheduler.DefaultLimit,
		MaximumInterval: c.Scheduler.MaximumInterval,
	}
	switch len(c.Scheduler.Parameters) {
	case 0:
	case vocab.NumParameters:
		copy(sc.Parameters[:], c.Scheduler.Parameters)
	default:
		return sc, fmt.Errorf("scheduler.parameters: want %d values, got %d",
			vocab.NumParameters, len(c.Scheduler.Parameters))
	}
	if _, err := vocab.NewScheduler(sc); err != nil {
		return sc, fmt.Errorf("scheduler: %w", err)
	}
	return sc, nil
}

// LogLevel parses log.level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return level, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

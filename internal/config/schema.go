package config

import "time"

// Config is the full vocabd configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Store     StoreConfig     `mapstructure:"store" yaml:"store"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" yaml:"scheduler"`
	Reminder  ReminderConfig  `mapstructure:"reminder" yaml:"reminder"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`

	// CORSOrigins lists origins allowed to call the API from a browser.
	// "*" allows any origin; empty disables CORS.
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver"` // "sqlite" or "memory"
	Path   string `mapstructure:"path" yaml:"path"`     // sqlite database file
}

// SchedulerConfig tunes review scheduling.
type SchedulerConfig struct {
	GraceWindow     time.Duration `mapstructure:"grace_window" yaml:"grace_window"`
	DefaultLimit    int           `mapstructure:"default_limit" yaml:"default_limit"`
	MaximumInterval int           `mapstructure:"maximum_interval" yaml:"maximum_interval"` // days

	// Parameters optionally replaces the default model weights, usually
	// with the output of `vocabd optimize`. Empty means defaults.
	Parameters []float64 `mapstructure:"parameters" yaml:"parameters"`
}

// ReminderConfig configures the due-word reminder. An empty schedule disables it.
type ReminderConfig struct {
	Schedule string `mapstructure:"schedule" yaml:"schedule"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format"` // text or json
}

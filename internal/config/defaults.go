package config

import (
	"os"

	"github.com/spf13/viper"
)

// setDefaults registers every key so that env overrides apply to all of them.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":3001")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "vocab.db")
	v.SetDefault("scheduler.grace_window", "5m")
	v.SetDefault("scheduler.default_limit", 10)
	v.SetDefault("scheduler.maximum_interval", 365)
	v.SetDefault("scheduler.parameters", []float64{})
	v.SetDefault("reminder.schedule", "@every 1m")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Default returns the built-in configuration.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		panic(err) // defaults are static
	}
	return cfg
}

const defaultYAML = `# vocabd configuration
# Every key can be overridden from the environment, e.g. VOCAB_SERVER_ADDR.

server:
  addr: ":3001"
  cors_origins: ["*"]   # browser origins allowed to call the API; [] disables

store:
  driver: sqlite   # "sqlite" or "memory"
  path: vocab.db

scheduler:
  grace_window: 5m        # how early a word becomes due
  default_limit: 10       # due-set size when no limit is given
  maximum_interval: 365   # days
  # parameters: []        # 8 model weights from "vocabd optimize"

reminder:
  schedule: "@every 1m"   # cron spec; empty disables

log:
  level: info   # debug, info, warn, error
  format: text  # text or json
`

// WriteDefault writes a commented default configuration file.
func WriteDefault(path string) error {
	return os.WriteFile(path, []byte(defaultYAML), 0o644)
}

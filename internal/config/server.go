package config

import "github.com/caarlos0/env/v11"

type ServerConfig struct {
	// PostgresDSN empty runs the server on the in-memory store. Handy
	// for local play; production sets it.
	PostgresDSN  string `env:"POSTGRES_DSN"`
	HTTPAddr     string `env:"HTTP_ADDR" envDefault:":8080"`
	EnsureSchema bool   `env:"ENSURE_SCHEMA" envDefault:"true"`

	// Webhook push of room events. Targets come from a JSON file
	// (reloaded on change) or inline JSON.
	PushEnabled        bool   `env:"PUSH_ENABLED" envDefault:"false"`
	PushConfigPath     string `env:"PUSH_CONFIG_PATH"`
	PushConfigJSON     string `env:"PUSH_CONFIG_JSON"`
	PushWorkers        int    `env:"PUSH_WORKERS" envDefault:"2"`
	PushRetryMax       int    `env:"PUSH_RETRY_MAX" envDefault:"2"`
	PushRetryBaseMS    int    `env:"PUSH_RETRY_BASE_MS" envDefault:"500"`
	PushConfigReloadMS int    `env:"PUSH_CONFIG_RELOAD_MS" envDefault:"1000"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}

package config

import "github.com/caarlos0/env/v11"

// LogConfig controls the global zerolog setup. With File unset all
// output goes to stdout; MaxMB caps the log file size.
type LogConfig struct {
	Level       string `env:"LOG_LEVEL" envDefault:"info"`
	Pretty      bool   `env:"LOG_PRETTY" envDefault:"false"`
	SampleEvery int    `env:"LOG_SAMPLE_EVERY" envDefault:"0"`
	File        string `env:"LOG_FILE"`
	MaxMB       int    `env:"LOG_MAX_MB" envDefault:"10"`
}

func LoadLog() (LogConfig, error) {
	return env.ParseAs[LogConfig]()
}

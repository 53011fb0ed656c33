package config

import "github.com/caarlos0/env/v11"

// TestConfig carries opt-in settings for integration tests. The DSN is
// required so the parse error doubles as the skip signal.
type TestConfig struct {
	TestPostgresDSN string `env:"TEST_POSTGRES_DSN,required,notEmpty"`
}

func LoadTest() (TestConfig, error) {
	return env.ParseAs[TestConfig]()
}

package config

// AppConfig bundles everything the server process reads from the
// environment at startup.
type AppConfig struct {
	Server ServerConfig
	Log    LogConfig
}

// LoadApp parses the full server configuration. Unset variables fall
// back to their defaults; a malformed value aborts startup.
func LoadApp() (AppConfig, error) {
	var app AppConfig
	var err error
	if app.Server, err = LoadServer(); err != nil {
		return AppConfig{}, err
	}
	if app.Log, err = LoadLog(); err != nil {
		return AppConfig{}, err
	}
	return app, nil
}

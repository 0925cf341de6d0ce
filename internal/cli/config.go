package cli

import "cogload/internal/config"

// loadConfig applies the --config/--data-dir persistent flags on top of
// config.Load's normal file+env merge.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	return cfg, nil
}

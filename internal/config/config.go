// internal/config/config.go
package config

import (
	"encoding/json"
	"os"
)

type Config struct {
	LogLevel string `json:"log_level"` // debug, info, warn, error

	Archive struct {
		Level int `json:"level"` // zstd level (1=fastest, 3=best)
	} `json:"archive"`

	Watch struct {
		DebounceMillis int `json:"debounce_millis"`
	} `json:"watch"`
}

func Default() *Config {
	cfg := &Config{LogLevel: "info"}
	cfg.Archive.Level = 2
	cfg.Watch.DebounceMillis = 250
	return cfg
}

// Load reads the repository config file. A missing file is not an
// error; defaults apply.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	defer file.Close()

	config := Default()
	if err := json.NewDecoder(file).Decode(config); err != nil {
		return nil, err
	}

	return config, nil
}

// Save writes the config file, used when a repository is initialized.
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

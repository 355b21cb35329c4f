package modeling

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// LoadConfig reads a TOML service configuration. Sections left out keep the
// vehicle preset defaults, so a minimal file can override just the training
// settings or the corpus path.
func LoadConfig(path string) (ServiceConfig, error) {
	config := DefaultServiceConfig()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return ServiceConfig{}, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &config); err != nil {
		return ServiceConfig{}, fmt.Errorf("parse config %q: %w", path, err)
	}
	return config, nil
}

// SaveConfig writes a service configuration as TOML, used to scaffold a
// config file from the preset.
func SaveConfig(path string, config ServiceConfig) error {
	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

package detail

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the YAML-loadable tuning surface of the report composer.
type Config struct {
	Map MapConfig `yaml:"map"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{Map: DefaultMapConfig()}
}

// LoadConfig reads a YAML config file on top of the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "unable to read config file")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "unable to parse config file")
	}

	return cfg, nil
}

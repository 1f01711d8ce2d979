package config

import (
	"os"

	"gopkg.in/yaml.v3"

	opalerrors "github.com/opalmirror/opal/pkg/errors"
)

// ParseConfig loads a configuration file from disk, expands ${VAR} references
// against the environment, validates the result, and applies defaults.
// Credentials are usually supplied through the environment rather than
// written into the file.
func ParseConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, opalerrors.NewParseError(path, err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, opalerrors.NewParseError(path, err)
	}

	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

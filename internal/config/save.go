package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/blocks/pkg/blocks"
)

// Save writes the config to the user's config directory.
func (c *Config) Save() error {
	return c.SaveTo(filepath.Join(ConfigDir(), "config.yaml"))
}

// SaveTo writes the config to a specific path. An existing file is only
// replaced once the new one is fully written.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return blocks.WriteFileAtomic(path, data, 0644)
}

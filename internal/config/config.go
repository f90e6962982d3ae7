// Package config handles blockstool configuration loading and management.
package config

import (
	"fmt"

	"github.com/Faultbox/blocks/pkg/blocks"
)

// Config holds all blockstool settings.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Output  SaveConfig    `yaml:"save"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// SaveConfig holds the defaults used when writing containers.
type SaveConfig struct {
	CreatorName   string  `yaml:"creator_name"`
	FormatVersion string  `yaml:"format_version"`
	ZoomFactor    float32 `yaml:"zoom_factor"`
	Compression   string  `yaml:"compression"` // none, lz4 or zstd
	ExtraCapacity int     `yaml:"extra_capacity"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
		Output: SaveConfig{
			CreatorName:   "blockstool",
			FormatVersion: blocks.DefaultVersion,
			ZoomFactor:    blocks.DefaultZoomFactor,
			Compression:   blocks.CodecNone.String(),
			ExtraCapacity: 0,
		},
	}
}

// SaveOptions converts the save section into encoder options.
func (c *Config) SaveOptions() (blocks.Options, error) {
	codec, err := blocks.ParseCodec(c.Output.Compression)
	if err != nil {
		return blocks.Options{}, fmt.Errorf("save.compression: %w", err)
	}
	if c.Output.ExtraCapacity < 0 {
		return blocks.Options{}, fmt.Errorf("save.extra_capacity: must not be negative, got %d", c.Output.ExtraCapacity)
	}
	if c.Output.ZoomFactor < 0 {
		return blocks.Options{}, fmt.Errorf("save.zoom_factor: must not be negative, got %v", c.Output.ZoomFactor)
	}
	return blocks.Options{
		CreatorName:   c.Output.CreatorName,
		Version:       c.Output.FormatVersion,
		ZoomFactor:    c.Output.ZoomFactor,
		Compression:   codec,
		ExtraCapacity: c.Output.ExtraCapacity,
	}, nil
}

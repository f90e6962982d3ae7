package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/blocks/pkg/blocks"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}
	if cfg.Output.CreatorName != "blockstool" {
		t.Errorf("expected creator 'blockstool', got %s", cfg.Output.CreatorName)
	}
	if cfg.Output.FormatVersion != blocks.DefaultVersion {
		t.Errorf("expected version %s, got %s", blocks.DefaultVersion, cfg.Output.FormatVersion)
	}
	if cfg.Output.ZoomFactor != 1 {
		t.Errorf("expected zoom factor 1, got %v", cfg.Output.ZoomFactor)
	}
	if cfg.Output.Compression != "none" {
		t.Errorf("expected compression 'none', got %s", cfg.Output.Compression)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
logging:
  level: "debug"
  log_file: "blocks.log"

save:
  creator_name: "Sculptor"
  format_version: "2.1"
  zoom_factor: 2.5
  compression: "zstd"
  extra_capacity: 4096
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "blocks.log" {
		t.Errorf("expected log file 'blocks.log', got %s", cfg.Logging.LogFile)
	}
	if cfg.Output.CreatorName != "Sculptor" {
		t.Errorf("expected creator 'Sculptor', got %s", cfg.Output.CreatorName)
	}
	if cfg.Output.FormatVersion != "2.1" {
		t.Errorf("expected version '2.1', got %s", cfg.Output.FormatVersion)
	}
	if cfg.Output.ZoomFactor != 2.5 {
		t.Errorf("expected zoom factor 2.5, got %v", cfg.Output.ZoomFactor)
	}
	if cfg.Output.Compression != "zstd" {
		t.Errorf("expected compression 'zstd', got %s", cfg.Output.Compression)
	}
	if cfg.Output.ExtraCapacity != 4096 {
		t.Errorf("expected extra capacity 4096, got %d", cfg.Output.ExtraCapacity)
	}
}

func TestLoadFromFileJSONC(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.jsonc")

	jsoncContent := `{
  // comments and trailing commas are allowed
  "logging": {"level": "warn"},
  "save": {
    "creator_name": "jsonc",
    "compression": "lz4", /* inline */
  },
}`

	if err := os.WriteFile(configPath, []byte(jsoncContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Logging.Level != "warn" {
		t.Errorf("expected log level 'warn', got %s", cfg.Logging.Level)
	}
	if cfg.Output.CreatorName != "jsonc" {
		t.Errorf("expected creator 'jsonc', got %s", cfg.Output.CreatorName)
	}
	if cfg.Output.Compression != "lz4" {
		t.Errorf("expected compression 'lz4', got %s", cfg.Output.Compression)
	}
	// Untouched fields keep their defaults
	if cfg.Output.FormatVersion != blocks.DefaultVersion {
		t.Errorf("expected default version, got %s", cfg.Output.FormatVersion)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
save:
  extra_capacity: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	if err := os.WriteFile("blockstool.yaml", []byte("logging:\n  level: warn\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Error("expected to find blockstool.yaml in current directory")
	}
}

func TestFlags(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		verify func(*testing.T, *Config)
	}{
		{
			name: "debug flag",
			args: []string{"--debug"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
		},
		{
			name: "log file flag",
			args: []string{"--log-file", "out.log"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.LogFile != "out.log" {
					t.Errorf("expected log file 'out.log', got %s", cfg.Logging.LogFile)
				}
			},
		},
		{
			name: "creator flag",
			args: []string{"--creator=Ada"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Output.CreatorName != "Ada" {
					t.Errorf("expected creator 'Ada', got %s", cfg.Output.CreatorName)
				}
			},
		},
		{
			name: "no flags",
			args: nil,
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "info" || cfg.Output.CreatorName != "blockstool" {
					t.Errorf("expected defaults, got %+v", cfg)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs, flags := NewFlagSet("test")
			if err := fs.Parse(tt.args); err != nil {
				t.Fatalf("parse: %v", err)
			}
			cfg := Default()
			flags.apply(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestFlagsStopAtCommand(t *testing.T) {
	fs, flags := NewFlagSet("test")
	if err := fs.Parse([]string{"--debug", "pack", "--codec", "zstd", "in", "out"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !flags.Debug {
		t.Error("expected --debug before the command to be parsed")
	}
	want := []string{"pack", "--codec", "zstd", "in", "out"}
	got := fs.Args()
	if len(got) != len(want) {
		t.Fatalf("expected args %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("arg %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
logging:
  level: warn
save:
  creator_name: FromFile
  compression: lz4
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	flags := &Flags{ConfigPath: configPath, Creator: "FromFlag"}
	cfg, err := Load(flags)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Creator from flag, not file
	if cfg.Output.CreatorName != "FromFlag" {
		t.Errorf("expected creator from flag, got %s", cfg.Output.CreatorName)
	}
	// Level and compression from file since no flag overrides them
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected level from file, got %s", cfg.Logging.Level)
	}
	if cfg.Output.Compression != "lz4" {
		t.Errorf("expected compression from file, got %s", cfg.Output.Compression)
	}
}

func TestLoadBadPath(t *testing.T) {
	_, err := Load(&Flags{ConfigPath: filepath.Join(t.TempDir(), "missing.yaml")})
	if err == nil {
		t.Error("expected error for explicit missing config file")
	}
}

func TestSaveOptions(t *testing.T) {
	cfg := Default()
	cfg.Output.Compression = "zstd"
	cfg.Output.ExtraCapacity = 128

	opts, err := cfg.SaveOptions()
	if err != nil {
		t.Fatalf("SaveOptions: %v", err)
	}
	if opts.Compression != blocks.CodecZstd {
		t.Errorf("expected zstd, got %s", opts.Compression)
	}
	if opts.CreatorName != "blockstool" || opts.ExtraCapacity != 128 {
		t.Errorf("unexpected options %+v", opts)
	}

	tests := []struct {
		name  string
		apply func(*Config)
	}{
		{"unknown codec", func(c *Config) { c.Output.Compression = "gzip" }},
		{"negative capacity", func(c *Config) { c.Output.ExtraCapacity = -1 }},
		{"negative zoom", func(c *Config) { c.Output.ZoomFactor = -2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.apply(cfg)
			if _, err := cfg.SaveOptions(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Output.CreatorName = "Saved"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.Output.CreatorName != "Saved" {
		t.Errorf("expected creator 'Saved', got %s", loaded.Output.CreatorName)
	}
}

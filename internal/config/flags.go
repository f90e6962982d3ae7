package config

import "github.com/spf13/pflag"

// Flags holds the global command-line overrides.
type Flags struct {
	ConfigPath string
	Debug      bool
	LogFile    string
	Creator    string
}

// NewFlagSet registers the global flags on a fresh flag set. Parsing stops
// at the first non-flag argument so the subcommand and its flags are left
// in Args.
func NewFlagSet(name string) (*pflag.FlagSet, *Flags) {
	f := &Flags{}
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.StringVar(&f.ConfigPath, "config", "", "Path to config file (.yaml, .json or .jsonc)")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.LogFile, "log-file", "", "Write logs to this file (rotated)")
	fs.StringVar(&f.Creator, "creator", "", "Creator name stamped into written files")
	return fs, f
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f == nil {
		return
	}
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.LogFile != "" {
		cfg.Logging.LogFile = f.LogFile
	}
	if f.Creator != "" {
		cfg.Output.CreatorName = f.Creator
	}
}

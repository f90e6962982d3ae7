// blockstool is a CLI utility for inspecting, converting and packing blocks
// model files.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/Faultbox/blocks/internal/config"
	"github.com/Faultbox/blocks/internal/logger"
)

// errUsage marks errors caused by bad command-line arguments.
var errUsage = errors.New("usage")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// tool carries what every command needs.
type tool struct {
	cfg    *config.Config
	stdout io.Writer
	stderr io.Writer
}

func run(args []string, stdout, stderr io.Writer) int {
	global, flags := config.NewFlagSet("blockstool")
	global.SetOutput(stderr)
	if err := global.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printUsage(stdout)
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	if global.NArg() < 1 {
		printUsage(stderr)
		return 2
	}

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(stderr, "Error: initializing logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	t := &tool{cfg: cfg, stdout: stdout, stderr: stderr}
	command, rest := global.Arg(0), global.Args()[1:]
	logger.Debug("running command", zap.String("command", command), zap.Strings("args", rest))

	switch command {
	case "info":
		err = t.cmdInfo(rest)
	case "manifest":
		err = t.cmdManifest(rest)
	case "probe":
		err = t.cmdProbe(rest)
	case "convert":
		err = t.cmdConvert(rest)
	case "pack":
		err = t.cmdPack(rest)
	case "unpack":
		err = t.cmdUnpack(rest)
	case "remix":
		err = t.cmdRemix(rest)
	case "help":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", command)
		printUsage(stderr)
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, pflag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `blockstool - blocks model file utility

Usage:
  blockstool [--config file] [--debug] [--log-file file] [--creator name] <command> [options]

Commands:
  info <file>                          Show file contents
  manifest <file>                      Print a YAML manifest with a BLAKE3 digest
  probe [--deep] <file>...             Identify files without loading them
  convert [options] <in.obj|in.off> <out>
                                       Import a mesh into a new file
  pack [--codec zstd|lz4] <in> <out>   Wrap a file in a compressed envelope
  unpack <in> <out>                    Strip the compressed envelope
  remix [--id id]... <in> <out>        Tag every mesh with a remix id

Examples:
  blockstool info chair.blocks
  blockstool convert --mesh-id 7 chair.obj chair.blocks
  blockstool pack --codec lz4 chair.blocks chair.packed.blocks
  blockstool --creator Ada remix chair.blocks chair-remix.blocks`)
}

// usage returns an errUsage error showing how a command is invoked.
func usage(line string) error {
	return fmt.Errorf("%w: blockstool %s", errUsage, line)
}

func newFlagSet(name string, w io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(w)
	return fs
}

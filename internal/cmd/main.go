package cmd

import (
	"bufio"
	"io"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/hashicorp-forge/hyperresource/internal/version"
)

// LogLevelEnv names the environment variable holding the log level
// (trace, debug, info, warn, error). Logging is off by default.
const LogLevelEnv = "HYPERCTL_LOG"

// Streams are the process streams the CLI reads from and writes to.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Main runs the CLI against the process streams and environment and returns
// the exit code.
func Main(args []string) int {
	return Run(args, Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}, os.Getenv)
}

// Run runs the CLI with explicit streams and environment lookup.
func Run(args []string, streams Streams, getenv func(string) string) int {
	name := filepath.Base(args[0])

	level := hclog.Off
	if v := getenv(LogLevelEnv); v != "" {
		level = hclog.LevelFromString(v)
	}
	log := hclog.New(&hclog.LoggerOptions{
		Name:   name,
		Level:  level,
		Output: streams.Err,
	})

	ui := &cli.BasicUi{
		Reader:      bufio.NewReader(streams.In),
		Writer:      streams.Out,
		ErrorWriter: streams.Err,
	}
	initCommands(log, ui)

	c := &cli.CLI{
		Name:       name,
		Args:       subcommandArgs(args[1:]),
		Version:    version.Version,
		Commands:   Commands,
		HelpWriter: streams.Err,
	}

	exitCode, err := c.Run()
	if err != nil {
		ui.Error(err.Error())
		return 1
	}
	return exitCode
}

// subcommandArgs routes a lone -v or -version flag to the version command.
func subcommandArgs(args []string) []string {
	if len(args) == 1 && (args[0] == "-v" || args[0] == "-version") {
		return []string{"version"}
	}
	return args
}

package commands

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
)

// Global context passed to subcommands if we need to share global state later.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags - used by commands that need access to root config.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"codesearch.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Generate GenerateCmd `cmd:"" help:"Generate hound configuration files for search profiles"`
	Daemon   DaemonCmd   `cmd:"" help:"Run the generation daemon with scheduled runs and an admin endpoint"`
	Serve    ServeCmd    `cmd:"" help:"Serve the public search proxy in front of the hound backends"`
	Wait     WaitCmd     `cmd:"" help:"Wait until every hound instance has finished starting up"`
	Verify   VerifyCmd   `cmd:"" help:"Check that a profile's repositories are reachable"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

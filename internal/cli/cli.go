// Package cli implements the bpcgraph command-line interface.
//
// # Commands
//
//   - transform: Search for an operation chain between two graphs
//   - layout: Position the boxes of a graph with the force simulation
//   - render: Draw a graph, layout or solution as DOT, SVG, PNG, PDF or JSON
//   - cache: Manage the local result cache
//   - serve: Run the HTTP API
//   - completion: Generate shell completion scripts
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging and
// --log-format for json or logfmt logs. A single logger is created per
// invocation and handed to the pipeline runner.
package cli

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/bpcgraph/pkg/buildinfo"
	"github.com/matzehuels/bpcgraph/pkg/cache"
	apperr "github.com/matzehuels/bpcgraph/pkg/errors"
	"github.com/matzehuels/bpcgraph/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "bpcgraph"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "bpcgraph reconciles box-pin-color graphs",
		Long: `bpcgraph searches for the cheapest chain of edits that turns one
box-pin-color graph into another, lays out the result with a force
simulation and renders it for inspection.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	var (
		verbose   bool
		logFormat string
	)
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&logFormat, "log-format", logFormatText, "log output format: text, json, logfmt")
	// The level and format are only known once flags are parsed.
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if verbose {
			c.SetLogLevel(LogDebug)
		}
		return setLogFormat(c.Logger, logFormat)
	}

	root.AddCommand(c.transformCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())
	registerCompletions(root)

	return root
}

// Process exit codes returned by [ExitCode].
const (
	ExitOK        = 0
	ExitError     = 1
	ExitUnsolved  = 2
	ExitInterrupt = 130
)

// ExitCode maps the error returned by the root command to a process exit
// code. A search that ends without reaching the target exits with
// ExitUnsolved after its solution file has been written.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, context.Canceled), apperr.Is(err, apperr.ErrCodeCancelled):
		return ExitInterrupt
	case errors.Is(err, errUnsolved):
		return ExitUnsolved
	}
	return ExitError
}

// Reported reports whether err has already been explained to the user on
// stdout, so main should not print it again.
func Reported(err error) bool {
	return errors.Is(err, errUnsolved)
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	cache, err := c.newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cache, nil, c.Logger), nil
}

func (c *CLI) newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		c.Logger.Debug("cache disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/bpcgraph/).
func cacheDir() (string, error) {
	return cache.DefaultDir()
}

// derivedPath replaces the extension of input with suffix, so
// "circuit.json" becomes "circuit.solution.json".
func derivedPath(input, suffix string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + suffix
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

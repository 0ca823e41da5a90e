package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	rootDir    string
	jsonOutput bool
	logger     = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
)

var rootCmd = &cobra.Command{
	Use:   "beadsync",
	Short: "beadsync keeps a JSONL issue store and a Markdown tree in sync",
	Long: `beadsync synchronizes an append-only JSONL issue store with a tree of
Markdown files, and optionally mirrors both against an external tracker
over a webhook/polling bridge.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", ".", "project root containing .beads/ and .todo/")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit machine-readable JSON output")

	rootCmd.AddCommand(initCmd, buildCmd, syncCmd, watchCmd, webhookCmd, mirrorCmd, doctorCmd)
}

// exitCodeFor maps an error into the documented exit code: 0 success
// (handled by the caller before Execute returns an error at all), 1
// argument error, 2 runtime error.
func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	var usageErr *argumentError
	if errors.As(err, &usageErr) {
		return 1
	}
	return 2
}

// argumentError marks a command-line usage mistake (bad flag value,
// missing required argument) as distinct from a runtime failure.
type argumentError struct{ err error }

func (e *argumentError) Error() string { return e.err.Error() }
func (e *argumentError) Unwrap() error { return e.err }

func newArgumentError(msg string) error { return &argumentError{err: errors.New(msg)} }

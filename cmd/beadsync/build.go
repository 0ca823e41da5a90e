package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/beadsync/beadsync/internal/config"
	"github.com/beadsync/beadsync/internal/errs"
	"github.com/beadsync/beadsync/internal/report"
	"github.com/beadsync/beadsync/internal/store"
)

var buildOutput string

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Compile the TODO report from the canonical store",
	RunE:  runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&buildOutput, "output", "TODO.md", "output path, resolved relative to the current working directory")
}

func runBuild(cmd *cobra.Command, args []string) error {
	outPath, err := safeOutputPath(buildOutput)
	if err != nil {
		return err
	}

	cfg, err := config.Load(rootDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st := store.New(rootDir)
	issues, lineErrs, err := st.Load()
	if err != nil {
		return fmt.Errorf("load store: %w", err)
	}
	for _, lerr := range lineErrs {
		logger.Warn("skipped malformed store line", "error", lerr)
	}

	out := report.Compile(issues, cfg.ReportOptions())
	if err := os.WriteFile(outPath, []byte(out), 0o644); err != nil { // #nosec G306 -- report is not sensitive
		return fmt.Errorf("write %s: %w", outPath, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", outPath)
	return nil
}

// safeOutputPath resolves path relative to the working directory and
// rejects anything that would escape it, per spec.md §6's --output
// contract.
func safeOutputPath(path string) (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getwd: %w", err)
	}

	resolved, err := filepath.Abs(filepath.Join(cwd, path))
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}

	rel, err := filepath.Rel(cwd, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &errs.PathSafetyError{Path: path}
	}

	return resolved, nil
}

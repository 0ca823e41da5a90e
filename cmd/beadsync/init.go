package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize .beads/ and .todo/ in the project root",
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	beadsDir := filepath.Join(rootDir, ".beads")
	todoDir := filepath.Join(rootDir, ".todo")

	if err := os.MkdirAll(beadsDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", beadsDir, err)
	}
	if err := os.MkdirAll(filepath.Join(todoDir, "closed"), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", todoDir, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized beadsync project at %s\n", rootDir)
	return nil
}

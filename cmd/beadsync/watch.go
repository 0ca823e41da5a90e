package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/beadsync/beadsync/internal/config"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch .beads/ and .todo/ and sync on change",
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(rootDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	w, err := buildWatcherForDaemon(cfg)
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Watching for changes. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	return w.Close()
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/beadsync/beadsync/internal/config"
	"github.com/beadsync/beadsync/internal/detector"
	"github.com/beadsync/beadsync/internal/store"
	beadsync "github.com/beadsync/beadsync/internal/sync"
)

var (
	syncDryRun    bool
	syncDirection string
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile the store and the Markdown tree",
	RunE:  runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "compute the plan without writing")
	syncCmd.Flags().StringVar(&syncDirection, "direction", "", "bidirectional | store-to-files | files-to-store")
}

func runSync(cmd *cobra.Command, args []string) error {
	if syncDirection != "" {
		switch beadsync.Direction(syncDirection) {
		case beadsync.DirectionBidirectional, beadsync.DirectionStoreToFiles, beadsync.DirectionFilesToStore:
		default:
			return newArgumentError(fmt.Sprintf("invalid --direction %q", syncDirection))
		}
	}

	cfg, err := config.Load(rootDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st := store.New(rootDir)
	storeIssues, lineErrs, err := st.Load()
	if err != nil {
		return fmt.Errorf("load store: %w", err)
	}
	for _, lerr := range lineErrs {
		logger.Warn("skipped malformed store line", "error", lerr)
	}

	filesDir := filepath.Join(rootDir, ".todo")
	fileIssues, existingFiles, fileErrs, err := beadsync.LoadFiles(filesDir)
	if err != nil {
		return fmt.Errorf("load files: %w", err)
	}
	for _, ferr := range fileErrs {
		logger.Warn("skipped malformed file", "error", ferr)
	}

	det := detector.Detect(storeIssues, fileIssues, cfg.ConflictWindow())

	opts := cfg.SyncOptions()
	opts.DryRun = syncDryRun
	opts.FilesDir = filesDir
	if syncDirection != "" {
		opts.Direction = beadsync.Direction(syncDirection)
	}

	engine := beadsync.New(st, logger)
	plan, err := engine.Run(context.Background(), det, opts, existingFiles)
	if err != nil {
		return fmt.Errorf("sync: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(plan)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "created=%d updated=%d files_written=%d conflicts=%d\n",
		len(plan.Created), len(plan.Updated), len(plan.FilesWritten), len(plan.Conflicts))
	return nil
}

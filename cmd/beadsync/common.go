package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/beadsync/beadsync/internal/config"
	"github.com/beadsync/beadsync/internal/detector"
	"github.com/beadsync/beadsync/internal/store"
	beadsync "github.com/beadsync/beadsync/internal/sync"
	"github.com/beadsync/beadsync/internal/types"
	"github.com/beadsync/beadsync/internal/watcher"
)

// loadOrDefaultConventions loads a per-installation conventions JSON file
// from <root>/.beads/conventions.json when present, falling back to
// types.DefaultConventions otherwise.
func loadOrDefaultConventions() types.Conventions {
	path := filepath.Join(rootDir, ".beads", "conventions.json")
	if _, err := os.Stat(path); err != nil {
		return types.DefaultConventions()
	}
	conv, err := config.LoadConventions(path)
	if err != nil {
		logger.Warn("ignoring invalid conventions.json", "error", err)
		return types.DefaultConventions()
	}
	return conv
}

// buildWatcherForDaemon constructs the Watcher the daemon supervises,
// wired to the same sync.Engine the `sync`/`watch` commands use.
func buildWatcherForDaemon(cfg config.Config) (*watcher.Watcher, error) {
	st := store.New(rootDir)
	filesDir := filepath.Join(rootDir, ".todo")
	engine := beadsync.New(st, logger)

	syncFn := func(fsnotify.Event) error {
		storeIssues, _, err := st.Load()
		if err != nil {
			return err
		}
		fileIssues, existingFiles, _, err := beadsync.LoadFiles(filesDir)
		if err != nil {
			return err
		}
		det := detector.Detect(storeIssues, fileIssues, cfg.ConflictWindow())
		opts := cfg.SyncOptions()
		opts.FilesDir = filesDir
		_, err = engine.Run(context.Background(), det, opts, existingFiles)
		return err
	}

	return watcher.New(
		[]string{filepath.Join(rootDir, ".beads"), filesDir},
		syncFn,
		watcher.WithDebounce(cfg.Debounce()),
		watcher.WithLogger(logger),
		watcher.WithOnError(func(err error) { logger.Error("sync failed", "error", err) }),
	)
}

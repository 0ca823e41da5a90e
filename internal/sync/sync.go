// Package sync implements the Sync Engine (C5): it takes the Change
// Detector's classification, resolves conflicts under a configured
// strategy, and executes the writes to the store and the file tree.
package sync

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/beadsync/beadsync/internal/detector"
	"github.com/beadsync/beadsync/internal/markdown"
	"github.com/beadsync/beadsync/internal/pattern"
	"github.com/beadsync/beadsync/internal/store"
	"github.com/beadsync/beadsync/internal/types"
)

// Strategy selects how a SyncConflict's resolution is decided.
type Strategy string

const (
	StrategyLocalWins  Strategy = "local-wins"
	StrategyFileWins   Strategy = "file-wins"
	StrategyNewestWins Strategy = "newest-wins"
)

// Direction restricts which out-queue is actually written.
type Direction string

const (
	DirectionBidirectional Direction = "bidirectional"
	DirectionStoreToFiles  Direction = "store-to-files"
	DirectionFilesToStore  Direction = "files-to-store"
)

// Options configures one Run.
type Options struct {
	Strategy       Strategy
	Direction      Direction
	DryRun         bool
	FilePattern    string
	FilesDir       string // root of the .todo tree
	SeparateClosed bool
}

// Plan is the outcome of a Run: what was (or, under DryRun, would be)
// changed.
type Plan struct {
	Created      []string
	Updated      []string
	FilesWritten []string
	Conflicts    []types.SyncConflict
}

// Engine executes sync plans against a Store and a file tree.
type Engine struct {
	Store *store.Store
	Log   *slog.Logger
}

// New constructs an Engine backed by st, logging to log (or a disabled
// logger if log is nil).
func New(st *store.Store, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{Store: st, Log: log}
}

// Run resolves det's classification under opts and, unless opts.DryRun,
// executes the writes. existingFiles is the set of filenames already
// present in FilesDir, used for Pattern Engine collision disambiguation.
func (e *Engine) Run(ctx context.Context, det detector.Result, opts Options, existingFiles map[string]bool) (Plan, error) {
	runID := uuid.New().String()
	log := e.Log.With("sync_id", runID)

	toStore, toFiles, conflicts := resolveConflicts(det, opts.Strategy)
	toStore, toFiles = filterDirection(toStore, toFiles, opts.Direction)

	log.Info("sync run starting", "to_store", len(toStore), "to_files", len(toFiles), "conflicts", len(conflicts), "dry_run", opts.DryRun)

	plan := Plan{Conflicts: conflicts}
	if opts.DryRun {
		for _, issue := range toStore {
			plan.Created = append(plan.Created, issue.ID)
		}
		for _, issue := range toFiles {
			plan.FilesWritten = append(plan.FilesWritten, issue.ID)
		}
		return plan, nil
	}

	created, updated, err := e.writeStore(toStore)
	if err != nil {
		return plan, err
	}
	plan.Created = created
	plan.Updated = updated

	written, err := e.writeFiles(ctx, toFiles, opts, existingFiles)
	plan.FilesWritten = written
	log.Info("sync run finished", "created", len(created), "updated", len(updated), "files_written", len(written))
	return plan, err
}

// resolveConflicts overrides each conflict's resolution per strategy and,
// for local-wins/file-wins, moves the winning side's full issue record
// into the appropriate out-queue alongside the detector's already-decided
// to_store/to_files issues. newest-wins leaves a within-window conflict's
// resolution as manual and enqueues nothing, since neither side is
// authoritative.
func resolveConflicts(det detector.Result, strategy Strategy) (toStore, toFiles []types.Issue, conflicts []types.SyncConflict) {
	toStore = append(toStore, det.ToStore...)
	toFiles = append(toFiles, det.ToFiles...)

	byID := make(map[string][]types.SyncConflict)
	var order []string
	for _, c := range det.Conflicts {
		if _, seen := byID[c.IssueID]; !seen {
			order = append(order, c.IssueID)
		}
		byID[c.IssueID] = append(byID[c.IssueID], c)
	}

	for _, id := range order {
		fields := byID[id]
		pair, havePair := det.ConflictIssues[id]
		switch strategy {
		case StrategyLocalWins:
			for i := range fields {
				fields[i].Resolution = types.ResolutionLocalWins
			}
			if havePair {
				// the store's value wins, so the file needs rewriting.
				toFiles = append(toFiles, pair.Store)
			}
		case StrategyFileWins:
			for i := range fields {
				fields[i].Resolution = types.ResolutionRemoteWins
			}
			if havePair {
				// the file's value wins, so the store needs updating.
				toStore = append(toStore, pair.File)
			}
		case StrategyNewestWins:
			// the detector already decided a side when timestamps were
			// far enough apart; a conflict only reaches here when they
			// were within the window, so resolution stays manual.
		}
		conflicts = append(conflicts, fields...)
	}

	return toStore, toFiles, conflicts
}

// filterDirection drops out-queue entries that direction excludes.
func filterDirection(toStore, toFiles []types.Issue, direction Direction) ([]types.Issue, []types.Issue) {
	switch direction {
	case DirectionStoreToFiles:
		return nil, toFiles
	case DirectionFilesToStore:
		return toStore, nil
	default:
		return toStore, toFiles
	}
}

// writeStore upserts every issue in toStore, merging file-side deltas
// onto the existing store record when one already exists.
func (e *Engine) writeStore(toStore []types.Issue) (created, updated []string, err error) {
	existing, _, loadErr := e.Store.Load()
	if loadErr != nil {
		return nil, nil, loadErr
	}
	byID := make(map[string]types.Issue, len(existing))
	for _, issue := range existing {
		byID[issue.ID] = issue
	}

	for _, incoming := range toStore {
		base, had := byID[incoming.ID]
		merged := incoming
		if had {
			merged = mergeDelta(base, incoming)
		}
		if _, upsertErr := e.Store.Upsert(merged); upsertErr != nil {
			e.Log.Error("store upsert failed", "id", incoming.ID, "err", upsertErr)
			continue
		}
		if had {
			updated = append(updated, incoming.ID)
		} else {
			created = append(created, incoming.ID)
		}
	}
	return created, updated, nil
}

// mergeDelta applies the file-side record's fields on top of the
// store-side base. Title, Description, Status, Type, Priority, Labels,
// DependsOn, Blocks and Children are always taken from the file side,
// even when zero or empty; Assignee, Parent and ClosedAt are taken from
// the file side only when non-empty, otherwise the store's value stays.
func mergeDelta(base, delta types.Issue) types.Issue {
	merged := base
	merged.Title = delta.Title
	merged.Description = delta.Description
	merged.Status = delta.Status
	merged.Type = delta.Type
	merged.Priority = delta.Priority
	if delta.Assignee != "" {
		merged.Assignee = delta.Assignee
	}
	if delta.Parent != "" {
		merged.Parent = delta.Parent
	}
	merged.Labels = delta.Labels
	merged.DependsOn = delta.DependsOn
	merged.Blocks = delta.Blocks
	merged.Children = delta.Children
	if delta.ClosedAt != "" {
		merged.ClosedAt = delta.ClosedAt
	}
	return merged
}

// writeFiles serializes and writes each issue in toFiles concurrently
// via an errgroup; file writes are independent of each other and of the
// store write, so they fan out.
func (e *Engine) writeFiles(ctx context.Context, toFiles []types.Issue, opts Options, existingFiles map[string]bool) ([]string, error) {
	if len(toFiles) == 0 {
		return nil, nil
	}
	if existingFiles == nil {
		existingFiles = make(map[string]bool)
	}

	p := opts.FilePattern
	if p == "" {
		p = pattern.Default
	}

	var mu sync.Mutex
	var written []string

	g, _ := errgroup.WithContext(ctx)
	for _, issue := range toFiles {
		issue := issue
		g.Go(func() error {
			mu.Lock()
			name, err := pattern.Apply(p, issue, existingFiles)
			if err == nil {
				existingFiles[name] = true
			}
			mu.Unlock()
			if err != nil {
				e.Log.Error("pattern apply failed", "id", issue.ID, "err", err)
				return nil
			}

			dir := opts.FilesDir
			if opts.SeparateClosed && issue.Status == types.StatusClosed {
				dir = filepath.Join(dir, "closed")
			}
			path := filepath.Join(dir, name)
			data := markdown.Serialize(issue)
			if err := writeFileAtomic(path, data); err != nil {
				e.Log.Error("file write failed", "path", path, "err", err)
				return nil
			}
			mu.Lock()
			written = append(written, path)
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()
	return written, err
}

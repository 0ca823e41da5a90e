// Package store implements the Issue Model & Store Adapter: the canonical
// JSONL store at <root>/.beads/issues.jsonl, read with best-effort
// per-line recovery and written with an atomic temp-file-plus-rename swap
// guarded by an advisory file lock.
package store

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/beadsync/beadsync/internal/errs"
	"github.com/beadsync/beadsync/internal/types"
)

const beadsDirName = ".beads"
const issuesFileName = "issues.jsonl"

// Store is the JSONL-backed adapter for the canonical issue record set.
type Store struct {
	path string
	lock *flock.Flock
}

// New returns a Store bound to <root>/.beads/issues.jsonl.
func New(root string) *Store {
	path := filepath.Join(root, beadsDirName, issuesFileName)
	return &Store{path: path, lock: flock.New(path + ".lock")}
}

// Path returns the backing JSONL file path.
func (s *Store) Path() string { return s.path }

// LineError reports a single corrupt line encountered during Load; Load
// is best-effort and collects these instead of aborting the batch.
type LineError struct {
	Line int
	Err  error
}

func (e LineError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }

// Load reads every line of the canonical store in file order. A missing
// file returns an empty slice and no error. Corrupt lines are collected
// into errs and do not abort the read.
func (s *Store) Load() ([]types.Issue, []LineError, error) {
	data, err := os.ReadFile(s.path) // #nosec G304 -- path constructed from caller-supplied root
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, &errs.IOError{Path: s.path, Err: err}
	}
	return parseJSONL(data)
}

func parseJSONL(data []byte) ([]types.Issue, []LineError, error) {
	var issues []types.Issue
	var lineErrs []LineError

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var issue types.Issue
		if err := json.Unmarshal([]byte(line), &issue); err != nil {
			lineErrs = append(lineErrs, LineError{Line: lineNum, Err: err})
			continue
		}
		issue.Source = types.SourceStore
		issues = append(issues, issue)
	}
	if err := scanner.Err(); err != nil {
		return issues, lineErrs, fmt.Errorf("scan jsonl: %w", err)
	}
	return issues, lineErrs, nil
}

// Upsert writes issue into the store, creating it if ID is new or
// replacing the existing record otherwise. The now-persisted record
// (with a fresh UpdatedAt stamp) is returned so callers never reuse a
// pre-write snapshot's timestamp.
func (s *Store) Upsert(issue types.Issue) (types.Issue, error) {
	if !types.ValidID(issue.ID) {
		return types.Issue{}, &errs.ValidationError{Field: "id", Err: fmt.Errorf("invalid id %q", issue.ID)}
	}

	if err := s.lock.Lock(); err != nil {
		return types.Issue{}, &errs.IOError{Path: s.path, Err: fmt.Errorf("acquire lock: %w", err)}
	}
	defer s.lock.Unlock() //nolint:errcheck

	issues, _, err := s.Load()
	if err != nil {
		return types.Issue{}, err
	}

	issue.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	issue.Source = types.SourceStore

	found := false
	for i := range issues {
		if issues[i].ID == issue.ID {
			if issue.CreatedAt == "" {
				issue.CreatedAt = issues[i].CreatedAt
			}
			issues[i] = issue
			found = true
			break
		}
	}
	if !found {
		if issue.CreatedAt == "" {
			issue.CreatedAt = issue.UpdatedAt
		}
		issues = append(issues, issue)
	}

	if err := s.writeAll(issues); err != nil {
		return types.Issue{}, err
	}
	return issue, nil
}

// Close sets status=closed and stamps ClosedAt on the issue identified by
// id.
func (s *Store) Close(id string) error {
	if err := s.lock.Lock(); err != nil {
		return &errs.IOError{Path: s.path, Err: fmt.Errorf("acquire lock: %w", err)}
	}
	defer s.lock.Unlock() //nolint:errcheck

	issues, _, err := s.Load()
	if err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	found := false
	for i := range issues {
		if issues[i].ID == id {
			issues[i].Status = types.StatusClosed
			issues[i].ClosedAt = now
			issues[i].UpdatedAt = now
			found = true
			break
		}
	}
	if !found {
		return &errs.ValidationError{Field: "id", Err: fmt.Errorf("no such issue %q", id)}
	}
	return s.writeAll(issues)
}

// writeAll atomically rewrites the store file from the given issue set,
// via a temp-file-plus-rename swap so a reader never observes a partial
// write.
func (s *Store) writeAll(issues []types.Issue) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &errs.IOError{Path: dir, Err: err}
	}

	var buf bytes.Buffer
	for _, issue := range issues {
		clean := issue
		clean.Source = ""
		line, err := json.Marshal(clean)
		if err != nil {
			return &errs.IOError{Path: s.path, Err: err}
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}

	tmp, err := os.CreateTemp(dir, "issues-*.jsonl.tmp")
	if err != nil {
		return &errs.IOError{Path: dir, Err: err}
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close() //nolint:errcheck
		os.Remove(tmpPath)
		return &errs.IOError{Path: tmpPath, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return &errs.IOError{Path: tmpPath, Err: err}
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return &errs.IOError{Path: s.path, Err: err}
	}
	return nil
}

// FindDir searches start and each ancestor directory for a directory
// named ".beads", returning its path or "" if none is found.
func FindDir(start string) string {
	dir, err := filepath.Abs(start)
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, beadsDirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

package sync

import (
	"os"
	"path/filepath"

	"github.com/beadsync/beadsync/internal/errs"
)

// writeFileAtomic writes data to path via a temp-file-plus-rename swap,
// the same discipline the store uses for its JSONL file, so a crash
// mid-write never leaves a partial Markdown file on disk. Re-running
// with identical data produces a byte-identical file, satisfying the
// idempotent-write contract.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &errs.IOError{Path: dir, Err: err}
	}

	tmp, err := os.CreateTemp(dir, ".sync-*.md.tmp")
	if err != nil {
		return &errs.IOError{Path: dir, Err: err}
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		os.Remove(tmpPath)
		return &errs.IOError{Path: tmpPath, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return &errs.IOError{Path: tmpPath, Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return &errs.IOError{Path: path, Err: err}
	}
	return nil
}

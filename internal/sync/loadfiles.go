package sync

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/beadsync/beadsync/internal/markdown"
	"github.com/beadsync/beadsync/internal/types"
)

// FileError reports a single Markdown file that failed to read or parse
// during LoadFiles; such files are skipped, not fatal, matching the
// per-issue error propagation policy for file I/O and parse failures.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string { return fmt.Sprintf("%s: %v", e.Path, e.Err) }

// LoadFiles walks filesDir (typically `<root>/.todo`) and parses every
// .md file it finds, including anything under a closed/ subdirectory,
// into Issues. It also returns the set of relative paths that already
// exist, for the sync engine's existingFiles bookkeeping. A single
// unreadable or malformed file is reported in errs and otherwise skipped;
// it never aborts the rest of the walk.
func LoadFiles(filesDir string) (issues []types.Issue, existing map[string]bool, errs []FileError, err error) {
	existing = make(map[string]bool)

	if _, statErr := os.Stat(filesDir); os.IsNotExist(statErr) {
		return issues, existing, errs, nil
	}

	walkErr := filepath.WalkDir(filesDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			errs = append(errs, FileError{Path: path, Err: walkErr})
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}

		rel, relErr := filepath.Rel(filesDir, path)
		if relErr != nil {
			rel = path
		}
		existing[rel] = true

		data, readErr := os.ReadFile(path) // #nosec G304 -- path discovered by our own WalkDir under filesDir
		if readErr != nil {
			errs = append(errs, FileError{Path: path, Err: readErr})
			return nil
		}
		issue, parseErr := markdown.Parse(data)
		if parseErr != nil {
			errs = append(errs, FileError{Path: path, Err: parseErr})
			return nil
		}
		issues = append(issues, issue)
		return nil
	})
	if walkErr != nil {
		return nil, nil, nil, walkErr
	}

	return issues, existing, errs, nil
}

package sync

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beadsync/beadsync/internal/markdown"
	"github.com/beadsync/beadsync/internal/types"
)

func TestLoadFilesMissingDirReturnsEmpty(t *testing.T) {
	issues, existing, errs, err := LoadFiles(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, issues)
	assert.Empty(t, existing)
	assert.Empty(t, errs)
}

func TestLoadFilesParsesNestedClosedDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "closed"), 0o755))

	open := types.Issue{ID: "todo-1", Title: "A", Status: types.StatusOpen, Type: types.TypeTask, Priority: 2}
	closed := types.Issue{ID: "todo-2", Title: "B", Status: types.StatusClosed, Type: types.TypeTask, Priority: 2}

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), markdown.Serialize(open), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "closed", "b.md"), markdown.Serialize(closed), 0o644))

	issues, existing, errs, err := LoadFiles(dir)
	require.NoError(t, err)
	assert.Empty(t, errs)
	assert.Len(t, issues, 2)
	assert.True(t, existing["a.md"])
	assert.True(t, existing[filepath.Join("closed", "b.md")])
}

func TestLoadFilesSkipsMalformedFileWithoutAborting(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.md"), []byte("no frontmatter here"), 0o644))

	good := types.Issue{ID: "todo-1", Title: "Good", Status: types.StatusOpen, Type: types.TypeTask, Priority: 2}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.md"), markdown.Serialize(good), 0o644))

	issues, _, errs, err := LoadFiles(dir)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "todo-1", issues[0].ID)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Path, "bad.md")
}

func TestLoadFilesIgnoresNonMarkdownFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte("ignore me"), 0o644))

	issues, existing, errs, err := LoadFiles(dir)
	require.NoError(t, err)
	assert.Empty(t, issues)
	assert.Empty(t, existing)
	assert.Empty(t, errs)
}

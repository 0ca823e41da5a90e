package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beadsync/beadsync/internal/types"
)

func TestLoadMissingFileReturnsEmpty(t *testing.T) {
	s := New(t.TempDir())
	issues, lineErrs, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, issues)
	assert.Empty(t, lineErrs)
}

func TestUpsertCreatesThenUpdates(t *testing.T) {
	s := New(t.TempDir())

	issue := types.Issue{ID: "todo-abc", Title: "A", Status: types.StatusOpen, Type: types.TypeTask, Priority: 2}
	written, err := s.Upsert(issue)
	require.NoError(t, err)
	assert.Equal(t, "todo-abc", written.ID)
	assert.NotEmpty(t, written.UpdatedAt)
	assert.NotEmpty(t, written.CreatedAt)

	issues, _, err := s.Load()
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, types.SourceStore, issues[0].Source)

	issue.Title = "A updated"
	updated, err := s.Upsert(issue)
	require.NoError(t, err)
	assert.Equal(t, "A updated", updated.Title)

	issues, _, err = s.Load()
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "A updated", issues[0].Title)
}

func TestUpsertRejectsInvalidID(t *testing.T) {
	s := New(t.TempDir())
	_, err := s.Upsert(types.Issue{ID: "   ", Title: "x"})
	assert.Error(t, err)
}

func TestCloseStampsClosedAt(t *testing.T) {
	s := New(t.TempDir())
	_, err := s.Upsert(types.Issue{ID: "todo-1", Title: "A", Status: types.StatusOpen})
	require.NoError(t, err)

	require.NoError(t, s.Close("todo-1"))

	issues, _, err := s.Load()
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, types.StatusClosed, issues[0].Status)
	assert.NotEmpty(t, issues[0].ClosedAt)
}

func TestLoadCorruptLineIsBestEffort(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	beadsDir := filepath.Join(dir, beadsDirName)
	require.NoError(t, writeRaw(t, beadsDir, "issues.jsonl", `{"id":"a","title":"A"}`+"\n"+`not json`+"\n"+`{"id":"b","title":"B"}`+"\n"))

	issues, lineErrs, err := s.Load()
	require.NoError(t, err)
	require.Len(t, lineErrs, 1)
	assert.Equal(t, 2, lineErrs[0].Line)
	require.Len(t, issues, 2)
}

func TestFindDirWalksAncestors(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, mkdirAll(filepath.Join(root, ".beads")))
	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, mkdirAll(nested))

	found := FindDir(nested)
	assert.Equal(t, filepath.Join(root, ".beads"), found)
}

func TestFindDirNoneFound(t *testing.T) {
	assert.Equal(t, "", FindDir(t.TempDir()))
}

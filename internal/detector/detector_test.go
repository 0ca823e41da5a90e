package detector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/beadsync/beadsync/internal/types"
)

func baseIssue(id string) types.Issue {
	return types.Issue{
		ID:        id,
		Title:     "Some title",
		Status:    types.StatusOpen,
		Type:      types.TypeTask,
		Priority:  2,
		Labels:    []string{"x"},
		CreatedAt: "2026-01-01T00:00:00Z",
		UpdatedAt: "2026-01-01T00:00:00Z",
	}
}

func TestDetectAddLocalAndAddRemote(t *testing.T) {
	onlyFile := baseIssue("todo-1")
	onlyStore := baseIssue("todo-2")

	result := Detect([]types.Issue{onlyStore}, []types.Issue{onlyFile}, 0)

	assert.Equal(t, []types.Issue{onlyFile}, result.ToStore)
	assert.Equal(t, []types.Issue{onlyStore}, result.ToFiles)
	assert.Empty(t, result.Conflicts)
}

func TestDetectIdenticalIgnoringUpdatedAtAndSource(t *testing.T) {
	store := baseIssue("todo-1")
	store.Source = types.SourceStore
	file := baseIssue("todo-1")
	file.Source = types.SourceFile
	file.UpdatedAt = "2026-02-01T00:00:00Z"

	result := Detect([]types.Issue{store}, []types.Issue{file}, 0)

	assert.Empty(t, result.ToStore)
	assert.Empty(t, result.ToFiles)
	assert.Empty(t, result.Conflicts)
}

func TestDetectWithinWindowIsConflict(t *testing.T) {
	store := baseIssue("todo-1")
	store.Title = "Store title"
	store.UpdatedAt = "2026-01-01T12:00:00Z"

	file := baseIssue("todo-1")
	file.Title = "File title"
	file.UpdatedAt = "2026-01-01T20:00:00Z" // 8h apart, within 24h window

	result := Detect([]types.Issue{store}, []types.Issue{file}, 24*time.Hour)

	assert.Empty(t, result.ToStore)
	assert.Empty(t, result.ToFiles)
	if assert.Len(t, result.Conflicts, 1) {
		assert.Equal(t, "title", result.Conflicts[0].Field)
		assert.Equal(t, types.ResolutionManual, result.Conflicts[0].Resolution)
	}
}

func TestDetectBeyondWindowRoutesToNewer(t *testing.T) {
	store := baseIssue("todo-1")
	store.Title = "Store title"
	store.UpdatedAt = "2026-01-01T00:00:00Z"

	file := baseIssue("todo-1")
	file.Title = "File title"
	file.UpdatedAt = "2026-01-03T00:00:00Z" // 48h apart, beyond 24h window

	result := Detect([]types.Issue{store}, []types.Issue{file}, 24*time.Hour)

	assert.Empty(t, result.Conflicts)
	if assert.Len(t, result.ToStore, 1) {
		assert.Equal(t, "File title", result.ToStore[0].Title)
	}
	assert.Empty(t, result.ToFiles)
}

func TestDetectMissingTimestampTreatedAsWindow(t *testing.T) {
	store := baseIssue("todo-1")
	store.Title = "Store title"
	store.UpdatedAt = ""

	file := baseIssue("todo-1")
	file.Title = "File title"
	file.UpdatedAt = "2026-01-10T00:00:00Z"

	result := Detect([]types.Issue{store}, []types.Issue{file}, 24*time.Hour)

	assert.Empty(t, result.ToStore)
	assert.Empty(t, result.ToFiles)
	assert.NotEmpty(t, result.Conflicts)
}

func TestDetectDefaultsWindowWhenNonPositive(t *testing.T) {
	store := baseIssue("todo-1")
	store.Title = "Store title"
	store.UpdatedAt = "2026-01-01T00:00:00Z"

	file := baseIssue("todo-1")
	file.Title = "File title"
	file.UpdatedAt = "2026-01-01T12:00:00Z" // 12h apart

	result := Detect([]types.Issue{store}, []types.Issue{file}, 0)

	// window <= 0 falls back to the 24h default, so a 12h gap still conflicts
	assert.NotEmpty(t, result.Conflicts)
}

package template

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beadsync/beadsync/internal/types"
)

func TestRenderSubstitutesDottedPath(t *testing.T) {
	data := map[string]any{"issue": map[string]any{"title": "Fix the bug", "priority": 2}}
	out := Render("# {issue.title} (P{issue.priority})", data)
	assert.Equal(t, "# Fix the bug (P2)", out)
}

func TestRenderMissingPathIsEmpty(t *testing.T) {
	out := Render("assignee: {issue.assignee}", map[string]any{"issue": map[string]any{}})
	assert.Equal(t, "assignee: ", out)
}

func TestRenderArrayIsCommaJoined(t *testing.T) {
	data := map[string]any{"issue": map[string]any{"labels": []string{"bug", "urgent"}}}
	out := Render("labels: {issue.labels}", data)
	assert.Equal(t, "labels: bug, urgent", out)
}

func TestRenderLiteralEscapePassesThrough(t *testing.T) {
	out := Render("use {{issue.title}} as a literal", map[string]any{})
	assert.Equal(t, "use {issue.title} as a literal", out)
}

func TestResolveFallsBackThroughChain(t *testing.T) {
	dir := t.TempDir()

	tmpl, err := Resolve(dir, "TODO", "minimal")
	require.NoError(t, err)
	assert.Contains(t, tmpl, "Tracked issues")

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "presets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "presets", "minimal.mdx"), []byte("preset body"), 0o644))
	tmpl, err = Resolve(dir, "TODO", "minimal")
	require.NoError(t, err)
	assert.Equal(t, "preset body", tmpl)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "TODO.mdx"), []byte("custom body"), 0o644))
	tmpl, err = Resolve(dir, "TODO", "minimal")
	require.NoError(t, err)
	assert.Equal(t, "custom body", tmpl)
}

func TestResolveUnknownPresetErrors(t *testing.T) {
	_, err := Resolve(t.TempDir(), "TODO", "does-not-exist")
	assert.Error(t, err)
}

func TestIssueDataRoundTripsThroughRender(t *testing.T) {
	issue := types.Issue{ID: "todo-1", Title: "Ship it", Priority: 1, Labels: []string{"release"}}
	out, err := RenderIssue("", "minimal-nonexistent", issue)
	assert.Error(t, err)
	assert.Empty(t, out)

	rendered := Render("{id}: {title} [{labels}]", IssueData(issue))
	assert.Equal(t, "todo-1: Ship it [release]", rendered)
}

func TestRenderTODOExpandsComponentsThenSlots(t *testing.T) {
	issues := []types.Issue{
		{ID: "todo-1", Title: "Open work", Status: types.StatusOpen, Priority: 1},
		{ID: "todo-2", Title: "Done work", Status: types.StatusClosed, Priority: 1},
	}
	out, err := RenderTODO("", "minimal", issues)
	require.NoError(t, err)
	assert.Contains(t, out, "Tracked issues: 2")
	assert.Contains(t, out, "Open work")
	assert.Contains(t, out, "Done work")
}

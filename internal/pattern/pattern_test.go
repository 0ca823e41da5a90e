package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beadsync/beadsync/internal/types"
)

func sampleIssue() types.Issue {
	return types.Issue{
		ID:        "todo-abc1",
		Title:     "Fix the login bug",
		Type:      types.TypeBug,
		Priority:  1,
		CreatedAt: "2026-03-15T00:00:00Z",
	}
}

func TestApplyDefaultPattern(t *testing.T) {
	name, err := Apply(Default, sampleIssue(), nil)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-15 Fix The Login Bug.md", name)
}

func TestApplySlugifyOnDashDelimiter(t *testing.T) {
	name, err := Apply("[id]-[title].md", sampleIssue(), nil)
	require.NoError(t, err)
	assert.Equal(t, "todo-abc1-fix-the-login-bug.md", name)
}

func TestApplySuppressesDelimiterOnEmptyToken(t *testing.T) {
	issue := sampleIssue()
	issue.Assignee = ""
	name, err := Apply("[id]-[assignee].md", issue, nil)
	require.NoError(t, err)
	assert.Equal(t, "todo-abc1.md", name)
}

func TestApplyDisambiguatesCollisions(t *testing.T) {
	existing := map[string]bool{"todo-abc1.md": true, "todo-abc1-1.md": true}
	name, err := Apply("[id].md", sampleIssue(), existing)
	require.NoError(t, err)
	assert.Equal(t, "todo-abc1-2.md", name)
}

func TestTruncateTitlePrefersWordBoundary(t *testing.T) {
	long := ""
	for i := 0; i < 20; i++ {
		long += "word-of-length- "
	}
	truncated := truncateTitle(long)
	assert.LessOrEqual(t, len(truncated), titleMaxLen)
	assert.NotEqual(t, byte(' '), truncated[len(truncated)-1])
}

func TestCompileAndExtractID(t *testing.T) {
	re := Compile(Default)
	id := ExtractID(re, "2026-03-15 Fix The Login Bug.md")
	assert.Equal(t, "", id, "default pattern has no [id] token")
}

func TestCompileWithIDAndTitle(t *testing.T) {
	re := Compile("[id]--[title].md")
	id := ExtractID(re, "todo-abc1--fix-the-login-bug.md")
	assert.Equal(t, "todo-abc1", id)
}

func TestCompileWithIDOnly(t *testing.T) {
	re := Compile("[id].md")
	id := ExtractID(re, "todo-abc1.md")
	assert.Equal(t, "todo-abc1", id)
}

func TestCompileNoMatch(t *testing.T) {
	re := Compile("[id].md")
	assert.Equal(t, "", ExtractID(re, "nope.txt"))
}

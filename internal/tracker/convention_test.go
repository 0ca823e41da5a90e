package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beadsync/beadsync/internal/types"
)

func TestToLocalAppliesDefaultConventions(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	gh := &Issue{
		Number:    42,
		Title:     "Fix the thing",
		Body:      "Depends on: #10, #11",
		State:     "open",
		CreatedAt: &now,
		UpdatedAt: &now,
		Labels:    []Label{{Name: "type:bug"}, {Name: "priority:high"}, {Name: "good-first-issue"}},
		Assignee:  &User{Login: "octocat"},
	}

	issue, deps, err := ToLocal(gh, types.DefaultConventions())
	require.NoError(t, err)

	assert.Equal(t, "Fix the thing", issue.Title)
	assert.Equal(t, types.TypeBug, issue.Type)
	assert.Equal(t, 1, issue.Priority)
	assert.Equal(t, types.StatusOpen, issue.Status)
	assert.Equal(t, "octocat", issue.Assignee)
	assert.Equal(t, []string{"good-first-issue"}, issue.Labels)
	assert.Equal(t, []string{"10", "11"}, deps)
}

func TestToLocalClosedStateWins(t *testing.T) {
	gh := &Issue{Number: 1, Title: "x", State: "closed"}
	issue, _, err := ToLocal(gh, types.DefaultConventions())
	require.NoError(t, err)
	assert.Equal(t, types.StatusClosed, issue.Status)
}

func TestToExternalRoundTripsTypeAndPriority(t *testing.T) {
	issue := types.Issue{
		Title:    "Fix the thing",
		Type:     types.TypeBug,
		Priority: 1,
		Status:   types.StatusInProgress,
		Labels:   []string{"good-first-issue"},
	}
	fields := ToExternal(issue, types.DefaultConventions())

	labels, ok := fields["labels"].([]string)
	require.True(t, ok)
	assert.Contains(t, labels, "type:bug")
	assert.Contains(t, labels, "priority:high")
	assert.Contains(t, labels, "in-progress")
	assert.Contains(t, labels, "good-first-issue")
	assert.Equal(t, "open", fields["state"])
}

func TestToExternalClosedSetsState(t *testing.T) {
	issue := types.Issue{Title: "x", Status: types.StatusClosed}
	fields := ToExternal(issue, types.DefaultConventions())
	assert.Equal(t, "closed", fields["state"])
}

func TestExtractDependenciesNoPattern(t *testing.T) {
	deps, err := extractDependencies("no markers here", types.Conventions{})
	require.NoError(t, err)
	assert.Nil(t, deps)
}

func TestExtractDependenciesInvalidPattern(t *testing.T) {
	_, err := extractDependencies("body", types.Conventions{DependenciesPattern: "("})
	assert.Error(t, err)
}

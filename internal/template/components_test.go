package template

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/beadsync/beadsync/internal/types"
)

func sampleIssues() []types.Issue {
	return []types.Issue{
		{ID: "todo-1", Title: "No deps", Status: types.StatusOpen, Labels: []string{"core"}},
		{ID: "todo-2", Title: "Waits on 1", Status: types.StatusOpen, DependsOn: []string{"todo-1"}},
		{ID: "todo-3", Title: "Done", Status: types.StatusClosed},
	}
}

func TestExpandComponentsReadyExcludesBlocked(t *testing.T) {
	c := Components{Issues: sampleIssues()}
	out := c.ExpandComponents("<Issues.Ready/>")
	assert.Contains(t, out, "todo-1")
	assert.NotContains(t, out, "todo-2")
}

func TestExpandComponentsBlockedRequiresOpenDependency(t *testing.T) {
	c := Components{Issues: sampleIssues()}
	out := c.ExpandComponents("<Issues.Blocked/>")
	assert.Contains(t, out, "todo-2")
	assert.NotContains(t, out, "todo-1 |")
}

func TestExpandComponentsReadyIncludesDependencyOnceClosed(t *testing.T) {
	issues := sampleIssues()
	issues[0].Status = types.StatusClosed
	c := Components{Issues: issues}
	out := c.ExpandComponents("<Issues.Ready/>")
	assert.Contains(t, out, "todo-2")
}

func TestExpandComponentsClosedListsOnlyClosedIssues(t *testing.T) {
	c := Components{Issues: sampleIssues()}
	out := c.ExpandComponents("<Issues.Closed/>")
	assert.Contains(t, out, "todo-3")
	assert.NotContains(t, out, "todo-1")
}

func TestExpandComponentsDependenciesAndDependents(t *testing.T) {
	c := Components{Issues: sampleIssues()}

	deps := c.ExpandComponents("<Issue.Dependencies/>")
	assert.Contains(t, deps, "todo-2 depends on todo-1")

	dependents := c.ExpandComponents("<Issue.Dependents/>")
	assert.Contains(t, dependents, "todo-1 is depended on by todo-2")
}

func TestExpandComponentsLabelsDeduplicatesAndSorts(t *testing.T) {
	issues := []types.Issue{
		{ID: "a", Labels: []string{"zeta", "alpha"}},
		{ID: "b", Labels: []string{"alpha"}},
	}
	out := Components{Issues: issues}.ExpandComponents("<Issue.Labels/>")
	assert.Equal(t, "- alpha\n- zeta", out)
}

func TestExpandComponentsLeavesUnknownTagsUntouched(t *testing.T) {
	c := Components{Issues: sampleIssues()}
	out := c.ExpandComponents("<Issue.Unknown/>")
	assert.Equal(t, "<Issue.Unknown/>", out)
}

func TestExpandComponentsEmptySetRendersNone(t *testing.T) {
	out := Components{}.ExpandComponents("<Issues.Ready/>")
	assert.Equal(t, "_none_", out)
}

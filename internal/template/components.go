package template

import (
	"fmt"
	"sort"
	"strings"

	"github.com/beadsync/beadsync/internal/types"
)

// Components renders the fixed set of host-supplied template tags against
// an issue set: <Issues/>, <Issues.Ready/>, <Issues.Blocked/>,
// <Issues.Closed/>, <Issue.Labels/>, <Issue.Dependencies/>,
// <Issue.Dependents/>. No arbitrary expression evaluation is supported;
// each tag maps to exactly one fixed rendering.
type Components struct {
	Issues []types.Issue
}

// ExpandComponents replaces every recognized component tag in body with its
// rendered Markdown. Unrecognized tags are left untouched.
func (c Components) ExpandComponents(body string) string {
	var out strings.Builder
	i := 0
	for i < len(body) {
		idx := strings.IndexByte(body[i:], '<')
		if idx < 0 {
			out.WriteString(body[i:])
			break
		}
		out.WriteString(body[i : i+idx])
		i += idx

		end := strings.IndexByte(body[i:], '>')
		if end < 0 {
			out.WriteString(body[i:])
			break
		}
		tag := body[i : i+end+1]
		i += end + 1

		if rendered, ok := c.renderTag(tag); ok {
			out.WriteString(rendered)
		} else {
			out.WriteString(tag)
		}
	}
	return out.String()
}

func (c Components) renderTag(tag string) (string, bool) {
	switch strings.TrimSpace(tag) {
	case "<Issues/>":
		return c.issuesTable(c.Issues), true
	case "<Issues.Ready/>":
		return c.issuesTable(readyIssues(c.Issues)), true
	case "<Issues.Blocked/>":
		return c.issuesTable(blockedIssues(c.Issues)), true
	case "<Issues.Closed/>":
		return c.issuesTable(closedIssues(c.Issues)), true
	case "<Issue.Labels/>":
		return labelsList(c.Issues), true
	case "<Issue.Dependencies/>":
		return dependenciesList(c.Issues), true
	case "<Issue.Dependents/>":
		return dependentsList(c.Issues), true
	default:
		return "", false
	}
}

func readyIssues(issues []types.Issue) []types.Issue {
	closed := closedIDs(issues)
	var ready []types.Issue
	for _, iss := range issues {
		if iss.Status == types.StatusClosed {
			continue
		}
		if allClosed(iss.DependsOn, closed) {
			ready = append(ready, iss)
		}
	}
	return ready
}

func blockedIssues(issues []types.Issue) []types.Issue {
	closed := closedIDs(issues)
	var blocked []types.Issue
	for _, iss := range issues {
		if iss.Status == types.StatusClosed {
			continue
		}
		if !allClosed(iss.DependsOn, closed) {
			blocked = append(blocked, iss)
		}
	}
	return blocked
}

func closedIssues(issues []types.Issue) []types.Issue {
	var closed []types.Issue
	for _, iss := range issues {
		if iss.Status == types.StatusClosed {
			closed = append(closed, iss)
		}
	}
	return closed
}

func closedIDs(issues []types.Issue) map[string]bool {
	out := make(map[string]bool)
	for _, iss := range issues {
		if iss.Status == types.StatusClosed {
			out[iss.ID] = true
		}
	}
	return out
}

func allClosed(ids []string, closed map[string]bool) bool {
	for _, id := range ids {
		if !closed[id] {
			return false
		}
	}
	return true
}

func (c Components) issuesTable(issues []types.Issue) string {
	if len(issues) == 0 {
		return "_none_"
	}
	var b strings.Builder
	b.WriteString("| ID | Title | Status | Priority |\n")
	b.WriteString("| --- | --- | --- | --- |\n")
	for _, iss := range issues {
		fmt.Fprintf(&b, "| %s | %s | %s | %d |\n", iss.ID, iss.Title, iss.Status, iss.Priority)
	}
	return strings.TrimRight(b.String(), "\n")
}

func labelsList(issues []types.Issue) string {
	seen := make(map[string]bool)
	var labels []string
	for _, iss := range issues {
		for _, l := range iss.Labels {
			if !seen[l] {
				seen[l] = true
				labels = append(labels, l)
			}
		}
	}
	sort.Strings(labels)
	if len(labels) == 0 {
		return "_none_"
	}
	var b strings.Builder
	for _, l := range labels {
		fmt.Fprintf(&b, "- %s\n", l)
	}
	return strings.TrimRight(b.String(), "\n")
}

func dependenciesList(issues []types.Issue) string {
	var b strings.Builder
	for _, iss := range issues {
		if len(iss.DependsOn) == 0 {
			continue
		}
		fmt.Fprintf(&b, "- %s depends on %s\n", iss.ID, strings.Join(iss.DependsOn, ", "))
	}
	if b.Len() == 0 {
		return "_none_"
	}
	return strings.TrimRight(b.String(), "\n")
}

func dependentsList(issues []types.Issue) string {
	dependents := make(map[string][]string)
	for _, iss := range issues {
		for _, dep := range iss.DependsOn {
			dependents[dep] = append(dependents[dep], iss.ID)
		}
	}
	var ids []string
	for id := range dependents {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	for _, id := range ids {
		fmt.Fprintf(&b, "- %s is depended on by %s\n", id, strings.Join(dependents[id], ", "))
	}
	if b.Len() == 0 {
		return "_none_"
	}
	return strings.TrimRight(b.String(), "\n")
}

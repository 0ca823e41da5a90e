// Package report implements the Report Compiler (C7): it renders a single
// fixed Markdown artifact from one issue slice. It does not merge
// store-sourced and file-sourced issue sets; the report covers exactly
// the issues the caller passes in.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/beadsync/beadsync/internal/types"
)

// Options configures Compile.
type Options struct {
	CompletedLimit   int  // default 10 when zero
	IncludeCompleted bool
}

// Compile renders the fixed TODO artifact from issues as given. It does
// no merging and no conflict resolution, only rendering.
func Compile(issues []types.Issue, opts Options) string {
	limit := opts.CompletedLimit
	if limit <= 0 {
		limit = 10
	}

	var inProgress, open, closed []types.Issue
	for _, issue := range issues {
		switch issue.Status {
		case types.StatusInProgress:
			inProgress = append(inProgress, issue)
		case types.StatusClosed:
			closed = append(closed, issue)
		default:
			open = append(open, issue)
		}
	}

	sortByPriority(inProgress)
	sortByPriority(open)
	sort.SliceStable(closed, func(i, j int) bool {
		return closed[i].ClosedAt > closed[j].ClosedAt
	})

	var b strings.Builder
	b.WriteString("# TODO\n")

	writeSection(&b, "## In Progress", inProgress)

	var openBody strings.Builder
	writeSection(&openBody, "### Epics", filterTypeAny(open, types.TypeEpic))
	writeSection(&openBody, "### Bugs", filterTypeAny(open, types.TypeBug))
	writeSection(&openBody, "### Features", filterTypeAny(open, types.TypeFeature))
	writeSection(&openBody, "### Tasks", filterTypeAny(open, types.TypeTask, types.TypeChore))
	if openBody.Len() > 0 {
		b.WriteString("## Open\n")
		b.WriteString(openBody.String())
	}

	if opts.IncludeCompleted {
		if len(closed) > int(limit) {
			closed = closed[:limit]
		}
		writeSection(&b, "## Recently Completed", closed)
	}

	return b.String()
}

func sortByPriority(issues []types.Issue) {
	sort.SliceStable(issues, func(i, j int) bool { return issues[i].Priority < issues[j].Priority })
}

func filterTypeAny(issues []types.Issue, types_ ...types.Type) []types.Issue {
	want := make(map[types.Type]bool, len(types_))
	for _, t := range types_ {
		want[t] = true
	}
	var out []types.Issue
	for _, issue := range issues {
		if want[issue.Type] {
			out = append(out, issue)
		}
	}
	return out
}

func writeSection(b *strings.Builder, header string, issues []types.Issue) {
	if len(issues) == 0 {
		return
	}
	b.WriteString(header)
	b.WriteString("\n")
	for _, issue := range issues {
		b.WriteString(formatItem(issue))
		b.WriteString("\n")
	}
}

// formatItem renders one checklist line. Closed issues use the
// "- [x] ... - *closed <date>*" form; everything else uses the open
// "- [ ] ... - *type, Pn[, @assignee] [#label ...]*" form.
func formatItem(issue types.Issue) string {
	if issue.Status == types.StatusClosed {
		return fmt.Sprintf("- [x] [#%s] %s - *closed %s*", issue.ID, issue.Title, closedDate(issue.ClosedAt))
	}

	var meta strings.Builder
	fmt.Fprintf(&meta, "%s, P%d", issue.Type, issue.Priority)
	if issue.Assignee != "" {
		fmt.Fprintf(&meta, ", @%s", issue.Assignee)
	}
	for _, label := range issue.Labels {
		fmt.Fprintf(&meta, " #%s", label)
	}
	return fmt.Sprintf("- [ ] [#%s] %s - *%s*", issue.ID, issue.Title, meta.String())
}

func closedDate(closedAt string) string {
	t, err := time.Parse(time.RFC3339, closedAt)
	if err != nil {
		return "unknown"
	}
	return t.Format("2006-01-02")
}

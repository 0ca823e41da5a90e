// Package types defines the canonical data model shared by every beadsync
// component: the Issue record, the mirror's IssueMapping bridge, and the
// supporting conflict/delivery bookkeeping types.
package types

import "strings"

// Status is the lifecycle state of an Issue.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusClosed     Status = "closed"
)

// Type classifies the kind of work an Issue tracks.
type Type string

const (
	TypeTask    Type = "task"
	TypeBug     Type = "bug"
	TypeFeature Type = "feature"
	TypeEpic    Type = "epic"
	TypeChore   Type = "chore"
)

// Source records which reader produced a given in-memory Issue value.
type Source string

const (
	SourceStore Source = "store"
	SourceFile  Source = "file"
)

// Issue is the central record synchronized between the JSONL store, the
// Markdown tree, and (via the mirror) the external tracker.
type Issue struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Status      Status   `json:"status"`
	Type        Type     `json:"type"`
	Priority    int      `json:"priority"`
	Assignee    string   `json:"assignee,omitempty"`
	Parent      string   `json:"parent,omitempty"`
	Labels      []string `json:"labels"`
	DependsOn   []string `json:"depends_on,omitempty"`
	Blocks      []string `json:"blocks,omitempty"`
	Children    []string `json:"children,omitempty"`
	CreatedAt   string   `json:"created_at,omitempty"`
	UpdatedAt   string   `json:"updated_at,omitempty"`
	ClosedAt    string   `json:"closed_at,omitempty"`
	Source      Source   `json:"source,omitempty"`
}

// ClampPriority snaps an out-of-range or fractional priority into [0,4].
// Non-integers floor first; out-of-range integers snap to 2, the spec's
// documented default.
func ClampPriority(p float64) int {
	floored := int(p)
	if float64(floored) > p {
		floored--
	}
	if floored < 0 || floored > 4 {
		return 2
	}
	return floored
}

// ValidID reports whether id satisfies the non-empty, non-whitespace,
// path-separator-free contract every component relies on.
func ValidID(id string) bool {
	if strings.TrimSpace(id) == "" {
		return false
	}
	return !strings.ContainsAny(id, "/\\")
}

// NormalizeStatus accepts the documented status aliases and returns the
// canonical Status, or "" if the input does not match any known form.
func NormalizeStatus(s string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "open":
		return StatusOpen, true
	case "in_progress", "in-progress", "working":
		return StatusInProgress, true
	case "closed", "done", "completed":
		return StatusClosed, true
	default:
		return "", false
	}
}

// NormalizeType validates a type string against the known set.
func NormalizeType(t string) (Type, bool) {
	switch Type(strings.ToLower(strings.TrimSpace(t))) {
	case TypeTask, TypeBug, TypeFeature, TypeEpic, TypeChore:
		return Type(strings.ToLower(strings.TrimSpace(t))), true
	default:
		return "", false
	}
}

// equalStringSlice compares two ordered sequences, treating nil and empty
// as equal so canonicalization doesn't manufacture spurious diffs.
func equalStringSlice(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Equal compares two issues field-by-field, excluding UpdatedAt and Source
// per the Change Detector's equality contract (spec §4.4): those two
// fields never participate in "is this the same issue" comparisons.
func (i Issue) Equal(o Issue) bool {
	return i.ID == o.ID &&
		i.Title == o.Title &&
		i.Description == o.Description &&
		i.Status == o.Status &&
		i.Type == o.Type &&
		i.Priority == o.Priority &&
		i.Assignee == o.Assignee &&
		i.Parent == o.Parent &&
		i.CreatedAt == o.CreatedAt &&
		i.ClosedAt == o.ClosedAt &&
		equalStringSlice(i.Labels, o.Labels) &&
		equalStringSlice(i.DependsOn, o.DependsOn) &&
		equalStringSlice(i.Blocks, o.Blocks) &&
		equalStringSlice(i.Children, o.Children)
}

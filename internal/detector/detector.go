// Package detector implements the Change Detector (C4): diffing the
// store-side and file-side issue sets and classifying every id in the
// union as an add, a clean change, or a conflict.
package detector

import (
	"time"

	"github.com/beadsync/beadsync/internal/types"
)

// ConflictWindow is the default window within which two differing
// timestamps are treated as ambiguous rather than ordered (spec §9 open
// question: kept as a heuristic, exposed as configuration).
const ConflictWindow = 24 * time.Hour

// Result is the Change Detector's output: issues to upsert into the
// store, issues to write to files, and the conflicts found along the way.
type Result struct {
	ToStore        []types.Issue
	ToFiles        []types.Issue
	Conflicts      []types.SyncConflict
	ConflictIssues map[string]ConflictPair
}

// ConflictPair holds both sides' full issue record for an id that was
// routed to Result.Conflicts, so the Sync Engine can move the
// strategy-selected winner into the right out-queue.
type ConflictPair struct {
	Store types.Issue
	File  types.Issue
}

// Detect compares storeIssues against fileIssues and classifies every id
// in their union.
func Detect(storeIssues, fileIssues []types.Issue, window time.Duration) Result {
	if window <= 0 {
		window = ConflictWindow
	}

	byStore := indexByID(storeIssues)
	byFile := indexByID(fileIssues)

	var result Result
	for id := range unionIDs(byStore, byFile) {
		storeIssue, inStore := byStore[id]
		fileIssue, inFile := byFile[id]

		switch {
		case inFile && !inStore:
			result.ToStore = append(result.ToStore, fileIssue)
		case inStore && !inFile:
			result.ToFiles = append(result.ToFiles, storeIssue)
		case storeIssue.Equal(fileIssue):
			// identical ignoring updated_at/source: no action
		default:
			classifyDiffering(storeIssue, fileIssue, window, &result)
		}
	}
	return result
}

func classifyDiffering(storeIssue, fileIssue types.Issue, window time.Duration, result *Result) {
	storeTime, storeOK := parseTime(storeIssue.UpdatedAt)
	fileTime, fileOK := parseTime(fileIssue.UpdatedAt)

	if withinWindow(storeTime, storeOK, fileTime, fileOK, window) {
		result.Conflicts = append(result.Conflicts, diffFields(storeIssue, fileIssue)...)
		if result.ConflictIssues == nil {
			result.ConflictIssues = make(map[string]ConflictPair)
		}
		result.ConflictIssues[storeIssue.ID] = ConflictPair{Store: storeIssue, File: fileIssue}
		return
	}

	if fileTime.After(storeTime) {
		result.ToStore = append(result.ToStore, fileIssue)
	} else {
		result.ToFiles = append(result.ToFiles, storeIssue)
	}
}

// withinWindow reports whether the two timestamps should be treated as
// ambiguous: either is missing, they're equal, or they differ by no more
// than window.
func withinWindow(a time.Time, aOK bool, b time.Time, bOK bool, window time.Duration) bool {
	if !aOK || !bOK {
		return true
	}
	if a.Equal(b) {
		return true
	}
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return diff <= window
}

func parseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func indexByID(issues []types.Issue) map[string]types.Issue {
	m := make(map[string]types.Issue, len(issues))
	for _, issue := range issues {
		m[issue.ID] = issue
	}
	return m
}

func unionIDs(a, b map[string]types.Issue) map[string]struct{} {
	ids := make(map[string]struct{}, len(a)+len(b))
	for id := range a {
		ids[id] = struct{}{}
	}
	for id := range b {
		ids[id] = struct{}{}
	}
	return ids
}

package store

import (
	"fmt"
	"sort"
	"time"

	"github.com/beadsync/beadsync/internal/types"
)

// Rejection records one issue or reference removed by Clean, with the
// reason it was rejected, so the operator can audit what changed.
type Rejection struct {
	IssueID string
	Reason  string
}

// CleanResult summarizes a hygiene pass over the store.
type CleanResult struct {
	Kept       []types.Issue
	Rejections []Rejection
}

// Clean deduplicates issues by id (keeping the record with the newest
// UpdatedAt) and repairs depends_on/blocks/children references that point
// at ids no longer present, reporting every removal rather than silently
// dropping it (spec §3 invariant: references are never silently dropped
// from a well-formed Issue; this pass is the one place that is allowed to
// drop a reference, and only because the store itself has drifted).
func Clean(issues []types.Issue) CleanResult {
	byID := make(map[string]types.Issue, len(issues))
	var order []string
	var rejections []Rejection

	for _, issue := range issues {
		existing, ok := byID[issue.ID]
		if !ok {
			byID[issue.ID] = issue
			order = append(order, issue.ID)
			continue
		}
		if newer(issue, existing) {
			rejections = append(rejections, Rejection{IssueID: issue.ID, Reason: "duplicate id, older record dropped"})
			byID[issue.ID] = issue
		} else {
			rejections = append(rejections, Rejection{IssueID: issue.ID, Reason: "duplicate id, older record dropped"})
		}
	}

	sort.Strings(order)

	kept := make([]types.Issue, 0, len(order))
	for _, id := range order {
		kept = append(kept, byID[id])
	}

	for i, issue := range kept {
		issue.DependsOn, rejections = repairRefs(issue.ID, "depends_on", issue.DependsOn, byID, rejections)
		issue.Blocks, rejections = repairRefs(issue.ID, "blocks", issue.Blocks, byID, rejections)
		issue.Children, rejections = repairRefs(issue.ID, "children", issue.Children, byID, rejections)
		kept[i] = issue
	}

	return CleanResult{Kept: kept, Rejections: rejections}
}

func newer(a, b types.Issue) bool {
	at, aErr := time.Parse(time.RFC3339, a.UpdatedAt)
	bt, bErr := time.Parse(time.RFC3339, b.UpdatedAt)
	if aErr != nil || bErr != nil {
		return false
	}
	return at.After(bt)
}

func repairRefs(ownerID, field string, refs []string, byID map[string]types.Issue, rejections []Rejection) ([]string, []Rejection) {
	var kept []string
	for _, ref := range refs {
		if _, ok := byID[ref]; ok {
			kept = append(kept, ref)
			continue
		}
		rejections = append(rejections, Rejection{
			IssueID: ownerID,
			Reason:  fmt.Sprintf("%s reference %q has no matching issue, removed", field, ref),
		})
	}
	return kept, rejections
}

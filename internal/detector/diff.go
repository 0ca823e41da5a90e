package detector

import (
	"fmt"
	"strings"

	"github.com/beadsync/beadsync/internal/types"
)

// diffFields produces one SyncConflict per field that differs between the
// store-side and file-side views of the same issue id. LocalValue holds
// the store's value, ExternalValue the file's, mirroring the field names
// on SyncConflict even though both sides are "local" in the store/file
// sense rather than the local/external tracker sense.
func diffFields(storeIssue, fileIssue types.Issue) []types.SyncConflict {
	var conflicts []types.SyncConflict
	add := func(field, storeVal, fileVal string) {
		if storeVal == fileVal {
			return
		}
		conflicts = append(conflicts, types.SyncConflict{
			IssueID:       storeIssue.ID,
			Field:         field,
			LocalValue:    storeVal,
			ExternalValue: fileVal,
			Resolution:    types.ResolutionManual,
		})
	}

	add("title", storeIssue.Title, fileIssue.Title)
	add("description", storeIssue.Description, fileIssue.Description)
	add("status", string(storeIssue.Status), string(fileIssue.Status))
	add("type", string(storeIssue.Type), string(fileIssue.Type))
	add("priority", fmt.Sprint(storeIssue.Priority), fmt.Sprint(fileIssue.Priority))
	add("assignee", storeIssue.Assignee, fileIssue.Assignee)
	add("labels", strings.Join(storeIssue.Labels, ","), strings.Join(fileIssue.Labels, ","))
	add("depends_on", strings.Join(storeIssue.DependsOn, ","), strings.Join(fileIssue.DependsOn, ","))
	add("blocks", strings.Join(storeIssue.Blocks, ","), strings.Join(fileIssue.Blocks, ","))
	add("children", strings.Join(storeIssue.Children, ","), strings.Join(fileIssue.Children, ","))

	if len(conflicts) == 0 {
		// Equal() already filters issues that differ only in UpdatedAt or
		// Source upstream, but it also compares Parent, CreatedAt and
		// ClosedAt, which are not listed above, so pairs differing only
		// there land here; surface a single generic conflict so the
		// caller never drops a differing pair silently.
		conflicts = append(conflicts, types.SyncConflict{
			IssueID:       storeIssue.ID,
			Field:         "updated_at",
			LocalValue:    storeIssue.UpdatedAt,
			ExternalValue: fileIssue.UpdatedAt,
			Resolution:    types.ResolutionManual,
		})
	}

	return conflicts
}

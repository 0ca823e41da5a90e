package tracker

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/beadsync/beadsync/internal/types"
)

// ToLocal converts a GitHub issue into a canonical Issue under the given
// installation conventions, plus any dependency ids parsed out of the
// issue body. Round-trip safety with ToExternal under DefaultConventions
// is a tested property of this package.
func ToLocal(gh *Issue, conventions types.Conventions) (types.Issue, []string, error) {
	labelNames := LabelNames(gh.Labels)

	issue := types.Issue{
		Title:       gh.Title,
		Description: gh.Body,
		Type:        typeFromLabels(labelNames, conventions),
		Priority:    priorityFromLabels(labelNames, conventions),
		Status:      statusFromLabelsAndState(labelNames, gh.State, conventions),
		Labels:      filterScopedLabels(labelNames, conventions),
		Source:      types.SourceStore,
	}

	if gh.Assignee != nil {
		issue.Assignee = gh.Assignee.Login
	}
	if gh.CreatedAt != nil {
		issue.CreatedAt = gh.CreatedAt.UTC().Format(time.RFC3339)
	}
	if gh.UpdatedAt != nil {
		issue.UpdatedAt = gh.UpdatedAt.UTC().Format(time.RFC3339)
	}
	if gh.State == "closed" && gh.ClosedAt != nil {
		issue.ClosedAt = gh.ClosedAt.UTC().Format(time.RFC3339)
	}

	deps, err := extractDependencies(gh.Body, conventions)
	if err != nil {
		return types.Issue{}, nil, err
	}
	return issue, deps, nil
}

// ToExternal converts a canonical Issue into the field set GitHub's
// update/create API expects, applying the inverse label conventions.
func ToExternal(issue types.Issue, conventions types.Conventions) map[string]interface{} {
	fields := map[string]interface{}{
		"title": issue.Title,
		"body":  issue.Description,
	}

	var labels []string
	if typeLabel, ok := labelForType(issue.Type, conventions); ok {
		labels = append(labels, typeLabel)
	}
	if priorityLabel, ok := labelForPriority(issue.Priority, conventions); ok {
		labels = append(labels, priorityLabel)
	}
	if issue.Status == types.StatusInProgress && conventions.LabelsStatusInProgress != "" {
		labels = append(labels, conventions.LabelsStatusInProgress)
	}
	labels = append(labels, issue.Labels...)
	fields["labels"] = labels

	if issue.Status == types.StatusClosed {
		fields["state"] = "closed"
	} else {
		fields["state"] = "open"
	}

	return fields
}

func typeFromLabels(labels []string, conventions types.Conventions) types.Type {
	for _, label := range labels {
		prefix, value := ParseLabelName(label)
		key := strings.ToLower(value)
		if prefix != "" && prefix != "type" {
			continue
		}
		if t, ok := conventions.LabelsType[key]; ok {
			if typed, valid := types.NormalizeType(t); valid {
				return typed
			}
		}
	}
	return types.TypeTask
}

func priorityFromLabels(labels []string, conventions types.Conventions) int {
	for _, label := range labels {
		prefix, value := ParseLabelName(label)
		if prefix != "" && prefix != "priority" {
			continue
		}
		if p, ok := conventions.LabelsPriority[strings.ToLower(value)]; ok {
			return types.ClampPriority(float64(p))
		}
		switch strings.ToUpper(label) {
		case "P0":
			return 0
		case "P1":
			return 1
		case "P2":
			return 2
		case "P3":
			return 3
		case "P4":
			return 4
		}
	}
	return 2
}

func statusFromLabelsAndState(labels []string, state string, conventions types.Conventions) types.Status {
	if state == "closed" {
		return types.StatusClosed
	}
	for _, label := range labels {
		if conventions.LabelsStatusInProgress != "" && label == conventions.LabelsStatusInProgress {
			return types.StatusInProgress
		}
	}
	return types.StatusOpen
}

// filterScopedLabels strips the type/priority/status convention labels
// from the set carried over verbatim onto the local Issue, since those
// are re-derived from the struct fields rather than kept as free labels.
func filterScopedLabels(labels []string, conventions types.Conventions) []string {
	var filtered []string
	for _, label := range labels {
		if label == conventions.LabelsStatusInProgress || label == conventions.LabelsStatusBlocked {
			continue
		}
		prefix, _ := ParseLabelName(label)
		if prefix == "priority" || prefix == "type" {
			continue
		}
		filtered = append(filtered, label)
	}
	return filtered
}

func labelForType(t types.Type, conventions types.Conventions) (string, bool) {
	for labelValue, mapped := range conventions.LabelsType {
		if types.Type(mapped) == t {
			return "type:" + labelValue, true
		}
	}
	return "", false
}

func labelForPriority(priority int, conventions types.Conventions) (string, bool) {
	for labelValue, mapped := range conventions.LabelsPriority {
		if mapped == priority {
			return "priority:" + labelValue, true
		}
	}
	return "", false
}

// extractDependencies parses "Depends on: #123, #456"-style markers out
// of an issue body using the installation's configured pattern. Because
// the pattern is user-supplied, it must already have passed
// ValidatePattern before reaching here.
func extractDependencies(body string, conventions types.Conventions) ([]string, error) {
	if conventions.DependenciesPattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile(conventions.DependenciesPattern)
	if err != nil {
		return nil, fmt.Errorf("compile dependency pattern: %w", err)
	}
	match := re.FindStringSubmatch(body)
	if len(match) < 2 {
		return nil, nil
	}
	sep := conventions.DependenciesSeparator
	if sep == "" {
		sep = ","
	}
	var deps []string
	for _, raw := range strings.Split(match[1], sep) {
		ref := strings.TrimSpace(raw)
		ref = strings.TrimPrefix(ref, "#")
		if ref != "" {
			deps = append(deps, ref)
		}
	}
	return deps, nil
}

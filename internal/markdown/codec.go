// Package markdown implements the Markdown Codec: parsing a .todo/*.md
// file into an Issue and serializing an Issue back to file bytes, with a
// hand-rolled strict-YAML-subset frontmatter (quoted scalars, JSON-style
// arrays) chosen over a general decoder so quoting, escaping, and key
// order stay under exact control on round-trip.
package markdown

import (
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"

	"github.com/beadsync/beadsync/internal/errs"
	"github.com/beadsync/beadsync/internal/types"
)

// frontmatterKeyOrder is the fixed emission order required by §4.2 step 1.
var frontmatterKeyOrder = []string{
	"id", "title", "state", "priority", "type", "labels", "assignee",
	"createdAt", "updatedAt", "closedAt", "parent", "source", "dependsOn", "blocks", "children",
}

// Parse decodes a Markdown issue file into an Issue. id is required to be
// present and non-blank; if the frontmatter block itself is absent, Parse
// fails only because id cannot be recovered (per §4.2 step 1).
func Parse(data []byte) (types.Issue, error) {
	fmBlock, body, hasFrontmatter := splitFrontmatter(string(data))
	if !hasFrontmatter {
		return types.Issue{}, &errs.ParseError{Err: fmt.Errorf("missing-frontmatter")}
	}

	values, err := decodeFrontmatter(fmBlock)
	if err != nil {
		return types.Issue{}, &errs.ParseError{Err: err}
	}

	id, _ := values["id"].(string)
	if !types.ValidID(id) {
		return types.Issue{}, &errs.ValidationError{Field: "id", Err: fmt.Errorf("id must be non-empty and non-whitespace")}
	}

	issue := types.Issue{
		ID:          id,
		Title:       asString(values["title"]),
		Assignee:    asString(values["assignee"]),
		Parent:      asString(values["parent"]),
		CreatedAt:   asString(values["createdAt"]),
		UpdatedAt:   asString(values["updatedAt"]),
		ClosedAt:    asString(values["closedAt"]),
		Labels:      asStringSlice(values["labels"]),
		DependsOn:   asStringSlice(values["dependsOn"]),
		Blocks:      asStringSlice(values["blocks"]),
		Children:    asStringSlice(values["children"]),
		Source:      types.SourceFile,
		Description: strings.TrimSpace(stripTitleAndRelated(body)),
	}

	if status, ok := types.NormalizeStatus(asString(values["state"])); ok {
		issue.Status = status
	} else {
		issue.Status = types.StatusOpen
	}
	if typ, ok := types.NormalizeType(asString(values["type"])); ok {
		issue.Type = typ
	} else {
		issue.Type = types.TypeTask
	}
	issue.Priority = clampPriorityValue(values["priority"])

	return issue, nil
}

func clampPriorityValue(v any) int {
	switch n := v.(type) {
	case float64:
		return types.ClampPriority(n)
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 2
		}
		return types.ClampPriority(f)
	default:
		return 2
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asStringSlice(v any) []string {
	s, _ := v.([]string)
	return s
}

// Serialize renders an Issue to Markdown file bytes: frontmatter in the
// fixed key order, always-quoted scalars, then a title heading, the
// description, and a "Related Issues" section.
func Serialize(issue types.Issue) []byte {
	var b strings.Builder
	b.WriteString(frontmatterDelim)
	b.WriteByte('\n')

	fields := map[string]string{
		"id":        quoteString(issue.ID),
		"title":     quoteString(issue.Title),
		"state":     quoteString(string(issue.Status)),
		"priority":  strconv.Itoa(issue.Priority),
		"type":      quoteString(string(issue.Type)),
		"labels":    encodeArray(issue.Labels),
		"assignee":  quoteString(issue.Assignee),
		"createdAt": quoteString(issue.CreatedAt),
		"updatedAt": quoteString(issue.UpdatedAt),
		"closedAt":  quoteString(issue.ClosedAt),
		"parent":    quoteString(issue.Parent),
		"source":    quoteString(string(issue.Source)),
		"dependsOn": encodeArray(issue.DependsOn),
		"blocks":    encodeArray(issue.Blocks),
		"children":  encodeArray(issue.Children),
	}

	for _, key := range frontmatterKeyOrder {
		if key == "assignee" && issue.Assignee == "" {
			continue
		}
		if key == "parent" && issue.Parent == "" {
			continue
		}
		if key == "createdAt" && issue.CreatedAt == "" {
			continue
		}
		if key == "updatedAt" && issue.UpdatedAt == "" {
			continue
		}
		if key == "closedAt" && issue.ClosedAt == "" {
			continue
		}
		if key == "source" && issue.Source == "" {
			continue
		}
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(fields[key])
		b.WriteByte('\n')
	}
	b.WriteString(frontmatterDelim)
	b.WriteString("\n\n")

	b.WriteString("# ")
	b.WriteString(issue.Title)
	b.WriteString("\n\n")
	if issue.Description != "" {
		b.WriteString(issue.Description)
		b.WriteString("\n\n")
	}

	if related := renderRelated(issue); related != "" {
		b.WriteString(related)
	}

	return []byte(b.String())
}

func renderRelated(issue types.Issue) string {
	sections := []struct {
		label string
		ids   []string
	}{
		{"Depends On", issue.DependsOn},
		{"Blocks", issue.Blocks},
		{"Children", issue.Children},
	}

	var any bool
	for _, s := range sections {
		if len(s.ids) > 0 {
			any = true
			break
		}
	}
	if !any {
		return ""
	}

	var b strings.Builder
	b.WriteString("### Related Issues\n\n")
	for _, s := range sections {
		if len(s.ids) == 0 {
			continue
		}
		b.WriteString("**")
		b.WriteString(s.label)
		b.WriteString(":** ")
		links := make([]string, len(s.ids))
		for i, id := range s.ids {
			links[i] = fmt.Sprintf("[%s](./%s.md)", id, id)
		}
		b.WriteString(strings.Join(links, ", "))
		b.WriteString("\n\n")
	}
	return b.String()
}

// stripTitleAndRelated removes the leading "# Title" heading and any
// trailing "### Related Issues" section so a round-tripped file's body
// reduces back to the original Description.
func stripTitleAndRelated(body string) string {
	body = strings.TrimPrefix(body, "\n")
	if idx := strings.Index(body, "### Related Issues"); idx >= 0 {
		body = body[:idx]
	}
	lines := strings.SplitN(strings.TrimLeft(body, "\n"), "\n", 2)
	if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[0]), "# ") {
		if len(lines) == 2 {
			return lines[1]
		}
		return ""
	}
	return body
}

// ETag returns an FNV-1a hash of the issue's serialized bytes, used for
// optimistic-concurrency checks when applying a merged record.
func ETag(issue types.Issue) string {
	h := fnv.New64a()
	h.Write(Serialize(issue)) //nolint:errcheck // hash.Write never returns an error
	return hex.EncodeToString(h.Sum(nil))
}

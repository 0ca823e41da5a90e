// Package template implements the Template Renderer (C10): resolving a
// template by chain (custom → preset → built-in), substituting `{a.b.c}`
// slots, and invoking a small fixed component set.
package template

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/beadsync/beadsync/internal/types"
)

//go:embed builtins/*.mdx
var builtinFS embed.FS

// DefaultPreset is used when the caller doesn't name one.
const DefaultPreset = "minimal"

var slotPattern = regexp.MustCompile(`\{\{[^}]*\}\}|\{[^{}]+\}`)

// Resolve returns the template source for preset, following the
// resolution chain: a custom template (Issue.mdx or TODO.mdx) under
// templateDir, then a preset under templateDir/presets, then the
// embedded built-in for preset.
func Resolve(templateDir, kind, preset string) (string, error) {
	if preset == "" {
		preset = DefaultPreset
	}

	if templateDir != "" {
		custom := filepath.Join(templateDir, kind+".mdx")
		if data, err := os.ReadFile(custom); err == nil { // #nosec G304 -- operator-configured template dir
			return string(data), nil
		}

		presetPath := filepath.Join(templateDir, "presets", preset+".mdx")
		if data, err := os.ReadFile(presetPath); err == nil { // #nosec G304
			return string(data), nil
		}
	}

	data, err := builtinFS.ReadFile("builtins/" + preset + ".mdx")
	if err != nil {
		return "", fmt.Errorf("no built-in preset %q: %w", preset, err)
	}
	return string(data), nil
}

// Render substitutes every `{a.b.c}` slot in tmpl by resolving the dotted
// path against data; `{{…}}` is a literal escape that passes through as
// `{…}`. Arrays render comma-joined; null/missing render empty;
// everything else renders via its string form.
func Render(tmpl string, data map[string]any) string {
	return slotPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		if strings.HasPrefix(match, "{{") && strings.HasSuffix(match, "}}") {
			return "{" + match[2:len(match)-2] + "}"
		}
		path := match[1 : len(match)-1]
		return formatValue(resolvePath(path, data))
	})
}

// resolvePath walks a dotted path (a.b.c) against nested
// map[string]any/[]any values.
func resolvePath(path string, data map[string]any) any {
	var current any = data
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = m[part]
	}
	return current
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []string:
		return strings.Join(val, ", ")
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = formatValue(item)
		}
		return strings.Join(parts, ", ")
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

// RenderIssue resolves and renders the per-issue template (custom
// Issue.mdx/preset/built-in chain) for a single issue.
func RenderIssue(templateDir, preset string, issue types.Issue) (string, error) {
	tmpl, err := Resolve(templateDir, "Issue", preset)
	if err != nil {
		return "", err
	}
	return Render(tmpl, IssueData(issue)), nil
}

// RenderTODO resolves and renders the aggregate TODO template (custom
// TODO.mdx/preset/built-in chain), expanding the fixed component set
// against the full issue set before slot substitution runs.
func RenderTODO(templateDir, preset string, issues []types.Issue) (string, error) {
	tmpl, err := Resolve(templateDir, "TODO", preset)
	if err != nil {
		return "", err
	}
	expanded := Components{Issues: issues}.ExpandComponents(tmpl)
	return Render(expanded, map[string]any{"count": len(issues)}), nil
}

// IssueData converts an Issue into the map[string]any shape Render
// expects for dotted-path resolution.
func IssueData(issue types.Issue) map[string]any {
	return map[string]any{
		"id":          issue.ID,
		"title":       issue.Title,
		"description": issue.Description,
		"status":      string(issue.Status),
		"type":        string(issue.Type),
		"priority":    issue.Priority,
		"assignee":    issue.Assignee,
		"parent":      issue.Parent,
		"labels":      issue.Labels,
		"dependsOn":   issue.DependsOn,
		"blocks":      issue.Blocks,
		"children":    issue.Children,
		"createdAt":   issue.CreatedAt,
		"updatedAt":   issue.UpdatedAt,
		"closedAt":    issue.ClosedAt,
	}
}

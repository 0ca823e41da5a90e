// Package pattern implements the Pattern Engine: deriving a filename from
// an Issue's fields, and reverse-extracting the issue id from a filename
// that matches a pattern.
package pattern

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/beadsync/beadsync/internal/errs"
	"github.com/beadsync/beadsync/internal/types"
)

// Default is the filename pattern used when none is configured.
const Default = "[yyyy-mm-dd] [Title].md"

// maxFilenameAttempts bounds the disambiguation suffix loop.
const maxFilenameAttempts = 10000

const titleMaxLen = 100

var tokenPattern = regexp.MustCompile(`\[([^\]]+)\]`)

var titleCaser = cases.Title(language.English)

var slugNonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Apply resolves pattern against issue, returning a filename not present
// in existing. Collisions are disambiguated with a "-1", "-2", …
// numeric suffix up to maxFilenameAttempts before failing.
func Apply(p string, issue types.Issue, existing map[string]bool) (string, error) {
	base := applyOnce(p, issue)
	if existing == nil || !existing[base] {
		return base, nil
	}

	ext := pathExt(base)
	stem := strings.TrimSuffix(base, ext)
	for i := 1; i <= maxFilenameAttempts; i++ {
		candidate := fmt.Sprintf("%s-%d%s", stem, i, ext)
		if !existing[candidate] {
			return candidate, nil
		}
	}
	return "", &errs.IOError{Path: base, Err: fmt.Errorf("exceeded %d filename disambiguation attempts", maxFilenameAttempts)}
}

func pathExt(name string) string {
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		return name[idx:]
	}
	return ""
}

// applyOnce resolves every token in p exactly once, without collision
// handling. Token case and the delimiter character immediately preceding
// the token select the transform: lowercase + trailing "-" slugifies,
// lowercase + trailing space preserves (space-normalized), and a
// capitalized token ([Title]) always title-cases regardless of
// delimiter.
func applyOnce(p string, issue types.Issue) string {
	var b strings.Builder
	last := 0
	matches := tokenPattern.FindAllStringSubmatchIndex(p, -1)

	for _, m := range matches {
		start, end := m[0], m[1]
		tokStart, tokEnd := m[2], m[3]
		token := p[tokStart:tokEnd]

		precedingLiteral := p[last:start]
		raw, isCapitalized := resolveToken(token, issue)

		var resolved string
		switch {
		case isCapitalized:
			resolved = titleCaser.String(raw)
		case strings.HasSuffix(precedingLiteral, "-"):
			resolved = slugify(raw)
		case strings.HasSuffix(precedingLiteral, " "):
			resolved = normalizeSpaces(raw)
		default:
			resolved = raw
		}

		if resolved == "" {
			precedingLiteral = suppressTrailingDelimiter(precedingLiteral)
		}
		b.WriteString(precedingLiteral)
		b.WriteString(resolved)
		last = end
	}
	b.WriteString(p[last:])
	return b.String()
}

// resolveToken resolves one [token] to its raw string value, and reports
// whether the token itself was written capitalized ([Title] vs [title]).
func resolveToken(token string, issue types.Issue) (value string, isCapitalized bool) {
	lower := strings.ToLower(token)
	isCapitalized = token != lower

	switch lower {
	case "id":
		return issue.ID, isCapitalized
	case "title":
		return truncateTitle(issue.Title), isCapitalized
	case "type":
		return string(issue.Type), isCapitalized
	case "priority":
		return strconv.Itoa(issue.Priority), isCapitalized
	case "assignee":
		return issue.Assignee, isCapitalized
	case "yyyy-mm-dd":
		ts := issue.CreatedAt
		if ts == "" {
			ts = issue.UpdatedAt
		}
		t, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			t = time.Now().UTC()
		}
		return t.Format("2006-01-02"), false
	default:
		return "", isCapitalized
	}
}

// slugify lowercases value and collapses runs of non-alphanumeric
// characters into a single "-".
func slugify(value string) string {
	lower := strings.ToLower(value)
	slug := slugNonAlnum.ReplaceAllString(lower, "-")
	return strings.Trim(slug, "-")
}

// normalizeSpaces collapses runs of whitespace into a single space.
func normalizeSpaces(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

// suppressTrailingDelimiter removes a single trailing "-" or " " from a
// literal so an empty token resolution doesn't leave stray "--" or a
// trailing space.
func suppressTrailingDelimiter(literal string) string {
	if strings.HasSuffix(literal, "-") || strings.HasSuffix(literal, " ") {
		return literal[:len(literal)-1]
	}
	return literal
}

// truncateTitle truncates a title to titleMaxLen, preferring the nearest
// earlier word boundary (space or dash) when that boundary falls past
// 70% of the limit, and strips trailing delimiter characters.
func truncateTitle(title string) string {
	if len(title) <= titleMaxLen {
		return strings.TrimRight(title, " -")
	}
	cut := title[:titleMaxLen]
	threshold := int(float64(titleMaxLen) * 0.7)

	lastBoundary := -1
	for i := len(cut) - 1; i >= threshold; i-- {
		if cut[i] == ' ' || cut[i] == '-' {
			lastBoundary = i
			break
		}
	}
	if lastBoundary >= 0 {
		cut = cut[:lastBoundary]
	}
	return strings.TrimRight(cut, " -")
}

package pattern

import (
	"regexp"
	"strings"
)

// Compile turns a filename pattern into a regular expression that
// extracts the issue id from a matching filename. [id] becomes a capture
// group whose shape depends on whether [title] follows it: a strict
// `\w+-\w{3,4}` form when it does (so the id doesn't swallow the title),
// a liberal `[\w-]+` form otherwise. [title] becomes a non-capturing
// `[^/]+`; [yyyy-mm-dd] matches a literal date shape. The whole pattern
// is anchored.
func Compile(p string) *regexp.Regexp {
	tokens := tokenPattern.FindAllStringSubmatchIndex(p, -1)

	var b strings.Builder
	b.WriteString("^")
	last := 0

	for i, m := range tokens {
		start, end := m[0], m[1]
		tokStart, tokEnd := m[2], m[3]
		token := strings.ToLower(p[tokStart:tokEnd])

		b.WriteString(regexp.QuoteMeta(p[last:start]))

		switch token {
		case "id":
			if followedByTitle(tokens, i, p) {
				b.WriteString(`(\w+-\w{3,4})`)
			} else {
				b.WriteString(`([\w-]+)`)
			}
		case "title":
			b.WriteString(`[^/]+`)
		case "yyyy-mm-dd":
			b.WriteString(`\d{4}-\d{2}-\d{2}`)
		default:
			b.WriteString(`.+`)
		}
		last = end
	}
	b.WriteString(regexp.QuoteMeta(p[last:]))
	b.WriteString("$")

	return regexp.MustCompile(b.String())
}

func followedByTitle(tokens [][]int, i int, p string) bool {
	for j := i + 1; j < len(tokens); j++ {
		tokStart, tokEnd := tokens[j][2], tokens[j][3]
		if strings.ToLower(p[tokStart:tokEnd]) == "title" {
			return true
		}
	}
	return false
}

// ExtractID applies a compiled pattern regex to filename, returning the
// captured id, or "" if the filename doesn't match or the pattern has no
// [id] token.
func ExtractID(re *regexp.Regexp, filename string) string {
	match := re.FindStringSubmatch(filename)
	if len(match) < 2 {
		return ""
	}
	return match[1]
}

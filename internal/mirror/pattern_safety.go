package mirror

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/beadsync/beadsync/internal/errs"
)

// patternCheckTimeout bounds how long a candidate pattern is allowed to
// run against a worst-case probe string before it's rejected. Go's RE2
// engine (regexp) is linear-time by construction and immune to
// catastrophic backtracking, so this is a defense-in-depth budget rather
// than the primary safeguard — the primary one is refusing constructs
// RE2 itself would reject or that are disproportionate to typical inputs.
const patternCheckTimeout = 200 * time.Millisecond

// maxPatternLength keeps a user-supplied convention pattern from being
// used as a resource-exhaustion vector via sheer size.
const maxPatternLength = 500

// ValidatePattern compiles pattern and exercises it against a crafted
// worst-case probe, rejecting it if compilation fails, the pattern is
// implausibly long, or the probe run exceeds patternCheckTimeout. Every
// conventions pattern must pass this gate before extractDependencies (or
// any other user-pattern consumer) is allowed to use it — unchecked user
// regexes are a DoS vector per spec.
func ValidatePattern(pattern string) error {
	if len(pattern) > maxPatternLength {
		return &errs.PatternUnsafeError{Pattern: pattern, Reason: "exceeds maximum pattern length"}
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return &errs.PatternUnsafeError{Pattern: pattern, Reason: "does not compile: " + err.Error()}
	}

	probe := strings.Repeat("a", 256) + "!"
	done := make(chan struct{})
	ctx, cancel := context.WithTimeout(context.Background(), patternCheckTimeout)
	defer cancel()

	go func() {
		re.FindStringSubmatch(probe)
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return &errs.PatternUnsafeError{Pattern: pattern, Reason: "exceeded evaluation time budget on probe input"}
	}
}

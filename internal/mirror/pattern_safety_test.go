package mirror

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePatternAcceptsSafeRegex(t *testing.T) {
	err := ValidatePattern(`(?i)depends on:\s*(#\d+(?:,\s*#\d+)*)`)
	assert.NoError(t, err)
}

func TestValidatePatternRejectsMalformedRegex(t *testing.T) {
	err := ValidatePattern(`(unclosed`)
	assert.Error(t, err)
}

func TestValidatePatternRejectsOverlongPattern(t *testing.T) {
	err := ValidatePattern(strings.Repeat("a", maxPatternLength+1))
	assert.Error(t, err)
}

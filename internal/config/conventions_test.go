package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConventionsAppliesDefaultsForMissingFields(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "conventions.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"labels.status.inProgress": "working"}`), 0o644))

	conv, err := LoadConventions(path)
	require.NoError(t, err)
	assert.Equal(t, "working", conv.LabelsStatusInProgress)
	assert.NotEmpty(t, conv.DependenciesPattern) // default retained
}

func TestLoadConventionsRejectsUnsafePattern(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "conventions.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"dependencies.pattern": "(unclosed"}`), 0o644))

	_, err := LoadConventions(path)
	assert.Error(t, err)
}

func TestLoadConventionsMissingFileErrors(t *testing.T) {
	_, err := LoadConventions(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

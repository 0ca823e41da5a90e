package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAppendsNewKey(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, Set(root, "conflict_strategy", "local-wins"))

	data, err := os.ReadFile(filepath.Join(root, ".beads", "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "conflict_strategy: local-wins")
}

func TestSetUpdatesExistingKeyInPlace(t *testing.T) {
	root := t.TempDir()
	writeConfigYaml(t, root, "conflict_strategy: github-wins\ndebounce_ms: 300\n")

	require.NoError(t, Set(root, "conflict_strategy", "newest-wins"))

	data, err := os.ReadFile(filepath.Join(root, ".beads", "config.yaml"))
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "conflict_strategy: newest-wins")
	assert.Contains(t, content, "debounce_ms: 300")
	assert.NotContains(t, content, "github-wins")
}

func TestSetUncommentsExistingKey(t *testing.T) {
	root := t.TempDir()
	writeConfigYaml(t, root, "# conflict_strategy: local-wins\n")

	require.NoError(t, Set(root, "conflict_strategy", "file-wins"))

	data, err := os.ReadFile(filepath.Join(root, ".beads", "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "conflict_strategy: file-wins")
	assert.NotContains(t, string(data), "#")
}

func TestFormatYamlValueQuotesSpecialCharacters(t *testing.T) {
	assert.Equal(t, "true", formatYamlValue("true"))
	assert.Equal(t, "300", formatYamlValue("300"))
	assert.Equal(t, `"a: b"`, formatYamlValue("a: b"))
	assert.Equal(t, "plain", formatYamlValue("plain"))
}

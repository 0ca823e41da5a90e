package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Set updates a single key in `<root>/.beads/config.yaml`, preserving the
// rest of the file (including comments) rather than rewriting it from a
// parsed struct. If the key already exists (commented or not) it is
// replaced in place; otherwise it is appended.
func Set(root, key, value string) error {
	path := filepath.Join(root, ".beads", "config.yaml")
	content, err := os.ReadFile(path) // #nosec G304 -- root is operator-supplied
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("read %s: %w", path, err)
		}
		content = nil
	}

	updated := updateYamlKey(string(content), key, value)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(updated), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// updateYamlKey replaces key's line (commented or not) in content with
// "key: value", or appends it if absent.
func updateYamlKey(content, key, value string) string {
	newLine := fmt.Sprintf("%s: %s", key, formatYamlValue(value))
	keyPattern := regexp.MustCompile(`^(\s*)(#\s*)?` + regexp.QuoteMeta(key) + `\s*:`)

	var result []string
	found := false

	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := scanner.Text()
		if matches := keyPattern.FindStringSubmatch(line); matches != nil {
			result = append(result, matches[1]+newLine)
			found = true
			continue
		}
		result = append(result, line)
	}

	if !found {
		if len(result) > 0 && result[len(result)-1] != "" {
			result = append(result, "")
		}
		result = append(result, newLine)
	}

	return strings.Join(result, "\n") + "\n"
}

// formatYamlValue renders value in the form a YAML writer would emit:
// booleans and numbers bare, everything else quoted if it contains YAML
// metacharacters.
func formatYamlValue(value string) string {
	lower := strings.ToLower(value)
	if lower == "true" || lower == "false" {
		return lower
	}
	if _, err := strconv.Atoi(value); err == nil {
		return value
	}
	if _, err := strconv.ParseFloat(value, 64); err == nil {
		return value
	}
	if needsQuoting(value) {
		return strconv.Quote(value)
	}
	return value
}

func needsQuoting(s string) bool {
	const special = ":#[]{},&*!|>'\"%@`"
	if strings.TrimSpace(s) != s {
		return true
	}
	return strings.ContainsAny(s, special)
}

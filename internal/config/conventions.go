package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/beadsync/beadsync/internal/mirror"
	"github.com/beadsync/beadsync/internal/types"
)

// LoadConventions reads a per-installation conventions JSON file (spec.md
// §6's "Conventions record") and validates every user-supplied regex
// through the mirror package's pattern-safety gate before returning it.
// A pattern that fails validation aborts the load entirely, since
// pattern-unsafe is one of the error kinds that aborts the current
// operation rather than degrading gracefully.
func LoadConventions(path string) (types.Conventions, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied installation config path
	if err != nil {
		return types.Conventions{}, fmt.Errorf("read conventions %s: %w", path, err)
	}

	conv := types.DefaultConventions()
	if err := json.Unmarshal(data, &conv); err != nil {
		return types.Conventions{}, fmt.Errorf("parse conventions %s: %w", path, err)
	}

	if err := mirror.ValidatePattern(conv.DependenciesPattern); err != nil {
		return types.Conventions{}, fmt.Errorf("dependencies.pattern: %w", err)
	}
	if err := mirror.ValidatePattern(conv.EpicsBodyPattern); err != nil {
		return types.Conventions{}, fmt.Errorf("epics.bodyPattern: %w", err)
	}

	return conv, nil
}

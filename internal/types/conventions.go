package types

// DefaultConventions returns the built-in label/pattern mapping used when
// an installation supplies no conventions record of its own.
func DefaultConventions() Conventions {
	return Conventions{
		LabelsType: map[string]string{
			"bug":     "bug",
			"feature": "feature",
			"epic":    "epic",
			"chore":   "chore",
			"task":    "task",
		},
		LabelsPriority: map[string]int{
			"critical": 0,
			"high":     1,
			"medium":   2,
			"low":      3,
			"backlog":  4,
		},
		LabelsStatusInProgress: "in-progress",
		LabelsStatusBlocked:    "blocked",
		DependenciesPattern:    `(?i)depends on:\s*(#\d+(?:,\s*#\d+)*)`,
		DependenciesSeparator:  ",",
		EpicsLabelPrefix:       "epic:",
		EpicsBodyPattern:       `(?i)epic:\s*#(\d+)`,
	}
}

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/beadsync/beadsync/internal/config"
	"github.com/beadsync/beadsync/internal/store"
)

// doctorCheck mirrors the teacher's doctor-report shape: a name, a status
// (ok/warning/error), a human message, and an optional fix hint.
type doctorCheck struct {
	Name    string
	Status  string
	Message string
	Fix     string
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose the project's beadsync setup",
	RunE:  runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	checks := []doctorCheck{
		checkBeadsDir(),
		checkTodoDir(),
		checkStoreParses(),
		checkStoreHygiene(),
		checkConventions(),
	}

	failing := 0
	for _, c := range checks {
		fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s: %s\n", c.Status, c.Name, c.Message)
		if c.Status != "ok" && c.Fix != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "       fix: %s\n", c.Fix)
		}
		if c.Status == "error" {
			failing++
		}
	}

	if failing > 0 {
		return fmt.Errorf("%d check(s) failed", failing)
	}
	return nil
}

func checkBeadsDir() doctorCheck {
	path := filepath.Join(rootDir, ".beads")
	if _, err := os.Stat(path); err != nil {
		return doctorCheck{Name: "beads dir", Status: "error", Message: ".beads/ not found", Fix: "run 'beadsync init'"}
	}
	return doctorCheck{Name: "beads dir", Status: "ok", Message: path}
}

func checkTodoDir() doctorCheck {
	path := filepath.Join(rootDir, ".todo")
	if _, err := os.Stat(path); err != nil {
		return doctorCheck{Name: "todo dir", Status: "warning", Message: ".todo/ not found", Fix: "run 'beadsync init' or 'beadsync sync'"}
	}
	return doctorCheck{Name: "todo dir", Status: "ok", Message: path}
}

func checkStoreParses() doctorCheck {
	st := store.New(rootDir)
	issues, lineErrs, err := st.Load()
	if err != nil {
		return doctorCheck{Name: "store", Status: "error", Message: err.Error(), Fix: "inspect .beads/issues.jsonl for corruption"}
	}
	if len(lineErrs) > 0 {
		return doctorCheck{
			Name:    "store",
			Status:  "warning",
			Message: fmt.Sprintf("%d corrupt line(s) skipped out of otherwise %d issue(s)", len(lineErrs), len(issues)),
			Fix:     "inspect .beads/issues.jsonl and repair or remove the bad lines",
		}
	}
	return doctorCheck{Name: "store", Status: "ok", Message: fmt.Sprintf("%d issue(s) loaded cleanly", len(issues))}
}

func checkStoreHygiene() doctorCheck {
	st := store.New(rootDir)
	issues, _, err := st.Load()
	if err != nil {
		return doctorCheck{Name: "store hygiene", Status: "error", Message: err.Error()}
	}
	result := store.Clean(issues)
	if len(result.Rejections) == 0 {
		return doctorCheck{Name: "store hygiene", Status: "ok", Message: "no duplicate ids or dangling references"}
	}
	return doctorCheck{
		Name:    "store hygiene",
		Status:  "warning",
		Message: fmt.Sprintf("%d duplicate id(s) or dangling reference(s) found", len(result.Rejections)),
		Fix:     "edit .beads/issues.jsonl to remove the duplicate or dangling entries, then re-run doctor",
	}
}

func checkConventions() doctorCheck {
	path := filepath.Join(rootDir, ".beads", "conventions.json")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return doctorCheck{Name: "conventions", Status: "ok", Message: "using built-in defaults"}
	}
	if _, err := config.LoadConventions(path); err != nil {
		return doctorCheck{Name: "conventions", Status: "error", Message: err.Error(), Fix: "fix conventions.json's regex fields"}
	}
	return doctorCheck{Name: "conventions", Status: "ok", Message: path}
}

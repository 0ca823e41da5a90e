package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/beadsync/beadsync/internal/config"
	"github.com/beadsync/beadsync/internal/mirror"
	"github.com/beadsync/beadsync/internal/store"
	"github.com/beadsync/beadsync/internal/tracker"
)

var mirrorInstallation string

var mirrorCmd = &cobra.Command{
	Use:   "mirror",
	Short: "Drive the external-tracker mirror outside of webhook push",
}

var mirrorPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Pull every issue, open or closed, from the external tracker and reconcile",
	RunE:  runMirrorPull,
}

func init() {
	mirrorPullCmd.Flags().StringVar(&mirrorInstallation, "installation", "", "installation id (accepted but not used; owner and repo always come from GITHUB_OWNER/GITHUB_REPO)")
	mirrorCmd.AddCommand(mirrorPullCmd)
}

func runMirrorPull(cmd *cobra.Command, args []string) error {
	owner := os.Getenv("GITHUB_OWNER")
	repo := os.Getenv("GITHUB_REPO")
	token := os.Getenv("GITHUB_PRIVATE_KEY")
	if owner == "" || repo == "" {
		return newArgumentError("GITHUB_OWNER and GITHUB_REPO environment variables are required")
	}

	cfg, err := config.Load(rootDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st := store.New(rootDir)
	mappings := mirror.NewMappingStore(rootDir)
	client := tracker.NewClient(token, owner, repo)
	orc := mirror.New(client, st, mappings, loadOrDefaultConventions(), cfg.MirrorStrategyValue())

	stats, err := orc.Pull(context.Background())
	if err != nil {
		return fmt.Errorf("mirror pull: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "pulled=%d created=%d updated=%d pushed=%d skipped=%d conflicts=%d\n",
		stats.Pulled, stats.Created, stats.Updated, stats.Pushed, stats.Skipped, len(stats.Conflicts))
	return nil
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/beadsync/beadsync/internal/config"
	"github.com/beadsync/beadsync/internal/daemon"
	"github.com/beadsync/beadsync/internal/mirror"
	"github.com/beadsync/beadsync/internal/store"
	"github.com/beadsync/beadsync/internal/tracker"
	"github.com/beadsync/beadsync/internal/webhook"
)

var webhookAddr string

var webhookCmd = &cobra.Command{
	Use:   "webhook",
	Short: "Webhook ingestion and the sync daemon",
}

var webhookServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook server and mirror daemon",
	RunE:  runWebhookServe,
}

func init() {
	webhookServeCmd.Flags().StringVar(&webhookAddr, "addr", ":8080", "address to listen on")
	webhookCmd.AddCommand(webhookServeCmd)
}

func runWebhookServe(cmd *cobra.Command, args []string) error {
	secret := os.Getenv("GITHUB_WEBHOOK_SECRET")
	if secret == "" {
		return newArgumentError("GITHUB_WEBHOOK_SECRET environment variable is required")
	}

	cfg, err := config.Load(rootDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st := store.New(rootDir)
	mappings := mirror.NewMappingStore(rootDir)

	token := os.Getenv("GITHUB_PRIVATE_KEY")
	owner := os.Getenv("GITHUB_OWNER")
	repo := os.Getenv("GITHUB_REPO")
	client := tracker.NewClient(token, owner, repo)

	orc := mirror.New(client, st, mappings, loadOrDefaultConventions(), cfg.MirrorStrategyValue())

	ingestor, err := webhook.New(secret, func(ev webhook.Event) error {
		_, err := orc.ProcessWebhookEvent(context.Background(), ev)
		return err
	})
	if err != nil {
		return fmt.Errorf("start webhook ingestor: %w", err)
	}

	w, err := buildWatcherForDaemon(cfg)
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}

	d := daemon.New(w, daemon.Options{
		Addr:         webhookAddr,
		Ingestor:     ingestor,
		Orchestrator: orc,
		Log:          logger,
	})

	fmt.Fprintf(cmd.OutOrStdout(), "Serving webhook on %s\n", webhookAddr)
	return d.Run(context.Background())
}

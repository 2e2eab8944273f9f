package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"

	"clipcast/internal/catalog"
	"clipcast/internal/config"
	"clipcast/internal/logging"
	"clipcast/internal/notifications"
	"clipcast/internal/publisher"
	"clipcast/internal/relay"
	"clipcast/internal/retry"
	"clipcast/internal/transform"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Relay one clip from the catalog to the destination",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.ValidateForRelay(); err != nil {
				return err
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			runCtx, cancel := context.WithTimeout(runCtx, time.Duration(cfg.Workflow.RunTimeoutMinutes)*time.Minute)
			defer cancel()

			store, err := ctx.openStore(logger)
			if err != nil {
				return err
			}
			defer store.Close()

			var cat catalog.Catalog
			if cfg.Selector.Policy == config.PolicyOldestUnseen {
				cat, err = newCatalog(runCtx, cfg)
				if err != nil {
					return err
				}
			}

			policy := retry.Policy{
				MaxRetries: cfg.Retry.MaxRetries,
				Delay:      time.Duration(cfg.Retry.DelaySeconds) * time.Second,
			}
			destination := publisher.NewClient(cfg.Destination, policy, logging.WithComponent(logger, "publisher"))
			transcoder := transform.NewFFmpeg(cfg.Transform, cfg.Paths.StagingDir)
			notifier := notifications.NewService(cfg.Notifications)

			r := relay.New(cfg, cat, transcoder, destination, store, notifier, logging.WithComponent(logger, "relay"))
			outcome, err := r.Run(runCtx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !outcome.Relayed {
				fmt.Fprintln(out, "Nothing to relay")
				return nil
			}
			fmt.Fprintf(out, "Relayed %s (video %s)\n", outcome.ItemName, outcome.VideoID)
			if outcome.StateSyncDegraded {
				fmt.Fprintln(out, "Warning: remote state mirror is stale; the next run may repeat this item")
			}
			return nil
		},
	}
}

// newCatalog builds the catalog client. A bearer token takes precedence
// over a credentials file so CI runners can authenticate without a JSON
// key on disk.
func newCatalog(ctx context.Context, cfg *config.Config) (catalog.Catalog, error) {
	var opts []option.ClientOption
	switch {
	case cfg.Source.AccessToken != "":
		source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Source.AccessToken})
		opts = append(opts, option.WithTokenSource(source))
	case cfg.Source.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.Source.CredentialsFile))
	}
	return catalog.NewDrive(ctx, cfg.Source.MinDownloadBytes, opts...)
}

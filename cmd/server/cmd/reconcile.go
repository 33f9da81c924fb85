package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zzuhann/stellar/internal/config"
	"github.com/zzuhann/stellar/internal/domain/crossref"
	"github.com/zzuhann/stellar/internal/store"
	"github.com/zzuhann/stellar/internal/store/firestore"
)

var reconcileTimeout time.Duration

// reconcileCmd rebuilds performer/event cross-references from scratch.
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Rebuild performer active event references",
	Long: `Recompute every performer's active event list from the approved,
not-yet-ended events that reference them.

The incremental maintenance that runs on each moderation decision is
best-effort; a crashed process or partial write can leave a performer's
list stale. This command re-derives the ground truth and patches only
the performers whose stored list differs.

Examples:
  # Rebuild all cross-references
  server reconcile

  # Allow a longer run on a large dataset
  server reconcile --timeout 10m`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReconcile(cmd)
	},
}

func init() {
	reconcileCmd.Flags().DurationVar(&reconcileTimeout, "timeout", 5*time.Minute, "overall run timeout")
}

func runReconcile(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	logger := config.NewLogger(cfg.Logging)

	ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
	defer cancel()

	fsClient, err := firestore.New(ctx, cfg.Store.ProjectID)
	if err != nil {
		return fmt.Errorf("firestore connection failed: %w", err)
	}
	defer fsClient.Close()

	gateway := store.NewGateway(fsClient, logger,
		store.WithTimeout(cfg.Store.CallTimeout),
		store.WithMaxAttempts(cfg.Store.MaxAttempts),
	)

	updated, err := crossref.NewMaintainer(gateway, logger).Rebuild(ctx)
	if err != nil {
		return fmt.Errorf("rebuild cross-references: %w", err)
	}
	logger.Info().Int("updated", updated).Msg("cross-reference rebuild complete")
	fmt.Fprintf(cmd.OutOrStdout(), "updated %d performers\n", updated)
	return nil
}

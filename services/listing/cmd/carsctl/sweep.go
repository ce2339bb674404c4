package main

import (
	"context"
	"fmt"
	"time"

	"avto-sawda/pkg/cache"
	"avto-sawda/services/listing/internal/sweep"

	"github.com/spf13/cobra"
)

const sweepLockTTL = 5 * time.Minute

func newSweepCmd() *cobra.Command {
	var views bool
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Expire stale listings once, optionally growing views too",
		RunE: withEnv(func(ctx context.Context, e *env, cmd *cobra.Command) error {
			rdb := cache.NewRedisClient(e.cfg)
			defer rdb.Close()

			lock, err := cache.TryLock(ctx, rdb, "sweep:expiry", sweepLockTTL)
			if err != nil {
				return fmt.Errorf("failed to take sweep lock: %w", err)
			}
			if lock == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "another instance is sweeping, nothing to do")
				return nil
			}
			defer lock.Release(context.Background())

			if err := sweep.NewExpirySweeper(e.listings, nil, e.log).Run(ctx); err != nil {
				return err
			}
			if views {
				if err := sweep.NewViewsGrower(e.listings, nil, e.log).Run(ctx); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), "sweep done")
			return nil
		}),
	}
	cmd.Flags().BoolVar(&views, "views", false, "also run the views growth job")
	return cmd
}

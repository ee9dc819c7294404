package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wordhoard/wordhoard/internal/definition"
)

func newCacheCommand() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the result cache",
	}

	cacheCmd.AddCommand(newCacheStatsCommand())
	cacheCmd.AddCommand(newCachePurgeCommand())
	cacheCmd.AddCommand(newCacheInvalidateCommand())

	return cacheCmd
}

func newCacheStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show entry and access counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			cache, err := definition.OpenResultCache(cfg.Cache.Path)
			if err != nil {
				return fmt.Errorf("definition.OpenResultCache > %w", err)
			}
			defer cache.Close()

			stats, err := cache.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("cache.Stats > %w", err)
			}

			fmt.Printf("Entries:        %d\n", stats.Entries)
			fmt.Printf("Total accesses: %d\n", stats.TotalAccesses)
			if !stats.OldestCachedAt.IsZero() {
				fmt.Printf("Oldest entry:   %s\n", stats.OldestCachedAt.Format(time.RFC3339))
			}
			return nil
		},
	}
}

func newCachePurgeCommand() *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete expired and stale-schema entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			cache, err := definition.OpenResultCache(cfg.Cache.Path)
			if err != nil {
				return fmt.Errorf("definition.OpenResultCache > %w", err)
			}
			defer cache.Close()

			maxAge := olderThan
			if maxAge <= 0 {
				maxAge = time.Duration(cfg.Cache.MaxAgeHours) * time.Hour
			}
			purged, err := cache.PurgeExpired(cmd.Context(), maxAge)
			if err != nil {
				return fmt.Errorf("cache.PurgeExpired > %w", err)
			}

			fmt.Printf("Purged %d entries\n", purged)
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "Purge entries older than this duration (default: configured max age)")
	return cmd
}

func newCacheInvalidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "invalidate <term>",
		Short: "Drop the cached result for one term",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			cache, err := definition.OpenResultCache(cfg.Cache.Path)
			if err != nil {
				return fmt.Errorf("definition.OpenResultCache > %w", err)
			}
			defer cache.Close()

			if err := cache.Invalidate(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("cache.Invalidate > %w", err)
			}
			return nil
		},
	}
}

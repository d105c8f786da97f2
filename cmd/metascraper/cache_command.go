package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"metascraper/internal/cache"
	"metascraper/internal/logging"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the response cache",
	}

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show cache backend, entry count, and size",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(cmd.Context(), ctx, func(store cache.Cache) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return fmt.Errorf("cache stats: %w", err)
				}
				out := cmd.OutOrStdout()
				rows := [][]string{
					{"Backend", stats.Backend},
					{"Location", stats.Location},
					{"Entries", strconv.Itoa(stats.Entries)},
					{"Expired", strconv.Itoa(stats.Expired)},
					{"Size", formatBytes(stats.Bytes)},
				}
				fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows, nil, shouldColorize(out)))
				return nil
			})
		},
	})

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Remove expired cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(cmd.Context(), ctx, func(store cache.Cache) error {
				removed, err := store.Purge(cmd.Context())
				if err != nil {
					return fmt.Errorf("cache purge: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired entries\n", removed)
				return nil
			})
		},
	})

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every cache entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(cmd.Context(), ctx, func(store cache.Cache) error {
				removed, err := store.Clear(cmd.Context())
				if err != nil {
					return fmt.Errorf("cache clear: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries\n", removed)
				return nil
			})
		},
	})

	return cacheCmd
}

func withCache(_ context.Context, ctx *commandContext, fn func(cache.Cache) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	logger, err := ctx.logger(cfg)
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	store, err := cache.Open(cfg, logger)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Debug("cache close failed", logging.Error(err))
		}
	}()
	return fn(store)
}

func formatBytes(n int64) string {
	return humanize.IBytes(uint64(max(n, 0)))
}

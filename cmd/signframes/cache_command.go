package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"signframes/internal/clipstore"
	"signframes/internal/daemonrun"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the clip cache",
	}

	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCachePruneCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))

	return cacheCmd
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show clip cache usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(cmd, ctx, false, func(cache *clipstore.Cache) error {
				stats, err := cache.Stats(cmd.Context())
				if err != nil {
					return err
				}
				printCacheStats(cmd.OutOrStdout(), stats)
				return nil
			})
		},
	}
}

func newCachePruneCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove expired clip cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(cmd, ctx, false, func(cache *clipstore.Cache) error {
				removed, err := cache.Prune(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d expired entries\n", removed)
				return nil
			})
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every clip cache entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(cmd, ctx, true, func(cache *clipstore.Cache) error {
				removed, err := cache.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d entries\n", removed)
				return nil
			})
		},
	}
}

// withCache opens the configured cache for fn. With resetIncompatible, a cache
// written by another schema version is dropped and recreated instead of
// failing.
func withCache(cmd *cobra.Command, ctx *commandContext, resetIncompatible bool, fn func(*clipstore.Cache) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if !cfg.ClipCache.Enabled {
		fmt.Fprintln(cmd.OutOrStdout(), "Clip cache is disabled (set clip_cache.enabled = true)")
		return nil
	}
	cache, err := daemonrun.OpenCache(cfg)
	if resetIncompatible && errors.Is(err, clipstore.ErrSchemaMismatch) {
		if resetErr := daemonrun.ResetCache(cmd.Context(), cfg); resetErr != nil {
			return resetErr
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Recreated incompatible cache at %s\n", cfg.ClipCache.Path)
		cache, err = daemonrun.OpenCache(cfg)
	}
	if err != nil {
		return err
	}
	defer cache.Close()
	return fn(cache)
}

func printCacheStats(out io.Writer, stats clipstore.Stats) {
	const stampLayout = "2006-01-02 15:04"
	stamp := func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.Local().Format(stampLayout)
	}
	fmt.Fprintf(out, "Path: %s\n", stats.Path)
	fmt.Fprintln(out, tableSpec{
		headers: []string{"Clips", "Missing", "Size", "Oldest", "Newest"},
		rows: [][]string{{
			fmt.Sprint(stats.Clips),
			fmt.Sprint(stats.Missing),
			humanBytes(stats.Bytes),
			stamp(stats.Oldest),
			stamp(stats.Newest),
		}},
		aligns: []columnAlignment{alignRight, alignRight, alignRight, alignLeft, alignLeft},
	}.render())
}

func humanBytes(v int64) string {
	const unit = 1024
	if v < unit {
		return fmt.Sprintf("%d B", v)
	}
	div := int64(unit)
	exp := 0
	for n := v / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	value := float64(v) / float64(div)
	return fmt.Sprintf("%.1f %ciB", value, "KMGTPEZY"[exp])
}

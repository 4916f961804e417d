package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/sma-timetable-api/internal/repository"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	"github.com/noah-isme/sma-timetable-api/pkg/cache"
)

var cacheFlushPattern string

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the Redis cache",
}

var cacheFlushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Drop cached entries so the next request reloads them",
	Long: `Remove cached entries matching a pattern. Run it after editing the holiday
calendar so slot catalogs pick up the change before the cache TTL expires.

Examples:
  timetablectl cache flush
  timetablectl cache flush --pattern 'timetable:holidays:2025-01-*'
`,
	Args: cobra.NoArgs,
	RunE: runCacheFlush,
}

func init() {
	cacheFlushCmd.Flags().StringVar(&cacheFlushPattern, "pattern", service.HolidayCachePattern, "Key pattern to remove")
	cacheCmd.AddCommand(cacheFlushCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheFlush(cmd *cobra.Command, _ []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	client, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	repo := repository.NewCacheRepository(client, logr)
	defer repo.Close() //nolint:errcheck

	svc := service.NewCacheService(repo, nil, cfg.Cache.DefaultTTL, logr, true)
	removed, err := svc.Invalidate(cmd.Context(), cacheFlushPattern)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "removed %d keys matching %s\n", removed, cacheFlushPattern)
	return err
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"hris/internal/app/server"
	"hris/internal/domain/payroll"
	"hris/internal/platform/cache"
	"hris/internal/platform/config"
	"hris/internal/platform/db"
)

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "Manage statutory tax tables",
}

var tablesLoadCmd = &cobra.Command{
	Use:   "load <dir>",
	Short: "Store every table set in dir",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTables(cmd.Context(), func(ctx context.Context, tables *payroll.TableService) error {
			years, err := server.LoadTables(ctx, tables, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "loaded %d table set(s): %v\n", len(years), years)
			return nil
		})
	},
}

var tablesWatchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Load dir, then reload each table file when it changes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return withTables(ctx, func(ctx context.Context, tables *payroll.TableService) error {
			if _, err := server.LoadTables(ctx, tables, args[0]); err != nil {
				return err
			}
			return server.WatchTables(ctx, tables, args[0])
		})
	},
}

var tablesSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Store the built-in table sets for years not yet stored",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTables(cmd.Context(), func(ctx context.Context, tables *payroll.TableService) error {
			years, err := tables.SeedBuiltin(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d table set(s): %v\n", len(years), years)
			return nil
		})
	},
}

func init() {
	tablesCmd.AddCommand(tablesLoadCmd, tablesWatchCmd, tablesSeedCmd)
	rootCmd.AddCommand(tablesCmd)
}

// withTables opens the table service against the shared cache so running
// servers drop stale years as soon as the command writes.
func withTables(ctx context.Context, fn func(context.Context, *payroll.TableService) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	backend, closeCache, err := tableCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	store := payroll.NewTableStore(pool)
	tables := payroll.NewTableService(store, payroll.NewCachedSource(store, backend, cfg.CacheTTL))
	return fn(ctx, tables)
}

func tableCache(ctx context.Context, cfg config.Config) (cache.Backend, func(), error) {
	if cfg.RedisURL == "" {
		return cache.NewMemory(), func() {}, nil
	}
	redis, err := cache.NewRedis(cfg.RedisURL, "hris")
	if err != nil {
		return nil, nil, err
	}
	if err := redis.Ping(ctx); err != nil {
		_ = redis.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}
	return redis, func() { _ = redis.Close() }, nil
}

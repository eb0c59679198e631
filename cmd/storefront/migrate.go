package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MorseWayne/storefront/internal/config"
	"github.com/MorseWayne/storefront/internal/database"
)

// migrateCmd 管理 mysql 存储驱动使用的 client_storage 表
func migrateCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the MySQL storage schema",
	}

	withDB := func(fn func(db *database.DB, cfg *config.Config, lg *zap.Logger) error) error {
		cfg, lg, err := opts.load("")
		if err != nil {
			return err
		}
		defer func() { _ = lg.Sync() }()

		db, err := database.New(cfg, lg)
		if err != nil {
			return err
		}
		defer func() {
			if err := db.Close(); err != nil {
				lg.Sugar().Errorw("failed to close database", "error", err)
			}
		}()
		return fn(db, cfg, lg)
	}

	var steps int
	var target uint

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(db *database.DB, cfg *config.Config, lg *zap.Logger) error {
				lg.Info("running up migrations...")
				return db.RunMigrations(cfg.Migrations.Dir)
			})
		},
	}

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(db *database.DB, cfg *config.Config, lg *zap.Logger) error {
				lg.Sugar().Infow("running down migrations", "steps", steps)
				return db.MigrateDown(cfg.Migrations.Dir, steps)
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "Number of migrations to roll back")

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(db *database.DB, cfg *config.Config, lg *zap.Logger) error {
				v, dirty, err := db.Version(cfg.Migrations.Dir)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{"version": v, "dirty": dirty})
			})
		},
	}

	force := &cobra.Command{
		Use:   "force",
		Short: "Force the schema version and clear the dirty flag",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(db *database.DB, cfg *config.Config, lg *zap.Logger) error {
				lg.Sugar().Warnw("forcing migration version - this will clear dirty state", "target", target)
				return db.ForceMigrationVersion(cfg.Migrations.Dir, target)
			})
		},
	}
	force.Flags().UintVar(&target, "target", 0, "Version to force")

	cmd.AddCommand(up, down, version, force)
	return cmd
}

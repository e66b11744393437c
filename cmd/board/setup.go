package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bitfantasy/agileboard/internal/board/repository"
	"github.com/bitfantasy/agileboard/internal/board/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var setupTimeout time.Duration

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create or upgrade the board schema, change triggers and buckets",
	Long: `Creates the profiles, sprints and work_items tables, adds any missing
columns, installs the change notification triggers and creates the public
avatars and attachments buckets. Safe to run again after an upgrade.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if !cfg.Configured() {
			return errors.New("BOARD_URL and BOARD_KEY must both be set")
		}

		zapLogger, err := initLogger(cfg.Log)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		defer zapLogger.Sync()

		ctx, cancel := context.WithTimeout(cmd.Context(), setupTimeout)
		defer cancel()

		db, err := initDatabase(cfg.Database, gormLogLevel(cfg.Log.Level))
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
		if err := repository.EnsureSchema(ctx, db, cfg.Realtime.Channel, zapLogger); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
		zapLogger.Info("Schema ready", zap.String("channel", cfg.Realtime.Channel))

		files, err := initStorage(cfg.MinIO, zapLogger)
		if err != nil {
			return err
		}
		if files == nil {
			zapLogger.Warn("minio.endpoint not set, skipping buckets")
			return nil
		}
		if err := files.EnsureBuckets(ctx, storage.BucketAvatars, storage.BucketAttachments); err != nil {
			return fmt.Errorf("ensure buckets: %w", err)
		}
		zapLogger.Info("Buckets ready")
		return nil
	},
}

func init() {
	setupCmd.Flags().DurationVar(&setupTimeout, "timeout", 2*time.Minute, "overall timeout")
}

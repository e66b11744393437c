package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/bitfantasy/agileboard/internal/board/entity"
	"github.com/bitfantasy/agileboard/internal/board/export"
	"github.com/bitfantasy/agileboard/internal/board/repository"
	"github.com/bitfantasy/agileboard/internal/board/service"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export board data",
}

var exportDir string

var exportCostsCmd = &cobra.Command{
	Use:   "costs",
	Short: "Write the cost tracking workbook",
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

		db, err := initDatabase(cfg.Database, gormLogLevel(cfg.Log.Level))
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
		repos := repository.NewRepositories(db)
		board := service.NewBoard(service.Backend{
			Users:     repos.Profiles,
			Sprints:   repos.Sprints,
			WorkItems: repos.WorkItems,
		}, service.Options{Configured: true}, zapLogger)

		return exportCosts(cmd.Context(), board, exportDir)
	},
}

func exportCosts(ctx context.Context, board *service.Board, dir string) error {
	if err := board.Refresh(ctx); err != nil {
		return fmt.Errorf("load board: %w", err)
	}
	s := board.Snapshot()
	f, filename, err := export.CostWorkbook(s.WorkItems, s.Users, s.Sprints, entity.Today())
	if err != nil {
		return err
	}
	defer f.Close()

	path := filepath.Join(dir, filename)
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	fmt.Println(path)
	return nil
}

func init() {
	exportCostsCmd.Flags().StringVarP(&exportDir, "dir", "d", ".", "output directory")
	exportCmd.AddCommand(exportCostsCmd)
}

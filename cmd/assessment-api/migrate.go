package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fdam/assessment-planner/internal/config"
	"github.com/fdam/assessment-planner/internal/store"
	"github.com/fdam/assessment-planner/pkg/log"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			return err
		}

		logger := log.InitLog(log.ParseLevel(cfg.Service.LogLevel))
		defer func() { _ = logger.Sync() }()
		undo := zap.ReplaceGlobals(logger)
		defer undo()

		db, err := store.InitDB(cfg)
		if err != nil {
			return err
		}

		s := store.NewStore(db)
		defer s.Close()

		if err := s.InitialMigration(); err != nil {
			return err
		}

		zap.S().Named("migrate").Info("migration completed")
		return nil
	},
}

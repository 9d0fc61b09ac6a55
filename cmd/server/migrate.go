package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/easemail/easemail-backend/internal/config"
	"github.com/easemail/easemail-backend/internal/database"
	"github.com/easemail/easemail-backend/internal/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadWithValidation()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		log := logger.New(cfg.SlogLevel())

		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer database.Close(db)

		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("migrations applied")
		return nil
	},
}

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"opticart/internal/config"
	"opticart/internal/db"
	"opticart/internal/logging"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "manage",
	Short:         "Opticart management commands",
	Long:          "Database maintenance for the opticart backend: migrations, catalogue seeding, admin accounts and cleanup of expired codes and tokens.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(seedProductsCmd)
	rootCmd.AddCommand(createAdminCmd)
	rootCmd.AddCommand(pruneCmd)
}

// env is what every command needs: configuration, a logger and an open database.
type env struct {
	cfg *config.Config
	log *slog.Logger
	db  *gorm.DB
}

// boot loads config and opens the database connection.
func boot() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	gormDB, err := db.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, err
	}
	return &env{
		cfg: cfg,
		log: logging.New(os.Stderr, cfg.IsProduction(), cfg.LogLevel),
		db:  gormDB,
	}, nil
}

func (e *env) close() {
	if sqlDB, err := e.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

package main

import (
	"errors"

	"github.com/spf13/cobra"

	"opticart/internal/db"
)

// manage migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := boot()
		if err != nil {
			return err
		}
		defer e.close()
		if err := db.Migrate(e.db); err != nil {
			return err
		}
		e.log.Info("migrations applied", "driver", e.cfg.DBDriver)
		return nil
	},
}

var resetConfirmed bool

// manage reset --yes
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop every table and migrate from scratch",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resetConfirmed {
			return errors.New("reset drops all data; pass --yes to confirm")
		}
		e, err := boot()
		if err != nil {
			return err
		}
		defer e.close()
		if err := db.Reset(e.db); err != nil {
			return err
		}
		if err := db.Migrate(e.db); err != nil {
			return err
		}
		e.log.Warn("database reset", "driver", e.cfg.DBDriver)
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVar(&resetConfirmed, "yes", false, "confirm dropping all tables")
}

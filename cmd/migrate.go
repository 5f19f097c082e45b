package cmd

import (
	"StoryVault/migrations"
	"StoryVault/repositories"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update database tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := repositories.OpenDB(cfg.DB)
		if err != nil {
			return err
		}
		return migrations.RunMigrations(db)
	},
}

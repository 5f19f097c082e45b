package migrations

import (
	"fmt"

	"StoryVault/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RunMigrations creates or updates every table the service owns.
func RunMigrations(db *gorm.DB) error {
	logrus.Info("Running migrations...")

	tables := []struct {
		name  string
		model interface{}
	}{
		{"Chat", &models.Chat{}},
		{"GroupChat", &models.GroupChat{}},
		{"Message", &models.Message{}},
		{"Swipe", &models.Swipe{}},
		{"BackupHistory", &models.BackupHistory{}},
	}

	for _, t := range tables {
		if err := db.AutoMigrate(t.model); err != nil {
			return fmt.Errorf("failed to migrate %s: %w", t.name, err)
		}
	}

	logrus.Info("Migrations completed successfully!")
	return nil
}

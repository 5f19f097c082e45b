// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"path/filepath"
	"testing"

	"StoryVault/migrations"
	"StoryVault/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a migrated SQLite database in a temp dir owned by t.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "storyvault.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := migrations.RunMigrations(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// SeedChat inserts a chat owned by userID with the given message bodies. Each
// message gets swipesPerMessage swipes whose content is "<body>#<index>".
func SeedChat(t *testing.T, db *gorm.DB, userID uint, name string, bodies []string, swipesPerMessage int) *models.Chat {
	t.Helper()

	chat := &models.Chat{
		UserID:        userID,
		Name:          name,
		CharacterName: "Aria",
		MessageCount:  len(bodies),
		Metadata:      map[string]interface{}{"scenario": "academy"},
	}
	if err := db.Create(chat).Error; err != nil {
		t.Fatalf("failed to seed chat: %v", err)
	}

	for i, body := range bodies {
		msg := &models.Message{
			ChatID:   &chat.ID,
			SendDate: int64(i + 1),
			Name:     speaker(i),
			IsUser:   i%2 == 0,
			Content:  body,
			Metadata: map[string]interface{}{"position": i},
		}
		if err := db.Create(msg).Error; err != nil {
			t.Fatalf("failed to seed message: %v", err)
		}
		seedSwipes(t, db, msg, swipesPerMessage)
	}
	return chat
}

// SeedGroupChat mirrors SeedChat for group chats.
func SeedGroupChat(t *testing.T, db *gorm.DB, userID uint, name string, bodies []string, swipesPerMessage int) *models.GroupChat {
	t.Helper()

	group := &models.GroupChat{
		UserID:       userID,
		Name:         name,
		Description:  "study group",
		MessageCount: len(bodies),
	}
	if err := db.Create(group).Error; err != nil {
		t.Fatalf("failed to seed group chat: %v", err)
	}

	for i, body := range bodies {
		msg := &models.Message{
			GroupChatID: &group.ID,
			SendDate:    int64(i + 1),
			Name:        speaker(i),
			IsUser:      i%2 == 0,
			Content:     body,
		}
		if err := db.Create(msg).Error; err != nil {
			t.Fatalf("failed to seed message: %v", err)
		}
		seedSwipes(t, db, msg, swipesPerMessage)
	}
	return group
}

func seedSwipes(t *testing.T, db *gorm.DB, msg *models.Message, n int) {
	t.Helper()
	// Insert in reverse to prove ordering comes from swipe_index, not insertion.
	for j := n - 1; j >= 0; j-- {
		swipe := &models.Swipe{
			MessageID:  msg.ID,
			SwipeIndex: j,
			Content:    msg.Content + "#" + string(rune('0'+j)),
		}
		if err := db.Create(swipe).Error; err != nil {
			t.Fatalf("failed to seed swipe: %v", err)
		}
	}
}

func speaker(i int) string {
	if i%2 == 0 {
		return "User"
	}
	return "Aria"
}

package repositories

import (
	"context"
	"fmt"

	"StoryVault/models"

	"gorm.io/gorm"
)

// MessageRepository persists chat and group-chat messages.
type MessageRepository interface {
	FindByChat(ctx context.Context, chatID uint) ([]models.Message, error)
	FindByGroupChat(ctx context.Context, groupChatID uint) ([]models.Message, error)
	// CreateBatch inserts rows in slice order and assigns each row's ID in place.
	CreateBatch(ctx context.Context, messages []*models.Message) error
}

type messageRepositoryImpl struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepositoryImpl{db: db}
}

func (r *messageRepositoryImpl) FindByChat(ctx context.Context, chatID uint) ([]models.Message, error) {
	return r.find(ctx, "chat_id = ?", chatID)
}

func (r *messageRepositoryImpl) FindByGroupChat(ctx context.Context, groupChatID uint) ([]models.Message, error) {
	return r.find(ctx, "group_chat_id = ?", groupChatID)
}

func (r *messageRepositoryImpl) find(ctx context.Context, cond string, id uint) ([]models.Message, error) {
	messages := []models.Message{}
	err := r.db.WithContext(ctx).
		Where(cond, id).
		Order("send_date ASC").
		Order("id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	return messages, nil
}

func (r *messageRepositoryImpl) CreateBatch(ctx context.Context, messages []*models.Message) error {
	if len(messages) == 0 {
		return nil
	}
	// One row per statement keeps ID assignment independent of driver
	// support for multi-row RETURNING.
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range messages {
			if err := tx.Create(m).Error; err != nil {
				return fmt.Errorf("failed to insert message: %w", err)
			}
		}
		return nil
	})
}

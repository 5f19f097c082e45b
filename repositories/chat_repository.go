package repositories

import (
	"context"
	"errors"

	"StoryVault/models"

	"gorm.io/gorm"
)

// ChatRepository persists one-on-one chats.
type ChatRepository interface {
	FindOwned(ctx context.Context, userID, id uint) (*models.Chat, error)
	Create(ctx context.Context, chat *models.Chat) error
	Save(ctx context.Context, chat *models.Chat) error
}

type chatRepositoryImpl struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepositoryImpl{db: db}
}

func (r *chatRepositoryImpl) FindOwned(ctx context.Context, userID, id uint) (*models.Chat, error) {
	var chat models.Chat
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&chat).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &chat, nil
}

func (r *chatRepositoryImpl) Create(ctx context.Context, chat *models.Chat) error {
	return r.db.WithContext(ctx).Create(chat).Error
}

func (r *chatRepositoryImpl) Save(ctx context.Context, chat *models.Chat) error {
	return r.db.WithContext(ctx).Save(chat).Error
}

// GroupChatRepository persists group chats.
type GroupChatRepository interface {
	FindOwned(ctx context.Context, userID, id uint) (*models.GroupChat, error)
	Create(ctx context.Context, group *models.GroupChat) error
	Save(ctx context.Context, group *models.GroupChat) error
}

type groupChatRepositoryImpl struct {
	db *gorm.DB
}

func NewGroupChatRepository(db *gorm.DB) GroupChatRepository {
	return &groupChatRepositoryImpl{db: db}
}

func (r *groupChatRepositoryImpl) FindOwned(ctx context.Context, userID, id uint) (*models.GroupChat, error) {
	var group models.GroupChat
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&group).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &group, nil
}

func (r *groupChatRepositoryImpl) Create(ctx context.Context, group *models.GroupChat) error {
	return r.db.WithContext(ctx).Create(group).Error
}

func (r *groupChatRepositoryImpl) Save(ctx context.Context, group *models.GroupChat) error {
	return r.db.WithContext(ctx).Save(group).Error
}

func translateError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ErrNotFound
	}
	return err
}

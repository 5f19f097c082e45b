package repositories

import (
	"context"
	"fmt"

	"StoryVault/models"

	"gorm.io/gorm"
)

// SwipeRepository persists alternate generations of messages.
type SwipeRepository interface {
	FindByMessageIDs(ctx context.Context, messageIDs []uint) ([]models.Swipe, error)
	CreateBatch(ctx context.Context, swipes []*models.Swipe) error
}

type swipeRepositoryImpl struct {
	db *gorm.DB
}

func NewSwipeRepository(db *gorm.DB) SwipeRepository {
	return &swipeRepositoryImpl{db: db}
}

func (r *swipeRepositoryImpl) FindByMessageIDs(ctx context.Context, messageIDs []uint) ([]models.Swipe, error) {
	swipes := []models.Swipe{}
	if len(messageIDs) == 0 {
		return swipes, nil
	}
	err := r.db.WithContext(ctx).
		Where("message_id IN ?", messageIDs).
		Order("message_id ASC").
		Order("swipe_index ASC").
		Find(&swipes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load swipes: %w", err)
	}
	return swipes, nil
}

func (r *swipeRepositoryImpl) CreateBatch(ctx context.Context, swipes []*models.Swipe) error {
	if len(swipes) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, s := range swipes {
			if err := tx.Create(s).Error; err != nil {
				return fmt.Errorf("failed to insert swipe: %w", err)
			}
		}
		return nil
	})
}

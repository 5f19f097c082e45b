package repositories

import (
	"context"

	"StoryVault/models"

	"gorm.io/gorm"
)

// BackupRepository stores the archive/restore history.
type BackupRepository interface {
	CreateBackupHistory(ctx context.Context, history *models.BackupHistory) error
	FindOwnedHistory(ctx context.Context, userID, id uint) (*models.BackupHistory, error)
	ListHistory(ctx context.Context, userID uint, limit int) ([]models.BackupHistory, error)
	DeleteHistory(ctx context.Context, history *models.BackupHistory) error
	// ListArchivedAfter pages through entries with a stored blob, in id order.
	ListArchivedAfter(ctx context.Context, afterID uint, limit int) ([]models.BackupHistory, error)
}

type backupRepositoryImpl struct {
	db *gorm.DB
}

func NewBackupRepository(db *gorm.DB) BackupRepository {
	return &backupRepositoryImpl{db: db}
}

func (r *backupRepositoryImpl) CreateBackupHistory(ctx context.Context, history *models.BackupHistory) error {
	return r.db.WithContext(ctx).Create(history).Error
}

func (r *backupRepositoryImpl) FindOwnedHistory(ctx context.Context, userID, id uint) (*models.BackupHistory, error) {
	var history models.BackupHistory
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&history).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &history, nil
}

// ListHistory returns newest entries first. A non-positive limit returns all.
func (r *backupRepositoryImpl) ListHistory(ctx context.Context, userID uint, limit int) ([]models.BackupHistory, error) {
	entries := []models.BackupHistory{}
	q := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("backup_date DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *backupRepositoryImpl) DeleteHistory(ctx context.Context, history *models.BackupHistory) error {
	return r.db.WithContext(ctx).Delete(history).Error
}

func (r *backupRepositoryImpl) ListArchivedAfter(ctx context.Context, afterID uint, limit int) ([]models.BackupHistory, error) {
	entries := []models.BackupHistory{}
	err := r.db.WithContext(ctx).
		Where("id > ? AND object_key <> ''", afterID).
		Order("id ASC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

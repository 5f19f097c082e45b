package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"StoryVault/metrics"
	"StoryVault/models"
	"StoryVault/repositories"
	"StoryVault/snapshot"
	"StoryVault/storage"
	"StoryVault/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const archiveExtension = ".svb"

var (
	ErrNotArchived      = errors.New("history entry has no archived snapshot")
	ErrArchiveKeyNeeded = errors.New("archive is encrypted but no encryption secret is configured")
)

// SnapshotArchiveService stores sealed snapshots in object storage and keeps
// a per-user history of archives and restores.
type SnapshotArchiveService struct {
	backups *SessionBackupService
	history repositories.BackupRepository
	storage storage.Storage
	key     []byte
	now     func() time.Time
}

// NewSnapshotArchiveService builds the service. A nil key stores archives
// unencrypted.
func NewSnapshotArchiveService(
	backups *SessionBackupService,
	history repositories.BackupRepository,
	store storage.Storage,
	key []byte,
) *SnapshotArchiveService {
	return &SnapshotArchiveService{
		backups: backups,
		history: history,
		storage: store,
		key:     key,
		now:     time.Now,
	}
}

func objectKey(ownerID uint, kind snapshot.Kind, sessionID uint) string {
	return fmt.Sprintf("backups/%d/%s-%d-%s%s", ownerID, kind, sessionID, uuid.NewString(), archiveExtension)
}

// Archive encodes, compresses and optionally encrypts snap, uploads it and
// records the upload.
func (s *SnapshotArchiveService) Archive(ctx context.Context, ownerID uint, snap *snapshot.Snapshot) (*models.BackupHistory, error) {
	if !s.backups.VerifyIntegrity(snap) {
		metrics.IntegrityFailuresTotal.Inc()
		return nil, models.ErrIntegrity
	}
	header := snap.Data.Header(snap.Type)
	if header == nil {
		return nil, fmt.Errorf("%w: data.%s is absent", models.ErrMalformedSnapshot, snap.Type)
	}

	blob, err := s.pack(snap)
	if err != nil {
		return nil, err
	}

	key := objectKey(ownerID, snap.Type, header.ID)
	size, err := s.storage.Upload(ctx, key, bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("failed to upload archive: %w", err)
	}

	entry := &models.BackupHistory{
		UserID:      ownerID,
		SessionType: string(snap.Type),
		SessionID:   header.ID,
		Action:      models.BackupActionArchive,
		Digest:      snap.Integrity,
		ObjectKey:   key,
		SizeBytes:   size,
		Encrypted:   s.key != nil,
		BackupDate:  s.now(),
		BackupMode:  "manual",
	}
	if err := s.history.CreateBackupHistory(ctx, entry); err != nil {
		// Do not leave an untracked blob behind.
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			logrus.WithFields(logrus.Fields{
				"key":   key,
				"error": delErr,
			}).Error("Failed to remove archive after history write failed")
		}
		return nil, fmt.Errorf("failed to create backup history: %w", err)
	}

	metrics.ArchivesTotal.WithLabelValues(s.storage.Name()).Inc()
	logrus.WithFields(logrus.Fields{
		"user_id":      ownerID,
		"session_type": snap.Type,
		"session_id":   header.ID,
		"key":          key,
		"size":         size,
		"encrypted":    entry.Encrypted,
	}).Info("Snapshot archived")

	return entry, nil
}

// List returns the caller's archive and restore history, newest first.
func (s *SnapshotArchiveService) List(ctx context.Context, ownerID uint, limit int) ([]models.BackupHistory, error) {
	return s.history.ListHistory(ctx, ownerID, limit)
}

// Load fetches and decodes an archived snapshot. The decoded snapshot must
// carry the digest recorded at archive time.
func (s *SnapshotArchiveService) Load(ctx context.Context, ownerID, historyID uint) (*snapshot.Snapshot, error) {
	entry, err := s.history.FindOwnedHistory(ctx, ownerID, historyID)
	if err != nil {
		return nil, fmt.Errorf("archive %d: %w", historyID, err)
	}
	if entry.ObjectKey == "" {
		return nil, ErrNotArchived
	}

	rc, err := s.storage.Download(ctx, entry.ObjectKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, fmt.Errorf("archive %d: %w", historyID, models.ErrNotFound)
		}
		return nil, err
	}
	defer rc.Close()

	blob, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}

	snap, err := s.unpack(blob, entry.Encrypted)
	if err != nil {
		return nil, err
	}
	if snap.Integrity != entry.Digest {
		return nil, models.ErrIntegrity
	}
	return snap, nil
}

// RestoreArchived restores an archived snapshot into a new session.
func (s *SnapshotArchiveService) RestoreArchived(ctx context.Context, ownerID, historyID uint) (uint, snapshot.Kind, error) {
	snap, err := s.Load(ctx, ownerID, historyID)
	if err != nil {
		return 0, "", err
	}

	newID, err := s.backups.RestoreFromBackup(ctx, ownerID, snap)
	if err != nil {
		return 0, "", err
	}

	source := historyID
	entry := &models.BackupHistory{
		UserID:            ownerID,
		SessionType:       string(snap.Type),
		SessionID:         snap.Data.Header(snap.Type).ID,
		Action:            models.BackupActionRestore,
		Digest:            snap.Integrity,
		RestoredSessionID: &newID,
		SourceHistoryID:   &source,
		BackupDate:        s.now(),
		BackupMode:        "manual",
	}
	if err := s.history.CreateBackupHistory(ctx, entry); err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id":    ownerID,
			"history_id": historyID,
			"error":      err,
		}).Error("Failed to create restore history")
	}

	return newID, snap.Type, nil
}

// Delete removes a history entry and its archived blob, if any.
func (s *SnapshotArchiveService) Delete(ctx context.Context, ownerID, historyID uint) error {
	entry, err := s.history.FindOwnedHistory(ctx, ownerID, historyID)
	if err != nil {
		return fmt.Errorf("archive %d: %w", historyID, err)
	}
	if entry.ObjectKey != "" {
		if err := s.storage.Delete(ctx, entry.ObjectKey); err != nil {
			return fmt.Errorf("failed to delete archive: %w", err)
		}
	}
	return s.history.DeleteHistory(ctx, entry)
}

func (s *SnapshotArchiveService) pack(snap *snapshot.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	if err := snap.Encode(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	blob, err := utils.Compress(buf.Bytes())
	if err != nil {
		return nil, err
	}
	if s.key == nil {
		return blob, nil
	}
	blob, err = utils.Encrypt(blob, s.key)
	if err != nil {
		return nil, fmt.Errorf("encryption failed: %w", err)
	}
	return blob, nil
}

func (s *SnapshotArchiveService) unpack(blob []byte, encrypted bool) (*snapshot.Snapshot, error) {
	if encrypted {
		if s.key == nil {
			return nil, ErrArchiveKeyNeeded
		}
		var err error
		blob, err = utils.Decrypt(blob, s.key)
		if err != nil {
			return nil, fmt.Errorf("%w: decryption failed: %v", models.ErrIntegrity, err)
		}
	}
	raw, err := utils.Decompress(blob)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrMalformedSnapshot, err)
	}
	snap, err := snapshot.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrMalformedSnapshot, err)
	}
	return snap, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"StoryVault/metrics"
	"StoryVault/models"
	"StoryVault/repositories"
	"StoryVault/snapshot"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// RestoredSuffix marks a session recreated from a backup.
const RestoredSuffix = " (恢复)"

// SessionBackupService exports sessions as sealed snapshots and restores them
// into new sessions.
type SessionBackupService struct {
	uow repositories.UnitOfWork
	now func() time.Time
}

type BackupOption func(*SessionBackupService)

// WithClock overrides the snapshot timestamp source.
func WithClock(now func() time.Time) BackupOption {
	return func(s *SessionBackupService) { s.now = now }
}

func NewSessionBackupService(uow repositories.UnitOfWork, opts ...BackupOption) *SessionBackupService {
	s := &SessionBackupService{uow: uow, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BackupChat snapshots a chat owned by ownerID.
func (s *SessionBackupService) BackupChat(ctx context.Context, ownerID, chatID uint) (*snapshot.Snapshot, error) {
	stores := s.uow.Stores()

	chat, err := stores.Chats.FindOwned(ctx, ownerID, chatID)
	if err != nil {
		return nil, fmt.Errorf("chat %d: %w", chatID, err)
	}
	messages, err := stores.Messages.FindByChat(ctx, chat.ID)
	if err != nil {
		return nil, err
	}

	data := snapshot.Data{Chat: chatHeader(chat)}
	return s.assemble(ctx, stores, ownerID, snapshot.KindChat, chat.ID, data, messages)
}

// BackupGroupChat snapshots a group chat owned by ownerID.
func (s *SessionBackupService) BackupGroupChat(ctx context.Context, ownerID, groupID uint) (*snapshot.Snapshot, error) {
	stores := s.uow.Stores()

	group, err := stores.GroupChats.FindOwned(ctx, ownerID, groupID)
	if err != nil {
		return nil, fmt.Errorf("group chat %d: %w", groupID, err)
	}
	messages, err := stores.Messages.FindByGroupChat(ctx, group.ID)
	if err != nil {
		return nil, err
	}

	data := snapshot.Data{Group: groupHeader(group)}
	return s.assemble(ctx, stores, ownerID, snapshot.KindGroup, group.ID, data, messages)
}

func (s *SessionBackupService) assemble(
	ctx context.Context,
	stores *repositories.Stores,
	ownerID uint,
	kind snapshot.Kind,
	sessionID uint,
	data snapshot.Data,
	messages []models.Message,
) (*snapshot.Snapshot, error) {
	ids := make([]uint, len(messages))
	data.Messages = make([]snapshot.MessageRecord, len(messages))
	for i, m := range messages {
		ids[i] = m.ID
		data.Messages[i] = messageRecord(m)
	}

	swipes, err := stores.Swipes.FindByMessageIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	data.Swipes = make([]snapshot.SwipeRecord, len(swipes))
	for i, sw := range swipes {
		data.Swipes[i] = swipeRecord(sw)
	}

	snap := &snapshot.Snapshot{
		Version:   snapshot.Version,
		Type:      kind,
		Timestamp: s.now().UnixMilli(),
		Data:      data,
	}
	if err := snap.Seal(); err != nil {
		return nil, err
	}

	metrics.BackupsTotal.WithLabelValues(string(kind)).Inc()
	logrus.WithFields(logrus.Fields{
		"user_id":      ownerID,
		"session_type": kind,
		"session_id":   sessionID,
		"messages":     len(data.Messages),
		"swipes":       len(data.Swipes),
	}).Info("Session backup created")

	return snap, nil
}

// VerifyIntegrity reports whether the snapshot digest matches its content.
func (s *SessionBackupService) VerifyIntegrity(snap *snapshot.Snapshot) bool {
	return snap.Verify()
}

// RestoreFromBackup recreates the snapshot as a new session owned by ownerID
// and returns the new session id. Nothing is written unless every row is.
func (s *SessionBackupService) RestoreFromBackup(ctx context.Context, ownerID uint, snap *snapshot.Snapshot) (uint, error) {
	if snap == nil || !s.VerifyIntegrity(snap) {
		metrics.IntegrityFailuresTotal.Inc()
		return 0, models.ErrIntegrity
	}
	if !snap.CompatibleVersion() {
		return 0, fmt.Errorf("%w: %s", models.ErrUnsupportedVersion, snap.Version)
	}
	if !snap.Type.Valid() {
		return 0, fmt.Errorf("%w: unknown type %q", models.ErrMalformedSnapshot, snap.Type)
	}
	header := snap.Data.Header(snap.Type)
	if header == nil {
		return 0, fmt.Errorf("%w: data.%s is absent", models.ErrMalformedSnapshot, snap.Type)
	}

	var newID uint
	err := s.uow.Transaction(ctx, func(stores *repositories.Stores) error {
		var err error
		newID, err = createSession(ctx, stores, ownerID, snap.Type, header)
		if err != nil {
			return err
		}

		idMap, err := restoreMessages(ctx, stores, snap.Type, newID, snap.Data.Messages)
		if err != nil {
			return err
		}

		return restoreSwipes(ctx, stores, idMap, snap.Data.Swipes)
	})
	if err != nil {
		metrics.RestoresTotal.WithLabelValues(string(snap.Type), "error").Inc()
		logrus.WithFields(logrus.Fields{
			"user_id":      ownerID,
			"session_type": snap.Type,
			"error":        err,
		}).Error("Session restore failed")
		return 0, err
	}

	metrics.RestoresTotal.WithLabelValues(string(snap.Type), "ok").Inc()
	logrus.WithFields(logrus.Fields{
		"user_id":      ownerID,
		"session_type": snap.Type,
		"session_id":   newID,
		"source_id":    header.ID,
		"messages":     len(snap.Data.Messages),
		"swipes":       len(snap.Data.Swipes),
	}).Info("Session restored from backup")

	return newID, nil
}

func createSession(ctx context.Context, stores *repositories.Stores, ownerID uint, kind snapshot.Kind, h *snapshot.SessionHeader) (uint, error) {
	name := h.Name + RestoredSuffix
	lastMessageAt := fromMillisPtr(h.LastMessageAt)

	switch kind {
	case snapshot.KindChat:
		chat := &models.Chat{
			UserID:        ownerID,
			Name:          name,
			CharacterName: h.CharacterName,
			Avatar:        h.Avatar,
			MessageCount:  h.MessageCount,
			LastMessageAt: lastMessageAt,
			Metadata:      datatypes.JSONMap(h.Metadata),
			CreatedAt:     fromMillis(h.CreatedAt),
		}
		if err := stores.Chats.Create(ctx, chat); err != nil {
			return 0, fmt.Errorf("failed to create chat: %w", err)
		}
		return chat.ID, nil
	case snapshot.KindGroup:
		group := &models.GroupChat{
			UserID:        ownerID,
			Name:          name,
			Description:   h.Description,
			MessageCount:  h.MessageCount,
			LastMessageAt: lastMessageAt,
			Metadata:      datatypes.JSONMap(h.Metadata),
			CreatedAt:     fromMillis(h.CreatedAt),
		}
		if err := stores.GroupChats.Create(ctx, group); err != nil {
			return 0, fmt.Errorf("failed to create group chat: %w", err)
		}
		return group.ID, nil
	}
	return 0, fmt.Errorf("%w: unknown type %q", models.ErrMalformedSnapshot, kind)
}

// restoreMessages inserts the messages in snapshot order and returns a map
// from each original id to the id the store assigned to its copy.
func restoreMessages(ctx context.Context, stores *repositories.Stores, kind snapshot.Kind, sessionID uint, records []snapshot.MessageRecord) (map[uint]uint, error) {
	rows := make([]*models.Message, len(records))
	for i, rec := range records {
		row := &models.Message{
			SendDate:  rec.SendDate,
			Name:      rec.Name,
			IsUser:    rec.IsUser,
			Content:   rec.Content,
			Metadata:  datatypes.JSONMap(rec.Metadata),
			CreatedAt: fromMillis(rec.CreatedAt),
		}
		sid := sessionID
		if kind == snapshot.KindChat {
			row.ChatID = &sid
		} else {
			row.GroupChatID = &sid
		}
		rows[i] = row
	}

	if err := stores.Messages.CreateBatch(ctx, rows); err != nil {
		return nil, err
	}

	idMap := make(map[uint]uint, len(records))
	for i, rec := range records {
		if rows[i].ID == 0 {
			return nil, errors.New("message store did not assign an id")
		}
		idMap[rec.ID] = rows[i].ID
	}
	return idMap, nil
}

// restoreSwipes drops swipes whose message is not part of the snapshot.
func restoreSwipes(ctx context.Context, stores *repositories.Stores, idMap map[uint]uint, records []snapshot.SwipeRecord) error {
	rows := make([]*models.Swipe, 0, len(records))
	dropped := 0
	for _, rec := range records {
		messageID, ok := idMap[rec.MessageID]
		if !ok {
			dropped++
			continue
		}
		rows = append(rows, &models.Swipe{
			MessageID:  messageID,
			SwipeIndex: rec.SwipeIndex,
			Content:    rec.Content,
			Metadata:   datatypes.JSONMap(rec.Metadata),
			CreatedAt:  fromMillis(rec.CreatedAt),
		})
	}
	if dropped > 0 {
		logrus.WithField("dropped", dropped).Warn("Skipping swipes that reference unknown messages")
	}
	return stores.Swipes.CreateBatch(ctx, rows)
}

func chatHeader(c *models.Chat) *snapshot.SessionHeader {
	return &snapshot.SessionHeader{
		ID:            c.ID,
		Name:          c.Name,
		CharacterName: c.CharacterName,
		Avatar:        c.Avatar,
		MessageCount:  c.MessageCount,
		LastMessageAt: toMillisPtr(c.LastMessageAt),
		Metadata:      c.Metadata,
		CreatedAt:     c.CreatedAt.UnixMilli(),
	}
}

func groupHeader(g *models.GroupChat) *snapshot.SessionHeader {
	return &snapshot.SessionHeader{
		ID:            g.ID,
		Name:          g.Name,
		Description:   g.Description,
		MessageCount:  g.MessageCount,
		LastMessageAt: toMillisPtr(g.LastMessageAt),
		Metadata:      g.Metadata,
		CreatedAt:     g.CreatedAt.UnixMilli(),
	}
}

func messageRecord(m models.Message) snapshot.MessageRecord {
	return snapshot.MessageRecord{
		ID:        m.ID,
		SendDate:  m.SendDate,
		Name:      m.Name,
		IsUser:    m.IsUser,
		Content:   m.Content,
		Metadata:  m.Metadata,
		CreatedAt: m.CreatedAt.UnixMilli(),
	}
}

func swipeRecord(s models.Swipe) snapshot.SwipeRecord {
	return snapshot.SwipeRecord{
		ID:         s.ID,
		MessageID:  s.MessageID,
		SwipeIndex: s.SwipeIndex,
		Content:    s.Content,
		Metadata:   s.Metadata,
		CreatedAt:  s.CreatedAt.UnixMilli(),
	}
}

func toMillisPtr(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}

// fromMillis leaves a zero timestamp zero so the store stamps it.
func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func fromMillisPtr(ms *int64) *time.Time {
	if ms == nil {
		return nil
	}
	t := time.UnixMilli(*ms).UTC()
	return &t
}

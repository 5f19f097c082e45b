package models

import "time"

type BackupAction string

const (
	BackupActionArchive BackupAction = "archive"
	BackupActionRestore BackupAction = "restore"
)

// BackupHistory records every archived snapshot and every restore made from one.
type BackupHistory struct {
	ID                uint         `gorm:"primaryKey" json:"id"`
	UserID            uint         `gorm:"not null;index" json:"user_id"`
	SessionType       string       `gorm:"type:varchar(16);not null" json:"session_type"`
	SessionID         uint         `gorm:"not null" json:"session_id"`
	Action            BackupAction `gorm:"type:varchar(16);not null" json:"action"`
	Digest            string       `gorm:"type:char(64)" json:"digest"`
	ObjectKey         string       `json:"object_key,omitempty"`
	SizeBytes         int64        `json:"size_bytes"`
	Encrypted         bool         `json:"encrypted"`
	RestoredSessionID *uint        `json:"restored_session_id,omitempty"`
	SourceHistoryID   *uint        `json:"source_history_id,omitempty"`
	BackupDate        time.Time    `gorm:"not null" json:"backup_date"`
	BackupMode        string       `gorm:"not null" json:"backup_mode"`
}

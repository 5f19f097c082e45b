package models

import (
	"time"

	"gorm.io/datatypes"
)

// Chat is a one-on-one conversation between a user and a character card.
type Chat struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	UserID        uint              `gorm:"not null;index" json:"user_id"`
	Name          string            `gorm:"not null" json:"name"`
	CharacterName string            `json:"character_name"`
	Avatar        string            `json:"avatar"`
	MessageCount  int               `gorm:"not null;default:0" json:"message_count"`
	LastMessageAt *time.Time        `json:"last_message_at"`
	Metadata      datatypes.JSONMap `json:"metadata"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// GroupChat is a conversation with several characters at once.
type GroupChat struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	UserID        uint              `gorm:"not null;index" json:"user_id"`
	Name          string            `gorm:"not null" json:"name"`
	Description   string            `json:"description"`
	MessageCount  int               `gorm:"not null;default:0" json:"message_count"`
	LastMessageAt *time.Time        `json:"last_message_at"`
	Metadata      datatypes.JSONMap `json:"metadata"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

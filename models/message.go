package models

import (
	"time"

	"gorm.io/datatypes"
)

// Message belongs to exactly one of ChatID or GroupChatID.
// SendDate is a logical sequence position, not wall-clock time.
type Message struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	ChatID      *uint             `gorm:"index" json:"chat_id,omitempty"`
	GroupChatID *uint             `gorm:"index" json:"group_chat_id,omitempty"`
	SendDate    int64             `gorm:"not null;index" json:"send_date"`
	Name        string            `json:"name"`
	IsUser      bool              `gorm:"not null;default:false" json:"is_user"`
	Content     string            `gorm:"type:text" json:"content"`
	Metadata    datatypes.JSONMap `json:"metadata"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Swipe is one alternate generation for a message, ranked by SwipeIndex.
type Swipe struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	MessageID  uint              `gorm:"not null;index:idx_swipe_message_index" json:"message_id"`
	SwipeIndex int               `gorm:"not null;index:idx_swipe_message_index" json:"swipe_index"`
	Content    string            `gorm:"type:text" json:"content"`
	Metadata   datatypes.JSONMap `json:"metadata"`
	CreatedAt  time.Time         `json:"created_at"`
}

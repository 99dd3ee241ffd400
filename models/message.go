package models

import "time"

// MessageStatus advances monotonically: sent -> delivered -> read.
type MessageStatus string

const (
	MessageSent      MessageStatus = "sent"
	MessageDelivered MessageStatus = "delivered"
	MessageRead      MessageStatus = "read"
)

var messageStatusRank = map[MessageStatus]int{
	MessageSent:      0,
	MessageDelivered: 1,
	MessageRead:      2,
}

// CanAdvanceTo reports whether moving to next would keep the status monotonic.
func (s MessageStatus) CanAdvanceTo(next MessageStatus) bool {
	return messageStatusRank[next] > messageStatusRank[s]
}

// Message content types
const (
	MessageTypeText  = "text"
	MessageTypeImage = "image"
	MessageTypeFile  = "file"
)

type Message struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	ChatID    uint          `gorm:"not null;index" json:"chat_id"`
	SenderID  uint          `gorm:"not null" json:"sender_id"`
	Content   string        `gorm:"type:text;not null" json:"content"`
	Type      string        `gorm:"type:varchar(10);not null;default:'text'" json:"type"`
	Status    MessageStatus `gorm:"type:varchar(10);not null;default:'sent'" json:"status"`
	CreatedAt time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time     `gorm:"not null" json:"updated_at"`
}

package models

import "time"

// Chat is a private conversation between exactly two users, optionally
// anchored to a property listing.
type Chat struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	User1ID       uint      `gorm:"not null;index:idx_chat_pair,unique" json:"user1_id"`
	User2ID       uint      `gorm:"not null;index:idx_chat_pair,unique" json:"user2_id"`
	PropertyID    *uint     `gorm:"index" json:"property_id,omitempty"`
	Property      *Property `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
	LastMessageID *uint     `json:"last_message_id,omitempty"`
	LastMessage   *Message  `gorm:"foreignKey:LastMessageID" json:"last_message,omitempty"`
	// Unread counters are denormalized per participant for the chat list.
	User1Unread int       `gorm:"not null;default:0" json:"user1_unread"`
	User2Unread int       `gorm:"not null;default:0" json:"user2_unread"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

// HasParticipant reports whether the user belongs to the chat.
func (c *Chat) HasParticipant(userID uint) bool {
	return c.User1ID == userID || c.User2ID == userID
}

// PeerOf returns the other participant.
func (c *Chat) PeerOf(userID uint) uint {
	if c.User1ID == userID {
		return c.User2ID
	}
	return c.User1ID
}

// UnreadFor returns the unread counter for the given participant.
func (c *Chat) UnreadFor(userID uint) int {
	if c.User1ID == userID {
		return c.User1Unread
	}
	return c.User2Unread
}

// ChatSummary is the list-view projection of a chat for one participant.
type ChatSummary struct {
	ChatID      uint      `json:"chat_id"`
	PeerID      uint      `json:"peer_id"`
	PeerName    string    `json:"peer_name"`
	PropertyID  *uint     `json:"property_id,omitempty"`
	LastMessage *Message  `json:"last_message,omitempty"`
	UnreadCount int       `json:"unread_count"`
	CreatedAt   time.Time `json:"created_at"`
}

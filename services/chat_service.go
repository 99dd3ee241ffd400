package services

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"

	"github.com/renthive/rental-app/events"
	"github.com/renthive/rental-app/models"
)

var (
	ErrChatNotFound       = errors.New("chat not found")
	ErrSelfChat           = errors.New("cannot create chat with self")
	ErrUnknownParticipant = errors.New("participant not found")
	ErrNotChatParticipant = errors.New("user is not a participant of this chat")
)

var chatMessagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "renthive_chat_messages_total",
	Help: "Chat messages committed, by content type.",
}, []string{"type"})

// ChatService owns conversations and message delivery state. Messages are
// append-only and their status only moves forward (sent -> delivered -> read).
type ChatService struct {
	db *gorm.DB
}

func NewChatService(db *gorm.DB) *ChatService {
	return &ChatService{db: db}
}

// CreateOrGetChat returns the existing conversation between the two users or
// creates one. The pair is stored ordered so the same two users always map
// to one chat regardless of who initiates.
func (s *ChatService) CreateOrGetChat(userID, participantID uint, propertyID *uint) (*models.Chat, error) {
	if userID == participantID {
		return nil, ErrSelfChat
	}

	var participant models.User
	if err := s.db.First(&participant, participantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownParticipant
		}
		return nil, err
	}

	user1, user2 := userID, participantID
	if user2 < user1 {
		user1, user2 = user2, user1
	}

	var chat models.Chat
	err := s.db.Where("user1_id = ? AND user2_id = ?", user1, user2).First(&chat).Error
	if err == nil {
		return &chat, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	chat = models.Chat{User1ID: user1, User2ID: user2, PropertyID: propertyID}
	if err := s.db.Create(&chat).Error; err != nil {
		return nil, err
	}
	return &chat, nil
}

// ListChats returns the caller's conversations, most recently active first,
// each with its last message and the caller's unread count.
func (s *ChatService) ListChats(userID uint) ([]models.ChatSummary, error) {
	var chats []models.Chat
	err := s.db.Preload("LastMessage").
		Where("user1_id = ? OR user2_id = ?", userID, userID).
		Order("updated_at desc").
		Find(&chats).Error
	if err != nil {
		return nil, err
	}

	summaries := make([]models.ChatSummary, 0, len(chats))
	for _, chat := range chats {
		peerID := chat.PeerOf(userID)
		var peer models.User
		if err := s.db.First(&peer, peerID).Error; err != nil {
			return nil, err
		}
		summaries = append(summaries, models.ChatSummary{
			ChatID:      chat.ID,
			PeerID:      peerID,
			PeerName:    peer.Name,
			PropertyID:  chat.PropertyID,
			LastMessage: chat.LastMessage,
			UnreadCount: chat.UnreadFor(userID),
			CreatedAt:   chat.CreatedAt,
		})
	}
	return summaries, nil
}

// OpenChat loads one conversation's messages in insertion order and marks it
// read for the caller: the counterpart's messages advance to read and the
// caller's unread counter drops to zero. Opening chat B after chat A returns
// only B's messages; nothing is merged.
func (s *ChatService) OpenChat(chatID, userID uint) (*models.Chat, []models.Message, error) {
	chat, err := s.getParticipantChat(chatID, userID)
	if err != nil {
		return nil, nil, err
	}

	if err := s.markRead(chat, userID); err != nil {
		return nil, nil, err
	}

	var messages []models.Message
	if err := s.db.Where("chat_id = ?", chatID).Order("id asc").Find(&messages).Error; err != nil {
		return nil, nil, err
	}
	return chat, messages, nil
}

// SendMessage commits a message atomically: insert with status sent, advance
// the chat's last-message pointer, bump the recipient's unread counter. Any
// failure rolls the whole send back. After commit the message fans out over
// the hub and advances to delivered.
func (s *ChatService) SendMessage(chatID, senderID uint, content, msgType string) (*models.Message, error) {
	if msgType == "" {
		msgType = models.MessageTypeText
	}

	chat, err := s.getParticipantChat(chatID, senderID)
	if err != nil {
		return nil, err
	}

	msg := models.Message{
		ChatID:   chatID,
		SenderID: senderID,
		Content:  content,
		Type:     msgType,
		Status:   models.MessageSent,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&msg).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{
			"last_message_id": msg.ID,
			"updated_at":      time.Now(),
		}
		if chat.User1ID == senderID {
			updates["user2_unread"] = gorm.Expr("user2_unread + 1")
		} else {
			updates["user1_unread"] = gorm.Expr("user1_unread + 1")
		}
		return tx.Model(&models.Chat{}).Where("id = ?", chatID).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}

	chatMessagesSent.WithLabelValues(msgType).Inc()
	events.BroadcastChatMessage(*chat, msg)

	// the commit + fan-out is the delivery receipt
	if msg.Status.CanAdvanceTo(models.MessageDelivered) {
		msg.Status = models.MessageDelivered
		if err := s.db.Model(&models.Message{}).Where("id = ?", msg.ID).
			Update("status", models.MessageDelivered).Error; err != nil {
			return nil, err
		}
		events.BroadcastChatReceipt(*chat, msg)
	}

	return &msg, nil
}

// MarkRead zeroes the caller's unread counter for one chat. Message-level
// status is untouched; only opening the chat advances the counterpart's
// messages to read.
func (s *ChatService) MarkRead(chatID, userID uint) error {
	chat, err := s.getParticipantChat(chatID, userID)
	if err != nil {
		return err
	}
	return s.db.Model(&models.Chat{}).Where("id = ?", chat.ID).
		Update(unreadColumnFor(chat, userID), 0).Error
}

// markRead is the open-chat effect: the counterpart's messages advance to
// read and the viewer's counter drops to zero, in one transaction.
func (s *ChatService) markRead(chat *models.Chat, userID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		// read never regresses: only sub-read peer messages advance
		if err := tx.Model(&models.Message{}).
			Where("chat_id = ? AND sender_id <> ? AND status <> ?", chat.ID, userID, models.MessageRead).
			Update("status", models.MessageRead).Error; err != nil {
			return err
		}
		return tx.Model(&models.Chat{}).Where("id = ?", chat.ID).
			Update(unreadColumnFor(chat, userID), 0).Error
	})
}

func unreadColumnFor(chat *models.Chat, userID uint) string {
	if chat.User2ID == userID {
		return "user2_unread"
	}
	return "user1_unread"
}

func (s *ChatService) getParticipantChat(chatID, userID uint) (*models.Chat, error) {
	var chat models.Chat
	if err := s.db.First(&chat, chatID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		return nil, ErrNotChatParticipant
	}
	return &chat, nil
}

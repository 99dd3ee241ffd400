package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/renthive/rental-app/models"
	"github.com/renthive/rental-app/services"
	"github.com/renthive/rental-app/utils"
)

type ChatController struct {
	Chats *services.ChatService
}

func NewChatController(chats *services.ChatService) *ChatController {
	return &ChatController{Chats: chats}
}

// CreateChat opens (or returns) the conversation with another user,
// optionally anchored to a listing.
func (cc *ChatController) CreateChat(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		utils.RespondError(c, http.StatusUnauthorized, err)
		return
	}

	var req struct {
		ParticipantID uint  `json:"participant_id" binding:"required"`
		PropertyID    *uint `json:"property_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	chat, err := cc.Chats.CreateOrGetChat(userID, req.ParticipantID, req.PropertyID)
	if err != nil {
		respondChatError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Chat ready", chat)
}

// GetChats lists the caller's conversations with peer info and unread
// badges.
func (cc *ChatController) GetChats(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		utils.RespondError(c, http.StatusUnauthorized, err)
		return
	}

	summaries, err := cc.Chats.ListChats(userID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Chat list", summaries)
}

// OpenChat returns one conversation's messages oldest-first and marks the
// peer's messages read for the caller.
func (cc *ChatController) OpenChat(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		utils.RespondError(c, http.StatusUnauthorized, err)
		return
	}

	chat, messages, err := cc.Chats.OpenChat(paramID(c, "chat_id"), userID)
	if err != nil {
		respondChatError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Chat opened", gin.H{
		"chat":     chat,
		"messages": messages,
	})
}

// SendMessage appends a message to the conversation.
func (cc *ChatController) SendMessage(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		utils.RespondError(c, http.StatusUnauthorized, err)
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
		Type    string `json:"type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Type == "" {
		req.Type = models.MessageTypeText
	}

	msg, err := cc.Chats.SendMessage(paramID(c, "chat_id"), userID, req.Content, req.Type)
	if err != nil {
		respondChatError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Message sent", msg)
}

// MarkRead acknowledges the peer's messages without returning them.
func (cc *ChatController) MarkRead(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		utils.RespondError(c, http.StatusUnauthorized, err)
		return
	}

	if err := cc.Chats.MarkRead(paramID(c, "chat_id"), userID); err != nil {
		respondChatError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Messages marked read", nil)
}

func respondChatError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrChatNotFound), errors.Is(err, services.ErrUnknownParticipant):
		utils.RespondError(c, http.StatusNotFound, err)
	case errors.Is(err, services.ErrSelfChat):
		utils.RespondError(c, http.StatusBadRequest, err)
	case errors.Is(err, services.ErrNotChatParticipant):
		utils.RespondError(c, http.StatusForbidden, err)
	default:
		utils.RespondError(c, http.StatusInternalServerError, err)
	}
}

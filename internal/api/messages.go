package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/realtyhub/messaging/internal/messaging"
	"github.com/realtyhub/messaging/internal/models"
	"github.com/realtyhub/messaging/internal/websocket"
)

// Notifier pushes realtime events to connected users
type Notifier interface {
	Notify(userID string, event websocket.Event)
}

// MessageHandler exposes conversations and their messages
type MessageHandler struct {
	Service  *messaging.Service
	Notifier Notifier
}

// NewMessageHandler creates a new message handler; notifier may be nil
func NewMessageHandler(service *messaging.Service, notifier Notifier) *MessageHandler {
	return &MessageHandler{Service: service, Notifier: notifier}
}

// conversationRef reads the counterparty from the path and the optional listing from ?propertyId=
func conversationRef(c *gin.Context) models.ConversationRef {
	ref := models.ConversationRef{OtherUserID: c.Param("userID")}
	if pid := c.Query("propertyId"); pid != "" {
		ref.PropertyID = &pid
	}
	return ref
}

// serviceError maps the aborting service errors to HTTP statuses
func serviceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, messaging.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
	case errors.Is(err, messaging.ErrNotConfigured):
		log.Error("Message store unavailable: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "Messaging is not available"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
	}
}

func (h *MessageHandler) notify(userID string, event websocket.Event) {
	if h.Notifier != nil {
		h.Notifier.Notify(userID, event)
	}
}

// GetConversations lists the caller's conversations, newest first
func (h *MessageHandler) GetConversations(c *gin.Context) {
	result, err := h.Service.GetConversations(c.Request.Context(), c.GetString(ctxUserID))
	if err != nil {
		serviceError(c, err)
		return
	}
	if !result.Success {
		c.JSON(http.StatusInternalServerError, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetMessages returns one conversation oldest first and marks it read for the caller
func (h *MessageHandler) GetMessages(c *gin.Context) {
	result, err := h.Service.GetMessages(c.Request.Context(), c.GetString(ctxUserID), conversationRef(c))
	if err != nil {
		serviceError(c, err)
		return
	}
	if !result.Success {
		c.JSON(http.StatusInternalServerError, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// SendMessage stores a message to the counterparty and pushes it to them
func (h *MessageHandler) SendMessage(c *gin.Context) {
	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	userID := c.GetString(ctxUserID)
	ref := models.ConversationRef{OtherUserID: c.Param("userID"), PropertyID: req.PropertyID}

	result, err := h.Service.SendMessage(c.Request.Context(), userID, ref, req.Message, req.MessageTitle, callerProfile(c))
	if err != nil {
		serviceError(c, err)
		return
	}
	if !result.Success {
		c.JSON(http.StatusInternalServerError, result)
		return
	}

	sent := result.Message
	h.notify(sent.ToUserID, websocket.Event{
		Type:           websocket.EventMessage,
		SenderID:       sent.FromUserID,
		ReceiverID:     sent.ToUserID,
		ConversationID: models.ConversationID(sent.FromUserID, sent.PropertyID),
		PropertyID:     sent.PropertyID,
		Content:        sent.Message,
		Data:           sent,
	})

	c.JSON(http.StatusCreated, result)
}

// MarkAsRead flags the counterparty's messages to the caller as read
func (h *MessageHandler) MarkAsRead(c *gin.Context) {
	userID := c.GetString(ctxUserID)
	ref := conversationRef(c)

	marked, err := h.Service.MarkMessagesAsRead(c.Request.Context(), userID, ref)
	if errors.Is(err, messaging.ErrValidation) || errors.Is(err, messaging.ErrNotConfigured) {
		serviceError(c, err)
		return
	}
	if err != nil {
		log.Error("Failed to mark messages from %s as read for %s: %v", ref.OtherUserID, userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	if marked > 0 {
		h.notify(ref.OtherUserID, websocket.Event{
			Type:           websocket.EventRead,
			SenderID:       userID,
			ReceiverID:     ref.OtherUserID,
			ConversationID: models.ConversationID(userID, ref.PropertyID),
			PropertyID:     ref.PropertyID,
			Data:           gin.H{"marked": marked},
		})
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "marked": marked})
}

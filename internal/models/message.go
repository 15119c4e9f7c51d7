package models

import (
	"time"
)

// MessageTypeText is the only message type produced by the send path
const MessageTypeText = "text"

// Message represents a direct message between two marketplace users
type Message struct {
	ID           string     `json:"$id"`
	FromUserID   string     `json:"fromUserId"`
	ToUserID     string     `json:"toUserId"`
	PropertyID   *string    `json:"propertyId,omitempty"`
	Message      string     `json:"message"`
	MessageTitle string     `json:"messageTitle,omitempty"`
	MessageType  string     `json:"messageType"`
	IsRead       bool       `json:"isRead"`
	SentAt       *time.Time `json:"sentAt,omitempty"`
	AgentName    string     `json:"agentName,omitempty"`
	AgentID      string     `json:"agentId,omitempty"`
	CreatedAt    time.Time  `json:"$createdAt"`
}

// Timestamp returns the send time, falling back to the record creation time
func (m *Message) Timestamp() time.Time {
	if m.SentAt != nil && !m.SentAt.IsZero() {
		return *m.SentAt
	}
	return m.CreatedAt
}

// Counterparty returns the participant of m that is not userID
func (m *Message) Counterparty(userID string) string {
	if m.FromUserID == userID {
		return m.ToUserID
	}
	return m.FromUserID
}

// SendMessageRequest is the body accepted by the send endpoint
type SendMessageRequest struct {
	Message      string  `json:"message" binding:"required"`
	MessageTitle string  `json:"messageTitle"`
	PropertyID   *string `json:"propertyId"`
}

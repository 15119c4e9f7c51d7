// Package messaging derives buyer/agent conversations from the flat message
// log and owns the read-state and send paths of direct messages.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/realtyhub/messaging/internal/database"
	"github.com/realtyhub/messaging/internal/logger"
	"github.com/realtyhub/messaging/internal/models"
)

const (
	// ConversationWindow caps how many recent messages conversations are built from.
	// Conversations whose newest message falls outside it are not listed.
	ConversationWindow = 100
	// MessageWindow caps the messages returned for one conversation.
	MessageWindow = 100
)

var (
	// ErrNotConfigured means the backing store is missing or unreachable
	ErrNotConfigured = errors.New("message store is not configured")
	// ErrValidation means a required identifier or field was empty
	ErrValidation = errors.New("validation failed")
)

var log = logger.New("messaging")

// Service implements conversation listing, reading and sending on top of a document store
type Service struct {
	db  database.DBInterface
	now func() time.Time
}

// NewService creates a messaging service backed by db
func NewService(db database.DBInterface) *Service {
	return &Service{db: db, now: time.Now}
}

// ConversationsResult is the envelope returned by GetConversations
type ConversationsResult struct {
	Success       bool                  `json:"success"`
	Error         string                `json:"error,omitempty"`
	Conversations []models.Conversation `json:"conversations"`
}

// MessagesResult is the envelope returned by GetMessages
type MessagesResult struct {
	Success  bool              `json:"success"`
	Error    string            `json:"error,omitempty"`
	Messages []*models.Message `json:"messages"`
}

// SendResult is the envelope returned by SendMessage
type SendResult struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Message *models.Message `json:"message,omitempty"`
}

// ready reports a configuration error when the store is absent or does not answer
func (s *Service) ready(ctx context.Context) error {
	if s == nil || s.db == nil {
		return ErrNotConfigured
	}
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrNotConfigured, err)
	}
	return nil
}

func validationError(field string) error {
	return fmt.Errorf("%w: %s is required", ErrValidation, field)
}

func requireIDs(userID string, ref models.ConversationRef) error {
	if strings.TrimSpace(userID) == "" {
		return validationError("userId")
	}
	if strings.TrimSpace(ref.OtherUserID) == "" {
		return validationError("otherUserId")
	}
	return nil
}

// participantsFilter matches messages exchanged between the two users in either direction
func participantsFilter(userID string, ref models.ConversationRef) database.Filter {
	between := database.Or(
		database.And(database.Eq(database.FieldFromUserID, userID), database.Eq(database.FieldToUserID, ref.OtherUserID)),
		database.And(database.Eq(database.FieldFromUserID, ref.OtherUserID), database.Eq(database.FieldToUserID, userID)),
	)
	if ref.PropertyID != nil && *ref.PropertyID != "" {
		return database.And(between, database.Eq(database.FieldPropertyID, *ref.PropertyID))
	}
	return between
}

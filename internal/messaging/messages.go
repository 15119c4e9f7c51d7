package messaging

import (
	"context"
	"strings"

	"github.com/realtyhub/messaging/internal/database"
	"github.com/realtyhub/messaging/internal/models"
)

// GetMessages returns the messages of one conversation oldest first and marks
// the counterparty's messages to userID as read. A failed mark never fails the read.
func (s *Service) GetMessages(ctx context.Context, userID string, ref models.ConversationRef) (MessagesResult, error) {
	if err := s.ready(ctx); err != nil {
		return MessagesResult{Messages: []*models.Message{}}, err
	}
	if err := requireIDs(userID, ref); err != nil {
		return MessagesResult{Messages: []*models.Message{}}, err
	}

	messages, listErr := s.db.ListMessages(ctx, database.Query{
		Filter: participantsFilter(userID, ref),
		Order:  database.SentAtAsc,
		Limit:  MessageWindow,
	})

	if _, err := s.MarkMessagesAsRead(ctx, userID, ref); err != nil {
		log.Warn("Failed to mark messages from %s to %s as read: %v", ref.OtherUserID, userID, err)
	}

	if listErr != nil {
		log.Error("Failed to list messages between %s and %s: %v", userID, ref.OtherUserID, listErr)
		return MessagesResult{Error: listErr.Error(), Messages: []*models.Message{}}, nil
	}
	if messages == nil {
		messages = []*models.Message{}
	}

	return MessagesResult{Success: true, Messages: messages}, nil
}

// MarkMessagesAsRead flags every unread message from ref.OtherUserID to userID
// as read, one record at a time. Individual update failures are logged and
// skipped; the returned count covers the updates that succeeded.
func (s *Service) MarkMessagesAsRead(ctx context.Context, userID string, ref models.ConversationRef) (int, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	if err := requireIDs(userID, ref); err != nil {
		return 0, err
	}

	unread, err := s.db.ListMessages(ctx, database.Query{
		Filter: database.And(
			database.Eq(database.FieldFromUserID, ref.OtherUserID),
			database.Eq(database.FieldToUserID, userID),
			database.Eq(database.FieldIsRead, false),
		),
	})
	if err != nil {
		return 0, err
	}

	marked := 0
	for _, msg := range unread {
		if err := s.db.MarkMessageAsRead(ctx, msg.ID); err != nil {
			log.Warn("Failed to mark message %s as read: %v", msg.ID, err)
			continue
		}
		marked++
	}

	if marked > 0 {
		log.Debug("Marked %d messages from %s to %s as read", marked, ref.OtherUserID, userID)
	}
	return marked, nil
}

// SendMessage stores a new text message from userID to the conversation's
// counterparty, stamped with the sender's display name.
func (s *Service) SendMessage(ctx context.Context, userID string, ref models.ConversationRef, text, title string, sender models.SenderProfile) (SendResult, error) {
	if err := s.ready(ctx); err != nil {
		return SendResult{}, err
	}
	if err := requireIDs(userID, ref); err != nil {
		return SendResult{}, err
	}
	body := strings.TrimSpace(text)
	if body == "" {
		return SendResult{}, validationError("message")
	}

	agentName, agentID := resolveSenderName(ctx, s.db, userID, sender)
	sentAt := s.now().UTC()

	msg := &models.Message{
		FromUserID:   userID,
		ToUserID:     ref.OtherUserID,
		Message:      body,
		MessageTitle: strings.TrimSpace(title),
		MessageType:  models.MessageTypeText,
		IsRead:       false,
		SentAt:       &sentAt,
		AgentName:    agentName,
		AgentID:      agentID,
	}
	if ref.PropertyID != nil && *ref.PropertyID != "" {
		pid := *ref.PropertyID
		msg.PropertyID = &pid
	}

	created, err := s.db.CreateMessage(ctx, msg)
	if err != nil {
		log.Error("Failed to store message from %s to %s: %v", userID, ref.OtherUserID, err)
		return SendResult{Error: err.Error()}, nil
	}

	log.Info("Message %s sent from %s to %s", created.ID, userID, ref.OtherUserID)
	return SendResult{Success: true, Message: created}, nil
}

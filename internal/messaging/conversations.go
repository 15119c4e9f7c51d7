package messaging

import (
	"context"
	"sort"
	"strings"

	"github.com/realtyhub/messaging/internal/database"
	"github.com/realtyhub/messaging/internal/models"
)

// conversationKey identifies a conversation; an empty property is a general inquiry.
// Display ids can collide (user "a_b" general vs user "a" on listing "b_general").
type conversationKey struct {
	other    string
	property string
}

func keyOf(otherUserID string, msg *models.Message) conversationKey {
	key := conversationKey{other: otherUserID}
	if pid := propertyOf(msg); pid != nil {
		key.property = *pid
	}
	return key
}

// conversationSet groups messages by conversation, remembering first-seen order
type conversationSet struct {
	order []conversationKey
	byKey map[conversationKey]*models.Conversation
}

func newConversationSet() *conversationSet {
	return &conversationSet{byKey: make(map[conversationKey]*models.Conversation)}
}

func isUnreadFor(userID string, msg *models.Message) bool {
	return !msg.IsRead && msg.FromUserID != userID
}

// add folds msg into its conversation. Messages arrive newest first, so the first
// message seen fixes the conversation's identity; a later one replaces the last
// message only when it is strictly newer.
func (cs *conversationSet) add(userID string, msg *models.Message, seed func(otherUserID string) models.Conversation) {
	otherUserID := msg.Counterparty(userID)
	key := keyOf(otherUserID, msg)

	conv, ok := cs.byKey[key]
	if !ok {
		c := seed(otherUserID)
		c.ID = models.ConversationID(otherUserID, msg.PropertyID)
		c.LastMessage = msg.Message
		c.LastMessageAt = msg.Timestamp()
		c.LastMessageFromUserID = msg.FromUserID
		if isUnreadFor(userID, msg) {
			c.UnreadCount = 1
		}
		cs.byKey[key] = &c
		cs.order = append(cs.order, key)
		return
	}

	if isUnreadFor(userID, msg) {
		conv.UnreadCount++
	}
	if ts := msg.Timestamp(); ts.After(conv.LastMessageAt) {
		conv.LastMessage = msg.Message
		conv.LastMessageAt = ts
		conv.LastMessageFromUserID = msg.FromUserID
	}
}

// propertyOf returns the listing id of msg, or nil for a general inquiry
func propertyOf(msg *models.Message) *string {
	if msg.PropertyID == nil || *msg.PropertyID == "" {
		return nil
	}
	id := *msg.PropertyID
	return &id
}

// sorted returns the conversations newest first; ties keep first-seen order
func (cs *conversationSet) sorted() []models.Conversation {
	out := make([]models.Conversation, 0, len(cs.order))
	for _, key := range cs.order {
		out = append(out, *cs.byKey[key])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastMessageAt.After(out[j].LastMessageAt)
	})
	return out
}

// GetConversations lists the conversations of userID built from their most
// recent messages. Only configuration and validation problems are returned as
// errors; everything else is reported in the result.
func (s *Service) GetConversations(ctx context.Context, userID string) (ConversationsResult, error) {
	if err := s.ready(ctx); err != nil {
		return ConversationsResult{Conversations: []models.Conversation{}}, err
	}
	if strings.TrimSpace(userID) == "" {
		return ConversationsResult{Conversations: []models.Conversation{}}, validationError("userId")
	}

	messages, err := s.db.ListMessages(ctx, database.Query{
		Filter: database.Or(
			database.Eq(database.FieldFromUserID, userID),
			database.Eq(database.FieldToUserID, userID),
		),
		Order: database.SentAtDesc,
		Limit: ConversationWindow,
	})
	if err != nil {
		log.Error("Failed to list messages for %s: %v", userID, err)
		return ConversationsResult{Error: err.Error(), Conversations: []models.Conversation{}}, nil
	}
	if len(messages) == ConversationWindow {
		log.Debug("User %s reached the %d message window, older conversations are not listed", userID, ConversationWindow)
	}

	users := newUserLookup(s.db)
	set := newConversationSet()
	for _, msg := range messages {
		msg := msg
		set.add(userID, msg, func(otherUserID string) models.Conversation {
			cp := resolveCounterparty(ctx, users, otherUserID, msg)
			listing := resolveListing(ctx, s.db, msg.PropertyID)
			return models.Conversation{
				OtherUserID:     otherUserID,
				OtherUserName:   cp.name,
				OtherUserAvatar: cp.avatar,
				OtherUserType:   cp.userType,
				PropertyID:      propertyOf(msg),
				PropertyTitle:   listing.title,
				PropertyImage:   listing.image,
			}
		})
	}

	conversations := set.sorted()
	log.Debug("Built %d conversations from %d messages for %s", len(conversations), len(messages), userID)

	return ConversationsResult{Success: true, Conversations: conversations}, nil
}

package models

import "time"

// GeneralPropertyKey stands in for the property id of conversations not tied to a listing
const GeneralPropertyKey = "general"

// Conversation is derived from the message set on every fetch; it is never stored
type Conversation struct {
	ID                    string    `json:"id"`
	OtherUserID           string    `json:"otherUserId"`
	OtherUserName         string    `json:"otherUserName"`
	OtherUserAvatar       string    `json:"otherUserAvatar,omitempty"`
	OtherUserType         UserType  `json:"otherUserType"`
	PropertyID            *string   `json:"propertyId,omitempty"`
	PropertyTitle         string    `json:"propertyTitle"`
	PropertyImage         string    `json:"propertyImage,omitempty"`
	LastMessage           string    `json:"lastMessage"`
	LastMessageAt         time.Time `json:"lastMessageAt"`
	LastMessageFromUserID string    `json:"lastMessageFromUserId"`
	UnreadCount           int       `json:"unreadCount"`
}

// ConversationRef identifies a conversation from the caller's point of view
type ConversationRef struct {
	OtherUserID string  `json:"otherUserId"`
	PropertyID  *string `json:"propertyId,omitempty"`
}

// Ref returns the reference that addresses c
func (c Conversation) Ref() ConversationRef {
	return ConversationRef{OtherUserID: c.OtherUserID, PropertyID: c.PropertyID}
}

// ConversationID builds the composite grouping key of a conversation
func ConversationID(otherUserID string, propertyID *string) string {
	key := GeneralPropertyKey
	if propertyID != nil && *propertyID != "" {
		key = *propertyID
	}
	return otherUserID + "_" + key
}

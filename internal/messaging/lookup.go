package messaging

import (
	"context"
	"strings"

	"github.com/realtyhub/messaging/internal/database"
	"github.com/realtyhub/messaging/internal/models"
)

const (
	generalInquiryTitle = "General Inquiry"
	unknownUserName     = "Unknown"
)

// counterparty is the display identity of the other side of a conversation
type counterparty struct {
	name     string
	avatar   string
	userType models.UserType
}

// listingInfo is the display metadata of the listing a conversation concerns
type listingInfo struct {
	title string
	image string
}

// userPlaceholder names a user whose record could not be used
func userPlaceholder(userID string) string {
	if userID == "" {
		return unknownUserName
	}
	if len(userID) > 8 {
		userID = userID[:8]
	}
	return "User " + userID
}

// isPlaceholderName reports whether a stamped agent name carries no real identity
func isPlaceholderName(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "unknown", "unknown agent", "agent", "user":
		return true
	}
	return false
}

// userLookup fetches user records at most once per id for the lifetime of one aggregation
type userLookup struct {
	db    database.DBInterface
	users map[string]*models.User
	errs  map[string]error
}

func newUserLookup(db database.DBInterface) *userLookup {
	return &userLookup{
		db:    db,
		users: make(map[string]*models.User),
		errs:  make(map[string]error),
	}
}

func (l *userLookup) get(ctx context.Context, userID string) (*models.User, error) {
	if u, ok := l.users[userID]; ok {
		return u, nil
	}
	if err, ok := l.errs[userID]; ok {
		return nil, err
	}
	u, err := l.db.GetUserByID(ctx, userID)
	if err != nil {
		l.errs[userID] = err
		return nil, err
	}
	l.users[userID] = u
	return u, nil
}

// resolveCounterparty never fails: a real stamped agent name wins, then the
// user record, then whatever name was stamped, then a placeholder derived from
// the id. The stamped name only describes the counterparty when they sent msg.
func resolveCounterparty(ctx context.Context, users *userLookup, otherUserID string, msg *models.Message) counterparty {
	stamped := ""
	if msg.FromUserID == otherUserID && !isPlaceholderName(msg.AgentName) {
		stamped = strings.TrimSpace(msg.AgentName)
	}
	if stamped != "" {
		return counterparty{name: stamped, userType: models.UserTypeAgent}
	}

	if otherUserID != "" {
		user, err := users.get(ctx, otherUserID)
		if err == nil {
			cp := counterparty{
				name:     user.Name,
				avatar:   user.Avatar,
				userType: user.UserType,
			}
			if strings.TrimSpace(cp.name) == "" {
				cp.name = userPlaceholder(otherUserID)
			}
			if !cp.userType.Valid() {
				cp.userType = models.UserTypeBuyer
			}
			return cp
		}
		if database.IsNotFound(err) {
			log.Debug("Counterparty %s not found, using placeholder", otherUserID)
		} else {
			log.Warn("Failed to fetch counterparty %s: %v", otherUserID, err)
		}
	}

	if name := strings.TrimSpace(msg.AgentName); name != "" && msg.FromUserID == otherUserID {
		return counterparty{name: name, userType: models.UserTypeAgent}
	}
	return counterparty{name: userPlaceholder(otherUserID), userType: models.UserTypeBuyer}
}

// resolveListing never fails; a missing or unreadable listing keeps its placeholder title
func resolveListing(ctx context.Context, db database.DBInterface, propertyID *string) listingInfo {
	if propertyID == nil || *propertyID == "" {
		return listingInfo{title: generalInquiryTitle}
	}
	id := *propertyID
	info := listingInfo{title: "Property " + id}

	listing, err := db.GetListingByID(ctx, id)
	if err != nil {
		if database.IsNotFound(err) {
			log.Debug("Listing %s not found, keeping placeholder title", id)
		} else {
			log.Warn("Failed to fetch listing %s: %v", id, err)
		}
		return info
	}

	info.title = listing.Title
	if strings.TrimSpace(info.title) == "" {
		short := id
		if len(short) > 8 {
			short = short[:8]
		}
		info.title = "Property " + short
	}
	info.image = listing.CoverImage()
	return info
}

// resolveSenderName picks the name stamped on an outgoing message. Agents get
// their directory display name when it can be fetched; the lookup never blocks a send.
func resolveSenderName(ctx context.Context, db database.DBInterface, userID string, sender models.SenderProfile) (name, agentID string) {
	name = strings.TrimSpace(sender.Name)
	if sender.UserType != models.UserTypeAgent {
		return name, ""
	}

	agentID = userID
	agent, err := db.GetAgentByUserID(ctx, userID)
	if err != nil {
		log.Debug("Agent directory lookup failed for %s: %v", userID, err)
		return name, agentID
	}
	if agent.ID != "" {
		agentID = agent.ID
	}
	if display := strings.TrimSpace(agent.DisplayName); display != "" {
		name = display
	}
	return name, agentID
}

package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/realtyhub/messaging/internal/models"
)

const messageColumns = `id, from_user_id, to_user_id, property_id, message, message_title,
	message_type, is_read, sent_at, agent_name, agent_id, created_at`

// sqlStore implements DBInterface over database/sql. Queries are written with
// '?' placeholders and rebound for drivers that number their parameters.
type sqlStore struct {
	db          *sql.DB
	placeholder func(n int) string
}

func (s *sqlStore) rebind(query string) string {
	if s.placeholder == nil {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteString(s.placeholder(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func (s *sqlStore) migrate(ctx context.Context, statements []string) error {
	for i, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

func (s *sqlStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}

func (s *sqlStore) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	var count int
	err := s.db.QueryRowContext(ctx, s.rebind("SELECT COUNT(*) FROM users WHERE email = ?"),
		user.Email).Scan(&count)
	if err != nil {
		return nil, err
	}

	if count > 0 {
		return nil, ErrUserAlreadyExists
	}

	created := *user
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	if created.UserType == "" {
		created.UserType = models.UserTypeBuyer
	}
	now := time.Now().UTC()
	created.CreatedAt = now
	created.LastSeen = now

	_, err = s.db.ExecContext(ctx, s.rebind(
		"INSERT INTO users (id, name, email, password_hash, user_type, avatar, created_at, last_seen) VALUES (?, ?, ?, ?, ?, ?, ?, ?)"),
		created.ID, created.Name, created.Email, created.PasswordHash, string(created.UserType),
		created.Avatar, created.CreatedAt, created.LastSeen,
	)
	if err != nil {
		return nil, err
	}

	return &created, nil
}

func (s *sqlStore) getUser(ctx context.Context, column, value string) (*models.User, error) {
	var user models.User
	var userType string

	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT id, name, email, password_hash, user_type, avatar, created_at, last_seen
		FROM users WHERE `+column+` = ?`), value).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&userType,
		&user.Avatar,
		&user.CreatedAt,
		&user.LastSeen,
	)

	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	user.UserType = models.UserType(userType)
	return &user, nil
}

func (s *sqlStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, "email", email)
}

func (s *sqlStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, "id", id)
}

func (s *sqlStore) UpdateLastSeen(ctx context.Context, userID string) error {
	result, err := s.db.ExecContext(ctx, s.rebind("UPDATE users SET last_seen = ? WHERE id = ?"),
		time.Now().UTC(), userID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (s *sqlStore) CreateAgent(ctx context.Context, agent *models.Agent) (*models.Agent, error) {
	created := *agent
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	created.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, s.rebind(
		"INSERT INTO agents (id, user_id, display_name, agency, created_at) VALUES (?, ?, ?, ?, ?)"),
		created.ID, created.UserID, created.DisplayName, created.Agency, created.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &created, nil
}

func (s *sqlStore) GetAgentByUserID(ctx context.Context, userID string) (*models.Agent, error) {
	var agent models.Agent

	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT id, user_id, display_name, agency, created_at
		FROM agents WHERE user_id = ?`), userID).Scan(
		&agent.ID, &agent.UserID, &agent.DisplayName, &agent.Agency, &agent.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrAgentNotFound
	}
	if err != nil {
		return nil, err
	}

	return &agent, nil
}

func (s *sqlStore) CreateListing(ctx context.Context, listing *models.Listing) (*models.Listing, error) {
	created := *listing
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	created.CreatedAt = time.Now().UTC()

	images, err := json.Marshal(created.Images)
	if err != nil {
		return nil, fmt.Errorf("failed to encode listing images: %w", err)
	}

	_, err = s.db.ExecContext(ctx, s.rebind(
		"INSERT INTO listings (id, title, images, image, owner_id, created_at) VALUES (?, ?, ?, ?, ?, ?)"),
		created.ID, created.Title, string(images), created.Image, created.OwnerID, created.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &created, nil
}

func (s *sqlStore) GetListingByID(ctx context.Context, id string) (*models.Listing, error) {
	var listing models.Listing
	var images string

	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT id, title, images, image, owner_id, created_at
		FROM listings WHERE id = ?`), id).Scan(
		&listing.ID, &listing.Title, &images, &listing.Image, &listing.OwnerID, &listing.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrListingNotFound
	}
	if err != nil {
		return nil, err
	}

	if images != "" && images != "null" {
		if err := json.Unmarshal([]byte(images), &listing.Images); err != nil {
			return nil, fmt.Errorf("failed to decode listing images: %w", err)
		}
	}

	return &listing, nil
}

func (s *sqlStore) ListMessages(ctx context.Context, q Query) ([]*models.Message, error) {
	// The tail carries its own placeholders, so the statement is not rebound.
	placeholder := s.placeholder
	if placeholder == nil {
		placeholder = questionPlaceholder
	}
	tail, args := q.whereClause(placeholder)

	rows, err := s.db.QueryContext(ctx, "SELECT "+messageColumns+" FROM messages"+tail, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, msg)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating message rows: %w", err)
	}

	return messages, nil
}

func scanMessage(rows *sql.Rows) (*models.Message, error) {
	var msg models.Message
	var propertyID sql.NullString
	var sentAt sql.NullTime

	err := rows.Scan(
		&msg.ID,
		&msg.FromUserID,
		&msg.ToUserID,
		&propertyID,
		&msg.Message,
		&msg.MessageTitle,
		&msg.MessageType,
		&msg.IsRead,
		&sentAt,
		&msg.AgentName,
		&msg.AgentID,
		&msg.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if propertyID.Valid {
		msg.PropertyID = &propertyID.String
	}
	if sentAt.Valid {
		t := sentAt.Time
		msg.SentAt = &t
	}

	return &msg, nil
}

func (s *sqlStore) CreateMessage(ctx context.Context, msg *models.Message) (*models.Message, error) {
	created := *msg
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	created.CreatedAt = time.Now().UTC()

	var propertyID sql.NullString
	if created.PropertyID != nil && *created.PropertyID != "" {
		propertyID = sql.NullString{String: *created.PropertyID, Valid: true}
	}
	var sentAt sql.NullTime
	if created.SentAt != nil {
		sentAt = sql.NullTime{Time: created.SentAt.UTC(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, s.rebind(
		"INSERT INTO messages ("+messageColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"),
		created.ID, created.FromUserID, created.ToUserID, propertyID, created.Message,
		created.MessageTitle, created.MessageType, created.IsRead, sentAt,
		created.AgentName, created.AgentID, created.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &created, nil
}

func (s *sqlStore) MarkMessageAsRead(ctx context.Context, messageID string) error {
	result, err := s.db.ExecContext(ctx, s.rebind("UPDATE messages SET is_read = ? WHERE id = ?"),
		true, messageID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrMessageNotFound
	}

	return nil
}

// IsNotFound reports whether err is one of the store's lookup-miss errors
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrAgentNotFound) ||
		errors.Is(err, ErrListingNotFound) ||
		errors.Is(err, ErrMessageNotFound)
}

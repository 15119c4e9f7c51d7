package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/realtyhub/messaging/internal/models"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrMessageNotFound   = errors.New("message not found")
	ErrAgentNotFound     = errors.New("agent not found")
	ErrListingNotFound   = errors.New("listing not found")

	errClosed = errors.New("database is closed")
)

// DBInterface is the document store behind the marketplace: users, the agent
// directory, listings and messages
type DBInterface interface {
	Ping(ctx context.Context) error

	// User methods
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdateLastSeen(ctx context.Context, userID string) error

	// Agent directory methods
	CreateAgent(ctx context.Context, agent *models.Agent) (*models.Agent, error)
	GetAgentByUserID(ctx context.Context, userID string) (*models.Agent, error)

	// Listing methods
	CreateListing(ctx context.Context, listing *models.Listing) (*models.Listing, error)
	GetListingByID(ctx context.Context, id string) (*models.Listing, error)

	// Message methods
	ListMessages(ctx context.Context, q Query) ([]*models.Message, error)
	CreateMessage(ctx context.Context, msg *models.Message) (*models.Message, error)
	MarkMessageAsRead(ctx context.Context, messageID string) error

	Close() error
}

type DatabaseType string

const (
	PostgreSQL DatabaseType = "postgres"
	SQLite     DatabaseType = "sqlite"
	Memory     DatabaseType = "memory"
)

func NewDatabase(dbType DatabaseType, connStr string) (DBInterface, error) {
	switch dbType {
	case PostgreSQL:
		return NewPostgresDB(connStr)
	case SQLite:
		return NewSQLiteDB(connStr)
	case Memory:
		return NewMemoryDB(), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}
}

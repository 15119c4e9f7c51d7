package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/realtyhub/messaging/internal/models"
)

// MemoryDB keeps every collection in process memory. Used for development
// runs without a database server and in tests.
type MemoryDB struct {
	mu       sync.RWMutex
	users    map[string]*models.User
	agents   map[string]*models.Agent // keyed by user id
	listings map[string]*models.Listing
	messages []*models.Message
	closed   bool
}

func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		users:    make(map[string]*models.User),
		agents:   make(map[string]*models.Agent),
		listings: make(map[string]*models.Listing),
	}
}

func (db *MemoryDB) Ping(ctx context.Context) error {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.closed {
		return errClosed
	}
	return nil
}

func (db *MemoryDB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.closed = true
	return nil
}

func (db *MemoryDB) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, u := range db.users {
		if u.Email == user.Email {
			return nil, ErrUserAlreadyExists
		}
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
	db.users[created.ID] = &created
	out := created
	return &out, nil
}

func (db *MemoryDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	for _, u := range db.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, ErrUserNotFound
}

func (db *MemoryDB) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	u, ok := db.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	out := *u
	return &out, nil
}

func (db *MemoryDB) UpdateLastSeen(ctx context.Context, userID string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	u, ok := db.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	u.LastSeen = time.Now().UTC()
	return nil
}

func (db *MemoryDB) CreateAgent(ctx context.Context, agent *models.Agent) (*models.Agent, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	created := *agent
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	created.CreatedAt = time.Now().UTC()
	db.agents[created.UserID] = &created
	out := created
	return &out, nil
}

func (db *MemoryDB) GetAgentByUserID(ctx context.Context, userID string) (*models.Agent, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	a, ok := db.agents[userID]
	if !ok {
		return nil, ErrAgentNotFound
	}
	out := *a
	return &out, nil
}

func (db *MemoryDB) CreateListing(ctx context.Context, listing *models.Listing) (*models.Listing, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	created := *listing
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	created.Images = append([]string(nil), listing.Images...)
	created.CreatedAt = time.Now().UTC()
	db.listings[created.ID] = &created
	out := created
	return &out, nil
}

func (db *MemoryDB) GetListingByID(ctx context.Context, id string) (*models.Listing, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	l, ok := db.listings[id]
	if !ok {
		return nil, ErrListingNotFound
	}
	out := *l
	out.Images = append([]string(nil), l.Images...)
	return &out, nil
}

// ListMessages returns copies, so callers cannot mutate stored records.
func (db *MemoryDB) ListMessages(ctx context.Context, q Query) ([]*models.Message, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	var out []*models.Message
	for _, m := range db.messages {
		if q.Filter != nil && !q.Filter.Match(m) {
			continue
		}
		out = append(out, copyMessage(m))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if q.Order == SentAtAsc {
			return out[i].Timestamp().Before(out[j].Timestamp())
		}
		return out[i].Timestamp().After(out[j].Timestamp())
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (db *MemoryDB) CreateMessage(ctx context.Context, msg *models.Message) (*models.Message, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	created := copyMessage(msg)
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	created.CreatedAt = time.Now().UTC()
	db.messages = append(db.messages, created)
	return copyMessage(created), nil
}

func (db *MemoryDB) MarkMessageAsRead(ctx context.Context, messageID string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, m := range db.messages {
		if m.ID == messageID {
			m.IsRead = true
			return nil
		}
	}
	return ErrMessageNotFound
}

func copyMessage(m *models.Message) *models.Message {
	out := *m
	if m.PropertyID != nil {
		pid := *m.PropertyID
		out.PropertyID = &pid
	}
	if m.SentAt != nil {
		t := *m.SentAt
		out.SentAt = &t
	}
	return &out
}

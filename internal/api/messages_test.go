package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/realtyhub/messaging/internal/database"
	"github.com/realtyhub/messaging/internal/database/dbmock"
	"github.com/realtyhub/messaging/internal/messaging"
	"github.com/realtyhub/messaging/internal/models"
	"github.com/realtyhub/messaging/internal/websocket"
)

type sentEvent struct {
	userID string
	event  websocket.Event
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []sentEvent
}

func (n *recordingNotifier) Notify(userID string, event websocket.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, sentEvent{userID: userID, event: event})
}

func (n *recordingNotifier) sent() []sentEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentEvent(nil), n.events...)
}

type messagingFixture struct {
	router   *gin.Engine
	db       *database.MemoryDB
	notifier *recordingNotifier
	buyer    *models.User
	agent    *models.User
}

func setupMessagingRouter(t *testing.T) *messagingFixture {
	t.Helper()
	ctx := context.Background()
	db := database.NewMemoryDB()
	t.Cleanup(func() { db.Close() })

	buyer, err := db.CreateUser(ctx, &models.User{Name: "Bo Buyer", Email: "bo@example.com", UserType: models.UserTypeBuyer})
	require.NoError(t, err)
	agent, err := db.CreateUser(ctx, &models.User{Name: "Ana Agent", Email: "ana@example.com", UserType: models.UserTypeAgent})
	require.NoError(t, err)
	_, err = db.CreateAgent(ctx, &models.Agent{UserID: agent.ID, DisplayName: "Ana from Coastal Homes"})
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	handler := NewMessageHandler(messaging.NewService(db), notifier)

	router := gin.New()
	authorized := router.Group("/api", AuthMiddleware())
	authorized.GET("/conversations", handler.GetConversations)
	authorized.GET("/conversations/:userID/messages", handler.GetMessages)
	authorized.POST("/conversations/:userID/messages", handler.SendMessage)
	authorized.PUT("/conversations/:userID/read", handler.MarkAsRead)

	return &messagingFixture{router: router, db: db, notifier: notifier, buyer: buyer, agent: agent}
}

func TestSendMessage(t *testing.T) {
	f := setupMessagingRouter(t)
	pid := "listing-1"

	w := doJSON(f.router, http.MethodPost, "/api/conversations/"+f.buyer.ID+"/messages",
		models.SendMessageRequest{Message: "  The viewing is at 10am  ", MessageTitle: "Viewing", PropertyID: &pid},
		tokenFor(t, f.agent))

	require.Equal(t, http.StatusCreated, w.Code)

	var result messaging.SendResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Success)
	require.NotNil(t, result.Message)
	assert.Equal(t, "The viewing is at 10am", result.Message.Message)
	assert.Equal(t, f.agent.ID, result.Message.FromUserID)
	assert.Equal(t, f.buyer.ID, result.Message.ToUserID)
	assert.Equal(t, "Ana from Coastal Homes", result.Message.AgentName)
	assert.False(t, result.Message.IsRead)

	events := f.notifier.sent()
	require.Len(t, events, 1)
	assert.Equal(t, f.buyer.ID, events[0].userID)
	assert.Equal(t, websocket.EventMessage, events[0].event.Type)
	assert.Equal(t, f.agent.ID+"_listing-1", events[0].event.ConversationID)
	assert.Equal(t, "The viewing is at 10am", events[0].event.Content)
}

func TestSendMessageValidation(t *testing.T) {
	f := setupMessagingRouter(t)
	token := tokenFor(t, f.buyer)

	tests := []struct {
		name string
		body interface{}
	}{
		{"missing body", gin.H{}},
		{"blank body", models.SendMessageRequest{Message: "   "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(f.router, http.MethodPost, "/api/conversations/"+f.agent.ID+"/messages", tt.body, token)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
	assert.Empty(t, f.notifier.sent())
}

func TestConversationFlow(t *testing.T) {
	f := setupMessagingRouter(t)
	buyerToken := tokenFor(t, f.buyer)
	agentToken := tokenFor(t, f.agent)

	for _, text := range []string{"Is it still available?", "Can I visit?"} {
		w := doJSON(f.router, http.MethodPost, "/api/conversations/"+f.agent.ID+"/messages",
			models.SendMessageRequest{Message: text}, buyerToken)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doJSON(f.router, http.MethodGet, "/api/conversations", nil, agentToken)
	require.Equal(t, http.StatusOK, w.Code)

	var convs messaging.ConversationsResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &convs))
	require.True(t, convs.Success)
	require.Len(t, convs.Conversations, 1)
	conv := convs.Conversations[0]
	assert.Equal(t, f.buyer.ID+"_general", conv.ID)
	assert.Equal(t, "Bo Buyer", conv.OtherUserName)
	assert.Equal(t, "General Inquiry", conv.PropertyTitle)
	assert.Equal(t, "Can I visit?", conv.LastMessage)
	assert.Equal(t, 2, conv.UnreadCount)

	w = doJSON(f.router, http.MethodGet, "/api/conversations/"+f.buyer.ID+"/messages", nil, agentToken)
	require.Equal(t, http.StatusOK, w.Code)

	var msgs messaging.MessagesResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &msgs))
	require.Len(t, msgs.Messages, 2)
	assert.Equal(t, "Is it still available?", msgs.Messages[0].Message)

	// reading the thread cleared the agent's unread count
	w = doJSON(f.router, http.MethodGet, "/api/conversations", nil, agentToken)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &convs))
	require.Len(t, convs.Conversations, 1)
	assert.Equal(t, 0, convs.Conversations[0].UnreadCount)
}

func TestMarkAsRead(t *testing.T) {
	f := setupMessagingRouter(t)
	pid := "listing-9"

	w := doJSON(f.router, http.MethodPost, "/api/conversations/"+f.agent.ID+"/messages",
		models.SendMessageRequest{Message: "Hello", PropertyID: &pid}, tokenFor(t, f.buyer))
	require.Equal(t, http.StatusCreated, w.Code)

	agentToken := tokenFor(t, f.agent)

	w = doJSON(f.router, http.MethodPut, "/api/conversations/"+f.buyer.ID+"/read?propertyId="+pid, nil, agentToken)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success bool `json:"success"`
		Marked  int  `json:"marked"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, 1, body.Marked)

	events := f.notifier.sent()
	require.Len(t, events, 2)
	receipt := events[1]
	assert.Equal(t, f.buyer.ID, receipt.userID)
	assert.Equal(t, websocket.EventRead, receipt.event.Type)
	assert.Equal(t, f.agent.ID+"_listing-9", receipt.event.ConversationID)

	t.Run("nothing left to mark sends no receipt", func(t *testing.T) {
		w := doJSON(f.router, http.MethodPut, "/api/conversations/"+f.buyer.ID+"/read", nil, agentToken)
		require.Equal(t, http.StatusOK, w.Code)
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, 0, body.Marked)
		assert.Len(t, f.notifier.sent(), 2)
	})
}

func TestMessageRoutesRequireAuth(t *testing.T) {
	f := setupMessagingRouter(t)

	w := doJSON(f.router, http.MethodGet, "/api/conversations", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMessageRoutesStoreUnavailable(t *testing.T) {
	mockDB := new(dbmock.MockDB)
	mockDB.On("Ping", mock.Anything).Return(errors.New("connection refused"))

	router := gin.New()
	handler := NewMessageHandler(messaging.NewService(mockDB), nil)
	router.GET("/api/conversations", AuthMiddleware(), handler.GetConversations)
	router.PUT("/api/conversations/:userID/read", AuthMiddleware(), handler.MarkAsRead)

	token := tokenFor(t, &models.User{ID: "buyer-1", Name: "Bo"})

	w := doJSON(router, http.MethodGet, "/api/conversations", nil, token)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = doJSON(router, http.MethodPut, "/api/conversations/agent-1/read", nil, token)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMessageRoutesStoreFailure(t *testing.T) {
	mockDB := new(dbmock.MockDB)
	mockDB.On("Ping", mock.Anything).Return(nil)
	mockDB.On("ListMessages", mock.Anything, mock.Anything).Return(nil, errors.New("query timeout"))

	router := gin.New()
	handler := NewMessageHandler(messaging.NewService(mockDB), nil)
	router.GET("/api/conversations", AuthMiddleware(), handler.GetConversations)
	router.PUT("/api/conversations/:userID/read", AuthMiddleware(), handler.MarkAsRead)

	token := tokenFor(t, &models.User{ID: "buyer-1", Name: "Bo"})

	w := doJSON(router, http.MethodGet, "/api/conversations", nil, token)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var result messaging.ConversationsResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.False(t, result.Success)
	assert.Equal(t, "query timeout", result.Error)
	assert.Empty(t, result.Conversations)

	w = doJSON(router, http.MethodPut, "/api/conversations/agent-1/read", nil, token)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

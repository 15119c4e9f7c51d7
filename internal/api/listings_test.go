package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/realtyhub/messaging/internal/database/dbmock"
	"github.com/realtyhub/messaging/internal/models"
)

func TestListings(t *testing.T) {
	router, _ := setupTestRouter(t)
	owner := &models.User{ID: "seller-1", Name: "Sam Seller", UserType: models.UserTypeSeller}
	token := tokenFor(t, owner)

	w := doJSON(router, http.MethodPost, "/api/listings", models.ListingRequest{
		Title:  "Two-bedroom flat, Lekki",
		Images: []string{"", "https://img.example.com/flat.jpg"},
	}, token)
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.Listing
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, owner.ID, created.OwnerID)

	t.Run("get", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/listings/"+created.ID, nil, token)
		require.Equal(t, http.StatusOK, w.Code)

		var listing models.Listing
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
		assert.Equal(t, "Two-bedroom flat, Lekki", listing.Title)
		assert.Equal(t, "https://img.example.com/flat.jpg", listing.CoverImage())
	})

	t.Run("not found", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/listings/missing", nil, token)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("blank title", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/listings", models.ListingRequest{Title: "   "}, token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("requires auth", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/listings/"+created.ID, nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestHealth(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		router, _ := setupTestRouter(t)
		w := doJSON(router, http.MethodGet, "/health", nil, "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	})

	t.Run("store down", func(t *testing.T) {
		mockDB := new(dbmock.MockDB)
		mockDB.On("Ping", mock.Anything).Return(errors.New("connection refused"))

		router := gin.New()
		router.GET("/health", Health(mockDB))

		w := doJSON(router, http.MethodGet, "/health", nil, "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		mockDB.AssertExpectations(t)
	})

	t.Run("closed store", func(t *testing.T) {
		router, db := setupTestRouter(t)
		require.NoError(t, db.Close())

		w := doJSON(router, http.MethodGet, "/health", nil, "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

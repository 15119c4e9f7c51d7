package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/realtyhub/messaging/internal/database"
	"github.com/realtyhub/messaging/internal/models"
)

// ListingHandler serves the listings that conversations refer to
type ListingHandler struct {
	DB database.DBInterface
}

// NewListingHandler creates a new listing handler
func NewListingHandler(db database.DBInterface) *ListingHandler {
	return &ListingHandler{DB: db}
}

// CreateListing publishes a listing owned by the caller
func (h *ListingHandler) CreateListing(c *gin.Context) {
	var req models.ListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title is required"})
		return
	}

	listing, err := h.DB.CreateListing(c.Request.Context(), &models.Listing{
		Title:   title,
		Images:  req.Images,
		Image:   req.Image,
		OwnerID: c.GetString(ctxUserID),
	})
	if err != nil {
		log.Error("Failed to create listing: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create listing"})
		return
	}

	c.JSON(http.StatusCreated, listing)
}

// GetListing returns a single listing
func (h *ListingHandler) GetListing(c *gin.Context) {
	listing, err := h.DB.GetListingByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, database.ErrListingNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve listing"})
		return
	}

	c.JSON(http.StatusOK, listing)
}

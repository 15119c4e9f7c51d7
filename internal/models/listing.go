package models

import "time"

// Listing is a property advertised on the marketplace
type Listing struct {
	ID        string    `json:"$id"`
	Title     string    `json:"title"`
	Images    []string  `json:"images,omitempty"`
	Image     string    `json:"image,omitempty"`
	OwnerID   string    `json:"ownerId"`
	CreatedAt time.Time `json:"$createdAt"`
}

// CoverImage returns the first image of the listing, or "" when it has none
func (l *Listing) CoverImage() string {
	for _, img := range l.Images {
		if img != "" {
			return img
		}
	}
	return l.Image
}

// ListingRequest is the body accepted by the listing creation endpoint
type ListingRequest struct {
	Title  string   `json:"title" binding:"required"`
	Images []string `json:"images"`
	Image  string   `json:"image"`
}

// Package userdata synchronizes per-user favorites and recently-viewed
// restaurants against the remote document store.
package userdata

import (
	"time"
)

// MaxRecents is the number of entries kept in the recents list. Older
// entries are silently dropped on write.
const MaxRecents = 10

// FavoriteEntry is the persisted subset of a restaurant saved as a favorite.
// A user's favorites list holds at most one entry per place ID.
type FavoriteEntry struct {
	PlaceID  string   `json:"place_id"`
	Name     string   `json:"name"`
	Rating   float64  `json:"rating"`
	Vicinity string   `json:"vicinity"`
	Photos   []string `json:"photos"`
	Lat      float64  `json:"lat"`
	Lng      float64  `json:"lng"`
}

// RecentEntry records one restaurant-detail view.
type RecentEntry struct {
	PlaceID   string    `json:"place_id"`
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
}

// Document is the per-user document held in the remote store.
type Document struct {
	Favorites []FavoriteEntry `json:"favorites"`
	Recents   []RecentEntry   `json:"recents"`
	UserID    string          `json:"userId"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// NewDocument returns an empty document for a user.
func NewDocument(userID string, now time.Time) Document {
	return Document{
		Favorites: []FavoriteEntry{},
		Recents:   []RecentEntry{},
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

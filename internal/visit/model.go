// Package visit provides models and repositories for the restaurant visit
// history kept by each user.
package visit

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrVisitNotFound is returned when the requested visit does not exist.
	ErrVisitNotFound = errors.New("visit not found")

	// ErrNotOwner is returned when a user tries to delete another user's visit.
	ErrNotOwner = errors.New("visit belongs to another user")
)

// Visit is one logged restaurant visit.
type Visit struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	RestaurantName string    `json:"restaurantName"`
	VisitDate      time.Time `json:"visitDate"`
	Amount         float64   `json:"amount"`
	Rating         float64   `json:"rating"`
	Cuisine        string    `json:"cuisine"`
	Photos         []string  `json:"photos"`
	Orders         []string  `json:"orders"`
	Notes          string    `json:"notes"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Filter narrows a user's visit list. Zero values leave a dimension
// inactive; MaxAmount of 0 means unbounded.
type Filter struct {
	SearchTerm string
	Cuisine    string
	MinRating  float64
	MinAmount  float64
	MaxAmount  float64
	HasPhotos  bool
}

// Matches reports whether the visit passes every active filter dimension.
func (f Filter) Matches(v Visit) bool {
	if f.SearchTerm != "" && !containsFold(v.RestaurantName, f.SearchTerm) {
		return false
	}
	if f.Cuisine != "" && f.Cuisine != "All" && v.Cuisine != f.Cuisine {
		return false
	}
	if v.Rating < f.MinRating {
		return false
	}
	if v.Amount < f.MinAmount {
		return false
	}
	if f.MaxAmount > 0 && v.Amount > f.MaxAmount {
		return false
	}
	if f.HasPhotos && len(v.Photos) == 0 {
		return false
	}
	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

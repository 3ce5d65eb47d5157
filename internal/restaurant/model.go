// Package restaurant provides the normalized restaurant model and the
// filter/sort pipeline applied to nearby-search results.
package restaurant

import "github.com/platefinder/platefinder/internal/geo"

// Restaurant is the application's normalized view of a place record,
// with derived fields computed against the user's location. Instances are
// immutable within one query cycle; re-fetching produces new values.
type Restaurant struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Rating          float64        `json:"rating"`
	PriceLevel      int            `json:"price_level"`
	DistanceKm      float64        `json:"distance_km"`
	Cuisine         string         `json:"cuisine"`
	IsOpen          bool           `json:"is_open"`
	ReviewCount     int            `json:"review_count"`
	Address         string         `json:"address"`
	PhotoReferences []string       `json:"photo_references,omitempty"`
	Coordinate      geo.Coordinate `json:"coordinate"`
}

// SortKey selects the active sort comparator. Exactly one key is active at
// a time.
type SortKey string

// Supported sort keys.
const (
	SortDistance  SortKey = "distance"
	SortRating    SortKey = "rating"
	SortReviews   SortKey = "reviews"
	SortPriceLow  SortKey = "price-low"
	SortPriceHigh SortKey = "price-high"
)

// CuisineAll is the cuisine filter value that matches every restaurant.
const CuisineAll = "All"

// FilterState holds the user-selected filter dimensions. It is transient
// and never persisted.
type FilterState struct {
	Cuisine       string  `json:"cuisine"`
	MaxDistanceKm float64 `json:"max_distance_km"`
	MinRating     float64 `json:"min_rating"`
	PriceLevel    int     `json:"price_level"`
	OpenNow       bool    `json:"open_now"`
	SearchTerm    string  `json:"search_term"`
}

// DefaultFilters returns the filter state with every dimension inactive.
func DefaultFilters() FilterState {
	return FilterState{Cuisine: CuisineAll}
}

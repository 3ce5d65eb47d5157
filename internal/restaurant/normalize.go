package restaurant

import (
	"strings"

	"github.com/platefinder/platefinder/internal/geo"
	"github.com/platefinder/platefinder/internal/places"
)

// DefaultCuisine is the label used when no specific cuisine tag is present.
const DefaultCuisine = "Restaurant"

// genericTypes are category tags too generic to name a cuisine.
var genericTypes = map[string]bool{
	"restaurant":        true,
	"food":              true,
	"point_of_interest": true,
	"establishment":     true,
}

// Normalize maps a raw place record into a Restaurant, computing the
// distance from the user's location and deriving the cuisine label.
// Missing optional fields degrade to explicit defaults; numeric fields are
// never left unset.
func Normalize(p places.Place, user geo.Coordinate) Restaurant {
	r := Restaurant{
		ID:          p.PlaceID,
		Name:        p.Name,
		Rating:      p.Rating,
		PriceLevel:  p.PriceLevel,
		ReviewCount: p.UserRatingsTotal,
		Address:     p.Vicinity,
		Cuisine:     deriveCuisine(p.Types),
		DistanceKm:  geo.DistanceKm(user, p.Geometry.Location),
		Coordinate:  p.Geometry.Location,
	}
	if r.PriceLevel < 1 {
		r.PriceLevel = 1
	}
	if r.Rating < 0 {
		r.Rating = 0
	}
	if r.ReviewCount < 0 {
		r.ReviewCount = 0
	}
	if p.OpeningHours != nil && p.OpeningHours.OpenNow != nil {
		r.IsOpen = *p.OpeningHours.OpenNow
	}
	for _, ph := range p.Photos {
		r.PhotoReferences = append(r.PhotoReferences, ph.PhotoReference)
	}
	return r
}

// NormalizeAll normalizes a batch of raw places against one user location.
func NormalizeAll(results []places.Place, user geo.Coordinate) []Restaurant {
	out := make([]Restaurant, 0, len(results))
	for _, p := range results {
		out = append(out, Normalize(p, user))
	}
	return out
}

// deriveCuisine picks the first non-generic type tag as the cuisine label,
// converting underscores to spaces for display.
func deriveCuisine(types []string) string {
	for _, t := range types {
		if !genericTypes[t] {
			return strings.ReplaceAll(t, "_", " ")
		}
	}
	return DefaultCuisine
}

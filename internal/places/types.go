// Package places provides the gateway to the Google Places API for
// nearby-search and place-details queries.
package places

import "github.com/platefinder/platefinder/internal/geo"

// Geometry holds the location block of a place record.
type Geometry struct {
	Location geo.Coordinate `json:"location"`
}

// Photo is a photo reference attached to a place.
type Photo struct {
	PhotoReference string `json:"photo_reference"`
	Height         int    `json:"height"`
	Width          int    `json:"width"`
}

// OpeningHours carries the open-now flag and weekday text for a place.
type OpeningHours struct {
	OpenNow     *bool    `json:"open_now,omitempty"`
	WeekdayText []string `json:"weekday_text,omitempty"`
}

// Review is a single user review on a place-details record.
type Review struct {
	AuthorName              string  `json:"author_name"`
	Rating                  float64 `json:"rating"`
	Text                    string  `json:"text"`
	RelativeTimeDescription string  `json:"relative_time_description"`
	Time                    int64   `json:"time"`
}

// Place is a raw nearby-search result, mirroring the provider's wire shape.
// It is read-only once returned by the gateway.
type Place struct {
	PlaceID          string        `json:"place_id"`
	Name             string        `json:"name"`
	Rating           float64       `json:"rating"`
	UserRatingsTotal int           `json:"user_ratings_total"`
	PriceLevel       int           `json:"price_level"`
	Vicinity         string        `json:"vicinity"`
	Types            []string      `json:"types"`
	Geometry         Geometry      `json:"geometry"`
	OpeningHours     *OpeningHours `json:"opening_hours,omitempty"`
	Photos           []Photo       `json:"photos,omitempty"`
	BusinessStatus   string        `json:"business_status,omitempty"`
}

// Details is a raw place-details result.
type Details struct {
	PlaceID              string        `json:"place_id"`
	Name                 string        `json:"name"`
	Rating               float64       `json:"rating"`
	UserRatingsTotal     int           `json:"user_ratings_total"`
	PriceLevel           int           `json:"price_level"`
	FormattedAddress     string        `json:"formatted_address"`
	FormattedPhoneNumber string        `json:"formatted_phone_number,omitempty"`
	Website              string        `json:"website,omitempty"`
	Geometry             Geometry      `json:"geometry"`
	OpeningHours         *OpeningHours `json:"opening_hours,omitempty"`
	Photos               []Photo       `json:"photos,omitempty"`
	Reviews              []Review      `json:"reviews,omitempty"`
}

// foodTypes are the category tags accepted by the defensive post-filter.
var foodTypes = map[string]bool{
	"restaurant":    true,
	"food":          true,
	"meal_takeaway": true,
}

// FilterFood returns only the places whose type tags include a food-serving
// category. Guards against noisy keyword matches from the provider.
func FilterFood(results []Place) []Place {
	filtered := make([]Place, 0, len(results))
	for _, p := range results {
		for _, t := range p.Types {
			if foodTypes[t] {
				filtered = append(filtered, p)
				break
			}
		}
	}
	return filtered
}

package places

import (
	"context"
	"errors"
	"fmt"

	"googlemaps.github.io/maps"

	"github.com/platefinder/platefinder/internal/geo"
)

// DefaultRadiusMeters is the search radius used when the caller does not
// specify one.
const DefaultRadiusMeters = 5000

// ErrMissingAPIKey is returned when the gateway is constructed without a key.
var ErrMissingAPIKey = errors.New("places API key is required")

// NearbyQuery describes a nearby-search request.
type NearbyQuery struct {
	Location     geo.Coordinate
	RadiusMeters uint
	Keyword      string
}

// Gateway defines the operations the API needs from the places provider.
// Every call is a fresh round trip; implementations must not cache.
type Gateway interface {
	// SearchNearby returns restaurants near the given location. An empty
	// result set is a valid response, not an error.
	SearchNearby(ctx context.Context, q NearbyQuery) ([]Place, error)

	// Details returns the detail record for a single place ID.
	Details(ctx context.Context, placeID string) (*Details, error)
}

// googleGateway implements Gateway over the official Google Maps client.
type googleGateway struct {
	client *maps.Client
}

// NewGoogleGateway creates a Gateway backed by the Google Places API.
func NewGoogleGateway(apiKey string) (Gateway, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create places client: %w", err)
	}
	return &googleGateway{client: client}, nil
}

// detailFields is the field mask requested on place-details calls.
var detailFields = []maps.PlaceDetailsFieldMask{
	maps.PlaceDetailsFieldMaskPlaceID,
	maps.PlaceDetailsFieldMaskName,
	maps.PlaceDetailsFieldMaskRatings,
	maps.PlaceDetailsFieldMaskFormattedPhoneNumber,
	maps.PlaceDetailsFieldMaskFormattedAddress,
	maps.PlaceDetailsFieldMaskOpeningHours,
	maps.PlaceDetailsFieldMaskPhotos,
	maps.PlaceDetailsFieldMaskReviews,
	maps.PlaceDetailsFieldMaskWebsite,
	maps.PlaceDetailsFieldMaskPriceLevel,
	maps.PlaceDetailsFieldMaskUserRatingsTotal,
	maps.PlaceDetailsFieldMaskGeometry,
}

// SearchNearby queries the nearby-search endpoint. The maps client treats
// ZERO_RESULTS as a successful empty response; any other non-OK status
// surfaces here as a single error with no retry.
func (g *googleGateway) SearchNearby(ctx context.Context, q NearbyQuery) ([]Place, error) {
	radius := q.RadiusMeters
	if radius == 0 {
		radius = DefaultRadiusMeters
	}

	resp, err := g.client.NearbySearch(ctx, &maps.NearbySearchRequest{
		Location: &maps.LatLng{Lat: q.Location.Lat, Lng: q.Location.Lng},
		Radius:   radius,
		Type:     maps.PlaceTypeRestaurant,
		Keyword:  q.Keyword,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch places: %w", err)
	}

	results := make([]Place, 0, len(resp.Results))
	for i := range resp.Results {
		results = append(results, fromSearchResult(&resp.Results[i]))
	}
	return results, nil
}

// Details queries the place-details endpoint for a single place.
func (g *googleGateway) Details(ctx context.Context, placeID string) (*Details, error) {
	resp, err := g.client.PlaceDetails(ctx, &maps.PlaceDetailsRequest{
		PlaceID: placeID,
		Fields:  detailFields,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch place details: %w", err)
	}
	d := fromDetailsResult(&resp)
	return &d, nil
}

func fromSearchResult(r *maps.PlacesSearchResult) Place {
	p := Place{
		PlaceID:          r.PlaceID,
		Name:             r.Name,
		Rating:           float64(r.Rating),
		UserRatingsTotal: r.UserRatingsTotal,
		PriceLevel:       r.PriceLevel,
		Vicinity:         r.Vicinity,
		Types:            r.Types,
		BusinessStatus:   r.BusinessStatus,
		Geometry: Geometry{
			Location: geo.Coordinate{
				Lat: r.Geometry.Location.Lat,
				Lng: r.Geometry.Location.Lng,
			},
		},
	}
	if r.OpeningHours != nil {
		p.OpeningHours = &OpeningHours{
			OpenNow:     r.OpeningHours.OpenNow,
			WeekdayText: r.OpeningHours.WeekdayText,
		}
	}
	for _, ph := range r.Photos {
		p.Photos = append(p.Photos, Photo{
			PhotoReference: ph.PhotoReference,
			Height:         ph.Height,
			Width:          ph.Width,
		})
	}
	return p
}

func fromDetailsResult(r *maps.PlaceDetailsResult) Details {
	d := Details{
		PlaceID:              r.PlaceID,
		Name:                 r.Name,
		Rating:               float64(r.Rating),
		UserRatingsTotal:     r.UserRatingsTotal,
		PriceLevel:           r.PriceLevel,
		FormattedAddress:     r.FormattedAddress,
		FormattedPhoneNumber: r.FormattedPhoneNumber,
		Website:              r.Website,
		Geometry: Geometry{
			Location: geo.Coordinate{
				Lat: r.Geometry.Location.Lat,
				Lng: r.Geometry.Location.Lng,
			},
		},
	}
	if r.OpeningHours != nil {
		d.OpeningHours = &OpeningHours{
			OpenNow:     r.OpeningHours.OpenNow,
			WeekdayText: r.OpeningHours.WeekdayText,
		}
	}
	for _, ph := range r.Photos {
		d.Photos = append(d.Photos, Photo{
			PhotoReference: ph.PhotoReference,
			Height:         ph.Height,
			Width:          ph.Width,
		})
	}
	for _, rev := range r.Reviews {
		d.Reviews = append(d.Reviews, Review{
			AuthorName:              rev.AuthorName,
			Rating:                  float64(rev.Rating),
			Text:                    rev.Text,
			RelativeTimeDescription: rev.RelativeTimeDescription,
			Time:                    int64(rev.Time),
		})
	}
	return d
}

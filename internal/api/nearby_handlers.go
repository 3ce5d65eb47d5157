package api

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/platefinder/platefinder/internal/geo"
	"github.com/platefinder/platefinder/internal/geoloc"
	"github.com/platefinder/platefinder/internal/middleware"
	"github.com/platefinder/platefinder/internal/places"
	"github.com/platefinder/platefinder/internal/restaurant"
)

// NearbyHandlers runs the full discovery pipeline: resolve location, search
// the provider, normalize, filter, and sort.
type NearbyHandlers struct {
	gateway  places.Gateway
	resolver *geoloc.Resolver
}

// NewNearbyHandlers creates a new NearbyHandlers instance.
func NewNearbyHandlers(gateway places.Gateway, resolver *geoloc.Resolver) *NearbyHandlers {
	return &NearbyHandlers{gateway: gateway, resolver: resolver}
}

// NearbyResponse is the response for the discovery pipeline.
type NearbyResponse struct {
	Results  []restaurant.Restaurant `json:"results"`
	Location NearbyLocation          `json:"location"`
	Count    int                     `json:"count"`
}

// NearbyLocation reports the resolved coordinate and which strategy
// produced it.
type NearbyLocation struct {
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Source string  `json:"source"`
}

// validSortKeys are the sort options accepted by the pipeline. An absent
// sort parameter defaults to distance.
var validSortKeys = map[restaurant.SortKey]bool{
	restaurant.SortDistance:  true,
	restaurant.SortRating:    true,
	restaurant.SortReviews:   true,
	restaurant.SortPriceLow:  true,
	restaurant.SortPriceHigh: true,
}

// Nearby handles GET /api/nearby.
//
// Location resolution prefers device-reported lat/lng query parameters,
// falls back to IP geolocation, then to the static default. Filter
// dimensions (cuisine, minRating, priceLevel, openNow, search, maxDistance)
// and the sort key come from query parameters.
func (h *NearbyHandlers) Nearby(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	query := r.URL.Query()

	// Device coordinates are optional here; omitting them falls through to
	// the IP strategy rather than failing the request.
	var device *geo.Coordinate
	if firstValue(query, "lat") != "" || firstValue(query, "lng") != "" {
		c, msg := parseCoordinate(query)
		if msg != "" {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeInvalidCoordinate)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeInvalidCoordinate, msg)
			return
		}
		device = &c
	}

	filters, sortKey, msg := parseFilters(query)
	if msg != "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, msg)
		return
	}

	location, source := h.resolver.Resolve(r.Context(), geoloc.Hint{
		Device: device,
		IP:     clientIP(r),
	})

	results, err := h.gateway.SearchNearby(r.Context(), places.NearbyQuery{
		Location: location,
		Keyword:  categoryKeyword(firstValue(query, "category")),
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "nearby pipeline search failed", "error", err)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to fetch places")
		return
	}

	normalized := restaurant.NormalizeAll(places.FilterFood(results), location)
	filtered := restaurant.Apply(normalized, filters, sortKey)

	writeJSON(w, r, http.StatusOK, NearbyResponse{
		Results: filtered,
		Location: NearbyLocation{
			Lat:    location.Lat,
			Lng:    location.Lng,
			Source: string(source),
		},
		Count: len(filtered),
	})
}

// parseFilters builds a FilterState and sort key from query parameters.
// Returns a message describing the first invalid parameter.
func parseFilters(query map[string][]string) (restaurant.FilterState, restaurant.SortKey, string) {
	filters := restaurant.DefaultFilters()

	if cuisine := firstValue(query, "cuisine"); cuisine != "" {
		filters.Cuisine = cuisine
	}
	filters.SearchTerm = firstValue(query, "search")

	if minRating := firstValue(query, "minRating"); minRating != "" {
		v, err := strconv.ParseFloat(minRating, 64)
		if err != nil || v < 0 || v > 5 {
			return filters, "", "minRating must be a number between 0 and 5"
		}
		filters.MinRating = v
	}

	if priceLevel := firstValue(query, "priceLevel"); priceLevel != "" {
		v, err := strconv.Atoi(priceLevel)
		if err != nil || v < 1 || v > 4 {
			return filters, "", "priceLevel must be an integer between 1 and 4"
		}
		filters.PriceLevel = v
	}

	if maxDistance := firstValue(query, "maxDistance"); maxDistance != "" {
		v, err := strconv.ParseFloat(maxDistance, 64)
		if err != nil || v <= 0 {
			return filters, "", "maxDistance must be a positive number of kilometers"
		}
		filters.MaxDistanceKm = v
	}

	if openNow := firstValue(query, "openNow"); openNow != "" {
		filters.OpenNow = openNow == "true" || openNow == "1"
	}

	sortKey := restaurant.SortDistance
	if sortStr := firstValue(query, "sort"); sortStr != "" {
		sortKey = restaurant.SortKey(sortStr)
		if !validSortKeys[sortKey] {
			return filters, "", "sort must be one of: distance, rating, reviews, price-low, price-high"
		}
	}

	return filters, sortKey, ""
}

// clientIP extracts the client address for the IP-geolocation fallback,
// honoring X-Forwarded-For from the reverse proxy.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// First hop is the original client
		for i := 0; i < len(xff); i++ {
			if xff[i] == ',' {
				return xff[:i]
			}
		}
		return xff
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

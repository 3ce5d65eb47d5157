package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/platefinder/platefinder/internal/geo"
	"github.com/platefinder/platefinder/internal/middleware"
	"github.com/platefinder/platefinder/internal/places"
)

// PlacesHandlers holds dependencies for the Places proxy endpoints.
type PlacesHandlers struct {
	gateway places.Gateway
}

// NewPlacesHandlers creates a new PlacesHandlers instance.
func NewPlacesHandlers(gateway places.Gateway) *PlacesHandlers {
	return &PlacesHandlers{gateway: gateway}
}

// PlacesResponse wraps a list of raw place results.
type PlacesResponse struct {
	Results []places.Place `json:"results"`
}

// parseCoordinate reads lat/lng query parameters into a validated coordinate.
// Returns a human-readable message on failure.
func parseCoordinate(query map[string][]string) (geo.Coordinate, string) {
	latStr := firstValue(query, "lat")
	lngStr := firstValue(query, "lng")
	if latStr == "" || lngStr == "" {
		return geo.Coordinate{}, "lat and lng query parameters are required"
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return geo.Coordinate{}, "lat must be a valid number"
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return geo.Coordinate{}, "lng must be a valid number"
	}

	c := geo.Coordinate{Lat: lat, Lng: lng}
	if !c.Valid() {
		return geo.Coordinate{}, "lat must be between -90 and 90 and lng between -180 and 180"
	}
	return c, ""
}

func firstValue(query map[string][]string, key string) string {
	if vals, ok := query[key]; ok && len(vals) > 0 {
		return strings.TrimSpace(vals[0])
	}
	return ""
}

// categoryKeyword maps the category query parameter to a search keyword.
// "all" or empty means a plain restaurant search with no keyword.
func categoryKeyword(category string) string {
	if category == "" || strings.EqualFold(category, "all") {
		return ""
	}
	return category
}

// GooglePlace handles GET /api/google-place - proxies a nearby search with
// explicit radius and category, returning {"results": [...]}.
func (h *PlacesHandlers) GooglePlace(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	query := r.URL.Query()
	location, msg := parseCoordinate(query)
	if msg != "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, msg)
		return
	}

	radius := uint(places.DefaultRadiusMeters)
	if radiusStr := firstValue(query, "radius"); radiusStr != "" {
		parsed, err := strconv.ParseUint(radiusStr, 10, 32)
		if err != nil || parsed == 0 {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "radius must be a positive integer")
			return
		}
		radius = uint(parsed)
	}

	results, err := h.gateway.SearchNearby(r.Context(), places.NearbyQuery{
		Location:     location,
		RadiusMeters: radius,
		Keyword:      categoryKeyword(firstValue(query, "category")),
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "nearby search failed", "error", err)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to fetch places")
		return
	}

	writeJSON(w, r, http.StatusOK, PlacesResponse{Results: results})
}

// Places handles GET /api/places - nearby search at the default radius with
// a defensive food-type post-filter, returning the raw result array.
func (h *PlacesHandlers) Places(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	query := r.URL.Query()
	location, msg := parseCoordinate(query)
	if msg != "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, msg)
		return
	}

	keyword := categoryKeyword(firstValue(query, "category"))
	results, err := h.gateway.SearchNearby(r.Context(), places.NearbyQuery{
		Location: location,
		Keyword:  keyword,
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "nearby search failed", "error", err)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to fetch places")
		return
	}

	// Keyword searches can pull in gyms or theaters that merely mention the
	// term; keep only food-serving places.
	if keyword != "" {
		results = places.FilterFood(results)
	}

	writeJSON(w, r, http.StatusOK, results)
}

// Search handles GET /api/search - keyword search near a coordinate,
// returning {"results": [...]}. All of q, lat, and lng are required.
func (h *PlacesHandlers) Search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	query := r.URL.Query()
	q := firstValue(query, "q")
	if q == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeMissingQuery)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeMissingQuery, "q query parameter is required")
		return
	}

	location, msg := parseCoordinate(query)
	if msg != "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, msg)
		return
	}

	results, err := h.gateway.SearchNearby(r.Context(), places.NearbyQuery{
		Location: location,
		Keyword:  q,
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "keyword search failed", "error", err)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to search places")
		return
	}

	writeJSON(w, r, http.StatusOK, PlacesResponse{Results: results})
}

// PlaceDetails handles GET /api/place-details/{id} - fetches the detail
// record for one place.
func (h *PlacesHandlers) PlaceDetails(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	placeID := strings.TrimPrefix(r.URL.Path, "/api/place-details/")
	if placeID == "" || strings.Contains(placeID, "/") {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "place ID is required")
		return
	}

	details, err := h.gateway.Details(r.Context(), placeID)
	if err != nil {
		slog.ErrorContext(r.Context(), "place details fetch failed", "place_id", placeID, "error", err)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to fetch place details")
		return
	}

	writeJSON(w, r, http.StatusOK, details)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode response", "error", err)
	}
}

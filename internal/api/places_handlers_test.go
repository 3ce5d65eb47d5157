package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/platefinder/platefinder/internal/places"
)

// fakeGateway is a configurable places.Gateway for handler tests.
type fakeGateway struct {
	results []places.Place
	details *places.Details
	err     error

	lastQuery places.NearbyQuery
}

func (g *fakeGateway) SearchNearby(_ context.Context, q places.NearbyQuery) ([]places.Place, error) {
	g.lastQuery = q
	if g.err != nil {
		return nil, g.err
	}
	return g.results, nil
}

func (g *fakeGateway) Details(_ context.Context, placeID string) (*places.Details, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.details, nil
}

func samplePlaces() []places.Place {
	return []places.Place{
		{
			PlaceID: "place-1",
			Name:    "Golden Wok",
			Rating:  4.5,
			Types:   []string{"restaurant", "food"},
		},
		{
			PlaceID: "place-2",
			Name:    "Thai Basil",
			Rating:  4.2,
			Types:   []string{"meal_takeaway"},
		},
		{
			PlaceID: "place-3",
			Name:    "24hr Fitness",
			Rating:  3.9,
			Types:   []string{"gym"},
		},
	}
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var errResp ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&errResp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return errResp
}

// TestGooglePlace_MissingCoordinates tests that lat/lng are required.
func TestGooglePlace_MissingCoordinates(t *testing.T) {
	handlers := NewPlacesHandlers(&fakeGateway{})

	tests := []struct {
		name string
		url  string
	}{
		{"no params", "/api/google-place"},
		{"missing lng", "/api/google-place?lat=37.7"},
		{"missing lat", "/api/google-place?lng=-122.4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			w := httptest.NewRecorder()

			handlers.GooglePlace(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", w.Code)
			}
			if errResp := decodeError(t, w); errResp.Error.Code != ErrCodeValidation {
				t.Errorf("expected error code %s, got %s", ErrCodeValidation, errResp.Error.Code)
			}
		})
	}
}

// TestGooglePlace_InvalidCoordinates tests range and format validation.
func TestGooglePlace_InvalidCoordinates(t *testing.T) {
	handlers := NewPlacesHandlers(&fakeGateway{})

	tests := []struct {
		name string
		url  string
	}{
		{"lat not a number", "/api/google-place?lat=abc&lng=-122.4"},
		{"lat out of range", "/api/google-place?lat=91&lng=-122.4"},
		{"lng out of range", "/api/google-place?lat=37.7&lng=181"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			w := httptest.NewRecorder()

			handlers.GooglePlace(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", w.Code)
			}
		})
	}
}

// TestGooglePlace_Success tests the proxy happy path and radius handling.
func TestGooglePlace_Success(t *testing.T) {
	gateway := &fakeGateway{results: samplePlaces()}
	handlers := NewPlacesHandlers(gateway)

	req := httptest.NewRequest(http.MethodGet, "/api/google-place?lat=37.7749&lng=-122.4194&radius=2000&category=thai", nil)
	w := httptest.NewRecorder()

	handlers.GooglePlace(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp PlacesResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Results) != 3 {
		t.Errorf("expected 3 results, got %d", len(resp.Results))
	}

	if gateway.lastQuery.RadiusMeters != 2000 {
		t.Errorf("expected radius 2000, got %d", gateway.lastQuery.RadiusMeters)
	}
	if gateway.lastQuery.Keyword != "thai" {
		t.Errorf("expected keyword thai, got %q", gateway.lastQuery.Keyword)
	}
}

// TestGooglePlace_DefaultRadius tests that an absent radius falls back to
// the provider default.
func TestGooglePlace_DefaultRadius(t *testing.T) {
	gateway := &fakeGateway{}
	handlers := NewPlacesHandlers(gateway)

	req := httptest.NewRequest(http.MethodGet, "/api/google-place?lat=37.7749&lng=-122.4194", nil)
	w := httptest.NewRecorder()

	handlers.GooglePlace(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if gateway.lastQuery.RadiusMeters != places.DefaultRadiusMeters {
		t.Errorf("expected default radius %d, got %d", places.DefaultRadiusMeters, gateway.lastQuery.RadiusMeters)
	}
}

// TestGooglePlace_InvalidRadius tests rejection of bad radius values.
func TestGooglePlace_InvalidRadius(t *testing.T) {
	handlers := NewPlacesHandlers(&fakeGateway{})

	for _, radius := range []string{"0", "-5", "abc"} {
		req := httptest.NewRequest(http.MethodGet, "/api/google-place?lat=37.7&lng=-122.4&radius="+radius, nil)
		w := httptest.NewRecorder()

		handlers.GooglePlace(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("radius %q: expected status 400, got %d", radius, w.Code)
		}
	}
}

// TestGooglePlace_ProviderError tests that upstream failures map to 500.
func TestGooglePlace_ProviderError(t *testing.T) {
	handlers := NewPlacesHandlers(&fakeGateway{err: errors.New("upstream unavailable")})

	req := httptest.NewRequest(http.MethodGet, "/api/google-place?lat=37.7&lng=-122.4", nil)
	w := httptest.NewRecorder()

	handlers.GooglePlace(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", w.Code)
	}
	if errResp := decodeError(t, w); errResp.Error.Code != ErrCodeInternal {
		t.Errorf("expected error code %s, got %s", ErrCodeInternal, errResp.Error.Code)
	}
}

// TestGooglePlace_EmptyResults tests that zero provider results is a valid
// 200 response, not an error.
func TestGooglePlace_EmptyResults(t *testing.T) {
	handlers := NewPlacesHandlers(&fakeGateway{results: []places.Place{}})

	req := httptest.NewRequest(http.MethodGet, "/api/google-place?lat=37.7&lng=-122.4", nil)
	w := httptest.NewRecorder()

	handlers.GooglePlace(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp PlacesResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Results) != 0 {
		t.Errorf("expected empty results, got %d", len(resp.Results))
	}
}

// TestPlaces_ReturnsBareArray tests the /api/places response shape.
func TestPlaces_ReturnsBareArray(t *testing.T) {
	handlers := NewPlacesHandlers(&fakeGateway{results: samplePlaces()})

	req := httptest.NewRequest(http.MethodGet, "/api/places?lat=37.7749&lng=-122.4194", nil)
	w := httptest.NewRecorder()

	handlers.Places(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp []places.Place
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	// No category means no post-filter: the gym stays in.
	if len(resp) != 3 {
		t.Errorf("expected 3 results, got %d", len(resp))
	}
}

// TestPlaces_CategoryAppliesFoodFilter tests that keyword searches strip
// non-food results.
func TestPlaces_CategoryAppliesFoodFilter(t *testing.T) {
	handlers := NewPlacesHandlers(&fakeGateway{results: samplePlaces()})

	req := httptest.NewRequest(http.MethodGet, "/api/places?lat=37.7749&lng=-122.4194&category=thai", nil)
	w := httptest.NewRecorder()

	handlers.Places(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp []places.Place
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 2 {
		t.Fatalf("expected 2 food results, got %d", len(resp))
	}
	for _, p := range resp {
		if p.PlaceID == "place-3" {
			t.Error("expected the gym to be filtered out")
		}
	}
}

// TestPlaces_AllCategoryMeansNoKeyword tests that "all" is treated the same
// as an absent category.
func TestPlaces_AllCategoryMeansNoKeyword(t *testing.T) {
	gateway := &fakeGateway{results: samplePlaces()}
	handlers := NewPlacesHandlers(gateway)

	req := httptest.NewRequest(http.MethodGet, "/api/places?lat=37.7749&lng=-122.4194&category=All", nil)
	w := httptest.NewRecorder()

	handlers.Places(w, req)

	if gateway.lastQuery.Keyword != "" {
		t.Errorf("expected empty keyword for category=All, got %q", gateway.lastQuery.Keyword)
	}

	var resp []places.Place
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 3 {
		t.Errorf("expected 3 unfiltered results, got %d", len(resp))
	}
}

// TestSearch_MissingQuery tests that q is required.
func TestSearch_MissingQuery(t *testing.T) {
	handlers := NewPlacesHandlers(&fakeGateway{})

	req := httptest.NewRequest(http.MethodGet, "/api/search?lat=37.7&lng=-122.4", nil)
	w := httptest.NewRecorder()

	handlers.Search(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
	if errResp := decodeError(t, w); errResp.Error.Code != ErrCodeMissingQuery {
		t.Errorf("expected error code %s, got %s", ErrCodeMissingQuery, errResp.Error.Code)
	}
}

// TestSearch_Success tests the keyword search happy path.
func TestSearch_Success(t *testing.T) {
	gateway := &fakeGateway{results: samplePlaces()[:1]}
	handlers := NewPlacesHandlers(gateway)

	req := httptest.NewRequest(http.MethodGet, "/api/search?q=dumplings&lat=37.7749&lng=-122.4194", nil)
	w := httptest.NewRecorder()

	handlers.Search(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if gateway.lastQuery.Keyword != "dumplings" {
		t.Errorf("expected keyword dumplings, got %q", gateway.lastQuery.Keyword)
	}

	var resp PlacesResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Results) != 1 {
		t.Errorf("expected 1 result, got %d", len(resp.Results))
	}
}

// TestSearch_RequiresCoordinates tests that lat/lng remain mandatory even
// with a query present.
func TestSearch_RequiresCoordinates(t *testing.T) {
	handlers := NewPlacesHandlers(&fakeGateway{})

	req := httptest.NewRequest(http.MethodGet, "/api/search?q=tacos", nil)
	w := httptest.NewRecorder()

	handlers.Search(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

// TestPlaceDetails_Success tests fetching a detail record by path ID.
func TestPlaceDetails_Success(t *testing.T) {
	handlers := NewPlacesHandlers(&fakeGateway{
		details: &places.Details{
			PlaceID:          "place-1",
			Name:             "Golden Wok",
			FormattedAddress: "123 Grant Ave, San Francisco",
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/place-details/place-1", nil)
	w := httptest.NewRecorder()

	handlers.PlaceDetails(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp places.Details
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.PlaceID != "place-1" {
		t.Errorf("expected place-1, got %s", resp.PlaceID)
	}
}

// TestPlaceDetails_InvalidPath tests rejection of empty or nested IDs.
func TestPlaceDetails_InvalidPath(t *testing.T) {
	handlers := NewPlacesHandlers(&fakeGateway{})

	for _, path := range []string{"/api/place-details/", "/api/place-details/foo/bar"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()

		handlers.PlaceDetails(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("path %q: expected status 400, got %d", path, w.Code)
		}
	}
}

// TestPlaceDetails_ProviderError tests upstream failure handling.
func TestPlaceDetails_ProviderError(t *testing.T) {
	handlers := NewPlacesHandlers(&fakeGateway{err: errors.New("quota exceeded")})

	req := httptest.NewRequest(http.MethodGet, "/api/place-details/place-1", nil)
	w := httptest.NewRecorder()

	handlers.PlaceDetails(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", w.Code)
	}
	// Failures here use the shared envelope, same as every other endpoint.
	errResp := decodeError(t, w)
	if errResp.Error.Code != ErrCodeInternal {
		t.Errorf("expected error code %s, got %s", ErrCodeInternal, errResp.Error.Code)
	}
	if errResp.Error.Message == "" {
		t.Error("expected a non-empty error message")
	}
}

// TestPlacesHandlers_MethodNotAllowed tests that writes are rejected on the
// read-only proxy endpoints.
func TestPlacesHandlers_MethodNotAllowed(t *testing.T) {
	handlers := NewPlacesHandlers(&fakeGateway{})

	tests := []struct {
		name    string
		url     string
		handler http.HandlerFunc
	}{
		{"google-place", "/api/google-place?lat=37.7&lng=-122.4", handlers.GooglePlace},
		{"places", "/api/places?lat=37.7&lng=-122.4", handlers.Places},
		{"search", "/api/search?q=x&lat=37.7&lng=-122.4", handlers.Search},
		{"place-details", "/api/place-details/place-1", handlers.PlaceDetails},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.url, nil)
			w := httptest.NewRecorder()

			tt.handler(w, req)

			if w.Code != http.StatusMethodNotAllowed {
				t.Errorf("expected status 405, got %d", w.Code)
			}
		})
	}
}

package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/platefinder/platefinder/internal/idempotency"
)

// guardVisits wraps handler with the idempotency middleware configured for
// the visit-creation route.
func guardVisits(repo idempotency.Repository, handler http.HandlerFunc) http.Handler {
	routes := map[string]bool{"/api/me/visits": true}
	return Idempotency(repo, routes)(handler)
}

// postVisit sends a POST /api/me/visits with the given idempotency key
// (empty string sends no header).
func postVisit(handler http.Handler, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/me/visits", nil)
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

// respondVisit writes a canned visit-created response.
func respondVisit(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"id":"v-1001","restaurantName":"Golden Wok"}`))
}

func TestIdempotency_MissingKey(t *testing.T) {
	handler := guardVisits(idempotency.NewInMemoryRepository(), respondVisit)

	w := postVisit(handler, "")

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
	if body := w.Body.String(); !strings.Contains(body, "missing_idempotency_key") {
		t.Errorf("expected error code 'missing_idempotency_key', got %s", body)
	}
}

func TestIdempotency_KeyTooLong(t *testing.T) {
	handler := guardVisits(idempotency.NewInMemoryRepository(), respondVisit)

	w := postVisit(handler, strings.Repeat("k", idempotency.MaxKeyLength+1))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
	if body := w.Body.String(); !strings.Contains(body, "idempotency_key_too_long") {
		t.Errorf("expected error code 'idempotency_key_too_long', got %s", body)
	}
}

func TestIdempotency_FirstRequest(t *testing.T) {
	repo := idempotency.NewInMemoryRepository()

	handlerCalled := false
	handler := guardVisits(repo, func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		respondVisit(w, r)
	})

	w := postVisit(handler, "visit-create-123")

	if !handlerCalled {
		t.Error("handler should run for the first request")
	}
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	stored, err := repo.Get("visit-create-123")
	if err != nil {
		t.Fatalf("expected key to be stored, got error: %v", err)
	}
	if stored.ResponseBody != w.Body.String() {
		t.Error("stored response body doesn't match actual response")
	}
}

func TestIdempotency_DuplicateRequest(t *testing.T) {
	repo := idempotency.NewInMemoryRepository()

	handlerCallCount := 0
	handler := guardVisits(repo, func(w http.ResponseWriter, r *http.Request) {
		handlerCallCount++
		respondVisit(w, r)
	})

	first := postVisit(handler, "visit-create-456")
	second := postVisit(handler, "visit-create-456")

	// The retry must be answered from the cache, not the handler.
	if handlerCallCount != 1 {
		t.Errorf("handler should have run exactly once, got %d", handlerCallCount)
	}
	if first.Code != second.Code {
		t.Errorf("status codes don't match: %d vs %d", first.Code, second.Code)
	}
	if first.Body.String() != second.Body.String() {
		t.Errorf("response bodies don't match:\n%s\nvs\n%s", first.Body.String(), second.Body.String())
	}
}

func TestIdempotency_OnlyPostRequests(t *testing.T) {
	handlerCalled := false
	handler := guardVisits(idempotency.NewInMemoryRepository(), func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusOK)
	})

	// A GET on a guarded route needs no key.
	req := httptest.NewRequest(http.MethodGet, "/api/me/visits", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if !handlerCalled {
		t.Error("handler should run for GET requests")
	}
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
}

func TestIdempotency_OnlyConfiguredRoutes(t *testing.T) {
	handlerCalled := false
	handler := guardVisits(idempotency.NewInMemoryRepository(), func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusOK)
	})

	// Favorites are not guarded, so a keyless POST passes through.
	req := httptest.NewRequest(http.MethodPost, "/api/me/favorites", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if !handlerCalled {
		t.Error("handler should run for unguarded routes")
	}
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
}

func TestIdempotency_ErrorResponsesNotCached(t *testing.T) {
	repo := idempotency.NewInMemoryRepository()

	handlerCallCount := 0
	handler := guardVisits(repo, func(w http.ResponseWriter, r *http.Request) {
		handlerCallCount++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"bad_request"}`))
	})

	postVisit(handler, "visit-create-err")

	// Failures are retryable, so they must not be cached.
	if _, err := repo.Get("visit-create-err"); err != idempotency.ErrKeyNotFound {
		t.Error("error response should not be cached")
	}

	postVisit(handler, "visit-create-err")
	if handlerCallCount != 2 {
		t.Errorf("handler should run again after an error response, got %d calls", handlerCallCount)
	}
}

func TestIdempotency_ContextKeySet(t *testing.T) {
	var capturedKey string
	handler := guardVisits(idempotency.NewInMemoryRepository(), func(w http.ResponseWriter, r *http.Request) {
		capturedKey = GetIdempotencyKey(r.Context())
		respondVisit(w, r)
	})

	postVisit(handler, "visit-create-ctx")

	if capturedKey != "visit-create-ctx" {
		t.Errorf("expected context key 'visit-create-ctx', got %q", capturedKey)
	}
}

func TestIdempotency_LargeResponse(t *testing.T) {
	// A visit with a long note, well past any internal buffer sizes.
	responseBody := `{"id":"v-1001","notes":"` + string(bytes.Repeat([]byte("a"), 10000)) + `"}`

	handler := guardVisits(idempotency.NewInMemoryRepository(), func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(responseBody))
	})

	first := postVisit(handler, "visit-create-large")
	second := postVisit(handler, "visit-create-large")

	if first.Body.String() != second.Body.String() {
		t.Error("cached large response doesn't match the original")
	}
	if len(second.Body.String()) != len(responseBody) {
		t.Errorf("cached response length = %d, want %d", len(second.Body.String()), len(responseBody))
	}
}

func TestIdempotency_ConcurrentRequests(t *testing.T) {
	repo := idempotency.NewInMemoryRepository()

	var mu sync.Mutex
	handlerCallCount := 0
	handler := guardVisits(repo, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		handlerCallCount++
		mu.Unlock()

		// Widen the race window between Get and Store.
		time.Sleep(50 * time.Millisecond)
		respondVisit(w, r)
	})

	const numRequests = 5
	var wg sync.WaitGroup
	responses := make([]*httptest.ResponseRecorder, numRequests)
	for i := 0; i < numRequests; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			responses[idx] = postVisit(handler, "visit-create-concurrent")
		}(i)
	}
	wg.Wait()

	for i, w := range responses {
		if w.Code != http.StatusOK {
			t.Errorf("request %d: expected status 200, got %d", i, w.Code)
		}
	}

	firstBody := responses[0].Body.String()
	for i, w := range responses[1:] {
		if w.Body.String() != firstBody {
			t.Errorf("request %d: response body doesn't match first response", i+1)
		}
	}

	// Without a processing marker two in-flight requests can both reach
	// the handler; the store still keeps exactly one record.
	mu.Lock()
	callCount := handlerCallCount
	mu.Unlock()
	if callCount > 1 {
		t.Logf("handler ran %d times for concurrent requests with one key", callCount)
	}

	stored, err := repo.Get("visit-create-concurrent")
	if err != nil {
		t.Fatalf("expected key to be stored, got error: %v", err)
	}
	if stored.ResponseBody != firstBody {
		t.Error("stored response body doesn't match actual response")
	}
}

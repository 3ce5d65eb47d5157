package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/platefinder/platefinder/internal/middleware"
	"github.com/platefinder/platefinder/internal/userdata"
)

// UserDataHandlers serves the per-user favorites and recents document.
type UserDataHandlers struct {
	adapter *userdata.Adapter
}

// NewUserDataHandlers creates a new UserDataHandlers instance.
func NewUserDataHandlers(adapter *userdata.Adapter) *UserDataHandlers {
	return &UserDataHandlers{adapter: adapter}
}

// Data handles GET /api/me/data - loads the user's document, creating an
// empty one on first access.
func (h *UserDataHandlers) Data(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	userID := middleware.GetUserID(r.Context())
	doc, err := h.adapter.Load(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to load user data", "error", err)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to load user data")
		return
	}

	writeJSON(w, r, http.StatusOK, doc)
}

// AddFavorite handles POST /api/me/favorites - saves a restaurant to the
// user's favorites, replacing any entry with the same place ID.
func (h *UserDataHandlers) AddFavorite(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	var entry userdata.FavoriteEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "Invalid request body")
		return
	}
	if entry.PlaceID == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "place_id is required")
		return
	}

	userID := middleware.GetUserID(r.Context())
	doc, err := h.adapter.AddFavorite(r.Context(), userID, entry)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to add favorite", "place_id", entry.PlaceID, "error", err)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to save favorite")
		return
	}

	writeJSON(w, r, http.StatusOK, doc)
}

// RemoveFavorite handles DELETE /api/me/favorites/{placeID}. Removing an
// absent place ID succeeds and returns the unchanged document.
func (h *UserDataHandlers) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	placeID := strings.TrimPrefix(r.URL.Path, "/api/me/favorites/")
	if placeID == "" || strings.Contains(placeID, "/") {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "place ID is required")
		return
	}

	userID := middleware.GetUserID(r.Context())
	doc, err := h.adapter.RemoveFavorite(r.Context(), userID, placeID)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to remove favorite", "place_id", placeID, "error", err)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to remove favorite")
		return
	}

	writeJSON(w, r, http.StatusOK, doc)
}

// recentRequest is the body for recording a restaurant-detail view.
type recentRequest struct {
	PlaceID string `json:"place_id"`
	Name    string `json:"name"`
}

// AddRecent handles POST /api/me/recents - prepends a view record and
// truncates the list to the retention cap.
func (h *UserDataHandlers) AddRecent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	var req recentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "Invalid request body")
		return
	}
	if req.PlaceID == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "place_id is required")
		return
	}

	userID := middleware.GetUserID(r.Context())
	doc, err := h.adapter.AddRecent(r.Context(), userID, req.PlaceID, req.Name)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to record recent view", "place_id", req.PlaceID, "error", err)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to record recent view")
		return
	}

	writeJSON(w, r, http.StatusOK, doc)
}

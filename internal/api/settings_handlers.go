package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/platefinder/platefinder/internal/middleware"
	"github.com/platefinder/platefinder/internal/settings"
)

// SettingsHandlers serves the per-user settings document.
type SettingsHandlers struct {
	service *settings.Service
}

// NewSettingsHandlers creates a new SettingsHandlers instance.
func NewSettingsHandlers(service *settings.Service) *SettingsHandlers {
	return &SettingsHandlers{service: service}
}

// settingsPatchRequest patches one key inside one settings category.
type settingsPatchRequest struct {
	Category string `json:"category"`
	Key      string `json:"key"`
	Value    any    `json:"value"`
}

// Settings handles GET and PATCH /api/me/settings.
func (h *SettingsHandlers) Settings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w, r)
	case http.MethodPatch:
		h.patch(w, r)
	default:
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
	}
}

func (h *SettingsHandlers) get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	stored, err := h.service.Get(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to load settings", "error", err)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to load settings")
		return
	}

	writeJSON(w, r, http.StatusOK, stored)
}

func (h *SettingsHandlers) patch(w http.ResponseWriter, r *http.Request) {
	var req settingsPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "Invalid request body")
		return
	}
	if req.Category == "" || req.Key == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "category and key are required")
		return
	}

	userID := middleware.GetUserID(r.Context())
	updated, err := h.service.Update(r.Context(), userID, req.Category, req.Key, req.Value)
	if err != nil {
		if errors.Is(err, settings.ErrUnknownCategory) {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeInvalidCategory)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeInvalidCategory, "Unknown settings category: "+req.Category)
			return
		}
		slog.ErrorContext(r.Context(), "failed to update settings", "category", req.Category, "error", err)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to update settings")
		return
	}

	writeJSON(w, r, http.StatusOK, updated)
}

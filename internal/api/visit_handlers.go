package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/platefinder/platefinder/internal/middleware"
	"github.com/platefinder/platefinder/internal/validate"
	"github.com/platefinder/platefinder/internal/visit"
)

// VisitHandlers serves the per-user visit history.
type VisitHandlers struct {
	repo visit.Repository
}

// NewVisitHandlers creates a new VisitHandlers instance.
func NewVisitHandlers(repo visit.Repository) *VisitHandlers {
	return &VisitHandlers{repo: repo}
}

// createVisitRequest is the body for logging a visit.
type createVisitRequest struct {
	RestaurantName string   `json:"restaurantName"`
	VisitDate      string   `json:"visitDate"` // YYYY-MM-DD or RFC 3339
	Amount         float64  `json:"amount"`
	Rating         float64  `json:"rating"`
	Cuisine        string   `json:"cuisine"`
	Photos         []string `json:"photos"`
	Orders         []string `json:"orders"`
	Notes          string   `json:"notes"`
}

// VisitListResponse wraps a user's visit history.
type VisitListResponse struct {
	Visits []visit.Visit `json:"visits"`
	Count  int           `json:"count"`
}

// Visits handles GET and POST /api/me/visits.
func (h *VisitHandlers) Visits(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
	}
}

func (h *VisitHandlers) list(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := visit.Filter{
		SearchTerm: firstValue(query, "search"),
		Cuisine:    firstValue(query, "cuisine"),
	}

	if minRating := firstValue(query, "minRating"); minRating != "" {
		v, err := strconv.ParseFloat(minRating, 64)
		if err != nil {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "minRating must be a number")
			return
		}
		filter.MinRating = v
	}
	if minAmount := firstValue(query, "minAmount"); minAmount != "" {
		v, err := strconv.ParseFloat(minAmount, 64)
		if err != nil {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "minAmount must be a number")
			return
		}
		filter.MinAmount = v
	}
	if maxAmount := firstValue(query, "maxAmount"); maxAmount != "" {
		v, err := strconv.ParseFloat(maxAmount, 64)
		if err != nil {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "maxAmount must be a number")
			return
		}
		filter.MaxAmount = v
	}
	if hasPhotos := firstValue(query, "hasPhotos"); hasPhotos != "" {
		filter.HasPhotos = hasPhotos == "true" || hasPhotos == "1"
	}

	userID := middleware.GetUserID(r.Context())
	visits, err := h.repo.ListByUser(r.Context(), userID, filter)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list visits", "error", err)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to list visits")
		return
	}

	writeJSON(w, r, http.StatusOK, VisitListResponse{Visits: visits, Count: len(visits)})
}

func (h *VisitHandlers) create(w http.ResponseWriter, r *http.Request) {
	var req createVisitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "Invalid request body")
		return
	}

	restaurantName, err := validate.RestaurantName(req.RestaurantName)
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "restaurantName must be 1-200 characters")
		return
	}
	notes, err := validate.Notes(req.Notes)
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "notes must be at most 5000 characters")
		return
	}
	if req.Rating < 0 || req.Rating > 5 {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "rating must be between 0 and 5")
		return
	}
	if req.Amount < 0 {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "amount must not be negative")
		return
	}

	visitDate, err := parseVisitDate(req.VisitDate)
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "visitDate must be YYYY-MM-DD or RFC 3339")
		return
	}

	userID := middleware.GetUserID(r.Context())
	v := &visit.Visit{
		ID:             uuid.New().String(),
		UserID:         userID,
		RestaurantName: restaurantName,
		VisitDate:      visitDate,
		Amount:         req.Amount,
		Rating:         req.Rating,
		Cuisine:        req.Cuisine,
		Photos:         req.Photos,
		Orders:         req.Orders,
		Notes:          notes,
		CreatedAt:      time.Now().UTC(),
	}

	if err := h.repo.Create(r.Context(), v); err != nil {
		slog.ErrorContext(r.Context(), "failed to create visit", "error", err)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to save visit")
		return
	}

	writeJSON(w, r, http.StatusCreated, v)
}

// DeleteVisit handles DELETE /api/me/visits/{id}.
func (h *VisitHandlers) DeleteVisit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	visitID := strings.TrimPrefix(r.URL.Path, "/api/me/visits/")
	if visitID == "" || strings.Contains(visitID, "/") {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "visit ID is required")
		return
	}

	userID := middleware.GetUserID(r.Context())
	if err := h.repo.Delete(r.Context(), userID, visitID); err != nil {
		switch {
		case errors.Is(err, visit.ErrVisitNotFound):
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeNotFound)
			WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "Visit not found")
		case errors.Is(err, visit.ErrNotOwner):
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeForbidden)
			WriteError(w, ctx, http.StatusForbidden, ErrCodeForbidden, "Visit belongs to another user")
		default:
			slog.ErrorContext(r.Context(), "failed to delete visit", "visit_id", visitID, "error", err)
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
			WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to delete visit")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseVisitDate accepts a bare date or a full RFC 3339 timestamp. An empty
// value defaults to today.
func parseVisitDate(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC().Truncate(24 * time.Hour), nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

package api

import (
	"log/slog"
	"net/http"

	"github.com/platefinder/platefinder/internal/middleware"
)

// RouterConfig holds the handler groups mounted on the server mux.
// Uploads may be nil when no object storage is configured; the route is
// simply not registered.
type RouterConfig struct {
	Places   *PlacesHandlers
	Nearby   *NearbyHandlers
	UserData *UserDataHandlers
	Settings *SettingsHandlers
	Visits   *VisitHandlers
	Uploads  *UploadHandlers
	Health   *HealthHandlers

	// RequireAuth wraps the /api/me and upload routes.
	RequireAuth func(http.Handler) http.Handler

	// Metrics is the Prometheus exposition handler.
	Metrics http.Handler
}

// NewRouter assembles the server mux from the handler groups.
func NewRouter(cfg RouterConfig) *http.ServeMux {
	mux := http.NewServeMux()

	// Public proxy and pipeline endpoints
	mux.HandleFunc("/api/google-place", cfg.Places.GooglePlace)
	mux.HandleFunc("/api/places", cfg.Places.Places)
	mux.HandleFunc("/api/search", cfg.Places.Search)
	mux.HandleFunc("/api/place-details/", cfg.Places.PlaceDetails)
	mux.HandleFunc("/api/nearby", cfg.Nearby.Nearby)

	// Authenticated per-user routes
	authed := func(h http.HandlerFunc) http.Handler {
		return cfg.RequireAuth(h)
	}
	mux.Handle("/api/me/data", authed(cfg.UserData.Data))
	mux.Handle("/api/me/favorites", authed(cfg.UserData.AddFavorite))
	mux.Handle("/api/me/favorites/", authed(cfg.UserData.RemoveFavorite))
	mux.Handle("/api/me/recents", authed(cfg.UserData.AddRecent))
	mux.Handle("/api/me/settings", authed(cfg.Settings.Settings))
	mux.Handle("/api/me/visits", authed(cfg.Visits.Visits))
	mux.Handle("/api/me/visits/", authed(cfg.Visits.DeleteVisit))

	if cfg.Uploads != nil {
		mux.Handle("/api/uploads/sign", authed(cfg.Uploads.SignUpload))
	}

	// Ops endpoints
	mux.HandleFunc("/health", cfg.Health.Health)
	mux.HandleFunc("/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		mux.Handle("/metrics", cfg.Metrics)
	}

	// Root: service info on exact /, structured 404 everywhere else
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeNotFound)
			WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "The requested resource was not found")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"service":"platefinder-api","version":"0.0.1"}`)); err != nil {
			slog.Error("failed to write response", "error", err)
		}
	})

	return mux
}

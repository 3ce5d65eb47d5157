// Package settings manages the per-user settings document.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/platefinder/platefinder/internal/userdata"
)

// settingsCollection is the document collection holding user settings.
const settingsCollection = "userSettings"

// ErrNoUser is returned when no authenticated user is present.
var ErrNoUser = errors.New("authenticated user is required")

// ErrUnknownCategory is returned for updates outside the known categories.
var ErrUnknownCategory = errors.New("unknown settings category")

// Preferences holds discovery and display preferences.
type Preferences struct {
	Theme         string  `json:"theme"`
	Language      string  `json:"language"`
	Currency      string  `json:"currency"`
	Radius        int     `json:"radius"`
	DefaultRating float64 `json:"defaultRating"`
}

// Notifications holds notification toggles.
type Notifications struct {
	Email bool `json:"email"`
	Push  bool `json:"push"`
}

// Privacy holds data-sharing toggles.
type Privacy struct {
	ShareLocation bool `json:"shareLocation"`
	ShareHistory  bool `json:"shareHistory"`
}

// Accessibility holds accessibility toggles.
type Accessibility struct {
	ReduceMotion bool `json:"reduceMotion"`
	LargeText    bool `json:"largeText"`
}

// Settings is the full per-user settings document.
type Settings struct {
	Preferences   Preferences   `json:"preferences"`
	Notifications Notifications `json:"notifications"`
	Privacy       Privacy       `json:"privacy"`
	Accessibility Accessibility `json:"accessibility"`
	UserID        string        `json:"userId,omitempty"`
	CreatedAt     time.Time     `json:"createdAt,omitzero"`
	UpdatedAt     time.Time     `json:"updatedAt,omitzero"`
}

// Defaults returns the settings applied to a user with no stored document.
func Defaults() Settings {
	return Settings{
		Preferences: Preferences{
			Theme:         "system",
			Language:      "en",
			Currency:      "USD",
			Radius:        5,
			DefaultRating: 4,
		},
		Notifications: Notifications{Email: true, Push: true},
		Privacy:       Privacy{ShareLocation: true, ShareHistory: false},
	}
}

// validCategories are the patchable top-level settings categories.
var validCategories = map[string]bool{
	"preferences":   true,
	"notifications": true,
	"privacy":       true,
	"accessibility": true,
}

// Service reads and patches settings documents.
type Service struct {
	store userdata.DocumentStore
	now   func() time.Time
}

// NewService creates a settings service over the given document store.
func NewService(store userdata.DocumentStore) *Service {
	return &Service{store: store, now: time.Now}
}

// Get returns the user's settings, creating and persisting the defaults on
// first access.
func (s *Service) Get(ctx context.Context, userID string) (Settings, error) {
	if userID == "" {
		return Settings{}, ErrNoUser
	}

	raw, err := s.store.Get(ctx, settingsCollection, userID)
	if errors.Is(err, userdata.ErrNotFound) {
		defaults := Defaults()
		defaults.UserID = userID
		defaults.CreatedAt = s.now()
		defaults.UpdatedAt = defaults.CreatedAt
		data, marshalErr := json.Marshal(defaults)
		if marshalErr != nil {
			return Settings{}, marshalErr
		}
		if err := s.store.Set(ctx, settingsCollection, userID, data); err != nil {
			return Settings{}, err
		}
		return defaults, nil
	}
	if err != nil {
		return Settings{}, err
	}

	var stored Settings
	if err := json.Unmarshal(raw, &stored); err != nil {
		return Settings{}, fmt.Errorf("settings document %s is corrupt: %w", userID, err)
	}
	return stored, nil
}

// Update patches a single key inside one category and bumps updatedAt.
// The patch is applied on the raw document so unknown keys stored by other
// clients survive round trips.
func (s *Service) Update(ctx context.Context, userID, category, key string, value any) (Settings, error) {
	if userID == "" {
		return Settings{}, ErrNoUser
	}
	if !validCategories[category] {
		return Settings{}, ErrUnknownCategory
	}
	if key == "" {
		return Settings{}, errors.New("settings key is required")
	}

	// Ensure the document exists before patching.
	if _, err := s.Get(ctx, userID); err != nil {
		return Settings{}, err
	}

	raw, err := s.store.Get(ctx, settingsCollection, userID)
	if err != nil {
		return Settings{}, err
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Settings{}, fmt.Errorf("settings document %s is corrupt: %w", userID, err)
	}

	section, _ := doc[category].(map[string]any)
	if section == nil {
		section = make(map[string]any)
	}
	section[key] = value
	doc[category] = section
	doc["updatedAt"] = s.now().UTC().Format(time.RFC3339Nano)

	data, err := json.Marshal(doc)
	if err != nil {
		return Settings{}, err
	}
	if err := s.store.Set(ctx, settingsCollection, userID, data); err != nil {
		return Settings{}, err
	}

	var updated Settings
	if err := json.Unmarshal(data, &updated); err != nil {
		return Settings{}, err
	}
	return updated, nil
}

package userdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

// usersCollection is the document collection holding per-user data.
const usersCollection = "users"

// ErrNoUser is returned when an operation is attempted without an
// authenticated user. There are no anonymous favorites.
var ErrNoUser = errors.New("authenticated user is required")

// Adapter synchronizes favorites and recents between callers and the
// document store. Writes are read-modify-write over the full document with
// no concurrency control: two sessions mutating the same user can race and
// the last write wins.
//
// The adapter keeps an optimistic in-process copy of each user's document.
// Loads carry a generation token so that a load completing after a newer
// mutation does not clobber the mutation's optimistic state.
type Adapter struct {
	store DocumentStore
	now   func() time.Time

	mu    sync.Mutex
	cache map[string]Document
	gens  map[string]uint64
}

// NewAdapter creates an Adapter over the given document store.
func NewAdapter(store DocumentStore) *Adapter {
	return &Adapter{
		store: store,
		now:   time.Now,
		cache: make(map[string]Document),
		gens:  make(map[string]uint64),
	}
}

// Load fetches the user's document, creating and persisting an empty one
// when none exists yet.
func (a *Adapter) Load(ctx context.Context, userID string) (Document, error) {
	if userID == "" {
		return Document{}, ErrNoUser
	}

	a.mu.Lock()
	gen := a.gens[userID]
	a.mu.Unlock()

	doc, err := a.fetch(ctx, userID)
	if err != nil {
		return Document{}, err
	}

	// Install into the local copy only if no mutation raced this load.
	a.mu.Lock()
	if a.gens[userID] == gen {
		a.cache[userID] = doc
	} else {
		doc = a.cache[userID]
	}
	a.mu.Unlock()

	return doc, nil
}

// Cached returns the adapter's local copy of the user's document, if one
// has been loaded or mutated in this process.
func (a *Adapter) Cached(userID string) (Document, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	doc, ok := a.cache[userID]
	return doc, ok
}

// AddFavorite appends the entry to the user's favorites, replacing any
// existing entry with the same place ID so duplicates never accumulate.
func (a *Adapter) AddFavorite(ctx context.Context, userID string, entry FavoriteEntry) (Document, error) {
	if userID == "" {
		return Document{}, ErrNoUser
	}
	if entry.PlaceID == "" {
		return Document{}, errors.New("favorite requires a place ID")
	}

	doc, err := a.fetch(ctx, userID)
	if err != nil {
		return Document{}, err
	}

	kept := make([]FavoriteEntry, 0, len(doc.Favorites)+1)
	for _, f := range doc.Favorites {
		if f.PlaceID != entry.PlaceID {
			kept = append(kept, f)
		}
	}
	doc.Favorites = append(kept, entry)

	return a.write(ctx, userID, doc)
}

// RemoveFavorite drops the entry with the given place ID. Removing an
// absent ID is a no-op, not an error.
func (a *Adapter) RemoveFavorite(ctx context.Context, userID, placeID string) (Document, error) {
	if userID == "" {
		return Document{}, ErrNoUser
	}

	doc, err := a.fetch(ctx, userID)
	if err != nil {
		return Document{}, err
	}

	kept := make([]FavoriteEntry, 0, len(doc.Favorites))
	for _, f := range doc.Favorites {
		if f.PlaceID != placeID {
			kept = append(kept, f)
		}
	}
	doc.Favorites = kept

	return a.write(ctx, userID, doc)
}

// AddRecent prepends a view record and truncates the list to MaxRecents.
// Repeat views of the same place produce repeat entries.
func (a *Adapter) AddRecent(ctx context.Context, userID, placeID, name string) (Document, error) {
	if userID == "" {
		return Document{}, ErrNoUser
	}
	if placeID == "" {
		return Document{}, errors.New("recent requires a place ID")
	}

	doc, err := a.fetch(ctx, userID)
	if err != nil {
		return Document{}, err
	}

	entry := RecentEntry{PlaceID: placeID, Name: name, Timestamp: a.now()}
	doc.Recents = append([]RecentEntry{entry}, doc.Recents...)
	if len(doc.Recents) > MaxRecents {
		doc.Recents = doc.Recents[:MaxRecents]
	}

	return a.write(ctx, userID, doc)
}

// fetch reads the user's document from the store, creating an empty one on
// first access.
func (a *Adapter) fetch(ctx context.Context, userID string) (Document, error) {
	raw, err := a.store.Get(ctx, usersCollection, userID)
	if errors.Is(err, ErrNotFound) {
		doc := NewDocument(userID, a.now())
		data, marshalErr := json.Marshal(doc)
		if marshalErr != nil {
			return Document{}, marshalErr
		}
		if err := a.store.Set(ctx, usersCollection, userID, data); err != nil {
			return Document{}, err
		}
		return doc, nil
	}
	if err != nil {
		return Document{}, err
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Document{}, fmt.Errorf("user document %s is corrupt: %w", userID, err)
	}
	if doc.Favorites == nil {
		doc.Favorites = []FavoriteEntry{}
	}
	if doc.Recents == nil {
		doc.Recents = []RecentEntry{}
	}
	return doc, nil
}

// write persists the full document and installs it as the optimistic local
// copy, advancing the generation so stale loads are discarded.
func (a *Adapter) write(ctx context.Context, userID string, doc Document) (Document, error) {
	doc.UserID = userID
	doc.UpdatedAt = a.now()

	data, err := json.Marshal(doc)
	if err != nil {
		return Document{}, err
	}
	if err := a.store.Set(ctx, usersCollection, userID, data); err != nil {
		return Document{}, err
	}

	a.mu.Lock()
	a.gens[userID]++
	a.cache[userID] = doc
	a.mu.Unlock()

	return doc, nil
}

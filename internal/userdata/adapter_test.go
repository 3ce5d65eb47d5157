package userdata

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func testAdapter() *Adapter {
	return NewAdapter(NewInMemoryDocumentStore())
}

func entry(placeID string) FavoriteEntry {
	return FavoriteEntry{PlaceID: placeID, Name: "Place " + placeID, Rating: 4.0}
}

func TestLoad_CreatesEmptyDocument(t *testing.T) {
	store := NewInMemoryDocumentStore()
	a := NewAdapter(store)
	ctx := context.Background()

	doc, err := a.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if doc.UserID != "u1" {
		t.Errorf("userId = %q, want u1", doc.UserID)
	}
	if len(doc.Favorites) != 0 || len(doc.Recents) != 0 {
		t.Errorf("expected empty lists, got %+v", doc)
	}
	if doc.CreatedAt.IsZero() || doc.UpdatedAt.IsZero() {
		t.Error("timestamps not set on new document")
	}

	// The empty document must have been persisted, not just synthesized.
	if _, err := store.Get(ctx, "users", "u1"); err != nil {
		t.Errorf("empty document was not persisted: %v", err)
	}
}

func TestOperationsRequireUser(t *testing.T) {
	a := testAdapter()
	ctx := context.Background()

	if _, err := a.Load(ctx, ""); err != ErrNoUser {
		t.Errorf("Load: err = %v, want ErrNoUser", err)
	}
	if _, err := a.AddFavorite(ctx, "", entry("p1")); err != ErrNoUser {
		t.Errorf("AddFavorite: err = %v, want ErrNoUser", err)
	}
	if _, err := a.RemoveFavorite(ctx, "", "p1"); err != ErrNoUser {
		t.Errorf("RemoveFavorite: err = %v, want ErrNoUser", err)
	}
	if _, err := a.AddRecent(ctx, "", "p1", "x"); err != ErrNoUser {
		t.Errorf("AddRecent: err = %v, want ErrNoUser", err)
	}
}

func TestAddFavorite(t *testing.T) {
	a := testAdapter()
	ctx := context.Background()

	doc, err := a.AddFavorite(ctx, "u1", entry("p1"))
	if err != nil {
		t.Fatalf("AddFavorite failed: %v", err)
	}
	if len(doc.Favorites) != 1 || doc.Favorites[0].PlaceID != "p1" {
		t.Fatalf("favorites = %+v, want [p1]", doc.Favorites)
	}

	doc, err = a.AddFavorite(ctx, "u1", entry("p2"))
	if err != nil {
		t.Fatalf("AddFavorite failed: %v", err)
	}
	if len(doc.Favorites) != 2 {
		t.Fatalf("favorites = %+v, want 2 entries", doc.Favorites)
	}
}

func TestAddFavorite_NoDuplicateAccumulation(t *testing.T) {
	a := testAdapter()
	ctx := context.Background()

	if _, err := a.AddFavorite(ctx, "u1", entry("p1")); err != nil {
		t.Fatal(err)
	}
	updated := entry("p1")
	updated.Rating = 4.8
	doc, err := a.AddFavorite(ctx, "u1", updated)
	if err != nil {
		t.Fatal(err)
	}

	if len(doc.Favorites) != 1 {
		t.Fatalf("duplicate place accumulated: %+v", doc.Favorites)
	}
	if doc.Favorites[0].Rating != 4.8 {
		t.Errorf("re-adding should keep the newest entry, got %+v", doc.Favorites[0])
	}
}

func TestRemoveFavorite_Idempotent(t *testing.T) {
	a := testAdapter()
	ctx := context.Background()

	a.AddFavorite(ctx, "u1", entry("p1"))
	a.AddFavorite(ctx, "u1", entry("p2"))

	once, err := a.RemoveFavorite(ctx, "u1", "p1")
	if err != nil {
		t.Fatalf("RemoveFavorite failed: %v", err)
	}
	twice, err := a.RemoveFavorite(ctx, "u1", "p1")
	if err != nil {
		t.Fatalf("second RemoveFavorite failed: %v", err)
	}

	if len(once.Favorites) != 1 || len(twice.Favorites) != 1 {
		t.Fatalf("expected one favorite after both removals, got %d then %d",
			len(once.Favorites), len(twice.Favorites))
	}
	if twice.Favorites[0].PlaceID != "p2" {
		t.Errorf("wrong favorite survived: %+v", twice.Favorites)
	}
}

func TestAddThenRemove_RestoresOriginalList(t *testing.T) {
	a := testAdapter()
	ctx := context.Background()

	a.AddFavorite(ctx, "u1", entry("p1"))
	a.AddFavorite(ctx, "u1", entry("p2"))
	before, _ := a.Load(ctx, "u1")

	a.AddFavorite(ctx, "u1", entry("p3"))
	after, err := a.RemoveFavorite(ctx, "u1", "p3")
	if err != nil {
		t.Fatal(err)
	}

	if len(after.Favorites) != len(before.Favorites) {
		t.Fatalf("length changed: %d -> %d", len(before.Favorites), len(after.Favorites))
	}
	members := make(map[string]bool)
	for _, f := range after.Favorites {
		members[f.PlaceID] = true
	}
	for _, f := range before.Favorites {
		if !members[f.PlaceID] {
			t.Errorf("member %s lost by add/remove round trip", f.PlaceID)
		}
	}
}

func TestAddRecent_TruncatesToTen(t *testing.T) {
	a := testAdapter()
	ctx := context.Background()

	var doc Document
	var err error
	for i := 1; i <= 11; i++ {
		doc, err = a.AddRecent(ctx, "u1", fmt.Sprintf("p%d", i), fmt.Sprintf("Place %d", i))
		if err != nil {
			t.Fatalf("AddRecent %d failed: %v", i, err)
		}
	}

	if len(doc.Recents) != MaxRecents {
		t.Fatalf("recents has %d entries, want %d", len(doc.Recents), MaxRecents)
	}
	// Newest first; the oldest entry (p1) must be gone.
	if doc.Recents[0].PlaceID != "p11" {
		t.Errorf("newest entry = %s, want p11", doc.Recents[0].PlaceID)
	}
	for _, r := range doc.Recents {
		if r.PlaceID == "p1" {
			t.Error("oldest entry p1 should have been dropped")
		}
	}
}

func TestAddRecent_NoDeduplication(t *testing.T) {
	a := testAdapter()
	ctx := context.Background()

	a.AddRecent(ctx, "u1", "p1", "Place 1")
	doc, err := a.AddRecent(ctx, "u1", "p1", "Place 1")
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Recents) != 2 {
		t.Errorf("repeat view produced %d entries, want 2", len(doc.Recents))
	}
}

// gatedStore blocks the first Get until released, to exercise the stale
// load guard.
type gatedStore struct {
	*InMemoryDocumentStore
	entered  chan struct{}
	release  chan struct{}
	gateOnce bool
}

func (s *gatedStore) Get(ctx context.Context, collection, id string) ([]byte, error) {
	if s.gateOnce {
		s.gateOnce = false
		close(s.entered)
		<-s.release
	}
	return s.InMemoryDocumentStore.Get(ctx, collection, id)
}

func TestLoad_StaleResponseDiscarded(t *testing.T) {
	inner := NewInMemoryDocumentStore()
	a := NewAdapter(inner)
	ctx := context.Background()

	// Seed the document so the gated load has something to read.
	if _, err := a.Load(ctx, "u1"); err != nil {
		t.Fatal(err)
	}

	gated := &gatedStore{
		InMemoryDocumentStore: inner,
		entered:               make(chan struct{}),
		release:               make(chan struct{}),
		gateOnce:              true,
	}
	a.store = gated

	done := make(chan Document)
	go func() {
		doc, err := a.Load(ctx, "u1")
		if err != nil {
			t.Errorf("gated Load failed: %v", err)
		}
		done <- doc
	}()

	// Once the load is in flight, race a mutation past it.
	<-gated.entered
	if _, err := a.AddFavorite(ctx, "u1", entry("p1")); err != nil {
		t.Fatal(err)
	}
	close(gated.release)

	doc := <-done
	if len(doc.Favorites) != 1 {
		t.Errorf("stale load returned pre-mutation state: %+v", doc.Favorites)
	}
	cached, ok := a.Cached("u1")
	if !ok || len(cached.Favorites) != 1 {
		t.Errorf("stale load clobbered optimistic state: %+v", cached.Favorites)
	}
}

func TestAdapter_TimestampsAdvance(t *testing.T) {
	a := testAdapter()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := base
	a.now = func() time.Time {
		current = current.Add(time.Minute)
		return current
	}
	ctx := context.Background()

	first, _ := a.Load(ctx, "u1")
	second, _ := a.AddFavorite(ctx, "u1", entry("p1"))

	if !second.UpdatedAt.After(first.UpdatedAt) {
		t.Errorf("updatedAt did not advance: %v -> %v", first.UpdatedAt, second.UpdatedAt)
	}
}

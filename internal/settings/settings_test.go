package settings

import (
	"context"
	"testing"

	"github.com/platefinder/platefinder/internal/userdata"
)

func TestGet_CreatesDefaults(t *testing.T) {
	store := userdata.NewInMemoryDocumentStore()
	svc := NewService(store)
	ctx := context.Background()

	got, err := svc.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	want := Defaults()
	if got.Preferences != want.Preferences {
		t.Errorf("preferences = %+v, want %+v", got.Preferences, want.Preferences)
	}
	if !got.Notifications.Email || !got.Notifications.Push {
		t.Errorf("notifications = %+v, want both enabled", got.Notifications)
	}
	if !got.Privacy.ShareLocation || got.Privacy.ShareHistory {
		t.Errorf("privacy = %+v, want shareLocation only", got.Privacy)
	}
	if got.UserID != "u1" {
		t.Errorf("userId = %q, want u1", got.UserID)
	}

	// Defaults must be persisted, not recomputed per call.
	if _, err := store.Get(ctx, "userSettings", "u1"); err != nil {
		t.Errorf("defaults were not persisted: %v", err)
	}
}

func TestGet_RequiresUser(t *testing.T) {
	svc := NewService(userdata.NewInMemoryDocumentStore())
	if _, err := svc.Get(context.Background(), ""); err != ErrNoUser {
		t.Errorf("err = %v, want ErrNoUser", err)
	}
}

func TestUpdate_PatchesSingleKey(t *testing.T) {
	svc := NewService(userdata.NewInMemoryDocumentStore())
	ctx := context.Background()

	got, err := svc.Update(ctx, "u1", "preferences", "theme", "dark")
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.Preferences.Theme != "dark" {
		t.Errorf("theme = %q, want dark", got.Preferences.Theme)
	}
	// Untouched keys keep their defaults.
	if got.Preferences.Radius != 5 || got.Preferences.Currency != "USD" {
		t.Errorf("unrelated preferences changed: %+v", got.Preferences)
	}

	got, err = svc.Update(ctx, "u1", "privacy", "shareHistory", true)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if !got.Privacy.ShareHistory {
		t.Error("shareHistory not updated")
	}
	if got.Preferences.Theme != "dark" {
		t.Error("earlier patch lost by later update")
	}
}

func TestUpdate_UnknownCategory(t *testing.T) {
	svc := NewService(userdata.NewInMemoryDocumentStore())
	if _, err := svc.Update(context.Background(), "u1", "payments", "plan", "pro"); err != ErrUnknownCategory {
		t.Errorf("err = %v, want ErrUnknownCategory", err)
	}
}

func TestUpdate_NumericValue(t *testing.T) {
	svc := NewService(userdata.NewInMemoryDocumentStore())
	got, err := svc.Update(context.Background(), "u1", "preferences", "radius", 15)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.Preferences.Radius != 15 {
		t.Errorf("radius = %d, want 15", got.Preferences.Radius)
	}
}

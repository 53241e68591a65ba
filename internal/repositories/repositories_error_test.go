package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/desertthunder/dreamsprout/internal/models"
	"golang.org/x/oauth2"
)

var errStore = errors.New("store unavailable")

// brokenStore fails every operation
type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, errStore }
func (brokenStore) Set(context.Context, string, []byte) error         { return errStore }
func (brokenStore) Delete(context.Context, string) error              { return errStore }

func TestLocalDreamsErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("LoadAll", func(t *testing.T) {
		t.Run("CorruptData", func(t *testing.T) {
			store := NewMemoryStore()
			if err := store.Set(ctx, KeyDreams, []byte("{not json")); err != nil {
				t.Fatalf("failed to seed: %v", err)
			}

			dreams, err := NewLocalDreams(store, nil).LoadAll(ctx)
			if err != nil {
				t.Fatalf("corrupt data should fail open, got %v", err)
			}
			if len(dreams) != 0 {
				t.Errorf("expected empty collection, got %d", len(dreams))
			}
		})

		t.Run("WrongShape", func(t *testing.T) {
			store := NewMemoryStore()
			if err := store.Set(ctx, KeyDreams, []byte(`{"dreams":[]}`)); err != nil {
				t.Fatalf("failed to seed: %v", err)
			}

			dreams, err := NewLocalDreams(store, nil).LoadAll(ctx)
			if err != nil || len(dreams) != 0 {
				t.Errorf("expected empty collection and no error, got %d, %v", len(dreams), err)
			}
		})

		t.Run("StoreFailure", func(t *testing.T) {
			_, err := NewLocalDreams(brokenStore{}, nil).LoadAll(ctx)
			if !errors.Is(err, errStore) {
				t.Errorf("expected store error, got %v", err)
			}
		})
	})

	t.Run("SaveAll", func(t *testing.T) {
		t.Run("StoreFailure", func(t *testing.T) {
			err := NewLocalDreams(brokenStore{}, nil).SaveAll(ctx, []models.Dream{{ID: "1"}})
			if !errors.Is(err, errStore) {
				t.Errorf("expected store error, got %v", err)
			}
		})

		t.Run("CancelledContext", func(t *testing.T) {
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			err := NewLocalDreams(NewMemoryStore(), nil).SaveAll(cctx, nil)
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
		})
	})
}

func TestPreferencesRepositoryErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("CorruptData", func(t *testing.T) {
		store := NewMemoryStore()
		if err := store.Set(ctx, KeyPreferences, []byte("[]")); err != nil {
			t.Fatalf("failed to seed: %v", err)
		}

		prefs, err := NewPreferencesRepository(store, nil).Load(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if prefs != models.DefaultPreferences() {
			t.Errorf("expected defaults, got %+v", prefs)
		}
	})

	t.Run("InvalidSave", func(t *testing.T) {
		prefs := models.DefaultPreferences()
		prefs.Tone = "grim"

		if err := NewPreferencesRepository(NewMemoryStore(), nil).Save(ctx, prefs); err == nil {
			t.Error("expected validation error")
		}
	})

	t.Run("StoreFailure", func(t *testing.T) {
		prefs, err := NewPreferencesRepository(brokenStore{}, nil).Load(ctx)
		if !errors.Is(err, errStore) {
			t.Errorf("expected store error, got %v", err)
		}
		if prefs != models.DefaultPreferences() {
			t.Error("expected defaults alongside the error")
		}
	})
}

func TestSessionRepositoryErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("EmptyToken", func(t *testing.T) {
		repo := NewSessionRepository(NewMemoryStore())
		if err := repo.Save(ctx, nil); err == nil {
			t.Error("expected error saving nil token")
		}
		if err := repo.Save(ctx, &oauth2.Token{}); err == nil {
			t.Error("expected error saving empty token")
		}
	})

	t.Run("CorruptData", func(t *testing.T) {
		store := NewMemoryStore()
		if err := store.Set(ctx, KeySession, []byte("nope")); err != nil {
			t.Fatalf("failed to seed: %v", err)
		}
		if _, err := NewSessionRepository(store).Load(ctx); err == nil {
			t.Error("expected decode error")
		}
	})

	t.Run("GuestFlagStoreFailure", func(t *testing.T) {
		if _, err := NewGuestFlag(brokenStore{}).Enabled(ctx); !errors.Is(err, errStore) {
			t.Errorf("expected store error, got %v", err)
		}
	})
}

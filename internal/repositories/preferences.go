package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dreamsprout/internal/models"
	"github.com/desertthunder/dreamsprout/internal/shared"
)

// PreferencesRepository persists [models.Preferences] under [KeyPreferences].
type PreferencesRepository struct {
	store  KeyValueStore
	logger *log.Logger
}

// NewPreferencesRepository creates a new [PreferencesRepository]. A nil logger discards output.
func NewPreferencesRepository(store KeyValueStore, logger *log.Logger) *PreferencesRepository {
	if logger == nil {
		logger = shared.NopLogger()
	}
	return &PreferencesRepository{store: store, logger: logger}
}

// Load returns the saved preferences layered over the defaults.
//
// Missing or corrupt data yields [models.DefaultPreferences].
func (r *PreferencesRepository) Load(ctx context.Context) (models.Preferences, error) {
	prefs := models.DefaultPreferences()

	data, ok, err := r.store.Get(ctx, KeyPreferences)
	if err != nil {
		return prefs, fmt.Errorf("failed to read preferences: %w", err)
	}
	if !ok {
		return prefs, nil
	}

	if err := json.Unmarshal(data, &prefs); err != nil {
		r.logger.Warn("discarding unreadable preferences", "error", err)
		return models.DefaultPreferences(), nil
	}

	return prefs.Normalize(), nil
}

// Save validates and stores prefs.
func (r *PreferencesRepository) Save(ctx context.Context, prefs models.Preferences) error {
	prefs = prefs.Normalize()
	if err := prefs.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}

	if err := r.store.Set(ctx, KeyPreferences, data); err != nil {
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	return nil
}

// GuestFlag records whether the user opted into guest mode, stored as "true" under [KeyGuestMode].
type GuestFlag struct {
	store KeyValueStore
}

// NewGuestFlag creates a new [GuestFlag]
func NewGuestFlag(store KeyValueStore) *GuestFlag {
	return &GuestFlag{store: store}
}

// Enabled reports whether guest mode is on.
func (g *GuestFlag) Enabled(ctx context.Context) (bool, error) {
	data, ok, err := g.store.Get(ctx, KeyGuestMode)
	if err != nil {
		return false, fmt.Errorf("failed to read guest flag: %w", err)
	}
	return ok && string(data) == "true", nil
}

// Enable turns guest mode on.
func (g *GuestFlag) Enable(ctx context.Context) error {
	if err := g.store.Set(ctx, KeyGuestMode, []byte("true")); err != nil {
		return fmt.Errorf("failed to set guest flag: %w", err)
	}
	return nil
}

// Disable turns guest mode off.
func (g *GuestFlag) Disable(ctx context.Context) error {
	if err := g.store.Delete(ctx, KeyGuestMode); err != nil {
		return fmt.Errorf("failed to clear guest flag: %w", err)
	}
	return nil
}

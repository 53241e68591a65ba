package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dreamsprout/internal/models"
	"github.com/desertthunder/dreamsprout/internal/shared"
)

// LocalDreams persists the guest journal as a single serialized collection under [KeyDreams].
//
// It assumes a single writer: read-modify-write cycles are not locked.
type LocalDreams struct {
	store  KeyValueStore
	logger *log.Logger
}

// NewLocalDreams creates a new [LocalDreams]. A nil logger discards output.
func NewLocalDreams(store KeyValueStore, logger *log.Logger) *LocalDreams {
	if logger == nil {
		logger = shared.NopLogger()
	}
	return &LocalDreams{store: store, logger: logger}
}

// LoadAll returns the persisted collection in insertion order.
//
// An absent or unparseable entry yields an empty collection and no error.
// Only a failure of the underlying store is reported.
func (r *LocalDreams) LoadAll(ctx context.Context) ([]models.Dream, error) {
	data, ok, err := r.store.Get(ctx, KeyDreams)
	if err != nil {
		return nil, fmt.Errorf("failed to read dreams: %w", err)
	}
	if !ok || len(data) == 0 {
		return []models.Dream{}, nil
	}

	var dreams []models.Dream
	if err := json.Unmarshal(data, &dreams); err != nil {
		r.logger.Warn("discarding unreadable local dreams", "error", err, "bytes", len(data))
		return []models.Dream{}, nil
	}
	if dreams == nil {
		dreams = []models.Dream{}
	}

	return dreams, nil
}

// SaveAll overwrites the persisted collection with dreams.
func (r *LocalDreams) SaveAll(ctx context.Context, dreams []models.Dream) error {
	if dreams == nil {
		dreams = []models.Dream{}
	}

	data, err := json.Marshal(dreams)
	if err != nil {
		return fmt.Errorf("failed to encode dreams: %w", err)
	}

	if err := r.store.Set(ctx, KeyDreams, data); err != nil {
		return fmt.Errorf("failed to write dreams: %w", err)
	}

	r.logger.Debug("saved local dreams", "count", len(dreams))
	return nil
}

// LoadFavoritesOnly returns the favorite dreams without modifying storage.
func (r *LocalDreams) LoadFavoritesOnly(ctx context.Context) ([]models.Dream, error) {
	dreams, err := r.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	favorites := make([]models.Dream, 0, len(dreams))
	for _, d := range dreams {
		if d.IsFavorite {
			favorites = append(favorites, d)
		}
	}
	return favorites, nil
}

// Clear removes the whole guest collection.
func (r *LocalDreams) Clear(ctx context.Context) error {
	if err := r.store.Delete(ctx, KeyDreams); err != nil {
		return fmt.Errorf("failed to clear dreams: %w", err)
	}
	return nil
}

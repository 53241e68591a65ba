package persistence

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dreamsprout/internal/models"
	"github.com/desertthunder/dreamsprout/internal/repositories"
	"github.com/desertthunder/dreamsprout/internal/services"
	"github.com/desertthunder/dreamsprout/internal/shared"
)

// Router sends each dream operation to the remote account store or the local guest collection,
// depending on the [models.Identity] passed in, and always returns canonical records.
type Router struct {
	local  *repositories.LocalDreams
	remote services.DreamStore
	logger *log.Logger
	locks  *keyedMutex
	now    func() time.Time

	// collection guards every load-modify-save of the local collection.
	collection sync.Mutex
}

// RouterOpts configures a [Router].
type RouterOpts struct {
	Local  *repositories.LocalDreams
	Remote services.DreamStore
	Logger *log.Logger
	// Sequenced serializes remote mutations that target the same dream id. Local mutations
	// rewrite the whole collection and are always serialized.
	Sequenced bool
}

// NewRouter creates a [Router].
func NewRouter(opts RouterOpts) *Router {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NopLogger()
	}
	r := &Router{
		local:  opts.Local,
		remote: opts.Remote,
		logger: logger,
		now:    time.Now,
	}
	if opts.Sequenced {
		r.locks = newKeyedMutex()
	}
	return r
}

func (r *Router) lock(id string) func() {
	if r.locks == nil {
		return func() {}
	}
	return r.locks.Lock(id)
}

// Load returns the identity's dreams, optionally only favorites.
//
// A remote failure is logged and yields an empty collection. It does not fall back to the local store.
func (r *Router) Load(ctx context.Context, id models.Identity, favoritesOnly bool) ([]models.Dream, error) {
	if id.Remote() {
		dreams, err := r.remote.ListDreams(ctx, id.Token, favoritesOnly)
		if err != nil {
			r.logger.Error("failed to load remote dreams", "error", err)
			return []models.Dream{}, nil
		}
		return dreams, nil
	}

	if favoritesOnly {
		return r.local.LoadFavoritesOnly(ctx)
	}
	return r.local.LoadAll(ctx)
}

// Save stores a new dream. Remote failures propagate; there is no local fallback.
//
// A local dream whose id is already stored is saved under the next free id.
func (r *Router) Save(ctx context.Context, d models.Dream, id models.Identity) (models.Dream, error) {
	if id.Remote() {
		return r.remote.CreateDream(ctx, id.Token, d)
	}

	r.collection.Lock()
	defer r.collection.Unlock()

	dreams, err := r.local.LoadAll(ctx)
	if err != nil {
		return models.Dream{}, err
	}
	d.ID = shared.NextFreeID(d.ID, func(candidate string) bool { return indexOf(dreams, candidate) >= 0 })
	if err := r.local.SaveAll(ctx, append([]models.Dream{d}, dreams...)); err != nil {
		return models.Dream{}, err
	}
	return d, nil
}

// Update applies patch to the dream with dreamID and returns the merged record.
//
// A guest update of an unknown id returns [shared.ErrDreamNotFound].
func (r *Router) Update(ctx context.Context, dreamID string, patch models.DreamPatch, id models.Identity) (models.Dream, error) {
	if id.Remote() {
		defer r.lock(dreamID)()
		return r.remote.UpdateDream(ctx, id.Token, dreamID, patch)
	}

	r.collection.Lock()
	defer r.collection.Unlock()

	dreams, err := r.local.LoadAll(ctx)
	if err != nil {
		return models.Dream{}, err
	}

	i := indexOf(dreams, dreamID)
	if i < 0 {
		return models.Dream{}, fmt.Errorf("%w: %s", shared.ErrDreamNotFound, dreamID)
	}
	dreams[i] = patch.Apply(dreams[i])

	if err := r.local.SaveAll(ctx, dreams); err != nil {
		return models.Dream{}, err
	}
	return dreams[i], nil
}

// ToggleFavorite flips the favorite flag. A nil dream means the id was not found or the server declined.
func (r *Router) ToggleFavorite(ctx context.Context, dreamID string, id models.Identity) (*models.Dream, error) {
	if id.Remote() {
		defer r.lock(dreamID)()
		return r.remote.ToggleFavorite(ctx, id.Token, dreamID)
	}

	r.collection.Lock()
	defer r.collection.Unlock()

	dreams, err := r.local.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	i := indexOf(dreams, dreamID)
	if i < 0 {
		return nil, nil
	}
	dreams[i].IsFavorite = !dreams[i].IsFavorite

	if err := r.local.SaveAll(ctx, dreams); err != nil {
		return nil, err
	}
	toggled := dreams[i]
	return &toggled, nil
}

// Delete removes a dream. Deleting an unknown id from the local collection is a no-op.
func (r *Router) Delete(ctx context.Context, dreamID string, id models.Identity) error {
	if id.Remote() {
		defer r.lock(dreamID)()
		return r.remote.DeleteDream(ctx, id.Token, dreamID)
	}

	r.collection.Lock()
	defer r.collection.Unlock()

	dreams, err := r.local.LoadAll(ctx)
	if err != nil {
		return err
	}

	kept := slices.DeleteFunc(dreams, func(d models.Dream) bool { return d.ID == dreamID })
	return r.local.SaveAll(ctx, kept)
}

// Stats returns journal aggregates: the backend's for signed-in users, computed locally otherwise.
func (r *Router) Stats(ctx context.Context, id models.Identity) (models.UserStats, error) {
	if id.Remote() {
		return r.remote.Stats(ctx, id.Token)
	}

	dreams, err := r.local.LoadAll(ctx)
	if err != nil {
		return models.UserStats{}, err
	}
	return models.ComputeStats(dreams, r.now()), nil
}

// ClearLocal removes every dream in the local guest collection.
func (r *Router) ClearLocal(ctx context.Context) error {
	r.collection.Lock()
	defer r.collection.Unlock()
	return r.local.Clear(ctx)
}

func indexOf(dreams []models.Dream, id string) int {
	return slices.IndexFunc(dreams, func(d models.Dream) bool { return d.ID == id })
}

package journal

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dreamsprout/internal/models"
	"github.com/desertthunder/dreamsprout/internal/persistence"
	"github.com/desertthunder/dreamsprout/internal/shared"
)

// Persistence is the routing layer the store delegates to. [*persistence.Router] implements it.
type Persistence interface {
	Load(ctx context.Context, id models.Identity, favoritesOnly bool) ([]models.Dream, error)
	Save(ctx context.Context, d models.Dream, id models.Identity) (models.Dream, error)
	Update(ctx context.Context, dreamID string, patch models.DreamPatch, id models.Identity) (models.Dream, error)
	ToggleFavorite(ctx context.Context, dreamID string, id models.Identity) (*models.Dream, error)
	Delete(ctx context.Context, dreamID string, id models.Identity) error
	Stats(ctx context.Context, id models.Identity) (models.UserStats, error)
}

var _ Persistence = (*persistence.Router)(nil)

// IdentityProvider reports who is using the journal. The auth package's Session implements it.
type IdentityProvider interface {
	Identity(ctx context.Context) (models.Identity, error)
}

// StaticIdentity is an [IdentityProvider] that always returns the same identity.
type StaticIdentity models.Identity

func (s StaticIdentity) Identity(context.Context) (models.Identity, error) {
	return models.Identity(s), nil
}

// State reports which operations are in flight.
type State struct {
	Loading  bool
	Saving   bool
	Updating bool
	Toggling bool
	Deleting bool
}

// Busy reports whether any operation is in flight.
func (s State) Busy() bool {
	return s.Loading || s.Saving || s.Updating || s.Toggling || s.Deleting
}

// Store holds the session's dreams for the current identity and keeps them in step with the
// router. It is safe for concurrent use; when calls overlap the later-completing one wins.
type Store struct {
	router   Persistence
	identity IdentityProvider
	logger   *log.Logger
	now      func() time.Time

	mu       sync.RWMutex
	dreams   []models.Dream
	inflight map[string]int
}

// NewStore creates an empty [Store]. Call [Store.Refresh] to populate it.
func NewStore(router Persistence, identity IdentityProvider, logger *log.Logger) *Store {
	if logger == nil {
		logger = shared.NopLogger()
	}
	return &Store{
		router:   router,
		identity: identity,
		logger:   logger,
		now:      time.Now,
		dreams:   []models.Dream{},
		inflight: make(map[string]int),
	}
}

const (
	opLoad   = "load"
	opSave   = "save"
	opUpdate = "update"
	opToggle = "toggle"
	opDelete = "delete"
)

func (s *Store) begin(op string) func() {
	s.mu.Lock()
	s.inflight[op]++
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		s.inflight[op]--
		s.mu.Unlock()
	}
}

// State returns the current request state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{
		Loading:  s.inflight[opLoad] > 0,
		Saving:   s.inflight[opSave] > 0,
		Updating: s.inflight[opUpdate] > 0,
		Toggling: s.inflight[opToggle] > 0,
		Deleting: s.inflight[opDelete] > 0,
	}
}

// Identity resolves the identity the next operation will use.
func (s *Store) Identity(ctx context.Context) (models.Identity, error) {
	return s.identity.Identity(ctx)
}

// Refresh replaces the collection with the router's view of it.
func (s *Store) Refresh(ctx context.Context, favoritesOnly bool) error {
	defer s.begin(opLoad)()

	id, err := s.identity.Identity(ctx)
	if err != nil {
		return err
	}
	dreams, err := s.router.Load(ctx, id, favoritesOnly)
	if err != nil {
		return err
	}
	if dreams == nil {
		dreams = []models.Dream{}
	}

	s.mu.Lock()
	s.dreams = dreams
	s.mu.Unlock()

	s.logger.Debug("journal refreshed", "count", len(dreams), "identity", id.String())
	return nil
}

// Create validates draft, saves it and prepends the result to the collection.
//
// Guest dreams get a time-based id unique within the collection and today's date. Signed-in
// dreams get their id from the backend; the date is set here when the backend leaves it empty.
func (s *Store) Create(ctx context.Context, draft models.Draft) (models.Dream, error) {
	defer s.begin(opSave)()

	if err := draft.Validate(); err != nil {
		return models.Dream{}, err
	}

	id, err := s.identity.Identity(ctx)
	if err != nil {
		return models.Dream{}, err
	}

	now := s.now()
	today := shared.FormatDate(now)

	var dreamID string
	if !id.Remote() {
		dreamID = s.uniqueID(now)
	}

	d := draft.Dream(dreamID, today)
	if id.Remote() {
		d.UserID = id.UserID
		d.UserEmail = id.Email
	}

	saved, err := s.router.Save(ctx, d, id)
	if err != nil {
		return models.Dream{}, err
	}
	if saved.Date == "" {
		saved.Date = today
	}
	saved.Audio = nil

	s.mu.Lock()
	s.dreams = append([]models.Dream{saved}, slices.DeleteFunc(s.dreams, func(existing models.Dream) bool {
		return existing.ID == saved.ID
	})...)
	s.mu.Unlock()

	return saved, nil
}

// uniqueID returns a millisecond timestamp id, bumped past any id already held. The router
// repeats the check against the stored collection.
func (s *Store) uniqueID(now time.Time) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	taken := make(map[string]bool, len(s.dreams))
	for _, d := range s.dreams {
		taken[d.ID] = true
	}

	return shared.NextFreeID(shared.TimeID(now), func(id string) bool { return taken[id] })
}

// Update applies patch through the router and layers the merged result onto the held record.
func (s *Store) Update(ctx context.Context, dreamID string, patch models.DreamPatch) (models.Dream, error) {
	defer s.begin(opUpdate)()

	if err := patch.Validate(); err != nil {
		return models.Dream{}, err
	}

	id, err := s.identity.Identity(ctx)
	if err != nil {
		return models.Dream{}, err
	}

	merged, err := s.router.Update(ctx, dreamID, patch, id)
	if err != nil {
		return models.Dream{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(dreamID); i >= 0 {
		s.dreams[i] = overlay(patch.Apply(s.dreams[i]), merged)
		return s.dreams[i], nil
	}
	return merged, nil
}

// ToggleFavorite flips the favorite flag. A nil result leaves the collection unchanged.
func (s *Store) ToggleFavorite(ctx context.Context, dreamID string) (*models.Dream, error) {
	defer s.begin(opToggle)()

	id, err := s.identity.Identity(ctx)
	if err != nil {
		return nil, err
	}

	toggled, err := s.router.ToggleFavorite(ctx, dreamID, id)
	if err != nil || toggled == nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(dreamID); i >= 0 {
		s.dreams[i] = overlay(s.dreams[i], *toggled)
		result := s.dreams[i]
		return &result, nil
	}
	return toggled, nil
}

// Delete removes a dream once the router confirms it.
func (s *Store) Delete(ctx context.Context, dreamID string) error {
	defer s.begin(opDelete)()

	id, err := s.identity.Identity(ctx)
	if err != nil {
		return err
	}
	if err := s.router.Delete(ctx, dreamID, id); err != nil {
		return err
	}

	s.mu.Lock()
	s.dreams = slices.DeleteFunc(s.dreams, func(d models.Dream) bool { return d.ID == dreamID })
	s.mu.Unlock()
	return nil
}

// AccountStats returns the router's aggregates for the current identity.
func (s *Store) AccountStats(ctx context.Context) (models.UserStats, error) {
	id, err := s.identity.Identity(ctx)
	if err != nil {
		return models.UserStats{}, err
	}
	stats, err := s.router.Stats(ctx, id)
	if err != nil {
		return models.UserStats{}, fmt.Errorf("failed to load stats: %w", err)
	}
	return stats, nil
}

func (s *Store) index(dreamID string) int {
	return slices.IndexFunc(s.dreams, func(d models.Dream) bool { return d.ID == dreamID })
}

// overlay copies every non-empty field of top onto base. The favorite flag always comes from top.
func overlay(base, top models.Dream) models.Dream {
	if top.ID != "" {
		base.ID = top.ID
	}
	if top.OriginalDream != "" {
		base.OriginalDream = top.OriginalDream
	}
	if top.Story != "" {
		base.Story = top.Story
	}
	if top.Analysis != "" {
		base.Analysis = top.Analysis
	}
	if top.Title != "" {
		base.Title = top.Title
	}
	if top.Tone != "" {
		base.Tone = top.Tone
	}
	if top.Length != "" {
		base.Length = top.Length
	}
	if top.Date != "" {
		base.Date = top.Date
	}
	if top.Images != nil {
		base.Images = top.Images
	}
	if top.InputMode != "" {
		base.InputMode = top.InputMode
	}
	if top.UserID != "" {
		base.UserID = top.UserID
	}
	if top.UserEmail != "" {
		base.UserEmail = top.UserEmail
	}
	if top.Mood != "" {
		base.Mood = top.Mood
	}
	if top.Lucidity != nil {
		base.Lucidity = top.Lucidity
	}
	if top.Tags != nil {
		base.Tags = top.Tags
	}
	if top.CreatedAt != "" {
		base.CreatedAt = top.CreatedAt
	}
	if top.UpdatedAt != "" {
		base.UpdatedAt = top.UpdatedAt
	}
	base.IsFavorite = top.IsFavorite
	return base
}

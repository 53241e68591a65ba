package journal

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/desertthunder/dreamsprout/internal/models"
	"github.com/desertthunder/dreamsprout/internal/shared"
	"golang.org/x/text/cases"
)

// SortOrder orders dreams by their creation date.
type SortOrder string

const (
	SortLatest SortOrder = "latest"
	SortOldest SortOrder = "oldest"
)

// ParseSortOrder parses "latest" or "oldest". An empty string is latest.
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortLatest:
		return SortLatest, nil
	case SortOldest:
		return SortOldest, nil
	default:
		return "", fmt.Errorf("%w: sort must be latest or oldest, got %q", shared.ErrInvalidFlag, s)
	}
}

// Filter combines the journal's derived views.
type Filter struct {
	Search        string
	FavoritesOnly bool
	Order         SortOrder
}

// Dreams returns a copy of the collection in its held order.
func (s *Store) Dreams() []models.Dream {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.dreams)
}

// Len returns the number of held dreams.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.dreams)
}

// Get returns the dream with id.
func (s *Store) Get(id string) (models.Dream, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.index(id); i >= 0 {
		return s.dreams[i], true
	}
	return models.Dream{}, false
}

// Search returns dreams whose title or text contains query, ignoring case.
func (s *Store) Search(query string) []models.Dream {
	return Search(s.Dreams(), query)
}

// Favorites returns the favorite dreams.
func (s *Store) Favorites() []models.Dream {
	return Favorites(s.Dreams())
}

// SortByDate returns the dreams ordered by date.
func (s *Store) SortByDate(order SortOrder) []models.Dream {
	return SortByDate(s.Dreams(), order)
}

// Query applies f to the collection: favorites, then search, then sort.
func (s *Store) Query(f Filter) []models.Dream {
	dreams := s.Dreams()
	if f.FavoritesOnly {
		dreams = Favorites(dreams)
	}
	if f.Search != "" {
		dreams = Search(dreams, f.Search)
	}
	return SortByDate(dreams, f.Order)
}

// Stats computes local counters over the held collection.
func (s *Store) Stats(now time.Time) models.UserStats {
	return models.ComputeStats(s.Dreams(), now)
}

// Search filters dreams to those whose title or original text contains query under Unicode case folding.
// An empty query matches everything.
func Search(dreams []models.Dream, query string) []models.Dream {
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(query))
	if needle == "" {
		return slices.Clone(dreams)
	}

	out := make([]models.Dream, 0, len(dreams))
	for _, d := range dreams {
		if strings.Contains(fold.String(d.Title), needle) || strings.Contains(fold.String(d.OriginalDream), needle) {
			out = append(out, d)
		}
	}
	return out
}

// Favorites filters dreams to the favorites.
func Favorites(dreams []models.Dream) []models.Dream {
	out := make([]models.Dream, 0, len(dreams))
	for _, d := range dreams {
		if d.IsFavorite {
			out = append(out, d)
		}
	}
	return out
}

// SortByDate returns a sorted copy of dreams. Dates that do not parse sort as the zero time.
// Dreams with equal dates keep their relative order.
func SortByDate(dreams []models.Dream, order SortOrder) []models.Dream {
	out := slices.Clone(dreams)
	slices.SortStableFunc(out, func(a, b models.Dream) int {
		if order == SortOldest {
			return a.ParsedDate().Compare(b.ParsedDate())
		}
		return b.ParsedDate().Compare(a.ParsedDate())
	})
	return out
}

// package services defines the interfaces for the DreamSprout backend and the [Client] that implements them
package services

import (
	"context"
	"io"

	"github.com/desertthunder/dreamsprout/internal/models"
)

// DreamStore is the account-scoped dream storage offered by the backend.
type DreamStore interface {
	// ListDreams returns the user's dreams in server order.
	ListDreams(ctx context.Context, token string, favoritesOnly bool) ([]models.Dream, error)

	// CreateDream saves a new dream and returns it with its server-assigned id.
	CreateDream(ctx context.Context, token string, d models.Dream) (models.Dream, error)

	// UpdateDream applies a partial update and returns the merged record.
	UpdateDream(ctx context.Context, token, id string, patch models.DreamPatch) (models.Dream, error)

	// ToggleFavorite flips the favorite flag. A nil dream means the server declined.
	ToggleFavorite(ctx context.Context, token, id string) (*models.Dream, error)

	// DeleteDream removes a dream.
	DeleteDream(ctx context.Context, token, id string) error

	// Stats returns journal aggregates.
	Stats(ctx context.Context, token string) (models.UserStats, error)
}

// Generator wraps the text, image and speech generation endpoints.
type Generator interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
	GenerateTitle(ctx context.Context, dreamText string) (string, error)
	GenerateStory(ctx context.Context, dreamText string, tone models.Tone, length models.Length) (string, error)
	GenerateImages(ctx context.Context, story string, tone models.Tone, skip bool) ([]models.DreamImage, error)
	AnalyzeDream(ctx context.Context, token, dreamText, dreamID string) (*Analysis, error)
	TextToSpeech(ctx context.Context, text, voice string, speed float64) ([]byte, error)
}

var (
	_ DreamStore = (*Client)(nil)
	_ Generator  = (*Client)(nil)
)

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/desertthunder/dreamsprout/internal/models"
	"github.com/desertthunder/dreamsprout/internal/shared"
)

// Dream listing is requested as a single page.
const (
	listPage  = "1"
	listLimit = "50"
)

// dreamEnvelope is the {"dream": {...}} response of create and update.
type dreamEnvelope struct {
	Dream json.RawMessage `json:"dream"`
}

// favoriteResponse is the response of the favorite toggle.
type favoriteResponse struct {
	Success bool            `json:"success"`
	Dream   json.RawMessage `json:"dream"`
}

func dreamPath(id string) string {
	return "/dreams/" + url.PathEscape(id)
}

// ListDreams fetches the signed-in user's dreams, optionally only favorites.
//
// Tone and length default to whimsical and medium when the backend omits them.
func (c *Client) ListDreams(ctx context.Context, token string, favoritesOnly bool) ([]models.Dream, error) {
	const op = "list dreams"
	if err := requireToken(op, token); err != nil {
		return nil, err
	}

	query := url.Values{"page": {listPage}, "limit": {listLimit}}
	if favoritesOnly {
		query.Set("favoritesOnly", "true")
	}

	body, err := c.do(ctx, request{op: op, method: http.MethodGet, path: "/dreams", query: query, token: token})
	if err != nil {
		return nil, err
	}

	raws, err := decodeDreamList(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	dreams := make([]models.Dream, 0, len(raws))
	for _, raw := range raws {
		d, err := decodeServerDream(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if d.Tone == "" {
			d.Tone = models.ToneWhimsical
		}
		if d.Length == "" {
			d.Length = models.LengthMedium
		}
		dreams = append(dreams, d)
	}
	return dreams, nil
}

// CreateDream stores d in the user's account.
//
// Only the id, owner and favorite flag are taken from the response; every other field keeps the caller's value.
func (c *Client) CreateDream(ctx context.Context, token string, d models.Dream) (models.Dream, error) {
	const op = "create dream"
	if err := requireToken(op, token); err != nil {
		return models.Dream{}, err
	}

	var resp dreamEnvelope
	r := request{op: op, method: http.MethodPost, path: "/dreams", token: token, body: ToServer(createFields(d))}
	if err := c.doJSON(ctx, r, &resp); err != nil {
		return models.Dream{}, err
	}
	if len(resp.Dream) == 0 {
		return models.Dream{}, fmt.Errorf("%s: %w: response has no dream", op, shared.ErrAPIRequest)
	}

	saved, err := decodeServerDream(resp.Dream)
	if err != nil {
		return models.Dream{}, fmt.Errorf("%s: %w", op, err)
	}

	d.ID = saved.ID
	d.UserID = saved.UserID
	d.IsFavorite = saved.IsFavorite
	return d, nil
}

// UpdateDream sends the fields patch sets and merges the response over them.
//
// A field the backend leaves empty falls back to the patch value. The id, favorite flag,
// input mode and owner always come from the backend.
func (c *Client) UpdateDream(ctx context.Context, token, id string, patch models.DreamPatch) (models.Dream, error) {
	const op = "update dream"
	if err := requireToken(op, token); err != nil {
		return models.Dream{}, err
	}

	var resp dreamEnvelope
	r := request{op: op, method: http.MethodPut, path: dreamPath(id), token: token, body: ToServer(patchFields(patch))}
	if err := c.doJSON(ctx, r, &resp); err != nil {
		return models.Dream{}, err
	}
	if len(resp.Dream) == 0 {
		return models.Dream{}, fmt.Errorf("%s: %w: response has no dream", op, shared.ErrAPIRequest)
	}

	server, err := decodeServerDream(resp.Dream)
	if err != nil {
		return models.Dream{}, fmt.Errorf("%s: %w", op, err)
	}

	return mergeUpdate(server, patch), nil
}

func mergeUpdate(server models.Dream, patch models.DreamPatch) models.Dream {
	merged := patch.Apply(models.Dream{})

	merged.ID = server.ID
	merged.Title = firstNonEmpty(server.Title, merged.Title)
	merged.OriginalDream = firstNonEmpty(server.OriginalDream, merged.OriginalDream)
	merged.Story = firstNonEmpty(server.Story, merged.Story)
	merged.Analysis = firstNonEmpty(server.Analysis, merged.Analysis)
	merged.Tone = models.Tone(firstNonEmpty(string(server.Tone), string(merged.Tone), string(models.ToneWhimsical)))
	merged.Length = models.Length(firstNonEmpty(string(server.Length), string(merged.Length), string(models.LengthMedium)))
	merged.Date = firstNonEmpty(server.Date, merged.Date)
	merged.IsFavorite = server.IsFavorite
	merged.InputMode = server.InputMode
	merged.UserID = server.UserID
	merged.UserEmail = server.UserEmail
	if server.Images != nil {
		merged.Images = server.Images
	}
	return merged
}

// ToggleFavorite flips the favorite flag of a dream.
//
// A response with success false or no dream yields (nil, nil).
func (c *Client) ToggleFavorite(ctx context.Context, token, id string) (*models.Dream, error) {
	const op = "toggle favorite"
	if err := requireToken(op, token); err != nil {
		return nil, err
	}

	var resp favoriteResponse
	r := request{op: op, method: http.MethodPatch, path: dreamPath(id) + "/favorite", token: token}
	if err := c.doJSON(ctx, r, &resp); err != nil {
		return nil, err
	}
	if !resp.Success || len(resp.Dream) == 0 || string(resp.Dream) == "null" {
		c.logger.Debug("favorite toggle declined", "id", id)
		return nil, nil
	}

	d, err := decodeServerDream(resp.Dream)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	d.Title = firstNonEmpty(d.Title, models.DefaultTitle)
	d.Date = firstNonEmpty(d.Date, shared.FormatDate(c.now()))
	if d.Tone == "" {
		d.Tone = models.ToneWhimsical
	}
	if d.Length == "" {
		d.Length = models.LengthMedium
	}
	return &d, nil
}

// DeleteDream removes a dream from the user's account.
func (c *Client) DeleteDream(ctx context.Context, token, id string) error {
	const op = "delete dream"
	if err := requireToken(op, token); err != nil {
		return err
	}

	_, err := c.do(ctx, request{op: op, method: http.MethodDelete, path: dreamPath(id), token: token})
	return err
}

// Stats fetches aggregate counts for the user's journal.
func (c *Client) Stats(ctx context.Context, token string) (models.UserStats, error) {
	const op = "user stats"
	if err := requireToken(op, token); err != nil {
		return models.UserStats{}, err
	}

	var stats models.UserStats
	if err := c.doJSON(ctx, request{op: op, method: http.MethodGet, path: "/stats", token: token}, &stats); err != nil {
		return models.UserStats{}, err
	}
	return stats, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

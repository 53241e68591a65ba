package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/desertthunder/dreamsprout/internal/models"
	"github.com/desertthunder/dreamsprout/internal/shared"
	tu "github.com/desertthunder/dreamsprout/internal/testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(ClientOpts{BaseURL: server.URL})
}

func TestListDreams(t *testing.T) {
	t.Run("Envelope Response", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet || r.URL.Path != "/dreams" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			q := r.URL.Query()
			if q.Get("page") != "1" || q.Get("limit") != "50" {
				t.Errorf("unexpected pagination %v", q)
			}
			if q.Has("favoritesOnly") {
				t.Error("favoritesOnly should be omitted when false")
			}

			tu.WriteJSON(t, w, http.StatusOK, map[string]any{
				"dreams": []map[string]any{
					{"id": "a", "title": "Sky", "dreamText": "I flew", "storyTone": "mystical", "storyLength": "long", "hasAudio": true, "isFavorite": true, "lucidity": 4, "tags": []string{"flight"}},
					{"id": "b", "dreamText": "I fell"},
				},
				"total":   2,
				"hasMore": false,
			})
		})

		dreams, err := c.ListDreams(context.Background(), "tok", false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(dreams) != 2 {
			t.Fatalf("expected 2 dreams, got %d", len(dreams))
		}

		first := dreams[0]
		if first.OriginalDream != "I flew" || first.Tone != models.ToneMystical || first.Length != models.LengthLong {
			t.Errorf("fields not mapped: %+v", first)
		}
		if first.InputMode != models.InputVoice || !first.IsFavorite {
			t.Errorf("expected voice favorite, got %+v", first)
		}
		if first.Lucidity == nil || *first.Lucidity != 4 || len(first.Tags) != 1 {
			t.Errorf("extra fields not carried: %+v", first)
		}

		second := dreams[1]
		if second.Tone != models.ToneWhimsical || second.Length != models.LengthMedium {
			t.Errorf("expected tone and length defaults, got %q %q", second.Tone, second.Length)
		}
		if second.InputMode != models.InputText || second.IsFavorite {
			t.Errorf("expected text non-favorite, got %+v", second)
		}
	})

	t.Run("Bare Array Response", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("favoritesOnly") != "true" {
				t.Error("expected favoritesOnly=true")
			}
			tu.WriteJSON(t, w, http.StatusOK, []map[string]any{
				{"id": "legacy", "originalDream": "old shape", "isFavorite": true},
			})
		})

		dreams, err := c.ListDreams(context.Background(), "tok", true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(dreams) != 1 || dreams[0].OriginalDream != "old shape" {
			t.Errorf("expected legacy dream, got %+v", dreams)
		}
	})

	t.Run("Unexpected Shape", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`"nope"`))
		})

		if _, err := c.ListDreams(context.Background(), "tok", false); err == nil {
			t.Error("expected error for unexpected shape")
		}
	})
}

func TestCreateDream(t *testing.T) {
	t.Run("Partial Trust Merge", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/dreams" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}

			body := tu.DecodeJSON(t, r)
			if body["dreamText"] != "I flew over mountains" || body["storyTone"] != "whimsical" || body["storyLength"] != "short" {
				t.Errorf("unexpected payload %v", body)
			}
			if body["hasAudio"] != true {
				t.Errorf("expected hasAudio true, got %v", body["hasAudio"])
			}
			if tags, ok := body["tags"].([]any); !ok || len(tags) != 0 {
				t.Errorf("expected empty tags, got %v", body["tags"])
			}
			if _, ok := body["originalDream"]; ok {
				t.Error("canonical field names must not be sent")
			}
			if _, ok := body["story"]; ok {
				t.Error("empty story should be omitted")
			}

			tu.WriteJSON(t, w, http.StatusCreated, map[string]any{
				"dream": map[string]any{
					"id": "srv-1", "userId": "u-1", "isFavorite": false,
					"title": "Server Title", "dreamText": "rewritten",
				},
			})
		})

		local := models.Dream{
			ID: "local", OriginalDream: "I flew over mountains", Title: "Mine",
			Tone: models.ToneWhimsical, Length: models.LengthShort, Date: "Mar 1, 2025",
			InputMode: models.InputVoice, IsFavorite: true, UserEmail: "me@example.com",
		}

		saved, err := c.CreateDream(context.Background(), "tok", local)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if saved.ID != "srv-1" || saved.UserID != "u-1" || saved.IsFavorite {
			t.Errorf("server fields not merged: %+v", saved)
		}
		if saved.Title != "Mine" || saved.OriginalDream != "I flew over mountains" || saved.Date != "Mar 1, 2025" || saved.UserEmail != "me@example.com" {
			t.Errorf("client fields should win for everything else: %+v", saved)
		}
	})

	t.Run("Missing Dream In Response", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			tu.WriteJSON(t, w, http.StatusOK, map[string]any{})
		})

		_, err := c.CreateDream(context.Background(), "tok", models.Dream{OriginalDream: "x"})
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("Server Error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		_, err := c.CreateDream(context.Background(), "tok", models.Dream{OriginalDream: "x"})
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.Op != "create dream" {
			t.Errorf("expected create dream APIError, got %v", err)
		}
	})
}

func TestUpdateDream(t *testing.T) {
	t.Run("Sends Only Set Fields", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPut || r.URL.Path != "/dreams/d1" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}

			body := tu.DecodeJSON(t, r)
			if len(body) != 2 || body["analysis"] != "deep" || body["storyTone"] != "gentle" {
				t.Errorf("expected only analysis and storyTone, got %v", body)
			}

			tu.WriteJSON(t, w, http.StatusOK, map[string]any{
				"dream": map[string]any{
					"id": "d1", "title": "Server", "dreamText": "text", "isFavorite": true,
					"hasAudio": true, "userId": "u", "userEmail": "e@x.y", "images": []any{},
				},
			})
		})

		patch := models.DreamPatch{Analysis: models.Ptr("deep"), Tone: models.Ptr(models.ToneGentle)}
		merged, err := c.UpdateDream(context.Background(), "tok", "d1", patch)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if merged.ID != "d1" || merged.Title != "Server" || merged.OriginalDream != "text" {
			t.Errorf("server values should win: %+v", merged)
		}
		if merged.Analysis != "deep" || merged.Tone != models.ToneGentle {
			t.Errorf("patch values should fill omitted fields: %+v", merged)
		}
		if merged.Length != models.LengthMedium {
			t.Errorf("expected length default, got %q", merged.Length)
		}
		if !merged.IsFavorite || merged.InputMode != models.InputVoice || merged.UserID != "u" || merged.UserEmail != "e@x.y" {
			t.Errorf("authoritative server fields not applied: %+v", merged)
		}
		if merged.Images == nil || len(merged.Images) != 0 {
			t.Errorf("expected server's empty images, got %#v", merged.Images)
		}
	})

	t.Run("Network Failure", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("offline"))}
		c := NewClient(ClientOpts{BaseURL: "http://example.com", HTTPClient: client})

		if _, err := c.UpdateDream(context.Background(), "tok", "1", models.DreamPatch{}); err == nil {
			t.Error("expected transport error")
		}
	})
}

func TestToggleFavorite(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPatch || r.URL.Path != "/dreams/42/favorite" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			if r.ContentLength > 0 {
				t.Error("expected no request body")
			}
			tu.WriteJSON(t, w, http.StatusOK, map[string]any{
				"success": true,
				"dream":   map[string]any{"id": "42", "dreamText": "x", "isFavorite": true},
			})
		})
		c.now = func() time.Time { return time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC) }

		d, err := c.ToggleFavorite(context.Background(), "tok", "42")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d == nil || !d.IsFavorite {
			t.Fatalf("expected favorite dream, got %+v", d)
		}
		if d.Title != models.DefaultTitle || d.Date != "Jun 9, 2025" {
			t.Errorf("expected title and date defaults, got %q %q", d.Title, d.Date)
		}
	})

	t.Run("Declined", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			tu.WriteJSON(t, w, http.StatusOK, map[string]any{"success": false})
		})

		d, err := c.ToggleFavorite(context.Background(), "tok", "42")
		if err != nil || d != nil {
			t.Errorf("expected (nil, nil), got %+v, %v", d, err)
		}
	})

	t.Run("HTTP Failure", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		if _, err := c.ToggleFavorite(context.Background(), "tok", "42"); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})
}

func TestDeleteDream(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodDelete || r.URL.Path != "/dreams/7" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			w.WriteHeader(http.StatusNoContent)
		})

		if err := c.DeleteDream(context.Background(), "tok", "7"); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("Failure", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		})

		var apiErr *APIError
		if err := c.DeleteDream(context.Background(), "tok", "7"); !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusForbidden {
			t.Errorf("expected 403 APIError, got %v", err)
		}
	})
}

func TestStats(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stats" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		tu.WriteJSON(t, w, http.StatusOK, map[string]any{
			"totalDreams": 12, "dreamsThisMonth": 3, "favoriteDreams": 2,
			"mostCommonTags":   []map[string]any{{"tag": "flight", "count": 4}},
			"moodDistribution": []map[string]any{{"mood": "calm", "count": 5}},
			"averageLucidity":  nil,
		})
	})

	stats, err := c.Stats(context.Background(), "tok")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalDreams != 12 || stats.DreamsThisMonth != 3 || stats.FavoriteDreams != 2 {
		t.Errorf("unexpected counters %+v", stats)
	}
	if len(stats.MostCommonTags) != 1 || stats.MostCommonTags[0].Tag != "flight" {
		t.Errorf("unexpected tags %+v", stats.MostCommonTags)
	}
	if stats.AverageLucidity != nil {
		t.Error("expected null lucidity")
	}
}

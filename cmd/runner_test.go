package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/dreamsprout/internal/models"
	"github.com/desertthunder/dreamsprout/internal/repositories"
	"github.com/desertthunder/dreamsprout/internal/shared"
	tu "github.com/desertthunder/dreamsprout/internal/testing"
	"github.com/golang-jwt/jwt/v5"
)

// backend fakes the generation and account endpoints.
type backend struct {
	t       *testing.T
	mu      sync.Mutex
	created []map[string]any
	tokens  []string
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.tokens = append(b.tokens, r.Header.Get("Authorization"))
	switch {
	case r.URL.Path == "/generate-title":
		tu.WriteJSON(b.t, w, http.StatusOK, map[string]string{"title": "Deep Water"})
	case r.URL.Path == "/generate-story":
		tu.WriteJSON(b.t, w, http.StatusOK, map[string]string{"story": "Once upon a tide."})
	case r.URL.Path == "/generate-images":
		tu.WriteJSON(b.t, w, http.StatusOK, map[string]any{"images": []map[string]string{{"url": "http://img/1.png", "scene": "1"}}})
	case r.URL.Path == "/text-to-speech":
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("ID3audio"))
	case r.URL.Path == "/dreams" && r.Method == http.MethodGet:
		tu.WriteJSON(b.t, w, http.StatusOK, map[string]any{"dreams": []map[string]any{
			{"id": "srv-1", "title": "Remote", "dreamText": "from the server", "date": "Jun 1, 2025", "isFavorite": true},
		}})
	case r.URL.Path == "/dreams" && r.Method == http.MethodPost:
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		b.created = append(b.created, body)
		tu.WriteJSON(b.t, w, http.StatusCreated, map[string]any{"dream": map[string]any{"id": "srv-2", "userId": "u1"}})
	default:
		http.NotFound(w, r)
	}
}

type harness struct {
	runner *Runner
	out    *bytes.Buffer
	api    *backend
	dir    string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	api := &backend{t: t}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	config := shared.DefaultConfig()
	config.API.BaseURL = srv.URL
	config.Log.Level = "error"

	out := &bytes.Buffer{}
	r := NewRunner(RunnerOpts{
		Config: config,
		Logger: shared.NopLogger(),
		Output: out,
		Store:  repositories.NewMemoryStore(),
	})
	return &harness{runner: r, out: out, api: api, dir: t.TempDir()}
}

// run executes args against a fresh root command and returns what was written.
func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	h.out.Reset()
	argv := append([]string{"dreamsprout", "--config", filepath.Join(h.dir, "missing.toml")}, args...)
	err := newApp(h.runner).Run(context.Background(), argv)
	return h.out.String(), err
}

func (h *harness) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := h.run(t, args...)
	if err != nil {
		t.Fatalf("%v failed: %v", args, err)
	}
	return out
}

func signedJWT(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return raw
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			store := repositories.NewMemoryStore()

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Store:      store,
				ConfigPath: "/test/path/config.toml",
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.kv != store {
				t.Error("expected store to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})

		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})

		t.Run("open is idempotent", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Store: repositories.NewMemoryStore(), Logger: shared.NopLogger()})
			if err := runner.open(); err != nil {
				t.Fatalf("open failed: %v", err)
			}
			store := runner.store
			if err := runner.open(); err != nil || runner.store != store {
				t.Error("expected second open to reuse the journal")
			}
			if err := runner.Close(); err != nil {
				t.Errorf("close without database failed: %v", err)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		if err := runner.writePlain("hello %s", "world"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if output.String() != "hello world" {
			t.Errorf("expected 'hello world', got %q", output.String())
		}

		failing := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
		if err := failing.writePlain("test"); err == nil {
			t.Error("expected error from failing writer")
		}
	})

	t.Run("register", func(t *testing.T) {
		commands := NewRunner(RunnerOpts{}).register()

		want := []string{"setup", "auth", "dream", "speak", "settings", "stats", "clear", "export", "tui"}
		if len(commands) != len(want) {
			t.Fatalf("expected %d commands, got %d", len(want), len(commands))
		}
		for i, name := range want {
			if commands[i].Name != name {
				t.Errorf("command %d: expected %s, got %s", i, name, commands[i].Name)
			}
		}
	})
}

func TestGuestJournal(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun(t, "auth", "guest")
	if !strings.Contains(out, "kept on this device") {
		t.Errorf("unexpected guest output %q", out)
	}
	if out := h.mustRun(t, "auth", "status"); !strings.Contains(out, "Status:  guest") {
		t.Errorf("unexpected status %q", out)
	}

	out = h.mustRun(t, "dream", "new", "--text", "I was underwater", "--tone", "mystical")
	if !strings.Contains(out, `Saved "Deep Water"`) || !strings.Contains(out, "Once upon a tide.") {
		t.Errorf("unexpected new output %q", out)
	}
	if len(h.api.created) != 0 {
		t.Error("guest dreams must not reach the account store")
	}

	dreams := h.runner.store.Dreams()
	if len(dreams) != 1 {
		t.Fatalf("expected one dream, got %d", len(dreams))
	}
	id := dreams[0].ID
	if dreams[0].Tone != models.ToneMystical || dreams[0].InputMode != models.InputText {
		t.Errorf("unexpected saved dream %+v", dreams[0])
	}

	t.Run("Second Dream Without Generation", func(t *testing.T) {
		h.mustRun(t, "dream", "new", "--text", "flying over a city", "--title", "Flight", "--mode", "none", "--favorite")
		if h.runner.store.Len() != 2 {
			t.Fatalf("expected two dreams, got %d", h.runner.store.Len())
		}
	})

	t.Run("List", func(t *testing.T) {
		out := h.mustRun(t, "dream", "list")
		if !strings.Contains(out, "Dreams (2)") || !strings.Contains(out, "Deep Water") {
			t.Errorf("unexpected list %q", out)
		}
		out = h.mustRun(t, "dream", "list", "--favorites")
		if !strings.Contains(out, "Dreams (1)") || !strings.Contains(out, "Flight") {
			t.Errorf("unexpected favorites list %q", out)
		}
		out = h.mustRun(t, "dream", "list", "--search", "UNDERWATER", "--json")
		var listed []models.Dream
		if err := json.Unmarshal([]byte(out), &listed); err != nil || len(listed) != 1 || listed[0].ID != id {
			t.Errorf("unexpected search result %q, %v", out, err)
		}
		if _, err := h.run(t, "dream", "list", "--sort", "newest"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("Show Edit Favorite", func(t *testing.T) {
		if out := h.mustRun(t, "dream", "show", id); !strings.Contains(out, "I was underwater") {
			t.Errorf("unexpected show %q", out)
		}
		h.mustRun(t, "dream", "edit", id, "--title", "Tides", "--story", "")
		d, _ := h.runner.store.Get(id)
		if d.Title != "Tides" || d.Story != "" {
			t.Errorf("edit not applied: %+v", d)
		}
		if _, err := h.run(t, "dream", "edit", id); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if out := h.mustRun(t, "dream", "favorite", id); !strings.Contains(out, "Added") {
			t.Errorf("unexpected favorite output %q", out)
		}
	})

	t.Run("Stats", func(t *testing.T) {
		out := h.mustRun(t, "stats", "--json")
		var stats models.UserStats
		if err := json.Unmarshal([]byte(out), &stats); err != nil {
			t.Fatalf("stats not JSON: %v", err)
		}
		if stats.TotalDreams != 2 || stats.FavoriteDreams != 2 {
			t.Errorf("unexpected stats %+v", stats)
		}
	})

	t.Run("Export", func(t *testing.T) {
		path := filepath.Join(h.dir, "out", "journal.md")
		out := h.mustRun(t, "export", "--format", "md", "--output", path)
		if !strings.Contains(out, "Exported 2 dreams") {
			t.Errorf("unexpected export output %q", out)
		}
		tu.AssertDirExists(t, filepath.Dir(path))
		if content := tu.MustReadFile(t, path); !strings.Contains(content, "## Tides") {
			t.Errorf("export missing edited dream: %s", content)
		}
	})

	t.Run("Speak", func(t *testing.T) {
		path := filepath.Join(h.dir, "dream.mp3")
		h.mustRun(t, "speak", id, "--output", path)
		if got := tu.MustReadFile(t, path); got != "ID3audio" {
			t.Errorf("unexpected audio %q", got)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		h.mustRun(t, "dream", "delete", id)
		if _, err := h.run(t, "dream", "show", id); !errors.Is(err, shared.ErrDreamNotFound) {
			t.Errorf("expected ErrDreamNotFound, got %v", err)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		if _, err := h.run(t, "clear"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected confirmation error, got %v", err)
		}
		h.mustRun(t, "clear", "--yes")
		if out := h.mustRun(t, "dream", "list"); !strings.Contains(out, "No dreams found") {
			t.Errorf("expected empty journal, got %q", out)
		}
	})
}

func TestSettings(t *testing.T) {
	h := newHarness(t)

	h.mustRun(t, "settings", "set", "--tone", "comedy", "--speed", "1.5", "--images=false")
	out := h.mustRun(t, "settings", "show", "--json")

	var prefs models.Preferences
	if err := json.Unmarshal([]byte(out), &prefs); err != nil {
		t.Fatalf("settings not JSON: %v", err)
	}
	if prefs.Tone != models.ToneComedy || prefs.Speed != 1.5 || prefs.GenerateImages {
		t.Errorf("unexpected preferences %+v", prefs)
	}
	if prefs.Length != models.LengthMedium {
		t.Error("unset preferences should keep their values")
	}

	if _, err := h.run(t, "settings", "set", "--speed", "9"); err == nil {
		t.Error("expected out of range speed to fail validation")
	}
	if _, err := h.run(t, "settings", "set"); !errors.Is(err, shared.ErrMissingArgument) {
		t.Errorf("expected ErrMissingArgument, got %v", err)
	}
}

func TestSignedInJournal(t *testing.T) {
	h := newHarness(t)
	token := signedJWT(t, jwt.MapClaims{"user_id": "u1", "email": "dreamer@example.com"})

	if out := h.mustRun(t, "auth", "login", "--token", token); !strings.Contains(out, "Signed in as dreamer@example.com") {
		t.Errorf("unexpected login output %q", out)
	}
	if out := h.mustRun(t, "auth", "status"); !strings.Contains(out, "signed in as dreamer@example.com") {
		t.Errorf("unexpected status %q", out)
	}

	out := h.mustRun(t, "dream", "list")
	if !strings.Contains(out, "Remote") {
		t.Errorf("expected account dreams, got %q", out)
	}

	h.mustRun(t, "dream", "new", "--text", "a remote dream", "--title", "Sent", "--mode", "none")
	if len(h.api.created) != 1 || h.api.created[0]["dreamText"] != "a remote dream" {
		t.Fatalf("expected the dream to be created remotely, got %v", h.api.created)
	}
	if d, ok := h.runner.store.Get("srv-2"); !ok || d.UserID != "u1" {
		t.Errorf("expected server id in the journal, got %+v", d)
	}
	if last := h.api.tokens[len(h.api.tokens)-1]; last != "Bearer "+token {
		t.Errorf("unexpected authorization %q", last)
	}

	h.mustRun(t, "auth", "logout")
	if out := h.mustRun(t, "auth", "status"); !strings.Contains(out, "signed out") {
		t.Errorf("unexpected status after logout %q", out)
	}
}

func TestEnvToken(t *testing.T) {
	h := newHarness(t)
	h.runner.envToken = "env-token"

	if out := h.mustRun(t, "auth", "status"); !strings.Contains(out, shared.EnvToken) {
		t.Errorf("expected env token source, got %q", out)
	}
	h.mustRun(t, "dream", "list")
	if last := h.api.tokens[len(h.api.tokens)-1]; last != "Bearer env-token" {
		t.Errorf("unexpected authorization %q", last)
	}
}

func TestLoginWithoutOAuth(t *testing.T) {
	h := newHarness(t)
	if _, err := h.run(t, "auth", "login"); !errors.Is(err, shared.ErrMissingConfig) {
		t.Errorf("expected ErrMissingConfig, got %v", err)
	}
}

func TestDreamNewRequiresInput(t *testing.T) {
	h := newHarness(t)
	if _, err := h.run(t, "dream", "new"); !errors.Is(err, shared.ErrMissingArgument) {
		t.Errorf("expected ErrMissingArgument, got %v", err)
	}
	if _, err := h.run(t, "dream", "new", "--text", "x", "--mode", "poem"); !errors.Is(err, shared.ErrInvalidFlag) {
		t.Errorf("expected ErrInvalidFlag, got %v", err)
	}
}

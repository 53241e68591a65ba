package server

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dreamsprout/internal/shared"
	"golang.org/x/oauth2"
)

// OAuthResult is the outcome of an authorization code callback.
type OAuthResult struct {
	Token *oauth2.Token
	Err   error
}

// OAuthHandler serves the authorization code callback.
//
// It validates the state parameter, exchanges the code and delivers exactly one [OAuthResult].
type OAuthHandler struct {
	config  *oauth2.Config
	state   string
	logger  *log.Logger
	results chan OAuthResult
	once    sync.Once

	mu  sync.Mutex
	hit bool
}

// NewOAuthHandler creates an [OAuthHandler]. state must be random per login attempt.
func NewOAuthHandler(config *oauth2.Config, state string, logger *log.Logger) *OAuthHandler {
	if logger == nil {
		logger = shared.NopLogger()
	}
	return &OAuthHandler{
		config:  config,
		state:   state,
		logger:  logger,
		results: make(chan OAuthResult, 1),
	}
}

// Routes returns the callback path.
func (h *OAuthHandler) Routes() []string {
	return []string{"GET /callback"}
}

func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.hit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.hit = true
	h.mu.Unlock()

	query := r.URL.Query()
	if query.Get("state") != h.state {
		h.send(OAuthResult{Err: fmt.Errorf("invalid state parameter")})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	code := query.Get("code")
	if code == "" {
		h.send(OAuthResult{Err: fmt.Errorf("authorization failed: %s - %s", query.Get("error"), query.Get("error_description"))})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	token, err := h.config.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("token exchange failed", "error", err)
		h.send(OAuthResult{Err: fmt.Errorf("token exchange failed: %w", err)})
		http.Error(w, "Token exchange failed", http.StatusInternalServerError)
		return
	}

	h.send(OAuthResult{Token: token})

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, signedInPage)
}

func (h *OAuthHandler) send(result OAuthResult) {
	h.once.Do(func() {
		h.results <- result
		close(h.results)
	})
}

// Result receives the single callback outcome. The channel is closed afterwards.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.results
}

const signedInPage = `<!DOCTYPE html>
<html>
<head>
    <title>DreamSprout</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #1e1b2e; }
        .card { text-align: center; background: #2a2540; padding: 2rem; border-radius: 12px; }
        h1 { color: #c4b5fd; margin: 0 0 1rem 0; }
        p { color: #ddd6fe; margin: 0; }
    </style>
</head>
<body>
    <div class="card">
        <h1>Signed in</h1>
        <p>Your dream journal is ready. Return to the terminal.</p>
    </div>
</body>
</html>
`

package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dreamsprout/internal/shared"
	"golang.org/x/oauth2"
)

// Middleware wraps an [http.Handler] with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler is an [http.Handler] that knows the route patterns it serves.
type Handler interface {
	http.Handler
	Routes() []string
}

// Router registers handlers behind a middleware stack.
type Router interface {
	Use(middleware ...Middleware)
	Handle(pattern string, handler http.Handler)
	Handler(handler Handler)
	ServeHTTP(w http.ResponseWriter, r *http.Request)
}

// BasicRouter is a [Router] over [http.ServeMux] method patterns such as "GET /callback".
type BasicRouter struct {
	mux         *http.ServeMux
	middlewares []Middleware
}

// NewBasicRouter creates an empty [BasicRouter].
func NewBasicRouter() *BasicRouter {
	return &BasicRouter{mux: http.NewServeMux()}
}

// Use appends middleware. The first added runs outermost.
func (r *BasicRouter) Use(middleware ...Middleware) {
	r.middlewares = append(r.middlewares, middleware...)
}

// Handle registers handler for pattern behind the middleware stack.
func (r *BasicRouter) Handle(pattern string, handler http.Handler) {
	r.mux.Handle(pattern, r.apply(handler))
}

// Handler registers handler for every pattern it reports.
func (r *BasicRouter) Handler(handler Handler) {
	wrapped := r.apply(handler)
	for _, route := range handler.Routes() {
		r.mux.Handle(route, wrapped)
	}
}

func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *BasicRouter) apply(handler http.Handler) http.Handler {
	wrapped := handler
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		wrapped = r.middlewares[i](wrapped)
	}
	return wrapped
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Logging logs each request with its status and duration at debug level.
func Logging(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Debug("request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(start))
		})
	}
}

// CallbackServer runs a short-lived local server that receives one OAuth callback.
type CallbackServer struct {
	addr    string
	handler *OAuthHandler
	logger  *log.Logger
}

// NewCallbackServer prepares a callback server on the configured host and port.
func NewCallbackServer(config shared.ServerConfig, oauth *oauth2.Config, state string, logger *log.Logger) *CallbackServer {
	if logger == nil {
		logger = shared.NopLogger()
	}
	return &CallbackServer{
		addr:    net.JoinHostPort(config.Host, fmt.Sprint(config.Port)),
		handler: NewOAuthHandler(oauth, state, logger),
		logger:  logger,
	}
}

// Await listens for the callback and returns the exchanged token.
//
// It returns when the callback arrives or ctx is done; the server is shut down either way.
func (c *CallbackServer) Await(ctx context.Context) (*oauth2.Token, error) {
	listener, err := net.Listen("tcp", c.addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", c.addr, err)
	}
	return c.serve(ctx, listener)
}

func (c *CallbackServer) serve(ctx context.Context, listener net.Listener) (*oauth2.Token, error) {
	router := NewBasicRouter()
	router.Use(Logging(c.logger))
	router.Handler(c.handler)

	srv := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}
	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()
	c.logger.Debug("waiting for oauth callback", "addr", listener.Addr().String())

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			c.logger.Warn("callback server shutdown", "error", err)
		}
	}()

	select {
	case result := <-c.handler.Result():
		if result.Err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, result.Err)
		}
		return result.Token, nil
	case err := <-serveErr:
		return nil, fmt.Errorf("callback server failed: %w", err)
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: waiting for sign-in: %v", shared.ErrTimeout, ctx.Err())
	}
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dreamsprout/internal/models"
	"github.com/desertthunder/dreamsprout/internal/repositories"
	"github.com/desertthunder/dreamsprout/internal/shared"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// User is the signed-in account as described by its ID token.
type User struct {
	ID        string
	Email     string
	ExpiresAt time.Time
}

// claims are the ID token fields the client reads. Identity platforms put the account id in
// either "user_id" or "sub".
type claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Session is the device's identity: the stored sign-in token and the guest opt-in.
type Session struct {
	tokens *repositories.SessionRepository
	guest  *repositories.GuestFlag
	oauth  *oauth2.Config
	logger *log.Logger

	mu     sync.Mutex
	source oauth2.TokenSource
	last   string
}

// NewSession creates a [Session] backed by store. OAuth refresh is used when config enables it.
func NewSession(store repositories.KeyValueStore, config shared.AuthConfig, logger *log.Logger) *Session {
	if logger == nil {
		logger = shared.NopLogger()
	}
	return &Session{
		tokens: repositories.NewSessionRepository(store),
		guest:  repositories.NewGuestFlag(store),
		oauth:  OAuthConfig(config),
		logger: logger,
	}
}

// OAuthConfig builds the authorization code client from config, or nil when OAuth is not configured.
func OAuthConfig(config shared.AuthConfig) *oauth2.Config {
	if !config.OAuthEnabled() {
		return nil
	}
	return &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		RedirectURL:  config.RedirectURI,
		Scopes:       config.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  config.AuthURL,
			TokenURL: config.TokenURL,
		},
	}
}

// OAuth returns the authorization code client, or nil when sign-in only accepts a pasted token.
func (s *Session) OAuth() *oauth2.Config {
	return s.oauth
}

// SignIn stores token and leaves guest mode.
func (s *Session) SignIn(ctx context.Context, token *oauth2.Token) error {
	if err := s.tokens.Save(ctx, token); err != nil {
		return err
	}
	if err := s.guest.Disable(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	s.source = nil
	s.last = token.AccessToken
	s.mu.Unlock()

	s.logger.Debug("signed in", "expires", token.Expiry)
	return nil
}

// SignInWithToken signs in with a bearer token obtained outside the client.
//
// A token that parses as a JWT is also kept as the ID token so the account can be described.
func (s *Session) SignInWithToken(ctx context.Context, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("%w: token is empty", shared.ErrInvalidInput)
	}

	token := &oauth2.Token{AccessToken: raw, TokenType: "Bearer"}
	if c, err := parseClaims(raw); err == nil {
		token = token.WithExtra(map[string]any{"id_token": raw})
		if c.ExpiresAt != nil {
			token.Expiry = c.ExpiresAt.Time
		}
	}
	return s.SignIn(ctx, token)
}

// SignOut forgets the token and the guest opt-in.
func (s *Session) SignOut(ctx context.Context) error {
	if err := s.tokens.Clear(ctx); err != nil {
		return err
	}
	if err := s.guest.Disable(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	s.source = nil
	s.last = ""
	s.mu.Unlock()
	return nil
}

// ContinueAsGuest opts the device into local-only storage.
func (s *Session) ContinueAsGuest(ctx context.Context) error {
	return s.guest.Enable(ctx)
}

// Token returns a valid access token for the signed-in user.
//
// With OAuth configured an expired token is refreshed and the new one persisted.
// It returns [shared.ErrNotAuthenticated] when nobody is signed in.
func (s *Session) Token(ctx context.Context) (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.source == nil {
		stored, err := s.tokens.Load(ctx)
		if err != nil {
			return nil, err
		}
		if stored == nil {
			return nil, shared.ErrNotAuthenticated
		}
		s.source = s.tokenSource(ctx, stored)
		s.last = stored.AccessToken
	}

	token, err := s.source.Token()
	if err != nil {
		if errors.Is(err, shared.ErrTokenExpired) {
			return nil, err
		}
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return nil, fmt.Errorf("%w: %v", shared.ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	if token.AccessToken != s.last {
		s.logger.Debug("access token refreshed", "expires", token.Expiry)
		if err := s.tokens.Save(ctx, token); err != nil {
			s.logger.Warn("failed to persist refreshed token", "error", err)
		}
		s.last = token.AccessToken
	}
	return token, nil
}

func (s *Session) tokenSource(ctx context.Context, token *oauth2.Token) oauth2.TokenSource {
	if s.oauth != nil && token.RefreshToken != "" {
		return oauth2.ReuseTokenSource(token, s.oauth.TokenSource(context.WithoutCancel(ctx), token))
	}
	return staticSource{token: token}
}

// staticSource hands out a token that cannot be refreshed, failing once it expires.
type staticSource struct {
	token *oauth2.Token
}

func (s staticSource) Token() (*oauth2.Token, error) {
	if !s.token.Expiry.IsZero() && !s.token.Valid() {
		return nil, shared.ErrTokenExpired
	}
	return s.token, nil
}

// CurrentUser describes the signed-in account, or returns nil when nobody is signed in.
//
// Claims are read without verifying the signature; the backend verifies every request.
func (s *Session) CurrentUser(ctx context.Context) (*User, error) {
	token, err := s.tokens.Load(ctx)
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, nil
	}
	return describe(token), nil
}

func describe(token *oauth2.Token) *User {
	raw, _ := token.Extra("id_token").(string)
	if raw == "" {
		raw = token.AccessToken
	}

	user := &User{ExpiresAt: token.Expiry}
	c, err := parseClaims(raw)
	if err != nil {
		return user
	}

	user.ID = c.UserID
	if user.ID == "" {
		user.ID = c.Subject
	}
	user.Email = c.Email
	if c.ExpiresAt != nil && user.ExpiresAt.IsZero() {
		user.ExpiresAt = c.ExpiresAt.Time
	}
	return user
}

func parseClaims(raw string) (*claims, error) {
	var c claims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Identity resolves who the router should act for. A signed-in user always wins over the guest flag.
func (s *Session) Identity(ctx context.Context) (models.Identity, error) {
	token, err := s.Token(ctx)
	switch {
	case err == nil:
		user := describe(token)
		return models.Identity{
			IsAuthenticated: true,
			Token:           token.AccessToken,
			UserID:          user.ID,
			Email:           user.Email,
		}, nil
	case errors.Is(err, shared.ErrNotAuthenticated):
	case errors.Is(err, shared.ErrTokenExpired):
		s.logger.Warn("stored session expired, sign in again")
	default:
		return models.Identity{}, err
	}

	guest, err := s.guest.Enabled(ctx)
	if err != nil {
		return models.Identity{}, err
	}
	if guest {
		return models.GuestIdentity(), nil
	}
	return models.Identity{}, nil
}

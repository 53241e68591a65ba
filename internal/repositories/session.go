package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

// storedSession is the on-disk form of an [oauth2.Token].
//
// The ID token travels in the token's extras, which [oauth2.Token] does not marshal.
type storedSession struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Expiry       time.Time `json:"expiry,omitzero"`
	IDToken      string    `json:"id_token,omitempty"`
}

// SessionRepository persists the signed-in user's token under [KeySession].
type SessionRepository struct {
	store KeyValueStore
}

// NewSessionRepository creates a new [SessionRepository]
func NewSessionRepository(store KeyValueStore) *SessionRepository {
	return &SessionRepository{store: store}
}

// Load returns the saved token, or nil when nobody is signed in.
func (r *SessionRepository) Load(ctx context.Context) (*oauth2.Token, error) {
	data, ok, err := r.store.Get(ctx, KeySession)
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var s storedSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	if s.AccessToken == "" {
		return nil, nil
	}

	token := &oauth2.Token{
		AccessToken:  s.AccessToken,
		TokenType:    s.TokenType,
		RefreshToken: s.RefreshToken,
		Expiry:       s.Expiry,
	}
	if s.IDToken != "" {
		token = token.WithExtra(map[string]any{"id_token": s.IDToken})
	}
	return token, nil
}

// Save stores token, replacing any previous session.
func (r *SessionRepository) Save(ctx context.Context, token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("cannot save an empty session token")
	}

	s := storedSession{
		AccessToken:  token.AccessToken,
		TokenType:    token.TokenType,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry,
	}
	if idToken, ok := token.Extra("id_token").(string); ok {
		s.IDToken = idToken
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := r.store.Set(ctx, KeySession, data); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

// Clear signs the device out.
func (r *SessionRepository) Clear(ctx context.Context) error {
	if err := r.store.Delete(ctx, KeySession); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

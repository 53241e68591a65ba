package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/dreamsprout/internal/server"
	"github.com/desertthunder/dreamsprout/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// loginTimeout bounds how long the callback server waits for the browser.
const loginTimeout = 5 * time.Minute

// AuthLogin signs in with --token, or runs the OAuth authorization code flow through a local
// callback server.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	if raw := cmd.String("token"); raw != "" {
		if err := r.session.SignInWithToken(ctx, raw); err != nil {
			return err
		}
		return r.printSignedIn(ctx)
	}

	oauth := r.session.OAuth()
	if oauth == nil {
		return fmt.Errorf("%w: set auth.client_id, auth.auth_url and auth.token_url, or pass --token", shared.ErrMissingConfig)
	}

	state, err := shared.GenerateState()
	if err != nil {
		return fmt.Errorf("failed to generate state: %w", err)
	}
	authURL := oauth.AuthCodeURL(state, oauth2.AccessTypeOffline)

	if cmd.Bool("no-browser") {
		r.writePlain("Open this URL to sign in:\n%s\n", authURL)
	} else if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warn("failed to open browser", "error", err)
		r.writePlain("Open this URL to sign in:\n%s\n", authURL)
	}

	ctx, cancel := context.WithTimeout(ctx, loginTimeout)
	defer cancel()

	r.logger.Info("waiting for sign-in callback", "host", r.config.Server.Host, "port", r.config.Server.Port)
	token, err := server.NewCallbackServer(r.config.Server, oauth, state, r.logger).Await(ctx)
	if err != nil {
		return err
	}

	if err := r.session.SignIn(ctx, token); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return r.printSignedIn(ctx)
}

func (r *Runner) printSignedIn(ctx context.Context) error {
	user, err := r.session.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if user != nil && user.Email != "" {
		return r.writePlain("✓ Signed in as %s\n", user.Email)
	}
	return r.writePlain("✓ Signed in\n")
}

// AuthLogout forgets the stored session and the guest opt-in. Local dreams are kept.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}
	if err := r.session.SignOut(ctx); err != nil {
		return err
	}
	r.logger.Info("signed out")
	return r.writePlain("✓ Signed out\n")
}

// AuthGuest opts this device into local-only storage.
func (r *Runner) AuthGuest(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}
	if err := r.session.ContinueAsGuest(ctx); err != nil {
		return err
	}

	id, err := r.store.Identity(ctx)
	if err != nil {
		return err
	}
	if id.Remote() {
		return r.writePlain("Guest mode enabled, but you are still %s. Run 'dreamsprout auth logout' first.\n", id)
	}
	return r.writePlain("✓ Dreams will be kept on this device\n")
}

// AuthStatus prints the identity the journal will use.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	id, err := r.store.Identity(ctx)
	if err != nil {
		return err
	}

	r.writePlainHeader("Session")
	r.writePlain("Status:  %s\n", id)
	if r.envToken != "" {
		r.writePlain("Source:  %s\n", shared.EnvToken)
	}
	if id.Remote() {
		if id.UserID != "" {
			r.writePlain("User ID: %s\n", id.UserID)
		}
		if user, err := r.session.CurrentUser(ctx); err == nil && user != nil && !user.ExpiresAt.IsZero() {
			r.writePlain("Expires: %s\n", user.ExpiresAt.Local().Format(time.RFC1123))
		}
		r.writePlain("Storage: account (%s)\n", r.client.BaseURL())
	} else {
		r.writePlain("Storage: this device (%s)\n", r.config.Database.Path)
	}
	return nil
}

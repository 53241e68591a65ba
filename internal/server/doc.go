// Package server runs the local HTTP endpoint used to sign in with an OAuth2 authorization code flow.
//
// # Router
//
// [BasicRouter] wraps [http.ServeMux] method patterns with a [Middleware] stack. Middleware added
// first runs outermost. [Handler] implementations report their own route patterns.
//
// # OAuth Callback
//
// [OAuthHandler] validates the state parameter, exchanges the authorization code and delivers one
// [OAuthResult]. Later callbacks are rejected.
//
// [CallbackServer] hosts the handler on the configured host and port (localhost:3000 by default)
// for the duration of a single "dreamsprout auth login" and shuts down once the token arrives.
package server

// Package auth tracks who is using the client on this device.
//
// A [Session] persists the sign-in token and the guest opt-in in the local key-value store and
// resolves them into the [models.Identity] that selects local or remote persistence. Tokens are
// either pasted bearer tokens or come from an OAuth2 authorization code flow, in which case they
// are refreshed through an [oauth2.TokenSource].
package auth

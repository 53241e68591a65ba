// Package repositories implements on-device persistence for guest mode and local settings.
//
// State is kept as whole serialized values under namespaced keys of a [KeyValueStore].
// The store is injected, so the same repositories run against SQLite in the CLI and
// against memory in tests.
//
// Key Implementations:
//   - [SQLiteStore] : the kv table in the local SQLite database
//   - [MemoryStore] : a map guarded by a mutex
//   - [LocalDreams] : the guest dream collection; unreadable data loads as empty
//   - [PreferencesRepository] : creation and playback defaults
//   - [GuestFlag] : whether the user opted into guest mode
//   - [SessionRepository] : the signed-in user's OAuth2 token
package repositories

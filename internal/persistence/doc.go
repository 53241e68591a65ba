// Package persistence routes dream operations to the store that owns them.
//
// Signed-in users' dreams live in their remote account; guests' dreams live in the local key-value
// store. The [Router] picks the path from a [models.Identity] on every call and never migrates
// records between the two.
//
// Remote loads fail to an empty collection so the journal stays usable offline. Every other remote
// failure propagates to the caller unchanged.
package persistence

// Package services implements the client for the DreamSprout backend.
//
// # Dream storage
//
// Signed-in users' dreams live on the backend. [Client.ListDreams], [Client.CreateDream],
// [Client.UpdateDream], [Client.ToggleFavorite] and [Client.DeleteDream] require a bearer token
// and translate between the canonical [models.Dream] and the backend's field names.
//
// # Field Mappings
//
// Translation is table driven (see [ToServer] and [ToCanonical]):
//   - originalDream ↔ dreamText
//   - tone ↔ storyTone, length ↔ storyLength
//   - inputMode ↔ hasAudio ("voice" when true)
//
// Every other field keeps its name.
//
// # Generation
//
// Transcription, titles, stories, images, analyses and speech are unauthenticated POSTs,
// except [Client.AnalyzeDream] which forwards a token when one is available.
//
// # Error Handling
//
// Errors are classified as:
//   - transport failures, wrapped with the operation name
//   - [*APIError] for non-2xx responses, matching [shared.ErrAPIRequest]
//   - [shared.ErrServiceUnavailable] when the optional circuit breaker is open
//   - [shared.ErrNotAuthenticated] when a storage call has no token
//
// A declined favorite toggle is not an error: it returns a nil dream. Nothing is retried.
package services

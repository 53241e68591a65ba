// Package models defines the canonical records of the DreamSprout journal.
//
// The package contains:
//   - [Dream] : a journal entry, identical in shape whether it lives on the device or in an account
//   - [Draft] : the user supplied part of a dream before it is saved
//   - [DreamPatch] : a partial update where unset fields are left untouched
//   - [Preferences] : per-device creation and playback defaults
//   - [UserStats] : journal aggregates, computed locally for guests by [ComputeStats]
//   - [Identity] : the active user, which selects the store that owns new dreams
//
// Struct tags are checked with go-playground/validator; failures wrap shared.ErrInvalidInput.
package models

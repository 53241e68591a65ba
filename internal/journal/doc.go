// Package journal is the in-session view of the user's dreams.
//
// A [Store] holds the dreams loaded for the current identity and mirrors every create, update,
// favorite toggle and delete once the persistence router reports success. Search, favorites and
// date ordering are computed on read and never change the held collection.
package journal

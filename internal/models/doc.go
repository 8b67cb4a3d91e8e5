// Package models defines domain entities and persistence interfaces for the singsync karaoke catalog.
//
// Persistent entities:
//   - [Song] : a published backing track with its synced lyric track, audio and cover URLs
//   - [User] : an account mirrored from the hosted auth service
//   - [Recording] : a cover performance over a song, solo or one half of a duet
//
// All persistent entities implement the Model interface providing ID generation, timestamps, validation, and soft delete support.
// The Repository[T] interface defines standard CRUD operations for database access.
package models

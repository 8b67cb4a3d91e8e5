// Package tasks runs the catalog's long-running operations with real-time progress reporting.
//
// # Core Operations
//
//  1. [Publisher.Publish] : publish a song
//     - Validates title, artist, audio and the lyric track
//     - Uploads the audio (fatal on failure) and the optional cover (a failure only drops the artwork)
//     - Inserts the song and invalidates cached catalog listings
//
//  2. [Catalog] : read the catalog
//     - Pages newest first and searches titles and artists ignoring case and accents
//     - Listings are read through a [cache.Cache]
//
//  3. [RecordingPublisher.Publish] : store a cover performance
//     - Solo takes, open duets and duet joins (the joined take must be an open duet of the same song)
//
//  4. [LyricsWatcher] : drop "<song-id>.lrc" into a folder to attach timing to a song
//
//  5. [BulkExport] : write many songs' lyrics to disk with a worker pool and a manifest
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Collaborators
//
// Sync sessions publish through the [PublishFunc] function type; [Publisher.Func] provides one.
package tasks

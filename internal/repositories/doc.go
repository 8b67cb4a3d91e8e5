// Package repositories implements SQLite and libsql persistence for the catalog entities.
//
// Each repository handles CRUD operations with atomic sequence generation for human-readable ordering.
// All repositories support soft deletes via deleted_at timestamps and exclude deleted records from queries by default.
//
// Key Implementations:
//   - [SongRepository] : published songs, newest-first paging and accent-insensitive search
//   - [UserRepository] : user accounts mirrored from the auth service, looked up by email
//   - [RecordingRepository] : cover performances, per-song listings and open duet collabs
//
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories

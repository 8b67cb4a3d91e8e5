package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/singsync/internal/lyrics"
	"github.com/desertthunder/singsync/internal/models"
	"github.com/desertthunder/singsync/internal/shared"
)

const recordingColumns = `id, sequence, song_id, user_id, parent_id, audio_url, effect, mode, collab_part, open_collab, duration_ms, created_at, updated_at, deleted_at`

// RecordingRepository implements [models.Repository] for [models.Recording] persistence.
type RecordingRepository struct {
	db *sql.DB
}

// NewRecordingRepository creates a new [RecordingRepository] with the given database connection
func NewRecordingRepository(db *sql.DB) *RecordingRepository {
	return &RecordingRepository{db: db}
}

// Create inserts a recording with a generated ID and sequence.
func (r *RecordingRepository) Create(rec *models.Recording) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "recordings")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO recordings (
			id, sequence, song_id, user_id, parent_id, audio_url, effect, mode,
			collab_part, open_collab, duration_ms, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		rec.SongID(),
		nullable(rec.UserID()),
		nullable(rec.ParentID()),
		rec.AudioURL(),
		string(rec.Effect()),
		string(rec.Mode()),
		string(rec.Part()),
		rec.OpenCollab(),
		rec.DurationMs(),
		rec.CreatedAt(),
		rec.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert recording: %w", err)
	}

	rec.SetID(id)
	rec.SetSequence(sequence)
	return nil
}

// Get retrieves a recording by ID, excluding soft-deleted recordings
func (r *RecordingRepository) Get(id string) (*models.Recording, error) {
	query := `SELECT ` + recordingColumns + ` FROM recordings WHERE id = ? AND deleted_at IS NULL`

	rec, err := scanRecording(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrRecordingNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query recording: %w", err)
	}
	return rec, nil
}

// Update persists the post-take edits: effect, open-collab flag and duration.
func (r *RecordingRepository) Update(rec *models.Recording) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	rec.SetUpdatedAt(now)

	query := `
		UPDATE recordings
		SET effect = ?, open_collab = ?, duration_ms = ?, audio_url = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, string(rec.Effect()), rec.OpenCollab(), rec.DurationMs(), rec.AudioURL(), now, rec.ID())
	if err != nil {
		return fmt.Errorf("failed to update recording: %w", err)
	}

	return checkAffected(result, shared.ErrRecordingNotFound, rec.ID())
}

// Delete soft-deletes a recording by ID
func (r *RecordingRepository) Delete(id string) error {
	result, err := r.db.Exec(`UPDATE recordings SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete recording: %w", err)
	}

	return checkAffected(result, shared.ErrRecordingNotFound, id)
}

// List retrieves recordings filtered by "song_id", "user_id" and "parent_id" criteria.
func (r *RecordingRepository) List(criteria map[string]any) ([]*models.Recording, error) {
	query := `SELECT ` + recordingColumns + ` FROM recordings WHERE deleted_at IS NULL`
	args := []any{}

	for _, col := range []string{"song_id", "user_id", "parent_id"} {
		if v, ok := criteria[col].(string); ok && v != "" {
			query += " AND " + col + " = ?"
			args = append(args, v)
		}
	}
	if open, ok := criteria["open_collab"].(bool); ok {
		query += " AND open_collab = ?"
		args = append(args, open)
	}

	query += " ORDER BY sequence ASC"
	return r.query(query, args...)
}

// ListBySong returns every recording of songID, oldest first.
func (r *RecordingRepository) ListBySong(songID string) ([]*models.Recording, error) {
	return r.List(map[string]any{"song_id": songID})
}

// ListOpenCollabs returns duets waiting for a partner. An empty songID lists them across the catalog.
func (r *RecordingRepository) ListOpenCollabs(songID string) ([]*models.Recording, error) {
	return r.List(map[string]any{"song_id": songID, "open_collab": true})
}

func (r *RecordingRepository) query(query string, args ...any) ([]*models.Recording, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recordings: %w", err)
	}
	defer rows.Close()

	recs := []*models.Recording{}
	for rows.Next() {
		rec, err := scanRecording(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recording: %w", err)
		}
		recs = append(recs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return recs, nil
}

func scanRecording(row scanner) (*models.Recording, error) {
	var (
		id         string
		sequence   int
		songID     string
		userID     sql.NullString
		parentID   sql.NullString
		audioURL   string
		effect     string
		mode       string
		part       string
		openCollab bool
		durationMs int64
		createdAt  time.Time
		updatedAt  time.Time
		deletedAt  sql.NullTime
	)

	err := row.Scan(&id, &sequence, &songID, &userID, &parentID, &audioURL, &effect, &mode, &part, &openCollab, &durationMs, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	rec := models.NewRecording(sequence, songID, audioURL)
	rec.SetID(id)
	rec.SetUserID(userID.String)
	rec.SetEffect(models.Effect(effect))
	rec.SetDurationMs(durationMs)
	if models.Mode(mode) == models.ModeDuet {
		rec.SetDuet(lyrics.Speaker(part), parentID.String)
		rec.SetOpenCollab(openCollab)
	}
	rec.SetCreatedAt(createdAt)
	rec.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		rec.SetDeletedAt(&deletedAt.Time)
	}
	return rec, nil
}

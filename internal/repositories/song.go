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

const songColumns = `id, sequence, title, artist, lyrics, audio_url, cover_url, created_at, updated_at, deleted_at`

// DefaultPageSize is used when a caller asks for a page size outside 1..100.
const DefaultPageSize = 20

// SongRepository implements [models.Repository] for [models.Song] persistence.
//
// Lyrics are stored as the JSON array of {time, text, singer} records; search_key holds the
// accent- and case-folded title and artist used by [SongRepository.Search].
type SongRepository struct {
	db *sql.DB
}

// NewSongRepository creates a new [SongRepository] with the given database connection
func NewSongRepository(db *sql.DB) *SongRepository {
	return &SongRepository{db: db}
}

// Create validates and inserts a song with a generated ID and sequence.
func (r *SongRepository) Create(song *models.Song) error {
	if err := song.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "songs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	lyricsJSON, err := song.Lyrics().MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to encode lyrics: %w", err)
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO songs (id, sequence, title, artist, search_key, lyrics, audio_url, cover_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		song.Title(),
		song.Artist(),
		shared.SongSearchKey(song.Title(), song.Artist()),
		string(lyricsJSON),
		song.AudioURL(),
		nullable(song.CoverURL()),
		song.CreatedAt(),
		song.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert song: %w", err)
	}

	song.SetID(id)
	song.SetSequence(sequence)
	return nil
}

// Get retrieves a song by ID, excluding soft-deleted songs
func (r *SongRepository) Get(id string) (*models.Song, error) {
	query := `SELECT ` + songColumns + ` FROM songs WHERE id = ? AND deleted_at IS NULL`

	song, err := scanSong(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrSongNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query song: %w", err)
	}
	return song, nil
}

// Update modifies an existing song's metadata, lyrics and URLs.
func (r *SongRepository) Update(song *models.Song) error {
	if err := song.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	lyricsJSON, err := song.Lyrics().MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to encode lyrics: %w", err)
	}

	now := time.Now()
	song.SetUpdatedAt(now)

	query := `
		UPDATE songs
		SET title = ?, artist = ?, search_key = ?, lyrics = ?, audio_url = ?, cover_url = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		song.Title(),
		song.Artist(),
		shared.SongSearchKey(song.Title(), song.Artist()),
		string(lyricsJSON),
		song.AudioURL(),
		nullable(song.CoverURL()),
		now,
		song.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update song: %w", err)
	}

	return checkAffected(result, shared.ErrSongNotFound, song.ID())
}

// UpdateLyrics replaces only the lyric track of a song.
func (r *SongRepository) UpdateLyrics(id string, track lyrics.Track) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	lyricsJSON, err := track.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to encode lyrics: %w", err)
	}

	result, err := r.db.Exec(
		`UPDATE songs SET lyrics = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		string(lyricsJSON), time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update lyrics: %w", err)
	}

	return checkAffected(result, shared.ErrSongNotFound, id)
}

// Delete soft-deletes a song by ID
func (r *SongRepository) Delete(id string) error {
	result, err := r.db.Exec(`UPDATE songs SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete song: %w", err)
	}

	return checkAffected(result, shared.ErrSongNotFound, id)
}

// List retrieves songs matching exact "title" and/or "artist" criteria, in insertion order.
func (r *SongRepository) List(criteria map[string]any) ([]*models.Song, error) {
	query := `SELECT ` + songColumns + ` FROM songs WHERE deleted_at IS NULL`
	args := []any{}

	if title, ok := criteria["title"].(string); ok && title != "" {
		query += " AND title = ?"
		args = append(args, title)
	}
	if artist, ok := criteria["artist"].(string); ok && artist != "" {
		query += " AND artist = ?"
		args = append(args, artist)
	}

	query += " ORDER BY sequence ASC"
	return r.query(query, args...)
}

// Page returns one page of the catalog, newest first.
//
// page is 1-based; limit is clamped by [PageOffset].
func (r *SongRepository) Page(page, limit int) ([]*models.Song, error) {
	limit, offset := PageOffset(page, limit, DefaultPageSize)

	query := `
		SELECT ` + songColumns + `
		FROM songs
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC, sequence DESC
		LIMIT ? OFFSET ?
	`
	return r.query(query, limit, offset)
}

// Search matches query against titles and artists, ignoring case and accents.
//
// An empty or whitespace-only query returns an empty result without touching the database.
func (r *SongRepository) Search(query string, limit int) ([]*models.Song, error) {
	key := shared.NormalizeSearchKey(query)
	if key == "" {
		return []*models.Song{}, nil
	}
	if limit < 1 {
		limit = DefaultPageSize
	}

	q := `
		SELECT ` + songColumns + `
		FROM songs
		WHERE deleted_at IS NULL AND search_key LIKE ? ESCAPE '\'
		ORDER BY created_at DESC, sequence DESC
		LIMIT ?
	`
	return r.query(q, likePattern(key), limit)
}

// Count returns the number of live songs.
func (r *SongRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM songs WHERE deleted_at IS NULL`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count songs: %w", err)
	}
	return n, nil
}

func (r *SongRepository) query(query string, args ...any) ([]*models.Song, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	songs := []*models.Song{}
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan song: %w", err)
		}
		songs = append(songs, song)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return songs, nil
}

func scanSong(row scanner) (*models.Song, error) {
	var (
		id         string
		sequence   int
		title      string
		artist     string
		lyricsJSON string
		audioURL   string
		coverURL   sql.NullString
		createdAt  time.Time
		updatedAt  time.Time
		deletedAt  sql.NullTime
	)

	if err := row.Scan(&id, &sequence, &title, &artist, &lyricsJSON, &audioURL, &coverURL, &createdAt, &updatedAt, &deletedAt); err != nil {
		return nil, err
	}

	track, err := lyrics.Decode([]byte(lyricsJSON))
	if err != nil {
		return nil, fmt.Errorf("song %s has malformed lyrics: %w", id, err)
	}

	song := models.NewSong(sequence, title, artist, track, audioURL)
	song.SetID(id)
	song.SetCoverURL(coverURL.String)
	song.SetCreatedAt(createdAt)
	song.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		song.SetDeletedAt(&deletedAt.Time)
	}
	return song, nil
}

package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/singsync/internal/lyrics"
)

// Song is a published backing track and its synced lyrics.
//
// The lyric track is embedded in the record and has no identity of its own.
type Song struct {
	base
	title    string
	artist   string
	lyrics   lyrics.Track
	audioURL string
	coverURL string
}

// NewSong creates a song with the current time as created/updated timestamps.
func NewSong(sequence int, title, artist string, track lyrics.Track, audioURL string) *Song {
	if track == nil {
		track = lyrics.Track{}
	}
	return &Song{
		base:     newBase(sequence),
		title:    strings.TrimSpace(title),
		artist:   strings.TrimSpace(artist),
		lyrics:   track,
		audioURL: audioURL,
	}
}

func (s *Song) Title() string    { return s.title }
func (s *Song) Artist() string   { return s.artist }
func (s *Song) AudioURL() string { return s.audioURL }

// CoverURL is empty when the song was published without artwork.
func (s *Song) CoverURL() string { return s.coverURL }

// Lyrics returns a copy of the song's lyric track.
func (s *Song) Lyrics() lyrics.Track { return s.lyrics.Clone() }

func (s *Song) SetTitle(title string)   { s.title = strings.TrimSpace(title) }
func (s *Song) SetArtist(artist string) { s.artist = strings.TrimSpace(artist) }
func (s *Song) SetAudioURL(u string)    { s.audioURL = u }
func (s *Song) SetCoverURL(u string)    { s.coverURL = u }

// SetLyrics replaces the lyric track with a copy of track.
func (s *Song) SetLyrics(track lyrics.Track) {
	if track == nil {
		track = lyrics.Track{}
	}
	s.lyrics = track.Clone()
}

// Validate requires a title, artist and audio URL and a well-formed lyric track.
func (s *Song) Validate() error {
	if s.title == "" {
		return fmt.Errorf("title is required")
	}
	if s.artist == "" {
		return fmt.Errorf("artist is required")
	}
	if s.audioURL == "" {
		return fmt.Errorf("audio URL is required")
	}
	if err := s.lyrics.Validate(); err != nil {
		return fmt.Errorf("invalid lyrics: %w", err)
	}
	return nil
}

// SongRecord is the wire shape of a song in API responses and JSON exports.
type SongRecord struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Artist    string       `json:"artist"`
	Lyrics    lyrics.Track `json:"lyrics"`
	AudioURL  string       `json:"audio_url"`
	CoverURL  *string      `json:"cover_url"`
	CreatedAt time.Time    `json:"created_at"`
}

// Record converts the song to its wire shape. A missing cover encodes as null.
func (s *Song) Record() SongRecord {
	rec := SongRecord{
		ID:        s.id,
		Title:     s.title,
		Artist:    s.artist,
		Lyrics:    s.lyrics.Clone(),
		AudioURL:  s.audioURL,
		CreatedAt: s.createdAt,
	}
	if s.coverURL != "" {
		cover := s.coverURL
		rec.CoverURL = &cover
	}
	return rec
}

func (s *Song) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Record())
}

// Song rebuilds a song from its wire shape. The sequence is not part of the record and stays zero.
func (r SongRecord) Song() *Song {
	s := NewSong(0, r.Title, r.Artist, r.Lyrics.Clone(), r.AudioURL)
	s.SetID(r.ID)
	s.SetCreatedAt(r.CreatedAt)
	s.SetUpdatedAt(r.CreatedAt)
	if r.CoverURL != nil {
		s.SetCoverURL(*r.CoverURL)
	}
	return s
}

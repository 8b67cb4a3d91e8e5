package models

import (
	"fmt"
	"slices"

	"github.com/desertthunder/singsync/internal/lyrics"
)

// Mode is how a recording was performed.
type Mode string

const (
	ModeSolo Mode = "Solo"
	ModeDuet Mode = "Duet"
)

// Effect names the vocal effect applied after a take.
type Effect string

const (
	EffectOriginal Effect = "Original"
	EffectStudio   Effect = "Studio"
	EffectPop      Effect = "Pop"
	EffectKTV      Effect = "KTV"
	EffectRock     Effect = "Rock"
)

// Effects lists the selectable vocal effects in display order.
var Effects = []Effect{EffectOriginal, EffectStudio, EffectPop, EffectKTV, EffectRock}

// ParseEffect accepts an effect name; empty input selects [EffectStudio].
func ParseEffect(s string) (Effect, error) {
	if s == "" {
		return EffectStudio, nil
	}
	if e := Effect(s); slices.Contains(Effects, e) {
		return e, nil
	}
	return "", fmt.Errorf("unknown effect %q", s)
}

// Recording is a cover performance over a song's backing track.
//
// A duet starts as an open collab singing one part; a second singer joins by recording the
// other part with ParentID pointing at the first take.
type Recording struct {
	base
	songID     string
	userID     string
	parentID   string
	audioURL   string
	effect     Effect
	mode       Mode
	part       lyrics.Speaker
	openCollab bool
	durationMs int64
}

// NewRecording creates a solo, studio-effect recording of songID.
func NewRecording(sequence int, songID, audioURL string) *Recording {
	return &Recording{
		base:     newBase(sequence),
		songID:   songID,
		audioURL: audioURL,
		effect:   EffectStudio,
		mode:     ModeSolo,
		part:     lyrics.SpeakerBoth,
	}
}

func (r *Recording) SongID() string          { return r.songID }
func (r *Recording) UserID() string          { return r.userID }
func (r *Recording) ParentID() string        { return r.parentID }
func (r *Recording) AudioURL() string        { return r.audioURL }
func (r *Recording) Effect() Effect          { return r.effect }
func (r *Recording) Mode() Mode              { return r.mode }
func (r *Recording) Part() lyrics.Speaker    { return r.part }
func (r *Recording) OpenCollab() bool        { return r.openCollab }
func (r *Recording) DurationMs() int64       { return r.durationMs }
func (r *Recording) SetUserID(id string)     { r.userID = id }
func (r *Recording) SetAudioURL(u string)    { r.audioURL = u }
func (r *Recording) SetEffect(e Effect)      { r.effect = e }
func (r *Recording) SetDurationMs(ms int64)  { r.durationMs = ms }
func (r *Recording) SetOpenCollab(open bool) { r.openCollab = open }

// SetSolo marks the recording as a solo take; solo singers always sing both parts.
func (r *Recording) SetSolo() {
	r.mode = ModeSolo
	r.part = lyrics.SpeakerBoth
	r.parentID = ""
	r.openCollab = false
}

// SetDuet marks the recording as one part of a duet, joining parentID when it is non-empty.
func (r *Recording) SetDuet(part lyrics.Speaker, parentID string) {
	r.mode = ModeDuet
	r.part = part
	r.parentID = parentID
	if parentID != "" {
		r.openCollab = false
	}
}

func (r *Recording) Validate() error {
	if r.songID == "" {
		return fmt.Errorf("song ID is required")
	}
	if r.audioURL == "" {
		return fmt.Errorf("audio URL is required")
	}
	if !slices.Contains(Effects, r.effect) {
		return fmt.Errorf("unknown effect %q", r.effect)
	}
	if r.durationMs < 0 {
		return fmt.Errorf("duration cannot be negative")
	}

	switch r.mode {
	case ModeSolo:
		if r.part != lyrics.SpeakerBoth {
			return fmt.Errorf("solo recordings sing both parts, got %s", r.part)
		}
		if r.parentID != "" || r.openCollab {
			return fmt.Errorf("solo recordings cannot join or open a collab")
		}
	case ModeDuet:
		if r.part != lyrics.SpeakerA && r.part != lyrics.SpeakerB {
			return fmt.Errorf("duet part must be A or B, got %s", r.part)
		}
		if r.parentID != "" && r.openCollab {
			return fmt.Errorf("a joined duet cannot be an open collab")
		}
	default:
		return fmt.Errorf("unknown mode %q", r.mode)
	}
	return nil
}

// RecordingRecord is the wire shape of a recording.
type RecordingRecord struct {
	ID         string         `json:"id"`
	SongID     string         `json:"song_id"`
	UserID     *string        `json:"user_id"`
	ParentID   *string        `json:"parent_id"`
	AudioURL   string         `json:"audio_url"`
	Effect     Effect         `json:"effect"`
	Mode       Mode           `json:"mode"`
	CollabPart lyrics.Speaker `json:"collab_part"`
	OpenCollab bool           `json:"is_open_collab"`
	DurationMs int64          `json:"duration"`
}

func (r *Recording) Record() RecordingRecord {
	return RecordingRecord{
		ID:         r.id,
		SongID:     r.songID,
		UserID:     optional(r.userID),
		ParentID:   optional(r.parentID),
		AudioURL:   r.audioURL,
		Effect:     r.effect,
		Mode:       r.mode,
		CollabPart: r.part,
		OpenCollab: r.openCollab,
		DurationMs: r.durationMs,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

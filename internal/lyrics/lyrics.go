package lyrics

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidState is returned by [Timeline.Mark] once every line has been stamped.
	ErrInvalidState = errors.New("invalid state: no line left to stamp")
	// ErrNegativeTime is returned when a line would be stamped before the start of the track.
	ErrNegativeTime = errors.New("negative time")
	ErrEmptyText    = errors.New("empty lyric text")
	ErrUnknownVoice = errors.New("unknown speaker")
	ErrUnordered    = errors.New("lyric track is not ordered by time")
)

// Speaker identifies which performer a line belongs to in duet mode.
type Speaker string

const (
	SpeakerA    Speaker = "A"
	SpeakerB    Speaker = "B"
	SpeakerBoth Speaker = "Both"
)

// Valid reports whether s is one of the known speakers.
func (s Speaker) Valid() bool {
	switch s {
	case SpeakerA, SpeakerB, SpeakerBoth:
		return true
	}
	return false
}

// ParseSpeaker converts a user supplied value (case-insensitive) into a [Speaker].
func ParseSpeaker(v string) (Speaker, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "a":
		return SpeakerA, nil
	case "b":
		return SpeakerB, nil
	case "both", "ambos", "":
		return SpeakerBoth, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownVoice, v)
}

// Line is a single lyric line scheduled at TimeMs milliseconds from the start of the track.
type Line struct {
	TimeMs  int64   `json:"time"`
	Text    string  `json:"text"`
	Speaker Speaker `json:"singer"`
}

// Validate rejects negative times, blank text and unknown speakers.
func (l Line) Validate() error {
	if l.TimeMs < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeTime, l.TimeMs)
	}
	if strings.TrimSpace(l.Text) == "" {
		return ErrEmptyText
	}
	if !l.Speaker.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownVoice, l.Speaker)
	}
	return nil
}

// Track is an ordered lyric track. Ties in TimeMs are allowed.
type Track []Line

// Validate checks every line and that the track is non-decreasing by time.
func (t Track) Validate() error {
	for i, line := range t {
		if err := line.Validate(); err != nil {
			return fmt.Errorf("line %d: %w", i+1, err)
		}
		if i > 0 && line.TimeMs < t[i-1].TimeMs {
			return fmt.Errorf("%w: line %d at %dms follows %dms", ErrUnordered, i+1, line.TimeMs, t[i-1].TimeMs)
		}
	}
	return nil
}

// Clone returns a copy that shares no backing array with t.
func (t Track) Clone() Track {
	out := make(Track, len(t))
	copy(out, t)
	return out
}

// Duration returns the time of the last line, or 0 for an empty track.
func (t Track) Duration() int64 {
	if len(t) == 0 {
		return 0
	}
	return t[len(t)-1].TimeMs
}

// At returns the index of the line that is showing at position ms, or -1 before the first line.
func (t Track) At(ms int64) int {
	idx := -1
	for i, line := range t {
		if line.TimeMs > ms {
			break
		}
		idx = i
	}
	return idx
}

// MarshalJSON always encodes an empty track as [] so stored songs never carry null lyrics.
func (t Track) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Line(t))
}

// Decode reads a JSON encoded track. Empty input yields an empty track.
func Decode(data []byte) (Track, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return Track{}, nil
	}
	var lines []Line
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil, fmt.Errorf("failed to decode lyrics: %w", err)
	}
	if lines == nil {
		return Track{}, nil
	}
	return Track(lines), nil
}

type prefix struct {
	token   string
	speaker Speaker
}

// prefixes are checked in order; the first match wins.
var prefixes = []prefix{
	{"[A]", SpeakerA},
	{"A:", SpeakerA},
	{"[B]", SpeakerB},
	{"B:", SpeakerB},
	{"[Both]", SpeakerBoth},
	{"Ambos:", SpeakerBoth},
}

// SplitSpeaker strips a leading duet marker (and the whitespace after it) from raw.
//
// Lines without a marker default to [SpeakerBoth]. A marker with nothing after it is not
// treated as a marker, so the line keeps its literal text.
func SplitSpeaker(raw string) (Speaker, string) {
	for _, p := range prefixes {
		if !strings.HasPrefix(raw, p.token) {
			continue
		}
		text := strings.TrimLeft(raw[len(p.token):], " \t")
		if strings.TrimSpace(text) == "" {
			break
		}
		return p.speaker, text
	}
	return SpeakerBoth, raw
}

// Prefix returns the marker written in front of a line attributed to s when a track is
// exported back to plain text.
func Prefix(s Speaker) string {
	switch s {
	case SpeakerA:
		return "A:"
	case SpeakerB:
		return "B:"
	default:
		return "Ambos:"
	}
}

// SplitLines splits text on any line ending and drops blank lines.
func SplitLines(text string) []string {
	var out []string
	for _, line := range splitLineEndings(text) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

func splitLineEndings(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

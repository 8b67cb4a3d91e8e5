package lyrics

import "strings"

// State is the position of a [Timeline] in its sync session.
type State int

const (
	Idle      State = iota // no line stamped yet
	Consuming              // some lines stamped, some left
	Complete               // every line stamped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Consuming:
		return "consuming"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// Timeline is a manual sync session over a list of untimed lyric lines.
//
// Each call to [Timeline.Mark] stamps the line under the cursor with the elapsed playback
// position supplied by the caller and advances the cursor. Taps happen in real time, so the
// resulting track keeps tap order.
//
// A Timeline is not safe for concurrent use; a session belongs to a single performer.
type Timeline struct {
	lines  []string
	cursor int
	track  Track
}

// NewTimeline starts a session over lines. Blank and whitespace-only lines are dropped and
// never become cursor targets; an empty list yields a session that is already [Complete].
func NewTimeline(lines []string) *Timeline {
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		for _, l := range splitLineEndings(line) {
			if strings.TrimSpace(l) == "" {
				continue
			}
			kept = append(kept, l)
		}
	}
	return &Timeline{lines: kept, track: make(Track, 0, len(kept))}
}

// NewTimelineFromText starts a session over raw lyric text, one line per line of text.
func NewTimelineFromText(text string) *Timeline {
	return NewTimeline(SplitLines(text))
}

// State reports where the session is.
func (t *Timeline) State() State {
	switch {
	case t.cursor >= len(t.lines):
		return Complete
	case t.cursor == 0:
		return Idle
	default:
		return Consuming
	}
}

// Mark stamps the current line at elapsedMs and advances the cursor.
//
// It returns [ErrInvalidState] once the session is [Complete] and [ErrNegativeTime] for a
// negative position; in both cases the session is left untouched.
func (t *Timeline) Mark(elapsedMs int64) (Line, error) {
	if t.State() == Complete {
		return Line{}, ErrInvalidState
	}
	if elapsedMs < 0 {
		return Line{}, ErrNegativeTime
	}

	speaker, text := SplitSpeaker(t.lines[t.cursor])
	line := Line{TimeMs: elapsedMs, Text: text, Speaker: speaker}

	t.track = append(t.track, line)
	t.cursor++
	return line, nil
}

// Cursor is the index of the next line to stamp.
func (t *Timeline) Cursor() int { return t.cursor }

// Len is the number of stampable lines in the session.
func (t *Timeline) Len() int { return len(t.lines) }

// Remaining is the number of lines still waiting for a tap.
func (t *Timeline) Remaining() int { return len(t.lines) - t.cursor }

// Current returns the raw text of the line under the cursor.
func (t *Timeline) Current() (string, bool) {
	if t.State() == Complete {
		return "", false
	}
	return t.lines[t.cursor], true
}

// Lines returns the raw (markup included) lines of the session.
func (t *Timeline) Lines() []string {
	out := make([]string, len(t.lines))
	copy(out, t.lines)
	return out
}

// Track returns a copy of the lines stamped so far.
func (t *Timeline) Track() Track {
	return t.track.Clone()
}

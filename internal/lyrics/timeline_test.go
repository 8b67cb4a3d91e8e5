package lyrics

import (
	"errors"
	"testing"
)

func TestTimeline(t *testing.T) {
	t.Run("Prefix Stripping", func(t *testing.T) {
		tt := []struct {
			name        string
			line        string
			wantText    string
			wantSpeaker Speaker
		}{
			{name: "bracket A", line: "[A] Hola mundo", wantText: "Hola mundo", wantSpeaker: SpeakerA},
			{name: "colon A", line: "A: Hola", wantText: "Hola", wantSpeaker: SpeakerA},
			{name: "bracket B", line: "[B]Adiós", wantText: "Adiós", wantSpeaker: SpeakerB},
			{name: "colon B", line: "B:   lejos", wantText: "lejos", wantSpeaker: SpeakerB},
			{name: "bracket Both", line: "[Both] juntos", wantText: "juntos", wantSpeaker: SpeakerBoth},
			{name: "ambos", line: "Ambos: juntos", wantText: "juntos", wantSpeaker: SpeakerBoth},
			{name: "no prefix", line: "Sin prefijo", wantText: "Sin prefijo", wantSpeaker: SpeakerBoth},
			{name: "only leading marker", line: "[A] uno [B] dos", wantText: "uno [B] dos", wantSpeaker: SpeakerA},
			{name: "stacked markers", line: "[A][B] x", wantText: "[B] x", wantSpeaker: SpeakerA},
			{name: "marker not at start", line: " [A] x", wantText: " [A] x", wantSpeaker: SpeakerBoth},
			{name: "lower case is literal", line: "a: hola", wantText: "a: hola", wantSpeaker: SpeakerBoth},
			{name: "bare marker stays literal", line: "[A]", wantText: "[A]", wantSpeaker: SpeakerBoth},
			{name: "word starting with A colon", line: "Amor: eterno", wantText: "Amor: eterno", wantSpeaker: SpeakerBoth},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				tl := NewTimeline([]string{tc.line})
				line, err := tl.Mark(1500)
				if err != nil {
					t.Fatalf("Mark() error = %v", err)
				}
				if line.TimeMs != 1500 {
					t.Errorf("expected time 1500, got %d", line.TimeMs)
				}
				if line.Text != tc.wantText {
					t.Errorf("text = %q, want %q", line.Text, tc.wantText)
				}
				if line.Speaker != tc.wantSpeaker {
					t.Errorf("speaker = %s, want %s", line.Speaker, tc.wantSpeaker)
				}
			})
		}
	})

	t.Run("Completion", func(t *testing.T) {
		tl := NewTimeline([]string{"uno", "dos"})
		if tl.State() != Idle {
			t.Fatalf("expected Idle, got %s", tl.State())
		}

		if _, err := tl.Mark(100); err != nil {
			t.Fatalf("first Mark() error = %v", err)
		}
		if tl.State() != Consuming {
			t.Errorf("expected Consuming, got %s", tl.State())
		}

		if _, err := tl.Mark(200); err != nil {
			t.Fatalf("second Mark() error = %v", err)
		}
		if tl.State() != Complete {
			t.Errorf("expected Complete, got %s", tl.State())
		}

		_, err := tl.Mark(300)
		if !errors.Is(err, ErrInvalidState) {
			t.Errorf("expected ErrInvalidState, got %v", err)
		}
		if len(tl.Track()) != 2 {
			t.Errorf("expected 2 stamped lines, got %d", len(tl.Track()))
		}
		if tl.State() != Complete {
			t.Errorf("expected state to stay Complete, got %s", tl.State())
		}
	})

	t.Run("Empty Input Starts Complete", func(t *testing.T) {
		for _, tl := range []*Timeline{NewTimeline(nil), NewTimeline([]string{}), NewTimelineFromText("")} {
			if tl.State() != Complete {
				t.Errorf("expected Complete, got %s", tl.State())
			}
			if _, err := tl.Mark(0); !errors.Is(err, ErrInvalidState) {
				t.Errorf("expected ErrInvalidState, got %v", err)
			}
		}
	})

	t.Run("Blank Lines Filtered", func(t *testing.T) {
		tl := NewTimelineFromText("uno\n\n   \r\n\tdos\n\t\n")
		if tl.Len() != 2 {
			t.Fatalf("expected 2 lines, got %d: %q", tl.Len(), tl.Lines())
		}

		tl = NewTimeline([]string{"", "  ", "solo"})
		if tl.Len() != 1 {
			t.Errorf("expected 1 line, got %d", tl.Len())
		}
	})

	t.Run("Negative Time Rejected", func(t *testing.T) {
		tl := NewTimeline([]string{"uno"})
		if _, err := tl.Mark(-1); !errors.Is(err, ErrNegativeTime) {
			t.Errorf("expected ErrNegativeTime, got %v", err)
		}
		if tl.State() != Idle || tl.Cursor() != 0 {
			t.Errorf("expected session untouched, got state %s cursor %d", tl.State(), tl.Cursor())
		}
	})

	t.Run("Tap Order Preserved", func(t *testing.T) {
		tl := NewTimelineFromText("A: uno\nB: dos\nAmbos: tres")
		times := []int64{1000, 1000, 2500}
		for _, ms := range times {
			if _, err := tl.Mark(ms); err != nil {
				t.Fatalf("Mark(%d) error = %v", ms, err)
			}
		}

		track := tl.Track()
		if err := track.Validate(); err != nil {
			t.Errorf("expected valid track, got %v", err)
		}
		for i, ms := range times {
			if track[i].TimeMs != ms {
				t.Errorf("line %d time = %d, want %d", i, track[i].TimeMs, ms)
			}
		}
		if track[0].Speaker != SpeakerA || track[1].Speaker != SpeakerB || track[2].Speaker != SpeakerBoth {
			t.Errorf("unexpected speakers: %v", track)
		}
	})

	t.Run("Accessors", func(t *testing.T) {
		tl := NewTimeline([]string{"[A] uno", "dos"})

		current, ok := tl.Current()
		if !ok || current != "[A] uno" {
			t.Errorf("Current() = %q, %v", current, ok)
		}
		if tl.Remaining() != 2 {
			t.Errorf("expected 2 remaining, got %d", tl.Remaining())
		}

		tl.Mark(10)
		tl.Mark(20)

		if _, ok := tl.Current(); ok {
			t.Error("expected no current line once complete")
		}
		if tl.Remaining() != 0 {
			t.Errorf("expected 0 remaining, got %d", tl.Remaining())
		}
	})

	t.Run("Track Is A Copy", func(t *testing.T) {
		tl := NewTimeline([]string{"uno"})
		tl.Mark(10)

		track := tl.Track()
		track[0].Text = "changed"

		if tl.Track()[0].Text != "uno" {
			t.Error("mutating the returned track must not affect the session")
		}
	})
}

func TestStateString(t *testing.T) {
	tt := map[State]string{Idle: "idle", Consuming: "consuming", Complete: "complete", State(9): "unknown"}
	for s, want := range tt {
		if s.String() != want {
			t.Errorf("State(%d).String() = %s, want %s", s, s.String(), want)
		}
	}
}

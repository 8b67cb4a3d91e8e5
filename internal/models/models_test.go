package models

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/desertthunder/singsync/internal/lyrics"
)

func TestSong(t *testing.T) {
	t.Run("Validate", func(t *testing.T) {
		valid := lyrics.Track{{TimeMs: 0, Text: "uno", Speaker: lyrics.SpeakerA}}

		tt := []struct {
			name    string
			song    *Song
			wantErr bool
		}{
			{name: "valid", song: NewSong(0, "Bésame Mucho", "Consuelo", valid, "https://cdn/a.mp3")},
			{name: "nil lyrics allowed", song: NewSong(0, "t", "a", nil, "https://cdn/a.mp3")},
			{name: "missing title", song: NewSong(0, "  ", "a", valid, "u"), wantErr: true},
			{name: "missing artist", song: NewSong(0, "t", "", valid, "u"), wantErr: true},
			{name: "missing audio", song: NewSong(0, "t", "a", valid, ""), wantErr: true},
			{
				name:    "unordered lyrics",
				song:    NewSong(0, "t", "a", lyrics.Track{{TimeMs: 5, Text: "b", Speaker: lyrics.SpeakerBoth}, {TimeMs: 1, Text: "a", Speaker: lyrics.SpeakerBoth}}, "u"),
				wantErr: true,
			},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				err := tc.song.Validate()
				if (err != nil) != tc.wantErr {
					t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
				}
			})
		}
	})

	t.Run("Lyrics Are Copied", func(t *testing.T) {
		track := lyrics.Track{{TimeMs: 0, Text: "uno", Speaker: lyrics.SpeakerBoth}}
		song := NewSong(0, "t", "a", nil, "u")
		song.SetLyrics(track)
		track[0].Text = "changed"

		if song.Lyrics()[0].Text != "uno" {
			t.Error("song lyrics should not alias the caller's track")
		}
	})

	t.Run("JSON", func(t *testing.T) {
		song := NewSong(1, "t", "a", nil, "https://cdn/a.mp3")
		song.SetID("song-1")

		data, err := json.Marshal(song)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}

		for _, want := range []string{`"id":"song-1"`, `"lyrics":[]`, `"cover_url":null`, `"audio_url":"https://cdn/a.mp3"`} {
			if !strings.Contains(string(data), want) {
				t.Errorf("expected %s in %s", want, data)
			}
		}

		song.SetCoverURL("https://cdn/c.jpg")
		data, _ = json.Marshal(song)
		if !strings.Contains(string(data), `"cover_url":"https://cdn/c.jpg"`) {
			t.Errorf("expected cover url in %s", data)
		}
	})

	t.Run("From Record", func(t *testing.T) {
		song := NewSong(3, "t", "a", lyrics.Track{{TimeMs: 10, Text: "x", Speaker: lyrics.SpeakerB}}, "u")
		song.SetID("song-3")

		back := song.Record().Song()
		if back.ID() != "song-3" || back.Title() != "t" || back.CoverURL() != "" {
			t.Errorf("unexpected song %+v", back.Record())
		}
		if len(back.Lyrics()) != 1 || back.Lyrics()[0].Speaker != lyrics.SpeakerB {
			t.Errorf("expected lyrics carried over, got %v", back.Lyrics())
		}

		song.SetCoverURL("c")
		if song.Record().Song().CoverURL() != "c" {
			t.Error("expected cover carried over")
		}
	})
}

func TestUser(t *testing.T) {
	tt := []struct {
		name    string
		user    *User
		wantErr bool
	}{
		{name: "valid", user: NewUser(0, "ana@example.com", "Ana")},
		{name: "missing email", user: NewUser(0, "", "Ana"), wantErr: true},
		{name: "bad email", user: NewUser(0, "not-an-email", "Ana"), wantErr: true},
		{name: "missing name", user: NewUser(0, "ana@example.com", " "), wantErr: true},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.user.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestUserJSON(t *testing.T) {
	data, err := json.Marshal(NewUser(0, "ana@example.com", "Ana"))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != `{"email":"ana@example.com","name":"Ana"}` {
		t.Errorf("unexpected JSON %s", data)
	}
}

func TestRecording(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		rec := NewRecording(0, "song-1", "https://cdn/take.m4a")
		if rec.Mode() != ModeSolo || rec.Effect() != EffectStudio || rec.Part() != lyrics.SpeakerBoth {
			t.Errorf("unexpected defaults: %s %s %s", rec.Mode(), rec.Effect(), rec.Part())
		}
		if err := rec.Validate(); err != nil {
			t.Errorf("expected defaults to validate, got %v", err)
		}
	})

	t.Run("Solo Forces Both", func(t *testing.T) {
		rec := NewRecording(0, "song-1", "u")
		rec.SetDuet(lyrics.SpeakerA, "parent")
		rec.SetSolo()

		if rec.Part() != lyrics.SpeakerBoth || rec.ParentID() != "" {
			t.Errorf("expected solo to reset part and parent, got %s %q", rec.Part(), rec.ParentID())
		}
	})

	t.Run("Validate", func(t *testing.T) {
		tt := []struct {
			name    string
			build   func() *Recording
			wantErr bool
		}{
			{name: "open duet", build: func() *Recording {
				r := NewRecording(0, "s", "u")
				r.SetDuet(lyrics.SpeakerA, "")
				r.SetOpenCollab(true)
				return r
			}},
			{name: "joined duet", build: func() *Recording {
				r := NewRecording(0, "s", "u")
				r.SetDuet(lyrics.SpeakerB, "parent")
				return r
			}},
			{name: "duet singing both", build: func() *Recording {
				r := NewRecording(0, "s", "u")
				r.SetDuet(lyrics.SpeakerBoth, "")
				return r
			}, wantErr: true},
			{name: "solo open collab", build: func() *Recording {
				r := NewRecording(0, "s", "u")
				r.SetOpenCollab(true)
				return r
			}, wantErr: true},
			{name: "missing song", build: func() *Recording { return NewRecording(0, "", "u") }, wantErr: true},
			{name: "unknown effect", build: func() *Recording {
				r := NewRecording(0, "s", "u")
				r.SetEffect("Reverb")
				return r
			}, wantErr: true},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				err := tc.build().Validate()
				if (err != nil) != tc.wantErr {
					t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
				}
			})
		}
	})

	t.Run("ParseEffect", func(t *testing.T) {
		if e, err := ParseEffect(""); err != nil || e != EffectStudio {
			t.Errorf("expected Studio default, got %s %v", e, err)
		}
		if _, err := ParseEffect("Reverb"); err == nil {
			t.Error("expected error for unknown effect")
		}
	})
}

package ui

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/singsync/internal/lyrics"
	"github.com/desertthunder/singsync/internal/models"
	"github.com/desertthunder/singsync/internal/shared"
	"github.com/desertthunder/singsync/internal/storage"
	"github.com/desertthunder/singsync/internal/tasks"
)

type fakePlayer struct {
	pos     time.Duration
	running bool
}

func (p *fakePlayer) Position() time.Duration { return p.pos }
func (p *fakePlayer) Running() bool           { return p.running }
func (p *fakePlayer) Reset()                  { p.pos, p.running = 0, false }
func (p *fakePlayer) Toggle() bool {
	p.running = !p.running
	return p.running
}

// flakySongs fails the first insert, like a locked database would.
type flakySongs struct{ calls int }

func (s *flakySongs) Create(song *models.Song) error {
	s.calls++
	if s.calls == 1 {
		return errors.New("database is locked")
	}
	song.SetID("song-1")
	return nil
}

var (
	keyTap    = tea.KeyMsg{Type: tea.KeyEnter}
	keyToggle = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")}
	keyRetry  = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")}
	keyReset  = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")}
	keyQuit   = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}
)

const duet = "[A] Dime que sí\nB: Dime que no\n\nAmbos: Juntos"

func newSession(t *testing.T, opts SessionOpts) (*Model, *fakePlayer) {
	t.Helper()
	player := &fakePlayer{}
	opts.Player = player
	opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	return NewModel(context.Background(), opts), player
}

// send runs msg through Update and returns the resulting command.
func send(t *testing.T, m *Model, msg tea.Msg) tea.Cmd {
	t.Helper()
	_, cmd := m.Update(msg)
	return cmd
}

func settle(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg := cmd()
	if _, ok := msg.(Msg); !ok {
		t.Fatalf("expected a ui message, got %T", msg)
	}
	m.Update(msg)
}

func TestSyncSession(t *testing.T) {
	t.Run("Refuses Taps While Paused", func(t *testing.T) {
		m, _ := newSession(t, SessionOpts{Lyrics: duet})

		if cmd := send(t, m, keyTap); cmd != nil {
			t.Error("expected no command for a refused tap")
		}
		if m.timeline.Cursor() != 0 {
			t.Errorf("expected cursor to stay at 0, got %d", m.timeline.Cursor())
		}
		if !strings.Contains(strings.ToLower(m.View()), "start the music first") {
			t.Errorf("expected paused notice in view:\n%s", m.View())
		}

		send(t, m, keyToggle)
		if m.notice != "" {
			t.Errorf("expected notice cleared on play, got %q", m.notice)
		}
	})

	t.Run("Stamps Lines At Player Position", func(t *testing.T) {
		m, player := newSession(t, SessionOpts{Lyrics: duet})
		send(t, m, keyToggle)

		player.pos = 1200 * time.Millisecond
		send(t, m, keyTap)
		player.pos = 3400 * time.Millisecond
		send(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")})

		track := m.Track()
		if len(track) != 2 {
			t.Fatalf("expected 2 stamped lines, got %d", len(track))
		}
		want := []lyrics.Line{
			{TimeMs: 1200, Text: "Dime que sí", Speaker: lyrics.SpeakerA},
			{TimeMs: 3400, Text: "Dime que no", Speaker: lyrics.SpeakerB},
		}
		for i, line := range want {
			if track[i] != line {
				t.Errorf("line %d = %+v, want %+v", i, track[i], line)
			}
		}
		if m.view != SyncView {
			t.Errorf("expected to still be syncing, got view %d", m.view)
		}
		if !strings.Contains(m.View(), "Juntos") {
			t.Errorf("expected the next line in view:\n%s", m.View())
		}
	})

	t.Run("Saves Track Without Publisher", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "out", "duet.lrc")
		m, player := newSession(t, SessionOpts{
			Lyrics:  duet,
			Upload:  tasks.SongUpload{Title: "Dime", Artist: "Los Dos"},
			OutPath: out,
		})
		send(t, m, keyToggle)

		var cmd tea.Cmd
		for i := range 3 {
			player.pos = time.Duration(i+1) * time.Second
			cmd = send(t, m, keyTap)
		}
		if m.view != SavingView {
			t.Fatalf("expected saving view after last line, got %d", m.view)
		}
		if player.running {
			t.Error("expected player paused once the sheet is complete")
		}

		settle(t, m, cmd)
		if m.Err() != nil {
			t.Fatalf("unexpected error: %v", m.Err())
		}
		if m.SavedPath() != out || m.view != ResultView {
			t.Errorf("expected result view with path %s, got %q view %d", out, m.SavedPath(), m.view)
		}

		data, err := os.ReadFile(out)
		if err != nil {
			t.Fatalf("expected file written: %v", err)
		}
		for _, want := range []string{"[ti:Dime]", "[ar:Los Dos]", "[00:01.00]Dime que sí", "[00:03.00]Juntos"} {
			if !strings.Contains(string(data), want) {
				t.Errorf("expected %q in:\n%s", want, data)
			}
		}
	})

	t.Run("Publishes Completed Track", func(t *testing.T) {
		var got tasks.SongUpload
		publish := func(_ context.Context, u tasks.SongUpload) (*models.Song, error) {
			got = u
			song := models.NewSong(1, u.Title, u.Artist, u.Lyrics, "https://cdn.test/a.mp3")
			song.SetID("song-9")
			return song, nil
		}

		m, player := newSession(t, SessionOpts{
			Lyrics:  "uno\ndos",
			Upload:  tasks.SongUpload{Title: "Uno", Artist: "A", Audio: tasks.File{Name: "a.mp3"}},
			Publish: publish,
		})
		send(t, m, keyToggle)
		player.pos = 500 * time.Millisecond
		send(t, m, keyTap)
		player.pos = 900 * time.Millisecond
		settle(t, m, send(t, m, keyTap))

		if m.Song() == nil || m.Song().ID() != "song-9" {
			t.Fatalf("expected published song, got %v (err %v)", m.Song(), m.Err())
		}
		if got.Audio.Name != "a.mp3" || len(got.Lyrics) != 2 || got.Lyrics[1].TimeMs != 900 {
			t.Errorf("unexpected upload %+v", got)
		}
		if !strings.Contains(m.View(), "song-9") {
			t.Errorf("expected song ID in result view:\n%s", m.View())
		}
	})

	t.Run("Retry After Publish Failure", func(t *testing.T) {
		calls := 0
		publish := func(_ context.Context, u tasks.SongUpload) (*models.Song, error) {
			calls++
			if calls == 1 {
				return nil, errors.New("backend down")
			}
			return models.NewSong(1, u.Title, u.Artist, u.Lyrics, "u"), nil
		}

		m, _ := newSession(t, SessionOpts{Lyrics: "solo", Upload: tasks.SongUpload{Title: "t", Artist: "a"}, Publish: publish})
		send(t, m, keyToggle)
		settle(t, m, send(t, m, keyTap))

		if m.Err() == nil || !strings.Contains(m.View(), "backend down") {
			t.Fatalf("expected failure in view:\n%s", m.View())
		}

		settle(t, m, send(t, m, keyRetry))
		if m.Err() != nil || m.Song() == nil || calls != 2 {
			t.Errorf("expected retry to publish, got err=%v calls=%d", m.Err(), calls)
		}
	})

	t.Run("Retry Uploads Full Media", func(t *testing.T) {
		dir := t.TempDir()
		audioData := strings.Repeat("ID3", 4096)
		audioPath := filepath.Join(dir, "track.mp3")
		if err := os.WriteFile(audioPath, []byte(audioData), 0o644); err != nil {
			t.Fatalf("failed to write audio: %v", err)
		}
		audio, err := os.Open(audioPath)
		if err != nil {
			t.Fatalf("failed to open audio: %v", err)
		}
		defer audio.Close()

		root := filepath.Join(dir, "assets")
		store, err := storage.NewLocalStore(root, "http://x/assets")
		if err != nil {
			t.Fatalf("failed to create store: %v", err)
		}
		songs := &flakySongs{}
		tick := time.UnixMilli(1700000000000)
		publisher := tasks.NewPublisher(tasks.PublisherOpts{
			Store:  store,
			Songs:  songs,
			Logger: log.NewWithOptions(io.Discard, log.Options{}),
			Now: func() time.Time {
				tick = tick.Add(time.Second)
				return tick
			},
		})

		backup := filepath.Join(dir, "track.lrc")
		m, _ := newSession(t, SessionOpts{
			Lyrics:  "solo",
			Upload:  tasks.SongUpload{Title: "Solo", Artist: "Ana", Audio: tasks.File{Name: "track.mp3", Body: audio}},
			Publish: publisher.Func(),
			OutPath: backup,
		})
		send(t, m, keyToggle)
		settle(t, m, send(t, m, keyTap))

		if m.Err() == nil {
			t.Fatal("expected the first publish to fail")
		}
		if m.SavedPath() != backup || !strings.Contains(m.View(), "Track kept at") {
			t.Errorf("expected track kept at %s, got %q:\n%s", backup, m.SavedPath(), m.View())
		}
		data, err := os.ReadFile(backup)
		if err != nil || !strings.Contains(string(data), "solo") {
			t.Errorf("expected backup LRC with the stamped line, got %q (%v)", data, err)
		}

		settle(t, m, send(t, m, keyRetry))
		if m.Err() != nil || m.Song() == nil {
			t.Fatalf("expected retry to publish, got %v", m.Err())
		}

		var stored []int64
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			stored = append(stored, info.Size())
			return nil
		})
		if err != nil {
			t.Fatalf("failed to walk store: %v", err)
		}
		if len(stored) != 2 {
			t.Fatalf("expected one object per attempt, got %d", len(stored))
		}
		for i, size := range stored {
			if size != int64(len(audioData)) {
				t.Errorf("object %d has %d bytes, want %d", i, size, len(audioData))
			}
		}

		key := strings.TrimPrefix(m.Song().AudioURL(), "http://x/assets/")
		info, err := os.Stat(filepath.Join(root, filepath.FromSlash(key)))
		if err != nil || info.Size() != int64(len(audioData)) {
			t.Errorf("published audio %s is not the full file: %v", key, err)
		}
	})

	t.Run("Retry Refuses A Consumed Stream", func(t *testing.T) {
		calls := 0
		publish := func(_ context.Context, u tasks.SongUpload) (*models.Song, error) {
			calls++
			if _, err := io.Copy(io.Discard, u.Audio.Body); err != nil {
				return nil, err
			}
			return nil, errors.New("database is locked")
		}
		stream := io.MultiReader(strings.NewReader("ID3"))

		m, _ := newSession(t, SessionOpts{
			Lyrics:  "solo",
			Upload:  tasks.SongUpload{Title: "t", Artist: "a", Audio: tasks.File{Name: "pipe.mp3", Body: stream}},
			Publish: publish,
		})
		send(t, m, keyToggle)
		settle(t, m, send(t, m, keyTap))
		settle(t, m, send(t, m, keyRetry))

		if !errors.Is(m.Err(), shared.ErrInvalidInput) || calls != 1 {
			t.Errorf("expected retry refused before publishing, got err=%v calls=%d", m.Err(), calls)
		}
	})

	t.Run("Restart", func(t *testing.T) {
		m, player := newSession(t, SessionOpts{Lyrics: duet})
		send(t, m, keyToggle)
		player.pos = time.Second
		send(t, m, keyTap)

		send(t, m, keyReset)
		if m.timeline.Cursor() != 0 || len(m.Track()) != 0 {
			t.Errorf("expected fresh timeline, cursor %d", m.timeline.Cursor())
		}
		if player.running || player.pos != 0 {
			t.Error("expected player reset")
		}
		if m.timeline.Len() != 3 {
			t.Errorf("expected 3 lines after restart, got %d", m.timeline.Len())
		}
	})

	t.Run("Empty Sheet Finishes Immediately", func(t *testing.T) {
		m, _ := newSession(t, SessionOpts{Lyrics: "\n  \n", OutPath: filepath.Join(t.TempDir(), "empty.json")})

		settle(t, m, m.Init())
		if m.view != ResultView || m.Err() != nil {
			t.Fatalf("expected result view, got %d (err %v)", m.view, m.Err())
		}
		data, _ := os.ReadFile(m.SavedPath())
		if strings.TrimSpace(string(data)) != "[]" {
			t.Errorf("expected empty JSON track, got %s", data)
		}
	})

	t.Run("Quit", func(t *testing.T) {
		m, _ := newSession(t, SessionOpts{Lyrics: duet})
		cmd := send(t, m, keyQuit)
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
	})

	t.Run("Ticks Stop After Sync", func(t *testing.T) {
		m, _ := newSession(t, SessionOpts{Lyrics: duet})
		if cmd := send(t, m, tickMsg(time.Now())); cmd == nil {
			t.Error("expected tick to reschedule while syncing")
		}

		m.view = ResultView
		if cmd := send(t, m, tickMsg(time.Now())); cmd != nil {
			t.Error("expected ticks to stop outside the sync view")
		}
	})
}

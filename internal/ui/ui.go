package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/singsync/internal/formatter"
	"github.com/desertthunder/singsync/internal/lyrics"
	"github.com/desertthunder/singsync/internal/models"
	"github.com/desertthunder/singsync/internal/playback"
	"github.com/desertthunder/singsync/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	SyncView ViewState = iota
	SavingView
	ResultView
)

const (
	tickInterval = 100 * time.Millisecond
	contextLines = 3
	pausedNotice = "Start the music first (press p)"
)

// Player is the backing track the session taps against.
type Player interface {
	playback.PositionSource
	Toggle() bool
	Running() bool
	Reset()
}

// SessionOpts configures a sync session.
type SessionOpts struct {
	Lyrics  string            // raw lyric text, one line per tap, optional speaker markup
	Upload  tasks.SongUpload  // title, artist and audio for publishing; Lyrics is filled in by the session
	Publish tasks.PublishFunc // nil writes the track to OutPath instead
	OutPath string            // .lrc writes LRC, anything else JSON; also keeps the track when publishing fails
	Player  Player            // nil uses a [playback.Stopwatch]
	Logger  *log.Logger
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	view     ViewState
	raw      []string
	timeline *lyrics.Timeline
	player   Player
	upload   tasks.SongUpload
	publish  tasks.PublishFunc
	attempts int
	outPath  string
	logger   *log.Logger
	notice   string
	song     *models.Song
	saved    string
	err      error
	width    int
	help     help.Model
	keys     keyMap
}

// NewModel creates a sync session over the lyric lines in opts.
func NewModel(ctx context.Context, opts SessionOpts) *Model {
	if opts.Player == nil {
		opts.Player = playback.NewStopwatch(nil)
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	timeline := lyrics.NewTimelineFromText(opts.Lyrics)
	return &Model{
		ctx:      ctx,
		view:     SyncView,
		raw:      timeline.Lines(),
		timeline: timeline,
		player:   opts.Player,
		upload:   opts.Upload,
		publish:  opts.Publish,
		outPath:  opts.OutPath,
		logger:   opts.Logger,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Run starts the session in the alternate screen and blocks until the user quits.
func Run(ctx context.Context, m *Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

// Track returns the lines stamped so far.
func (m *Model) Track() lyrics.Track { return m.timeline.Track() }

// Song returns the published song, if any.
func (m *Model) Song() *models.Song { return m.song }

// SavedPath returns where the track was written when no publisher is configured.
func (m *Model) SavedPath() string { return m.saved }

// Err returns the last publish or save error.
func (m *Model) Err() error { return m.err }

// View returns the current view state.
func (m *Model) View() string {
	switch m.view {
	case SyncView:
		return m.renderSync()
	case SavingView:
		return m.renderSaving()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

// Init starts the clock display. An empty lyric sheet is complete immediately.
func (m *Model) Init() tea.Cmd {
	if m.timeline.State() == lyrics.Complete {
		return m.finish()
	}
	return tick()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case SyncView:
			return m.handleSyncKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		default:
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgTick:
		if m.view != SyncView {
			return m, nil
		}
		return m, tick()

	case MsgPublished:
		res := msg.data.(publishResult)
		m.song, m.err = res.song, res.err
		if m.err != nil {
			m.logger.Error("publish failed", "error", m.err)
			m.keepTrack()
		} else {
			m.logger.Info("song published", "id", m.song.ID(), "lines", len(m.song.Lyrics()))
		}
		m.view = ResultView

	case MsgSaved:
		res := msg.data.(saveResult)
		m.saved, m.err = res.path, res.err
		if m.err != nil {
			m.logger.Error("save failed", "path", res.path, "error", m.err)
		} else {
			m.logger.Info("track saved", "path", res.path)
		}
		m.view = ResultView
	}
	return m, nil
}

func (m *Model) handleSyncKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.toggle):
		if m.player.Toggle() {
			m.notice = ""
		}
		return m, nil

	case key.Matches(msg, m.keys.restart):
		m.restart()
		return m, nil

	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.tap):
		return m, m.tap()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.retry):
		if m.err != nil {
			return m, m.finish()
		}
	case key.Matches(msg, m.keys.restart):
		m.restart()
		return m, tick()
	}
	return m, nil
}

// tap stamps the current line at the player position.
func (m *Model) tap() tea.Cmd {
	if !m.player.Running() {
		m.notice = pausedNotice
		return nil
	}

	line, err := m.timeline.Mark(playback.Millis(m.player.Position()))
	if err != nil {
		m.notice = err.Error()
		return nil
	}
	m.notice = ""
	m.logger.Debug("line stamped", "time", line.TimeMs, "speaker", line.Speaker, "remaining", m.timeline.Remaining())

	if m.timeline.State() == lyrics.Complete {
		return m.finish()
	}
	return nil
}

func (m *Model) restart() {
	m.timeline = lyrics.NewTimeline(m.raw)
	m.player.Reset()
	m.view = SyncView
	m.notice = ""
	m.song = nil
	m.saved = ""
	m.err = nil
}

// finish hands the stamped track to the publisher, or writes it out.
func (m *Model) finish() tea.Cmd {
	if m.player.Running() {
		m.player.Toggle()
	}
	m.view = SavingView
	m.err = nil

	track := m.timeline.Track()
	if m.publish != nil {
		upload := m.upload
		upload.Lyrics = track
		rewind := m.attempts > 0
		m.attempts++
		return func() tea.Msg {
			// An earlier attempt may have read the audio and cover to EOF.
			if rewind {
				if err := upload.Rewind(); err != nil {
					return publishedMsg(nil, err)
				}
			}
			song, err := m.publish(m.ctx, upload)
			return publishedMsg(song, err)
		}
	}

	return func() tea.Msg {
		path, err := m.save(track)
		return savedMsg(path, err)
	}
}

// keepTrack writes the stamped track to the output path after a failed publish so the
// session's work survives a quit.
func (m *Model) keepTrack() {
	if m.outPath == "" {
		return
	}
	path, err := m.save(m.timeline.Track())
	if err != nil {
		m.logger.Warn("could not keep track after failed publish", "path", path, "error", err)
		return
	}
	m.saved = path
	m.logger.Info("track kept after failed publish", "path", path)
}

func (m *Model) save(track lyrics.Track) (string, error) {
	path := m.outPath
	if path == "" {
		path = "synced" + formatter.Extension(formatter.FormatJSON)
	}

	var data []byte
	if strings.EqualFold(filepath.Ext(path), ".lrc") {
		data = []byte(lyrics.FormatLRC(track, [2]string{"ti", m.upload.Title}, [2]string{"ar", m.upload.Artist}))
	} else {
		out, err := formatter.LyricsToJSON(track)
		if err != nil {
			return path, err
		}
		data = out
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return path, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return path, fmt.Errorf("failed to write track: %w", err)
	}
	return path, nil
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Model) renderSync() string {
	var b strings.Builder

	heading := "Sync Lyrics"
	if m.upload.Title != "" {
		heading = fmt.Sprintf("Sync: %s", m.upload.Title)
		if m.upload.Artist != "" {
			heading += " - " + m.upload.Artist
		}
	}
	b.WriteString(styles.title.Render(heading))
	b.WriteString("\n")

	state := "▶ playing"
	if !m.player.Running() {
		state = "⏸ paused"
	}
	fmt.Fprintf(&b, "%s  %s  %d/%d stamped\n\n",
		styles.clock.Render(lyrics.FormatClock(playback.Millis(m.player.Position()))),
		state,
		m.timeline.Cursor(),
		m.timeline.Len(),
	)

	stamped := m.timeline.Track()
	for i := max(0, len(stamped)-contextLines); i < len(stamped); i++ {
		line := stamped[i]
		fmt.Fprintf(&b, "%s\n", styles.sung.Render(fmt.Sprintf("%s %s", lyrics.FormatTag(line.TimeMs), line.Text)))
	}

	cursor := m.timeline.Cursor()
	for i := cursor; i < min(len(m.raw), cursor+contextLines+1); i++ {
		speaker, text := lyrics.SplitSpeaker(m.raw[i])
		label := styles.singer(m.raw[i])
		if i == cursor {
			fmt.Fprintf(&b, "%s %s\n", styles.current.Render("› "+text), label)
			continue
		}
		if speaker == lyrics.SpeakerBoth {
			label = ""
		}
		fmt.Fprintf(&b, "    %s %s\n", text, label)
	}

	if m.notice != "" {
		fmt.Fprintf(&b, "\n%s\n", styles.warn.Render(m.notice))
	}

	fmt.Fprintf(&b, "\n%s", m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderSaving() string {
	if m.publish != nil {
		return styles.title.Render("Publishing...") + fmt.Sprintf("\n%d lines stamped", m.timeline.Cursor())
	}
	return styles.title.Render("Saving...")
}

func (m *Model) renderResult() string {
	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}

	if m.err != nil {
		helpKeys = append([]key.Binding{m.keys.retry}, helpKeys...)
		msg := styles.err.Render(fmt.Sprintf("Could not finish: %v", m.err))
		if m.publish != nil && m.saved != "" {
			msg += "\n" + styles.help.Render(fmt.Sprintf("Track kept at %s", m.saved))
		}
		return fmt.Sprintf("%s\n\n%s", msg, m.help.ShortHelpView(helpKeys))
	}

	var info string
	switch {
	case m.song != nil:
		info = fmt.Sprintf("✓ Published %s - %s (ID: %s)", m.song.Artist(), m.song.Title(), m.song.ID())
	default:
		info = fmt.Sprintf("✓ Saved %d lines to %s", m.timeline.Cursor(), m.saved)
	}

	return fmt.Sprintf("%s\n\n%s", styles.ok.Render(info), m.help.ShortHelpView(helpKeys))
}

package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/desertthunder/singsync/internal/cache"
	"github.com/desertthunder/singsync/internal/lyrics"
	"github.com/desertthunder/singsync/internal/shared"
)

// DefaultSettle is how long a lyrics file must stay unchanged before it is imported.
const DefaultSettle = 500 * time.Millisecond

// LyricsUpdater replaces a song's lyric track. Implemented by repositories.SongRepository.
type LyricsUpdater interface {
	UpdateLyrics(id string, track lyrics.Track) error
}

// LyricsWatcher imports "<song-id>.lrc" files dropped into a directory as the timing for that song.
type LyricsWatcher struct {
	dir    string
	songs  LyricsUpdater
	cache  cache.Cache
	logger *log.Logger
	settle time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
	wg      sync.WaitGroup
}

// NewLyricsWatcher creates a watcher for dir. A nil cache disables invalidation.
func NewLyricsWatcher(dir string, songs LyricsUpdater, c cache.Cache, logger *log.Logger) *LyricsWatcher {
	if c == nil {
		c = cache.Nop{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &LyricsWatcher{
		dir:     dir,
		songs:   songs,
		cache:   c,
		logger:  logger,
		settle:  DefaultSettle,
		pending: map[string]*time.Timer{},
	}
}

// SetSettle changes the quiet period before import.
func (w *LyricsWatcher) SetSettle(d time.Duration) { w.settle = d }

// SongID returns the song a lyrics file belongs to, or false if path is not an .lrc file.
func SongID(path string) (string, bool) {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	if !strings.EqualFold(ext, ".lrc") {
		return "", false
	}
	id := strings.TrimSuffix(base, ext)
	return id, id != "" && !strings.HasPrefix(id, ".")
}

// Import parses path and stores its timed lines on the song named by the file.
//
// Files without any timed line are rejected so a stray text file cannot wipe existing timing.
func (w *LyricsWatcher) Import(ctx context.Context, path string) (lyrics.Track, error) {
	id, ok := SongID(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a .lrc file", shared.ErrInvalidInput, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open lyrics: %w", err)
	}
	defer f.Close()

	track, err := lyrics.ReadLRC(f)
	if err != nil {
		return nil, err
	}
	if len(track) == 0 {
		return nil, fmt.Errorf("%w: %s has no timed lines", shared.ErrInvalidInput, filepath.Base(path))
	}

	if err := w.songs.UpdateLyrics(id, track); err != nil {
		return nil, err
	}
	if err := w.cache.Invalidate(ctx, cache.CatalogPrefix); err != nil {
		w.logger.Warn("failed to invalidate catalog cache", "error", err)
	}

	w.logger.Info("imported lyrics", "song", id, "lines", len(track))
	return track, nil
}

// Scan imports every .lrc file already in the directory and returns how many succeeded.
func (w *LyricsWatcher) Scan(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", w.dir, err)
	}

	n := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := SongID(e.Name()); !ok {
			continue
		}
		if _, err := w.Import(ctx, filepath.Join(w.dir, e.Name())); err != nil {
			w.logger.Warn("skipped lyrics file", "file", e.Name(), "error", err)
			continue
		}
		n++
	}
	return n, nil
}

// Run watches the directory until ctx is done. Each created or written .lrc file is imported
// once it has been quiet for the settle period.
func (w *LyricsWatcher) Run(ctx context.Context, progress chan<- ProgressUpdate) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create watch directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.logger.Info("watching for lyrics", "dir", w.dir)

	defer w.drain()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if _, ok := SongID(event.Name); !ok {
				continue
			}
			w.logger.Debug("lyrics file changed", "file", event.Name, "op", event.Op.String())
			w.schedule(ctx, event.Name, progress)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

// schedule (re)starts the settle timer for path.
func (w *LyricsWatcher) schedule(ctx context.Context, path string, progress chan<- ProgressUpdate) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok && t.Stop() {
		w.wg.Done()
	}

	w.wg.Add(1)
	var timer *time.Timer
	timer = time.AfterFunc(w.settle, func() {
		defer w.wg.Done()

		w.mu.Lock()
		if w.pending[path] == timer {
			delete(w.pending, path)
		}
		w.mu.Unlock()

		track, err := w.Import(ctx, path)
		if err != nil {
			w.logger.Warn("failed to import lyrics", "file", path, "error", err)
			return
		}
		id, _ := SongID(path)
		sendProgress(progress, lyricsImportedUpdate(id, len(track)))
	})
	w.pending[path] = timer
}

// drain cancels pending imports and waits for running ones.
func (w *LyricsWatcher) drain() {
	w.mu.Lock()
	for path, t := range w.pending {
		if t.Stop() {
			w.wg.Done()
		}
		delete(w.pending, path)
	}
	w.mu.Unlock()
	w.wg.Wait()
}

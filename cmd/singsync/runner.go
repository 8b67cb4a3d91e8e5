package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/singsync/internal/cache"
	"github.com/desertthunder/singsync/internal/repositories"
	"github.com/desertthunder/singsync/internal/services"
	"github.com/desertthunder/singsync/internal/shared"
	"github.com/desertthunder/singsync/internal/storage"
	"github.com/desertthunder/singsync/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The database, store, cache and auth client are opened on first use so that commands which
// never touch them (lyrics parse, --help) work without any configuration.
type Runner struct {
	config     *shared.Config
	configPath string
	db         *sql.DB
	store      storage.Store
	cache      cache.Cache
	auth       services.Authenticator
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	now        func() time.Time
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	DB         *sql.DB
	Store      storage.Store
	Cache      cache.Cache
	Auth       services.Authenticator
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Now        func() time.Time
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Config.Backend.Timeout()}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		db:         opts.DB,
		store:      opts.Store,
		cache:      opts.Cache,
		auth:       opts.Auth,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		now:        opts.Now,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, songsCommand, lyricsCommand, recordingsCommand, authCommand, serveCommand, watchCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger swaps the runner's logger, e.g. for a file logger while the TUI owns the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// Close releases the database and cache connections opened by the runner.
func (r *Runner) Close() error {
	if closer, ok := r.cache.(io.Closer); ok {
		closer.Close()
	}
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// database opens the configured catalog database and applies pending migrations.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	r.logger.Debug("opening database", "path", r.config.Database.Path)
	db, err := shared.OpenConfigured(r.config.Database)
	if err != nil {
		return nil, err
	}

	r.db = db
	return db, nil
}

func (r *Runner) songRepository() (*repositories.SongRepository, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	return repositories.NewSongRepository(db), nil
}

func (r *Runner) recordingRepository() (*repositories.RecordingRepository, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	return repositories.NewRecordingRepository(db), nil
}

// catalogCache returns the redis cache when [cache] url is set and a no-op cache otherwise.
func (r *Runner) catalogCache() cache.Cache {
	if r.cache != nil {
		return r.cache
	}

	r.cache = cache.Nop{}
	if r.config.Cache.URL == "" {
		return r.cache
	}

	rc, err := cache.NewRedisCache(r.config.Cache.URL, r.config.Cache.TTL())
	if err != nil {
		r.logger.Warn("catalog cache disabled", "error", err)
		return r.cache
	}
	r.cache = rc
	return r.cache
}

// objectStore returns the configured blob store.
func (r *Runner) objectStore() (storage.Store, error) {
	if r.store != nil {
		return r.store, nil
	}

	cfg := r.config.Storage
	switch cfg.Driver {
	case "hosted":
		if r.config.Backend.URL == "" {
			return nil, fmt.Errorf("%w: backend.url is required for hosted storage", shared.ErrMissingConfig)
		}
		key := r.config.Backend.ServiceKey
		if key == "" {
			key = r.config.Backend.AnonKey
		}
		r.store = storage.NewHostedStore(r.config.Backend.URL, cfg.Bucket, key, r.httpClient)
	case "local", "":
		store, err := storage.NewLocalStore(cfg.Root, cfg.PublicURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open local store: %w", err)
		}
		r.store = store
	default:
		return nil, fmt.Errorf("%w: unknown storage driver %q", shared.ErrInvalidConfig, cfg.Driver)
	}
	return r.store, nil
}

// authenticator returns the hosted auth collaborator, mirroring users into the local database.
func (r *Runner) authenticator() (services.Authenticator, error) {
	if r.auth != nil {
		return r.auth, nil
	}
	if r.config.Backend.URL == "" {
		return nil, fmt.Errorf("%w: backend.url is required for auth", shared.ErrMissingConfig)
	}

	db, err := r.database()
	if err != nil {
		return nil, err
	}

	backend := services.NewBackendClient(r.config.Backend.URL, r.config.Backend.AnonKey, r.httpClient)
	r.auth = services.NewHostedAuth(backend, repositories.NewUserRepository(db), r.logger)
	return r.auth, nil
}

func (r *Runner) catalog() (*tasks.Catalog, error) {
	songs, err := r.songRepository()
	if err != nil {
		return nil, err
	}
	return tasks.NewCatalog(songs, r.catalogCache(), r.config.Catalog, r.logger), nil
}

func (r *Runner) publisher() (*tasks.Publisher, error) {
	songs, err := r.songRepository()
	if err != nil {
		return nil, err
	}
	store, err := r.objectStore()
	if err != nil {
		return nil, err
	}

	return tasks.NewPublisher(tasks.PublisherOpts{
		Store:        store,
		Songs:        songs,
		Cache:        r.catalogCache(),
		CacheControl: r.config.Storage.CacheControl,
		Logger:       r.logger,
		Now:          r.now,
	}), nil
}

// progress starts a printer for task updates. Call the returned func once the task returns to
// close the channel and wait for the printer to drain it.
func (r *Runner) progress() (chan tasks.ProgressUpdate, func()) {
	ch := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for update := range ch {
			switch update.Phase {
			case tasks.Validate:
				r.writePlain("🔎 %s\n", update.Message)
			case tasks.UploadAudio, tasks.UploadCover, tasks.UploadTake:
				r.writePlain("⬆️  %s\n", update.Message)
			case tasks.SaveSong, tasks.SaveRecording:
				r.writePlain("💾 %s\n", update.Message)
			case tasks.ImportLyrics:
				r.writePlain("🎤 %s\n", update.Message)
			default:
				r.writePlain("   %s\n", update.Message)
			}
		}
	}()

	return ch, func() {
		close(ch)
		<-done
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

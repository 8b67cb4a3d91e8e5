package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/singsync/internal/cache"
	"github.com/desertthunder/singsync/internal/lyrics"
	"github.com/desertthunder/singsync/internal/models"
	"github.com/desertthunder/singsync/internal/shared"
	"github.com/desertthunder/singsync/internal/storage"
)

// File is an upload body plus the name and content type the client sent with it.
type File struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// Rewind seeks the body back to its start so the file can be uploaded again.
//
// Bodies that cannot seek fail with [shared.ErrInvalidInput]; a nil body is a no-op.
func (f File) Rewind() error {
	if f.Body == nil {
		return nil
	}
	seeker, ok := f.Body.(io.Seeker)
	if !ok {
		return fmt.Errorf("%w: %s cannot be read a second time", shared.ErrInvalidInput, f.Name)
	}
	if _, err := seeker.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind %s: %w", f.Name, err)
	}
	return nil
}

// SongUpload is everything needed to publish a song.
type SongUpload struct {
	Title  string
	Artist string
	Lyrics lyrics.Track
	Audio  File
	Cover  *File // optional
}

// Rewind rewinds the audio and cover bodies before another publish attempt.
func (u SongUpload) Rewind() error {
	if err := u.Audio.Rewind(); err != nil {
		return err
	}
	if u.Cover != nil {
		return u.Cover.Rewind()
	}
	return nil
}

// PublishFunc hands a finished upload to the catalog and returns the persisted song.
//
// Sync sessions depend on this function type rather than on [Publisher] directly.
type PublishFunc func(ctx context.Context, upload SongUpload) (*models.Song, error)

// SongCreator persists new songs. Implemented by repositories.SongRepository.
type SongCreator interface {
	Create(song *models.Song) error
}

// Publisher uploads a song's media and inserts it into the catalog.
type Publisher struct {
	store        storage.Store
	songs        SongCreator
	cache        cache.Cache
	cacheControl string
	logger       *log.Logger
	now          func() time.Time
}

// PublisherOpts contains the collaborators for a [Publisher].
type PublisherOpts struct {
	Store        storage.Store
	Songs        SongCreator
	Cache        cache.Cache // defaults to [cache.Nop]
	CacheControl string
	Logger       *log.Logger
	Now          func() time.Time // defaults to [time.Now]
}

// NewPublisher creates a new Publisher with the provided collaborators.
func NewPublisher(opts PublisherOpts) *Publisher {
	if opts.Cache == nil {
		opts.Cache = cache.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Publisher{
		store:        opts.Store,
		songs:        opts.Songs,
		cache:        opts.Cache,
		cacheControl: opts.CacheControl,
		logger:       opts.Logger,
		now:          opts.Now,
	}
}

// Publish uploads the audio (and cover when present), inserts the song and clears cached
// catalog listings.
//
// A failed audio upload aborts with [shared.ErrStorageUpload]. A failed cover upload is logged
// and the song is published without artwork.
func (p *Publisher) Publish(ctx context.Context, upload SongUpload, progress chan<- ProgressUpdate) (*models.Song, error) {
	if p.store == nil || p.songs == nil {
		return nil, fmt.Errorf("%w: publisher needs a store and a song repository", shared.ErrServiceUnavailable)
	}

	total := 3
	if upload.Cover != nil {
		total = 4
	}
	step := 1

	sendProgress(progress, validateUpdate(step, total, upload.Title))
	if err := validateUpload(upload); err != nil {
		return nil, err
	}

	now := p.now()

	step++
	sendProgress(progress, uploadAudioUpdate(step, total, upload.Audio.Name))
	audioURL, err := storage.Upload(ctx, p.store, now, storage.KindAudio,
		upload.Audio.Name, upload.Audio.ContentType, p.cacheControl, upload.Audio.Body)
	if err != nil {
		return nil, uploadError("audio", err)
	}

	var coverURL string
	if upload.Cover != nil {
		step++
		sendProgress(progress, uploadCoverUpdate(step, total, upload.Cover.Name))
		coverURL, err = storage.Upload(ctx, p.store, now, storage.KindCover,
			upload.Cover.Name, upload.Cover.ContentType, p.cacheControl, upload.Cover.Body)
		if err != nil {
			p.logger.Warn("cover upload failed, publishing without artwork", "title", upload.Title, "error", err)
			sendProgress(progress, coverSkippedUpdate(step, total, err))
			coverURL = ""
		}
	}

	song := models.NewSong(0, upload.Title, upload.Artist, upload.Lyrics, audioURL)
	song.SetCoverURL(coverURL)
	if err := p.songs.Create(song); err != nil {
		return nil, fmt.Errorf("failed to save song: %w", err)
	}

	if err := p.cache.Invalidate(ctx, cache.CatalogPrefix); err != nil {
		p.logger.Warn("failed to invalidate catalog cache", "error", err)
	}

	step++
	sendProgress(progress, songSavedUpdate(step, total, song))
	p.logger.Info("published song", "id", song.ID(), "title", song.Title(), "lines", len(upload.Lyrics))
	return song, nil
}

// Func adapts the publisher to a [PublishFunc] that drops progress updates.
func (p *Publisher) Func() PublishFunc {
	return func(ctx context.Context, upload SongUpload) (*models.Song, error) {
		return p.Publish(ctx, upload, nil)
	}
}

func validateUpload(upload SongUpload) error {
	var missing []string
	if strings.TrimSpace(upload.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(upload.Artist) == "" {
		missing = append(missing, "artist")
	}
	if upload.Audio.Body == nil {
		missing = append(missing, "audio")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", shared.ErrMissingArgument, strings.Join(missing, ", "))
	}
	if err := upload.Lyrics.Validate(); err != nil {
		return fmt.Errorf("%w: lyrics: %w", shared.ErrInvalidInput, err)
	}
	return nil
}

func uploadError(what string, err error) error {
	if errors.Is(err, shared.ErrStorageUpload) {
		return fmt.Errorf("%s upload failed: %w", what, err)
	}
	return fmt.Errorf("%w: %s: %w", shared.ErrStorageUpload, what, err)
}

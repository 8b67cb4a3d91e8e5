package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/singsync/internal/lyrics"
	"github.com/desertthunder/singsync/internal/models"
	"github.com/desertthunder/singsync/internal/shared"
	"github.com/desertthunder/singsync/internal/storage"
)

// RecordingStore persists recordings. Implemented by repositories.RecordingRepository.
type RecordingStore interface {
	Create(rec *models.Recording) error
	Get(id string) (*models.Recording, error)
}

// RecordingUpload is a finished take.
type RecordingUpload struct {
	SongID     string
	UserID     string
	Audio      File
	Effect     models.Effect
	Mode       models.Mode
	Part       lyrics.Speaker // duet part; ignored for solo takes
	ParentID   string         // recording being joined, if any
	OpenCollab bool           // invite a partner to sing the other part
	DurationMs int64
}

// RecordingPublisher uploads takes and stores them against their song.
type RecordingPublisher struct {
	store        storage.Store
	songs        SongReader
	recordings   RecordingStore
	cacheControl string
	logger       *log.Logger
	now          func() time.Time
}

// NewRecordingPublisher creates a RecordingPublisher. now defaults to [time.Now].
func NewRecordingPublisher(store storage.Store, songs SongReader, recordings RecordingStore, cacheControl string, logger *log.Logger, now func() time.Time) *RecordingPublisher {
	if logger == nil {
		logger = log.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &RecordingPublisher{
		store:        store,
		songs:        songs,
		recordings:   recordings,
		cacheControl: cacheControl,
		logger:       logger,
		now:          now,
	}
}

// Publish checks the song (and the joined duet, if any), uploads the take and saves it.
//
// Joining requires the parent to be an open duet of the same song singing the other part.
func (p *RecordingPublisher) Publish(ctx context.Context, upload RecordingUpload, progress chan<- ProgressUpdate) (*models.Recording, error) {
	if upload.SongID == "" {
		return nil, fmt.Errorf("%w: song ID", shared.ErrMissingArgument)
	}
	if upload.Audio.Body == nil {
		return nil, fmt.Errorf("%w: audio", shared.ErrMissingArgument)
	}
	if _, err := p.songs.Get(upload.SongID); err != nil {
		return nil, err
	}

	key := storage.ObjectKey(p.now(), storage.KindTake, upload.Audio.Name)
	rec := models.NewRecording(0, upload.SongID, p.store.PublicURL(key))
	rec.SetUserID(upload.UserID)
	rec.SetDurationMs(upload.DurationMs)
	if upload.Effect != "" {
		rec.SetEffect(upload.Effect)
	}

	if upload.Mode == models.ModeDuet {
		rec.SetDuet(upload.Part, upload.ParentID)
		rec.SetOpenCollab(upload.ParentID == "" && upload.OpenCollab)
	} else {
		rec.SetSolo()
	}

	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}
	if rec.ParentID() != "" {
		if err := p.checkParent(rec); err != nil {
			return nil, err
		}
	}

	sendProgress(progress, uploadTakeUpdate(1, 2, upload.Audio.Name))
	obj := storage.Object{
		ContentType:  storage.ContentType(storage.KindTake, upload.Audio.Name, upload.Audio.ContentType),
		CacheControl: p.cacheControl,
	}
	if err := p.store.Put(ctx, key, upload.Audio.Body, obj); err != nil {
		return nil, uploadError("take", err)
	}

	if err := p.recordings.Create(rec); err != nil {
		return nil, fmt.Errorf("failed to save recording: %w", err)
	}

	sendProgress(progress, recordingSavedUpdate(2, 2, rec))
	p.logger.Info("saved recording", "id", rec.ID(), "song", rec.SongID(), "mode", rec.Mode(), "effect", rec.Effect())
	return rec, nil
}

func (p *RecordingPublisher) checkParent(rec *models.Recording) error {
	parent, err := p.recordings.Get(rec.ParentID())
	if err != nil {
		if errors.Is(err, shared.ErrRecordingNotFound) {
			return fmt.Errorf("%w: duet %s does not exist", shared.ErrInvalidInput, rec.ParentID())
		}
		return err
	}

	switch {
	case parent.SongID() != rec.SongID():
		return fmt.Errorf("%w: duet %s belongs to another song", shared.ErrInvalidInput, parent.ID())
	case parent.Mode() != models.ModeDuet || !parent.OpenCollab():
		return fmt.Errorf("%w: recording %s is not open for collaboration", shared.ErrInvalidInput, parent.ID())
	case parent.Part() == rec.Part():
		return fmt.Errorf("%w: part %s is already sung in %s", shared.ErrInvalidInput, rec.Part(), parent.ID())
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/singsync/internal/lyrics"
	"github.com/desertthunder/singsync/internal/models"
	"github.com/desertthunder/singsync/internal/shared"
	"github.com/desertthunder/singsync/internal/tasks"
)

// RecordingsPublish uploads a finished take of a song as a solo, an open duet or a duet join.
func (r *Runner) RecordingsPublish(ctx context.Context, cmd *cli.Command) error {
	effect, err := models.ParseEffect(cmd.String("effect"))
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidArgument, err)
	}

	upload := tasks.RecordingUpload{
		SongID:     cmd.String("song"),
		UserID:     cmd.String("user"),
		Effect:     effect,
		Mode:       models.ModeSolo,
		ParentID:   cmd.String("join"),
		OpenCollab: cmd.Bool("open"),
		DurationMs: cmd.Duration("duration").Milliseconds(),
	}

	if part := cmd.String("part"); part != "" || upload.ParentID != "" || upload.OpenCollab {
		speaker, err := lyrics.ParseSpeaker(part)
		if err != nil {
			return fmt.Errorf("%w: --part must be A or B: %w", shared.ErrInvalidArgument, err)
		}
		upload.Mode = models.ModeDuet
		upload.Part = speaker
	}

	audio, closeAudio, err := openUpload(cmd.String("audio"))
	if err != nil {
		return err
	}
	defer closeAudio()
	upload.Audio = audio

	songs, err := r.songRepository()
	if err != nil {
		return err
	}
	recordings, err := r.recordingRepository()
	if err != nil {
		return err
	}
	store, err := r.objectStore()
	if err != nil {
		return err
	}

	publisher := tasks.NewRecordingPublisher(store, songs, recordings, r.config.Storage.CacheControl, r.logger, r.now)

	progress, wait := r.progress()
	rec, err := publisher.Publish(ctx, upload, progress)
	wait()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(rec.Record(), true)
	}
	r.writePlainln("✓ Recording %s saved (%s, %s)", rec.ID(), rec.Mode(), rec.Effect())
	if rec.OpenCollab() {
		r.writePlain("  Waiting for someone to sing part %s\n", otherPart(rec.Part()))
	}
	return nil
}

// RecordingsList prints the takes of a song, or open duets when --open is set.
func (r *Runner) RecordingsList(ctx context.Context, cmd *cli.Command) error {
	recordings, err := r.recordingRepository()
	if err != nil {
		return err
	}

	songID := cmd.String("song")
	var recs []*models.Recording
	if cmd.Bool("open") {
		recs, err = recordings.ListOpenCollabs(songID)
	} else {
		if songID == "" {
			return fmt.Errorf("%w: --song is required unless --open is set", shared.ErrMissingArgument)
		}
		recs, err = recordings.ListBySong(songID)
	}
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		records := make([]models.RecordingRecord, len(recs))
		for i, rec := range recs {
			records[i] = rec.Record()
		}
		return r.writeJSON(records, cmd.Bool("pretty"))
	}

	if len(recs) == 0 {
		return r.writePlain("No recordings found.\n")
	}
	for i, rec := range recs {
		r.writePlain("%d. %s  %s/%s  part %s  %s\n", i+1, rec.ID(), rec.Mode(), rec.Effect(), rec.Part(),
			shared.FormatDuration(rec.DurationMs()))
		if rec.ParentID() != "" {
			r.writePlain("   joins %s\n", rec.ParentID())
		}
		r.writePlain("   %s (%s)\n", rec.AudioURL(), rec.CreatedAt().Format(time.DateTime))
	}
	return nil
}

func otherPart(s lyrics.Speaker) lyrics.Speaker {
	if s == lyrics.SpeakerA {
		return lyrics.SpeakerB
	}
	return lyrics.SpeakerA
}

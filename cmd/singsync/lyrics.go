package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/singsync/internal/formatter"
	"github.com/desertthunder/singsync/internal/lyrics"
	"github.com/desertthunder/singsync/internal/shared"
	"github.com/desertthunder/singsync/internal/tasks"
	"github.com/desertthunder/singsync/internal/ui"
)

type parsedLyrics struct {
	Lyrics lyrics.Track      `json:"lyrics"`
	Tags   map[string]string `json:"tags,omitempty"`
}

// LyricsParse converts an LRC file (or stdin with "-") into the JSON lyric track.
func (r *Runner) LyricsParse(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: LRC file path (or - for stdin)", shared.ErrMissingArgument)
	}

	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("failed to read lyrics: %w", err)
	}

	text := string(data)
	parsed := parsedLyrics{Lyrics: lyrics.ParseLRC(text), Tags: lyrics.ParseLRCTags(text)}
	r.logger.Debug("parsed LRC", "lines", len(parsed.Lyrics), "tags", len(parsed.Tags))

	if cmd.Bool("plain") {
		return r.writePlain("%s", formatter.LyricsToDuetText(parsed.Lyrics))
	}
	return r.writeJSON(parsed, cmd.Bool("pretty"))
}

// LyricsSync runs the interactive tap-along session over an untimed lyric sheet.
//
// With --publish the finished track is published together with --audio; otherwise it is written to --output.
func (r *Runner) LyricsSync(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: lyric sheet path", shared.ErrMissingArgument)
	}
	sheet, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read lyrics: %w", err)
	}
	if cmd.Bool("publish") {
		if err := checkPublishArgs(cmd); err != nil {
			return err
		}
	}

	fileLogger, logFile, err := shared.NewFileLogger(r.config.Logging.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer logFile.Close()
	shared.SetLogLevel(fileLogger, shared.ParseLogLevel(r.config.Logging.Level))
	r.SetLogger(fileLogger)

	opts := ui.SessionOpts{
		Lyrics: string(sheet),
		Upload: tasks.SongUpload{
			Title:  cmd.String("title"),
			Artist: cmd.String("artist"),
		},
		OutPath: cmd.String("output"),
		Logger:  shared.WithLogger(fileLogger, "session", filepath.Base(path)),
	}
	if opts.OutPath == "" {
		opts.OutPath = strings.TrimSuffix(path, filepath.Ext(path)) + formatter.Extension(formatter.FormatLRC)
	}

	if cmd.Bool("publish") {
		audio, closeAudio, err := openUpload(cmd.String("audio"))
		if err != nil {
			return err
		}
		defer closeAudio()
		opts.Upload.Audio = audio

		if coverPath := cmd.String("cover"); coverPath != "" {
			cover, closeCover, err := openUpload(coverPath)
			if err != nil {
				return err
			}
			defer closeCover()
			opts.Upload.Cover = &cover
		}

		publisher, err := r.publisher()
		if err != nil {
			return err
		}
		opts.Publish = publisher.Func()
	}

	model := ui.NewModel(ctx, opts)
	if err := ui.Run(ctx, model); err != nil {
		return err
	}

	switch {
	case model.Err() != nil:
		if saved := model.SavedPath(); saved != "" {
			if err := r.writePlain("Track kept at %s\n", saved); err != nil {
				return err
			}
		}
		return model.Err()
	case model.Song() != nil:
		song := model.Song()
		return r.writePlain("✓ Published %s - %s (ID: %s)\n", song.Artist(), song.Title(), song.ID())
	case model.SavedPath() != "":
		return r.writePlain("✓ Saved %d %s to %s\n", len(model.Track()), shared.Plural(len(model.Track()), "line", "lines"), model.SavedPath())
	default:
		return r.writePlain("Session ended with %d %s stamped; nothing saved\n", len(model.Track()), shared.Plural(len(model.Track()), "line", "lines"))
	}
}

// checkPublishArgs fails before the session starts when publishing could never succeed.
func checkPublishArgs(cmd *cli.Command) error {
	var missing []string
	for _, flag := range []string{"title", "artist", "audio"} {
		if strings.TrimSpace(cmd.String(flag)) == "" {
			missing = append(missing, "--"+flag)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s required with --publish", shared.ErrMissingArgument, strings.Join(missing, ", "))
	}

	if _, err := os.Stat(cmd.String("audio")); err != nil {
		return fmt.Errorf("failed to open %s: %w", cmd.String("audio"), err)
	}
	return nil
}

// LyricsExport writes one song's lyrics as LRC, JSON or duet text.
func (r *Runner) LyricsExport(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: song ID", shared.ErrMissingArgument)
	}

	catalog, err := r.catalog()
	if err != nil {
		return err
	}
	song, err := catalog.Song(ctx, id)
	if err != nil {
		return err
	}

	format := cmd.String("format")
	output := cmd.String("output")
	if output == "" {
		var data []byte
		switch format {
		case formatter.FormatLRC:
			data = []byte(formatter.LyricsToLRC(song))
		case formatter.FormatText:
			data = []byte(formatter.LyricsToDuetText(song.Lyrics()))
		case formatter.FormatJSON:
			if data, err = formatter.LyricsToJSON(song.Lyrics()); err != nil {
				return err
			}
			data = append(data, '\n')
		default:
			return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
		}
		_, err := r.output.Write(data)
		return err
	}

	if err := os.MkdirAll(output, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path, err := formatter.WriteSongExport(song, output, format)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Exported %s to %s\n", song.Title(), path)
}

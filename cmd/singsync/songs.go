package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/singsync/internal/cache"
	"github.com/desertthunder/singsync/internal/formatter"
	"github.com/desertthunder/singsync/internal/lyrics"
	"github.com/desertthunder/singsync/internal/models"
	"github.com/desertthunder/singsync/internal/shared"
	"github.com/desertthunder/singsync/internal/tasks"
)

// SongsList prints one page of the catalog, newest first.
func (r *Runner) SongsList(ctx context.Context, cmd *cli.Command) error {
	catalog, err := r.catalog()
	if err != nil {
		return err
	}

	page := cmd.Int("page")
	songs, err := catalog.Songs(ctx, page, cmd.Int("limit"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(songs, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Songs (page %d)", max(page, 1)))
	r.writeSongs(songs)
	return nil
}

// SongsSearch prints songs whose title or artist matches the query, ignoring case and accents.
func (r *Runner) SongsSearch(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	catalog, err := r.catalog()
	if err != nil {
		return err
	}

	songs, err := catalog.Search(ctx, query)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(songs, cmd.Bool("pretty"))
	}

	r.writePlain("Found %d %s for %q:\n\n", len(songs), shared.Plural(len(songs), "song", "songs"), query)
	r.writeSongs(songs)
	return nil
}

// SongsShow prints a single song as JSON, LRC, duet text or Markdown.
func (r *Runner) SongsShow(ctx context.Context, cmd *cli.Command) error {
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

	switch format := cmd.String("format"); format {
	case formatter.FormatJSON:
		return r.writeJSON(song, cmd.Bool("pretty"))
	case formatter.FormatLRC:
		return r.writePlain("%s", formatter.LyricsToLRC(song))
	case formatter.FormatText:
		return r.writePlain("%s", formatter.LyricsToDuetText(song.Lyrics()))
	case formatter.FormatMarkdown, "md":
		return r.writePlain("%s", formatter.SongMarkdown(song))
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// SongsPublish uploads the audio (and optional cover) and inserts the song into the catalog.
func (r *Runner) SongsPublish(ctx context.Context, cmd *cli.Command) error {
	upload := tasks.SongUpload{
		Title:  cmd.String("title"),
		Artist: cmd.String("artist"),
	}

	if path := cmd.String("lyrics"); path != "" {
		track, tags, err := readTrack(path)
		if err != nil {
			return err
		}
		upload.Lyrics = track
		if upload.Title == "" {
			upload.Title = tags["ti"]
		}
		if upload.Artist == "" {
			upload.Artist = tags["ar"]
		}
	}

	audio, closeAudio, err := openUpload(cmd.String("audio"))
	if err != nil {
		return err
	}
	defer closeAudio()
	upload.Audio = audio

	if path := cmd.String("cover"); path != "" {
		cover, closeCover, err := openUpload(path)
		if err != nil {
			return err
		}
		defer closeCover()
		upload.Cover = &cover
	}

	publisher, err := r.publisher()
	if err != nil {
		return err
	}

	r.logger.Info("publishing song", "title", upload.Title, "artist", upload.Artist, "lines", len(upload.Lyrics))

	progress, wait := r.progress()
	song, err := publisher.Publish(ctx, upload, progress)
	wait()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(song, true)
	}

	r.writePlainln("✓ Published %s - %s", song.Artist(), song.Title())
	r.writePlain("  ID: %s\n  Audio: %s\n", song.ID(), song.AudioURL())
	if song.CoverURL() != "" {
		r.writePlain("  Cover: %s\n", song.CoverURL())
	}
	return nil
}

// SongsDelete soft-deletes a song and drops cached catalog pages.
func (r *Runner) SongsDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: song ID", shared.ErrMissingArgument)
	}

	songs, err := r.songRepository()
	if err != nil {
		return err
	}
	if err := songs.Delete(id); err != nil {
		return err
	}
	if err := r.catalogCache().Invalidate(ctx, cache.CatalogPrefix); err != nil {
		r.logger.Warn("failed to invalidate catalog cache", "error", err)
	}

	r.logger.Info("song deleted", "id", id)
	return r.writePlain("✓ Deleted %s\n", id)
}

// SongsExport writes the lyrics of many songs with a worker pool, or a single listing file when --listing is set.
func (r *Runner) SongsExport(ctx context.Context, cmd *cli.Command) error {
	songs, err := r.songRepository()
	if err != nil {
		return err
	}

	ids := cmd.StringSlice("id")
	if len(ids) == 0 || cmd.String("listing") != "" {
		all, err := songs.List(nil)
		if err != nil {
			return err
		}

		if listing := cmd.String("listing"); listing != "" {
			return r.exportListing(all, ids, listing, cmd.String("output"))
		}

		for _, s := range all {
			ids = append(ids, s.ID())
		}
	}

	if len(ids) == 0 {
		return r.writePlain("No songs to export\n")
	}

	opts := tasks.BulkExportOpts{
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
	}

	r.logger.Info("exporting songs", "count", len(ids), "format", opts.Format)

	progress, wait := r.progress()
	result, err := tasks.BulkExport(ctx, progress, songs, ids, opts)
	wait()
	if err != nil {
		return err
	}

	r.writePlainln("Exported %d/%d songs to %s", result.SuccessfulExports, result.TotalSongs, result.OutputDirectory)
	if result.FailedExports > 0 {
		r.writePlain("\nFailed to export %d %s:\n", result.FailedExports, shared.Plural(result.FailedExports, "song", "songs"))
		for _, res := range result.Results {
			if !res.Success {
				r.writePlain("  - %s: %s\n", res.SongID, res.Reason)
			}
		}
	}
	r.writePlain("Manifest: %s\n", result.ManifestPath)
	return nil
}

func (r *Runner) exportListing(all []*models.Song, ids []string, format, output string) error {
	if len(ids) > 0 {
		wanted := map[string]bool{}
		for _, id := range ids {
			wanted[id] = true
		}
		filtered := all[:0]
		for _, s := range all {
			if wanted[s.ID()] {
				filtered = append(filtered, s)
			}
		}
		all = filtered
	}

	if output == "" {
		output = "songs" + listingExtension(format)
	}
	if err := formatter.WriteListing(all, output, format); err != nil {
		return err
	}

	r.logger.Info("listing written", "path", output, "songs", len(all))
	return r.writePlain("✓ Wrote %d %s to %s\n", len(all), shared.Plural(len(all), "song", "songs"), output)
}

func listingExtension(format string) string {
	if format == "csv" {
		return ".csv"
	}
	return formatter.Extension(format)
}

func (r *Runner) writeSongs(songs []*models.Song) {
	if len(songs) == 0 {
		r.writePlain("No songs found.\n")
		return
	}
	for i, s := range songs {
		r.writePlain("%d. %s - %s\n", i+1, s.Artist(), s.Title())
		r.writePlain("   ID: %s\n", s.ID())
		r.writePlain("   Lines: %d (%s)\n", len(s.Lyrics()), shared.FormatDuration(s.Lyrics().Duration()))
		r.writePlain("\n")
	}
}

// readTrack loads a timed track from an .lrc or .json file and returns any LRC header tags.
func readTrack(path string) (lyrics.Track, map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read lyrics: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".lrc":
		text := string(data)
		return lyrics.ParseLRC(text), lyrics.ParseLRCTags(text), nil
	case ".json":
		track, err := lyrics.Decode(data)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s: %w", shared.ErrInvalidInput, path, err)
		}
		return track, nil, nil
	default:
		return nil, nil, fmt.Errorf("%w: %s is not timed; run 'singsync lyrics sync' first", shared.ErrInvalidInput, path)
	}
}

// openUpload opens a local file for upload. The returned func closes it.
func openUpload(path string) (tasks.File, func(), error) {
	if path == "" {
		return tasks.File{}, func() {}, fmt.Errorf("%w: audio file", shared.ErrMissingArgument)
	}

	f, err := os.Open(path)
	if err != nil {
		return tasks.File{}, func() {}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return tasks.File{Name: filepath.Base(path), Body: f}, func() { f.Close() }, nil
}

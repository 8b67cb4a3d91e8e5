// package formatter exports songs and their lyric tracks to files: song listings as CSV,
// Markdown or plain text, and lyrics as LRC, JSON or duet-annotated text.
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/singsync/internal/lyrics"
	"github.com/desertthunder/singsync/internal/models"
	"github.com/desertthunder/singsync/internal/shared"
)

// Export formats understood by [WriteSongExport] and [Extension].
const (
	FormatLRC      = "lrc"
	FormatJSON     = "json"
	FormatText     = "txt"
	FormatMarkdown = "markdown"
)

// ExportToCSV converts songs to CSV format with columns: ID, Title, Artist, Lines, Duration, Audio, Cover
func ExportToCSV(songs []*models.Song) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artist", "Lines", "Duration", "Audio", "Cover"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, song := range songs {
		track := song.Lyrics()
		record := []string{
			song.ID(),
			song.Title(),
			song.Artist(),
			strconv.Itoa(len(track)),
			shared.FormatDuration(track.Duration()),
			song.AudioURL(),
			song.CoverURL(),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders a song listing under heading.
func ExportToMarkdown(songs []*models.Song, heading string) []byte {
	var buf bytes.Buffer

	if heading == "" {
		heading = "Songs"
	}
	fmt.Fprintf(&buf, "# %s\n\n", heading)
	fmt.Fprintf(&buf, "**Songs**: %d\n\n", len(songs))

	for i, song := range songs {
		track := song.Lyrics()
		fmt.Fprintf(&buf, "%d. %s - %s [%d %s, %s]\n", i+1, song.Artist(), song.Title(),
			len(track), shared.Plural(len(track), "line", "lines"), shared.FormatDuration(track.Duration()))
	}

	return buf.Bytes()
}

// ExportToText converts a song listing to plain text format
func ExportToText(songs []*models.Song) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Songs: %d\n\n", len(songs))
	for i, song := range songs {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, song.Artist(), song.Title())
	}

	return buf.Bytes()
}

// LyricsToLRC writes the song's track as LRC with title, artist and length header tags.
func LyricsToLRC(song *models.Song) string {
	track := song.Lyrics()
	return lyrics.FormatLRC(track,
		[2]string{"ti", song.Title()},
		[2]string{"ar", song.Artist()},
		[2]string{"length", shared.FormatDuration(track.Duration())},
	)
}

// LyricsToJSON encodes the track in its wire shape.
func LyricsToJSON(track lyrics.Track) ([]byte, error) {
	return shared.MarshalJSON(track, true)
}

// LyricsToDuetText writes one line per lyric with its speaker marker in front, so the output
// can be fed back into a sync session and tapped again.
func LyricsToDuetText(track lyrics.Track) string {
	var b strings.Builder
	for _, line := range track {
		b.WriteString(lyrics.Prefix(line.Speaker))
		b.WriteByte(' ')
		b.WriteString(line.Text)
		b.WriteByte('\n')
	}
	return b.String()
}

// SongMarkdown renders one song as a Markdown page with its cover and timed lyrics.
func SongMarkdown(song *models.Song) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", song.Title())
	if song.CoverURL() != "" {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", song.CoverURL())
	}
	fmt.Fprintf(&buf, "**Artist**: %s\n", song.Artist())
	fmt.Fprintf(&buf, "**Audio**: %s\n\n", song.AudioURL())

	buf.WriteString("## Lyrics\n\n")
	for _, line := range song.Lyrics() {
		fmt.Fprintf(&buf, "- `%s` %s %s\n", lyrics.FormatClock(line.TimeMs), lyrics.Prefix(line.Speaker), line.Text)
	}

	return buf.Bytes()
}

// Extension returns the file extension for an export format, defaulting to JSON.
func Extension(format string) string {
	switch format {
	case FormatLRC:
		return ".lrc"
	case FormatText:
		return ".txt"
	case FormatMarkdown:
		return ".md"
	default:
		return ".json"
	}
}

// WriteSongExport writes a single song's lyrics to dir as {song.ID}{ext} in the given format.
//
// JSON exports carry the full song record, not just the track.
func WriteSongExport(song *models.Song, dir, format string) (string, error) {
	var data []byte
	switch format {
	case FormatLRC:
		data = []byte(LyricsToLRC(song))
	case FormatText:
		data = []byte(LyricsToDuetText(song.Lyrics()))
	case FormatMarkdown:
		data = SongMarkdown(song)
	default:
		var err error
		data, err = shared.MarshalJSON(song.Record(), true)
		if err != nil {
			return "", fmt.Errorf("JSON marshal failed: %w", err)
		}
	}

	path := filepath.Join(dir, song.ID()+Extension(format))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s export: %w", format, err)
	}
	return path, nil
}

// WriteListing writes a song listing to path in csv, markdown or txt format.
func WriteListing(songs []*models.Song, path, format string) error {
	var data []byte
	switch format {
	case "csv":
		var err error
		if data, err = ExportToCSV(songs); err != nil {
			return fmt.Errorf("failed to generate CSV: %w", err)
		}
	case FormatMarkdown:
		data = ExportToMarkdown(songs, "")
	case FormatText:
		data = ExportToText(songs)
	default:
		return fmt.Errorf("%w: unknown listing format %q", shared.ErrInvalidArgument, format)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write listing: %w", err)
	}
	return nil
}

// WriteManifest writes v as indented JSON to path.
func WriteManifest(v any, path string) error {
	data, err := shared.MarshalJSON(v, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

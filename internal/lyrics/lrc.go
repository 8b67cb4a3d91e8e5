package lyrics

import (
	"fmt"
	"io"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// timeTag matches [m:ss.f] and [m:ss:f] with 1-2 minute digits, 2 second digits and a
// 1-3 digit fraction.
var timeTag = regexp.MustCompile(`\[(\d{1,2}):(\d{2})[.:](\d{1,3})\]`)

// idTag matches LRC header tags such as [ti:Title] or [ar:Artist].
var idTag = regexp.MustCompile(`^\s*\[([A-Za-z]+):([^\]]*)\]\s*$`)

// ParseLRC parses LRC text into a track sorted by time.
//
// Parsing is best effort and never fails: lines without a time tag, and tags with no lyric
// after them, are skipped. Only the first tag on a line is used. Lines sharing a timestamp
// keep their input order and duplicates are not merged.
func ParseLRC(text string) Track {
	track := Track{}
	for _, raw := range splitLineEndings(text) {
		loc := timeTag.FindStringSubmatchIndex(raw)
		if loc == nil {
			continue
		}

		minutes, _ := strconv.Atoi(raw[loc[2]:loc[3]])
		seconds, _ := strconv.Atoi(raw[loc[4]:loc[5]])
		fraction := raw[loc[6]:loc[7]]
		millis, _ := strconv.Atoi(fraction + strings.Repeat("0", 3-len(fraction)))

		body := strings.TrimSpace(raw[:loc[0]] + raw[loc[1]:])
		if body == "" {
			continue
		}

		track = append(track, Line{
			TimeMs:  int64(minutes)*60000 + int64(seconds)*1000 + int64(millis),
			Text:    body,
			Speaker: SpeakerBoth,
		})
	}

	slices.SortStableFunc(track, func(a, b Line) int {
		switch {
		case a.TimeMs < b.TimeMs:
			return -1
		case a.TimeMs > b.TimeMs:
			return 1
		}
		return 0
	})
	return track
}

// ReadLRC drains r and parses it with [ParseLRC]. A nil reader yields an empty track.
func ReadLRC(r io.Reader) (Track, error) {
	if r == nil {
		return Track{}, nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read lrc: %w", err)
	}
	return ParseLRC(string(data)), nil
}

// ParseLRCTags collects ID tags ([ti:], [ar:], [al:], [by:], [length:] ...) keyed by
// lower-cased tag name. Time tags are ignored. When a tag repeats the first value wins.
func ParseLRCTags(text string) map[string]string {
	tags := make(map[string]string)
	for _, raw := range splitLineEndings(text) {
		m := idTag.FindStringSubmatch(raw)
		if m == nil {
			continue
		}
		key := strings.ToLower(m[1])
		if _, seen := tags[key]; seen {
			continue
		}
		tags[key] = strings.TrimSpace(m[2])
	}
	return tags
}

// FormatLRC writes track as LRC text with [mm:ss.xx] tags.
//
// Times are truncated to centiseconds, so a track parsed from LRC round-trips exactly.
// Optional tags are written as a header in the order given.
func FormatLRC(track Track, header ...[2]string) string {
	var b strings.Builder
	for _, h := range header {
		if h[1] == "" {
			continue
		}
		fmt.Fprintf(&b, "[%s:%s]\n", h[0], h[1])
	}
	for _, line := range track {
		fmt.Fprintf(&b, "%s%s\n", FormatTag(line.TimeMs), line.Text)
	}
	return b.String()
}

// FormatTag renders ms as an LRC time tag, e.g. 62500 → [01:02.50].
func FormatTag(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	minutes := ms / 60000
	seconds := (ms % 60000) / 1000
	centis := (ms % 1000) / 10
	return fmt.Sprintf("[%02d:%02d.%02d]", minutes, seconds, centis)
}

// FormatClock renders ms as m:ss.d, the clock shown while tapping.
func FormatClock(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	totalSeconds := ms / 1000
	return fmt.Sprintf("%d:%02d.%d", totalSeconds/60, totalSeconds%60, (ms%1000)/100)
}

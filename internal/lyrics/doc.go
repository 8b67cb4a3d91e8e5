// Package lyrics builds time-indexed, speaker-attributed lyric tracks.
//
// A [Track] is produced in one of two ways:
//
//  1. [Timeline] : a manual sync session. The caller feeds it the playback position each
//     time the performer taps "this line starts now" and the session stamps the next line.
//  2. [ParseLRC] : an LRC file whose [mm:ss.xx] tags already carry the timing.
//
// Both produce the same [Line] shape ({time, text, singer} on the wire), which is embedded
// whole in the song record handed to the catalog.
//
// # Duet markup
//
// Plain lyric text may attribute a line to a performer with a leading marker:
//
//	[A] / A:        → [SpeakerA]
//	[B] / B:        → [SpeakerB]
//	[Both] / Ambos: → [SpeakerBoth]
//
// Only the leading marker is recognized; lines without one default to [SpeakerBoth].
// LRC lines are always [SpeakerBoth] since the format has no speaker attribution.
//
// Nothing in this package performs I/O (except [ReadLRC] draining a reader) or keeps time;
// elapsed positions come from the caller.
package lyrics

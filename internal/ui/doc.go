// Package ui implements the manual lyric sync session using bubbletea's Elm architecture.
//
// A session walks the lyric sheet one line at a time:
//  1. [SyncView] : press p to start the backing track, then space or enter as each line begins
//  2. [SavingView] : the stamped track is published, or written to disk when no publisher is set
//  3. [ResultView] : the outcome, with restart and retry
//
// Taps are stamped at the [Player] position, normally a playback.Stopwatch. Taps while the
// player is paused are refused. The (view) [Model] implements the standard Init/Update/View pattern,
// receiving async results via the Msg union type.
package ui

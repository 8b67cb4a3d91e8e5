package tasks

import (
	"fmt"

	"github.com/desertthunder/singsync/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	Validate Phase = iota
	UploadAudio
	UploadCover
	SaveSong
	UploadTake
	SaveRecording
	ExportSongs
	ImportLyrics
)

func (p Phase) String() string {
	switch p {
	case Validate:
		return "validate"
	case UploadAudio:
		return "upload_audio"
	case UploadCover:
		return "upload_cover"
	case SaveSong:
		return "save_song"
	case UploadTake:
		return "upload_take"
	case SaveRecording:
		return "save_recording"
	case ExportSongs:
		return "export_songs"
	case ImportLyrics:
		return "import_lyrics"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func validateUpdate(step, total int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Validate,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Checking %q...", title),
	}
}

func uploadAudioUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UploadAudio,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Uploading audio (%s)...", name),
	}
}

func uploadCoverUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UploadCover,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Uploading cover (%s)...", name),
	}
}

func coverSkippedUpdate(step, total int, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UploadCover,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Cover upload failed, publishing without artwork: %v", err),
	}
}

func songSavedUpdate(step, total int, song *models.Song) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SaveSong,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Published: %s - %s (ID: %s)", song.Artist(), song.Title(), song.ID()),
		Data:    song,
	}
}

func uploadTakeUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UploadTake,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Uploading take (%s)...", name),
	}
}

func recordingSavedUpdate(step, total int, rec *models.Recording) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SaveRecording,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Recording saved: %s (%s, %s)", rec.ID(), rec.Mode(), rec.Effect()),
		Data:    rec,
	}
}

func exportingSongUpdate(step, total int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportSongs,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Exporting: %s...", step, total, title),
	}
}

func exportCompletedUpdate(step, total int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportSongs,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, title),
	}
}

func exportFailedUpdate(step, total int, title string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportSongs,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, title, err),
	}
}

func lyricsImportedUpdate(songID string, lines int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ImportLyrics,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Attached %d timed lines to %s", lines, songID),
	}
}

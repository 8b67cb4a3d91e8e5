package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/desertthunder/singsync/internal/formatter"
	"github.com/desertthunder/singsync/internal/models"
	"github.com/desertthunder/singsync/internal/shared"
)

// BulkExportOpts contains configuration for bulk lyric exports.
type BulkExportOpts struct {
	Format     string // Export format: lrc, json, txt, markdown
	OutputDir  string // Base output directory (default: lyrics_export_{epoch})
	NumWorkers int    // Concurrent workers (default: 4, max 10)
}

// SongExportResult is the outcome of exporting one song.
type SongExportResult struct {
	SongID  string `json:"song_id"`
	Title   string `json:"title"`
	File    string `json:"file,omitempty"`
	Success bool   `json:"success"`
	Error   error  `json:"-"`
	Reason  string `json:"error,omitempty"`
}

// BulkExportResult summarises a bulk export and is written out as its manifest.
type BulkExportResult struct {
	Format            string             `json:"format"`
	TotalSongs        int                `json:"total_songs"`
	SuccessfulExports int                `json:"successful_exports"`
	FailedExports     int                `json:"failed_exports"`
	OutputDirectory   string             `json:"output_directory"`
	ManifestPath      string             `json:"-"`
	Results           []SongExportResult `json:"results"`
}

type songExportJob struct {
	song *models.Song
}

// BulkExport writes the lyrics of every song in ids to opts.OutputDir using a worker pool.
//
// Songs that cannot be loaded or written are recorded as failures; the export carries on.
// A manifest (export_manifest.json) summarising the run is written last.
func BulkExport(ctx context.Context, prog chan<- ProgressUpdate, songs SongReader, ids []string, opts BulkExportOpts) (*BulkExportResult, error) {
	if songs == nil {
		return nil, fmt.Errorf("%w: song repository not initialized", shared.ErrServiceUnavailable)
	}

	if opts.Format == "" {
		opts.Format = formatter.FormatLRC
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("lyrics_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		Format:          opts.Format,
		TotalSongs:      len(ids),
		OutputDirectory: opts.OutputDir,
		Results:         make([]SongExportResult, 0, len(ids)),
	}

	jobs := make(chan songExportJob, len(ids))
	results := make(chan SongExportResult, len(ids))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go exportWorker(ctx, &wg, jobs, results, opts)
	}

	// The producer joins the wait group too: it reports load failures on results directly.
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(jobs)
		for i, id := range ids {
			select {
			case <-ctx.Done():
				return
			default:
			}

			song, err := songs.Get(id)
			if err != nil {
				results <- SongExportResult{
					SongID: id,
					Title:  fmt.Sprintf("Unknown (%s)", id),
					Error:  fmt.Errorf("failed to load song: %w", err),
				}
				continue
			}

			sendProgress(prog, exportingSongUpdate(i+1, len(ids), song.Title()))
			jobs <- songExportJob{song: song}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		if res.Error != nil {
			res.Reason = res.Error.Error()
		}
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			sendProgress(prog, exportCompletedUpdate(completed, len(ids), res.Title))
		} else {
			result.FailedExports++
			sendProgress(prog, exportFailedUpdate(completed, len(ids), res.Title, res.Error))
		}
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := formatter.WriteManifest(result, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// exportWorker is a worker goroutine that exports songs from the jobs channel.
func exportWorker(ctx context.Context, wg *sync.WaitGroup, jobs <-chan songExportJob, results chan<- SongExportResult, opts BulkExportOpts) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res := SongExportResult{SongID: job.song.ID(), Title: job.song.Title()}
		path, err := formatter.WriteSongExport(job.song, opts.OutputDir, opts.Format)
		if err != nil {
			res.Error = err
		} else {
			res.File = path
			res.Success = true
		}
		results <- res
	}
}

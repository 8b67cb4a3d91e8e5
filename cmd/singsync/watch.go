package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/singsync/internal/tasks"
)

// Watch imports <song-id>.lrc files dropped into the watch directory, starting with the ones already there.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	dir := cmd.String("dir")
	if dir == "" {
		dir = r.config.Catalog.WatchDir
	}

	songs, err := r.songRepository()
	if err != nil {
		return err
	}

	watcher := tasks.NewLyricsWatcher(dir, songs, r.catalogCache(), r.logger)
	if cmd.IsSet("settle") {
		watcher.SetSettle(cmd.Duration("settle"))
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create watch directory: %w", err)
	}

	n, err := watcher.Scan(ctx)
	if err != nil {
		return fmt.Errorf("initial scan failed: %w", err)
	}
	r.writePlain("Imported %d existing lyric files from %s\n", n, dir)
	if cmd.Bool("once") {
		return nil
	}

	r.writePlain("Watching %s for <song-id>.lrc files (Ctrl+C to stop)\n", dir)
	progress, wait := r.progress()
	err = watcher.Run(ctx, progress)
	wait()
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// submodule cmd contains command definitions
package main

import (
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/singsync/internal/formatter"
	"github.com/desertthunder/singsync/internal/models"
)

func jsonFlag() cli.Flag   { return &cli.BoolFlag{Name: "json", Usage: "Output raw JSON"} }
func prettyFlag() cli.Flag { return &cli.BoolFlag{Name: "pretty", Usage: "Pretty-print output", Value: true} }

// setupCommand handles database setup.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Create config.toml if missing, initialize the database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Revert the most recently applied migration",
				Action: r.SetupRollback,
			},
		},
	}
}

// songsCommand handles catalog operations.
func songsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "songs",
		Usage: "Browse and manage the song catalog",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List songs, newest first",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "page",
						Usage: "Page number (1-based)",
						Value: 1,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Songs per page (default from [catalog] page_size)",
					},
					jsonFlag(),
					prettyFlag(),
				},
				Action: r.SongsList,
			},
			{
				Name:  "search",
				Usage: "Search titles and artists, ignoring case and accents",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "query"},
				},
				Flags:  []cli.Flag{jsonFlag(), prettyFlag()},
				Action: r.SongsSearch,
			},
			{
				Name:  "show",
				Usage: "Show one song",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format: json, lrc, txt or markdown",
						Value:   formatter.FormatJSON,
					},
					prettyFlag(),
				},
				Action: r.SongsShow,
			},
			{
				Name:  "publish",
				Usage: "Upload audio (and an optional cover) and add the song to the catalog",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "title",
						Usage: "Song title (defaults to the LRC [ti:] tag)",
					},
					&cli.StringFlag{
						Name:  "artist",
						Usage: "Artist (defaults to the LRC [ar:] tag)",
					},
					&cli.StringFlag{
						Name:    "lyrics",
						Aliases: []string{"l"},
						Usage:   "Timed lyrics: an .lrc file or a JSON track",
					},
					&cli.StringFlag{
						Name:     "audio",
						Aliases:  []string{"a"},
						Usage:    "Backing track audio file",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "cover",
						Usage: "Cover image file",
					},
					jsonFlag(),
				},
				Action: r.SongsPublish,
			},
			{
				Name:  "delete",
				Usage: "Remove a song from the catalog",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.SongsDelete,
			},
			{
				Name:  "export",
				Usage: "Export lyrics for many songs, or write a listing of the catalog",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:  "id",
						Usage: "Song ID to export (repeatable, default: all songs)",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Lyrics format: lrc, json, txt or markdown",
						Value:   formatter.FormatLRC,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory (or listing file with --listing)",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent export workers",
						Value: 4,
					},
					&cli.StringFlag{
						Name:  "listing",
						Usage: "Write a single csv, markdown or txt listing instead of lyric files",
					},
				},
				Action: r.SongsExport,
			},
		},
	}
}

// lyricsCommand handles lyric parsing, syncing and export.
func lyricsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "lyrics",
		Usage: "Parse, sync and export lyrics",
		Commands: []*cli.Command{
			{
				Name:  "parse",
				Usage: "Convert an LRC file to the JSON lyric track",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "plain",
						Usage: "Print duet text instead of JSON",
					},
					prettyFlag(),
				},
				Action: r.LyricsParse,
			},
			{
				Name:    "sync",
				Aliases: []string{"tap"},
				Usage:   "Time an untimed lyric sheet by tapping along to the music",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "title",
						Usage: "Song title",
					},
					&cli.StringFlag{
						Name:  "artist",
						Usage: "Artist",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Where to write the track (.lrc or .json, default: next to the sheet)",
					},
					&cli.BoolFlag{
						Name:  "publish",
						Usage: "Publish the finished track with --audio instead of writing it",
					},
					&cli.StringFlag{
						Name:    "audio",
						Aliases: []string{"a"},
						Usage:   "Backing track audio file (with --publish)",
					},
					&cli.StringFlag{
						Name:  "cover",
						Usage: "Cover image file (with --publish)",
					},
				},
				Action: r.LyricsSync,
			},
			{
				Name:  "export",
				Usage: "Export one song's lyrics",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "lrc, json or txt",
						Value:   formatter.FormatLRC,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory (default: print to stdout)",
					},
				},
				Action: r.LyricsExport,
			},
		},
	}
}

// recordingsCommand handles cover recordings.
func recordingsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "recordings",
		Aliases: []string{"rec"},
		Usage:   "Publish and list cover recordings",
		Commands: []*cli.Command{
			{
				Name:  "publish",
				Usage: "Upload a take of a song",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "song",
						Usage:    "Song ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "audio",
						Aliases:  []string{"a"},
						Usage:    "Recorded take",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "user",
						Usage: "User ID of the singer",
					},
					&cli.StringFlag{
						Name:  "effect",
						Usage: "Vocal effect: " + effectNames(),
						Value: string(models.EffectStudio),
					},
					&cli.StringFlag{
						Name:  "part",
						Usage: "Duet part sung (A or B); omit for a solo",
					},
					&cli.BoolFlag{
						Name:  "open",
						Usage: "Open the duet for a partner to join",
					},
					&cli.StringFlag{
						Name:  "join",
						Usage: "Recording ID of the open duet being joined",
					},
					&cli.DurationFlag{
						Name:  "duration",
						Usage: "Length of the take",
					},
					jsonFlag(),
				},
				Action: r.RecordingsPublish,
			},
			{
				Name:  "list",
				Usage: "List takes of a song",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "song",
						Usage: "Song ID",
					},
					&cli.BoolFlag{
						Name:  "open",
						Usage: "Only duets waiting for a partner",
					},
					jsonFlag(),
					prettyFlag(),
				},
				Action: r.RecordingsList,
			},
		},
	}
}

// authCommand handles account operations against the hosted backend.
func authCommand(r *Runner) *cli.Command {
	credentials := func(name bool) []cli.Flag {
		flags := []cli.Flag{
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email"},
			&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Account password", Sources: cli.EnvVars("SINGSYNC_PASSWORD")},
			jsonFlag(),
		}
		if name {
			flags = append(flags, &cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Display name"})
		}
		return flags
	}

	return &cli.Command{
		Name:  "auth",
		Usage: "Manage accounts",
		Commands: []*cli.Command{
			{
				Name:   "register",
				Usage:  "Create an account (name, email and password are required)",
				Flags:  credentials(true),
				Action: r.AuthRegister,
			},
			{
				Name:   "login",
				Usage:  "Sign in and print the session",
				Flags:  credentials(false),
				Action: r.AuthLogin,
			},
		},
	}
}

// serveCommand runs the HTTP API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the catalog over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (default from [server] host)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port (default from [server] port)",
			},
			&cli.BoolFlag{
				Name:  "read-only",
				Usage: "Disable POST /songs",
			},
		},
		Action: r.Serve,
	}
}

// watchCommand imports lyric files dropped into a folder.
func watchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Attach <song-id>.lrc files from a folder to their songs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "dir",
				Usage: "Folder to watch (default from [catalog] watch_dir)",
			},
			&cli.DurationFlag{
				Name:  "settle",
				Usage: "Quiet period before a changed file is imported",
				Value: 500 * time.Millisecond,
			},
			&cli.BoolFlag{
				Name:  "once",
				Usage: "Import existing files and exit",
			},
		},
		Action: r.Watch,
	}
}

func effectNames() string {
	names := make([]string, len(models.Effects))
	for i, e := range models.Effects {
		names[i] = string(e)
	}
	return strings.Join(names, ", ")
}

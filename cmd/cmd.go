// submodule cmd contains command definitions
package main

import (
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/snaptunes/internal/formatter"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func textFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "file",
			Aliases: []string{"f"},
			Usage:   "Read text from a file (\"-\" for stdin)",
		},
	}
}

// serveCommand starts the HTTP service
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the authorization and playlist endpoints",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to bind (overrides server.host)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to bind (overrides server.port)",
			},
			&cli.StringFlag{
				Name:  "handoff",
				Usage: "Token hand-off mode after authorization: query or session",
			},
		},
		Action: r.Serve,
	}
}

// extractCommand runs only the extraction stage
func extractCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "extract",
		Usage:     "Extract song titles and artists from text",
		ArgsUsage: "[text...]",
		Flags: append(textFlags(),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		),
		Action: r.Extract,
	}
}

// runCommand runs the full pipeline
func runCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Build a Spotify playlist from the songs mentioned in text",
		ArgsUsage: "[text...]",
		Flags: append(textFlags(),
			&cli.StringFlag{
				Name:    "name",
				Aliases: []string{"n"},
				Usage:   "Playlist name (defaults to the suggested title)",
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "Spotify access token; skips the browser sign-in",
				Sources: cli.EnvVars("SPOTIFY_ACCESS_TOKEN"),
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Match tracks without creating a playlist",
			},
			&cli.BoolFlag{
				Name:  "dedupe",
				Usage: "Add each matched track only once",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Output format: " + strings.Join(formatter.Formats, ", "),
				Value: formatter.FormatPlain,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Also write the report to this path (a directory for markdown)",
			},
		),
		Action: r.Run,
	}
}

// authCommand signs in to Spotify
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Sign in to Spotify in the browser",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "print-token",
				Usage: "Print the access token for use with --token",
			},
		},
		Action: r.Auth,
	}
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create the config file and run database migrations",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}

// cacheCommand inspects and clears the search cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage the Spotify search cache",
		Commands: []*cli.Command{
			{
				Name:  "stats",
				Usage: "Show cache size and hit counts",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.CacheStats,
			},
			{
				Name:   "clear",
				Usage:  "Delete every cached search",
				Action: r.CacheClear,
			},
			{
				Name:   "purge",
				Usage:  "Delete cached searches older than cache.ttl",
				Action: r.CachePurge,
			},
		},
	}
}

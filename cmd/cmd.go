// submodule cmd contains command definitions
package main

import (
	"fmt"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
	"github.com/urfave/cli/v3"
)

func providerFlag(value string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "provider",
		Aliases: []string{"p"},
		Usage:   "Provider: catalog or yandex",
		Value:   value,
	}
}

func jsonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print output",
			Value: true,
		},
	}
}

func parseProvider(name string) (models.ProviderKind, error) {
	kind, err := models.ParseProviderKind(name)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}
	return kind, nil
}

// setupCommand handles setup operations.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Create the config file if missing, initialize the database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Revert the most recent database migration",
				Action: r.SetupRollback,
			},
		},
	}
}

// authCommand handles the local session and provider credentials
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Log in as a local user, creating it on first login",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "username"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "email",
						Usage: "Email stored with a new user",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Forget the saved session",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show the logged-in user and provider credentials",
				Action: r.AuthStatus,
			},
			{
				Name:   "yandex",
				Usage:  "Obtain a Yandex Music token with OAuth2",
				Action: r.AuthYandex,
			},
		},
	}
}

// searchCommand queries a provider catalog
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search a provider catalog",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query"},
		},
		Flags:  append([]cli.Flag{providerFlag("catalog")}, jsonFlags()...),
		Action: r.Search,
	}
}

// popularCommand lists a provider's default tracks
func popularCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "popular",
		Usage:  "List a provider's popular tracks",
		Flags:  append([]cli.Flag{providerFlag("catalog")}, jsonFlags()...),
		Action: r.Popular,
	}
}

// resolveCommand parses a link without adding it
func resolveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "resolve",
		Usage: "Resolve a YouTube link into a track",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "link"},
		},
		Flags:  jsonFlags(),
		Action: r.Resolve,
	}
}

// libraryCommand manages the saved library
func libraryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "library",
		Aliases: []string{"lib"},
		Usage:   "Manage the saved library",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List saved tracks",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:    "provider",
						Aliases: []string{"p"},
						Usage:   "Only list tracks of this provider",
					},
				}, jsonFlags()...),
				Action: r.LibraryList,
			},
			{
				Name:  "add",
				Usage: "Add a YouTube link, or a search result with --query",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "link"},
				},
				Flags: []cli.Flag{
					providerFlag("catalog"),
					&cli.StringFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "Search query whose result is added",
					},
					&cli.IntFlag{
						Name:  "index",
						Usage: "Index of the search result to add",
						Value: 0,
					},
				},
				Action: r.LibraryAdd,
			},
			{
				Name:  "remove",
				Usage: "Remove a track",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "kind"},
					&cli.StringArg{Name: "id"},
				},
				Action: r.LibraryRemove,
			},
			{
				Name:  "export",
				Usage: "Export the library to csv, markdown, text or json",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format",
						Value:   "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output path (file, base name for csv, directory for markdown)",
					},
				},
				Action: r.LibraryExport,
			},
			{
				Name:  "import",
				Usage: "Import links or search queries, one per line",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "file"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "provider",
						Aliases: []string{"p"},
						Usage:   "Catalog searched for lines that are not links",
						Value:   "catalog",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent resolvers",
						Value: 4,
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Searches per second",
						Value: 5,
					},
				},
				Action: r.LibraryImport,
			},
		},
	}
}

// playCommand plays one library track
func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "play",
		Usage: "Play a library track; previews play until they end or Ctrl+C",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "kind"},
			&cli.StringArg{Name: "id"},
		},
		Action: r.Play,
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive player",
		Action:  r.TUI,
	}
}

// serveCommand starts the HTTP API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the JSON API behind session login",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (defaults to server.host:server.port)",
			},
		},
		Action: r.Serve,
	}
}

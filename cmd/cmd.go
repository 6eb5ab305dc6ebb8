// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func filterFlags(withStatus bool) []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{Name: "search", Aliases: []string{"s"}, Usage: "Filter by title"},
		&cli.StringFlag{Name: "genre", Usage: "Filter by genre"},
		&cli.StringFlag{Name: "platform", Usage: "Filter by platform"},
		&cli.StringFlag{Name: "type", Usage: "Filter by media type (movie or tv)"},
		&cli.StringFlag{Name: "ordering", Usage: "Sort field, prefix with - for descending"},
		&cli.IntFlag{Name: "page", Usage: "Page number", Value: 1},
		&cli.IntFlag{Name: "page-size", Usage: "Results per page"},
		&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
	}
	if withStatus {
		flags = append(flags, &cli.StringFlag{Name: "status", Usage: "Filter by status (watching, completed, wishlist)"})
	}
	return flags
}

func idArgument() []cli.Argument {
	return []cli.Argument{&cli.StringArg{Name: "id"}}
}

// formFlags are the editable collection fields shared by create and edit.
func formFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "title", Usage: "Title"},
		&cli.StringFlag{Name: "type", Usage: "Media type (movie or tv)"},
		&cli.StringFlag{Name: "director", Usage: "Director"},
		&cli.StringFlag{Name: "genre", Usage: "Genre"},
		&cli.StringFlag{Name: "platform", Usage: "Platform"},
		&cli.StringFlag{Name: "status", Usage: "Status (watching, completed, wishlist)"},
		&cli.IntFlag{Name: "total", Usage: "Total episodes (TV only)"},
		&cli.IntFlag{Name: "watched", Usage: "Episodes watched (TV only)"},
		&cli.FloatFlag{Name: "rating", Usage: "Rating on the configured scale"},
		&cli.StringFlag{Name: "review", Usage: "Review text"},
	}
}

// setupCommand handles setup operations for configuration and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config file populated with defaults",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles session operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage your MovieMate session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in and store the session token",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Aliases: []string{"u", "email"}, Usage: "Account email"},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Password (prompted when omitted)"},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "signup",
				Usage: "Create an account and sign in",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Usage: "Account email", Required: true},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Password, at least 8 characters"},
					&cli.StringFlag{Name: "confirm", Usage: "Password confirmation (prompted when omitted)"},
					&cli.StringFlag{Name: "first-name", Usage: "First name"},
					&cli.StringFlag{Name: "last-name", Usage: "Last name"},
				},
				Action: r.AuthSignup,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored session token",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show whether a session token is stored and when it expires",
				Action: r.AuthStatus,
			},
			{
				Name:   "me",
				Usage:  "Show the signed-in user's profile",
				Flags:  []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}},
				Action: r.AuthMe,
			},
			{
				Name:   "history",
				Usage:  "List recent session events",
				Flags:  []cli.Flag{&cli.IntFlag{Name: "limit", Usage: "Maximum number of events", Value: 20}},
				Action: r.AuthHistory,
			},
		},
	}
}

// catalogCommand handles catalog browsing
func catalogCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "catalog",
		Aliases: []string{"cat"},
		Usage:   "Browse the admin-curated catalog",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List a catalog page with collection badges",
				Flags:  filterFlags(false),
				Action: r.CatalogList,
			},
			{
				Name:      "show",
				Usage:     "Show one catalog entry",
				Arguments: idArgument(),
				Flags:     []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}},
				Action:    r.CatalogShow,
			},
			{
				Name:      "add",
				Usage:     "Add a catalog entry to your collection",
				Arguments: idArgument(),
				Action:    r.CatalogAdd,
			},
		},
	}
}

// collectionCommand handles the user's collection
func collectionCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "collection",
		Aliases: []string{"col"},
		Usage:   "Manage your collection",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List collection items",
				Flags: append(filterFlags(true),
					&cli.BoolFlag{Name: "all", Usage: "Walk every page"},
				),
				Action: r.CollectionList,
			},
			{
				Name:      "show",
				Usage:     "Show one collection item",
				Arguments: idArgument(),
				Flags:     []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}},
				Action:    r.CollectionShow,
			},
			{
				Name:   "create",
				Usage:  "Create a custom collection item",
				Flags:  formFlags(),
				Action: r.CollectionCreate,
			},
			{
				Name:      "edit",
				Usage:     "Edit a collection item, checking for concurrent changes",
				Arguments: idArgument(),
				Flags: append(formFlags(),
					&cli.StringFlag{
						Name:  "on-conflict",
						Usage: "What to do when the item changed since it was loaded: ask, overwrite, reload",
						Value: "ask",
					},
				),
				Action: r.CollectionEdit,
			},
			{
				Name:      "progress",
				Usage:     "Track episode progress on a TV show",
				Arguments: idArgument(),
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "inc", Usage: "Add one episode"},
					&cli.BoolFlag{Name: "dec", Usage: "Remove one episode"},
					&cli.IntFlag{Name: "set", Usage: "Set episodes watched", Value: -1},
					&cli.BoolFlag{Name: "complete", Usage: "Mark every episode watched"},
				},
				Action: r.CollectionProgress,
			},
			{
				Name:      "review",
				Usage:     "Rate and review a collection item",
				Arguments: idArgument(),
				Flags: []cli.Flag{
					&cli.FloatFlag{Name: "score", Usage: "Rating"},
					&cli.BoolFlag{Name: "ten-point", Usage: "Score is on a 1-10 scale"},
					&cli.StringFlag{Name: "text", Usage: "Review text"},
				},
				Action: r.CollectionReview,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a collection item",
				Arguments: idArgument(),
				Action:    r.CollectionDelete,
			},
			{
				Name:  "export",
				Usage: "Export the collection to a file",
				Flags: append(filterFlags(true),
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "csv, markdown, txt or json", Value: "csv"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output file path"},
				),
				Action: r.CollectionExport,
			},
			{
				Name:   "facets",
				Usage:  "List the genres and platforms in your collection",
				Action: r.CollectionFacets,
			},
		},
	}
}

// apiCommand handles direct API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the MovieMate backend",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET, prints the response body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
						Value: true,
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive browsing.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive catalog browser",
		Action:  r.TUI,
	}
}

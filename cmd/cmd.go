// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand creates the config file and initializes the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml and initialize the local database",
		Action: r.Setup,
	}
}

// authCommand handles sign-in and guest mode
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage your account session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in through the browser, or with a pasted access token",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "token",
						Usage: "Access token to store instead of running the browser flow",
					},
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the sign-in URL instead of opening it",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Sign out and leave guest mode",
				Action: r.AuthLogout,
			},
			{
				Name:   "guest",
				Usage:  "Keep dreams on this device without an account",
				Action: r.AuthGuest,
			},
			{
				Name:   "status",
				Usage:  "Show who is signed in",
				Action: r.AuthStatus,
			},
		},
	}
}

// dreamCommand handles journal entries
func dreamCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "dream",
		Aliases: []string{"dreams", "d"},
		Usage:   "Record and manage dreams",
		Commands: []*cli.Command{
			{
				Name:  "new",
				Usage: "Record a dream from text or a voice recording",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "text",
						Aliases: []string{"t"},
						Usage:   "What you dreamed",
					},
					&cli.StringFlag{
						Name:    "audio",
						Aliases: []string{"a"},
						Usage:   "Path to a recording to transcribe",
					},
					&cli.StringFlag{
						Name:  "title",
						Usage: "Title (generated when empty)",
					},
					&cli.StringFlag{
						Name:  "mode",
						Usage: "What to generate: story, analysis or none",
						Value: "story",
					},
					&cli.StringFlag{
						Name:  "tone",
						Usage: "Story tone (defaults to your settings)",
					},
					&cli.StringFlag{
						Name:  "length",
						Usage: "Story length: short, medium or long (defaults to your settings)",
					},
					&cli.BoolFlag{
						Name:  "images",
						Usage: "Illustrate the story",
					},
					&cli.BoolFlag{
						Name:  "favorite",
						Usage: "Mark as a favorite",
					},
				},
				Action: r.DreamNew,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List dreams",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "favorites",
						Aliases: []string{"f"},
						Usage:   "Only favorites",
					},
					&cli.StringFlag{
						Name:    "search",
						Aliases: []string{"s"},
						Usage:   "Only dreams whose title or text contains this",
					},
					&cli.StringFlag{
						Name:  "sort",
						Usage: "latest or oldest",
						Value: "latest",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.DreamList,
			},
			{
				Name:  "show",
				Usage: "Show a dream",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.DreamShow,
			},
			{
				Name:  "edit",
				Usage: "Change a dream's text or generated content",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Usage: "New title"},
					&cli.StringFlag{Name: "text", Usage: "New dream text"},
					&cli.StringFlag{Name: "story", Usage: "New story"},
					&cli.StringFlag{Name: "analysis", Usage: "New analysis"},
					&cli.StringFlag{Name: "tone", Usage: "New tone"},
					&cli.StringFlag{Name: "length", Usage: "New length"},
				},
				Action: r.DreamEdit,
			},
			{
				Name:    "favorite",
				Aliases: []string{"fav"},
				Usage:   "Toggle a dream's favorite flag",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.DreamFavorite,
			},
			{
				Name:    "delete",
				Aliases: []string{"rm"},
				Usage:   "Delete a dream",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.DreamDelete,
			},
		},
	}
}

// speakCommand reads a dream's story aloud into an audio file.
func speakCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "speak",
		Usage: "Convert a dream's story (or any text) to speech",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "text",
				Usage: "Text to read instead of a dream",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Audio file to write",
				Value:   "dream.mp3",
			},
			&cli.StringFlag{
				Name:  "voice",
				Usage: "Voice (defaults to your settings)",
			},
			&cli.FloatFlag{
				Name:  "speed",
				Usage: "Playback speed (defaults to your settings)",
			},
		},
		Action: r.Speak,
	}
}

// settingsCommand shows and changes device preferences.
func settingsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Story and voice preferences",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print preferences",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
				},
				Action: r.SettingsShow,
			},
			{
				Name:  "set",
				Usage: "Change preferences",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "tone", Usage: "Default story tone"},
					&cli.StringFlag{Name: "length", Usage: "Default story length"},
					&cli.BoolFlag{Name: "images", Usage: "Illustrate stories by default"},
					&cli.StringFlag{Name: "voice", Usage: "Default text-to-speech voice"},
					&cli.FloatFlag{Name: "speed", Usage: "Default text-to-speech speed"},
					&cli.BoolFlag{Name: "autoplay", Usage: "Play stories after they are generated"},
				},
				Action: r.SettingsSet,
			},
		},
	}
}

// statsCommand prints journal counters.
func statsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show journal statistics",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
		},
		Action: r.Stats,
	}
}

// clearCommand deletes every dream stored on this device.
func clearCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "clear",
		Usage: "Delete every dream stored on this device",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Confirm the deletion"},
		},
		Action: r.Clear,
	}
}

// exportCommand writes the journal to a file.
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export the journal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "json, yaml, csv, markdown or txt",
				Value:   "json",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file (default: journal.<ext>)",
			},
			&cli.BoolFlag{
				Name:  "images",
				Usage: "Download generated images next to the export",
			},
			&cli.BoolFlag{
				Name:  "favorites",
				Usage: "Only favorites",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent image downloads",
				Value: 4,
			},
		},
		Action: r.Export,
	}
}

// tuiCommand returns the top-level TUI command for browsing the journal.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Browse the journal interactively",
		Action:  r.TUI,
	}
}

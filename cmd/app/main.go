package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/ansuz/internal"
	"github.com/starford/ansuz/internal/view"
	pkgconfig "github.com/starford/ansuz/pkg/config"
)

func newApp(cmd *cli.Command) (*internal.App, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadIfPresent(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if u := cmd.String("base-url"); u != "" {
		cfg.Remote.BaseURL = u
	}
	if tok := cmd.String("token"); tok != "" {
		cfg.Auth.Token = tok
		cfg.Auth.TokenFile = ""
	}

	return internal.New(internal.WithConfig(cfg))
}

// refreshOrFallback refreshes the view and, when the service is
// unreachable, falls back to the restored snapshot so the command can
// still show the last-known data.
func refreshOrFallback(ctx context.Context, app *internal.App) {
	if err := app.View.RefreshAll(ctx); err != nil {
		app.Logger.Warn("refresh failed, showing last-known snapshot",
			slog.String("error", err.Error()))
	}
}

func bookScope(cmd *cli.Command) *int64 {
	id := int64(cmd.Int("book"))
	if id == 0 {
		return nil
	}
	return &id
}

func printBooks(st view.State) {
	if !st.Status.Connected && st.Status.Err != "" {
		fmt.Printf("status: %s\n", st.Status.Err)
	}
	if len(st.Books) == 0 {
		fmt.Println("No books yet.")
		return
	}
	for _, b := range st.Books {
		line := b.Title
		if b.Author != nil && *b.Author != "" {
			line += " — " + *b.Author
		}
		fmt.Printf("#%d  %s\n", b.ID, line)
	}
}

func printNotes(app *internal.App, st view.State) {
	if !st.Status.Connected && st.Status.Err != "" {
		fmt.Printf("status: %s\n", st.Status.Err)
	}
	if len(st.Notes) == 0 {
		fmt.Println("No notes yet.")
		return
	}
	for _, n := range st.Notes {
		book := "no book"
		if title, ok := app.View.BookTitle(n.BookID); ok {
			book = title
		}
		fmt.Printf("#%d  [%s]  %s\n    %s\n", n.ID, book, n.CreatedAt, n.Text)
	}
}

func main() {
	cmd := &cli.Command{
		Name:  "ansuz",
		Usage: "Client for the Reading Notes service: books and notes CRUD, semantic search, and thematic clustering",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "base-url",
				Usage:   "Base URL of the Reading Notes service (overrides config)",
				Sources: cli.EnvVars("ANSUZ_BASE_URL"),
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "Bearer token (overrides config)",
				Sources: cli.EnvVars("ANSUZ_TOKEN"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "books",
				Usage: "List and create books",
				Commands: []*cli.Command{
					{
						Name:  "list",
						Usage: "List books",
						Action: func(ctx context.Context, cmd *cli.Command) error {
							app, err := newApp(cmd)
							if err != nil {
								return err
							}
							defer app.Close()
							refreshOrFallback(ctx, app)
							printBooks(app.View.Snapshot())
							return nil
						},
					},
					{
						Name:  "add",
						Usage: "Create a book",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "title", Usage: "Book title", Required: true},
							&cli.StringFlag{Name: "author", Usage: "Author (optional)"},
						},
						Action: func(ctx context.Context, cmd *cli.Command) error {
							app, err := newApp(cmd)
							if err != nil {
								return err
							}
							defer app.Close()
							if err := app.View.SubmitBook(ctx, cmd.String("title"), cmd.String("author")); err != nil {
								return err
							}
							printBooks(app.View.Snapshot())
							return nil
						},
					},
				},
			},
			{
				Name:  "notes",
				Usage: "List and create notes",
				Commands: []*cli.Command{
					{
						Name:  "list",
						Usage: "List recent notes",
						Action: func(ctx context.Context, cmd *cli.Command) error {
							app, err := newApp(cmd)
							if err != nil {
								return err
							}
							defer app.Close()
							refreshOrFallback(ctx, app)
							printNotes(app, app.View.Snapshot())
							return nil
						},
					},
					{
						Name:  "add",
						Usage: "Create a note, optionally attached to a book",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "text", Usage: "Note text", Required: true},
							&cli.IntFlag{Name: "book", Usage: "Id of the book to attach to"},
						},
						Action: func(ctx context.Context, cmd *cli.Command) error {
							app, err := newApp(cmd)
							if err != nil {
								return err
							}
							defer app.Close()
							if err := app.View.SubmitNote(ctx, cmd.String("text"), bookScope(cmd)); err != nil {
								return err
							}
							printNotes(app, app.View.Snapshot())
							return nil
						},
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Semantic search over notes",
				ArgsUsage: "QUERY",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "k", Usage: "Maximum number of hits", Value: 10},
					&cli.IntFlag{Name: "book", Usage: "Restrict to notes of this book id"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					query := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
					if query == "" {
						return fmt.Errorf("search query is required")
					}
					app, err := newApp(cmd)
					if err != nil {
						return err
					}
					defer app.Close()
					// Books are fetched first so hits can show their book titles.
					refreshOrFallback(ctx, app)
					if err := app.View.RunSearch(ctx, query, int(cmd.Int("k")), bookScope(cmd)); err != nil {
						return err
					}
					st := app.View.Snapshot()
					if len(st.SearchHits) == 0 {
						fmt.Println("No hits.")
						return nil
					}
					for _, h := range st.SearchHits {
						book := "no book"
						if title, ok := app.View.BookTitle(h.Note.BookID); ok {
							book = title
						}
						fmt.Printf("%.4f  #%d  [%s]  %s\n", h.Score, h.Note.ID, book, h.Note.Text)
					}
					return nil
				},
			},
			{
				Name:  "clusters",
				Usage: "Recompute thematic clusters over notes",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "k", Usage: "Requested number of themes", Value: 3},
					&cli.IntFlag{Name: "per-cluster", Usage: "Requested representatives per theme", Value: 2},
					&cli.IntFlag{Name: "book", Usage: "Restrict to notes of this book id"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					app, err := newApp(cmd)
					if err != nil {
						return err
					}
					defer app.Close()
					refreshOrFallback(ctx, app)
					err = app.View.RunClusterRecompute(ctx, int(cmd.Int("k")), int(cmd.Int("per-cluster")), bookScope(cmd))
					if err != nil {
						return err
					}
					st := app.View.Snapshot()
					if len(st.Clusters) == 0 {
						fmt.Println("No clusters.")
						return nil
					}
					for _, c := range st.Clusters {
						fmt.Printf("cluster %d (%d notes): %s\n", c.ClusterID, c.Size, strings.Join(c.Keywords, ", "))
						for _, rep := range c.Representatives {
							book := "no book"
							if title, ok := app.View.BookTitle(rep.Note.BookID); ok {
								book = title
							}
							fmt.Printf("  %.4f  #%d  [%s]  %s\n", rep.Score, rep.Note.ID, book, rep.Note.Text)
						}
					}
					return nil
				},
			},
			{
				Name:  "mcp",
				Usage: "Serve the Reading Notes operations as MCP tools on stdio",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					app, err := newApp(cmd)
					if err != nil {
						return err
					}
					defer app.Close()
					return app.ServeMCP(ctx)
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/mixtape/internal/controller"
	"github.com/desertthunder/mixtape/internal/formatter"
	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/services"
	"github.com/desertthunder/mixtape/internal/shared"
	"github.com/desertthunder/mixtape/internal/tasks"
	"github.com/urfave/cli/v3"
)

// withMusic runs fn against the logged-in user's controller and closes it afterwards.
func (r *Runner) withMusic(openEmbeds bool, fn func(m *controller.Music) error) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	sess, err := r.currentSession(db)
	if err != nil {
		return err
	}

	music, err := r.newMusic(sess, db, openEmbeds)
	if err != nil {
		return err
	}
	defer music.Close()

	return fn(music)
}

// LibraryList prints the saved library.
func (r *Runner) LibraryList(ctx context.Context, cmd *cli.Command) error {
	return r.withMusic(false, func(m *controller.Music) error {
		tracks := m.Library()
		if p := cmd.String("provider"); p != "" {
			kind, err := parseProvider(p)
			if err != nil {
				return err
			}
			tracks = m.LibraryByProvider(kind)
		}

		if cmd.Bool("json") {
			return r.writeJSON(records(tracks), cmd.Bool("pretty"))
		}

		r.writePlainHeader(fmt.Sprintf("%s's library (%d tracks)", m.User().DisplayName(), len(tracks)))
		r.writeTracks(tracks)
		return nil
	})
}

// LibraryAdd adds a link, or with --query the search result at --index, and saves the library.
func (r *Runner) LibraryAdd(ctx context.Context, cmd *cli.Command) error {
	link := strings.TrimSpace(cmd.StringArg("link"))
	query := strings.TrimSpace(cmd.String("query"))
	if link == "" && query == "" {
		return fmt.Errorf("%w: a link or --query", shared.ErrMissingArgument)
	}
	if link != "" && query != "" {
		return fmt.Errorf("%w: cannot specify both a link and --query", shared.ErrInvalidArgument)
	}

	return r.withMusic(false, func(m *controller.Music) error {
		var (
			track models.Track
			added bool
			err   error
		)

		if link != "" {
			track, added, err = m.AddLink(link)
		} else {
			var kind models.ProviderKind
			if kind, err = parseProvider(cmd.String("provider")); err != nil {
				return err
			}
			if err = m.Search(ctx, kind, query); err != nil {
				return fmt.Errorf("%s: %w", services.Classify(err), err)
			}
			track, added, err = m.AddResult(kind, cmd.Int("index"))
		}
		if err != nil {
			return err
		}

		if !added {
			return r.writePlain("%s - %s is already in the library\n", track.Artist(), track.Title())
		}
		if err := m.Save(); err != nil {
			return fmt.Errorf("failed to save library: %w", err)
		}
		r.logger.Info("added track", "track", track.Identity())
		return r.writePlain("✓ Added %s - %s (%s %s)\n", track.Artist(), track.Title(), track.Kind(), track.ID())
	})
}

// LibraryRemove removes one track and saves the library.
func (r *Runner) LibraryRemove(ctx context.Context, cmd *cli.Command) error {
	kind, err := parseProvider(cmd.StringArg("kind"))
	if err != nil {
		return err
	}
	id := strings.TrimSpace(cmd.StringArg("id"))
	if id == "" {
		return fmt.Errorf("%w: id", shared.ErrMissingArgument)
	}

	return r.withMusic(false, func(m *controller.Music) error {
		if err := m.Remove(kind, id); err != nil {
			return err
		}
		if err := m.Save(); err != nil {
			return fmt.Errorf("failed to save library: %w", err)
		}
		return r.writePlain("✓ Removed %s %s\n", kind, id)
	})
}

// LibraryExport writes the library in the requested format.
func (r *Runner) LibraryExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	output := cmd.String("output")

	return r.withMusic(false, func(m *controller.Music) error {
		export := formatter.NewLibraryExport(m.User().Username(), m.Library())
		r.logger.Info("exporting library", "format", format, "tracks", len(export.Tracks))

		switch format {
		case formatter.FormatCSV:
			res, err := formatter.WriteCSVExport(export, output)
			if err != nil {
				return err
			}
			r.writePlain("✓ Tracks written to %s\n", res.TracksFile)
			return r.writePlain("✓ Metadata written to %s\n", res.MetadataFile)

		case formatter.FormatMarkdown:
			res, err := formatter.WriteMarkdownExport(export, output, formatter.CoverURL(export))
			if err != nil {
				return err
			}
			for _, w := range res.Warnings {
				r.logger.Warn(w)
			}
			r.writePlain("✓ Markdown export written to %s\n", res.Directory)
			for _, f := range res.Files {
				r.writePlain("  %s\n", f)
			}
			return nil

		case formatter.FormatText:
			path, err := formatter.WriteTextExport(export, output)
			if err != nil {
				return err
			}
			return r.writePlain("✓ Text export written to %s\n", path)

		default:
			path, err := formatter.WriteJSONExport(export, output)
			if err != nil {
				return err
			}
			return r.writePlain("✓ JSON export written to %s\n", path)
		}
	})
}

// LibraryImport resolves every line of a file into a track and adds it to the library.
func (r *Runner) LibraryImport(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("file")
	if path == "" {
		return fmt.Errorf("%w: file", shared.ErrMissingArgument)
	}
	kind, err := parseProvider(cmd.String("provider"))
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open import file: %w", err)
	}
	defer f.Close()

	inputs, err := tasks.ParseInputs(f)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return fmt.Errorf("%w: %s has no inputs", shared.ErrInvalidInput, path)
	}

	return r.withMusic(false, func(m *controller.Music) error {
		engine := tasks.NewImportEngine(services.NewYouTubeLinkService(), r.searchers()...)

		progress := make(chan tasks.ProgressUpdate, 50)
		done := make(chan struct{})
		go func() {
			defer close(done)
			for update := range progress {
				r.logger.Debug(update.Message, "phase", update.Phase, "step", update.Step, "total", update.Total)
			}
		}()

		result, importErr := engine.Import(ctx, progress, m, inputs, tasks.ImportOpts{
			Provider:   kind,
			NumWorkers: cmd.Int("workers"),
			RateLimit:  cmd.Float("rate"),
		})
		close(progress)
		<-done

		if result == nil {
			return importErr
		}

		if result.Added > 0 {
			if err := m.Save(); err != nil {
				return fmt.Errorf("failed to save library: %w", err)
			}
		}

		r.writePlainHeader("Import complete")
		r.writePlain("Inputs:     %d\n", result.Total)
		r.writePlain("Added:      %d\n", result.Added)
		r.writePlain("Duplicates: %d\n", result.Duplicates)
		r.writePlain("Failed:     %d\n", result.Failed)
		for _, item := range result.Items {
			if item.Error != nil {
				r.writePlain("  line %d: %s (%v)\n", item.Line, item.Input, item.Error)
			}
		}

		if importErr != nil && !errors.Is(importErr, context.Canceled) {
			return importErr
		}
		return nil
	})
}

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/mixtape/internal/catalog"
	"github.com/desertthunder/mixtape/internal/formatter"
	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/services"
	"github.com/desertthunder/mixtape/internal/shared"
	"github.com/urfave/cli/v3"
)

// Search queries one provider catalog.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}
	return r.runCatalog(ctx, cmd, query)
}

// Popular lists the default tracks of one provider catalog.
func (r *Runner) Popular(ctx context.Context, cmd *cli.Command) error {
	return r.runCatalog(ctx, cmd, "")
}

func (r *Runner) runCatalog(ctx context.Context, cmd *cli.Command, query string) error {
	searcher, err := r.searcher(cmd.String("provider"))
	if err != nil {
		return err
	}

	timeout, err := shared.ParseDuration(r.config.Providers.SearchTimeout)
	if err != nil {
		return fmt.Errorf("%w: providers.search_timeout: %v", shared.ErrInvalidConfig, err)
	}

	c := catalog.New(searcher, catalog.Options{Timeout: timeout})
	logger := shared.WithLogger(r.logger, "provider", searcher.Kind())

	if query == "" {
		logger.Info("loading popular tracks")
		err = c.LoadDefault(ctx)
	} else {
		logger.Info("searching", "query", query)
		err = c.SubmitQuery(ctx, query)
	}

	snap := c.Snapshot()
	if err != nil {
		return fmt.Errorf("%s: %w", services.Classify(err), err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(records(snap.Results), cmd.Bool("pretty"))
	}

	if snap.Empty() {
		return r.writePlain("No results from %s\n", c.Name())
	}

	if query == "" {
		r.writePlainHeader(fmt.Sprintf("Popular on %s", c.Name()))
	} else {
		r.writePlainHeader(fmt.Sprintf("%s results for %q", c.Name(), query))
	}
	r.writeTracks(snap.Results)
	return nil
}

// Resolve parses a YouTube link and prints the resulting track.
func (r *Runner) Resolve(ctx context.Context, cmd *cli.Command) error {
	link := strings.TrimSpace(cmd.StringArg("link"))
	if link == "" {
		return fmt.Errorf("%w: link", shared.ErrMissingArgument)
	}

	track, err := services.NewYouTubeLinkService().ResolveFromInput(link)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(formatter.NewTrackRecord(track), cmd.Bool("pretty"))
	}
	r.writePlain("Kind:      %s\n", track.Kind())
	r.writePlain("ID:        %s\n", track.ID())
	r.writePlain("Embed URL: %s\n", track.SourceURL())
	return r.writePlain("Thumbnail: %s\n", track.ThumbnailURL())
}

func records(tracks []models.Track) []formatter.TrackRecord {
	out := make([]formatter.TrackRecord, 0, len(tracks))
	for _, t := range tracks {
		out = append(out, formatter.NewTrackRecord(t))
	}
	return out
}

// writeTracks prints one numbered line per track.
func (r *Runner) writeTracks(tracks []models.Track) {
	for i, t := range tracks {
		r.writePlain("%3d. %s - %s [%s]\n", i, t.Artist(), t.Title(), t.FormattedDuration())
		r.writePlain("     %s %s\n", t.Kind(), t.ID())
	}
}

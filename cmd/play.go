package main

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/desertthunder/mixtape/internal/controller"
	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/playback"
	"github.com/desertthunder/mixtape/internal/shared"
	"github.com/urfave/cli/v3"
)

// Play plays one library track.
//
// Previews block until they end, fail or the command is interrupted. Embeds and hand-offs
// return as soon as the browser has been opened.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	kind, err := parseProvider(cmd.StringArg("kind"))
	if err != nil {
		return err
	}
	id := strings.TrimSpace(cmd.StringArg("id"))
	if id == "" {
		return fmt.Errorf("%w: id", shared.ErrMissingArgument)
	}

	return r.withMusic(true, func(m *controller.Music) error {
		target := models.Identity{Kind: kind, ID: id}
		tracks := m.Library()
		i := slices.IndexFunc(tracks, func(t models.Track) bool { return t.Identity() == target })
		if i < 0 {
			return fmt.Errorf("%w: %s is not in the library", shared.ErrTrackNotFound, target)
		}
		track := tracks[i]

		if err := m.Play(ctx, target); err != nil {
			return err
		}

		switch kind {
		case models.ProviderLinkEmbed:
			return r.writePlain("▶ Opened %s in the browser\n", track.SourceURL())
		case models.ProviderCatalogHandoff:
			return r.writePlain("→ Handed off %s - %s to %s\n", track.Artist(), track.Title(), track.SourceURL())
		}

		r.writePlain("▶ %s - %s (Ctrl+C to stop)\n", track.Artist(), track.Title())
		return r.waitForPreview(ctx, m, target)
	})
}

// waitForPreview blocks until the preview of target leaves the active states.
func (r *Runner) waitForPreview(ctx context.Context, m *controller.Music, target models.Identity) error {
	events := m.Events()
	for {
		if done, err := previewDone(m.Playback(), target); done {
			return err
		}

		select {
		case <-ctx.Done():
			r.logger.Debug("interrupted, stopping playback")
			if err := m.Stop(); err != nil {
				r.logger.Warn("failed to stop playback", "error", err)
			}
			return r.writePlain("■ Stopped\n")
		case _, ok := <-events:
			if !ok {
				return nil
			}
		}
	}
}

// previewDone reports whether playback of target has finished, and the failure if it failed.
func previewDone(snap playback.Snapshot, target models.Identity) (bool, error) {
	switch {
	case snap.State == playback.StateFailed:
		return true, snap.Err
	case snap.State == playback.StateEnded, snap.State == playback.StateIdle:
		return true, nil
	case !snap.Targets(target):
		return true, nil
	default:
		return false, nil
	}
}

package controller

import (
	"context"
	"errors"
	"testing"

	"github.com/desertthunder/mixtape/internal/catalog"
	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/playback"
	"github.com/desertthunder/mixtape/internal/repositories"
	"github.com/desertthunder/mixtape/internal/services"
	"github.com/desertthunder/mixtape/internal/shared"
	tu "github.com/desertthunder/mixtape/internal/testing"
)

func catalogTrack(id string) models.Track {
	return models.NewTrack(models.TrackFields{
		ID: id, Kind: models.ProviderCatalogPreview, Title: "Song " + id, SourceURL: "https://audio.example/" + id,
	})
}

type harness struct {
	music         *Music
	audio, embed  *tu.MockMechanism
	handoff       *tu.MockMechanism
	catalogSearch *tu.MockSearcher
	handoffSearch *tu.MockSearcher
}

func newHarness(t *testing.T, persister ...*repositories.LibraryRepository) *harness {
	t.Helper()
	mechs, audio, embed, handoff := tu.MockMechanisms()
	h := &harness{
		audio: audio, embed: embed, handoff: handoff,
		catalogSearch: &tu.MockSearcher{
			ProviderKind: models.ProviderCatalogPreview,
			Tracks:       []models.Track{catalogTrack("1"), catalogTrack("2")},
			Popular:      []models.Track{catalogTrack("9")},
		},
		handoffSearch: &tu.MockSearcher{ProviderKind: models.ProviderCatalogHandoff},
	}

	opts := Options{
		Links:      services.NewYouTubeLinkService(),
		Searchers:  []services.Searcher{h.catalogSearch, h.handoffSearch},
		Mechanisms: mechs,
	}
	if len(persister) > 0 {
		opts.Persister = persister[0]
	}

	m, err := New(tu.NewMockAuth("user-1"), opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	h.music = m
	return h
}

func TestNew(t *testing.T) {
	t.Run("requires authentication", func(t *testing.T) {
		if _, err := New(nil, Options{}); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated for nil session, got %v", err)
		}
		if _, err := New(&tu.MockAuth{}, Options{}); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated for anonymous session, got %v", err)
		}
	})

	t.Run("catalogs per searcher kind", func(t *testing.T) {
		h := newHarness(t)
		kinds := h.music.Catalogs()
		if len(kinds) != 2 || kinds[0] != models.ProviderCatalogPreview || kinds[1] != models.ProviderCatalogHandoff {
			t.Errorf("unexpected catalogs: %v", kinds)
		}
		if h.music.User().ID() != "user-1" {
			t.Errorf("expected session user, got %s", h.music.User().ID())
		}
	})
}

func TestMusicLibrary(t *testing.T) {
	ctx := context.Background()

	t.Run("AddLink", func(t *testing.T) {
		h := newHarness(t)

		tr, added, err := h.music.AddLink("https://youtu.be/abcdefghijk")
		if err != nil || !added {
			t.Fatalf("expected link to be added, got added=%v err=%v", added, err)
		}
		if tr.ID() != "abcdefghijk" || tr.Kind() != models.ProviderLinkEmbed {
			t.Errorf("unexpected track %s", tr.Identity())
		}

		if _, added, _ := h.music.AddLink("https://www.youtube.com/watch?v=abcdefghijk"); added {
			t.Error("expected same video to be deduplicated")
		}

		_, _, err = h.music.AddLink("not a url")
		if !errors.Is(err, shared.ErrInvalidLink) {
			t.Errorf("expected ErrInvalidLink, got %v", err)
		}
		if len(h.music.Library()) != 1 {
			t.Errorf("expected 1 track, got %d", len(h.music.Library()))
		}
	})

	t.Run("AddResult", func(t *testing.T) {
		h := newHarness(t)
		if err := h.music.Search(ctx, models.ProviderCatalogPreview, "daft punk"); err != nil {
			t.Fatal(err)
		}

		tr, added, err := h.music.AddResult(models.ProviderCatalogPreview, 1)
		if err != nil || !added || tr.ID() != "2" {
			t.Fatalf("expected result 2 added, got %s added=%v err=%v", tr.ID(), added, err)
		}

		if _, _, err := h.music.AddResult(models.ProviderCatalogPreview, 5); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if _, _, err := h.music.AddResult(models.ProviderLinkEmbed, 0); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for kind without catalog, got %v", err)
		}
	})

	t.Run("Add", func(t *testing.T) {
		h := newHarness(t)
		if _, err := h.music.Add(models.Track{}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if added, err := h.music.Add(catalogTrack("1")); err != nil || !added {
			t.Errorf("expected add, got %v %v", added, err)
		}
		if added, _ := h.music.Add(catalogTrack("1")); added {
			t.Error("expected duplicate to be ignored")
		}
		if got := h.music.LibraryByProvider(models.ProviderCatalogPreview); len(got) != 1 {
			t.Errorf("expected 1 catalog track, got %d", len(got))
		}
	})

	t.Run("Remove missing", func(t *testing.T) {
		h := newHarness(t)
		if err := h.music.Remove(models.ProviderLinkEmbed, "nope"); !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("expected ErrTrackNotFound, got %v", err)
		}
	})

	t.Run("removing the playing track stops playback", func(t *testing.T) {
		h := newHarness(t)
		a := catalogTrack("1")
		_, _ = h.music.Add(a)
		b, _, err := h.music.AddLink("https://youtu.be/xxxxxxxxxxx")
		if err != nil {
			t.Fatal(err)
		}

		if err := h.music.Play(ctx, b.Identity()); err != nil {
			t.Fatalf("Play failed: %v", err)
		}
		if h.music.Playback().State != playback.StatePlaying {
			t.Fatalf("expected playing, got %s", h.music.Playback().State)
		}

		if err := h.music.Remove(models.ProviderLinkEmbed, "xxxxxxxxxxx"); err != nil {
			t.Fatalf("Remove failed: %v", err)
		}

		snap := h.music.Playback()
		if snap.State != playback.StateIdle || snap.HasTrack() {
			t.Errorf("expected idle session, got %+v", snap)
		}
		if !h.embed.Handles[0].IsReleased() {
			t.Error("expected embed handle released")
		}
		lib := h.music.Library()
		if len(lib) != 1 || !lib[0].SameAs(a) {
			t.Errorf("expected library [A], got %d tracks", len(lib))
		}
	})
}

func TestMusicPlayback(t *testing.T) {
	ctx := context.Background()

	t.Run("Play from library toggles", func(t *testing.T) {
		h := newHarness(t)
		a := catalogTrack("1")
		_, _ = h.music.Add(a)

		want := []playback.State{playback.StatePlaying, playback.StatePaused, playback.StatePlaying}
		for i, state := range want {
			if err := h.music.Play(ctx, a.Identity()); err != nil {
				t.Fatalf("step %d: %v", i, err)
			}
			if got := h.music.Playback().State; got != state {
				t.Errorf("step %d: expected %s, got %s", i, state, got)
			}
		}
		if h.audio.Acquired() != 1 {
			t.Errorf("expected one audio acquisition, got %d", h.audio.Acquired())
		}
	})

	t.Run("Play from search results", func(t *testing.T) {
		h := newHarness(t)
		_ = h.music.Search(ctx, models.ProviderCatalogPreview, "x")

		if err := h.music.Play(ctx, catalogTrack("2").Identity()); err != nil {
			t.Fatalf("Play failed: %v", err)
		}
		if !h.music.Playback().Targets(catalogTrack("2").Identity()) {
			t.Error("expected result track to play")
		}
	})

	t.Run("Play unknown", func(t *testing.T) {
		h := newHarness(t)
		err := h.music.Play(ctx, models.Identity{Kind: models.ProviderCatalogPreview, ID: "404"})
		if !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("expected ErrTrackNotFound, got %v", err)
		}
	})

	t.Run("hand-off stays idle", func(t *testing.T) {
		h := newHarness(t)
		tr := models.NewTrack(models.TrackFields{ID: "7", Kind: models.ProviderCatalogHandoff, SourceURL: "https://music.example/7"})
		if err := h.music.PlayTrack(ctx, tr); err != nil {
			t.Fatal(err)
		}
		if h.music.Playback().State != playback.StateIdle {
			t.Errorf("expected idle, got %s", h.music.Playback().State)
		}
		if h.handoff.Acquired() != 1 {
			t.Error("expected hand-off mechanism to be used")
		}
	})

	t.Run("Pause Resume Stop", func(t *testing.T) {
		h := newHarness(t)
		_ = h.music.PlayTrack(ctx, catalogTrack("1"))

		if err := h.music.Pause(); err != nil {
			t.Fatal(err)
		}
		if err := h.music.TogglePause(); err != nil {
			t.Fatal(err)
		}
		if h.music.Playback().State != playback.StatePlaying {
			t.Errorf("expected playing, got %s", h.music.Playback().State)
		}
		if err := h.music.Resume(); !errors.Is(err, shared.ErrInvalidTransition) {
			t.Errorf("expected ErrInvalidTransition, got %v", err)
		}
		if err := h.music.Stop(); err != nil {
			t.Fatal(err)
		}
		if h.music.Playback().State != playback.StateIdle {
			t.Errorf("expected idle, got %s", h.music.Playback().State)
		}
	})

	t.Run("failure then acknowledge", func(t *testing.T) {
		h := newHarness(t)
		h.audio.Err = errors.New("no audio device")

		if err := h.music.PlayTrack(ctx, catalogTrack("1")); !errors.Is(err, shared.ErrMechanism) {
			t.Fatalf("expected ErrMechanism, got %v", err)
		}
		if !h.music.Acknowledge() {
			t.Error("expected acknowledge")
		}
		if h.music.Playback().State != playback.StateIdle {
			t.Errorf("expected idle, got %s", h.music.Playback().State)
		}
	})
}

func TestMusicCatalogs(t *testing.T) {
	ctx := context.Background()

	t.Run("Search and Popular share the slot", func(t *testing.T) {
		h := newHarness(t)

		if err := h.music.Popular(ctx, models.ProviderCatalogPreview); err != nil {
			t.Fatal(err)
		}
		snap, err := h.music.Results(models.ProviderCatalogPreview)
		if err != nil || len(snap.Results) != 1 || snap.Results[0].ID() != "9" {
			t.Fatalf("expected popular results, got %+v (%v)", snap, err)
		}

		_ = h.music.Search(ctx, models.ProviderCatalogPreview, "q")
		snap, _ = h.music.Results(models.ProviderCatalogPreview)
		if len(snap.Results) != 2 {
			t.Errorf("expected search results, got %d", len(snap.Results))
		}
	})

	t.Run("catalogs are independent", func(t *testing.T) {
		h := newHarness(t)
		h.handoffSearch.Err = shared.ErrNetworkFailure

		_ = h.music.Search(ctx, models.ProviderCatalogPreview, "q")
		if err := h.music.Search(ctx, models.ProviderCatalogHandoff, "q"); !errors.Is(err, shared.ErrNetworkFailure) {
			t.Errorf("expected ErrNetworkFailure, got %v", err)
		}

		preview, _ := h.music.Results(models.ProviderCatalogPreview)
		handoff, _ := h.music.Results(models.ProviderCatalogHandoff)
		if preview.Status != catalog.StatusSucceeded || handoff.Status != catalog.StatusFailed {
			t.Errorf("unexpected statuses: %s / %s", preview.Status, handoff.Status)
		}
	})

	t.Run("blank search is ignored", func(t *testing.T) {
		h := newHarness(t)
		_ = h.music.Search(ctx, models.ProviderCatalogPreview, "   ")
		if len(h.catalogSearch.Queries) != 0 {
			t.Errorf("expected no provider call, got %v", h.catalogSearch.Queries)
		}
	})

	t.Run("unknown kind", func(t *testing.T) {
		h := newHarness(t)
		if _, err := h.music.Results(models.ProviderLinkEmbed); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if err := h.music.Popular(ctx, models.ProviderLinkEmbed); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if got := h.music.CatalogName(models.ProviderLinkEmbed); got != models.ProviderLinkEmbed.Label() {
			t.Errorf("expected label fallback, got %q", got)
		}
	})
}

func TestMusicPersistence(t *testing.T) {
	t.Run("without persister", func(t *testing.T) {
		h := newHarness(t)
		if err := h.music.Save(); !errors.Is(err, shared.ErrNotImplemented) {
			t.Errorf("expected ErrNotImplemented, got %v", err)
		}
		if _, err := h.music.Load(); !errors.Is(err, shared.ErrNotImplemented) {
			t.Errorf("expected ErrNotImplemented, got %v", err)
		}
	})

	t.Run("save and load through sqlite", func(t *testing.T) {
		db, err := shared.OpenDatabase(shared.DatabaseConfig{Path: shared.MemoryDatabase})
		if err != nil {
			t.Fatal(err)
		}
		defer db.Close()
		if _, err := db.Exec(`INSERT INTO users (id, sequence, username, created_at, updated_at) VALUES ('user-1', 1, 'tester', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`); err != nil {
			t.Fatal(err)
		}
		repo := repositories.NewLibraryRepository(db)

		h := newHarness(t, repo)
		_, _ = h.music.Add(catalogTrack("1"))
		_, _, _ = h.music.AddLink("https://youtu.be/abcdefghijk")
		if err := h.music.Save(); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		fresh := newHarness(t, repo)
		n, err := fresh.music.Load()
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if n != 2 || len(fresh.music.Library()) != 2 {
			t.Errorf("expected 2 restored tracks, got %d", n)
		}
		if fresh.music.Library()[1].ID() != "abcdefghijk" {
			t.Error("expected order to be preserved")
		}
	})
}

// package controller composes providers, the library, playback and catalogs for one logged-in user.
package controller

import (
	"context"
	"fmt"
	"slices"

	"github.com/desertthunder/mixtape/internal/catalog"
	"github.com/desertthunder/mixtape/internal/library"
	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/playback"
	"github.com/desertthunder/mixtape/internal/services"
	"github.com/desertthunder/mixtape/internal/session"
	"github.com/desertthunder/mixtape/internal/shared"
)

// Options wires the collaborators of a [Music] controller.
type Options struct {
	// Links resolves pasted links. Optional.
	Links services.LinkResolver

	// Searchers get one catalog each, keyed by their provider kind. A later searcher for the same kind wins.
	Searchers []services.Searcher
	Catalog   catalog.Options

	// Player is the playback session. When nil one is built from Mechanisms.
	Player     *playback.Controller
	Mechanisms playback.Mechanisms

	// Persister stores library snapshots for Save and Load. Optional.
	Persister library.Persister
}

// Music is the host-facing music controller.
type Music struct {
	user      *models.User
	links     services.LinkResolver
	catalogs  map[models.ProviderKind]*catalog.Catalog
	library   *library.Store
	player    *playback.Controller
	persister library.Persister
}

// New builds a [Music] controller for the session's user.
//
// It fails with [shared.ErrNotAuthenticated] when sess is not authenticated; hosts redirect to login instead.
func New(sess session.Authenticator, opts Options) (*Music, error) {
	if sess == nil || !sess.IsAuthenticated() {
		return nil, shared.ErrNotAuthenticated
	}
	user, ok := sess.CurrentUser()
	if !ok || user == nil {
		return nil, shared.ErrNotAuthenticated
	}

	player := opts.Player
	if player == nil {
		player = playback.New(opts.Mechanisms)
	}

	m := &Music{
		user:      user,
		links:     opts.Links,
		catalogs:  make(map[models.ProviderKind]*catalog.Catalog),
		library:   library.New(player),
		player:    player,
		persister: opts.Persister,
	}
	for _, s := range opts.Searchers {
		if s != nil {
			m.catalogs[s.Kind()] = catalog.New(s, opts.Catalog)
		}
	}
	return m, nil
}

// User returns the logged-in user.
func (m *Music) User() *models.User {
	return m.user
}

// AddLink resolves input and adds the track to the library.
//
// It returns the track and whether it was new. Unrecognized input fails with [shared.ErrInvalidLink]
// and leaves the library untouched.
func (m *Music) AddLink(input string) (models.Track, bool, error) {
	if m.links == nil {
		return models.Track{}, false, fmt.Errorf("%w: no link resolver configured", shared.ErrNotImplemented)
	}
	t, err := m.links.ResolveFromInput(input)
	if err != nil {
		return models.Track{}, false, err
	}
	return t, m.library.Add(t), nil
}

// AddResult adds the search result at index from the catalog of the given kind.
func (m *Music) AddResult(kind models.ProviderKind, index int) (models.Track, bool, error) {
	c, err := m.catalog(kind)
	if err != nil {
		return models.Track{}, false, err
	}
	t, err := c.Result(index)
	if err != nil {
		return models.Track{}, false, err
	}
	return t, m.library.Add(t), nil
}

// Add stores t in the library. The first track with a given identity wins.
func (m *Music) Add(t models.Track) (bool, error) {
	if err := t.Validate(); err != nil {
		return false, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	return m.library.Add(t), nil
}

// Remove deletes the track from the library, stopping playback if it is the session's track.
func (m *Music) Remove(kind models.ProviderKind, id string) error {
	if !m.library.Remove(kind, id) {
		return fmt.Errorf("%w: %s", shared.ErrTrackNotFound, models.Identity{Kind: kind, ID: id})
	}
	return nil
}

// Play plays or toggles the track with the given identity.
//
// The track is looked up in the library first, then in the catalog results of its kind.
func (m *Music) Play(ctx context.Context, id models.Identity) error {
	t, ok := m.find(id)
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrTrackNotFound, id)
	}
	return m.player.Play(ctx, t)
}

// PlayTrack plays or toggles t directly.
func (m *Music) PlayTrack(ctx context.Context, t models.Track) error {
	return m.player.Play(ctx, t)
}

func (m *Music) Pause() error       { return m.player.Pause() }
func (m *Music) Resume() error      { return m.player.Resume() }
func (m *Music) TogglePause() error { return m.player.TogglePause() }
func (m *Music) Stop() error        { return m.player.Stop() }

// Acknowledge clears a failed playback session.
func (m *Music) Acknowledge() bool {
	return m.player.Acknowledge()
}

// Search submits q to the catalog of the given kind. Blank queries are ignored.
func (m *Music) Search(ctx context.Context, kind models.ProviderKind, q string) error {
	c, err := m.catalog(kind)
	if err != nil {
		return err
	}
	return c.SubmitQuery(ctx, q)
}

// Popular loads the default listing of the given kind.
func (m *Music) Popular(ctx context.Context, kind models.ProviderKind) error {
	c, err := m.catalog(kind)
	if err != nil {
		return err
	}
	return c.LoadDefault(ctx)
}

// Results returns the catalog slot of the given kind.
func (m *Music) Results(kind models.ProviderKind) (catalog.Snapshot, error) {
	c, err := m.catalog(kind)
	if err != nil {
		return catalog.Snapshot{}, err
	}
	return c.Snapshot(), nil
}

// Catalogs lists the search-capable provider kinds in declaration order.
func (m *Music) Catalogs() []models.ProviderKind {
	kinds := make([]models.ProviderKind, 0, len(m.catalogs))
	for _, k := range models.ProviderKinds {
		if _, ok := m.catalogs[k]; ok {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// CatalogName returns the display name of the provider behind the catalog of the given kind.
func (m *Music) CatalogName(kind models.ProviderKind) string {
	if c, ok := m.catalogs[kind]; ok {
		return c.Name()
	}
	return kind.Label()
}

// Library returns the library contents, oldest first.
func (m *Music) Library() []models.Track {
	return m.library.List()
}

// LibraryByProvider returns the library contents of one provider kind.
func (m *Music) LibraryByProvider(kind models.ProviderKind) []models.Track {
	return m.library.ListByProvider(kind)
}

// Playback returns the current playback session.
func (m *Music) Playback() playback.Snapshot {
	return m.player.Snapshot()
}

// Events delivers playback changes.
func (m *Music) Events() <-chan playback.Snapshot {
	return m.player.Events()
}

// Save writes the library snapshot for the user.
func (m *Music) Save() error {
	if m.persister == nil {
		return fmt.Errorf("%w: no library persister configured", shared.ErrNotImplemented)
	}
	return m.library.Snapshot(m.persister, m.user.ID())
}

// Load merges the user's saved snapshot into the library and returns how many tracks were added.
func (m *Music) Load() (int, error) {
	if m.persister == nil {
		return 0, fmt.Errorf("%w: no library persister configured", shared.ErrNotImplemented)
	}
	return m.library.Restore(m.persister, m.user.ID())
}

// Close stops playback.
func (m *Music) Close() error {
	return m.player.Close()
}

func (m *Music) catalog(kind models.ProviderKind) (*catalog.Catalog, error) {
	c, ok := m.catalogs[kind]
	if !ok {
		return nil, fmt.Errorf("%w: no catalog for %s", shared.ErrInvalidArgument, kind)
	}
	return c, nil
}

func (m *Music) find(id models.Identity) (models.Track, bool) {
	if t, ok := m.library.Get(id); ok {
		return t, true
	}
	c, ok := m.catalogs[id.Kind]
	if !ok {
		return models.Track{}, false
	}
	results := c.Snapshot().Results
	if i := slices.IndexFunc(results, func(t models.Track) bool { return t.Identity() == id }); i >= 0 {
		return results[i], true
	}
	return models.Track{}, false
}

// package library implements the user's deduplicated, ordered track collection.
package library

import (
	"fmt"
	"sync"

	"github.com/desertthunder/mixtape/internal/models"
)

// Stopper tears down playback for a track leaving the library.
//
// Implemented by [playback.Controller].
type Stopper interface {
	// StopIfTargeting stops the session when it targets id and reports whether it did.
	StopIfTargeting(id models.Identity) bool
}

// Persister stores library snapshots outside the process.
type Persister interface {
	SaveLibrary(userID string, tracks []models.Track) error
	LoadLibrary(userID string) ([]models.Track, error)
}

// Store is an insertion-ordered set of tracks keyed by [models.Identity].
//
// The newest track is last. A Store is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	tracks  []models.Track
	index   map[models.Identity]int
	stopper Stopper
}

// New creates an empty [Store]. stopper may be nil when no playback session exists.
func New(stopper Stopper) *Store {
	return &Store{index: make(map[models.Identity]int), stopper: stopper}
}

// SetStopper replaces the playback collaborator consulted on removal.
func (s *Store) SetStopper(stopper Stopper) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopper = stopper
}

// Add appends t unless a track with the same identity is already present.
//
// The first write wins: a later track with equal identity is ignored, even if its metadata differs.
// Tracks that fail validation are never stored.
func (s *Store) Add(t models.Track) bool {
	if t.Validate() != nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[t.Identity()]; ok {
		return false
	}
	s.index[t.Identity()] = len(s.tracks)
	s.tracks = append(s.tracks, t)
	return true
}

// Refresh replaces the stored track sharing t's identity, keeping its position.
//
// It reports false when no such track exists.
func (s *Store) Refresh(t models.Track) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[t.Identity()]
	if !ok {
		return false
	}
	s.tracks[i] = s.tracks[i].WithMetadata(t)
	return true
}

// Remove deletes the track with the given identity. Absent tracks are a no-op.
//
// When the playback session targets the removed track it is stopped before Remove returns.
func (s *Store) Remove(kind models.ProviderKind, id string) bool {
	key := models.Identity{Kind: kind, ID: id}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[key]
	if !ok {
		return false
	}

	s.tracks = append(s.tracks[:i], s.tracks[i+1:]...)
	s.reindex()

	if s.stopper != nil {
		s.stopper.StopIfTargeting(key)
	}
	return true
}

// ListByProvider returns the tracks of one provider kind in library order.
func (s *Store) ListByProvider(kind models.ProviderKind) []models.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Track, 0, len(s.tracks))
	for _, t := range s.tracks {
		if t.Kind() == kind {
			out = append(out, t)
		}
	}
	return out
}

// List returns a copy of every track in library order.
func (s *Store) List() []models.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Track, len(s.tracks))
	copy(out, s.tracks)
	return out
}

// Get returns the track with the given identity.
func (s *Store) Get(id models.Identity) (models.Track, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return models.Track{}, false
	}
	return s.tracks[i], true
}

// Contains reports whether a track with the given identity is stored.
func (s *Store) Contains(id models.Identity) bool {
	_, ok := s.Get(id)
	return ok
}

// Len returns the number of stored tracks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tracks)
}

// Snapshot writes the current contents through p.
func (s *Store) Snapshot(p Persister, userID string) error {
	if err := p.SaveLibrary(userID, s.List()); err != nil {
		return fmt.Errorf("failed to save library: %w", err)
	}
	return nil
}

// Restore loads a snapshot through p and adds its tracks with the usual dedup rules.
//
// Tracks already in the store are kept. It returns the number of tracks added.
func (s *Store) Restore(p Persister, userID string) (int, error) {
	tracks, err := p.LoadLibrary(userID)
	if err != nil {
		return 0, fmt.Errorf("failed to load library: %w", err)
	}

	added := 0
	for _, t := range tracks {
		if s.Add(t) {
			added++
		}
	}
	return added, nil
}

func (s *Store) reindex() {
	clear(s.index)
	for i, t := range s.tracks {
		s.index[t.Identity()] = i
	}
}

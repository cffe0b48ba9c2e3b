package playback

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
)

// Handle is a live playback resource owned by the [Controller].
//
// Release must be safe to call more than once.
type Handle interface {
	Pause() error
	Resume() error
	Release() error
}

// Mechanism acquires a [Handle] that is already playing t.
//
// onEnded, when non-nil, must be called at most once when the track finishes on its own.
// It must not be called after Release.
type Mechanism interface {
	Acquire(ctx context.Context, t models.Track, onEnded func()) (Handle, error)
}

// MechanismFunc adapts a function to [Mechanism].
type MechanismFunc func(ctx context.Context, t models.Track, onEnded func()) (Handle, error)

// Acquire calls f.
func (f MechanismFunc) Acquire(ctx context.Context, t models.Track, onEnded func()) (Handle, error) {
	return f(ctx, t, onEnded)
}

// Mechanisms is the full set of mechanisms, one per playback style.
type Mechanisms struct {
	Audio   Mechanism // catalog-preview: streams the preview URL and reports the end of the track
	Embed   Mechanism // link-embed: render-only embed target, never ends on its own
	Handoff Mechanism // catalog-handoff: opens the URL externally, returns no handle
}

// Embed is the render-only embed target used for link-embed tracks.
//
// It records which track the embed surface shows. UIs read it through [Embed.Target].
type Embed struct {
	// Open, when set, is called with the embed URL on every acquisition (e.g. [shared.OpenBrowser]).
	Open func(url string) error

	mu     sync.Mutex
	seq    uint64
	target models.Track
	paused bool
}

// NewEmbed creates an [Embed]. open may be nil.
func NewEmbed(open func(string) error) *Embed {
	return &Embed{Open: open}
}

// Acquire sets t as the active embed target. onEnded is ignored: embeds never report an end.
func (e *Embed) Acquire(_ context.Context, t models.Track, _ func()) (Handle, error) {
	if t.SourceURL() == "" {
		return nil, fmt.Errorf("track %s has no embed url", t.Identity())
	}
	if e.Open != nil {
		if err := e.Open(t.SourceURL()); err != nil {
			return nil, err
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.seq++
	e.target = t
	e.paused = false
	return &embedHandle{embed: e, seq: e.seq}, nil
}

// Target returns the track currently shown and whether it is paused.
func (e *Embed) Target() (t models.Track, paused, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.target, e.paused, !e.target.IsZero()
}

type embedHandle struct {
	embed *Embed
	seq   uint64
}

func (h *embedHandle) set(fn func(e *Embed)) {
	h.embed.mu.Lock()
	defer h.embed.mu.Unlock()
	if h.embed.seq == h.seq {
		fn(h.embed)
	}
}

func (h *embedHandle) Pause() error  { h.set(func(e *Embed) { e.paused = true }); return nil }
func (h *embedHandle) Resume() error { h.set(func(e *Embed) { e.paused = false }); return nil }

func (h *embedHandle) Release() error {
	h.set(func(e *Embed) {
		e.target = models.Track{}
		e.paused = false
	})
	return nil
}

// Handoff opens catalog-handoff tracks outside the session.
type Handoff struct {
	Open func(url string) error
}

// NewHandoff creates a [Handoff]. A nil open uses [shared.OpenBrowser].
func NewHandoff(open func(string) error) *Handoff {
	if open == nil {
		open = shared.OpenBrowser
	}
	return &Handoff{Open: open}
}

// Acquire opens the track URL and returns a nil handle.
func (h *Handoff) Acquire(_ context.Context, t models.Track, _ func()) (Handle, error) {
	if t.SourceURL() == "" {
		return nil, fmt.Errorf("track %s has no hand-off url", t.Identity())
	}
	if err := h.Open(t.SourceURL()); err != nil {
		return nil, err
	}
	return nil, nil
}

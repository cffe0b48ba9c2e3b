// Playback session state machine
package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
)

const defaultEventBuffer = 16

// Controller owns the one playback session and its mechanism handle.
//
// All handle acquisition and release goes through Play, Pause, Resume, Stop and StopIfTargeting.
// Acquiring a new handle always releases the previous one first, so at most one is alive.
// A Controller is safe for concurrent use.
type Controller struct {
	mechanisms     Mechanisms
	acquireTimeout time.Duration

	mu         sync.Mutex
	state      State
	track      models.Track
	handle     Handle
	sessionID  string
	err        error
	gen        uint64 // incremented whenever the current session is replaced or torn down
	endedEarly bool   // mechanism reported an end while still loading

	events chan Snapshot
	closed bool
}

// Option configures a [Controller].
type Option func(*Controller)

// WithAcquireTimeout bounds how long a mechanism may stay in Loading before the session fails.
//
// Zero means no limit.
func WithAcquireTimeout(d time.Duration) Option {
	return func(c *Controller) { c.acquireTimeout = d }
}

// WithEventBuffer sets the capacity of the [Controller.Events] channel.
func WithEventBuffer(n int) Option {
	return func(c *Controller) {
		if n >= 0 {
			c.events = make(chan Snapshot, n)
		}
	}
}

// New creates an idle [Controller] dispatching to the given mechanisms.
func New(m Mechanisms, opts ...Option) *Controller {
	c := &Controller{
		mechanisms: m,
		events:     make(chan Snapshot, defaultEventBuffer),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Events delivers a snapshot after every state change.
//
// Sends never block: when the buffer is full the snapshot is dropped. Use [Controller.Snapshot] for the current value.
func (c *Controller) Events() <-chan Snapshot {
	return c.events
}

// Snapshot returns the current session.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Current returns the identity of the targeted track.
func (c *Controller) Current() (models.Identity, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.track.IsZero() {
		return models.Identity{}, false
	}
	return c.track.Identity(), true
}

// Play starts t, or toggles it when t is already the session's track.
//
// Toggle: Playing becomes Paused and Paused becomes Playing. A repeated Play while Loading is a no-op.
// Otherwise any existing handle is released before the mechanism for t's provider kind is acquired.
// Hand-off tracks are opened externally and leave the session Idle.
//
// Mechanism failures move the session to Failed and return an error wrapping [shared.ErrMechanism].
// If a newer Play or a Stop supersedes this call while loading, it returns [shared.ErrSuperseded].
func (c *Controller) Play(ctx context.Context, t models.Track) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	c.mu.Lock()

	if c.track.SameAs(t) {
		switch c.state {
		case StatePlaying:
			defer c.mu.Unlock()
			return c.pauseLocked()
		case StatePaused:
			defer c.mu.Unlock()
			return c.resumeLocked()
		case StateLoading:
			c.mu.Unlock()
			return nil
		}
	}

	var (
		mech    Mechanism
		onEnded func()
	)

	releaseErr := c.teardownLocked()
	c.gen++
	gen := c.gen

	switch t.Kind() {
	case models.ProviderCatalogPreview:
		mech = c.mechanisms.Audio
		onEnded = func() { c.mechanismEnded(gen) }
	case models.ProviderLinkEmbed:
		mech = c.mechanisms.Embed
	case models.ProviderCatalogHandoff:
		mech = c.mechanisms.Handoff
	default:
		c.mu.Unlock()
		return fmt.Errorf("%w: unknown provider kind %d", shared.ErrMechanism, t.Kind())
	}

	if mech == nil {
		err := fmt.Errorf("%w: no mechanism for %s", shared.ErrMechanism, t.Kind())
		c.failLocked(t, err)
		c.mu.Unlock()
		return err
	}

	if t.Kind() == models.ProviderCatalogHandoff {
		c.publishLocked()
		c.mu.Unlock()
		return c.handoff(ctx, mech, t, gen, releaseErr)
	}

	c.state = StateLoading
	c.track = t
	c.sessionID = shared.GenerateID()
	c.publishLocked()
	c.mu.Unlock()

	if c.acquireTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.acquireTimeout)
		defer cancel()
	}

	h, err := acquire(ctx, mech, t, onEnded)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen != gen {
		if h != nil {
			_ = h.Release()
		}
		return fmt.Errorf("%w: play %s", shared.ErrSuperseded, t.Identity())
	}

	if err != nil {
		err = fmt.Errorf("%w: %w", shared.ErrMechanism, err)
		c.failLocked(t, err)
		return err
	}

	c.handle = h
	c.state = StatePlaying
	c.publishLocked()

	if c.endedEarly {
		c.endLocked()
	}
	return releaseErr
}

// acquire runs the mechanism, returning early with ctx's error if it does not answer in time.
//
// A handle produced after the deadline is released.
func acquire(ctx context.Context, mech Mechanism, t models.Track, onEnded func()) (Handle, error) {
	type result struct {
		h   Handle
		err error
	}
	done := make(chan result, 1)
	go func() {
		h, err := mech.Acquire(ctx, t, onEnded)
		done <- result{h, err}
	}()

	select {
	case r := <-done:
		if r.err != nil && errors.Is(r.err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %w", shared.ErrTimeout, r.err)
		}
		return r.h, r.err
	case <-ctx.Done():
		go func() {
			if r := <-done; r.h != nil {
				_ = r.h.Release()
			}
		}()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %w", shared.ErrTimeout, ctx.Err())
		}
		return nil, ctx.Err()
	}
}

func (c *Controller) handoff(ctx context.Context, mech Mechanism, t models.Track, gen uint64, releaseErr error) error {
	h, err := mech.Acquire(ctx, t, nil)
	if h != nil {
		_ = h.Release()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil && c.gen == gen {
		err = fmt.Errorf("%w: %w", shared.ErrMechanism, err)
		c.failLocked(t, err)
		return err
	}
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrMechanism, err)
	}
	return releaseErr
}

// Pause moves Playing to Paused.
func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StatePlaying {
		return fmt.Errorf("%w: pause from %s", shared.ErrInvalidTransition, c.state)
	}
	return c.pauseLocked()
}

// Resume moves Paused to Playing.
func (c *Controller) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StatePaused {
		return fmt.Errorf("%w: resume from %s", shared.ErrInvalidTransition, c.state)
	}
	return c.resumeLocked()
}

// TogglePause pauses a playing session and resumes a paused one.
func (c *Controller) TogglePause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StatePlaying:
		return c.pauseLocked()
	case StatePaused:
		return c.resumeLocked()
	default:
		return fmt.Errorf("%w: toggle from %s", shared.ErrInvalidTransition, c.state)
	}
}

// Stop releases the handle unconditionally and returns to Idle from any state.
//
// The session is Idle even when releasing fails; the release error is returned wrapped in [shared.ErrMechanism].
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.state
	err := c.teardownLocked()
	c.gen++
	if prev != StateIdle {
		c.publishLocked()
	}
	return err
}

// StopIfTargeting stops the session when its track has the given identity.
func (c *Controller) StopIfTargeting(id models.Identity) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.track.IsZero() || c.track.Identity() != id {
		return false
	}
	_ = c.teardownLocked()
	c.gen++
	c.publishLocked()
	return true
}

// Acknowledge clears a Failed session back to Idle and reports whether it did.
func (c *Controller) Acknowledge() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateFailed {
		return false
	}
	_ = c.teardownLocked()
	c.publishLocked()
	return true
}

// Close stops playback and closes the events channel. The controller must not be used afterwards.
func (c *Controller) Close() error {
	err := c.Stop()

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.events)
	}
	return err
}

// mechanismEnded is the end-of-track callback registered with the audio mechanism for generation gen.
func (c *Controller) mechanismEnded(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		return
	}
	switch c.state {
	case StateLoading:
		c.endedEarly = true
	case StatePlaying, StatePaused:
		c.endLocked()
	}
}

// endLocked runs Ended and then the automatic return to Idle.
func (c *Controller) endLocked() {
	c.state = StateEnded
	c.publishLocked()

	_ = c.teardownLocked()
	c.gen++
	c.publishLocked()
}

func (c *Controller) pauseLocked() error {
	if err := c.handle.Pause(); err != nil {
		return fmt.Errorf("%w: pause: %w", shared.ErrMechanism, err)
	}
	c.state = StatePaused
	c.publishLocked()
	return nil
}

func (c *Controller) resumeLocked() error {
	if err := c.handle.Resume(); err != nil {
		return fmt.Errorf("%w: resume: %w", shared.ErrMechanism, err)
	}
	c.state = StatePlaying
	c.publishLocked()
	return nil
}

func (c *Controller) failLocked(t models.Track, err error) {
	c.handle = nil
	c.track = t
	c.state = StateFailed
	c.err = err
	c.endedEarly = false
	c.publishLocked()
}

// teardownLocked releases the handle and resets the session to Idle without publishing.
func (c *Controller) teardownLocked() error {
	var err error
	if c.handle != nil {
		if rerr := c.handle.Release(); rerr != nil {
			err = fmt.Errorf("%w: release: %w", shared.ErrMechanism, rerr)
		}
	}
	c.handle = nil
	c.track = models.Track{}
	c.sessionID = ""
	c.state = StateIdle
	c.err = nil
	c.endedEarly = false
	return err
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{SessionID: c.sessionID, Track: c.track, State: c.state, Err: c.err}
}

func (c *Controller) publishLocked() {
	if c.closed {
		return
	}
	select {
	case c.events <- c.snapshotLocked():
	default:
	}
}

// IsSuperseded reports whether err only means a newer request replaced this one.
func IsSuperseded(err error) bool {
	return errors.Is(err, shared.ErrSuperseded)
}

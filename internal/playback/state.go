package playback

import "github.com/desertthunder/mixtape/internal/models"

// State represents the playback session state.
type State int

const (
	StateIdle    State = iota // No session
	StateLoading              // Mechanism is being acquired
	StatePlaying              // Mechanism acquired and running
	StatePaused               // Mechanism held but paused
	StateEnded                // Track finished; transient, always followed by Idle
	StateFailed               // Mechanism failed to start; cleared by Acknowledge, Stop or a new Play
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateEnded:
		return "ended"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Active reports whether a mechanism handle may be alive in this state.
func (s State) Active() bool {
	return s == StateLoading || s == StatePlaying || s == StatePaused
}

// Snapshot is a point-in-time copy of the session.
type Snapshot struct {
	SessionID string
	Track     models.Track // zero when no track is targeted
	State     State
	Err       error // set in StateFailed
}

// HasTrack reports whether the snapshot targets a track.
func (s Snapshot) HasTrack() bool {
	return !s.Track.IsZero()
}

// Targets reports whether the snapshot targets the track with the given identity.
func (s Snapshot) Targets(id models.Identity) bool {
	return s.HasTrack() && s.Track.Identity() == id
}

package models

import "fmt"

// LibraryEntry is one persisted position in a user's library snapshot.
type LibraryEntry struct {
	entity
	userID   string
	position int
	track    Track
}

// NewLibraryEntry creates a [LibraryEntry] for the track at the given position.
func NewLibraryEntry(sequence int, userID string, position int, track Track) *LibraryEntry {
	return &LibraryEntry{
		entity:   newEntity(sequence),
		userID:   userID,
		position: position,
		track:    track,
	}
}

func (e *LibraryEntry) UserID() string { return e.userID }
func (e *LibraryEntry) Position() int  { return e.position }
func (e *LibraryEntry) Track() Track   { return e.track }

// Validate checks required fields.
func (e *LibraryEntry) Validate() error {
	if e.id == "" {
		return fmt.Errorf("library entry id is required")
	}
	if e.userID == "" {
		return fmt.Errorf("library entry user id is required")
	}
	if e.position < 0 {
		return fmt.Errorf("library entry position must be non-negative")
	}
	return e.track.Validate()
}

package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
)

const entryColumns = `id, sequence, user_id, position, kind, track_id, title, artist, album, source_url, thumbnail_url, duration, created_at, updated_at, deleted_at`

// LibraryRepository implements [models.Repository] for [models.LibraryEntry] persistence.
//
// SaveLibrary and LoadLibrary persist a whole library as an ordered snapshot.
type LibraryRepository struct {
	db *sql.DB
}

// NewLibraryRepository creates a new [LibraryRepository] with the given database connection
func NewLibraryRepository(db *sql.DB) *LibraryRepository {
	return &LibraryRepository{db: db}
}

// SaveLibrary replaces the user's snapshot with tracks, keeping their order.
func (r *LibraryRepository) SaveLibrary(userID string, tracks []models.Track) error {
	if userID == "" {
		return fmt.Errorf("%w: user id is required", shared.ErrMissingArgument)
	}

	var first int
	if len(tracks) > 0 {
		seq, err := ReserveSequence(r.db, "library_entries", len(tracks))
		if err != nil {
			return fmt.Errorf("failed to generate sequence: %w", err)
		}
		first = seq
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM library_entries WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to clear library: %w", err)
	}

	now := time.Now()
	for i, t := range tracks {
		entry := models.NewLibraryEntry(first+i, userID, i, t)
		entry.SetID(shared.GenerateID())
		entry.SetCreatedAt(now)
		entry.SetUpdatedAt(now)

		if err := entry.Validate(); err != nil {
			return fmt.Errorf("validation failed at position %d: %w", i, err)
		}
		if err := insertEntry(tx, entry); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit library: %w", err)
	}
	return nil
}

// LoadLibrary returns the user's snapshot in position order.
func (r *LibraryRepository) LoadLibrary(userID string) ([]models.Track, error) {
	entries, err := r.List(map[string]any{"user_id": userID})
	if err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(entries))
	for _, e := range entries {
		tracks = append(tracks, e.Track())
	}
	return tracks, nil
}

// Create inserts a single entry with generated ID and sequence
func (r *LibraryRepository) Create(entry *models.LibraryEntry) error {
	sequence, err := NextSequence(r.db, "library_entries")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	entry.SetID(shared.GenerateID())
	entry.SetSequence(sequence)

	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if err := insertEntry(r.db, entry); err != nil {
		return err
	}
	return nil
}

// Get retrieves an entry by ID, excluding soft-deleted entries
func (r *LibraryRepository) Get(id string) (*models.LibraryEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM library_entries WHERE id = ? AND deleted_at IS NULL`
	entry, err := scanEntry(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: entry %s", shared.ErrTrackNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query library entry: %w", err)
	}
	return entry, nil
}

// Update rewrites an entry's position and track metadata
func (r *LibraryRepository) Update(entry *models.LibraryEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	entry.SetUpdatedAt(now)

	t := entry.Track()
	query := `
		UPDATE library_entries
		SET position = ?, title = ?, artist = ?, album = ?, source_url = ?, thumbnail_url = ?, duration = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, entry.Position(), t.Title(), t.Artist(), t.Album(), t.SourceURL(),
		t.ThumbnailURL(), durationValue(t), now, entry.ID())
	if err != nil {
		return fmt.Errorf("failed to update library entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: entry %s (or already deleted)", shared.ErrTrackNotFound, entry.ID())
	}
	return nil
}

// Delete soft-deletes an entry by ID
func (r *LibraryRepository) Delete(id string) error {
	result, err := r.db.Exec(`UPDATE library_entries SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete library entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: entry %s (or already deleted)", shared.ErrTrackNotFound, id)
	}
	return nil
}

// List retrieves live entries ordered by position.
//
// Supported criteria: "user_id" and "kind" ([models.ProviderKind] or its string form).
func (r *LibraryRepository) List(criteria map[string]any) ([]*models.LibraryEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM library_entries WHERE deleted_at IS NULL`
	args := []any{}

	if userID, ok := criteria["user_id"].(string); ok && userID != "" {
		query += " AND user_id = ?"
		args = append(args, userID)
	}

	switch kind := criteria["kind"].(type) {
	case models.ProviderKind:
		query += " AND kind = ?"
		args = append(args, kind.String())
	case string:
		if kind != "" {
			query += " AND kind = ?"
			args = append(args, kind)
		}
	}

	query += " ORDER BY user_id ASC, position ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query library entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.LibraryEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan library entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return entries, nil
}

// execer is satisfied by [sql.DB] and [sql.Tx].
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func insertEntry(db execer, entry *models.LibraryEntry) error {
	t := entry.Track()
	query := `
		INSERT INTO library_entries (
			id, sequence, user_id, position, kind, track_id, title, artist, album,
			source_url, thumbnail_url, duration, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query, entry.ID(), entry.Sequence(), entry.UserID(), entry.Position(),
		t.Kind().String(), t.ID(), t.Title(), t.Artist(), t.Album(), t.SourceURL(), t.ThumbnailURL(),
		durationValue(t), entry.CreatedAt(), entry.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert library entry %s: %w", t.Identity(), err)
	}
	return nil
}

func durationValue(t models.Track) sql.NullInt64 {
	d, ok := t.Duration()
	return sql.NullInt64{Int64: int64(d), Valid: ok}
}

func scanEntry(s scanner) (*models.LibraryEntry, error) {
	var (
		id, userID, kind, trackID, title, artist, album, sourceURL, thumbnailURL string

		sequence, position int
		duration           sql.NullInt64
		createdAt          time.Time
		updatedAt          time.Time
		deletedAt          sql.NullTime
	)

	err := s.Scan(&id, &sequence, &userID, &position, &kind, &trackID, &title, &artist, &album,
		&sourceURL, &thumbnailURL, &duration, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	pk, err := models.ParseProviderKind(kind)
	if err != nil {
		return nil, fmt.Errorf("entry %s: %w", id, err)
	}

	f := models.TrackFields{
		ID:           trackID,
		Title:        title,
		Artist:       artist,
		Album:        album,
		SourceURL:    sourceURL,
		ThumbnailURL: thumbnailURL,
		Kind:         pk,
	}
	if duration.Valid {
		d := int(duration.Int64)
		f.Duration = &d
	}

	entry := models.NewLibraryEntry(sequence, userID, position, models.NewTrack(f))
	entry.SetID(id)
	entry.SetCreatedAt(createdAt)
	entry.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		entry.SetDeletedAt(&deletedAt.Time)
	}
	return entry, nil
}

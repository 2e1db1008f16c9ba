package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/ymsync/internal/models"
	"github.com/desertthunder/ymsync/internal/shared"
)

const outcomeColumns = `id, run_id, spotify_id, title, artists, added_at, yandex_like_id, outcome, created_at`

// TrackOutcomeRepository persists [models.TrackOutcome] rows in the sync_tracks table.
type TrackOutcomeRepository struct {
	db *sql.DB
}

// NewTrackOutcomeRepository creates a new TrackOutcomeRepository with the given database connection
func NewTrackOutcomeRepository(db *sql.DB) *TrackOutcomeRepository {
	return &TrackOutcomeRepository{db: db}
}

// Create inserts an outcome, generating an id when it has none.
func (r *TrackOutcomeRepository) Create(o *models.TrackOutcome) error {
	if o.ID == "" {
		o.ID = shared.GenerateID()
	}

	if err := o.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `INSERT INTO sync_tracks (` + outcomeColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Exec(query,
		o.ID,
		o.RunID,
		o.Track.ID,
		o.Track.Name,
		encodeArtists(o.Track.Artists),
		shared.FormatSpotifyTime(o.Track.AddedAt),
		o.LikeID,
		string(o.Outcome),
		o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert track outcome: %w", err)
	}

	return nil
}

// ListByRun returns a run's outcomes in the order they were recorded.
func (r *TrackOutcomeRepository) ListByRun(runID string) ([]models.TrackOutcome, error) {
	return r.List(map[string]any{"run_id": runID})
}

// List retrieves outcomes oldest first. Supported criteria: "run_id", "spotify_id", "outcome" and "limit".
func (r *TrackOutcomeRepository) List(criteria map[string]any) ([]models.TrackOutcome, error) {
	query := `SELECT ` + outcomeColumns + ` FROM sync_tracks WHERE 1 = 1`
	args := []any{}

	for _, col := range []string{"run_id", "spotify_id"} {
		if v, ok := criteria[col].(string); ok && v != "" {
			query += " AND " + col + " = ?"
			args = append(args, v)
		}
	}

	switch o := criteria["outcome"].(type) {
	case string:
		if o != "" {
			query += " AND outcome = ?"
			args = append(args, o)
		}
	case models.Outcome:
		query += " AND outcome = ?"
		args = append(args, string(o))
	}

	query += " ORDER BY created_at ASC, rowid ASC"
	query, args = limitClause(query, args, criteria)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query track outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []models.TrackOutcome
	for rows.Next() {
		var (
			o       models.TrackOutcome
			artists string
			addedAt string
			outcome string
		)
		if err := rows.Scan(&o.ID, &o.RunID, &o.Track.ID, &o.Track.Name, &artists, &addedAt,
			&o.LikeID, &outcome, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan track outcome: %w", err)
		}
		o.Track.Artists = decodeArtists(artists)
		o.Track.AddedAt = shared.ParseSpotifyTime(addedAt)
		o.Outcome = models.Outcome(outcome)
		outcomes = append(outcomes, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return outcomes, nil
}

// CountByOutcome tallies outcomes across all runs.
func (r *TrackOutcomeRepository) CountByOutcome() (map[models.Outcome]int, error) {
	rows, err := r.db.Query(`SELECT outcome, COUNT(*) FROM sync_tracks GROUP BY outcome`)
	if err != nil {
		return nil, fmt.Errorf("failed to count track outcomes: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Outcome]int)
	for rows.Next() {
		var (
			outcome string
			n       int
		)
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("failed to scan outcome count: %w", err)
		}
		counts[models.Outcome(outcome)] = n
	}

	return counts, rows.Err()
}

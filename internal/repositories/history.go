package repositories

import (
	"database/sql"

	"github.com/desertthunder/ymsync/internal/models"
)

// HistoryRecorder implements tasks.Recorder on top of [RunRepository] and [TrackOutcomeRepository].
type HistoryRecorder struct {
	Runs   *RunRepository
	Tracks *TrackOutcomeRepository
}

// NewHistoryRecorder creates a HistoryRecorder backed by db.
func NewHistoryRecorder(db *sql.DB) *HistoryRecorder {
	return &HistoryRecorder{
		Runs:   NewRunRepository(db),
		Tracks: NewTrackOutcomeRepository(db),
	}
}

// StartRun inserts the run row.
func (h *HistoryRecorder) StartRun(run *models.SyncRun) error {
	return h.Runs.Create(run)
}

// RecordTrack inserts one track outcome.
func (h *HistoryRecorder) RecordTrack(o *models.TrackOutcome) error {
	return h.Tracks.Create(o)
}

// FinishRun stores the final counters and status.
func (h *HistoryRecorder) FinishRun(run *models.SyncRun) error {
	return h.Runs.Update(run)
}

// Package repositories implements SQLite persistence for the sync run history.
//
// Key Implementations:
//   - [RunRepository] : one row per sync run with its counters and final status
//   - [TrackOutcomeRepository] : one row per track handled within a run
//   - [HistoryRecorder] : adapts both repositories to the sync engine's Recorder interface
//
// The schema lives in internal/shared/sql and is applied by [shared.RunMigrations].
// Deleting a run removes its track outcomes.
package repositories

package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/ymsync/internal/models"
	"github.com/desertthunder/ymsync/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func newRun(t *testing.T, repo *RunRepository, started time.Time) *models.SyncRun {
	t.Helper()
	run := &models.SyncRun{Status: models.RunRunning, StartedAt: started.UTC()}
	if err := repo.Create(run); err != nil {
		t.Fatalf("failed to create run: %v", err)
	}
	return run
}

func TestRunRepository(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("Create", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := newRun(t, repo, base)

		if run.ID == "" {
			t.Error("run ID should be set after creation")
		}
	})

	t.Run("Create Invalid", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		if err := repo.Create(&models.SyncRun{Status: "bogus", StartedAt: base}); err == nil {
			t.Error("expected validation error")
		}
	})

	t.Run("Get", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := newRun(t, repo, base)

		retrieved, err := repo.Get(run.ID)
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if retrieved.Status != models.RunRunning {
			t.Errorf("expected running, got %s", retrieved.Status)
		}
		if !retrieved.StartedAt.Equal(base) {
			t.Errorf("expected started_at %v, got %v", base, retrieved.StartedAt)
		}
		if retrieved.FinishedAt != nil {
			t.Error("finished_at should be nil for a running run")
		}
	})

	t.Run("Get Missing", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		if _, err := repo.Get("nope"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Update", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := newRun(t, repo, base)

		run.Total, run.Added, run.Skipped, run.NotFound, run.Failed = 5, 2, 1, 1, 1
		run.Finish(errors.New("boom"))
		if err := repo.Update(run); err != nil {
			t.Fatalf("failed to update run: %v", err)
		}

		retrieved, err := repo.Get(run.ID)
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if retrieved.Status != models.RunFailed || retrieved.Error != "boom" {
			t.Errorf("unexpected status %s / %q", retrieved.Status, retrieved.Error)
		}
		if retrieved.Total != 5 || retrieved.Added != 2 || retrieved.Skipped != 1 || retrieved.NotFound != 1 || retrieved.Failed != 1 {
			t.Errorf("unexpected counters %+v", retrieved)
		}
		if retrieved.FinishedAt == nil {
			t.Error("expected finished_at to be set")
		}
	})

	t.Run("Update Missing", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := &models.SyncRun{ID: "ghost", Status: models.RunCompleted, StartedAt: base}
		if err := repo.Update(run); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("List And Latest", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		first := newRun(t, repo, base)
		second := newRun(t, repo, base.Add(time.Hour))
		third := newRun(t, repo, base.Add(2*time.Hour))

		third.Finish(nil)
		if err := repo.Update(third); err != nil {
			t.Fatalf("failed to update run: %v", err)
		}

		all, err := repo.List(map[string]any{})
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(all) != 3 || all[0].ID != third.ID || all[2].ID != first.ID {
			t.Errorf("expected newest first, got %d runs", len(all))
		}

		limited, err := repo.List(map[string]any{"limit": 2})
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(limited) != 2 || limited[1].ID != second.ID {
			t.Errorf("expected 2 newest runs, got %d", len(limited))
		}

		completed, err := repo.List(map[string]any{"status": models.RunCompleted})
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(completed) != 1 || completed[0].ID != third.ID {
			t.Errorf("expected only the completed run, got %d", len(completed))
		}

		latest, err := repo.Latest()
		if err != nil {
			t.Fatalf("failed to get latest run: %v", err)
		}
		if latest.ID != third.ID {
			t.Errorf("expected latest %s, got %s", third.ID, latest.ID)
		}
	})

	t.Run("Latest Empty", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		if _, err := repo.Latest(); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Delete Removes Outcomes", func(t *testing.T) {
		db := setupTestDB(t)
		runs := NewRunRepository(db)
		tracks := NewTrackOutcomeRepository(db)
		run := newRun(t, runs, base)

		o := &models.TrackOutcome{RunID: run.ID, Track: models.Track{ID: "s1", Name: "Song"}, Outcome: models.OutcomeAdded, CreatedAt: base}
		if err := tracks.Create(o); err != nil {
			t.Fatalf("failed to create outcome: %v", err)
		}

		if err := runs.Delete(run.ID); err != nil {
			t.Fatalf("failed to delete run: %v", err)
		}
		if _, err := runs.Get(run.ID); !errors.Is(err, ErrNotFound) {
			t.Error("expected run to be gone")
		}

		left, err := tracks.ListByRun(run.ID)
		if err != nil {
			t.Fatalf("failed to list outcomes: %v", err)
		}
		if len(left) != 0 {
			t.Errorf("expected outcomes to be deleted, got %d", len(left))
		}

		if err := runs.Delete(run.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound on second delete, got %v", err)
		}
	})
}

func TestTrackOutcomeRepository(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("Create And List", func(t *testing.T) {
		db := setupTestDB(t)
		run := newRun(t, NewRunRepository(db), base)
		repo := NewTrackOutcomeRepository(db)

		added := base.Add(-time.Hour)
		inputs := []*models.TrackOutcome{
			{RunID: run.ID, Track: models.Track{ID: "s1", Name: "One", Artists: []string{"A", "B"}, AddedAt: &added}, LikeID: "1:2", Outcome: models.OutcomeAdded, CreatedAt: base},
			{RunID: run.ID, Track: models.Track{ID: "s2", Name: "Two"}, Outcome: models.OutcomeNotFound, CreatedAt: base.Add(time.Second)},
			{RunID: run.ID, Track: models.Track{ID: "s3", Name: "Three", Artists: []string{"C"}}, LikeID: "3:4", Outcome: models.OutcomeAlreadyLiked, CreatedAt: base.Add(2 * time.Second)},
		}
		for _, o := range inputs {
			if err := repo.Create(o); err != nil {
				t.Fatalf("failed to create outcome: %v", err)
			}
		}

		got, err := repo.ListByRun(run.ID)
		if err != nil {
			t.Fatalf("failed to list outcomes: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("expected 3 outcomes, got %d", len(got))
		}

		first := got[0]
		if first.Track.ID != "s1" || first.LikeID != "1:2" || first.Outcome != models.OutcomeAdded {
			t.Errorf("unexpected first outcome %+v", first)
		}
		if first.Track.ArtistLine() != "A, B" {
			t.Errorf("artists not round-tripped: %v", first.Track.Artists)
		}
		if first.Track.AddedAt == nil || !first.Track.AddedAt.Equal(added) {
			t.Errorf("added_at not round-tripped: %v", first.Track.AddedAt)
		}
		if got[1].Track.Artists != nil {
			t.Errorf("expected no artists, got %v", got[1].Track.Artists)
		}

		notFound, err := repo.List(map[string]any{"outcome": models.OutcomeNotFound})
		if err != nil {
			t.Fatalf("failed to filter outcomes: %v", err)
		}
		if len(notFound) != 1 || notFound[0].Track.ID != "s2" {
			t.Errorf("expected only s2, got %+v", notFound)
		}

		bySpotify, err := repo.List(map[string]any{"spotify_id": "s3", "limit": 1})
		if err != nil {
			t.Fatalf("failed to filter outcomes: %v", err)
		}
		if len(bySpotify) != 1 || bySpotify[0].Outcome != models.OutcomeAlreadyLiked {
			t.Errorf("unexpected spotify_id filter result %+v", bySpotify)
		}

		counts, err := repo.CountByOutcome()
		if err != nil {
			t.Fatalf("failed to count outcomes: %v", err)
		}
		if counts[models.OutcomeAdded] != 1 || counts[models.OutcomeNotFound] != 1 || counts[models.OutcomeAlreadyLiked] != 1 {
			t.Errorf("unexpected counts %v", counts)
		}
	})

	t.Run("Create Requires Run", func(t *testing.T) {
		repo := NewTrackOutcomeRepository(setupTestDB(t))
		o := &models.TrackOutcome{RunID: "missing", Track: models.Track{ID: "s1"}, Outcome: models.OutcomeAdded, CreatedAt: base}
		if err := repo.Create(o); err == nil {
			t.Error("expected foreign key violation")
		}
	})

	t.Run("Create Invalid", func(t *testing.T) {
		repo := NewTrackOutcomeRepository(setupTestDB(t))
		if err := repo.Create(&models.TrackOutcome{}); err == nil {
			t.Error("expected validation error")
		}
	})
}

func TestHistoryRecorder(t *testing.T) {
	db := setupTestDB(t)
	rec := NewHistoryRecorder(db)

	run := models.NewSyncRun()
	if err := rec.StartRun(run); err != nil {
		t.Fatalf("failed to start run: %v", err)
	}

	o := &models.TrackOutcome{RunID: run.ID, Track: models.Track{ID: "s1", Name: "Song"}, Outcome: models.OutcomeSkipped, CreatedAt: time.Now().UTC()}
	if err := rec.RecordTrack(o); err != nil {
		t.Fatalf("failed to record track: %v", err)
	}

	run.Total, run.Skipped = 1, 1
	run.Finish(nil)
	if err := rec.FinishRun(run); err != nil {
		t.Fatalf("failed to finish run: %v", err)
	}

	stored, err := rec.Runs.Get(run.ID)
	if err != nil {
		t.Fatalf("failed to get run: %v", err)
	}
	if stored.Status != models.RunCompleted || stored.Skipped != 1 {
		t.Errorf("unexpected stored run %+v", stored)
	}
}

func TestArtistsEncoding(t *testing.T) {
	tt := []struct {
		name    string
		artists []string
		want    string
	}{
		{"empty", nil, "[]"},
		{"single", []string{"A"}, `["A"]`},
		{"ampersand kept", []string{"Simon & Garfunkel"}, `["Simon & Garfunkel"]`},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			if got := encodeArtists(tc.artists); got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}

	if got := decodeArtists("not json"); len(got) != 1 || got[0] != "not json" {
		t.Errorf("expected raw fallback, got %v", got)
	}
}

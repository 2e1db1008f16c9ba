package models

import (
	"errors"
	"testing"
	"time"
)

func TestTrack(t *testing.T) {
	t.Run("SearchQuery", func(t *testing.T) {
		tt := []struct {
			name  string
			track Track
			want  string
		}{
			{"single artist", Track{Name: "Song", Artists: []string{"A"}}, "A — Song"},
			{"several artists", Track{Name: "Song", Artists: []string{"A", "B"}}, "A, B — Song"},
			{"no artists", Track{Name: "Song"}, " — Song"},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				if got := tc.track.SearchQuery(); got != tc.want {
					t.Errorf("expected %q, got %q", tc.want, got)
				}
			})
		}
	})

	t.Run("String", func(t *testing.T) {
		if got := (Track{Name: "Song"}).String(); got != "Song" {
			t.Errorf("expected bare name, got %q", got)
		}
		if got := (Track{Name: "Song", Artists: []string{"A", "B"}}).String(); got != "A, B - Song" {
			t.Errorf("unexpected string %q", got)
		}
	})
}

func TestYandexTrackLikeID(t *testing.T) {
	tt := []struct {
		name   string
		track  YandexTrack
		want   string
		wantOK bool
	}{
		{"first album is used", YandexTrack{ID: "10", AlbumIDs: []string{"20", "30"}}, "10:20", true},
		{"no albums", YandexTrack{ID: "10"}, "", false},
		{"no id", YandexTrack{AlbumIDs: []string{"20"}}, "", false},
		{"empty album id", YandexTrack{ID: "10", AlbumIDs: []string{""}}, "", false},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := tc.track.LikeID()
			if got != tc.want || ok != tc.wantOK {
				t.Errorf("expected (%q, %v), got (%q, %v)", tc.want, tc.wantOK, got, ok)
			}
		})
	}
}

func TestSyncRun(t *testing.T) {
	t.Run("Finish without error", func(t *testing.T) {
		run := NewSyncRun()
		if err := run.Validate(); err != nil {
			t.Fatalf("new run should validate: %v", err)
		}
		if run.Duration() != 0 {
			t.Error("running run should have zero duration")
		}

		run.Finish(nil)
		if run.Status != RunCompleted {
			t.Errorf("expected completed, got %s", run.Status)
		}
		if run.FinishedAt == nil {
			t.Fatal("expected finished_at to be set")
		}
	})

	t.Run("Finish with error", func(t *testing.T) {
		run := NewSyncRun()
		run.Finish(errors.New("boom"))
		if run.Status != RunFailed || run.Error != "boom" {
			t.Errorf("unexpected run state: %+v", run)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		tt := []struct {
			name string
			run  SyncRun
		}{
			{"unknown status", SyncRun{Status: "paused", StartedAt: time.Now()}},
			{"zero start", SyncRun{Status: RunRunning}},
			{"negative counter", SyncRun{Status: RunRunning, StartedAt: time.Now(), Failed: -1}},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				if err := tc.run.Validate(); err == nil {
					t.Error("expected validation error")
				}
			})
		}
	})
}

func TestTrackOutcomeValidate(t *testing.T) {
	valid := TrackOutcome{RunID: "r", Track: Track{ID: "s"}, Outcome: OutcomeAdded}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid outcome, got %v", err)
	}

	missingRun := valid
	missingRun.RunID = ""
	if err := missingRun.Validate(); err == nil {
		t.Error("expected error for missing run id")
	}

	unknown := valid
	unknown.Outcome = "teleported"
	if err := unknown.Validate(); err == nil {
		t.Error("expected error for unknown outcome")
	}
}

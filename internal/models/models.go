package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Track is a track saved in the user's Spotify library.
type Track struct {
	ID         string
	Name       string
	Artists    []string
	Album      string
	DurationMS int
	AddedAt    *time.Time // when the user liked it; nil when Spotify omitted it
}

// ArtistLine joins the artist names with ", ".
func (t Track) ArtistLine() string {
	return strings.Join(t.Artists, ", ")
}

// SearchQuery builds the Yandex Music search text: "<artists> — <name>".
func (t Track) SearchQuery() string {
	return fmt.Sprintf("%s — %s", t.ArtistLine(), t.Name)
}

func (t Track) String() string {
	if len(t.Artists) == 0 {
		return t.Name
	}
	return t.ArtistLine() + " - " + t.Name
}

// YandexTrack is a track returned by Yandex Music search.
type YandexTrack struct {
	ID         string
	Title      string
	Artists    []string
	AlbumIDs   []string
	DurationMS int
}

// LikeID returns the "trackId:albumId" identifier used by the likes endpoints, built from the first album.
//
// The second value is false when either part is missing.
func (y YandexTrack) LikeID() (string, bool) {
	if y.ID == "" || len(y.AlbumIDs) == 0 || y.AlbumIDs[0] == "" {
		return "", false
	}
	return y.ID + ":" + y.AlbumIDs[0], true
}

func (y YandexTrack) String() string {
	if len(y.Artists) == 0 {
		return y.Title
	}
	return strings.Join(y.Artists, ", ") + " - " + y.Title
}

// Outcome classifies what happened to one track during a sync run.
type Outcome string

const (
	OutcomeAdded        Outcome = "added"         // liked on Yandex Music
	OutcomeAlreadyLiked Outcome = "already_liked" // matched a track that was already liked; counted as added
	OutcomeSkipped      Outcome = "skipped"       // processed in an earlier run
	OutcomeNotFound     Outcome = "not_found"     // search returned nothing
	OutcomeFailed       Outcome = "failed"        // like could not be built or sent
	OutcomePlanned      Outcome = "planned"       // dry run: would have been liked
)

// Valid reports whether o is a known outcome.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeAdded, OutcomeAlreadyLiked, OutcomeSkipped, OutcomeNotFound, OutcomeFailed, OutcomePlanned:
		return true
	}
	return false
}

// TrackOutcome records a single track's result within a run.
type TrackOutcome struct {
	ID        string
	RunID     string
	Track     Track
	LikeID    string
	Outcome   Outcome
	CreatedAt time.Time
}

// Validate checks the fields required for persistence.
func (o *TrackOutcome) Validate() error {
	if o.RunID == "" {
		return errors.New("run id is required")
	}
	if o.Track.ID == "" {
		return errors.New("spotify track id is required")
	}
	if !o.Outcome.Valid() {
		return fmt.Errorf("unknown outcome %q", o.Outcome)
	}
	return nil
}

// RunStatus is the lifecycle state of a [SyncRun].
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// SyncRun is one invocation of the sync engine.
type SyncRun struct {
	ID         string
	Status     RunStatus
	Total      int
	Added      int
	Skipped    int
	NotFound   int
	Failed     int
	Error      string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// NewSyncRun creates a running SyncRun started now.
func NewSyncRun() *SyncRun {
	return &SyncRun{Status: RunRunning, StartedAt: time.Now().UTC()}
}

// Finish marks the run complete, or failed when err is non-nil.
func (r *SyncRun) Finish(err error) {
	now := time.Now().UTC()
	r.FinishedAt = &now
	if err != nil {
		r.Status = RunFailed
		r.Error = err.Error()
		return
	}
	r.Status = RunCompleted
}

// Duration returns how long the run took, or zero while it is still running.
func (r *SyncRun) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Validate checks the run's status and counters.
func (r *SyncRun) Validate() error {
	switch r.Status {
	case RunRunning, RunCompleted, RunFailed:
	default:
		return fmt.Errorf("unknown run status %q", r.Status)
	}
	if r.StartedAt.IsZero() {
		return errors.New("started_at is required")
	}
	if r.Total < 0 || r.Added < 0 || r.Skipped < 0 || r.NotFound < 0 || r.Failed < 0 {
		return errors.New("counters must not be negative")
	}
	return nil
}

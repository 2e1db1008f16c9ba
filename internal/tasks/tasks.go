package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ymsync/internal/models"
	"github.com/desertthunder/ymsync/internal/services"
	"github.com/desertthunder/ymsync/internal/shared"
	"github.com/desertthunder/ymsync/internal/state"
)

// SyncResult contains the counters and per-track outcomes of one run.
type SyncResult struct {
	RunID       string
	Total       int // new Spotify tracks considered
	Added       int // liked now or already liked
	Skipped     int // processed in an earlier run
	NotFound    int
	Failed      int
	Planned     int // dry run only
	DryRun      bool
	LastAddedAt *time.Time
	Outcomes    []models.TrackOutcome
}

// StateStore loads and persists the sync cursor.
type StateStore interface {
	Path() string
	Load() *state.State
	Save(st *state.State) error
}

// Recorder persists run history. Failures are logged and never abort a sync.
type Recorder interface {
	StartRun(run *models.SyncRun) error
	RecordTrack(outcome *models.TrackOutcome) error
	FinishRun(run *models.SyncRun) error
}

// EngineOptions tunes a [SyncEngine].
type EngineOptions struct {
	PageLimit       int           // Spotify page size, 1..50
	RetryAttempts   int           // attempts per search or like when Yandex times out
	RetryDelay      time.Duration // pause between attempts
	DryRun          bool          // search only; nothing is liked and the state file is left alone
	WaitForProgress bool          // block on progress sends; the reader must drain the channel until Run returns
	Recorder        Recorder      // optional run history
	Logger          *log.Logger
}

// SyncEngine copies new Spotify likes into the Yandex Music liked collection.
type SyncEngine struct {
	source services.LikedSource
	target services.LikeTarget
	store  StateStore
	opts   EngineOptions
	logger *log.Logger
}

// NewSyncEngine creates a SyncEngine. Unset options fall back to 50 tracks per page and three attempts.
func NewSyncEngine(source services.LikedSource, target services.LikeTarget, store StateStore, opts EngineOptions) *SyncEngine {
	if opts.PageLimit <= 0 {
		opts.PageLimit = 50
	}
	if opts.RetryAttempts <= 0 {
		opts.RetryAttempts = 3
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &SyncEngine{
		source: source,
		target: target,
		store:  store,
		opts:   opts,
		logger: shared.WithLogger(opts.Logger, "component", "sync"),
	}
}

// sendProgress sends a progress update through the channel, without blocking unless
// WaitForProgress is set.
func (e *SyncEngine) sendProgress(ctx context.Context, progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	if e.opts.WaitForProgress {
		select {
		case progress <- update:
		case <-ctx.Done():
		}
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Run performs one synchronization pass.
//
// The state file is saved after every track that reaches Yandex Music, so a run interrupted
// by cancellation or a crash resumes where it stopped. The partial result is returned alongside
// any error.
func (e *SyncEngine) Run(ctx context.Context, progress chan<- ProgressUpdate) (result *SyncResult, err error) {
	if e.source == nil || e.target == nil || e.store == nil {
		return nil, fmt.Errorf("%w: sync engine is missing a dependency", shared.ErrServiceUnavailable)
	}

	run := models.NewSyncRun()
	run.ID = shared.GenerateID()
	result = &SyncResult{RunID: run.ID, DryRun: e.opts.DryRun}
	e.record("start run", func(r Recorder) error { return r.StartRun(run) })

	defer func() {
		run.Total, run.Added, run.Skipped = result.Total, result.Added, result.Skipped
		run.NotFound, run.Failed = result.NotFound, result.Failed
		run.Finish(err)
		e.record("finish run", func(r Recorder) error { return r.FinishRun(run) })
	}()

	if err := e.target.Init(ctx); err != nil {
		return result, fmt.Errorf("failed to initialize %s: %w", e.target.Name(), err)
	}

	st := e.store.Load()
	e.sendProgress(ctx, progress, loadStateUpdate(e.store.Path(), st.Len()))

	liked, err := e.target.LikedTrackIDs(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		e.logger.Warn("could not fetch existing likes, continuing without them", "error", err)
		liked = map[string]struct{}{}
	}
	e.sendProgress(ctx, progress, fetchTargetLikesUpdate(len(liked), err))

	since := shared.FormatSpotifyTime(st.LastAddedAt)
	e.sendProgress(ctx, progress, fetchSourceLikesUpdate(since))
	e.logger.Info("fetching liked tracks", "service", e.source.Name(), "since", since)

	tracks, err := e.source.LikedSince(ctx, st.LastAddedAt, e.opts.PageLimit)
	if err != nil {
		return result, fmt.Errorf("failed to fetch %s likes: %w", e.source.Name(), err)
	}

	result.Total = len(tracks)
	result.LastAddedAt = st.LastAddedAt
	e.sendProgress(ctx, progress, foundSourceLikesUpdate(len(tracks)))

	if len(tracks) == 0 {
		e.logger.Info("nothing to sync")
		e.sendProgress(ctx, progress, nothingToSyncUpdate())
		return result, nil
	}

	for i, track := range tracks {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		st.Advance(track.AddedAt)

		outcome, err := e.syncTrack(ctx, st, track, liked)
		if err != nil {
			return result, err
		}

		outcome.RunID = run.ID
		e.tally(result, outcome.Outcome)
		result.Outcomes = append(result.Outcomes, outcome)
		e.record("record track", func(r Recorder) error { return r.RecordTrack(&outcome) })
		e.sendProgress(ctx, progress, trackUpdate(i+1, len(tracks), outcome))

		if outcome.Outcome == models.OutcomeSkipped || e.opts.DryRun {
			continue
		}

		st.MarkProcessed(track.ID)
		if err := e.store.Save(st); err != nil {
			return result, err
		}
	}

	result.LastAddedAt = st.LastAddedAt
	e.logger.Info("sync finished",
		"total", result.Total, "added", result.Added, "skipped", result.Skipped,
		"not_found", result.NotFound, "failed", result.Failed)
	e.sendProgress(ctx, progress, completeUpdate(result))
	return result, nil
}

// syncTrack decides the outcome for one track. Only configuration errors are returned.
func (e *SyncEngine) syncTrack(ctx context.Context, st *state.State, track models.Track, liked map[string]struct{}) (models.TrackOutcome, error) {
	outcome := models.TrackOutcome{
		ID:        shared.GenerateID(),
		Track:     track,
		CreatedAt: time.Now().UTC(),
	}

	if st.Processed(track.ID) {
		outcome.Outcome = models.OutcomeSkipped
		return outcome, nil
	}

	query := track.SearchQuery()
	match, err := e.search(ctx, query)
	if err != nil {
		return outcome, err
	}
	if match == nil {
		e.logger.Info("no match on Yandex Music", "query", query)
		outcome.Outcome = models.OutcomeNotFound
		return outcome, nil
	}

	likeID, ok := match.LikeID()
	if !ok {
		e.logger.Warn("match has no album, cannot build like id", "query", query, "match", match.ID)
		outcome.Outcome = models.OutcomeFailed
		return outcome, nil
	}
	outcome.LikeID = likeID

	if _, exists := liked[likeID]; exists {
		outcome.Outcome = models.OutcomeAlreadyLiked
		return outcome, nil
	}

	if e.opts.DryRun {
		outcome.Outcome = models.OutcomePlanned
		return outcome, nil
	}

	err = e.retry(ctx, "like "+likeID, func() error { return e.target.Like(ctx, likeID) })
	switch {
	case err == nil:
		liked[likeID] = struct{}{}
		outcome.Outcome = models.OutcomeAdded
		e.logger.Info("liked", "track", match.String(), "like_id", likeID)
	case shared.IsConfigError(err) || ctx.Err() != nil:
		return outcome, err
	default:
		e.logger.Warn("like failed", "query", query, "like_id", likeID, "error", err)
		outcome.Outcome = models.OutcomeFailed
	}
	return outcome, nil
}

// search returns the first match for query. A search that is still timing out after the last
// attempt counts as no match; any other error is returned and stops the run before the track is
// marked processed.
func (e *SyncEngine) search(ctx context.Context, query string) (*models.YandexTrack, error) {
	var match *models.YandexTrack
	err := e.retry(ctx, "search "+query, func() error {
		var err error
		match, err = e.target.Search(ctx, query)
		return err
	})

	switch {
	case err == nil:
		return match, nil
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case errors.Is(err, shared.ErrTimeout):
		e.logger.Warn("search kept timing out, treating as not found", "query", query, "error", err)
		return nil, nil
	default:
		return nil, fmt.Errorf("search %q on %s: %w", query, e.target.Name(), err)
	}
}

// retry runs fn up to RetryAttempts times, retrying only on [shared.ErrTimeout].
func (e *SyncEngine) retry(ctx context.Context, what string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= e.opts.RetryAttempts; attempt++ {
		if err = fn(); err == nil || !errors.Is(err, shared.ErrTimeout) {
			return err
		}

		e.logger.Warn("Yandex Music timed out", "op", what, "attempt", attempt, "of", e.opts.RetryAttempts)
		if attempt == e.opts.RetryAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.opts.RetryDelay):
		}
	}
	return fmt.Errorf("%w after %d attempts", err, e.opts.RetryAttempts)
}

func (e *SyncEngine) tally(result *SyncResult, o models.Outcome) {
	switch o {
	case models.OutcomeAdded, models.OutcomeAlreadyLiked:
		result.Added++
	case models.OutcomeSkipped:
		result.Skipped++
	case models.OutcomeNotFound:
		result.NotFound++
	case models.OutcomePlanned:
		result.Planned++
	default:
		result.Failed++
	}
}

func (e *SyncEngine) record(what string, fn func(Recorder) error) {
	if e.opts.Recorder == nil {
		return
	}
	if err := fn(e.opts.Recorder); err != nil {
		e.logger.Warn("history write failed", "op", what, "error", err)
	}
}

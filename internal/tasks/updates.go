package tasks

import (
	"fmt"

	"github.com/desertthunder/ymsync/internal/models"
)

// ProgressUpdate represents a progress event during a sync run.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	LoadState Phase = iota
	FetchTargetLikes
	FetchSourceLikes
	SyncTracks
	Complete
)

func (p Phase) String() string {
	switch p {
	case LoadState:
		return "load_state"
	case FetchTargetLikes:
		return "fetch_target_likes"
	case FetchSourceLikes:
		return "fetch_source_likes"
	case SyncTracks:
		return "sync_tracks"
	case Complete:
		return "complete"
	default:
		return ""
	}
}

func loadStateUpdate(path string, processed int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadState,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Loaded state from %s (%d tracks processed before)", path, processed),
	}
}

func fetchTargetLikesUpdate(count int, err error) ProgressUpdate {
	msg := fmt.Sprintf("Yandex Music currently has %d liked tracks", count)
	if err != nil {
		msg = fmt.Sprintf("Could not read Yandex Music likes: %v", err)
	}
	return ProgressUpdate{Phase: FetchTargetLikes, Step: 1, Total: 1, Message: msg}
}

func fetchSourceLikesUpdate(since string) ProgressUpdate {
	msg := "Fetching all liked tracks from Spotify (first import)..."
	if since != "" {
		msg = fmt.Sprintf("Fetching new liked tracks from Spotify (after %s)...", since)
	}
	return ProgressUpdate{Phase: FetchSourceLikes, Step: 0, Total: 1, Message: msg}
}

func foundSourceLikesUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSourceLikes,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("New Spotify tracks to process: %d", count),
	}
}

func nothingToSyncUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   Complete,
		Step:    1,
		Total:   1,
		Message: "No new liked tracks on Spotify, nothing to sync",
	}
}

func trackUpdate(step, total int, outcome models.TrackOutcome) ProgressUpdate {
	var mark string
	switch outcome.Outcome {
	case models.OutcomeAdded:
		mark = "✓ liked"
	case models.OutcomeAlreadyLiked:
		mark = "✓ already liked"
	case models.OutcomePlanned:
		mark = "→ would like"
	case models.OutcomeSkipped:
		mark = "· skipped"
	case models.OutcomeNotFound:
		mark = "? not found"
	default:
		mark = "✗ failed"
	}

	return ProgressUpdate{
		Phase:   SyncTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s: %s", step, total, mark, outcome.Track.SearchQuery()),
		Data:    outcome,
	}
}

func completeUpdate(result *SyncResult) ProgressUpdate {
	return ProgressUpdate{
		Phase: Complete,
		Step:  1,
		Total: 1,
		Message: fmt.Sprintf("Done: %d processed, %d added, %d skipped, %d not found, %d failed",
			result.Total, result.Added, result.Skipped, result.NotFound, result.Failed),
		Data: result,
	}
}

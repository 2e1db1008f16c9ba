package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/ymsync/internal/formatter"
	"github.com/desertthunder/ymsync/internal/models"
	"github.com/desertthunder/ymsync/internal/repositories"
	"github.com/desertthunder/ymsync/internal/shared"
	"github.com/desertthunder/ymsync/internal/state"
	"github.com/urfave/cli/v3"
)

// StateShow prints a summary of the sync state file.
func (r *Runner) StateShow(ctx context.Context, cmd *cli.Command) error {
	store := r.stateStore()
	st := store.Load()

	if cmd.Bool("json") {
		data, err := state.Encode(st)
		if err != nil {
			return err
		}
		return r.writePlain("%s", data)
	}

	return r.writePlain("%s", formatter.StateText(store.Path(), store.Exists(), st))
}

// StateReset removes the state file; the next sync re-imports every liked track.
func (r *Runner) StateReset(ctx context.Context, cmd *cli.Command) error {
	store := r.stateStore()
	if !cmd.Bool("yes") {
		return fmt.Errorf("%w: pass --yes to delete %s", shared.ErrMissingArgument, store.Path())
	}

	if err := store.Reset(); err != nil {
		return err
	}

	r.logger.Info("state reset", "path", store.Path())
	return r.writePlain("✓ Removed %s\n", store.Path())
}

// History lists recorded runs, or the track outcomes of a single run as CSV.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	db, err := r.database()
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	history := repositories.NewHistoryRecorder(db)

	if runID := cmd.String("run"); runID != "" {
		return r.runOutcomes(history, runID, cmd.String("outcome"))
	}

	runs, err := history.Runs.List(map[string]any{
		"status": cmd.String("status"),
		"limit":  cmd.Int("limit"),
	})
	if err != nil {
		return err
	}

	r.writePlain("%s", formatter.HistoryTable(runs))

	counts, err := history.Tracks.CountByOutcome()
	if err != nil {
		return err
	}
	if len(counts) > 0 {
		r.writePlain("\nAll runs: %d added, %d already liked, %d not found, %d failed\n",
			counts[models.OutcomeAdded], counts[models.OutcomeAlreadyLiked],
			counts[models.OutcomeNotFound], counts[models.OutcomeFailed])
	}
	return nil
}

func (r *Runner) runOutcomes(history *repositories.HistoryRecorder, runID, outcome string) error {
	if runID == "latest" {
		run, err := history.Runs.Latest()
		if errors.Is(err, repositories.ErrNotFound) {
			return r.writePlain("No sync runs recorded\n")
		}
		if err != nil {
			return err
		}
		runID = run.ID
	} else if _, err := history.Runs.Get(runID); err != nil {
		return err
	}

	outcomes, err := history.Tracks.List(map[string]any{"run_id": runID, "outcome": outcome})
	if err != nil {
		return err
	}

	data, err := formatter.OutcomesToCSV(outcomes)
	if err != nil {
		return err
	}
	return r.writePlain("%s", data)
}

package main

import (
	"context"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ymsync/internal/formatter"
	"github.com/desertthunder/ymsync/internal/repositories"
	"github.com/desertthunder/ymsync/internal/shared"
	"github.com/desertthunder/ymsync/internal/tasks"
	"github.com/desertthunder/ymsync/internal/ui"
	"github.com/urfave/cli/v3"
)

// tuiLogFile receives log output while the interactive UI owns the terminal.
const tuiLogFile = "./tmp/ymsync-tui.log"

// Sync runs one synchronization pass from Spotify likes to Yandex Music likes.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	interactive := cmd.Bool("interactive")

	if interactive {
		fileLogger, err := shared.NewFileLogger(tuiLogFile)
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		r.SetLogger(fileLogger)
	}

	engine, err := r.syncEngine(ctx, cmd.Bool("dry-run"), !cmd.Bool("no-history"), !interactive)
	if err != nil {
		return r.configHint(err)
	}

	if interactive {
		return r.syncInteractive(ctx, engine, cmd.Bool("dry-run"))
	}

	progress := make(chan tasks.ProgressUpdate, 64)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progress {
			r.writePlain("%s\n", update.Message)
		}
	}()

	result, err := engine.Run(ctx, progress)
	close(progress)
	wg.Wait()

	if result != nil {
		r.writePlainln("%s", formatter.SyncSummary(result))
	}
	return r.configHint(err)
}

// syncEngine wires the clients, state store and optional history recorder into an engine.
//
// With waitForProgress the caller must drain the progress channel; every update is delivered.
func (r *Runner) syncEngine(ctx context.Context, dryRun, history, waitForProgress bool) (*tasks.SyncEngine, error) {
	source, err := r.spotifyService(ctx)
	if err != nil {
		return nil, err
	}

	target, err := r.yandexService()
	if err != nil {
		return nil, err
	}

	opts := tasks.EngineOptions{
		PageLimit:       r.config.Sync.PageLimit,
		RetryAttempts:   r.config.Sync.RetryAttempts,
		RetryDelay:      r.config.Sync.RetryDelay(),
		DryRun:          dryRun,
		WaitForProgress: waitForProgress,
		Logger:          r.logger,
	}

	if history {
		if db, err := r.database(); err != nil {
			r.logger.Warn("run history disabled", "error", err)
		} else {
			opts.Recorder = repositories.NewHistoryRecorder(db)
		}
	}

	return tasks.NewSyncEngine(source, target, r.stateStore(), opts), nil
}

func (r *Runner) syncInteractive(ctx context.Context, engine *tasks.SyncEngine, dryRun bool) error {
	store := r.stateStore()
	st := store.Load()

	model := ui.NewModel(ctx, engine, ui.Options{
		StateFile: store.Path(),
		Processed: st.Len(),
		Cursor:    shared.FormatSpotifyTime(st.LastAddedAt),
		DryRun:    dryRun,
	})

	if _, err := tea.NewProgram(model, tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	result, err := model.Result()
	if result != nil {
		r.writePlain("%s", formatter.SyncSummary(result))
	}
	return r.configHint(err)
}

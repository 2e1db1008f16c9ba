package main

import (
	"context"

	"github.com/desertthunder/ymsync/internal/launcher"
	"github.com/urfave/cli/v3"
)

// Launch runs the configured sync program once, or repeatedly with --schedule.
//
// A failed single launch returns a [launcher.ExitError], which main turns into the process exit status.
func (r *Runner) Launch(ctx context.Context, cmd *cli.Command) error {
	l := launcher.FromConfig(r.config.Launcher, r.logger)

	schedule := cmd.String("schedule")
	if schedule == "config" {
		schedule = r.config.Launcher.Schedule
	}

	if schedule == "" {
		_, err := l.Run(ctx)
		if ctx.Err() != nil {
			r.logger.Warn("launch interrupted")
		}
		return err
	}

	if err := launcher.Validate(schedule); err != nil {
		return err
	}

	return launcher.NewScheduler(l, r.logger).Run(ctx, schedule)
}

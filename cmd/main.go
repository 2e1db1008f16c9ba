package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/ymsync/internal/shared"
	"github.com/urfave/cli/v3"
)

// exitCoder is implemented by errors that carry a process exit status, such as launcher.ExitError.
type exitCoder interface {
	ExitCode() int
}

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	app := &cli.Command{
		Name:     "ymsync",
		Usage:    "Copy new Spotify likes into Yandex Music and launch the sync on a schedule",
		Version:  "0.1.0",
		Flags:    globalFlags(),
		Before:   runner.before,
		Commands: runner.register(),
		// Exit codes are handled below so deferred cleanup in the commands always runs.
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := app.Run(ctx, os.Args)
	stop()

	if err == nil {
		return
	}

	var coder exitCoder
	if errors.As(err, &coder) {
		if code := coder.ExitCode(); code != 0 {
			logger.Error("exiting", "status", code, "error", err)
			os.Exit(code)
		}
		return
	}

	logger.Fatalf("application error: %v", err)
}

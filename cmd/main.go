package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/desertthunder/spotify-tools/internal/shared"
)

func main() {
	logger := shared.NewLogger(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runner := NewRunner(RunnerOpts{Logger: logger})
	if err := runner.App().Run(ctx, os.Args); err != nil {
		logger.Error("application error", "kind", shared.Kind(err), "error", err)
		stop()
		os.Exit(1)
	}
}

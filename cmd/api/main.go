package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"paidvote/internal/app/bootstrap"
)

// API process entrypoint.
// Data flow:
// 1) Load config.
// 2) Build app wiring (ports + adapters + use cases).
// 3) Serve HTTP until SIGINT/SIGTERM.
func main() {
	log.Println("paidvote api starting")
	app, err := bootstrap.BuildAPI()
	if err != nil {
		log.Fatalf("bootstrap api failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, app)
	stop()
	if err != nil {
		log.Fatalf("paidvote api stopped with error: %v", err)
	}
	log.Println("paidvote api stopped")
}

type runner interface {
	Run(ctx context.Context) error
	Close() error
}

// run closes a before returning so a failed run still releases resources
// ahead of the non-zero exit.
func run(ctx context.Context, a runner) error {
	runErr := a.Run(ctx)
	if err := a.Close(); err != nil {
		log.Printf("api shutdown close failed: %v", err)
	}
	return runErr
}

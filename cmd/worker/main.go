package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"paidvote/internal/app/bootstrap"
)

// Worker process entrypoint.
// Data flow:
// 1) Load config.
// 2) Build app wiring.
// 3) Run the pending reconciler, session sweeper, counter auditor, outbox
//    relay and receipt consumer until SIGINT/SIGTERM.
func main() {
	log.Println("paidvote worker starting")
	app, err := bootstrap.BuildWorker()
	if err != nil {
		log.Fatalf("bootstrap worker failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, app)
	stop()
	if err != nil {
		log.Fatalf("paidvote worker stopped with error: %v", err)
	}
	log.Println("paidvote worker stopped")
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
		log.Printf("worker shutdown close failed: %v", err)
	}
	return runErr
}

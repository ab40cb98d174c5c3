package main

import (
	"context"
	"errors"
	"testing"
)

type stubApp struct {
	runErr error
	closed bool
}

func (s *stubApp) Run(context.Context) error { return s.runErr }

func (s *stubApp) Close() error {
	s.closed = true
	return nil
}

func TestRunReturnsAppErrorAfterClose(t *testing.T) {
	failing := &stubApp{runErr: errors.New("listen tcp :8080: address already in use")}
	if err := run(context.Background(), failing); !errors.Is(err, failing.runErr) {
		t.Fatalf("expected run error to propagate, got %v", err)
	}
	if !failing.closed {
		t.Fatal("app must be closed before exiting")
	}

	clean := &stubApp{}
	if err := run(context.Background(), clean); err != nil || !clean.closed {
		t.Fatalf("clean stop: err=%v closed=%v", err, clean.closed)
	}
}

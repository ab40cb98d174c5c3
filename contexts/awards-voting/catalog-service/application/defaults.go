package application

import (
	"log/slog"
	"time"

	"paidvote/contexts/awards-voting/catalog-service/ports"
)

func ResolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// Now reads clock in UTC, falling back to the wall clock.
func Now(clock ports.Clock) time.Time {
	if clock == nil {
		return time.Now().UTC()
	}
	return clock.Now().UTC()
}

package postgresadapter

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SystemClock stamps ledger rows in UTC so stored timestamps compare equal
// across the api and worker processes.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// UUIDGenerator issues ids for votes, payment references and outbox events.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

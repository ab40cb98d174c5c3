package workers

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"paidvote/contexts/awards-voting/vote-engine/ports"
)

func hashPayload(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func resolveNow(clock ports.Clock) time.Time {
	now := time.Now().UTC()
	if clock != nil {
		now = clock.Now().UTC()
	}
	return now
}

func resolveBatch(size int, fallback int) int {
	if size <= 0 {
		return fallback
	}
	return size
}

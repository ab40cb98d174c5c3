package notify

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"paidvote/contexts/awards-voting/vote-engine/ports"
)

func TestLogReceiptSenderKeepsRecentReceipts(t *testing.T) {
	sender := NewLogReceiptSender(slog.New(slog.NewTextHandler(io.Discard, nil)), 2)
	for _, id := range []string{"v1", "v2", "v3"} {
		if err := sender.SendReceipt(context.Background(), ports.Receipt{VoteID: id, Counted: true}); err != nil {
			t.Fatalf("send %s: %v", id, err)
		}
	}
	sent := sender.Sent()
	if len(sent) != 2 || sent[0].VoteID != "v2" || sent[1].VoteID != "v3" {
		t.Fatalf("unexpected receipts: %+v", sent)
	}
}

func TestMaskEmail(t *testing.T) {
	cases := map[string]string{
		"ama@example.com": "a***@example.com",
		"a@example.com":   "***@example.com",
		"":                "***",
	}
	for input, want := range cases {
		if got := maskEmail(input); got != want {
			t.Fatalf("maskEmail(%q) = %q, want %q", input, got, want)
		}
	}
}

package notify

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"paidvote/contexts/awards-voting/vote-engine/ports"
)

// LogReceiptSender records voter receipts in the structured log. It keeps the
// last receipts in memory so operators and tests can inspect them.
type LogReceiptSender struct {
	mu       sync.Mutex
	logger   *slog.Logger
	keep     int
	receipts []ports.Receipt
}

func NewLogReceiptSender(logger *slog.Logger, keep int) *LogReceiptSender {
	if logger == nil {
		logger = slog.Default()
	}
	if keep <= 0 {
		keep = 256
	}
	return &LogReceiptSender{logger: logger, keep: keep}
}

func (s *LogReceiptSender) SendReceipt(ctx context.Context, receipt ports.Receipt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	message := "Your vote was not counted."
	if receipt.Counted {
		message = "Thank you, your vote has been counted."
	}
	s.logger.Info("vote receipt sent",
		"event", "vote_engine_receipt_sent",
		"module", "awards-voting/vote-engine",
		"layer", "adapter",
		"vote_id", receipt.VoteID,
		"payment_reference", receipt.PaymentReference,
		"recipient", maskEmail(receipt.VoterEmail),
		"contestant_id", receipt.ContestantID,
		"counted", receipt.Counted,
		"reason", receipt.Reason,
		"message", message,
	)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.receipts = append(s.receipts, receipt)
	if len(s.receipts) > s.keep {
		s.receipts = s.receipts[len(s.receipts)-s.keep:]
	}
	return nil
}

func (s *LogReceiptSender) Sent() []ports.Receipt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.Receipt(nil), s.receipts...)
}

func maskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 1 {
		return "***" + email[max(at, 0):]
	}
	return email[:1] + "***" + email[at:]
}

var _ ports.ReceiptSender = (*LogReceiptSender)(nil)

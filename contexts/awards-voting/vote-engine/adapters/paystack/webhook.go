package paystack

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	domainerrors "paidvote/contexts/awards-voting/vote-engine/domain/errors"
	"paidvote/contexts/awards-voting/vote-engine/ports"
)

// WebhookVerifier authenticates Paystack webhook deliveries.
type WebhookVerifier struct {
	SecretKey string
}

type webhookPayload struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
		Status    string `json:"status"`
	} `json:"data"`
}

// ParseWebhook checks the signature and extracts the payment reference. The
// reported status is informational only.
func (v WebhookVerifier) ParseWebhook(body []byte, signature string) (ports.WebhookNotification, error) {
	if !v.validSignature(body, signature) {
		return ports.WebhookNotification{}, domainerrors.ErrInvalidWebhookSignature
	}
	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return ports.WebhookNotification{}, fmt.Errorf("%w: webhook body: %w", domainerrors.ErrValidation, err)
	}
	reference := strings.TrimSpace(payload.Data.Reference)
	if reference == "" {
		return ports.WebhookNotification{}, fmt.Errorf("%w: webhook reference is missing", domainerrors.ErrValidation)
	}
	return ports.WebhookNotification{
		Event:     strings.TrimSpace(payload.Event),
		Reference: reference,
		Status:    strings.TrimSpace(payload.Data.Status),
	}, nil
}

func (v WebhookVerifier) validSignature(body []byte, signature string) bool {
	signature = strings.TrimSpace(signature)
	if signature == "" || strings.TrimSpace(v.SecretKey) == "" {
		return false
	}
	provided, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(provided, Sign(v.SecretKey, body))
}

// Sign returns the raw HMAC-SHA512 of body under secret.
func Sign(secret string, body []byte) []byte {
	mac := hmac.New(sha512.New, []byte(secret))
	_, _ = mac.Write(body)
	return mac.Sum(nil)
}

var _ ports.WebhookVerifier = WebhookVerifier{}

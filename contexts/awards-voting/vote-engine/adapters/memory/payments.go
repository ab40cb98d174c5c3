package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"paidvote/contexts/awards-voting/vote-engine/domain/entities"
	"paidvote/contexts/awards-voting/vote-engine/ports"
)

// Gateway is a scripted payment provider. References without a scripted
// verification settle with DefaultStatus for the expected amount.
type Gateway struct {
	mu sync.Mutex

	defaultStatus entities.PaymentStatus
	currency      string
	checkoutBase  string
	verifications map[string]entities.PaymentVerification
	verifyCalls   map[string]int
	intents       map[string]ports.IntentRequest
	verifyErr     error
	intentErr     error
}

func NewGateway(defaultStatus entities.PaymentStatus, currency string) *Gateway {
	if defaultStatus == "" {
		defaultStatus = entities.PaymentStatusPending
	}
	return &Gateway{
		defaultStatus: defaultStatus,
		currency:      strings.ToUpper(strings.TrimSpace(currency)),
		checkoutBase:  "https://checkout.local/pay/",
		verifications: make(map[string]entities.PaymentVerification),
		verifyCalls:   make(map[string]int),
		intents:       make(map[string]ports.IntentRequest),
	}
}

func (g *Gateway) SetVerification(reference string, verification entities.PaymentVerification) {
	g.mu.Lock()
	defer g.mu.Unlock()
	verification.Reference = reference
	g.verifications[reference] = verification
}

// Settle scripts a successful payment of amountMinor for reference.
func (g *Gateway) Settle(reference string, amountMinor int64) {
	paidAt := time.Now().UTC()
	g.SetVerification(reference, entities.PaymentVerification{
		Status:         entities.PaymentStatusSucceeded,
		AmountMinor:    amountMinor,
		Currency:       g.currency,
		ProviderStatus: "success",
		Channel:        "mobile_money",
		PaidAt:         &paidAt,
	})
}

// Decline scripts a failed payment for reference.
func (g *Gateway) Decline(reference string) {
	g.SetVerification(reference, entities.PaymentVerification{
		Status:         entities.PaymentStatusFailed,
		Currency:       g.currency,
		ProviderStatus: "failed",
	})
}

func (g *Gateway) FailVerifyWith(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.verifyErr = err
}

func (g *Gateway) FailIntentsWith(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.intentErr = err
}

func (g *Gateway) VerifyCalls(reference string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.verifyCalls[reference]
}

func (g *Gateway) Intent(reference string) (ports.IntentRequest, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	req, ok := g.intents[reference]
	return req, ok
}

func (g *Gateway) CreateIntent(ctx context.Context, req ports.IntentRequest) (entities.PaymentIntent, error) {
	if err := ctx.Err(); err != nil {
		return entities.PaymentIntent{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.intentErr != nil {
		return entities.PaymentIntent{}, g.intentErr
	}
	g.intents[req.Reference] = req
	return entities.PaymentIntent{
		Reference:   req.Reference,
		CheckoutURL: g.checkoutBase + req.Reference,
		AccessCode:  "access-" + req.Reference,
	}, nil
}

func (g *Gateway) Verify(ctx context.Context, reference string, expectedAmountMinor int64) (entities.PaymentVerification, error) {
	if err := ctx.Err(); err != nil {
		return entities.PaymentVerification{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.verifyCalls[reference]++
	if g.verifyErr != nil {
		return entities.PaymentVerification{}, g.verifyErr
	}
	if verification, ok := g.verifications[reference]; ok {
		return verification, nil
	}
	verification := entities.PaymentVerification{
		Reference:      reference,
		Status:         g.defaultStatus,
		Currency:       g.currency,
		ProviderStatus: string(g.defaultStatus),
	}
	if g.defaultStatus == entities.PaymentStatusSucceeded {
		paidAt := time.Now().UTC()
		verification.AmountMinor = expectedAmountMinor
		verification.ProviderStatus = "success"
		verification.PaidAt = &paidAt
	}
	return verification, nil
}

var _ ports.PaymentIntents = (*Gateway)(nil)
var _ ports.PaymentVerifier = (*Gateway)(nil)

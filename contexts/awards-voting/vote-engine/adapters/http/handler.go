package httpadapter

import (
	"context"
	"errors"
	"log/slog"

	"paidvote/contexts/awards-voting/vote-engine/application/commands"
	"paidvote/contexts/awards-voting/vote-engine/application/queries"
	"paidvote/contexts/awards-voting/vote-engine/domain/entities"
	domainerrors "paidvote/contexts/awards-voting/vote-engine/domain/errors"
	"paidvote/contexts/awards-voting/vote-engine/ports"
	httptransport "paidvote/contexts/awards-voting/vote-engine/transport/http"
)

type Handler struct {
	Votes     commands.VoteUseCase
	Standings queries.StandingsUseCase
	Status    queries.VoteStatusUseCase
	Webhooks  ports.WebhookVerifier
	Logger    *slog.Logger
}

func (h Handler) BeginVoteHandler(
	ctx context.Context,
	idempotencyKey string,
	req httptransport.BeginVoteRequest,
) (httptransport.BeginVoteResponse, error) {
	result, err := h.Votes.BeginVote(ctx, commands.BeginVoteCommand{
		ContestantID:   req.ContestantID,
		VoterEmail:     req.VoterEmail,
		AmountMinor:    req.AmountMinor,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return httptransport.BeginVoteResponse{}, err
	}
	return httptransport.BeginVoteResponse{
		VoteID:           result.Vote.VoteID,
		PaymentReference: result.Vote.PaymentReference,
		ContestantID:     result.Vote.ContestantID,
		CategoryID:       result.Vote.CategoryID,
		AmountMinor:      result.Vote.AmountMinor,
		Currency:         result.Vote.Currency,
		State:            string(result.Vote.State),
		CheckoutURL:      result.Intent.CheckoutURL,
		AccessCode:       result.Intent.AccessCode,
		Replayed:         result.Replayed,
	}, nil
}

func (h Handler) ConfirmVoteHandler(
	ctx context.Context,
	req httptransport.ConfirmVoteRequest,
) (httptransport.ConfirmVoteResponse, error) {
	outcome, err := h.Votes.ConfirmVote(ctx, commands.ConfirmVoteCommand{
		PaymentReference: req.PaymentReference,
		AssertedStatus:   req.Status,
		Source:           commands.SourceClient,
	})
	if err != nil {
		return httptransport.ConfirmVoteResponse{}, err
	}
	return mapOutcome(outcome), nil
}

// PaystackWebhookHandler authenticates the delivery and uses it only as a
// trigger to verify the referenced payment.
func (h Handler) PaystackWebhookHandler(
	ctx context.Context,
	body []byte,
	signature string,
) (httptransport.WebhookAckResponse, error) {
	notification, err := h.Webhooks.ParseWebhook(body, signature)
	if err != nil {
		return httptransport.WebhookAckResponse{}, err
	}
	outcome, err := h.Votes.ConfirmVote(ctx, commands.ConfirmVoteCommand{
		PaymentReference: notification.Reference,
		AssertedStatus:   notification.Status,
		Source:           commands.SourceWebhook,
	})
	if err != nil {
		return httptransport.WebhookAckResponse{}, err
	}
	return httptransport.WebhookAckResponse{
		Received: true,
		Outcome:  string(outcome.Kind),
	}, nil
}

func (h Handler) VoteStatusHandler(ctx context.Context, paymentReference string) (httptransport.VoteStatusResponse, error) {
	vote, err := h.Status.ByPaymentReference(ctx, paymentReference)
	if err != nil {
		return httptransport.VoteStatusResponse{}, err
	}
	return httptransport.VoteStatusResponse{
		VoteID:           vote.VoteID,
		PaymentReference: vote.PaymentReference,
		ContestantID:     vote.ContestantID,
		CategoryID:       vote.CategoryID,
		State:            string(vote.State),
		FailureReason:    vote.FailureReason,
		AmountMinor:      vote.AmountMinor,
		Currency:         vote.Currency,
		CreatedAt:        vote.CreatedAt,
		CommittedAt:      vote.CommittedAt,
		FailedAt:         vote.FailedAt,
	}, nil
}

func (h Handler) CategoryStandingsHandler(ctx context.Context, categoryID string) (httptransport.StandingsResponse, error) {
	standings, err := h.Standings.CategoryStandings(ctx, categoryID)
	if err != nil {
		return httptransport.StandingsResponse{}, err
	}
	items := make([]httptransport.StandingItem, 0, len(standings))
	for _, standing := range standings {
		items = append(items, httptransport.StandingItem{
			ContestantID: standing.ContestantID,
			Name:         standing.Name,
			PhotoRef:     standing.PhotoRef,
			VoteCount:    standing.VoteCount,
			Rank:         standing.Rank,
		})
	}
	return httptransport.StandingsResponse{CategoryID: categoryID, Items: items}, nil
}

func (h Handler) ContestantVotesHandler(ctx context.Context, contestantID string) (httptransport.ContestantVotesResponse, error) {
	contestant, err := h.Standings.ContestantCount(ctx, contestantID)
	if err != nil {
		return httptransport.ContestantVotesResponse{}, err
	}
	return httptransport.ContestantVotesResponse{
		ContestantID: contestant.ContestantID,
		CategoryID:   contestant.CategoryID,
		Name:         contestant.Name,
		VoteCount:    contestant.VoteCount,
	}, nil
}

func mapOutcome(outcome entities.VoteOutcome) httptransport.ConfirmVoteResponse {
	response := httptransport.ConfirmVoteResponse{
		Outcome:          string(outcome.Kind),
		Counted:          outcome.Counted(),
		Retryable:        outcome.Retryable,
		VoteID:           outcome.Vote.VoteID,
		PaymentReference: outcome.Vote.PaymentReference,
		ContestantID:     outcome.Vote.ContestantID,
		State:            string(outcome.Vote.State),
		FailureReason:    outcome.Vote.FailureReason,
	}
	err := outcome.Err()
	switch {
	case err == nil:
		response.NewCount = outcome.NewCount
		response.Message = "Thank you, your vote has been counted."
	case errors.Is(err, domainerrors.ErrVerificationPending):
		response.Message = "Payment is still being processed. Please check again shortly."
	default:
		response.Message = "Payment could not be verified. Your vote was not counted."
	}
	return response
}

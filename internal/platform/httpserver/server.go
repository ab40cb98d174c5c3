package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	catalogservice "paidvote/contexts/awards-voting/catalog-service"
	catalogerrors "paidvote/contexts/awards-voting/catalog-service/domain/errors"
	cataloghttp "paidvote/contexts/awards-voting/catalog-service/transport/http"
	voteengine "paidvote/contexts/awards-voting/vote-engine"
	voteerrors "paidvote/contexts/awards-voting/vote-engine/domain/errors"
	votehttp "paidvote/contexts/awards-voting/vote-engine/transport/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	_ "paidvote/internal/platform/httpserver/docs"
)

const maxWebhookBody = 1 << 20

type Server struct {
	mux      *http.ServeMux
	http     *http.Server
	logger   *slog.Logger
	addr     string
	votes    voteengine.Module
	catalog  catalogservice.Module
	gatherer prometheus.Gatherer
}

func New(
	votes voteengine.Module,
	catalog catalogservice.Module,
	gatherer prometheus.Gatherer,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		mux:      http.NewServeMux(),
		logger:   logger,
		addr:     addr,
		votes:    votes,
		catalog:  catalog,
		gatherer: gatherer,
	}
	s.registerRoutes()
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler exposes the routed mux, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server stopping",
		"event", "http_server_stopping",
		"module", "internal/platform/httpserver",
		"layer", "platform",
	)
	return s.http.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("GET /v1/categories", s.handleListCategories)
	s.mux.HandleFunc("GET /v1/categories/{category_id}/contestants", s.handleListContestants)
	s.mux.HandleFunc("GET /v1/categories/{category_id}/standings", s.handleCategoryStandings)
	s.mux.HandleFunc("GET /v1/contestants/{contestant_id}/votes", s.handleContestantVotes)

	s.mux.HandleFunc("POST /v1/votes", s.handleBeginVote)
	s.mux.HandleFunc("POST /v1/votes/confirm", s.handleConfirmVote)
	s.mux.HandleFunc("GET /v1/votes/{payment_reference}", s.handleVoteStatus)
	s.mux.HandleFunc("POST /v1/payments/paystack/webhook", s.handlePaystackWebhook)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListCategories godoc
// @Summary List active award categories
// @Tags catalog
// @Produce json
// @Success 200 {object} cataloghttp.CategoriesResponse
// @Router /v1/categories [get]
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	resp, err := s.catalog.Handler.ListCategoriesHandler(r.Context())
	if err != nil {
		s.writeCatalogDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleListContestants godoc
// @Summary List contestants with cached vote counts
// @Tags catalog
// @Produce json
// @Param category_id path string true "Category ID"
// @Success 200 {object} cataloghttp.ContestantsResponse
// @Failure 404 {object} cataloghttp.ErrorResponse
// @Router /v1/categories/{category_id}/contestants [get]
func (s *Server) handleListContestants(w http.ResponseWriter, r *http.Request) {
	resp, err := s.catalog.Handler.ListContestantsHandler(r.Context(), r.PathValue("category_id"))
	if err != nil {
		s.writeCatalogDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCategoryStandings godoc
// @Summary Authoritative standings for a category
// @Tags votes
// @Produce json
// @Param category_id path string true "Category ID"
// @Success 200 {object} votehttp.StandingsResponse
// @Router /v1/categories/{category_id}/standings [get]
func (s *Server) handleCategoryStandings(w http.ResponseWriter, r *http.Request) {
	resp, err := s.votes.Handler.CategoryStandingsHandler(r.Context(), r.PathValue("category_id"))
	if err != nil {
		s.writeVoteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleContestantVotes godoc
// @Summary Authoritative vote count for one contestant
// @Tags votes
// @Produce json
// @Param contestant_id path string true "Contestant ID"
// @Success 200 {object} votehttp.ContestantVotesResponse
// @Failure 404 {object} votehttp.ErrorResponse
// @Router /v1/contestants/{contestant_id}/votes [get]
func (s *Server) handleContestantVotes(w http.ResponseWriter, r *http.Request) {
	resp, err := s.votes.Handler.ContestantVotesHandler(r.Context(), r.PathValue("contestant_id"))
	if err != nil {
		s.writeVoteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleBeginVote godoc
// @Summary Start a paid vote
// @Tags votes
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Client retry key"
// @Param request body votehttp.BeginVoteRequest true "Vote"
// @Success 201 {object} votehttp.BeginVoteResponse
// @Failure 400 {object} votehttp.ErrorResponse
// @Failure 409 {object} votehttp.ErrorResponse
// @Failure 503 {object} votehttp.ErrorResponse
// @Router /v1/votes [post]
func (s *Server) handleBeginVote(w http.ResponseWriter, r *http.Request) {
	var req votehttp.BeginVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeVoteError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.votes.Handler.BeginVoteHandler(r.Context(), r.Header.Get(votehttp.IdempotencyKeyHeader), req)
	if err != nil {
		s.writeVoteDomainError(w, err)
		return
	}
	status := http.StatusCreated
	if resp.Replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

// handleConfirmVote godoc
// @Summary Confirm a vote after checkout
// @Description The payment is verified with the provider; the asserted status is never trusted.
// @Tags votes
// @Accept json
// @Produce json
// @Param request body votehttp.ConfirmVoteRequest true "Confirmation"
// @Success 200 {object} votehttp.ConfirmVoteResponse
// @Success 202 {object} votehttp.ConfirmVoteResponse
// @Failure 404 {object} votehttp.ErrorResponse
// @Failure 503 {object} votehttp.ErrorResponse
// @Router /v1/votes/confirm [post]
func (s *Server) handleConfirmVote(w http.ResponseWriter, r *http.Request) {
	var req votehttp.ConfirmVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeVoteError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.votes.Handler.ConfirmVoteHandler(r.Context(), req)
	if err != nil {
		s.writeVoteDomainError(w, err)
		return
	}
	status := http.StatusOK
	if resp.Retryable {
		status = http.StatusAccepted
	}
	writeJSON(w, status, resp)
}

// handleVoteStatus godoc
// @Summary Look up a vote by payment reference
// @Tags votes
// @Produce json
// @Param payment_reference path string true "Payment reference"
// @Success 200 {object} votehttp.VoteStatusResponse
// @Failure 404 {object} votehttp.ErrorResponse
// @Router /v1/votes/{payment_reference} [get]
func (s *Server) handleVoteStatus(w http.ResponseWriter, r *http.Request) {
	resp, err := s.votes.Handler.VoteStatusHandler(r.Context(), r.PathValue("payment_reference"))
	if err != nil {
		s.writeVoteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handlePaystackWebhook godoc
// @Summary Paystack webhook delivery
// @Tags payments
// @Accept json
// @Produce json
// @Param X-Paystack-Signature header string true "HMAC-SHA512 of the body"
// @Success 200 {object} votehttp.WebhookAckResponse
// @Failure 401 {object} votehttp.ErrorResponse
// @Router /v1/payments/paystack/webhook [post]
func (s *Server) handlePaystackWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		writeVoteError(w, http.StatusRequestEntityTooLarge, "invalid_body", "webhook body could not be read")
		return
	}
	resp, err := s.votes.Handler.PaystackWebhookHandler(r.Context(), body, r.Header.Get(votehttp.PaystackSignatureHeader))
	if err != nil {
		s.writeVoteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeVoteDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, voteerrors.ErrContestantNotFound):
		writeVoteError(w, http.StatusNotFound, "contestant_not_found", err.Error())
	case errors.Is(err, voteerrors.ErrCategoryInactive):
		writeVoteError(w, http.StatusConflict, "category_inactive", err.Error())
	case errors.Is(err, voteerrors.ErrInvalidEmail):
		writeVoteError(w, http.StatusUnprocessableEntity, "invalid_email", err.Error())
	case errors.Is(err, voteerrors.ErrAmountMismatch):
		writeVoteError(w, http.StatusUnprocessableEntity, "amount_mismatch", err.Error())
	case errors.Is(err, voteerrors.ErrValidation):
		writeVoteError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, voteerrors.ErrUnknownPaymentReference),
		errors.Is(err, voteerrors.ErrVoteNotFound):
		writeVoteError(w, http.StatusNotFound, "unknown_payment_reference", err.Error())
	case errors.Is(err, voteerrors.ErrIdempotencyConflict):
		writeVoteError(w, http.StatusConflict, "idempotency_conflict", err.Error())
	case errors.Is(err, voteerrors.ErrInvalidWebhookSignature):
		writeVoteError(w, http.StatusUnauthorized, "invalid_signature", err.Error())
	case errors.Is(err, voteerrors.ErrPaymentProviderUnavailable):
		w.Header().Set("Retry-After", "5")
		writeVoteError(w, http.StatusServiceUnavailable, "payment_provider_unavailable", "payment provider is unavailable, please retry")
	case errors.Is(err, voteerrors.ErrStoreUnavailable):
		w.Header().Set("Retry-After", "5")
		writeVoteError(w, http.StatusServiceUnavailable, "store_unavailable", "vote store is unavailable, please retry")
	default:
		s.logger.Error("unmapped vote engine error",
			"event", "http_vote_engine_unmapped_error",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"error", err.Error(),
		)
		writeVoteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func (s *Server) writeCatalogDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalogerrors.ErrCategoryNotFound):
		writeCatalogError(w, http.StatusNotFound, "category_not_found", err.Error())
	case errors.Is(err, catalogerrors.ErrValidation):
		writeCatalogError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, catalogerrors.ErrStoreUnavailable):
		w.Header().Set("Retry-After", "5")
		writeCatalogError(w, http.StatusServiceUnavailable, "store_unavailable", "catalog store is unavailable, please retry")
	default:
		s.logger.Error("unmapped catalog error",
			"event", "http_catalog_unmapped_error",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"error", err.Error(),
		)
		writeCatalogError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeVoteError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, votehttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeCatalogError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, cataloghttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

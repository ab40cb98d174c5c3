package httpserver

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	catalogservice "paidvote/contexts/awards-voting/catalog-service"
	catalogcommands "paidvote/contexts/awards-voting/catalog-service/application/commands"
	voteengine "paidvote/contexts/awards-voting/vote-engine"
	"paidvote/contexts/awards-voting/vote-engine/adapters/paystack"
	"paidvote/contexts/awards-voting/vote-engine/domain/entities"
	votehttp "paidvote/contexts/awards-voting/vote-engine/transport/http"

	"github.com/prometheus/client_golang/prometheus"
)

const webhookSecret = "sk_test_webhook"

type testServer struct {
	server *Server
	votes  voteengine.Module
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	votes := voteengine.NewInMemoryModule([]entities.ContestantProjection{
		{ContestantID: "most-popular--ama", CategoryID: "most-popular", CategoryName: "Most Popular", CategoryActive: true, Name: "Ama"},
		{ContestantID: "most-popular--kofi", CategoryID: "most-popular", CategoryName: "Most Popular", CategoryActive: true, Name: "Kofi"},
	}, 100, "GHS", logger)
	votes.Handler.Webhooks = paystack.WebhookVerifier{SecretKey: webhookSecret}

	catalog := catalogservice.NewInMemoryModule(votes.Store.VoteCount, time.Second, logger)
	_, err := catalog.Catalog.SeedCatalog(context.Background(), catalogcommands.SeedCatalogCommand{
		Categories: []catalogcommands.SeedCategory{{
			Name:   "Most Popular",
			Active: true,
			Contestants: []catalogcommands.SeedContestant{
				{Name: "Ama"},
				{Name: "Kofi"},
			},
		}},
	})
	if err != nil {
		t.Fatalf("seed catalog: %v", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "paidvote_test_total", Help: "test"}))
	return testServer{
		server: New(votes, catalog, registry, logger, ""),
		votes:  votes,
	}
}

func (s testServer) do(t *testing.T, method string, path string, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	s.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return out
}

func (s testServer) beginVote(t *testing.T) votehttp.BeginVoteResponse {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/v1/votes", `{"contestant_id":"most-popular--ama","voter_email":"fan@example.com","amount_minor":100}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("begin vote: status %d body %s", rec.Code, rec.Body.String())
	}
	return decode[votehttp.BeginVoteResponse](t, rec)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)
	if rec := s.do(t, http.MethodGet, "/health", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("health: %d", rec.Code)
	}
	rec := s.do(t, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "paidvote_test_total") {
		t.Fatalf("metrics: %d %s", rec.Code, rec.Body.String())
	}
}

func TestBeginVoteErrors(t *testing.T) {
	s := newTestServer(t)
	cases := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"malformed json", `{"contestant_id":`, http.StatusBadRequest, "invalid_json"},
		{"wrong amount", `{"contestant_id":"most-popular--ama","voter_email":"fan@example.com","amount_minor":50}`, http.StatusUnprocessableEntity, "amount_mismatch"},
		{"bad email", `{"contestant_id":"most-popular--ama","voter_email":"not-an-email","amount_minor":100}`, http.StatusUnprocessableEntity, "invalid_email"},
		{"unknown contestant", `{"contestant_id":"nobody","voter_email":"fan@example.com","amount_minor":100}`, http.StatusNotFound, "contestant_not_found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/v1/votes", tc.body, nil)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d (%s)", tc.status, rec.Code, rec.Body.String())
			}
			if resp := decode[votehttp.ErrorResponse](t, rec); resp.Code != tc.code {
				t.Fatalf("expected code %s, got %s", tc.code, resp.Code)
			}
		})
	}
}

func TestBeginVoteReplaysIdempotencyKey(t *testing.T) {
	s := newTestServer(t)
	body := `{"contestant_id":"most-popular--ama","voter_email":"fan@example.com","amount_minor":100}`
	headers := map[string]string{votehttp.IdempotencyKeyHeader: "retry-1"}

	first := s.do(t, http.MethodPost, "/v1/votes", body, headers)
	if first.Code != http.StatusCreated {
		t.Fatalf("first begin: %d %s", first.Code, first.Body.String())
	}
	second := s.do(t, http.MethodPost, "/v1/votes", body, headers)
	if second.Code != http.StatusOK {
		t.Fatalf("replayed begin: %d %s", second.Code, second.Body.String())
	}
	a := decode[votehttp.BeginVoteResponse](t, first)
	b := decode[votehttp.BeginVoteResponse](t, second)
	if a.PaymentReference != b.PaymentReference || !b.Replayed {
		t.Fatalf("replay returned a different vote: %+v vs %+v", a, b)
	}

	conflict := s.do(t, http.MethodPost, "/v1/votes", strings.Replace(body, "ama", "kofi", 1), headers)
	if conflict.Code != http.StatusConflict {
		t.Fatalf("expected conflict, got %d", conflict.Code)
	}
}

func TestConfirmVoteFlow(t *testing.T) {
	s := newTestServer(t)
	begun := s.beginVote(t)
	confirmBody := `{"payment_reference":"` + begun.PaymentReference + `","status":"success"}`

	pending := s.do(t, http.MethodPost, "/v1/votes/confirm", confirmBody, nil)
	if pending.Code != http.StatusAccepted {
		t.Fatalf("expected 202 while unpaid, got %d %s", pending.Code, pending.Body.String())
	}
	if resp := decode[votehttp.ConfirmVoteResponse](t, pending); resp.Counted || resp.Outcome != string(entities.OutcomeVerificationPending) {
		t.Fatalf("asserted success must not count: %+v", resp)
	}

	s.votes.Gateway.Settle(begun.PaymentReference, 100)
	committed := s.do(t, http.MethodPost, "/v1/votes/confirm", confirmBody, nil)
	if committed.Code != http.StatusOK {
		t.Fatalf("confirm: %d %s", committed.Code, committed.Body.String())
	}
	first := decode[votehttp.ConfirmVoteResponse](t, committed)
	if !first.Counted || first.NewCount != 1 || first.Outcome != string(entities.OutcomeCommitted) {
		t.Fatalf("unexpected commit response: %+v", first)
	}

	replay := decode[votehttp.ConfirmVoteResponse](t, s.do(t, http.MethodPost, "/v1/votes/confirm", confirmBody, nil))
	if !replay.Counted || replay.NewCount != 1 || replay.Message != first.Message {
		t.Fatalf("replay must report the original commit: %+v", replay)
	}

	status := s.do(t, http.MethodGet, "/v1/votes/"+begun.PaymentReference, "", nil)
	if resp := decode[votehttp.VoteStatusResponse](t, status); resp.State != string(entities.VoteStateCommitted) || resp.CommittedAt == nil {
		t.Fatalf("unexpected status: %+v", resp)
	}

	standings := decode[votehttp.StandingsResponse](t, s.do(t, http.MethodGet, "/v1/categories/most-popular/standings", "", nil))
	if len(standings.Items) != 2 || standings.Items[0].ContestantID != "most-popular--ama" || standings.Items[0].VoteCount != 1 || standings.Items[0].Rank != 1 {
		t.Fatalf("unexpected standings: %+v", standings)
	}
	votes := decode[votehttp.ContestantVotesResponse](t, s.do(t, http.MethodGet, "/v1/contestants/most-popular--ama/votes", "", nil))
	if votes.VoteCount != 1 {
		t.Fatalf("unexpected contestant count: %+v", votes)
	}
}

func TestConfirmVoteUnknownReference(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/v1/votes/confirm", `{"payment_reference":"vote-missing"}`, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if rec := s.do(t, http.MethodGet, "/v1/votes/vote-missing", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for status, got %d", rec.Code)
	}
}

func TestConfirmVoteProviderOutage(t *testing.T) {
	s := newTestServer(t)
	begun := s.beginVote(t)
	s.votes.Gateway.FailVerifyWith(errors.New("connection reset"))

	rec := s.do(t, http.MethodPost, "/v1/votes/confirm", `{"payment_reference":"`+begun.PaymentReference+`"}`, nil)
	if rec.Code != http.StatusServiceUnavailable || rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected retryable 503, got %d", rec.Code)
	}
}

func TestPaystackWebhook(t *testing.T) {
	s := newTestServer(t)
	begun := s.beginVote(t)
	s.votes.Gateway.Settle(begun.PaymentReference, 100)
	body := []byte(`{"event":"charge.success","data":{"reference":"` + begun.PaymentReference + `","status":"success"}}`)

	forged := s.do(t, http.MethodPost, "/v1/payments/paystack/webhook", string(body), map[string]string{
		votehttp.PaystackSignatureHeader: hex.EncodeToString(paystack.Sign("wrong-secret", body)),
	})
	if forged.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for forged signature, got %d", forged.Code)
	}
	if count := s.votes.Gateway.VerifyCalls(begun.PaymentReference); count != 0 {
		t.Fatalf("forged webhook reached the provider %d times", count)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/payments/paystack/webhook", bytes.NewReader(body))
	req.Header.Set(votehttp.PaystackSignatureHeader, hex.EncodeToString(paystack.Sign(webhookSecret, body)))
	rec := httptest.NewRecorder()
	s.server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("webhook: %d %s", rec.Code, rec.Body.String())
	}
	ack := decode[votehttp.WebhookAckResponse](t, rec)
	if !ack.Received || ack.Outcome != string(entities.OutcomeCommitted) {
		t.Fatalf("unexpected ack: %+v", ack)
	}
}

func TestCatalogRoutes(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/v1/categories", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"most-popular"`) {
		t.Fatalf("categories: %d %s", rec.Code, rec.Body.String())
	}
	rec = s.do(t, http.MethodGet, "/v1/categories/most-popular/contestants", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"most-popular--kofi"`) {
		t.Fatalf("contestants: %d %s", rec.Code, rec.Body.String())
	}
	if rec := s.do(t, http.MethodGet, "/v1/categories/unknown/contestants", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown category, got %d", rec.Code)
	}
}

func TestSwaggerDocumentsEveryRoute(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/swagger/doc.json", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("swagger doc: %d", rec.Code)
	}
	doc := decode[struct {
		Paths       map[string]map[string]json.RawMessage `json:"paths"`
		Definitions map[string]json.RawMessage            `json:"definitions"`
	}](t, rec)

	routes := map[string]string{
		"/v1/categories":                           "get",
		"/v1/categories/{category_id}/contestants": "get",
		"/v1/categories/{category_id}/standings":   "get",
		"/v1/contestants/{contestant_id}/votes":    "get",
		"/v1/votes":                                "post",
		"/v1/votes/confirm":                        "post",
		"/v1/votes/{payment_reference}":            "get",
		"/v1/payments/paystack/webhook":            "post",
	}
	for path, method := range routes {
		if _, ok := doc.Paths[path][method]; !ok {
			t.Fatalf("swagger doc is missing %s %s", strings.ToUpper(method), path)
		}
	}
	for _, name := range []string{"votehttp.ContestantVotesResponse", "votehttp.VoteStatusResponse"} {
		if _, ok := doc.Definitions[name]; !ok {
			t.Fatalf("swagger doc is missing definition %s", name)
		}
	}
}

package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"paidvote/contexts/awards-voting/vote-engine/domain/entities"
	domainerrors "paidvote/contexts/awards-voting/vote-engine/domain/errors"
	"paidvote/contexts/awards-voting/vote-engine/ports"

	"github.com/hashicorp/go-retryablehttp"
)

const DefaultBaseURL = "https://api.paystack.co"

type Config struct {
	BaseURL     string
	SecretKey   string
	CallbackURL string
	Channels    []string
	Timeout     time.Duration
	RetryMax    int
	Logger      *slog.Logger
}

// Client talks to the Paystack transaction API. Amounts are always in the
// currency subunit (pesewas for GHS).
type Client struct {
	baseURL     string
	secretKey   string
	callbackURL string
	channels    []string
	http        *retryablehttp.Client
	logger      *slog.Logger
}

func NewClient(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	retryMax := cfg.RetryMax
	if retryMax < 0 {
		retryMax = 0
	}

	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = retryMax
	httpClient.RetryWaitMin = 200 * time.Millisecond
	httpClient.RetryWaitMax = 2 * time.Second
	httpClient.HTTPClient.Timeout = timeout
	httpClient.Logger = logger.With("module", "awards-voting/vote-engine", "layer", "adapter", "adapter", "paystack")
	httpClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	channels := cfg.Channels
	if len(channels) == 0 {
		channels = []string{"card", "mobile_money"}
	}
	return &Client{
		baseURL:     baseURL,
		secretKey:   strings.TrimSpace(cfg.SecretKey),
		callbackURL: strings.TrimSpace(cfg.CallbackURL),
		channels:    channels,
		http:        httpClient,
		logger:      logger,
	}
}

type envelope[T any] struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type initializeRequest struct {
	Email       string   `json:"email"`
	Amount      int64    `json:"amount"`
	Currency    string   `json:"currency"`
	Reference   string   `json:"reference"`
	CallbackURL string   `json:"callback_url,omitempty"`
	Channels    []string `json:"channels,omitempty"`
	Metadata    metadata `json:"metadata"`
}

type metadata struct {
	ContestantID string        `json:"contestant_id"`
	CategoryID   string        `json:"category_id"`
	CustomFields []customField `json:"custom_fields"`
}

type customField struct {
	DisplayName  string `json:"display_name"`
	VariableName string `json:"variable_name"`
	Value        string `json:"value"`
}

type initializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type verifyData struct {
	Reference       string `json:"reference"`
	Status          string `json:"status"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	Channel         string `json:"channel"`
	GatewayResponse string `json:"gateway_response"`
	PaidAt          string `json:"paid_at"`
}

func (c *Client) CreateIntent(ctx context.Context, req ports.IntentRequest) (entities.PaymentIntent, error) {
	body, err := json.Marshal(initializeRequest{
		Email:       req.Email,
		Amount:      req.AmountMinor,
		Currency:    strings.ToUpper(req.Currency),
		Reference:   req.Reference,
		CallbackURL: c.callbackURL,
		Channels:    c.channels,
		Metadata: metadata{
			ContestantID: req.ContestantID,
			CategoryID:   req.CategoryID,
			CustomFields: []customField{
				{DisplayName: "Contestant", VariableName: "contestant_name", Value: req.ContestantName},
				{DisplayName: "Category", VariableName: "category_name", Value: req.CategoryName},
			},
		},
	})
	if err != nil {
		return entities.PaymentIntent{}, err
	}

	var payload envelope[initializeData]
	status, err := c.do(ctx, http.MethodPost, "/transaction/initialize", body, &payload)
	if err != nil {
		return entities.PaymentIntent{}, err
	}
	if status != http.StatusOK || !payload.Status {
		c.logger.Warn("paystack initialize rejected",
			"event", "vote_engine_paystack_initialize_rejected",
			"module", "awards-voting/vote-engine",
			"layer", "adapter",
			"payment_reference", req.Reference,
			"http_status", status,
			"message", payload.Message,
		)
		return entities.PaymentIntent{}, fmt.Errorf("%w: initialize returned %d: %s",
			domainerrors.ErrPaymentProviderUnavailable, status, payload.Message)
	}
	reference := payload.Data.Reference
	if reference == "" {
		reference = req.Reference
	}
	return entities.PaymentIntent{
		Reference:   reference,
		CheckoutURL: payload.Data.AuthorizationURL,
		AccessCode:  payload.Data.AccessCode,
	}, nil
}

func (c *Client) Verify(ctx context.Context, reference string, expectedAmountMinor int64) (entities.PaymentVerification, error) {
	var payload envelope[verifyData]
	status, err := c.do(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil, &payload)
	if err != nil {
		return entities.PaymentVerification{}, err
	}

	switch {
	case status == http.StatusNotFound,
		status == http.StatusBadRequest && strings.Contains(strings.ToLower(payload.Message), "not found"):
		return entities.PaymentVerification{
			Reference:      reference,
			Status:         entities.PaymentStatusFailed,
			ProviderStatus: entities.ProviderStatusReferenceNotFound,
		}, nil
	case status != http.StatusOK || !payload.Status:
		return entities.PaymentVerification{}, fmt.Errorf("%w: verify returned %d: %s",
			domainerrors.ErrPaymentProviderUnavailable, status, payload.Message)
	}

	verification := entities.PaymentVerification{
		Reference:      reference,
		Status:         mapTransactionStatus(payload.Data.Status),
		AmountMinor:    payload.Data.Amount,
		Currency:       strings.ToUpper(payload.Data.Currency),
		ProviderStatus: strings.ToLower(payload.Data.Status),
		Channel:        payload.Data.Channel,
	}
	if paidAt, err := time.Parse(time.RFC3339, payload.Data.PaidAt); err == nil {
		paidAt = paidAt.UTC()
		verification.PaidAt = &paidAt
	}
	if verification.Status == entities.PaymentStatusSucceeded && verification.AmountMinor != expectedAmountMinor {
		c.logger.Warn("paystack settled amount differs from expected",
			"event", "vote_engine_paystack_amount_differs",
			"module", "awards-voting/vote-engine",
			"layer", "adapter",
			"payment_reference", reference,
			"settled_amount_minor", verification.AmountMinor,
			"expected_amount_minor", expectedAmountMinor,
		)
	}
	return verification, nil
}

// do sends one request through the retrying client and decodes the JSON body
// into out. Transport failures and 5xx responses surface as
// ErrPaymentProviderUnavailable.
func (c *Client) do(ctx context.Context, method string, path string, body []byte, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("paystack request failed",
			"event", "vote_engine_paystack_request_failed",
			"module", "awards-voting/vote-engine",
			"layer", "adapter",
			"method", method,
			"path", path,
			"error", err.Error(),
		)
		return 0, fmt.Errorf("%w: %w", domainerrors.ErrPaymentProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
		return resp.StatusCode, fmt.Errorf("%w: %s %s returned %d",
			domainerrors.ErrPaymentProviderUnavailable, method, path, resp.StatusCode)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("%w: %w", domainerrors.ErrPaymentProviderUnavailable, err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil && resp.StatusCode == http.StatusOK {
			return resp.StatusCode, fmt.Errorf("%w: decode response: %w", domainerrors.ErrPaymentProviderUnavailable, err)
		}
	}
	return resp.StatusCode, nil
}

func mapTransactionStatus(status string) entities.PaymentStatus {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "success":
		return entities.PaymentStatusSucceeded
	case "failed", "reversed":
		return entities.PaymentStatusFailed
	default:
		// abandoned, ongoing, pending, processing, queued: the voter may still pay.
		return entities.PaymentStatusPending
	}
}

var _ ports.PaymentIntents = (*Client)(nil)
var _ ports.PaymentVerifier = (*Client)(nil)

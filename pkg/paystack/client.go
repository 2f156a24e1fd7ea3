package paystack

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/kitstore-backend/pkg/errors"
)

const (
	defaultBaseURL          = "https://api.paystack.co"
	SignatureHeader         = "x-paystack-signature"
	errorBodyReadLimit      = 1024
	EventChargeSuccess      = "charge.success"
	gatewayUnavailableError = "payment service is temporarily unavailable, please try again"
)

var (
	errSecretKeyRequired = errors.New("paystack secret key is required")
	hundred              = decimal.NewFromInt(100)
)

// Client talks to the Paystack transactions API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	secretKey  string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the Paystack API host.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/"); trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds a Paystack client for the given secret key.
func NewClient(secretKey string, opts ...Option) (*Client, error) {
	key := strings.TrimSpace(secretKey)
	if key == "" {
		return nil, errSecretKeyRequired
	}
	c := &Client{
		secretKey:  key,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// InitializeRequest is the input to transaction/initialize. Amount is in major
// units; the client converts to the lowest denomination.
type InitializeRequest struct {
	Email       string
	Amount      decimal.Decimal
	Currency    string
	Reference   string
	CallbackURL string
	Metadata    map[string]any
}

// InitializeResult carries the hosted checkout handles.
type InitializeResult struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// Transaction is the verify payload subset the storefront uses.
type Transaction struct {
	ID              int64           `json:"id"`
	Status          string          `json:"status"`
	Reference       string          `json:"reference"`
	AmountMinor     int64           `json:"amount"`
	Currency        string          `json:"currency"`
	Channel         string          `json:"channel"`
	GatewayResponse string          `json:"gateway_response"`
	PaidAt          *time.Time      `json:"paid_at"`
	Customer        Customer        `json:"customer"`
	Metadata        json.RawMessage `json:"metadata"`
}

// Customer is the payer block of a transaction.
type Customer struct {
	Email string `json:"email"`
}

// Successful reports whether Paystack settled the charge.
func (t Transaction) Successful() bool {
	return t.Status == "success"
}

// Amount returns the settled amount in major units.
func (t Transaction) Amount() decimal.Decimal {
	return decimal.NewFromInt(t.AmountMinor).Div(hundred)
}

type envelope[T any] struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// Initialize starts a transaction and returns the hosted payment page handles.
func (c *Client) Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error) {
	if strings.TrimSpace(req.Email) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if !req.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be greater than zero")
	}

	body := map[string]any{
		"email":  strings.TrimSpace(req.Email),
		"amount": ToMinorUnits(req.Amount),
	}
	if req.Currency != "" {
		body["currency"] = req.Currency
	}
	if req.Reference != "" {
		body["reference"] = req.Reference
	}
	if req.CallbackURL != "" {
		body["callback_url"] = req.CallbackURL
	}
	if len(req.Metadata) > 0 {
		body["metadata"] = req.Metadata
	}

	var out envelope[InitializeResult]
	if err := c.do(ctx, http.MethodPost, "/transaction/initialize", body, &out); err != nil {
		return nil, err
	}
	if !out.Status || out.Data.AuthorizationURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, gatewayUnavailableError).
			WithDetails(map[string]any{"gateway_message": out.Message})
	}
	return &out.Data, nil
}

// Verify fetches the authoritative status of a transaction by reference.
func (c *Client) Verify(ctx context.Context, reference string) (*Transaction, error) {
	ref := strings.TrimSpace(reference)
	if ref == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reference is required")
	}
	var out envelope[Transaction]
	if err := c.do(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(ref), nil, &out); err != nil {
		return nil, err
	}
	if !out.Status {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment verification failed").
			WithDetails(map[string]any{"gateway_message": out.Message})
	}
	return &out.Data, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, dest any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal paystack request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build paystack request")
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, gatewayUnavailableError)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
	}
	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeDependency,
			fmt.Errorf("paystack %s %s returned %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(snippet))),
			gatewayUnavailableError)
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode paystack response")
	}
	return nil
}

// ToMinorUnits converts a major-unit amount to pesewas/kobo, rounding half up.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// VerifySignature checks the HMAC-SHA512 signature Paystack sends with webhooks.
func VerifySignature(secretKey string, body []byte, signature string) bool {
	if secretKey == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(secretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(strings.TrimSpace(signature))))
}

// Sign produces the webhook signature for body. Used by tests and local tooling.
func Sign(secretKey string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secretKey))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// WebhookEvent is the outer webhook payload.
type WebhookEvent struct {
	Event string      `json:"event"`
	Data  Transaction `json:"data"`
}

// ParseWebhook decodes a verified webhook body.
func ParseWebhook(body []byte) (*WebhookEvent, error) {
	var evt WebhookEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid webhook payload")
	}
	if evt.Event == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "webhook event missing")
	}
	return &evt, nil
}

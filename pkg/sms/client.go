package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/kitstore-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/kitstore-backend/pkg/errors"
)

const maxMessageLength = 459 // three concatenated GSM segments

var errNotConfigured = errors.New("sms gateway not configured")

// Sender delivers a text message to one recipient.
type Sender interface {
	Send(ctx context.Context, to, message string) error
}

// Client posts messages to an HTTP SMS gateway (`POST {base}/sms/send`,
// api-key header, JSON body {sender, recipients, message}).
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	senderID   string
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

// NewClient builds a gateway client from config.
func NewClient(cfg config.SMSConfig, opts ...Option) (*Client, error) {
	if !cfg.Enabled() {
		return nil, errNotConfigured
	}
	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		senderID:   strings.TrimSpace(cfg.SenderID),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

type sendRequest struct {
	Sender     string   `json:"sender"`
	Recipients []string `json:"recipients"`
	Message    string   `json:"message"`
}

// Send delivers message to the given phone number.
func (c *Client) Send(ctx context.Context, to, message string) error {
	recipient := NormalizePhone(to)
	if recipient == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient phone is required")
	}
	if len(message) > maxMessageLength {
		message = message[:maxMessageLength]
	}

	payload, err := json.Marshal(sendRequest{
		Sender:     c.senderID,
		Recipients: []string{recipient},
		Message:    message,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal sms request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sms/send", bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build sms request")
	}
	req.Header.Set("api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sms gateway request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return pkgerrors.Wrap(pkgerrors.CodeDependency,
			fmt.Errorf("sms gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))),
			"sms gateway rejected message")
	}
	return nil
}

// NormalizePhone strips formatting and rewrites local Ghanaian numbers
// (0XXXXXXXXX) to international form without the plus sign.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) == 10 && strings.HasPrefix(digits, "0") {
		return "233" + digits[1:]
	}
	return digits
}

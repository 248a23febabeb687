// Package httpmail delivers one-time codes through a transactional mail relay's JSON HTTP API.
package httpmail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/samber/oops"

	"resume-analyzer/backend/internal/apperr"
)

const defaultTimeout = 15 * time.Second

// maxErrorBody caps how much of a failed response body is kept in the error.
const maxErrorBody = 512

// Client posts one message per code to the relay at URL.
type Client struct {
	URL        string
	APIKey     string
	Sender     string
	HTTPClient *http.Client
}

type message struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

// New returns a Client for the relay at url. An empty sender falls back to no-reply@localhost.
func New(url, apiKey, sender string) *Client {
	if sender == "" {
		sender = "no-reply@localhost"
	}
	return &Client{
		URL:        url,
		APIKey:     apiKey,
		Sender:     sender,
		HTTPClient: &http.Client{Timeout: defaultTimeout},
	}
}

// Send mails code to email. Any non-2xx answer is an error. The code is never logged or put in errors.
func (c *Client) Send(ctx context.Context, email, code string) error {
	errb := oops.Code("MAIL_DELIVERY_FAILED").With("recipient", email)
	if c.URL == "" {
		return errb.Wrap(fmt.Errorf("%w: mail relay URL not configured", apperr.ErrDeliveryFailure))
	}
	raw, err := json.Marshal(message{
		From:    c.Sender,
		To:      email,
		Subject: "Your verification code",
		Text:    "Your verification code is " + code + ". It expires shortly; do not share it.",
	})
	if err != nil {
		return errb.Wrap(fmt.Errorf("%w: %w", apperr.ErrDeliveryFailure, err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(raw))
	if err != nil {
		return errb.Wrap(fmt.Errorf("%w: %w", apperr.ErrDeliveryFailure, err))
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return errb.Wrap(fmt.Errorf("%w: %w", apperr.ErrDeliveryFailure, err))
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return errb.With("status", resp.StatusCode).
			Wrap(fmt.Errorf("%w: relay status=%d body=%s", apperr.ErrDeliveryFailure, resp.StatusCode, string(b)))
	}
	return nil
}

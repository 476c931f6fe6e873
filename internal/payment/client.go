package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrProviderUnavailable marks transport-level or 5xx failures so handlers
// can map them to a gateway error instead of a generic internal one.
var ErrProviderUnavailable = errors.New("payment provider unavailable")

// Client talks to the hosted-checkout provider. One session covers all vendor
// orders of a checkout; the split stays internal to us.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type LineItem struct {
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Qty        int    `json:"qty"`
}

type SessionRequest struct {
	Reference string            `json:"reference"` // checkout_id
	LineItems []LineItem        `json:"line_items"`
	Metadata  map[string]string `json:"metadata"` // carries order_ids
	ExpiresIn time.Duration     `json:"-"`
	ExpiresAt time.Time         `json:"expires_at"`
}

type Session struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (c *Client) CreateSession(ctx context.Context, req SessionRequest) (Session, error) {
	if req.ExpiresIn > 0 {
		req.ExpiresAt = time.Now().UTC().Add(req.ExpiresIn)
	}
	body, err := json.Marshal(req)
	if err != nil {
		return Session{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/v1/checkout/sessions", bytes.NewReader(body))
	if err != nil {
		return Session{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return Session{}, fmt.Errorf("%w: status %d", ErrProviderUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return Session{}, fmt.Errorf("create session: status %d", resp.StatusCode)
	}

	var s Session
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}
	return s, nil
}

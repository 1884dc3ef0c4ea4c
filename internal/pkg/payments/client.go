// Package payments applies externally confirmed payments to a tenant's plan
// and quota ledger, exactly once per external payment id. It also wraps the
// payment gateway's HTTP API for checkout creation and payment verification.
package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lubritrack/lubritrack/internal/pkg/env"
)

const defaultGatewayBaseURL = "https://api.pagos.example.com"

// Verification is the gateway's answer for one external payment id.
type Verification struct {
	Approved bool            `json:"approved"`
	Amount   decimal.Decimal `json:"amount"`
	PlanHint string          `json:"plan_hint"`
}

// CheckoutSession is the gateway-hosted checkout a tenant is redirected to.
type CheckoutSession struct {
	ID          string `json:"id"`
	CheckoutURL string `json:"checkout_url"`
}

// Verifier confirms an external payment against the gateway's own records.
type Verifier interface {
	VerifyPayment(ctx context.Context, externalPaymentID string) (*Verification, error)
}

// Client talks to the external payment gateway.
type Client struct {
	APIBaseURL string
	APIKey     string

	HTTPClient *http.Client
}

// NewClientFromEnv builds a gateway client from environment configuration.
func NewClientFromEnv() *Client {
	return &Client{
		APIBaseURL: strings.TrimRight(env.GetEnv("PAYMENT_GATEWAY_URL", defaultGatewayBaseURL), "/"),
		APIKey:     strings.TrimSpace(env.GetEnv("PAYMENT_GATEWAY_API_KEY", "")),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// VerifyPayment looks up an external payment id at the gateway. Any transport
// or decode failure is an error; callers treat errors as a rejected payment.
func (c *Client) VerifyPayment(ctx context.Context, externalPaymentID string) (*Verification, error) {
	id := strings.TrimSpace(externalPaymentID)
	if id == "" {
		return nil, errors.New("external payment id is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.APIBaseURL+"/v1/payments/"+id, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return &Verification{Approved: false}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("gateway verify returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var v Verification
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return nil, fmt.Errorf("decode gateway verify response: %w", err)
	}
	return &v, nil
}

// CreateCheckout opens a gateway checkout session for a plan purchase. This is
// a thin proxy; only the later confirmation/reconciliation step carries any
// invariants.
func (c *Client) CreateCheckout(ctx context.Context, tenantID uint, planCode string, amount decimal.Decimal) (*CheckoutSession, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"reference": fmt.Sprintf("tenant-%d", tenantID),
		"plan_code": planCode,
		"amount":    amount,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIBaseURL+"/v1/checkouts", strings.NewReader(string(payload)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("gateway checkout returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var session CheckoutSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("decode gateway checkout response: %w", err)
	}
	return &session, nil
}

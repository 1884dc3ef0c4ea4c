package payments

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := &Client{
		APIBaseURL: server.URL,
		APIKey:     "test-key",
		HTTPClient: &http.Client{Timeout: 2 * time.Second},
	}
	return client, server
}

func TestVerifyPaymentApproved(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payments/mp-1001" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("missing bearer token, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"approved":true,"amount":"25000.00","plan_hint":"pack-20"}`))
	}))
	defer server.Close()

	v, err := client.VerifyPayment(context.Background(), "mp-1001")
	if err != nil {
		t.Fatalf("VerifyPayment: %v", err)
	}
	if !v.Approved || v.PlanHint != "pack-20" {
		t.Fatalf("unexpected verification: %+v", v)
	}
}

func TestVerifyPaymentNotFound(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	v, err := client.VerifyPayment(context.Background(), "unknown")
	if err != nil {
		t.Fatalf("VerifyPayment: %v", err)
	}
	if v.Approved {
		t.Fatalf("unknown payment must not be approved")
	}
}

func TestVerifyPaymentServerError(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	if _, err := client.VerifyPayment(context.Background(), "mp-1001"); err == nil {
		t.Fatalf("expected error on gateway 5xx")
	}
}

func TestVerifyPaymentEmptyID(t *testing.T) {
	client := &Client{APIBaseURL: "http://localhost:0", HTTPClient: http.DefaultClient}
	if _, err := client.VerifyPayment(context.Background(), "  "); err == nil {
		t.Fatalf("expected error for empty payment id")
	}
}

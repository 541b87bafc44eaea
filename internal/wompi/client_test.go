package wompi

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/andresfq/go-checkout/internal/checkout"
)

func newTestClient(h http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(h)
	c := New(srv.URL, "pub_test_key", "prv_test_key", "integrity_secret")
	return c, srv
}

func TestAcceptanceToken(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/merchants/pub_test_key" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("merchant lookup must not carry a bearer token")
		}
		_, _ = w.Write([]byte(`{"data":{"presigned_acceptance":{"acceptance_token":"eyJhbGc"}}}`))
	})
	defer srv.Close()

	tok, err := c.AcceptanceToken(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok != "eyJhbGc" {
		t.Errorf("expected eyJhbGc, got %q", tok)
	}
}

func TestTokenizeCard(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tokens/cards" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer pub_test_key" {
			t.Errorf("tokenization uses the public key, got %q", r.Header.Get("Authorization"))
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["number"] != "4242424242424242" || body["card_holder"] != "Ana Gomez" {
			t.Errorf("bad payload: %v", body)
		}
		_, _ = w.Write([]byte(`{"data":{"id":"tok_test_1"}}`))
	})
	defer srv.Close()

	tok, err := c.TokenizeCard(context.Background(), checkout.CardData{
		Number:     "4242424242424242",
		CVC:        "123",
		ExpMonth:   "12",
		ExpYear:    "29",
		CardHolder: "Ana Gomez",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok != "tok_test_1" {
		t.Errorf("expected tok_test_1, got %q", tok)
	}
}

func TestCreatePaymentSource_NumericID(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer prv_test_key" {
			t.Errorf("payment sources use the private key, got %q", r.Header.Get("Authorization"))
		}
		// the provider returns a numeric id here
		_, _ = w.Write([]byte(`{"data":{"id":98765}}`))
	})
	defer srv.Close()

	id, err := c.CreatePaymentSource(context.Background(), "tok_test_1", "ana@example.com", "eyJhbGc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "98765" {
		t.Errorf("expected 98765, got %q", id)
	}
}

func TestCreateCharge_SignsRequest(t *testing.T) {
	var got map[string]any
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transactions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"data":{"id":"tx-123","status":"PENDING","finalized_at":""}}`))
	})
	defer srv.Close()

	charge, err := c.CreateCharge(context.Background(), checkout.ChargeRequest{
		AmountCents:     315000,
		Currency:        "COP",
		PaymentSourceID: "98765",
		Reference:       "TX-20260831-ABCD1234",
		CustomerEmail:   "ana@example.com",
		Installments:    3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if charge.ID != "tx-123" || charge.Status != "PENDING" {
		t.Errorf("bad charge: %+v", charge)
	}

	sum := sha256.Sum256([]byte("TX-20260831-ABCD1234" + "315000" + "COP" + "integrity_secret"))
	if got["signature"] != hex.EncodeToString(sum[:]) {
		t.Errorf("bad signature: %v", got["signature"])
	}
	if got["amount_in_cents"].(float64) != 315000 {
		t.Errorf("bad amount: %v", got["amount_in_cents"])
	}
	pm := got["payment_method"].(map[string]any)
	if pm["installments"].(float64) != 3 {
		t.Errorf("bad installments: %v", pm["installments"])
	}
	if got["payment_source_id"] != "98765" || got["reference"] != "TX-20260831-ABCD1234" {
		t.Errorf("bad payload: %v", got)
	}
}

func TestChargeStatus(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transactions/tx-123" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"data":{"id":"tx-123","status":"APPROVED","finalized_at":"2026-08-31T12:00:00Z"}}`))
	})
	defer srv.Close()

	charge, err := c.ChargeStatus(context.Background(), "tx-123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if charge.Status != "APPROVED" || charge.FinalizedAt != "2026-08-31T12:00:00Z" {
		t.Errorf("bad charge: %+v", charge)
	}
}

func TestErrorResponseBecomesGatewayError(t *testing.T) {
	body := `{"error":{"type":"INPUT_VALIDATION_ERROR","message":"card is invalid"}}`
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(body))
	})
	defer srv.Close()

	_, err := c.TokenizeCard(context.Background(), checkout.CardData{})
	var ge *checkout.GatewayError
	if !errors.As(err, &ge) {
		t.Fatalf("expected GatewayError, got %v", err)
	}
	if ge.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", ge.StatusCode)
	}
	if ge.Message != "card is invalid" {
		t.Errorf("expected provider message, got %q", ge.Message)
	}
	if string(ge.Body) != body {
		t.Errorf("raw body must be preserved, got %s", ge.Body)
	}
}

func TestMalformedResponseBecomesGatewayError(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>gateway timeout</html>`))
	})
	defer srv.Close()

	_, err := c.AcceptanceToken(context.Background())
	var ge *checkout.GatewayError
	if !errors.As(err, &ge) {
		t.Fatalf("expected GatewayError, got %v", err)
	}
}

func TestConnectionFailureBecomesGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := New(srv.URL, "pub", "prv", "secret")

	_, err := c.AcceptanceToken(context.Background())
	var ge *checkout.GatewayError
	if !errors.As(err, &ge) {
		t.Fatalf("expected GatewayError, got %v", err)
	}
	if ge.StatusCode != 0 {
		t.Errorf("transport failures carry no status code, got %d", ge.StatusCode)
	}
}

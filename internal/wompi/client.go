// Package wompi implements the checkout.PaymentGateway contract against a
// Wompi-compatible HTTP API.
package wompi

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/andresfq/go-checkout/internal/checkout"
)

const DefaultBaseURL = "https://sandbox.wompi.co/v1"

type Client struct {
	BaseURL         string
	PublicKey       string
	PrivateKey      string
	IntegritySecret string
	HTTP            *http.Client
}

func New(baseURL, publicKey, privateKey, integritySecret string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:         baseURL,
		PublicKey:       publicKey,
		PrivateKey:      privateKey,
		IntegritySecret: integritySecret,
		HTTP:            &http.Client{Timeout: 15 * time.Second},
	}
}

// AcceptanceToken fetches the merchant's presigned compliance token.
func (c *Client) AcceptanceToken(ctx context.Context) (string, error) {
	var out struct {
		PresignedAcceptance struct {
			AcceptanceToken string `json:"acceptance_token"`
		} `json:"presigned_acceptance"`
	}
	if err := c.do(ctx, http.MethodGet, "/merchants/"+c.PublicKey, "", nil, &out); err != nil {
		return "", err
	}
	return out.PresignedAcceptance.AcceptanceToken, nil
}

func (c *Client) TokenizeCard(ctx context.Context, card checkout.CardData) (string, error) {
	body := map[string]string{
		"number":      card.Number,
		"cvc":         card.CVC,
		"exp_month":   card.ExpMonth,
		"exp_year":    card.ExpYear,
		"card_holder": card.CardHolder,
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/tokens/cards", c.PublicKey, body, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *Client) CreatePaymentSource(ctx context.Context, token, customerEmail, acceptanceToken string) (string, error) {
	body := map[string]string{
		"type":             "CARD",
		"token":            token,
		"customer_email":   customerEmail,
		"acceptance_token": acceptanceToken,
	}
	var out struct {
		ID json.Number `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/payment_sources", c.PrivateKey, body, &out); err != nil {
		return "", err
	}
	return out.ID.String(), nil
}

func (c *Client) CreateCharge(ctx context.Context, req checkout.ChargeRequest) (*checkout.Charge, error) {
	body := map[string]any{
		"amount_in_cents": req.AmountCents,
		"currency":        req.Currency,
		"signature":       c.signature(req.Reference, req.AmountCents, req.Currency),
		"customer_email":  req.CustomerEmail,
		"payment_method": map[string]any{
			"installments": req.Installments,
		},
		"reference":         req.Reference,
		"payment_source_id": req.PaymentSourceID,
	}
	var out chargeData
	if err := c.do(ctx, http.MethodPost, "/transactions", c.PrivateKey, body, &out); err != nil {
		return nil, err
	}
	return out.charge(), nil
}

func (c *Client) ChargeStatus(ctx context.Context, gatewayTxID string) (*checkout.Charge, error) {
	var out chargeData
	if err := c.do(ctx, http.MethodGet, "/transactions/"+gatewayTxID, c.PrivateKey, nil, &out); err != nil {
		return nil, err
	}
	return out.charge(), nil
}

type chargeData struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	FinalizedAt string `json:"finalized_at"`
}

func (d *chargeData) charge() *checkout.Charge {
	return &checkout.Charge{ID: d.ID, Status: d.Status, FinalizedAt: d.FinalizedAt}
}

// signature is the tamper-evident digest the gateway verifies server-side:
// sha256(reference + amount + currency + integrity secret).
func (c *Client) signature(reference string, amountCents int64, currency string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s%d%s%s", reference, amountCents, currency, c.IntegritySecret)))
	return hex.EncodeToString(sum[:])
}

// do sends one request and decodes {"data": ...} into out. Non-2xx responses
// become a *checkout.GatewayError carrying the provider's raw body.
func (c *Client) do(ctx context.Context, method, path, bearer string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return &checkout.GatewayError{Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &checkout.GatewayError{StatusCode: resp.StatusCode, Message: err.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &checkout.GatewayError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(raw),
			Body:       raw,
		}
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return &checkout.GatewayError{StatusCode: resp.StatusCode, Message: "malformed gateway response", Body: raw}
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(envelope.Data, out)
}

func errorMessage(raw []byte) string {
	var e struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &e) == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	return ""
}

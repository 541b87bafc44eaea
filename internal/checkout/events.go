package checkout

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated         = "OrderCreated"
	EventPaymentSubmitted     = "PaymentSubmitted"
	EventPaymentStatusChanged = "PaymentStatusChanged"
	EventOrderFulfilled       = "OrderFulfilled"
)

// Envelope is the versioned wrapper every published event travels in.
// CorrelationID is the order id so one order's events stay ordered on a
// single partition.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type OrderCreatedPayload struct {
	OrderID     string       `json:"order_id"`
	Reference   string       `json:"reference"`
	SessionID   string       `json:"session_id,omitempty"`
	Items       []LineDetail `json:"items,omitempty"`
	AmountCents int64        `json:"amount_cents"`
	TotalCents  int64        `json:"total_cents"`
}

type PaymentSubmittedPayload struct {
	OrderID     string `json:"order_id"`
	Reference   string `json:"reference"`
	GatewayTxID string `json:"wompi_transaction_id"`
	Status      string `json:"status"`
	TotalCents  int64  `json:"total_cents"`
}

// PaymentStatusChangedPayload is what the reconciler worker consumes from
// external payment notifications; only the order id is trusted, the status
// is re-read from the gateway.
type PaymentStatusChangedPayload struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status,omitempty"`
}

type OrderFulfilledPayload struct {
	OrderID   string `json:"order_id"`
	Reference string `json:"reference"`
	SessionID string `json:"session_id,omitempty"`
}

package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Store contracts. Lookups return (nil, nil) when the row is absent; errors
// are reserved for the storage layer itself.

type ProductStore interface {
	ByID(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context) ([]Product, error)
	// DecrementStock applies `stock = max(stock - qty, 0)` as a single
	// atomic statement. No read-modify-write at the caller.
	DecrementStock(ctx context.Context, id string, qty int) error
}

type CustomerStore interface {
	Create(ctx context.Context, in CustomerInput) (*Customer, error)
	ByID(ctx context.Context, id string) (*Customer, error)
}

type DeliveryStore interface {
	Create(ctx context.Context, customerID string, in DeliveryInput) (*Delivery, error)
	ByID(ctx context.Context, id string) (*Delivery, error)
}

type CartStore interface {
	AddLine(ctx context.Context, sessionID, productID string, qty int) (*CartLine, error)
	UpdateQuantity(ctx context.Context, sessionID, productID string, qty int) (*CartLine, error)
	RemoveLine(ctx context.Context, sessionID, productID string) error
	Lines(ctx context.Context, sessionID string) ([]CartLine, error)
	Clear(ctx context.Context, sessionID string) error
}

type OrderStore interface {
	// Create persists the order and its lines together.
	Create(ctx context.Context, o *Order, lines []OrderLine) error
	ByID(ctx context.Context, id string) (*Order, error)
	ByReference(ctx context.Context, reference string) (*Order, error)
	Lines(ctx context.Context, orderID string) ([]OrderLine, error)
	// UpdateStatus overwrites status (and gateway tx id when non-empty),
	// reporting whether a row was touched.
	UpdateStatus(ctx context.Context, id string, status Status, gatewayTxID string) (bool, error)
	// MarkFulfilled sets fulfilled_at only when it is still unset; false
	// means another caller won the race.
	MarkFulfilled(ctx context.Context, id string, at time.Time) (bool, error)
	// NextReference allocates a globally unique order reference.
	NextReference() string
}

// Gateway contract (Wompi-shaped). Every call either returns the provider's
// payload or a *GatewayError carrying the raw error body for diagnostics.

type Charge struct {
	ID          string
	Status      string
	FinalizedAt string // provider timestamp, empty until settled
}

type ChargeRequest struct {
	AmountCents     int64
	Currency        string
	PaymentSourceID string
	Reference       string
	CustomerEmail   string
	Installments    int
}

type PaymentGateway interface {
	AcceptanceToken(ctx context.Context) (string, error)
	TokenizeCard(ctx context.Context, card CardData) (string, error)
	CreatePaymentSource(ctx context.Context, token, customerEmail, acceptanceToken string) (string, error)
	CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error)
	ChargeStatus(ctx context.Context, gatewayTxID string) (*Charge, error)
}

// GatewayError preserves the provider's response for the failure detail.
type GatewayError struct {
	StatusCode int
	Message    string
	Body       json.RawMessage
}

func (e *GatewayError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("gateway: %s (http %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("gateway: http %d", e.StatusCode)
}

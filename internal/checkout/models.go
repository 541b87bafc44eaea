package checkout

import "time"

type Product struct {
	ID          string
	Name        string
	Description string
	PriceCents  int64
	Stock       int
	CreatedAt   time.Time
}

type Customer struct {
	ID               string
	FullName         string
	IdentityDocument string
	Email            string
	Phone            string
	CreatedAt        time.Time
}

// CustomerInput carries the attributes supplied at checkout time.
type CustomerInput struct {
	FullName         string `json:"full_name"`
	IdentityDocument string `json:"identity_document"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
}

type Delivery struct {
	ID         string
	CustomerID string
	Address    string
	City       string
	Country    string
	CreatedAt  time.Time
}

type DeliveryInput struct {
	Address string `json:"address"`
	City    string `json:"city"`
	Country string `json:"country"`
}

// CartLine is one (session, product) pair; quantity is always >= 1.
type CartLine struct {
	ID        string
	SessionID string
	ProductID string
	Quantity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Order struct {
	ID               string
	Reference        string // unique, never reassigned
	Status           Status
	AmountCents      int64 // subtotal, sum of line subtotals
	BaseFeeCents     int64
	DeliveryFeeCents int64
	ProductID        string // legacy single-product orders only
	CustomerID       string
	DeliveryID       string
	SessionID        string // set when the order originated from a cart
	GatewayTxID      string // provider's id for the submitted charge
	FulfilledAt      *time.Time
	CreatedAt        time.Time
}

// TotalCents is always derived, never stored.
func (o *Order) TotalCents() int64 {
	return o.AmountCents + o.BaseFeeCents + o.DeliveryFeeCents
}

func (o *Order) Fulfilled() bool { return o.FulfilledAt != nil }

// OrderLine snapshots price at order-creation time; later catalog price
// changes do not touch it.
type OrderLine struct {
	ID            string
	OrderID       string
	ProductID     string
	Quantity      int
	PriceCents    int64
	SubtotalCents int64
}

// CardData is the raw card payload forwarded to the gateway for tokenization.
type CardData struct {
	Number     string `json:"number"`
	CVC        string `json:"cvc"`
	ExpMonth   string `json:"exp_month"`
	ExpYear    string `json:"exp_year"`
	CardHolder string `json:"card_holder"`
}

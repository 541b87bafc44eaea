package checkout

import (
	"context"

	"github.com/google/uuid"
)

// Intake turns a shopping selection into a persisted PENDING order. It only
// verifies stock; nothing is reserved or decremented here. Stock is committed
// once, later, by fulfillment.
type Intake struct {
	Products   ProductStore
	Customers  CustomerStore
	Deliveries DeliveryStore
	Carts      CartStore
	Orders     OrderStore

	BaseFeeCents     int64
	DeliveryFeeCents int64
}

type ProductOrderInput struct {
	ProductID string        `json:"product_id"`
	Quantity  int           `json:"quantity"`
	Customer  CustomerInput `json:"customer"`
	Delivery  DeliveryInput `json:"delivery"`
}

type CartOrderInput struct {
	SessionID string        `json:"session_id"`
	Customer  CustomerInput `json:"customer"`
	Delivery  DeliveryInput `json:"delivery"`
}

type LineDetail struct {
	ProductID     string `json:"product_id"`
	ProductName   string `json:"product_name"`
	Quantity      int    `json:"quantity"`
	PriceCents    int64  `json:"price_cents"`
	SubtotalCents int64  `json:"subtotal_cents"`
}

type OrderSummary struct {
	OrderID          string       `json:"transaction_id"`
	Reference        string       `json:"reference"`
	Status           string       `json:"status"`
	Items            []LineDetail `json:"items,omitempty"`
	AmountCents      int64        `json:"amount_cents"`
	BaseFeeCents     int64        `json:"base_fee_cents"`
	DeliveryFeeCents int64        `json:"delivery_fee_cents"`
	TotalCents       int64        `json:"total_cents"`
}

// FromProduct creates an order for a single product.
func (s *Intake) FromProduct(ctx context.Context, in ProductOrderInput) (*OrderSummary, error) {
	qty := in.Quantity
	if qty <= 0 {
		qty = 1
	}

	product, err := s.Products.ByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, Fail(KindProductNotFound, "Product not found")
	}
	if product.Stock < qty {
		return nil, Fail(KindInsufficientStock, "Insufficient stock")
	}

	customer, delivery, err := s.createParties(ctx, in.Customer, in.Delivery)
	if err != nil {
		return nil, err
	}

	lines := []OrderLine{{
		ProductID:     product.ID,
		Quantity:      qty,
		PriceCents:    product.PriceCents,
		SubtotalCents: product.PriceCents * int64(qty),
	}}
	order, err := s.persistOrder(ctx, lines, customer.ID, delivery.ID, "", product.ID)
	if err != nil {
		return nil, err
	}

	return s.summary(order, nil), nil
}

// FromCart creates an order covering every line of the session's cart.
func (s *Intake) FromCart(ctx context.Context, in CartOrderInput) (*OrderSummary, error) {
	cartLines, err := s.Carts.Lines(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}
	if len(cartLines) == 0 {
		return nil, Fail(KindEmptyCart, "Cart is empty")
	}

	// Resolve and stock-check every line before touching any aggregate.
	lines := make([]OrderLine, 0, len(cartLines))
	details := make([]LineDetail, 0, len(cartLines))
	for _, cl := range cartLines {
		product, err := s.Products.ByID(ctx, cl.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			f := Fail(KindProductNotFound, "Product not found")
			f.ProductID = cl.ProductID
			return nil, f
		}
		if product.Stock < cl.Quantity {
			f := Fail(KindInsufficientStock, "Insufficient stock for %s", product.Name)
			f.ProductID = cl.ProductID
			return nil, f
		}
		subtotal := product.PriceCents * int64(cl.Quantity)
		lines = append(lines, OrderLine{
			ProductID:     product.ID,
			Quantity:      cl.Quantity,
			PriceCents:    product.PriceCents,
			SubtotalCents: subtotal,
		})
		details = append(details, LineDetail{
			ProductID:     product.ID,
			ProductName:   product.Name,
			Quantity:      cl.Quantity,
			PriceCents:    product.PriceCents,
			SubtotalCents: subtotal,
		})
	}

	customer, delivery, err := s.createParties(ctx, in.Customer, in.Delivery)
	if err != nil {
		return nil, err
	}

	order, err := s.persistOrder(ctx, lines, customer.ID, delivery.ID, in.SessionID, lines[0].ProductID)
	if err != nil {
		return nil, err
	}

	return s.summary(order, details), nil
}

func (s *Intake) createParties(ctx context.Context, ci CustomerInput, di DeliveryInput) (*Customer, *Delivery, error) {
	customer, err := s.Customers.Create(ctx, ci)
	if err != nil {
		return nil, nil, Fail(KindCustomerCreationFailed, "%s", err.Error())
	}
	delivery, err := s.Deliveries.Create(ctx, customer.ID, di)
	if err != nil {
		return nil, nil, Fail(KindDeliveryCreationFailed, "%s", err.Error())
	}
	return customer, delivery, nil
}

func (s *Intake) persistOrder(ctx context.Context, lines []OrderLine, customerID, deliveryID, sessionID, legacyProductID string) (*Order, error) {
	var subtotal int64
	for _, l := range lines {
		subtotal += l.SubtotalCents
	}

	order := &Order{
		ID:               uuid.NewString(),
		Reference:        s.Orders.NextReference(),
		Status:           StatusPending,
		AmountCents:      subtotal,
		BaseFeeCents:     s.BaseFeeCents,
		DeliveryFeeCents: s.DeliveryFeeCents,
		ProductID:        legacyProductID,
		CustomerID:       customerID,
		DeliveryID:       deliveryID,
		SessionID:        sessionID,
	}
	for i := range lines {
		lines[i].ID = uuid.NewString()
		lines[i].OrderID = order.ID
	}
	if err := s.Orders.Create(ctx, order, lines); err != nil {
		return nil, Fail(KindTransactionCreationFailed, "%s", err.Error())
	}
	return order, nil
}

func (s *Intake) summary(o *Order, items []LineDetail) *OrderSummary {
	return &OrderSummary{
		OrderID:          o.ID,
		Reference:        o.Reference,
		Status:           o.Status.Lower(),
		Items:            items,
		AmountCents:      o.AmountCents,
		BaseFeeCents:     o.BaseFeeCents,
		DeliveryFeeCents: o.DeliveryFeeCents,
		TotalCents:       o.TotalCents(),
	}
}

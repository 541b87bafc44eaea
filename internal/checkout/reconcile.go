package checkout

import (
	"context"
	"time"
)

// Reconciler asks the gateway for the authoritative charge status, persists
// it, and triggers the one-time fulfillment when the order turns APPROVED.
// It is safe to call concurrently for the same order: the fulfilled_at marker
// is claimed with a single conditional update before any side effect runs.
type Reconciler struct {
	Orders   OrderStore
	Products ProductStore
	Carts    CartStore
	Gateway  PaymentGateway
}

type StatusView struct {
	OrderID       string `json:"transaction_id"`
	Reference     string `json:"reference"`
	Status        string `json:"status"`
	GatewayTxID   string `json:"wompi_transaction_id"`
	GatewayStatus string `json:"wompi_status"`
	Fulfilled     bool   `json:"fulfilled"`

	// JustFulfilled reports that this call performed the fulfillment, as
	// opposed to observing a marker someone else set.
	JustFulfilled bool   `json:"-"`
	SessionID     string `json:"-"`
}

// Reconcile is invoked by an explicit poll or an external notification.
func (s *Reconciler) Reconcile(ctx context.Context, orderID string) (*StatusView, error) {
	order, err := s.Orders.ByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, Fail(KindTransactionNotFound, "Transaction not found")
	}
	if order.GatewayTxID == "" {
		return nil, Fail(KindNotProcessed, "Payment has not been submitted")
	}

	charge, err := s.Gateway.ChargeStatus(ctx, order.GatewayTxID)
	if err != nil {
		return nil, gatewayFail(KindWompiQueryFailed, "Could not query transaction status", err)
	}
	status, ok := ParseStatus(charge.Status)
	if !ok {
		return nil, Fail(KindWompiQueryFailed, "unexpected gateway status %q", charge.Status)
	}

	// Persist only lawful transitions; a terminal row never moves again.
	if status != order.Status && CanTransition(order.Status, status) {
		applied, err := s.Orders.UpdateStatus(ctx, order.ID, status, "")
		if err != nil {
			return nil, Fail(KindUpdateFailed, "%s", err.Error())
		}
		if !applied {
			return nil, Fail(KindUpdateFailed, "Could not update transaction")
		}
		order.Status = status
	}

	justFulfilled := false
	if status == StatusApproved && !order.Fulfilled() {
		err := s.Fulfill(ctx, order.ID)
		switch {
		case err == nil:
			justFulfilled = true
		case KindOf(err) == KindAlreadyFulfilled:
			// a racing reconcile claimed the marker first; same outcome
		default:
			return nil, err
		}
		now := time.Now().UTC()
		order.FulfilledAt = &now
	}

	return &StatusView{
		OrderID:       order.ID,
		Reference:     order.Reference,
		Status:        order.Status.Lower(),
		GatewayTxID:   order.GatewayTxID,
		GatewayStatus: charge.Status,
		Fulfilled:     order.Fulfilled(),
		JustFulfilled: justFulfilled,
		SessionID:     order.SessionID,
	}, nil
}

// Fulfill commits the post-approval side effects exactly once: claim the
// fulfilled_at marker, decrement stock per line (floored at zero at the
// storage layer), clear the originating cart. Sub-step failures after the
// claim are reported as distinct kinds and nothing is rolled back.
func (s *Reconciler) Fulfill(ctx context.Context, orderID string) error {
	order, err := s.Orders.ByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return Fail(KindTransactionNotFound, "Transaction not found")
	}
	if order.Fulfilled() {
		return Fail(KindAlreadyFulfilled, "Transaction already fulfilled")
	}
	if order.Status != StatusApproved {
		return Fail(KindNotApproved, "Transaction is not approved")
	}

	// The marker is the gate. Zero rows updated means another caller won.
	applied, err := s.Orders.MarkFulfilled(ctx, order.ID, time.Now().UTC())
	if err != nil {
		return Fail(KindMarkFulfilledFailed, "%s", err.Error())
	}
	if !applied {
		return Fail(KindAlreadyFulfilled, "Transaction already fulfilled")
	}

	lines, err := s.Orders.Lines(ctx, order.ID)
	if err != nil {
		return Fail(KindStockUpdateFailed, "%s", err.Error())
	}
	for _, l := range lines {
		if err := s.Products.DecrementStock(ctx, l.ProductID, l.Quantity); err != nil {
			return Fail(KindStockUpdateFailed, "%s", err.Error())
		}
	}

	if order.SessionID != "" {
		if err := s.Carts.Clear(ctx, order.SessionID); err != nil {
			return Fail(KindCartClearFailed, "%s", err.Error())
		}
	}
	return nil
}

package checkout

import (
	"context"
	"errors"
)

// Payments drives the gateway through token acquisition, card tokenization,
// payment-source creation and charge submission, then records the gateway's
// verdict on the order. The recorded status is whatever the gateway reported
// at submission time; reconciliation may supersede it.
type Payments struct {
	Orders    OrderStore
	Customers CustomerStore
	Gateway   PaymentGateway

	Currency string // settlement currency, e.g. COP
}

type PaymentInput struct {
	Card         CardData `json:"card"`
	Installments int      `json:"installments"`
}

type PaymentResult struct {
	OrderID       string `json:"transaction_id"`
	Reference     string `json:"reference"`
	Status        string `json:"status"`
	GatewayTxID   string `json:"wompi_transaction_id"`
	AmountCents   int64  `json:"amount_cents"`
	TotalCents    int64  `json:"total_cents"`
	GatewayStatus string `json:"wompi_status"`
	FinalizedAt   string `json:"finalized_at,omitempty"`
}

func (s *Payments) Submit(ctx context.Context, orderID string, in PaymentInput) (*PaymentResult, error) {
	order, err := s.Orders.ByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, Fail(KindTransactionNotFound, "Transaction not found")
	}
	if order.Status != StatusPending {
		return nil, Fail(KindInvalidStatus, "Transaction is not pending")
	}

	customer, err := s.Customers.ByID(ctx, order.CustomerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, Fail(KindTransactionNotFound, "Transaction has no customer")
	}

	acceptance, err := s.Gateway.AcceptanceToken(ctx)
	if err != nil {
		return nil, gatewayFail(KindAcceptanceTokenFailed, "Could not get acceptance token", err)
	}

	token, err := s.Gateway.TokenizeCard(ctx, in.Card)
	if err != nil {
		return nil, gatewayFail(KindTokenizationFailed, "Card tokenization failed", err)
	}

	sourceID, err := s.Gateway.CreatePaymentSource(ctx, token, customer.Email, acceptance)
	if err != nil {
		return nil, gatewayFail(KindPaymentSourceFailed, "Payment source creation failed", err)
	}

	installments := in.Installments
	if installments <= 0 {
		installments = 1
	}
	charge, err := s.Gateway.CreateCharge(ctx, ChargeRequest{
		AmountCents:     order.TotalCents(),
		Currency:        s.Currency,
		PaymentSourceID: sourceID,
		Reference:       order.Reference,
		CustomerEmail:   customer.Email,
		Installments:    installments,
	})
	if err != nil {
		return nil, gatewayFail(KindWompiTransactionFailed, "Wompi transaction failed", err)
	}

	status, ok := ParseStatus(charge.Status)
	if !ok {
		return nil, Fail(KindWompiTransactionFailed, "unexpected gateway status %q", charge.Status)
	}
	applied, err := s.Orders.UpdateStatus(ctx, order.ID, status, charge.ID)
	if err != nil {
		return nil, Fail(KindUpdateFailed, "%s", err.Error())
	}
	if !applied {
		return nil, Fail(KindUpdateFailed, "Could not update transaction")
	}

	return &PaymentResult{
		OrderID:       order.ID,
		Reference:     order.Reference,
		Status:        status.Lower(),
		GatewayTxID:   charge.ID,
		AmountCents:   order.AmountCents,
		TotalCents:    order.TotalCents(),
		GatewayStatus: charge.Status,
		FinalizedAt:   charge.FinalizedAt,
	}, nil
}

// gatewayFail builds the failure for a gateway step, preferring the
// provider's message and attaching its raw error body.
func gatewayFail(kind Kind, fallback string, err error) *Failure {
	f := Fail(kind, "%s", fallback)
	var ge *GatewayError
	if errors.As(err, &ge) {
		if ge.Message != "" {
			f.Message = ge.Message
		}
		f.Detail = ge.Body
	}
	return f
}

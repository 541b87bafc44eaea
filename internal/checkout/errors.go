package checkout

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind tags every expected failure with a stable, machine-readable name.
// The transport layer maps kinds to status codes; the core never retries.
type Kind string

const (
	// validation / state
	KindProductNotFound     Kind = "product_not_found"
	KindInsufficientStock   Kind = "insufficient_stock"
	KindEmptyCart           Kind = "empty_cart"
	KindInvalidStatus       Kind = "invalid_status"
	KindAlreadyFulfilled    Kind = "already_fulfilled"
	KindNotApproved         Kind = "not_approved"
	KindNotProcessed        Kind = "not_processed"
	KindTransactionNotFound Kind = "transaction_not_found"

	// persistence
	KindCustomerCreationFailed    Kind = "customer_creation_failed"
	KindDeliveryCreationFailed    Kind = "delivery_creation_failed"
	KindTransactionCreationFailed Kind = "transaction_creation_failed"
	KindStockUpdateFailed         Kind = "stock_update_failed"
	KindCartClearFailed           Kind = "cart_clear_failed"
	KindMarkFulfilledFailed       Kind = "mark_fulfilled_failed"
	KindUpdateFailed              Kind = "update_failed"

	// gateway
	KindAcceptanceTokenFailed  Kind = "acceptance_token_failed"
	KindTokenizationFailed     Kind = "tokenization_failed"
	KindPaymentSourceFailed    Kind = "payment_source_failed"
	KindWompiTransactionFailed Kind = "wompi_transaction_failed"
	KindWompiQueryFailed       Kind = "wompi_query_failed"
)

// Failure is the expected-outcome error of the checkout pipelines. Pipelines
// are strict ordered sequences: the first failing step aborts the rest and its
// Failure is returned unchanged. Side effects of earlier steps are not rolled
// back.
type Failure struct {
	Kind      Kind            `json:"error"`
	Message   string          `json:"message"`
	ProductID string          `json:"product_id,omitempty"` // offending product, cart intake only
	Detail    json.RawMessage `json:"detail,omitempty"`     // provider's raw error payload
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func Fail(kind Kind, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the failure kind from an error chain, "" if none.
func KindOf(err error) Kind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return ""
}

// AsFailure returns the typed failure in err's chain, nil if absent.
func AsFailure(err error) *Failure {
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return nil
}

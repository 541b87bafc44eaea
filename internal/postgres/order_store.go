package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/andresfq/go-checkout/internal/checkout"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OrderStore struct{ DB *pgxpool.Pool }

// Create inserts the order and its line snapshots in one transaction.
func (s *OrderStore) Create(ctx context.Context, o *checkout.Order, lines []checkout.OrderLine) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO transactions
			(id, reference, status, amount_cents, base_fee_cents, delivery_fee_cents,
			 product_id, customer_id, delivery_id, session_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NULLIF($10,''))
		RETURNING created_at`,
		o.ID, o.Reference, string(o.Status), o.AmountCents, o.BaseFeeCents, o.DeliveryFeeCents,
		o.ProductID, o.CustomerID, o.DeliveryID, o.SessionID,
	).Scan(&o.CreatedAt)
	if err != nil {
		return err
	}

	for _, l := range lines {
		if _, err := tx.Exec(ctx, `
			INSERT INTO transaction_items (id, transaction_id, product_id, quantity, price_cents, subtotal_cents)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			l.ID, l.OrderID, l.ProductID, l.Quantity, l.PriceCents, l.SubtotalCents,
		); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

const orderColumns = `
	id, reference, status, amount_cents, base_fee_cents, delivery_fee_cents,
	product_id, customer_id, delivery_id, session_id, wompi_transaction_id,
	fulfilled_at, created_at`

func (s *OrderStore) ByID(ctx context.Context, id string) (*checkout.Order, error) {
	return s.scanOne(s.DB.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM transactions WHERE id=$1`, id))
}

func (s *OrderStore) ByReference(ctx context.Context, reference string) (*checkout.Order, error) {
	return s.scanOne(s.DB.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM transactions WHERE reference=$1`, reference))
}

func (s *OrderStore) scanOne(row pgx.Row) (*checkout.Order, error) {
	var o checkout.Order
	var status string
	var productID, sessionID, gatewayTxID *string
	err := row.Scan(
		&o.ID, &o.Reference, &status, &o.AmountCents, &o.BaseFeeCents, &o.DeliveryFeeCents,
		&productID, &o.CustomerID, &o.DeliveryID, &sessionID, &gatewayTxID,
		&o.FulfilledAt, &o.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	o.Status = checkout.Status(status)
	if productID != nil {
		o.ProductID = *productID
	}
	if sessionID != nil {
		o.SessionID = *sessionID
	}
	if gatewayTxID != nil {
		o.GatewayTxID = *gatewayTxID
	}
	return &o, nil
}

func (s *OrderStore) Lines(ctx context.Context, orderID string) ([]checkout.OrderLine, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, transaction_id, product_id, quantity, price_cents, subtotal_cents
		FROM transaction_items WHERE transaction_id=$1`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []checkout.OrderLine
	for rows.Next() {
		var l checkout.OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.Quantity, &l.PriceCents, &l.SubtotalCents); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *OrderStore) UpdateStatus(ctx context.Context, id string, status checkout.Status, gatewayTxID string) (bool, error) {
	ct, err := s.DB.Exec(ctx, `
		UPDATE transactions
		SET status=$2,
		    wompi_transaction_id = COALESCE(NULLIF($3,''), wompi_transaction_id)
		WHERE id=$1`,
		id, string(status), gatewayTxID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

// MarkFulfilled is the fulfillment gate: it applies only while fulfilled_at
// is still NULL, so exactly one caller ever sees applied=true.
func (s *OrderStore) MarkFulfilled(ctx context.Context, id string, at time.Time) (bool, error) {
	ct, err := s.DB.Exec(ctx, `
		UPDATE transactions SET fulfilled_at=$2
		WHERE id=$1 AND fulfilled_at IS NULL`, id, at)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

// NextReference: timestamp plus random suffix. Uniqueness is the contract;
// the unique index on transactions.reference backs it up.
func (s *OrderStore) NextReference() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return fmt.Sprintf("TX-%s-%s", time.Now().UTC().Format("20060102150405"), suffix)
}

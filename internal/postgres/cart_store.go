package postgres

import (
	"context"
	"errors"

	"github.com/andresfq/go-checkout/internal/checkout"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CartStore relies on the (session_id, product_id) unique index of
// cart_items: adding an existing product bumps its quantity.
type CartStore struct{ DB *pgxpool.Pool }

func (s *CartStore) AddLine(ctx context.Context, sessionID, productID string, qty int) (*checkout.CartLine, error) {
	cl := checkout.CartLine{SessionID: sessionID, ProductID: productID}
	err := s.DB.QueryRow(ctx, `
		INSERT INTO cart_items (id, session_id, product_id, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = now()
		RETURNING id, quantity, created_at, updated_at`,
		uuid.NewString(), sessionID, productID, qty,
	).Scan(&cl.ID, &cl.Quantity, &cl.CreatedAt, &cl.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &cl, nil
}

func (s *CartStore) UpdateQuantity(ctx context.Context, sessionID, productID string, qty int) (*checkout.CartLine, error) {
	if qty <= 0 {
		if err := s.RemoveLine(ctx, sessionID, productID); err != nil {
			return nil, err
		}
		return nil, nil
	}
	cl := checkout.CartLine{SessionID: sessionID, ProductID: productID, Quantity: qty}
	err := s.DB.QueryRow(ctx, `
		UPDATE cart_items SET quantity=$3, updated_at=now()
		WHERE session_id=$1 AND product_id=$2
		RETURNING id, created_at, updated_at`,
		sessionID, productID, qty,
	).Scan(&cl.ID, &cl.CreatedAt, &cl.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cl, nil
}

func (s *CartStore) RemoveLine(ctx context.Context, sessionID, productID string) error {
	_, err := s.DB.Exec(ctx, `
		DELETE FROM cart_items WHERE session_id=$1 AND product_id=$2`, sessionID, productID)
	return err
}

func (s *CartStore) Lines(ctx context.Context, sessionID string) ([]checkout.CartLine, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, session_id, product_id, quantity, created_at, updated_at
		FROM cart_items WHERE session_id=$1 ORDER BY created_at`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []checkout.CartLine
	for rows.Next() {
		var cl checkout.CartLine
		if err := rows.Scan(&cl.ID, &cl.SessionID, &cl.ProductID, &cl.Quantity, &cl.CreatedAt, &cl.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, cl)
	}
	return out, rows.Err()
}

func (s *CartStore) Clear(ctx context.Context, sessionID string) error {
	_, err := s.DB.Exec(ctx, `DELETE FROM cart_items WHERE session_id=$1`, sessionID)
	return err
}

package postgres

import (
	"context"
	"errors"

	"github.com/andresfq/go-checkout/internal/checkout"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProductStore struct{ DB *pgxpool.Pool }

func (s *ProductStore) ByID(ctx context.Context, id string) (*checkout.Product, error) {
	var p checkout.Product
	var description *string
	err := s.DB.QueryRow(ctx, `
		SELECT id, name, description, price_cents, stock, created_at
		FROM products WHERE id=$1`, id,
	).Scan(&p.ID, &p.Name, &description, &p.PriceCents, &p.Stock, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if description != nil {
		p.Description = *description
	}
	return &p, nil
}

func (s *ProductStore) List(ctx context.Context) ([]checkout.Product, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, name, description, price_cents, stock, created_at
		FROM products ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []checkout.Product
	for rows.Next() {
		var p checkout.Product
		var description *string
		if err := rows.Scan(&p.ID, &p.Name, &description, &p.PriceCents, &p.Stock, &p.CreatedAt); err != nil {
			return nil, err
		}
		if description != nil {
			p.Description = *description
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DecrementStock floors at zero in a single statement so concurrent
// fulfillments never produce a lost update or a negative stock.
func (s *ProductStore) DecrementStock(ctx context.Context, id string, qty int) error {
	_, err := s.DB.Exec(ctx, `
		UPDATE products SET stock = GREATEST(stock - $2, 0) WHERE id=$1`, id, qty)
	return err
}

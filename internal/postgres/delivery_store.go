package postgres

import (
	"context"
	"errors"

	"github.com/andresfq/go-checkout/internal/checkout"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DeliveryStore struct{ DB *pgxpool.Pool }

func (s *DeliveryStore) Create(ctx context.Context, customerID string, in checkout.DeliveryInput) (*checkout.Delivery, error) {
	d := checkout.Delivery{
		ID:         uuid.NewString(),
		CustomerID: customerID,
		Address:    in.Address,
		City:       in.City,
		Country:    in.Country,
	}
	err := s.DB.QueryRow(ctx, `
		INSERT INTO deliveries (id, customer_id, address, city, country)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		d.ID, d.CustomerID, d.Address, d.City, d.Country,
	).Scan(&d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *DeliveryStore) ByID(ctx context.Context, id string) (*checkout.Delivery, error) {
	var d checkout.Delivery
	err := s.DB.QueryRow(ctx, `
		SELECT id, customer_id, address, city, country, created_at
		FROM deliveries WHERE id=$1`, id,
	).Scan(&d.ID, &d.CustomerID, &d.Address, &d.City, &d.Country, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

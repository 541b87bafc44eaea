package postgres

import (
	"context"
	"errors"

	"github.com/andresfq/go-checkout/internal/checkout"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CustomerStore struct{ DB *pgxpool.Pool }

func (s *CustomerStore) Create(ctx context.Context, in checkout.CustomerInput) (*checkout.Customer, error) {
	c := checkout.Customer{
		ID:               uuid.NewString(),
		FullName:         in.FullName,
		IdentityDocument: in.IdentityDocument,
		Email:            in.Email,
		Phone:            in.Phone,
	}
	err := s.DB.QueryRow(ctx, `
		INSERT INTO customers (id, full_name, identity_document, email, phone)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		c.ID, c.FullName, c.IdentityDocument, c.Email, c.Phone,
	).Scan(&c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CustomerStore) ByID(ctx context.Context, id string) (*checkout.Customer, error) {
	var c checkout.Customer
	var phone *string
	err := s.DB.QueryRow(ctx, `
		SELECT id, full_name, identity_document, email, phone, created_at
		FROM customers WHERE id=$1`, id,
	).Scan(&c.ID, &c.FullName, &c.IdentityDocument, &c.Email, &phone, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if phone != nil {
		c.Phone = *phone
	}
	return &c, nil
}

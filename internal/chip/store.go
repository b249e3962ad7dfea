package chip

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PriceCents is the flat price of one tracking chip.
const PriceCents = 2999

// StatusConfirmed is the only status a mock order ever reaches.
const StatusConfirmed = "confirmed"

// ErrNoAddress is returned when ordering without a saved shipping address.
var ErrNoAddress = errors.New("no shipping address on file")

// Order is a placed chip order.
type Order struct {
	ID              uuid.UUID  `json:"id"`
	UserID          string     `json:"user_id"`
	PetID           *uuid.UUID `json:"pet_id,omitempty"`
	ShippingAddress string     `json:"shipping_address"`
	CardBrand       string     `json:"card_brand"`
	CardLast4       string     `json:"card_last4"`
	AmountCents     int        `json:"amount_cents"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Store persists addresses and orders.
type Store struct {
	pool     *pgxpool.Pool
	validate *validator.Validate
	now      func() time.Time
}

// NewStore wraps a pool.
func NewStore(pool *pgxpool.Pool) *Store {
	now := func() time.Time { return time.Now().UTC() }
	return &Store{pool: pool, validate: NewValidator(now), now: now}
}

// Address returns the saved shipping address, or "" if none.
func (s *Store) Address(ctx context.Context, userID string) (string, error) {
	var addr string
	err := s.pool.QueryRow(ctx, "user_shipping_address", userID).Scan(&addr)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get shipping address: %w", err)
	}
	return addr, nil
}

// SetAddress validates and saves the shipping address.
func (s *Store) SetAddress(ctx context.Context, userID string, form AddressForm) error {
	form.Address = strings.TrimSpace(form.Address)
	if err := s.validate.Struct(form); err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, "upsert_shipping_address", userID, form.Address); err != nil {
		return fmt.Errorf("save shipping address: %w", err)
	}
	return nil
}

// PlaceOrder checks the card and records a confirmed order shipped to the
// saved address. Validation failures are returned as
// validator.ValidationErrors.
func (s *Store) PlaceOrder(ctx context.Context, userID string, req OrderRequest) (Order, error) {
	if err := s.validate.Struct(req); err != nil {
		return Order{}, err
	}
	addr, err := s.Address(ctx, userID)
	if err != nil {
		return Order{}, err
	}
	if addr == "" {
		return Order{}, ErrNoAddress
	}

	o := Order{
		ID:              uuid.New(),
		UserID:          userID,
		PetID:           req.PetID,
		ShippingAddress: addr,
		CardBrand:       Brand(req.Card.Number),
		CardLast4:       Last4(req.Card.Number),
		AmountCents:     PriceCents,
		Status:          StatusConfirmed,
		CreatedAt:       s.now(),
	}
	_, err = s.pool.Exec(ctx, "insert_chip_order",
		o.ID, o.UserID, o.PetID, o.ShippingAddress, o.CardBrand, o.CardLast4, o.AmountCents, o.Status, o.CreatedAt)
	if err != nil {
		return Order{}, fmt.Errorf("insert chip order: %w", err)
	}
	return o, nil
}

// Orders returns the user's order history, newest first.
func (s *Store) Orders(ctx context.Context, userID string) ([]Order, error) {
	rows, err := s.pool.Query(ctx, "list_chip_orders", userID)
	if err != nil {
		return nil, fmt.Errorf("list chip orders: %w", err)
	}
	defer rows.Close()

	out := make([]Order, 0)
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.PetID, &o.ShippingAddress, &o.CardBrand,
			&o.CardLast4, &o.AmountCents, &o.Status, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chip order: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

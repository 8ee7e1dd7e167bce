package coupon

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned when a coupon does not exist.
var ErrNotFound = errors.New("coupon not found")

// Repository defines coupon persistence.
type Repository interface {
	Create(ctx context.Context, c *Coupon) error
	GetByID(ctx context.Context, id uuid.UUID) (*Coupon, error)
	// GetByCode matches the code case-insensitively.
	GetByCode(ctx context.Context, code string) (*Coupon, error)
	Update(ctx context.Context, c *Coupon) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*Coupon, int, error)
	// Redeem increments the use counter inside the caller's transaction,
	// failing with InvalidError(exhausted) when the limit is reached.
	Redeem(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
}

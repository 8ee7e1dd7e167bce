package doctor

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a doctor or location does not exist.
var ErrNotFound = errors.New("doctor not found")

// Repository defines doctor persistence.
type Repository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	Update(ctx context.Context, d *Doctor) error
	Delete(ctx context.Context, id uuid.UUID) error
	// Search filters on "specialty" and "city" params, both optional.
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Doctor, int, error)
}

// LocationRepository defines location persistence.
type LocationRepository interface {
	Create(ctx context.Context, l *Location) error
	GetByID(ctx context.Context, id uuid.UUID) (*Location, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Location, error)
	Update(ctx context.Context, l *Location) error
	Delete(ctx context.Context, id uuid.UUID) error
}

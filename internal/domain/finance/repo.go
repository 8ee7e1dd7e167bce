package finance

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines expense persistence.
type Repository interface {
	Create(ctx context.Context, e *Expense) error
	GetByID(ctx context.Context, id uuid.UUID) (*Expense, error)
	Update(ctx context.Context, e *Expense) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ListByDoctorBetween returns the expenses of a doctor in the inclusive
	// date range.
	ListByDoctorBetween(ctx context.Context, doctorID uuid.UUID, fromDate, toDate string) ([]*Expense, error)
}

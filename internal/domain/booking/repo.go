package booking

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sumaargentina/turnos-api/internal/domain/schedule"
)

// CouponRedeemer increments a coupon's use counter inside the booking
// transaction. Satisfied by the coupon repository.
type CouponRedeemer interface {
	Redeem(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
}

// Repository defines appointment persistence.
type Repository interface {
	// CreateIfSlotFree inserts the appointment guarded by the slot
	// uniqueness index, returning ErrSlotTaken when another non-cancelled
	// appointment holds the slot. When couponID is set, the coupon is
	// redeemed in the same transaction; a redeem failure aborts the insert.
	CreateIfSlotFree(ctx context.Context, a *Appointment, couponID *uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	// ListBookedSlots returns the occupied slots of a doctor on a date,
	// excluding cancelled appointments.
	ListBookedSlots(ctx context.Context, doctorID uuid.UUID, date string) ([]schedule.BookedSlot, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, date string, limit, offset int) ([]*Appointment, int, error)
	// ListByDoctorBetween returns every appointment of a doctor in the
	// inclusive date range, for financial aggregation.
	ListByDoctorBetween(ctx context.Context, doctorID uuid.UUID, fromDate, toDate string) ([]*Appointment, error)
	UpdateAttendance(ctx context.Context, id uuid.UUID, a Attendance) error
	UpdatePayment(ctx context.Context, id uuid.UUID, s PaymentStatus) error
}

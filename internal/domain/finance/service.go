package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sumaargentina/turnos-api/internal/domain/booking"
)

// AppointmentSource feeds the aggregator. Satisfied by the booking
// repository.
type AppointmentSource interface {
	ListByDoctorBetween(ctx context.Context, doctorID uuid.UUID, fromDate, toDate string) ([]*booking.Appointment, error)
}

// Service implements the finances view and expense management.
type Service struct {
	expenses     Repository
	appointments AppointmentSource
	now          func() time.Time
}

// NewService creates a finance service.
func NewService(expenses Repository, appointments AppointmentSource) *Service {
	return &Service{expenses: expenses, appointments: appointments, now: time.Now}
}

// WithClock overrides the time source. Used in tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

const (
	minDate = "0000-01-01"
	maxDate = "9999-12-31"
)

// rangeBounds resolves a named period to an inclusive ISO date range ending
// today. Week is the trailing seven days; month and year are calendar
// periods.
func rangeBounds(name string, now time.Time) (string, string, error) {
	today := now.Format("2006-01-02")
	switch name {
	case "today":
		return today, today, nil
	case "week":
		return now.AddDate(0, 0, -6).Format("2006-01-02"), today, nil
	case "month":
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).Format("2006-01-02"), today, nil
	case "year":
		return time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location()).Format("2006-01-02"), today, nil
	case "", "all":
		return minDate, maxDate, nil
	}
	return "", "", fmt.Errorf("unknown range %q", name)
}

// OfficeStats computes the per-office finances of a doctor over a named
// period.
func (s *Service) OfficeStats(ctx context.Context, doctorID uuid.UUID, rangeName string) ([]OfficeStats, error) {
	from, to, err := rangeBounds(rangeName, s.now())
	if err != nil {
		return nil, err
	}

	appointments, err := s.appointments.ListByDoctorBetween(ctx, doctorID, from, to)
	if err != nil {
		return nil, err
	}
	expenses, err := s.expenses.ListByDoctorBetween(ctx, doctorID, from, to)
	if err != nil {
		return nil, err
	}

	return Aggregate(appointments, expenses), nil
}

// CreateExpense validates and stores an expense.
func (s *Service) CreateExpense(ctx context.Context, e *Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	return s.expenses.Create(ctx, e)
}

// UpdateExpense validates and saves changes to an expense.
func (s *Service) UpdateExpense(ctx context.Context, e *Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	return s.expenses.Update(ctx, e)
}

// DeleteExpense removes an expense.
func (s *Service) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	return s.expenses.Delete(ctx, id)
}

// ListExpenses returns a doctor's expenses over a named period.
func (s *Service) ListExpenses(ctx context.Context, doctorID uuid.UUID, rangeName string) ([]*Expense, error) {
	from, to, err := rangeBounds(rangeName, s.now())
	if err != nil {
		return nil, err
	}
	return s.expenses.ListByDoctorBetween(ctx, doctorID, from, to)
}

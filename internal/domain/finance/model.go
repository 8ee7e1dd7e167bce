// Package finance implements the per-office revenue aggregation and expense
// tracking behind the doctor's finances view.
package finance

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an expense does not exist.
var ErrNotFound = errors.New("expense not found")

// Expense maps to the expense table. Office associates the expense with one
// consultation office label; nil lands it in the unassigned bucket.
type Expense struct {
	ID          uuid.UUID `db:"id" json:"id"`
	DoctorID    uuid.UUID `db:"doctor_id" json:"doctorId"`
	Date        string    `db:"date" json:"date"` // YYYY-MM-DD
	Description string    `db:"description" json:"description"`
	Amount      float64   `db:"amount" json:"amount"`
	Category    *string   `db:"category" json:"category,omitempty"`
	Office      *string   `db:"office" json:"office,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// Validate checks the expense definition.
func (e *Expense) Validate() error {
	if e.DoctorID == uuid.Nil {
		return fmt.Errorf("doctorId is required")
	}
	if _, err := time.Parse("2006-01-02", e.Date); err != nil {
		return fmt.Errorf("date must be YYYY-MM-DD")
	}
	if strings.TrimSpace(e.Description) == "" {
		return fmt.Errorf("description is required")
	}
	if e.Amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}
	return nil
}

// OfficeStats is one row of the finances view: everything that happened in
// one consultation context over the selected period.
type OfficeStats struct {
	Office             string  `json:"office"`
	TotalRevenue       float64 `json:"totalRevenue"`
	TotalExpenses      float64 `json:"totalExpenses"`
	NetProfit          float64 `json:"netProfit"`
	AppointmentCount   int     `json:"appointmentCount"`
	PaidCount          int     `json:"paidCount"`
	UniquePatientCount int     `json:"uniquePatientCount"`
}

// Package booking implements appointment submission with a database-level
// slot conflict guard, availability queries, and the doctor-side appointment
// mutations.
package booking

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PaymentMethod is how the patient pays for the consultation.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentTransfer PaymentMethod = "transfer"
	PaymentGateway  PaymentMethod = "gateway"
)

// PaymentStatus tracks whether the consultation has been paid.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

// Attendance is the lifecycle state of the appointment itself.
type Attendance string

const (
	AttendancePending   Attendance = "pending"
	AttendanceAttended  Attendance = "attended"
	AttendanceNoShow    Attendance = "no_show"
	AttendanceCancelled Attendance = "cancelled"
)

// ConsultationType separates office visits from the online channel.
type ConsultationType string

const (
	ConsultationInPerson ConsultationType = "in_person"
	ConsultationOnline   ConsultationType = "online"
)

var (
	// ErrSlotTaken reports a booking race lost: another appointment holds
	// the doctor/location/date/time slot.
	ErrSlotTaken = errors.New("slot already booked")
	// ErrNotAvailable reports a request for a slot the schedule does not
	// offer, including past dates.
	ErrNotAvailable = errors.New("slot not available")
	// ErrNotFound is returned when an appointment does not exist.
	ErrNotFound = errors.New("appointment not found")
)

// ServiceLine is the price snapshot of an extra service at booking time.
type ServiceLine struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Price float64   `json:"price"`
}

// Appointment maps to the appointment table. Date and Time are stored as the
// schedule strings they were booked against. A nil LocationID marks legacy
// and online appointments, which block the slot at every location.
type Appointment struct {
	ID               uuid.UUID        `db:"id" json:"id"`
	DoctorID         uuid.UUID        `db:"doctor_id" json:"doctorId"`
	LocationID       *uuid.UUID       `db:"location_id" json:"locationId,omitempty"`
	PatientID        uuid.UUID        `db:"patient_id" json:"patientId"`
	BookedByID       uuid.UUID        `db:"booked_by_id" json:"bookedById"`
	Date             string           `db:"date" json:"date"` // YYYY-MM-DD
	Time             string           `db:"time" json:"time"` // HH:MM
	ConsultationType ConsultationType `db:"consultation_type" json:"consultationType"`
	Office           string           `db:"office" json:"office"`
	ConsultationFee  float64          `db:"consultation_fee" json:"consultationFee"`
	Services         []ServiceLine    `db:"services" json:"services,omitempty"`
	DiscountAmount   float64          `db:"discount_amount" json:"discountAmount"`
	CouponCode       *string          `db:"coupon_code" json:"couponCode,omitempty"`
	TotalPrice       float64          `db:"total_price" json:"totalPrice"`
	PaymentMethod    PaymentMethod    `db:"payment_method" json:"paymentMethod"`
	PaymentStatus    PaymentStatus    `db:"payment_status" json:"paymentStatus"`
	Attendance       Attendance       `db:"attendance" json:"attendance"`
	CreatedAt        time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updatedAt"`
}

// Draft is the booking request before pricing and persistence. LocationKey
// selects the bookable context: a location id, "online", or empty for the
// legacy office.
type Draft struct {
	DoctorID      uuid.UUID     `json:"doctorId"`
	LocationKey   string        `json:"locationKey"`
	PatientID     uuid.UUID     `json:"patientId"`
	Date          string        `json:"date"`
	Time          string        `json:"time"`
	ServiceIDs    []uuid.UUID   `json:"serviceIds,omitempty"`
	CouponCode    string        `json:"couponCode,omitempty"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
}

// Validate checks the draft before any I/O happens.
func (d *Draft) Validate() error {
	if d.DoctorID == uuid.Nil {
		return fmt.Errorf("doctorId is required")
	}
	if d.PatientID == uuid.Nil {
		return fmt.Errorf("patientId is required")
	}
	if _, err := time.Parse("2006-01-02", d.Date); err != nil {
		return fmt.Errorf("date must be YYYY-MM-DD")
	}
	if len(d.Time) != 5 || d.Time[2] != ':' {
		return fmt.Errorf("time must be HH:MM")
	}
	switch d.PaymentMethod {
	case PaymentCash, PaymentTransfer, PaymentGateway:
	default:
		return fmt.Errorf("payment method must be %q, %q or %q", PaymentCash, PaymentTransfer, PaymentGateway)
	}
	if d.LocationKey != "" && !strings.EqualFold(d.LocationKey, "online") {
		if _, err := uuid.Parse(d.LocationKey); err != nil {
			return fmt.Errorf("locationKey must be a location id, %q or empty", "online")
		}
	}
	return nil
}

// ValidAttendance reports whether s is one of the attendance states.
func ValidAttendance(s Attendance) bool {
	switch s {
	case AttendancePending, AttendanceAttended, AttendanceNoShow, AttendanceCancelled:
		return true
	}
	return false
}

// ValidPaymentStatus reports whether s is one of the payment states.
func ValidPaymentStatus(s PaymentStatus) bool {
	return s == PaymentPending || s == PaymentPaid
}

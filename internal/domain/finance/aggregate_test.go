package finance

import (
	"testing"

	"github.com/google/uuid"

	"github.com/sumaargentina/turnos-api/internal/domain/booking"
)

func strPtr(s string) *string { return &s }

func appt(office string, ctype booking.ConsultationType, status booking.PaymentStatus, total float64, patient uuid.UUID) *booking.Appointment {
	return &booking.Appointment{
		ID:               uuid.New(),
		PatientID:        patient,
		Office:           office,
		ConsultationType: ctype,
		PaymentStatus:    status,
		Attendance:       booking.AttendancePending,
		TotalPrice:       total,
	}
}

func TestAggregate(t *testing.T) {
	p1, p2 := uuid.New(), uuid.New()

	t.Run("online paid revenue and unassigned expense land in separate buckets", func(t *testing.T) {
		appointments := []*booking.Appointment{
			appt(OnlineOffice, booking.ConsultationOnline, booking.PaymentPaid, 100, p1),
		}
		expenses := []*Expense{
			{ID: uuid.New(), Description: "Insumos", Amount: 30},
		}
		stats := Aggregate(appointments, expenses)
		if len(stats) != 2 {
			t.Fatalf("got %d rows, want 2", len(stats))
		}
		online := stats[0]
		if online.Office != OnlineOffice {
			t.Fatalf("first row = %q, want %q (sorted by revenue)", online.Office, OnlineOffice)
		}
		if online.TotalRevenue != 100 || online.NetProfit != 100 {
			t.Errorf("online: revenue %v profit %v, want 100/100", online.TotalRevenue, online.NetProfit)
		}
		unassigned := stats[1]
		if unassigned.Office != UnassignedOffice {
			t.Fatalf("second row = %q, want %q", unassigned.Office, UnassignedOffice)
		}
		if unassigned.TotalExpenses != 30 || unassigned.NetProfit != -30 {
			t.Errorf("unassigned: expenses %v profit %v, want 30/-30", unassigned.TotalExpenses, unassigned.NetProfit)
		}
	})

	t.Run("pending payments count appointments but not revenue", func(t *testing.T) {
		appointments := []*booking.Appointment{
			appt("Centro", booking.ConsultationInPerson, booking.PaymentPaid, 60, p1),
			appt("Centro", booking.ConsultationInPerson, booking.PaymentPending, 60, p2),
		}
		stats := Aggregate(appointments, nil)
		if len(stats) != 1 {
			t.Fatalf("got %d rows, want 1", len(stats))
		}
		s := stats[0]
		if s.TotalRevenue != 60 {
			t.Errorf("revenue = %v, want 60", s.TotalRevenue)
		}
		if s.AppointmentCount != 2 || s.PaidCount != 1 {
			t.Errorf("counts = %d/%d, want 2 appointments, 1 paid", s.AppointmentCount, s.PaidCount)
		}
	})

	t.Run("unique patients counted once", func(t *testing.T) {
		appointments := []*booking.Appointment{
			appt("Centro", booking.ConsultationInPerson, booking.PaymentPaid, 60, p1),
			appt("Centro", booking.ConsultationInPerson, booking.PaymentPaid, 60, p1),
			appt("Centro", booking.ConsultationInPerson, booking.PaymentPaid, 60, p2),
		}
		stats := Aggregate(appointments, nil)
		if stats[0].UniquePatientCount != 2 {
			t.Errorf("unique patients = %d, want 2", stats[0].UniquePatientCount)
		}
	})

	t.Run("cancelled appointments ignored", func(t *testing.T) {
		a := appt("Centro", booking.ConsultationInPerson, booking.PaymentPaid, 60, p1)
		a.Attendance = booking.AttendanceCancelled
		stats := Aggregate([]*booking.Appointment{a}, nil)
		if len(stats) != 0 {
			t.Errorf("got %d rows, want 0", len(stats))
		}
	})

	t.Run("offline appointment without office label is unassigned", func(t *testing.T) {
		appointments := []*booking.Appointment{
			appt("", booking.ConsultationInPerson, booking.PaymentPaid, 60, p1),
		}
		stats := Aggregate(appointments, nil)
		if stats[0].Office != UnassignedOffice {
			t.Errorf("office = %q, want %q", stats[0].Office, UnassignedOffice)
		}
	})

	t.Run("sorted by revenue descending", func(t *testing.T) {
		appointments := []*booking.Appointment{
			appt("Norte", booking.ConsultationInPerson, booking.PaymentPaid, 40, p1),
			appt("Centro", booking.ConsultationInPerson, booking.PaymentPaid, 120, p2),
		}
		stats := Aggregate(appointments, nil)
		if stats[0].Office != "Centro" || stats[1].Office != "Norte" {
			t.Errorf("order = %s, %s; want Centro first", stats[0].Office, stats[1].Office)
		}
	})

	t.Run("empty inputs produce empty slice", func(t *testing.T) {
		stats := Aggregate(nil, nil)
		if stats == nil || len(stats) != 0 {
			t.Errorf("got %v, want empty non-nil slice", stats)
		}
	})

	t.Run("expense with office label joins that bucket", func(t *testing.T) {
		appointments := []*booking.Appointment{
			appt("Centro", booking.ConsultationInPerson, booking.PaymentPaid, 100, p1),
		}
		expenses := []*Expense{
			{ID: uuid.New(), Description: "Alquiler", Amount: 40, Office: strPtr("Centro")},
		}
		stats := Aggregate(appointments, expenses)
		if len(stats) != 1 {
			t.Fatalf("got %d rows, want 1", len(stats))
		}
		if stats[0].NetProfit != 60 {
			t.Errorf("net profit = %v, want 60", stats[0].NetProfit)
		}
	})
}

package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/sumaargentina/turnos-api/internal/domain/booking"
	"github.com/sumaargentina/turnos-api/internal/domain/doctor"
)

// DoctorNames resolves a doctor id to a display name. Satisfied by the doctor
// service through a small adapter in main.
type DoctorNames interface {
	DoctorName(ctx context.Context, id uuid.UUID) (string, error)
}

// Contacts resolves a patient id to a deliverable address. Optional; when nil
// the patient id itself is used as the recipient, which keeps the delivery
// history useful with the log sender.
type Contacts interface {
	PatientEmail(ctx context.Context, id uuid.UUID) (string, error)
}

// BookingNotifier adapts the Manager to the booking confirmation hook.
type BookingNotifier struct {
	manager  *Manager
	doctors  DoctorNames
	contacts Contacts
}

// NewBookingNotifier wires the manager into the booking flow.
func NewBookingNotifier(mgr *Manager, doctors DoctorNames, contacts Contacts) *BookingNotifier {
	return &BookingNotifier{manager: mgr, doctors: doctors, contacts: contacts}
}

// SendAppointmentConfirmation renders and sends the confirmation email.
func (n *BookingNotifier) SendAppointmentConfirmation(ctx context.Context, a *booking.Appointment) error {
	doctorName := ""
	if n.doctors != nil {
		name, err := n.doctors.DoctorName(ctx, a.DoctorID)
		if err != nil && !errors.Is(err, doctor.ErrNotFound) {
			return fmt.Errorf("resolve doctor name: %w", err)
		}
		doctorName = name
	}

	recipient := a.PatientID.String()
	if n.contacts != nil {
		email, err := n.contacts.PatientEmail(ctx, a.PatientID)
		if err == nil && email != "" {
			recipient = email
		}
	}

	data := map[string]string{
		"patient_name": recipient,
		"doctor":       doctorName,
		"date":         a.Date,
		"time":         a.Time,
		"office":       a.Office,
		"total":        fmt.Sprintf("%.2f", a.TotalPrice),
	}
	_, err := n.manager.SendFromTemplate(ctx, "appointment-confirmation", data, recipient)
	return err
}

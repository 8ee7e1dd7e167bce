package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/sumaargentina/turnos-api/internal/domain/booking"
	"github.com/sumaargentina/turnos-api/internal/domain/doctor"
)

type emailCall struct {
	to      string
	subject string
	body    string
}

type mockEmailSender struct {
	mu         sync.Mutex
	calls      []emailCall
	shouldFail bool
}

func (m *mockEmailSender) SendEmail(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, emailCall{to: to, subject: subject, body: body})
	if m.shouldFail {
		return errors.New("smtp unavailable")
	}
	return nil
}

type mockSMSSender struct {
	mu    sync.Mutex
	calls []string
}

func (m *mockSMSSender) SendSMS(_ context.Context, to, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, to)
	return nil
}

func TestRender(t *testing.T) {
	eng := NewTemplateEngine()

	subject, body, err := eng.Render("appointment-confirmation", map[string]string{
		"patient_name": "Ana",
		"doctor":       "Dra. López",
		"date":         "2024-06-10",
		"time":         "09:30",
		"office":       "Consultas Online",
		"total":        "75.00",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(subject, "2024-06-10") {
		t.Errorf("subject missing date: %q", subject)
	}
	if !strings.Contains(body, "Dra. López") || !strings.Contains(body, "$75.00") {
		t.Errorf("body missing substitutions: %q", body)
	}

	if _, _, err := eng.Render("no-such-template", nil); err == nil {
		t.Error("expected error for unknown template")
	}
}

func TestRender_MissingKeysLeftAsIs(t *testing.T) {
	eng := NewTemplateEngine()
	_, body, err := eng.Render("appointment-reminder", map[string]string{"date": "2024-06-10"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(body, "{{doctor}}") {
		t.Errorf("unfilled placeholder should remain: %q", body)
	}
}

func TestManagerSend_RecordsResult(t *testing.T) {
	email := &mockEmailSender{}
	mgr := NewManager(email, &mockSMSSender{}, NewTemplateEngine())

	n := &Notification{Type: TypeEmail, Recipient: "ana@example.com", Subject: "hola", Body: "cuerpo"}
	if err := mgr.Send(context.Background(), n); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Status != "sent" || n.SentAt == nil {
		t.Errorf("status = %s, sentAt = %v", n.Status, n.SentAt)
	}
	if len(email.calls) != 1 || email.calls[0].to != "ana@example.com" {
		t.Errorf("unexpected calls: %+v", email.calls)
	}

	got, err := mgr.Get(context.Background(), n.ID)
	if err != nil || got.Status != "sent" {
		t.Errorf("stored notification = %+v, err = %v", got, err)
	}
}

func TestManagerRetry(t *testing.T) {
	email := &mockEmailSender{shouldFail: true}
	mgr := NewManager(email, nil, NewTemplateEngine())

	n := &Notification{Type: TypeEmail, Recipient: "ana@example.com", Body: "cuerpo"}
	if err := mgr.Send(context.Background(), n); err == nil {
		t.Fatal("expected send failure")
	}
	if n.Status != "failed" {
		t.Fatalf("status = %s, want failed", n.Status)
	}

	email.shouldFail = false
	if err := mgr.Retry(context.Background(), n.ID); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	got, _ := mgr.Get(context.Background(), n.ID)
	if got.Status != "sent" || got.Error != "" {
		t.Errorf("after retry = %+v", got)
	}

	if err := mgr.Retry(context.Background(), n.ID); err == nil {
		t.Error("retrying a sent notification should fail")
	}
}

func TestManagerStats(t *testing.T) {
	email := &mockEmailSender{}
	mgr := NewManager(email, nil, NewTemplateEngine())

	_ = mgr.Send(context.Background(), &Notification{Type: TypeEmail, Recipient: "a", Body: "x"})
	_ = mgr.Send(context.Background(), &Notification{Type: TypeSMS, Recipient: "b", Body: "y"}) // no sms sender

	stats := mgr.Stats(context.Background())
	if stats["sent"] != 1 || stats["failed"] != 1 {
		t.Errorf("stats = %v", stats)
	}
}

type stubDoctorNames struct{ name string }

func (s *stubDoctorNames) DoctorName(context.Context, uuid.UUID) (string, error) {
	return s.name, nil
}

type stubContacts struct{ email string }

func (s *stubContacts) PatientEmail(context.Context, uuid.UUID) (string, error) {
	return s.email, nil
}

func TestBookingNotifier_SendsConfirmation(t *testing.T) {
	email := &mockEmailSender{}
	mgr := NewManager(email, nil, NewTemplateEngine())
	notifier := NewBookingNotifier(mgr, &stubDoctorNames{name: "Dr. García"}, &stubContacts{email: "ana@example.com"})

	a := &booking.Appointment{
		ID:         uuid.New(),
		DoctorID:   uuid.New(),
		PatientID:  uuid.New(),
		Date:       "2024-06-10",
		Time:       "09:30",
		Office:     "Centro",
		TotalPrice: 80,
	}
	if err := notifier.SendAppointmentConfirmation(context.Background(), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(email.calls) != 1 {
		t.Fatalf("got %d emails, want 1", len(email.calls))
	}
	call := email.calls[0]
	if call.to != "ana@example.com" {
		t.Errorf("to = %q", call.to)
	}
	if !strings.Contains(call.body, "Dr. García") || !strings.Contains(call.body, "09:30") {
		t.Errorf("body = %q", call.body)
	}
}

func TestBookingNotifier_FallsBackToPatientID(t *testing.T) {
	email := &mockEmailSender{}
	mgr := NewManager(email, nil, NewTemplateEngine())
	notifier := NewBookingNotifier(mgr, nil, nil)

	patient := uuid.New()
	a := &booking.Appointment{ID: uuid.New(), DoctorID: uuid.New(), PatientID: patient,
		Date: "2024-06-10", Time: "09:30", Office: "Centro"}
	if err := notifier.SendAppointmentConfirmation(context.Background(), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if email.calls[0].to != patient.String() {
		t.Errorf("to = %q, want patient id", email.calls[0].to)
	}
}

type failingDoctorNames struct{ err error }

func (s *failingDoctorNames) DoctorName(context.Context, uuid.UUID) (string, error) {
	return "", s.err
}

func TestBookingNotifier_WrappedNotFoundStillSends(t *testing.T) {
	email := &mockEmailSender{}
	mgr := NewManager(email, nil, NewTemplateEngine())
	wrapped := fmt.Errorf("doctor %s: %w", uuid.Nil, doctor.ErrNotFound)
	notifier := NewBookingNotifier(mgr, &failingDoctorNames{err: wrapped}, nil)

	a := &booking.Appointment{ID: uuid.New(), DoctorID: uuid.New(), PatientID: uuid.New(),
		Date: "2024-06-10", Time: "09:30", Office: "Centro"}
	if err := notifier.SendAppointmentConfirmation(context.Background(), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(email.calls) != 1 {
		t.Fatalf("sent %d emails, want 1", len(email.calls))
	}
}

func TestBookingNotifier_LookupFailureAborts(t *testing.T) {
	email := &mockEmailSender{}
	mgr := NewManager(email, nil, NewTemplateEngine())
	notifier := NewBookingNotifier(mgr, &failingDoctorNames{err: errors.New("db down")}, nil)

	a := &booking.Appointment{ID: uuid.New(), DoctorID: uuid.New(), PatientID: uuid.New(),
		Date: "2024-06-10", Time: "09:30", Office: "Centro"}
	if err := notifier.SendAppointmentConfirmation(context.Background(), a); err == nil {
		t.Fatal("expected error")
	}
	if len(email.calls) != 0 {
		t.Errorf("sent %d emails, want 0", len(email.calls))
	}
}

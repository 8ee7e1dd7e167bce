package doctor

import (
	"testing"

	"github.com/google/uuid"

	"github.com/sumaargentina/turnos-api/internal/domain/schedule"
)

func strPtr(s string) *string     { return &s }
func intPtr(i int) *int           { return &i }
func floatPtr(f float64) *float64 { return &f }

func weekdays(r schedule.TimeRange) schedule.Weekly {
	var w schedule.Weekly
	for i := 1; i <= 5; i++ {
		w[i] = schedule.DaySchedule{Active: true, Slots: []schedule.TimeRange{r}}
	}
	return w
}

func TestLocationsOf(t *testing.T) {
	sched := weekdays(schedule.TimeRange{Start: "09:00", End: "13:00"})

	t.Run("explicit locations pass through", func(t *testing.T) {
		d := &Doctor{ID: uuid.New(), Schedule: sched}
		locs := []*Location{
			{ID: uuid.New(), DoctorID: d.ID, Name: "Centro"},
			{ID: uuid.New(), DoctorID: d.ID, Name: "Norte"},
		}
		got := LocationsOf(d, locs)
		if len(got) != 2 {
			t.Fatalf("got %d locations, want 2", len(got))
		}
		if got[0].Name != "Centro" || got[1].Name != "Norte" {
			t.Errorf("unexpected order: %s, %s", got[0].Name, got[1].Name)
		}
	})

	t.Run("no locations synthesizes legacy office", func(t *testing.T) {
		d := &Doctor{ID: uuid.New(), City: "Rosario", Address: strPtr("San Martín 123"), Schedule: sched}
		got := LocationsOf(d, nil)
		if len(got) != 1 {
			t.Fatalf("got %d locations, want 1", len(got))
		}
		if got[0].ID != uuid.Nil {
			t.Error("synthesized location should keep a nil id")
		}
		if got[0].Name != "San Martín 123" {
			t.Errorf("name = %q, want legacy address", got[0].Name)
		}
		if !got[0].Schedule.ForDay(1).Active {
			t.Error("synthesized location should carry the doctor schedule")
		}
	})

	t.Run("online channel appended when enabled", func(t *testing.T) {
		d := &Doctor{ID: uuid.New(), Schedule: sched, OnlineEnabled: true, OnlineFee: floatPtr(40)}
		locs := []*Location{{ID: uuid.New(), DoctorID: d.ID, Name: "Centro"}}
		got := LocationsOf(d, locs)
		if len(got) != 2 {
			t.Fatalf("got %d locations, want 2", len(got))
		}
		online := got[1]
		if !online.Online || online.Name != OnlineLocationName {
			t.Errorf("expected online channel last, got %+v", online)
		}
		if online.ConsultationFee == nil || *online.ConsultationFee != 40 {
			t.Error("online channel should carry the online fee")
		}
	})

	t.Run("online only doctor gets legacy office plus channel", func(t *testing.T) {
		d := &Doctor{ID: uuid.New(), Schedule: sched, OnlineEnabled: true}
		got := LocationsOf(d, nil)
		if len(got) != 2 {
			t.Fatalf("got %d locations, want 2", len(got))
		}
	})
}

func TestSlotDuration(t *testing.T) {
	d := &Doctor{SlotDurationMinutes: intPtr(20)}

	if got := SlotDuration(d, &Location{SlotDurationMinutes: intPtr(45)}); got != 45 {
		t.Errorf("location override: got %d, want 45", got)
	}
	if got := SlotDuration(d, &Location{}); got != 20 {
		t.Errorf("doctor fallback: got %d, want 20", got)
	}
	if got := SlotDuration(&Doctor{}, nil); got != schedule.DefaultSlotDuration {
		t.Errorf("default fallback: got %d, want %d", got, schedule.DefaultSlotDuration)
	}
}

func TestFee(t *testing.T) {
	d := &Doctor{ConsultationFee: 60}

	if got := Fee(d, &Location{ConsultationFee: floatPtr(80)}); got != 80 {
		t.Errorf("location override: got %v, want 80", got)
	}
	if got := Fee(d, &Location{}); got != 60 {
		t.Errorf("doctor fallback: got %v, want 60", got)
	}
	if got := Fee(d, nil); got != 60 {
		t.Errorf("nil location: got %v, want 60", got)
	}
}

func TestDoctorValidate(t *testing.T) {
	valid := Doctor{Name: "Dr. Pérez", Specialty: "Cardiología", ConsultationFee: 60}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid doctor rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(d *Doctor)
	}{
		{"empty name", func(d *Doctor) { d.Name = " " }},
		{"empty specialty", func(d *Doctor) { d.Specialty = "" }},
		{"negative fee", func(d *Doctor) { d.ConsultationFee = -1 }},
		{"zero slot duration", func(d *Doctor) { d.SlotDurationMinutes = intPtr(0) }},
		{"negative service price", func(d *Doctor) {
			d.Services = []Service{{ID: uuid.New(), Name: "ECG", Price: -5}}
		}},
		{"bad schedule", func(d *Doctor) {
			d.Schedule[1] = schedule.DaySchedule{Active: true, Slots: []schedule.TimeRange{{Start: "13:00", End: "09:00"}}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := valid
			tt.mutate(&d)
			if err := d.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestServicesOf(t *testing.T) {
	docSvc := Service{ID: uuid.New(), Name: "ECG", Price: 20}
	locSvc := Service{ID: uuid.New(), Name: "Holter", Price: 45}
	d := &Doctor{Services: []Service{docSvc}}

	got := ServicesOf(d, &Location{Services: []Service{locSvc}})
	if len(got) != 1 || got[0].Name != "Holter" {
		t.Errorf("location services should win: %+v", got)
	}

	got = ServicesOf(d, &Location{})
	if len(got) != 1 || got[0].Name != "ECG" {
		t.Errorf("empty location should fall back to doctor services: %+v", got)
	}

	got = ServicesOf(d, nil)
	if len(got) != 1 || got[0].Name != "ECG" {
		t.Errorf("nil location should fall back to doctor services: %+v", got)
	}
}

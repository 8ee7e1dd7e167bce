// Package doctor holds the doctor and consultation location models. A
// location is the bookable context the availability resolver works against:
// an explicit address, the online channel, or the synthesized legacy
// location of doctors registered before multi-address support.
package doctor

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sumaargentina/turnos-api/internal/domain/schedule"
)

// Service is an extra billable service a doctor offers alongside the
// consultation.
type Service struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Price float64   `json:"price"`
}

// Doctor maps to the doctor table. Schedule, Address and ConsultationFee at
// this level are the legacy single-office fields; doctors with explicit
// locations carry those per location.
type Doctor struct {
	ID                  uuid.UUID       `db:"id" json:"id"`
	Name                string          `db:"name" json:"name"`
	Email               string          `db:"email" json:"email"`
	Specialty           string          `db:"specialty" json:"specialty"`
	City                string          `db:"city" json:"city"`
	Address             *string         `db:"address" json:"address,omitempty"`
	ConsultationFee     float64         `db:"consultation_fee" json:"consultationFee"`
	SlotDurationMinutes *int            `db:"slot_duration_minutes" json:"slotDurationMinutes,omitempty"`
	Schedule            schedule.Weekly `db:"schedule" json:"schedule"`
	Services            []Service       `db:"services" json:"services,omitempty"`
	OnlineEnabled       bool            `db:"online_enabled" json:"onlineEnabled"`
	OnlineFee           *float64        `db:"online_fee" json:"onlineFee,omitempty"`
	Active              bool            `db:"active" json:"active"`
	CreatedAt           time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time       `db:"updated_at" json:"updatedAt"`
}

// Validate checks the doctor definition.
func (d *Doctor) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(d.Specialty) == "" {
		return fmt.Errorf("specialty is required")
	}
	if d.ConsultationFee < 0 {
		return fmt.Errorf("consultation fee cannot be negative")
	}
	if d.SlotDurationMinutes != nil && *d.SlotDurationMinutes <= 0 {
		return fmt.Errorf("slot duration must be positive")
	}
	for _, s := range d.Services {
		if s.Price < 0 {
			return fmt.Errorf("service %q price cannot be negative", s.Name)
		}
	}
	return d.Schedule.Validate()
}

// Location maps to the location table: one consultation address of a doctor
// with its own schedule and, optionally, its own fee and slot duration.
// Online marks the virtual channel; synthesized legacy locations and the
// online channel are not persisted rows, see LocationsOf.
type Location struct {
	ID                  uuid.UUID       `db:"id" json:"id"`
	DoctorID            uuid.UUID       `db:"doctor_id" json:"doctorId"`
	Name                string          `db:"name" json:"name"`
	Address             string          `db:"address" json:"address"`
	City                string          `db:"city" json:"city"`
	Schedule            schedule.Weekly `db:"schedule" json:"schedule"`
	ConsultationFee     *float64        `db:"consultation_fee" json:"consultationFee,omitempty"`
	SlotDurationMinutes *int            `db:"slot_duration_minutes" json:"slotDurationMinutes,omitempty"`
	Services            []Service       `db:"services" json:"services,omitempty"`
	Online              bool            `db:"-" json:"online"`
	CreatedAt           time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time       `db:"updated_at" json:"updatedAt"`
}

// Validate checks the location definition.
func (l *Location) Validate() error {
	if l.DoctorID == uuid.Nil {
		return fmt.Errorf("doctor id is required")
	}
	if strings.TrimSpace(l.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if l.ConsultationFee != nil && *l.ConsultationFee < 0 {
		return fmt.Errorf("consultation fee cannot be negative")
	}
	if l.SlotDurationMinutes != nil && *l.SlotDurationMinutes <= 0 {
		return fmt.Errorf("slot duration must be positive")
	}
	for _, s := range l.Services {
		if s.Price < 0 {
			return fmt.Errorf("service %q price cannot be negative", s.Name)
		}
	}
	return l.Schedule.Validate()
}

// OnlineLocationName labels the virtual consultation channel everywhere it
// surfaces, including finance grouping.
const OnlineLocationName = "Consultas Online"

// LocationsOf resolves every bookable context of a doctor: the explicit
// locations, the online channel when enabled, and a synthesized location
// carrying the doctor-level schedule when no explicit locations exist.
// Synthesized entries keep a nil ID; appointments against them store no
// location reference.
func LocationsOf(d *Doctor, locations []*Location) []*Location {
	out := make([]*Location, 0, len(locations)+2)
	out = append(out, locations...)

	if len(locations) == 0 {
		name := "Consultorio"
		addr := ""
		if d.Address != nil && *d.Address != "" {
			name = *d.Address
			addr = *d.Address
		}
		out = append(out, &Location{
			DoctorID: d.ID,
			Name:     name,
			Address:  addr,
			City:     d.City,
			Schedule: d.Schedule,
		})
	}

	if d.OnlineEnabled {
		out = append(out, &Location{
			DoctorID:        d.ID,
			Name:            OnlineLocationName,
			City:            d.City,
			Schedule:        d.Schedule,
			ConsultationFee: d.OnlineFee,
			Online:          true,
		})
	}

	return out
}

// SlotDuration resolves the consultation length for a location, falling
// back location, then doctor, then the platform default.
func SlotDuration(d *Doctor, l *Location) int {
	if l != nil && l.SlotDurationMinutes != nil && *l.SlotDurationMinutes > 0 {
		return *l.SlotDurationMinutes
	}
	if d.SlotDurationMinutes != nil && *d.SlotDurationMinutes > 0 {
		return *d.SlotDurationMinutes
	}
	return schedule.DefaultSlotDuration
}

// Fee resolves the consultation fee for a location, falling back to the
// doctor-level fee.
func Fee(d *Doctor, l *Location) float64 {
	if l != nil && l.ConsultationFee != nil {
		return *l.ConsultationFee
	}
	return d.ConsultationFee
}

// ServicesOf resolves the bookable add-on services at a location, falling
// back to the doctor-level list when the location carries none.
func ServicesOf(d *Doctor, l *Location) []Service {
	if l != nil && len(l.Services) > 0 {
		return l.Services
	}
	return d.Services
}

package doctor

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// DomainService implements doctor and location management.
type DomainService struct {
	doctors   Repository
	locations LocationRepository
}

// NewService creates a doctor service.
func NewService(doctors Repository, locations LocationRepository) *DomainService {
	return &DomainService{doctors: doctors, locations: locations}
}

// Create validates and stores a doctor.
func (s *DomainService) Create(ctx context.Context, d *Doctor) error {
	if err := d.Validate(); err != nil {
		return err
	}
	return s.doctors.Create(ctx, d)
}

// Get returns a doctor by id.
func (s *DomainService) Get(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.doctors.GetByID(ctx, id)
}

// Update validates and saves changes to a doctor.
func (s *DomainService) Update(ctx context.Context, d *Doctor) error {
	if err := d.Validate(); err != nil {
		return err
	}
	return s.doctors.Update(ctx, d)
}

// Delete removes a doctor.
func (s *DomainService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.doctors.Delete(ctx, id)
}

// Search lists active doctors, optionally filtered by specialty and city.
func (s *DomainService) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Doctor, int, error) {
	return s.doctors.Search(ctx, params, limit, offset)
}

// Locations returns every bookable context of a doctor, including the
// online channel and the synthesized legacy location.
func (s *DomainService) Locations(ctx context.Context, doctorID uuid.UUID) ([]*Location, error) {
	d, err := s.doctors.GetByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	stored, err := s.locations.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	return LocationsOf(d, stored), nil
}

// CreateLocation validates and stores a location after checking the doctor
// exists.
func (s *DomainService) CreateLocation(ctx context.Context, l *Location) error {
	if err := l.Validate(); err != nil {
		return err
	}
	if _, err := s.doctors.GetByID(ctx, l.DoctorID); err != nil {
		return fmt.Errorf("resolve doctor %s: %w", l.DoctorID, err)
	}
	return s.locations.Create(ctx, l)
}

// GetLocation returns a location by id.
func (s *DomainService) GetLocation(ctx context.Context, id uuid.UUID) (*Location, error) {
	return s.locations.GetByID(ctx, id)
}

// UpdateLocation validates and saves changes to a location.
func (s *DomainService) UpdateLocation(ctx context.Context, l *Location) error {
	if err := l.Validate(); err != nil {
		return err
	}
	return s.locations.Update(ctx, l)
}

// DeleteLocation removes a location.
func (s *DomainService) DeleteLocation(ctx context.Context, id uuid.UUID) error {
	return s.locations.Delete(ctx, id)
}

package coupon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DoctorDirectory resolves the doctor profile a scope check needs. It is
// satisfied by an adapter over the doctor service, keeping this package free
// of a dependency on it.
type DoctorDirectory interface {
	ProfileByID(ctx context.Context, id uuid.UUID) (*DoctorProfile, error)
}

// Service implements coupon management and validation.
type Service struct {
	coupons Repository
	doctors DoctorDirectory
	now     func() time.Time
}

// NewService creates a coupon service.
func NewService(coupons Repository, doctors DoctorDirectory) *Service {
	return &Service{coupons: coupons, doctors: doctors, now: time.Now}
}

// WithClock overrides the time source. Used in tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Validation is the outcome of checking a code against a doctor and fee.
// When Valid is false, Reason carries a machine-readable cause.
type Validation struct {
	Valid    bool    `json:"valid"`
	Discount float64 `json:"discount"`
	Reason   string  `json:"reason,omitempty"`
	Coupon   *Coupon `json:"-"`
}

// Validate checks a coupon code for a booking with the given doctor and
// consultation fee. An unknown or inapplicable code is a business outcome,
// not an error: it yields Valid=false and a nil error.
func (s *Service) Validate(ctx context.Context, code string, doctorID uuid.UUID, baseFee float64) (*Validation, error) {
	doc, err := s.doctors.ProfileByID(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("resolve doctor %s: %w", doctorID, err)
	}

	c, err := s.coupons.GetByCode(ctx, code)
	if errors.Is(err, ErrNotFound) {
		return &Validation{Valid: false, Reason: ReasonUnknown}, nil
	}
	if err != nil {
		return nil, err
	}

	if err := Applicable(c, *doc, s.now()); err != nil {
		var inv *InvalidError
		if errors.As(err, &inv) {
			return &Validation{Valid: false, Reason: inv.Reason}, nil
		}
		return nil, err
	}

	q := ComputePrice(baseFee, nil, c)
	return &Validation{Valid: true, Discount: q.Discount, Coupon: c}, nil
}

// Create normalizes, validates and stores a new coupon. Duplicate codes are
// rejected up front.
func (s *Service) Create(ctx context.Context, c *Coupon) error {
	c.NormalizeScope()
	if err := c.Validate(); err != nil {
		return err
	}
	existing, err := s.coupons.GetByCode(ctx, c.Code)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if existing != nil {
		return fmt.Errorf("coupon code %q already exists", c.Code)
	}
	return s.coupons.Create(ctx, c)
}

// Get returns a coupon by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Coupon, error) {
	return s.coupons.GetByID(ctx, id)
}

// Update normalizes, validates and saves changes to a coupon.
func (s *Service) Update(ctx context.Context, c *Coupon) error {
	c.NormalizeScope()
	if err := c.Validate(); err != nil {
		return err
	}
	return s.coupons.Update(ctx, c)
}

// Delete removes a coupon.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.coupons.Delete(ctx, id)
}

// ListByOwner returns the coupons created by one owner, newest first.
func (s *Service) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*Coupon, int, error) {
	return s.coupons.ListByOwner(ctx, ownerID, limit, offset)
}

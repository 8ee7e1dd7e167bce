package coupon

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type mockRepo struct {
	coupons map[string]*Coupon // keyed by uppercase code
	created []*Coupon
}

func newMockRepo(coupons ...*Coupon) *mockRepo {
	m := &mockRepo{coupons: make(map[string]*Coupon)}
	for _, c := range coupons {
		m.coupons[strings.ToUpper(c.Code)] = c
	}
	return m
}

func (m *mockRepo) Create(ctx context.Context, c *Coupon) error {
	c.ID = uuid.New()
	m.coupons[strings.ToUpper(c.Code)] = c
	m.created = append(m.created, c)
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*Coupon, error) {
	for _, c := range m.coupons {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) GetByCode(ctx context.Context, code string) (*Coupon, error) {
	c, ok := m.coupons[strings.ToUpper(code)]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

func (m *mockRepo) Update(ctx context.Context, c *Coupon) error { return nil }

func (m *mockRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }

func (m *mockRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*Coupon, int, error) {
	var out []*Coupon
	for _, c := range m.coupons {
		if c.OwnerID != nil && *c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) Redeem(ctx context.Context, tx pgx.Tx, id uuid.UUID) error { return nil }

type mockDirectory struct {
	profiles map[uuid.UUID]*DoctorProfile
}

func (m *mockDirectory) ProfileByID(ctx context.Context, id uuid.UUID) (*DoctorProfile, error) {
	if p, ok := m.profiles[id]; ok {
		return p, nil
	}
	return nil, ErrNotFound
}

func fixedClock() func() time.Time {
	return func() time.Time {
		return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	}
}

func TestServiceValidate(t *testing.T) {
	docID := uuid.New()
	dir := &mockDirectory{profiles: map[uuid.UUID]*DoctorProfile{
		docID: {ID: docID, Specialty: "Cardiología", City: "Rosario"},
	}}

	save10 := &Coupon{
		ID:           uuid.New(),
		Code:         "SAVE10",
		DiscountType: DiscountPercentage,
		Value:        10,
		MaxDiscount:  floatPtr(5),
		Scope:        ScopeAll,
		Active:       true,
	}

	svc := NewService(newMockRepo(save10), dir).WithClock(fixedClock())
	ctx := context.Background()

	t.Run("valid code", func(t *testing.T) {
		v, err := svc.Validate(ctx, "save10", docID, 60)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !v.Valid {
			t.Fatalf("expected valid, got reason %q", v.Reason)
		}
		if v.Discount != 5 {
			t.Errorf("discount = %v, want 5 (capped)", v.Discount)
		}
		if v.Coupon == nil || v.Coupon.ID != save10.ID {
			t.Error("expected the matched coupon on the validation result")
		}
	})

	t.Run("unknown code is a verdict, not an error", func(t *testing.T) {
		v, err := svc.Validate(ctx, "NOPE", docID, 60)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v.Valid || v.Reason != ReasonUnknown {
			t.Errorf("got %+v, want invalid with reason %q", v, ReasonUnknown)
		}
	})

	t.Run("expired code", func(t *testing.T) {
		expired := &Coupon{
			ID:           uuid.New(),
			Code:         "OLD",
			DiscountType: DiscountFixed,
			Value:        5,
			Scope:        ScopeAll,
			Active:       true,
			ValidTo:      timePtr(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		}
		svc := NewService(newMockRepo(expired), dir).WithClock(fixedClock())
		v, err := svc.Validate(ctx, "OLD", docID, 60)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v.Valid || v.Reason != ReasonExpired {
			t.Errorf("got %+v, want invalid with reason %q", v, ReasonExpired)
		}
	})

	t.Run("scope mismatch", func(t *testing.T) {
		derma := &Coupon{
			ID:           uuid.New(),
			Code:         "DERMA",
			DiscountType: DiscountFixed,
			Value:        5,
			Scope:        ScopeSpecialty,
			ScopeValue:   strPtr("Dermatología"),
			Active:       true,
		}
		svc := NewService(newMockRepo(derma), dir).WithClock(fixedClock())
		v, err := svc.Validate(ctx, "DERMA", docID, 60)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v.Valid || v.Reason != ReasonScopeMismatch {
			t.Errorf("got %+v, want invalid with reason %q", v, ReasonScopeMismatch)
		}
	})

	t.Run("unknown doctor is an error", func(t *testing.T) {
		if _, err := svc.Validate(ctx, "SAVE10", uuid.New(), 60); err == nil {
			t.Error("expected error for unknown doctor")
		}
	})
}

func TestServiceCreate(t *testing.T) {
	dir := &mockDirectory{profiles: map[uuid.UUID]*DoctorProfile{}}

	t.Run("normalizes legacy scope and uppercases code", func(t *testing.T) {
		repo := newMockRepo()
		svc := NewService(repo, dir)
		c := &Coupon{Code: "promo", DiscountType: DiscountFixed, Value: 5, Scope: "general", Active: true}
		if err := svc.Create(context.Background(), c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.Code != "PROMO" {
			t.Errorf("code = %q, want PROMO", c.Code)
		}
		if c.Scope != ScopeAll {
			t.Errorf("scope = %q, want %q", c.Scope, ScopeAll)
		}
	})

	t.Run("rejects duplicate code case-insensitively", func(t *testing.T) {
		existing := &Coupon{ID: uuid.New(), Code: "PROMO", DiscountType: DiscountFixed, Value: 5, Scope: ScopeAll, Active: true}
		svc := NewService(newMockRepo(existing), dir)
		c := &Coupon{Code: "promo", DiscountType: DiscountFixed, Value: 5, Scope: ScopeAll, Active: true}
		if err := svc.Create(context.Background(), c); err == nil {
			t.Error("expected duplicate code error")
		}
	})

	t.Run("rejects invalid definition", func(t *testing.T) {
		svc := NewService(newMockRepo(), dir)
		c := &Coupon{Code: "BAD", DiscountType: DiscountPercentage, Value: 150, Scope: ScopeAll}
		if err := svc.Create(context.Background(), c); err == nil {
			t.Error("expected validation error")
		}
	})
}

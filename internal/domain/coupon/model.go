// Package coupon implements discount codes for appointment booking: the
// coupon model, scope and validity rules, and price computation.
package coupon

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ScopeKind restricts which doctors a coupon applies to.
type ScopeKind string

const (
	ScopeAll             ScopeKind = "all"
	ScopeSpecialty       ScopeKind = "specialty"
	ScopeCity            ScopeKind = "city"
	ScopeSpecificDoctors ScopeKind = "specific"
)

// DiscountType selects how Value is interpreted.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Coupon is a discount code. Codes are stored uppercase and matched
// case-insensitively.
type Coupon struct {
	ID           uuid.UUID    `db:"id" json:"id"`
	Code         string       `db:"code" json:"code"`
	DiscountType DiscountType `db:"discount_type" json:"discountType"`
	Value        float64      `db:"value" json:"value"`
	Scope        ScopeKind    `db:"scope" json:"scope"`
	ScopeValue   *string      `db:"scope_value" json:"scopeValue,omitempty"`
	ScopeDoctors []uuid.UUID  `db:"scope_doctors" json:"scopeDoctors,omitempty"`
	ValidFrom    *time.Time   `db:"valid_from" json:"validFrom,omitempty"`
	ValidTo      *time.Time   `db:"valid_to" json:"validTo,omitempty"`
	MaxUses      *int         `db:"max_uses" json:"maxUses,omitempty"`
	UsedCount    int          `db:"used_count" json:"usedCount"`
	MaxDiscount  *float64     `db:"max_discount" json:"maxDiscount,omitempty"`
	Active       bool         `db:"active" json:"active"`
	OwnerID      *uuid.UUID   `db:"owner_id" json:"ownerId,omitempty"`
	CreatedAt    time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updatedAt"`
}

// DoctorProfile is the slice of a doctor the scope check needs.
type DoctorProfile struct {
	ID        uuid.UUID
	Specialty string
	City      string
}

// InvalidError reports why a coupon cannot be applied. It is a business
// outcome, not a failure: handlers render it as a valid=false response.
type InvalidError struct {
	Reason string
}

func (e *InvalidError) Error() string { return "coupon invalid: " + e.Reason }

const (
	ReasonUnknown       = "unknown_code"
	ReasonInactive      = "inactive"
	ReasonNotStarted    = "not_started"
	ReasonExpired       = "expired"
	ReasonExhausted     = "exhausted"
	ReasonScopeMismatch = "scope_mismatch"
)

// NormalizeScope upgrades legacy scope encodings in place. Old records used
// "general" for all, a bare doctor id as the scope kind, or left the kind
// empty. It also uppercases the code.
func (c *Coupon) NormalizeScope() {
	c.Code = strings.ToUpper(c.Code)
	switch c.Scope {
	case ScopeAll, ScopeCity, ScopeSpecificDoctors, ScopeSpecialty:
		return
	case "general", "":
		c.Scope = ScopeAll
	default:
		if id, err := uuid.Parse(string(c.Scope)); err == nil {
			c.Scope = ScopeSpecificDoctors
			c.ScopeDoctors = []uuid.UUID{id}
			return
		}
		c.Scope = ScopeAll
	}
}

// Applicable checks whether c can be applied to an appointment with the
// given doctor at the given instant. A nil coupon counts as unknown.
func Applicable(c *Coupon, doc DoctorProfile, now time.Time) error {
	if c == nil {
		return &InvalidError{Reason: ReasonUnknown}
	}
	if !c.Active {
		return &InvalidError{Reason: ReasonInactive}
	}
	if c.ValidFrom != nil && c.ValidFrom.After(now) {
		return &InvalidError{Reason: ReasonNotStarted}
	}
	if c.ValidTo != nil && c.ValidTo.Before(now) {
		return &InvalidError{Reason: ReasonExpired}
	}
	if c.MaxUses != nil && c.UsedCount >= *c.MaxUses {
		return &InvalidError{Reason: ReasonExhausted}
	}

	switch c.Scope {
	case ScopeAll:
		return nil
	case ScopeSpecialty:
		if c.ScopeValue != nil && strings.EqualFold(*c.ScopeValue, doc.Specialty) {
			return nil
		}
	case ScopeCity:
		if c.ScopeValue != nil && strings.EqualFold(*c.ScopeValue, doc.City) {
			return nil
		}
	case ScopeSpecificDoctors:
		for _, id := range c.ScopeDoctors {
			if id == doc.ID {
				return nil
			}
		}
	}
	return &InvalidError{Reason: ReasonScopeMismatch}
}

// Validate checks the coupon definition itself, not its applicability.
func (c *Coupon) Validate() error {
	if strings.TrimSpace(c.Code) == "" {
		return fmt.Errorf("code is required")
	}
	switch c.DiscountType {
	case DiscountPercentage, DiscountFixed:
	default:
		return fmt.Errorf("discount type must be %q or %q", DiscountPercentage, DiscountFixed)
	}
	if c.Value <= 0 {
		return fmt.Errorf("value must be positive")
	}
	if c.DiscountType == DiscountPercentage && c.Value > 100 {
		return fmt.Errorf("percentage value cannot exceed 100")
	}
	switch c.Scope {
	case ScopeAll, ScopeSpecialty, ScopeCity, ScopeSpecificDoctors:
	default:
		return fmt.Errorf("unknown scope %q", c.Scope)
	}
	if (c.Scope == ScopeSpecialty || c.Scope == ScopeCity) && (c.ScopeValue == nil || *c.ScopeValue == "") {
		return fmt.Errorf("scope %q requires a scope value", c.Scope)
	}
	if c.Scope == ScopeSpecificDoctors && len(c.ScopeDoctors) == 0 {
		return fmt.Errorf("scope %q requires at least one doctor", c.Scope)
	}
	if c.ValidFrom != nil && c.ValidTo != nil && c.ValidTo.Before(*c.ValidFrom) {
		return fmt.Errorf("validTo cannot precede validFrom")
	}
	return nil
}

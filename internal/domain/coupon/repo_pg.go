package coupon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct {
	pool *pgxpool.Pool
}

// NewRepoPG creates a PostgreSQL-backed coupon repository.
func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const couponCols = `id, code, discount_type, value, scope, scope_value, scope_doctors,
	valid_from, valid_to, max_uses, used_count, max_discount, active, owner_id,
	created_at, updated_at`

func (r *repoPG) scan(row pgx.Row) (*Coupon, error) {
	var c Coupon
	var doctors []byte
	err := row.Scan(
		&c.ID, &c.Code, &c.DiscountType, &c.Value, &c.Scope, &c.ScopeValue, &doctors,
		&c.ValidFrom, &c.ValidTo, &c.MaxUses, &c.UsedCount, &c.MaxDiscount, &c.Active, &c.OwnerID,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan coupon: %w", err)
	}
	if len(doctors) > 0 {
		if err := json.Unmarshal(doctors, &c.ScopeDoctors); err != nil {
			return nil, fmt.Errorf("decode scope doctors: %w", err)
		}
	}
	c.NormalizeScope()
	return &c, nil
}

func (r *repoPG) Create(ctx context.Context, c *Coupon) error {
	c.ID = uuid.New()
	c.Code = strings.ToUpper(c.Code)
	doctors, err := json.Marshal(c.ScopeDoctors)
	if err != nil {
		return fmt.Errorf("encode scope doctors: %w", err)
	}
	_, err = r.pool.Exec(ctx, `INSERT INTO coupon (
		id, code, discount_type, value, scope, scope_value, scope_doctors,
		valid_from, valid_to, max_uses, used_count, max_discount, active, owner_id
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		c.ID, c.Code, c.DiscountType, c.Value, c.Scope, c.ScopeValue, doctors,
		c.ValidFrom, c.ValidTo, c.MaxUses, c.UsedCount, c.MaxDiscount, c.Active, c.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("insert coupon: %w", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Coupon, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+couponCols+` FROM coupon WHERE id = $1`, id)
	return r.scan(row)
}

func (r *repoPG) GetByCode(ctx context.Context, code string) (*Coupon, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+couponCols+` FROM coupon WHERE code = UPPER($1)`, code)
	return r.scan(row)
}

func (r *repoPG) Update(ctx context.Context, c *Coupon) error {
	c.Code = strings.ToUpper(c.Code)
	doctors, err := json.Marshal(c.ScopeDoctors)
	if err != nil {
		return fmt.Errorf("encode scope doctors: %w", err)
	}
	tag, err := r.pool.Exec(ctx, `UPDATE coupon SET
		code = $2, discount_type = $3, value = $4, scope = $5, scope_value = $6,
		scope_doctors = $7, valid_from = $8, valid_to = $9, max_uses = $10,
		max_discount = $11, active = $12, updated_at = NOW()
	WHERE id = $1`,
		c.ID, c.Code, c.DiscountType, c.Value, c.Scope, c.ScopeValue,
		doctors, c.ValidFrom, c.ValidTo, c.MaxUses,
		c.MaxDiscount, c.Active,
	)
	if err != nil {
		return fmt.Errorf("update coupon: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM coupon WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete coupon: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*Coupon, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM coupon WHERE owner_id = $1`, ownerID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count coupons: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+couponCols+` FROM coupon WHERE owner_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, ownerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list coupons: %w", err)
	}
	defer rows.Close()

	var coupons []*Coupon
	for rows.Next() {
		c, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		coupons = append(coupons, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate coupons: %w", err)
	}
	return coupons, total, nil
}

// Redeem is guarded by the use limit in the WHERE clause so concurrent
// bookings cannot push used_count past max_uses.
func (r *repoPG) Redeem(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	tag, err := tx.Exec(ctx, `UPDATE coupon
		SET used_count = used_count + 1, updated_at = NOW()
		WHERE id = $1 AND active AND (max_uses IS NULL OR used_count < max_uses)`, id)
	if err != nil {
		return fmt.Errorf("redeem coupon: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &InvalidError{Reason: ReasonExhausted}
	}
	return nil
}

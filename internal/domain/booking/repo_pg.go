package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sumaargentina/turnos-api/internal/domain/schedule"
)

type repoPG struct {
	pool    *pgxpool.Pool
	coupons CouponRedeemer
}

// NewRepoPG creates a PostgreSQL-backed appointment repository. coupons may
// be nil when coupon redemption is not wired.
func NewRepoPG(pool *pgxpool.Pool, coupons CouponRedeemer) Repository {
	return &repoPG{pool: pool, coupons: coupons}
}

const apptCols = `id, doctor_id, location_id, patient_id, booked_by_id, date, time,
	consultation_type, office, consultation_fee, services, discount_amount,
	coupon_code, total_price, payment_method, payment_status, attendance,
	created_at, updated_at`

func (r *repoPG) scan(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var services []byte
	err := row.Scan(
		&a.ID, &a.DoctorID, &a.LocationID, &a.PatientID, &a.BookedByID, &a.Date, &a.Time,
		&a.ConsultationType, &a.Office, &a.ConsultationFee, &services, &a.DiscountAmount,
		&a.CouponCode, &a.TotalPrice, &a.PaymentMethod, &a.PaymentStatus, &a.Attendance,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan appointment: %w", err)
	}
	if len(services) > 0 {
		if err := json.Unmarshal(services, &a.Services); err != nil {
			return nil, fmt.Errorf("decode services: %w", err)
		}
	}
	return &a, nil
}

// isSlotConflict matches the partial unique index on
// (doctor_id, location_id, date, time) WHERE attendance <> 'cancelled'.
func isSlotConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *repoPG) CreateIfSlotFree(ctx context.Context, a *Appointment, couponID *uuid.UUID) error {
	a.ID = uuid.New()
	services, err := json.Marshal(a.Services)
	if err != nil {
		return fmt.Errorf("encode services: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `INSERT INTO appointment (
		id, doctor_id, location_id, patient_id, booked_by_id, date, time,
		consultation_type, office, consultation_fee, services, discount_amount,
		coupon_code, total_price, payment_method, payment_status, attendance
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		a.ID, a.DoctorID, a.LocationID, a.PatientID, a.BookedByID, a.Date, a.Time,
		a.ConsultationType, a.Office, a.ConsultationFee, services, a.DiscountAmount,
		a.CouponCode, a.TotalPrice, a.PaymentMethod, a.PaymentStatus, a.Attendance,
	)
	if isSlotConflict(err) {
		return ErrSlotTaken
	}
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}

	if couponID != nil && r.coupons != nil {
		if err := r.coupons.Redeem(ctx, tx, *couponID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+apptCols+` FROM appointment WHERE id = $1`, id)
	return r.scan(row)
}

func (r *repoPG) ListBookedSlots(ctx context.Context, doctorID uuid.UUID, date string) ([]schedule.BookedSlot, error) {
	rows, err := r.pool.Query(ctx, `SELECT date, time, location_id FROM appointment
		WHERE doctor_id = $1 AND date = $2 AND attendance <> 'cancelled'`, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("list booked slots: %w", err)
	}
	defer rows.Close()

	var slots []schedule.BookedSlot
	for rows.Next() {
		var b schedule.BookedSlot
		var locID *uuid.UUID
		if err := rows.Scan(&b.Date, &b.Time, &locID); err != nil {
			return nil, fmt.Errorf("scan booked slot: %w", err)
		}
		if locID != nil {
			b.LocationID = locID.String()
		}
		slots = append(slots, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate booked slots: %w", err)
	}
	return slots, nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM appointment WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count appointments: %w", err)
	}
	rows, err := r.pool.Query(ctx, `SELECT `+apptCols+` FROM appointment
		WHERE patient_id = $1 ORDER BY date DESC, time DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()
	return r.collect(rows, total)
}

func (r *repoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, date string, limit, offset int) ([]*Appointment, int, error) {
	query := `SELECT ` + apptCols + ` FROM appointment WHERE doctor_id = $1`
	countQuery := `SELECT COUNT(*) FROM appointment WHERE doctor_id = $1`
	args := []interface{}{doctorID}
	idx := 2

	if date != "" {
		query += fmt.Sprintf(` AND date = $%d`, idx)
		countQuery += fmt.Sprintf(` AND date = $%d`, idx)
		args = append(args, date)
		idx++
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count appointments: %w", err)
	}

	query += fmt.Sprintf(` ORDER BY date DESC, time DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()
	return r.collect(rows, total)
}

func (r *repoPG) collect(rows pgx.Rows, total int) ([]*Appointment, int, error) {
	var items []*Appointment
	for rows.Next() {
		a, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate appointments: %w", err)
	}
	return items, total, nil
}

// Dates are stored as ISO strings, so lexicographic range comparison is
// chronological.
func (r *repoPG) ListByDoctorBetween(ctx context.Context, doctorID uuid.UUID, fromDate, toDate string) ([]*Appointment, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+apptCols+` FROM appointment
		WHERE doctor_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date, time`, doctorID, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("list appointments in range: %w", err)
	}
	defer rows.Close()

	items, _, err := r.collect(rows, 0)
	return items, err
}

func (r *repoPG) UpdateAttendance(ctx context.Context, id uuid.UUID, a Attendance) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE appointment SET attendance = $2, updated_at = NOW() WHERE id = $1`, id, a)
	if err != nil {
		return fmt.Errorf("update attendance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) UpdatePayment(ctx context.Context, id uuid.UUID, s PaymentStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE appointment SET payment_status = $2, updated_at = NOW() WHERE id = $1`, id, s)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

package doctor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct {
	pool *pgxpool.Pool
}

// NewRepoPG creates a PostgreSQL-backed doctor repository.
func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const doctorCols = `id, name, email, specialty, city, address, consultation_fee,
	slot_duration_minutes, schedule, services, online_enabled, online_fee, active,
	created_at, updated_at`

func (r *repoPG) scan(row pgx.Row) (*Doctor, error) {
	var d Doctor
	var sched, services []byte
	err := row.Scan(
		&d.ID, &d.Name, &d.Email, &d.Specialty, &d.City, &d.Address, &d.ConsultationFee,
		&d.SlotDurationMinutes, &sched, &services, &d.OnlineEnabled, &d.OnlineFee, &d.Active,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan doctor: %w", err)
	}
	if len(sched) > 0 {
		if err := json.Unmarshal(sched, &d.Schedule); err != nil {
			return nil, fmt.Errorf("decode schedule: %w", err)
		}
	}
	if len(services) > 0 {
		if err := json.Unmarshal(services, &d.Services); err != nil {
			return nil, fmt.Errorf("decode services: %w", err)
		}
	}
	return &d, nil
}

func (r *repoPG) Create(ctx context.Context, d *Doctor) error {
	d.ID = uuid.New()
	sched, err := json.Marshal(d.Schedule)
	if err != nil {
		return fmt.Errorf("encode schedule: %w", err)
	}
	services, err := json.Marshal(d.Services)
	if err != nil {
		return fmt.Errorf("encode services: %w", err)
	}
	_, err = r.pool.Exec(ctx, `INSERT INTO doctor (
		id, name, email, specialty, city, address, consultation_fee,
		slot_duration_minutes, schedule, services, online_enabled, online_fee, active
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		d.ID, d.Name, d.Email, d.Specialty, d.City, d.Address, d.ConsultationFee,
		d.SlotDurationMinutes, sched, services, d.OnlineEnabled, d.OnlineFee, d.Active,
	)
	if err != nil {
		return fmt.Errorf("insert doctor: %w", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+doctorCols+` FROM doctor WHERE id = $1`, id)
	return r.scan(row)
}

func (r *repoPG) Update(ctx context.Context, d *Doctor) error {
	sched, err := json.Marshal(d.Schedule)
	if err != nil {
		return fmt.Errorf("encode schedule: %w", err)
	}
	services, err := json.Marshal(d.Services)
	if err != nil {
		return fmt.Errorf("encode services: %w", err)
	}
	tag, err := r.pool.Exec(ctx, `UPDATE doctor SET
		name = $2, email = $3, specialty = $4, city = $5, address = $6,
		consultation_fee = $7, slot_duration_minutes = $8, schedule = $9,
		services = $10, online_enabled = $11, online_fee = $12, active = $13,
		updated_at = NOW()
	WHERE id = $1`,
		d.ID, d.Name, d.Email, d.Specialty, d.City, d.Address,
		d.ConsultationFee, d.SlotDurationMinutes, sched,
		services, d.OnlineEnabled, d.OnlineFee, d.Active,
	)
	if err != nil {
		return fmt.Errorf("update doctor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM doctor WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete doctor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Doctor, int, error) {
	query := `SELECT ` + doctorCols + ` FROM doctor WHERE active`
	countQuery := `SELECT COUNT(*) FROM doctor WHERE active`
	var args []interface{}
	idx := 1

	if p, ok := params["specialty"]; ok {
		query += fmt.Sprintf(` AND specialty ILIKE $%d`, idx)
		countQuery += fmt.Sprintf(` AND specialty ILIKE $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["city"]; ok {
		query += fmt.Sprintf(` AND city ILIKE $%d`, idx)
		countQuery += fmt.Sprintf(` AND city ILIKE $%d`, idx)
		args = append(args, p)
		idx++
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count doctors: %w", err)
	}

	query += fmt.Sprintf(` ORDER BY name LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list doctors: %w", err)
	}
	defer rows.Close()

	var items []*Doctor
	for rows.Next() {
		d, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate doctors: %w", err)
	}
	return items, total, nil
}

type locationRepoPG struct {
	pool *pgxpool.Pool
}

// NewLocationRepoPG creates a PostgreSQL-backed location repository.
func NewLocationRepoPG(pool *pgxpool.Pool) LocationRepository {
	return &locationRepoPG{pool: pool}
}

const locationCols = `id, doctor_id, name, address, city, schedule, services,
	consultation_fee, slot_duration_minutes, created_at, updated_at`

func (r *locationRepoPG) scan(row pgx.Row) (*Location, error) {
	var l Location
	var sched, services []byte
	err := row.Scan(
		&l.ID, &l.DoctorID, &l.Name, &l.Address, &l.City, &sched, &services,
		&l.ConsultationFee, &l.SlotDurationMinutes, &l.CreatedAt, &l.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan location: %w", err)
	}
	if len(sched) > 0 {
		if err := json.Unmarshal(sched, &l.Schedule); err != nil {
			return nil, fmt.Errorf("decode schedule: %w", err)
		}
	}
	if len(services) > 0 {
		if err := json.Unmarshal(services, &l.Services); err != nil {
			return nil, fmt.Errorf("decode services: %w", err)
		}
	}
	return &l, nil
}

func (r *locationRepoPG) Create(ctx context.Context, l *Location) error {
	l.ID = uuid.New()
	sched, err := json.Marshal(l.Schedule)
	if err != nil {
		return fmt.Errorf("encode schedule: %w", err)
	}
	services, err := json.Marshal(l.Services)
	if err != nil {
		return fmt.Errorf("encode services: %w", err)
	}
	_, err = r.pool.Exec(ctx, `INSERT INTO location (
		id, doctor_id, name, address, city, schedule, services, consultation_fee, slot_duration_minutes
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		l.ID, l.DoctorID, l.Name, l.Address, l.City, sched, services, l.ConsultationFee, l.SlotDurationMinutes,
	)
	if err != nil {
		return fmt.Errorf("insert location: %w", err)
	}
	return nil
}

func (r *locationRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Location, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+locationCols+` FROM location WHERE id = $1`, id)
	return r.scan(row)
}

func (r *locationRepoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Location, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+locationCols+` FROM location WHERE doctor_id = $1 ORDER BY created_at`, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	var items []*Location
	for rows.Next() {
		l, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate locations: %w", err)
	}
	return items, nil
}

func (r *locationRepoPG) Update(ctx context.Context, l *Location) error {
	sched, err := json.Marshal(l.Schedule)
	if err != nil {
		return fmt.Errorf("encode schedule: %w", err)
	}
	services, err := json.Marshal(l.Services)
	if err != nil {
		return fmt.Errorf("encode services: %w", err)
	}
	tag, err := r.pool.Exec(ctx, `UPDATE location SET
		name = $2, address = $3, city = $4, schedule = $5, services = $6,
		consultation_fee = $7, slot_duration_minutes = $8, updated_at = NOW()
	WHERE id = $1`,
		l.ID, l.Name, l.Address, l.City, sched, services, l.ConsultationFee, l.SlotDurationMinutes,
	)
	if err != nil {
		return fmt.Errorf("update location: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *locationRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM location WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete location: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

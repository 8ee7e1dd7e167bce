package finance

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct {
	pool *pgxpool.Pool
}

// NewRepoPG creates a PostgreSQL-backed expense repository.
func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const expenseCols = `id, doctor_id, date, description, amount, category, office,
	created_at, updated_at`

func (r *repoPG) scan(row pgx.Row) (*Expense, error) {
	var e Expense
	err := row.Scan(
		&e.ID, &e.DoctorID, &e.Date, &e.Description, &e.Amount, &e.Category, &e.Office,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan expense: %w", err)
	}
	return &e, nil
}

func (r *repoPG) Create(ctx context.Context, e *Expense) error {
	e.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `INSERT INTO expense (
		id, doctor_id, date, description, amount, category, office
	) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.DoctorID, e.Date, e.Description, e.Amount, e.Category, e.Office,
	)
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Expense, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+expenseCols+` FROM expense WHERE id = $1`, id)
	return r.scan(row)
}

func (r *repoPG) Update(ctx context.Context, e *Expense) error {
	tag, err := r.pool.Exec(ctx, `UPDATE expense SET
		date = $2, description = $3, amount = $4, category = $5, office = $6,
		updated_at = NOW()
	WHERE id = $1`,
		e.ID, e.Date, e.Description, e.Amount, e.Category, e.Office,
	)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM expense WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ListByDoctorBetween(ctx context.Context, doctorID uuid.UUID, fromDate, toDate string) ([]*Expense, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+expenseCols+` FROM expense
		WHERE doctor_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date`, doctorID, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var items []*Expense
	for rows.Next() {
		e, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return items, nil
}

package schools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lyceum-sms/lyceum-sms/internal/shared"
)

// Repository persists schools.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a Repository backed by the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const schoolColumns = `id, code, name, COALESCE(address, ''), created_at, updated_at`

// List returns schools, optionally restricted to the given ids.
func (r *Repository) List(ctx context.Context, ids []string) ([]School, error) {
	query := fmt.Sprintf(`SELECT %s FROM schools`, schoolColumns)
	args := []any{}
	if len(ids) > 0 {
		query += ` WHERE id = ANY($1)`
		args = append(args, ids)
	}
	query += ` ORDER BY name`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("schools: list: %w", err)
	}
	defer rows.Close()

	var out []School
	for rows.Next() {
		var s School
		if err := rows.Scan(&s.ID, &s.Code, &s.Name, &s.Address, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("schools: scan: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Get fetches a school by id.
func (r *Repository) Get(ctx context.Context, id string) (School, error) {
	query := fmt.Sprintf(`SELECT %s FROM schools WHERE id = $1`, schoolColumns)
	var s School
	err := r.pool.QueryRow(ctx, query, id).Scan(&s.ID, &s.Code, &s.Name, &s.Address, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return School{}, shared.ErrNotFound
		}
		return School{}, err
	}
	return s, nil
}

// Create inserts a new school.
func (r *Repository) Create(ctx context.Context, code, name, address string) (School, error) {
	query := fmt.Sprintf(`
		INSERT INTO schools (id, code, name, address)
		VALUES ($1, $2, $3, NULLIF($4, ''))
		RETURNING %s`, schoolColumns)
	var s School
	err := r.pool.QueryRow(ctx, query, uuid.NewString(), strings.TrimSpace(code), strings.TrimSpace(name), strings.TrimSpace(address)).
		Scan(&s.ID, &s.Code, &s.Name, &s.Address, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if shared.IsUniqueViolation(err) {
			return School{}, shared.ErrDuplicate
		}
		return School{}, err
	}
	return s, nil
}

// Update modifies name/address of an existing school.
func (r *Repository) Update(ctx context.Context, id, name, address string) (School, error) {
	query := fmt.Sprintf(`
		UPDATE schools
		SET name = $2, address = NULLIF($3, ''), updated_at = NOW()
		WHERE id = $1
		RETURNING %s`, schoolColumns)
	var s School
	err := r.pool.QueryRow(ctx, query, id, strings.TrimSpace(name), strings.TrimSpace(address)).
		Scan(&s.ID, &s.Code, &s.Name, &s.Address, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return School{}, shared.ErrNotFound
		}
		return School{}, err
	}
	return s, nil
}

// CountUsersByRole counts active users of one role in a school.
func (r *Repository) CountUsersByRole(ctx context.Context, schoolID, role string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE school_id = $1 AND role = $2 AND is_active`,
		schoolID, role,
	).Scan(&n)
	return n, err
}

// CountCourses counts courses in a school.
func (r *Repository) CountCourses(ctx context.Context, schoolID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM courses WHERE school_id = $1`, schoolID).Scan(&n)
	return n, err
}

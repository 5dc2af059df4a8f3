package marks

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lyceum-sms/lyceum-sms/internal/shared"
)

// Repository persists marks in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const markColumns = `id, school_id, student_id, course_id, recorded_by, term, score, max_score, COALESCE(comment, ''), created_at, updated_at`

func scanMark(row pgx.Row) (Mark, error) {
	var m Mark
	err := row.Scan(&m.ID, &m.SchoolID, &m.StudentID, &m.CourseID, &m.RecordedBy,
		&m.Term, &m.Score, &m.MaxScore, &m.Comment, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

// Create inserts a mark. One mark per student, course and term.
func (r *Repository) Create(ctx context.Context, m Mark) (Mark, error) {
	m.ID = uuid.NewString()
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO marks (id, school_id, student_id, course_id, recorded_by, term, score, max_score, comment)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''))
		RETURNING %s`, markColumns),
		m.ID, m.SchoolID, m.StudentID, m.CourseID, m.RecordedBy, m.Term, m.Score, m.MaxScore, m.Comment,
	)
	created, err := scanMark(row)
	if err != nil {
		if shared.IsUniqueViolation(err) {
			return Mark{}, shared.ErrDuplicate
		}
		return Mark{}, fmt.Errorf("marks: create: %w", err)
	}
	return created, nil
}

// Get fetches a single mark.
func (r *Repository) Get(ctx context.Context, id string) (Mark, error) {
	m, err := scanMark(r.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM marks WHERE id = $1`, markColumns), id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Mark{}, shared.ErrNotFound
		}
		return Mark{}, err
	}
	return m, nil
}

// Update changes the score and comment of an existing mark.
func (r *Repository) Update(ctx context.Context, id string, score float64, comment string) (Mark, error) {
	m, err := scanMark(r.pool.QueryRow(ctx, fmt.Sprintf(`
		UPDATE marks SET score = $2, comment = NULLIF($3, ''), updated_at = NOW()
		WHERE id = $1 RETURNING %s`, markColumns),
		id, score, comment))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Mark{}, shared.ErrNotFound
		}
		return Mark{}, err
	}
	return m, nil
}

// List returns marks matching the filter, newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Mark, error) {
	where := ` WHERE TRUE`
	args := []any{}
	if !filter.AllSchools {
		args = append(args, filter.SchoolIDs)
		where += fmt.Sprintf(` AND school_id::text = ANY($%d)`, len(args))
	}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		where += fmt.Sprintf(` AND student_id = $%d`, len(args))
	}
	if filter.CourseID != "" {
		args = append(args, filter.CourseID)
		where += fmt.Sprintf(` AND course_id = $%d`, len(args))
	}
	if filter.Term != "" {
		args = append(args, filter.Term)
		where += fmt.Sprintf(` AND term = $%d`, len(args))
	}

	rows, err := r.pool.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM marks%s ORDER BY created_at DESC LIMIT 500`, markColumns, where), args...)
	if err != nil {
		return nil, fmt.Errorf("marks: list: %w", err)
	}
	defer rows.Close()

	var out []Mark
	for rows.Next() {
		m, err := scanMark(rows)
		if err != nil {
			return nil, fmt.Errorf("marks: scan: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

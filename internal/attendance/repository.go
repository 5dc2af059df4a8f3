package attendance

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lyceum-sms/lyceum-sms/internal/shared"
)

// Repository persists attendance records in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const recordColumns = `id, school_id, student_id, COALESCE(course_id::text, ''), recorded_by, date, status, COALESCE(note, ''), created_at`

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.SchoolID, &rec.StudentID, &rec.CourseID,
		&rec.RecordedBy, &rec.Date, &rec.Status, &rec.Note, &rec.CreatedAt)
	return rec, err
}

// Create inserts a record. A student has at most one entry per course and day.
func (r *Repository) Create(ctx context.Context, rec Record) (Record, error) {
	rec.ID = uuid.NewString()
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO attendance_records (id, school_id, student_id, course_id, recorded_by, date, status, note)
		VALUES ($1, $2, $3, NULLIF($4, '')::uuid, $5, $6, $7, NULLIF($8, ''))
		RETURNING %s`, recordColumns),
		rec.ID, rec.SchoolID, rec.StudentID, rec.CourseID, rec.RecordedBy, rec.Date, string(rec.Status), rec.Note,
	)
	created, err := scanRecord(row)
	if err != nil {
		if shared.IsUniqueViolation(err) {
			return Record{}, shared.ErrDuplicate
		}
		return Record{}, fmt.Errorf("attendance: create: %w", err)
	}
	return created, nil
}

// List returns records matching the filter, newest day first.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Record, error) {
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
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		where += fmt.Sprintf(` AND date >= $%d`, len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		where += fmt.Sprintf(` AND date <= $%d`, len(args))
	}

	rows, err := r.pool.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM attendance_records%s ORDER BY date DESC, created_at DESC LIMIT 500`,
		recordColumns, where), args...)
	if err != nil {
		return nil, fmt.Errorf("attendance: list: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("attendance: scan: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

package courses

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lyceum-sms/lyceum-sms/internal/shared"
)

// Repository persists courses and course content in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const courseColumns = `id, school_id, code, name, COALESCE(teacher_id::text, ''), created_at, updated_at`

func scanCourse(row pgx.Row) (Course, error) {
	var c Course
	err := row.Scan(&c.ID, &c.SchoolID, &c.Code, &c.Name, &c.TeacherID, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// Create inserts a course. The code is unique per school.
func (r *Repository) Create(ctx context.Context, c Course) (Course, error) {
	c.ID = uuid.NewString()
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO courses (id, school_id, code, name, teacher_id)
		VALUES ($1, $2, $3, $4, NULLIF($5, '')::uuid)
		RETURNING %s`, courseColumns),
		c.ID, c.SchoolID, c.Code, c.Name, c.TeacherID,
	)
	created, err := scanCourse(row)
	if err != nil {
		if shared.IsUniqueViolation(err) {
			return Course{}, shared.ErrDuplicate
		}
		return Course{}, fmt.Errorf("courses: create: %w", err)
	}
	return created, nil
}

// Get fetches a single course.
func (r *Repository) Get(ctx context.Context, id string) (Course, error) {
	c, err := scanCourse(r.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM courses WHERE id = $1`, courseColumns), id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Course{}, shared.ErrNotFound
		}
		return Course{}, err
	}
	return c, nil
}

// Update changes the name and assigned teacher of a course.
func (r *Repository) Update(ctx context.Context, id, name, teacherID string) (Course, error) {
	c, err := scanCourse(r.pool.QueryRow(ctx, fmt.Sprintf(`
		UPDATE courses SET name = $2, teacher_id = NULLIF($3, '')::uuid, updated_at = NOW()
		WHERE id = $1 RETURNING %s`, courseColumns),
		id, name, teacherID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Course{}, shared.ErrNotFound
		}
		return Course{}, err
	}
	return c, nil
}

// List returns the courses of the given schools, ordered by code.
func (r *Repository) List(ctx context.Context, allSchools bool, schoolIDs []string) ([]Course, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses`, courseColumns)
	args := []any{}
	if !allSchools {
		args = append(args, schoolIDs)
		query += ` WHERE school_id::text = ANY($1)`
	}
	query += ` ORDER BY code`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("courses: list: %w", err)
	}
	defer rows.Close()

	var out []Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("courses: scan: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

const contentColumns = `id, course_id, school_id, author_id, title, body, created_at`

func scanContent(row pgx.Row) (ContentEntry, error) {
	var e ContentEntry
	err := row.Scan(&e.ID, &e.CourseID, &e.SchoolID, &e.AuthorID, &e.Title, &e.Body, &e.CreatedAt)
	return e, err
}

// CreateContent publishes a content entry under a course.
func (r *Repository) CreateContent(ctx context.Context, e ContentEntry) (ContentEntry, error) {
	e.ID = uuid.NewString()
	created, err := scanContent(r.pool.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO course_content (id, course_id, school_id, author_id, title, body)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING %s`, contentColumns),
		e.ID, e.CourseID, e.SchoolID, e.AuthorID, e.Title, e.Body))
	if err != nil {
		return ContentEntry{}, fmt.Errorf("courses: create content: %w", err)
	}
	return created, nil
}

// ListContent returns the content entries of a course, newest first.
func (r *Repository) ListContent(ctx context.Context, courseID string) ([]ContentEntry, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM course_content WHERE course_id = $1 ORDER BY created_at DESC`, contentColumns), courseID)
	if err != nil {
		return nil, fmt.Errorf("courses: list content: %w", err)
	}
	defer rows.Close()

	var out []ContentEntry
	for rows.Next() {
		e, err := scanContent(rows)
		if err != nil {
			return nil, fmt.Errorf("courses: scan content: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

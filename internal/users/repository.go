package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lyceum-sms/lyceum-sms/internal/authz"
	"github.com/lyceum-sms/lyceum-sms/internal/platform/db"
	"github.com/lyceum-sms/lyceum-sms/internal/shared"
)

// Repository abstracts user persistence.
type Repository interface {
	Create(ctx context.Context, input CreateUserInput, passwordHash string) (User, error)
	Get(ctx context.Context, id string) (User, error)
	List(ctx context.Context, filter ListFilter) ([]User, int, error)
	UpdateName(ctx context.Context, id, name string) (User, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a Postgres-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const userColumns = `id, COALESCE(school_id::text, ''), role, name, email, is_active, created_at, updated_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.SchoolID, &u.Role, &u.Name, &u.Email, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *pgRepository) Create(ctx context.Context, input CreateUserInput, passwordHash string) (User, error) {
	id := uuid.NewString()
	var created User
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, fmt.Sprintf(`
			INSERT INTO users (id, school_id, role, name, email, password_hash, is_active)
			VALUES ($1, NULLIF($2, '')::uuid, $3, $4, $5, $6, TRUE)
			RETURNING %s`, userColumns),
			id, input.SchoolID, string(input.Role), input.Name, input.Email, passwordHash,
		)
		u, err := scanUser(row)
		if err != nil {
			return err
		}
		created = u
		return nil
	})
	if err != nil {
		if shared.IsUniqueViolation(err) {
			return User{}, shared.ErrDuplicate
		}
		return User{}, err
	}
	return created, nil
}

func (r *pgRepository) Get(ctx context.Context, id string) (User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns), id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, shared.ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

func (r *pgRepository) List(ctx context.Context, filter ListFilter) ([]User, int, error) {
	where := ` WHERE TRUE`
	args := []any{}
	if !filter.AllSchools {
		args = append(args, filter.SchoolIDs)
		where += fmt.Sprintf(` AND school_id::text = ANY($%d)`, len(args))
	}
	if filter.Role != authz.Role("") {
		args = append(args, string(filter.Role))
		where += fmt.Sprintf(` AND role = $%d`, len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("users: count: %w", err)
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	args = append(args, perPage, (page-1)*perPage)
	query := fmt.Sprintf(`SELECT %s FROM users%s ORDER BY name LIMIT $%d OFFSET $%d`,
		userColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("users: list: %w", err)
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("users: scan: %w", err)
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

func (r *pgRepository) UpdateName(ctx context.Context, id, name string) (User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, fmt.Sprintf(`
		UPDATE users SET name = $2, updated_at = NOW() WHERE id = $1 RETURNING %s`, userColumns), id, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, shared.ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

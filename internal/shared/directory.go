package shared

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRef identifies an account's tenant and role.
type UserRef struct {
	SchoolID string
	Role     string
}

// Directory answers account lookups for modules that need to guard a target
// user without depending on the users package.
type Directory struct {
	pool *pgxpool.Pool
}

// NewDirectory constructs a Directory.
func NewDirectory(pool *pgxpool.Pool) *Directory {
	return &Directory{pool: pool}
}

// Lookup resolves the school and role of an account.
func (d *Directory) Lookup(ctx context.Context, userID string) (UserRef, error) {
	var ref UserRef
	err := d.pool.QueryRow(ctx,
		`SELECT COALESCE(school_id::text, ''), role FROM users WHERE id = $1`, userID,
	).Scan(&ref.SchoolID, &ref.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserRef{}, ErrNotFound
		}
		return UserRef{}, err
	}
	return ref, nil
}

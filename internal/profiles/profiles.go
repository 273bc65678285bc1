// Package profiles reads user profiles provisioned by the external identity
// provider. This service never creates accounts; it only resolves role and
// phone number for an already-authenticated user id.
package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type Profile struct {
	ID    string `json:"id" db:"id"`
	Email string `json:"email" db:"email"`
	Role  string `json:"role" db:"role"`

	// PhoneNumber is the courier's real phone in wire format. Never exposed
	// to customers or to the frontend beyond the courier's own settings view.
	PhoneNumber string `json:"phone_number,omitempty" db:"phone_number"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

var ErrNotFound = errors.New("profiles: not found")

type Repository interface {
	Get(ctx context.Context, id string) (Profile, error)

	// Delete removes a profile row. The identity-provider account is managed
	// externally; dropping the profile revokes this service's knowledge of
	// the courier.
	Delete(ctx context.Context, id string) error
}

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (Profile, error) {
	const q = `
SELECT id, email, role, COALESCE(phone_number, ''), created_at
FROM profiles
WHERE id = $1
`
	var p Profile
	err := r.db.QueryRowContext(ctx, q, id).Scan(&p.ID, &p.Email, &p.Role, &p.PhoneNumber, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, fmt.Errorf("profiles: get %s: %w", id, err)
	}
	return p, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("profiles: delete %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

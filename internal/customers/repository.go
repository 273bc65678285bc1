package customers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"courier-bridge/internal/phone"

	"github.com/google/uuid"
)

var (
	ErrNotFound     = errors.New("customers: not found")
	ErrInvalidPhone = errors.New("customers: invalid phone number format")
	ErrInvalidInput = errors.New("customers: invalid input")
)

type Repository interface {
	Create(ctx context.Context, c *Customer) error
	Get(ctx context.Context, id string) (Customer, error)
	List(ctx context.Context, activeOnly bool) ([]Customer, error)
	Update(ctx context.Context, c Customer) error
	Deactivate(ctx context.Context, id string) error
	DeactivateAll(ctx context.Context) (int64, error)
}

type PostgresRepository struct {
	db    *sql.DB
	clock func() time.Time
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db, clock: time.Now}
}

func (r *PostgresRepository) Create(ctx context.Context, c *Customer) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: name required", ErrInvalidInput)
	}
	if !phone.IsValidFormat(c.PhoneNumber) {
		return ErrInvalidPhone
	}
	c.PhoneNumber = phone.ToWire(c.PhoneNumber)
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = r.clock().UTC()
	}
	c.Active = true

	const q = `
INSERT INTO customers (id, name, phone_number, is_active, created_by, assigned_courier_id, created_at)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7)
`
	_, err := r.db.ExecContext(ctx, q,
		c.ID, c.Name, c.PhoneNumber, c.Active, c.CreatedBy, c.AssignedCourierID, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("customers: create: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (Customer, error) {
	const q = `
SELECT id, name, phone_number, is_active,
	COALESCE(created_by::text, ''), COALESCE(assigned_courier_id::text, ''), created_at
FROM customers
WHERE id = $1
`
	var c Customer
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&c.ID, &c.Name, &c.PhoneNumber, &c.Active, &c.CreatedBy, &c.AssignedCourierID, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Customer{}, ErrNotFound
	}
	if err != nil {
		return Customer{}, fmt.Errorf("customers: get %s: %w", id, err)
	}
	return c, nil
}

func (r *PostgresRepository) List(ctx context.Context, activeOnly bool) ([]Customer, error) {
	q := `
SELECT id, name, phone_number, is_active,
	COALESCE(created_by::text, ''), COALESCE(assigned_courier_id::text, ''), created_at
FROM customers
`
	if activeOnly {
		q += " WHERE is_active = TRUE"
	}
	q += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("customers: list: %w", err)
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.PhoneNumber, &c.Active, &c.CreatedBy, &c.AssignedCourierID, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("customers: scan: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Update(ctx context.Context, c Customer) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: name required", ErrInvalidInput)
	}
	if !phone.IsValidFormat(c.PhoneNumber) {
		return ErrInvalidPhone
	}

	const q = `
UPDATE customers
SET name = $2, phone_number = $3, is_active = $4, assigned_courier_id = NULLIF($5, '')
WHERE id = $1
`
	res, err := r.db.ExecContext(ctx, q, c.ID, c.Name, phone.ToWire(c.PhoneNumber), c.Active, c.AssignedCourierID)
	if err != nil {
		return fmt.Errorf("customers: update %s: %w", c.ID, err)
	}
	return requireRow(res)
}

func (r *PostgresRepository) Deactivate(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE customers SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("customers: deactivate %s: %w", id, err)
	}
	return requireRow(res)
}

func (r *PostgresRepository) DeactivateAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE customers SET is_active = FALSE WHERE is_active = TRUE`)
	if err != nil {
		return 0, fmt.Errorf("customers: deactivate all: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

package calls

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Store is the persistence contract for call logs. The write path is
// upsert-shaped: concurrent status redeliveries for one SID must converge to
// a single row without duplicate-row races.
type Store interface {
	// Insert appends a new log entry. A SID collision is a no-op, which makes
	// redelivered incoming-call webhooks idempotent.
	Insert(ctx context.Context, entry *CallLog) error

	// UpsertStatusBySID atomically updates the status fields of the entry for
	// sid, creating a defensive entry when none exists yet.
	UpsertStatusBySID(ctx context.Context, sid string, status Status, durationSeconds *int, errorMessage string) error

	// List returns entries newest-first, optionally filtered by status and
	// time range. A non-positive limit means no cap.
	List(ctx context.Context, filter ListFilter) ([]CallLog, error)
}

// ListFilter narrows List results. A Limit of zero or less means no cap;
// interactive endpoints should pass their own ceiling.
type ListFilter struct {
	Status Status
	From   time.Time
	To     time.Time
	Limit  int
}

// PostgresStore persists call logs in the call_logs table.
//
// Assumed schema: call_logs(id uuid pk, customer_id, customer_name,
// customer_phone_masked, courier_id, agent_name, call_status,
// call_timestamp, call_duration, provider_call_sid unique, error_message,
// created_at, updated_at).
type PostgresStore struct {
	db    *sql.DB
	clock func() time.Time
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, clock: time.Now}
}

func (s *PostgresStore) Insert(ctx context.Context, entry *CallLog) error {
	now := s.clock().UTC()
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = now
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}

	const q = `
INSERT INTO call_logs (
	id, customer_id, customer_name, customer_phone_masked,
	courier_id, agent_name, call_status, call_timestamp,
	call_duration, provider_call_sid, error_message, created_at
)
VALUES ($1, NULLIF($2, ''), $3, $4, NULLIF($5, ''), $6, $7, $8, $9, NULLIF($10, ''), $11, $12)
ON CONFLICT (provider_call_sid) DO NOTHING
`
	_, err := s.db.ExecContext(ctx, q,
		entry.ID,
		entry.CustomerID,
		entry.CustomerName,
		entry.CustomerPhoneMasked,
		entry.CourierID,
		entry.AgentName,
		string(entry.Status),
		entry.Timestamp,
		entry.DurationSeconds,
		entry.ProviderCallSID,
		entry.ErrorMessage,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("calls: insert log: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpsertStatusBySID(ctx context.Context, sid string, status Status, durationSeconds *int, errorMessage string) error {
	now := s.clock().UTC()

	// Single atomic statement: a status event racing the initiator's own
	// insert (or a concurrent redelivery) lands on the same row either way.
	// Status is a full overwrite; duration and error only ever accumulate.
	const q = `
INSERT INTO call_logs (
	id, call_status, call_timestamp, call_duration,
	provider_call_sid, error_message, created_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $3, $3)
ON CONFLICT (provider_call_sid) DO UPDATE SET
	call_status   = EXCLUDED.call_status,
	call_duration = COALESCE(EXCLUDED.call_duration, call_logs.call_duration),
	error_message = COALESCE(EXCLUDED.error_message, call_logs.error_message),
	updated_at    = EXCLUDED.updated_at
`
	_, err := s.db.ExecContext(ctx, q,
		uuid.NewString(),
		string(status),
		now,
		durationSeconds,
		sid,
		errorMessage,
	)
	if err != nil {
		return fmt.Errorf("calls: upsert status for %s: %w", sid, err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]CallLog, error) {
	q := `
SELECT id, COALESCE(customer_id::text, ''), COALESCE(customer_name, ''),
	COALESCE(customer_phone_masked, ''), COALESCE(courier_id::text, ''),
	COALESCE(agent_name, ''), call_status, call_timestamp, call_duration,
	COALESCE(provider_call_sid, ''), COALESCE(error_message, ''),
	created_at, updated_at
FROM call_logs
WHERE 1=1
`
	args := []any{}
	n := 1
	if filter.Status != "" {
		q += fmt.Sprintf(" AND call_status = $%d", n)
		args = append(args, string(filter.Status))
		n++
	}
	if !filter.From.IsZero() {
		q += fmt.Sprintf(" AND call_timestamp >= $%d", n)
		args = append(args, filter.From)
		n++
	}
	if !filter.To.IsZero() {
		q += fmt.Sprintf(" AND call_timestamp < $%d", n)
		args = append(args, filter.To)
		n++
	}
	q += " ORDER BY call_timestamp DESC"
	if filter.Limit > 0 {
		q += fmt.Sprintf(" LIMIT $%d", n)
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("calls: list logs: %w", err)
	}
	defer rows.Close()

	var out []CallLog
	for rows.Next() {
		var e CallLog
		var status string
		if err := rows.Scan(
			&e.ID, &e.CustomerID, &e.CustomerName, &e.CustomerPhoneMasked,
			&e.CourierID, &e.AgentName, &status, &e.Timestamp,
			&e.DurationSeconds, &e.ProviderCallSID, &e.ErrorMessage,
			&e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("calls: scan log: %w", err)
		}
		e.Status = Status(status)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Package admin holds operator-only flows: the daily reset that archives the
// day's call logs and clears the customer list for the next shift.
package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"courier-bridge/internal/audit"
	"courier-bridge/internal/settings"
	"courier-bridge/pkg/utils"
)

// ResetResult reports what a reset run did.
type ResetResult struct {
	ArchivedCalls        int    `json:"archived_calls"`
	CustomersDeactivated int    `json:"customers_deactivated"`
	ResetDate            string `json:"reset_date"`
}

// ResetStore performs the reset's storage work. The whole run is a single
// transaction so a crash mid-reset never leaves archived rows alongside a
// still-populated live table.
type ResetStore interface {
	Reset(ctx context.Context, archiveDate string, now time.Time) (archived, deactivated int, err error)
}

type PostgresResetStore struct {
	db *sql.DB
}

func NewPostgresResetStore(db *sql.DB) *PostgresResetStore {
	return &PostgresResetStore{db: db}
}

func (s *PostgresResetStore) Reset(ctx context.Context, archiveDate string, now time.Time) (archived, deactivated int, err error) {
	err = utils.WithTx(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		const archiveQ = `
INSERT INTO archived_calls
	(original_call_log_id, customer_id, customer_name, customer_phone_masked,
	 courier_id, agent_name, call_status, call_timestamp, call_duration,
	 provider_call_sid, error_message, archive_date)
SELECT id, customer_id, customer_name, customer_phone_masked,
	courier_id, agent_name, call_status, call_timestamp, call_duration,
	provider_call_sid, error_message, $1
FROM call_logs
`
		res, err := tx.ExecContext(ctx, archiveQ, archiveDate)
		if err != nil {
			return fmt.Errorf("archive call logs: %w", err)
		}
		n, _ := res.RowsAffected()
		archived = int(n)

		if _, err := tx.ExecContext(ctx, `DELETE FROM call_logs`); err != nil {
			return fmt.Errorf("clear call logs: %w", err)
		}

		res, err = tx.ExecContext(ctx, `UPDATE customers SET is_active = FALSE WHERE is_active = TRUE`)
		if err != nil {
			return fmt.Errorf("deactivate customers: %w", err)
		}
		n, _ = res.RowsAffected()
		deactivated = int(n)

		const settingQ = `
INSERT INTO settings (key, value, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
`
		if _, err := tx.ExecContext(ctx, settingQ, settings.KeyLastResetDate, archiveDate, now); err != nil {
			return fmt.Errorf("record last reset date: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("admin: reset: %w", err)
	}
	return archived, deactivated, nil
}

// ResetService runs the daily reset and records who asked for it.
type ResetService struct {
	store    ResetStore
	settings *settings.Service
	audits   *audit.Service
	logger   *slog.Logger
	clock    func() time.Time
}

func NewResetService(store ResetStore, st *settings.Service, audits *audit.Service, logger *slog.Logger) *ResetService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResetService{store: store, settings: st, audits: audits, logger: logger, clock: time.Now}
}

// Run executes the reset. actorUserID/actorRole are empty for cron-triggered
// runs. Audit and cache invalidation are best-effort.
func (s *ResetService) Run(ctx context.Context, actorUserID, actorRole, ip string) (ResetResult, error) {
	now := s.clock().UTC()
	archiveDate := now.Format("2006-01-02")

	archived, deactivated, err := s.store.Reset(ctx, archiveDate, now)
	if err != nil {
		return ResetResult{}, err
	}

	if s.settings != nil {
		s.settings.Invalidate(ctx, settings.KeyLastResetDate)
	}

	if s.audits != nil {
		meta := fmt.Sprintf(`{"archived_calls":%d,"customers_deactivated":%d}`, archived, deactivated)
		if err := s.audits.LogDailyReset(ctx, actorUserID, actorRole, ip, "daily reset completed", meta); err != nil {
			s.logger.WarnContext(ctx, "daily reset audit write failed", "error", err)
		}
	}

	s.logger.InfoContext(ctx, "daily reset completed",
		"archive_date", archiveDate,
		"archived_calls", archived,
		"customers_deactivated", deactivated,
	)

	return ResetResult{
		ArchivedCalls:        archived,
		CustomersDeactivated: deactivated,
		ResetDate:            archiveDate,
	}, nil
}

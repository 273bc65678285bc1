// Package settings is the runtime-configurable key-value layer (business
// phone override, incoming-call message, reset bookkeeping). Values are read
// at request time so every handler stays stateless; a short-TTL redis cache
// keeps the hot keys off postgres.
package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"courier-bridge/pkg/utils"
)

// Well-known keys.
const (
	KeyBusinessPhone   = "business_phone_number"
	KeyIncomingMessage = "incoming_call_message"
	KeyDailyResetTime  = "daily_reset_time"
	KeyLastResetDate   = "last_reset_date"
)

var ErrNotFound = errors.New("settings: not found")

const cacheTTL = 30 * time.Second

type Service struct {
	db    *sql.DB
	cache *redis.Client
	clock func() time.Time
}

func NewService(db *sql.DB, cache *redis.Client) *Service {
	return &Service{db: db, cache: cache, clock: time.Now}
}

// Get returns the stored value for key, or "" when the key is absent. Cache
// failures degrade to a direct read; a stale or missing cache never blocks a
// live call.
func (s *Service) Get(ctx context.Context, key string) (string, error) {
	if v, ok := utils.CacheGet(ctx, s.cache, cacheKey(key)); ok {
		return v, nil
	}

	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("settings: get %s: %w", key, err)
	}

	utils.CacheSet(ctx, s.cache, cacheKey(key), value, cacheTTL)
	return value, nil
}

// Set upserts a key and invalidates its cache entry.
func (s *Service) Set(ctx context.Context, key, value, updatedBy string) error {
	const q = `
INSERT INTO settings (key, value, updated_at, updated_by)
VALUES ($1, $2, $3, NULLIF($4, ''))
ON CONFLICT (key) DO UPDATE SET
	value      = EXCLUDED.value,
	updated_at = EXCLUDED.updated_at,
	updated_by = EXCLUDED.updated_by
`
	if _, err := s.db.ExecContext(ctx, q, key, value, s.clock().UTC(), updatedBy); err != nil {
		return fmt.Errorf("settings: set %s: %w", key, err)
	}
	utils.CacheDel(ctx, s.cache, cacheKey(key))
	return nil
}

// Invalidate drops the cache entry for key. Used when another component
// writes the settings table directly (the daily reset transaction).
func (s *Service) Invalidate(ctx context.Context, key string) {
	utils.CacheDel(ctx, s.cache, cacheKey(key))
}

func cacheKey(key string) string {
	return "settings:" + key
}

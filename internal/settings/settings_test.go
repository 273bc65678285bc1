package settings

import (
	"context"
	"testing"
)

func TestCacheKeyNamespacing(t *testing.T) {
	if got := cacheKey(KeyBusinessPhone); got != "settings:business_phone_number" {
		t.Fatalf("unexpected cache key: %q", got)
	}
}

func TestInvalidateToleratesNilCache(t *testing.T) {
	s := NewService(nil, nil)
	// Must not panic when redis is absent.
	s.Invalidate(context.Background(), KeyLastResetDate)
}

package admin

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"courier-bridge/internal/audit"
	"courier-bridge/internal/auth"
	"courier-bridge/internal/config"

	"github.com/gin-gonic/gin"
)

type fakeResetStore struct {
	archived    int
	deactivated int
	gotDate     string
	err         error
}

func (f *fakeResetStore) Reset(ctx context.Context, archiveDate string, now time.Time) (int, int, error) {
	f.gotDate = archiveDate
	if f.err != nil {
		return 0, 0, f.err
	}
	return f.archived, f.deactivated, nil
}

func TestResetServiceRun(t *testing.T) {
	store := &fakeResetStore{archived: 7, deactivated: 3}
	repo := audit.NewMemoryRepo()
	svc := NewResetService(store, nil, audit.NewService(repo), nil)
	svc.clock = func() time.Time { return time.Date(2024, 5, 17, 21, 0, 0, 0, time.UTC) }

	res, err := svc.Run(context.Background(), "admin-1", "admin", "1.2.3.4")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.ResetDate != "2024-05-17" || store.gotDate != "2024-05-17" {
		t.Fatalf("unexpected reset date: %q / %q", res.ResetDate, store.gotDate)
	}
	if res.ArchivedCalls != 7 || res.CustomersDeactivated != 3 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if evs := repo.Events(); len(evs) != 1 || evs[0].Type != audit.EventTypeDailyReset {
		t.Fatalf("expected a daily_reset audit event, got %+v", repo.Events())
	}
}

func TestResetServiceSurfacesStoreError(t *testing.T) {
	store := &fakeResetStore{err: errors.New("down")}
	svc := NewResetService(store, nil, nil, nil)

	if _, err := svc.Run(context.Background(), "", "", ""); err == nil {
		t.Fatalf("expected error")
	}
}

func newTokens(t *testing.T) *auth.Manager {
	t.Helper()
	m, err := auth.NewManager(config.AuthConfig{JWTSecret: "secret", AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	return m
}

func resetRouter(h *ResetHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/admin/reset", h.HandleReset)
	return r
}

func TestHandleResetAcceptsCronSecret(t *testing.T) {
	store := &fakeResetStore{archived: 2}
	h := NewResetHandler(NewResetService(store, nil, nil, nil), newTokens(t), "cron-secret")
	r := resetRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/admin/reset", nil)
	req.Header.Set(CronSecretHeader, "cron-secret")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestHandleResetRejectsMissingAuth(t *testing.T) {
	h := NewResetHandler(NewResetService(&fakeResetStore{}, nil, nil, nil), newTokens(t), "cron-secret")
	r := resetRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/admin/reset", nil)
	req.Header.Set(CronSecretHeader, "wrong")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestHandleResetRequiresAdminRole(t *testing.T) {
	tokens := newTokens(t)
	h := NewResetHandler(NewResetService(&fakeResetStore{}, nil, nil, nil), tokens, "")
	r := resetRouter(h)

	pair, err := tokens.IssuePair(time.Now(), "courier-1", "courier")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/admin/reset", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestHandleResetAdminToken(t *testing.T) {
	tokens := newTokens(t)
	store := &fakeResetStore{archived: 5}
	h := NewResetHandler(NewResetService(store, nil, nil, nil), tokens, "")
	r := resetRouter(h)

	pair, err := tokens.IssuePair(time.Now(), "admin-1", "admin")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/admin/reset", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

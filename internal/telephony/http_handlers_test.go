package telephony

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

type fakeStatuses struct {
	sid      string
	status   string
	duration *int
	errText  string
	err      error
}

func (f *fakeStatuses) ApplyStatus(_ context.Context, sid, status string, duration *int, errText string) error {
	f.sid, f.status, f.duration, f.errText = sid, status, duration, errText
	return f.err
}

type fakeIncoming struct {
	sid, maskedFrom string
	err             error
}

func (f *fakeIncoming) RecordBlockedCall(_ context.Context, sid, maskedFrom string) error {
	f.sid, f.maskedFrom = sid, maskedFrom
	return f.err
}

type fakeSettings map[string]string

func (f fakeSettings) Get(_ context.Context, key string) (string, error) {
	return f[key], nil
}

func newTestRouter(h WebhookHandlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/webhooks/voice/connect", h.HandleConnect)
	r.POST("/webhooks/voice/status", h.HandleStatus)
	r.POST("/webhooks/voice/incoming", h.HandleIncoming)
	return r
}

func postForm(r *gin.Engine, path string, form url.Values, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandleConnectDialsCustomer(t *testing.T) {
	h := WebhookHandlers{Settings: fakeSettings{}, BusinessPhone: "+15550009999"}
	r := newTestRouter(h)

	w := postForm(r, "/webhooks/voice/connect?customerPhone=%2B972501234567&customerId=cu1&courierId=co1", url.Values{}, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/xml") {
		t.Fatalf("expected text/xml, got %q", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, "<Number>+972501234567</Number>") {
		t.Fatalf("expected customer dial in twiml:\n%s", body)
	}
	if !strings.Contains(body, `callerId="+15550009999"`) {
		t.Fatalf("expected masked caller id in twiml:\n%s", body)
	}
}

func TestHandleConnectPrefersStoredBusinessNumber(t *testing.T) {
	h := WebhookHandlers{
		Settings:      fakeSettings{settingBusinessPhone: "+15550008888"},
		BusinessPhone: "+15550009999",
	}
	r := newTestRouter(h)

	w := postForm(r, "/webhooks/voice/connect?customerPhone=%2B972501234567", url.Values{}, nil)
	if !strings.Contains(w.Body.String(), `callerId="+15550008888"`) {
		t.Fatalf("expected setting to override env number:\n%s", w.Body.String())
	}
}

func TestHandleConnectApologizesOnBadPhone(t *testing.T) {
	h := WebhookHandlers{Settings: fakeSettings{}, BusinessPhone: "+15550009999"}
	r := newTestRouter(h)

	for _, path := range []string{
		"/webhooks/voice/connect",                          // missing
		"/webhooks/voice/connect?customerPhone=0501234567", // not wire format
	} {
		w := postForm(r, path, url.Values{}, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("%s: live-call callback must stay 200, got %d", path, w.Code)
		}
		body := w.Body.String()
		if !strings.Contains(body, "<Say") || !strings.Contains(body, "<Hangup>") {
			t.Fatalf("%s: expected apology twiml:\n%s", path, body)
		}
		if strings.Contains(body, "<Dial") {
			t.Fatalf("%s: must not dial on invalid input:\n%s", path, body)
		}
	}
}

func TestHandleConnectApologizesWithoutBusinessNumber(t *testing.T) {
	h := WebhookHandlers{Settings: fakeSettings{}}
	r := newTestRouter(h)

	w := postForm(r, "/webhooks/voice/connect?customerPhone=%2B972501234567", url.Values{}, nil)
	if w.Code != http.StatusOK || strings.Contains(w.Body.String(), "<Dial") {
		t.Fatalf("expected apology without business number: %d\n%s", w.Code, w.Body.String())
	}
}

func TestHandleStatusAppliesEvent(t *testing.T) {
	fs := &fakeStatuses{}
	h := WebhookHandlers{Statuses: fs}
	r := newTestRouter(h)

	form := url.Values{}
	form.Set("CallSid", "CA77")
	form.Set("CallStatus", "completed")
	form.Set("CallDuration", "42")

	w := postForm(r, "/webhooks/voice/status", form, nil)
	if w.Code != http.StatusOK || w.Body.String() != "OK" {
		t.Fatalf("expected 200 OK, got %d %q", w.Code, w.Body.String())
	}
	if fs.sid != "CA77" || fs.status != "completed" {
		t.Fatalf("unexpected apply args: %q %q", fs.sid, fs.status)
	}
	if fs.duration == nil || *fs.duration != 42 {
		t.Fatalf("expected duration 42, got %v", fs.duration)
	}
}

func TestHandleStatusMissingCallSid(t *testing.T) {
	h := WebhookHandlers{Statuses: &fakeStatuses{}}
	r := newTestRouter(h)

	w := postForm(r, "/webhooks/voice/status", url.Values{"CallStatus": {"ringing"}}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestHandleStatusRejectsInvalidSignature(t *testing.T) {
	fs := &fakeStatuses{}
	h := WebhookHandlers{
		Statuses:         fs,
		Validator:        NewSignatureValidator("token123"),
		EnforceSignature: true,
	}
	r := newTestRouter(h)

	form := url.Values{}
	form.Set("CallSid", "CA77")
	form.Set("CallStatus", "completed")
	header := http.Header{}
	header.Set(SignatureHeader, "bogus")

	w := postForm(r, "/webhooks/voice/status", form, header)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if fs.sid != "" {
		t.Fatalf("must not act on an unauthenticated payload")
	}
}

func TestHandleStatusAcceptsSignatureOverPublicBase(t *testing.T) {
	fs := &fakeStatuses{}
	h := WebhookHandlers{
		Statuses:         fs,
		Validator:        NewSignatureValidator("token123"),
		EnforceSignature: true,
		PublicBaseURL:    "https://bridge.example.com",
	}
	r := newTestRouter(h)

	form := url.Values{}
	form.Set("CallSid", "CA77")
	form.Set("CallStatus", "completed")
	header := http.Header{}
	header.Set(SignatureHeader, sign("token123", "https://bridge.example.com/webhooks/voice/status",
		"CallSid", "CA77", "CallStatus", "completed"))

	// The request itself arrives on the internal host; the signature was
	// computed over the public URL.
	w := postForm(r, "/webhooks/voice/status", form, header)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if fs.sid != "CA77" {
		t.Fatalf("expected status applied, got sid %q", fs.sid)
	}
}

func TestHandleStatusStoreFailure(t *testing.T) {
	h := WebhookHandlers{Statuses: &fakeStatuses{err: errors.New("db down")}}
	r := newTestRouter(h)

	form := url.Values{"CallSid": {"CA77"}, "CallStatus": {"ringing"}}
	w := postForm(r, "/webhooks/voice/status", form, nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestHandleIncomingSpeaksAndLogs(t *testing.T) {
	fi := &fakeIncoming{}
	h := WebhookHandlers{
		Incoming: fi,
		Settings: fakeSettings{settingIncomingMessage: "Outbound only, sorry."},
	}
	r := newTestRouter(h)

	form := url.Values{}
	form.Set("CallSid", "CA55")
	form.Set("From", "+15551234567")
	form.Set("To", "+15550009999")

	w := postForm(r, "/webhooks/voice/incoming", form, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Outbound only, sorry.") || !strings.Contains(body, "<Hangup>") {
		t.Fatalf("expected configured message + hangup:\n%s", body)
	}
	if fi.sid != "CA55" {
		t.Fatalf("expected blocked call logged, got sid %q", fi.sid)
	}
	if fi.maskedFrom != "****4567" {
		t.Fatalf("expected masked caller, got %q", fi.maskedFrom)
	}
}

func TestHandleIncomingLogFailureStillAnswers(t *testing.T) {
	h := WebhookHandlers{
		Incoming: &fakeIncoming{err: errors.New("db down")},
		Settings: fakeSettings{},
	}
	r := newTestRouter(h)

	form := url.Values{"CallSid": {"CA55"}, "From": {"+15551234567"}}
	w := postForm(r, "/webhooks/voice/incoming", form, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "<Say") {
		t.Fatalf("expected spoken message despite log failure: %d\n%s", w.Code, w.Body.String())
	}
}

func TestHandleIncomingUnparseableBodyStillLogged(t *testing.T) {
	fi := &fakeIncoming{sid: "sentinel", maskedFrom: "sentinel"}
	h := WebhookHandlers{
		Incoming: fi,
		Settings: fakeSettings{settingIncomingMessage: "Custom greeting."},
	}
	r := newTestRouter(h)

	// Malformed percent-encoding makes ParseForm fail.
	req := httptest.NewRequest(http.MethodPost, "/webhooks/voice/incoming", strings.NewReader("From=%zz"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), defaultIncomingMessage) {
		t.Fatalf("expected default message for unreadable body, got %d\n%s", w.Code, w.Body.String())
	}
	if fi.sid != "" || fi.maskedFrom != "****" {
		t.Fatalf("expected blocked-call entry with empty sid and masked caller, got sid=%q from=%q", fi.sid, fi.maskedFrom)
	}
}

package calls

import (
	"context"
	"testing"
)

func intPtr(n int) *int { return &n }

func TestApplyStatusUpdatesExistingEntry(t *testing.T) {
	store := newMemStore()
	_ = store.Insert(context.Background(), &CallLog{ProviderCallSID: "CA1", Status: StatusAttempted})

	r := NewReconciler(store)
	if err := r.ApplyStatus(context.Background(), "CA1", "in-progress", nil, ""); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	e := store.bySID["CA1"]
	if e.Status != StatusConnected {
		t.Fatalf("expected connected, got %q", e.Status)
	}
	if e.UpdatedAt == nil {
		t.Fatalf("expected updated_at to be refreshed")
	}
}

func TestApplyStatusCompletedRecordsDuration(t *testing.T) {
	store := newMemStore()
	_ = store.Insert(context.Background(), &CallLog{ProviderCallSID: "CA1", Status: StatusConnected})

	r := NewReconciler(store)
	if err := r.ApplyStatus(context.Background(), "CA1", "completed", intPtr(42), ""); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	e := store.bySID["CA1"]
	if e.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q", e.Status)
	}
	if e.DurationSeconds == nil || *e.DurationSeconds != 42 {
		t.Fatalf("expected duration 42, got %v", e.DurationSeconds)
	}
}

func TestApplyStatusDurationIgnoredUnlessCompleted(t *testing.T) {
	store := newMemStore()
	r := NewReconciler(store)

	if err := r.ApplyStatus(context.Background(), "CA1", "ringing", intPtr(7), ""); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if store.bySID["CA1"].DurationSeconds != nil {
		t.Fatalf("duration must only persist with a completed status")
	}
}

func TestApplyStatusFailedRecordsError(t *testing.T) {
	store := newMemStore()
	r := NewReconciler(store)

	if err := r.ApplyStatus(context.Background(), "CA1", "failed", nil, "carrier rejected"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if store.bySID["CA1"].ErrorMessage != "carrier rejected" {
		t.Fatalf("got %q", store.bySID["CA1"].ErrorMessage)
	}

	if err := r.ApplyStatus(context.Background(), "CA2", "canceled", nil, ""); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	e := store.bySID["CA2"]
	if e.Status != StatusFailed || e.ErrorMessage != "Call failed" {
		t.Fatalf("expected failed with default message, got %q %q", e.Status, e.ErrorMessage)
	}
}

func TestApplyStatusCreatesEntryDefensively(t *testing.T) {
	store := newMemStore()
	r := NewReconciler(store)

	// An event may beat the initiator's insert, or belong to a call this
	// system never originated.
	if err := r.ApplyStatus(context.Background(), "CA9", "ringing", nil, ""); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	e, ok := store.bySID["CA9"]
	if !ok {
		t.Fatalf("expected defensive entry")
	}
	if e.Status != StatusRinging || e.Timestamp.IsZero() {
		t.Fatalf("unexpected defensive entry: %+v", e)
	}
}

func TestApplyStatusIsIdempotent(t *testing.T) {
	store := newMemStore()
	r := NewReconciler(store)

	for i := 0; i < 3; i++ {
		if err := r.ApplyStatus(context.Background(), "CA1", "completed", intPtr(42), ""); err != nil {
			t.Fatalf("apply %d: %v", i, err)
		}
	}

	if len(store.bySID) != 1 {
		t.Fatalf("expected one entry, got %d", len(store.bySID))
	}
	e := store.bySID["CA1"]
	if e.Status != StatusCompleted || *e.DurationSeconds != 42 {
		t.Fatalf("redelivery must converge to identical state: %+v", e)
	}
}

func TestApplyStatusLastWriteWins(t *testing.T) {
	store := newMemStore()
	r := NewReconciler(store)

	// Out-of-order delivery: the stored status follows the last applied
	// event even when it is logically earlier.
	_ = r.ApplyStatus(context.Background(), "CA1", "completed", intPtr(42), "")
	_ = r.ApplyStatus(context.Background(), "CA1", "ringing", nil, "")

	e := store.bySID["CA1"]
	if e.Status != StatusRinging {
		t.Fatalf("expected last-applied status ringing, got %q", e.Status)
	}
	// Duration is never cleared by a later non-completed event.
	if e.DurationSeconds == nil || *e.DurationSeconds != 42 {
		t.Fatalf("expected duration retained, got %v", e.DurationSeconds)
	}
}

func TestRecordBlockedCall(t *testing.T) {
	store := newMemStore()
	r := NewReconciler(store)

	if err := r.RecordBlockedCall(context.Background(), "CA5", "****4567"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	e := store.bySID["CA5"]
	if e.Status != StatusIncomingBlocked {
		t.Fatalf("expected incoming_blocked, got %q", e.Status)
	}
	if e.CustomerPhoneMasked != "****4567" {
		t.Fatalf("got %q", e.CustomerPhoneMasked)
	}

	// Redelivery of the same SID stays a single row.
	if err := r.RecordBlockedCall(context.Background(), "CA5", "****4567"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(store.bySID) != 1 {
		t.Fatalf("expected one entry, got %d", len(store.bySID))
	}
}

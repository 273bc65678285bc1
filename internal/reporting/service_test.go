package reporting

import (
	"context"
	"strings"
	"testing"
	"time"

	"courier-bridge/internal/calls"
)

func intp(n int) *int { return &n }

func seededRepo(now time.Time) *MemoryRepo {
	repo := NewMemoryRepo()
	repo.Rows = []calls.CallLog{
		{ID: "1", CustomerName: "Dana", Status: calls.StatusCompleted, DurationSeconds: intp(30), Timestamp: now},
		{ID: "2", CustomerName: "Noam", Status: calls.StatusCompleted, DurationSeconds: intp(50), Timestamp: now},
		{ID: "3", CustomerName: "Yael", Status: calls.StatusFailed, Timestamp: now},
		{ID: "4", CustomerName: "", Status: calls.StatusIncomingBlocked, Timestamp: now},
	}
	return repo
}

func TestCallsSummaryAggregates(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	svc := NewService(seededRepo(now))

	out, err := svc.CallsSummary(context.Background(), SummaryRequest{})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.TotalCalls != 4 {
		t.Fatalf("expected 4 calls, got %d", out.TotalCalls)
	}
	if out.CompletedCalls != 2 || out.FailedCalls != 1 || out.BlockedCalls != 1 {
		t.Fatalf("unexpected per-status counts: %+v", out)
	}
	if out.TotalDurationSeconds != 80 {
		t.Fatalf("expected total duration 80, got %d", out.TotalDurationSeconds)
	}
	if out.AverageDurationSeconds != 40 {
		t.Fatalf("expected average over completed calls only, got %d", out.AverageDurationSeconds)
	}
}

func TestCallsSummaryRejectsInvertedRange(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	svc := NewService(seededRepo(now))

	_, err := svc.CallsSummary(context.Background(), SummaryRequest{Range: TimeRange{From: now, To: now.Add(-time.Hour)}})
	if err != ErrInvalidRequest {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestListCallsFiltersByStatus(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	svc := NewService(seededRepo(now))

	rows, err := svc.ListCalls(context.Background(), SummaryRequest{Status: string(calls.StatusFailed)}, 0)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != "3" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestExportCSV(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	svc := NewService(seededRepo(now))

	var b strings.Builder
	if err := svc.ExportCSV(context.Background(), &b, SummaryRequest{}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected header plus 4 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "id,customer_name") {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if !strings.Contains(lines[1], "Dana") || !strings.Contains(lines[1], "30") {
		t.Fatalf("unexpected first row: %q", lines[1])
	}
}

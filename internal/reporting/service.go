package reporting

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"courier-bridge/internal/calls"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// Repository abstracts call-log access for reporting. The live calls store
// satisfies it directly; aggregation happens here so both the Postgres store
// and test fakes stay dumb.

type Repository interface {
	List(ctx context.Context, filter calls.ListFilter) ([]calls.CallLog, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

func (s *Service) listFilter(req SummaryRequest, limit int) (calls.ListFilter, error) {
	if !req.Range.From.IsZero() && !req.Range.To.IsZero() && !req.Range.To.After(req.Range.From) {
		return calls.ListFilter{}, ErrInvalidRequest
	}
	return calls.ListFilter{
		Status: calls.Status(req.Status),
		From:   req.Range.From,
		To:     req.Range.To,
		Limit:  limit,
	}, nil
}

// ListCalls returns raw call-log rows for the admin dashboard.
func (s *Service) ListCalls(ctx context.Context, req SummaryRequest, limit int) ([]calls.CallLog, error) {
	if s.repo == nil {
		return nil, errors.New("reporting: repository not configured")
	}
	f, err := s.listFilter(req, limit)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, f)
}

// CallsSummary aggregates per-status counts and duration totals.
func (s *Service) CallsSummary(ctx context.Context, req SummaryRequest) (Summary, error) {
	if s.repo == nil {
		return Summary{}, errors.New("reporting: repository not configured")
	}
	f, err := s.listFilter(req, 0)
	if err != nil {
		return Summary{}, err
	}
	rows, err := s.repo.List(ctx, f)
	if err != nil {
		return Summary{}, err
	}

	var out Summary
	var withDuration int
	for _, c := range rows {
		out.TotalCalls++
		if c.DurationSeconds != nil {
			out.TotalDurationSeconds += *c.DurationSeconds
			withDuration++
		}
		switch c.Status {
		case calls.StatusCompleted:
			out.CompletedCalls++
		case calls.StatusFailed:
			out.FailedCalls++
		case calls.StatusNoAnswer:
			out.NoAnswerCalls++
		case calls.StatusBusy:
			out.BusyCalls++
		case calls.StatusRinging:
			out.RingingCalls++
		case calls.StatusConnected:
			out.ConnectedCalls++
		case calls.StatusAttempted:
			out.AttemptedCalls++
		case calls.StatusIncomingBlocked:
			out.BlockedCalls++
		}
	}
	if withDuration > 0 {
		out.AverageDurationSeconds = out.TotalDurationSeconds / withDuration
	}
	return out, nil
}

var csvHeader = []string{
	"id", "customer_name", "customer_phone_masked", "agent_name",
	"call_status", "call_timestamp", "call_duration", "provider_call_sid", "error_message",
}

// ExportCSV streams the filtered call log as CSV, one row per call.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer, req SummaryRequest) error {
	rows, err := s.ListCalls(ctx, req, 0)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("reporting: write csv header: %w", err)
	}
	for _, c := range rows {
		duration := ""
		if c.DurationSeconds != nil {
			duration = fmt.Sprintf("%d", *c.DurationSeconds)
		}
		rec := []string{
			c.ID,
			c.CustomerName,
			c.CustomerPhoneMasked,
			c.AgentName,
			string(c.Status),
			c.Timestamp.UTC().Format(time.RFC3339),
			duration,
			c.ProviderCallSID,
			c.ErrorMessage,
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("reporting: write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

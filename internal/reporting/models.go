package reporting

import "time"

// Common filtering inputs.

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// SummaryRequest requests aggregated call metrics. A zero Range covers the
// whole live table (useful for intra-day dashboards, since the table is
// archived nightly).

type SummaryRequest struct {
	Range  TimeRange `json:"range"`
	Status string    `json:"status,omitempty"`
}

type Summary struct {
	TotalCalls     int `json:"total_calls"`
	CompletedCalls int `json:"completed_calls"`
	FailedCalls    int `json:"failed_calls"`
	NoAnswerCalls  int `json:"no_answer_calls"`
	BusyCalls      int `json:"busy_calls"`
	RingingCalls   int `json:"ringing_calls"`
	ConnectedCalls int `json:"connected_calls"`
	AttemptedCalls int `json:"attempted_calls"`
	BlockedCalls   int `json:"blocked_calls"`

	TotalDurationSeconds   int `json:"total_duration_seconds"`
	AverageDurationSeconds int `json:"average_duration_seconds"`
}

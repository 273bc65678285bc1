package calls

import "time"

// CallLog is one record per call attempt, keyed for reconciliation by the
// provider's call SID.
//
// Invariants:
// - exactly one row per provider SID (upsert, never duplicate)
// - CustomerPhoneMasked never stores more than the last 4 digits
// - Duration is set only once the call reaches "completed"
type CallLog struct {
	ID         string `json:"id" db:"id"`
	CustomerID string `json:"customer_id,omitempty" db:"customer_id"`

	// CustomerName is denormalized so history survives customer resets.
	CustomerName        string `json:"customer_name,omitempty" db:"customer_name"`
	CustomerPhoneMasked string `json:"customer_phone_masked,omitempty" db:"customer_phone_masked"`

	CourierID string `json:"courier_id,omitempty" db:"courier_id"`
	AgentName string `json:"agent_name,omitempty" db:"agent_name"`

	Status Status `json:"call_status" db:"call_status"`

	// Timestamp is the attempt start, distinct from row bookkeeping times.
	Timestamp time.Time `json:"call_timestamp" db:"call_timestamp"`

	// DurationSeconds is present only for completed calls.
	DurationSeconds *int `json:"call_duration,omitempty" db:"call_duration"`

	ProviderCallSID string `json:"provider_call_sid,omitempty" db:"provider_call_sid"`
	ErrorMessage    string `json:"error_message,omitempty" db:"error_message"`

	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// Status is the internal call-status vocabulary.
type Status string

const (
	StatusAttempted Status = "attempted"
	StatusRinging   Status = "ringing"
	StatusConnected Status = "connected"
	StatusCompleted Status = "completed"
	StatusBusy      Status = "busy"
	StatusNoAnswer  Status = "no-answer"
	StatusFailed    Status = "failed"

	// StatusIncomingBlocked marks unsolicited inbound calls to the business
	// number; it is terminal and never reachable from the outbound path.
	StatusIncomingBlocked Status = "incoming_blocked"
)

// providerStatusMap translates the voice provider's vocabulary. Unrecognized
// provider statuses pass through verbatim so a provider-side addition never
// drops events.
var providerStatusMap = map[string]Status{
	"queued":      StatusAttempted,
	"ringing":     StatusRinging,
	"in-progress": StatusConnected,
	"completed":   StatusCompleted,
	"busy":        StatusBusy,
	"no-answer":   StatusNoAnswer,
	"failed":      StatusFailed,
	"canceled":    StatusFailed,
}

// MapProviderStatus maps a provider-reported status to the internal
// vocabulary.
func MapProviderStatus(providerStatus string) Status {
	if s, ok := providerStatusMap[providerStatus]; ok {
		return s
	}
	return Status(providerStatus)
}

// IsTerminal reports whether no further provider events are expected for the
// status. Used by reporting only; the reconciler deliberately applies every
// event it receives, terminal or not.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusBusy, StatusNoAnswer, StatusFailed, StatusIncomingBlocked:
		return true
	default:
		return false
	}
}

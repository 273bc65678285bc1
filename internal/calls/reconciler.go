package calls

import (
	"context"

	"courier-bridge/pkg/logger"
)

// Reconciler applies provider-reported call states to the call log.
//
// Delivery from the provider is asynchronous, at-least-once, and unordered.
// The reconciler therefore:
//   - upserts by SID so redelivery converges to identical row state
//   - creates a defensive entry when an event beats the initiator's insert
//     (or belongs to a call this system did not originate)
//   - applies the latest-received status even when it is logically earlier
//     than the stored one; the log reflects the most recently observed
//     status, not a monotonic state machine
type Reconciler struct {
	store Store
}

func NewReconciler(store Store) *Reconciler {
	return &Reconciler{store: store}
}

// ApplyStatus maps a provider status and writes it through. durationSeconds
// is persisted only with a completed status; errorMessage only with failed.
func (r *Reconciler) ApplyStatus(ctx context.Context, callSID, providerStatus string, durationSeconds *int, errorMessage string) error {
	status := MapProviderStatus(providerStatus)

	var duration *int
	if status == StatusCompleted && durationSeconds != nil {
		duration = durationSeconds
	}

	errText := ""
	if status == StatusFailed {
		errText = errorMessage
		if errText == "" {
			errText = "Call failed"
		}
	}

	if err := r.store.UpsertStatusBySID(ctx, callSID, status, duration, errText); err != nil {
		return err
	}

	logger.From(ctx).Debug("call status reconciled",
		"call_sid", callSID, "provider_status", providerStatus, "status", string(status))
	return nil
}

// RecordBlockedCall logs an unsolicited inbound call. maskedFrom must already
// be masked; the reconciler never sees a full caller number.
func (r *Reconciler) RecordBlockedCall(ctx context.Context, callSID, maskedFrom string) error {
	return r.store.Insert(ctx, &CallLog{
		ProviderCallSID:     callSID,
		Status:              StatusIncomingBlocked,
		CustomerPhoneMasked: maskedFrom,
		ErrorMessage:        "Incoming call - message played",
	})
}

package calls

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"courier-bridge/internal/customers"
	"courier-bridge/internal/phone"
	"courier-bridge/internal/profiles"
	"courier-bridge/internal/telephony"
	"courier-bridge/pkg/logger"
)

// Precondition failures, each a distinct mode so handlers can pick the right
// HTTP status and the courier sees an actionable reason.
var (
	ErrNotConfigured       = errors.New("calls: voice provider is not configured")
	ErrProfileNotFound     = errors.New("calls: user profile not found")
	ErrNotCourier          = errors.New("calls: only couriers can initiate calls")
	ErrCourierPhoneMissing = errors.New("calls: courier phone number not configured")
	ErrInvalidPhoneFormat  = errors.New("calls: phone number is not in valid wire format")
	ErrCustomerNotFound    = errors.New("calls: customer not found")
	ErrCustomerInactive    = errors.New("calls: customer is inactive")
	ErrWebhookUnreachable  = errors.New("calls: webhook URL must be publicly reachable")
	ErrWebhookInsecure     = errors.New("calls: webhook URL must use https in production")
)

// CallPlacer is the provider operation the initiator needs.
type CallPlacer interface {
	CreateCall(ctx context.Context, p telephony.CreateCallParams) (telephony.Call, error)
}

// InitiatorConfig carries the deployment facts the precondition chain checks.
type InitiatorConfig struct {
	Configured          bool
	BusinessPhone       string
	DefaultCourierPhone string

	// BaseURL is the public root the provider calls back into.
	BaseURL    string
	Production bool
}

// Initiator orchestrates one outbound call attempt: validate actors and
// numbers, build callback URLs, invoke the provider, record the log entry.
//
// The courier leg is placed first; the provider only reaches the customer
// after the courier has answered, so customers never wait on dead air.
type Initiator struct {
	cfg       InitiatorConfig
	provider  CallPlacer
	profiles  profiles.Repository
	customers customers.Repository
	store     Store
}

func NewInitiator(cfg InitiatorConfig, provider CallPlacer, profileRepo profiles.Repository, customerRepo customers.Repository, store Store) *Initiator {
	return &Initiator{
		cfg:       cfg,
		provider:  provider,
		profiles:  profileRepo,
		customers: customerRepo,
		store:     store,
	}
}

// Initiate places a call from the acting courier to the customer and returns
// the provider call SID.
func (i *Initiator) Initiate(ctx context.Context, courierID, customerID string) (string, error) {
	log := logger.From(ctx)

	if !i.cfg.Configured || i.provider == nil {
		return "", ErrNotConfigured
	}

	profile, err := i.profiles.Get(ctx, courierID)
	if errors.Is(err, profiles.ErrNotFound) {
		return "", ErrProfileNotFound
	}
	if err != nil {
		return "", err
	}
	if profile.Role != "courier" {
		return "", ErrNotCourier
	}

	courierPhone := profile.PhoneNumber
	if courierPhone == "" {
		courierPhone = i.cfg.DefaultCourierPhone
	}
	if courierPhone == "" {
		return "", ErrCourierPhoneMissing
	}
	if !phone.IsE164(courierPhone) {
		return "", fmt.Errorf("%w: courier number", ErrInvalidPhoneFormat)
	}

	customer, err := i.customers.Get(ctx, customerID)
	if errors.Is(err, customers.ErrNotFound) {
		return "", ErrCustomerNotFound
	}
	if err != nil {
		return "", err
	}
	if customer.PhoneNumber != "" && !phone.IsE164(customer.PhoneNumber) {
		return "", fmt.Errorf("%w: customer number", ErrInvalidPhoneFormat)
	}
	if !customer.Active {
		return "", ErrCustomerInactive
	}

	connectURL := i.connectURL(customer.PhoneNumber, customerID, courierID)
	statusURL := i.cfg.BaseURL + "/webhooks/voice/status"

	if isLoopback(connectURL) {
		return "", ErrWebhookUnreachable
	}
	if i.cfg.Production && !strings.HasPrefix(connectURL, "https://") {
		return "", ErrWebhookInsecure
	}

	agentName := profile.Email
	if agentName == "" && len(profile.ID) >= 8 {
		agentName = "Courier " + profile.ID[:8]
	}

	call, err := i.provider.CreateCall(ctx, telephony.CreateCallParams{
		To:                courierPhone,
		From:              i.cfg.BusinessPhone,
		ConnectURL:        connectURL,
		StatusCallbackURL: statusURL,
	})
	if err != nil {
		// The attempt's outcome is already determined; the log write is
		// best-effort observability and never overrides the provider error.
		logErr := i.store.Insert(ctx, &CallLog{
			CustomerID:          customerID,
			CustomerName:        customer.Name,
			CustomerPhoneMasked: phone.Mask(customer.PhoneNumber),
			CourierID:           courierID,
			AgentName:           agentName,
			Status:              StatusFailed,
			ErrorMessage:        err.Error(),
		})
		if logErr != nil {
			log.Error("failed-call log write failed", "customer_id", customerID, "err", logErr)
		}
		return "", err
	}

	if err := i.store.Insert(ctx, &CallLog{
		CustomerID:          customerID,
		CustomerName:        customer.Name,
		CustomerPhoneMasked: phone.Mask(customer.PhoneNumber),
		CourierID:           courierID,
		AgentName:           agentName,
		Status:              StatusAttempted,
		ProviderCallSID:     call.SID,
	}); err != nil {
		log.Error("call log write failed", "call_sid", call.SID, "err", err)
	}

	log.Info("call initiated",
		"call_sid", call.SID,
		"customer_id", customerID,
		"courier_id", courierID,
		"customer_phone", phone.Mask(customer.PhoneNumber))
	return call.SID, nil
}

func (i *Initiator) connectURL(customerPhone, customerID, courierID string) string {
	q := url.Values{}
	q.Set("customerPhone", customerPhone)
	q.Set("customerId", customerID)
	q.Set("courierId", courierID)
	return i.cfg.BaseURL + "/webhooks/voice/connect?" + q.Encode()
}

func isLoopback(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	switch strings.ToLower(u.Hostname()) {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

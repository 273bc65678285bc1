package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only.
// No Update/Delete methods are provided by design.

type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service logs internal audit information.
//
// IMPORTANT:
// - Audit is internal-only. Do not expose these records to couriers.
// - Callers should treat audit logging as best-effort.

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}

	now := s.clock().UTC()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	return s.repo.Append(ctx, e)
}

// LogCustomerChange records create/update/deactivate actions on a customer.
func (s *Service) LogCustomerChange(ctx context.Context, actorUserID, actorRole, ip, customerID, message, metadata string) error {
	return s.Append(ctx, Event{
		Type:        EventTypeCustomerChange,
		ActorUserID: actorUserID,
		ActorRole:   actorRole,
		IPAddress:   ip,
		CustomerID:  customerID,
		Message:     message,
		Metadata:    metadata,
	})
}

// LogCourierRemoval records an admin removing a courier account.
func (s *Service) LogCourierRemoval(ctx context.Context, actorUserID, actorRole, ip, courierID string) error {
	return s.Append(ctx, Event{
		Type:        EventTypeCourierRemoval,
		ActorUserID: actorUserID,
		ActorRole:   actorRole,
		IPAddress:   ip,
		CourierID:   courierID,
		Message:     "courier removed",
	})
}

// LogSettingChange records a system setting write.
func (s *Service) LogSettingChange(ctx context.Context, actorUserID, actorRole, ip, key, message string) error {
	return s.Append(ctx, Event{
		Type:        EventTypeSettingChange,
		ActorUserID: actorUserID,
		ActorRole:   actorRole,
		IPAddress:   ip,
		SettingKey:  key,
		Message:     message,
	})
}

// LogDailyReset records a daily reset run, whether triggered by cron or an admin.
func (s *Service) LogDailyReset(ctx context.Context, actorUserID, actorRole, ip, message, metadata string) error {
	return s.Append(ctx, Event{
		Type:        EventTypeDailyReset,
		ActorUserID: actorUserID,
		ActorRole:   actorRole,
		IPAddress:   ip,
		Message:     message,
		Metadata:    metadata,
	})
}

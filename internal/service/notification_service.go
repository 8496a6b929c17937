package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/townhall-portal/internal/config"
	"github.com/spec-kit/townhall-portal/internal/events"
)

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventAccountRegistered, n.handleAccount)
	n.dispatcher.Subscribe(events.EventAccountUpgraded, n.handleAccount)
	n.dispatcher.Subscribe(events.EventRequestSubmitted, n.handleRequestSubmitted)
	n.dispatcher.Subscribe(events.EventAccountLocked, n.handleAccountLocked)
	n.dispatcher.Subscribe(events.EventPasswordResetRequested, n.handlePasswordResetRequested)
}

func (n *NotificationService) handleAccount(ctx context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.AccountPayload)
	n.logger.Info(string(event.Type), zap.Int64("user_id", payload.UserID))
	n.sendEmailStub(ctx, event, payload.Email)
	return nil
}

func (n *NotificationService) handleRequestSubmitted(ctx context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.RequestSubmittedPayload)
	n.logger.Info("RequestSubmitted",
		zap.String("tracking_code", payload.TrackingCode),
		zap.Int64("user_id", payload.UserID),
		zap.String("category", string(payload.Category)),
		zap.Bool("guest_created", payload.GuestCreated))
	n.sendEmailStub(ctx, event, payload.Email)
	return nil
}

func (n *NotificationService) handleAccountLocked(_ context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.AccountLockedPayload)
	n.logger.Info("AccountLocked",
		zap.String("identifier", payload.Identifier),
		zap.Int("failures", payload.Failures),
		zap.Time("locked_until", payload.LockedUntil))
	return nil
}

// The reset token is delivered by mail only and never written to logs.
func (n *NotificationService) handlePasswordResetRequested(ctx context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.PasswordResetRequestedPayload)
	n.logger.Info("PasswordResetRequested",
		zap.Int64("user_id", payload.UserID),
		zap.Time("expires_at", payload.ExpiresAt))
	n.sendEmailStub(ctx, event, payload.Email)
	return nil
}

func (n *NotificationService) sendEmailStub(_ context.Context, event events.Event, to string) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" || to == "" {
		return
	}
	n.logger.Debug("sendEmailStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("to", to),
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)))
}

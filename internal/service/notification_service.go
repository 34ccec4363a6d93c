package service

import (
	"context"
	"time"

	"fulfillment/internal/apperr"
	"fulfillment/internal/models"
	"fulfillment/internal/notify"
	"fulfillment/internal/util"

	"go.uber.org/zap"
)

// NotificationService emails customers as the saga progresses
type NotificationService struct {
	sender    EmailSender
	directory EmailDirectory
	dedup     Deduplicator
	emailTTL  time.Duration
	dedupTTL  time.Duration
	logger    *zap.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(
	sender EmailSender,
	directory EmailDirectory,
	dedup Deduplicator,
	emailTTL, dedupTTL time.Duration,
) *NotificationService {
	return &NotificationService{
		sender:    sender,
		directory: directory,
		dedup:     dedup,
		emailTTL:  emailTTL,
		dedupTTL:  dedupTTL,
		logger:    util.GetLogger(),
	}
}

// HandleOrderCreated remembers the customer of the order and confirms receipt
func (ns *NotificationService) HandleOrderCreated(ctx context.Context, event *models.OrderCreated) error {
	if event.UserEmail != "" {
		if err := ns.directory.RememberEmail(ctx, event.OrderID, event.UserEmail, ns.emailTTL); err != nil {
			ns.logger.Warn("Failed to cache order email", zap.Int64("order_id", event.OrderID), zap.Error(err))
		}
	}
	return ns.notify(ctx, event.BaseEvent, event.UserEmail, notify.OrderReceived(event.OrderID, event.AmountCents))
}

func (ns *NotificationService) HandlePaymentSucceeded(ctx context.Context, event *models.PaymentSucceeded) error {
	return ns.notify(ctx, event.BaseEvent, ns.resolveEmail(ctx, event.BaseEvent), notify.PaymentReceived(event.OrderID))
}

func (ns *NotificationService) HandleShippingReady(ctx context.Context, event *models.ShippingReady) error {
	return ns.notify(ctx, event.BaseEvent, ns.resolveEmail(ctx, event.BaseEvent), notify.ReadyToShip(event.OrderID))
}

func (ns *NotificationService) HandleShippingDispatched(ctx context.Context, event *models.ShippingDispatched) error {
	msg := notify.Dispatched(event.OrderID, event.Carrier, event.TrackingNumber)
	return ns.notify(ctx, event.BaseEvent, ns.resolveEmail(ctx, event.BaseEvent), msg)
}

// SendTestEmail sends an arbitrary message
func (ns *NotificationService) SendTestEmail(ctx context.Context, to, subject, body string) error {
	if err := ns.sender.Send(ctx, to, subject, body); err != nil {
		return apperr.Wrap(apperr.CodeUpstreamUnavailable, "mail relay unavailable", err)
	}
	return nil
}

// resolveEmail prefers the address carried by the event and falls back to the cache.
func (ns *NotificationService) resolveEmail(ctx context.Context, base models.BaseEvent) string {
	if base.UserEmail != "" {
		return base.UserEmail
	}
	email, err := ns.directory.LookupEmail(ctx, base.OrderID)
	if err != nil {
		ns.logger.Warn("Email lookup failed", zap.Int64("order_id", base.OrderID), zap.Error(err))
		return ""
	}
	return email
}

func (ns *NotificationService) notify(ctx context.Context, base models.BaseEvent, to string, msg notify.Message) error {
	logger := ns.logger.With(util.TraceFields(ctx)...).With(
		zap.Int64("order_id", base.OrderID),
		zap.String("type", string(base.Type)))

	if to == "" {
		logger.Info("No known recipient, skipping email")
		return nil
	}

	key := ""
	if base.EventID != "" {
		key = "notify:processed:" + base.EventID
		done, err := ns.dedup.CheckIdempotencyKey(ctx, key)
		if err != nil {
			logger.Warn("Dedup check failed, sending anyway", zap.Error(err))
		} else if done {
			logger.Info("Email already sent for event", zap.String("event_id", base.EventID))
			return nil
		}
	}

	if err := ns.sender.Send(ctx, to, msg.Subject, msg.Body); err != nil {
		return err
	}

	if key != "" {
		if err := ns.dedup.SetIdempotencyKey(ctx, key, ns.dedupTTL); err != nil {
			logger.Warn("Failed to record sent email", zap.Error(err))
		}
	}
	return nil
}

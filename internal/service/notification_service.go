package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/tourism-service/internal/events"
	"github.com/spec-kit/tourism-service/internal/notify"
)

// NotificationService turns domain events into customer emails.
type NotificationService struct {
	dispatcher events.Dispatcher
	renderer   *notify.Renderer
	notifier   notify.Notifier
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, renderer *notify.Renderer, notifier notify.Notifier, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		renderer:   renderer,
		notifier:   notifier,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventBookingCreated, n.handleBookingCreated)
	n.dispatcher.Subscribe(events.EventBookingStatusChanged, n.handleBookingStatusChanged)
	n.dispatcher.Subscribe(events.EventPasswordResetRequested, n.handlePasswordResetRequested)
}

func (n *NotificationService) handleBookingCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.BookingCreatedPayload)
	if !ok || payload.Booking == nil || payload.Customer == nil || payload.Tour == nil {
		return fmt.Errorf("%s: unexpected payload %T", event.Type, event.Payload)
	}
	n.logger.Info("BookingCreated",
		zap.String("booking_id", event.AggregateID),
		zap.String("reference", payload.Booking.BookingReference))

	msg, err := n.renderer.BookingConfirmation(payload.Booking, payload.Customer, payload.Tour)
	if err != nil {
		return err
	}
	return n.notifier.Notify(ctx, msg)
}

func (n *NotificationService) handleBookingStatusChanged(_ context.Context, event events.Event) error {
	n.logger.Info("BookingStatusChanged", zap.String("booking_id", event.AggregateID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handlePasswordResetRequested(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.PasswordResetRequestedPayload)
	if !ok || payload.Account == nil {
		return fmt.Errorf("%s: unexpected payload %T", event.Type, event.Payload)
	}
	msg, err := n.renderer.PasswordReset(payload.Account, payload.Token)
	if err != nil {
		return err
	}
	return n.notifier.Notify(ctx, msg)
}

package service

import (
	"context"
	"fmt"
	"strings"

	"fulfillment/internal/apperr"
	"fulfillment/internal/models"
	"fulfillment/internal/util"

	"go.uber.org/zap"
)

// PaymentService stands in for a payment gateway
type PaymentService struct {
	publisher EventPublisher
	logger    *zap.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(publisher EventPublisher) *PaymentService {
	return &PaymentService{
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// PaymentIntent is the mock gateway's answer to create-intent
type PaymentIntent struct {
	PaymentID    string `json:"payment_id"`
	ClientSecret string `json:"client_secret"`
}

// CreateIntent returns a fake payment intent for an order
func (ps *PaymentService) CreateIntent(_ context.Context, orderID int64) (*PaymentIntent, error) {
	if orderID <= 0 {
		return nil, apperr.New(apperr.CodeInvalidArgument, "order_id is required")
	}
	return &PaymentIntent{
		PaymentID:    fmt.Sprintf("pay_%d", orderID),
		ClientSecret: fmt.Sprintf("secret_%d", orderID),
	}, nil
}

// MockSucceed publishes payment.succeeded as a gateway webhook would
func (ps *PaymentService) MockSucceed(ctx context.Context, orderID, amountCents int64, currency string) error {
	ctx, span := util.StartSpan(ctx, "PaymentService.MockSucceed")
	defer span.End()

	if orderID <= 0 {
		return apperr.New(apperr.CodeInvalidArgument, "order_id is required")
	}
	if amountCents < 0 {
		return apperr.New(apperr.CodeInvalidArgument, "amount_cents must not be negative")
	}
	if currency == "" {
		currency = "USD"
	}

	event := models.NewPaymentSucceeded(orderID, amountCents, strings.ToUpper(currency))
	if err := ps.publisher.Publish(ctx, event); err != nil {
		return apperr.Wrap(apperr.CodeUpstreamUnavailable, "failed to publish payment event", err)
	}

	util.PaymentsMockedTotal.Inc()
	ps.logger.Info("Payment succeeded (mock)",
		zap.Int64("order_id", orderID),
		zap.Int64("amount_cents", amountCents),
		zap.String("event_id", event.EventID))
	return nil
}

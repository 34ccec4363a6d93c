package service

import (
	"context"
	"errors"
	"testing"

	"fulfillment/internal/apperr"
	"fulfillment/internal/memstore"
	"fulfillment/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateIntent(t *testing.T) {
	ps := NewPaymentService(&memstore.Publisher{})

	intent, err := ps.CreateIntent(context.Background(), 31)
	require.NoError(t, err)
	assert.Equal(t, "pay_31", intent.PaymentID)
	assert.Equal(t, "secret_31", intent.ClientSecret)

	_, err = ps.CreateIntent(context.Background(), 0)
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
}

func TestMockSucceedPublishesPaymentEvent(t *testing.T) {
	pub := &memstore.Publisher{}
	ps := NewPaymentService(pub)

	require.NoError(t, ps.MockSucceed(context.Background(), 31, 25998, "usd"))

	events := pub.Events()
	require.Len(t, events, 1)
	payment, ok := events[0].(*models.PaymentSucceeded)
	require.True(t, ok)
	assert.Equal(t, int64(31), payment.OrderID)
	assert.Equal(t, int64(25998), payment.AmountCents)
	assert.Equal(t, "USD", payment.Currency)
	assert.NotEmpty(t, payment.EventID)
}

func TestMockSucceedErrors(t *testing.T) {
	ctx := context.Background()

	err := NewPaymentService(&memstore.Publisher{}).MockSucceed(ctx, 0, 1, "USD")
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))

	err = NewPaymentService(&memstore.Publisher{}).MockSucceed(ctx, 1, -5, "USD")
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))

	err = NewPaymentService(&memstore.Publisher{Err: errors.New("broker down")}).MockSucceed(ctx, 1, 1, "USD")
	assert.Equal(t, apperr.CodeUpstreamUnavailable, apperr.CodeOf(err))
}

package notify

import (
	"context"
	"errors"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMTPSenderBuildsMessage(t *testing.T) {
	s := NewSMTPSender("mailhog", "1025", "no-reply@example.local")

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	s.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	require.NoError(t, s.Send(context.Background(), "alice@example.com", "Order received", "hello"))
	assert.Equal(t, "mailhog:1025", gotAddr)
	assert.Equal(t, "no-reply@example.local", gotFrom)
	assert.Equal(t, []string{"alice@example.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "Subject: Order received\r\n")
	assert.Contains(t, string(gotMsg), "\r\n\r\nhello")
}

func TestSMTPSenderErrors(t *testing.T) {
	s := NewSMTPSender("localhost", "1025", "no-reply@example.local")
	s.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("connection refused") }

	assert.ErrorContains(t, s.Send(context.Background(), "a@example.com", "x", "y"), "connection refused")
	assert.Error(t, s.Send(context.Background(), "a@example.com\r\nBcc: evil@example.com", "x", "y"))
}

func TestTemplates(t *testing.T) {
	assert.Equal(t, "We received your order 7 for 25998 cents.", OrderReceived(7, 25998).Body)
	assert.Equal(t, "Payment received", PaymentReceived(7).Subject)
	assert.Equal(t, "Order ready to ship", ReadyToShip(7).Subject)

	m := Dispatched(7, "DemoCarrier", "ABCDEF012345")
	assert.Equal(t, "Order dispatched", m.Subject)
	assert.Contains(t, m.Body, "Tracking: ABCDEF012345")
	assert.Contains(t, Dispatched(7, "", "").Body, "Tracking: TBA")
}

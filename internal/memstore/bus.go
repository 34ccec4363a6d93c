package memstore

import (
	"context"
	"sync"

	"fulfillment/internal/models"
)

// Publisher records published events.
type Publisher struct {
	mu     sync.Mutex
	events []models.DomainEvent

	Err error
}

func (p *Publisher) Publish(_ context.Context, ev models.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.events = append(p.events, ev)
	return nil
}

// PublishOutbox decodes and records a relayed outbox row.
func (p *Publisher) PublishOutbox(ctx context.Context, row models.OutboxEvent) error {
	ev, err := models.DecodeEvent(row.Payload)
	if err != nil {
		return err
	}
	return p.Publish(ctx, ev)
}

func (p *Publisher) Events() []models.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.DomainEvent(nil), p.events...)
}

// Email is one message accepted by a Mailbox.
type Email struct {
	To      string
	Subject string
	Body    string
}

// Mailbox is an EmailSender that keeps what it was asked to send.
type Mailbox struct {
	mu   sync.Mutex
	sent []Email

	Err error
}

func (m *Mailbox) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, Email{To: to, Subject: subject, Body: body})
	return nil
}

func (m *Mailbox) Sent() []Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Email(nil), m.sent...)
}

package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"fulfillment/internal/util"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// SMTPSender delivers plain-text mail through an unauthenticated relay such as mailhog.
type SMTPSender struct {
	addr   string
	from   string
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	logger *zap.Logger
}

func NewSMTPSender(host, port, from string) *SMTPSender {
	return &SMTPSender{
		addr:   net.JoinHostPort(host, port),
		from:   from,
		send:   smtp.SendMail,
		logger: util.GetLogger(),
	}
}

// Send delivers one message to a single recipient
func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	ctx, span := util.StartSpan(ctx, "smtp.Send")
	defer span.End()

	span.SetAttributes(
		attribute.String("email.to", to),
		attribute.String("email.subject", subject),
	)

	if strings.ContainsAny(to, "\r\n") || strings.ContainsAny(subject, "\r\n") {
		return fmt.Errorf("invalid header value")
	}

	if err := s.send(s.addr, nil, s.from, []string{to}, buildMessage(s.from, to, subject, body)); err != nil {
		span.RecordError(err)
		util.EmailsSentTotal.WithLabelValues("failed").Inc()
		s.logger.Error("Error sending email",
			append(util.TraceFields(ctx), zap.String("to", to), zap.String("subject", subject), zap.Error(err))...)
		return fmt.Errorf("failed to send mail: %w", err)
	}

	util.EmailsSentTotal.WithLabelValues("sent").Inc()
	s.logger.Info("Email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

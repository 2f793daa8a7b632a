// Package notification turns domain events into outbound notifications. It
// always records the intent; actual email delivery happens only when SMTP is
// configured, and a delivery failure never propagates back into the workflow
// that published the event.
package notification

import (
	"context"
	"fmt"

	"caseflow_backend/internal/events"
	"caseflow_backend/platform/config"
	"caseflow_backend/platform/logger"

	mail "github.com/wneessen/go-mail"
)

// Notifier subscribes to workflow events and dispatches notifications.
type Notifier struct {
	cfg config.EmailConfig
	log *logger.Logger
}

// New creates a notifier and registers its event subscriptions.
func New(bus events.Bus, cfg config.EmailConfig, log *logger.Logger) *Notifier {
	n := &Notifier{cfg: cfg, log: log}

	bus.Subscribe(events.QuoteCreated{}.EventName(), events.HandlerFunc(n.onQuoteCreated))
	bus.Subscribe(events.RequestStatusChanged{}.EventName(), events.HandlerFunc(n.onRequestStatusChanged))
	bus.Subscribe(events.RequestAssigned{}.EventName(), events.HandlerFunc(n.onRequestAssigned))

	return n
}

func (n *Notifier) onQuoteCreated(ctx context.Context, event events.Event) error {
	e, ok := event.(events.QuoteCreated)
	if !ok {
		return nil
	}

	n.log.NotifyIntent("quote", "created", e.QuoteID.String())
	n.deliver(ctx,
		fmt.Sprintf("Quote %s created", e.QuoteNumber),
		fmt.Sprintf("Quote %s was created by %s.", e.QuoteNumber, e.CreatedBy))
	return nil
}

func (n *Notifier) onRequestStatusChanged(ctx context.Context, event events.Event) error {
	e, ok := event.(events.RequestStatusChanged)
	if !ok {
		return nil
	}

	n.log.NotifyIntent("request", "status_changed", e.RequestID.String())
	if !e.NotifyClient {
		return nil
	}
	n.deliver(ctx,
		"Your request was updated",
		fmt.Sprintf("Request %s moved from %s to %s.", e.RequestID, e.PreviousStatus, e.NewStatus))
	return nil
}

func (n *Notifier) onRequestAssigned(ctx context.Context, event events.Event) error {
	e, ok := event.(events.RequestAssigned)
	if !ok {
		return nil
	}

	n.log.NotifyIntent("request", "assigned", e.RequestID.String())
	n.deliver(ctx,
		"Request assigned",
		fmt.Sprintf("Request %s was assigned to %s by %s.", e.RequestID, e.AssigneeID, e.AssignedBy))
	return nil
}

// deliver sends a plain-text email to the configured sender inbox. Failures
// are logged only; the publishing workflow already succeeded.
func (n *Notifier) deliver(ctx context.Context, subject, body string) {
	if !n.cfg.GetEmailEnabled() {
		return
	}

	msg := mail.NewMsg()
	if err := msg.FromFormat(n.cfg.GetEmailFromName(), n.cfg.GetEmailFromAddress()); err != nil {
		n.log.Error("notification: invalid from address", "error", err)
		return
	}
	if err := msg.To(n.cfg.GetEmailFromAddress()); err != nil {
		n.log.Error("notification: invalid recipient", "error", err)
		return
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	client, err := mail.NewClient(n.cfg.GetSMTPHost(),
		mail.WithPort(n.cfg.GetSMTPPort()),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(n.cfg.GetSMTPUsername()),
		mail.WithPassword(n.cfg.GetSMTPPassword()))
	if err != nil {
		n.log.Error("notification: smtp client", "error", err)
		return
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		n.log.Error("notification: send failed", "subject", subject, "error", err)
	}
}

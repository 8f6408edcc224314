package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Payload is a rendered reminder notification.
type Payload struct {
	Title      string    `json:"title"`
	Body       string    `json:"body,omitempty"`
	ReminderID uuid.UUID `json:"reminder_id"`
	DueLocal   string    `json:"due_local,omitempty"`
	Recurring  bool      `json:"recurring,omitempty"`
}

// Sink is a single delivery channel.
type Sink interface {
	Send(ctx context.Context, to, text string) error
}

// Dispatcher formats payloads and hands them to the delivery channel. The
// owner identifier doubles as the WhatsApp address.
type Dispatcher struct {
	sink   Sink
	logger *zap.Logger
}

func NewDispatcher(sink Sink, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{sink: sink, logger: logger}
}

// SendToOwner delivers one reminder notification. Errors are returned to the
// caller so a failed delivery can block advancement and be retried on the
// next scan.
func (d *Dispatcher) SendToOwner(ctx context.Context, owner string, payload Payload) error {
	if err := d.sink.Send(ctx, owner, renderText(payload)); err != nil {
		d.logger.Warn("reminder delivery failed",
			zap.String("reminder_id", payload.ReminderID.String()),
			zap.Error(err))
		return err
	}
	d.logger.Info("reminder delivered",
		zap.String("reminder_id", payload.ReminderID.String()))
	return nil
}

func renderText(p Payload) string {
	text := "⏰ " + p.Title
	if p.Body != "" {
		text += "\n" + p.Body
	}
	if p.DueLocal != "" {
		text += fmt.Sprintf("\n(%s)", p.DueLocal)
	}
	if p.Recurring {
		text += "\nReply \"list\" to manage your reminders."
	}
	return text
}

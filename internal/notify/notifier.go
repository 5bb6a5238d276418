// Package notify delivers best-effort WhatsApp notifications. Delivery is
// fire-and-forget: a failed enqueue is logged by the caller and never rolls
// back the settlement that produced it.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/forecourt-hq/forecourt/jobs"
)

// PaymentEvent describes a completed supplier settlement.
type PaymentEvent struct {
	SupplierID   int64
	SupplierName string
	Phone        string
	Amount       string
	Method       string
	PaidAt       time.Time
}

// Notifier is the collaborator interface the ledger core depends on.
type Notifier interface {
	PaymentRecorded(ctx context.Context, evt PaymentEvent) error
}

// AsynqNotifier enqueues WhatsApp send tasks onto the background worker.
type AsynqNotifier struct {
	client *asynq.Client
	logger *slog.Logger
}

// NewAsynqNotifier constructs the notifier.
func NewAsynqNotifier(client *asynq.Client, logger *slog.Logger) *AsynqNotifier {
	return &AsynqNotifier{client: client, logger: logger}
}

// PaymentRecorded enqueues a WhatsApp message describing the payment.
func (n *AsynqNotifier) PaymentRecorded(ctx context.Context, evt PaymentEvent) error {
	if n == nil || n.client == nil {
		return nil
	}
	task, err := jobs.NewWhatsAppSendTask(jobs.WhatsAppSendPayload{
		Phone:   evt.Phone,
		Message: paymentMessage(evt),
	})
	if err != nil {
		return err
	}
	if _, err := n.client.EnqueueContext(ctx, task, asynq.Queue(jobs.QueueNotifications)); err != nil {
		return err
	}
	if n.logger != nil {
		n.logger.Info("payment notification enqueued",
			slog.Int64("supplier_id", evt.SupplierID),
			slog.String("amount", evt.Amount))
	}
	return nil
}

func paymentMessage(evt PaymentEvent) string {
	return "Payment of " + evt.Amount + " to " + evt.SupplierName +
		" recorded via " + evt.Method + " on " + evt.PaidAt.Format("2006-01-02 15:04")
}

// NopNotifier discards every event; used when notifications are disabled.
type NopNotifier struct{}

func (NopNotifier) PaymentRecorded(context.Context, PaymentEvent) error { return nil }

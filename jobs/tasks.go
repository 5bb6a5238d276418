package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// QueueNotifications carries outbound WhatsApp messages.
	QueueNotifications = "notifications"
	// TaskTypeWhatsAppSend is the task type for outbound WhatsApp messages.
	TaskTypeWhatsAppSend = "whatsapp:send"
	// TaskTypeLedgerIntegrity is the task type for the nightly balance check.
	TaskTypeLedgerIntegrity = "ledger:integrity"
	// TaskTypeIdempotencyCleanup is the task type for the key retention sweep.
	TaskTypeIdempotencyCleanup = "idempotency:cleanup"
)

// WhatsAppSendPayload describes one outbound message.
type WhatsAppSendPayload struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// NewWhatsAppSendTask constructs an Asynq task for a WhatsApp message.
func NewWhatsAppSendTask(payload WhatsAppSendPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeWhatsAppSend, data), nil
}

// Sender delivers a message to a phone number. The production implementation
// wraps the WhatsApp gateway client; tests use a recorder.
type Sender interface {
	Send(ctx context.Context, phone, message string) error
}

// WhatsAppHandler processes TaskTypeWhatsAppSend tasks.
type WhatsAppHandler struct {
	sender Sender
	logger *slog.Logger
}

// NewWhatsAppHandler constructs the handler.
func NewWhatsAppHandler(sender Sender, logger *slog.Logger) *WhatsAppHandler {
	return &WhatsAppHandler{sender: sender, logger: logger}
}

// ProcessTask delivers the message. Malformed payloads are dropped rather
// than retried.
func (h *WhatsAppHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload WhatsAppSendPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Phone == "" {
		if h.logger != nil {
			h.logger.Warn("whatsapp task without phone, dropping")
		}
		return asynq.SkipRetry
	}
	if h.sender == nil {
		if h.logger != nil {
			h.logger.Info("whatsapp delivery disabled", slog.String("phone", payload.Phone))
		}
		return nil
	}
	if err := h.sender.Send(ctx, payload.Phone, payload.Message); err != nil {
		if h.logger != nil {
			h.logger.Error("whatsapp send failed", slog.String("phone", payload.Phone), slog.Any("error", err))
		}
		return err
	}
	return nil
}

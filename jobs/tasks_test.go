package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/forecourt-hq/forecourt/internal/ledger/reports"
)

type recordingSender struct {
	sent []WhatsAppSendPayload
	err  error
}

func (s *recordingSender) Send(ctx context.Context, phone, message string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, WhatsAppSendPayload{Phone: phone, Message: message})
	return nil
}

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestWhatsAppHandlerDelivers(t *testing.T) {
	sender := &recordingSender{}
	handler := NewWhatsAppHandler(sender, discardLogger())

	task, err := NewWhatsAppSendTask(WhatsAppSendPayload{Phone: "+62811", Message: "Payment recorded"})
	require.NoError(t, err)
	require.Equal(t, TaskTypeWhatsAppSend, task.Type())

	require.NoError(t, handler.ProcessTask(context.Background(), task))
	require.Len(t, sender.sent, 1)
	require.Equal(t, "+62811", sender.sent[0].Phone)
}

func TestWhatsAppHandlerDropsMalformedPayload(t *testing.T) {
	handler := NewWhatsAppHandler(&recordingSender{}, discardLogger())

	badTask := asynq.NewTask(TaskTypeWhatsAppSend, []byte("{not json"))
	require.ErrorIs(t, handler.ProcessTask(context.Background(), badTask), asynq.SkipRetry)

	noPhone, err := json.Marshal(WhatsAppSendPayload{Message: "hi"})
	require.NoError(t, err)
	err = handler.ProcessTask(context.Background(), asynq.NewTask(TaskTypeWhatsAppSend, noPhone))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestWhatsAppHandlerRetriesOnSendFailure(t *testing.T) {
	sender := &recordingSender{err: errors.New("gateway down")}
	handler := NewWhatsAppHandler(sender, discardLogger())

	task, err := NewWhatsAppSendTask(WhatsAppSendPayload{Phone: "+62811", Message: "hi"})
	require.NoError(t, err)

	err = handler.ProcessTask(context.Background(), task)
	require.Error(t, err)
	require.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestWhatsAppHandlerNilSenderIsNoop(t *testing.T) {
	handler := NewWhatsAppHandler(nil, discardLogger())
	task, err := NewWhatsAppSendTask(WhatsAppSendPayload{Phone: "+62811", Message: "hi"})
	require.NoError(t, err)
	require.NoError(t, handler.ProcessTask(context.Background(), task))
}

type stubTrialBalance struct {
	tb  reports.TrialBalance
	err error
}

func (s stubTrialBalance) TrialBalance(ctx context.Context, rng reports.Range) (reports.TrialBalance, error) {
	return s.tb, s.err
}

func TestIntegrityHandlerPasses(t *testing.T) {
	source := stubTrialBalance{tb: reports.TrialBalance{
		Accounts: []reports.TrialBalanceRow{
			{Code: "10101", Balance: decimal.NewFromInt(100), Cached: decimal.NewFromInt(100)},
		},
		TotalDebit:  decimal.NewFromInt(100),
		TotalCredit: decimal.NewFromInt(100),
		IsBalanced:  true,
	}}
	handler := NewIntegrityHandler(source, discardLogger())
	require.NoError(t, handler.ProcessTask(context.Background(), NewLedgerIntegrityTask()))
}

func TestIntegrityHandlerImbalanceDoesNotRetry(t *testing.T) {
	// Retrying cannot repair bad data, so the task must still succeed.
	source := stubTrialBalance{tb: reports.TrialBalance{
		TotalDebit:  decimal.NewFromInt(100),
		TotalCredit: decimal.NewFromInt(99),
		IsBalanced:  false,
	}}
	handler := NewIntegrityHandler(source, discardLogger())
	require.NoError(t, handler.ProcessTask(context.Background(), NewLedgerIntegrityTask()))
}

func TestIntegrityHandlerPropagatesSourceError(t *testing.T) {
	source := stubTrialBalance{err: errors.New("db unavailable")}
	handler := NewIntegrityHandler(source, discardLogger())
	require.Error(t, handler.ProcessTask(context.Background(), NewLedgerIntegrityTask()))
}

func TestIntegrityHandlerNilSource(t *testing.T) {
	handler := NewIntegrityHandler(nil, discardLogger())
	err := handler.ProcessTask(context.Background(), NewLedgerIntegrityTask())
	require.ErrorIs(t, err, asynq.SkipRetry)
}

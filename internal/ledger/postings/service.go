package postings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/forecourt-hq/forecourt/internal/ledger/shared"
	internalshared "github.com/forecourt-hq/forecourt/internal/shared"
)

// AuditPort records money-moving actions.
type AuditPort interface {
	Record(ctx context.Context, log internalshared.AuditLog) error
}

// IdempotencyPort guards against double-posting on caller retries.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// Invalidator bumps derived-report caches after a committed posting.
type Invalidator interface {
	Bump(ctx context.Context) error
}

// MeterPort counts posting attempts by outcome for dashboards and alerting.
type MeterPort interface {
	RecordPosting(outcome string)
}

type Service struct {
	repo  Repository
	audit AuditPort
	idem  IdempotencyPort
	cache Invalidator
	meter MeterPort
	now   func() time.Time
}

func NewService(repo Repository, audit AuditPort, idem IdempotencyPort, cache Invalidator, meter MeterPort) *Service {
	return &Service{repo: repo, audit: audit, idem: idem, cache: cache, meter: meter, now: time.Now}
}

func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *Service) GetByID(ctx context.Context, id int64) (Transaction, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter Filter) ([]Transaction, error) {
	return s.repo.List(ctx, filter)
}

// Post records one balanced journal entry. The transaction insert and both
// balance adjustments commit as a single unit of work; on any failure the
// caller may retry the whole posting.
func (s *Service) Post(ctx context.Context, input PostingInput) (Transaction, error) {
	if err := input.Validate(); err != nil {
		s.count("error")
		return Transaction{}, err
	}
	claimedKey, err := s.claimKey(ctx, input.IdempotencyKey, "ledger.post")
	if err != nil {
		return Transaction{}, err
	}
	var entry Transaction
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var txErr error
		entry, txErr = ApplyWithin(ctx, tx, input)
		return txErr
	})
	if err != nil {
		s.count("error")
		s.releaseKey(ctx, claimedKey)
		return Transaction{}, err
	}
	s.count("ok")
	if s.audit != nil {
		_ = s.audit.Record(ctx, internalshared.AuditLog{
			Action:   "ledger.post",
			Entity:   "transaction",
			EntityID: fmt.Sprintf("%d", entry.ID),
			Meta: map[string]any{
				"ref":    entry.Ref.String(),
				"debit":  input.DebitCode,
				"credit": input.CreditCode,
				"amount": entry.Amount.StringFixed(2),
			},
			At: s.now(),
		})
	}
	s.bump(ctx)
	return entry, nil
}

// Reverse re-applies the inverse balance deltas and deletes the transaction.
// Reversing an unknown or already-reversed id fails with
// ErrTransactionNotFound instead of silently double-adjusting.
func (s *Service) Reverse(ctx context.Context, input ReverseInput) error {
	if input.TransactionID == 0 {
		return errors.New("ledger: transaction id required")
	}
	var reversed Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var txErr error
		reversed, txErr = ReverseWithin(ctx, tx, input.TransactionID)
		return txErr
	})
	if err != nil {
		s.count("error")
		return err
	}
	s.count("ok")
	if s.audit != nil {
		_ = s.audit.Record(ctx, internalshared.AuditLog{
			Action:   "ledger.reverse",
			Entity:   "transaction",
			EntityID: fmt.Sprintf("%d", input.TransactionID),
			Meta: map[string]any{
				"ref":    reversed.Ref.String(),
				"amount": reversed.Amount.StringFixed(2),
				"reason": input.Reason,
			},
			At: s.now(),
		})
	}
	s.bump(ctx)
	return nil
}

func (s *Service) claimKey(ctx context.Context, key, module string) (string, error) {
	if key == "" || s.idem == nil {
		return "", nil
	}
	if err := s.idem.CheckAndInsert(ctx, key, module); err != nil {
		if errors.Is(err, internalshared.ErrIdempotencyConflict) {
			return "", shared.ErrDuplicatePosting
		}
		return "", err
	}
	return key, nil
}

func (s *Service) releaseKey(ctx context.Context, key string) {
	if key == "" || s.idem == nil {
		return
	}
	_ = s.idem.Delete(ctx, key)
}

func (s *Service) bump(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Bump(ctx)
	}
}

func (s *Service) count(outcome string) {
	if s.meter != nil {
		s.meter.RecordPosting(outcome)
	}
}

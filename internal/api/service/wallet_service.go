package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gem-platform/wallet-ledger/internal/domain/audit"
	"github.com/gem-platform/wallet-ledger/internal/domain/currency"
	"github.com/gem-platform/wallet-ledger/internal/domain/outbox"
	"github.com/gem-platform/wallet-ledger/internal/domain/wallet"
	"github.com/gem-platform/wallet-ledger/internal/platform/persistence"
)

// dailyWindow is the rolling period the credit limit is summed over
const dailyWindow = 24 * time.Hour

// WalletServiceImpl implements the WalletService interface
type WalletServiceImpl struct {
	txRunner   persistence.TxRunner
	ledgerRepo wallet.LedgerRepository
	outboxRepo outbox.Repository
	currencies currency.Registry
	dailyLimit int64
	logger     *slog.Logger
	now        func() time.Time
}

// NewWalletService creates a new wallet ledger service
func NewWalletService(
	logger *slog.Logger,
	txRunner persistence.TxRunner,
	ledgerRepo wallet.LedgerRepository,
	outboxRepo outbox.Repository,
	currencies currency.Registry,
	dailyLimit int64,
) WalletService {
	return &WalletServiceImpl{
		txRunner:   txRunner,
		ledgerRepo: ledgerRepo,
		outboxRepo: outboxRepo,
		currencies: currencies,
		dailyLimit: dailyLimit,
		logger:     logger,
		now:        time.Now,
	}
}

// Credit adds funds to a balance. The daily-limit check, the journal insert
// and the balance update all commit or roll back together.
func (s *WalletServiceImpl) Credit(ctx context.Context, p CreditParams) (*wallet.Record, error) {
	if p.Amount <= 0 {
		return nil, wallet.ErrInvalidAmount
	}

	cur, err := s.currencies.GetByCode(ctx, p.Currency)
	if err != nil {
		return nil, err
	}

	if p.IdempotencyKey != "" {
		existing, err := s.ledgerRepo.GetByIdempotencyKey(ctx, p.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			s.logger.Info("Returning existing record for idempotency key",
				"idempotency_key", p.IdempotencyKey,
				"transaction_id", existing.ID,
			)
			return existing, nil
		}
	}

	record := &wallet.Record{
		UserID:         p.UserID,
		CurrencyID:     cur.ID,
		CurrencyCode:   cur.Code,
		Type:           wallet.RecordTypeCredit,
		Amount:         p.Amount,
		Reference:      p.Reference,
		Memo:           p.Memo,
		IdempotencyKey: p.IdempotencyKey,
		Metadata:       p.Metadata,
	}

	err = s.txRunner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		repo := s.ledgerRepo.WithTx(tx)
		if _, err := repo.LockBalanceForUpdate(ctx, p.UserID, cur.ID); err != nil {
			return err
		}
		return s.applyCredit(ctx, tx, repo, record, p.CorrelationID)
	})
	if err != nil {
		if errors.Is(err, wallet.ErrDuplicateIdempotencyKey{}) {
			return s.recoverByIdempotencyKey(ctx, p.IdempotencyKey)
		}
		return nil, err
	}

	s.logger.Info("Credit applied",
		"user_id", p.UserID,
		"currency", cur.Code,
		"amount", p.Amount,
		"reference", p.Reference,
		"transaction_id", record.ID,
	)

	return record, nil
}

// Debit removes funds from a balance. The balance is locked before the
// insufficient-funds check so concurrent debits cannot both pass on a stale
// read.
func (s *WalletServiceImpl) Debit(ctx context.Context, p DebitParams) (*wallet.Record, error) {
	if p.Amount <= 0 {
		return nil, wallet.ErrInvalidAmount
	}

	cur, err := s.currencies.GetByCode(ctx, p.Currency)
	if err != nil {
		return nil, err
	}

	if p.IdempotencyKey != "" {
		existing, err := s.ledgerRepo.GetByIdempotencyKey(ctx, p.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			s.logger.Info("Returning existing record for idempotency key",
				"idempotency_key", p.IdempotencyKey,
				"transaction_id", existing.ID,
			)
			return existing, nil
		}
	}

	record := &wallet.Record{
		UserID:         p.UserID,
		CurrencyID:     cur.ID,
		CurrencyCode:   cur.Code,
		Type:           wallet.RecordTypeDebit,
		Amount:         p.Amount,
		Reference:      p.Reference,
		Memo:           p.Memo,
		IdempotencyKey: p.IdempotencyKey,
	}

	err = s.txRunner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		repo := s.ledgerRepo.WithTx(tx)
		balance, err := repo.LockBalanceForUpdate(ctx, p.UserID, cur.ID)
		if err != nil {
			return err
		}
		if balance < p.Amount {
			return wallet.ErrInsufficientFunds
		}
		return s.applyDebit(ctx, tx, repo, record, p.CorrelationID)
	})
	if err != nil {
		if errors.Is(err, wallet.ErrDuplicateIdempotencyKey{}) {
			return s.recoverByIdempotencyKey(ctx, p.IdempotencyKey)
		}
		return nil, err
	}

	s.logger.Info("Debit applied",
		"user_id", p.UserID,
		"currency", cur.Code,
		"amount", p.Amount,
		"reference", p.Reference,
		"transaction_id", record.ID,
	)

	return record, nil
}

// Transfer moves funds between two users in one transaction. Balance rows
// are locked in a fixed order so two opposing transfers cannot deadlock.
func (s *WalletServiceImpl) Transfer(ctx context.Context, p TransferParams) (*wallet.TransferResult, error) {
	if p.Amount <= 0 {
		return nil, wallet.ErrInvalidAmount
	}
	if p.FromUserID == p.ToUserID {
		return nil, wallet.ErrSelfTransfer
	}

	cur, err := s.currencies.GetByCode(ctx, p.Currency)
	if err != nil {
		return nil, err
	}

	var debitKey, creditKey string
	if p.IdempotencyKey != "" {
		debitKey = p.IdempotencyKey + ":debit"
		creditKey = p.IdempotencyKey + ":credit"

		existing, err := s.ledgerRepo.GetByIdempotencyKey(ctx, debitKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			s.logger.Info("Returning existing transfer for idempotency key",
				"idempotency_key", p.IdempotencyKey,
			)
			return s.recoverTransfer(ctx, debitKey, creditKey)
		}
	}

	metadata := map[string]string{
		"transfer_from": p.FromUserID.String(),
		"transfer_to":   p.ToUserID.String(),
	}

	debitRecord := &wallet.Record{
		UserID:         p.FromUserID,
		CurrencyID:     cur.ID,
		CurrencyCode:   cur.Code,
		Type:           wallet.RecordTypeDebit,
		Amount:         p.Amount,
		Reference:      p.Reference,
		IdempotencyKey: debitKey,
		Metadata:       metadata,
	}
	creditRecord := &wallet.Record{
		UserID:         p.ToUserID,
		CurrencyID:     cur.ID,
		CurrencyCode:   cur.Code,
		Type:           wallet.RecordTypeCredit,
		Amount:         p.Amount,
		Reference:      p.Reference,
		IdempotencyKey: creditKey,
		Metadata:       metadata,
	}

	err = s.txRunner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		repo := s.ledgerRepo.WithTx(tx)

		first, second := p.FromUserID, p.ToUserID
		if bytes.Compare(second[:], first[:]) < 0 {
			first, second = second, first
		}

		balances := make(map[uuid.UUID]int64, 2)
		for _, userID := range []uuid.UUID{first, second} {
			balance, err := repo.LockBalanceForUpdate(ctx, userID, cur.ID)
			if err != nil {
				return err
			}
			balances[userID] = balance
		}

		if balances[p.FromUserID] < p.Amount {
			return wallet.ErrInsufficientFunds
		}

		if err := s.applyDebit(ctx, tx, repo, debitRecord, p.CorrelationID); err != nil {
			return err
		}
		return s.applyCredit(ctx, tx, repo, creditRecord, p.CorrelationID)
	})
	if err != nil {
		if errors.Is(err, wallet.ErrDuplicateIdempotencyKey{}) && p.IdempotencyKey != "" {
			return s.recoverTransfer(ctx, debitKey, creditKey)
		}
		return nil, err
	}

	s.logger.Info("Transfer applied",
		"from_user_id", p.FromUserID,
		"to_user_id", p.ToUserID,
		"currency", cur.Code,
		"amount", p.Amount,
		"reference", p.Reference,
	)

	return &wallet.TransferResult{DebitRecord: debitRecord, CreditRecord: creditRecord}, nil
}

// GetBalances returns all balances held by the user
func (s *WalletServiceImpl) GetBalances(ctx context.Context, userID uuid.UUID) ([]*wallet.Balance, error) {
	return s.ledgerRepo.ListBalances(ctx, userID)
}

// GetBalance returns the balance for one currency, reporting zero for a pair
// that has never held funds
func (s *WalletServiceImpl) GetBalance(ctx context.Context, userID uuid.UUID, currencyCode string) (*wallet.Balance, error) {
	cur, err := s.currencies.GetByCode(ctx, currencyCode)
	if err != nil {
		return nil, err
	}

	balance, err := s.ledgerRepo.GetBalance(ctx, userID, cur.ID)
	if err != nil {
		return nil, err
	}
	if balance == nil {
		return &wallet.Balance{
			UserID:       userID,
			CurrencyID:   cur.ID,
			CurrencyCode: cur.Code,
			Amount:       0,
		}, nil
	}

	return balance, nil
}

// GetHistory returns paginated journal records with the matching total count
func (s *WalletServiceImpl) GetHistory(ctx context.Context, userID uuid.UUID, currencyCode string, page, perPage int) ([]*wallet.Record, int64, error) {
	var currencyID *int64
	if currencyCode != "" {
		cur, err := s.currencies.GetByCode(ctx, currencyCode)
		if err != nil {
			return nil, 0, err
		}
		currencyID = &cur.ID
	}

	offset := (page - 1) * perPage

	records, err := s.ledgerRepo.ListHistory(ctx, userID, currencyID, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.ledgerRepo.CountHistory(ctx, userID, currencyID)
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

// applyCredit enforces the rolling daily limit, writes the journal record,
// moves the balance and stages the audit event. Caller must already hold the
// balance row lock.
func (s *WalletServiceImpl) applyCredit(ctx context.Context, tx pgx.Tx, repo wallet.LedgerRepository, record *wallet.Record, correlationID string) error {
	if s.dailyLimit > 0 {
		total, err := repo.SumCreditsSince(ctx, record.UserID, record.CurrencyID, s.now().Add(-dailyWindow))
		if err != nil {
			return err
		}
		if total+record.Amount > s.dailyLimit {
			return wallet.ErrDailyLimitExceeded{Limit: s.dailyLimit}
		}
	}

	if err := repo.InsertRecord(ctx, record); err != nil {
		return err
	}
	if err := repo.AddToBalance(ctx, record.UserID, record.CurrencyID, record.Amount); err != nil {
		return err
	}
	return s.stageEvent(ctx, tx, record, correlationID)
}

// applyDebit writes the journal record, moves the balance down and stages
// the audit event. Caller must already hold the balance row lock and have
// verified sufficient funds.
func (s *WalletServiceImpl) applyDebit(ctx context.Context, tx pgx.Tx, repo wallet.LedgerRepository, record *wallet.Record, correlationID string) error {
	if err := repo.InsertRecord(ctx, record); err != nil {
		return err
	}
	if err := repo.AddToBalance(ctx, record.UserID, record.CurrencyID, -record.Amount); err != nil {
		return err
	}
	return s.stageEvent(ctx, tx, record, correlationID)
}

// stageEvent inserts the outbox row in the same transaction as the journal
// record it mirrors
func (s *WalletServiceImpl) stageEvent(ctx context.Context, tx pgx.Tx, record *wallet.Record, correlationID string) error {
	event := audit.NewLedgerEvent(record, correlationID)
	message, err := outbox.NewMessage(event)
	if err != nil {
		return fmt.Errorf("failed to build outbox message: %w", err)
	}
	return s.outboxRepo.WithTx(tx).Create(ctx, message)
}

// recoverByIdempotencyKey resolves a lost idempotency-key race by returning
// the winner's record
func (s *WalletServiceImpl) recoverByIdempotencyKey(ctx context.Context, key string) (*wallet.Record, error) {
	record, err := s.ledgerRepo.GetByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, wallet.ErrRecordNotFound
	}

	s.logger.Info("Recovered record after idempotency key race",
		"idempotency_key", key,
		"transaction_id", record.ID,
	)

	return record, nil
}

func (s *WalletServiceImpl) recoverTransfer(ctx context.Context, debitKey, creditKey string) (*wallet.TransferResult, error) {
	debitRecord, err := s.ledgerRepo.GetByIdempotencyKey(ctx, debitKey)
	if err != nil {
		return nil, err
	}
	creditRecord, err := s.ledgerRepo.GetByIdempotencyKey(ctx, creditKey)
	if err != nil {
		return nil, err
	}
	if debitRecord == nil || creditRecord == nil {
		return nil, wallet.ErrRecordNotFound
	}

	return &wallet.TransferResult{DebitRecord: debitRecord, CreditRecord: creditRecord}, nil
}

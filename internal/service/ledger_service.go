package service

import (
	"context"
	"fmt"
	"time"

	"komodo-ledger/internal/core/domain"
	"komodo-ledger/internal/core/ports"
	"komodo-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// LedgerServiceImpl implements ports.LedgerService with pessimistic
// locking: every balance mutation re-reads the wallet row under
// SELECT ... FOR UPDATE inside the caller's transaction, so a stale
// in-memory balance can never be written back.
type LedgerServiceImpl struct {
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		walletRepo: walletRepo,
		txRepo:     txRepo,
		transactor: transactor,
		log:        log,
	}
}

// GetOrCreateWallet resolves the wallet for an owner key, creating it
// with a zero balance on first access.
func (s *LedgerServiceImpl) GetOrCreateWallet(ctx context.Context, ownerKey string) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetOrCreate(ctx, ownerKey)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get or create wallet: %w", err))
	}
	return wallet, nil
}

// Debit subtracts amount from the wallet inside the caller's transaction.
func (s *LedgerServiceImpl) Debit(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount decimal.Decimal, orderID *uuid.UUID, description string) (*domain.Transaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, apperror.ErrInvalidAmount()
	}

	// Lock & re-read: the caller may hold a stale copy of the wallet.
	wallet, err := s.walletRepo.GetByIDForUpdate(ctx, tx, walletID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}

	if wallet.Balance.LessThan(amount) {
		return nil, apperror.ErrInsufficientBalance()
	}

	newBalance := wallet.Balance.Sub(amount)
	if err := s.walletRepo.UpdateBalance(ctx, tx, wallet.ID, newBalance); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update balance: %w", err))
	}

	txn := &domain.Transaction{
		ID:          uuid.New(),
		WalletID:    wallet.ID,
		Amount:      amount,
		Type:        domain.TransactionTypeDebit,
		OrderID:     orderID,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.txRepo.Create(ctx, tx, txn); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create debit transaction: %w", err))
	}

	return txn, nil
}

// Credit adds amount to the wallet inside the caller's transaction.
func (s *LedgerServiceImpl) Credit(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount decimal.Decimal, orderID *uuid.UUID, description string) (*domain.Transaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, apperror.ErrInvalidAmount()
	}

	wallet, err := s.walletRepo.GetByIDForUpdate(ctx, tx, walletID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}

	newBalance := wallet.Balance.Add(amount)
	if err := s.walletRepo.UpdateBalance(ctx, tx, wallet.ID, newBalance); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update balance: %w", err))
	}

	txn := &domain.Transaction{
		ID:          uuid.New(),
		WalletID:    wallet.ID,
		Amount:      amount,
		Type:        domain.TransactionTypeCredit,
		OrderID:     orderID,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.txRepo.Create(ctx, tx, txn); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create credit transaction: %w", err))
	}

	return txn, nil
}

// AddFunds is the privileged order-less credit used by admins. It runs
// in its own transaction and creates the wallet when missing.
func (s *LedgerServiceImpl) AddFunds(ctx context.Context, ownerKey string, amount decimal.Decimal, description string) (*domain.Wallet, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, apperror.ErrInvalidAmount()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.walletRepo.GetOrCreateTx(ctx, dbTx, ownerKey)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get or create wallet: %w", err))
	}

	if _, err := s.Credit(ctx, dbTx, wallet.ID, amount, nil, description); err != nil {
		return nil, err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("owner_key", ownerKey).
		Str("amount", amount.String()).
		Msg("funds added")

	updated, err := s.walletRepo.GetByID(ctx, wallet.ID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("reload wallet: %w", err))
	}
	return updated, nil
}

// ListTransactions returns the most recent ledger entries for an owner.
func (s *LedgerServiceImpl) ListTransactions(ctx context.Context, ownerKey string, limit int) ([]domain.Transaction, error) {
	wallet, err := s.walletRepo.GetByOwnerKey(ctx, ownerKey)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return []domain.Transaction{}, nil
	}

	txns, err := s.txRepo.ListByWallet(ctx, wallet.ID, limit)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list transactions: %w", err))
	}
	return txns, nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"komodo-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

const walletColumns = `id, owner_key, balance, currency, created_at, updated_at`

// GetByID fetches a wallet by its UUID (without locking).
func (r *WalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1`
	return scanWallet(r.pool.QueryRow(ctx, query, id))
}

// GetByOwnerKey fetches a wallet by owner key (non-locking read).
func (r *WalletRepo) GetByOwnerKey(ctx context.Context, ownerKey string) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE owner_key = $1`
	return scanWallet(r.pool.QueryRow(ctx, query, ownerKey))
}

// GetOrCreate lazily creates the wallet for ownerKey. The insert is
// conflict-free so two concurrent callers end up with the same row.
func (r *WalletRepo) GetOrCreate(ctx context.Context, ownerKey string) (*domain.Wallet, error) {
	if err := r.insertIfMissing(ctx, r.pool, ownerKey); err != nil {
		return nil, err
	}
	return r.GetByOwnerKey(ctx, ownerKey)
}

// GetOrCreateTx is GetOrCreate inside the caller's transaction.
func (r *WalletRepo) GetOrCreateTx(ctx context.Context, tx pgx.Tx, ownerKey string) (*domain.Wallet, error) {
	if err := r.insertIfMissing(ctx, tx, ownerKey); err != nil {
		return nil, err
	}
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE owner_key = $1`
	return scanWallet(tx.QueryRow(ctx, query, ownerKey))
}

// queryExecer is satisfied by both Pool and pgx.Tx.
type queryExecer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// insertIfMissing creates a zero-balance wallet unless one already exists.
func (r *WalletRepo) insertIfMissing(ctx context.Context, q queryExecer, ownerKey string) error {
	query := `INSERT INTO wallets (id, owner_key, balance, currency, created_at, updated_at)
		VALUES ($1, $2, 0, $3, NOW(), NOW())
		ON CONFLICT (owner_key) DO NOTHING`

	if _, err := q.Exec(ctx, query, uuid.New(), ownerKey, domain.DefaultCurrency); err != nil {
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

// GetByIDForUpdate fetches a wallet by ID with pessimistic locking.
// This MUST be called within a transaction.
func (r *WalletRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1 FOR UPDATE`
	return scanWallet(tx.QueryRow(ctx, query, id))
}

// UpdateBalance sets a wallet balance within a transaction. The caller
// must hold the row lock and have computed the balance from a fresh read.
func (r *WalletRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance decimal.Decimal) error {
	query := `UPDATE wallets SET balance = $1, updated_at = NOW() WHERE id = $2`

	tag, err := tx.Exec(ctx, query, balance, walletID)
	if err != nil {
		return fmt.Errorf("update wallet balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet not found: %s", walletID)
	}
	return nil
}

// SumBalances returns the sum of every wallet balance.
func (r *WalletRepo) SumBalances(ctx context.Context) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(balance), 0) FROM wallets`

	var sum decimal.Decimal
	if err := r.pool.QueryRow(ctx, query).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("sum wallet balances: %w", err)
	}
	return sum, nil
}

func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	w := &domain.Wallet{}
	err := row.Scan(&w.ID, &w.OwnerKey, &w.Balance, &w.Currency, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan wallet: %w", err)
	}
	return w, nil
}

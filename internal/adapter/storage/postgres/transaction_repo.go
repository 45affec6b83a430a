package postgres

import (
	"context"
	"errors"
	"fmt"

	"komodo-ledger/internal/core/domain"
	"komodo-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// TransactionRepo implements ports.TransactionRepository. The table is
// append-only; a database trigger rejects UPDATE and DELETE as well.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

const transactionColumns = `id, wallet_id, amount, type, order_id, description, created_at`

// Create inserts a new ledger transaction within a database transaction.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `INSERT INTO transactions (id, wallet_id, amount, type, order_id, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := tx.Exec(ctx, query,
		t.ID, t.WalletID, t.Amount, t.Type, t.OrderID, t.Description, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// GetByID fetches a transaction by UUID.
func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	return scanTransaction(r.pool.QueryRow(ctx, query, id))
}

// ListByWallet returns the most recent transactions of a wallet.
func (r *TransactionRepo) ListByWallet(ctx context.Context, walletID uuid.UUID, limit int) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE wallet_id = $1 ORDER BY created_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, walletID, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		t := domain.Transaction{}
		err := rows.Scan(&t.ID, &t.WalletID, &t.Amount, &t.Type, &t.OrderID, &t.Description, &t.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return txns, nil
}

// SumForOrder aggregates one movement type tagged to an order on one wallet.
func (r *TransactionRepo) SumForOrder(ctx context.Context, orderID, walletID uuid.UUID, txType domain.TransactionType) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM transactions
		WHERE order_id = $1 AND wallet_id = $2 AND type = $3`

	var sum decimal.Decimal
	if err := r.pool.QueryRow(ctx, query, orderID, walletID, txType).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("sum transactions for order: %w", err)
	}
	return sum, nil
}

// SumByType aggregates all amounts of one movement type.
func (r *TransactionRepo) SumByType(ctx context.Context, txType domain.TransactionType) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE type = $1`

	var sum decimal.Decimal
	if err := r.pool.QueryRow(ctx, query, txType).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("sum transactions by type: %w", err)
	}
	return sum, nil
}

// Update always fails: ledger transactions are immutable.
func (r *TransactionRepo) Update(ctx context.Context, t *domain.Transaction) error {
	return apperror.ErrImmutableRecord()
}

// Delete always fails: reversals are compensating transactions, never deletions.
func (r *TransactionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return apperror.ErrImmutableRecord()
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	err := row.Scan(&t.ID, &t.WalletID, &t.Amount, &t.Type, &t.OrderID, &t.Description, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	return t, nil
}

package ports

import (
	"context"
	"time"

	"komodo-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=repositories.go -destination=mocks/repositories.go -package=mocks

// WalletRepository defines persistence operations for wallets.
// Methods accepting pgx.Tx are used inside transaction blocks for
// pessimistic locking; a balance is never read-then-written outside one.
type WalletRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	GetByOwnerKey(ctx context.Context, ownerKey string) (*domain.Wallet, error)
	// GetOrCreate lazily creates the wallet for ownerKey with a zero
	// balance. Safe under concurrent callers (insert-on-conflict).
	GetOrCreate(ctx context.Context, ownerKey string) (*domain.Wallet, error)
	GetOrCreateTx(ctx context.Context, tx pgx.Tx, ownerKey string) (*domain.Wallet, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance decimal.Decimal) error
	// SumBalances returns the sum of every wallet balance in the system.
	SumBalances(ctx context.Context) (decimal.Decimal, error)
}

// TransactionRepository defines persistence operations for ledger
// transactions. Transactions are append-only: Update and Delete exist
// only to enforce the immutability contract and always fail.
type TransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	ListByWallet(ctx context.Context, walletID uuid.UUID, limit int) ([]domain.Transaction, error)
	// SumForOrder aggregates amounts of one type, tagged to an order,
	// on one wallet. Used by reconciliation.
	SumForOrder(ctx context.Context, orderID, walletID uuid.UUID, txType domain.TransactionType) (decimal.Decimal, error)
	// SumByType aggregates all amounts of one type across every wallet.
	SumByType(ctx context.Context, txType domain.TransactionType) (decimal.Decimal, error)
	// Update always fails with an immutable-record error.
	Update(ctx context.Context, t *domain.Transaction) error
	// Delete always fails with an immutable-record error.
	Delete(ctx context.Context, id uuid.UUID) error
}

// OrderRepository defines persistence operations for orders and their items.
type OrderRepository interface {
	// Create inserts the order and its line items. A unique-constraint
	// violation on idempotency_key is returned as-is for the caller to
	// absorb via re-fetch.
	Create(ctx context.Context, tx pgx.Tx, o *domain.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Order, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error)
	GetByIdempotencyKeyTx(ctx context.Context, tx pgx.Tx, key string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.OrderStatus) error
	MarkReversed(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
	ListCompletedIDs(ctx context.Context) ([]uuid.UUID, error)
}

// SnapshotRepository defines persistence for financial snapshots.
// Snapshots are immutable once written; there is no update.
type SnapshotRepository interface {
	Create(ctx context.Context, tx pgx.Tx, s *domain.FinancialSnapshot) error
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.FinancialSnapshot, error)
	ExistsForOrder(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) (bool, error)
	ListExportRows(ctx context.Context, start, end *time.Time) ([]SnapshotExportRow, error)
}

// SnapshotExportRow is one denormalized CSV export line.
type SnapshotExportRow struct {
	OrderID          uuid.UUID
	User             string
	Organization     string
	Stand            string
	TotalAmount      decimal.Decimal
	CommissionAmount decimal.Decimal
	NetAmount        decimal.Decimal
	CreatedAt        time.Time
}

// CatalogRepository is the read-only view of the commerce catalog that
// checkout depends on. Catalog CRUD lives outside this service.
type CatalogRepository interface {
	GetStandDetail(ctx context.Context, standID uuid.UUID) (*domain.StandDetail, error)
	GetProductsByStand(ctx context.Context, standID uuid.UUID) ([]domain.Product, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

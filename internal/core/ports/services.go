package ports

import (
	"context"
	"time"

	"komodo-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=services.go -destination=mocks/services.go -package=mocks

// IdempotencyCache is the Redis-layer idempotency check (fast path).
// The database unique constraint remains the source of truth.
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // Returns cached response JSON or nil
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// LedgerService is the wallet balance store: concurrency-safe debits and
// credits with an append-only transaction trail.
type LedgerService interface {
	GetOrCreateWallet(ctx context.Context, ownerKey string) (*domain.Wallet, error)
	// Debit subtracts amount from the wallet inside the caller's
	// transaction. The wallet row is re-read fresh under an exclusive
	// lock; fails when amount <= 0 or balance < amount.
	Debit(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount decimal.Decimal, orderID *uuid.UUID, description string) (*domain.Transaction, error)
	// Credit adds amount to the wallet inside the caller's transaction.
	// Fails when amount <= 0; no upper bound.
	Credit(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount decimal.Decimal, orderID *uuid.UUID, description string) (*domain.Transaction, error)
	// AddFunds is the privileged order-less credit used by admins.
	AddFunds(ctx context.Context, ownerKey string, amount decimal.Decimal, description string) (*domain.Wallet, error)
	ListTransactions(ctx context.Context, ownerKey string, limit int) ([]domain.Transaction, error)
}

// CheckoutRequest holds validated input for order creation.
type CheckoutRequest struct {
	UserID         uuid.UUID
	Role           domain.Role
	StandID        uuid.UUID
	Items          []CheckoutItem
	IdempotencyKey *string
	Notes          string
}

// CheckoutItem is one requested cart line.
type CheckoutItem struct {
	ProductID uuid.UUID
	Quantity  int
	UnitPrice decimal.Decimal
}

// CheckoutService turns a cart into a COMPLETED order with atomic
// multi-party settlement, exactly once per idempotency key.
type CheckoutService interface {
	Checkout(ctx context.Context, req CheckoutRequest) (*domain.Order, error)
}

// OrderService exposes the order state machine to the boundary layer.
type OrderService interface {
	GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	// UpdateStatus applies a status transition. Entering COMPLETED
	// creates the financial snapshot; COMPLETED -> CANCELLED runs the
	// compensating reversal. Both happen in the same atomic unit as the
	// status write.
	UpdateStatus(ctx context.Context, id uuid.UUID, to domain.OrderStatus) (*domain.Order, error)
}

// ReconcileResult is the verification outcome for a single order.
type ReconcileResult struct {
	OrderID uuid.UUID `json:"order_id"`
	IsValid bool      `json:"is_valid"`
	Errors  []string  `json:"errors"`
}

// ReconcileReport aggregates reconciliation over all COMPLETED orders.
type ReconcileReport struct {
	TotalOrdersChecked   int               `json:"total_orders_checked"`
	InconsistenciesFound int               `json:"inconsistencies_found"`
	Details              []ReconcileResult `json:"details"`
}

// BalanceReport is the global ledger invariant check output.
// Difference must be zero when the system is consistent.
type BalanceReport struct {
	WalletTotal decimal.Decimal `json:"wallet_total"`
	LedgerTotal decimal.Decimal `json:"ledger_total"`
	Difference  decimal.Decimal `json:"difference"`
	Error       string          `json:"error,omitempty"`
}

// AuditService builds financial snapshots, verifies ledger consistency
// and performs compensating reversals.
type AuditService interface {
	// CreateSnapshotTx writes the order's financial snapshot inside the
	// caller's transaction. Idempotent: a no-op when one already exists.
	CreateSnapshotTx(ctx context.Context, tx pgx.Tx, order *domain.Order) (*domain.FinancialSnapshot, error)
	// ReconcileOrder is read-only and never fails; all findings land in
	// the result's error list.
	ReconcileOrder(ctx context.Context, orderID uuid.UUID) ReconcileResult
	ReconcileAll(ctx context.Context) ReconcileReport
	// VerifyGlobalBalance is read-only and never fails.
	VerifyGlobalBalance(ctx context.Context) BalanceReport
	// ReverseOrderTx performs the compensating money movement inside the
	// caller's transaction. A no-op when the order is already reversed.
	ReverseOrderTx(ctx context.Context, tx pgx.Tx, order *domain.Order) error
	ExportRows(ctx context.Context, start, end *time.Time) ([]SnapshotExportRow, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	UserID uuid.UUID
	Role   domain.Role
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(userID uuid.UUID, role domain.Role) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

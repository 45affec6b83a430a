package postgres

import (
	"context"
	"errors"
	"fmt"

	"komodo-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// OrderRepo implements ports.OrderRepository.
type OrderRepo struct {
	pool Pool
}

// NewOrderRepo creates a new OrderRepo.
func NewOrderRepo(pool Pool) *OrderRepo {
	return &OrderRepo{pool: pool}
}

const orderColumns = `id, user_id, stand_id, status, total_amount, notes, idempotency_key, is_reversed, created_at, updated_at`

// Create inserts the order and its line items within a database
// transaction. A unique violation on idempotency_key propagates to the
// caller, which absorbs it by re-fetching the existing order.
func (r *OrderRepo) Create(ctx context.Context, tx pgx.Tx, o *domain.Order) error {
	query := `INSERT INTO orders (id, user_id, stand_id, status, total_amount, notes, idempotency_key, is_reversed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := tx.Exec(ctx, query,
		o.ID, o.UserID, o.StandID, o.Status, o.TotalAmount,
		o.Notes, o.IdempotencyKey, o.IsReversed, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	itemQuery := `INSERT INTO order_items (id, order_id, product_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5)`
	for i := range o.Items {
		it := &o.Items[i]
		if _, err := tx.Exec(ctx, itemQuery, it.ID, it.OrderID, it.ProductID, it.Quantity, it.UnitPrice); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

// GetByID fetches an order with its items.
func (r *OrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	o, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil || o == nil {
		return o, err
	}
	if err := r.loadItems(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// GetByIDForUpdate fetches an order with pessimistic locking.
// This MUST be called within a transaction.
func (r *OrderRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`
	return scanOrder(tx.QueryRow(ctx, query, id))
}

// GetByIdempotencyKey fetches an order by its idempotency key.
func (r *OrderRepo) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE idempotency_key = $1`
	o, err := scanOrder(r.pool.QueryRow(ctx, query, key))
	if err != nil || o == nil {
		return o, err
	}
	if err := r.loadItems(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// GetByIdempotencyKeyTx is GetByIdempotencyKey inside the caller's transaction.
func (r *OrderRepo) GetByIdempotencyKeyTx(ctx context.Context, tx pgx.Tx, key string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE idempotency_key = $1`
	return scanOrder(tx.QueryRow(ctx, query, key))
}

// UpdateStatus updates an order's status within a database transaction.
func (r *OrderRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.OrderStatus) error {
	query := `UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`

	tag, err := tx.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order not found: %s", id)
	}
	return nil
}

// MarkReversed flags the order as financially reversed.
func (r *OrderRepo) MarkReversed(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	query := `UPDATE orders SET is_reversed = TRUE, updated_at = NOW() WHERE id = $1`

	tag, err := tx.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("mark order reversed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order not found: %s", id)
	}
	return nil
}

// ListCompletedIDs returns the IDs of every COMPLETED order.
func (r *OrderRepo) ListCompletedIDs(ctx context.Context) ([]uuid.UUID, error) {
	query := `SELECT id FROM orders WHERE status = $1 ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, domain.OrderStatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("list completed orders: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan order id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order ids: %w", err)
	}
	return ids, nil
}

func (r *OrderRepo) loadItems(ctx context.Context, o *domain.Order) error {
	query := `SELECT id, order_id, product_id, quantity, unit_price
		FROM order_items WHERE order_id = $1`

	rows, err := r.pool.Query(ctx, query, o.ID)
	if err != nil {
		return fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		it := domain.OrderItem{}
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.UnitPrice); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		o.Items = append(o.Items, it)
	}
	return rows.Err()
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	o := &domain.Order{}
	err := row.Scan(
		&o.ID, &o.UserID, &o.StandID, &o.Status, &o.TotalAmount,
		&o.Notes, &o.IdempotencyKey, &o.IsReversed, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	return o, nil
}

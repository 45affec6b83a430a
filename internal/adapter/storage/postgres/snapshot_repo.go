package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"komodo-ledger/internal/core/domain"
	"komodo-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SnapshotRepo implements ports.SnapshotRepository. Snapshot rows carry a
// database trigger rejecting UPDATE and DELETE.
type SnapshotRepo struct {
	pool Pool
}

// NewSnapshotRepo creates a new SnapshotRepo.
func NewSnapshotRepo(pool Pool) *SnapshotRepo {
	return &SnapshotRepo{pool: pool}
}

// Create inserts a financial snapshot within a database transaction.
func (r *SnapshotRepo) Create(ctx context.Context, tx pgx.Tx, s *domain.FinancialSnapshot) error {
	query := `INSERT INTO financial_snapshots
		(id, order_id, total_amount, commission_amount, net_amount, organization_id, stand_id, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := tx.Exec(ctx, query,
		s.ID, s.OrderID, s.TotalAmount, s.CommissionAmount, s.NetAmount,
		s.OrganizationID, s.StandID, s.UserID, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// GetByOrderID fetches the snapshot for an order.
func (r *SnapshotRepo) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.FinancialSnapshot, error) {
	query := `SELECT id, order_id, total_amount, commission_amount, net_amount, organization_id, stand_id, user_id, created_at
		FROM financial_snapshots WHERE order_id = $1`

	s := &domain.FinancialSnapshot{}
	err := r.pool.QueryRow(ctx, query, orderID).Scan(
		&s.ID, &s.OrderID, &s.TotalAmount, &s.CommissionAmount, &s.NetAmount,
		&s.OrganizationID, &s.StandID, &s.UserID, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get snapshot by order: %w", err)
	}
	return s, nil
}

// ExistsForOrder checks for an existing snapshot inside a transaction.
func (r *SnapshotRepo) ExistsForOrder(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM financial_snapshots WHERE order_id = $1)`

	var exists bool
	if err := tx.QueryRow(ctx, query, orderID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check snapshot exists: %w", err)
	}
	return exists, nil
}

// ListExportRows returns denormalized snapshot rows for CSV export,
// optionally bounded by creation date.
func (r *SnapshotRepo) ListExportRows(ctx context.Context, start, end *time.Time) ([]ports.SnapshotExportRow, error) {
	query := `SELECT s.order_id, COALESCE(s.user_id::text, ''), COALESCE(o.name, ''), COALESCE(st.name, ''),
			s.total_amount, s.commission_amount, s.net_amount, s.created_at
		FROM financial_snapshots s
		LEFT JOIN organizations o ON o.id = s.organization_id
		LEFT JOIN stands st ON st.id = s.stand_id
		WHERE ($1::timestamptz IS NULL OR s.created_at >= $1)
		  AND ($2::timestamptz IS NULL OR s.created_at <= $2)
		ORDER BY s.created_at`

	rows, err := r.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("list export rows: %w", err)
	}
	defer rows.Close()

	var result []ports.SnapshotExportRow
	for rows.Next() {
		var row ports.SnapshotExportRow
		err := rows.Scan(&row.OrderID, &row.User, &row.Organization, &row.Stand,
			&row.TotalAmount, &row.CommissionAmount, &row.NetAmount, &row.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan export row: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate export rows: %w", err)
	}
	return result, nil
}

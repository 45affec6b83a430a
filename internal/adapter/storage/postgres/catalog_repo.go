package postgres

import (
	"context"
	"errors"
	"fmt"

	"komodo-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CatalogRepo implements ports.CatalogRepository over the catalog read model.
type CatalogRepo struct {
	pool Pool
}

// NewCatalogRepo creates a new CatalogRepo.
func NewCatalogRepo(pool Pool) *CatalogRepo {
	return &CatalogRepo{pool: pool}
}

// GetStandDetail resolves a stand together with its organization and the
// organization's commission rate. Returns nil when the stand does not exist.
func (r *CatalogRepo) GetStandDetail(ctx context.Context, standID uuid.UUID) (*domain.StandDetail, error) {
	query := `SELECT s.id, s.event_id, s.name, s.owner_id, o.id, COALESCE(o.commission_rate, 0)
		FROM stands s
		JOIN events e ON e.id = s.event_id
		LEFT JOIN organizations o ON o.id = e.organization_id
		WHERE s.id = $1`

	d := &domain.StandDetail{}
	err := r.pool.QueryRow(ctx, query, standID).Scan(
		&d.Stand.ID, &d.Stand.EventID, &d.Stand.Name, &d.Stand.OwnerID,
		&d.OrganizationID, &d.CommissionRate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stand detail: %w", err)
	}
	return d, nil
}

// GetProductsByStand lists the products sold at a stand.
func (r *CatalogRepo) GetProductsByStand(ctx context.Context, standID uuid.UUID) ([]domain.Product, error) {
	query := `SELECT id, stand_id, name, price, created_at
		FROM products WHERE stand_id = $1 ORDER BY name`

	rows, err := r.pool.Query(ctx, query, standID)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.StandID, &p.Name, &p.Price, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogRepo_GetStandDetail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewCatalogRepo(mock)
	standID := uuid.New()
	eventID := uuid.New()
	ownerID := uuid.New()
	orgID := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM stands s").
		WithArgs(standID).
		WillReturnRows(pgxmock.NewRows(
			[]string{"id", "event_id", "name", "owner_id", "org_id", "commission_rate"},
		).AddRow(standID, eventID, "Grill Corner", &ownerID, &orgID, decimal.RequireFromString("10.00")))

	detail, err := repo.GetStandDetail(context.Background(), standID)
	require.NoError(t, err)
	require.NotNil(t, detail)
	assert.Equal(t, standID, detail.Stand.ID)
	require.NotNil(t, detail.Stand.OwnerID)
	assert.Equal(t, ownerID, *detail.Stand.OwnerID)
	require.NotNil(t, detail.OrganizationID)
	assert.Equal(t, orgID, *detail.OrganizationID)
	assert.True(t, detail.CommissionRate.Equal(decimal.RequireFromString("10.00")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepo_GetStandDetail_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewCatalogRepo(mock)
	standID := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM stands s").
		WithArgs(standID).
		WillReturnRows(pgxmock.NewRows(
			[]string{"id", "event_id", "name", "owner_id", "org_id", "commission_rate"},
		))

	detail, err := repo.GetStandDetail(context.Background(), standID)
	require.NoError(t, err)
	assert.Nil(t, detail)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepo_GetProductsByStand(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewCatalogRepo(mock)
	standID := uuid.New()
	now := time.Now().UTC().Truncate(time.Microsecond)

	rows := pgxmock.NewRows([]string{"id", "stand_id", "name", "price", "created_at"}).
		AddRow(uuid.New(), standID, "Burger", decimal.RequireFromString("8.50"), now).
		AddRow(uuid.New(), standID, "Fries", decimal.RequireFromString("3.25"), now)

	mock.ExpectQuery("SELECT .+ FROM products WHERE stand_id").
		WithArgs(standID).
		WillReturnRows(rows)

	products, err := repo.GetProductsByStand(context.Background(), standID)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Burger", products[0].Name)
	assert.True(t, products[1].Price.Equal(decimal.RequireFromString("3.25")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

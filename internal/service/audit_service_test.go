package service

import (
	"context"
	"testing"

	"komodo-ledger/internal/core/domain"
	"komodo-ledger/internal/core/ports/mocks"
	"komodo-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type auditTestDeps struct {
	svc          *AuditServiceImpl
	snapshotRepo *mocks.MockSnapshotRepository
	orderRepo    *mocks.MockOrderRepository
	walletRepo   *mocks.MockWalletRepository
	txRepo       *mocks.MockTransactionRepository
	catalogRepo  *mocks.MockCatalogRepository
	ledger       *mocks.MockLedgerService
	ctrl         *gomock.Controller
}

func setupAuditService(t *testing.T) *auditTestDeps {
	ctrl := gomock.NewController(t)
	d := &auditTestDeps{
		snapshotRepo: mocks.NewMockSnapshotRepository(ctrl),
		orderRepo:    mocks.NewMockOrderRepository(ctrl),
		walletRepo:   mocks.NewMockWalletRepository(ctrl),
		txRepo:       mocks.NewMockTransactionRepository(ctrl),
		catalogRepo:  mocks.NewMockCatalogRepository(ctrl),
		ledger:       mocks.NewMockLedgerService(ctrl),
		ctrl:         ctrl,
	}
	d.svc = NewAuditService(
		d.snapshotRepo, d.orderRepo, d.walletRepo, d.txRepo,
		d.catalogRepo, d.ledger, zerolog.Nop(),
	)
	return d
}

// ==================== CreateSnapshotTx Tests ====================

func TestAuditService_CreateSnapshotTx_Success(t *testing.T) {
	d := setupAuditService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	orgID := uuid.New()
	ownerID := uuid.New()
	order := &domain.Order{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		StandID:     uuid.New(),
		Status:      domain.OrderStatusCompleted,
		TotalAmount: dec("100.00"),
	}
	detail := &domain.StandDetail{
		Stand:          domain.Stand{ID: order.StandID, OwnerID: &ownerID},
		OrganizationID: &orgID,
		CommissionRate: dec("10"),
	}

	d.snapshotRepo.EXPECT().ExistsForOrder(ctx, tx, order.ID).Return(false, nil)
	d.catalogRepo.EXPECT().GetStandDetail(ctx, order.StandID).Return(detail, nil)
	d.snapshotRepo.EXPECT().Create(ctx, tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ pgx.Tx, s *domain.FinancialSnapshot) error {
			assert.True(t, s.TotalAmount.Equal(dec("100.00")))
			assert.True(t, s.CommissionAmount.Equal(dec("10.00")))
			assert.True(t, s.NetAmount.Equal(dec("90.00")))
			require.NotNil(t, s.OrganizationID)
			assert.Equal(t, orgID, *s.OrganizationID)
			return nil
		})

	snapshot, err := d.svc.CreateSnapshotTx(ctx, tx, order)
	require.NoError(t, err)
	assert.True(t, snapshot.CommissionAmount.Add(snapshot.NetAmount).Equal(snapshot.TotalAmount))
}

func TestAuditService_CreateSnapshotTx_AlreadyExists(t *testing.T) {
	d := setupAuditService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	order := &domain.Order{ID: uuid.New(), TotalAmount: dec("50.00")}
	existing := &domain.FinancialSnapshot{ID: uuid.New(), OrderID: order.ID}

	d.snapshotRepo.EXPECT().ExistsForOrder(ctx, tx, order.ID).Return(true, nil)
	d.snapshotRepo.EXPECT().GetByOrderID(ctx, order.ID).Return(existing, nil)

	snapshot, err := d.svc.CreateSnapshotTx(ctx, tx, order)
	require.NoError(t, err)
	assert.Equal(t, existing.ID, snapshot.ID)
}

func TestAuditService_CreateSnapshotTx_UnknownStand_ZeroCommission(t *testing.T) {
	d := setupAuditService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	order := &domain.Order{ID: uuid.New(), StandID: uuid.New(), TotalAmount: dec("40.00")}

	d.snapshotRepo.EXPECT().ExistsForOrder(ctx, tx, order.ID).Return(false, nil)
	d.catalogRepo.EXPECT().GetStandDetail(ctx, order.StandID).Return(nil, nil)
	d.snapshotRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)

	snapshot, err := d.svc.CreateSnapshotTx(ctx, tx, order)
	require.NoError(t, err)
	assert.True(t, snapshot.CommissionAmount.IsZero())
	assert.True(t, snapshot.NetAmount.Equal(dec("40.00")))
}

// ==================== ReconcileOrder Tests ====================

type reconcileFixtureData struct {
	order          *domain.Order
	snapshot       *domain.FinancialSnapshot
	buyerWallet    *domain.Wallet
	platformWallet *domain.Wallet
	ownerID        uuid.UUID
	ownerWallet    *domain.Wallet
	detail         *domain.StandDetail
}

func reconcileFixture() reconcileFixtureData {
	orderID := uuid.New()
	userID := uuid.New()
	ownerID := uuid.New()
	standID := uuid.New()
	f := reconcileFixtureData{
		order: &domain.Order{
			ID:          orderID,
			UserID:      userID,
			StandID:     standID,
			Status:      domain.OrderStatusCompleted,
			TotalAmount: dec("100.00"),
			Items: []domain.OrderItem{
				{OrderID: orderID, ProductID: uuid.New(), Quantity: 2, UnitPrice: dec("50.00")},
			},
		},
		snapshot: &domain.FinancialSnapshot{
			OrderID:          orderID,
			TotalAmount:      dec("100.00"),
			CommissionAmount: dec("10.00"),
			NetAmount:        dec("90.00"),
		},
		buyerWallet:    &domain.Wallet{ID: uuid.New(), OwnerKey: domain.OwnerKeyForUser(userID)},
		platformWallet: &domain.Wallet{ID: uuid.New(), OwnerKey: domain.PlatformOwnerKey},
		ownerID:        ownerID,
		ownerWallet:    &domain.Wallet{ID: uuid.New(), OwnerKey: domain.OwnerKeyForUser(ownerID)},
	}
	f.detail = &domain.StandDetail{
		Stand:          domain.Stand{ID: standID, OwnerID: &ownerID},
		CommissionRate: dec("10"),
	}
	return f
}

// expectPartyCredits installs the platform and stand-owner credit trail
// expectations that follow the buyer-debit check.
func expectPartyCredits(ctx context.Context, d *auditTestDeps, f reconcileFixtureData, platformSum, ownerSum string) {
	d.walletRepo.EXPECT().GetByOwnerKey(ctx, domain.PlatformOwnerKey).Return(f.platformWallet, nil)
	d.txRepo.EXPECT().SumForOrder(ctx, f.order.ID, f.platformWallet.ID, domain.TransactionTypeCredit).Return(dec(platformSum), nil)
	d.catalogRepo.EXPECT().GetStandDetail(ctx, f.order.StandID).Return(f.detail, nil)
	d.walletRepo.EXPECT().GetByOwnerKey(ctx, f.ownerWallet.OwnerKey).Return(f.ownerWallet, nil)
	d.txRepo.EXPECT().SumForOrder(ctx, f.order.ID, f.ownerWallet.ID, domain.TransactionTypeCredit).Return(dec(ownerSum), nil)
}

func TestAuditService_ReconcileOrder_Valid(t *testing.T) {
	d := setupAuditService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	f := reconcileFixture()

	d.orderRepo.EXPECT().GetByID(ctx, f.order.ID).Return(f.order, nil)
	d.snapshotRepo.EXPECT().GetByOrderID(ctx, f.order.ID).Return(f.snapshot, nil)
	d.walletRepo.EXPECT().GetByOwnerKey(ctx, f.buyerWallet.OwnerKey).Return(f.buyerWallet, nil)
	d.txRepo.EXPECT().SumForOrder(ctx, f.order.ID, f.buyerWallet.ID, domain.TransactionTypeDebit).Return(dec("100.00"), nil)
	expectPartyCredits(ctx, d, f, "10.00", "90.00")

	result := d.svc.ReconcileOrder(ctx, f.order.ID)
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
}

func TestAuditService_ReconcileOrder_MissingSnapshot(t *testing.T) {
	d := setupAuditService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	f := reconcileFixture()

	d.orderRepo.EXPECT().GetByID(ctx, f.order.ID).Return(f.order, nil)
	d.snapshotRepo.EXPECT().GetByOrderID(ctx, f.order.ID).Return(nil, nil)

	result := d.svc.ReconcileOrder(ctx, f.order.ID)
	assert.False(t, result.IsValid)
	assert.Contains(t, result.Errors[0], "no financial snapshot")
}

func TestAuditService_ReconcileOrder_DebitMismatch(t *testing.T) {
	d := setupAuditService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	f := reconcileFixture()

	d.orderRepo.EXPECT().GetByID(ctx, f.order.ID).Return(f.order, nil)
	d.snapshotRepo.EXPECT().GetByOrderID(ctx, f.order.ID).Return(f.snapshot, nil)
	d.walletRepo.EXPECT().GetByOwnerKey(ctx, f.buyerWallet.OwnerKey).Return(f.buyerWallet, nil)
	d.txRepo.EXPECT().SumForOrder(ctx, f.order.ID, f.buyerWallet.ID, domain.TransactionTypeDebit).Return(dec("60.00"), nil)
	expectPartyCredits(ctx, d, f, "10.00", "90.00")

	result := d.svc.ReconcileOrder(ctx, f.order.ID)
	assert.False(t, result.IsValid)
	assert.Contains(t, result.Errors[0], "buyer debits")
}

func TestAuditService_ReconcileOrder_PlatformCreditMismatch(t *testing.T) {
	d := setupAuditService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	f := reconcileFixture()

	d.orderRepo.EXPECT().GetByID(ctx, f.order.ID).Return(f.order, nil)
	d.snapshotRepo.EXPECT().GetByOrderID(ctx, f.order.ID).Return(f.snapshot, nil)
	d.walletRepo.EXPECT().GetByOwnerKey(ctx, f.buyerWallet.OwnerKey).Return(f.buyerWallet, nil)
	d.txRepo.EXPECT().SumForOrder(ctx, f.order.ID, f.buyerWallet.ID, domain.TransactionTypeDebit).Return(dec("100.00"), nil)
	expectPartyCredits(ctx, d, f, "5.00", "90.00")

	result := d.svc.ReconcileOrder(ctx, f.order.ID)
	assert.False(t, result.IsValid)
	assert.Contains(t, result.Errors[0], "platform credits")
}

func TestAuditService_ReconcileOrder_OwnerCreditMismatch(t *testing.T) {
	d := setupAuditService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	f := reconcileFixture()

	d.orderRepo.EXPECT().GetByID(ctx, f.order.ID).Return(f.order, nil)
	d.snapshotRepo.EXPECT().GetByOrderID(ctx, f.order.ID).Return(f.snapshot, nil)
	d.walletRepo.EXPECT().GetByOwnerKey(ctx, f.buyerWallet.OwnerKey).Return(f.buyerWallet, nil)
	d.txRepo.EXPECT().SumForOrder(ctx, f.order.ID, f.buyerWallet.ID, domain.TransactionTypeDebit).Return(dec("100.00"), nil)
	expectPartyCredits(ctx, d, f, "10.00", "0")

	result := d.svc.ReconcileOrder(ctx, f.order.ID)
	assert.False(t, result.IsValid)
	assert.Contains(t, result.Errors[0], "owner credits")
}

func TestAuditService_ReconcileOrder_NoOwnerRequiresZeroNet(t *testing.T) {
	d := setupAuditService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	f := reconcileFixture()
	f.detail.Stand.OwnerID = nil

	d.orderRepo.EXPECT().GetByID(ctx, f.order.ID).Return(f.order, nil)
	d.snapshotRepo.EXPECT().GetByOrderID(ctx, f.order.ID).Return(f.snapshot, nil)
	d.walletRepo.EXPECT().GetByOwnerKey(ctx, f.buyerWallet.OwnerKey).Return(f.buyerWallet, nil)
	d.txRepo.EXPECT().SumForOrder(ctx, f.order.ID, f.buyerWallet.ID, domain.TransactionTypeDebit).Return(dec("100.00"), nil)
	d.walletRepo.EXPECT().GetByOwnerKey(ctx, domain.PlatformOwnerKey).Return(f.platformWallet, nil)
	d.txRepo.EXPECT().SumForOrder(ctx, f.order.ID, f.platformWallet.ID, domain.TransactionTypeCredit).Return(dec("10.00"), nil)
	d.catalogRepo.EXPECT().GetStandDetail(ctx, f.order.StandID).Return(f.detail, nil)

	result := d.svc.ReconcileOrder(ctx, f.order.ID)
	assert.False(t, result.IsValid)
	assert.Contains(t, result.Errors[0], "no stand owner")
}

func TestAuditService_ReconcileOrder_SelfPurchaseSkipsOwnerCredits(t *testing.T) {
	d := setupAuditService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	f := reconcileFixture()
	// The buyer owns the stand: the net leg never existed.
	f.detail.Stand.OwnerID = &f.order.UserID

	d.orderRepo.EXPECT().GetByID(ctx, f.order.ID).Return(f.order, nil)
	d.snapshotRepo.EXPECT().GetByOrderID(ctx, f.order.ID).Return(f.snapshot, nil)
	d.walletRepo.EXPECT().GetByOwnerKey(ctx, f.buyerWallet.OwnerKey).Return(f.buyerWallet, nil)
	d.txRepo.EXPECT().SumForOrder(ctx, f.order.ID, f.buyerWallet.ID, domain.TransactionTypeDebit).Return(dec("100.00"), nil)
	d.walletRepo.EXPECT().GetByOwnerKey(ctx, domain.PlatformOwnerKey).Return(f.platformWallet, nil)
	d.txRepo.EXPECT().SumForOrder(ctx, f.order.ID, f.platformWallet.ID, domain.TransactionTypeCredit).Return(dec("10.00"), nil)
	d.catalogRepo.EXPECT().GetStandDetail(ctx, f.order.StandID).Return(f.detail, nil)

	result := d.svc.ReconcileOrder(ctx, f.order.ID)
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
}

func TestAuditService_ReconcileOrder_NonCompletedIsInvalid(t *testing.T) {
	for _, status := range []domain.OrderStatus{
		domain.OrderStatusPending,
		domain.OrderStatusConfirmed,
		domain.OrderStatusCancelled,
	} {
		t.Run(string(status), func(t *testing.T) {
			d := setupAuditService(t)
			defer d.ctrl.Finish()

			ctx := context.Background()
			order := &domain.Order{ID: uuid.New(), Status: status}
			d.orderRepo.EXPECT().GetByID(ctx, order.ID).Return(order, nil)

			result := d.svc.ReconcileOrder(ctx, order.ID)
			assert.False(t, result.IsValid)
			require.Len(t, result.Errors, 1)
			assert.Contains(t, result.Errors[0], "not COMPLETED")
		})
	}
}

// ==================== VerifyGlobalBalance Tests ====================

func TestAuditService_VerifyGlobalBalance_Consistent(t *testing.T) {
	d := setupAuditService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.walletRepo.EXPECT().SumBalances(ctx).Return(dec("500.00"), nil)
	d.txRepo.EXPECT().SumByType(ctx, domain.TransactionTypeCredit).Return(dec("800.00"), nil)
	d.txRepo.EXPECT().SumByType(ctx, domain.TransactionTypeDebit).Return(dec("300.00"), nil)

	report := d.svc.VerifyGlobalBalance(ctx)
	assert.Empty(t, report.Error)
	assert.True(t, report.Difference.IsZero())
}

func TestAuditService_VerifyGlobalBalance_Drift(t *testing.T) {
	d := setupAuditService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.walletRepo.EXPECT().SumBalances(ctx).Return(dec("510.00"), nil)
	d.txRepo.EXPECT().SumByType(ctx, domain.TransactionTypeCredit).Return(dec("800.00"), nil)
	d.txRepo.EXPECT().SumByType(ctx, domain.TransactionTypeDebit).Return(dec("300.00"), nil)

	report := d.svc.VerifyGlobalBalance(ctx)
	assert.True(t, report.Difference.Equal(dec("10.00")))
}

// ==================== ReverseOrderTx Tests ====================

func TestAuditService_ReverseOrderTx_Success(t *testing.T) {
	d := setupAuditService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	ownerID := uuid.New()
	order := &domain.Order{
		ID:      uuid.New(),
		UserID:  uuid.New(),
		StandID: uuid.New(),
		Status:  domain.OrderStatusCompleted,
	}
	snapshot := &domain.FinancialSnapshot{
		OrderID:          order.ID,
		TotalAmount:      dec("100.00"),
		CommissionAmount: dec("10.00"),
		NetAmount:        dec("90.00"),
	}
	detail := &domain.StandDetail{Stand: domain.Stand{ID: order.StandID, OwnerID: &ownerID}}

	buyerWallet := &domain.Wallet{ID: uuid.New()}
	ownerWallet := &domain.Wallet{ID: uuid.New()}
	platformWallet := &domain.Wallet{ID: uuid.New()}

	d.snapshotRepo.EXPECT().GetByOrderID(ctx, order.ID).Return(snapshot, nil)
	d.walletRepo.EXPECT().GetOrCreateTx(ctx, tx, domain.OwnerKeyForUser(order.UserID)).Return(buyerWallet, nil)
	d.catalogRepo.EXPECT().GetStandDetail(ctx, order.StandID).Return(detail, nil)
	d.walletRepo.EXPECT().GetOrCreateTx(ctx, tx, domain.OwnerKeyForUser(ownerID)).Return(ownerWallet, nil)
	d.walletRepo.EXPECT().GetOrCreateTx(ctx, tx, domain.PlatformOwnerKey).Return(platformWallet, nil)
	d.ledger.EXPECT().Credit(ctx, tx, buyerWallet.ID, decEq("100.00"), gomock.Any(), gomock.Any()).Return(&domain.Transaction{}, nil)
	d.ledger.EXPECT().Debit(ctx, tx, ownerWallet.ID, decEq("90.00"), gomock.Any(), gomock.Any()).Return(&domain.Transaction{}, nil)
	d.ledger.EXPECT().Debit(ctx, tx, platformWallet.ID, decEq("10.00"), gomock.Any(), gomock.Any()).Return(&domain.Transaction{}, nil)
	d.orderRepo.EXPECT().MarkReversed(ctx, tx, order.ID).Return(nil)

	err := d.svc.ReverseOrderTx(ctx, tx, order)
	require.NoError(t, err)
}

func TestAuditService_ReverseOrderTx_SelfPurchase_SkipsOwnerDebit(t *testing.T) {
	d := setupAuditService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	buyerID := uuid.New()
	order := &domain.Order{
		ID:      uuid.New(),
		UserID:  buyerID,
		StandID: uuid.New(),
		Status:  domain.OrderStatusCompleted,
	}
	snapshot := &domain.FinancialSnapshot{
		OrderID:          order.ID,
		TotalAmount:      dec("100.00"),
		CommissionAmount: dec("10.00"),
		NetAmount:        dec("90.00"),
	}
	// The buyer owns the stand: no net was paid out at checkout, so the
	// reversal must not debit it back.
	detail := &domain.StandDetail{Stand: domain.Stand{ID: order.StandID, OwnerID: &buyerID}}

	buyerWallet := &domain.Wallet{ID: uuid.New()}
	platformWallet := &domain.Wallet{ID: uuid.New()}

	d.snapshotRepo.EXPECT().GetByOrderID(ctx, order.ID).Return(snapshot, nil)
	d.walletRepo.EXPECT().GetOrCreateTx(ctx, tx, domain.OwnerKeyForUser(buyerID)).Return(buyerWallet, nil)
	d.catalogRepo.EXPECT().GetStandDetail(ctx, order.StandID).Return(detail, nil)
	d.walletRepo.EXPECT().GetOrCreateTx(ctx, tx, domain.PlatformOwnerKey).Return(platformWallet, nil)
	d.ledger.EXPECT().Credit(ctx, tx, buyerWallet.ID, decEq("100.00"), gomock.Any(), gomock.Any()).Return(&domain.Transaction{}, nil)
	d.ledger.EXPECT().Debit(ctx, tx, platformWallet.ID, decEq("10.00"), gomock.Any(), gomock.Any()).Return(&domain.Transaction{}, nil)
	d.orderRepo.EXPECT().MarkReversed(ctx, tx, order.ID).Return(nil)

	err := d.svc.ReverseOrderTx(ctx, tx, order)
	require.NoError(t, err)
}

func TestAuditService_ReverseOrderTx_AlreadyReversed_NoOp(t *testing.T) {
	d := setupAuditService(t)
	defer d.ctrl.Finish()

	order := &domain.Order{ID: uuid.New(), IsReversed: true}
	err := d.svc.ReverseOrderTx(context.Background(), &mockTx{}, order)
	require.NoError(t, err)
}

func TestAuditService_ReverseOrderTx_MissingSnapshot(t *testing.T) {
	d := setupAuditService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	order := &domain.Order{ID: uuid.New()}
	d.snapshotRepo.EXPECT().GetByOrderID(ctx, order.ID).Return(nil, nil)

	err := d.svc.ReverseOrderTx(ctx, &mockTx{}, order)
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "AUD_001", appErr.Code)
}

func TestAuditService_ReverseOrderTx_InsufficientBalance(t *testing.T) {
	d := setupAuditService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	ownerID := uuid.New()
	order := &domain.Order{ID: uuid.New(), UserID: uuid.New(), StandID: uuid.New()}
	snapshot := &domain.FinancialSnapshot{
		OrderID:          order.ID,
		TotalAmount:      dec("100.00"),
		CommissionAmount: dec("10.00"),
		NetAmount:        dec("90.00"),
	}
	detail := &domain.StandDetail{Stand: domain.Stand{ID: order.StandID, OwnerID: &ownerID}}

	buyerWallet := &domain.Wallet{ID: uuid.New()}
	ownerWallet := &domain.Wallet{ID: uuid.New()}
	platformWallet := &domain.Wallet{ID: uuid.New()}

	d.snapshotRepo.EXPECT().GetByOrderID(ctx, order.ID).Return(snapshot, nil)
	d.walletRepo.EXPECT().GetOrCreateTx(ctx, tx, domain.OwnerKeyForUser(order.UserID)).Return(buyerWallet, nil)
	d.catalogRepo.EXPECT().GetStandDetail(ctx, order.StandID).Return(detail, nil)
	d.walletRepo.EXPECT().GetOrCreateTx(ctx, tx, domain.OwnerKeyForUser(ownerID)).Return(ownerWallet, nil)
	d.walletRepo.EXPECT().GetOrCreateTx(ctx, tx, domain.PlatformOwnerKey).Return(platformWallet, nil)

	// The stand owner spent the proceeds: any debit leg failing with
	// insufficient balance surfaces as a reversal failure.
	d.ledger.EXPECT().Credit(ctx, tx, buyerWallet.ID, gomock.Any(), gomock.Any(), gomock.Any()).Return(&domain.Transaction{}, nil).AnyTimes()
	d.ledger.EXPECT().Debit(ctx, tx, gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, apperror.ErrInsufficientBalance())

	err := d.svc.ReverseOrderTx(ctx, tx, order)
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "ORD_004", appErr.Code)
}

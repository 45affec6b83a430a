package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"komodo-ledger/internal/core/domain"
	"komodo-ledger/internal/core/ports"
	"komodo-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// AuditServiceImpl implements ports.AuditService: financial snapshots,
// ledger reconciliation and compensating reversals.
type AuditServiceImpl struct {
	snapshotRepo ports.SnapshotRepository
	orderRepo    ports.OrderRepository
	walletRepo   ports.WalletRepository
	txRepo       ports.TransactionRepository
	catalogRepo  ports.CatalogRepository
	ledger       ports.LedgerService
	log          zerolog.Logger
}

// NewAuditService creates a new AuditServiceImpl.
func NewAuditService(
	snapshotRepo ports.SnapshotRepository,
	orderRepo ports.OrderRepository,
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	catalogRepo ports.CatalogRepository,
	ledger ports.LedgerService,
	log zerolog.Logger,
) *AuditServiceImpl {
	return &AuditServiceImpl{
		snapshotRepo: snapshotRepo,
		orderRepo:    orderRepo,
		walletRepo:   walletRepo,
		txRepo:       txRepo,
		catalogRepo:  catalogRepo,
		ledger:       ledger,
		log:          log,
	}
}

// CreateSnapshotTx writes the order's financial snapshot inside the
// caller's transaction. A no-op when a snapshot already exists.
func (s *AuditServiceImpl) CreateSnapshotTx(ctx context.Context, tx pgx.Tx, order *domain.Order) (*domain.FinancialSnapshot, error) {
	exists, err := s.snapshotRepo.ExistsForOrder(ctx, tx, order.ID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check snapshot exists: %w", err))
	}
	if exists {
		return s.snapshotRepo.GetByOrderID(ctx, order.ID)
	}

	detail, err := s.catalogRepo.GetStandDetail(ctx, order.StandID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("resolve stand: %w", err))
	}

	rate := decimal.Zero
	var orgID *uuid.UUID
	if detail != nil {
		rate = detail.CommissionRate
		orgID = detail.OrganizationID
	}
	commission, net := domain.SplitAmount(order.TotalAmount, rate)

	standID := order.StandID
	userID := order.UserID
	snapshot := &domain.FinancialSnapshot{
		ID:               uuid.New(),
		OrderID:          order.ID,
		TotalAmount:      order.TotalAmount,
		CommissionAmount: commission,
		NetAmount:        net,
		OrganizationID:   orgID,
		StandID:          &standID,
		UserID:           &userID,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.snapshotRepo.Create(ctx, tx, snapshot); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create snapshot: %w", err))
	}

	s.log.Info().
		Str("order_id", order.ID.String()).
		Str("total", snapshot.TotalAmount.String()).
		Str("commission", snapshot.CommissionAmount.String()).
		Str("net", snapshot.NetAmount.String()).
		Msg("financial snapshot created")

	return snapshot, nil
}

// ReconcileOrder verifies a single order against its snapshot, its line
// items and the ledger trail. Read-only; all findings land in the
// result's error list.
func (s *AuditServiceImpl) ReconcileOrder(ctx context.Context, orderID uuid.UUID) ports.ReconcileResult {
	result := ports.ReconcileResult{OrderID: orderID, IsValid: true}
	fail := func(format string, args ...interface{}) {
		result.IsValid = false
		result.Errors = append(result.Errors, fmt.Sprintf(format, args...))
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		fail("load order: %v", err)
		return result
	}
	if order == nil {
		fail("order not found")
		return result
	}
	if order.Status != domain.OrderStatusCompleted {
		fail("order not COMPLETED")
		return result
	}

	itemTotal := decimal.Zero
	for i := range order.Items {
		itemTotal = itemTotal.Add(order.Items[i].Subtotal())
	}
	if !itemTotal.Equal(order.TotalAmount) {
		fail("item subtotals %s do not match order total %s", itemTotal, order.TotalAmount)
	}

	snapshot, err := s.snapshotRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		fail("load snapshot: %v", err)
		return result
	}
	if snapshot == nil {
		fail("no financial snapshot for completed order")
		return result
	}
	if !snapshot.TotalAmount.Equal(order.TotalAmount) {
		fail("snapshot total %s does not match order total %s", snapshot.TotalAmount, order.TotalAmount)
	}
	if !snapshot.CommissionAmount.Add(snapshot.NetAmount).Equal(snapshot.TotalAmount) {
		fail("commission %s + net %s does not equal total %s",
			snapshot.CommissionAmount, snapshot.NetAmount, snapshot.TotalAmount)
	}

	// The buyer's debit trail must account for the full order amount;
	// reversed orders carry an offsetting credit on the same wallet.
	buyerWallet, err := s.walletRepo.GetByOwnerKey(ctx, domain.OwnerKeyForUser(order.UserID))
	if err != nil {
		fail("load buyer wallet: %v", err)
		return result
	}
	if buyerWallet == nil {
		fail("buyer wallet missing")
		return result
	}
	debited, err := s.txRepo.SumForOrder(ctx, orderID, buyerWallet.ID, domain.TransactionTypeDebit)
	if err != nil {
		fail("sum buyer debits: %v", err)
		return result
	}
	if !debited.Equal(order.TotalAmount) {
		fail("buyer debits %s do not match order total %s", debited, order.TotalAmount)
	}
	if order.IsReversed {
		credited, err := s.txRepo.SumForOrder(ctx, orderID, buyerWallet.ID, domain.TransactionTypeCredit)
		if err != nil {
			fail("sum buyer credits: %v", err)
			return result
		}
		if !credited.Equal(order.TotalAmount) {
			fail("reversed order credited %s back instead of %s", credited, order.TotalAmount)
		}
	}

	// The platform's credit trail must account for the commission.
	if snapshot.CommissionAmount.GreaterThan(decimal.Zero) {
		platformWallet, err := s.walletRepo.GetByOwnerKey(ctx, domain.PlatformOwnerKey)
		switch {
		case err != nil:
			fail("load platform wallet: %v", err)
		case platformWallet == nil:
			fail("platform wallet missing despite commission %s", snapshot.CommissionAmount)
		default:
			credited, err := s.txRepo.SumForOrder(ctx, orderID, platformWallet.ID, domain.TransactionTypeCredit)
			if err != nil {
				fail("sum platform credits: %v", err)
			} else if !credited.Equal(snapshot.CommissionAmount) {
				fail("platform credits %s do not match commission %s", credited, snapshot.CommissionAmount)
			}
		}
	}

	// The stand owner's credit trail must account for the net amount.
	// Without an owner no net may exist; a self-purchase pays out none.
	detail, err := s.catalogRepo.GetStandDetail(ctx, order.StandID)
	switch {
	case err != nil:
		fail("resolve stand: %v", err)
	case detail == nil || detail.Stand.OwnerID == nil:
		if !snapshot.NetAmount.IsZero() {
			fail("no stand owner but snapshot net amount is %s", snapshot.NetAmount)
		}
	case *detail.Stand.OwnerID == order.UserID:
		// Self-purchase: the net leg was intentionally skipped.
	default:
		ownerWallet, err := s.walletRepo.GetByOwnerKey(ctx, domain.OwnerKeyForUser(*detail.Stand.OwnerID))
		switch {
		case err != nil:
			fail("load owner wallet: %v", err)
		case ownerWallet == nil:
			if snapshot.NetAmount.GreaterThan(decimal.Zero) {
				fail("owner wallet missing despite net amount %s", snapshot.NetAmount)
			}
		default:
			credited, err := s.txRepo.SumForOrder(ctx, orderID, ownerWallet.ID, domain.TransactionTypeCredit)
			if err != nil {
				fail("sum owner credits: %v", err)
			} else if !credited.Equal(snapshot.NetAmount) {
				fail("owner credits %s do not match net amount %s", credited, snapshot.NetAmount)
			}
		}
	}

	return result
}

// ReconcileAll reconciles every COMPLETED order.
func (s *AuditServiceImpl) ReconcileAll(ctx context.Context) ports.ReconcileReport {
	report := ports.ReconcileReport{Details: []ports.ReconcileResult{}}

	ids, err := s.orderRepo.ListCompletedIDs(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("listing completed orders for reconciliation")
		return report
	}

	for _, id := range ids {
		result := s.ReconcileOrder(ctx, id)
		report.TotalOrdersChecked++
		if !result.IsValid {
			report.InconsistenciesFound++
		}
		report.Details = append(report.Details, result)
	}
	return report
}

// VerifyGlobalBalance checks the system-wide invariant: the sum of all
// wallet balances equals total credits minus total debits.
func (s *AuditServiceImpl) VerifyGlobalBalance(ctx context.Context) ports.BalanceReport {
	report := ports.BalanceReport{}

	walletTotal, err := s.walletRepo.SumBalances(ctx)
	if err != nil {
		report.Error = fmt.Sprintf("sum wallet balances: %v", err)
		return report
	}
	credits, err := s.txRepo.SumByType(ctx, domain.TransactionTypeCredit)
	if err != nil {
		report.Error = fmt.Sprintf("sum credits: %v", err)
		return report
	}
	debits, err := s.txRepo.SumByType(ctx, domain.TransactionTypeDebit)
	if err != nil {
		report.Error = fmt.Sprintf("sum debits: %v", err)
		return report
	}

	report.WalletTotal = walletTotal
	report.LedgerTotal = credits.Sub(debits)
	report.Difference = walletTotal.Sub(report.LedgerTotal)
	return report
}

// reversalMove is one compensating balance movement.
type reversalMove struct {
	walletID uuid.UUID
	credit   bool
	amount   decimal.Decimal
	desc     string
}

// ReverseOrderTx performs the compensating money movement for a
// COMPLETED order inside the caller's transaction: the buyer gets the
// total back, the stand owner and the platform give up net and
// commission. Wallets are locked in ascending wallet-ID order so
// concurrent reversals cannot deadlock. A no-op when already reversed.
func (s *AuditServiceImpl) ReverseOrderTx(ctx context.Context, tx pgx.Tx, order *domain.Order) error {
	if order.IsReversed {
		return nil
	}

	snapshot, err := s.snapshotRepo.GetByOrderID(ctx, order.ID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("load snapshot: %w", err))
	}
	if snapshot == nil {
		return apperror.ErrSnapshotMissing()
	}

	buyerWallet, err := s.walletRepo.GetOrCreateTx(ctx, tx, domain.OwnerKeyForUser(order.UserID))
	if err != nil {
		return apperror.InternalError(fmt.Errorf("resolve buyer wallet: %w", err))
	}

	orderID := order.ID
	moves := []reversalMove{
		{buyerWallet.ID, true, snapshot.TotalAmount, fmt.Sprintf("Reversal refund for order %s", order.ID)},
	}

	if snapshot.NetAmount.GreaterThan(decimal.Zero) {
		detail, err := s.catalogRepo.GetStandDetail(ctx, order.StandID)
		if err != nil {
			return apperror.InternalError(fmt.Errorf("resolve stand: %w", err))
		}
		if detail == nil || detail.Stand.OwnerID == nil {
			return apperror.ErrReversalFailed("stand owner no longer resolvable")
		}
		// A self-purchase never paid out the net, so there is nothing
		// to take back from the owner.
		if *detail.Stand.OwnerID != order.UserID {
			ownerWallet, err := s.walletRepo.GetOrCreateTx(ctx, tx, domain.OwnerKeyForUser(*detail.Stand.OwnerID))
			if err != nil {
				return apperror.InternalError(fmt.Errorf("resolve owner wallet: %w", err))
			}
			moves = append(moves, reversalMove{
				ownerWallet.ID, false, snapshot.NetAmount,
				fmt.Sprintf("Reversal of net proceeds for order %s", order.ID),
			})
		}
	}

	if snapshot.CommissionAmount.GreaterThan(decimal.Zero) {
		platformWallet, err := s.walletRepo.GetOrCreateTx(ctx, tx, domain.PlatformOwnerKey)
		if err != nil {
			return apperror.InternalError(fmt.Errorf("resolve platform wallet: %w", err))
		}
		moves = append(moves, reversalMove{
			platformWallet.ID, false, snapshot.CommissionAmount,
			fmt.Sprintf("Reversal of commission for order %s", order.ID),
		})
	}

	// Deterministic lock order across concurrent reversals.
	sort.Slice(moves, func(i, j int) bool {
		return bytes.Compare(moves[i].walletID[:], moves[j].walletID[:]) < 0
	})

	for _, m := range moves {
		if m.credit {
			_, err = s.ledger.Credit(ctx, tx, m.walletID, m.amount, &orderID, m.desc)
		} else {
			_, err = s.ledger.Debit(ctx, tx, m.walletID, m.amount, &orderID, m.desc)
		}
		if err != nil {
			var appErr *apperror.AppError
			if errors.As(err, &appErr) && appErr.Code == apperror.CodeInsufficientBalance {
				return apperror.ErrReversalFailed("insufficient balance to reverse settlement")
			}
			return err
		}
	}

	if err := s.orderRepo.MarkReversed(ctx, tx, order.ID); err != nil {
		return apperror.InternalError(fmt.Errorf("mark order reversed: %w", err))
	}

	s.log.Info().
		Str("order_id", order.ID.String()).
		Str("total", snapshot.TotalAmount.String()).
		Msg("order settlement reversed")

	return nil
}

// ExportRows returns the denormalized snapshot rows for CSV export.
func (s *AuditServiceImpl) ExportRows(ctx context.Context, start, end *time.Time) ([]ports.SnapshotExportRow, error) {
	rows, err := s.snapshotRepo.ListExportRows(ctx, start, end)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list export rows: %w", err))
	}
	return rows, nil
}

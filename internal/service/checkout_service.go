package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"komodo-ledger/internal/core/domain"
	"komodo-ledger/internal/core/ports"
	"komodo-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	checkoutCacheTTL  = 24 * time.Hour
	pgUniqueViolation = "23505"
)

// CheckoutServiceImpl implements ports.CheckoutService: it turns a cart
// into a COMPLETED order with atomic multi-party settlement, exactly once
// per idempotency key. The orders.idempotency_key unique constraint is
// the source of truth; Redis is only a fast path over it.
type CheckoutServiceImpl struct {
	orderRepo   ports.OrderRepository
	walletRepo  ports.WalletRepository
	catalogRepo ports.CatalogRepository
	ledger      ports.LedgerService
	audit       ports.AuditService
	idemCache   ports.IdempotencyCache
	transactor  ports.DBTransactor
	log         zerolog.Logger
}

// NewCheckoutService creates a new CheckoutServiceImpl.
func NewCheckoutService(
	orderRepo ports.OrderRepository,
	walletRepo ports.WalletRepository,
	catalogRepo ports.CatalogRepository,
	ledger ports.LedgerService,
	audit ports.AuditService,
	idemCache ports.IdempotencyCache,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *CheckoutServiceImpl {
	return &CheckoutServiceImpl{
		orderRepo:   orderRepo,
		walletRepo:  walletRepo,
		catalogRepo: catalogRepo,
		ledger:      ledger,
		audit:       audit,
		idemCache:   idemCache,
		transactor:  transactor,
		log:         log,
	}
}

// Checkout processes a cart. On any failure nothing is persisted: the
// order, the ledger entries and the balance changes commit together or
// not at all.
func (s *CheckoutServiceImpl) Checkout(ctx context.Context, req ports.CheckoutRequest) (*domain.Order, error) {
	if !req.Role.CanPlaceOrders() {
		return nil, apperror.ErrForbidden("place orders")
	}
	if len(req.Items) == 0 {
		return nil, apperror.ErrEmptyOrder()
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, apperror.Validation("item quantity must be positive")
		}
		if item.UnitPrice.IsNegative() {
			return nil, apperror.Validation("item unit price must not be negative")
		}
	}

	// Resolve the stand and its product catalog. The catalog is used to
	// verify every cart line belongs to the stand; the charged price is
	// the cart's unit price.
	detail, err := s.catalogRepo.GetStandDetail(ctx, req.StandID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("resolve stand: %w", err))
	}
	if detail == nil {
		return nil, apperror.ErrNotFound("stand")
	}
	products, err := s.catalogRepo.GetProductsByStand(ctx, req.StandID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list stand products: %w", err))
	}
	standProducts := make(map[uuid.UUID]struct{}, len(products))
	for _, p := range products {
		standProducts[p.ID] = struct{}{}
	}

	total := decimal.Zero
	orderID := uuid.New()
	items := make([]domain.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		if _, ok := standProducts[item.ProductID]; !ok {
			return nil, apperror.ErrNotFound("product")
		}
		line := domain.OrderItem{
			ID:        uuid.New(),
			OrderID:   orderID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.Round(2),
		}
		total = total.Add(line.Subtotal())
		items = append(items, line)
	}
	total = total.Round(2)
	if total.LessThanOrEqual(decimal.Zero) {
		return nil, apperror.ErrEmptyOrder()
	}

	// Layer 1: Redis idempotency check
	if req.IdempotencyKey != nil {
		cached, err := s.idemCache.Get(ctx, *req.IdempotencyKey)
		if err != nil {
			s.log.Warn().Err(err).Str("key", *req.IdempotencyKey).Msg("redis idempotency check failed, falling through to DB")
		}
		if cached != nil {
			return s.unmarshalCachedOrder(cached)
		}

		// Layer 2: DB idempotency check
		existing, err := s.orderRepo.GetByIdempotencyKey(ctx, *req.IdempotencyKey)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("db idempotency check: %w", err))
		}
		if existing != nil {
			return existing, nil
		}
	}

	commission, net := domain.SplitAmount(total, detail.CommissionRate)
	now := time.Now().UTC()
	order := &domain.Order{
		ID:             orderID,
		UserID:         req.UserID,
		StandID:        req.StandID,
		Status:         domain.OrderStatusPending,
		TotalAmount:    total,
		Notes:          req.Notes,
		IdempotencyKey: req.IdempotencyKey,
		Items:          items,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	// Re-check the key inside the transaction: a competing checkout may
	// have committed between the read above and Begin.
	if req.IdempotencyKey != nil {
		existing, err := s.orderRepo.GetByIdempotencyKeyTx(ctx, dbTx, *req.IdempotencyKey)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("tx idempotency check: %w", err))
		}
		if existing != nil {
			return existing, nil
		}
	}

	if err := s.orderRepo.Create(ctx, dbTx, order); err != nil {
		// A concurrent checkout with the same key won the insert race.
		// The unique index made us wait for its commit, so the winning
		// order is visible by now.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && req.IdempotencyKey != nil {
			dbTx.Rollback(ctx) //nolint:errcheck
			existing, fetchErr := s.orderRepo.GetByIdempotencyKey(ctx, *req.IdempotencyKey)
			if fetchErr != nil {
				return nil, apperror.InternalError(fmt.Errorf("fetch winning order: %w", fetchErr))
			}
			if existing != nil {
				return existing, nil
			}
		}
		return nil, apperror.InternalError(fmt.Errorf("create order: %w", err))
	}

	// Settlement: the buyer pays the full amount, then the stand owner
	// and the platform receive their shares. The debit locks and
	// re-reads the buyer's wallet, so the funds check is race-free.
	buyerWallet, err := s.walletRepo.GetOrCreateTx(ctx, dbTx, domain.OwnerKeyForUser(req.UserID))
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("resolve buyer wallet: %w", err))
	}
	if _, err := s.ledger.Debit(ctx, dbTx, buyerWallet.ID, total, &orderID,
		fmt.Sprintf("Payment for order %s", orderID)); err != nil {
		return nil, err
	}

	type creditMove struct {
		walletID uuid.UUID
		amount   decimal.Decimal
		desc     string
	}
	var credits []creditMove
	// A stand owner buying from their own stand is not paid back the net:
	// the proceeds leg only exists when the owner is a distinct party.
	if detail.Stand.OwnerID != nil && *detail.Stand.OwnerID != req.UserID && net.GreaterThan(decimal.Zero) {
		ownerWallet, err := s.walletRepo.GetOrCreateTx(ctx, dbTx, domain.OwnerKeyForUser(*detail.Stand.OwnerID))
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("resolve owner wallet: %w", err))
		}
		credits = append(credits, creditMove{
			ownerWallet.ID, net,
			fmt.Sprintf("Net proceeds for order %s", orderID),
		})
	}
	if commission.GreaterThan(decimal.Zero) {
		platformWallet, err := s.walletRepo.GetOrCreateTx(ctx, dbTx, domain.PlatformOwnerKey)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("resolve platform wallet: %w", err))
		}
		credits = append(credits, creditMove{
			platformWallet.ID, commission,
			fmt.Sprintf("Commission for order %s", orderID),
		})
	}
	// Deterministic lock order for the credit legs.
	sort.Slice(credits, func(i, j int) bool {
		return bytes.Compare(credits[i].walletID[:], credits[j].walletID[:]) < 0
	})
	for _, c := range credits {
		if _, err := s.ledger.Credit(ctx, dbTx, c.walletID, c.amount, &orderID, c.desc); err != nil {
			return nil, err
		}
	}

	if err := s.orderRepo.UpdateStatus(ctx, dbTx, orderID, domain.OrderStatusCompleted); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("complete order: %w", err))
	}
	order.Status = domain.OrderStatusCompleted

	if _, err := s.audit.CreateSnapshotTx(ctx, dbTx, order); err != nil {
		return nil, err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	// Post-process: cache in Redis (best-effort)
	if req.IdempotencyKey != nil {
		respJSON, err := json.Marshal(order)
		if err == nil {
			if err := s.idemCache.Set(ctx, *req.IdempotencyKey, respJSON, checkoutCacheTTL); err != nil {
				s.log.Warn().Err(err).Str("key", *req.IdempotencyKey).Msg("failed to cache checkout response in redis")
			}
		}
	}

	s.log.Info().
		Str("order_id", orderID.String()).
		Str("user_id", req.UserID.String()).
		Str("stand_id", req.StandID.String()).
		Str("total", total.String()).
		Str("commission", commission.String()).
		Msg("checkout completed")

	return order, nil
}

// unmarshalCachedOrder deserializes a cached checkout response.
func (s *CheckoutServiceImpl) unmarshalCachedOrder(data []byte) (*domain.Order, error) {
	order := &domain.Order{}
	if err := json.Unmarshal(data, order); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("unmarshal cached order: %w", err))
	}
	return order, nil
}

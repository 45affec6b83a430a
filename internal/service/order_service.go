package service

import (
	"context"
	"fmt"

	"komodo-ledger/internal/core/domain"
	"komodo-ledger/internal/core/ports"
	"komodo-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// OrderServiceImpl implements ports.OrderService: the order state
// machine with its financial side effects.
type OrderServiceImpl struct {
	orderRepo  ports.OrderRepository
	audit      ports.AuditService
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewOrderService creates a new OrderServiceImpl.
func NewOrderService(
	orderRepo ports.OrderRepository,
	audit ports.AuditService,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *OrderServiceImpl {
	return &OrderServiceImpl{
		orderRepo:  orderRepo,
		audit:      audit,
		transactor: transactor,
		log:        log,
	}
}

// GetOrder fetches an order with its line items.
func (s *OrderServiceImpl) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get order: %w", err))
	}
	if order == nil {
		return nil, apperror.ErrNotFound("order")
	}
	return order, nil
}

// UpdateStatus applies a status transition. The order row is locked for
// the duration so concurrent transitions serialize; the status write and
// its side effects (snapshot on COMPLETED, reversal on COMPLETED ->
// CANCELLED) commit together or not at all.
func (s *OrderServiceImpl) UpdateStatus(ctx context.Context, id uuid.UUID, to domain.OrderStatus) (*domain.Order, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	order, err := s.orderRepo.GetByIDForUpdate(ctx, dbTx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock order: %w", err))
	}
	if order == nil {
		return nil, apperror.ErrNotFound("order")
	}

	from := order.Status
	if from == to {
		return order, nil
	}
	if !domain.ValidTransition(from, to) {
		return nil, apperror.ErrInvalidTransition(string(from), string(to))
	}

	if from == domain.OrderStatusCompleted && to == domain.OrderStatusCancelled {
		if err := s.audit.ReverseOrderTx(ctx, dbTx, order); err != nil {
			return nil, err
		}
		order.IsReversed = true
	}

	if err := s.orderRepo.UpdateStatus(ctx, dbTx, id, to); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update status: %w", err))
	}
	order.Status = to

	if to == domain.OrderStatusCompleted {
		if _, err := s.audit.CreateSnapshotTx(ctx, dbTx, order); err != nil {
			return nil, err
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("order_id", id.String()).
		Str("from", string(from)).
		Str("to", string(to)).
		Msg("order status updated")

	return order, nil
}

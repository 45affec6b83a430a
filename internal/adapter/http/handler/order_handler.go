package handler

import (
	"komodo-ledger/internal/adapter/http/dto"
	"komodo-ledger/internal/adapter/http/middleware"
	"komodo-ledger/internal/core/domain"
	"komodo-ledger/internal/core/ports"
	"komodo-ledger/pkg/apperror"
	"komodo-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderHandler handles checkout and order lifecycle endpoints.
type OrderHandler struct {
	checkoutSvc ports.CheckoutService
	orderSvc    ports.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(checkoutSvc ports.CheckoutService, orderSvc ports.OrderService) *OrderHandler {
	return &OrderHandler{checkoutSvc: checkoutSvc, orderSvc: orderSvc}
}

// Checkout handles POST /api/v1/orders.
func (h *OrderHandler) Checkout(c *gin.Context) {
	userID, role, ok := callerIdentity(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	standID, err := uuid.Parse(req.StandID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid stand_id"))
		return
	}

	items := make([]ports.CheckoutItem, 0, len(req.Items))
	for _, item := range req.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			response.Error(c, apperror.Validation("invalid product_id"))
			return
		}
		unitPrice, err := decimal.NewFromString(item.UnitPrice)
		if err != nil {
			response.Error(c, apperror.Validation("invalid unit_price"))
			return
		}
		items = append(items, ports.CheckoutItem{
			ProductID: productID,
			Quantity:  item.Quantity,
			UnitPrice: unitPrice,
		})
	}

	var idemKey *string
	if key := c.GetHeader("Idempotency-Key"); key != "" {
		idemKey = &key
	}

	order, err := h.checkoutSvc.Checkout(c.Request.Context(), ports.CheckoutRequest{
		UserID:         userID,
		Role:           role,
		StandID:        standID,
		Items:          items,
		IdempotencyKey: idemKey,
		Notes:          req.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toOrderResponse(order))
}

// GetOrder handles GET /api/v1/orders/:id.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID, role, ok := callerIdentity(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid order id"))
		return
	}

	order, err := h.orderSvc.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if order.UserID != userID && !role.CanManageOrders() {
		response.Error(c, apperror.ErrForbidden("view this order"))
		return
	}

	response.OK(c, toOrderResponse(order))
}

// UpdateStatus handles PATCH /api/v1/orders/:id.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid order id"))
		return
	}

	var req dto.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	order, err := h.orderSvc.UpdateStatus(c.Request.Context(), orderID, domain.OrderStatus(req.Status))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toOrderResponse(order))
}

// callerIdentity extracts the authenticated user and role set by JWTAuth.
func callerIdentity(c *gin.Context) (uuid.UUID, domain.Role, bool) {
	rawID, ok := c.Get(middleware.CtxUserID)
	if !ok {
		return uuid.Nil, "", false
	}
	rawRole, ok := c.Get(middleware.CtxRole)
	if !ok {
		return uuid.Nil, "", false
	}
	return rawID.(uuid.UUID), rawRole.(domain.Role), true
}

// toOrderResponse converts domain.Order to DTO.
func toOrderResponse(order *domain.Order) dto.OrderResponse {
	resp := dto.OrderResponse{
		ID:          order.ID.String(),
		UserID:      order.UserID.String(),
		StandID:     order.StandID.String(),
		Status:      string(order.Status),
		TotalAmount: order.TotalAmount,
		Notes:       order.Notes,
		IsReversed:  order.IsReversed,
		CreatedAt:   order.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	for i := range order.Items {
		item := &order.Items[i]
		resp.Items = append(resp.Items, dto.OrderItemResponse{
			ProductID: item.ProductID.String(),
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Subtotal:  item.Subtotal(),
		})
	}
	return resp
}

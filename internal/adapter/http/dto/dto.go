package dto

import "github.com/shopspring/decimal"

// CheckoutItemRequest is one cart line in a checkout request. UnitPrice
// is a decimal string; zero is allowed for giveaway items.
type CheckoutItemRequest struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
	UnitPrice string `json:"unit_price" binding:"required,decimal_amount"`
}

// CheckoutRequest is the request body for order creation. The
// idempotency key travels in the Idempotency-Key header, not the body.
type CheckoutRequest struct {
	StandID string                `json:"stand_id" binding:"required,uuid"`
	Items   []CheckoutItemRequest `json:"items" binding:"required,min=1,dive"`
	Notes   string                `json:"notes" binding:"max=500"`
}

// UpdateOrderStatusRequest is the request body for a status transition.
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=PENDING CONFIRMED COMPLETED CANCELLED"`
}

// AddFundsRequest is the request body for the privileged wallet credit.
// Amount is a decimal string to avoid float rounding on the wire.
type AddFundsRequest struct {
	UserID      string `json:"user_id" binding:"required,uuid"`
	Amount      string `json:"amount" binding:"required,decimal_amount"`
	Description string `json:"description" binding:"max=255"`
}

// OrderItemResponse is one purchased line in an order response.
type OrderItemResponse struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// OrderResponse is the response body for order operations.
type OrderResponse struct {
	ID          string              `json:"id"`
	UserID      string              `json:"user_id"`
	StandID     string              `json:"stand_id"`
	Status      string              `json:"status"`
	TotalAmount decimal.Decimal     `json:"total_amount"`
	Notes       string              `json:"notes,omitempty"`
	IsReversed  bool                `json:"is_reversed"`
	Items       []OrderItemResponse `json:"items,omitempty"`
	CreatedAt   string              `json:"created_at"`
}

// WalletResponse is the response body for wallet queries.
type WalletResponse struct {
	ID       string          `json:"id"`
	OwnerKey string          `json:"owner_key"`
	Balance  decimal.Decimal `json:"balance"`
	Currency string          `json:"currency"`
}

// TransactionResponse is one ledger entry in a transaction listing.
type TransactionResponse struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	OrderID     *string         `json:"order_id,omitempty"`
	Description string          `json:"description"`
	CreatedAt   string          `json:"created_at"`
}

// TransactionListResponse wraps a transaction listing.
type TransactionListResponse struct {
	Items []TransactionResponse `json:"items"`
	Total int                   `json:"total"`
}

package handler

import (
	"strconv"

	"komodo-ledger/internal/adapter/http/dto"
	"komodo-ledger/internal/core/domain"
	"komodo-ledger/internal/core/ports"
	"komodo-ledger/pkg/apperror"
	"komodo-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	defaultTransactionLimit = 50
	maxTransactionLimit     = 200
)

// WalletHandler handles wallet endpoints.
type WalletHandler struct {
	ledgerSvc ports.LedgerService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(ledgerSvc ports.LedgerService) *WalletHandler {
	return &WalletHandler{ledgerSvc: ledgerSvc}
}

// GetMyWallet handles GET /api/v1/wallet/me. Creates the wallet lazily
// on first access.
func (h *WalletHandler) GetMyWallet(c *gin.Context) {
	userID, _, ok := callerIdentity(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	wallet, err := h.ledgerSvc.GetOrCreateWallet(c.Request.Context(), domain.OwnerKeyForUser(userID))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toWalletResponse(wallet))
}

// ListTransactions handles GET /api/v1/wallet/transactions.
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	userID, _, ok := callerIdentity(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	limit := defaultTransactionLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			response.Error(c, apperror.Validation("limit must be a positive integer"))
			return
		}
		if n > maxTransactionLimit {
			n = maxTransactionLimit
		}
		limit = n
	}

	txns, err := h.ledgerSvc.ListTransactions(c.Request.Context(), domain.OwnerKeyForUser(userID), limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.TransactionResponse, 0, len(txns))
	for i := range txns {
		items = append(items, toTransactionResponse(&txns[i]))
	}
	response.OK(c, dto.TransactionListResponse{Items: items, Total: len(items)})
}

// AddFunds handles POST /api/v1/wallet/add-funds. Restricted to admin
// roles by router middleware.
func (h *WalletHandler) AddFunds(c *gin.Context) {
	var req dto.AddFundsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	targetUser, err := uuid.Parse(req.UserID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid user_id"))
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		response.Error(c, apperror.Validation("invalid amount"))
		return
	}

	description := req.Description
	if description == "" {
		description = "Funds added by administrator"
	}

	wallet, err := h.ledgerSvc.AddFunds(c.Request.Context(), domain.OwnerKeyForUser(targetUser), amount, description)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toWalletResponse(wallet))
}

// toWalletResponse converts domain.Wallet to DTO.
func toWalletResponse(w *domain.Wallet) dto.WalletResponse {
	return dto.WalletResponse{
		ID:       w.ID.String(),
		OwnerKey: w.OwnerKey,
		Balance:  w.Balance,
		Currency: w.Currency,
	}
}

// toTransactionResponse converts domain.Transaction to DTO.
func toTransactionResponse(t *domain.Transaction) dto.TransactionResponse {
	resp := dto.TransactionResponse{
		ID:          t.ID.String(),
		Amount:      t.Amount,
		Type:        string(t.Type),
		Description: t.Description,
		CreatedAt:   t.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if t.OrderID != nil {
		s := t.OrderID.String()
		resp.OrderID = &s
	}
	return resp
}

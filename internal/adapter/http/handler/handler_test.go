package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"komodo-ledger/internal/adapter/http/dto"
	"komodo-ledger/internal/adapter/http/middleware"
	"komodo-ledger/internal/core/domain"
	"komodo-ledger/internal/core/ports"
	"komodo-ledger/internal/core/ports/mocks"
	"komodo-ledger/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func authedContext(w *httptest.ResponseRecorder, userID uuid.UUID, role domain.Role) *gin.Context {
	c, _ := gin.CreateTestContext(w)
	c.Set(middleware.CtxUserID, userID)
	c.Set(middleware.CtxRole, role)
	return c
}

// --- Order Handler Tests ---

func TestCheckout_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCheckout := mocks.NewMockCheckoutService(ctrl)
	mockOrder := mocks.NewMockOrderService(ctrl)
	h := NewOrderHandler(mockCheckout, mockOrder)

	userID := uuid.New()
	standID := uuid.New()
	productID := uuid.New()
	orderID := uuid.New()

	mockCheckout.EXPECT().Checkout(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ interface{}, req ports.CheckoutRequest) (*domain.Order, error) {
			assert.Equal(t, userID, req.UserID)
			assert.Equal(t, standID, req.StandID)
			require.Len(t, req.Items, 1)
			assert.Equal(t, productID, req.Items[0].ProductID)
			assert.Equal(t, 2, req.Items[0].Quantity)
			assert.True(t, req.Items[0].UnitPrice.Equal(decimal.RequireFromString("8.50")))
			require.NotNil(t, req.IdempotencyKey)
			assert.Equal(t, "order-key-1", *req.IdempotencyKey)
			return &domain.Order{
				ID:          orderID,
				UserID:      userID,
				StandID:     standID,
				Status:      domain.OrderStatusCompleted,
				TotalAmount: decimal.RequireFromString("17.00"),
				CreatedAt:   time.Now(),
			}, nil
		})

	body, _ := json.Marshal(dto.CheckoutRequest{
		StandID: standID.String(),
		Items: []dto.CheckoutItemRequest{
			{ProductID: productID.String(), Quantity: 2, UnitPrice: "8.50"},
		},
	})

	w := httptest.NewRecorder()
	c := authedContext(w, userID, domain.RoleUser)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Request.Header.Set("Idempotency-Key", "order-key-1")

	h.Checkout(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, orderID.String(), data["id"])
	assert.Equal(t, "COMPLETED", data["status"])
}

func TestCheckout_EmptyItems(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCheckout := mocks.NewMockCheckoutService(ctrl)
	mockOrder := mocks.NewMockOrderService(ctrl)
	h := NewOrderHandler(mockCheckout, mockOrder)

	body, _ := json.Marshal(dto.CheckoutRequest{
		StandID: uuid.New().String(),
		Items:   []dto.CheckoutItemRequest{},
	})

	w := httptest.NewRecorder()
	c := authedContext(w, uuid.New(), domain.RoleUser)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Checkout(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckout_InvalidStandID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCheckout := mocks.NewMockCheckoutService(ctrl)
	mockOrder := mocks.NewMockOrderService(ctrl)
	h := NewOrderHandler(mockCheckout, mockOrder)

	body, _ := json.Marshal(dto.CheckoutRequest{
		StandID: "not-a-uuid",
		Items: []dto.CheckoutItemRequest{
			{ProductID: uuid.New().String(), Quantity: 1, UnitPrice: "3.00"},
		},
	})

	w := httptest.NewRecorder()
	c := authedContext(w, uuid.New(), domain.RoleUser)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Checkout(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckout_InsufficientBalance(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCheckout := mocks.NewMockCheckoutService(ctrl)
	mockOrder := mocks.NewMockOrderService(ctrl)
	h := NewOrderHandler(mockCheckout, mockOrder)

	mockCheckout.EXPECT().Checkout(gomock.Any(), gomock.Any()).Return(nil, apperror.ErrInsufficientBalance())

	body, _ := json.Marshal(dto.CheckoutRequest{
		StandID: uuid.New().String(),
		Items: []dto.CheckoutItemRequest{
			{ProductID: uuid.New().String(), Quantity: 1, UnitPrice: "3.00"},
		},
	})

	w := httptest.NewRecorder()
	c := authedContext(w, uuid.New(), domain.RoleUser)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Checkout(c)

	assert.Equal(t, http.StatusPaymentRequired, w.Code)
}

func TestCheckout_Unauthenticated(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCheckout := mocks.NewMockCheckoutService(ctrl)
	mockOrder := mocks.NewMockOrderService(ctrl)
	h := NewOrderHandler(mockCheckout, mockOrder)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

	h.Checkout(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetOrder_Owner(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCheckout := mocks.NewMockCheckoutService(ctrl)
	mockOrder := mocks.NewMockOrderService(ctrl)
	h := NewOrderHandler(mockCheckout, mockOrder)

	userID := uuid.New()
	orderID := uuid.New()
	mockOrder.EXPECT().GetOrder(gomock.Any(), orderID).Return(&domain.Order{
		ID:          orderID,
		UserID:      userID,
		StandID:     uuid.New(),
		Status:      domain.OrderStatusCompleted,
		TotalAmount: decimal.RequireFromString("25.50"),
	}, nil)

	w := httptest.NewRecorder()
	c := authedContext(w, userID, domain.RoleUser)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: orderID.String()}}

	h.GetOrder(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetOrder_ForbiddenForStranger(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCheckout := mocks.NewMockCheckoutService(ctrl)
	mockOrder := mocks.NewMockOrderService(ctrl)
	h := NewOrderHandler(mockCheckout, mockOrder)

	orderID := uuid.New()
	mockOrder.EXPECT().GetOrder(gomock.Any(), orderID).Return(&domain.Order{
		ID:     orderID,
		UserID: uuid.New(), // someone else's order
	}, nil)

	w := httptest.NewRecorder()
	c := authedContext(w, uuid.New(), domain.RoleUser)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: orderID.String()}}

	h.GetOrder(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGetOrder_AdminSeesAnyOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCheckout := mocks.NewMockCheckoutService(ctrl)
	mockOrder := mocks.NewMockOrderService(ctrl)
	h := NewOrderHandler(mockCheckout, mockOrder)

	orderID := uuid.New()
	mockOrder.EXPECT().GetOrder(gomock.Any(), orderID).Return(&domain.Order{
		ID:     orderID,
		UserID: uuid.New(),
	}, nil)

	w := httptest.NewRecorder()
	c := authedContext(w, uuid.New(), domain.RoleStandAdmin)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: orderID.String()}}

	h.GetOrder(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUpdateStatus_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCheckout := mocks.NewMockCheckoutService(ctrl)
	mockOrder := mocks.NewMockOrderService(ctrl)
	h := NewOrderHandler(mockCheckout, mockOrder)

	orderID := uuid.New()
	mockOrder.EXPECT().UpdateStatus(gomock.Any(), orderID, domain.OrderStatusCancelled).Return(&domain.Order{
		ID:         orderID,
		UserID:     uuid.New(),
		Status:     domain.OrderStatusCancelled,
		IsReversed: true,
	}, nil)

	body, _ := json.Marshal(dto.UpdateOrderStatusRequest{Status: "CANCELLED"})

	w := httptest.NewRecorder()
	c := authedContext(w, uuid.New(), domain.RoleStandAdmin)
	c.Request = httptest.NewRequest(http.MethodPatch, "/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: orderID.String()}}

	h.UpdateStatus(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "CANCELLED", data["status"])
	assert.Equal(t, true, data["is_reversed"])
}

func TestUpdateStatus_InvalidStatusValue(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCheckout := mocks.NewMockCheckoutService(ctrl)
	mockOrder := mocks.NewMockOrderService(ctrl)
	h := NewOrderHandler(mockCheckout, mockOrder)

	body := []byte(`{"status":"SHIPPED"}`)

	w := httptest.NewRecorder()
	c := authedContext(w, uuid.New(), domain.RoleStandAdmin)
	c.Request = httptest.NewRequest(http.MethodPatch, "/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: uuid.New().String()}}

	h.UpdateStatus(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateStatus_InvalidTransition(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCheckout := mocks.NewMockCheckoutService(ctrl)
	mockOrder := mocks.NewMockOrderService(ctrl)
	h := NewOrderHandler(mockCheckout, mockOrder)

	orderID := uuid.New()
	mockOrder.EXPECT().UpdateStatus(gomock.Any(), orderID, domain.OrderStatusPending).
		Return(nil, apperror.ErrInvalidTransition("CANCELLED", "PENDING"))

	body, _ := json.Marshal(dto.UpdateOrderStatusRequest{Status: "PENDING"})

	w := httptest.NewRecorder()
	c := authedContext(w, uuid.New(), domain.RoleStandAdmin)
	c.Request = httptest.NewRequest(http.MethodPatch, "/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: orderID.String()}}

	h.UpdateStatus(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- Wallet Handler Tests ---

func TestGetMyWallet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mocks.NewMockLedgerService(ctrl)
	h := NewWalletHandler(mockLedger)

	userID := uuid.New()
	mockLedger.EXPECT().GetOrCreateWallet(gomock.Any(), domain.OwnerKeyForUser(userID)).Return(&domain.Wallet{
		ID:       uuid.New(),
		OwnerKey: domain.OwnerKeyForUser(userID),
		Balance:  decimal.RequireFromString("50.00"),
		Currency: domain.DefaultCurrency,
	}, nil)

	w := httptest.NewRecorder()
	c := authedContext(w, userID, domain.RoleUser)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	h.GetMyWallet(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "50", data["balance"])
}

func TestListTransactions_DefaultLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mocks.NewMockLedgerService(ctrl)
	h := NewWalletHandler(mockLedger)

	userID := uuid.New()
	mockLedger.EXPECT().ListTransactions(gomock.Any(), domain.OwnerKeyForUser(userID), defaultTransactionLimit).
		Return([]domain.Transaction{
			{
				ID:        uuid.New(),
				Amount:    decimal.RequireFromString("10.00"),
				Type:      domain.TransactionTypeCredit,
				CreatedAt: time.Now(),
			},
		}, nil)

	w := httptest.NewRecorder()
	c := authedContext(w, userID, domain.RoleUser)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	h.ListTransactions(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	items := data["items"].([]interface{})
	assert.Len(t, items, 1)
	assert.Equal(t, float64(1), data["total"])
}

func TestListTransactions_InvalidLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mocks.NewMockLedgerService(ctrl)
	h := NewWalletHandler(mockLedger)

	w := httptest.NewRecorder()
	c := authedContext(w, uuid.New(), domain.RoleUser)
	c.Request = httptest.NewRequest(http.MethodGet, "/?limit=-3", nil)

	h.ListTransactions(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListTransactions_LimitCapped(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mocks.NewMockLedgerService(ctrl)
	h := NewWalletHandler(mockLedger)

	userID := uuid.New()
	mockLedger.EXPECT().ListTransactions(gomock.Any(), domain.OwnerKeyForUser(userID), maxTransactionLimit).
		Return([]domain.Transaction{}, nil)

	w := httptest.NewRecorder()
	c := authedContext(w, userID, domain.RoleUser)
	c.Request = httptest.NewRequest(http.MethodGet, "/?limit=9999", nil)

	h.ListTransactions(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAddFunds_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mocks.NewMockLedgerService(ctrl)
	h := NewWalletHandler(mockLedger)

	targetUser := uuid.New()
	mockLedger.EXPECT().AddFunds(gomock.Any(), domain.OwnerKeyForUser(targetUser),
		gomock.Any(), "Festival entry top-up").
		DoAndReturn(func(_ interface{}, ownerKey string, amount decimal.Decimal, _ string) (*domain.Wallet, error) {
			assert.True(t, amount.Equal(decimal.RequireFromString("25.00")))
			return &domain.Wallet{
				ID:       uuid.New(),
				OwnerKey: ownerKey,
				Balance:  decimal.RequireFromString("25.00"),
				Currency: domain.DefaultCurrency,
			}, nil
		})

	body, _ := json.Marshal(dto.AddFundsRequest{
		UserID:      targetUser.String(),
		Amount:      "25.00",
		Description: "Festival entry top-up",
	})

	w := httptest.NewRecorder()
	c := authedContext(w, uuid.New(), domain.RoleEventAdmin)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.AddFunds(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAddFunds_InvalidAmount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mocks.NewMockLedgerService(ctrl)
	h := NewWalletHandler(mockLedger)

	body := []byte(`{"user_id":"` + uuid.New().String() + `","amount":"12.345"}`)

	w := httptest.NewRecorder()
	c := authedContext(w, uuid.New(), domain.RoleEventAdmin)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.AddFunds(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- Audit Handler Tests ---

func TestReconcile_SingleOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAudit := mocks.NewMockAuditService(ctrl)
	h := NewAuditHandler(mockAudit)

	orderID := uuid.New()
	mockAudit.EXPECT().ReconcileOrder(gomock.Any(), orderID).Return(ports.ReconcileResult{
		OrderID: orderID,
		IsValid: true,
	})

	w := httptest.NewRecorder()
	c := authedContext(w, uuid.New(), domain.RoleEventAdmin)
	c.Request = httptest.NewRequest(http.MethodGet, "/?order_id="+orderID.String(), nil)

	h.Reconcile(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, true, data["is_valid"])
}

func TestReconcile_AllOrders(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAudit := mocks.NewMockAuditService(ctrl)
	h := NewAuditHandler(mockAudit)

	mockAudit.EXPECT().ReconcileAll(gomock.Any()).Return(ports.ReconcileReport{
		TotalOrdersChecked:   3,
		InconsistenciesFound: 1,
		Details:              []ports.ReconcileResult{},
	})

	w := httptest.NewRecorder()
	c := authedContext(w, uuid.New(), domain.RoleEventAdmin)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	h.Reconcile(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(3), data["total_orders_checked"])
	assert.Equal(t, float64(1), data["inconsistencies_found"])
}

func TestBalance_Report(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAudit := mocks.NewMockAuditService(ctrl)
	h := NewAuditHandler(mockAudit)

	mockAudit.EXPECT().VerifyGlobalBalance(gomock.Any()).Return(ports.BalanceReport{
		WalletTotal: decimal.RequireFromString("500.00"),
		LedgerTotal: decimal.RequireFromString("500.00"),
		Difference:  decimal.Zero,
	})

	w := httptest.NewRecorder()
	c := authedContext(w, uuid.New(), domain.RoleSuperAdmin)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	h.Balance(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestExport_CSV(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAudit := mocks.NewMockAuditService(ctrl)
	h := NewAuditHandler(mockAudit)

	orderID := uuid.New()
	mockAudit.EXPECT().ExportRows(gomock.Any(), gomock.Nil(), gomock.Nil()).Return([]ports.SnapshotExportRow{
		{
			OrderID:          orderID,
			User:             "user-1",
			Organization:     "Komodo Festivals",
			Stand:            "Grill Corner",
			TotalAmount:      decimal.RequireFromString("100.00"),
			CommissionAmount: decimal.RequireFromString("10.00"),
			NetAmount:        decimal.RequireFromString("90.00"),
			CreatedAt:        time.Now(),
		},
	}, nil)

	w := httptest.NewRecorder()
	c := authedContext(w, uuid.New(), domain.RoleEventAdmin)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	h.Export(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "financial_snapshots.csv")
	assert.Contains(t, w.Body.String(), "order_id,user,organization,stand")
	assert.Contains(t, w.Body.String(), orderID.String())
	assert.Contains(t, w.Body.String(), "100.00,10.00,90.00")
}

func TestExport_InvalidDate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAudit := mocks.NewMockAuditService(ctrl)
	h := NewAuditHandler(mockAudit)

	w := httptest.NewRecorder()
	c := authedContext(w, uuid.New(), domain.RoleEventAdmin)
	c.Request = httptest.NewRequest(http.MethodGet, "/?start_date=notadate", nil)

	h.Export(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- Health Check Tests ---

type stubChecker struct {
	name string
	err  error
}

func (s stubChecker) Ping(_ context.Context) error { return s.err }
func (s stubChecker) Name() string                 { return s.name }

func TestHealthCheck_AllHealthy(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	HealthCheck(stubChecker{name: "postgresql"}, stubChecker{name: "redis"})(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
}

func TestHealthCheck_Degraded(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	HealthCheck(
		stubChecker{name: "postgresql"},
		stubChecker{name: "redis", err: assert.AnError},
	)(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp["status"])
}

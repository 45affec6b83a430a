package handler

import (
	"encoding/csv"
	"net/http"
	"time"

	"komodo-ledger/internal/core/ports"
	"komodo-ledger/pkg/apperror"
	"komodo-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuditHandler handles reconciliation and export endpoints.
type AuditHandler struct {
	auditSvc ports.AuditService
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(auditSvc ports.AuditService) *AuditHandler {
	return &AuditHandler{auditSvc: auditSvc}
}

// Reconcile handles GET /api/v1/audit/reconcile. With an order_id query
// parameter it checks a single order, otherwise every completed order.
func (h *AuditHandler) Reconcile(c *gin.Context) {
	if raw := c.Query("order_id"); raw != "" {
		orderID, err := uuid.Parse(raw)
		if err != nil {
			response.Error(c, apperror.Validation("invalid order_id"))
			return
		}
		response.OK(c, h.auditSvc.ReconcileOrder(c.Request.Context(), orderID))
		return
	}

	response.OK(c, h.auditSvc.ReconcileAll(c.Request.Context()))
}

// Balance handles GET /api/v1/audit/balance — the global ledger
// invariant check.
func (h *AuditHandler) Balance(c *gin.Context) {
	response.OK(c, h.auditSvc.VerifyGlobalBalance(c.Request.Context()))
}

// Export handles GET /api/v1/audit/export — financial snapshots as CSV,
// optionally bounded by start and end dates (RFC 3339 or YYYY-MM-DD).
func (h *AuditHandler) Export(c *gin.Context) {
	start, err := parseTimeQuery(c.Query("start_date"), false)
	if err != nil {
		response.Error(c, apperror.Validation("invalid start date"))
		return
	}
	end, err := parseTimeQuery(c.Query("end_date"), true)
	if err != nil {
		response.Error(c, apperror.Validation("invalid end date"))
		return
	}

	rows, err := h.auditSvc.ExportRows(c.Request.Context(), start, end)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="financial_snapshots.csv"`)
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"order_id", "user", "organization", "stand", "total_amount", "commission_amount", "net_amount", "created_at"})
	for _, row := range rows {
		_ = w.Write([]string{
			row.OrderID.String(),
			row.User,
			row.Organization,
			row.Stand,
			row.TotalAmount.StringFixed(2),
			row.CommissionAmount.StringFixed(2),
			row.NetAmount.StringFixed(2),
			row.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	w.Flush()
}

// parseTimeQuery parses a date query parameter. A bare date expands to
// the end of day for upper bounds.
func parseTimeQuery(raw string, endOfDay bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FinancialSnapshot fixes an order's financial breakdown the moment the
// order becomes COMPLETED. Exactly one snapshot exists per order and it is
// never updated; TotalAmount always equals CommissionAmount + NetAmount.
// Organization, stand and user references are denormalized so the snapshot
// survives later removal of its owners.
type FinancialSnapshot struct {
	ID               uuid.UUID       `json:"id"`
	OrderID          uuid.UUID       `json:"order_id"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
	NetAmount        decimal.Decimal `json:"net_amount"`
	OrganizationID   *uuid.UUID      `json:"organization_id,omitempty"`
	StandID          *uuid.UUID      `json:"stand_id,omitempty"`
	UserID           *uuid.UUID      `json:"user_id,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// SplitAmount computes the commission retained by the platform for a
// given total, rounded to 2 decimal places, and the net amount owed to
// the stand. rate is a percentage between 0 and 100.
func SplitAmount(total, rate decimal.Decimal) (commission, net decimal.Decimal) {
	commission = total.Mul(rate).Div(decimal.NewFromInt(100)).Round(2)
	net = total.Sub(commission)
	return commission, net
}

package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestValidTransition(t *testing.T) {
	tests := []struct {
		name string
		from OrderStatus
		to   OrderStatus
		want bool
	}{
		{"pending to confirmed", OrderStatusPending, OrderStatusConfirmed, true},
		{"pending to completed", OrderStatusPending, OrderStatusCompleted, true},
		{"pending to cancelled", OrderStatusPending, OrderStatusCancelled, true},
		{"confirmed to completed", OrderStatusConfirmed, OrderStatusCompleted, true},
		{"confirmed to cancelled", OrderStatusConfirmed, OrderStatusCancelled, true},
		{"confirmed to pending", OrderStatusConfirmed, OrderStatusPending, false},
		{"completed to cancelled", OrderStatusCompleted, OrderStatusCancelled, true},
		{"completed to pending", OrderStatusCompleted, OrderStatusPending, false},
		{"completed to confirmed", OrderStatusCompleted, OrderStatusConfirmed, false},
		{"cancelled to pending", OrderStatusCancelled, OrderStatusPending, false},
		{"cancelled to completed", OrderStatusCancelled, OrderStatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidTransition(tt.from, tt.to))
		})
	}
}

func TestOrderItem_Subtotal(t *testing.T) {
	item := &OrderItem{
		Quantity:  3,
		UnitPrice: decimal.RequireFromString("8.50"),
	}
	assert.True(t, item.Subtotal().Equal(decimal.RequireFromString("25.50")))
}

func TestSplitAmount(t *testing.T) {
	tests := []struct {
		name       string
		total      string
		rate       string
		commission string
		net        string
	}{
		{"ten percent", "100.00", "10", "10.00", "90.00"},
		{"zero rate", "100.00", "0", "0.00", "100.00"},
		{"full rate", "50.00", "100", "50.00", "0.00"},
		{"rounding down", "10.01", "2.5", "0.25", "9.76"},
		{"rounding up", "33.33", "15", "5.00", "28.33"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			commission, net := SplitAmount(
				decimal.RequireFromString(tt.total),
				decimal.RequireFromString(tt.rate),
			)
			assert.True(t, commission.Equal(decimal.RequireFromString(tt.commission)),
				"commission %s != %s", commission, tt.commission)
			assert.True(t, net.Equal(decimal.RequireFromString(tt.net)),
				"net %s != %s", net, tt.net)
			assert.True(t, commission.Add(net).Equal(decimal.RequireFromString(tt.total)))
		})
	}
}

func TestTransaction_Signed(t *testing.T) {
	amount := decimal.RequireFromString("42.00")

	credit := &Transaction{Type: TransactionTypeCredit, Amount: amount}
	assert.True(t, credit.Signed().Equal(amount))

	debit := &Transaction{Type: TransactionTypeDebit, Amount: amount}
	assert.True(t, debit.Signed().Equal(amount.Neg()))
}

func TestOwnerKeyForUser(t *testing.T) {
	userID := uuid.New()
	key := OwnerKeyForUser(userID)
	assert.Contains(t, key, userID.String())
	assert.NotEqual(t, PlatformOwnerKey, key)
}

func TestRole_Capabilities(t *testing.T) {
	tests := []struct {
		role         Role
		manageOrders bool
		addFunds     bool
		audit        bool
	}{
		{RoleUser, false, false, false},
		{RoleStandAdmin, true, false, false},
		{RoleEventAdmin, false, true, true},
		{RoleSuperAdmin, true, true, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.manageOrders, tt.role.CanManageOrders())
			assert.Equal(t, tt.addFunds, tt.role.CanAddFunds())
			assert.Equal(t, tt.audit, tt.role.CanAudit())
		})
	}
}

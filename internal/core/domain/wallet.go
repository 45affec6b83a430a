package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlatformOwnerKey identifies the platform commission wallet. It is a
// well-known account resolved through the same get-or-create API as any
// user wallet, not a process-global singleton.
const PlatformOwnerKey = "platform"

// DefaultCurrency is the currency assigned to lazily created wallets.
const DefaultCurrency = "USD"

// Wallet holds the balance for one owner (a user or the platform).
// Balance is a fixed-point decimal with 2 fractional digits and is never
// negative; it is mutated only by debit/credit inside a row-locked
// database transaction. Wallets are created lazily and never deleted.
type Wallet struct {
	ID        uuid.UUID       `json:"id"`
	OwnerKey  string          `json:"owner_key"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// OwnerKeyForUser builds the wallet owner key for a user.
func OwnerKeyForUser(userID uuid.UUID) string {
	return "user:" + userID.String()
}

package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType represents the direction of a balance movement.
type TransactionType string

const (
	TransactionTypeCredit TransactionType = "CREDIT"
	TransactionTypeDebit  TransactionType = "DEBIT"
)

// Transaction is an immutable ledger entry: CREDIT adds to the wallet
// balance, DEBIT subtracts. A transaction row is written in the same
// atomic unit as the balance mutation it records and is never updated or
// deleted afterwards; reversals are new compensating transactions.
type Transaction struct {
	ID          uuid.UUID       `json:"id"`
	WalletID    uuid.UUID       `json:"wallet_id"`
	Amount      decimal.Decimal `json:"amount"` // always positive
	Type        TransactionType `json:"type"`
	OrderID     *uuid.UUID      `json:"order_id,omitempty"` // nil for order-less movements (add-funds)
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Signed returns the amount with its ledger sign applied.
func (t *Transaction) Signed() decimal.Decimal {
	if t.Type == TransactionTypeDebit {
		return t.Amount.Neg()
	}
	return t.Amount
}

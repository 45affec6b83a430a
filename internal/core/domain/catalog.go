package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Role is the capability carried by an authenticated caller.
type Role string

const (
	RoleUser       Role = "USER"
	RoleStandAdmin Role = "STAND_ADMIN"
	RoleEventAdmin Role = "EVENT_ADMIN"
	RoleSuperAdmin Role = "SUPERADMIN"
)

// CanPlaceOrders reports whether the role carries the buyer capability.
// Every recognized role can buy; an unknown role cannot.
func (r Role) CanPlaceOrders() bool {
	switch r {
	case RoleUser, RoleStandAdmin, RoleEventAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// CanManageOrders reports whether the role may change order status.
func (r Role) CanManageOrders() bool {
	return r == RoleSuperAdmin || r == RoleStandAdmin
}

// CanAddFunds reports whether the role may credit arbitrary wallets.
func (r Role) CanAddFunds() bool {
	return r == RoleSuperAdmin || r == RoleEventAdmin
}

// CanAudit reports whether the role may run reconciliation and exports.
func (r Role) CanAudit() bool {
	return r == RoleSuperAdmin || r == RoleEventAdmin
}

// Organization owns events and retains a commission percentage
// (0-100, 2 decimal places) of every order placed at its stands.
type Organization struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	CommissionRate decimal.Decimal `json:"commission_rate"`
}

// Event groups stands under an organization.
type Event struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Name           string    `json:"name"`
}

// Stand sells products at an event. OwnerID is the stand-admin user whose
// wallet receives the net amount of each sale; nil when unassigned.
type Stand struct {
	ID      uuid.UUID  `json:"id"`
	EventID uuid.UUID  `json:"event_id"`
	Name    string     `json:"name"`
	OwnerID *uuid.UUID `json:"owner_id,omitempty"`
}

// Product belongs to exactly one stand.
type Product struct {
	ID        uuid.UUID       `json:"id"`
	StandID   uuid.UUID       `json:"stand_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt time.Time       `json:"created_at"`
}

// StandDetail is the denormalized read model checkout needs: the stand,
// its owning organization and the organization's commission rate.
type StandDetail struct {
	Stand          Stand
	OrganizationID *uuid.UUID
	CommissionRate decimal.Decimal
}

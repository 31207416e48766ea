package models

import "time"

// Settlement statuses
const (
	SettlementStatusPending   = "pending"
	SettlementStatusSettled   = "settled"
	SettlementStatusCancelled = "cancelled"
	SettlementStatusDisputed  = "disputed"
	SettlementStatusReversed  = "reversed"
)

// Settlement types
const (
	SettlementTypeAuto   = "auto"
	SettlementTypeManual = "manual"
)

// DeliverySettlement releases a provider's share of an order's total for one
// delivered date. The unique index on DeliveryOrderID is the idempotency
// source of truth: a delivery order settles at most once.
type DeliverySettlement struct {
	ID              uint   `gorm:"primarykey"`
	SettlementID    string `gorm:"uniqueIndex;not null"`
	DeliveryOrderID uint   `gorm:"uniqueIndex;not null"`
	OrderID         uint   `gorm:"index;not null"`
	ProviderID      uint   `gorm:"index;not null"`
	ConsumerID      uint   `gorm:"not null"`
	DeliveryDate    time.Time
	MealAmount      float64 `gorm:"not null"`
	Amount          float64 `gorm:"not null"`
	Status          string  `gorm:"not null;default:'pending'"`
	SettlementType  string  `gorm:"default:'auto'"`
	ConfirmedBy     *uint
	SettledAt       *time.Time
	SettledBy       *uint
	TransactionRef  string // ledger transaction id of the provider credit
	DisputeReason   string
	DisputedAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

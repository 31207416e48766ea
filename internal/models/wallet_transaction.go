package models

import (
	"time"
)

// Transaction directions
const (
	TransactionTypeCredit = "credit"
	TransactionTypeDebit  = "debit"
)

// Transaction categories
const (
	CategoryTopUp              = "top_up"
	CategoryOrderPayment       = "order_payment"
	CategoryDeliverySettlement = "delivery_settlement"
	CategoryRefund             = "refund"
	CategoryWithdrawalRequest  = "withdrawal_request"
	CategoryWithdrawalApproved = "withdrawal_approved"
	CategoryWithdrawalRejected = "withdrawal_rejected"
	CategoryAdminAdjustment    = "admin_adjustment"
	CategoryPromoCredit        = "promo_credit"
	CategoryPenalty            = "penalty"
	CategoryReversal           = "reversal"
)

// Transaction statuses
const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
	TransactionStatusReversed  = "reversed"
)

// WalletTransaction is one append-only ledger entry. Once completed a row is
// never mutated except for the status flip to "reversed".
type WalletTransaction struct {
	ID            uint    `gorm:"primarykey"`
	TransactionID string  `gorm:"uniqueIndex;not null"`
	WalletID      uint    `gorm:"index;not null"`
	OwnerID       uint    `gorm:"index;not null"`
	Type          string  `gorm:"not null"` // credit or debit
	Amount        float64 `gorm:"not null"`
	BalanceAfter  float64 `gorm:"not null"`
	Category      string  `gorm:"not null"`
	Source        string
	ReferenceType string // order, delivery_order, withdrawal
	ReferenceID   *uint
	Status        string `gorm:"not null;default:'completed'"`
	ApprovedBy    *uint
	Description   string
	Metadata      JSON `gorm:"type:jsonb"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// Wallet owner kinds
const (
	OwnerTypeConsumer = "consumer"
	OwnerTypeProvider = "provider"
	OwnerTypeAdmin    = "admin"
)

// Wallet statuses
const (
	WalletStatusActive    = "active"
	WalletStatusFrozen    = "frozen"
	WalletStatusSuspended = "suspended"
)

// Wallet holds the running balances for one owner. One wallet per owner,
// created lazily on first access. All amounts are rupees rounded to 2
// decimal places.
type Wallet struct {
	ID                uint    `gorm:"primarykey"`
	OwnerID           uint    `gorm:"uniqueIndex;not null"`
	OwnerType         string  `gorm:"not null;default:'consumer'"`
	Balance           float64 `gorm:"default:0"`
	PendingBalance    float64 `gorm:"default:0"`
	TotalEarned       float64 `gorm:"default:0"`
	TotalSpent        float64 `gorm:"default:0"`
	Status            string  `gorm:"default:'active'"`
	FreezeReason      string  `gorm:"default:''"`
	LastTransactionAt *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (w *Wallet) BeforeCreate(tx *gorm.DB) error {
	// New wallets always start empty regardless of caller input
	w.Balance = 0.0
	w.PendingBalance = 0.0
	return nil
}

// CanTransact reports whether the wallet accepts balance mutations.
func (w *Wallet) CanTransact() bool {
	return w.Status == WalletStatusActive
}

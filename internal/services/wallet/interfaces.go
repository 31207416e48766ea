package wallet

import (
	"context"

	"tiffin/internal/models"
)

// Service defines the main wallet service interface
type Service interface {
	// Core wallet operations. GetWallet lazily creates a zero wallet for
	// the owner on first access.
	GetWallet(ctx context.Context, ownerID uint, ownerType string) (*models.Wallet, error)
	GetBalance(ctx context.Context, ownerID uint) (float64, error)

	// Ledger mutations. Each appends exactly one transaction with a
	// BalanceAfter snapshot, atomically with the balance write.
	AddMoney(ctx context.Context, ownerID uint, amount float64, op Operation) (*models.WalletTransaction, error)
	CreditEarnings(ctx context.Context, ownerID uint, amount float64, op Operation) (*models.WalletTransaction, error)
	DebitSpending(ctx context.Context, ownerID uint, amount float64, op Operation) (*models.WalletTransaction, error)
	ReverseTransaction(ctx context.Context, transactionID string, actorID uint) (*models.WalletTransaction, error)

	// GetTransactionByReference reports whether money already moved for a
	// referenced entity. Callers resuming interrupted flows check this
	// before crediting or debiting again.
	GetTransactionByReference(ctx context.Context, referenceType string, referenceID uint) (*models.WalletTransaction, error)

	// Status management (admin)
	Freeze(ctx context.Context, ownerID uint, reason string) error
	Unfreeze(ctx context.Context, ownerID uint) error

	// History
	GetTransactionHistory(ctx context.Context, ownerID uint, limit, offset int) ([]models.WalletTransaction, int64, error)
}

package repositories

import (
	"context"
	"errors"
	"time"

	"tiffin/internal/models"
)

var (
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrInvalidWalletData   = errors.New("invalid wallet data")
	ErrDuplicateWallet     = errors.New("wallet already exists")
	ErrTransactionFailed   = errors.New("transaction failed")
	ErrInvalidTransaction  = errors.New("invalid transaction")
	ErrTransactionNotFound = errors.New("transaction not found")
)

// WalletRepository defines the interface for wallet-related database operations
type WalletRepository interface {
	// Core wallet operations
	Create(wallet *models.Wallet) error
	GetByID(id uint) (*models.Wallet, error)
	GetByOwnerID(ownerID uint) (*models.Wallet, error)
	Update(wallet *models.Wallet) error

	// Ledger operations
	CreateTransaction(tx *models.WalletTransaction) error
	GetTransactionByRef(transactionID string) (*models.WalletTransaction, error)
	GetTransactionByReference(referenceType string, referenceID uint) (*models.WalletTransaction, error)
	MarkTransactionReversed(id uint) error
	GetTransactionHistory(ctx context.Context, walletID uint, limit, offset int) ([]models.WalletTransaction, int64, error)

	// Atomicity: every balance change plus its ledger row runs inside one
	// of these.
	ExecuteInTransaction(fn func(WalletRepository) error) error

	// Status operations
	UpdateStatus(walletID uint, status, reason string) error

	// Admin listings and reporting
	GetWalletsPaginated(limit, offset int) ([]models.Wallet, int64, error)
	GetTransactionVolume(start, end time.Time) (float64, error)
}

package repositories

import (
	"context"
	"fmt"
	"time"

	"tiffin/internal/models"

	"gorm.io/gorm"
)

type walletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) WalletRepository {
	return &walletRepository{db: db}
}

func (r *walletRepository) Create(wallet *models.Wallet) error {
	result := r.db.Create(wallet)
	if result.Error != nil {
		return fmt.Errorf("failed to create wallet: %w", result.Error)
	}
	return nil
}

func (r *walletRepository) GetByID(id uint) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.db.First(&wallet, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &wallet, nil
}

func (r *walletRepository) GetByOwnerID(ownerID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.db.Where("owner_id = ?", ownerID).First(&wallet).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &wallet, nil
}

func (r *walletRepository) Update(wallet *models.Wallet) error {
	result := r.db.Save(wallet)
	if result.Error != nil {
		return fmt.Errorf("failed to update wallet: %w", result.Error)
	}
	return nil
}

func (r *walletRepository) CreateTransaction(tx *models.WalletTransaction) error {
	result := r.db.Create(tx)
	if result.Error != nil {
		return fmt.Errorf("failed to create transaction: %w", result.Error)
	}
	return nil
}

func (r *walletRepository) GetTransactionByRef(transactionID string) (*models.WalletTransaction, error) {
	var tx models.WalletTransaction
	if err := r.db.Where("transaction_id = ?", transactionID).First(&tx).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrInvalidTransaction
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &tx, nil
}

// GetTransactionByReference finds the completed ledger entry written for a
// referenced entity, if any. Crash-recovery paths use it to tell whether
// money already moved before moving it again.
func (r *walletRepository) GetTransactionByReference(referenceType string, referenceID uint) (*models.WalletTransaction, error) {
	var tx models.WalletTransaction
	err := r.db.Where("reference_type = ? AND reference_id = ? AND status = ?",
		referenceType, referenceID, models.TransactionStatusCompleted).
		Order("created_at").First(&tx).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction by reference: %w", err)
	}
	return &tx, nil
}

// MarkTransactionReversed is the only mutation a completed ledger row sees.
func (r *walletRepository) MarkTransactionReversed(id uint) error {
	result := r.db.Model(&models.WalletTransaction{}).Where("id = ?", id).
		Update("status", models.TransactionStatusReversed)
	if result.Error != nil {
		return fmt.Errorf("failed to mark transaction reversed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrInvalidTransaction
	}
	return nil
}

func (r *walletRepository) GetTransactionHistory(ctx context.Context, walletID uint, limit, offset int) ([]models.WalletTransaction, int64, error) {
	var txs []models.WalletTransaction
	var total int64

	q := r.db.WithContext(ctx).Model(&models.WalletTransaction{}).Where("wallet_id = ?", walletID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&txs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get transaction history: %w", err)
	}
	return txs, total, nil
}

func (r *walletRepository) ExecuteInTransaction(fn func(WalletRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&walletRepository{db: tx})
	})
}

func (r *walletRepository) UpdateStatus(walletID uint, status, reason string) error {
	result := r.db.Model(&models.Wallet{}).Where("id = ?", walletID).
		Updates(map[string]interface{}{"status": status, "freeze_reason": reason})
	if result.Error != nil {
		return fmt.Errorf("failed to update wallet status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrWalletNotFound
	}
	return nil
}

func (r *walletRepository) GetWalletsPaginated(limit, offset int) ([]models.Wallet, int64, error) {
	var wallets []models.Wallet
	var total int64

	if err := r.db.Model(&models.Wallet{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count wallets: %w", err)
	}
	err := r.db.Order("id").Limit(limit).Offset(offset).Find(&wallets).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list wallets: %w", err)
	}
	return wallets, total, nil
}

func (r *walletRepository) GetTransactionVolume(start, end time.Time) (float64, error) {
	var volume float64
	err := r.db.Model(&models.WalletTransaction{}).
		Where("created_at BETWEEN ? AND ? AND status = ?", start, end, models.TransactionStatusCompleted).
		Select("COALESCE(SUM(amount), 0)").Scan(&volume).Error
	if err != nil {
		return 0, fmt.Errorf("failed to get transaction volume: %w", err)
	}
	return volume, nil
}

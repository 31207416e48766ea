package wallet

import (
	"context"
	"fmt"
	"time"

	"tiffin/internal/models"
	"tiffin/internal/repositories"
	"tiffin/internal/utils"

	"github.com/google/uuid"
)

type service struct {
	repo    repositories.WalletRepository
	cache   CacheOperator
	metrics MetricsCollector
}

// NewService creates a new wallet service
func NewService(repo repositories.WalletRepository, cache CacheOperator, metrics MetricsCollector) Service {
	if repo == nil {
		panic("repo is required")
	}
	if cache == nil {
		panic("cache is required")
	}
	// Metrics is optional, create no-op collector if nil
	if metrics == nil {
		metrics = &NoopMetricsCollector{}
	}

	return &service{
		repo:    repo,
		cache:   cache,
		metrics: metrics,
	}
}

// GetWallet returns the owner's wallet, creating an empty one on first
// access.
func (s *service) GetWallet(ctx context.Context, ownerID uint, ownerType string) (*models.Wallet, error) {
	if w, err := s.cache.GetWallet(ctx, ownerID); err == nil {
		return w, nil
	}

	w, err := s.repo.GetByOwnerID(ownerID)
	if err == nil {
		_ = s.cache.CacheWallet(ctx, w)
		return w, nil
	}
	if err != repositories.ErrWalletNotFound {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	w = &models.Wallet{
		OwnerID:   ownerID,
		OwnerType: ownerType,
		Status:    models.WalletStatusActive,
	}
	if err := s.repo.Create(w); err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}
	_ = s.cache.CacheWallet(ctx, w)
	return w, nil
}

func (s *service) GetBalance(ctx context.Context, ownerID uint) (float64, error) {
	w, err := s.repo.GetByOwnerID(ownerID)
	if err != nil {
		if err == repositories.ErrWalletNotFound {
			return 0, ErrWalletNotFound
		}
		return 0, fmt.Errorf("failed to get wallet: %w", err)
	}
	return w.Balance, nil
}

// AddMoney credits the available balance without touching lifetime earnings
// (top-ups, refunds, admin adjustments, promos).
func (s *service) AddMoney(ctx context.Context, ownerID uint, amount float64, op Operation) (*models.WalletTransaction, error) {
	return s.mutate(ctx, ownerID, amount, models.TransactionTypeCredit, op, func(w *models.Wallet, amt float64) {
		w.Balance = utils.Round2(w.Balance + amt)
	})
}

// CreditEarnings credits the available balance and lifetime earnings
// (delivery settlements).
func (s *service) CreditEarnings(ctx context.Context, ownerID uint, amount float64, op Operation) (*models.WalletTransaction, error) {
	return s.mutate(ctx, ownerID, amount, models.TransactionTypeCredit, op, func(w *models.Wallet, amt float64) {
		w.Balance = utils.Round2(w.Balance + amt)
		w.TotalEarned = utils.Round2(w.TotalEarned + amt)
	})
}

// DebitSpending debits the available balance and bumps lifetime spend. Fails
// with ErrInsufficientBalance when the amount exceeds the available balance;
// the balance is untouched on failure.
func (s *service) DebitSpending(ctx context.Context, ownerID uint, amount float64, op Operation) (*models.WalletTransaction, error) {
	return s.mutate(ctx, ownerID, amount, models.TransactionTypeDebit, op, func(w *models.Wallet, amt float64) {
		w.Balance = utils.Round2(w.Balance - amt)
		w.TotalSpent = utils.Round2(w.TotalSpent + amt)
	})
}

// mutate applies one balance change plus its ledger row in a single database
// transaction, so a ledger entry can never exist without its balance update.
func (s *service) mutate(ctx context.Context, ownerID uint, amount float64, direction string, op Operation, apply func(*models.Wallet, float64)) (*models.WalletTransaction, error) {
	if amount <= 0 {
		s.metrics.RecordError(direction, "invalid_amount")
		return nil, ErrInvalidAmount
	}
	amount = utils.Round2(amount)

	var entry *models.WalletTransaction
	err := s.repo.ExecuteInTransaction(func(tx repositories.WalletRepository) error {
		w, err := tx.GetByOwnerID(ownerID)
		if err != nil {
			if err == repositories.ErrWalletNotFound {
				return ErrWalletNotFound
			}
			return err
		}

		if !w.CanTransact() {
			return ErrWalletFrozen
		}
		if direction == models.TransactionTypeDebit && w.Balance < amount {
			return ErrInsufficientBalance
		}

		apply(w, amount)
		now := time.Now()
		w.LastTransactionAt = &now
		if err := tx.Update(w); err != nil {
			return err
		}

		source := op.Source
		if source == "" {
			source = SourceAPI
		}
		entry = &models.WalletTransaction{
			TransactionID: uuid.NewString(),
			WalletID:      w.ID,
			OwnerID:       ownerID,
			Type:          direction,
			Amount:        amount,
			BalanceAfter:  w.Balance,
			Category:      op.Category,
			Source:        source,
			ReferenceType: op.ReferenceType,
			ReferenceID:   op.ReferenceID,
			Status:        models.TransactionStatusCompleted,
			ApprovedBy:    op.ActorID,
			Description:   op.Description,
		}
		return tx.CreateTransaction(entry)
	})

	if err != nil {
		switch err {
		case ErrInsufficientBalance, ErrWalletFrozen, ErrWalletNotFound, ErrInvalidAmount:
			s.metrics.RecordError(direction, err.Error())
			return nil, err
		}
		s.metrics.RecordError(direction, err.Error())
		return nil, fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}

	_ = s.cache.InvalidateWallet(ctx, ownerID)
	s.metrics.RecordTransaction(op.Category, amount)
	return entry, nil
}

func (s *service) GetTransactionByReference(ctx context.Context, referenceType string, referenceID uint) (*models.WalletTransaction, error) {
	tx, err := s.repo.GetTransactionByReference(referenceType, referenceID)
	if err != nil {
		if err == repositories.ErrTransactionNotFound {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction by reference: %w", err)
	}
	return tx, nil
}

// ReverseTransaction flips a completed ledger entry to reversed and applies
// the opposite balance movement. This is the only mutation a completed entry
// ever sees.
func (s *service) ReverseTransaction(ctx context.Context, transactionID string, actorID uint) (*models.WalletTransaction, error) {
	original, err := s.repo.GetTransactionByRef(transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction: %w", err)
	}
	if original.Status == models.TransactionStatusReversed {
		return nil, ErrAlreadyReversed
	}
	if original.Status != models.TransactionStatusCompleted {
		return nil, ErrInvalidOperation
	}

	op := Operation{
		Category:      models.CategoryReversal,
		Source:        SourceAdmin,
		ReferenceType: "wallet_transaction",
		ReferenceID:   &original.ID,
		Description:   fmt.Sprintf("Reversal of %s", original.TransactionID),
		ActorID:       &actorID,
	}

	var reversal *models.WalletTransaction
	if original.Type == models.TransactionTypeCredit {
		reversal, err = s.DebitSpending(ctx, original.OwnerID, original.Amount, op)
	} else {
		reversal, err = s.AddMoney(ctx, original.OwnerID, original.Amount, op)
	}
	if err != nil {
		return nil, err
	}

	if err := s.repo.MarkTransactionReversed(original.ID); err != nil {
		return nil, fmt.Errorf("failed to mark transaction reversed: %w", err)
	}
	return reversal, nil
}

func (s *service) Freeze(ctx context.Context, ownerID uint, reason string) error {
	w, err := s.repo.GetByOwnerID(ownerID)
	if err != nil {
		if err == repositories.ErrWalletNotFound {
			return ErrWalletNotFound
		}
		return fmt.Errorf("failed to get wallet: %w", err)
	}

	if err := s.repo.UpdateStatus(w.ID, models.WalletStatusFrozen, reason); err != nil {
		return fmt.Errorf("failed to freeze wallet: %w", err)
	}
	_ = s.cache.InvalidateWallet(ctx, ownerID)
	return nil
}

func (s *service) Unfreeze(ctx context.Context, ownerID uint) error {
	w, err := s.repo.GetByOwnerID(ownerID)
	if err != nil {
		if err == repositories.ErrWalletNotFound {
			return ErrWalletNotFound
		}
		return fmt.Errorf("failed to get wallet: %w", err)
	}

	if err := s.repo.UpdateStatus(w.ID, models.WalletStatusActive, ""); err != nil {
		return fmt.Errorf("failed to unfreeze wallet: %w", err)
	}
	_ = s.cache.InvalidateWallet(ctx, ownerID)
	return nil
}

func (s *service) GetTransactionHistory(ctx context.Context, ownerID uint, limit, offset int) ([]models.WalletTransaction, int64, error) {
	w, err := s.repo.GetByOwnerID(ownerID)
	if err != nil {
		if err == repositories.ErrWalletNotFound {
			return nil, 0, ErrWalletNotFound
		}
		return nil, 0, fmt.Errorf("failed to get wallet: %w", err)
	}
	return s.repo.GetTransactionHistory(ctx, w.ID, limit, offset)
}

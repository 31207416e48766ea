// Package withdrawal implements the admin-gated payout workflow. A request
// only ever transitions out of "pending", and only once: approve, reject or
// cancel. Approval is the moment the wallet is debited.
package withdrawal

import (
	"context"
	"fmt"
	"time"

	"tiffin/internal/models"
	"tiffin/internal/repositories"
	"tiffin/internal/services/wallet"
	"tiffin/internal/utils"
	"tiffin/internal/validation"

	"github.com/google/uuid"
)

// CreateRequest is the payload for a new withdrawal request.
type CreateRequest struct {
	RequesterID   uint
	RequesterType string
	Amount        float64
	Bank          models.BankDetails
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*models.WithdrawalRequest, error)
	Approve(ctx context.Context, requestID, adminID uint, notes string) (*models.WithdrawalRequest, error)
	Reject(ctx context.Context, requestID, adminID uint, reason string) (*models.WithdrawalRequest, error)
	Cancel(ctx context.Context, requestID, requesterID uint) (*models.WithdrawalRequest, error)
	MarkProcessed(ctx context.Context, requestID, adminID uint, processingRef string) (*models.WithdrawalRequest, error)
	Get(ctx context.Context, requestID uint) (*models.WithdrawalRequest, error)
	ListForRequester(ctx context.Context, requesterID uint, limit, offset int) ([]models.WithdrawalRequest, int64, error)
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]models.WithdrawalRequest, int64, error)
}

type service struct {
	repo    repositories.WithdrawalRepository
	wallets wallet.Service
}

func NewService(repo repositories.WithdrawalRepository, wallets wallet.Service) Service {
	if repo == nil {
		panic("repo is required")
	}
	if wallets == nil {
		panic("wallet service is required")
	}
	return &service{repo: repo, wallets: wallets}
}

// Create validates the amount against the current available balance,
// snapshots that balance and requires complete bank details.
func (s *service) Create(ctx context.Context, req CreateRequest) (*models.WithdrawalRequest, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if err := validation.ValidateBankDetails(req.Bank); err != nil {
		return nil, ErrIncompleteBank
	}

	w, err := s.wallets.GetWallet(ctx, req.RequesterID, req.RequesterType)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	amount := utils.Round2(req.Amount)
	if amount > w.Balance {
		return nil, ErrInsufficientFunds
	}

	wr := &models.WithdrawalRequest{
		RequestID:     uuid.NewString(),
		RequesterID:   req.RequesterID,
		RequesterType: req.RequesterType,
		WalletID:      w.ID,
		Amount:        amount,
		BalanceAtReq:  w.Balance,
		AccountHolder: req.Bank.AccountHolder,
		AccountNumber: req.Bank.AccountNumber,
		RoutingCode:   req.Bank.RoutingCode,
		BankName:      req.Bank.BankName,
		Status:        models.WithdrawalStatusPending,
	}
	if err := s.repo.Create(wr); err != nil {
		return nil, fmt.Errorf("failed to create withdrawal request: %w", err)
	}
	return wr, nil
}

// Approve debits the requester's wallet and links the ledger entry. Only
// pending requests can be approved.
func (s *service) Approve(ctx context.Context, requestID, adminID uint, notes string) (*models.WithdrawalRequest, error) {
	wr, err := s.pending(requestID)
	if err != nil {
		return nil, err
	}

	entry, err := s.wallets.DebitSpending(ctx, wr.RequesterID, wr.Amount, wallet.Operation{
		Category:      models.CategoryWithdrawalApproved,
		Source:        wallet.SourceAdmin,
		ReferenceType: "withdrawal",
		ReferenceID:   &wr.ID,
		Description:   fmt.Sprintf("Withdrawal %s approved", wr.RequestID),
		ActorID:       &adminID,
	})
	if err != nil {
		if err == wallet.ErrInsufficientBalance {
			return nil, ErrInsufficientFunds
		}
		return nil, fmt.Errorf("failed to debit wallet: %w", err)
	}

	now := time.Now()
	wr.Status = models.WithdrawalStatusApproved
	wr.ReviewedBy = &adminID
	wr.ReviewNotes = notes
	wr.TransactionRef = entry.TransactionID
	wr.ResolvedAt = &now
	if err := s.repo.Update(wr); err != nil {
		return nil, fmt.Errorf("failed to update withdrawal request: %w", err)
	}
	return wr, nil
}

// Reject requires a reason and leaves the wallet untouched.
func (s *service) Reject(ctx context.Context, requestID, adminID uint, reason string) (*models.WithdrawalRequest, error) {
	if reason == "" {
		return nil, ErrReasonRequired
	}
	wr, err := s.pending(requestID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	wr.Status = models.WithdrawalStatusRejected
	wr.ReviewedBy = &adminID
	wr.ReviewNotes = reason
	wr.ResolvedAt = &now
	if err := s.repo.Update(wr); err != nil {
		return nil, fmt.Errorf("failed to update withdrawal request: %w", err)
	}
	return wr, nil
}

// Cancel is requester-only and only while still pending.
func (s *service) Cancel(ctx context.Context, requestID, requesterID uint) (*models.WithdrawalRequest, error) {
	wr, err := s.pending(requestID)
	if err != nil {
		return nil, err
	}
	if wr.RequesterID != requesterID {
		return nil, ErrNotRequester
	}

	now := time.Now()
	wr.Status = models.WithdrawalStatusCancelled
	wr.ResolvedAt = &now
	if err := s.repo.Update(wr); err != nil {
		return nil, fmt.Errorf("failed to update withdrawal request: %w", err)
	}
	return wr, nil
}

// MarkProcessed records the payout execution of an approved request.
func (s *service) MarkProcessed(ctx context.Context, requestID, adminID uint, processingRef string) (*models.WithdrawalRequest, error) {
	wr, err := s.repo.GetByID(requestID)
	if err != nil {
		if err == repositories.ErrWithdrawalNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if wr.Status != models.WithdrawalStatusApproved {
		return nil, ErrNotApproved
	}

	wr.Status = models.WithdrawalStatusProcessed
	wr.ProcessingRef = processingRef
	wr.ReviewedBy = &adminID
	if err := s.repo.Update(wr); err != nil {
		return nil, fmt.Errorf("failed to update withdrawal request: %w", err)
	}
	return wr, nil
}

func (s *service) Get(ctx context.Context, requestID uint) (*models.WithdrawalRequest, error) {
	wr, err := s.repo.GetByID(requestID)
	if err != nil {
		if err == repositories.ErrWithdrawalNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return wr, nil
}

func (s *service) ListForRequester(ctx context.Context, requesterID uint, limit, offset int) ([]models.WithdrawalRequest, int64, error) {
	return s.repo.GetByRequester(requesterID, limit, offset)
}

func (s *service) ListByStatus(ctx context.Context, status string, limit, offset int) ([]models.WithdrawalRequest, int64, error) {
	return s.repo.GetByStatus(status, limit, offset)
}

func (s *service) pending(requestID uint) (*models.WithdrawalRequest, error) {
	wr, err := s.repo.GetByID(requestID)
	if err != nil {
		if err == repositories.ErrWithdrawalNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if wr.Status != models.WithdrawalStatusPending {
		return nil, ErrNotPending
	}
	return wr, nil
}

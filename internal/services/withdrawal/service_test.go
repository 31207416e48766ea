package withdrawal

import (
	"context"
	"fmt"
	"testing"

	"tiffin/internal/models"
	"tiffin/internal/repositories"
	"tiffin/internal/services/wallet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWithdrawalRepo struct {
	reqs   map[uint]*models.WithdrawalRequest
	nextID uint
}

func newFakeWithdrawalRepo() *fakeWithdrawalRepo {
	return &fakeWithdrawalRepo{reqs: make(map[uint]*models.WithdrawalRequest), nextID: 1}
}

func (f *fakeWithdrawalRepo) Create(req *models.WithdrawalRequest) error {
	req.ID = f.nextID
	f.nextID++
	cp := *req
	f.reqs[req.ID] = &cp
	return nil
}

func (f *fakeWithdrawalRepo) GetByID(id uint) (*models.WithdrawalRequest, error) {
	req, ok := f.reqs[id]
	if !ok {
		return nil, repositories.ErrWithdrawalNotFound
	}
	cp := *req
	return &cp, nil
}

func (f *fakeWithdrawalRepo) Update(req *models.WithdrawalRequest) error {
	cp := *req
	f.reqs[req.ID] = &cp
	return nil
}

func (f *fakeWithdrawalRepo) GetByRequester(requesterID uint, limit, offset int) ([]models.WithdrawalRequest, int64, error) {
	var out []models.WithdrawalRequest
	for _, r := range f.reqs {
		if r.RequesterID == requesterID {
			out = append(out, *r)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeWithdrawalRepo) GetByStatus(status string, limit, offset int) ([]models.WithdrawalRequest, int64, error) {
	var out []models.WithdrawalRequest
	for _, r := range f.reqs {
		if r.Status == status {
			out = append(out, *r)
		}
	}
	return out, int64(len(out)), nil
}

// stubWallet tracks a single balance and records debits.
type stubWallet struct {
	balance float64
	debits  int
}

func (s *stubWallet) GetWallet(ctx context.Context, ownerID uint, ownerType string) (*models.Wallet, error) {
	return &models.Wallet{ID: 1, OwnerID: ownerID, OwnerType: ownerType, Balance: s.balance, Status: models.WalletStatusActive}, nil
}

func (s *stubWallet) GetBalance(ctx context.Context, ownerID uint) (float64, error) {
	return s.balance, nil
}

func (s *stubWallet) AddMoney(ctx context.Context, ownerID uint, amount float64, op wallet.Operation) (*models.WalletTransaction, error) {
	s.balance += amount
	return &models.WalletTransaction{TransactionID: "tx-credit", Amount: amount, BalanceAfter: s.balance}, nil
}

func (s *stubWallet) CreditEarnings(ctx context.Context, ownerID uint, amount float64, op wallet.Operation) (*models.WalletTransaction, error) {
	return s.AddMoney(ctx, ownerID, amount, op)
}

func (s *stubWallet) DebitSpending(ctx context.Context, ownerID uint, amount float64, op wallet.Operation) (*models.WalletTransaction, error) {
	if amount > s.balance {
		return nil, wallet.ErrInsufficientBalance
	}
	s.balance -= amount
	s.debits++
	return &models.WalletTransaction{TransactionID: fmt.Sprintf("tx-debit-%d", s.debits), Amount: amount, BalanceAfter: s.balance}, nil
}

func (s *stubWallet) ReverseTransaction(ctx context.Context, transactionID string, actorID uint) (*models.WalletTransaction, error) {
	return nil, nil
}

func (s *stubWallet) GetTransactionByReference(ctx context.Context, referenceType string, referenceID uint) (*models.WalletTransaction, error) {
	return nil, wallet.ErrTransactionNotFound
}

func (s *stubWallet) Freeze(ctx context.Context, ownerID uint, reason string) error { return nil }
func (s *stubWallet) Unfreeze(ctx context.Context, ownerID uint) error              { return nil }

func (s *stubWallet) GetTransactionHistory(ctx context.Context, ownerID uint, limit, offset int) ([]models.WalletTransaction, int64, error) {
	return nil, 0, nil
}

var validBank = models.BankDetails{
	AccountHolder: "Asha Provider",
	AccountNumber: "0012345678",
	RoutingCode:   "HDFC0001234",
	BankName:      "HDFC Bank",
}

func TestCreate(t *testing.T) {
	tests := []struct {
		name    string
		balance float64
		amount  float64
		bank    models.BankDetails
		wantErr error
	}{
		{"valid request", 500, 200, validBank, nil},
		{"amount equals balance", 500, 500, validBank, nil},
		{"exceeds balance", 500, 500.01, validBank, ErrInsufficientFunds},
		{"zero amount", 500, 0, validBank, ErrInvalidAmount},
		{"missing holder", 500, 100, models.BankDetails{AccountNumber: "1", RoutingCode: "2", BankName: "3"}, ErrIncompleteBank},
		{"missing account number", 500, 100, models.BankDetails{AccountHolder: "a", RoutingCode: "2", BankName: "3"}, ErrIncompleteBank},
		{"missing routing code", 500, 100, models.BankDetails{AccountHolder: "a", AccountNumber: "1", BankName: "3"}, ErrIncompleteBank},
		{"missing bank name", 500, 100, models.BankDetails{AccountHolder: "a", AccountNumber: "1", RoutingCode: "2"}, ErrIncompleteBank},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeWithdrawalRepo()
			svc := NewService(repo, &stubWallet{balance: tt.balance})

			wr, err := svc.Create(context.Background(), CreateRequest{
				RequesterID:   10,
				RequesterType: models.OwnerTypeProvider,
				Amount:        tt.amount,
				Bank:          tt.bank,
			})

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, models.WithdrawalStatusPending, wr.Status)
			assert.Equal(t, tt.balance, wr.BalanceAtReq, "balance snapshot at request time")
			assert.NotEmpty(t, wr.RequestID)
		})
	}
}

func TestApprove_DebitsAndLinks(t *testing.T) {
	repo := newFakeWithdrawalRepo()
	w := &stubWallet{balance: 300}
	svc := NewService(repo, w)

	wr, err := svc.Create(context.Background(), CreateRequest{
		RequesterID: 10, RequesterType: models.OwnerTypeProvider, Amount: 120, Bank: validBank,
	})
	require.NoError(t, err)

	approved, err := svc.Approve(context.Background(), wr.ID, 1, "ok")
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalStatusApproved, approved.Status)
	assert.Equal(t, 180.0, w.balance)
	assert.NotEmpty(t, approved.TransactionRef)
	assert.Equal(t, uint(1), *approved.ReviewedBy)
	assert.NotNil(t, approved.ResolvedAt)
}

func TestApprove_InsufficientAtReviewTime(t *testing.T) {
	repo := newFakeWithdrawalRepo()
	w := &stubWallet{balance: 150}
	svc := NewService(repo, w)

	wr, err := svc.Create(context.Background(), CreateRequest{
		RequesterID: 10, RequesterType: models.OwnerTypeProvider, Amount: 150, Bank: validBank,
	})
	require.NoError(t, err)

	// Balance drained between request and review
	w.balance = 100

	_, err = svc.Approve(context.Background(), wr.ID, 1, "")
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, 100.0, w.balance, "failed approval must not move money")

	stored, _ := svc.Get(context.Background(), wr.ID)
	assert.Equal(t, models.WithdrawalStatusPending, stored.Status)
}

func TestResolveOnlyOnce(t *testing.T) {
	type resolver func(Service, uint) error
	approve := func(s Service, id uint) error { _, err := s.Approve(context.Background(), id, 1, ""); return err }
	reject := func(s Service, id uint) error { _, err := s.Reject(context.Background(), id, 1, "docs missing"); return err }
	cancel := func(s Service, id uint) error { _, err := s.Cancel(context.Background(), id, 10); return err }

	tests := []struct {
		name   string
		first  resolver
		second resolver
	}{
		{"approve then approve", approve, approve},
		{"approve then reject", approve, reject},
		{"reject then approve", reject, approve},
		{"cancel then approve", cancel, approve},
		{"reject then cancel", reject, cancel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeWithdrawalRepo()
			svc := NewService(repo, &stubWallet{balance: 1000})
			wr, err := svc.Create(context.Background(), CreateRequest{
				RequesterID: 10, RequesterType: models.OwnerTypeProvider, Amount: 100, Bank: validBank,
			})
			require.NoError(t, err)

			require.NoError(t, tt.first(svc, wr.ID))
			assert.ErrorIs(t, tt.second(svc, wr.ID), ErrNotPending)
		})
	}
}

func TestReject_RequiresReason(t *testing.T) {
	repo := newFakeWithdrawalRepo()
	w := &stubWallet{balance: 100}
	svc := NewService(repo, w)
	wr, err := svc.Create(context.Background(), CreateRequest{
		RequesterID: 10, RequesterType: models.OwnerTypeProvider, Amount: 50, Bank: validBank,
	})
	require.NoError(t, err)

	_, err = svc.Reject(context.Background(), wr.ID, 1, "")
	assert.ErrorIs(t, err, ErrReasonRequired)

	rejected, err := svc.Reject(context.Background(), wr.ID, 1, "name mismatch")
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalStatusRejected, rejected.Status)
	assert.Equal(t, 100.0, w.balance, "rejection performs no balance change")
}

func TestCancel_OnlyRequester(t *testing.T) {
	repo := newFakeWithdrawalRepo()
	svc := NewService(repo, &stubWallet{balance: 100})
	wr, err := svc.Create(context.Background(), CreateRequest{
		RequesterID: 10, RequesterType: models.OwnerTypeProvider, Amount: 50, Bank: validBank,
	})
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), wr.ID, 99)
	assert.ErrorIs(t, err, ErrNotRequester)

	cancelled, err := svc.Cancel(context.Background(), wr.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalStatusCancelled, cancelled.Status)
}

func TestMarkProcessed(t *testing.T) {
	repo := newFakeWithdrawalRepo()
	svc := NewService(repo, &stubWallet{balance: 100})
	wr, err := svc.Create(context.Background(), CreateRequest{
		RequesterID: 10, RequesterType: models.OwnerTypeProvider, Amount: 50, Bank: validBank,
	})
	require.NoError(t, err)

	// Not yet approved
	_, err = svc.MarkProcessed(context.Background(), wr.ID, 1, "UTR-123")
	assert.ErrorIs(t, err, ErrNotApproved)

	_, err = svc.Approve(context.Background(), wr.ID, 1, "")
	require.NoError(t, err)

	processed, err := svc.MarkProcessed(context.Background(), wr.ID, 1, "UTR-123")
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalStatusProcessed, processed.Status)
	assert.Equal(t, "UTR-123", processed.ProcessingRef)
}

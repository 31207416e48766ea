package order

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"tiffin/internal/config"
	"tiffin/internal/models"
	"tiffin/internal/repositories"
	"tiffin/internal/services/settlement"
	"tiffin/internal/services/wallet"

	stripe "github.com/stripe/stripe-go/v72"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrderRepo struct {
	orders      map[uint]*models.Order
	deliveries  map[uint]*models.DeliveryOrder
	nextOrderID uint
	nextDelivID uint
	failCreate  bool
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders:      make(map[uint]*models.Order),
		deliveries:  make(map[uint]*models.DeliveryOrder),
		nextOrderID: 1,
		nextDelivID: 1,
	}
}

func (f *fakeOrderRepo) CreateWithDeliveries(order *models.Order, deliveries []models.DeliveryOrder) error {
	if f.failCreate {
		return errors.New("simulated storage failure")
	}
	order.ID = f.nextOrderID
	f.nextOrderID++
	cp := *order
	f.orders[order.ID] = &cp
	for i := range deliveries {
		deliveries[i].ID = f.nextDelivID
		f.nextDelivID++
		deliveries[i].OrderID = order.ID
		deliveries[i].ConsumerID = order.ConsumerID
		deliveries[i].ProviderID = order.ProviderID
		d := deliveries[i]
		f.deliveries[d.ID] = &d
	}
	return nil
}

func (f *fakeOrderRepo) GetByID(id uint) (*models.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, repositories.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrderRepo) Update(order *models.Order) error {
	cp := *order
	f.orders[order.ID] = &cp
	return nil
}

func (f *fakeOrderRepo) GetOrdersByConsumer(consumerID uint, limit, offset int) ([]models.Order, int64, error) {
	var out []models.Order
	for _, o := range f.orders {
		if o.ConsumerID == consumerID {
			out = append(out, *o)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeOrderRepo) GetOrdersByProvider(providerID uint, limit, offset int) ([]models.Order, int64, error) {
	return nil, 0, nil
}

func (f *fakeOrderRepo) GetDeliveryOrder(id uint) (*models.DeliveryOrder, error) {
	d, ok := f.deliveries[id]
	if !ok {
		return nil, repositories.ErrDeliveryOrderNotFound
	}
	cp := *d
	return &cp, nil
}

func (f *fakeOrderRepo) UpdateDeliveryOrder(delivery *models.DeliveryOrder) error {
	cp := *delivery
	f.deliveries[delivery.ID] = &cp
	return nil
}

func (f *fakeOrderRepo) CountDeliveriesForOrder(orderID uint) (int64, error) {
	var count int64
	for _, d := range f.deliveries {
		if d.OrderID == orderID {
			count++
		}
	}
	return count, nil
}

func (f *fakeOrderRepo) GetDeliveriesForOrder(orderID uint) ([]models.DeliveryOrder, error) {
	var out []models.DeliveryOrder
	for _, d := range f.deliveries {
		if d.OrderID == orderID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) GetDeliveriesForDate(date time.Time, providerID uint) ([]models.DeliveryOrder, error) {
	return nil, nil
}

func (f *fakeOrderRepo) GetUnsettledDelivered(limit int) ([]models.DeliveryOrder, error) {
	return nil, nil
}

func (f *fakeOrderRepo) GetDeliveriesByPartner(partnerID uint, limit, offset int) ([]models.DeliveryOrder, int64, error) {
	return nil, 0, nil
}

type fakePartnerRepo struct {
	loads map[uint]int
}

func newFakePartnerRepo() *fakePartnerRepo { return &fakePartnerRepo{loads: make(map[uint]int)} }

func (f *fakePartnerRepo) Create(p *models.DeliveryPartner) error { return nil }

func (f *fakePartnerRepo) GetByID(id uint) (*models.DeliveryPartner, error) {
	return nil, repositories.ErrPartnerNotFound
}

func (f *fakePartnerRepo) GetByUserID(userID uint) (*models.DeliveryPartner, error) {
	return nil, repositories.ErrPartnerNotFound
}

func (f *fakePartnerRepo) Update(p *models.DeliveryPartner) error          { return nil }
func (f *fakePartnerRepo) GetAvailable() ([]models.DeliveryPartner, error) { return nil, nil }

func (f *fakePartnerRepo) AdjustLoad(partnerID uint, delta int) error {
	f.loads[partnerID] += delta
	return nil
}

type stubWallet struct {
	balance float64
	debits  []float64
	credits []float64
	revs    []string
}

func (s *stubWallet) GetWallet(ctx context.Context, ownerID uint, ownerType string) (*models.Wallet, error) {
	return &models.Wallet{OwnerID: ownerID, Balance: s.balance, Status: models.WalletStatusActive}, nil
}

func (s *stubWallet) GetBalance(ctx context.Context, ownerID uint) (float64, error) {
	return s.balance, nil
}

func (s *stubWallet) AddMoney(ctx context.Context, ownerID uint, amount float64, op wallet.Operation) (*models.WalletTransaction, error) {
	s.balance += amount
	s.credits = append(s.credits, amount)
	return &models.WalletTransaction{TransactionID: fmt.Sprintf("tx-credit-%d", len(s.credits)), Amount: amount}, nil
}

func (s *stubWallet) CreditEarnings(ctx context.Context, ownerID uint, amount float64, op wallet.Operation) (*models.WalletTransaction, error) {
	return s.AddMoney(ctx, ownerID, amount, op)
}

func (s *stubWallet) DebitSpending(ctx context.Context, ownerID uint, amount float64, op wallet.Operation) (*models.WalletTransaction, error) {
	if amount > s.balance {
		return nil, wallet.ErrInsufficientBalance
	}
	s.balance -= amount
	s.debits = append(s.debits, amount)
	return &models.WalletTransaction{TransactionID: fmt.Sprintf("tx-debit-%d", len(s.debits)), Amount: amount}, nil
}

func (s *stubWallet) ReverseTransaction(ctx context.Context, transactionID string, actorID uint) (*models.WalletTransaction, error) {
	s.revs = append(s.revs, transactionID)
	return &models.WalletTransaction{TransactionID: "tx-reversal"}, nil
}

func (s *stubWallet) GetTransactionByReference(ctx context.Context, referenceType string, referenceID uint) (*models.WalletTransaction, error) {
	return nil, wallet.ErrTransactionNotFound
}

func (s *stubWallet) Freeze(ctx context.Context, ownerID uint, reason string) error { return nil }
func (s *stubWallet) Unfreeze(ctx context.Context, ownerID uint) error              { return nil }

func (s *stubWallet) GetTransactionHistory(ctx context.Context, ownerID uint, limit, offset int) ([]models.WalletTransaction, int64, error) {
	return nil, 0, nil
}

type stubPayments struct {
	err error
}

func (s *stubPayments) VerifyCardPayment(ctx context.Context, paymentRef string, expectedAmount float64) error {
	return s.err
}

func (s *stubPayments) VerifyWebhook(payload []byte, signature string) (stripe.Event, error) {
	return stripe.Event{}, nil
}

type recordingSettlements struct {
	processed []uint
}

func (s *recordingSettlements) ProcessDeliverySettlement(ctx context.Context, deliveryOrderID uint, confirmedBy *uint, settlementType string) (*models.DeliverySettlement, error) {
	s.processed = append(s.processed, deliveryOrderID)
	return &models.DeliverySettlement{DeliveryOrderID: deliveryOrderID}, nil
}

func (s *recordingSettlements) SettlePending(ctx context.Context, limit int) (*settlement.BatchResult, error) {
	return &settlement.BatchResult{}, nil
}

func (s *recordingSettlements) Get(ctx context.Context, id uint) (*models.DeliverySettlement, error) {
	return nil, settlement.ErrNotFound
}

func (s *recordingSettlements) ListForProvider(ctx context.Context, providerID uint, limit, offset int) ([]models.DeliverySettlement, int64, error) {
	return nil, 0, nil
}

func (s *recordingSettlements) ListBetween(ctx context.Context, start, end time.Time) ([]models.DeliverySettlement, error) {
	return nil, nil
}

func (s *recordingSettlements) Dispute(ctx context.Context, settlementID uint, reason string) (*models.DeliverySettlement, error) {
	return nil, settlement.ErrNotFound
}

func (s *recordingSettlements) Reverse(ctx context.Context, settlementID uint, adminID uint) (*models.DeliverySettlement, error) {
	return nil, settlement.ErrNotFound
}

func futureDates(daysAhead ...int) []string {
	loc := config.DeliveryLocation()
	now := time.Now().In(loc)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	out := make([]string, 0, len(daysAhead))
	for _, d := range daysAhead {
		out = append(out, midnight.AddDate(0, 0, d).Format("2006-01-02"))
	}
	return out
}

type fixture struct {
	svc         Service
	orders      *fakeOrderRepo
	partners    *fakePartnerRepo
	wallet      *stubWallet
	payments    *stubPayments
	settlements *recordingSettlements
}

func newFixture(balance float64) *fixture {
	f := &fixture{
		orders:      newFakeOrderRepo(),
		partners:    newFakePartnerRepo(),
		wallet:      &stubWallet{balance: balance},
		payments:    &stubPayments{},
		settlements: &recordingSettlements{},
	}
	f.svc = NewService(f.orders, f.partners, f.wallet, f.payments, f.settlements, nil)
	return f
}

func validCreate(consumerID uint) CreateRequest {
	return CreateRequest{
		ConsumerID:    consumerID,
		ProviderID:    7,
		MenuName:      "Gujarati Thali",
		TotalAmount:   300,
		TimeSlot:      models.SlotLunch,
		DeliveryInfo:  models.DeliveryInfo{Type: models.ScheduleTypeCustomDates, Dates: futureDates(2, 3, 4)},
		PaymentMethod: models.PaymentMethodWallet,
		Address:       "12 MG Road, Pune",
	}
}

func TestCreate_WalletPayment(t *testing.T) {
	f := newFixture(500)

	result, err := f.svc.Create(context.Background(), validCreate(5))
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusActive, result.Order.Status)
	assert.Equal(t, 200.0, f.wallet.balance, "order total debited up front")
	require.Len(t, f.wallet.debits, 1)
	assert.Equal(t, f.wallet.debits[0], result.Order.TotalAmount)
	assert.Equal(t, "tx-debit-1", result.Order.PaymentRef, "payment ref links to the ledger")

	require.Len(t, result.Deliveries, 3)
	codes := map[string]bool{}
	for _, d := range result.Deliveries {
		assert.Equal(t, models.DeliveryStatusPending, d.Status)
		assert.Len(t, d.ConfirmationCode, 8)
		codes[d.ConfirmationCode] = true
	}
	assert.Len(t, codes, 3, "confirmation codes are unique per delivery")
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CreateRequest)
		wantErr error
	}{
		{"zero amount", func(r *CreateRequest) { r.TotalAmount = 0 }, ErrInvalidAmount},
		{"negative amount", func(r *CreateRequest) { r.TotalAmount = -50 }, ErrInvalidAmount},
		{"bad slot", func(r *CreateRequest) { r.TimeSlot = "brunch" }, ErrInvalidTimeSlot},
		{"blank address", func(r *CreateRequest) { r.Address = "   " }, ErrMissingAddress},
		{"bad payment method", func(r *CreateRequest) { r.PaymentMethod = "upi" }, ErrInvalidPayment},
		{"insufficient funds", func(r *CreateRequest) { r.TotalAmount = 10000 }, wallet.ErrInsufficientBalance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(500)
			req := validCreate(5)
			tt.mutate(&req)

			_, err := f.svc.Create(context.Background(), req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.orders.orders, "failed create must not persist an order")
		})
	}
}

func TestCreate_CardPayment(t *testing.T) {
	f := newFixture(0)
	req := validCreate(5)
	req.PaymentMethod = models.PaymentMethodCard
	req.PaymentRef = "pi_123"

	result, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, f.wallet.debits, "card payment does not touch the wallet")
	assert.Equal(t, "pi_123", result.Order.PaymentRef)

	f.payments.err = errors.New("payment intent not settled")
	_, err = f.svc.Create(context.Background(), req)
	assert.Error(t, err)
}

func TestCreate_StorageFailureReversesPayment(t *testing.T) {
	f := newFixture(500)
	f.orders.failCreate = true

	_, err := f.svc.Create(context.Background(), validCreate(5))
	require.Error(t, err)
	require.Len(t, f.wallet.revs, 1)
	assert.Equal(t, "tx-debit-1", f.wallet.revs[0])
}

func seedDelivery(f *fixture, status string, partnerID *uint) *models.DeliveryOrder {
	f.orders.orders[1] = &models.Order{
		ID: 1, ConsumerID: 5, ProviderID: 7, TotalAmount: 300,
		PaymentMethod: models.PaymentMethodWallet, Status: models.OrderStatusActive,
	}
	d := &models.DeliveryOrder{
		ID: 1, OrderID: 1, ConsumerID: 5, ProviderID: 7, PartnerID: partnerID,
		DeliveryDate:     time.Now().AddDate(0, 0, 2),
		TimeSlot:         models.SlotLunch,
		Status:           status,
		ConfirmationCode: "AB12CD34",
	}
	f.orders.deliveries[1] = d
	f.orders.nextDelivID = 2
	return d
}

func TestUpdateDeliveryStatus_ProviderPath(t *testing.T) {
	f := newFixture(0)
	seedDelivery(f, models.DeliveryStatusPending, nil)
	provider := Actor{UserID: 7, Role: models.RoleProvider}

	d, err := f.svc.UpdateDeliveryStatus(context.Background(), 1, models.DeliveryStatusConfirmed, provider)
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryStatusConfirmed, d.Status)

	d, err = f.svc.UpdateDeliveryStatus(context.Background(), 1, models.DeliveryStatusReady, provider)
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryStatusReady, d.Status)
}

func TestUpdateDeliveryStatus_RejectsWrongActor(t *testing.T) {
	partnerID := uint(3)
	tests := []struct {
		name   string
		status string
		target string
		actor  Actor
	}{
		{"stranger provider", models.DeliveryStatusPending, models.DeliveryStatusConfirmed, Actor{UserID: 99, Role: models.RoleProvider}},
		{"consumer cannot confirm", models.DeliveryStatusPending, models.DeliveryStatusConfirmed, Actor{UserID: 5, Role: models.RoleConsumer}},
		{"unassigned partner", models.DeliveryStatusAssigned, models.DeliveryStatusOutForDelivery, Actor{UserID: 50, Role: models.RoleDeliveryPartner, PartnerID: 9}},
		{"provider cannot deliver", models.DeliveryStatusOutForDelivery, models.DeliveryStatusDelivered, Actor{UserID: 7, Role: models.RoleProvider}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(0)
			seedDelivery(f, tt.status, &partnerID)

			_, err := f.svc.UpdateDeliveryStatus(context.Background(), 1, tt.target, tt.actor)
			assert.ErrorIs(t, err, ErrNotAuthorized)
		})
	}
}

func TestUpdateDeliveryStatus_RejectsInvalidTransition(t *testing.T) {
	f := newFixture(0)
	seedDelivery(f, models.DeliveryStatusPending, nil)

	_, err := f.svc.UpdateDeliveryStatus(context.Background(), 1, models.DeliveryStatusDelivered, Actor{Role: models.RoleAdmin})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdateDeliveryStatus_DeliveredTriggersSettlement(t *testing.T) {
	f := newFixture(0)
	partnerID := uint(3)
	seedDelivery(f, models.DeliveryStatusOutForDelivery, &partnerID)
	partner := Actor{UserID: 50, Role: models.RoleDeliveryPartner, PartnerID: 3}

	d, err := f.svc.UpdateDeliveryStatus(context.Background(), 1, models.DeliveryStatusDelivered, partner)
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryStatusDelivered, d.Status)
	require.NotNil(t, d.DeliveredAt)
	assert.Equal(t, []uint{1}, f.settlements.processed)
	assert.Equal(t, -1, f.partners.loads[3], "partner load released on terminal status")
}

func TestConfirmDelivery(t *testing.T) {
	partnerID := uint(3)
	partner := Actor{UserID: 50, Role: models.RoleDeliveryPartner, PartnerID: 3}

	f := newFixture(0)
	seedDelivery(f, models.DeliveryStatusOutForDelivery, &partnerID)

	_, err := f.svc.ConfirmDelivery(context.Background(), 1, "WRONG000", partner)
	assert.ErrorIs(t, err, ErrBadConfirmationCode)

	d, err := f.svc.ConfirmDelivery(context.Background(), 1, "ab12cd34", partner)
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryStatusDelivered, d.Status)
}

func TestCancelDelivery_RefundsShare(t *testing.T) {
	f := newFixture(0)
	d := seedDelivery(f, models.DeliveryStatusPending, nil)
	// Three deliveries on the ₹300 order; share is ₹100
	for id := uint(2); id <= 3; id++ {
		cp := *d
		cp.ID = id
		f.orders.deliveries[id] = &cp
	}

	cancelled, err := f.svc.CancelDelivery(context.Background(), 1, 5, "travelling")
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryStatusCancelled, cancelled.Status)
	assert.Equal(t, "travelling", cancelled.CancelReason)
	require.NotNil(t, cancelled.CancelledAt)
	require.Len(t, f.wallet.credits, 1)
	assert.Equal(t, 100.0, f.wallet.credits[0])
}

func TestCancelDelivery_Guards(t *testing.T) {
	t.Run("not the consumer", func(t *testing.T) {
		f := newFixture(0)
		seedDelivery(f, models.DeliveryStatusPending, nil)
		_, err := f.svc.CancelDelivery(context.Background(), 1, 99, "")
		assert.ErrorIs(t, err, ErrNotOrderOwner)
	})

	t.Run("already delivered", func(t *testing.T) {
		f := newFixture(0)
		seedDelivery(f, models.DeliveryStatusDelivered, nil)
		_, err := f.svc.CancelDelivery(context.Background(), 1, 5, "")
		assert.ErrorIs(t, err, ErrAlreadyTerminal)
	})

	t.Run("window closed for past date", func(t *testing.T) {
		f := newFixture(0)
		d := seedDelivery(f, models.DeliveryStatusPending, nil)
		d.DeliveryDate = time.Now().AddDate(0, 0, -1)
		f.orders.deliveries[1] = d

		_, err := f.svc.CancelDelivery(context.Background(), 1, 5, "")
		assert.ErrorIs(t, err, ErrWindowClosed)
		assert.Empty(t, f.wallet.credits, "no refund when cancellation is rejected")
	})

	t.Run("cod has no refund", func(t *testing.T) {
		f := newFixture(0)
		seedDelivery(f, models.DeliveryStatusPending, nil)
		f.orders.orders[1].PaymentMethod = models.PaymentMethodCOD

		cancelled, err := f.svc.CancelDelivery(context.Background(), 1, 5, "")
		require.NoError(t, err)
		assert.Equal(t, models.DeliveryStatusCancelled, cancelled.Status)
		assert.Empty(t, f.wallet.credits)
	})
}

func TestOrderCompletesWhenAllDeliveriesTerminal(t *testing.T) {
	f := newFixture(0)
	partnerID := uint(3)
	seedDelivery(f, models.DeliveryStatusOutForDelivery, &partnerID)
	partner := Actor{UserID: 50, Role: models.RoleDeliveryPartner, PartnerID: 3}

	_, err := f.svc.UpdateDeliveryStatus(context.Background(), 1, models.DeliveryStatusDelivered, partner)
	require.NoError(t, err)

	order, _ := f.orders.GetByID(1)
	assert.Equal(t, models.OrderStatusCompleted, order.Status)
}

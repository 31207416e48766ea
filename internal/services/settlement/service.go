package settlement

import (
	"context"
	"fmt"
	"log"
	"time"

	"tiffin/internal/models"
	"tiffin/internal/repositories"
	"tiffin/internal/services/wallet"
	"tiffin/internal/utils"

	"github.com/google/uuid"
)

// BatchResult summarizes one auto-settle run.
type BatchResult struct {
	Settled int      `json:"settled"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// Service releases provider earnings for delivered orders. A delivery
// order settles at most once; re-processing an already settled delivery
// returns the existing settlement without moving money again.
type Service interface {
	ProcessDeliverySettlement(ctx context.Context, deliveryOrderID uint, confirmedBy *uint, settlementType string) (*models.DeliverySettlement, error)
	SettlePending(ctx context.Context, limit int) (*BatchResult, error)

	Get(ctx context.Context, id uint) (*models.DeliverySettlement, error)
	ListForProvider(ctx context.Context, providerID uint, limit, offset int) ([]models.DeliverySettlement, int64, error)
	ListBetween(ctx context.Context, start, end time.Time) ([]models.DeliverySettlement, error)

	Dispute(ctx context.Context, settlementID uint, reason string) (*models.DeliverySettlement, error)
	Reverse(ctx context.Context, settlementID uint, adminID uint) (*models.DeliverySettlement, error)
}

type service struct {
	orders      repositories.OrderRepository
	settlements repositories.SettlementRepository
	wallets     wallet.Service
}

func NewService(orders repositories.OrderRepository, settlements repositories.SettlementRepository, wallets wallet.Service) Service {
	if orders == nil || settlements == nil || wallets == nil {
		panic("settlement service requires order repository, settlement repository and wallet service")
	}
	return &service{orders: orders, settlements: settlements, wallets: wallets}
}

// ProcessDeliverySettlement credits the provider's per-meal share for one
// delivered order. The settlement row is created first as the idempotency
// gate; the wallet credit and the delivery flag follow. A row left pending
// by an interrupted run is finished on the next invocation.
func (s *service) ProcessDeliverySettlement(ctx context.Context, deliveryOrderID uint, confirmedBy *uint, settlementType string) (*models.DeliverySettlement, error) {
	delivery, err := s.orders.GetDeliveryOrder(deliveryOrderID)
	if err != nil {
		return nil, err
	}
	if delivery.Status != models.DeliveryStatusDelivered {
		return nil, ErrNotDelivered
	}

	existing, err := s.settlements.GetByDeliveryOrder(delivery.ID)
	if err == nil {
		if existing.Status == models.SettlementStatusPending {
			return s.finishSettlement(ctx, existing, delivery)
		}
		return existing, nil
	}
	if err != repositories.ErrSettlementNotFound {
		return nil, err
	}

	order, err := s.orders.GetByID(delivery.OrderID)
	if err != nil {
		return nil, err
	}
	count, err := s.orders.CountDeliveriesForOrder(order.ID)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, fmt.Errorf("order %d has no delivery orders", order.ID)
	}
	mealAmount := utils.Round2(order.TotalAmount / float64(count))

	if settlementType == "" {
		settlementType = models.SettlementTypeAuto
	}
	settlement := &models.DeliverySettlement{
		SettlementID:    uuid.NewString(),
		DeliveryOrderID: delivery.ID,
		OrderID:         order.ID,
		ProviderID:      delivery.ProviderID,
		ConsumerID:      delivery.ConsumerID,
		DeliveryDate:    delivery.DeliveryDate,
		MealAmount:      mealAmount,
		Amount:          mealAmount,
		Status:          models.SettlementStatusPending,
		SettlementType:  settlementType,
		ConfirmedBy:     confirmedBy,
	}
	if err := s.settlements.Create(settlement); err != nil {
		// Unique index on delivery_order_id: a concurrent run won the race.
		if won, lookupErr := s.settlements.GetByDeliveryOrder(delivery.ID); lookupErr == nil {
			return won, nil
		}
		return nil, err
	}

	return s.finishSettlement(ctx, settlement, delivery)
}

func (s *service) finishSettlement(ctx context.Context, settlement *models.DeliverySettlement, delivery *models.DeliveryOrder) (*models.DeliverySettlement, error) {
	// A pending row may already carry its credit when the previous run died
	// between the wallet write and the status flip. The ledger decides
	// whether money moves; a found entry is reused, never repeated.
	ref := delivery.ID
	tx, err := s.wallets.GetTransactionByReference(ctx, "delivery_settlement", ref)
	if err == wallet.ErrTransactionNotFound {
		tx, err = s.wallets.CreditEarnings(ctx, delivery.ProviderID, settlement.Amount, wallet.Operation{
			Category:      models.CategoryDeliverySettlement,
			Source:        wallet.SourceSystem,
			ReferenceType: "delivery_settlement",
			ReferenceID:   &ref,
			Description:   fmt.Sprintf("Settlement for delivery on %s (%s)", settlement.DeliveryDate.Format("2006-01-02"), delivery.TimeSlot),
		})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to credit provider %d: %w", delivery.ProviderID, err)
	}

	now := time.Now()
	settlement.Status = models.SettlementStatusSettled
	settlement.TransactionRef = tx.TransactionID
	settlement.SettledAt = &now
	if err := s.settlements.Update(settlement); err != nil {
		return nil, err
	}

	delivery.SettlementProcessed = true
	if err := s.orders.UpdateDeliveryOrder(delivery); err != nil {
		// The settlement and credit are durable; the flag is only a batch
		// filter and the next pass re-checks the settlement table.
		log.Printf("WARN: failed to flag delivery %d as settled: %v", delivery.ID, err)
	}
	return settlement, nil
}

// SettlePending processes delivered-but-unsettled orders in one batch.
// Failures are recorded per delivery and do not stop the batch.
func (s *service) SettlePending(ctx context.Context, limit int) (*BatchResult, error) {
	deliveries, err := s.orders.GetUnsettledDelivered(limit)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{}
	for i := range deliveries {
		if _, err := s.ProcessDeliverySettlement(ctx, deliveries[i].ID, nil, models.SettlementTypeAuto); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("delivery %d: %v", deliveries[i].ID, err))
			continue
		}
		result.Settled++
	}
	if result.Failed > 0 {
		log.Printf("Settlement batch finished: %d settled, %d failed", result.Settled, result.Failed)
	}
	return result, nil
}

func (s *service) Get(ctx context.Context, id uint) (*models.DeliverySettlement, error) {
	settlement, err := s.settlements.GetByID(id)
	if err != nil {
		if err == repositories.ErrSettlementNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return settlement, nil
}

func (s *service) ListForProvider(ctx context.Context, providerID uint, limit, offset int) ([]models.DeliverySettlement, int64, error) {
	return s.settlements.GetByProvider(providerID, limit, offset)
}

func (s *service) ListBetween(ctx context.Context, start, end time.Time) ([]models.DeliverySettlement, error) {
	return s.settlements.GetBetween(start, end)
}

// Dispute flags a settled payout for review. The provider keeps the funds
// until an admin reverses the settlement.
func (s *service) Dispute(ctx context.Context, settlementID uint, reason string) (*models.DeliverySettlement, error) {
	settlement, err := s.Get(ctx, settlementID)
	if err != nil {
		return nil, err
	}
	if settlement.Status != models.SettlementStatusSettled {
		return nil, ErrNotSettled
	}

	now := time.Now()
	settlement.Status = models.SettlementStatusDisputed
	settlement.DisputeReason = reason
	settlement.DisputedAt = &now
	if err := s.settlements.Update(settlement); err != nil {
		return nil, err
	}
	return settlement, nil
}

// Reverse claws back a disputed payout through the wallet ledger.
func (s *service) Reverse(ctx context.Context, settlementID uint, adminID uint) (*models.DeliverySettlement, error) {
	settlement, err := s.Get(ctx, settlementID)
	if err != nil {
		return nil, err
	}
	if settlement.Status != models.SettlementStatusDisputed {
		return nil, ErrNotDisputed
	}

	if _, err := s.wallets.ReverseTransaction(ctx, settlement.TransactionRef, adminID); err != nil {
		return nil, fmt.Errorf("failed to reverse settlement credit: %w", err)
	}

	settlement.Status = models.SettlementStatusReversed
	settlement.SettledBy = &adminID
	if err := s.settlements.Update(settlement); err != nil {
		return nil, err
	}
	return settlement, nil
}

package order

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"tiffin/internal/models"
	"tiffin/internal/repositories"
	"tiffin/internal/services/notification"
	"tiffin/internal/services/payment"
	"tiffin/internal/services/schedule"
	"tiffin/internal/services/settlement"
	"tiffin/internal/services/wallet"
	"tiffin/internal/utils"

	"github.com/google/uuid"
)

// Service owns the order lifecycle: placing a recurring order, moving its
// deliveries through their statuses, and cancelling individual dates
// within the allowed window.
type Service interface {
	Create(ctx context.Context, req CreateRequest) (*CreateResult, error)
	GetOrder(ctx context.Context, id uint, requesterID uint, role string) (*models.Order, error)
	ListForConsumer(ctx context.Context, consumerID uint, limit, offset int) ([]models.Order, int64, error)
	ListForProvider(ctx context.Context, providerID uint, limit, offset int) ([]models.Order, int64, error)

	GetDelivery(ctx context.Context, id uint) (*models.DeliveryOrder, error)
	ListForPartner(ctx context.Context, partnerID uint, limit, offset int) ([]models.DeliveryOrder, int64, error)
	GetDeliveriesForOrder(ctx context.Context, orderID uint) ([]models.DeliveryOrder, error)
	GetDeliveriesForDate(ctx context.Context, date time.Time, providerID uint) ([]models.DeliveryOrder, error)

	UpdateDeliveryStatus(ctx context.Context, deliveryID uint, status string, actor Actor) (*models.DeliveryOrder, error)
	ConfirmDelivery(ctx context.Context, deliveryID uint, code string, actor Actor) (*models.DeliveryOrder, error)
	CancelDelivery(ctx context.Context, deliveryID uint, consumerID uint, reason string) (*models.DeliveryOrder, error)
}

type service struct {
	orders      repositories.OrderRepository
	partners    repositories.PartnerRepository
	wallets     wallet.Service
	payments    payment.Service
	settlements settlement.Service
	notify      *notification.Service
}

func NewService(
	orders repositories.OrderRepository,
	partners repositories.PartnerRepository,
	wallets wallet.Service,
	payments payment.Service,
	settlements settlement.Service,
	notify *notification.Service,
) Service {
	if orders == nil || wallets == nil {
		panic("order service requires order repository and wallet service")
	}
	if notify == nil {
		notify = notification.NewService(nil)
	}
	return &service{
		orders:      orders,
		partners:    partners,
		wallets:     wallets,
		payments:    payments,
		settlements: settlements,
		notify:      notify,
	}
}

// Create validates the request, charges the consumer, expands the schedule
// and stores the order plus every delivery date in one transaction.
func (s *service) Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	if req.TotalAmount <= 0 {
		return nil, ErrInvalidAmount
	}
	switch req.TimeSlot {
	case models.SlotBreakfast, models.SlotLunch, models.SlotDinner:
	default:
		return nil, ErrInvalidTimeSlot
	}
	if strings.TrimSpace(req.Address) == "" {
		return nil, ErrMissingAddress
	}

	dates, err := schedule.GenerateDeliveryDates(req.DeliveryInfo, time.Now())
	if err != nil {
		return nil, err
	}

	total := utils.Round2(req.TotalAmount)
	order := &models.Order{
		OrderID:       uuid.NewString(),
		ConsumerID:    req.ConsumerID,
		ProviderID:    req.ProviderID,
		MenuName:      req.MenuName,
		TotalAmount:   total,
		TimeSlot:      req.TimeSlot,
		DeliveryInfo:  req.DeliveryInfo,
		Status:        models.OrderStatusActive,
		PaymentMethod: req.PaymentMethod,
		PaymentRef:    req.PaymentRef,
		Address:       req.Address,
		Instructions:  req.Instructions,
	}

	var paymentTx *models.WalletTransaction
	switch req.PaymentMethod {
	case models.PaymentMethodWallet:
		paymentTx, err = s.wallets.DebitSpending(ctx, req.ConsumerID, total, wallet.Operation{
			Category:      models.CategoryOrderPayment,
			Source:        wallet.SourceAPI,
			ReferenceType: "order",
			Description:   fmt.Sprintf("Payment for %s (%s)", req.MenuName, req.TimeSlot),
		})
		if err != nil {
			return nil, err
		}
		order.PaymentRef = paymentTx.TransactionID
	case models.PaymentMethodCard:
		if err := s.payments.VerifyCardPayment(ctx, req.PaymentRef, total); err != nil {
			return nil, err
		}
	case models.PaymentMethodCOD:
	default:
		return nil, ErrInvalidPayment
	}

	deliveries := make([]models.DeliveryOrder, 0, len(dates))
	for _, date := range dates {
		deliveries = append(deliveries, models.DeliveryOrder{
			DeliveryDate:     date,
			TimeSlot:         req.TimeSlot,
			Status:           models.DeliveryStatusPending,
			ConfirmationCode: confirmationCode(),
		})
	}

	if err := s.orders.CreateWithDeliveries(order, deliveries); err != nil {
		if paymentTx != nil {
			if _, revErr := s.wallets.ReverseTransaction(ctx, paymentTx.TransactionID, req.ConsumerID); revErr != nil {
				log.Printf("CRITICAL: failed to reverse payment %s after order creation failure: %v", paymentTx.TransactionID, revErr)
			}
		}
		return nil, err
	}

	s.notify.OrderConfirmed(ctx, order, len(deliveries))
	return &CreateResult{Order: order, Deliveries: deliveries}, nil
}

func (s *service) GetOrder(ctx context.Context, id uint, requesterID uint, role string) (*models.Order, error) {
	order, err := s.orders.GetByID(id)
	if err != nil {
		return nil, err
	}
	if role != models.RoleAdmin && order.ConsumerID != requesterID && order.ProviderID != requesterID {
		return nil, ErrNotOrderOwner
	}
	return order, nil
}

func (s *service) ListForConsumer(ctx context.Context, consumerID uint, limit, offset int) ([]models.Order, int64, error) {
	return s.orders.GetOrdersByConsumer(consumerID, limit, offset)
}

func (s *service) ListForProvider(ctx context.Context, providerID uint, limit, offset int) ([]models.Order, int64, error) {
	return s.orders.GetOrdersByProvider(providerID, limit, offset)
}

func (s *service) GetDelivery(ctx context.Context, id uint) (*models.DeliveryOrder, error) {
	return s.orders.GetDeliveryOrder(id)
}

func (s *service) ListForPartner(ctx context.Context, partnerID uint, limit, offset int) ([]models.DeliveryOrder, int64, error) {
	return s.orders.GetDeliveriesByPartner(partnerID, limit, offset)
}

func (s *service) GetDeliveriesForOrder(ctx context.Context, orderID uint) ([]models.DeliveryOrder, error) {
	return s.orders.GetDeliveriesForOrder(orderID)
}

func (s *service) GetDeliveriesForDate(ctx context.Context, date time.Time, providerID uint) ([]models.DeliveryOrder, error) {
	return s.orders.GetDeliveriesForDate(date, providerID)
}

// transitions lists the forward path of a delivery. Cancellation is not
// here; it has its own entry point with the time-window check.
var transitions = map[string][]string{
	models.DeliveryStatusPending:        {models.DeliveryStatusConfirmed},
	models.DeliveryStatusConfirmed:      {models.DeliveryStatusReady},
	models.DeliveryStatusReady:          {models.DeliveryStatusAssigned},
	models.DeliveryStatusAssigned:       {models.DeliveryStatusOutForDelivery},
	models.DeliveryStatusOutForDelivery: {models.DeliveryStatusDelivered, models.DeliveryStatusNotDelivered},
}

func transitionAllowed(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// actorAllowed checks who may move a delivery into the target status.
// Providers handle kitchen statuses, the assigned partner handles the road,
// admins may do either.
func actorAllowed(delivery *models.DeliveryOrder, status string, actor Actor) bool {
	if actor.Role == models.RoleAdmin {
		return true
	}
	switch status {
	case models.DeliveryStatusConfirmed, models.DeliveryStatusReady:
		return actor.Role == models.RoleProvider && delivery.ProviderID == actor.UserID
	case models.DeliveryStatusOutForDelivery, models.DeliveryStatusDelivered, models.DeliveryStatusNotDelivered:
		return actor.Role == models.RoleDeliveryPartner &&
			delivery.PartnerID != nil && *delivery.PartnerID == actor.PartnerID
	}
	return false
}

func (s *service) UpdateDeliveryStatus(ctx context.Context, deliveryID uint, status string, actor Actor) (*models.DeliveryOrder, error) {
	delivery, err := s.orders.GetDeliveryOrder(deliveryID)
	if err != nil {
		return nil, err
	}
	if delivery.Terminal() {
		return nil, ErrAlreadyTerminal
	}
	if !transitionAllowed(delivery.Status, status) {
		return nil, ErrInvalidTransition
	}
	if !actorAllowed(delivery, status, actor) {
		return nil, ErrNotAuthorized
	}

	delivery.Status = status
	if status == models.DeliveryStatusDelivered {
		now := time.Now()
		delivery.DeliveredAt = &now
	}
	if err := s.orders.UpdateDeliveryOrder(delivery); err != nil {
		return nil, err
	}

	if delivery.Terminal() {
		s.releasePartner(delivery)
		s.maybeCompleteOrder(delivery.OrderID)
	}
	if status == models.DeliveryStatusDelivered {
		s.settleDelivered(ctx, delivery, actor)
	}
	s.notify.DeliveryStatusChanged(ctx, delivery)
	return delivery, nil
}

// ConfirmDelivery marks a delivery as delivered when the consumer's code
// (shown as a QR at handover) matches.
func (s *service) ConfirmDelivery(ctx context.Context, deliveryID uint, code string, actor Actor) (*models.DeliveryOrder, error) {
	delivery, err := s.orders.GetDeliveryOrder(deliveryID)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(delivery.ConfirmationCode, strings.TrimSpace(code)) {
		return nil, ErrBadConfirmationCode
	}
	return s.UpdateDeliveryStatus(ctx, deliveryID, models.DeliveryStatusDelivered, actor)
}

// CancelDelivery cancels one scheduled date if the cutoff for its slot has
// not passed, refunding the consumer's per-meal share for prepaid orders.
func (s *service) CancelDelivery(ctx context.Context, deliveryID uint, consumerID uint, reason string) (*models.DeliveryOrder, error) {
	delivery, err := s.orders.GetDeliveryOrder(deliveryID)
	if err != nil {
		return nil, err
	}
	if delivery.ConsumerID != consumerID {
		return nil, ErrNotOrderOwner
	}
	if delivery.Terminal() {
		return nil, ErrAlreadyTerminal
	}

	if ok, why := schedule.CanCancelDelivery(time.Now(), delivery.DeliveryDate, delivery.TimeSlot); !ok {
		return nil, fmt.Errorf("%w: %s", ErrWindowClosed, why)
	}

	order, err := s.orders.GetByID(delivery.OrderID)
	if err != nil {
		return nil, err
	}

	var refunded float64
	if order.PaymentMethod != models.PaymentMethodCOD {
		count, err := s.orders.CountDeliveriesForOrder(order.ID)
		if err != nil {
			return nil, err
		}
		refunded = utils.Round2(order.TotalAmount / float64(count))
		ref := delivery.ID
		if _, err := s.wallets.AddMoney(ctx, consumerID, refunded, wallet.Operation{
			Category:      models.CategoryRefund,
			Source:        wallet.SourceSystem,
			ReferenceType: "delivery_order",
			ReferenceID:   &ref,
			Description:   fmt.Sprintf("Refund for cancelled %s delivery on %s", delivery.TimeSlot, delivery.DeliveryDate.Format("2006-01-02")),
		}); err != nil {
			return nil, fmt.Errorf("failed to refund cancellation: %w", err)
		}
	}

	now := time.Now()
	delivery.Status = models.DeliveryStatusCancelled
	delivery.CancelledAt = &now
	delivery.CancelReason = reason
	if err := s.orders.UpdateDeliveryOrder(delivery); err != nil {
		return nil, err
	}

	s.releasePartner(delivery)
	s.maybeCompleteOrder(delivery.OrderID)
	s.notify.DeliveryCancelled(ctx, delivery, refunded)
	return delivery, nil
}

// settleDelivered kicks off the provider payout. Settlement failures are
// retried by the batch job, so they never fail the status change.
func (s *service) settleDelivered(ctx context.Context, delivery *models.DeliveryOrder, actor Actor) {
	if s.settlements == nil {
		return
	}
	confirmedBy := actor.UserID
	settled, err := s.settlements.ProcessDeliverySettlement(ctx, delivery.ID, &confirmedBy, models.SettlementTypeAuto)
	if err != nil {
		log.Printf("Settlement for delivery %d deferred to batch: %v", delivery.ID, err)
		return
	}
	if settled.Status == models.SettlementStatusSettled {
		s.notify.SettlementCredited(ctx, settled)
	}
}

func (s *service) releasePartner(delivery *models.DeliveryOrder) {
	if s.partners == nil || delivery.PartnerID == nil {
		return
	}
	if err := s.partners.AdjustLoad(*delivery.PartnerID, -1); err != nil {
		log.Printf("Failed to release partner %d load: %v", *delivery.PartnerID, err)
	}
}

// maybeCompleteOrder closes the parent order once every delivery is final.
func (s *service) maybeCompleteOrder(orderID uint) {
	deliveries, err := s.orders.GetDeliveriesForOrder(orderID)
	if err != nil {
		log.Printf("Failed to check order %d completion: %v", orderID, err)
		return
	}
	for i := range deliveries {
		if !deliveries[i].Terminal() {
			return
		}
	}
	order, err := s.orders.GetByID(orderID)
	if err != nil {
		return
	}
	order.Status = models.OrderStatusCompleted
	if err := s.orders.Update(order); err != nil {
		log.Printf("Failed to complete order %d: %v", orderID, err)
	}
}

func confirmationCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

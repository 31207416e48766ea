package notification

import (
	"context"
	"fmt"
	"log"

	"tiffin/internal/models"
)

// Notice is a single message for one user. Channel is advisory; the
// gateway decides how to deliver it.
type Notice struct {
	UserID uint
	Title  string
	Body   string
}

// Gateway delivers notices. The default implementation writes to the
// server log; a push or SMS gateway can be swapped in without touching
// the callers.
type Gateway interface {
	Send(ctx context.Context, notice Notice) error
}

type logGateway struct{}

func (logGateway) Send(_ context.Context, n Notice) error {
	log.Printf("NOTIFY user=%d title=%q body=%q", n.UserID, n.Title, n.Body)
	return nil
}

type Service struct {
	gateway Gateway
}

func NewService(gateway Gateway) *Service {
	if gateway == nil {
		gateway = logGateway{}
	}
	return &Service{gateway: gateway}
}

func (s *Service) OrderConfirmed(ctx context.Context, order *models.Order, deliveryCount int) {
	s.send(ctx, Notice{
		UserID: order.ConsumerID,
		Title:  "Order confirmed",
		Body:   fmt.Sprintf("Your order %s is confirmed with %d scheduled deliveries.", order.OrderID, deliveryCount),
	})
	s.send(ctx, Notice{
		UserID: order.ProviderID,
		Title:  "New order received",
		Body:   fmt.Sprintf("Order %s: %d deliveries scheduled.", order.OrderID, deliveryCount),
	})
}

func (s *Service) DeliveryStatusChanged(ctx context.Context, delivery *models.DeliveryOrder) {
	s.send(ctx, Notice{
		UserID: delivery.ConsumerID,
		Title:  "Delivery update",
		Body: fmt.Sprintf("Your %s delivery on %s is now %s.",
			delivery.TimeSlot, delivery.DeliveryDate.Format("02 Jan"), delivery.Status),
	})
}

func (s *Service) DeliveryCancelled(ctx context.Context, delivery *models.DeliveryOrder, refunded float64) {
	body := fmt.Sprintf("Your %s delivery on %s was cancelled.", delivery.TimeSlot, delivery.DeliveryDate.Format("02 Jan"))
	if refunded > 0 {
		body = fmt.Sprintf("%s ₹%.2f has been refunded to your wallet.", body, refunded)
	}
	s.send(ctx, Notice{UserID: delivery.ConsumerID, Title: "Delivery cancelled", Body: body})
	s.send(ctx, Notice{
		UserID: delivery.ProviderID,
		Title:  "Delivery cancelled",
		Body:   fmt.Sprintf("The %s delivery on %s was cancelled by the consumer.", delivery.TimeSlot, delivery.DeliveryDate.Format("02 Jan")),
	})
}

func (s *Service) WithdrawalResolved(ctx context.Context, wr *models.WithdrawalRequest) {
	s.send(ctx, Notice{
		UserID: wr.RequesterID,
		Title:  "Withdrawal " + wr.Status,
		Body:   fmt.Sprintf("Your withdrawal request for ₹%.2f is %s.", wr.Amount, wr.Status),
	})
}

func (s *Service) SettlementCredited(ctx context.Context, settlement *models.DeliverySettlement) {
	s.send(ctx, Notice{
		UserID: settlement.ProviderID,
		Title:  "Earnings credited",
		Body:   fmt.Sprintf("₹%.2f credited for the delivery on %s.", settlement.Amount, settlement.DeliveryDate.Format("02 Jan")),
	})
}

func (s *Service) send(ctx context.Context, n Notice) {
	if err := s.gateway.Send(ctx, n); err != nil {
		log.Printf("Failed to send notification to user %d: %v", n.UserID, err)
	}
}

package payment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"

	"tiffin/internal/config"

	stripe "github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/paymentintent"
	"github.com/stripe/stripe-go/v72/webhook"
)

var (
	ErrPaymentNotCompleted = errors.New("payment has not completed")
	ErrAmountMismatch      = errors.New("payment amount does not match order total")
	ErrMissingReference    = errors.New("payment reference is required")
)

// Service verifies card payments against Stripe before an order is accepted.
type Service interface {
	VerifyCardPayment(ctx context.Context, paymentRef string, expectedAmount float64) error
	VerifyWebhook(payload []byte, signature string) (stripe.Event, error)
}

type service struct {
	webhookSecret string
}

func NewService() Service {
	stripe.Key = config.GetEnv("STRIPE_SECRET_KEY", "")
	if stripe.Key == "" {
		log.Println("WARNING: STRIPE_SECRET_KEY not set, card payments will fail verification")
	}
	return &service{webhookSecret: config.GetEnv("STRIPE_WEBHOOK_SECRET", "")}
}

// VerifyCardPayment confirms the referenced payment intent succeeded and that
// the captured amount covers the order total. Stripe amounts are in paise.
func (s *service) VerifyCardPayment(ctx context.Context, paymentRef string, expectedAmount float64) error {
	if paymentRef == "" {
		return ErrMissingReference
	}

	intent, err := paymentintent.Get(paymentRef, nil)
	if err != nil {
		return fmt.Errorf("failed to fetch payment intent: %w", err)
	}
	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		return ErrPaymentNotCompleted
	}
	if intent.Amount < toPaise(expectedAmount) {
		return ErrAmountMismatch
	}
	return nil
}

// toPaise converts a rupee amount to Stripe's integer unit. Truncation here
// would let a charge one paisa short of the total pass verification.
func toPaise(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// VerifyWebhook checks the Stripe-Signature header before an event is trusted.
func (s *service) VerifyWebhook(payload []byte, signature string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, signature, s.webhookSecret)
}

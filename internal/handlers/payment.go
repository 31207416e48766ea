package handlers

import (
	"log"
	"strconv"

	"tiffin/internal/services/live"
	"tiffin/internal/services/payment"
	"tiffin/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type PaymentHandler struct {
	paymentService payment.Service
	registry       *live.Registry
}

func NewPaymentHandler(paymentService payment.Service, registry *live.Registry) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		registry:       registry,
	}
}

// StripeWebhook receives asynchronous payment events. The signature check
// is the only authentication on this route.
func (h *PaymentHandler) StripeWebhook(c *fiber.Ctx) error {
	event, err := h.paymentService.VerifyWebhook(c.Body(), c.Get("Stripe-Signature"))
	if err != nil {
		log.Printf("Rejected webhook: %v", err)
		return utils.BadRequest(c, "invalid webhook signature")
	}

	switch event.Type {
	case "payment_intent.succeeded", "payment_intent.payment_failed", "charge.refunded":
		h.pushToUser(event.Type, event.Data.Object)
	default:
		log.Printf("Unhandled webhook event type: %s", event.Type)
	}

	return utils.Success(c, fiber.Map{"received": true})
}

// pushToUser forwards the payment outcome over the user's live stream when
// the charge carries our user_id metadata.
func (h *PaymentHandler) pushToUser(eventType string, object map[string]interface{}) {
	metadata, _ := object["metadata"].(map[string]interface{})
	raw, _ := metadata["user_id"].(string)
	userID, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || userID == 0 {
		return
	}
	h.registry.Publish(uint(userID), live.Event{
		Type:    eventType,
		Payload: fiber.Map{"payment_ref": object["id"]},
	})
}

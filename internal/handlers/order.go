package handlers

import (
	"errors"
	"strconv"
	"time"

	"tiffin/internal/config"
	"tiffin/internal/models"
	"tiffin/internal/repositories"
	"tiffin/internal/services/order"
	"tiffin/internal/services/schedule"
	"tiffin/internal/services/wallet"
	"tiffin/internal/utils"
	"tiffin/internal/utils/pagination"

	"github.com/gofiber/fiber/v2"
)

type OrderHandler struct {
	orderService order.Service
}

func NewOrderHandler(orderService order.Service) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

func (h *OrderHandler) Create(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var req order.CreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	req.ConsumerID = claims.UserID

	result, err := h.orderService.Create(c.Context(), req)
	if err != nil {
		return orderError(c, err)
	}

	return utils.Respond(c, fiber.StatusCreated, result)
}

func (h *OrderHandler) Get(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return utils.BadRequest(c, "invalid order id")
	}

	o, err := h.orderService.GetOrder(c.Context(), uint(id), claims.UserID, claims.Role)
	if err != nil {
		return orderError(c, err)
	}

	deliveries, err := h.orderService.GetDeliveriesForOrder(c.Context(), o.ID)
	if err != nil {
		return utils.InternalError(c, "Failed to load deliveries")
	}

	return utils.Success(c, fiber.Map{
		"order":      o,
		"deliveries": deliveries,
	})
}

func (h *OrderHandler) List(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	p := pagination.ParseFromRequest(c)

	var orders []models.Order
	var total int64
	if claims.Role == models.RoleProvider {
		orders, total, err = h.orderService.ListForProvider(c.Context(), claims.UserID, p.Limit, p.Offset)
	} else {
		orders, total, err = h.orderService.ListForConsumer(c.Context(), claims.UserID, p.Limit, p.Offset)
	}
	if err != nil {
		return utils.InternalError(c, "Failed to list orders")
	}
	p.Total = total

	return utils.Success(c, pagination.Response(p, orders))
}

// PreviewSchedule expands a delivery schedule without placing an order, so
// the app can show the consumer which dates they are paying for.
func (h *OrderHandler) PreviewSchedule(c *fiber.Ctx) error {
	var info models.DeliveryInfo
	if err := c.BodyParser(&info); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}

	dates, err := schedule.GenerateDeliveryDates(info, time.Now())
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}

	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.In(config.DeliveryLocation()).Format("2006-01-02"))
	}
	return utils.Success(c, fiber.Map{
		"dates": out,
		"count": len(out),
	})
}

func (h *OrderHandler) CancelDelivery(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return utils.BadRequest(c, "invalid delivery id")
	}

	var input struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&input); err != nil && len(c.Body()) > 0 {
		return utils.BadRequest(c, "Invalid request format")
	}

	delivery, err := h.orderService.CancelDelivery(c.Context(), uint(id), claims.UserID, input.Reason)
	if err != nil {
		return orderError(c, err)
	}

	return utils.Success(c, fiber.Map{"delivery": delivery})
}

func orderError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, repositories.ErrOrderNotFound),
		errors.Is(err, repositories.ErrDeliveryOrderNotFound):
		return utils.NotFound(c, err.Error())
	case errors.Is(err, order.ErrNotOrderOwner),
		errors.Is(err, order.ErrNotAuthorized):
		return utils.Forbidden(c, err.Error())
	case errors.Is(err, order.ErrInvalidAmount),
		errors.Is(err, order.ErrInvalidTimeSlot),
		errors.Is(err, order.ErrMissingAddress),
		errors.Is(err, order.ErrInvalidPayment),
		errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, order.ErrAlreadyTerminal),
		errors.Is(err, order.ErrWindowClosed),
		errors.Is(err, order.ErrBadConfirmationCode),
		errors.Is(err, schedule.ErrUnknownScheduleType),
		errors.Is(err, schedule.ErrNoDeliveryDates),
		errors.Is(err, wallet.ErrInsufficientBalance):
		return utils.BadRequest(c, err.Error())
	default:
		return utils.InternalError(c, "Order operation failed")
	}
}

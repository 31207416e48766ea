package handlers

import (
	"strconv"
	"time"

	"tiffin/internal/config"
	"tiffin/internal/models"
	"tiffin/internal/repositories"
	"tiffin/internal/services/assignment"
	"tiffin/internal/services/order"
	"tiffin/internal/utils"
	"tiffin/internal/utils/pagination"

	"github.com/gofiber/fiber/v2"
	qrcode "github.com/skip2/go-qrcode"
)

type DeliveryHandler struct {
	orderService      order.Service
	assignmentService assignment.Service
	routePlanner      *assignment.RoutePlanner
	partnerRepo       repositories.PartnerRepository
}

func NewDeliveryHandler(
	orderService order.Service,
	assignmentService assignment.Service,
	routePlanner *assignment.RoutePlanner,
	partnerRepo repositories.PartnerRepository,
) *DeliveryHandler {
	return &DeliveryHandler{
		orderService:      orderService,
		assignmentService: assignmentService,
		routePlanner:      routePlanner,
		partnerRepo:       partnerRepo,
	}
}

func (h *DeliveryHandler) actor(c *fiber.Ctx) (order.Actor, error) {
	claims, err := extractUserClaims(c)
	if err != nil {
		return order.Actor{}, err
	}
	actor := order.Actor{UserID: claims.UserID, Role: claims.Role}
	if claims.Role == models.RoleDeliveryPartner {
		partner, err := h.partnerRepo.GetByUserID(claims.UserID)
		if err == nil {
			actor.PartnerID = partner.ID
		}
	}
	return actor, nil
}

// UpdateStatus moves a delivery along its lifecycle. Providers confirm and
// ready meals, the assigned partner takes them out and closes them.
func (h *DeliveryHandler) UpdateStatus(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return utils.BadRequest(c, "invalid delivery id")
	}

	var input struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}

	delivery, err := h.orderService.UpdateDeliveryStatus(c.Context(), uint(id), input.Status, actor)
	if err != nil {
		return orderError(c, err)
	}

	return utils.Success(c, fiber.Map{"delivery": delivery})
}

// Confirm closes a delivery with the consumer's confirmation code.
func (h *DeliveryHandler) Confirm(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return utils.BadRequest(c, "invalid delivery id")
	}

	var input struct {
		Code string `json:"code"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}

	delivery, err := h.orderService.ConfirmDelivery(c.Context(), uint(id), input.Code, actor)
	if err != nil {
		return orderError(c, err)
	}

	return utils.Success(c, fiber.Map{"delivery": delivery})
}

// ConfirmationQR renders the consumer's confirmation code as a QR PNG that
// the rider scans at handover.
func (h *DeliveryHandler) ConfirmationQR(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return utils.BadRequest(c, "invalid delivery id")
	}

	delivery, err := h.orderService.GetDelivery(c.Context(), uint(id))
	if err != nil {
		return orderError(c, err)
	}
	if delivery.ConsumerID != claims.UserID && claims.Role != models.RoleAdmin {
		return utils.Forbidden(c, "not your delivery")
	}

	png, err := qrcode.Encode(delivery.ConfirmationCode, qrcode.Medium, 256)
	if err != nil {
		return utils.InternalError(c, "Failed to render QR code")
	}

	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(png)
}

// ForDate lists a provider's deliveries on one date, defaulting to today.
func (h *DeliveryHandler) ForDate(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	loc := config.DeliveryLocation()
	date := time.Now().In(loc)
	if raw := c.Query("date"); raw != "" {
		date, err = time.ParseInLocation("2006-01-02", raw, loc)
		if err != nil {
			return utils.BadRequest(c, "date must be YYYY-MM-DD")
		}
	}
	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)

	providerID := claims.UserID
	if claims.Role == models.RoleAdmin {
		providerID = 0 // all providers
	}

	deliveries, err := h.orderService.GetDeliveriesForDate(c.Context(), midnight, providerID)
	if err != nil {
		return utils.InternalError(c, "Failed to list deliveries")
	}

	return utils.Success(c, fiber.Map{
		"date":       midnight.Format("2006-01-02"),
		"deliveries": deliveries,
	})
}

// Assign picks the best available partner for a ready delivery. Only the
// delivery's own provider, or an admin, may trigger assignment.
func (h *DeliveryHandler) Assign(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return utils.BadRequest(c, "invalid delivery id")
	}

	var input struct {
		PickupLat float64 `json:"pickup_lat"`
		PickupLng float64 `json:"pickup_lng"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}

	partner, err := h.assignmentService.AssignBest(c.Context(), uint(id), claims.UserID, claims.Role, input.PickupLat, input.PickupLng)
	if err != nil {
		switch err {
		case assignment.ErrNoPartnerAvailable, assignment.ErrNotAssignable:
			return utils.BadRequest(c, err.Error())
		case assignment.ErrWrongProvider:
			return utils.Forbidden(c, err.Error())
		case repositories.ErrDeliveryOrderNotFound:
			return utils.NotFound(c, err.Error())
		}
		return utils.InternalError(c, "Failed to assign partner")
	}

	return utils.Success(c, fiber.Map{"partner": partner})
}

// Route returns the partner's stops in suggested visiting order.
func (h *DeliveryHandler) Route(c *fiber.Ctx) error {
	var input struct {
		Waypoints []assignment.Waypoint `json:"waypoints"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	if len(input.Waypoints) == 0 {
		return utils.BadRequest(c, "waypoints are required")
	}

	ordered := h.routePlanner.Optimize(c.Context(), input.Waypoints)
	return utils.Success(c, fiber.Map{"waypoints": ordered})
}

// MyDeliveries lists the authenticated partner's delivery history.
func (h *DeliveryHandler) MyDeliveries(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	if actor.PartnerID == 0 {
		return utils.NotFound(c, "no partner profile")
	}

	p := pagination.ParseFromRequest(c)
	deliveries, total, err := h.orderService.ListForPartner(c.Context(), actor.PartnerID, p.Limit, p.Offset)
	if err != nil {
		return utils.InternalError(c, "Failed to list deliveries")
	}
	p.Total = total

	return utils.Success(c, pagination.Response(p, deliveries))
}

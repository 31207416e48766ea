package handlers

import (
	"errors"
	"strconv"

	"tiffin/internal/models"
	"tiffin/internal/services/withdrawal"
	"tiffin/internal/utils"
	"tiffin/internal/utils/pagination"

	"github.com/gofiber/fiber/v2"
)

type WithdrawalHandler struct {
	withdrawalService withdrawal.Service
}

func NewWithdrawalHandler(withdrawalService withdrawal.Service) *WithdrawalHandler {
	return &WithdrawalHandler{
		withdrawalService: withdrawalService,
	}
}

func (h *WithdrawalHandler) Create(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		Amount float64            `json:"amount"`
		Bank   models.BankDetails `json:"bank_details"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}

	wr, err := h.withdrawalService.Create(c.Context(), withdrawal.CreateRequest{
		RequesterID:   claims.UserID,
		RequesterType: claims.Role,
		Amount:        input.Amount,
		Bank:          input.Bank,
	})
	if err != nil {
		return withdrawalError(c, err)
	}

	return utils.Respond(c, fiber.StatusCreated, fiber.Map{"withdrawal": wr})
}

func (h *WithdrawalHandler) List(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	p := pagination.ParseFromRequest(c)
	requests, total, err := h.withdrawalService.ListForRequester(c.Context(), claims.UserID, p.Limit, p.Offset)
	if err != nil {
		return utils.InternalError(c, "Failed to list withdrawals")
	}
	p.Total = total

	return utils.Success(c, pagination.Response(p, requests))
}

func (h *WithdrawalHandler) Cancel(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return utils.BadRequest(c, "invalid withdrawal id")
	}

	wr, err := h.withdrawalService.Cancel(c.Context(), uint(id), claims.UserID)
	if err != nil {
		return withdrawalError(c, err)
	}

	return utils.Success(c, fiber.Map{"withdrawal": wr})
}

func withdrawalError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, withdrawal.ErrNotFound):
		return utils.NotFound(c, err.Error())
	case errors.Is(err, withdrawal.ErrNotRequester):
		return utils.Forbidden(c, err.Error())
	case errors.Is(err, withdrawal.ErrInvalidAmount),
		errors.Is(err, withdrawal.ErrInsufficientFunds),
		errors.Is(err, withdrawal.ErrIncompleteBank),
		errors.Is(err, withdrawal.ErrNotPending),
		errors.Is(err, withdrawal.ErrNotApproved),
		errors.Is(err, withdrawal.ErrReasonRequired):
		return utils.BadRequest(c, err.Error())
	default:
		return utils.InternalError(c, "Withdrawal operation failed")
	}
}

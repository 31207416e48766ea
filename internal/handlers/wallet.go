package handlers

import (
	"errors"

	"tiffin/internal/models"
	"tiffin/internal/services/payment"
	"tiffin/internal/services/wallet"
	"tiffin/internal/utils"
	"tiffin/internal/utils/pagination"
	"tiffin/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type WalletHandler struct {
	walletService  wallet.Service
	paymentService payment.Service
}

func NewWalletHandler(walletService wallet.Service, paymentService payment.Service) *WalletHandler {
	return &WalletHandler{
		walletService:  walletService,
		paymentService: paymentService,
	}
}

func (h *WalletHandler) GetWallet(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	w, err := h.walletService.GetWallet(c.Context(), claims.UserID, claims.Role)
	if err != nil {
		return utils.InternalError(c, "Failed to get wallet")
	}

	return utils.Success(c, fiber.Map{
		"wallet": w,
	})
}

func (h *WalletHandler) TopUp(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		Amount     float64 `json:"amount"`
		PaymentRef string  `json:"payment_ref"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	if err := validation.ValidateAmount(input.Amount); err != nil {
		return utils.BadRequest(c, err.Error())
	}

	// Top-ups are card funded; the charge must exist before money appears.
	if err := h.paymentService.VerifyCardPayment(c.Context(), input.PaymentRef, input.Amount); err != nil {
		return utils.BadRequest(c, err.Error())
	}

	tx, err := h.walletService.AddMoney(c.Context(), claims.UserID, input.Amount, wallet.Operation{
		Category:    models.CategoryTopUp,
		Source:      wallet.SourceAPI,
		Description: "Wallet top-up",
	})
	if err != nil {
		return walletError(c, err)
	}

	return utils.Success(c, fiber.Map{
		"transaction": tx,
	})
}

func (h *WalletHandler) GetTransactionHistory(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	p := pagination.ParseFromRequest(c)
	txs, total, err := h.walletService.GetTransactionHistory(c.Context(), claims.UserID, p.Limit, p.Offset)
	if err != nil {
		return utils.InternalError(c, "Failed to get transaction history")
	}
	p.Total = total

	return utils.Success(c, pagination.Response(p, txs))
}

// walletError maps wallet service errors onto HTTP statuses.
func walletError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, wallet.ErrInvalidAmount):
		return utils.BadRequest(c, err.Error())
	case errors.Is(err, wallet.ErrInsufficientBalance):
		return utils.BadRequest(c, err.Error())
	case errors.Is(err, wallet.ErrWalletFrozen):
		return utils.Forbidden(c, err.Error())
	case errors.Is(err, wallet.ErrWalletNotFound):
		return utils.NotFound(c, err.Error())
	default:
		return utils.InternalError(c, "Wallet operation failed")
	}
}

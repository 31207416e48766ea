package handlers

import (
	"fmt"
	"strconv"
	"time"

	"tiffin/internal/config"
	"tiffin/internal/models"
	"tiffin/internal/repositories"
	"tiffin/internal/services/notification"
	"tiffin/internal/services/settlement"
	"tiffin/internal/services/wallet"
	"tiffin/internal/services/withdrawal"
	"tiffin/internal/utils"
	"tiffin/internal/utils/pagination"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

type AdminHandler struct {
	userRepo          repositories.UserRepository
	walletRepo        repositories.WalletRepository
	walletService     wallet.Service
	withdrawalService withdrawal.Service
	settlementService settlement.Service
	notify            *notification.Service
}

func NewAdminHandler(
	userRepo repositories.UserRepository,
	walletRepo repositories.WalletRepository,
	walletService wallet.Service,
	withdrawalService withdrawal.Service,
	settlementService settlement.Service,
	notify *notification.Service,
) *AdminHandler {
	return &AdminHandler{
		userRepo:          userRepo,
		walletRepo:        walletRepo,
		walletService:     walletService,
		withdrawalService: withdrawalService,
		settlementService: settlementService,
		notify:            notify,
	}
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	p := pagination.ParseFromRequest(c)
	users, total, err := h.userRepo.GetUsersPaginated(p.Limit, p.Offset)
	if err != nil {
		return utils.InternalError(c, "Failed to list users")
	}
	for i := range users {
		users[i].Password = ""
	}
	p.Total = total
	return utils.Success(c, pagination.Response(p, users))
}

func (h *AdminHandler) ListWallets(c *fiber.Ctx) error {
	p := pagination.ParseFromRequest(c)
	wallets, total, err := h.walletRepo.GetWalletsPaginated(p.Limit, p.Offset)
	if err != nil {
		return utils.InternalError(c, "Failed to list wallets")
	}
	p.Total = total
	return utils.Success(c, pagination.Response(p, wallets))
}

func (h *AdminHandler) FreezeWallet(c *fiber.Ctx) error {
	ownerID, err := strconv.ParseUint(c.Params("ownerId"), 10, 32)
	if err != nil {
		return utils.BadRequest(c, "invalid owner id")
	}

	var input struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&input); err != nil || input.Reason == "" {
		return utils.BadRequest(c, "a freeze reason is required")
	}

	if err := h.walletService.Freeze(c.Context(), uint(ownerID), input.Reason); err != nil {
		return walletError(c, err)
	}
	return utils.Success(c, fiber.Map{"message": "wallet frozen"})
}

func (h *AdminHandler) UnfreezeWallet(c *fiber.Ctx) error {
	ownerID, err := strconv.ParseUint(c.Params("ownerId"), 10, 32)
	if err != nil {
		return utils.BadRequest(c, "invalid owner id")
	}

	if err := h.walletService.Unfreeze(c.Context(), uint(ownerID)); err != nil {
		return walletError(c, err)
	}
	return utils.Success(c, fiber.Map{"message": "wallet unfrozen"})
}

// AdjustWallet credits or debits an owner's wallet with a mandatory reason.
// Every adjustment lands in the ledger under the admin's ID.
func (h *AdminHandler) AdjustWallet(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	ownerID, err := strconv.ParseUint(c.Params("ownerId"), 10, 32)
	if err != nil {
		return utils.BadRequest(c, "invalid owner id")
	}

	var input struct {
		Amount float64 `json:"amount"`
		Reason string  `json:"reason"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	if input.Reason == "" {
		return utils.BadRequest(c, "an adjustment reason is required")
	}
	if input.Amount == 0 {
		return utils.BadRequest(c, "amount must be non-zero")
	}

	adminID := claims.UserID
	op := wallet.Operation{
		Category:    models.CategoryAdminAdjustment,
		Source:      wallet.SourceAdmin,
		Description: input.Reason,
		ActorID:     &adminID,
	}

	var tx *models.WalletTransaction
	if input.Amount > 0 {
		tx, err = h.walletService.AddMoney(c.Context(), uint(ownerID), input.Amount, op)
	} else {
		tx, err = h.walletService.DebitSpending(c.Context(), uint(ownerID), -input.Amount, op)
	}
	if err != nil {
		return walletError(c, err)
	}

	return utils.Success(c, fiber.Map{"transaction": tx})
}

func (h *AdminHandler) ListWithdrawals(c *fiber.Ctx) error {
	status := c.Query("status", models.WithdrawalStatusPending)
	p := pagination.ParseFromRequest(c)

	requests, total, err := h.withdrawalService.ListByStatus(c.Context(), status, p.Limit, p.Offset)
	if err != nil {
		return utils.InternalError(c, "Failed to list withdrawals")
	}
	p.Total = total
	return utils.Success(c, pagination.Response(p, requests))
}

func (h *AdminHandler) ReviewWithdrawal(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return utils.BadRequest(c, "invalid withdrawal id")
	}

	var input struct {
		Action        string `json:"action"` // approve, reject, processed
		Notes         string `json:"notes"`
		Reason        string `json:"reason"`
		ProcessingRef string `json:"processing_ref"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}

	var wr *models.WithdrawalRequest
	switch input.Action {
	case "approve":
		wr, err = h.withdrawalService.Approve(c.Context(), uint(id), claims.UserID, input.Notes)
	case "reject":
		wr, err = h.withdrawalService.Reject(c.Context(), uint(id), claims.UserID, input.Reason)
	case "processed":
		wr, err = h.withdrawalService.MarkProcessed(c.Context(), uint(id), claims.UserID, input.ProcessingRef)
	default:
		return utils.BadRequest(c, "action must be approve, reject or processed")
	}
	if err != nil {
		return withdrawalError(c, err)
	}

	h.notify.WithdrawalResolved(c.Context(), wr)
	return utils.Success(c, fiber.Map{"withdrawal": wr})
}

// SettleDeliveries runs the settlement batch over delivered-but-unsettled
// orders and reports per-delivery failures.
func (h *AdminHandler) SettleDeliveries(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "100"))
	if limit < 1 || limit > 1000 {
		limit = 100
	}

	result, err := h.settlementService.SettlePending(c.Context(), limit)
	if err != nil {
		return utils.InternalError(c, "Settlement batch failed")
	}
	return utils.Success(c, result)
}

func (h *AdminHandler) DisputeSettlement(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return utils.BadRequest(c, "invalid settlement id")
	}

	var input struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&input); err != nil || input.Reason == "" {
		return utils.BadRequest(c, "a dispute reason is required")
	}

	s, err := h.settlementService.Dispute(c.Context(), uint(id), input.Reason)
	if err != nil {
		return settlementError(c, err)
	}
	return utils.Success(c, fiber.Map{"settlement": s})
}

func (h *AdminHandler) ReverseSettlement(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return utils.BadRequest(c, "invalid settlement id")
	}

	s, err := h.settlementService.Reverse(c.Context(), uint(id), claims.UserID)
	if err != nil {
		return settlementError(c, err)
	}
	return utils.Success(c, fiber.Map{"settlement": s})
}

// SettlementReport exports settlements in a date range as an xlsx workbook.
func (h *AdminHandler) SettlementReport(c *fiber.Ctx) error {
	loc := config.DeliveryLocation()
	end := time.Now().In(loc)
	start := end.AddDate(0, -1, 0)

	var err error
	if raw := c.Query("start"); raw != "" {
		if start, err = time.ParseInLocation("2006-01-02", raw, loc); err != nil {
			return utils.BadRequest(c, "start must be YYYY-MM-DD")
		}
	}
	if raw := c.Query("end"); raw != "" {
		if end, err = time.ParseInLocation("2006-01-02", raw, loc); err != nil {
			return utils.BadRequest(c, "end must be YYYY-MM-DD")
		}
		end = end.AddDate(0, 0, 1) // inclusive end date
	}

	settlements, err := h.settlementService.ListBetween(c.Context(), start, end)
	if err != nil {
		return utils.InternalError(c, "Failed to load settlements")
	}

	book := excelize.NewFile()
	defer book.Close()

	sheet := "Settlements"
	book.SetSheetName(book.GetSheetName(0), sheet)

	headers := []string{"Settlement ID", "Delivery Order", "Provider", "Delivery Date", "Amount", "Status", "Type", "Settled At"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		book.SetCellValue(sheet, cell, header)
	}

	var totalAmount float64
	for row, s := range settlements {
		settledAt := ""
		if s.SettledAt != nil {
			settledAt = s.SettledAt.In(loc).Format("2006-01-02 15:04")
		}
		values := []interface{}{
			s.SettlementID,
			s.DeliveryOrderID,
			s.ProviderID,
			s.DeliveryDate.In(loc).Format("2006-01-02"),
			s.Amount,
			s.Status,
			s.SettlementType,
			settledAt,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			book.SetCellValue(sheet, cell, v)
		}
		if s.Status == models.SettlementStatusSettled {
			totalAmount += s.Amount
		}
	}

	totalCell, _ := excelize.CoordinatesToCellName(5, len(settlements)+3)
	book.SetCellValue(sheet, totalCell, totalAmount)

	buf, err := book.WriteToBuffer()
	if err != nil {
		return utils.InternalError(c, "Failed to build report")
	}

	filename := fmt.Sprintf("settlements_%s_%s.xlsx",
		start.Format("20060102"), end.Format("20060102"))
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(buf.Bytes())
}

// Stats summarizes ledger volume for a dashboard card.
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	loc := config.DeliveryLocation()
	now := time.Now().In(loc)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	dayVolume, err := h.walletRepo.GetTransactionVolume(dayStart, now)
	if err != nil {
		return utils.InternalError(c, "Failed to compute stats")
	}
	monthVolume, err := h.walletRepo.GetTransactionVolume(dayStart.AddDate(0, -1, 0), now)
	if err != nil {
		return utils.InternalError(c, "Failed to compute stats")
	}

	return utils.Success(c, fiber.Map{
		"volume_today":   dayVolume,
		"volume_30_days": monthVolume,
	})
}

func settlementError(c *fiber.Ctx, err error) error {
	switch err {
	case settlement.ErrNotFound:
		return utils.NotFound(c, err.Error())
	case settlement.ErrNotDelivered, settlement.ErrNotSettled, settlement.ErrNotDisputed:
		return utils.BadRequest(c, err.Error())
	default:
		return utils.InternalError(c, "Settlement operation failed")
	}
}

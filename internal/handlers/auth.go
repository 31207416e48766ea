package handlers

import (
	"tiffin/internal/services/auth"
	"tiffin/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService auth.Service
}

func NewAuthHandler(authService auth.Service) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req auth.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	if req.Email == "" || req.Phone == "" || req.Name == "" {
		return utils.BadRequest(c, "email, phone and name are required")
	}

	user, err := h.authService.Register(req)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}

	user.Password = ""
	return utils.Respond(c, fiber.StatusCreated, fiber.Map{"user": user})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input struct {
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	if input.Email == "" && input.Phone == "" {
		return utils.BadRequest(c, "email or phone is required")
	}

	user, accessToken, refreshToken, err := h.authService.Login(input.Email, input.Phone, input.Password)
	if err != nil {
		return utils.Unauthorized(c, err.Error())
	}

	user.Password = ""
	return utils.Success(c, fiber.Map{
		"user":          user,
		"access_token":  accessToken,
		"refresh_token": refreshToken,
	})
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var input struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.BodyParser(&input); err != nil || input.RefreshToken == "" {
		return utils.BadRequest(c, "refresh_token is required")
	}

	accessToken, refreshToken, err := h.authService.RefreshTokens(input.RefreshToken)
	if err != nil {
		return utils.Unauthorized(c, err.Error())
	}

	return utils.Success(c, fiber.Map{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
	})
}

// Logout bumps the user's token version, invalidating every issued token.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	if err := h.authService.Logout(claims.UserID); err != nil {
		return utils.InternalError(c, "Failed to log out")
	}
	return utils.Success(c, fiber.Map{"message": "logged out"})
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}

	if err := h.authService.ChangePassword(claims.UserID, input.OldPassword, input.NewPassword); err != nil {
		return utils.BadRequest(c, err.Error())
	}
	return utils.Success(c, fiber.Map{"message": "password changed"})
}

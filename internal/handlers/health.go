package handlers

import (
	"tiffin/internal/repositories"

	"github.com/gofiber/fiber/v2"
)

func HealthCheck(c *fiber.Ctx) error {
	database := "connected"
	if sqlDB, err := repositories.DB.DB(); err != nil || sqlDB.Ping() != nil {
		database = "unreachable"
	}

	redis := "connected"
	if err := repositories.CacheService.HealthCheck(c.Context()); err != nil {
		redis = "unreachable"
	}

	status := fiber.StatusOK
	if database != "connected" || redis != "connected" {
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(fiber.Map{
		"status": "ok",
		"services": fiber.Map{
			"database": database,
			"redis":    redis,
		},
	})
}

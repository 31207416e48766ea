// Package routes defines the API routing configuration.
// It sets up all HTTP routes and their corresponding handlers,
// including middleware and authentication requirements.
package routes

import (
	"tiffin/internal/handlers"
	"tiffin/internal/middleware"
	"tiffin/internal/models"
	"tiffin/internal/repositories"
	"tiffin/internal/services/assignment"
	"tiffin/internal/services/auth"
	"tiffin/internal/services/live"
	"tiffin/internal/services/notification"
	"tiffin/internal/services/order"
	"tiffin/internal/services/payment"
	"tiffin/internal/services/settlement"
	"tiffin/internal/services/wallet"
	"tiffin/internal/services/withdrawal"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// SetupRoutes configures all application routes.
// It groups routes by functionality and applies appropriate middleware.
func SetupRoutes(app *fiber.App, db *gorm.DB) {
	// Initialize repositories
	walletRepo := repositories.NewWalletRepository(db)
	userRepo := repositories.NewUserRepository(db, repositories.CacheService)
	orderRepo := repositories.NewOrderRepository(db)
	withdrawalRepo := repositories.NewWithdrawalRepository(db)
	settlementRepo := repositories.NewSettlementRepository(db)
	partnerRepo := repositories.NewPartnerRepository(db)

	// Initialize services in dependency order
	authService := auth.NewService(userRepo)
	notifyService := notification.NewService(nil)
	walletService := wallet.NewService(walletRepo, repositories.CacheService, nil)
	paymentService := payment.NewService()
	withdrawalService := withdrawal.NewService(withdrawalRepo, walletService)
	settlementService := settlement.NewService(orderRepo, settlementRepo, walletService)
	orderService := order.NewService(orderRepo, partnerRepo, walletService, paymentService, settlementService, notifyService)
	assignmentService := assignment.NewService(orderRepo, partnerRepo)
	registry := live.NewRegistry(live.DefaultHeartbeatTimeout)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	walletHandler := handlers.NewWalletHandler(walletService, paymentService)
	withdrawalHandler := handlers.NewWithdrawalHandler(withdrawalService)
	orderHandler := handlers.NewOrderHandler(orderService)
	deliveryHandler := handlers.NewDeliveryHandler(orderService, assignmentService, assignment.NewRoutePlanner(), partnerRepo)
	paymentHandler := handlers.NewPaymentHandler(paymentService, registry)
	liveHandler := handlers.NewLiveHandler(registry)
	adminHandler := handlers.NewAdminHandler(userRepo, walletRepo, walletService, withdrawalService, settlementService, notifyService)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Welcome to Tiffin API",
			"docs":    "/api",
		})
	})
	app.Get("/health", handlers.HealthCheck)

	api := app.Group("/api")

	// Public endpoints (no auth required)
	api.Post("/register", authHandler.Register)
	api.Post("/login", authHandler.Login)
	api.Post("/refresh", authHandler.Refresh)
	api.Post("/webhooks/stripe", paymentHandler.StripeWebhook)

	authMiddleware := middleware.NewAuthMiddleware(authService)
	protected := api.Use(authMiddleware.Handler)

	setupAccountRoutes(protected, authHandler)
	setupWalletRoutes(protected, walletHandler, withdrawalHandler)
	setupOrderRoutes(protected, orderHandler, deliveryHandler)
	setupProviderRoutes(protected, deliveryHandler)
	setupPartnerRoutes(protected, deliveryHandler)
	setupAdminRoutes(app, authMiddleware, adminHandler)

	protected.Get("/live", liveHandler.Stream)
}

func setupAccountRoutes(router fiber.Router, authHandler *handlers.AuthHandler) {
	router.Post("/logout", authHandler.Logout)
	router.Post("/change-password", middleware.HasPermission(models.PermissionChangePassword), authHandler.ChangePassword)
}

func setupWalletRoutes(router fiber.Router, walletHandler *handlers.WalletHandler, withdrawalHandler *handlers.WithdrawalHandler) {
	w := router.Group("/wallet")
	w.Get("/", middleware.HasPermission(models.PermissionWalletRead), walletHandler.GetWallet)
	w.Post("/topup", middleware.HasPermission(models.PermissionWalletWrite), walletHandler.TopUp)
	w.Get("/transactions", middleware.HasPermission(models.PermissionWalletRead), walletHandler.GetTransactionHistory)

	withdrawals := router.Group("/withdrawals")
	withdrawals.Post("/", middleware.HasPermission(models.PermissionWalletWrite), withdrawalHandler.Create)
	withdrawals.Get("/", middleware.HasPermission(models.PermissionWalletRead), withdrawalHandler.List)
	withdrawals.Post("/:id/cancel", middleware.HasPermission(models.PermissionWalletWrite), withdrawalHandler.Cancel)
}

func setupOrderRoutes(router fiber.Router, orderHandler *handlers.OrderHandler, deliveryHandler *handlers.DeliveryHandler) {
	orders := router.Group("/orders")
	orders.Post("/", middleware.HasPermission(models.PermissionOrderWrite), orderHandler.Create)
	orders.Post("/preview-schedule", orderHandler.PreviewSchedule)
	orders.Get("/", middleware.HasPermission(models.PermissionOrderRead), orderHandler.List)
	orders.Get("/:id", middleware.HasPermission(models.PermissionOrderRead), orderHandler.Get)

	deliveries := router.Group("/deliveries")
	deliveries.Post("/:id/cancel", middleware.HasPermission(models.PermissionOrderWrite), orderHandler.CancelDelivery)
	deliveries.Get("/:id/qr", middleware.HasPermission(models.PermissionOrderRead), deliveryHandler.ConfirmationQR)
}

func setupProviderRoutes(router fiber.Router, deliveryHandler *handlers.DeliveryHandler) {
	provider := router.Group("/provider", middleware.RequireRole(models.RoleProvider))

	provider.Get("/deliveries", middleware.HasPermission(models.PermissionFulfillmentRead), deliveryHandler.ForDate)
	provider.Patch("/deliveries/:id/status", deliveryHandler.UpdateStatus)
	provider.Post("/deliveries/:id/assign", deliveryHandler.Assign)
}

func setupPartnerRoutes(router fiber.Router, deliveryHandler *handlers.DeliveryHandler) {
	partner := router.Group("/partner", middleware.RequireRole(models.RoleDeliveryPartner))

	partner.Get("/deliveries", middleware.HasPermission(models.PermissionOrderRead), deliveryHandler.MyDeliveries)
	partner.Patch("/deliveries/:id/status", middleware.HasPermission(models.PermissionDeliveryUpdate), deliveryHandler.UpdateStatus)
	partner.Post("/deliveries/:id/confirm", middleware.HasPermission(models.PermissionDeliveryUpdate), deliveryHandler.Confirm)
	partner.Post("/route", deliveryHandler.Route)
}

func setupAdminRoutes(app *fiber.App, authMiddleware *middleware.AuthMiddleware, adminHandler *handlers.AdminHandler) {
	admin := app.Group("/api/admin", authMiddleware.Handler, middleware.AdminAuthMiddleware)

	admin.Get("/users", middleware.HasPermission(models.PermissionReadAdmin), adminHandler.ListUsers)
	admin.Get("/wallets", middleware.HasPermission(models.PermissionReadAdmin), adminHandler.ListWallets)
	admin.Post("/wallets/:ownerId/freeze", middleware.HasPermission(models.PermissionWriteAdmin), adminHandler.FreezeWallet)
	admin.Post("/wallets/:ownerId/unfreeze", middleware.HasPermission(models.PermissionWriteAdmin), adminHandler.UnfreezeWallet)
	admin.Post("/wallets/:ownerId/adjust", middleware.HasPermission(models.PermissionWriteAdmin), adminHandler.AdjustWallet)

	admin.Get("/withdrawals", middleware.HasPermission(models.PermissionReadAdmin), adminHandler.ListWithdrawals)
	admin.Post("/withdrawals/:id/review", middleware.HasPermission(models.PermissionWriteAdmin), adminHandler.ReviewWithdrawal)

	admin.Post("/settlements/run", middleware.HasPermission(models.PermissionWriteAdmin), adminHandler.SettleDeliveries)
	admin.Post("/settlements/:id/dispute", middleware.HasPermission(models.PermissionWriteAdmin), adminHandler.DisputeSettlement)
	admin.Post("/settlements/:id/reverse", middleware.HasPermission(models.PermissionWriteAdmin), adminHandler.ReverseSettlement)
	admin.Get("/settlements/report", middleware.HasPermission(models.PermissionReadAdmin), adminHandler.SettlementReport)

	admin.Get("/stats", middleware.HasPermission(models.PermissionReadAdmin), adminHandler.Stats)
}

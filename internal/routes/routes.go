package routes

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/tandoor/internal/config"
	"github.com/example/tandoor/internal/handlers"
	"github.com/example/tandoor/internal/middleware"
	"github.com/example/tandoor/internal/models"
	"github.com/example/tandoor/internal/services"
	"github.com/example/tandoor/internal/ws"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config, hub *ws.Hub) {
	telegramService := services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat, cfg.Currency)

	auditService := services.NewAuditService()
	sequenceService := services.NewSequenceService(db)
	paymentService := services.NewPaymentService(db, auditService)
	catalogResolver := services.NewCatalogResolver(db)
	orderService := services.NewOrderService(db, catalogResolver, auditService, sequenceService, paymentService, hub, telegramService)
	kotService := services.NewKOTService(db, auditService)

	authHandler := handlers.NewAuthHandler(db, cfg)
	catalogHandler := handlers.NewCatalogHandler(db)
	orderHandler := handlers.NewOrderHandler(db, orderService, paymentService)
	kotHandler := handlers.NewKOTHandler(kotService)
	sessionHandler := handlers.NewSessionHandler(db)
	reportHandler := handlers.NewReportHandler(db, cfg)

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)

	// Everything below requires a valid staff token.
	protected := api.Group("", middleware.AuthMiddleware(cfg))

	protected.Get("/auth/me", authHandler.Me)
	protected.Post("/auth/staff",
		middleware.RequireRoles(models.RoleAdmin),
		authHandler.CreateStaff)

	// Catalog routes. Mutations are manager-level.
	manager := middleware.RequireRoles(models.RoleAdmin, models.RoleManager)

	categories := protected.Group("/categories")
	categories.Get("/", catalogHandler.ListCategories)
	categories.Post("/", manager, catalogHandler.CreateCategory)
	categories.Get("/:id", catalogHandler.GetCategory)
	categories.Put("/:id", manager, catalogHandler.UpdateCategory)
	categories.Delete("/:id", manager, catalogHandler.DeleteCategory)

	menuItems := protected.Group("/menu-items")
	menuItems.Get("/", catalogHandler.ListMenuItems)
	menuItems.Post("/", manager, catalogHandler.CreateMenuItem)
	menuItems.Get("/:id", catalogHandler.GetMenuItem)
	menuItems.Put("/:id", manager, catalogHandler.UpdateMenuItem)
	menuItems.Delete("/:id", manager, catalogHandler.DeleteMenuItem)

	deals := protected.Group("/deals")
	deals.Get("/", catalogHandler.ListDeals)
	deals.Post("/", manager, catalogHandler.CreateDeal)
	deals.Get("/:id", catalogHandler.GetDeal)
	deals.Delete("/:id", manager, catalogHandler.DeleteDeal)

	// Register sessions
	sessions := protected.Group("/sessions")
	sessions.Get("/", sessionHandler.ListSessions)
	sessions.Post("/", sessionHandler.OpenSession)
	sessions.Get("/current", sessionHandler.CurrentSession)
	sessions.Post("/:id/close", sessionHandler.CloseSession)

	// Order lifecycle
	orders := protected.Group("/orders")
	orders.Post("/", orderHandler.CreateOrder)
	orders.Get("/", orderHandler.ListOrders)
	orders.Get("/:id", orderHandler.GetOrder)
	orders.Post("/:id/items", orderHandler.AddItem)
	orders.Put("/:id/items/:itemId", orderHandler.UpdateItem)
	orders.Delete("/:id/items/:itemId", orderHandler.RemoveItem)
	orders.Post("/:id/discount", manager, orderHandler.ApplyDiscount)
	orders.Delete("/:id/discount", manager, orderHandler.RemoveDiscount)
	orders.Put("/:id/delivery-status", orderHandler.UpdateDeliveryStatus)
	orders.Post("/:id/complete", orderHandler.CompleteOrder)
	orders.Post("/:id/pay", orderHandler.MarkOrderAsPaid)
	orders.Post("/:id/cancel", orderHandler.CancelOrder)
	orders.Post("/:id/repair", manager, orderHandler.RepairOrder)

	// Kitchen tickets
	orders.Post("/:id/kot", kotHandler.PrintKOT)
	orders.Get("/:id/kot", kotHandler.ListPrints)

	// Reports
	protected.Get("/reports/daily", manager, reportHandler.DailySales)

	// Live order feed for POS screens.
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(hub.Handler()))
}

package router

import (
	"github.com/agentfox/agentfox/app/controllers"
	"github.com/agentfox/agentfox/internal/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// API v1 routes, API-key authenticated
	v1 := api.Group("/v1", middleware.APIKeyAuthMiddleware())
	v1.Post("/user/refresh", controllers.HandleRefreshUser)
	v1.Get("/user/balance", controllers.HandleGetUserBalance)
	v1.Get("/user/transactions", controllers.HandleListUserTransactions)
	v1.Get("/agents", controllers.HandleListAgents)
	v1.Post("/agents/:id/run", controllers.HandleRunAgent)
	v1.Get("/admin/stats/payments", controllers.HandleAdminPaymentStats)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}

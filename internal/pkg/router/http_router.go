package router

import (
	"github.com/agentfox/agentfox/app/controllers"
	"github.com/agentfox/agentfox/app/repository"
	"github.com/agentfox/agentfox/internal/pkg/constants"
	"github.com/agentfox/agentfox/internal/pkg/database"
	"github.com/agentfox/agentfox/internal/pkg/payments"

	"github.com/gofiber/fiber/v2"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init repositories
	repository.InitializeFactory(database.GetDB())

	app.Get(constants.HealthRoute, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Payment provider webhook (no auth middleware, signature-verified in the service)
	webhookSvc := payments.NewServiceFromDB(payments.ConfigFromEnv(), database.GetDB())
	app.Post(constants.StripeWebhookRoute, controllers.NewStripeWebhookHandler(webhookSvc))
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}

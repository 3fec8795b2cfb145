package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/agentfox/agentfox/app/models"
	"github.com/agentfox/agentfox/internal/pkg/database"
	"github.com/agentfox/agentfox/internal/pkg/metrics/counter"
	"github.com/agentfox/agentfox/internal/pkg/usercontext"
)

// HandleAdminPaymentStats returns operational counters for the webhook
// pipeline plus totals from the event and journal tables.
func HandleAdminPaymentStats(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn || !userCtx.IsAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Admin access required"})
	}

	processed, creditsGranted, err := counter.PaymentTotals()
	if err != nil {
		processed, creditsGranted = 0, 0
	}

	db := database.GetDB()
	var eventCount, failedCount, txCount int64
	db.Model(&models.PaymentWebhookEvent{}).Count(&eventCount)
	db.Model(&models.PaymentWebhookEvent{}).Where("processing_error <> ''").Count(&failedCount)
	db.Model(&models.CreditTransaction{}).Count(&txCount)

	return c.JSON(fiber.Map{
		"success": true,
		"counters": fiber.Map{
			"webhooks_processed": processed,
			"credits_granted":    creditsGranted,
		},
		"events": fiber.Map{
			"stored": eventCount,
			"failed": failedCount,
		},
		"transactions": txCount,
	})
}

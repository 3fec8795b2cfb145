package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/agentfox/agentfox/internal/pkg/metrics/counter"
	"github.com/agentfox/agentfox/internal/pkg/payments"
)

// NewStripeWebhookHandler returns the webhook endpoint bound to a
// reconciliation service. The service carries its own signing secret and
// tier table so tests can run the full handler with fakes.
func NewStripeWebhookHandler(svc *payments.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rawBody := append([]byte(nil), c.BodyRaw()...)
		signature := strings.TrimSpace(c.Get("Stripe-Signature"))
		if signature == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing stripe signature"})
		}

		res, err := svc.Reconcile(rawBody, signature)
		if err != nil {
			return stripeWebhookError(c, err)
		}

		_ = counter.AddPaymentProcessed()
		if res.Ignored {
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true})
		}
		if res.Duplicate {
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "duplicate": true})
		}

		_ = counter.AddCreditsGranted(res.CreditsAdded)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success":      true,
			"creditsAdded": res.CreditsAdded,
			"newTotal":     res.NewTotal,
		})
	}
}

// stripeWebhookError maps reconciliation failures to the response contract
// the provider's retry logic expects: 4xx stops redelivery of bad events,
// 5xx lets transient persistence failures be retried.
func stripeWebhookError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, payments.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found in database"})
	case errors.Is(err, payments.ErrPersistence):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update credits"})
	case errors.Is(err, payments.ErrInvalidSignature),
		errors.Is(err, payments.ErrUnknownAmount),
		errors.Is(err, payments.ErrMissingIdentity),
		errors.Is(err, payments.ErrMalformedEvent):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Webhook processing failed"})
	}
}

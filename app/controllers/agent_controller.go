package controllers

import (
	"errors"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/agentfox/agentfox/app/models"
	"github.com/agentfox/agentfox/app/repository"
	"github.com/agentfox/agentfox/internal/pkg/database"
	"github.com/agentfox/agentfox/internal/pkg/metrics/counter"
	"github.com/agentfox/agentfox/internal/pkg/payments"
	"github.com/agentfox/agentfox/internal/pkg/usercontext"
)

// HandleListAgents returns the active catalog, optionally filtered.
func HandleListAgents(c *fiber.Ctx) error {
	repo := repository.GetGlobalFactory().GetAgentRepository()
	agents, err := repo.GetActive(c.Query("category"), c.Query("q"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load agents"})
	}
	return c.JSON(fiber.Map{"success": true, "agents": agents})
}

// HandleRunAgent debits the agent's cost from the caller and records the run.
// Debits go through the same conditional balance update as webhook grants,
// so a concurrent purchase cannot be lost.
func HandleRunAgent(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	agentID, err := c.ParamsInt("id")
	if err != nil || agentID < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid agent id"})
	}

	agentRepo := repository.GetGlobalFactory().GetAgentRepository()
	agent, err := agentRepo.GetByID(uint(agentID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Agent not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load agent"})
	}
	if !agent.IsActive {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Agent not found"})
	}

	ledger := payments.NewLedgerFromDB(database.GetDB())
	newTotal, err := ledger.SpendCredits(userCtx.UserID, agent.Cost)
	if err != nil {
		switch {
		case errors.Is(err, payments.ErrInsufficientCredits):
			return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{"error": "Insufficient credits"})
		case errors.Is(err, payments.ErrUserNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to debit credits"})
		}
	}

	txRepo := repository.GetGlobalFactory().GetCreditTransactionRepository()
	if err := txRepo.Create(models.NewCreditTransaction(
		userCtx.UserID, -agent.Cost, newTotal, models.CreditSourceAgentRun, fmt.Sprintf("agent:%d", agent.ID),
	)); err != nil {
		log.Printf("agent run journal write failed for user %d agent %d: %v", userCtx.UserID, agent.ID, err)
	}
	_ = counter.AddAgentRun(agent.ID)

	return c.JSON(fiber.Map{
		"success":      true,
		"agent":        agent.Name,
		"creditsSpent": agent.Cost,
		"newTotal":     newTotal,
	})
}

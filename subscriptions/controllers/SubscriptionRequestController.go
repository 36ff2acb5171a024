package controllers

import (
	"context"
	"strings"
	indexing_repository "utility-billing-backend/bleve/repositories"
	"utility-billing-backend/config"
	"utility-billing-backend/db/models"
	"utility-billing-backend/subscriptions/repositories"
	"utility-billing-backend/subscriptions/services"
	"utility-billing-backend/tasks"
	"utility-billing-backend/utils"

	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const statisticsCacheResource = "subscription_statistics"

// SubscriptionRequestController exposes the subscription workflow over HTTP. BleveRepo, Tasks
// and Cache are optional; without them search is unavailable, no completion notice is queued
// and statistics are always computed from the database.
type SubscriptionRequestController struct {
	Service   *services.SubscriptionService
	Repo      repositories.SubscriptionRequestRepository
	BleveRepo indexing_repository.BleveRepositoryInterface
	Tasks     tasks.Enqueuer
	Cache     *redis.Client
}

func parseRequestID(c *fiber.Ctx) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(c.Params("id")))
}

func invalidRequestID(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"message": "Invalid subscription request ID",
		"error":   err.Error(),
	})
}

func invalidPayload(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"message": "Invalid request payload",
		"error":   err.Error(),
	})
}

// errorStatus maps a workflow error kind to its HTTP status. Provisioning failures carry
// the kind that caused them, so the specific kinds are checked first.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrInvalidState), errors.Is(err, services.ErrConflictingTransition):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrPaymentIncomplete), errors.Is(err, services.ErrConfigurationMissing):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, services.ErrInvalidAmount), errors.Is(err, services.ErrValidation):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func respondWithError(c *fiber.Ctx, err error, message string) error {
	status := errorStatus(err)

	response := fiber.Map{
		"success": false,
		"message": message,
		"error":   err.Error(),
	}
	if hint := services.Hint(err); hint != "" {
		response["hint"] = hint
	}

	if status >= fiber.StatusInternalServerError {
		config.Logger.Error(message, zap.String("path", c.Path()), zap.Error(err))
	} else {
		config.Logger.Warn(message, zap.String("path", c.Path()), zap.Int("status", status), zap.Error(err))
	}
	return c.Status(status).JSON(response)
}

// afterChange refreshes the search index and drops cached statistics once a change has
// committed. Failures are logged; the change itself already succeeded.
func (sc *SubscriptionRequestController) afterChange(ctx context.Context, request *models.SubscriptionRequest) {
	if sc.BleveRepo != nil {
		if err := sc.BleveRepo.IndexSubscriptionRequest(*request); err != nil {
			config.Logger.Error("Failed to index subscription request",
				zap.String("requestNo", request.RequestNo),
				zap.Error(err))
		}
	}
	if err := utils.InvalidateCache(ctx, sc.Cache, statisticsCacheResource); err != nil {
		config.Logger.Warn("Failed to invalidate statistics cache", zap.Error(err))
	}
}

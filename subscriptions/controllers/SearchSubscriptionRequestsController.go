package controllers

import (
	"strings"
	"utility-billing-backend/config"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	defaultSearchSize = 20
	maxSearchSize     = 100
)

// SearchSubscriptionRequestsController runs a full-text search over request number, applicant
// name, phone numbers and city. ?status= narrows the hits to one status.
func (sc *SubscriptionRequestController) SearchSubscriptionRequestsController(c *fiber.Ctx) error {
	if sc.BleveRepo == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"success": false,
			"message": "Search is not available",
		})
	}

	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Query parameter q is required",
		})
	}

	size := c.QueryInt("size", defaultSearchSize)
	if size < 1 || size > maxSearchSize {
		size = defaultSearchSize
	}

	ids, err := sc.BleveRepo.SearchSubscriptionRequests(q, c.Query("status"), size)
	if err != nil {
		config.Logger.Error("Subscription request search failed", zap.String("query", q), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Search failed",
		})
	}

	results, err := sc.Repo.GetSubscriptionRequestsByIDs(ids)
	if err != nil {
		config.Logger.Error("Failed to load search hits", zap.Int("hits", len(ids)), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Search failed",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    results,
		"total":   len(results),
	})
}

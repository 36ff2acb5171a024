package controllers

import (
	"time"
	"utility-billing-backend/config"
	"utility-billing-backend/subscriptions/repositories"
	"utility-billing-backend/utils"
	"utility-billing-backend/utils/pagination"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const statisticsCacheTTL = time.Minute

// checkDateFilters returns the first of date_from and date_to that is not "2006-01-02".
func checkDateFilters(filters map[string]string) (string, error) {
	for _, key := range []string{"date_from", "date_to"} {
		if value := filters[key]; value != "" {
			if _, err := utils.ParseDateOnly(value); err != nil {
				return key, err
			}
		}
	}
	return "", nil
}

func invalidDateFilter(c *fiber.Ctx, key string, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"message": "Invalid " + key + ", expected YYYY-MM-DD",
		"error":   err.Error(),
	})
}

// GetFilteredSubscriptionRequestsController lists requests, newest first, with the filters
// status, payment_status, customer_type, city, request_no, applicant_name, date_from and date_to.
func (sc *SubscriptionRequestController) GetFilteredSubscriptionRequestsController(c *fiber.Ctx) error {
	params := pagination.ParsePaginationParams(c)
	if err := pagination.ValidatePaginationParams(params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})
	}
	if key, err := checkDateFilters(params.Filters); err != nil {
		return invalidDateFilter(c, key, err)
	}

	items, total, err := sc.Repo.GetFilteredSubscriptionRequests(params.PageSize, params.Offset(), params.Filters)
	if err != nil {
		config.Logger.Error("Failed to fetch filtered subscription requests", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch subscription requests",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    pagination.NewPaginatedResponse(c, items, total, params),
	})
}

func (sc *SubscriptionRequestController) GetSubscriptionRequestController(c *fiber.Ctx) error {
	id, err := parseRequestID(c)
	if err != nil {
		return invalidRequestID(c, err)
	}

	request, err := sc.Service.GetSubscriptionRequest(id)
	if err != nil {
		return respondWithError(c, err, "Failed to fetch subscription request")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    request,
	})
}

// GetSubscriptionStatisticsController returns the dashboard counts. Results are cached in
// redis for a minute and dropped whenever a request changes.
func (sc *SubscriptionRequestController) GetSubscriptionStatisticsController(c *fiber.Ctx) error {
	cacheKey := statisticsCacheResource + ":summary"

	var stats repositories.SubscriptionStatistics
	if utils.GetCachedJSON(c.UserContext(), sc.Cache, cacheKey, &stats) {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": true,
			"data":    stats,
			"cached":  true,
		})
	}

	fresh, err := sc.Repo.GetSubscriptionStatistics()
	if err != nil {
		config.Logger.Error("Failed to compute subscription statistics", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch statistics",
		})
	}
	utils.SetCachedJSON(c.UserContext(), sc.Cache, cacheKey, fresh, statisticsCacheTTL)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    fresh,
		"cached":  false,
	})
}

package controllers

import (
	"utility-billing-backend/subscriptions/requests"

	"github.com/gofiber/fiber/v2"
)

// CreateSubscriptionRequestController registers a new application in PENDING_REVIEW.
func (sc *SubscriptionRequestController) CreateSubscriptionRequestController(c *fiber.Ctx) error {
	var input requests.CreateSubscriptionRequest
	if err := c.BodyParser(&input); err != nil {
		return invalidPayload(c, err)
	}

	request, err := sc.Service.CreateSubscriptionRequest(input)
	if err != nil {
		return respondWithError(c, err, "Failed to create subscription request")
	}
	sc.afterChange(c.UserContext(), request)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Subscription request created successfully",
		"data":    request,
	})
}

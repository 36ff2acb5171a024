package controllers

import (
	"utility-billing-backend/config"
	"utility-billing-backend/subscriptions/requests"
	"utility-billing-backend/tasks"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// CompleteInstallationController provisions the customer account and meter for an installed
// request. The completion notice is queued only after the provisioning has committed.
func (sc *SubscriptionRequestController) CompleteInstallationController(c *fiber.Ctx) error {
	id, err := parseRequestID(c)
	if err != nil {
		return invalidRequestID(c, err)
	}

	var input requests.CompleteInstallationRequest
	if err := c.BodyParser(&input); err != nil {
		return invalidPayload(c, err)
	}

	result, err := sc.Service.CompleteInstallation(id, input)
	if err != nil {
		return respondWithError(c, err, "Failed to complete installation")
	}
	sc.afterChange(c.UserContext(), result.Request)

	if sc.Tasks != nil {
		if err := tasks.EnqueueInstallationCompleted(sc.Tasks, result); err != nil {
			config.Logger.Error("Failed to queue installation notice",
				zap.String("requestNo", result.Request.RequestNo),
				zap.String("accountNo", result.Customer.AccountNo),
				zap.Error(err))
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Installation completed and customer account created",
		"data":    result,
	})
}

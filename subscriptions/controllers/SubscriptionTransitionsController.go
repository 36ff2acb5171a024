package controllers

import (
	"utility-billing-backend/db/models"
	"utility-billing-backend/subscriptions/requests"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// transition runs one workflow step against the request named in the path. An empty body
// is allowed; the service rejects it if the step needs fields.
func (sc *SubscriptionRequestController) transition(
	c *fiber.Ctx,
	input interface{},
	done string,
	run func(id uuid.UUID) (*models.SubscriptionRequest, error),
) error {
	id, err := parseRequestID(c)
	if err != nil {
		return invalidRequestID(c, err)
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(input); err != nil {
			return invalidPayload(c, err)
		}
	}

	request, err := run(id)
	if err != nil {
		return respondWithError(c, err, "Subscription request could not be "+done)
	}
	sc.afterChange(c.UserContext(), request)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Subscription request " + done + " successfully",
		"data":    request,
	})
}

func (sc *SubscriptionRequestController) UpdateSubscriptionRequestController(c *fiber.Ctx) error {
	var input requests.UpdateSubscriptionRequest
	return sc.transition(c, &input, "updated", func(id uuid.UUID) (*models.SubscriptionRequest, error) {
		return sc.Service.UpdateSubscriptionRequest(id, input)
	})
}

func (sc *SubscriptionRequestController) ApproveSubscriptionRequestController(c *fiber.Ctx) error {
	var input requests.ApproveSubscriptionRequest
	return sc.transition(c, &input, "approved", func(id uuid.UUID) (*models.SubscriptionRequest, error) {
		return sc.Service.ApproveSubscriptionRequest(id, input)
	})
}

func (sc *SubscriptionRequestController) RejectSubscriptionRequestController(c *fiber.Ctx) error {
	var input requests.RejectSubscriptionRequest
	return sc.transition(c, &input, "rejected", func(id uuid.UUID) (*models.SubscriptionRequest, error) {
		return sc.Service.RejectSubscriptionRequest(id, input)
	})
}

func (sc *SubscriptionRequestController) CancelSubscriptionRequestController(c *fiber.Ctx) error {
	var input requests.CancelSubscriptionRequest
	return sc.transition(c, &input, "cancelled", func(id uuid.UUID) (*models.SubscriptionRequest, error) {
		return sc.Service.CancelSubscriptionRequest(id, input)
	})
}

// AssignTechnicianController schedules a paid request, or reschedules an assigned one.
func (sc *SubscriptionRequestController) AssignTechnicianController(c *fiber.Ctx) error {
	var input requests.AssignTechnicianRequest
	return sc.transition(c, &input, "assigned", func(id uuid.UUID) (*models.SubscriptionRequest, error) {
		return sc.Service.AssignTechnician(id, input)
	})
}

func (sc *SubscriptionRequestController) StartInstallationController(c *fiber.Ctx) error {
	var input requests.StartInstallationRequest
	return sc.transition(c, &input, "started", func(id uuid.UUID) (*models.SubscriptionRequest, error) {
		return sc.Service.StartInstallation(id, input)
	})
}

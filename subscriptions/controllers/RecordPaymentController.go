package controllers

import (
	"utility-billing-backend/config"
	"utility-billing-backend/subscriptions/requests"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RecordPaymentController posts one payment against the request's approved total.
func (sc *SubscriptionRequestController) RecordPaymentController(c *fiber.Ctx) error {
	id, err := parseRequestID(c)
	if err != nil {
		return invalidRequestID(c, err)
	}

	var input requests.RecordPaymentRequest
	if err := c.BodyParser(&input); err != nil {
		return invalidPayload(c, err)
	}

	request, payment, err := sc.Service.RecordPayment(id, input)
	if err != nil {
		return respondWithError(c, err, "Failed to record payment")
	}
	sc.afterChange(c.UserContext(), request)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Payment recorded successfully",
		"data": fiber.Map{
			"request": request,
			"payment": payment,
		},
	})
}

// GetSubscriptionPaymentsController lists the payments posted against a request, oldest first.
func (sc *SubscriptionRequestController) GetSubscriptionPaymentsController(c *fiber.Ctx) error {
	id, err := parseRequestID(c)
	if err != nil {
		return invalidRequestID(c, err)
	}

	request, err := sc.Service.GetSubscriptionRequest(id)
	if err != nil {
		return respondWithError(c, err, "Failed to fetch payments")
	}

	payments, err := sc.Repo.GetSubscriptionPayments(id)
	if err != nil {
		config.Logger.Error("Failed to fetch subscription payments",
			zap.String("requestID", id.String()),
			zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch payments",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"request_no":     request.RequestNo,
			"total_amount":   request.TotalAmount,
			"paid_amount":    request.PaidAmount,
			"outstanding":    request.Outstanding(),
			"payment_status": request.PaymentStatus,
			"payments":       payments,
		},
	})
}

package routes

import (
	"time"
	"utility-billing-backend/middleware"
	controllers "utility-billing-backend/subscriptions/controllers"

	"github.com/gofiber/fiber/v2"
)

func SubscriptionRequestInitRoutes(
	app *fiber.App,
	subscriptionController *controllers.SubscriptionRequestController,
	idempotencyTTL time.Duration,
) {
	// Create API v1 group
	api := app.Group("/api/v1")
	group := api.Group("/subscription-requests")

	idempotent := middleware.Idempotency(middleware.IdempotencyConfig{
		Client: subscriptionController.Cache,
		TTL:    idempotencyTTL,
	})

	// fixed paths first so they are not taken as an :id
	group.Get("/statistics", subscriptionController.GetSubscriptionStatisticsController)
	group.Get("/search", subscriptionController.SearchSubscriptionRequestsController)
	group.Get("/export", subscriptionController.ExportSubscriptionRequestsController)

	group.Post("/", subscriptionController.CreateSubscriptionRequestController)
	group.Get("/", subscriptionController.GetFilteredSubscriptionRequestsController)
	group.Get("/:id", subscriptionController.GetSubscriptionRequestController)
	group.Patch("/:id", subscriptionController.UpdateSubscriptionRequestController)
	group.Post("/:id/approve", subscriptionController.ApproveSubscriptionRequestController)
	group.Post("/:id/reject", subscriptionController.RejectSubscriptionRequestController)
	group.Post("/:id/payments", idempotent, subscriptionController.RecordPaymentController)
	group.Get("/:id/payments", subscriptionController.GetSubscriptionPaymentsController)
	group.Post("/:id/assign", subscriptionController.AssignTechnicianController)
	group.Post("/:id/start-installation", subscriptionController.StartInstallationController)
	group.Post("/:id/complete", subscriptionController.CompleteInstallationController)
	group.Post("/:id/cancel", subscriptionController.CancelSubscriptionRequestController)
}

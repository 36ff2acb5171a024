package middleware

import (
	"utility-billing-backend/config"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// InitCors applies CORS settings to the app. CORS_ALLOW_ORIGINS is a comma separated list.
func InitCors(app *fiber.App) {
	app.Use(cors.New(cors.Config{
		AllowOrigins:     config.GetEnvOrDefault("CORS_ALLOW_ORIGINS", "http://localhost:5173"),
		AllowMethods:     "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, Idempotency-Key",
		ExposeHeaders:    "Content-Disposition, Idempotent-Replayed",
		AllowCredentials: true,
	}))
}

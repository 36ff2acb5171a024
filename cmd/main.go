package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "utility-billing-backend/config"
	"utility-billing-backend/internal/bootstrap"
	"utility-billing-backend/middleware"
	"utility-billing-backend/numbering"
	"utility-billing-backend/observability"
	"utility-billing-backend/seeds"
	"utility-billing-backend/tasks"
	"utility-billing-backend/utils"

	// Repositories
	bleveRepositories "utility-billing-backend/bleve/repositories"
	subscription_repositories "utility-billing-backend/subscriptions/repositories"

	// Services
	bleveServices "utility-billing-backend/bleve/services"
	subscription_services "utility-billing-backend/subscriptions/services"

	// Routes
	subscription_controllers "utility-billing-backend/subscriptions/controllers"
	subscription_routes "utility-billing-backend/subscriptions/routes"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	// Load environment variables, then initialize the Zap logger
	envErr := config.InitFromEnv()
	defer config.Logger.Sync()
	if envErr != nil {
		config.Logger.Warn("No .env file loaded, using process environment", zap.Error(envErr))
	}

	ctx := context.Background()
	port := config.GetEnvOrDefault("PORT", "8080")

	// Initialize database, reference data and redis
	db := config.ConfigureDatabase()
	if err := seeds.SeedBillingReferenceData(db); err != nil {
		config.Logger.Fatal("Failed to seed billing reference data", zap.Error(err))
	}
	redisClient := config.InitRedisServer(ctx)
	defer redisClient.Close()

	// Asynq client for the API and worker for the notifications queue
	asynqRedisOpt := asynq.RedisClientOpt{
		Addr:     config.GetEnvOrDefault("REDIS_ADDRESS", "localhost:6379"),
		Password: config.GetEnv("REDIS_PASSWORD"),
		DB:       0,
	}
	asynqClient := asynq.NewClient(asynqRedisOpt)
	defer asynqClient.Close()

	worker := asynq.NewServer(asynqRedisOpt, asynq.Config{
		Concurrency: config.GetEnvInt("WORKER_CONCURRENCY", 5),
		Queues:      map[string]int{tasks.NotificationsQueue: 1},
		Logger:      config.Logger.Sugar(),
	})
	sendsPerMinute := max(1, config.GetEnvInt("SMTP_SENDS_PER_MINUTE", 30))
	notifier := &tasks.Notifier{
		Mailer:  utils.NewSMTPMailerFromEnv(),
		Limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(sendsPerMinute)), 1),
	}
	mux := asynq.NewServeMux()
	tasks.RegisterHandlers(mux, notifier)
	if err := worker.Start(mux); err != nil {
		config.Logger.Fatal("Failed to start task worker", zap.Error(err))
	}
	defer worker.Shutdown()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	// Search index
	indexPath := config.GetEnvOrDefault("BLEVE_INDEX_PATH", "./bleve_data")
	bleveIndexingService := bleveServices.NewIndexingService(config.Logger, indexPath)
	defer bleveIndexingService.Close()
	_, bleveInterfaceRepo := bleveRepositories.NewBleveRepository(bleveIndexingService)

	// Repositories and services
	requestRepo := subscription_repositories.NewSubscriptionRequestRepository(db)
	provisioningRepo := subscription_repositories.NewProvisioningRepository(db)
	subscriptionService := subscription_services.NewSubscriptionService(
		db,
		requestRepo,
		provisioningRepo,
		numbering.NewSequenceGenerator(),
		metrics,
	)

	// Re-Index all data
	go func() {
		if _, err := bootstrap.IndexBleveData(requestRepo, bleveInterfaceRepo); err != nil {
			config.Logger.Error("Search index rebuild failed", zap.Error(err))
		}
	}()

	app := fiber.New()
	middleware.InitCors(app)
	app.Use(observability.FiberMiddleware(metrics))
	app.Get("/metrics", observability.Handler(registry))

	// Routes
	subscription_routes.SubscriptionRequestInitRoutes(app, &subscription_controllers.SubscriptionRequestController{
		Service:   subscriptionService,
		Repo:      requestRepo,
		BleveRepo: bleveInterfaceRepo,
		Tasks:     asynqClient,
		Cache:     redisClient,
	}, config.GetEnvDuration("IDEMPOTENCY_TTL", 24*time.Hour))

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		config.Logger.Info("Shutting down server")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			config.Logger.Error("Server shutdown failed", zap.Error(err))
		}
	}()

	// Start the application
	config.Logger.Info("Server starting", zap.String("port", port))
	if err := app.Listen(":" + port); err != nil {
		config.Logger.Fatal("Server failed", zap.String("port", port), zap.Error(err))
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agrirent/service-booking/internal/application"
	"github.com/agrirent/service-booking/internal/common/auth"
	"github.com/agrirent/service-booking/internal/common/database"
	"github.com/agrirent/service-booking/internal/common/health"
	"github.com/agrirent/service-booking/internal/common/kafka"
	"github.com/agrirent/service-booking/internal/common/logger"
	"github.com/agrirent/service-booking/internal/common/middleware"
	"github.com/agrirent/service-booking/internal/common/ratelimit"
	"github.com/agrirent/service-booking/internal/config"
	bookingDomain "github.com/agrirent/service-booking/internal/domain/booking"
	bookingEvents "github.com/agrirent/service-booking/internal/events"
	"github.com/agrirent/service-booking/internal/handler"
	"github.com/agrirent/service-booking/internal/metrics"
	"github.com/agrirent/service-booking/internal/repository"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const serviceName = "service-booking"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-booking",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.AppEnv),
	)

	// Connect to database
	dbConfig := database.PostgresConfig{
		Host:     cfg.DBConfig.Host,
		Port:     cfg.DBConfig.Port,
		User:     cfg.DBConfig.User,
		Password: cfg.DBConfig.Password,
		DBName:   cfg.DBConfig.DBName,
		SSLMode:  cfg.DBConfig.SSLMode,
	}
	db, err := database.Connect(dbConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if err := database.RunMigrations(dbConfig.DatabaseURL(), cfg.MigrationsPath, log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(
		cfg.JWTConfig.Secret,
		15*time.Minute,
		7*24*time.Hour,
	)

	// Initialize Redis-backed booking request limiter
	redisClient := ratelimit.NewRedisClient(ratelimit.RedisConfig{
		Address:  cfg.RedisConfig.Addr,
		Password: cfg.RedisConfig.Password,
		DB:       cfg.RedisConfig.DB,
		PoolSize: 10,
	})
	defer func() { _ = redisClient.Close() }()
	bookingLimiter := ratelimit.NewFixedWindowLimiter(redisClient, "ratelimit:booking", cfg.RateLimitPerMinute, time.Minute)

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	// Initialize repositories
	bookingRepo := repository.NewGormBookingRepository(db)
	equipmentRepo := repository.NewGormEquipmentRepository(db)
	partyRepo := repository.NewGormPartyRepository(db)

	// Initialize application services
	composer := application.NewBookingComposer(equipmentRepo, partyRepo, log)
	bookingService := application.NewBookingService(
		bookingRepo,
		equipmentRepo,
		bookingDomain.NewStandardPricingStrategy(),
		composer,
		kafkaProducer,
		log,
	)
	equipmentService := application.NewEquipmentService(equipmentRepo, bookingRepo, partyRepo, log)
	partyService := application.NewPartyService(partyRepo, log)

	// Initialize and start user event consumer in a goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	groupID := cfg.KafkaConfig.GroupPrefix + "booking-service"
	userConsumer := bookingEvents.NewUserEventConsumer(
		cfg.KafkaConfig.Brokers,
		groupID,
		partyService,
		log,
	)
	defer func() { _ = userConsumer.Close() }()

	go func() {
		log.Info("starting user event consumer")
		if err := userConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("user event consumer error", zap.Error(err))
		}
	}()

	// Initialize HTTP handlers
	bookingHandler := handler.NewBookingHandler(bookingService, bookingLimiter, log)
	equipmentHandler := handler.NewEquipmentHandler(equipmentService)
	adminBookingHandler := handler.NewAdminBookingHandler(bookingService)

	// Setup Gin router
	if cfg.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	metrics.Register()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(metrics.Middleware())
	router.Use(middleware.CORSMiddleware(cfg.FrontendURLs))
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.GlobalRateLimitMiddleware(cfg.GlobalRPS, int(cfg.GlobalRPS)*2))

	// Register health check and metrics routes
	healthHandler := health.NewHandler(db, serviceName).
		AddCheck("redis", func(ctx context.Context) error { return ratelimit.Ping(ctx, redisClient) })
	healthHandler.RegisterRoutes(router)
	metrics.RegisterRoutes(router)

	// Register routes
	bookingHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	equipmentHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	adminBookingHandler.RegisterRoutes(&router.RouterGroup, jwtManager)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-booking...")

	// Cancel the consumer context
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-booking stopped")
}

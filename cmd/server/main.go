package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rentwheel/service-rental/internal/application"
	"github.com/rentwheel/service-rental/internal/common/auth"
	"github.com/rentwheel/service-rental/internal/common/database"
	"github.com/rentwheel/service-rental/internal/common/health"
	"github.com/rentwheel/service-rental/internal/common/kafka"
	"github.com/rentwheel/service-rental/internal/common/logger"
	"github.com/rentwheel/service-rental/internal/common/metrics"
	"github.com/rentwheel/service-rental/internal/common/middleware"
	"github.com/rentwheel/service-rental/internal/config"
	bookingDomain "github.com/rentwheel/service-rental/internal/domain/booking"
	"github.com/rentwheel/service-rental/internal/events"
	"github.com/rentwheel/service-rental/internal/guard"
	"github.com/rentwheel/service-rental/internal/handler"
	"github.com/rentwheel/service-rental/internal/repository"
	"github.com/rentwheel/service-rental/internal/storage"
)

const serviceName = "service-rental"

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

	log.Info("starting "+serviceName, zap.String("port", cfg.Port), zap.String("env", cfg.AppEnv))

	// Connect to database
	db, err := database.Connect(cfg.DBConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(&repository.UserModel{}, &repository.CarModel{}, &repository.BookingModel{}); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := database.RunMigrations(cfg.DBConfig.DatabaseURL(), "migrations", log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	jwtManager := auth.NewJWTManager(cfg.JWTConfig.Secret, cfg.JWTConfig.TTL)

	// Booking events go to Kafka when brokers are configured
	var publisher application.BookingEventPublisher = events.NopPublisher{}
	if len(cfg.KafkaConfig.Brokers) > 0 {
		producer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
		defer func() { _ = producer.Close() }()
		publisher = events.NewBookingPublisher(producer, cfg.KafkaConfig.Topic, log)
	} else {
		log.Warn("no kafka brokers configured, booking events are dropped")
	}

	bookingOpts := []application.BookingOption{
		application.WithAvailabilityConcurrency(cfg.BookingConfig.AvailabilityConcurrency),
	}
	if cfg.BookingConfig.Serialize {
		redisClient := guard.NewRedisClient(cfg.RedisConfig.Addr, cfg.RedisConfig.Password, cfg.RedisConfig.DB)
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := guard.Ping(pingCtx, redisClient)
		pingCancel()
		if err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer func() { _ = redisClient.Close() }()

		bookingOpts = append(bookingOpts, application.WithCreationGuard(
			guard.NewRedisGuard(redisClient, cfg.BookingConfig.LockTTL, log),
		))
		log.Info("booking creation serialized per car", zap.Duration("lock_ttl", cfg.BookingConfig.LockTTL))
	}

	images := storage.NewImageKitStore(storage.ImageKitOptions{
		PublicKey:    cfg.ImageKitConfig.PublicKey,
		PrivateKey:   cfg.ImageKitConfig.PrivateKey,
		URLEndpoint:  cfg.ImageKitConfig.URLEndpoint,
		UploadPrefix: cfg.ImageKitConfig.UploadPrefix,
	}, log)

	// Initialize repositories
	userRepo := repository.NewGormUserRepository(db)
	carRepo := repository.NewGormCarRepository(db)
	bookingRepo := repository.NewGormBookingRepository(db)

	// Initialize application services
	userService := application.NewUserService(userRepo, jwtManager, images, log)
	carService := application.NewCarService(carRepo, images, log)
	bookingService := application.NewBookingService(
		bookingRepo,
		carRepo,
		bookingDomain.NewDailyPricingStrategy(),
		publisher,
		log,
		bookingOpts...,
	)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	metrics.Register()
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.MetricsMiddleware())

	health.NewHandler(db, serviceName).RegisterRoutes(router)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	secureCookie := cfg.AppEnv != "development"
	handler.NewUserHandler(userService, secureCookie).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewCarHandler(carService).RegisterRoutes(&router.RouterGroup)
	handler.NewBookingHandler(bookingService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewOwnerHandler(userService, carService, bookingService, secureCookie).RegisterRoutes(&router.RouterGroup, jwtManager)

	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down " + serviceName)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Info(serviceName + " stopped")
}

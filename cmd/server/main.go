package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sales-dashboard/config"
	"sales-dashboard/internal/api"
	"sales-dashboard/internal/broker"
	"sales-dashboard/internal/dashboard"
	"sales-dashboard/internal/redisclient"
	"sales-dashboard/internal/service"
	"sales-dashboard/internal/store"
	"sales-dashboard/internal/util"
	"sales-dashboard/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const serviceName = "sales-dashboard"

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env, serviceName); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting sales dashboard")

	tp, err := util.InitTracer(serviceName, cfg.Server.Env, cfg.Observ.JaegerEndpoint)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Error("Error shutting down tracer", zap.Error(err))
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.SnapshotTTL)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("Redis connected", zap.Duration("snapshot_ttl", cfg.Redis.SnapshotTTL))

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicExports)
	defer producer.Close()
	logger.Info("Kafka producer initialized", zap.String("topic", cfg.Kafka.TopicExports))

	eventPublisher := broker.NewEventPublisher(producer)

	renderer := dashboard.NewRenderer(dashboard.Options{
		CurrencyPrefix:    cfg.Dashboard.CurrencyPrefix,
		LowStockThreshold: cfg.Dashboard.LowStockThreshold,
	})
	dashboardService := service.NewDashboardService(db, redisClient, eventPublisher, renderer, cfg.Breaker)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicDataChanges, cfg.Kafka.ConsumerGroup)
	cacheWorker := worker.NewCacheWorker(consumer, dashboardService)
	go func() {
		if err := cacheWorker.Start(workerCtx); err != nil && err != context.Canceled {
			logger.Error("Cache worker error", zap.Error(err))
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(dashboardService)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if err := cacheWorker.Stop(); err != nil {
		logger.Warn("Error stopping cache worker", zap.Error(err))
	}

	logger.Info("Server exited")
}

// Command rebalancer runs the portfolio rebalancing engine's HTTP API
// and its periodic drift-check scheduler. Wiring mirrors the teacher's
// cmd/main.go: load config, init logger, connect MongoDB and Redis,
// build repositories and the engine's supporting components, start the
// HTTP server in a goroutine, and shut everything down gracefully on
// SIGINT/SIGTERM.
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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/fintual/rebalancer/internal/api"
	"github.com/fintual/rebalancer/internal/cache"
	"github.com/fintual/rebalancer/internal/config"
	"github.com/fintual/rebalancer/internal/estimator"
	"github.com/fintual/rebalancer/internal/messaging"
	"github.com/fintual/rebalancer/internal/repository/mongo"
	"github.com/fintual/rebalancer/internal/scheduler"
	"github.com/fintual/rebalancer/pkg/database"
	"github.com/fintual/rebalancer/pkg/logger"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "config: ", err)
		os.Exit(1)
	}

	logger.Init(cfg.Logger)
	log := logrus.StandardLogger()
	log.Info("starting rebalancer")

	db, err := database.NewMongoDB(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to mongodb: %v", err)
	}
	defer db.Disconnect()

	goalRepo := mongo.NewGoalRepository(db.Database())
	historyRepo := mongo.NewRebalanceHistoryRepository(db.Database())

	redisClient, err := cache.NewClient(cfg.Cache)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	estimatorCache := cache.NewEstimatorCache(redisClient, estimator.NewSynthetic(), cfg.Cache.EstimatorTTL)

	var publisher *messaging.Publisher
	if cfg.RabbitMQ.Enabled {
		rabbitURL := cfg.RabbitMQ.URL
		if rabbitURL == "" {
			rabbitURL = fmt.Sprintf("amqp://%s:%s@%s:%d%s", cfg.RabbitMQ.Username, cfg.RabbitMQ.Password, cfg.RabbitMQ.Host, cfg.RabbitMQ.Port, cfg.RabbitMQ.VHost)
		}
		publisher, err = messaging.NewPublisher(rabbitURL, cfg.RabbitMQ.RebalanceExchange, cfg.RabbitMQ.RebalanceRoutingKey, log)
		if err != nil {
			log.Fatalf("failed to connect to rabbitmq: %v", err)
		}
		defer publisher.Close()
	}

	sched, err := scheduler.New(cfg.Scheduler, goalRepo, historyRepo, publisher, log)
	if err != nil {
		log.Fatalf("failed to build scheduler: %v", err)
	}
	if err := sched.Start(context.Background()); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}

	handler := api.NewHandler(log, estimatorCache)

	router := setupRouter(cfg, handler, redisClient, log)

	server := &http.Server{
		Addr:           fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		log.WithField("port", cfg.Server.Port).Info("starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Errorf("server forced to shutdown: %v", err)
	}
	if err := sched.Stop(); err != nil {
		log.Errorf("scheduler failed to stop cleanly: %v", err)
	}

	log.Info("server exited")
}

func setupRouter(cfg *config.Config, handler *api.Handler, redisClient *cache.Client, log *logrus.Logger) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	if cfg.RateLimit.Enabled {
		router.Use(api.RateLimitMiddleware(redisClient, cfg.RateLimit, log))
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", handler.Health)

	v1 := router.Group("/v1")
	handler.RegisterRoutes(v1)

	return router
}

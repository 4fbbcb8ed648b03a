package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/quickbite/backend/common/database"
	apperrors "github.com/quickbite/backend/common/errors"
	"github.com/quickbite/backend/common/logger"
	"github.com/quickbite/backend/common/middleware"
	"github.com/quickbite/backend/order/controllers"
	"github.com/quickbite/backend/order/kafka"
	"github.com/quickbite/backend/order/models"
	"github.com/quickbite/backend/order/repository"
	"github.com/quickbite/backend/order/routes"
	"github.com/quickbite/backend/order/services"
	awspkg "github.com/quickbite/backend/pkg/aws"
)

func main() {
	_ = godotenv.Load()

	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zlog.Sync() //nolint:errcheck

	db, err := database.ConnectPostgres(cfg.DSN(), &models.Order{}, &models.OrderItem{})
	if err != nil {
		zlog.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db) //nolint:errcheck

	var producer kafka.ProducerAPI
	if len(cfg.KafkaBrokers) > 0 {
		p := kafka.NewProducer(cfg.KafkaBrokers, cfg.OrderEventsTopic)
		defer p.Close() //nolint:errcheck
		producer = p
	}

	var snsClient awspkg.SNSPublisher
	if cfg.SNSTopicArn != "" {
		awsCfg, err := awspkg.LoadAWSConfig(context.Background())
		if err != nil {
			zlog.Fatal("Failed to load AWS config", zap.Error(err))
		}
		snsClient = awspkg.NewSNSClient(awsCfg)
	}

	orderRepo := repository.NewGormOrderRepository(db)
	userClient := services.NewUserClient(cfg.UserServiceURL)
	menuClient := services.NewMenuClient(cfg.MenuServiceURL)
	paymentClient := services.NewPaymentClient(cfg.PaymentServiceURL)

	orderService := services.NewOrderService(
		orderRepo, userClient, menuClient, paymentClient,
		producer, snsClient, cfg.SNSTopicArn, zlog)
	orderController := controllers.NewOrderController(orderService)

	reconcilerCtx, stopReconciler := context.WithCancel(context.Background())
	reconciler := services.NewReconciler(
		orderRepo, paymentClient, producer,
		cfg.ReconcileMaxAge, cfg.ReconcileInterval, zlog)
	go reconciler.Run(reconcilerCtx)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(apperrors.ErrorMiddleware())
	r.Use(middleware.RequestLogger(zlog))
	r.Use(middleware.RequestTimeout(30 * time.Second))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "order-service"})
	})

	routes.RegisterOrderRoutes(r, orderController)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		zlog.Info("order-service listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("Server failed", zap.Error(err))
		}
	}()
	<-quit

	zlog.Info("shutting down")
	stopReconciler()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Error("Shutdown failed", zap.Error(err))
	}
}

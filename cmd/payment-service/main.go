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
	"github.com/quickbite/backend/payment/controllers"
	"github.com/quickbite/backend/payment/models"
	"github.com/quickbite/backend/payment/repository"
	"github.com/quickbite/backend/payment/routes"
	"github.com/quickbite/backend/payment/services"
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

	db, err := database.ConnectPostgres(cfg.DSN(), &models.Transaction{})
	if err != nil {
		zlog.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db) //nolint:errcheck

	paymentRepo := repository.NewGormPaymentRepository(db)
	ledgerClient := services.NewHTTPLedgerClient(cfg.UserServiceURL)
	paymentService := services.NewPaymentService(paymentRepo, ledgerClient, zlog)
	paymentController := controllers.NewPaymentController(paymentService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(apperrors.ErrorMiddleware())
	r.Use(middleware.RequestLogger(zlog))
	r.Use(middleware.RequestTimeout(30 * time.Second))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "payment-service"})
	})

	routes.RegisterPaymentRoutes(r, paymentController)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		zlog.Info("payment-service listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("Server failed", zap.Error(err))
		}
	}()
	<-quit

	zlog.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Error("Shutdown failed", zap.Error(err))
	}
}

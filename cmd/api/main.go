package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/gateway"
	"app/internal/handler"
	"app/internal/infra/db"
	infrarepo "app/internal/infra/repository"
	"app/internal/server"
	"app/internal/usecase"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// .envはローカル開発用。なければ環境変数だけで動く
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	cfg := config.Load()

	conn, err := db.Connect()
	if err != nil {
		logger.Fatal("db connection failed", zap.Error(err))
	}

	if err := conn.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.Cart{},
		&model.CartItem{},
		&model.Coupon{},
		&model.CouponRedemption{},
		&model.Order{},
		&model.OrderItem{},
		&model.OrderStatusHistory{},
	); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}

	//repository
	userRepo := infrarepo.NewUserGormRepository(conn)
	productRepo := infrarepo.NewProductGormRepository(conn)
	inventoryRepo := infrarepo.NewInventoryGormRepository(conn)
	cartRepo := infrarepo.NewCartGormRepository(conn)
	couponRepo := infrarepo.NewCouponGormRepository(conn)
	orderRepo := infrarepo.NewOrderGormRepository(conn)
	orderItemRepo := infrarepo.NewOrderItemGormRepository(conn)
	orderHistoryRepo := infrarepo.NewOrderHistoryGormRepository(conn)
	txManager := infrarepo.NewTxManagerGorm(conn)

	//gateway
	gw := gateway.NewRazorpayClient(cfg.RazorpayBaseURL, cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.GatewayTimeout)

	//usecase
	authUC := usecase.NewAuthUsecase(userRepo, cfg.JWTSecret, cfg.TokenTTL)
	productUC := usecase.NewProductUsecase(productRepo, inventoryRepo)
	cartUC := usecase.NewCartUsecase(cartRepo, cartRepo, productRepo, couponRepo)
	couponUC := usecase.NewCouponUsecase(couponRepo)
	paymentUC := usecase.NewPaymentUsecase(
		orderRepo, orderItemRepo, orderHistoryRepo,
		inventoryRepo, couponRepo, cartRepo, userRepo,
		cfg.RazorpayKeySecret, cfg.TrialMode, logger,
	)
	checkoutUC := usecase.NewCheckoutUsecase(txManager, gw, paymentUC, cfg.TrialMode, cfg.RazorpayKeyID, logger)
	orderUC := usecase.NewOrderUsecase(orderRepo, orderItemRepo, orderHistoryRepo, inventoryRepo, logger)

	//handler
	handlers := server.Handlers{
		Auth:    handler.NewAuthHandler(authUC),
		Product: handler.NewProductHandler(productUC),
		Cart:    handler.NewCartHandler(cartUC),
		Coupon:  handler.NewCouponHandler(couponUC),
		Order:   handler.NewOrderHandler(checkoutUC, paymentUC, orderUC),
	}

	srv := server.New(cfg, handlers, logger)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Info("server stopped", zap.Error(err))
		}
	}()

	//SIGINT/SIGTERMで猶予付きシャットダウン
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

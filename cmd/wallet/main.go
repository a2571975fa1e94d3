package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	checkoutapp "wallet-server/internal/application/checkout"
	walletapp "wallet-server/internal/application/wallet"
	"wallet-server/internal/domain/checkout"
	"wallet-server/internal/domain/exchange"
	"wallet-server/internal/domain/payment"
	"wallet-server/internal/domain/wallet"
	"wallet-server/internal/infrastructure/config"
	infraexchange "wallet-server/internal/infrastructure/exchange"
	"wallet-server/internal/infrastructure/gateway"
	otelinfra "wallet-server/internal/infrastructure/observability/otel"
	"wallet-server/internal/infrastructure/persistence/memory"
	"wallet-server/internal/infrastructure/persistence/redis"
	"wallet-server/internal/infrastructure/security"
	"wallet-server/internal/presentation/client"
	"wallet-server/internal/presentation/client/handler"
)

func main() {
	// 設定の読み込み
	cfg, err := config.LoadClient()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// OpenTelemetryの初期化
	tracerShutdown, err := otelinfra.InitTracer(&cfg.OpenTelemetry)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerShutdown(ctx); err != nil {
			log.Printf("Failed to shutdown tracer: %v", err)
		}
	}()

	meterShutdown, err := otelinfra.InitMeter(&cfg.OpenTelemetry)
	if err != nil {
		log.Fatalf("Failed to initialize meter: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterShutdown(ctx); err != nil {
			log.Printf("Failed to shutdown meter: %v", err)
		}
	}()

	zl, err := otelinfra.NewZapLogger(cfg.OpenTelemetry.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	logger := otelinfra.NewLoggerWithZap(otelinfra.Tracer("wallet-client"), zl)
	defer func() { _ = logger.Sync() }()

	metrics, err := otelinfra.NewMetrics("wallet-client")
	if err != nil {
		log.Fatalf("Failed to create metrics: %v", err)
	}

	// 決済バックエンド
	gw := gateway.NewClient(cfg.Gateway.BaseURL, cfg.Gateway.Timeout)

	// 外部ページ遷移中の決済試行
	var attempts checkout.AttemptStore = memory.NewAttemptStore()
	if cfg.Redis.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rdb, err := redis.NewClient(ctx, cfg.Redis.Address(), cfg.Redis.Password, cfg.Redis.DB)
		cancel()
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Printf("Failed to close redis: %v", err)
			}
		}()
		attempts = redis.NewAttemptStore(rdb)
	}

	// 為替レート
	var rates exchange.RateProvider = infraexchange.NewStaticProvider(cfg.Exchange.INRPerUSD)
	if cfg.Exchange.Source == "wise" {
		rates = infraexchange.NewWiseProvider(gw, rates)
	}

	signer, err := security.NewAttemptTokenSigner(cfg.Checkout.TokenSecret, cfg.Checkout.TokenIssuer)
	if err != nil {
		log.Fatalf("Failed to create attempt token signer: %v", err)
	}

	walletService := walletapp.NewWalletApplicationService(
		wallet.NewSeededWallet(),
		walletapp.DemoPayout{Delay: cfg.Checkout.DemoDelay},
		decimal.NewFromFloat(cfg.Checkout.MinWithdrawal),
		logger,
		metrics,
	)

	orchestrator := checkoutapp.NewOrchestrator(
		gw,
		attempts,
		rates,
		checkoutapp.Settings{
			Limits: payment.AmountLimits{
				Min: decimal.NewFromFloat(cfg.Checkout.MinAmount),
				Max: decimal.NewFromFloat(cfg.Checkout.MaxAmount),
			},
			AttemptTTL:      cfg.Checkout.AttemptTTL,
			QuoteTTL:        cfg.Checkout.QuoteTTL,
			DemoDelay:       cfg.Checkout.DemoDelay,
			StatusPollLimit: cfg.Checkout.StatusPollLimit,
		},
		walletService.ApplyOutcome,
		logger,
		metrics,
	)

	walletHandler := handler.NewWalletHandler(orchestrator, walletService, signer, gw, handler.Options{
		Environment:  cfg.Environment,
		SecureCookie: strings.HasPrefix(cfg.PublicURL, "https://"),
	})
	router := client.NewRouter(cfg, logger, metrics, walletHandler)

	address := fmt.Sprintf(":%d", cfg.Server.Port)

	// グレースフルシャットダウンの設定
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info(context.Background(), "Wallet server starting", map[string]interface{}{
			"address":     address,
			"environment": cfg.Environment,
			"payment_api": cfg.Gateway.BaseURL,
			"redis":       cfg.Redis.Enabled,
			"rates":       cfg.Exchange.Source,
		})
		if err := router.Start(address); err != nil {
			logger.Error(context.Background(), "Wallet server error", err, nil)
			quit <- syscall.SIGTERM
		}
	}()

	<-quit
	logger.Info(context.Background(), "Shutting down server", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := router.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "Error shutting down server", err, nil)
	}

	logger.Info(context.Background(), "Server stopped", nil)
}

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	paymentapp "wallet-server/internal/application/payment"
	"wallet-server/internal/domain/exchange"
	"wallet-server/internal/infrastructure/config"
	infraexchange "wallet-server/internal/infrastructure/exchange"
	"wallet-server/internal/infrastructure/messaging/kafka"
	otelinfra "wallet-server/internal/infrastructure/observability/otel"
	"wallet-server/internal/infrastructure/provider"
	"wallet-server/internal/infrastructure/provider/cryptomus"
	"wallet-server/internal/infrastructure/provider/paypal"
	"wallet-server/internal/infrastructure/provider/razorpay"
	"wallet-server/internal/infrastructure/provider/wise"
	"wallet-server/internal/presentation/rest"
)

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
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

	// ロガーとメトリクスの初期化
	zl, err := otelinfra.NewZapLogger(cfg.OpenTelemetry.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	logger := otelinfra.NewLoggerWithZap(otelinfra.Tracer("wallet-server"), zl)
	defer func() { _ = logger.Sync() }()

	metrics, err := otelinfra.NewMetrics("wallet-server")
	if err != nil {
		log.Fatalf("Failed to create metrics: %v", err)
	}

	// 決済プロバイダーのクライアント
	hc := provider.NewHTTPClient(cfg.ProviderTimeout)
	razorpayClient := razorpay.NewClient(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret, cfg.Razorpay.BaseURL, hc)
	paypalClient := paypal.NewClient(cfg.PayPal.ClientID, cfg.PayPal.ClientSecret, cfg.PayPal.BaseURL(), hc)
	cryptomusClient := cryptomus.NewClient(cfg.Cryptomus.MerchantUUID, cfg.Cryptomus.APIKey, cfg.Cryptomus.BaseURL, hc)
	wiseClient := wise.NewClient(cfg.Wise.APIKey, cfg.Wise.APIURL, hc)

	// 為替レート
	var rates exchange.RateProvider = infraexchange.NewStaticProvider(cfg.Exchange.INRPerUSD)
	if cfg.Exchange.Source == "wise" && wiseClient.Configured() {
		rates = infraexchange.NewWiseProvider(wiseClient, rates)
	}

	// Webhookのステータスイベント
	var publisher kafka.StatusPublisher = kafka.NoopPublisher{}
	if cfg.Kafka.Enabled {
		publisher = kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Printf("Failed to close publisher: %v", err)
		}
	}()

	paymentAppService := paymentapp.NewPaymentApplicationService(
		paymentapp.Providers{
			Razorpay:  razorpayClient,
			PayPal:    paypalClient,
			Cryptomus: cryptomusClient,
			Wise:      wiseClient,
		},
		rates,
		publisher,
		paymentapp.Settings{
			FrontendURL:       cfg.FrontendURL,
			PublicURL:         cfg.PublicURL,
			Environment:       cfg.Environment,
			CryptomusLifetime: cfg.Cryptomus.Lifetime,
			PayPalBrandName:   cfg.PayPal.BrandName,
		},
		logger,
		metrics,
	)

	// REST APIルーターの初期化
	router, err := rest.NewRouter(cfg, logger, metrics, paymentAppService)
	if err != nil {
		log.Fatalf("Failed to create router: %v", err)
	}

	address := fmt.Sprintf(":%d", cfg.Server.Port)

	// グレースフルシャットダウンの設定
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info(context.Background(), "Payment API server starting", map[string]interface{}{
			"address":     address,
			"environment": cfg.Environment,
			"razorpay":    razorpayClient.Configured(),
			"paypal":      paypalClient.Configured(),
			"cryptomus":   cryptomusClient.Configured(),
			"wise":        wiseClient.Configured(),
		})
		if err := router.Start(address); err != nil {
			logger.Error(context.Background(), "Payment API server error", err, nil)
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

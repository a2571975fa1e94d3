package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config 決済バックエンドの設定
type Config struct {
	Server          ServerConfig
	FrontendURL     string
	PublicURL       string
	// ProviderTimeout 上流プロバイダーへのリクエストごとの期限
	ProviderTimeout time.Duration
	Razorpay        RazorpayConfig
	Cryptomus       CryptomusConfig
	PayPal          PayPalConfig
	Wise            WiseConfig
	Exchange        ExchangeConfig
	Kafka           KafkaConfig
	OpenTelemetry   OpenTelemetryConfig
	Environment     string
}

// ClientConfig ウォレットクライアントの設定
type ClientConfig struct {
	Server        ServerConfig
	PublicURL     string
	Gateway       GatewayConfig
	Checkout      CheckoutConfig
	Redis         RedisConfig
	Exchange      ExchangeConfig
	OpenTelemetry OpenTelemetryConfig
	Environment   string
}

// ServerConfig サーバー設定
type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// RazorpayConfig Razorpay設定
type RazorpayConfig struct {
	KeyID     string
	KeySecret string
	BaseURL   string
}

// CryptomusConfig Cryptomus設定
type CryptomusConfig struct {
	MerchantUUID string
	APIKey       string
	BaseURL      string
	Lifetime     int
}

// PayPalConfig PayPal設定
type PayPalConfig struct {
	ClientID     string
	ClientSecret string
	Mode         string // "sandbox", "live"
	BrandName    string
}

// WiseConfig Wise設定
type WiseConfig struct {
	APIKey string
	APIURL string
}

// ExchangeConfig 為替レート設定
type ExchangeConfig struct {
	Source    string  // "static", "wise"
	INRPerUSD float64 // static の場合のレート
}

// KafkaConfig Kafka設定
type KafkaConfig struct {
	Brokers []string
	Topic   string
	Enabled bool
}

// RedisConfig Redis設定
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	Enabled  bool
}

// GatewayConfig 決済バックエンドへの接続設定
type GatewayConfig struct {
	BaseURL string
	Timeout time.Duration
}

// CheckoutConfig 決済フローの設定
type CheckoutConfig struct {
	MinAmount       float64
	MaxAmount       float64
	MinWithdrawal   float64
	AttemptTTL      time.Duration
	QuoteTTL        time.Duration
	DemoDelay       time.Duration
	StatusPollLimit time.Duration
	TokenSecret     string
	TokenIssuer     string
}

// OpenTelemetryConfig OpenTelemetry設定
type OpenTelemetryConfig struct {
	Enabled         bool
	ServiceName     string
	ServiceVersion  string
	OTLPEndpoint    string
	OTLPInsecure    bool
	TraceExporter   string // "otlp", "stdout"
	MetricsExporter string // "otlp", "prometheus", "stdout"
	LogLevel        string
}

// Load 決済バックエンドの設定を読み込む
func Load() (*Config, error) {
	// .envファイルを読み込む（存在しない場合は無視）
	_ = godotenv.Load()

	env := getEnv("NODE_ENV", getEnv("ENVIRONMENT", "development"))
	port := getEnvAsInt("PORT", 5000)

	cfg := &Config{
		Environment:     env,
		Server:          loadServerConfig(port),
		FrontendURL:     strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:5173"), "/"),
		PublicURL:       strings.TrimRight(getEnv("PUBLIC_URL", fmt.Sprintf("http://localhost:%d", port)), "/"),
		ProviderTimeout: getEnvAsDuration("PROVIDER_TIMEOUT", 15*time.Second),
		Razorpay: RazorpayConfig{
			KeyID:     getEnv("RAZORPAY_KEY_ID", ""),
			KeySecret: getEnv("RAZORPAY_KEY_SECRET", ""),
			BaseURL:   getEnv("RAZORPAY_API_URL", "https://api.razorpay.com"),
		},
		Cryptomus: CryptomusConfig{
			MerchantUUID: getEnv("CRYPTOMUS_MERCHANT_UUID", ""),
			APIKey:       getEnv("CRYPTOMUS_API_KEY", ""),
			BaseURL:      getEnv("CRYPTOMUS_API_URL", "https://api.cryptomus.com"),
			Lifetime:     getEnvAsInt("CRYPTOMUS_LIFETIME", 3600),
		},
		PayPal: PayPalConfig{
			ClientID:     getEnv("PAYPAL_CLIENT_ID", ""),
			ClientSecret: getEnv("PAYPAL_CLIENT_SECRET", ""),
			Mode:         getEnv("PAYPAL_MODE", "sandbox"),
			BrandName:    getEnv("PAYPAL_BRAND_NAME", "Premium Wallet"),
		},
		Wise: WiseConfig{
			APIKey: getEnv("WISE_API_KEY", ""),
			APIURL: strings.TrimRight(getEnv("WISE_API_URL", "https://api.sandbox.transferwise.tech"), "/"),
		},
		Exchange: loadExchangeConfig(),
		Kafka: KafkaConfig{
			Brokers: getEnvAsSlice("KAFKA_BROKERS", nil),
			Topic:   getEnv("KAFKA_TOPIC", "cryptomus.payment.status"),
			Enabled: getEnvAsBool("KAFKA_ENABLED", false),
		},
		OpenTelemetry: loadOpenTelemetryConfig("wallet-server"),
	}

	// 必須設定の検証
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadClient ウォレットクライアントの設定を読み込む
func LoadClient() (*ClientConfig, error) {
	_ = godotenv.Load()

	port := getEnvAsInt("WALLET_PORT", 5173)

	cfg := &ClientConfig{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server:      loadServerConfig(port),
		PublicURL:   strings.TrimRight(getEnv("WALLET_PUBLIC_URL", fmt.Sprintf("http://localhost:%d", port)), "/"),
		Gateway: GatewayConfig{
			BaseURL: strings.TrimRight(getEnv("PAYMENT_API_URL", "http://localhost:5000"), "/"),
			Timeout: getEnvAsDuration("GATEWAY_TIMEOUT", 15*time.Second),
		},
		Checkout: CheckoutConfig{
			MinAmount:       getEnvAsFloat("CHECKOUT_MIN_AMOUNT", 10),
			MaxAmount:       getEnvAsFloat("CHECKOUT_MAX_AMOUNT", 100_000),
			MinWithdrawal:   getEnvAsFloat("WITHDRAW_MIN_AMOUNT", 100),
			AttemptTTL:      getEnvAsDuration("CHECKOUT_ATTEMPT_TTL", 30*time.Minute),
			QuoteTTL:        getEnvAsDuration("WISE_QUOTE_TTL", 30*time.Minute),
			DemoDelay:       getEnvAsDuration("DEMO_PAYMENT_DELAY", 2*time.Second),
			StatusPollLimit: getEnvAsDuration("CRYPTOMUS_POLL_LIMIT", 20*time.Second),
			TokenSecret:     getEnv("CHECKOUT_TOKEN_SECRET", ""),
			TokenIssuer:     getEnv("CHECKOUT_TOKEN_ISSUER", "wallet-client"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},
		Exchange:      loadExchangeConfig(),
		OpenTelemetry: loadOpenTelemetryConfig("wallet-client"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func loadServerConfig(port int) ServerConfig {
	return ServerConfig{
		Port:         port,
		ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
		WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:  getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
	}
}

func loadExchangeConfig() ExchangeConfig {
	return ExchangeConfig{
		Source:    getEnv("EXCHANGE_RATE_SOURCE", "static"),
		INRPerUSD: getEnvAsFloat("EXCHANGE_INR_PER_USD", 84),
	}
}

func loadOpenTelemetryConfig(serviceName string) OpenTelemetryConfig {
	return OpenTelemetryConfig{
		Enabled:         getEnvAsBool("OTEL_ENABLED", true),
		ServiceName:     getEnv("OTEL_SERVICE_NAME", serviceName),
		ServiceVersion:  getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
		OTLPEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		OTLPInsecure:    getEnvAsBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		TraceExporter:   getEnv("OTEL_TRACES_EXPORTER", "otlp"),
		MetricsExporter: getEnv("OTEL_METRICS_EXPORTER", "prometheus"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}
}

// validate 設定の検証
func (c *Config) validate() error {
	if c.FrontendURL == "" {
		return fmt.Errorf("FRONTEND_URL is required")
	}
	if c.PayPal.Mode != "sandbox" && c.PayPal.Mode != "live" {
		return fmt.Errorf("PAYPAL_MODE must be sandbox or live: %s", c.PayPal.Mode)
	}
	if err := c.Exchange.validate(); err != nil {
		return err
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
	}
	return nil
}

// validate 設定の検証
func (c *ClientConfig) validate() error {
	if c.Gateway.BaseURL == "" {
		return fmt.Errorf("PAYMENT_API_URL is required")
	}
	if c.Checkout.TokenSecret == "" {
		return fmt.Errorf("CHECKOUT_TOKEN_SECRET is required")
	}
	if c.Checkout.MinAmount <= 0 || c.Checkout.MaxAmount < c.Checkout.MinAmount {
		return fmt.Errorf("invalid checkout amount limits: %v-%v", c.Checkout.MinAmount, c.Checkout.MaxAmount)
	}
	if c.Checkout.AttemptTTL <= 0 {
		return fmt.Errorf("CHECKOUT_ATTEMPT_TTL must be positive")
	}
	return c.Exchange.validate()
}

func (c *ExchangeConfig) validate() error {
	switch c.Source {
	case "static":
		if c.INRPerUSD <= 0 {
			return fmt.Errorf("EXCHANGE_INR_PER_USD must be positive")
		}
	case "wise":
	default:
		return fmt.Errorf("unsupported exchange rate source: %s", c.Source)
	}
	return nil
}

// BaseURL モードに応じたPayPal APIのURLを返す
func (c *PayPalConfig) BaseURL() string {
	if c.Mode == "live" {
		return "https://api-m.paypal.com"
	}
	return "https://api-m.sandbox.paypal.com"
}

// Address Redis接続アドレスを返す
func (c *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv 環境変数を取得（デフォルト値付き）
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt 環境変数を整数として取得
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat 環境変数を浮動小数点数として取得
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool 環境変数を真偽値として取得
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration 環境変数を時間として取得
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsSlice カンマ区切りの環境変数をスライスとして取得
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var values []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

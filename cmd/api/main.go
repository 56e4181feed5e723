package main

import (
	"fmt"
	"log"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	bkmhttp "github.com/cashflow/bkm-gateway/internal/adapter/primary/http"
	"github.com/cashflow/bkm-gateway/internal/adapter/secondary/bex"
	"github.com/cashflow/bkm-gateway/internal/adapter/secondary/messaging"
	"github.com/cashflow/bkm-gateway/internal/config"
	"github.com/cashflow/bkm-gateway/internal/core/service"
	"github.com/cashflow/bkm-gateway/internal/logger"
)

func main() {
	cfg, err := config.LoadConfig(getEnv("CONFIG_PATH", "./"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	lg, err := logger.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer lg.Sync()

	// Reference data: banks table and vPOS templates, immutable after startup
	banks, templates, err := config.NewBankDirectory(cfg)
	if err != nil {
		lg.Fatal("Failed to build bank directory", zap.Error(err))
	}

	// Secondary adapters: gateway client, signature verifier, vPOS encryptor, messaging
	privateKey, err := bex.LoadPrivateKey(cfg.PrivateKeyPath)
	if err != nil {
		lg.Fatal("Failed to load merchant private key", zap.Error(err))
	}
	publicKey, err := bex.LoadPublicKey(cfg.BexPublicKeyPath)
	if err != nil {
		lg.Fatal("Failed to load gateway public key", zap.Error(err))
	}
	vposKey, err := bex.DecodeKey(cfg.VposKey)
	if err != nil {
		lg.Fatal("Failed to decode vpos key", zap.Error(err))
	}
	encryptor, err := bex.NewVposEncryptor(vposKey)
	if err != nil {
		lg.Fatal("Failed to create vpos encryptor", zap.Error(err))
	}
	gateway := bex.NewClient(bex.ClientConfig{
		BaseURL:    cfg.GatewayURL(),
		JsURL:      cfg.GatewayJsURL(),
		MerchantID: cfg.MerchantID,
		PrivateKey: privateKey,
		Timeout:    cfg.GatewayTimeout(),
	})
	verifier := bex.NewRSAVerifier(publicKey)

	msgClient, err := messaging.NewRabbitMQClient(cfg.RabbitMQURL, lg)
	if err != nil {
		lg.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer msgClient.Close()

	// Core services (implement input ports)
	resolver := service.NewBankConfigResolver(banks, templates, encryptor)
	planner := service.NewInstallmentPlanner(resolver)
	installmentService := service.NewInstallmentService(verifier, planner, lg)
	checkoutService := service.NewCheckoutService(gateway, msgClient, service.CallbackURLs{
		InstallmentURL: cfg.InstallmentURL,
		NonceURL:       cfg.NonceURL,
	}, lg)

	// Primary adapter: HTTP handler (uses input ports)
	handler := bkmhttp.NewBKMHandler(checkoutService, installmentService, lg)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogMethod:  true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			lg.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	handler.Register(e.Group("/bkm"))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	addr := fmt.Sprintf(":%s", cfg.Port)
	lg.Info("Starting API server", zap.String("addr", addr), zap.Bool("production", cfg.Production()))
	if err := e.Start(addr); err != nil {
		lg.Fatal("Failed to start server", zap.Error(err))
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

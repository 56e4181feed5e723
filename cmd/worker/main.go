package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/cashflow/bkm-gateway/internal/adapter/secondary/bex"
	"github.com/cashflow/bkm-gateway/internal/adapter/secondary/database"
	"github.com/cashflow/bkm-gateway/internal/adapter/secondary/messaging"
	"github.com/cashflow/bkm-gateway/internal/config"
	"github.com/cashflow/bkm-gateway/internal/constant/model/db"
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

	dbConn, err := db.NewDB(cfg.DatabaseURL, db.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetimeMinutes) * time.Minute,
	})
	if err != nil {
		lg.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer dbConn.Close()

	receipts := database.NewGormNonceReceiptRepository(dbConn.DB)

	privateKey, err := bex.LoadPrivateKey(cfg.PrivateKeyPath)
	if err != nil {
		lg.Fatal("Failed to load merchant private key", zap.Error(err))
	}
	publicKey, err := bex.LoadPublicKey(cfg.BexPublicKeyPath)
	if err != nil {
		lg.Fatal("Failed to load gateway public key", zap.Error(err))
	}
	gateway := bex.NewClient(bex.ClientConfig{
		BaseURL:    cfg.GatewayURL(),
		JsURL:      cfg.GatewayJsURL(),
		MerchantID: cfg.MerchantID,
		PrivateKey: privateKey,
		Timeout:    cfg.GatewayTimeout(),
	})

	processor := service.NewNonceProcessor(receipts, bex.NewRSAVerifier(publicKey), gateway, lg)

	msgClient, err := messaging.NewRabbitMQClientConcrete(cfg.RabbitMQURL, lg)
	if err != nil {
		lg.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer msgClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err = msgClient.ConsumeNonceMessages(func(msg messaging.NonceMessage) error {
		lg.Info("Processing nonce", zap.String("ticket_id", msg.TicketID))
		return processor.ProcessNonce(ctx, msg.Nonce())
	})
	if err != nil {
		lg.Fatal("Failed to start consuming messages", zap.Error(err))
	}

	lg.Info("Nonce worker started. Press CTRL+C to exit.")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	lg.Info("Shutting down worker...")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

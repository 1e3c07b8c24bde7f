package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"circulation/internal/events"
	"circulation/internal/store"
	"circulation/pkg/clock"
	"circulation/pkg/config"
	"circulation/pkg/kafka"
	kafka_config "circulation/pkg/kafka/config"
	kafka_middleware "circulation/pkg/kafka/middleware"
)

const (
	ServiceName     = "circulation-audit"
	metricsInterval = time.Minute
)

func main() {
	cfg := config.Load(ServiceName)
	cfg.Connect()
	defer cfg.GracefulShutdown()

	if cfg.StoreDriver == config.StoreDriverMemory {
		cfg.Log.Warn("Audit log is kept in memory and lost on restart")
	}
	repos, err := store.New(cfg)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize store", "error", err)
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Failed to load Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	handler := events.NewAuditHandler(repos.Audit, clock.New(), cfg.Log)
	consumer, err := kafka.NewConsumer(kafkaCfg, cfg.EventsTopic, cfg.AuditGroupID, cfg.EventsDLQTopic, handler.Handle, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}

	metrics := kafka_middleware.NewMetrics()
	if kafkaCfg.EnableMiddleware {
		consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
		consumer.Use(metrics.ConsumerMiddleware())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go reportMetrics(ctx, cfg, metrics)

	consumerErrors := make(chan error, 1)
	go func() {
		cfg.Log.Info("Starting audit consumer", "topic", cfg.EventsTopic, "group_id", cfg.AuditGroupID)
		consumerErrors <- consumer.Start(ctx)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-consumerErrors:
		if err != nil && !errors.Is(err, context.Canceled) {
			cfg.Log.Error("Audit consumer stopped", "error", err)
		}
	case sig := <-shutdown:
		cfg.Log.Info("Shutdown signal received", "signal", sig)
		cancel()
		<-consumerErrors
	}

	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close Kafka consumer", "error", err)
	}
	metrics.Log(cfg.Log)
	cfg.Log.Info("Audit consumer stopped gracefully")
}

func reportMetrics(ctx context.Context, cfg *config.Config, metrics *kafka_middleware.Metrics) {
	ticker := time.NewTicker(metricsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.Log(cfg.Log)
		}
	}
}

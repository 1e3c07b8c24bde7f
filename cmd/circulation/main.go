package main

import (
	"circulation/internal/events"
	"circulation/internal/server"
	"circulation/internal/store"
	"circulation/pkg/app"
	"circulation/pkg/clock"
	"circulation/pkg/config"
	"circulation/pkg/kafka"
	kafka_config "circulation/pkg/kafka/config"
	kafka_middleware "circulation/pkg/kafka/middleware"
)

const ServiceName = "circulation"

func main() {
	cfg := config.Load(ServiceName)
	cfg.Connect()

	cfg.Log.Info("Starting Circulation service", "store_driver", cfg.StoreDriver)
	repos, err := store.New(cfg)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize store", "error", err)
	}

	serverApp := app.NewApplication(cfg)
	publisher, closePublisher := initPublisher(cfg)
	serverApp.OnShutdown(closePublisher)

	services := server.NewServices(cfg, repos, publisher, clock.New())
	serverApp.SetApp(services.Handlers()...)
	serverApp.Run()
}

func initPublisher(cfg *config.Config) (events.Publisher, func()) {
	if !cfg.EventsEnabled {
		cfg.Log.Info("Event publishing disabled, events are written to the log")
		return events.NewLogPublisher(cfg.Log), func() {}
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Failed to load Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.EventsTopic, cfg.EventsDLQTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}

	metrics := kafka_middleware.NewMetrics()
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
		producer.Use(metrics.ProducerMiddleware())
	}

	cfg.Log.Info("Kafka event publisher configured", "topic", cfg.EventsTopic, "dlq_topic", cfg.EventsDLQTopic)
	return events.NewKafkaPublisher(producer), func() {
		metrics.Log(cfg.Log)
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka producer", "error", err)
		}
	}
}

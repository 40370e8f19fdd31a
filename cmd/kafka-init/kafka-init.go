package main

import (
	"context"
	"log"
	"os"
	"time"

	config "github.com/NordCoder/autocheckin/internal/config/checkin"
	"github.com/NordCoder/autocheckin/internal/obs"
	kafkaRepo "github.com/NordCoder/autocheckin/internal/repository/kafka"

	"go.uber.org/zap"
)

// kafka-init creates the report topic before the server starts publishing to it.
func main() {
	cfg, _, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatal(err)
	}
	logger, err := obs.NewLogger(cfg.AsLoggerConfig())
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	spec := kafkaRepo.TopicSpecFrom(cfg.Kafka)
	if err := kafkaRepo.EnsureTopic(ctx, cfg.Kafka.Brokers, spec, logger); err != nil {
		logger.Fatal("ensure topic", zap.String("topic", spec.Name), zap.Error(err))
	}
	logger.Info("kafka-init ok", zap.Strings("brokers", cfg.Kafka.Brokers))
}

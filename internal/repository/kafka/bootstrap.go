package kafka

import (
	"context"

	config "github.com/NordCoder/autocheckin/internal/config/checkin"

	"go.uber.org/zap"
)

// BootstrapProducer makes sure the report topic exists, then returns a
// producer for it. A failed topic check is logged; the writer can still
// auto-create the topic.
func BootstrapProducer(ctx context.Context, cfg config.KafkaCfg, logger *zap.Logger) *Producer {
	if err := EnsureTopic(ctx, cfg.Brokers, TopicSpecFrom(cfg), logger); err != nil && logger != nil {
		logger.Warn("report topic not ensured", zap.String("topic", cfg.Topic), zap.Error(err))
	}
	return NewProducer(cfg.Brokers, cfg.Topic).WithLogger(logger)
}

package checkin_worker

import (
	"context"

	config "github.com/NordCoder/autocheckin/internal/config/checkin"
	kafkaRepo "github.com/NordCoder/autocheckin/internal/repository/kafka"
	notifier "github.com/NordCoder/autocheckin/internal/services/telegram-notifier"

	"go.uber.org/zap"
)

// Bootstrap wires a Flow from the service config. The returned closer
// releases the report producer when kafka is enabled.
func Bootstrap(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Flow, func() error) {
	session := NewSession(NewHTTPClient(cfg.HTTP), cfg.HTTP).WithLogger(log)
	tg := notifier.New(cfg.Notify, nil).WithLogger(log)

	f := &Flow{
		Log:      log,
		Client:   session,
		Notifier: tg,
		Location: LoadLocation(cfg.Notify.Timezone),
		Step:     cfg.Retry.Step,
	}

	closer := func() error { return nil }
	if cfg.Kafka.Enable {
		prod := kafkaRepo.BootstrapProducer(ctx, cfg.Kafka, log)
		f.Reports = kafkaRepo.NewReportEvents(prod)
		closer = prod.Close
	}
	return f, closer
}

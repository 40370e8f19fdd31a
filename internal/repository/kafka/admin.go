package kafka

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	config "github.com/NordCoder/autocheckin/internal/config/checkin"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const partitionPoll = 200 * time.Millisecond

// TopicSpec describes the report topic.
type TopicSpec struct {
	Name              string
	NumPartitions     int
	ReplicationFactor int
	MaxWait           time.Duration
}

var (
	ErrNoBrokers     = errors.New("kafka: no brokers configured")
	ErrTopicNotReady = errors.New("kafka: topic has no partitions yet")
)

// TopicSpecFrom builds the report topic spec from the kafka section.
// Unset counts become 1.
func TopicSpecFrom(cfg config.KafkaCfg) TopicSpec {
	spec := TopicSpec{
		Name:              cfg.Topic,
		NumPartitions:     cfg.Partitions,
		ReplicationFactor: cfg.ReplicationFactor,
		MaxWait:           cfg.TopicWait,
	}
	if spec.NumPartitions <= 0 {
		spec.NumPartitions = 1
	}
	if spec.ReplicationFactor <= 0 {
		spec.ReplicationFactor = 1
	}
	return spec
}

// EnsureTopic creates the topic through the controller when missing, then
// waits up to spec.MaxWait for its partitions to show up.
func EnsureTopic(ctx context.Context, brokers []string, spec TopicSpec, log *zap.Logger) error {
	if len(brokers) == 0 {
		return ErrNoBrokers
	}
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("topic", spec.Name))

	conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		return fmt.Errorf("dial %s: %w", brokers[0], err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("find controller: %w", err)
	}
	cc, err := kafka.DialContext(ctx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return fmt.Errorf("dial controller: %w", err)
	}
	defer cc.Close()

	err = cc.CreateTopics(kafka.TopicConfig{
		Topic:             spec.Name,
		NumPartitions:     spec.NumPartitions,
		ReplicationFactor: spec.ReplicationFactor,
	})
	switch {
	case err == nil:
		log.Info("report topic created",
			zap.Int("partitions", spec.NumPartitions),
			zap.Int("replication_factor", spec.ReplicationFactor))
	case errors.Is(err, kafka.TopicAlreadyExists):
		log.Debug("report topic exists")
	default:
		return fmt.Errorf("create topic %s: %w", spec.Name, err)
	}

	return waitPartitions(ctx, spec, func() (int, error) {
		ps, err := conn.ReadPartitions(spec.Name)
		return len(ps), err
	})
}

func waitPartitions(ctx context.Context, spec TopicSpec, read func() (int, error)) error {
	wait := time.NewTimer(spec.MaxWait)
	defer wait.Stop()
	tick := time.NewTicker(partitionPoll)
	defer tick.Stop()
	for {
		if n, err := read(); err == nil && n > 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-wait.C:
			return fmt.Errorf("%w: %s after %s", ErrTopicNotReady, spec.Name, spec.MaxWait)
		case <-tick.C:
		}
	}
}

package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	config "github.com/NordCoder/autocheckin/internal/config/checkin"
	"github.com/NordCoder/autocheckin/internal/domain/checkin"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type memWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *memWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *memWriter) Close() error {
	w.closed = true
	return nil
}

func header(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestReportEvents_PublishReport(t *testing.T) {
	w := &memWriter{}
	p := newProducer(w, "autocheckin.reports").WithLogger(zaptest.NewLogger(t))
	ev := NewReportEvents(p)

	rep := &checkin.Report{
		RunID:     "run-1",
		Trigger:   checkin.TriggerSchedule,
		Domain:    "ht****ne",
		StartedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Results: []checkin.AccountResult{
			{Account: "al****io", OK: true, Message: "ok", Attempts: 1},
			{Account: "bo****io", Message: checkin.FailureMessage, Attempts: 3, Err: errors.New("dial tcp: refused")},
		},
	}
	require.NoError(t, ev.PublishReport(context.Background(), rep))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "run-1", string(msg.Key))
	assert.Equal(t, "application/json", header(msg, "content-type"))
	assert.Equal(t, "checkin.report", header(msg, "event-type"))
	assert.Equal(t, "schedule", header(msg, "trigger"))

	var got map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, "schedule", got["trigger"])
	assert.NotContains(t, string(msg.Value), "dial tcp", "internal causes stay out of the event")

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestMessageHeaders_SetReplaces(t *testing.T) {
	var h messageHeaders
	h.Set("traceparent", "a")
	h.Set("trigger", "http")
	h.Set("traceparent", "b")

	assert.Equal(t, []string{"traceparent", "trigger"}, h.Keys())
	assert.Equal(t, "b", h.Get("traceparent"))
	assert.Empty(t, h.Get("missing"))
}

func TestProducer_WriteError(t *testing.T) {
	w := &memWriter{err: errors.New("leader not available")}
	p := newProducer(w, "t").WithLogger(zaptest.NewLogger(t))
	assert.EqualError(t, p.PublishJSON(context.Background(), []byte("k"), map[string]int{"a": 1}), "leader not available")
}

func TestEnsureTopic_NoBrokers(t *testing.T) {
	assert.ErrorIs(t, EnsureTopic(context.Background(), nil, TopicSpec{Name: "t"}, nil), ErrNoBrokers)
}

func TestTopicSpecFrom(t *testing.T) {
	spec := TopicSpecFrom(config.KafkaCfg{Topic: "reports", Partitions: 3, ReplicationFactor: 2, TopicWait: time.Second})
	assert.Equal(t, TopicSpec{Name: "reports", NumPartitions: 3, ReplicationFactor: 2, MaxWait: time.Second}, spec)

	spec = TopicSpecFrom(config.KafkaCfg{Topic: "reports"})
	assert.Equal(t, 1, spec.NumPartitions)
	assert.Equal(t, 1, spec.ReplicationFactor)
}

func TestWaitPartitions(t *testing.T) {
	spec := TopicSpec{Name: "reports", MaxWait: time.Hour}

	calls := 0
	err := waitPartitions(context.Background(), spec, func() (int, error) {
		calls++
		if calls < 2 {
			return 0, errors.New("unknown topic")
		}
		return 1, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = waitPartitions(ctx, spec, func() (int, error) { return 0, nil })
	assert.ErrorIs(t, err, context.Canceled)

	spec.MaxWait = 10 * time.Millisecond
	err = waitPartitions(context.Background(), spec, func() (int, error) { return 0, nil })
	assert.ErrorIs(t, err, ErrTopicNotReady)
}

package retry

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var ErrInvalidAttempts = errors.New("retry: attempts must be at least 1")

type Backoff interface {
	Next(attempt int) time.Duration
}

// Linear waits Step*attempt, attempt counted from 1: 2s, 4s, 6s for a 2s step.
type Linear struct {
	Step time.Duration
}

func (b Linear) Next(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return b.Step * time.Duration(attempt)
}

type Policy struct {
	Name      string
	Attempts  int
	Backoff   Backoff
	Retryable func(error) bool
	OnAttempt func(attempt int, err error)
	OnExhaust func(lastErr error)
}

var (
	retryAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "retry_attempts_total",
		Help: "Total retry attempts (including final).",
	}, []string{"name"})
	retryExhausted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "retry_exhausted_total",
		Help: "Operations that exhausted all retries.",
	}, []string{"name"})
	retryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "retry_duration_seconds",
		Help:    "Total time spent inside retry.Do (success or fail).",
		Buckets: prometheus.DefBuckets,
	}, []string{"name"})
)

func Do(ctx context.Context, fn func() error, p Policy) error {
	_, err := DoValue(ctx, func() (struct{}, error) { return struct{}{}, fn() }, p)
	return err
}

// DoValue calls fn up to p.Attempts times. The last failure is returned as is.
func DoValue[T any](ctx context.Context, fn func() (T, error), p Policy) (T, error) {
	var zero T
	if p.Attempts <= 0 {
		return zero, ErrInvalidAttempts
	}

	start := time.Now()
	name := p.Name
	if name == "" {
		name = "default"
	}
	defer func() { retryLatency.WithLabelValues(name).Observe(time.Since(start).Seconds()) }()

	isRetryable := p.Retryable
	if isRetryable == nil {
		isRetryable = func(err error) bool { return err != nil }
	}
	backoff := p.Backoff
	if backoff == nil {
		backoff = Linear{}
	}

	span := trace.SpanFromContext(ctx)

	var err error
	for i := 0; i < p.Attempts; i++ {
		var v T
		v, err = fn()
		retryAttempts.WithLabelValues(name).Inc()
		if err == nil {
			return v, nil
		}
		if p.OnAttempt != nil {
			p.OnAttempt(i, err)
		}
		if span.IsRecording() {
			span.AddEvent("retry.attempt", trace.WithAttributes(
				attribute.String("retry.name", name),
				attribute.Int("retry.attempt", i+1),
			))
		}
		if !isRetryable(err) || i == p.Attempts-1 {
			retryExhausted.WithLabelValues(name).Inc()
			if p.OnExhaust != nil {
				p.OnExhaust(err)
			}
			return zero, err
		}
		wait := backoff.Next(i + 1)
		if wait <= 0 {
			continue
		}
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return zero, ctx.Err()
		case <-t.C:
		}
	}
	return zero, err
}

package scheduler

import (
	"context"
	"errors"
	"time"

	config "github.com/NordCoder/autocheckin/internal/config/checkin"
	"github.com/NordCoder/autocheckin/internal/domain/checkin"
	"github.com/NordCoder/autocheckin/internal/obs"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	mTicks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_ticks_total", Help: "Timer-triggered checkin runs started",
	})
	mErr = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_errors_total", Help: "Timer-triggered runs that failed",
	})
	mLoopDur = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "scheduler_loop_duration_seconds", Help: "Scheduler tick duration",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
	})
)

// Checker runs one checkin invocation with the given settings.
type Checker interface {
	Run(ctx context.Context, s config.Settings, trig checkin.Trigger) (string, error)
}

type Runner struct {
	Log     *zap.Logger
	Source  config.Source
	Checker Checker
	Cfg     config.SchedCfg
}

func New(log *zap.Logger, src config.Source, c Checker, cfg config.SchedCfg) *Runner {
	return &Runner{
		Log:     obs.Component(log, "scheduler"),
		Source:  src,
		Checker: c,
		Cfg:     cfg,
	}
}

// Tick resolves fresh settings and runs the timer-triggered checkin once.
func (r *Runner) Tick(ctx context.Context) error {
	start := time.Now()
	defer func() { mLoopDur.Observe(time.Since(start).Seconds()) }()
	mTicks.Inc()

	s, err := r.Source.Settings()
	if err != nil {
		mErr.Inc()
		r.Log.Error("resolve settings", zap.Error(err))
		return err
	}
	out, err := r.Checker.Run(ctx, s, checkin.TriggerSchedule)
	if err != nil {
		mErr.Inc()
		r.Log.Warn("scheduled checkin failed", zap.Error(err))
		return err
	}
	r.Log.Debug("scheduled checkin done", zap.String("result", out), zap.Duration("elapsed", time.Since(start)))
	return nil
}

func (r *Runner) Run(ctx context.Context) error {
	if r.Cfg.Tick <= 0 {
		return errors.New("scheduler: tick must be positive")
	}
	ticker := time.NewTicker(r.Cfg.Tick)
	defer ticker.Stop()

	if r.Cfg.RunOnStart {
		_ = r.Tick(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			_ = r.Tick(ctx)
		}
	}
}

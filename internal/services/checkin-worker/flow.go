package checkin_worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	config "github.com/NordCoder/autocheckin/internal/config/checkin"
	"github.com/NordCoder/autocheckin/internal/domain/checkin"
	"github.com/NordCoder/autocheckin/internal/obs"
	"github.com/NordCoder/autocheckin/internal/obs/retry"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var (
	mRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkin_runs_total", Help: "Checkin invocations by trigger and result.",
	}, []string{"trigger", "result"})
	mAccounts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkin_accounts_total", Help: "Per-account checkin outcomes.",
	}, []string{"result"})
	mAccountDur = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "checkin_account_duration_seconds", Help: "Time spent on one account, retries included.",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
	})
)

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Flow runs one invocation: settings check, accounts one after another,
// notification and report. It holds no per-run state.
type Flow struct {
	Log      *zap.Logger
	Client   checkin.Client
	Notifier checkin.Notifier
	Reports  checkin.ReportPublisher // optional
	Clock    checkin.Clock
	Location *time.Location
	Step     time.Duration // linear backoff step between attempts
}

func (f *Flow) log(ctx context.Context) *zap.Logger {
	return obs.WithTrace(ctx, f.Log)
}

func (f *Flow) now() time.Time {
	if f.Clock == nil {
		return systemClock{}.Now()
	}
	return f.Clock.Now()
}

func (f *Flow) newReport(ctx context.Context, s config.Settings, trig checkin.Trigger) *checkin.Report {
	id := obs.RunID(ctx)
	if id == "" {
		id = uuid.NewString()
	}
	return &checkin.Report{
		RunID:     id,
		Trigger:   trig,
		Domain:    Mask(s.Domain),
		Single:    s.Single,
		StartedAt: f.now(),
	}
}

// Run is the entry used by every trigger. The returned text is what an HTTP
// caller sees on success; the error's PublicMessage is what it sees otherwise.
func (f *Flow) Run(ctx context.Context, s config.Settings, trig checkin.Trigger) (string, error) {
	tr := otel.Tracer("checkin.flow")
	ctx, span := tr.Start(ctx, "checkin.run", trace.WithAttributes(
		attribute.String("checkin.trigger", string(trig)),
		attribute.Int("checkin.accounts", len(s.Accounts)),
		attribute.Bool("checkin.single", s.Single),
	))
	defer span.End()
	if obs.RunID(ctx) == "" {
		ctx = obs.ContextWithRunID(ctx, uuid.NewString())
	}

	var (
		rep  *checkin.Report
		text string
		err  error
	)
	if s.Single {
		attempts := s.MaxRetry
		if trig == checkin.TriggerHTTP {
			attempts = 1
		}
		rep, err = f.CheckOne(ctx, s, attempts)
		if err == nil {
			text = "🎉 checkin succeeded!\n" + rep.Results[0].Message
		}
	} else {
		rep, err = f.CheckAll(ctx, s)
		if err == nil {
			text = joinLines(rep.Lines())
		}
	}
	if rep == nil {
		rep = f.newReport(ctx, s, trig)
	}
	rep.Trigger = trig
	rep.FinishedAt = f.now()

	log := f.log(ctx).With(zap.String("trigger", string(trig)))
	if err != nil {
		rep.Error = checkin.PublicMessage(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, rep.Error)
		mRuns.WithLabelValues(string(trig), "error").Inc()
		log.Error("checkin run failed", zap.Error(err))
		f.notify(ctx, s, failureTitle(trig, s.Single), rep.Error)
		f.publish(ctx, rep)
		return "", err
	}

	span.SetAttributes(
		attribute.Int("checkin.succeeded", rep.Succeeded()),
		attribute.Int("checkin.failed", rep.Failed()),
	)
	mRuns.WithLabelValues(string(trig), "ok").Inc()
	log.Info("checkin run finished",
		zap.Int("succeeded", rep.Succeeded()),
		zap.Int("failed", rep.Failed()),
		zap.Duration("elapsed", rep.FinishedAt.Sub(rep.StartedAt)),
	)
	f.notify(ctx, s, successTitle(trig, s.Single), text)
	f.publish(ctx, rep)
	return text, nil
}

// CheckAll processes every account in order. One account failing never stops
// the next one; only an empty or invalid configuration fails the batch.
func (f *Flow) CheckAll(ctx context.Context, s config.Settings) (*checkin.Report, error) {
	if len(s.Accounts) == 0 {
		return nil, &config.ConfigError{Msg: "no checkin accounts configured"}
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	rep := f.newReport(ctx, s, "")
	rep.Results = make([]checkin.AccountResult, 0, len(s.Accounts))
	for i, acc := range s.Accounts {
		if err := ctx.Err(); err != nil {
			return rep, fmt.Errorf("batch interrupted at account %d: %w", i+1, err)
		}
		res := f.checkAccount(ctx, s, acc, s.MaxRetry)
		if res.OK {
			res.Line = fmt.Sprintf("📧 %s checkin succeeded: %s", res.Account, res.Message)
		} else {
			res.Line = fmt.Sprintf("❌ %s checkin failed: %s", res.Account, res.Message)
		}
		rep.Results = append(rep.Results, res)
	}
	return rep, nil
}

// CheckOne is the single-account path: a failure after the last attempt
// fails the whole invocation.
func (f *Flow) CheckOne(ctx context.Context, s config.Settings, attempts int) (*checkin.Report, error) {
	if len(s.Accounts) == 0 {
		return nil, &config.ConfigError{Msg: "no checkin accounts configured"}
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	rep := f.newReport(ctx, s, "")
	res := f.checkAccount(ctx, s, s.Accounts[0], attempts)
	res.Line = res.Message
	rep.Results = []checkin.AccountResult{res}
	if !res.OK {
		return rep, res.Err
	}
	return rep, nil
}

func (f *Flow) checkAccount(ctx context.Context, s config.Settings, acc checkin.Account, attempts int) checkin.AccountResult {
	masked := Mask(acc.Email)
	ctx, span := otel.Tracer("checkin.flow").Start(ctx, "checkin.account",
		trace.WithAttributes(attribute.String("checkin.account", masked)))
	defer span.End()

	log := f.log(ctx).With(zap.String("account", masked))
	start := time.Now()
	n := 0
	msg, err := retry.DoValue(ctx, func() (string, error) {
		n++
		return f.Client.Checkin(ctx, s.Domain, acc)
	}, retry.CheckinPolicy(log, attempts, f.Step, checkin.Retryable))
	mAccountDur.Observe(time.Since(start).Seconds())

	res := checkin.AccountResult{Account: masked, Attempts: n}
	if err != nil {
		err = asCheckinError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, checkin.FailureMessage)
		mAccounts.WithLabelValues("failed").Inc()
		log.Warn("account failed", zap.Int("attempts", n), zap.Error(err))
		res.Err = err
		res.Message = checkin.PublicMessage(err)
		return res
	}
	mAccounts.WithLabelValues("ok").Inc()
	res.OK = true
	res.Message = msg
	return res
}

// asCheckinError classifies errors raised outside the client, such as a
// context ending during the backoff wait.
func asCheckinError(err error) error {
	var cerr *checkin.Error
	if errors.As(err, &cerr) {
		return err
	}
	kind := checkin.KindTransport
	if errors.Is(err, context.DeadlineExceeded) {
		kind = checkin.KindTimeout
	}
	return &checkin.Error{Kind: kind, Op: "checkin", Err: err}
}

func (f *Flow) notify(ctx context.Context, s config.Settings, title, body string) {
	if f.Notifier == nil {
		return
	}
	text := Compose(f.now(), f.Location, s, title, body)
	f.Notifier.Notify(ctx, checkin.Destination{Token: s.TGBotToken, ChatID: s.TGChatID}, text)
}

func (f *Flow) publish(ctx context.Context, rep *checkin.Report) {
	if f.Reports == nil {
		return
	}
	if err := f.Reports.PublishReport(ctx, rep); err != nil {
		f.log(ctx).Warn("report publish failed", zap.Error(err))
	}
}

package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	_ "time/tzdata"

	config "github.com/NordCoder/autocheckin/internal/config/checkin"
	"github.com/NordCoder/autocheckin/internal/obs"
	checkin_worker "github.com/NordCoder/autocheckin/internal/services/checkin-worker"
	"github.com/NordCoder/autocheckin/internal/services/scheduler"
	"github.com/NordCoder/autocheckin/internal/services/trigger"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"
)

const scheduledSource = "aws.events"

type ticker interface {
	Tick(ctx context.Context) error
}

type responder interface {
	Respond(ctx context.Context, path string) (int, string)
}

// app routes one Lambda event: EventBridge schedules run the timer path,
// everything else is treated as an API Gateway proxy request.
type app struct {
	log   *zap.Logger
	sched ticker
	http  responder
}

type eventEnvelope struct {
	Source     string `json:"source"`
	DetailType string `json:"detail-type"`
}

func (a *app) handle(ctx context.Context, raw json.RawMessage) (any, error) {
	var env eventEnvelope
	_ = json.Unmarshal(raw, &env)

	if env.Source == scheduledSource {
		var ev events.CloudWatchEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, err
		}
		a.log.Info("scheduled event", zap.String("id", ev.ID), zap.String("detail_type", ev.DetailType))
		// a failed run is reported in the result, never as an invocation error
		if err := a.sched.Tick(ctx); err != nil {
			a.log.Warn("scheduled checkin failed", zap.String("id", ev.ID), zap.Error(err))
			return map[string]string{"status": "failed"}, nil
		}
		return map[string]string{"status": "ok"}, nil
	}

	var req events.APIGatewayProxyRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return proxyResponse(http.StatusBadRequest, "Bad Request"), nil
	}
	code, body := a.http.Respond(ctx, req.Path)
	return proxyResponse(code, body), nil
}

func proxyResponse(code int, body string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: code,
		Headers: map[string]string{
			"Content-Type":           "text/plain; charset=UTF-8",
			"X-Content-Type-Options": "nosniff",
		},
		Body: body,
	}
}

func main() {
	ctx := context.Background()

	cfg, loader, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatal(err)
	}
	lc := cfg.AsLoggerConfig()
	lc.Lambda = true
	logger, err := obs.NewLogger(lc)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	otelCloser, err := obs.SetupOTel(ctx, cfg.OTEL.AsOTELConfig())
	if err != nil {
		logger.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelCloser.Shutdown(context.Background()) }()

	flow, closeFlow := checkin_worker.Bootstrap(ctx, cfg, logger)
	defer func() { _ = closeFlow() }()

	a := &app{
		log:   obs.Component(logger, "lambda"),
		sched: scheduler.New(logger, loader, flow, cfg.Sched),
		http:  trigger.New(logger, loader, flow),
	}
	lambda.Start(a.handle)
}

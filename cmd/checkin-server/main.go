package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	config "github.com/NordCoder/autocheckin/internal/config/checkin"
	"github.com/NordCoder/autocheckin/internal/obs"
	checkin_worker "github.com/NordCoder/autocheckin/internal/services/checkin-worker"
	"github.com/NordCoder/autocheckin/internal/services/scheduler"
	"github.com/NordCoder/autocheckin/internal/services/trigger"

	"go.uber.org/zap"
)

func main() {
	cfgPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to autocheckin.yaml")
	flag.Parse()

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, loader, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}

	logger, err := obs.NewLogger(cfg.AsLoggerConfig())
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)
	logger.Info("starting checkin-server",
		zap.String("env", cfg.App.Env),
		zap.String("http_addr", cfg.Server.HTTPAddr),
		zap.Duration("tick", cfg.Sched.Tick),
		zap.Bool("kafka", cfg.Kafka.Enable),
	)

	// fail fast on a broken environment, the same check runs again per invocation
	if s, err := loader.Settings(); err != nil {
		logger.Fatal("settings", zap.Error(err))
	} else if err := s.Validate(); err != nil {
		logger.Fatal("settings", zap.Error(err))
	}

	otelCloser, err := obs.SetupOTel(rootCtx, cfg.OTEL.AsOTELConfig())
	if err != nil {
		logger.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelCloser.Shutdown(context.Background()) }()

	flow, closeFlow := checkin_worker.Bootstrap(rootCtx, cfg, logger)
	defer func() { _ = closeFlow() }()

	ms := obs.BootstrapMetricsServer(cfg.Server.MetricsAddr, nil, logger)

	runner := scheduler.New(logger, loader, flow, cfg.Sched)
	schedErrCh := make(chan error, 1)
	go func() { schedErrCh <- runner.Run(rootCtx) }()

	httpSrv := buildHTTPServer(cfg, trigger.Router(trigger.New(logger, loader, flow)))
	httpErrCh := make(chan error, 1)
	go func() { httpErrCh <- serveHTTP(httpSrv, logger) }()

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal", zap.String("reason", "context canceled"))
	case err = <-schedErrCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("scheduler", zap.Error(err))
		}
	case err = <-httpErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", zap.Error(err))
		}
	}

	shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	_ = httpSrv.Shutdown(shCtx)
	_ = ms.Shutdown(shCtx)
	logger.Info("bye")
}

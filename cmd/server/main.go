package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/yourorg/order-service/internal/adapter"
	"github.com/yourorg/order-service/internal/config"
	"github.com/yourorg/order-service/internal/logging"
	"github.com/yourorg/order-service/internal/monitor"
	"github.com/yourorg/order-service/internal/orchestrator"
	"github.com/yourorg/order-service/internal/policy"
	"github.com/yourorg/order-service/internal/reporting"
	"github.com/yourorg/order-service/internal/store"
)

func initTracer() (func(), error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	return func() { _ = tp.Shutdown(context.Background()) }, nil
}

func newStore(cfg *config.Config, logger *zap.Logger) (store.Store, error) {
	switch cfg.StoreDriver {
	case "postgres":
		logger.Info("using postgres order store")
		return store.NewPostgresStore(cfg.DatabaseDSN)
	case "memory":
		logger.Info("using in-memory order store")
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver: %q", cfg.StoreDriver)
	}
}

func main() {
	cfg := config.Load()

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	shutdownTracer, err := initTracer()
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdownTracer()

	st, err := newStore(cfg, logger)
	if err != nil {
		logger.Fatal("failed to init order store", zap.Error(err))
	}

	backoff := policy.Backoff{
		Base:        cfg.RetryBaseDelay,
		Multiplier:  2,
		Cap:         cfg.RetryMaxDelay,
		MaxAttempts: cfg.RetryMaxAttempts,
	}
	enforcer, err := policy.NewEnforcer(policy.DefaultRules(), backoff.MaxAttempts)
	if err != nil {
		logger.Fatal("failed to compile retry rules", zap.Error(err))
	}

	contractMonitor, err := monitor.NewContractMonitor()
	if err != nil {
		logger.Fatal("failed to compile order schema", zap.Error(err))
	}

	gateway := adapter.NewProvider(cfg.PaymentServiceURL, nil)
	recorder := reporting.NewRecorder()
	orch := orchestrator.New(st, gateway, backoff, enforcer, logger).
		WithCurrency(cfg.DefaultCurrency).
		WithRecorder(recorder)

	srv := &server{
		store:    st,
		orch:     orch,
		monitor:  contractMonitor,
		recorder: recorder,
		logger:   logger,
	}

	router := setupRouter(srv)
	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	httpServer := &http.Server{Addr: addr, Handler: router}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting order service",
			zap.String("addr", addr),
			zap.String("paymentServiceUrl", cfg.PaymentServiceURL))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

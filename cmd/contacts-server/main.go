package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"

	"github.com/kvetinski/contacts/config"
	"github.com/kvetinski/contacts/internal/adapters/events"
	"github.com/kvetinski/contacts/internal/adapters/grpcapi"
	"github.com/kvetinski/contacts/internal/adapters/grpcapi/contactsv1"
	"github.com/kvetinski/contacts/internal/adapters/httpapi"
	"github.com/kvetinski/contacts/internal/adapters/repository"
	"github.com/kvetinski/contacts/internal/adapters/repository/migrations"
	contactsvc "github.com/kvetinski/contacts/internal/service/contact"
	"github.com/kvetinski/contacts/internal/telemetry"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		slog.Error("service exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg := config.New()
	logger.Info("starting contacts service",
		"version", version,
		"http_addr", cfg.HTTPAddr,
		"grpc_addr", cfg.GRPCAddr,
		"metrics_addr", cfg.MetricsAddr,
		"db_driver", cfg.DBDriver,
	)

	ctx := context.Background()
	shutdownTracing, err := telemetry.InitTracing(ctx, telemetry.TracingConfig{
		Enabled:        cfg.TracingEnabled,
		ServiceName:    cfg.TracingServiceName,
		ServiceVersion: version,
		OTLPEndpoint:   cfg.TracingOTLPEndpoint,
		Insecure:       cfg.TracingOTLPInsecure,
		SampleRatio:    cfg.TracingSampleRatio,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Error("shutdown tracing failed", "error", err)
		}
	}()

	dialect, err := repository.ParseDialect(cfg.DBDriver)
	if err != nil {
		return err
	}

	openCtx, cancelOpen := context.WithTimeout(ctx, 10*time.Second)
	db, err := repository.Open(openCtx, dialect, cfg.DatabaseURI)
	cancelOpen()
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("database connected")

	if cfg.MigrateOnStart {
		if err = migrations.Up(ctx, db, string(dialect), logger); err != nil {
			return err
		}
		logger.Info("database migrated")
	}

	metrics := telemetry.NewMetrics(nil)
	if err = telemetry.RegisterDBPoolMetrics(db, nil); err != nil {
		return fmt.Errorf("register db pool metrics: %w", err)
	}

	repo := repository.NewWithMetrics(db, dialect, metrics)

	svcOpts := []contactsvc.Option{contactsvc.WithLogger(logger)}
	if cfg.MQTTBroker != "" {
		publisher, err := events.New(events.Config{
			Broker:      cfg.MQTTBroker,
			ClientID:    cfg.MQTTClientID,
			Username:    cfg.MQTTUsername,
			Password:    cfg.MQTTPassword,
			TopicPrefix: cfg.MQTTTopicPrefix,
			Logger:      logger,
			Metrics:     metrics,
		})
		if err != nil {
			return fmt.Errorf("create event publisher: %w", err)
		}
		// paho keeps retrying in the background after a failed first connect.
		if err := publisher.Connect(); err != nil {
			logger.Warn("event publisher not connected yet", "broker", cfg.MQTTBroker, "error", err)
		}
		defer publisher.Close()
		svcOpts = append(svcOpts, contactsvc.WithPublisher(publisher))
	}
	svc := contactsvc.New(repo, svcOpts...)

	grpcSrv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.UnaryInterceptor(grpcapi.UnaryMetricsInterceptor(metrics, logger)),
	)
	contactsv1.RegisterContactServiceServer(grpcSrv, grpcapi.NewServer(svc, logger, cfg.DefaultPageSize))

	apiSrv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: httpapi.NewHandler(svc, httpapi.Options{
			Pinger:       repo,
			Logger:       logger,
			Metrics:      metrics,
			DefaultLimit: cfg.DefaultPageSize,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           metricsMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}
	defer lis.Close()

	errCh := make(chan error, 3)

	go func() {
		logger.Info("metrics server listening", "addr", cfg.MetricsAddr)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("metrics server: %w", err)
		}
	}()

	go func() {
		logger.Info("http api listening", "addr", cfg.HTTPAddr)
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http api server: %w", err)
		}
	}()

	go func() {
		logger.Info("grpc server listening", "addr", cfg.GRPCAddr)
		if err := grpcSrv.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc serve: %w", err)
		}
	}()

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-sigCtx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	httpErrCh := make(chan error, 2)
	for name, srv := range map[string]*http.Server{"http api": apiSrv, "metrics": metricsSrv} {
		go func() {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				httpErrCh <- fmt.Errorf("shutdown %s server: %w", name, err)
				return
			}
			httpErrCh <- nil
		}()
	}

	grpcDone := make(chan struct{})
	go func() {
		grpcSrv.GracefulStop()
		close(grpcDone)
	}()

	select {
	case <-grpcDone:
		logger.Info("grpc server stopped gracefully")
	case <-shutdownCtx.Done():
		logger.Warn("grpc graceful shutdown timed out, forcing stop")
		grpcSrv.Stop()
	}

	var shutdownErr error
	for range 2 {
		shutdownErr = errors.Join(shutdownErr, <-httpErrCh)
	}
	if shutdownErr != nil {
		return shutdownErr
	}

	logger.Info("shutdown complete")
	return nil
}

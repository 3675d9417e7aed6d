package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/prodhub/internal/health"
	"github.com/vladislavdragonenkov/prodhub/internal/metrics"
	"github.com/vladislavdragonenkov/prodhub/internal/service/auth"
	"github.com/vladislavdragonenkov/prodhub/internal/service/ledger"
	transport "github.com/vladislavdragonenkov/prodhub/internal/transport/http"
	"github.com/vladislavdragonenkov/prodhub/internal/version"
)

// Run собирает зависимости и держит HTTP API до отмены контекста.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	deps, err := initRuntimeDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.close(logger)

	ledgerMetrics := metrics.NewLedgerMetrics()
	authSvc := auth.NewService(deps.users, deps.sessions, ledgerMetrics)
	ledgerSvc := ledger.NewService(deps.ledger, ledgerMetrics)

	server := transport.NewServer(transport.Config{
		Auth:       authSvc,
		Ledger:     ledgerSvc,
		Users:      deps.users,
		Products:   deps.products,
		Categories: deps.categories,
		Events:     deps.events,
		AdminKey:   cfg.AdminKey,
		StaticDir:  cfg.StaticDir,
	})

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	if deps.storageChecker != nil {
		healthHandler.RegisterChecker("storage", deps.storageChecker)
	}
	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	// Kafka опционален: без брокеров события остаются в outbox.
	producer, _ := initKafkaProducer(cfg.KafkaBrokers, logger)
	worker := createOutboxWorker(cfg, deps.outbox, producer, logger)

	var workerCancel context.CancelFunc
	workerDone := make(chan struct{})
	if worker != nil {
		var workerCtx context.Context
		workerCtx, workerCancel = context.WithCancel(context.Background())
		go func() {
			defer close(workerDone)
			worker.Run(workerCtx)
		}()
	} else {
		close(workerDone)
	}

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: server.Router()}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP сервер слушает %s", cfg.HTTPAddr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем HTTP сервер")
		shutdownHTTP(httpSrv, logger)
		shutdownHTTP(metricsSrv, logger)
		shutdownOutboxWorker(workerCancel, workerDone, logger)
		closeKafka(producer, logger)
		return ctx.Err()

	case err := <-errCh:
		shutdownHTTP(metricsSrv, logger)
		shutdownOutboxWorker(workerCancel, workerDone, logger)
		closeKafka(producer, logger)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// startMetricsServer запускает служебный HTTP: метрики и health checks.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez", addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}

// shutdownOutboxWorker останавливает воркер и дожидается завершения.
func shutdownOutboxWorker(cancel context.CancelFunc, done <-chan struct{}, logger *log.Entry) {
	if cancel == nil {
		return
	}
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		logger.Warn("outbox worker did not stop in time")
	}
}

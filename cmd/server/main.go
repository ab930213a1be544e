package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"idattest/internal/events"
	jwttoken "idattest/internal/jwt_token"
	"idattest/internal/ledger"
	"idattest/internal/platform/config"
	"idattest/internal/platform/httpserver"
	"idattest/internal/platform/logger"
	httpmetrics "idattest/internal/platform/metrics"
	"idattest/internal/platform/middleware"
	"idattest/internal/platform/postgres"
	"idattest/internal/platform/redis"
	"idattest/internal/registry/address"
	"idattest/internal/registry/handler"
	registrymetrics "idattest/internal/registry/metrics"
	"idattest/internal/registry/service"
	"idattest/pkg/platform/circuit"
	"idattest/pkg/platform/httputil"
)

// main wires the registry: ledger backend, event sinks, HTTP surface.
// Business logic lives in internal/registry.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("registry server stopped", "error", err)
		os.Exit(1)
	}
}

type healthCheck func(ctx context.Context) error

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	program, err := cfg.Registry.Program()
	if err != nil {
		return err
	}

	proxies, err := cfg.Server.TrustedProxyPrefixes()
	if err != nil {
		return err
	}

	store, checks, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	g, ctx := errgroup.WithContext(ctx)

	eventLog := events.NewLog(cfg.Registry.EventLogSize)
	sinks := events.Fanout{eventLog}
	if cfg.Kafka.Enabled() {
		kafka, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return err
		}
		defer kafka.Close()
		if err := kafka.EnsureTopic(ctx, cfg.Kafka.Partitions, cfg.Kafka.Replication); err != nil {
			return fmt.Errorf("ensure kafka topic: %w", err)
		}
		checks = append(checks, kafka.Ping)

		queue := events.NewQueue(cfg.Registry.EventQueueSize, log)
		sinks = append(sinks, queue)
		worker := events.NewWorker(events.NewGuarded(kafka, circuit.New("kafka"), log), queue)
		g.Go(func() error {
			if err := worker.Run(ctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
		log.Info("publishing events to kafka", "topic", cfg.Kafka.Topic, "brokers", cfg.Kafka.Brokers)
	}

	registry := service.New(store, address.New(program),
		service.WithPublisher(sinks),
		service.WithLogger(log),
		service.WithMetrics(registrymetrics.New(reg)),
	)
	if err := registry.SeedMetrics(ctx); err != nil {
		return fmt.Errorf("seed registry metrics: %w", err)
	}
	validator := jwttoken.NewRequestValidator(program.String(), jwttoken.WithLeeway(cfg.Registry.RequestLeeway))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.ClientIP(proxies...))
	r.Use(middleware.RequestTime)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))
	r.Use(httpmetrics.New(reg, "registry").Middleware)

	r.Get("/health", healthHandler(checks))
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	handler.New(registry, validator, eventLog, log).Register(r)

	srv := httpserver.New(cfg.Server.Addr, r)
	g.Go(func() error {
		log.Info("starting registry", "addr", cfg.Server.Addr, "program", program.String(), "backend", cfg.Registry.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openStore(ctx context.Context, cfg config.Config, log *slog.Logger) (ledger.Store, []healthCheck, func(), error) {
	switch cfg.Registry.Backend {
	case config.BackendPostgres:
		db, err := postgres.Open(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, nil, err
		}
		store := ledger.NewPostgresStore(db, ledger.WithTxTimeout(cfg.Registry.TxTimeout))
		if err := store.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, nil, fmt.Errorf("migrate ledger: %w", err)
		}
		log.Info("ledger backend ready", "backend", config.BackendPostgres)
		return store, []healthCheck{db.PingContext}, func() { db.Close() }, nil
	case config.BackendRedis:
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, nil, err
		}
		store := ledger.NewRedisStore(client.Client, ledger.WithTxRetries(cfg.Redis.TxRetries))
		log.Info("ledger backend ready", "backend", config.BackendRedis)
		return store, []healthCheck{client.Health}, func() { client.Close() }, nil
	default:
		log.Warn("using in-memory ledger; state is lost on restart")
		return ledger.NewInMemoryStore(), nil, func() {}, nil
	}
}

func healthHandler(checks []healthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, check := range checks {
			if err := check(r.Context()); err != nil {
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

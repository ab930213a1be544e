package main

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"idattest/internal/notary/handler"
	"idattest/internal/notary/keystore"
	notarymetrics "idattest/internal/notary/metrics"
	"idattest/internal/notary/models"
	"idattest/internal/notary/service"
	"idattest/internal/platform/config"
	"idattest/internal/platform/httpserver"
	"idattest/internal/platform/logger"
	httpmetrics "idattest/internal/platform/metrics"
	"idattest/internal/platform/middleware"
	"idattest/internal/ratelimit"
)

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
		log.Error("notary stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	key, err := loadKey(cfg.Notary, log)
	if err != nil {
		return err
	}
	proxies, err := cfg.Server.TrustedProxyPrefixes()
	if err != nil {
		return err
	}
	signer, err := service.NewEd25519Signer(key)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	m := notarymetrics.New(reg)
	notary := service.New(signer, service.NewDigestProver(nil),
		service.WithLogger(log),
		service.WithMetrics(m),
	)
	limiter := ratelimit.NewMiddleware(
		ratelimit.New(cfg.Notary.RateLimit, cfg.Notary.RateBurst, 0),
		log,
		ratelimit.WithRejectHook(m.IncrementRateLimited),
	)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.ClientIP(proxies...))
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))
	r.Use(httpmetrics.New(reg, "notary").Middleware)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	handler.New(notary, limiter.RateLimit, log).Register(r)

	srv := httpserver.New(cfg.Notary.Addr, r)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("notary listening",
			"addr", cfg.Notary.Addr,
			"notary_pubkey", models.PubkeyHex(notary.Pubkey()),
			"notary_address", notary.Pubkey().String(),
		)
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

// loadKey persists the key when a keyfile is configured; otherwise the key
// lives only as long as the process.
func loadKey(cfg config.Notary, log *slog.Logger) (ed25519.PrivateKey, error) {
	if cfg.KeyFile == "" {
		log.Warn("no notary keyfile configured; using an ephemeral key")
		return keystore.Generate()
	}
	key, created, err := keystore.LoadOrCreate(cfg.KeyFile, cfg.Passphrase)
	if err != nil {
		return nil, fmt.Errorf("notary key %s: %w", cfg.KeyFile, err)
	}
	if created {
		log.Info("generated notary key", "path", cfg.KeyFile, "sealed", cfg.Passphrase != "")
	}
	return key, nil
}

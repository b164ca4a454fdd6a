package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	httpAdapter "github.com/iho/farmledger/internal/adapter/http"
	"github.com/iho/farmledger/internal/adapter/http/handler"
	"github.com/iho/farmledger/internal/adapter/http/middleware"
	"github.com/iho/farmledger/internal/app"
	"github.com/iho/farmledger/internal/infrastructure/config"
	"github.com/iho/farmledger/internal/infrastructure/logger"
	redisinfra "github.com/iho/farmledger/internal/infrastructure/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	log.Logger = logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "farmledger-worker",
	})
	zerolog.DefaultContextLogger = &log.Logger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log.Logger); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("worker failed")
	}
	log.Info().Msg("worker stopped")
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	a, err := app.New(ctx, cfg, logger, app.Options{
		Registerer:  prometheus.DefaultRegisterer,
		WithRedis:   true,
		WithJournal: true,
	})
	if err != nil {
		return err
	}
	defer a.Close()

	limiter := middleware.NewRateLimiter(20, 40)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.OpsHTTPPort),
		Handler:      opsRouter(a, limiter),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.AccrualWorker().Start(ctx)
	})
	g.Go(func() error {
		return a.OutboxRelay().Start(ctx)
	})
	g.Go(func() error {
		logger.Info().Str("port", cfg.OpsHTTPPort).Msg("starting ops server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("ops server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if n := limiter.Sweep(10 * time.Minute); n > 0 {
					logger.Debug().Int("clients", n).Msg("dropped idle rate limiters")
				}
			}
		}
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info().Msg("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.HTTPShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func opsRouter(a *app.App, limiter *middleware.RateLimiter) http.Handler {
	health := handler.NewHealthHandler(
		handler.Check{Name: "postgres", Ping: a.Pool.Ping},
		handler.Check{Name: "redis", Ping: redisinfra.Ping(a.Redis)},
	)

	return httpAdapter.NewRouter(httpAdapter.RouterConfig{
		HealthHandler: health,
		TickHandler:   handler.NewTickHandler(a.Journal),
		Metrics:       a.Metrics,
		Gatherer:      prometheus.DefaultGatherer,
		RateLimiter:   limiter,
		Logger:        a.Logger,
	})
}

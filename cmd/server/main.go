// Command server runs the POS table-session backend.
//
// @title       POS Table Session API
// @version     1.0
// @description Table sessions, orders, payments and guest reconciliation for restaurant POS terminals.
// @BasePath    /
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-pos-backend/internal/config"
	httpapi "github.com/tbourn/go-pos-backend/internal/http"
	"github.com/tbourn/go-pos-backend/internal/observability"
	"github.com/tbourn/go-pos-backend/internal/realtime"
	"github.com/tbourn/go-pos-backend/internal/repo"
	"github.com/tbourn/go-pos-backend/internal/sysutil"
)

const shutdownGrace = 15 * time.Second

func main() {
	// .env is optional; real environment wins.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	version := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), "dev")
	logger := sysutil.SetupLogger(os.Stdout, cfg.LogLevel, cfg.LogPretty, cfg.OTEL.ServiceName)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx)

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := repo.Open(cfg.DBDriver, cfg.DBPath, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	hub := realtime.NewHub(64)
	notifiers := realtime.Multi{hub}
	if cfg.Realtime.AMQPURL != "" {
		pub, err := dialAMQP(ctx, cfg.Realtime)
		if err != nil {
			log.Error().Err(err).Msg("amqp unavailable, broker events disabled")
		} else {
			defer pub.Close()
			notifiers = append(notifiers, pub)
			log.Info().Str("exchange", cfg.Realtime.AMQPExchange).Msg("amqp publisher ready")
		}
	}

	svc := httpapi.NewServices(db, cfg, notifiers)
	go svc.Sessions.RunSweeper(ctx, cfg.Session.SweepInterval)

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, svc, hub, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("db_driver", cfg.DBDriver).
			Str("version", version).
			Bool("swagger", cfg.SwaggerEnabled).
			Msg("pos backend listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("server failed")
		}
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Int("sse_clients", hub.Clients()).Int64("sse_dropped", hub.Dropped()).Msg("stopped")
}

// dialAMQP retries the broker connection a few times; the service still
// starts without it.
func dialAMQP(ctx context.Context, rc config.RealtimeConfig) (*realtime.AMQPPublisher, error) {
	return backoff.Retry(ctx, func() (*realtime.AMQPPublisher, error) {
		pub, err := realtime.DialAMQP(rc.AMQPURL, rc.AMQPExchange)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("amqp dial")
		}
		return pub, err
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(5),
	)
}

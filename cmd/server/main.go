// Package main boots the raffle server: configuration, stores, the raffle
// session and its HTTP surface, plus the background event pipeline.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	httpapi "tombola/internal/http"
	jwttoken "tombola/internal/jwt_token"
	"tombola/internal/platform/config"
	"tombola/internal/platform/device"
	"tombola/internal/platform/httpserver"
	"tombola/internal/platform/kafka"
	"tombola/internal/platform/logger"
	"tombola/internal/platform/metrics"
	"tombola/internal/platform/middleware"
	"tombola/internal/platform/redis"
	"tombola/internal/raffle/handler"
	"tombola/internal/raffle/models"
	"tombola/internal/raffle/service"
	rafflestore "tombola/internal/raffle/store"
	ratelimitmw "tombola/internal/ratelimit/middleware"
	ratelimitservice "tombola/internal/ratelimit/service"
	"tombola/internal/ratelimit/store/bucket"
	"tombola/pkg/domain"
	"tombola/pkg/platform/eventlog"
	eventmemory "tombola/pkg/platform/eventlog/store/memory"
	eventpg "tombola/pkg/platform/eventlog/store/postgres"
	"tombola/pkg/platform/eventlog/worker"
)

const (
	relayInterval      = time.Second
	eventInboxCapacity = 256
)

func main() {
	log := logger.New()
	if err := run(log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

// run assembles the process and blocks until shutdown completes. Keeping it
// apart from main puts every exit path on the same error return.
func run(log *slog.Logger) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := metrics.New()
	checks := make(map[string]httpapi.HealthChecker)

	// Redis is optional. Without it the rate limiter falls back to
	// process-local buckets.
	rdb, err := redis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if rdb != nil {
		defer rdb.Close()
		checks["redis"] = rdb
	}

	var rateLimiter *ratelimitmw.Middleware
	if cfg.RateLimit.Enabled {
		var buckets bucket.Store = bucket.NewInMemoryBucketStore()
		if rdb != nil {
			buckets = bucket.NewFailoverBucketStore(
				bucket.NewRedisBucketStore(rdb.Client),
				bucket.NewInMemoryBucketStore(),
				log,
			)
		}
		limiter, err := ratelimitservice.New(buckets, cfg.RateLimit.Limit, cfg.RateLimit.Window, log)
		if err != nil {
			return fmt.Errorf("build rate limiter: %w", err)
		}
		rateLimiter = ratelimitmw.New(limiter, log, ratelimitmw.WithMetrics(collector))
	}

	// Postgres is optional. Without a DSN the round archive and the event
	// trail stay in process memory, which also rules out Kafka publishing
	// since the relay reads the durable outbox.
	var (
		archive    service.Archive = rafflestore.NewInMemoryArchive()
		eventStore eventlog.Store  = eventmemory.NewInMemoryStore()
		outbox     *eventpg.Store
	)
	if cfg.Postgres.DSN != "" {
		pool, err := pgxpool.New(ctx, cfg.Postgres.DSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			return fmt.Errorf("ping postgres: %w", err)
		}
		archive = rafflestore.NewPostgresArchive(pool)
		checks["postgres"] = httpapi.HealthFunc(pool.Ping)

		db, err := sql.Open("postgres", cfg.Postgres.DSN)
		if err != nil {
			return fmt.Errorf("open postgres outbox connection: %w", err)
		}
		defer db.Close()
		outbox = eventpg.New(db)
		eventStore = outbox
	}

	eventWorker := worker.NewWorker(eventStore, eventInboxCapacity, log)
	sink := eventlog.Fanout{eventlog.NewSlogSink(log), eventWorker}

	var relay *worker.Relay
	if len(cfg.Kafka.Brokers) > 0 {
		if outbox == nil {
			return errors.New("kafka publishing requires postgres: set TOMBOLA_POSTGRES_DSN or clear TOMBOLA_KAFKA_BROKERS")
		}
		producer, err := kafka.NewProducer(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			return fmt.Errorf("start kafka producer: %w", err)
		}
		defer producer.Close()
		checks["kafka"] = producer
		relay = worker.NewRelay(outbox, producer, relayInterval, log)
	}

	feeRecipient, err := domain.ParseIdentity(cfg.Raffle.FeeRecipient)
	if err != nil {
		return fmt.Errorf("invalid fee recipient %q: %w", cfg.Raffle.FeeRecipient, err)
	}
	session, err := service.New(
		models.Config{
			RoundParams: models.RoundParams{
				EntranceFee:   cfg.Raffle.EntranceFee,
				RoundDuration: cfg.Raffle.RoundDuration,
				WinnerPercent: cfg.Raffle.WinnerPercent,
				MinEntrants:   cfg.Raffle.MinEntrants,
			},
			FeeRecipient: feeRecipient,
		},
		newJournalRail(log),
		cryptoSource{},
		service.WithLogger(log),
		service.WithMetrics(collector),
		service.WithEventSink(sink),
		service.WithArchive(archive),
	)
	if err != nil {
		return fmt.Errorf("build raffle session: %w", err)
	}

	jwtService := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience)
	validator := jwttoken.NewJWTServiceAdapter(jwtService)

	var operatorKey *middleware.OperatorKey
	if cfg.Auth.OperatorKeyHash != "" {
		identity, err := domain.ParseIdentity(cfg.Auth.OperatorIdentity)
		if err != nil {
			return fmt.Errorf("invalid operator identity %q: %w", cfg.Auth.OperatorIdentity, err)
		}
		operatorKey = &middleware.OperatorKey{Hash: cfg.Auth.OperatorKeyHash, Identity: identity}
	}

	raffleHandler := handler.New(
		session,
		log,
		collector,
		device.NewService(cfg.Auth.DeviceTracking),
		validator,
		operatorKey,
		rateLimiter,
	)

	srv := httpserver.New(cfg.Server.Addr, httpapi.NewRouter(httpapi.RouterConfig{
		Raffle: raffleHandler,
		Checks: checks,
	}))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ignoreCanceled(eventWorker.Run(gctx)) })
	if relay != nil {
		g.Go(func() error { return ignoreCanceled(relay.Run(gctx)) })
	}
	g.Go(func() error {
		log.Info("raffle server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("raffle server stopped")
	return nil
}

// ignoreCanceled filters the expected error a background loop returns when
// shutdown cancels its context.
func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

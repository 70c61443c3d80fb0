package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"turfwars/internal/battle/dice"
	battlehandler "turfwars/internal/battle/handler"
	battlemetrics "turfwars/internal/battle/metrics"
	"turfwars/internal/battle/publisher"
	battleservice "turfwars/internal/battle/service"
	battlestore "turfwars/internal/battle/store"
	clubhandler "turfwars/internal/club/handler"
	clubmetrics "turfwars/internal/club/metrics"
	clubservice "turfwars/internal/club/service"
	clubstore "turfwars/internal/club/store"
	"turfwars/internal/leaderboard"
	leaderboardhandler "turfwars/internal/leaderboard/handler"
	"turfwars/internal/platform/config"
	"turfwars/internal/platform/httpserver"
	"turfwars/internal/platform/lock"
	"turfwars/internal/platform/logger"
	"turfwars/internal/platform/metrics"
	platformredis "turfwars/internal/platform/redis"
	"turfwars/internal/platform/token"
	"turfwars/internal/seed"
	territoryhandler "turfwars/internal/territory/handler"
	territorymetrics "turfwars/internal/territory/metrics"
	territoryservice "turfwars/internal/territory/service"
	territorystore "turfwars/internal/territory/store"
	httptransport "turfwars/internal/transport/http"
	"turfwars/internal/user"

	"turfwars/pkg/platform/tx"
)

const (
	leaderboardTTL  = 5 * time.Second
	lockTTL         = 10 * time.Second
	requestTimeout  = 15 * time.Second
	shutdownTimeout = 10 * time.Second
	publisherBuffer = 256
)

// main wires configuration, stores, services, and the HTTP server. Business
// logic lives in the internal service packages.
func main() {
	log := logger.New()
	if err := run(log); err != nil {
		log.Error("server exited", "error", err.Error())
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The user directory is fed by the external profile system; the server
	// keeps a local projection.
	users := user.NewInMemory()

	// Stores: postgres when a DSN is configured, in-memory otherwise. The
	// memory runner registers every store so a failed transaction rolls all
	// of them back together.
	var (
		clubs       clubstore.Store
		territories territorystore.Store
		battles     battlestore.Store
		runner      tx.Runner
	)
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return err
		}
		clubs = clubstore.NewPostgres(db)
		territories = territorystore.NewPostgres(db)
		battles = battlestore.NewPostgres(db)
		runner = tx.NewSQLRunner(db)
		log.Info("using postgres stores")
	} else {
		memClubs := clubstore.NewInMemory()
		memTerritories := territorystore.NewInMemory()
		memBattles := battlestore.NewInMemory()
		clubs, territories, battles = memClubs, memTerritories, memBattles
		runner = tx.NewMemoryRunner(memClubs, memTerritories, memBattles, users)
		log.Info("using in-memory stores")
	}

	// Territory locks: redis when configured so multiple replicas serialize,
	// in-process otherwise.
	var locks lock.Manager
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		locks = lock.NewRedis(redisClient.Client, lockTTL, cfg.Retry.Attempts, cfg.Retry.Backoff)
		log.Info("using redis territory locks")
	} else {
		locks = lock.NewInProcess(cfg.Retry.Attempts, cfg.Retry.Backoff)
		log.Info("using in-process territory locks")
	}

	// Battle events: kafka when brokers are configured, discarded otherwise.
	var battlePublisher battleservice.Publisher = publisher.Noop{}
	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := publisher.NewKafkaSink(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return err
		}
		defer sink.Close()
		pub := publisher.New(sink, publisherBuffer, log)
		go func() {
			if err := pub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("battle publisher stopped", "error", err.Error())
			}
		}()
		battlePublisher = pub
		log.Info("publishing battle events", "topic", cfg.Kafka.Topic)
	}

	platformMetrics := metrics.New()

	clubSvc := clubservice.New(clubs, users, runner,
		clubservice.WithLogger(log),
		clubservice.WithMetrics(clubmetrics.New()),
		clubservice.WithRetry(cfg.Retry.Attempts, cfg.Retry.Backoff),
	)
	territorySvc := territoryservice.New(territories, clubs, users, runner, locks,
		territoryservice.WithLogger(log),
		territoryservice.WithMetrics(territorymetrics.New()),
		territoryservice.WithRetry(cfg.Retry.Attempts, cfg.Retry.Backoff),
	)
	resolver, err := battleservice.New(territories, clubs, battles, users, runner, locks,
		battleservice.WithLogger(log),
		battleservice.WithMetrics(battlemetrics.New()),
		battleservice.WithPublisher(battlePublisher),
		battleservice.WithBounds(dice.Bounds{
			AttackerMax: cfg.Battle.AttackerRollMax,
			DefenderMax: cfg.Battle.DefenderRollMax,
		}),
		battleservice.WithRetry(cfg.Retry.Attempts, cfg.Retry.Backoff),
	)
	if err != nil {
		return err
	}
	standings := leaderboard.New(clubs, leaderboardTTL)

	validator := token.NewValidator(cfg.JWTSigningKey)

	if cfg.SeedDemo {
		if err := seed.Demo(ctx, users, territories, validator, log); err != nil {
			return err
		}
	}

	router := httptransport.NewRouter(httptransport.Config{
		Logger:         log,
		Metrics:        platformMetrics,
		TokenValidator: validator,
		RequestTimeout: requestTimeout,
		Handlers: []httptransport.Registrar{
			leaderboardhandler.New(standings, log),
			clubhandler.New(clubSvc, log),
			territoryhandler.New(territorySvc, log),
			battlehandler.New(resolver, log),
		},
	})

	srv := httpserver.New(cfg.Addr, router)
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	log.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

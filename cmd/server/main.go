package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"civictrust/internal/incentive"
	incentivemetrics "civictrust/internal/incentive/metrics"
	"civictrust/internal/jwttoken"
	"civictrust/internal/lifecycle"
	"civictrust/internal/location"
	"civictrust/internal/lottery"
	"civictrust/internal/moderation"
	"civictrust/internal/platform/config"
	"civictrust/internal/platform/httpserver"
	"civictrust/internal/platform/logger"
	"civictrust/internal/platform/postgres"
	platformredis "civictrust/internal/platform/redis"
	"civictrust/internal/report"
	reportmetrics "civictrust/internal/report/metrics"
	httptransport "civictrust/internal/transport/http"
	"civictrust/internal/verification"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal services packages.
func main() {
	log := logger.New()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.PostgresURL)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	stores := buildStores(db)

	bus := lifecycle.NewBus(log)
	publisher := lifecycle.NewPublisher(stores.outbox, bus)

	registry := location.NewRegistry(stores.locations)
	reports := report.NewService(stores.reports, registry, publisher, reportmetrics.New(), log)
	drawer := lottery.NewDrawer(stores.periods, stores.incentives, log)
	ledger := verification.NewLedger(stores.votes, reports, registry, cfg.ConsensusThreshold, log)
	gate := moderation.NewGate(reports, log)
	engine := incentive.NewEngine(stores.incentives, drawer, incentivemetrics.New(), log)

	validator := jwttoken.NewService(cfg.JWTSigningKey, "civictrust")

	handler := httptransport.NewHandler(reports, ledger, gate, engine, drawer, log)
	router := httptransport.NewRouter(handler, httptransport.RouterConfig{
		Validator:         validator,
		Redis:             redisClient,
		SubmitLimitPerDay: cfg.SubmitLimitPerDay,
	})
	srv := httpserver.New(cfg.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)

	// Incentive engine consumes lifecycle events off the bus. Its
	// subscription is reliable: a dropped event would lose a point credit.
	inbox := bus.SubscribeReliable(256)
	group.Go(func() error {
		err := engine.Run(groupCtx, inbox)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	// Relay drains the outbox to the notification channel. Until a real
	// notification transport is wired, delivery is a structured log line.
	relay := lifecycle.NewRelay(stores.outbox, lifecycle.SinkFunc(func(ctx context.Context, event lifecycle.Event) error {
		log.InfoContext(ctx, "lifecycle event relayed",
			"event_type", string(event.Type),
			"report_id", event.ReportID.String(),
		)
		return nil
	}), log)
	group.Go(func() error {
		err := relay.Run(groupCtx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	group.Go(func() error {
		log.Info("starting civictrust engine", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		bus.Close()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

type storeSet struct {
	locations  location.Store
	reports    report.Store
	votes      verification.Store
	incentives incentive.Store
	periods    lottery.Store
	outbox     lifecycle.OutboxStore
}

func buildStores(db *sql.DB) storeSet {
	if db == nil {
		return storeSet{
			locations:  location.NewInMemoryStore(),
			reports:    report.NewInMemoryStore(),
			votes:      verification.NewInMemoryStore(),
			incentives: incentive.NewInMemoryStore(),
			periods:    lottery.NewInMemoryStore(),
			outbox:     lifecycle.NewInMemoryOutbox(),
		}
	}
	return storeSet{
		locations:  location.NewPostgresStore(db),
		reports:    report.NewPostgresStore(db),
		votes:      verification.NewPostgresStore(db),
		incentives: incentive.NewPostgresStore(db),
		periods:    lottery.NewPostgresStore(db),
		outbox:     lifecycle.NewPostgresOutbox(db),
	}
}

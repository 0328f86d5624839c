package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	_ "github.com/lib/pq"

	"supervision/internal/audit"
	auditstore "supervision/internal/audit/store"
	checkinmetrics "supervision/internal/checkin/metrics"
	checkinservice "supervision/internal/checkin/service"
	checkinstore "supervision/internal/checkin/store"
	"supervision/internal/contacts"
	"supervision/internal/media"
	"supervision/internal/notify"
	offendermetrics "supervision/internal/offender/metrics"
	offenderservice "supervision/internal/offender/service"
	offenderstore "supervision/internal/offender/store/offender"
	setupstore "supervision/internal/offender/store/setup"
	"supervision/internal/platform/config"
	"supervision/internal/platform/httpserver"
	"supervision/internal/platform/lock"
	"supervision/internal/platform/logger"
	platformredis "supervision/internal/platform/redis"
	"supervision/internal/sweep"
	httptransport "supervision/internal/transport/http"
	"supervision/internal/verification"
	"supervision/migrations"
	"supervision/pkg/platform/events"
)

// main wires the dependency graph and owns the process lifecycle. Every
// external dependency is resolved at startup so misconfiguration fails fast,
// not on the first request.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app, err := buildApp(ctx, cfg, log)
	if err != nil {
		log.Fatalf("startup: %v", err)
	}
	defer app.close()

	go app.sweeper.Run(ctx)

	srv := httpserver.New(cfg.Addr, app.router)
	go func() {
		log.Printf("supervision service listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("graceful shutdown failed: %v", err)
	}
}

// app bundles everything main needs to run and tear down.
type app struct {
	router  http.Handler
	sweeper *sweep.Runner
	closers []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func buildApp(ctx context.Context, cfg config.Config, log *log.Logger) (*app, error) {
	a := &app{}
	health := map[string]httptransport.HealthCheck{}

	// Persistence. Without a DSN everything runs in memory, which keeps
	// local development and demos free of infrastructure.
	var (
		offenders  offenderservice.OffenderStore
		candidates checkinservice.OffenderSource
		setups     offenderservice.SetupStore
		checkins   checkinservice.CheckinStore
		audits     audit.Store
		storeTx    offenderservice.StoreTx
	)
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = db.Close() })
		health["postgres"] = db.PingContext

		if err := migrations.Apply(ctx, db); err != nil {
			return nil, err
		}

		pgOffenders := offenderstore.NewPostgres(db)
		offenders, candidates = pgOffenders, pgOffenders
		setups = setupstore.NewPostgres(db)
		checkins = checkinstore.NewPostgres(db)
		audits = auditstore.NewPostgres(db)
		storeTx = newPostgresStoreTx(db)
	} else {
		log.Printf("no postgres DSN configured, using in-memory stores")
		memOffenders := offenderstore.NewInMemory()
		offenders, candidates = memOffenders, memOffenders
		setups = setupstore.NewInMemory()
		checkins = checkinstore.NewInMemory()
		audits = auditstore.NewInMemory()
		storeTx = offenderservice.NewInMemoryStoreTx()
	}

	// Distributed locking for the sweeps.
	var locks lock.Provider = lock.NewMemoryProvider()
	if cfg.RedisURL != "" {
		redisClient, err := platformredis.New(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = redisClient.Close() })
		health["redis"] = redisClient.Health
		locks = lock.NewRedisProvider(redisClient.Client)
	} else {
		log.Printf("no redis URL configured, sweep locking is process-local")
	}

	// Domain events.
	var publisher events.Publisher = events.NewMemoryPublisher()
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := events.NewKafkaPublisher(ctx, cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, kafka.Close)
		publisher = kafka
	} else {
		log.Printf("no kafka brokers configured, domain events stay in process")
	}

	// External collaborators, mock-backed when unconfigured.
	var provider contacts.Provider = contacts.MockProvider{Latency: 20 * time.Millisecond}
	if cfg.ContactsEndpoint != "" {
		provider = contacts.NewHTTPProvider(cfg.ContactsEndpoint, log)
	}
	var notifier notify.Notifier = notify.LogNotifier{Log: log}
	if cfg.NotifyEndpoint != "" {
		notifier = notify.NewHTTPNotifier(cfg.NotifyEndpoint, log)
	}
	var storage media.ObjectStorage = media.NewMemory()
	if cfg.MediaEndpoint != "" {
		storage = media.NewHTTPStorage(cfg.MediaEndpoint)
	}
	var comparer verification.Comparer = verification.MockComparer{
		Latency:    50 * time.Millisecond,
		Similarity: 98,
	}
	if cfg.CompareEndpoint != "" {
		comparer = verification.NewHTTPComparer(cfg.CompareEndpoint)
	}

	resilient := verification.NewResilientComparer(comparer, verification.ResilienceConfig{
		MaxAttempts:    cfg.Verification.MaxAttempts,
		InitialBackoff: cfg.Verification.InitialBackoff,
		FailureRate:    cfg.Verification.BreakerFailureRate,
		Window:         cfg.Verification.BreakerWindow,
		Cooldown:       cfg.Verification.BreakerCooldown,
	}, log)
	engine := verification.NewEngine(resilient, cfg.Verification.RequiredConfidence, log)

	recorder := audit.NewRecorder(audits, log)

	setupSvc := offenderservice.New(offenders, setups, storage,
		offenderservice.WithStoreTx(storeTx),
		offenderservice.WithContacts(provider),
		offenderservice.WithRecorder(recorder),
		offenderservice.WithNotifier(notifier),
		offenderservice.WithMetrics(offendermetrics.New()),
		offenderservice.WithLogger(log),
	)
	checkinSvc := checkinservice.New(checkins, candidates, engine, storage,
		checkinservice.WithStoreTx(storeTx),
		checkinservice.WithContacts(provider),
		checkinservice.WithRecorder(recorder),
		checkinservice.WithNotifier(notifier),
		checkinservice.WithPublisher(publisher),
		checkinservice.WithMetrics(checkinmetrics.New()),
		checkinservice.WithLogger(log),
	)

	a.sweeper = sweep.New(checkinSvc, locks, sweep.Config{
		Interval:     cfg.Sweep.Interval,
		Lease:        cfg.Sweep.LeaseDuration,
		CreateAhead:  cfg.Sweep.CreateAhead,
		ReminderLead: cfg.Sweep.ReminderLead,
	}, log)

	a.router = httptransport.NewRouter(
		httptransport.NewSetupHandler(setupSvc),
		httptransport.NewCheckinHandler(checkinSvc),
		httptransport.NewHealthHandler(health),
		log,
	)
	return a, nil
}

package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/NikolajSankovDev/zyron/internal/audit"
	"github.com/NikolajSankovDev/zyron/internal/config"
	dbpkg "github.com/NikolajSankovDev/zyron/internal/db"
	"github.com/NikolajSankovDev/zyron/internal/domain/account"
	domain "github.com/NikolajSankovDev/zyron/internal/domain/appointment"
	"github.com/NikolajSankovDev/zyron/internal/handlers"
	"github.com/NikolajSankovDev/zyron/internal/infra/cache"
	"github.com/NikolajSankovDev/zyron/internal/infra/memory"
	"github.com/NikolajSankovDev/zyron/internal/infra/objectstore"
	"github.com/NikolajSankovDev/zyron/internal/infra/otel"
	infraRepo "github.com/NikolajSankovDev/zyron/internal/infra/repository"
	"github.com/NikolajSankovDev/zyron/internal/jobs"
	"github.com/NikolajSankovDev/zyron/internal/logger"
	"github.com/NikolajSankovDev/zyron/internal/notify"
	"github.com/NikolajSankovDev/zyron/internal/retry"
	"github.com/NikolajSankovDev/zyron/internal/routes"
	"github.com/NikolajSankovDev/zyron/internal/timezone"
	"github.com/NikolajSankovDev/zyron/internal/validators"
)

type storage struct {
	repo     domain.Repository
	accounts account.Repository
	audit    audit.Store
	ping     handlers.Pinger
}

func openStorage(cfg *config.Config) (*storage, error) {
	if cfg.Storage.Driver == "memory" {
		log.Warn().Msg("STORAGE_DRIVER=memory, data is lost on restart")
		store := memory.New()
		return &storage{repo: store, accounts: store, audit: store}, nil
	}

	db, err := dbpkg.NewDB(cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	return &storage{
		repo:     infraRepo.NewAppointmentGormRepository(db),
		accounts: infraRepo.NewAccountGormRepository(db),
		audit:    infraRepo.NewAuditGormRepository(db),
		ping:     sqlDB.PingContext,
	}, nil
}

// senders returns only the channels with credentials configured.
func senders(cfg *config.Config) ([]notify.Sender, func()) {
	n := cfg.Notify
	var out []notify.Sender
	closeFn := func() {}

	if n.SMTPHost != "" {
		out = append(out, notify.NewEmailSender(n.SMTPHost, n.SMTPPort, n.SMTPUser, n.SMTPPassword, n.SMTPFrom))
	}
	if n.TwilioSID != "" {
		out = append(out, notify.NewSMSSender(n.TwilioSID, n.TwilioToken, n.TwilioFrom))
	}
	if brokers := notify.SplitBrokers(n.KafkaBrokers); len(brokers) > 0 {
		k := notify.NewKafkaSender(brokers, n.KafkaTopic)
		out = append(out, k)
		closeFn = func() {
			if err := k.Close(); err != nil {
				log.Error().Err(err).Msg("kafka writer close failed")
			}
		}
	}

	return out, closeFn
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	logger.Init(cfg.Server.LogLevel, cfg.IsProduction())

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := validators.Register(); err != nil {
		log.Fatal().Err(err).Msg("failed to register validators")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc := timezone.Location(cfg.Studio.Timezone)
	tracer := otel.New(cfg)

	store, err := openStorage(cfg)
	if err != nil {
		logger.ErrorWithStack(err)
		log.Fatal().Msg("failed to open storage")
	}

	health := map[string]handlers.Pinger{}
	if store.ping != nil {
		health["database"] = store.ping
	}

	// ------------------------------
	// cache
	// ------------------------------
	availabilityCache := cache.Noop()
	if cfg.Cache.RedisAddr != "" {
		client, err := cache.Connect(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, availability cache disabled")
		} else {
			availabilityCache = cache.NewRedis(client, tracer)
			health["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
			defer client.Close()
		}
	}

	// ------------------------------
	// audit + notifications
	// ------------------------------
	auditLogger := audit.New(store.audit)
	auditDispatcher := audit.NewDispatcher(auditLogger, cfg.Notify.QueueSize)

	var notifier notify.Notifier = notify.Discard{}
	out, closeSenders := senders(cfg)
	var notifyDispatcher *notify.Dispatcher
	if len(out) > 0 {
		notifyDispatcher = notify.NewDispatcher(
			store.repo,
			out,
			retry.DefaultPolicy(cfg.Notify.MaxAttempts),
			loc,
			cfg.Notify.QueueSize,
		)
		notifier = notifyDispatcher
	} else {
		log.Info().Msg("no notification channel configured")
	}

	// ------------------------------
	// reminder job
	// ------------------------------
	scheduler := cron.New(cron.WithLocation(loc))
	reminders := jobs.NewReminders(store.repo, notifier, cfg.Notify.ReminderLead)
	if _, err := reminders.Schedule(scheduler, cfg.Notify.ReminderCron); err != nil {
		log.Fatal().Err(err).Msg("invalid reminder schedule")
	}
	scheduler.Start()

	// ------------------------------
	// HTTP
	// ------------------------------
	var resolver validators.Resolver
	if cfg.IsProduction() {
		resolver = net.DefaultResolver
	}

	r := gin.New()
	r.Use(gin.Recovery())

	routes.RegisterRoutes(r, routes.Deps{
		Repo:     store.repo,
		Accounts: store.accounts,
		Audit:    auditDispatcher,
		AuditLog: auditLogger,
		Notifier: notifier,
		Cache:    availabilityCache,
		Otel:     tracer,
		Objects:  objectstore.New(cfg, tracer),
		Location: loc,
		Resolver: resolver,
		Health:   health,
	}, cfg)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Str("timezone", loc.String()).Msg("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}

	<-scheduler.Stop().Done()

	if notifyDispatcher != nil {
		notifyDispatcher.Close()
	}
	closeSenders()
	auditDispatcher.Close()

	if err := tracer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracer shutdown")
	}
}

package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/mariagarzap/festeja-backend/api/routes"
	"github.com/mariagarzap/festeja-backend/internal/availability"
	"github.com/mariagarzap/festeja-backend/internal/booking"
	"github.com/mariagarzap/festeja-backend/internal/catalog"
	"github.com/mariagarzap/festeja-backend/internal/cron"
	"github.com/mariagarzap/festeja-backend/internal/notifications"
	"github.com/mariagarzap/festeja-backend/internal/stocknotify"
	"github.com/mariagarzap/festeja-backend/pkg/config"
	"github.com/mariagarzap/festeja-backend/pkg/db"
	"github.com/mariagarzap/festeja-backend/pkg/logger"
	"github.com/mariagarzap/festeja-backend/pkg/metrics"
	"github.com/mariagarzap/festeja-backend/pkg/migrate"
	"github.com/mariagarzap/festeja-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	dispatchMetrics := metrics.NewDispatchMetrics(promRegistry)

	gdb := dbClient.DB()
	names := catalog.NewNameResolver(gdb)
	subscriptions := stocknotify.NewRegistry(gdb)
	notificationsRepo := notifications.NewRepository(gdb)

	dispatcher, err := stocknotify.NewDispatcher(stocknotify.DispatcherParams{
		Tx:       availability.GormTxRunner(gdb),
		Registry: subscriptions,
		Sink:     notificationsRepo,
		Logger:   logg,
		Metrics:  dispatchMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create restock dispatcher", err)
		os.Exit(1)
	}

	availabilityService, err := availability.NewService(availability.ServiceParams{
		Tx:       availability.GormTxRunner(gdb),
		Repo:     availability.NewRepository(gdb),
		Ledger:   booking.NewLedger(gdb),
		Names:    names,
		Notifier: dispatcher,
		Logger:   logg,
		Metrics:  dispatchMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create availability service", err)
		os.Exit(1)
	}

	subscriptionService, err := stocknotify.NewService(subscriptions, names)
	if err != nil {
		logg.Error(context.Background(), "failed to create subscription service", err)
		os.Exit(1)
	}

	notificationService, err := notifications.NewService(notificationsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create notification service", err)
		os.Exit(1)
	}

	retentionJob, err := cron.NewNotificationRetentionJob(cron.NotificationRetentionJobParams{
		Logger:     logg,
		Repository: notificationsRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notification retention job", err)
		os.Exit(1)
	}
	maintenanceLock, err := cron.NewRedisLock(redisClient, "festeja:maintenance:lock", 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create maintenance lock", err)
		os.Exit(1)
	}
	maintenance, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(retentionJob),
		Lock:     maintenanceLock,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create maintenance runner", err)
		os.Exit(1)
	}
	go func() {
		if err := maintenance.Run(context.Background()); err != nil && err != context.Canceled {
			logg.Error(context.Background(), "maintenance runner stopped", err)
		}
	}()

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Redis:         redisClient,
			Registry:      promRegistry,
			Availability:  availabilityService,
			Subscriptions: subscriptionService,
			Notifications: notificationService,
			Idempotency:   redisClient,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

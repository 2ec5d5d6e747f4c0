package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/notifications"
	"storefront/internal/server"
	"storefront/internal/services"
	"storefront/pkg/logger"
	"storefront/pkg/metrics"
	"storefront/pkg/rabbitmq"
	"storefront/pkg/ratelimit"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		ServiceName: cfg.App.Name,
		Level:       logger.ParseLevel(cfg.Log.Level),
		Format:      cfg.Log.Format,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "server stopped with error", err)
		os.Exit(1)
	}
}

// application owns every long-lived resource of the process.
type application struct {
	app     *fiber.App
	db      *gorm.DB
	mq      *rabbitmq.Client
	redis   *ratelimit.RedisStore
	mailer  notifications.Mailer
	cfg     *config.Config
	log     *logger.Logger
	metrics *metrics.ServerMetrics
}

// build connects to the database, the optional broker and Redis, and
// assembles the HTTP app.
func build(ctx context.Context, cfg *config.Config, log *logger.Logger) (*application, error) {
	a := &application{cfg: cfg, log: log, metrics: metrics.NewServerMetrics("api")}

	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	a.db = db
	if err := database.Migrate(db); err != nil {
		return nil, multierr.Append(err, a.close())
	}

	var events services.EventPublisher
	if cfg.RabbitMQ.URL != "" {
		mq, err := rabbitmq.NewClient(rabbitmq.Config{
			URL:      cfg.RabbitMQ.URL,
			Exchange: cfg.RabbitMQ.Exchange,
			Prefetch: cfg.RabbitMQ.Prefetch,
		}, log)
		if err != nil {
			return nil, multierr.Append(err, a.close())
		}
		a.mq = mq
		events = mq
	} else {
		log.Warn(ctx, "RABBITMQ_URL not set, events are not published")
	}

	var store ratelimit.Store = ratelimit.NewMemoryStore()
	if cfg.Redis.URL != "" {
		rs, err := ratelimit.NewRedisStore(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, multierr.Append(err, a.close())
		}
		a.redis = rs
		store = rs
	}
	limiter := ratelimit.New(store, "api", cfg.App.RateLimit, cfg.App.RateWindow)

	svc := server.NewServices(db, cfg, server.NewProviders(cfg), events, a.metrics, log)
	if err := svc.Auth.EnsureAdmin(ctx, cfg.Auth.AdminName, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
		return nil, multierr.Append(err, a.close())
	}

	a.mailer = notifications.NewMailer(cfg.SMTP, log)
	a.app = server.NewApp(server.Options{
		Name:        cfg.App.Name,
		CORSOrigins: cfg.App.CORSOrigins,
		AccessLog:   true,
		Ping:        a.ping,
	}, svc, limiter, a.metrics, log)
	return a, nil
}

func (a *application) ping(ctx context.Context) error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// consume runs the notification consumer until ctx is cancelled.
func (a *application) consume(ctx context.Context) {
	if a.mq == nil {
		return
	}
	consumer := notifications.NewConsumer(a.mailer, a.cfg.SMTP.AdminTo, a.log)
	if err := a.mq.Consume(ctx, a.cfg.RabbitMQ.Queue, notifications.BindingKeys, consumer.Handle); err != nil {
		a.log.Error(ctx, "notification consumer stopped", err)
	}
}

func (a *application) close() error {
	var err error
	if a.mq != nil {
		err = multierr.Append(err, a.mq.Close())
	}
	if a.redis != nil {
		err = multierr.Append(err, a.redis.Close())
	}
	if a.db != nil {
		if sqlDB, dbErr := a.db.DB(); dbErr == nil {
			err = multierr.Append(err, sqlDB.Close())
		}
	}
	return err
}

// run serves until ctx is cancelled, then shuts down within the configured
// timeout.
func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	a, err := build(ctx, cfg, log)
	if err != nil {
		return err
	}

	go a.consume(ctx)

	listenErr := make(chan error, 1)
	go func() {
		log.Info(log.WithField(ctx, "addr", cfg.App.Port), "starting server")
		listenErr <- a.app.Listen(cfg.App.Port)
	}()

	select {
	case err = <-listenErr:
	case <-ctx.Done():
		log.Info(context.Background(), "shutting down server")
		err = a.app.ShutdownWithTimeout(cfg.App.ShutdownTimeout)
	}
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	return multierr.Append(err, a.close())
}

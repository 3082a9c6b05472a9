package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/skillsforge/internal/config"
	"github.com/Shivanand-hulikatti/skillsforge/internal/database"
	"github.com/Shivanand-hulikatti/skillsforge/internal/notify"
	"github.com/Shivanand-hulikatti/skillsforge/internal/repository"
	"github.com/Shivanand-hulikatti/skillsforge/internal/telemetry"
)

// app bundles the infrastructure shared by every subcommand.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	table    repository.Table
	notifier *notify.Notifier

	pool    *pgxpool.Pool
	mongoT  *repository.MongoTable
	closers []func(context.Context) error
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	a := &app{
		cfg:    cfg,
		logger: telemetry.NewLogger(cfg.IsProduction(), cfg.LogLevel),
	}
	slog.SetDefault(a.logger)

	if err := a.openStore(ctx); err != nil {
		_ = a.close(ctx)
		return nil, err
	}
	if err := a.openNotifier(ctx); err != nil {
		_ = a.close(ctx)
		return nil, err
	}
	return a, nil
}

func (a *app) openStore(ctx context.Context) error {
	var table repository.Table
	switch a.cfg.Store.Backend {
	case config.StorePostgres:
		pool, err := database.NewPool(ctx, a.cfg.DB, a.logger)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		a.pool = pool
		a.closers = append(a.closers, func(context.Context) error { pool.Close(); return nil })
		table = repository.NewPostgresTable(pool)
	case config.StoreMongo:
		client, err := database.NewMongo(ctx, a.cfg.Mongo)
		if err != nil {
			return fmt.Errorf("mongo: %w", err)
		}
		a.closers = append(a.closers, client.Disconnect)
		a.mongoT = repository.NewMongoTable(client.Database(a.cfg.Mongo.Database).Collection(a.cfg.Mongo.Collection))
		table = a.mongoT
	default:
		a.logger.Warn("using in-memory store; data is lost on exit")
		table = repository.NewMemoryTable()
	}
	a.table = repository.WithTimeout(table, a.cfg.Store.Timeout)
	a.logger.Info("store ready", "backend", a.cfg.Store.Backend)
	return nil
}

func (a *app) openNotifier(ctx context.Context) error {
	var pub notify.Publisher
	switch a.cfg.Notify.Backend {
	case config.NotifyEventBridge:
		eb, err := notify.NewEventBridgePublisher(a.cfg.Notify.AWSRegion, a.cfg.Notify.EventBus)
		if err != nil {
			return fmt.Errorf("eventbridge: %w", err)
		}
		pub = eb
	case config.NotifyRedis:
		client, err := database.NewRedis(ctx, a.cfg.Notify.RedisURL)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		rp := notify.NewRedisPublisher(client, a.cfg.Notify.RedisStream)
		a.closers = append(a.closers, func(context.Context) error { return rp.Close() })
		pub = rp
	default:
		pub = notify.NewLogPublisher(a.logger)
	}
	a.notifier = notify.New(pub, a.logger)
	// Drain in-flight events before the transports are closed.
	a.closers = append(a.closers, a.notifier.Close)
	a.logger.Info("notifier ready", "backend", a.cfg.Notify.Backend)
	return nil
}

// close releases resources in reverse order of acquisition.
func (a *app) close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

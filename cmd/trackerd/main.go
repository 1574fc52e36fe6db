package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"backend-staysafe/internal/config"
	"backend-staysafe/internal/db"
	"backend-staysafe/internal/location"
	"backend-staysafe/internal/metrics"
	"backend-staysafe/internal/server"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
)

var mainDepsProvider = defaultDeps
var mainRunner = realMain

func main() {
	mainRunner(mainDepsProvider())
}

type mainDeps struct {
	loadConfig      func() config.Config
	connectPostgres func(config.Config) (*pgxpool.Pool, error)
	connectRedis    func(config.Config) *redis.Client
	connectSource   func(config.Config) (location.Source, func())
	notify          func(chan<- os.Signal, ...os.Signal)
	run             func(context.Context, config.Config, *pgxpool.Pool, *redis.Client, location.Source, <-chan os.Signal, ListenFunc) error
}

func defaultDeps() mainDeps {
	return mainDeps{
		loadConfig:      config.Load,
		connectPostgres: db.ConnectPostgres,
		connectRedis:    db.ConnectRedis,
		connectSource:   connectSource,
		notify:          signal.Notify,
		run:             Run,
	}
}

// connectSource subscribes to the device fix feed. Without a NATS URL the
// loop runs with no fix source until one is injected.
func connectSource(cfg config.Config) (location.Source, func()) {
	if cfg.NATSURL == "" {
		return nil, func() {}
	}

	nc, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		log.Printf("nats connection failed: %v", err)
		return nil, func() {}
	}

	src, err := location.SubscribeNATS(nc, cfg.DeviceSubject)
	if err != nil {
		log.Printf("device fix subscription failed: %v", err)
		nc.Close()
		return nil, func() {}
	}
	return src, func() {
		src.Close()
		nc.Close()
	}
}

func realMain(deps mainDeps) {
	cfg := deps.loadConfig()

	pg, err := deps.connectPostgres(cfg)
	if err != nil {
		log.Printf("postgres connection failed: %v", err)
	}

	rdb := deps.connectRedis(cfg)

	source, closeSource := deps.connectSource(cfg)
	defer closeSource()

	signals := make(chan os.Signal, 1)
	deps.notify(signals, syscall.SIGINT, syscall.SIGTERM)

	if err := deps.run(context.Background(), cfg, pg, rdb, source, signals, nil); err != nil {
		log.Printf("server exited with error: %v", err)
	}
}

type ListenFunc func(app *fiber.App, addr string) error

var defaultListen ListenFunc = func(app *fiber.App, addr string) error {
	return app.Listen(addr)
}

var shutdownFn = func(app *fiber.App, ctx context.Context) error {
	return app.ShutdownWithContext(ctx)
}

// Run starts the HTTP server and waits for termination signals.
func Run(ctx context.Context, cfg config.Config, pg *pgxpool.Pool, rdb *redis.Client, source location.Source, signals <-chan os.Signal, listen ListenFunc) error {
	var collector *metrics.Collector
	var metricsSrv interface{ Close() error }
	if cfg.MetricsAddr != "" {
		collector = metrics.NewCollector()
		metricsSrv = collector.Serve(cfg.MetricsAddr)
	}

	srv := server.NewServer(cfg, pg, rdb, source, collector)

	if listen == nil {
		listen = defaultListen
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- listen(srv.App, cfg.ServerPort)
	}()

	select {
	case <-signals:
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	srv.Tracker.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := shutdownFn(srv.App, shutdownCtx); err != nil {
		return err
	}
	if metricsSrv != nil {
		_ = metricsSrv.Close()
	}
	if pg != nil {
		pg.Close()
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	return nil
}

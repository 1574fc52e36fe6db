package server

import (
	"time"

	"backend-staysafe/internal/activity"
	"backend-staysafe/internal/auth"
	"backend-staysafe/internal/config"
	"backend-staysafe/internal/location"
	"backend-staysafe/internal/mapstate"
	"backend-staysafe/internal/metrics"
	"backend-staysafe/internal/route"
	"backend-staysafe/internal/store"
	"backend-staysafe/internal/store/postgres"
	"backend-staysafe/internal/store/rest"
	"backend-staysafe/internal/stream"
	"backend-staysafe/internal/tracker"
	"backend-staysafe/internal/trip"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App     *fiber.App
	Cfg     config.Config
	DB      *pgxpool.Pool
	Redis   *redis.Client
	Stream  *stream.Hub
	Store   store.Store
	Tracker *tracker.Tracker
}

// NewServer wires the trip engine behind an HTTP surface. source carries
// device fixes; a nil source means tracking runs without fixes until one is
// injected. collector may be nil to disable instrumentation.
func NewServer(cfg config.Config, pg *pgxpool.Pool, rdb *redis.Client, source location.Source, collector *metrics.Collector) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	if source == nil {
		source = location.NewManager()
	}

	st := newStore(cfg, pg)
	hub := stream.NewHub(rdb)
	engine := route.NewEngine(route.NewOSRMClient(cfg.DirectionsURL))
	views := mapstate.NewRegistry(st, engine)
	events := fanout{hub, views}

	tr := tracker.New(st, source, engine, tracker.NoopPermit{}, events, collector)
	if cfg.TrackingPeriod > 0 {
		tr.Interval = time.Duration(cfg.TrackingPeriod) * time.Second
	}

	s := &Server{
		App:     app,
		Cfg:     cfg,
		DB:      pg,
		Redis:   rdb,
		Stream:  hub,
		Store:   st,
		Tracker: tr,
	}

	registerRoutes(s, engine, source, views, events)
	return s
}

// fanout delivers each published activity change to every sink.
type fanout []interface{ Publish(act activity.Activity) }

func (f fanout) Publish(act activity.Activity) {
	for _, sink := range f {
		sink.Publish(act)
	}
}

// newStore picks the persistence backend: a local database, or the hosted
// activity API when configured (or when no database is available).
func newStore(cfg config.Config, pg *pgxpool.Pool) store.Store {
	if cfg.StoreBackend == "rest" || pg == nil {
		return rest.New(cfg.StoreBaseURL)
	}
	return postgres.New(pg)
}

func registerRoutes(s *Server, engine *route.Engine, source location.Source, views *mapstate.Registry, events fanout) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	planner := trip.NewPlanner(s.Store, engine, source)
	registry := trip.NewRegistry(s.Store, s.Tracker, events)
	trip.NewHandler(planner, registry, s.Tracker, views).RegisterRoutes(s.App.Group("/trips", jwtMiddleware))
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}

package server

import (
	"backend-billtrack/internal/auth"
	"backend-billtrack/internal/billboard"
	"backend-billtrack/internal/config"
	"backend-billtrack/internal/db"
	"backend-billtrack/internal/events"
	"backend-billtrack/internal/geolocation"
	"backend-billtrack/internal/mapview"
	"backend-billtrack/internal/metrics"
	"backend-billtrack/internal/stream"
	"backend-billtrack/internal/tracking"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var dialEventsFn = events.Dial

type Server struct {
	App      *fiber.App
	Cfg      config.Config
	DB       *pgxpool.Pool
	Redis    *redis.Client
	Log      *zap.Logger
	Stream   *stream.Hub
	Tracking *tracking.Manager
	Maps     *mapview.Registry
	Events   *events.Publisher

	billboards *billboard.Service
	sessions   *tracking.Service
}

func NewServer(cfg config.Config, pg *pgxpool.Pool, redisClient *redis.Client, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	q := querier(pg)
	s := &Server{
		App:        app,
		Cfg:        cfg,
		DB:         pg,
		Redis:      redisClient,
		Log:        log,
		Stream:     stream.NewHub(redisClient, log.Named("stream")),
		billboards: billboard.NewService(q),
		sessions:   tracking.NewService(q),
	}

	if cfg.AMQPURL != "" {
		pub, err := dialEventsFn(cfg.AMQPURL, cfg.AMQPExchange, log.Named("events"))
		if err != nil {
			log.Warn("event publisher disabled", zap.Error(err))
		} else {
			s.Events = pub
		}
	}

	s.Maps = mapview.NewRegistry(mapview.RegistryConfig{
		Adapters: []mapview.Adapter{
			&mapview.GoogleAdapter{APIKey: cfg.GoogleMapsAPIKey, Dismiss: cfg.PinDismiss},
			&mapview.LeafletAdapter{Dismiss: cfg.PinDismiss},
		},
		DefaultProvider: defaultProvider(cfg.MapProvider, log),
		Logger:          log.Named("mapview"),
	})

	s.Tracking = tracking.NewManager(tracking.ManagerConfig{
		Thresholds: thresholds(cfg),
		Options:    geolocation.Options{HighAccuracy: true, Timeout: cfg.GeoTimeout},
		Service:    s.sessions,
		Billboards: s.billboards,
		NewWatcher: watcherFactory(cfg, log.Named("geolocation")),
		Listeners:  s.sessionListeners,
		Logger:     log.Named("tracking"),
	})

	registerRoutes(s)
	return s
}

// Shutdown closes every session and the shared fan-out components.
func (s *Server) Shutdown() {
	s.Tracking.Shutdown()
	s.Stream.Shutdown()
	if s.Events != nil {
		s.Events.Shutdown()
	}
}

func (s *Server) sessionListeners(sessionID string) []tracking.Listener {
	listeners := []tracking.Listener{s.Maps.Listener(sessionID), s.Stream}
	if s.Events != nil {
		listeners = append(listeners, s.Events)
	}
	return listeners
}

func (s *Server) snapshot(sessionID string) (any, bool) {
	tr, err := s.Tracking.Get(sessionID)
	if err != nil {
		return nil, false
	}
	return tr.Snapshot(), true
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	s.App.Get("/metrics", metrics.Handler())

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.JWTSecret, querier(s.DB)))
	billboard.RegisterRoutes(s.App.Group("/billboards", jwtMiddleware), s.billboards)

	trackingGroup := s.App.Group("/tracking")
	tracking.RegisterRoutes(trackingGroup, s.Tracking, s.sessions, jwtMiddleware)
	mapview.RegisterRoutes(trackingGroup, s.Maps, jwtMiddleware)

	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream, s.snapshot)
}

// querier keeps a missing pool as a nil interface so services can detect it.
func querier(pg *pgxpool.Pool) db.Querier {
	if pg == nil {
		return nil
	}
	return pg
}

func thresholds(cfg config.Config) tracking.Thresholds {
	return tracking.Thresholds{
		AlertRadiusM:   cfg.AlertRadiusM,
		VisitedRadiusM: cfg.VisitedRadiusM,
		NearbyRadiusM:  cfg.NearbyRadiusM,
		PanelRadiusM:   cfg.PanelRadiusM,
		NearbyLimit:    cfg.NearbyLimit,
		JitterM:        cfg.JitterM,
	}
}

func defaultProvider(name string, log *zap.Logger) mapview.Provider {
	if name == "" {
		return mapview.ProviderLeaflet
	}
	p, err := mapview.ParseProvider(name)
	if err != nil {
		log.Warn("unknown map provider, using leaflet", zap.String("provider", name))
		return mapview.ProviderLeaflet
	}
	return p
}

func watcherFactory(cfg config.Config, log *zap.Logger) func(string) geolocation.Watcher {
	switch cfg.GPSSource {
	case "nmea":
		return func(sessionID string) geolocation.Watcher {
			return geolocation.NewSerialWatcher(cfg.GPSSerialPort, cfg.GPSBaudRate,
				log.With(zap.String("session_id", sessionID)))
		}
	case "mqtt":
		return func(sessionID string) geolocation.Watcher {
			return geolocation.NewMQTTWatcher(cfg.MQTTBroker, "billtrack-"+sessionID,
				cfg.MQTTTopicPrefix+"/"+sessionID, log.With(zap.String("session_id", sessionID)))
		}
	default:
		return func(string) geolocation.Watcher { return geolocation.NewFeed() }
	}
}

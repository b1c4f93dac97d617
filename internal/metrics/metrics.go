package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

var (
	// Sample processing, labelled by outcome: recorded or jitter
	SamplesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "billtrack_samples_total",
		Help: "Position samples processed by tracking sessions",
	}, []string{"outcome"})

	VisitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "billtrack_visits_total",
		Help: "Billboards that entered the visited radius",
	})

	AlertsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "billtrack_alerts_total",
		Help: "One-time proximity alerts raised",
	})

	GeolocationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "billtrack_geolocation_errors_total",
		Help: "Geolocation failures by code",
	}, []string{"code"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "billtrack_active_subscriptions",
		Help: "Position subscriptions currently open",
	})

	StreamClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "billtrack_stream_clients",
		Help: "Websocket clients connected to the event stream",
	})

	// Redis relay of stream events, by result: published, failed or dropped
	StreamRelayed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "billtrack_stream_relayed_total",
		Help: "Stream events relayed to other instances through redis",
	}, []string{"result"})

	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "billtrack_events_published_total",
		Help: "Tracking events published to the message broker, by result",
	}, []string{"result"})
)

// Handler exposes the default registry on a fiber route.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}

package tracking

import (
	"time"

	"backend-billtrack/internal/billboard"
	"backend-billtrack/internal/geolocation"
)

type EventType string

const (
	EventSample     EventType = "sample"
	EventRoutePoint EventType = "route_point"
	EventVisited    EventType = "visited"
	EventAlert      EventType = "alert"
	EventState      EventType = "state"
	EventReset      EventType = "reset"
	EventBillboards EventType = "billboards"
)

// Event is emitted synchronously by a Tracker while it holds its lock, so
// listeners see events in processing order and must not call back into the
// tracker.
type Event struct {
	Type       EventType                   `json:"type"`
	SessionID  string                      `json:"session_id"`
	At         time.Time                   `json:"at"`
	Sample     *geolocation.PositionSample `json:"sample,omitempty"`
	RoutePoint *RoutePoint                 `json:"route_point,omitempty"`
	DeltaM     float64                     `json:"delta_m,omitempty"`
	DistanceM  float64                     `json:"distance_m,omitempty"`
	Billboard  *NearbyBillboard            `json:"billboard,omitempty"`
	Alert      *Alert                      `json:"alert,omitempty"`
	Nearby     []NearbyBillboard           `json:"nearby,omitempty"`
	Panel      []NearbyBillboard           `json:"panel,omitempty"`
	State      State                       `json:"state,omitempty"`
	Error      *ErrorInfo                  `json:"error,omitempty"`
	Billboards []billboard.Billboard       `json:"billboards,omitempty"`
}

type Listener interface {
	HandleEvent(Event)
}

type ListenerFunc func(Event)

func (f ListenerFunc) HandleEvent(e Event) { f(e) }

// Closer is implemented by listeners that hold resources for the lifetime of
// a session.
type Closer interface {
	Close()
}

package mapview

import (
	"errors"
	"sync"

	"backend-billtrack/internal/tracking"

	"go.uber.org/zap"
)

var ErrMapNotFound = errors.New("mapview: no map for session")

type RegistryConfig struct {
	Adapters        []Adapter
	DefaultProvider Provider
	Container       Container
	Logger          *zap.Logger
}

// Registry keeps one Switcher per tracking session.
type Registry struct {
	cfg RegistryConfig
	log *zap.Logger

	mu   sync.RWMutex
	maps map[string]*Switcher
}

func NewRegistry(cfg RegistryConfig) *Registry {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.DefaultProvider == "" {
		cfg.DefaultProvider = ProviderLeaflet
	}
	return &Registry{cfg: cfg, log: log, maps: map[string]*Switcher{}}
}

// Listener creates the session's map and returns the tracking listener that
// keeps it in sync. Closing the listener disposes the map.
func (r *Registry) Listener(sessionID string) tracking.Listener {
	sw := NewSwitcher(r.cfg.Adapters, r.cfg.DefaultProvider, r.cfg.Container,
		r.log.With(zap.String("session_id", sessionID)))
	r.mu.Lock()
	if old, ok := r.maps[sessionID]; ok {
		old.Close()
	}
	r.maps[sessionID] = sw
	r.mu.Unlock()
	return &sessionListener{registry: r, sessionID: sessionID, sw: sw}
}

func (r *Registry) Get(sessionID string) (*Switcher, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sw, ok := r.maps[sessionID]
	if !ok {
		return nil, ErrMapNotFound
	}
	return sw, nil
}

func (r *Registry) remove(sessionID string, sw *Switcher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.maps[sessionID] == sw {
		delete(r.maps, sessionID)
	}
}

// Adapter returns the configured adapter for a provider.
func (r *Registry) Adapter(p Provider) (Adapter, bool) {
	for _, a := range r.cfg.Adapters {
		if a.Provider() == p {
			return a, true
		}
	}
	return nil, false
}

type sessionListener struct {
	registry  *Registry
	sessionID string
	sw        *Switcher
}

func (l *sessionListener) HandleEvent(e tracking.Event) {
	switch e.Type {
	case tracking.EventBillboards:
		l.sw.SetBillboards(e.Billboards)
	case tracking.EventSample:
		if e.Sample != nil {
			l.sw.SetLive(*e.Sample)
		}
	case tracking.EventRoutePoint:
		if e.RoutePoint != nil {
			l.sw.AppendRoute(e.RoutePoint.Coord)
		}
	case tracking.EventVisited:
		if e.Billboard != nil {
			l.sw.MarkVisited(e.Billboard.ID)
		}
	case tracking.EventAlert:
		// an alert opens the billboard's card, so its pin is highlighted
		if e.Alert != nil && e.Alert.OpenCard {
			l.sw.Select(e.Alert.Billboard.ID)
		}
	case tracking.EventReset:
		l.sw.ResetTrack()
	}
}

func (l *sessionListener) Close() {
	l.sw.Close()
	l.registry.remove(l.sessionID, l.sw)
}

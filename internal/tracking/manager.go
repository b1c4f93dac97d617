package tracking

import (
	"context"
	"errors"
	"sync"

	"backend-billtrack/internal/billboard"
	"backend-billtrack/internal/geolocation"

	"go.uber.org/zap"
)

var ErrSessionNotFound = errors.New("tracking: session not found")

// BillboardSource supplies the billboards a new session tracks against.
type BillboardSource interface {
	List(ctx context.Context) ([]billboard.Billboard, error)
}

type ManagerConfig struct {
	Thresholds Thresholds
	Options    geolocation.Options
	Service    *Service
	Billboards BillboardSource
	// NewWatcher returns the position source for a session.
	NewWatcher func(sessionID string) geolocation.Watcher
	// Listeners returns the per-session listeners (stream, map, broker...).
	Listeners func(sessionID string) []Listener
	Logger    *zap.Logger
}

// Manager owns every live tracking session on this instance.
type Manager struct {
	cfg     ManagerConfig
	log     *zap.Logger
	baseCtx context.Context
	cancel  context.CancelFunc

	mu       sync.RWMutex
	trackers map[string]*managed
}

type managed struct {
	tracker *Tracker
	watcher geolocation.Watcher
}

func NewManager(cfg ManagerConfig) *Manager {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.NewWatcher == nil {
		cfg.NewWatcher = func(string) geolocation.Watcher { return geolocation.NewFeed() }
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		cfg:      cfg,
		log:      log,
		baseCtx:  ctx,
		cancel:   cancel,
		trackers: map[string]*managed{},
	}
}

type OpenRequest struct {
	OperatorID string           `json:"operator_id"`
	Filter     billboard.Filter `json:"filter"`
	AlertSound *bool            `json:"alert_sound,omitempty"`
}

// Open creates a session, loads its billboards and starts watching.
func (m *Manager) Open(ctx context.Context, req OpenRequest) (*Tracker, error) {
	session, err := m.cfg.Service.StartSession(ctx, Session{OperatorID: req.OperatorID})
	if err != nil {
		return nil, err
	}

	var all []billboard.Billboard
	if m.cfg.Billboards != nil {
		if all, err = m.cfg.Billboards.List(ctx); err != nil {
			return nil, err
		}
	}

	watcher := m.cfg.NewWatcher(session.ID)
	listeners := []Listener{}
	if m.cfg.Service.Enabled() {
		listeners = append(listeners, NewStore(m.cfg.Service, m.log))
	}
	if m.cfg.Listeners != nil {
		listeners = append(listeners, m.cfg.Listeners(session.ID)...)
	}

	tr := NewTracker(TrackerConfig{
		SessionID:  session.ID,
		Thresholds: m.cfg.Thresholds,
		Watcher:    watcher,
		Options:    m.cfg.Options,
		Logger:     m.log,
		Listeners:  listeners,
	})
	if req.AlertSound != nil {
		tr.SetAlertSound(*req.AlertSound)
	}
	tr.SetBillboards(billboard.Apply(all, req.Filter))

	m.mu.Lock()
	m.trackers[session.ID] = &managed{tracker: tr, watcher: watcher}
	m.mu.Unlock()

	// the watch outlives the request, so it hangs off the manager context
	if err := tr.Start(m.baseCtx, StartOptions{}); err != nil {
		m.log.Warn("tracking start failed", zap.String("session_id", session.ID), zap.Error(err))
	}
	return tr, nil
}

func (m *Manager) Get(id string) (*Tracker, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.trackers[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return entry.tracker, nil
}

// Start restarts tracking for an existing session.
func (m *Manager) Start(id string, opts StartOptions) (*Tracker, error) {
	tr, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	return tr, tr.Start(m.baseCtx, opts)
}

// Filter replaces the session's billboard set with a filtered view of the
// full list.
func (m *Manager) Filter(ctx context.Context, id string, f billboard.Filter) (*Tracker, error) {
	tr, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	var all []billboard.Billboard
	if m.cfg.Billboards != nil {
		if all, err = m.cfg.Billboards.List(ctx); err != nil {
			return nil, err
		}
	}
	tr.SetBillboards(billboard.Apply(all, f))
	return tr, nil
}

// Push relays a client sample to a session fed over HTTP.
func (m *Manager) Push(id string, s geolocation.PositionSample) error {
	feed, err := m.feed(id)
	if err != nil {
		return err
	}
	return feed.Push(s)
}

// Fail relays a client-side geolocation error.
func (m *Manager) Fail(id string, gerr error) error {
	feed, err := m.feed(id)
	if err != nil {
		return err
	}
	return feed.Fail(gerr)
}

var ErrNotPushable = errors.New("tracking: session position source does not accept pushed samples")

func (m *Manager) feed(id string) (*geolocation.Feed, error) {
	m.mu.RLock()
	entry, ok := m.trackers[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	feed, ok := entry.watcher.(*geolocation.Feed)
	if !ok {
		return nil, ErrNotPushable
	}
	return feed, nil
}

// Close tears a session down and forgets it.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	entry, ok := m.trackers[id]
	delete(m.trackers, id)
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	entry.tracker.Close()
	return nil
}

// Shutdown closes every session.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	entries := m.trackers
	m.trackers = map[string]*managed{}
	m.mu.Unlock()

	for _, entry := range entries {
		entry.tracker.Close()
	}
	m.cancel()
}

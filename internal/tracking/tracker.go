package tracking

import (
	"context"
	"errors"
	"sync"
	"time"

	"backend-billtrack/internal/billboard"
	"backend-billtrack/internal/geolocation"
	"backend-billtrack/internal/metrics"

	"go.uber.org/zap"
)

type State string

const (
	StateIdle                 State = "idle"
	StateRequestingPermission State = "requesting_permission"
	StateActive               State = "active"
	StateStopped              State = "stopped"
)

var (
	ErrTrackingUnsupported = errors.New("tracking: geolocation is not supported on this device")
	ErrNotActive           = errors.New("tracking: session is not active")
)

type ErrorInfo struct {
	Code      geolocation.Code `json:"code"`
	Message   string           `json:"message"`
	Transient bool             `json:"transient"`
}

type StartOptions struct {
	// Preserve keeps the route and visited state of the previous run, used by
	// the manual retry after a transient failure.
	Preserve bool
}

type TrackerConfig struct {
	SessionID  string
	Thresholds Thresholds
	Watcher    geolocation.Watcher
	Options    geolocation.Options
	Logger     *zap.Logger
	Listeners  []Listener
}

// Snapshot is a consistent copy of the session state.
type Snapshot struct {
	SessionID  string                      `json:"session_id"`
	State      State                       `json:"state"`
	Error      *ErrorInfo                  `json:"error,omitempty"`
	Live       *geolocation.PositionSample `json:"live,omitempty"`
	Route      []RoutePoint                `json:"route"`
	DistanceM  float64                     `json:"distance_m"`
	PointCount int                         `json:"point_count"`
	Visited    []string                    `json:"visited"`
	Nearby     []NearbyBillboard           `json:"nearby"`
	Panel      []NearbyBillboard           `json:"panel"`
	AlertSound bool                        `json:"alert_sound"`
	Billboards int                         `json:"billboards"`
}

// Tracker is one tracking session. Samples from the watcher and user actions
// are serialized on a single mutex, which plays the role of an event loop:
// no two samples are ever processed concurrently and a user action never
// observes a half-applied sample.
type Tracker struct {
	id        string
	cfg       Thresholds
	watcher   geolocation.Watcher
	opts      geolocation.Options
	log       *zap.Logger
	listeners []Listener

	mu          sync.Mutex
	state       State
	gen         uint64
	sub         geolocation.Subscription
	cancel      context.CancelFunc
	route       *Recorder
	classifier  *Classifier
	billboards  []billboard.Billboard
	sound       bool
	unsupported bool
	live        *geolocation.PositionSample
	nearby      []NearbyBillboard
	panel       []NearbyBillboard
	lastErr     *ErrorInfo
}

func NewTracker(cfg TrackerConfig) *Tracker {
	th := cfg.Thresholds.withDefaults()
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracker{
		id:         cfg.SessionID,
		cfg:        th,
		watcher:    cfg.Watcher,
		opts:       cfg.Options,
		log:        log.With(zap.String("session_id", cfg.SessionID)),
		listeners:  cfg.Listeners,
		state:      StateIdle,
		route:      NewRecorder(th.JitterM),
		classifier: NewClassifier(th),
		sound:      true,
	}
}

func (t *Tracker) ID() string { return t.id }

// Start opens a fresh subscription. Any subscription still open is cancelled
// first. The session becomes active once the first sample arrives.
func (t *Tracker) Start(ctx context.Context, opts StartOptions) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.unsupported || t.watcher == nil {
		return ErrTrackingUnsupported
	}
	t.stopLocked()

	if !opts.Preserve && t.hasProgressLocked() {
		t.resetLocked()
	}
	t.lastErr = nil
	t.setStateLocked(StateRequestingPermission)

	subCtx, cancel := context.WithCancel(ctx)
	sub, err := t.watcher.Watch(subCtx, t.opts)
	if err != nil {
		cancel()
		t.failLocked(err)
		return err
	}
	t.gen++
	t.sub = sub
	t.cancel = cancel
	metrics.ActiveSessions.Inc()
	go t.pump(t.gen, sub)
	return nil
}

// Stop cancels the subscription. Once it returns no further sample is
// processed. Route and visited state are kept.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateActive && t.state != StateRequestingPermission {
		return
	}
	t.stopLocked()
	t.setStateLocked(StateStopped)
}

// Reset clears the route, the distance and the visited and announced sets.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetLocked()
}

// resetLocked clears the session progress and tells listeners to drop
// theirs (drawn route, visited marks, persisted points).
func (t *Tracker) resetLocked() {
	t.route.Reset()
	t.classifier.Reset()
	t.nearby = nil
	t.panel = nil
	t.emitLocked(Event{Type: EventReset, State: t.state})
}

func (t *Tracker) hasProgressLocked() bool {
	return t.route.Count() > 0 || len(t.classifier.Visited()) > 0 || t.nearby != nil || t.panel != nil
}

func (t *Tracker) SetBillboards(list []billboard.Billboard) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.billboards = append([]billboard.Billboard(nil), list...)
	t.emitLocked(Event{Type: EventBillboards, Billboards: t.billboards})
}

func (t *Tracker) Billboards() []billboard.Billboard {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]billboard.Billboard(nil), t.billboards...)
}

func (t *Tracker) SetAlertSound(on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sound = on
}

func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := Snapshot{
		SessionID:  t.id,
		State:      t.state,
		Error:      t.lastErr,
		Route:      t.route.Points(),
		DistanceM:  t.route.DistanceM(),
		PointCount: t.route.Count(),
		Visited:    t.classifier.Visited(),
		Nearby:     append([]NearbyBillboard{}, t.nearby...),
		Panel:      append([]NearbyBillboard{}, t.panel...),
		AlertSound: t.sound,
		Billboards: len(t.billboards),
	}
	if t.live != nil {
		live := *t.live
		snap.Live = &live
	}
	return snap
}

// Close stops tracking and releases listener resources. The tracker must not
// be used afterwards.
func (t *Tracker) Close() {
	t.Stop()
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, l := range t.listeners {
		if c, ok := l.(Closer); ok {
			c.Close()
		}
	}
	t.listeners = nil
}

func (t *Tracker) pump(gen uint64, sub geolocation.Subscription) {
	for {
		select {
		case <-sub.Done():
			return
		case s := <-sub.Samples():
			if !t.handleSample(gen, s) {
				return
			}
		case err := <-sub.Errors():
			// samples queued before the failure still count
		drain:
			for {
				select {
				case s := <-sub.Samples():
					if !t.handleSample(gen, s) {
						return
					}
				default:
					break drain
				}
			}
			t.handleError(gen, err)
			return
		}
	}
}

func (t *Tracker) handleSample(gen uint64, s geolocation.PositionSample) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.gen || (t.state != StateActive && t.state != StateRequestingPermission) {
		return false
	}
	if s.Timestamp.IsZero() {
		s.Timestamp = time.Now().UTC()
	}
	if t.state == StateRequestingPermission {
		t.setStateLocked(StateActive)
	}
	live := s
	t.live = &live

	if p, delta, ok := t.route.Add(s); ok {
		metrics.SamplesTotal.WithLabelValues("recorded").Inc()
		t.emitLocked(Event{Type: EventRoutePoint, RoutePoint: &p, DeltaM: delta, DistanceM: t.route.DistanceM()})
	} else {
		metrics.SamplesTotal.WithLabelValues("jitter").Inc()
	}

	res := t.classifier.Classify(s, t.billboards, t.sound)
	for i := range res.NewlyVisited {
		metrics.VisitsTotal.Inc()
		t.emitLocked(Event{Type: EventVisited, Billboard: &res.NewlyVisited[i]})
	}
	for i := range res.Alerts {
		metrics.AlertsTotal.Inc()
		t.emitLocked(Event{Type: EventAlert, Alert: &res.Alerts[i]})
	}
	t.nearby = res.Nearby
	t.panel = res.Panel

	t.emitLocked(Event{Type: EventSample, Sample: &live, Nearby: res.Nearby, Panel: res.Panel, DistanceM: t.route.DistanceM()})
	return true
}

func (t *Tracker) handleError(gen uint64, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.gen {
		return
	}
	t.stopLocked()
	t.failLocked(err)
}

// failLocked records a geolocation failure and moves to stopped. Route and
// visited state are left untouched.
func (t *Tracker) failLocked(err error) {
	var gerr *geolocation.Error
	if !errors.As(err, &gerr) {
		gerr = &geolocation.Error{Code: geolocation.CodePositionUnavailable, Err: err}
	}
	if gerr.Code == geolocation.CodeUnsupported {
		t.unsupported = true
	}
	t.lastErr = &ErrorInfo{Code: gerr.Code, Message: gerr.Error(), Transient: gerr.Transient()}
	metrics.GeolocationErrors.WithLabelValues(string(gerr.Code)).Inc()
	t.log.Warn("geolocation failure", zap.String("code", string(gerr.Code)), zap.Error(err))
	t.setStateLocked(StateStopped)
}

func (t *Tracker) stopLocked() {
	t.gen++
	if t.sub != nil {
		t.sub.Stop()
		t.sub = nil
		metrics.ActiveSessions.Dec()
	}
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}

func (t *Tracker) setStateLocked(s State) {
	if t.state == s {
		return
	}
	t.state = s
	t.log.Info("tracking state changed", zap.String("state", string(s)))
	t.emitLocked(Event{Type: EventState, State: s, Error: t.lastErr})
}

func (t *Tracker) emitLocked(e Event) {
	e.SessionID = t.id
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	for _, l := range t.listeners {
		l.HandleEvent(e)
	}
}

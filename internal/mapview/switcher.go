package mapview

import (
	"errors"
	"sync"

	"backend-billtrack/internal/billboard"
	"backend-billtrack/internal/geolocation"
	"backend-billtrack/internal/shared/geo"

	"go.uber.org/zap"
)

// Switcher holds one session's map across provider changes. It keeps the
// scene inputs so a newly selected provider is replayed to the same state,
// at the same center and zoom.
type Switcher struct {
	adapters  map[Provider]Adapter
	container Container
	log       *zap.Logger

	mu         sync.Mutex
	provider   Provider
	adapter    Adapter
	handle     *Map
	initErr    error
	view       View
	billboards []billboard.Billboard
	visited    []string
	selected   string
	live       *geolocation.PositionSample
	route      []geo.Coordinate
	closed     bool
}

func NewSwitcher(adapters []Adapter, initial Provider, c Container, log *zap.Logger) *Switcher {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Switcher{
		adapters:  map[Provider]Adapter{},
		container: c,
		log:       log,
	}
	for _, a := range adapters {
		s.adapters[a.Provider()] = a
	}
	if err := s.Switch(initial); err != nil && !errors.Is(err, ErrProviderUnavailable) {
		s.log.Warn("initial map provider", zap.String("provider", string(initial)), zap.Error(err))
	}
	return s
}

// Switch selects a provider. The previous handle is disposed and its view
// carried over. When the new provider cannot initialize, the map stays blank
// until another provider is chosen.
func (s *Switcher) Switch(p Provider) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrProviderUnavailable
	}
	a, ok := s.adapters[p]
	if !ok {
		return ErrUnknownProvider
	}
	if s.handle != nil {
		s.view = s.handle.View()
		s.adapter.Dispose(s.handle)
		s.handle = nil
	}
	s.provider = p
	s.adapter = a
	s.initErr = nil

	h, err := a.Initialize(s.container, s.view)
	if err != nil {
		s.initErr = err
		s.log.Error("map provider failed to initialize", zap.String("provider", string(p)), zap.Error(err))
		return err
	}
	s.handle = h
	s.replayLocked()
	return nil
}

func (s *Switcher) replayLocked() {
	h := s.handle
	if s.view.Zoom == 0 {
		// nothing shown yet, let the markers fit the view
		h.SetMarkers(s.billboards)
	} else {
		h.restoreMarkers(s.billboards)
	}
	h.SetVisited(s.visited)
	h.Select(s.selected)
	h.SetRoute(s.route)
	if s.live != nil {
		h.SetLive(*s.live)
	}
}

func (s *Switcher) Provider() Provider {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.provider
}

// Handle returns the active provider handle, or ErrProviderUnavailable.
func (s *Switcher) Handle() (*Map, Adapter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle == nil {
		if s.initErr != nil {
			return nil, s.adapter, s.initErr
		}
		return nil, s.adapter, ErrProviderUnavailable
	}
	return s.handle, s.adapter, nil
}

func (s *Switcher) Render() (any, error) {
	h, a, err := s.Handle()
	if err != nil {
		return nil, err
	}
	return a.Render(h)
}

func (s *Switcher) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle != nil {
		return s.handle.View()
	}
	return s.view
}

func (s *Switcher) SetView(v View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = v
	if s.handle != nil {
		s.handle.SetView(v)
	}
}

func (s *Switcher) SetBillboards(list []billboard.Billboard) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.billboards = append([]billboard.Billboard(nil), list...)
	if s.handle != nil {
		s.handle.SetMarkers(s.billboards)
	}
}

func (s *Switcher) MarkVisited(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.visited {
		if v == id {
			return
		}
	}
	s.visited = append(s.visited, id)
	if s.handle != nil {
		s.handle.MarkVisited(id)
	}
}

func (s *Switcher) Select(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = id
	if s.handle != nil {
		s.handle.Select(id)
	}
}

func (s *Switcher) SetLive(sample geolocation.PositionSample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live = &sample
	if s.handle != nil {
		s.handle.SetLive(sample)
	}
}

func (s *Switcher) AppendRoute(c geo.Coordinate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.route = append(s.route, c)
	if s.handle != nil {
		s.handle.AppendRoute(c)
	}
}

// ResetTrack clears the route and visited marks after a tracking reset.
func (s *Switcher) ResetTrack() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.route = nil
	s.visited = nil
	s.selected = ""
	if s.handle != nil {
		s.handle.ClearRoute()
		s.handle.SetVisited(nil)
		s.handle.Select("")
	}
}

func (s *Switcher) Reveal(c geo.Coordinate) (Reveal, error) {
	h, _, err := s.Handle()
	if err != nil {
		return Reveal{}, err
	}
	return h.RevealCoordinate(c), nil
}

// Close disposes the active handle.
func (s *Switcher) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.handle != nil {
		s.adapter.Dispose(s.handle)
		s.handle = nil
	}
}

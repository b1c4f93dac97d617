package mapview

import (
	"sort"
	"strings"
	"sync"
	"time"

	"backend-billtrack/internal/billboard"
	"backend-billtrack/internal/geolocation"
	"backend-billtrack/internal/shared/geo"
)

const LiveMarkerID = "live-position"

type Marker struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Size     string           `json:"size"`
	Status   billboard.Status `json:"status"`
	Coord    geo.Coordinate   `json:"coord"`
	Visited  bool             `json:"visited"`
	Selected bool             `json:"selected"`
	Style    MarkerStyle      `json:"style"`
}

// Live is the current-position marker. It keeps one identity for the whole
// session; SetLive moves it rather than replacing it.
type Live struct {
	ID       string         `json:"id"`
	Coord    geo.Coordinate `json:"coord"`
	Rotation float64        `json:"rotation"`
	SpeedKmh *float64       `json:"speed_kmh,omitempty"`
	Tier     SpeedTier      `json:"tier"`
	Color    string         `json:"color"`
	Updates  int            `json:"updates"`
}

type Reveal struct {
	Coord     geo.Coordinate `json:"coord"`
	Label     string         `json:"label"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// Frame is what a provider draws: the visible markers after clustering plus
// the overlays.
type Frame struct {
	Provider Provider         `json:"provider"`
	View     View             `json:"view"`
	Markers  []Marker         `json:"markers"`
	Clusters []Cluster        `json:"clusters"`
	Live     *Live            `json:"live,omitempty"`
	Route    []geo.Coordinate `json:"route"`
	Reveal   *Reveal          `json:"reveal,omitempty"`
}

// Map is a handle returned by Adapter.Initialize. It owns all scene state
// for one provider instance; nothing is shared between handles.
type Map struct {
	provider   Provider
	container  Container
	grid       Grid
	maxFitZoom int
	dismiss    time.Duration

	mu          sync.Mutex
	view        View
	billboards  []billboard.Billboard
	visited     map[string]struct{}
	selected    string
	membership  string
	fitted      bool
	live        *Live
	route       []geo.Coordinate
	reveal      *Reveal
	revealTimer *time.Timer
	revealSeq   uint64
	disposed    bool
}

func newMap(p Provider, c Container, v View, grid Grid, maxFitZoom int, dismiss time.Duration) *Map {
	if dismiss <= 0 {
		dismiss = DefaultPinDismiss
	}
	if v.Zoom == 0 {
		v.Zoom = defaultZoom
	}
	return &Map{
		provider:   p,
		container:  c.withDefaults(),
		grid:       grid,
		maxFitZoom: maxFitZoom,
		dismiss:    dismiss,
		view:       v,
		visited:    map[string]struct{}{},
	}
}

func (m *Map) Provider() Provider { return m.provider }

func membershipKey(list []billboard.Billboard) string {
	ids := make([]string, 0, len(list))
	for _, b := range list {
		ids = append(ids, b.ID)
	}
	sort.Strings(ids)
	return strings.Join(ids, "\x00")
}

// SetMarkers replaces the billboard set. The view is fitted to the markers on
// the first call and whenever the set of ids changes; re-sending the same
// set never moves the map.
func (m *Map) SetMarkers(list []billboard.Billboard) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.billboards = append([]billboard.Billboard(nil), list...)
	key := membershipKey(list)
	if m.fitted && key == m.membership {
		return
	}
	m.membership = key
	coords := make([]geo.Coordinate, 0, len(list))
	for _, b := range list {
		coords = append(coords, b.Coord)
	}
	if len(coords) == 0 {
		return
	}
	m.view = fitView(coords, m.container, m.maxFitZoom, m.view)
	m.fitted = true
}

// restoreMarkers loads markers without fitting; used when a provider switch
// carries the previous view over.
func (m *Map) restoreMarkers(list []billboard.Billboard) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.billboards = append([]billboard.Billboard(nil), list...)
	m.membership = membershipKey(list)
	m.fitted = len(list) > 0
}

func (m *Map) SetVisited(ids []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visited = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m.visited[id] = struct{}{}
	}
}

func (m *Map) MarkVisited(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visited[id] = struct{}{}
}

// Select highlights one billboard; an empty id clears the selection.
func (m *Map) Select(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selected = id
}

func (m *Map) SetLive(s geolocation.PositionSample) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.live == nil {
		m.live = &Live{ID: LiveMarkerID}
	}
	m.live.Coord = s.Coord
	m.live.Rotation = 0
	if s.Heading != nil {
		m.live.Rotation = geo.NormalizeDegrees(*s.Heading)
	}
	m.live.SpeedKmh = nil
	if s.Speed != nil {
		kmh := *s.Speed * 3.6
		m.live.SpeedKmh = &kmh
	}
	m.live.Tier = TierFor(s.Speed)
	m.live.Color = m.live.Tier.Color()
	m.live.Updates++
}

func (m *Map) ClearLive() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.live = nil
}

func (m *Map) SetRoute(route []geo.Coordinate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.route = append([]geo.Coordinate(nil), route...)
}

func (m *Map) AppendRoute(c geo.Coordinate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.route = append(m.route, c)
}

func (m *Map) ClearRoute() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.route = nil
}

// RevealCoordinate drops a temporary pin labelled with the coordinate. It
// disappears after the dismiss delay; a newer reveal replaces it.
func (m *Map) RevealCoordinate(c geo.Coordinate) Reveal {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.revealTimer != nil {
		m.revealTimer.Stop()
		m.revealTimer = nil
	}
	r := Reveal{Coord: c, Label: c.String(), ExpiresAt: time.Now().Add(m.dismiss)}
	if m.disposed {
		return r
	}
	m.revealSeq++
	seq := m.revealSeq
	m.reveal = &r
	m.revealTimer = time.AfterFunc(m.dismiss, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.revealSeq == seq {
			m.reveal = nil
			m.revealTimer = nil
		}
	})
	return r
}

func (m *Map) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view
}

func (m *Map) SetView(v View) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v.Zoom < minZoom {
		v.Zoom = minZoom
	}
	m.view = v
}

// Frame builds the drawable state at the current zoom.
func (m *Map) Frame() Frame {
	m.mu.Lock()
	defer m.mu.Unlock()

	markers := make([]Marker, 0, len(m.billboards))
	for _, b := range m.billboards {
		_, visited := m.visited[b.ID]
		selected := b.ID == m.selected
		markers = append(markers, Marker{
			ID:       b.ID,
			Name:     b.Name,
			Size:     b.Size,
			Status:   b.Status,
			Coord:    b.Coord,
			Visited:  visited,
			Selected: selected,
			Style:    StyleFor(b, visited, selected),
		})
	}
	singles, clusters := m.grid.Apply(markers, m.view.Zoom)

	f := Frame{
		Provider: m.provider,
		View:     m.view,
		Markers:  singles,
		Clusters: clusters,
		Route:    append([]geo.Coordinate{}, m.route...),
	}
	if m.live != nil {
		live := *m.live
		f.Live = &live
	}
	if m.reveal != nil {
		r := *m.reveal
		f.Reveal = &r
	}
	return f
}

func (m *Map) dispose() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.revealTimer != nil {
		m.revealTimer.Stop()
		m.revealTimer = nil
	}
	m.revealSeq++
	m.reveal = nil
	m.disposed = true
}

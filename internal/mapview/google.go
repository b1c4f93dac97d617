package mapview

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode"

	"backend-billtrack/internal/shared/geo"

	"googlemaps.github.io/maps"
)

const staticMapEndpoint = "https://maps.googleapis.com/maps/api/staticmap"

// GoogleAdapter renders option objects shaped like the Maps JavaScript API
// (google.maps.Marker, MarkerClusterer, Polyline, InfoWindow).
type GoogleAdapter struct {
	APIKey  string
	Dismiss time.Duration
}

func (a *GoogleAdapter) Provider() Provider { return ProviderGoogle }

func (a *GoogleAdapter) grid() Grid { return Grid{CellPx: 60, MaxZoom: 15} }

func (a *GoogleAdapter) Initialize(c Container, v View) (*Map, error) {
	if a.APIKey == "" {
		return nil, fmt.Errorf("%w: google maps api key not configured", ErrProviderUnavailable)
	}
	return newMap(ProviderGoogle, c, v, a.grid(), 16, a.Dismiss), nil
}

func (a *GoogleAdapter) Dispose(m *Map) {
	if m != nil {
		m.dispose()
	}
}

type LatLngLiteral struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func literal(c geo.Coordinate) LatLngLiteral { return LatLngLiteral{Lat: c.Lat, Lng: c.Lng} }

type GoogleSymbol struct {
	Path         string  `json:"path"`
	FillColor    string  `json:"fillColor"`
	FillOpacity  float64 `json:"fillOpacity"`
	StrokeColor  string  `json:"strokeColor"`
	StrokeWeight float64 `json:"strokeWeight"`
	Scale        float64 `json:"scale"`
	Rotation     float64 `json:"rotation,omitempty"`
}

type GoogleMarker struct {
	ID       string        `json:"id"`
	Position LatLngLiteral `json:"position"`
	Title    string        `json:"title,omitempty"`
	Icon     GoogleSymbol  `json:"icon"`
	ZIndex   int           `json:"zIndex"`
}

type GoogleCluster struct {
	ID       string        `json:"id"`
	Position LatLngLiteral `json:"position"`
	Label    string        `json:"label"`
	Size     int           `json:"size"`
	Tier     int           `json:"tier"`
	Members  []string      `json:"members"`
}

type GooglePolyline struct {
	Path          []LatLngLiteral `json:"path"`
	EncodedPath   string          `json:"encodedPath"`
	StrokeColor   string          `json:"strokeColor"`
	StrokeOpacity float64         `json:"strokeOpacity"`
	StrokeWeight  int             `json:"strokeWeight"`
}

type GoogleInfoWindow struct {
	Position LatLngLiteral `json:"position"`
	Content  string        `json:"content"`
}

type GoogleScene struct {
	Provider Provider          `json:"provider"`
	Center   LatLngLiteral     `json:"center"`
	Zoom     int               `json:"zoom"`
	Markers  []GoogleMarker    `json:"markers"`
	Clusters []GoogleCluster   `json:"clusters"`
	Live     *GoogleMarker     `json:"live,omitempty"`
	Route    *GooglePolyline   `json:"route,omitempty"`
	Reveal   *GoogleInfoWindow `json:"reveal,omitempty"`
}

const (
	pinPath   = "M 0,0 C -2,-20 -10,-22 -10,-30 A 10,10 0 1,1 10,-30 C 10,-22 2,-20 0,0 z"
	arrowPath = "FORWARD_CLOSED_ARROW"
)

func (a *GoogleAdapter) Render(m *Map) (any, error) {
	if m == nil {
		return nil, ErrProviderUnavailable
	}
	return a.scene(m.Frame()), nil
}

func (a *GoogleAdapter) scene(f Frame) GoogleScene {
	s := GoogleScene{
		Provider: ProviderGoogle,
		Center:   literal(f.View.Center),
		Zoom:     f.View.Zoom,
		Markers:  make([]GoogleMarker, 0, len(f.Markers)),
		Clusters: make([]GoogleCluster, 0, len(f.Clusters)),
	}
	for _, mk := range f.Markers {
		z := 1
		if mk.Selected {
			z = 10
		}
		stroke := mk.Style.Stroke
		weight := 2.0
		if mk.Style.Accent != "" {
			stroke = mk.Style.Accent
			weight = 4
		}
		s.Markers = append(s.Markers, GoogleMarker{
			ID:       mk.ID,
			Position: literal(mk.Coord),
			Title:    mk.Name,
			Icon: GoogleSymbol{
				Path:         pinPath,
				FillColor:    mk.Style.Fill,
				FillOpacity:  0.95,
				StrokeColor:  stroke,
				StrokeWeight: weight,
				Scale:        mk.Style.Scale,
			},
			ZIndex: z,
		})
	}
	for _, c := range f.Clusters {
		s.Clusters = append(s.Clusters, GoogleCluster{
			ID:       c.ID,
			Position: literal(c.Center),
			Label:    fmt.Sprint(c.Count),
			Size:     c.SizePx,
			Tier:     c.Tier,
			Members:  c.Members,
		})
	}
	if f.Live != nil {
		s.Live = &GoogleMarker{
			ID:       f.Live.ID,
			Position: literal(f.Live.Coord),
			Icon: GoogleSymbol{
				Path:         arrowPath,
				FillColor:    f.Live.Color,
				FillOpacity:  1,
				StrokeColor:  "#ffffff",
				StrokeWeight: 2,
				Scale:        6,
				Rotation:     f.Live.Rotation,
			},
			ZIndex: 100,
		}
	}
	if len(f.Route) > 0 {
		path := make([]LatLngLiteral, 0, len(f.Route))
		for _, c := range f.Route {
			path = append(path, literal(c))
		}
		s.Route = &GooglePolyline{
			Path:          path,
			EncodedPath:   maps.Encode(latLngs(f.Route)),
			StrokeColor:   routeColor,
			StrokeOpacity: 0.85,
			StrokeWeight:  4,
		}
	}
	if f.Reveal != nil {
		s.Reveal = &GoogleInfoWindow{Position: literal(f.Reveal.Coord), Content: f.Reveal.Label}
	}
	return s
}

func latLngs(coords []geo.Coordinate) []maps.LatLng {
	out := make([]maps.LatLng, 0, len(coords))
	for _, c := range coords {
		out = append(out, maps.LatLng{Lat: c.Lat, Lng: c.Lng})
	}
	return out
}

// StaticMap describes the current scene as a Static Maps request: billboard
// pins coloured by status, the live position and the route.
func (a *GoogleAdapter) StaticMap(m *Map) *maps.StaticMapRequest {
	f := m.Frame()
	req := &maps.StaticMapRequest{
		Center:  f.View.Center.String(),
		Zoom:    f.View.Zoom,
		Size:    fmt.Sprintf("%dx%d", min(m.container.Width, 640), min(m.container.Height, 640)),
		MapType: maps.RoadMap,
	}
	for _, mk := range f.Markers {
		req.Markers = append(req.Markers, staticMarker(mk))
	}
	for _, c := range f.Clusters {
		req.Markers = append(req.Markers, maps.Marker{
			Color:    "gray",
			Label:    staticLabel(fmt.Sprint(c.Count)),
			Location: []maps.LatLng{{Lat: c.Center.Lat, Lng: c.Center.Lng}},
		})
	}
	if f.Live != nil {
		req.Markers = append(req.Markers, maps.Marker{
			Color:    hexColor(f.Live.Color),
			Size:     string(maps.Mid),
			Location: []maps.LatLng{{Lat: f.Live.Coord.Lat, Lng: f.Live.Coord.Lng}},
		})
	}
	if len(f.Route) > 1 {
		req.Paths = append(req.Paths, maps.Path{
			Color:    hexColor(routeColor),
			Weight:   4,
			Location: latLngs(f.Route),
		})
	}
	return req
}

func staticMarker(mk Marker) maps.Marker {
	size := string(maps.Small)
	if mk.Selected {
		size = string(maps.Mid)
	}
	return maps.Marker{
		Color:    hexColor(mk.Style.Stroke),
		Label:    staticLabel(mk.Name),
		Size:     size,
		Location: []maps.LatLng{{Lat: mk.Coord.Lat, Lng: mk.Coord.Lng}},
	}
}

// staticLabel is the first letter or digit, upper-cased, as Static Maps
// only accepts one [A-Z0-9] character.
func staticLabel(s string) string {
	for _, r := range s {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return strings.ToUpper(string(r))
		}
	}
	return ""
}

func hexColor(c string) string {
	if strings.HasPrefix(c, "#") {
		return "0x" + strings.ToUpper(c[1:])
	}
	return c
}

// StaticURL builds the Static Maps URL for a request, keyed with apiKey.
func StaticURL(req *maps.StaticMapRequest, apiKey string) string {
	q := url.Values{}
	if req.Center != "" {
		q.Set("center", req.Center)
	}
	if req.Zoom > 0 {
		q.Set("zoom", fmt.Sprint(req.Zoom))
	}
	q.Set("size", req.Size)
	if req.MapType != "" {
		q.Set("maptype", string(req.MapType))
	}
	for _, mk := range req.Markers {
		q.Add("markers", mk.String())
	}
	for _, p := range req.Paths {
		q.Add("path", p.String())
	}
	q.Set("key", apiKey)
	return staticMapEndpoint + "?" + q.Encode()
}

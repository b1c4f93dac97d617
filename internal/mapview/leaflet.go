package mapview

import (
	"time"

	"backend-billtrack/internal/shared/geo"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// LeafletAdapter renders the scene as a GeoJSON FeatureCollection that a
// Leaflet client styles through the "kind" property. OSM tiles need no key,
// so it never fails to initialize.
type LeafletAdapter struct {
	Dismiss time.Duration
}

func (a *LeafletAdapter) Provider() Provider { return ProviderLeaflet }

func (a *LeafletAdapter) grid() Grid { return Grid{CellPx: 80, MaxZoom: 17} }

func (a *LeafletAdapter) Initialize(c Container, v View) (*Map, error) {
	return newMap(ProviderLeaflet, c, v, a.grid(), 17, a.Dismiss), nil
}

func (a *LeafletAdapter) Dispose(m *Map) {
	if m != nil {
		m.dispose()
	}
}

func (a *LeafletAdapter) Render(m *Map) (any, error) {
	if m == nil {
		return nil, ErrProviderUnavailable
	}
	return a.collection(m.Frame()), nil
}

func (a *LeafletAdapter) collection(f Frame) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	fc.ExtraMembers = geojson.Properties{
		"provider": string(ProviderLeaflet),
		"view":     f.View,
	}

	pins := make([]geo.Coordinate, 0, len(f.Markers)+len(f.Clusters))
	for _, mk := range f.Markers {
		pins = append(pins, mk.Coord)
	}
	for _, c := range f.Clusters {
		pins = append(pins, c.Center)
	}
	if len(pins) > 0 {
		fc.BBox = geojson.NewBBox(bounds(pins))
	}

	for _, mk := range f.Markers {
		feat := geojson.NewFeature(toPoint(mk.Coord))
		feat.ID = mk.ID
		feat.Properties["kind"] = "billboard"
		feat.Properties["name"] = mk.Name
		feat.Properties["size"] = mk.Size
		feat.Properties["status"] = string(mk.Status)
		feat.Properties["visited"] = mk.Visited
		feat.Properties["selected"] = mk.Selected
		feat.Properties["fill"] = mk.Style.Fill
		feat.Properties["stroke"] = mk.Style.Stroke
		feat.Properties["scale"] = mk.Style.Scale
		if mk.Style.Glow != "" {
			feat.Properties["glow"] = mk.Style.Glow
		}
		if mk.Style.Accent != "" {
			feat.Properties["accent"] = mk.Style.Accent
		}
		fc.Append(feat)
	}

	for _, c := range f.Clusters {
		feat := geojson.NewFeature(toPoint(c.Center))
		feat.ID = c.ID
		feat.Properties["kind"] = "cluster"
		feat.Properties["count"] = c.Count
		feat.Properties["tier"] = c.Tier
		feat.Properties["icon_size"] = c.SizePx
		feat.Properties["members"] = c.Members
		fc.Append(feat)
	}

	if len(f.Route) > 0 {
		line := make(orb.LineString, 0, len(f.Route))
		for _, c := range f.Route {
			line = append(line, toPoint(c))
		}
		feat := geojson.NewFeature(line)
		feat.ID = "route"
		feat.Properties["kind"] = "route"
		feat.Properties["color"] = routeColor
		feat.Properties["weight"] = 4
		fc.Append(feat)
	}

	if f.Live != nil {
		feat := geojson.NewFeature(toPoint(f.Live.Coord))
		feat.ID = f.Live.ID
		feat.Properties["kind"] = "live"
		feat.Properties["rotation"] = f.Live.Rotation
		feat.Properties["tier"] = string(f.Live.Tier)
		feat.Properties["color"] = f.Live.Color
		if f.Live.SpeedKmh != nil {
			feat.Properties["speed_kmh"] = *f.Live.SpeedKmh
		}
		fc.Append(feat)
	}

	if f.Reveal != nil {
		feat := geojson.NewFeature(toPoint(f.Reveal.Coord))
		feat.ID = "reveal"
		feat.Properties["kind"] = "reveal"
		feat.Properties["label"] = f.Reveal.Label
		feat.Properties["color"] = revealColor
		feat.Properties["expires_at"] = f.Reveal.ExpiresAt
		fc.Append(feat)
	}
	return fc
}

func bounds(coords []geo.Coordinate) orb.Bound {
	var b orb.Bound
	for i, c := range coords {
		if i == 0 {
			b = orb.Bound{Min: toPoint(c), Max: toPoint(c)}
			continue
		}
		b = b.Extend(toPoint(c))
	}
	return b
}

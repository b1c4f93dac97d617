// Package mapview keeps a provider-neutral map scene per tracking session
// and renders it for Google Maps or Leaflet.
package mapview

import (
	"math"

	"backend-billtrack/internal/shared/geo"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

const (
	tileSize    = 256
	minZoom     = 2
	fitPadding  = 40
	defaultZoom = 12
)

type View struct {
	Center geo.Coordinate `json:"center"`
	Zoom   int            `json:"zoom"`
}

// Container is the pixel viewport the map is drawn into.
type Container struct {
	ID     string `json:"id"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

func (c Container) withDefaults() Container {
	if c.Width <= 0 {
		c.Width = 800
	}
	if c.Height <= 0 {
		c.Height = 600
	}
	return c
}

func toPoint(c geo.Coordinate) orb.Point { return orb.Point{c.Lng, c.Lat} }

// worldPixel projects a coordinate to web-mercator pixels at zoom 0.
func worldPixel(c geo.Coordinate) orb.Point {
	f := maptile.Fraction(toPoint(c), 0)
	return orb.Point{f[0] * tileSize, f[1] * tileSize}
}

func pixelAt(c geo.Coordinate, zoom int) orb.Point {
	p := worldPixel(c)
	scale := math.Exp2(float64(zoom))
	return orb.Point{p[0] * scale, p[1] * scale}
}

func unprojectWorld(p orb.Point) geo.Coordinate {
	lng := p[0]/tileSize*360 - 180
	n := math.Pi * (1 - 2*p[1]/tileSize)
	lat := math.Atan(math.Sinh(n)) * 180 / math.Pi
	return geo.Coordinate{Lat: lat, Lng: lng}
}

// fitView returns the view that shows every coordinate inside the container,
// capped at maxZoom. An empty set leaves the current view alone.
func fitView(coords []geo.Coordinate, c Container, maxZoom int, current View) View {
	if len(coords) == 0 {
		return current
	}
	c = c.withDefaults()

	var bound orb.Bound
	for i, co := range coords {
		p := worldPixel(co)
		if i == 0 {
			bound = orb.Bound{Min: p, Max: p}
			continue
		}
		bound = bound.Extend(p)
	}

	center := unprojectWorld(bound.Center())
	spanX := bound.Max[0] - bound.Min[0]
	spanY := bound.Max[1] - bound.Min[1]
	if spanX == 0 && spanY == 0 {
		return View{Center: center, Zoom: maxZoom}
	}

	availW := math.Max(float64(c.Width-2*fitPadding), 1)
	availH := math.Max(float64(c.Height-2*fitPadding), 1)
	zoom := math.Inf(1)
	if spanX > 0 {
		zoom = math.Min(zoom, math.Log2(availW/spanX))
	}
	if spanY > 0 {
		zoom = math.Min(zoom, math.Log2(availH/spanY))
	}
	z := int(math.Floor(zoom))
	if z > maxZoom {
		z = maxZoom
	}
	if z < minZoom {
		z = minZoom
	}
	return View{Center: center, Zoom: z}
}

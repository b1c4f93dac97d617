// Package geo holds the coordinate type and the great-circle helpers shared by
// the tracking, billboard and map packages.
package geo

import (
	"math"
	"strconv"
	"strings"
)

// EarthRadiusM is the mean Earth radius used by every distance computation.
const EarthRadiusM = 6371000.0

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether c is a finite coordinate within |lat| <= 90, |lng| <= 180.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lng, 0) {
		return false
	}
	return math.Abs(c.Lat) <= 90 && math.Abs(c.Lng) <= 180
}

func (c Coordinate) String() string {
	return strconv.FormatFloat(c.Lat, 'f', 6, 64) + ", " + strconv.FormatFloat(c.Lng, 'f', 6, 64)
}

// FromPair builds a coordinate from separate lat/lng values. The second return
// is false when the pair is out of range.
func FromPair(lat, lng float64) (Coordinate, bool) {
	c := Coordinate{Lat: lat, Lng: lng}
	if !c.Valid() {
		return Coordinate{}, false
	}
	return c, true
}

// ParseCoordinate parses "lat, lng". Anything malformed or out of range is
// reported as absent.
func ParseCoordinate(s string) (Coordinate, bool) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 2 {
		return Coordinate{}, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Coordinate{}, false
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Coordinate{}, false
	}
	return FromPair(lat, lng)
}

// Distance returns the haversine distance between a and b in meters.
func Distance(a, b Coordinate) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return EarthRadiusM * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	return Distance(Coordinate{Lat: lat1, Lng: lng1}, Coordinate{Lat: lat2, Lng: lng2}) / 1000
}

// Bearing returns the initial bearing from a to b in degrees, clockwise from
// north, normalized to [0, 360).
func Bearing(a, b Coordinate) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	y := math.Sin(dLng) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLng)
	return NormalizeDegrees(toDegrees(math.Atan2(y, x)))
}

// NormalizeDegrees maps any angle into [0, 360).
func NormalizeDegrees(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	return d
}

func toRadians(deg float64) float64 { return deg * math.Pi / 180 }

func toDegrees(rad float64) float64 { return rad * 180 / math.Pi }

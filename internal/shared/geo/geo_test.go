package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaversineKm(t *testing.T) {
	// Jakarta (-6.2, 106.816) to Bandung (-6.9175, 107.6191) ~ 115-120 km
	d := HaversineKm(-6.2, 106.816, -6.9175, 107.6191)
	if d < 100 || d > 140 {
		t.Fatalf("unexpected distance: %v", d)
	}
}

func TestDistanceOneDegreeLatitude(t *testing.T) {
	d := Distance(Coordinate{0, 0}, Coordinate{1, 0})
	assert.InDelta(t, 111195.0, d, 111195.0*0.005)
}

func TestDistanceSymmetricAndZero(t *testing.T) {
	pairs := [][2]Coordinate{
		{{-6.2, 106.816}, {-6.9175, 107.6191}},
		{{89.9, 179.9}, {-89.9, -179.9}},
		{{51.5, -0.12}, {40.71, -74.0}},
		{{0, 179.999}, {0, -179.999}},
	}
	for _, p := range pairs {
		assert.Equal(t, Distance(p[0], p[1]), Distance(p[1], p[0]))
		assert.Zero(t, Distance(p[0], p[0]))
	}
}

func TestParseCoordinateBoundaries(t *testing.T) {
	c, ok := ParseCoordinate("90,180")
	require.True(t, ok)
	assert.Equal(t, Coordinate{Lat: 90, Lng: 180}, c)

	c, ok = ParseCoordinate("  24.7136 , 46.6753 ")
	require.True(t, ok)
	assert.Equal(t, 24.7136, c.Lat)

	for _, s := range []string{"91,0", "0,181", "-90.0001,0", "", "abc", "1,2,3", "12.5", "NaN,0", "1,"} {
		_, ok := ParseCoordinate(s)
		assert.False(t, ok, s)
	}
}

func TestFromPair(t *testing.T) {
	_, ok := FromPair(-90, -180)
	assert.True(t, ok)
	_, ok = FromPair(math.Inf(1), 0)
	assert.False(t, ok)
}

func TestBearingCardinals(t *testing.T) {
	origin := Coordinate{0, 0}
	assert.InDelta(t, 0, Bearing(origin, Coordinate{1, 0}), 1e-9)
	assert.InDelta(t, 90, Bearing(origin, Coordinate{0, 1}), 1e-9)
	assert.InDelta(t, 180, Bearing(origin, Coordinate{-1, 0}), 1e-9)
	assert.InDelta(t, 270, Bearing(origin, Coordinate{0, -1}), 1e-9)
}

func TestNormalizeDegrees(t *testing.T) {
	assert.Equal(t, 350.0, NormalizeDegrees(-10))
	assert.Equal(t, 10.0, NormalizeDegrees(370))
	assert.Equal(t, 0.0, NormalizeDegrees(360))
}

package tracking

import (
	"testing"

	"backend-billtrack/internal/billboard"
	"backend-billtrack/internal/geolocation"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifierVisitedOnce(t *testing.T) {
	c := NewClassifier(DefaultThresholds())
	bb := []billboard.Billboard{{ID: "bb-1", Coord: origin}}

	visits := 0
	for _, m := range []float64{500, 80, 300, 60, 1000, 90} {
		res := c.Classify(sampleAt(north(origin, m)), bb, true)
		visits += len(res.NewlyVisited)
	}
	assert.Equal(t, 1, visits)
	assert.Equal(t, []string{"bb-1"}, c.Visited())
}

func TestClassifierAlertOnce(t *testing.T) {
	c := NewClassifier(DefaultThresholds())
	bb := []billboard.Billboard{{ID: "bb-1", Coord: origin}}

	var alerts []Alert
	for _, m := range []float64{10, 200, 5, 400, 20} {
		res := c.Classify(sampleAt(north(origin, m)), bb, false)
		alerts = append(alerts, res.Alerts...)
	}
	require.Len(t, alerts, 1)
	assert.False(t, alerts[0].Sound)
	assert.True(t, alerts[0].Vibrate)
	assert.True(t, alerts[0].OpenCard)
	assert.True(t, c.Announced("bb-1"))

	c.Reset()
	res := c.Classify(sampleAt(north(origin, 10)), bb, true)
	assert.Len(t, res.Alerts, 1, "reset starts a new announcement cycle")
	assert.True(t, res.Alerts[0].Sound)
}

func TestClassifierNearbyOrderingAndLimit(t *testing.T) {
	cfg := DefaultThresholds()
	cfg.NearbyLimit = 3
	c := NewClassifier(cfg)

	bb := []billboard.Billboard{
		{ID: "far", Coord: north(origin, 1500)},
		{ID: "tie-a", Coord: north(origin, 300)},
		{ID: "out", Coord: north(origin, 2500)},
		{ID: "tie-b", Coord: north(origin, 300)},
		{ID: "close", Coord: north(origin, 50)},
		{ID: "mid", Coord: north(origin, 700)},
	}
	res := c.Classify(sampleAt(origin), bb, true)

	ids := func(list []NearbyBillboard) []string {
		out := []string{}
		for _, nb := range list {
			out = append(out, nb.ID)
		}
		return out
	}
	if diff := cmp.Diff([]string{"close", "tie-a", "tie-b"}, ids(res.Nearby)); diff != "" {
		t.Fatalf("nearby mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"close", "tie-a", "tie-b"}, ids(res.Panel)); diff != "" {
		t.Fatalf("panel mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, c.IsVisited("close"))
	assert.False(t, c.IsVisited("tie-a"))
}

func TestClassifierDirections(t *testing.T) {
	c := NewClassifier(DefaultThresholds())
	bb := []billboard.Billboard{
		{ID: "n", Coord: north(origin, 400)},
		{ID: "e", Coord: east(origin, 600)},
		{ID: "s", Coord: north(origin, -800)},
		{ID: "w", Coord: east(origin, -1000)},
	}

	s := sampleAt(origin)
	s.Heading = geolocation.Float(90)
	res := c.Classify(s, bb, true)
	got := map[string]Direction{}
	for _, nb := range res.Nearby {
		got[nb.ID] = nb.Direction
	}
	assert.Equal(t, map[string]Direction{
		"n": DirectionLeft,
		"e": DirectionAhead,
		"s": DirectionRight,
		"w": DirectionBehind,
	}, got)
}

func TestRelativeDirectionWithoutHeading(t *testing.T) {
	assert.Equal(t, DirectionAhead, RelativeDirection(nil, 180))
	assert.Equal(t, DirectionAhead, RelativeDirection(geolocation.Float(0), 180))
	assert.Equal(t, DirectionBehind, RelativeDirection(geolocation.Float(10), 190))
	assert.Equal(t, DirectionLeft, RelativeDirection(geolocation.Float(350), 260))
}

func TestClassifierEmptyLists(t *testing.T) {
	c := NewClassifier(Thresholds{})
	res := c.Classify(sampleAt(origin), nil, true)
	assert.NotNil(t, res.Nearby)
	assert.NotNil(t, res.Panel)
	assert.Empty(t, res.Alerts)
}

package tracking

import (
	"sort"

	"backend-billtrack/internal/billboard"
	"backend-billtrack/internal/geolocation"
	"backend-billtrack/internal/shared/geo"
)

// Direction is a coarse bearing relative to the direction of travel.
type Direction string

const (
	DirectionAhead  Direction = "ahead"
	DirectionRight  Direction = "right"
	DirectionBehind Direction = "behind"
	DirectionLeft   Direction = "left"
)

type NearbyBillboard struct {
	billboard.Billboard
	DistanceM  float64   `json:"distance_m"`
	BearingDeg float64   `json:"bearing_deg"`
	Direction  Direction `json:"direction"`
}

// Alert is the one-time notification for a billboard inside the alert radius.
type Alert struct {
	Billboard NearbyBillboard `json:"billboard"`
	Sound     bool            `json:"sound"`
	Vibrate   bool            `json:"vibrate"`
	OpenCard  bool            `json:"open_card"`
}

type Classification struct {
	NewlyVisited []NearbyBillboard `json:"newly_visited,omitempty"`
	Alerts       []Alert           `json:"alerts,omitempty"`
	Nearby       []NearbyBillboard `json:"nearby"`
	Panel        []NearbyBillboard `json:"panel"`
}

// Classifier tracks which billboards were visited or announced during a
// session. It is not safe for concurrent use; the Tracker serializes calls.
type Classifier struct {
	cfg          Thresholds
	visited      map[string]struct{}
	visitedOrder []string
	announced    map[string]struct{}
}

func NewClassifier(cfg Thresholds) *Classifier {
	c := &Classifier{cfg: cfg.withDefaults()}
	c.Reset()
	return c
}

func (c *Classifier) Classify(s geolocation.PositionSample, points []billboard.Billboard, sound bool) Classification {
	var out Classification
	var nearby []NearbyBillboard

	for _, b := range points {
		d := geo.Distance(s.Coord, b.Coord)
		if d > c.cfg.NearbyRadiusM && d > c.cfg.VisitedRadiusM {
			continue
		}
		bearing := geo.Bearing(s.Coord, b.Coord)
		nb := NearbyBillboard{
			Billboard:  b,
			DistanceM:  d,
			BearingDeg: bearing,
			Direction:  RelativeDirection(s.Heading, bearing),
		}

		if d <= c.cfg.VisitedRadiusM {
			if _, seen := c.visited[b.ID]; !seen {
				c.visited[b.ID] = struct{}{}
				c.visitedOrder = append(c.visitedOrder, b.ID)
				out.NewlyVisited = append(out.NewlyVisited, nb)
			}
		}
		if d <= c.cfg.AlertRadiusM {
			if _, done := c.announced[b.ID]; !done {
				c.announced[b.ID] = struct{}{}
				out.Alerts = append(out.Alerts, Alert{Billboard: nb, Sound: sound, Vibrate: true, OpenCard: true})
			}
		}
		if d <= c.cfg.NearbyRadiusM {
			nearby = append(nearby, nb)
		}
	}

	sort.SliceStable(nearby, func(i, j int) bool { return nearby[i].DistanceM < nearby[j].DistanceM })
	if len(nearby) > c.cfg.NearbyLimit {
		nearby = nearby[:c.cfg.NearbyLimit]
	}
	out.Nearby = nearby
	out.Panel = []NearbyBillboard{}
	for _, nb := range nearby {
		if nb.DistanceM <= c.cfg.PanelRadiusM {
			out.Panel = append(out.Panel, nb)
		}
	}
	if out.Nearby == nil {
		out.Nearby = []NearbyBillboard{}
	}
	return out
}

// Visited returns visited ids in the order they were first reached.
func (c *Classifier) Visited() []string {
	out := make([]string, len(c.visitedOrder))
	copy(out, c.visitedOrder)
	return out
}

func (c *Classifier) IsVisited(id string) bool {
	_, ok := c.visited[id]
	return ok
}

func (c *Classifier) Announced(id string) bool {
	_, ok := c.announced[id]
	return ok
}

func (c *Classifier) Reset() {
	c.visited = map[string]struct{}{}
	c.visitedOrder = nil
	c.announced = map[string]struct{}{}
}

// RelativeDirection buckets the bearing to a target against the heading.
// Without a heading (nil or 0) everything is ahead.
func RelativeDirection(heading *float64, bearing float64) Direction {
	if heading == nil || *heading == 0 {
		return DirectionAhead
	}
	rel := geo.NormalizeDegrees(bearing - *heading)
	switch {
	case rel < 45 || rel >= 315:
		return DirectionAhead
	case rel < 135:
		return DirectionRight
	case rel < 225:
		return DirectionBehind
	default:
		return DirectionLeft
	}
}

package tracking

import (
	"sync"
	"time"

	"backend-billtrack/internal/geolocation"
	"backend-billtrack/internal/shared/geo"
)

type RoutePoint struct {
	Coord     geo.Coordinate `json:"coord"`
	Timestamp time.Time      `json:"timestamp"`
	Speed     *float64       `json:"speed,omitempty"`
}

// Recorder accumulates the travelled path. Samples closer than the jitter
// threshold to the last recorded point are discarded.
type Recorder struct {
	mu        sync.RWMutex
	jitterM   float64
	points    []RoutePoint
	distanceM float64
}

func NewRecorder(jitterM float64) *Recorder {
	return &Recorder{jitterM: jitterM}
}

// Add records s if it is the first sample or at least the jitter threshold
// away from the last point. It returns the new point and the distance it added.
func (r *Recorder) Add(s geolocation.PositionSample) (RoutePoint, float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := RoutePoint{Coord: s.Coord, Timestamp: s.Timestamp, Speed: s.Speed}
	if len(r.points) == 0 {
		r.points = append(r.points, p)
		return p, 0, true
	}

	delta := geo.Distance(r.points[len(r.points)-1].Coord, s.Coord)
	if delta < r.jitterM {
		return RoutePoint{}, 0, false
	}
	r.points = append(r.points, p)
	r.distanceM += delta
	return p, delta, true
}

func (r *Recorder) Points() []RoutePoint {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RoutePoint, len(r.points))
	copy(out, r.points)
	return out
}

func (r *Recorder) DistanceM() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.distanceM
}

func (r *Recorder) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.points)
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.points = nil
	r.distanceM = 0
}

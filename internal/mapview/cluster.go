package mapview

import (
	"math"

	"backend-billtrack/internal/shared/geo"
)

// Grid clusters markers whose projected pixels share a grid cell. At MaxZoom
// and above every marker is drawn on its own.
type Grid struct {
	CellPx  float64
	MaxZoom int
}

type Cluster struct {
	ID      string         `json:"id"`
	Center  geo.Coordinate `json:"center"`
	Count   int            `json:"count"`
	Tier    int            `json:"tier"`
	SizePx  int            `json:"size_px"`
	Members []string       `json:"members"`
}

type cellKey struct{ x, y int64 }

// Apply splits markers into singles and clusters at the given zoom. Output
// order follows the first member's position in the input.
func (g Grid) Apply(markers []Marker, zoom int) ([]Marker, []Cluster) {
	if g.CellPx <= 0 || zoom >= g.MaxZoom || len(markers) < 2 {
		return markers, nil
	}

	order := []cellKey{}
	cells := map[cellKey][]int{}
	for i, m := range markers {
		p := pixelAt(m.Coord, zoom)
		k := cellKey{int64(math.Floor(p[0] / g.CellPx)), int64(math.Floor(p[1] / g.CellPx))}
		if _, ok := cells[k]; !ok {
			order = append(order, k)
		}
		cells[k] = append(cells[k], i)
	}

	singles := []Marker{}
	clusters := []Cluster{}
	for _, k := range order {
		idx := cells[k]
		if len(idx) == 1 {
			singles = append(singles, markers[idx[0]])
			continue
		}
		var lat, lng float64
		members := make([]string, 0, len(idx))
		for _, i := range idx {
			lat += markers[i].Coord.Lat
			lng += markers[i].Coord.Lng
			members = append(members, markers[i].ID)
		}
		n := float64(len(idx))
		tier := clusterTier(len(idx))
		clusters = append(clusters, Cluster{
			ID:      "cluster-" + members[0],
			Center:  geo.Coordinate{Lat: lat / n, Lng: lng / n},
			Count:   len(idx),
			Tier:    tier,
			SizePx:  40 + 13*(tier-1),
			Members: members,
		})
	}
	return singles, clusters
}

// clusterTier buckets counts by order of magnitude: 1 below 10, 2 below 100,
// then 3.
func clusterTier(count int) int {
	switch {
	case count < 10:
		return 1
	case count < 100:
		return 2
	default:
		return 3
	}
}

package mapview

import (
	"testing"

	"backend-billtrack/internal/billboard"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func markersAt(list []billboard.Billboard) []Marker {
	out := make([]Marker, 0, len(list))
	for _, b := range list {
		out = append(out, Marker{ID: b.ID, Coord: b.Coord})
	}
	return out
}

func TestGridClustersCloseMarkers(t *testing.T) {
	markers := markersAt([]billboard.Billboard{
		{ID: "a", Coord: origin},
		{ID: "far", Coord: north(origin, 5000)},
		{ID: "b", Coord: north(origin, 10)},
	})
	g := Grid{CellPx: 60, MaxZoom: 15}

	singles, clusters := g.Apply(markers, 12)
	require.Len(t, clusters, 1)
	assert.Equal(t, "cluster-a", clusters[0].ID)
	assert.Equal(t, 2, clusters[0].Count)
	assert.Equal(t, 1, clusters[0].Tier)
	if diff := cmp.Diff([]string{"a", "b"}, clusters[0].Members); diff != "" {
		t.Fatalf("members mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, singles, 1)
	assert.Equal(t, "far", singles[0].ID)
}

func TestGridDeclustersAtMaxZoom(t *testing.T) {
	markers := markersAt([]billboard.Billboard{{ID: "a", Coord: origin}, {ID: "b", Coord: north(origin, 10)}})
	singles, clusters := Grid{CellPx: 80, MaxZoom: 17}.Apply(markers, 17)
	assert.Empty(t, clusters)
	assert.Len(t, singles, 2)
}

func TestClusterTier(t *testing.T) {
	assert.Equal(t, 1, clusterTier(9))
	assert.Equal(t, 2, clusterTier(10))
	assert.Equal(t, 2, clusterTier(99))
	assert.Equal(t, 3, clusterTier(100))
}

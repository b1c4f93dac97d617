package billboard

import "backend-billtrack/internal/shared/geo"

type Status string

const (
	StatusAvailable   Status = "available"
	StatusReserved    Status = "reserved"
	StatusUnavailable Status = "unavailable"
)

// Billboard is the normalized point of interest every tracking and map
// component consumes. Raw rows never leave this package.
type Billboard struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Size   string         `json:"size"`
	Status Status         `json:"status"`
	Coord  geo.Coordinate `json:"coord"`
}

// Record is a raw billboard row as it arrives from the database or an import
// file, with whatever field names the source happened to use.
type Record map[string]any

type Filter struct {
	IDs      []string `json:"ids"`
	Sizes    []string `json:"sizes"`
	Statuses []Status `json:"statuses"`
}

type Nearby struct {
	Billboard
	DistanceM float64 `json:"distance_m"`
}

package billboard

import (
	"strconv"
	"strings"

	"backend-billtrack/internal/shared/geo"
)

var (
	idKeys     = []string{"id", "ID", "billboard_id", "Billboard_ID"}
	nameKeys   = []string{"name", "Name", "billboard_name", "Billboard_Name"}
	sizeKeys   = []string{"size", "Size"}
	statusKeys = []string{"status", "Status", "availability", "contract_status"}
	coordKeys  = []string{"coordinates", "GPS_Coordinates", "gps_coordinates"}
	pairKeys   = [][2]string{{"lat", "lng"}, {"latitude", "longitude"}, {"Latitude", "Longitude"}, {"lat", "lon"}}
)

// Normalize turns a raw record into a Billboard. Records without an id or
// without a usable coordinate are rejected.
func Normalize(r Record) (Billboard, bool) {
	id := firstString(r, idKeys)
	if id == "" {
		return Billboard{}, false
	}
	coord, ok := recordCoordinate(r)
	if !ok {
		return Billboard{}, false
	}
	return Billboard{
		ID:     id,
		Name:   firstString(r, nameKeys),
		Size:   strings.TrimSpace(firstString(r, sizeKeys)),
		Status: NormalizeStatus(firstString(r, statusKeys)),
		Coord:  coord,
	}, true
}

// NormalizeAll keeps the input order and silently drops unusable records.
func NormalizeAll(records []Record) []Billboard {
	out := make([]Billboard, 0, len(records))
	for _, r := range records {
		if b, ok := Normalize(r); ok {
			out = append(out, b)
		}
	}
	return out
}

func NormalizeStatus(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "reserved", "booked", "rented", "محجوز":
		return StatusReserved
	case "unavailable", "maintenance", "removed", "غير متاح":
		return StatusUnavailable
	default:
		return StatusAvailable
	}
}

func recordCoordinate(r Record) (geo.Coordinate, bool) {
	for _, k := range coordKeys {
		if s, ok := r[k].(string); ok && s != "" {
			if c, ok := geo.ParseCoordinate(s); ok {
				return c, true
			}
		}
	}
	for _, p := range pairKeys {
		lat, okLat := number(r[p[0]])
		lng, okLng := number(r[p[1]])
		if okLat && okLng {
			if c, ok := geo.FromPair(lat, lng); ok {
				return c, true
			}
		}
	}
	return geo.Coordinate{}, false
}

func firstString(r Record, keys []string) string {
	for _, k := range keys {
		switch v := r[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			return strconv.Itoa(v)
		case int64:
			return strconv.FormatInt(v, 10)
		}
	}
	return ""
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

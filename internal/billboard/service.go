package billboard

import (
	"context"
	"sort"

	"backend-billtrack/internal/db"
	"backend-billtrack/internal/shared/geo"
)

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

// List loads every billboard with a usable coordinate.
func (s *Service) List(ctx context.Context) ([]Billboard, error) {
	if s.db == nil {
		return nil, nil
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, COALESCE(name,''), COALESCE(size,''), COALESCE(status,''),
		       COALESCE(coordinates,''), COALESCE(latitude::text,''), COALESCE(longitude::text,'')
		FROM billboards
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var id, name, size, status, coords, lat, lng string
		if err := rows.Scan(&id, &name, &size, &status, &coords, &lat, &lng); err != nil {
			return nil, err
		}
		records = append(records, Record{
			"id":          id,
			"name":        name,
			"size":        size,
			"status":      status,
			"coordinates": coords,
			"latitude":    lat,
			"longitude":   lng,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return NormalizeAll(records), nil
}

// Nearby returns billboards within radiusM of center, closest first.
func (s *Service) Nearby(ctx context.Context, center geo.Coordinate, radiusM float64) ([]Nearby, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return WithinRadius(all, center, radiusM), nil
}

func WithinRadius(all []Billboard, center geo.Coordinate, radiusM float64) []Nearby {
	out := []Nearby{}
	for _, b := range all {
		d := geo.Distance(center, b.Coord)
		if d <= radiusM {
			out = append(out, Nearby{Billboard: b, DistanceM: d})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceM < out[j].DistanceM })
	return out
}

// Apply narrows a billboard set. Empty filter fields match everything.
func Apply(all []Billboard, f Filter) []Billboard {
	ids := toSet(f.IDs)
	sizes := toSet(f.Sizes)
	statuses := map[Status]struct{}{}
	for _, st := range f.Statuses {
		statuses[NormalizeStatus(string(st))] = struct{}{}
	}

	out := make([]Billboard, 0, len(all))
	for _, b := range all {
		if len(ids) > 0 {
			if _, ok := ids[b.ID]; !ok {
				continue
			}
		}
		if len(sizes) > 0 {
			if _, ok := sizes[b.Size]; !ok {
				continue
			}
		}
		if len(statuses) > 0 {
			if _, ok := statuses[b.Status]; !ok {
				continue
			}
		}
		out = append(out, b)
	}
	return out
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

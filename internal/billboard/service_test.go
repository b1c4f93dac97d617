package billboard

import (
	"context"
	"errors"
	"testing"

	"backend-billtrack/internal/shared/geo"

	"github.com/pashagolub/pgxmock/v3"
)

var billboardColumns = []string{"id", "name", "size", "status", "coordinates", "latitude", "longitude"}

func TestListNormalizesRows(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT id, COALESCE\(name,''\)`).
		WillReturnRows(pgxmock.NewRows(billboardColumns).
			AddRow("bb-1", "North", "4x12", "available", "24.70, 46.60", "", "").
			AddRow("bb-2", "South", "3x4", "reserved", "", "24.71", "46.61").
			AddRow("bb-3", "Broken", "3x4", "", "not a coordinate", "", ""))

	svc := NewService(mock)
	all, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected malformed row to be dropped, got %d", len(all))
	}
	if all[1].Status != StatusReserved || all[1].Coord.Lng != 46.61 {
		t.Fatalf("unexpected second billboard: %+v", all[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListQueryError(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT id`).WillReturnError(errBillboard)

	if _, err := NewService(mock).List(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestListWithoutDatabase(t *testing.T) {
	all, err := NewService(nil).List(context.Background())
	if err != nil || all != nil {
		t.Fatalf("expected empty result without database")
	}
}

func TestNearbySortsByDistance(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT id`).
		WillReturnRows(pgxmock.NewRows(billboardColumns).
			AddRow("far", "", "", "", "0.01, 0", "", "").
			AddRow("near", "", "", "", "0.001, 0", "", "").
			AddRow("out", "", "", "", "1, 0", "", ""))

	results, err := NewService(mock).Nearby(context.Background(), geo.Coordinate{}, 2000)
	if err != nil {
		t.Fatalf("nearby: %v", err)
	}
	if len(results) != 2 || results[0].ID != "near" || results[1].ID != "far" {
		t.Fatalf("unexpected results: %+v", results)
	}
}

var errBillboard = errors.New("billboard error")

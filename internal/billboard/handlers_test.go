package billboard

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/pashagolub/pgxmock/v3"
)

func TestBillboardHandlers(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT id`).
		WillReturnRows(pgxmock.NewRows(billboardColumns).AddRow("bb-1", "North", "4x12", "available", "24.70, 46.60", "", ""))
	mock.ExpectQuery(`SELECT id`).
		WillReturnRows(pgxmock.NewRows(billboardColumns).AddRow("bb-1", "North", "4x12", "available", "24.70, 46.60", "", ""))

	app := fiber.New()
	RegisterRoutes(app.Group("/billboards"), NewService(mock))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/billboards/", nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("list status: %v", err)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/billboards/nearby?lat=24.70&lng=46.60&radius_m=100", nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("nearby status: %v", err)
	}
}

func TestBillboardHandlersNearbyBadRequest(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/billboards"), NewService(nil))

	for _, target := range []string{
		"/billboards/nearby",
		"/billboards/nearby?lat=91&lng=0",
		"/billboards/nearby?lat=1&lng=1&radius_m=-5",
	} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
		if err != nil || resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: expected bad request", target)
		}
	}
}

func TestBillboardHandlersListError(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()
	mock.ExpectQuery(`SELECT id`).WillReturnError(errBillboard)

	app := fiber.New()
	RegisterRoutes(app.Group("/billboards"), NewService(mock))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/billboards/", nil))
	if err != nil || resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected error status")
	}
}

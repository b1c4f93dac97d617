package billboard

import (
	"strconv"

	"backend-billtrack/internal/shared/geo"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service) {
	r.Get("/", func(c *fiber.Ctx) error {
		all, err := svc.List(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if all == nil {
			all = []Billboard{}
		}
		return c.JSON(all)
	})

	r.Get("/nearby", func(c *fiber.Ctx) error {
		lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
		lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
		if errLat != nil || errLng != nil {
			return fiber.NewError(fiber.StatusBadRequest, "lat and lng required")
		}
		center, ok := geo.FromPair(lat, lng)
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, "coordinate out of range")
		}
		radius, err := strconv.ParseFloat(c.Query("radius_m", "2000"), 64)
		if err != nil || radius <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "radius_m must be positive")
		}

		results, err := svc.Nearby(c.Context(), center, radius)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(results)
	})
}

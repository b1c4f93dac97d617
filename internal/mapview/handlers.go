package mapview

import (
	"errors"

	"backend-billtrack/internal/shared/geo"

	"github.com/gofiber/fiber/v2"
)

type providerRequest struct {
	Provider string `json:"provider"`
}

type coordRequest struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

type selectRequest struct {
	ID string `json:"id"`
}

type mapResponse struct {
	Provider Provider `json:"provider"`
	View     View     `json:"view"`
	Scene    any      `json:"scene"`
}

func RegisterRoutes(r fiber.Router, reg *Registry, authMiddleware fiber.Handler) {
	r.Get("/sessions/:id/map", authMiddleware, func(c *fiber.Ctx) error {
		sw, err := reg.Get(c.Params("id"))
		if err != nil {
			return statusError(err)
		}
		scene, err := sw.Render()
		if err != nil {
			return statusError(err)
		}
		return c.JSON(mapResponse{Provider: sw.Provider(), View: sw.View(), Scene: scene})
	})

	r.Put("/sessions/:id/map/provider", authMiddleware, func(c *fiber.Ctx) error {
		var req providerRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		p, err := ParseProvider(req.Provider)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		sw, err := reg.Get(c.Params("id"))
		if err != nil {
			return statusError(err)
		}
		if err := sw.Switch(p); err != nil {
			return statusError(err)
		}
		return c.JSON(mapResponse{Provider: sw.Provider(), View: sw.View()})
	})

	r.Put("/sessions/:id/map/view", authMiddleware, func(c *fiber.Ctx) error {
		var v View
		if err := c.BodyParser(&v); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if !v.Center.Valid() {
			return fiber.NewError(fiber.StatusBadRequest, "invalid center")
		}
		sw, err := reg.Get(c.Params("id"))
		if err != nil {
			return statusError(err)
		}
		sw.SetView(v)
		return c.JSON(sw.View())
	})

	r.Put("/sessions/:id/map/selected", authMiddleware, func(c *fiber.Ctx) error {
		var req selectRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		sw, err := reg.Get(c.Params("id"))
		if err != nil {
			return statusError(err)
		}
		sw.Select(req.ID)
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/sessions/:id/map/reveal", authMiddleware, func(c *fiber.Ctx) error {
		var req coordRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.Lat == nil || req.Lng == nil {
			return fiber.NewError(fiber.StatusBadRequest, "lat and lng required")
		}
		coord, ok := geo.FromPair(*req.Lat, *req.Lng)
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, "coordinate out of range")
		}
		sw, err := reg.Get(c.Params("id"))
		if err != nil {
			return statusError(err)
		}
		reveal, err := sw.Reveal(coord)
		if err != nil {
			return statusError(err)
		}
		return c.JSON(reveal)
	})

	r.Get("/sessions/:id/map/snapshot", authMiddleware, func(c *fiber.Ctx) error {
		sw, err := reg.Get(c.Params("id"))
		if err != nil {
			return statusError(err)
		}
		h, a, err := sw.Handle()
		if err != nil {
			return statusError(err)
		}
		g, ok := a.(*GoogleAdapter)
		if !ok {
			return fiber.NewError(fiber.StatusConflict, "snapshots need the google provider")
		}
		req := g.StaticMap(h)
		return c.JSON(fiber.Map{"url": StaticURL(req, g.APIKey), "request": req})
	})
}

func statusError(err error) error {
	switch {
	case errors.Is(err, ErrMapNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrProviderUnavailable):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	case errors.Is(err, ErrUnknownProvider):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}

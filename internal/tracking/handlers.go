package tracking

import (
	"errors"
	"time"

	"backend-billtrack/internal/auth"
	"backend-billtrack/internal/billboard"
	"backend-billtrack/internal/geolocation"
	"backend-billtrack/internal/shared/geo"

	"github.com/gofiber/fiber/v2"
)

type sampleRequest struct {
	Lat       *float64  `json:"lat"`
	Lng       *float64  `json:"lng"`
	Heading   *float64  `json:"heading"`
	Speed     *float64  `json:"speed"`
	Accuracy  *float64  `json:"accuracy"`
	Timestamp time.Time `json:"timestamp"`
}

type errorRequest struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type soundRequest struct {
	Enabled bool `json:"enabled"`
}

func RegisterRoutes(r fiber.Router, mgr *Manager, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/sessions", authMiddleware, func(c *fiber.Ctx) error {
		var req OpenRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
		}
		if op := auth.OperatorID(c); op != "" {
			req.OperatorID = op
		}
		if req.OperatorID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "operator_id required")
		}
		tr, err := mgr.Open(c.Context(), req)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(tr.Snapshot())
	})

	r.Get("/sessions/:id", authMiddleware, func(c *fiber.Ctx) error {
		tr, err := mgr.Get(c.Params("id"))
		if err != nil {
			return statusError(err)
		}
		return c.JSON(tr.Snapshot())
	})

	r.Post("/sessions/:id/samples", authMiddleware, func(c *fiber.Ctx) error {
		var req sampleRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.Lat == nil || req.Lng == nil {
			return fiber.NewError(fiber.StatusBadRequest, "lat and lng required")
		}
		sample := geolocation.PositionSample{
			Coord:     geo.Coordinate{Lat: *req.Lat, Lng: *req.Lng},
			Heading:   req.Heading,
			Speed:     req.Speed,
			Accuracy:  req.Accuracy,
			Timestamp: req.Timestamp,
		}
		if err := mgr.Push(c.Params("id"), sample); err != nil {
			return statusError(err)
		}
		return c.SendStatus(fiber.StatusAccepted)
	})

	r.Post("/sessions/:id/errors", authMiddleware, func(c *fiber.Ctx) error {
		var req errorRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		gerr := geolocation.ParseCode(req.Code)
		var reported error = gerr
		if req.Message != "" {
			reported = &geolocation.Error{Code: gerr.Code, Err: errors.New(req.Message)}
		}
		if err := mgr.Fail(c.Params("id"), reported); err != nil {
			return statusError(err)
		}
		return c.SendStatus(fiber.StatusAccepted)
	})

	r.Post("/sessions/:id/start", authMiddleware, func(c *fiber.Ctx) error {
		opts := StartOptions{Preserve: c.QueryBool("preserve")}
		tr, err := mgr.Start(c.Params("id"), opts)
		if err != nil {
			return statusError(err)
		}
		return c.JSON(tr.Snapshot())
	})

	r.Post("/sessions/:id/stop", authMiddleware, func(c *fiber.Ctx) error {
		tr, err := mgr.Get(c.Params("id"))
		if err != nil {
			return statusError(err)
		}
		tr.Stop()
		return c.JSON(tr.Snapshot())
	})

	r.Post("/sessions/:id/reset", authMiddleware, func(c *fiber.Ctx) error {
		tr, err := mgr.Get(c.Params("id"))
		if err != nil {
			return statusError(err)
		}
		tr.Reset()
		return c.JSON(tr.Snapshot())
	})

	r.Delete("/sessions/:id", authMiddleware, func(c *fiber.Ctx) error {
		if err := mgr.Close(c.Params("id")); err != nil {
			return statusError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Put("/sessions/:id/filter", authMiddleware, func(c *fiber.Ctx) error {
		var f billboard.Filter
		if err := c.BodyParser(&f); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		tr, err := mgr.Filter(c.Context(), c.Params("id"), f)
		if err != nil {
			return statusError(err)
		}
		return c.JSON(tr.Snapshot())
	})

	r.Put("/sessions/:id/sound", authMiddleware, func(c *fiber.Ctx) error {
		var req soundRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		tr, err := mgr.Get(c.Params("id"))
		if err != nil {
			return statusError(err)
		}
		tr.SetAlertSound(req.Enabled)
		return c.JSON(tr.Snapshot())
	})

	r.Get("/sessions/:id/summary", authMiddleware, func(c *fiber.Ctx) error {
		if !svc.Enabled() {
			tr, err := mgr.Get(c.Params("id"))
			if err != nil {
				return statusError(err)
			}
			return c.JSON(liveSummary(tr.Snapshot()))
		}
		summary, err := svc.Summary(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(summary)
	})

	r.Get("/sessions/:id/points", authMiddleware, func(c *fiber.Ctx) error {
		if !svc.Enabled() {
			tr, err := mgr.Get(c.Params("id"))
			if err != nil {
				return statusError(err)
			}
			return c.JSON(tr.Snapshot().Route)
		}
		points, err := svc.Points(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(points)
	})
}

// liveSummary builds a summary from in-memory state when nothing is stored.
func liveSummary(s Snapshot) Summary {
	sum := Summary{
		SessionID:  s.SessionID,
		PointCount: s.PointCount,
		VisitCount: len(s.Visited),
		DistanceM:  s.DistanceM,
	}
	if n := len(s.Route); n > 1 {
		d := s.Route[n-1].Timestamp.Sub(s.Route[0].Timestamp)
		sum.DurationSec = int64(d.Seconds())
		if d > 0 {
			sum.AverageSpeedM = s.DistanceM / d.Seconds()
		}
	}
	return sum
}

func statusError(err error) error {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotPushable), errors.Is(err, geolocation.ErrNotWatching), errors.Is(err, ErrTrackingUnsupported):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, geolocation.ErrInvalidSample):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}

package httpapi

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/i474232898/weather-dashboard/internal/dashboard"
	"github.com/i474232898/weather-dashboard/internal/store"
)

var validate = validator.New()

const refreshTimeout = 30 * time.Second

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, orch *dashboard.Orchestrator) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-dashboard",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	v1 := app.Group("/api/v1")

	v1.Get("/dashboard", func(c *fiber.Ctx) error {
		return c.JSON(orch.View())
	})

	v1.Get("/locations", func(c *fiber.Ctx) error {
		q := c.Query("q")
		if q == "" {
			return c.JSON(fiber.Map{"locations": orch.Locations()})
		}
		return c.JSON(fiber.Map{"query": q, "locations": orch.Search(q)})
	})

	v1.Put("/location", func(c *fiber.Ctx) error {
		var req selectLocationRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), refreshTimeout)
		defer cancel()

		outcome, err := orch.SelectLocation(ctx, req.ID)
		if errors.Is(err, dashboard.ErrUnknownLocation) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		// A failed refresh still switched the location; the view carries the status.
		return c.JSON(fiber.Map{"outcome": outcome, "dashboard": orch.View()})
	})

	v1.Post("/refresh", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), refreshTimeout)
		defer cancel()

		outcome, err := orch.Refresh(ctx, true)
		if err != nil {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error":   true,
				"outcome": outcome,
				"message": orch.View().Status,
			})
		}
		return c.JSON(fiber.Map{"outcome": outcome, "dashboard": orch.View()})
	})

	v1.Get("/history", func(c *fiber.Ctx) error {
		limit, err := parseLimit(c.Query("limit"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(fiber.Map{
			"location": orch.Active().ID,
			"history":  orch.History(limit),
		})
	})

	v1.Get("/history/export", func(c *fiber.Ctx) error {
		var buf bytes.Buffer
		name, err := orch.ExportCSV(&buf)
		if errors.Is(err, store.ErrEmptyHistory) {
			return c.SendStatus(fiber.StatusNoContent)
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to export history")
		}

		c.Attachment(name)
		c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
		return c.Send(buf.Bytes())
	})
}

type selectLocationRequest struct {
	ID string `json:"id" validate:"required"`
}

// parseLimit parses the optional history row limit; empty means all rows.
func parseLimit(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errors.New("limit must be a non-negative integer")
	}
	return n, nil
}

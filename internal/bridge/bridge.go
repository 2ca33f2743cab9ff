// Package bridge receives wind-speed posts from the dashboard relay and
// writes them to a serial device, one reading per line.
package bridge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/i474232898/weather-dashboard/internal/observability"
)

// Bridge serializes writes to the serial line.
type Bridge struct {
	mu      sync.Mutex
	port    io.Writer
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a Bridge writing to port.
func New(port io.Writer, logger *slog.Logger, metrics *observability.Metrics) *Bridge {
	return &Bridge{port: port, logger: logger, metrics: metrics}
}

// Write sends one reading formatted with one decimal and a newline.
func (b *Bridge) Write(speedKmh float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, err := fmt.Fprintf(b.port, "%.1f\n", speedKmh)
	return err
}

type windSpeedRequest struct {
	WindSpeedKmh any `json:"windSpeedKmh"`
}

// parseWindSpeed accepts the speed as a JSON number or a numeric string.
func parseWindSpeed(body []byte) (float64, bool) {
	if len(body) == 0 {
		body = []byte("{}")
	}
	var req windSpeedRequest
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		return 0, false
	}

	var (
		speed float64
		err   error
	)
	switch v := req.WindSpeedKmh.(type) {
	case json.Number:
		speed, err = v.Float64()
	case string:
		speed, err = strconv.ParseFloat(strings.TrimSpace(v), 64)
	default:
		return 0, false
	}
	if err != nil || math.IsNaN(speed) || math.IsInf(speed, 0) {
		return 0, false
	}
	return speed, true
}

func allowAll(c *fiber.Ctx) error {
	c.Set(fiber.HeaderAccessControlAllowOrigin, "*")
	c.Set(fiber.HeaderAccessControlAllowMethods, "POST, OPTIONS")
	c.Set(fiber.HeaderAccessControlAllowHeaders, "Content-Type")
	return c.Next()
}

// Register adds the bridge routes to app. Every response carries permissive
// CORS headers, with or without an Origin on the request.
func (b *Bridge) Register(app *fiber.App) {
	app.Use(allowAll)
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "POST, OPTIONS",
		AllowHeaders: "Content-Type",
	}))

	app.Post("/wind-speed", b.handleWindSpeed)
	app.Options("/*", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found"})
	})
}

func (b *Bridge) handleWindSpeed(c *fiber.Ctx) error {
	speed, ok := parseWindSpeed(c.Body())
	if !ok {
		b.metrics.BridgeWrites.WithLabelValues("invalid").Inc()
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}

	if err := b.Write(speed); err != nil {
		b.metrics.BridgeWrites.WithLabelValues("error").Inc()
		b.logger.Error("serial write failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "serial_error",
			"details": err.Error(),
		})
	}

	b.metrics.BridgeWrites.WithLabelValues("ok").Inc()
	b.logger.Info("wind speed forwarded", "speed_kmh", speed, "remote", c.IP())
	return c.JSON(fiber.Map{"status": "ok"})
}

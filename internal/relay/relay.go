package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/i474232898/weather-dashboard/internal/observability"
)

const DefaultTimeout = 2 * time.Second

// Payload is the JSON body accepted by the wind bridge.
type Payload struct {
	WindSpeedKmh float64 `json:"windSpeedKmh"`
}

// Client posts wind-speed readings to the bridge endpoint.
type Client struct {
	url     string
	origin  string
	http    *http.Client
	timeout time.Duration
}

// NewClient creates a Client for url. origin is sent as the Origin header so
// the bridge treats the call as a cross-origin request.
func NewClient(httpClient *http.Client, url, origin string, timeout time.Duration) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{url: url, origin: origin, http: httpClient, timeout: timeout}
}

// Send posts speed and waits at most the client timeout for a 2xx reply.
func (c *Client) Send(ctx context.Context, speed float64) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(Payload{WindSpeedKmh: speed})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.origin != "" {
		req.Header.Set("Origin", c.origin)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("bridge returned status %d", resp.StatusCode)
	}
	return nil
}

// Relay forwards throttled wind-speed readings without blocking the caller.
type Relay struct {
	throttle *Throttle
	client   *Client
	logger   *slog.Logger
	metrics  *observability.Metrics

	wg sync.WaitGroup
}

// New creates a Relay.
func New(throttle *Throttle, client *Client, logger *slog.Logger, metrics *observability.Metrics) *Relay {
	return &Relay{throttle: throttle, client: client, logger: logger, metrics: metrics}
}

// MaybeSend forwards speed in the background when the throttle allows it and
// reports whether a send was started. Failures are logged and never retried.
func (r *Relay) MaybeSend(speed float64) bool {
	if !r.throttle.Allow(speed) {
		r.metrics.RelayForwards.WithLabelValues("throttled").Inc()
		return false
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		if err := r.client.Send(context.Background(), speed); err != nil {
			r.metrics.RelayForwards.WithLabelValues("error").Inc()
			r.logger.Warn("wind speed relay failed", "speed_kmh", speed, "error", err)
			return
		}
		r.metrics.RelayForwards.WithLabelValues("sent").Inc()
		r.logger.Debug("wind speed relayed", "speed_kmh", speed)
	}()
	return true
}

// Wait blocks until in-flight sends have finished.
func (r *Relay) Wait() {
	r.wg.Wait()
}

package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/i474232898/weather-dashboard/internal/observability"
	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

const (
	DefaultMinInterval  = 15 * time.Second
	DefaultDisplayLimit = 24

	// StatusFetchFailed is shown while the latest refresh attempt failed.
	StatusFetchFailed = "Unable to load weather data. Retrying shortly."
)

var (
	ErrUnknownLocation = errors.New("unknown location")
	ErrNoLocations     = errors.New("no locations configured")
)

// Outcome is the result of one Refresh call.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeSkipped Outcome = "skipped"
	OutcomeStale   Outcome = "stale"
)

// WindRelay receives the current wind speed after every successful refresh.
type WindRelay interface {
	MaybeSend(speedKmh float64) bool
}

// Config holds the orchestrator settings.
type Config struct {
	Locations       []weather.Location
	DefaultLocation string
	MinInterval     time.Duration
	DisplayLimit    int
}

// Orchestrator drives the refresh cycle: fetch, then update history, view
// and relay. It is safe for concurrent use.
type Orchestrator struct {
	mu      sync.Mutex
	session *Session

	provider weather.Provider
	history  *store.HistoryStore
	relay    WindRelay
	clock    clockwork.Clock

	minInterval  time.Duration
	displayLimit int

	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates an Orchestrator showing cfg.DefaultLocation, or the first
// location when that is empty. relay may be nil.
func New(
	cfg Config,
	provider weather.Provider,
	history *store.HistoryStore,
	relay WindRelay,
	clock clockwork.Clock,
	logger *slog.Logger,
	metrics *observability.Metrics,
) (*Orchestrator, error) {
	if len(cfg.Locations) == 0 {
		return nil, ErrNoLocations
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = DefaultMinInterval
	}
	if cfg.DisplayLimit <= 0 {
		cfg.DisplayLimit = DefaultDisplayLimit
	}

	active := cfg.Locations[0]
	if cfg.DefaultLocation != "" {
		found := false
		for _, l := range cfg.Locations {
			if l.ID == cfg.DefaultLocation {
				active, found = l, true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrUnknownLocation, cfg.DefaultLocation)
		}
	}

	o := &Orchestrator{
		session:      newSession(cfg.Locations, active),
		provider:     provider,
		history:      history,
		relay:        relay,
		clock:        clock,
		minInterval:  cfg.MinInterval,
		displayLimit: cfg.DisplayLimit,
		logger:       logger,
		metrics:      metrics,
	}
	o.renderHistoryLocked()
	return o, nil
}

// Refresh fetches and applies data for the active location. Unless force is
// set, it is a no-op while the last successful fetch is younger than the
// minimum interval. A failure leaves everything but the status untouched.
func (o *Orchestrator) Refresh(ctx context.Context, force bool) (Outcome, error) {
	o.mu.Lock()
	issuedAt := o.clock.Now()
	if !force && o.session.guarded(issuedAt, o.minInterval) {
		o.mu.Unlock()
		o.metrics.Fetches.WithLabelValues(string(OutcomeSkipped)).Inc()
		return OutcomeSkipped, nil
	}
	id := o.session.nextRequest()
	loc := o.session.active
	o.mu.Unlock()

	logger := o.logger.With("fetch_id", uuid.NewString(), "provider", o.provider.Name(), "location", loc.ID, "forced", force)
	if force {
		ctx = weather.WithForced(ctx)
	}
	report, err := o.provider.Fetch(ctx, loc)
	o.metrics.FetchDuration.Observe(o.clock.Since(issuedAt).Seconds())

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.session.stale(id, loc.ID) {
		o.metrics.Fetches.WithLabelValues(string(OutcomeStale)).Inc()
		logger.Debug("discarding stale response", "request", id, "applied", o.session.applied)
		return OutcomeStale, nil
	}

	if err != nil {
		o.session.view.Status = StatusFetchFailed
		o.metrics.Fetches.WithLabelValues(string(OutcomeFailure)).Inc()
		logger.Error("weather fetch failed", "error", err)
		return OutcomeFailure, fmt.Errorf("fetch %s: %w", loc.ID, err)
	}

	now := o.clock.Now()
	o.session.applied = id
	o.session.lastSuccess = now

	tz := loc.TZ()

	o.history.Append(loc.ID, report.Observe(now))

	v := &o.session.view
	v.Current = renderCurrent(report.Current)
	v.Forecast = renderForecast(report, tz)
	v.LastUpdated = store.FormatTimestamp(now, tz)
	v.Status = ""
	o.renderHistoryLocked()

	if o.relay != nil {
		o.relay.MaybeSend(weather.Float(report.Current.WindSpeed))
	}

	o.metrics.Fetches.WithLabelValues(string(OutcomeSuccess)).Inc()
	logger.Info("weather refreshed", "observation_time", report.Current.Time)
	return OutcomeSuccess, nil
}

func (o *Orchestrator) renderHistoryLocked() {
	loc := o.session.active
	rows, trend := renderHistory(o.history.Recent(loc.ID, o.displayLimit), loc.TZ())
	o.session.view.History = rows
	o.session.view.Trend = trend
}

// SelectLocation makes id the active location and forces a refresh. The
// returned error is from the refresh; the switch itself has already happened.
func (o *Orchestrator) SelectLocation(ctx context.Context, id string) (Outcome, error) {
	o.mu.Lock()
	loc, ok := o.session.find(id)
	if !ok {
		o.mu.Unlock()
		return "", fmt.Errorf("%w: %s", ErrUnknownLocation, id)
	}
	o.session.activate(loc)
	o.renderHistoryLocked()
	o.mu.Unlock()

	o.logger.Info("location selected", "location", id)
	return o.Refresh(ctx, true)
}

// Search records query as the pending search input and returns matching
// locations.
func (o *Orchestrator) Search(query string) []weather.Location {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.session.search = query
	return o.session.matching(query)
}

// Locations returns the location catalog.
func (o *Orchestrator) Locations() []weather.Location {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]weather.Location{}, o.session.locations...)
}

// Active returns the active location.
func (o *Orchestrator) Active() weather.Location {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session.active
}

// View returns a copy of what the dashboard currently shows.
func (o *Orchestrator) View() View {
	o.mu.Lock()
	defer o.mu.Unlock()

	v := o.session.view.clone()
	v.Search = o.session.search
	return v
}

// History returns up to limit of the newest history rows for the active
// location; limit <= 0 returns all of them.
func (o *Orchestrator) History(limit int) []HistoryRow {
	loc := o.Active()
	rows, _ := renderHistory(o.history.Recent(loc.ID, limit), loc.TZ())
	return rows
}

// ExportCSV writes the active location's full history to w and returns the
// download filename. store.ErrEmptyHistory means nothing was written.
func (o *Orchestrator) ExportCSV(w io.Writer) (string, error) {
	loc := o.Active()
	if _, err := o.history.ExportCSV(w, loc.ID, loc.TZ()); err != nil {
		return "", err
	}
	return store.ExportFilename(loc.ID), nil
}

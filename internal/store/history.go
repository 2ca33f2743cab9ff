package store

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/i474232898/weather-dashboard/internal/observability"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// DefaultMaxHistory is the per-location cap on stored observations.
const DefaultMaxHistory = 600

// HistoryStore is a per-location, capped, persisted log of observations.
// The whole mapping is stored as one JSON document under a single key.
type HistoryStore struct {
	mu sync.RWMutex

	// key: location id, value: observations oldest first
	data map[string][]weather.Observation

	storage    Storage
	key        string
	maxHistory int
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// OpenHistory loads the history document from storage. A missing or corrupt
// document yields an empty store; the error is logged, never returned.
func OpenHistory(storage Storage, key string, maxHistory int, logger *slog.Logger, metrics *observability.Metrics) *HistoryStore {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	h := &HistoryStore{
		data:       make(map[string][]weather.Observation),
		storage:    storage,
		key:        key,
		maxHistory: maxHistory,
		logger:     logger,
		metrics:    metrics,
	}

	raw, err := storage.Get(key)
	switch {
	case errors.Is(err, ErrNotFound):
		return h
	case err != nil:
		logger.Warn("history load failed; starting empty", "key", key, "error", err)
		return h
	}

	var loaded map[string][]weather.Observation
	if err := json.Unmarshal(raw, &loaded); err != nil {
		logger.Warn("history document corrupt; starting empty", "key", key, "error", err)
		return h
	}
	for id, obs := range loaded {
		if len(obs) > maxHistory {
			obs = obs[len(obs)-maxHistory:]
		}
		h.data[id] = obs
	}
	logger.Info("history loaded", "key", key, "locations", len(h.data))
	return h
}

// Append records obs for locationID and persists the store. An observation
// whose ObservationTime equals the last stored one is a duplicate tick and is
// dropped. It reports whether obs was appended.
func (h *HistoryStore) Append(locationID string, obs weather.Observation) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	history := h.data[locationID]
	if n := len(history); n > 0 && history[n-1].ObservationTime == obs.ObservationTime {
		h.metrics.HistoryAppends.WithLabelValues("duplicate").Inc()
		return false
	}

	history = append(history, obs)
	if over := len(history) - h.maxHistory; over > 0 {
		history = append([]weather.Observation(nil), history[over:]...)
	}
	h.data[locationID] = history
	h.metrics.HistoryAppends.WithLabelValues("appended").Inc()

	h.persistLocked()
	return true
}

func (h *HistoryStore) persistLocked() {
	raw, err := json.Marshal(h.data)
	if err == nil {
		err = h.storage.Set(h.key, raw)
	}
	if err != nil {
		h.metrics.HistoryPersistErrors.Inc()
		h.logger.Error("history persist failed; keeping in-memory state", "key", h.key, "error", err)
	}
}

// ForLocation returns a copy of the stored observations for id, oldest first.
func (h *HistoryStore) ForLocation(id string) []weather.Observation {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return append([]weather.Observation{}, h.data[id]...)
}

// Recent returns up to n of the newest observations for id, oldest first.
func (h *HistoryStore) Recent(id string, n int) []weather.Observation {
	h.mu.RLock()
	defer h.mu.RUnlock()

	history := h.data[id]
	if n > 0 && len(history) > n {
		history = history[len(history)-n:]
	}
	return append([]weather.Observation{}, history...)
}

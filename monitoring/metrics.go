package monitoring

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	fetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "biletmaster_fetch_total",
			Help: "Page fetches by page kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	fetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "biletmaster_fetch_duration_seconds",
			Help:    "Duration of page fetches",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"kind"},
	)

	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "biletmaster_cache_lookups_total",
			Help: "Snapshot cache lookups by result (hit, miss, corrupt)",
		},
		[]string{"result"},
	)

	presenterTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "biletmaster_presenter_transitions_total",
			Help: "Presenter state transitions",
		},
		[]string{"state"},
	)

	storedSnapshots = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "biletmaster_snapshots_stored",
			Help: "Snapshots currently stored in redis",
		},
	)
)

// TrackFetch records one page fetch. kind is "locations" or "venue".
func TrackFetch(kind string, err error, duration time.Duration) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	fetchTotal.WithLabelValues(kind, outcome).Inc()
	fetchDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

func TrackCacheLookup(result string) {
	cacheLookups.WithLabelValues(result).Inc()
}

func TrackTransition(state string) {
	presenterTransitions.WithLabelValues(state).Inc()
}

// Monitor periodically counts the snapshots kept in redis.
type Monitor struct {
	redis    *redis.Client
	pattern  string
	interval time.Duration
	log      *slog.Logger
}

func NewMonitor(redisClient *redis.Client, snapshotPrefix string, interval time.Duration, log *slog.Logger) *Monitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Monitor{
		redis:    redisClient,
		pattern:  snapshotPrefix + "*",
		interval: interval,
		log:      log,
	}
}

// Run collects until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		m.collect(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (m *Monitor) collect(ctx context.Context) int {
	keys, err := m.redis.Keys(ctx, m.pattern).Result()
	if err != nil {
		m.log.Warn("count snapshots", "pattern", m.pattern, "error", err)
		return -1
	}
	storedSnapshots.Set(float64(len(keys)))
	return len(keys)
}

package observability

import (
	"context"
	"errors"

	"github.com/aretw0/questscribe/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "questscribe"

// Metrics holds the collectors fed by engine lifecycle hooks.
type Metrics struct {
	Mutations       *prometheus.CounterVec
	MarkersTouched  *prometheus.CounterVec
	Replays         prometheus.Counter
	ReplayDuration  prometheus.Histogram
	ReplayedChanges prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
// Collectors that are already registered are reused, so several engines
// in one process can share a registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Committed engine mutations by kind.",
		}, []string{"kind"}),
		MarkersTouched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cascade_markers_total",
			Help:      "Markers rewritten or moved by cascading mutations, by kind.",
		}, []string{"kind"}),
		Replays: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replays_total",
			Help:      "Entity state reconstructions.",
		}),
		ReplayDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "replay_duration_seconds",
			Help:      "Time spent reconstructing entity state.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 8),
		}),
		ReplayedChanges: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "replay_changes",
			Help:      "Change records folded per reconstruction.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}

	if reg == nil {
		return m
	}
	m.Mutations = register(reg, m.Mutations)
	m.MarkersTouched = register(reg, m.MarkersTouched)
	m.Replays = register(reg, m.Replays)
	m.ReplayDuration = register(reg, m.ReplayDuration)
	m.ReplayedChanges = register(reg, m.ReplayedChanges)
	return m
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
	}
	return c
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnMutation: func(_ context.Context, e *domain.MutationEvent) {
			kind := string(e.Kind)
			m.Mutations.WithLabelValues(kind).Inc()
			if e.Count > 0 {
				m.MarkersTouched.WithLabelValues(kind).Add(float64(e.Count))
			}
		},
		OnReplay: func(_ context.Context, e *domain.ReplayEvent) {
			m.Replays.Inc()
			m.ReplayDuration.Observe(e.Duration.Seconds())
			m.ReplayedChanges.Observe(float64(e.Changes))
		},
	}
}

package observability

import (
	"context"
	"errors"

	"github.com/aretw0/rill/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors fed by hub hooks.
type Metrics struct {
	observers *prometheus.GaugeVec
	events    *prometheus.CounterVec
	uncaught  *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg uses
// prometheus.DefaultRegisterer. Collectors already registered under the same names
// are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		observers: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rill_hub_observers",
				Help: "Number of observers attached to a hub",
			},
			[]string{"hub"},
		),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rill_hub_events_total",
				Help: "Total number of events broadcast by a hub",
			},
			[]string{"hub", "kind"},
		),
		uncaught: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rill_hub_uncaught_errors_total",
				Help: "Total number of errors raised by observers without an error handler",
			},
			[]string{"hub"},
		),
	}

	var err error
	if m.observers, err = register(reg, m.observers); err != nil {
		return nil, err
	}
	if m.events, err = register(reg, m.events); err != nil {
		return nil, err
	}
	if m.uncaught, err = register(reg, m.uncaught); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Hooks returns hub hooks that update the collectors.
func (m *Metrics) Hooks() domain.HubHooks {
	gauge := func(_ context.Context, e *domain.HubEvent) {
		m.observers.WithLabelValues(e.Hub).Set(float64(e.Observers))
	}
	return domain.HubHooks{
		OnSubscribe:   gauge,
		OnUnsubscribe: gauge,
		OnEmit: func(_ context.Context, e *domain.HubEvent) {
			m.events.WithLabelValues(e.Hub, string(e.Kind)).Inc()
		},
		OnUncaught: func(_ context.Context, hub string, _ error) {
			m.uncaught.WithLabelValues(hub).Inc()
		},
	}
}

// Forget drops the series of a hub that no longer exists.
func (m *Metrics) Forget(hub string) {
	m.observers.DeleteLabelValues(hub)
	m.uncaught.DeleteLabelValues(hub)
	m.events.DeletePartialMatch(prometheus.Labels{"hub": hub})
}

// ObserversGauge exposes the observers gauge.
func (m *Metrics) ObserversGauge() *prometheus.GaugeVec {
	return m.observers
}

// EventsCounter exposes the events counter.
func (m *Metrics) EventsCounter() *prometheus.CounterVec {
	return m.events
}

// UncaughtCounter exposes the uncaught errors counter.
func (m *Metrics) UncaughtCounter() *prometheus.CounterVec {
	return m.uncaught
}

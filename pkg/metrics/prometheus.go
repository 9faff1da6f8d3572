/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package metrics

import (
	"net/http"

	"github.com/mfreeman451/netmon/pkg/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "netmon"

// Collectors holds the engine's Prometheus instruments.
type Collectors struct {
	registry *prometheus.Registry

	TickDuration     prometheus.Histogram
	ProbesInFlight   prometheus.Gauge
	ProbeResults     *prometheus.CounterVec
	Transitions      *prometheus.CounterVec
	StoreRetries     prometheus.Counter
	StoreUnavailable prometheus.Counter
	DevicesByState   *prometheus.GaugeVec
}

// NewCollectors creates the instruments on a private registry.
func NewCollectors() *Collectors {
	c := &Collectors{
		registry: prometheus.NewRegistry(),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Time from the start of a poll tick until every device write completed.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		ProbesInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "probes_in_flight",
			Help:      "Probes currently holding a concurrency slot.",
		}),
		ProbeResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probe_results_total",
			Help:      "Probe outcomes by kind.",
		}, []string{"kind", "outcome"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Reachability transitions by target state.",
		}, []string{"to"}),
		StoreRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_retries_total",
			Help:      "Store writes retried after a busy or locked database.",
		}),
		StoreUnavailable: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_unavailable_total",
			Help:      "Store writes that exhausted their retry budget.",
		}),
		DevicesByState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "devices",
			Help:      "Monitored devices by reachability state.",
		}, []string{"state"}),
	}

	c.registry.MustRegister(
		c.TickDuration,
		c.ProbesInFlight,
		c.ProbeResults,
		c.Transitions,
		c.StoreRetries,
		c.StoreUnavailable,
		c.DevicesByState,
	)

	return c
}

// ObserveProbe counts one probe result.
func (c *Collectors) ObserveProbe(kind models.ProbeKind, success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}

	c.ProbeResults.WithLabelValues(string(kind), outcome).Inc()
}

// SetStateCounts replaces the per-state device gauges.
func (c *Collectors) SetStateCounts(views []models.DeviceView) {
	counts := map[models.ReachabilityState]float64{
		models.StateUnknown:     0,
		models.StateReachable:   0,
		models.StateUnreachable: 0,
	}

	for i := range views {
		counts[models.ParseReachabilityState(string(views[i].OverallStatus))]++
	}

	for state, n := range counts {
		c.DevicesByState.WithLabelValues(string(state)).Set(n)
	}
}

// Registry exposes the underlying registry for tests and extra collectors.
func (c *Collectors) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collectors) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

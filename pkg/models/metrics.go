// Package models pkg/models/metrics.go
package models

import "time"

// MetricPoint is one latency sample of a successful probe.
type MetricPoint struct {
	Timestamp time.Time `json:"timestamp"`
	LatencyNs int64     `json:"latency_ns"`
	Kind      ProbeKind `json:"kind"`
}

// MetricsConfig controls the in-memory latency history.
type MetricsConfig struct {
	Enabled   bool `json:"metrics_enabled"`
	Retention int  `json:"metrics_retention"`
}

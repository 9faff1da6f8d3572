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
	"time"

	"github.com/mfreeman451/netmon/pkg/models"
)

//go:generate mockgen -destination=mock_metrics.go -package=metrics github.com/mfreeman451/netmon/pkg/metrics MetricCollector

// MetricStore keeps the most recent latency samples for one device.
type MetricStore interface {
	Add(timestamp time.Time, latency time.Duration, kind models.ProbeKind)
	GetPoints() []models.MetricPoint
	GetLastPoint() *models.MetricPoint
}

// MetricCollector keeps latency samples per device.
type MetricCollector interface {
	AddMetric(deviceID int64, timestamp time.Time, latency time.Duration, kind models.ProbeKind)
	GetMetrics(deviceID int64) []models.MetricPoint
	Forget(deviceID int64)
}

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
	"sync"
	"sync/atomic"
	"time"

	"github.com/mfreeman451/netmon/pkg/models"
)

// Manager keeps a ring buffer of latency samples per device.
type Manager struct {
	devices       sync.Map // Map of deviceID -> *deviceMetrics
	config        models.MetricsConfig
	activeDevices int64 // Atomic counter for active devices
}

type deviceMetrics struct {
	mu     sync.RWMutex
	buffer MetricStore
}

func NewManager(cfg models.MetricsConfig) *Manager {
	return &Manager{
		config: cfg,
	}
}

func (m *Manager) AddMetric(deviceID int64, timestamp time.Time, latency time.Duration, kind models.ProbeKind) {
	if !m.config.Enabled {
		return
	}

	dm, loaded := m.devices.LoadOrStore(deviceID, &deviceMetrics{
		buffer: NewBuffer(m.config.Retention),
	})

	if !loaded {
		atomic.AddInt64(&m.activeDevices, 1)
	}

	metrics := dm.(*deviceMetrics)

	metrics.mu.Lock()
	defer metrics.mu.Unlock()

	metrics.buffer.Add(timestamp, latency, kind)
}

func (m *Manager) GetMetrics(deviceID int64) []models.MetricPoint {
	dm, ok := m.devices.Load(deviceID)
	if !ok {
		return nil
	}

	metrics := dm.(*deviceMetrics)

	metrics.mu.RLock()
	defer metrics.mu.RUnlock()

	return metrics.buffer.GetPoints()
}

// Forget drops the samples of a device that is no longer monitored.
func (m *Manager) Forget(deviceID int64) {
	if _, loaded := m.devices.LoadAndDelete(deviceID); loaded {
		atomic.AddInt64(&m.activeDevices, -1)
	}
}

func (m *Manager) GetActiveDevices() int64 {
	return atomic.LoadInt64(&m.activeDevices)
}

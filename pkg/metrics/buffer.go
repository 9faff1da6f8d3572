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
	"sync/atomic"
	"time"

	"github.com/mfreeman451/netmon/pkg/models"
)

// metricPoint represents a single latency sample.
type metricPoint struct {
	timestamp int64
	latency   int64
	kind      models.ProbeKind
}

// LockFreeRingBuffer is a fixed-size ring of samples. Writers claim slots
// with an atomic counter. Callers serialize readers against writers.
type LockFreeRingBuffer struct {
	points []metricPoint
	pos    int64 // Atomic position counter
	size   int64
}

// NewBuffer creates a MetricStore holding up to size samples.
func NewBuffer(size int) MetricStore {
	return NewLockFreeBuffer(size)
}

// NewLockFreeBuffer creates a new LockFreeRingBuffer with the specified size.
func NewLockFreeBuffer(size int) *LockFreeRingBuffer {
	if size < 1 {
		size = 1
	}

	return &LockFreeRingBuffer{
		points: make([]metricPoint, size),
		size:   int64(size),
	}
}

// Add adds a new sample to the buffer, overwriting the oldest when full.
func (b *LockFreeRingBuffer) Add(timestamp time.Time, latency time.Duration, kind models.ProbeKind) {
	pos := atomic.AddInt64(&b.pos, 1) - 1
	idx := pos % b.size

	b.points[idx] = metricPoint{
		timestamp: timestamp.UnixNano(),
		latency:   int64(latency),
		kind:      kind,
	}
}

// GetPoints returns the stored samples, newest first.
func (b *LockFreeRingBuffer) GetPoints() []models.MetricPoint {
	pos := atomic.LoadInt64(&b.pos)

	n := pos
	if n > b.size {
		n = b.size
	}

	points := make([]models.MetricPoint, 0, n)

	for i := int64(0); i < n; i++ {
		idx := (pos - i - 1) % b.size
		p := b.points[idx]

		points = append(points, models.MetricPoint{
			Timestamp: time.Unix(0, p.timestamp),
			LatencyNs: p.latency,
			Kind:      p.kind,
		})
	}

	return points
}

// GetLastPoint returns the newest sample, or nil when empty.
func (b *LockFreeRingBuffer) GetLastPoint() *models.MetricPoint {
	pos := atomic.LoadInt64(&b.pos)
	if pos == 0 {
		return nil
	}

	p := b.points[(pos-1)%b.size]

	return &models.MetricPoint{
		Timestamp: time.Unix(0, p.timestamp),
		LatencyNs: p.latency,
		Kind:      p.kind,
	}
}

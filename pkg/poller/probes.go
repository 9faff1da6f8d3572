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

package poller

import (
	"context"
	"sync"
	"time"

	"github.com/mfreeman451/netmon/pkg/models"
	"github.com/mfreeman451/netmon/pkg/probe"
)

// probeDevice runs every configured probe against one device and hands the
// combined results to the loop. Slots are acquired under ctx so queued
// probes are skipped on shutdown; running probes use probeCtx and are only
// bounded by their own timeout.
func (p *Poller) probeDevice(ctx, probeCtx context.Context, d models.Device, out chan<- deviceResult) {
	results := make([]models.ProbeResult, len(p.probes))

	var wg sync.WaitGroup

	for i := range p.probes {
		wg.Add(1)

		go func(i int, cp probe.Configured) {
			defer wg.Done()

			results[i] = p.runProbe(ctx, probeCtx, d, cp)
		}(i, p.probes[i])
	}

	wg.Wait()

	out <- deviceResult{device: d, results: results}
}

func (p *Poller) runProbe(ctx, probeCtx context.Context, d models.Device, cp probe.Configured) models.ProbeResult {
	kind := cp.Probe.Kind()

	if err := p.sem.Acquire(ctx, 1); err != nil {
		return models.ProbeResult{
			DeviceID:   d.ID,
			Kind:       kind,
			Diagnostic: "Offline, not probed: " + err.Error(),
			Timestamp:  p.now(),
		}
	}
	defer p.sem.Release(1)

	p.collectors.ProbesInFlight.Inc()
	defer p.collectors.ProbesInFlight.Dec()

	result := cp.Probe.Check(probeCtx, d.Address, cp.Timeout, cp.Attempts)
	result.DeviceID = d.ID
	result.Kind = kind

	if result.Timestamp.IsZero() {
		result.Timestamp = p.now()
	}

	p.collectors.ObserveProbe(kind, result.Success)

	if result.Success && p.latency != nil {
		p.latency.AddMetric(d.ID, result.Timestamp, result.Latency, kind)
	}

	p.logger.Debug().
		Int64("device_id", d.ID).
		Str("address", d.Address).
		Str("kind", string(kind)).
		Bool("success", result.Success).
		Str("diagnostic", result.Diagnostic).
		Msg("Probe completed")

	return result
}

func (p *Poller) now() time.Time {
	return p.clock.Now()
}

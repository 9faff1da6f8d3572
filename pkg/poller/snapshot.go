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
	"cmp"
	"context"
	"slices"

	"github.com/mfreeman451/netmon/pkg/models"
)

// Snapshot returns a copy of the device view as of the last completed tick,
// ordered by device id.
func (p *Poller) Snapshot() []models.DeviceView {
	return slices.Clone(*p.snapshot.Load())
}

// AcknowledgeDevice asks the loop to acknowledge a device. It may be called
// in any state; only an Unreachable device is recorded, and the result
// reports whether the device is acknowledged afterwards.
func (p *Poller) AcknowledgeDevice(ctx context.Context, id int64) (bool, error) {
	req := ackRequest{id: id, reply: make(chan bool, 1)}

	select {
	case p.ackCh <- req:
	case <-p.done:
		return false, ErrStopped
	case <-ctx.Done():
		return false, ctx.Err()
	}

	select {
	case acked := <-req.reply:
		return acked, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Acknowledged lists the acknowledged device ids.
func (p *Poller) Acknowledged() []int64 {
	return p.acks.List()
}

func (p *Poller) handleAck(req ackRequest) {
	state := p.machine.State(req.id)

	if !p.acks.Acknowledge(req.id, state) {
		p.logger.Debug().
			Int64("device_id", req.id).
			Str("state", string(state)).
			Msg("Ignoring acknowledgement of device that is not unreachable")

		req.reply <- false

		return
	}

	p.logger.Info().Int64("device_id", req.id).Msg("Device acknowledged")

	p.markAcknowledged(req.id)

	req.reply <- true
}

// markAcknowledged updates the published snapshot without waiting for the
// next tick.
func (p *Poller) markAcknowledged(id int64) {
	views := p.Snapshot()

	for i := range views {
		if views[i].ID == id {
			views[i].Acknowledged = true
			p.snapshot.Store(&views)

			return
		}
	}
}

func (p *Poller) publishSnapshot(views []models.DeviceView) {
	slices.SortFunc(views, func(a, b models.DeviceView) int {
		return cmp.Compare(a.ID, b.ID)
	})

	for i := range views {
		views[i].Acknowledged = p.acks.IsAcknowledged(views[i].ID)
	}

	p.snapshot.Store(&views)
	p.collectors.SetStateCounts(views)

	p.events.Publish(&models.SnapshotEvent{
		Devices:   slices.Clone(views),
		Timestamp: p.now(),
	})
}

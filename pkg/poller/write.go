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
	"errors"

	"github.com/google/uuid"
	"github.com/mfreeman451/netmon/pkg/alerts"
	"github.com/mfreeman451/netmon/pkg/db"
	"github.com/mfreeman451/netmon/pkg/models"
)

// write persists one device's status, then emits its event and alerts.
// A failed write is reported but never stops the tick.
func (p *Poller) write(ctx context.Context, job writeJob) {
	d := &job.device
	t := job.transition

	if err := p.store.WriteStatus(ctx, &job.update); err != nil {
		p.handleWriteError(ctx, d, err)
	} else {
		p.failMu.Lock()
		delete(p.storeFailures, d.ID)
		p.failMu.Unlock()
	}

	if t.Changed() {
		p.events.Publish(&models.StatusEvent{
			ID:        uuid.NewString(),
			DeviceID:  d.ID,
			Name:      d.Name,
			Address:   d.Address,
			OldState:  t.From,
			NewState:  t.To,
			Timestamp: job.update.Timestamp,
		})
	}

	switch {
	case t.Changed() && t.To == models.StateUnreachable:
		p.alert(ctx, alerts.UnreachableAlert(d, t.From, job.update.Timestamp))
	case t.Changed() && t.To == models.StateReachable && t.From == models.StateUnreachable:
		p.alert(ctx, alerts.RecoveredAlert(d, t.From, job.update.Timestamp))
	case job.repeat:
		p.alert(ctx, alerts.StillUnreachableAlert(d, job.record.ConsecutiveFailures, job.update.Timestamp))
	}
}

func (p *Poller) handleWriteError(ctx context.Context, d *models.Device, err error) {
	if !errors.Is(err, db.ErrStoreUnavailable) {
		p.logger.Warn().
			Err(err).
			Int64("device_id", d.ID).
			Msg("Failed to write device status")

		return
	}

	p.failMu.Lock()
	p.storeFailures[d.ID]++
	consecutive := p.storeFailures[d.ID]
	p.failMu.Unlock()

	p.collectors.StoreUnavailable.Inc()

	p.logger.Error().
		Err(err).
		Int64("device_id", d.ID).
		Int("consecutive", consecutive).
		Msg("Store unavailable, status not saved")

	now := p.now()

	p.events.Publish(&models.StoreErrorEvent{
		DeviceID:    d.ID,
		Error:       err.Error(),
		Consecutive: consecutive,
		Timestamp:   now,
	})

	p.alert(ctx, alerts.StoreUnavailableAlert(d, consecutive, err, now))
}

func (p *Poller) alert(ctx context.Context, a *alerts.Alert) {
	if !p.alerter.IsEnabled() {
		return
	}

	if err := p.alerter.Alert(ctx, a); err != nil {
		p.logger.Warn().
			Err(err).
			Str("title", a.Title).
			Int64("device_id", a.DeviceID).
			Msg("Failed to send alert")
	}
}

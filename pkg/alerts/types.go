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

package alerts

import (
	"fmt"
	"time"

	"github.com/mfreeman451/netmon/pkg/models"
)

type AlertLevel string

const (
	Info    AlertLevel = "info"
	Warning AlertLevel = "warning"
	Error   AlertLevel = "error"
)

// Alert titles used by the engine.
const (
	TitleUnreachable      = "Device Unreachable"
	TitleStillUnreachable = "Device Still Unreachable"
	TitleRecovered        = "Device Recovered"
	TitleStoreUnavailable = "Status Store Unavailable"
)

type Alert struct {
	Level      AlertLevel     `json:"level"`
	Title      string         `json:"title"`
	Message    string         `json:"message"`
	Timestamp  string         `json:"timestamp"`
	DeviceID   int64          `json:"device_id"`
	DeviceName string         `json:"device_name,omitempty"`
	Address    string         `json:"address,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
}

// cooldownKey identifies an alert for cooldown purposes.
func (a *Alert) cooldownKey() string {
	return fmt.Sprintf("%s/%d", a.Title, a.DeviceID)
}

func newDeviceAlert(level AlertLevel, title string, d *models.Device, now time.Time, msg string) *Alert {
	return &Alert{
		Level:      level,
		Title:      title,
		Message:    msg,
		Timestamp:  now.UTC().Format(time.RFC3339),
		DeviceID:   d.ID,
		DeviceName: d.Name,
		Address:    d.Address,
		Details: map[string]any{
			"location": d.Location,
			"type":     d.Type,
		},
	}
}

// UnreachableAlert reports a device entering Unreachable.
func UnreachableAlert(d *models.Device, from models.ReachabilityState, now time.Time) *Alert {
	a := newDeviceAlert(Error, TitleUnreachable, d, now,
		fmt.Sprintf("%s (%s) is unreachable", d.Name, d.Address))
	a.Details["previous_state"] = string(from)

	return a
}

// StillUnreachableAlert repeats for an unacknowledged Unreachable device.
func StillUnreachableAlert(d *models.Device, failures int, now time.Time) *Alert {
	a := newDeviceAlert(Warning, TitleStillUnreachable, d, now,
		fmt.Sprintf("%s (%s) is still unreachable", d.Name, d.Address))
	a.Details["consecutive_failures"] = failures

	return a
}

// RecoveredAlert reports a device returning to Reachable.
func RecoveredAlert(d *models.Device, from models.ReachabilityState, now time.Time) *Alert {
	a := newDeviceAlert(Info, TitleRecovered, d, now,
		fmt.Sprintf("%s (%s) is reachable again", d.Name, d.Address))
	a.Details["previous_state"] = string(from)

	return a
}

// StoreUnavailableAlert reports a status write that exhausted its retries.
func StoreUnavailableAlert(d *models.Device, consecutive int, err error, now time.Time) *Alert {
	a := newDeviceAlert(Error, TitleStoreUnavailable, d, now,
		fmt.Sprintf("status for %s (%s) could not be saved: %v", d.Name, d.Address, err))
	a.Details["consecutive_failures"] = consecutive

	return a
}

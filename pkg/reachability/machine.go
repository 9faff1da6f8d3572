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

// Package reachability turns per-tick probe outcomes into a settled
// reachability state using consecutive-result hysteresis.
package reachability

import "github.com/mfreeman451/netmon/pkg/models"

// Record is the in-memory hysteresis state for one device. The two
// counters are mutually exclusive: at most one of them is non-zero.
type Record struct {
	DeviceID             int64                    `json:"device_id"`
	ConsecutiveFailures  int                      `json:"consecutive_failures"`
	ConsecutiveSuccesses int                      `json:"consecutive_successes"`
	State                models.ReachabilityState `json:"state"`
}

// Transition describes the effect of one Apply call.
type Transition struct {
	DeviceID int64
	From     models.ReachabilityState
	To       models.ReachabilityState
}

// Changed reports whether the settled state moved.
func (t Transition) Changed() bool {
	return t.From != t.To
}

// Machine holds a Record per device. It is not safe for concurrent use;
// the poll loop is its only caller.
type Machine struct {
	failureThreshold int
	successThreshold int
	records          map[int64]*Record
}

// NewMachine returns a Machine with the given thresholds. Thresholds
// below one are treated as one.
func NewMachine(failureThreshold, successThreshold int) *Machine {
	return &Machine{
		failureThreshold: max(failureThreshold, 1),
		successThreshold: max(successThreshold, 1),
		records:          make(map[int64]*Record),
	}
}

// Rehydrate seeds records for devices not yet tracked, using the last
// persisted overall status. Existing records are left untouched.
func (m *Machine) Rehydrate(devices []models.Device) {
	for i := range devices {
		d := &devices[i]
		if _, ok := m.records[d.ID]; ok {
			continue
		}

		m.records[d.ID] = &Record{
			DeviceID: d.ID,
			State:    models.ParseReachabilityState(string(d.OverallStatus)),
		}
	}
}

// Apply folds one tick's overall outcome into the device's record.
func (m *Machine) Apply(id int64, success bool) Transition {
	rec := m.record(id)
	t := Transition{DeviceID: id, From: rec.State, To: rec.State}

	if success {
		rec.ConsecutiveSuccesses++
		rec.ConsecutiveFailures = 0

		if rec.ConsecutiveSuccesses >= m.successThreshold {
			rec.State = models.StateReachable
		}
	} else {
		rec.ConsecutiveFailures++
		rec.ConsecutiveSuccesses = 0

		if rec.ConsecutiveFailures >= m.failureThreshold {
			rec.State = models.StateUnreachable
		}
	}

	t.To = rec.State

	return t
}

func (m *Machine) record(id int64) *Record {
	rec, ok := m.records[id]
	if !ok {
		rec = &Record{DeviceID: id, State: models.StateUnknown}
		m.records[id] = rec
	}

	return rec
}

// Get returns a copy of the device's record.
func (m *Machine) Get(id int64) (Record, bool) {
	rec, ok := m.records[id]
	if !ok {
		return Record{}, false
	}

	return *rec, true
}

// State returns the settled state, Unknown for untracked devices.
func (m *Machine) State(id int64) models.ReachabilityState {
	if rec, ok := m.records[id]; ok {
		return rec.State
	}

	return models.StateUnknown
}

// Retain drops records for every device not in devices and returns the
// ids that were dropped.
func (m *Machine) Retain(devices []models.Device) []int64 {
	keep := make(map[int64]struct{}, len(devices))
	for i := range devices {
		keep[devices[i].ID] = struct{}{}
	}

	var dropped []int64

	for id := range m.records {
		if _, ok := keep[id]; !ok {
			delete(m.records, id)
			dropped = append(dropped, id)
		}
	}

	return dropped
}

// Len returns the number of tracked devices.
func (m *Machine) Len() int {
	return len(m.records)
}

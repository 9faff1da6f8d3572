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

// Package models pkg/models/device.go
package models

import "time"

// ReachabilityState is the settled reachability of a device.
type ReachabilityState string

const (
	StateUnknown     ReachabilityState = "Unknown"
	StateReachable   ReachabilityState = "Reachable"
	StateUnreachable ReachabilityState = "Unreachable"
)

// ParseReachabilityState maps a persisted overall status onto a state.
// Anything unrecognized, including the empty string, is Unknown.
func ParseReachabilityState(s string) ReachabilityState {
	switch ReachabilityState(s) {
	case StateReachable:
		return StateReachable
	case StateUnreachable:
		return StateUnreachable
	default:
		return StateUnknown
	}
}

// ProbeStatus is the per-method outcome stored alongside a device.
type ProbeStatus string

const (
	ProbeStatusNone    ProbeStatus = ""
	ProbeStatusSuccess ProbeStatus = "Success"
	ProbeStatusFailed  ProbeStatus = "Failed"
)

// ProbeStatusFromBool converts a probe success flag into its stored form.
func ProbeStatusFromBool(ok bool) ProbeStatus {
	if ok {
		return ProbeStatusSuccess
	}

	return ProbeStatusFailed
}

// Device is a monitored endpoint as persisted by the store.
type Device struct {
	ID            int64             `json:"id"`
	Name          string            `json:"name"`
	Address       string            `json:"address"`
	Location      string            `json:"location"`
	Type          string            `json:"type"`
	PingStatus    ProbeStatus       `json:"ping_status"`
	SNMPStatus    ProbeStatus       `json:"snmp_status"`
	OverallStatus ReachabilityState `json:"overall_status"`
	LastChecked   time.Time         `json:"last_checked"`
}

// StatusUpdate is one device's status write at the end of its cycle.
type StatusUpdate struct {
	DeviceID      int64
	PingStatus    ProbeStatus
	SNMPStatus    ProbeStatus
	OverallStatus ReachabilityState
	Timestamp     time.Time

	// Transition is set when OverallStatus changed this cycle, so the
	// store can append to the status history in the same transaction.
	Transition bool
}

// StatusHistoryPoint is a single recorded transition for a device.
type StatusHistoryPoint struct {
	Status    ReachabilityState `json:"status"`
	Method    string            `json:"method"`
	Timestamp time.Time         `json:"timestamp"`
}

// DeviceView is the point-in-time view handed to collaborators.
type DeviceView struct {
	Device
	ConsecutiveFailures  int    `json:"consecutive_failures"`
	ConsecutiveSuccesses int    `json:"consecutive_successes"`
	Acknowledged         bool   `json:"acknowledged"`
	PingDetail           string `json:"ping_detail,omitempty"`
	SNMPDetail           string `json:"snmp_detail,omitempty"`
}

// FindDuplicateAddresses returns every address shared by more than one
// device, mapped to the ids that share it.
func FindDuplicateAddresses(devices []Device) map[string][]int64 {
	byAddr := make(map[string][]int64, len(devices))

	for i := range devices {
		byAddr[devices[i].Address] = append(byAddr[devices[i].Address], devices[i].ID)
	}

	dups := make(map[string][]int64)

	for addr, ids := range byAddr {
		if len(ids) > 1 {
			dups[addr] = ids
		}
	}

	return dups
}

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

package models

import "time"

// ProbeKind identifies a reachability check method.
type ProbeKind string

const (
	ProbePing ProbeKind = "ping"
	ProbeSNMP ProbeKind = "snmp"
)

// ProbeResult represents the outcome of one probe against one device.
type ProbeResult struct {
	DeviceID   int64         `json:"device_id"`
	Kind       ProbeKind     `json:"kind"`
	Success    bool          `json:"success"`
	Diagnostic string        `json:"diagnostic"`
	Latency    time.Duration `json:"latency"`
	Timestamp  time.Time     `json:"timestamp"`
}

// ContainsKind checks if a kind is in a list of kinds.
func ContainsKind(kinds []ProbeKind, kind ProbeKind) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}

	return false
}

// AnySuccess reports the per-tick overall outcome: the logical OR of
// every probe's success flag.
func AnySuccess(results []ProbeResult) bool {
	for i := range results {
		if results[i].Success {
			return true
		}
	}

	return false
}

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

// EventKind tags what an Event carries.
type EventKind string

const (
	EventStatus     EventKind = "status"
	EventSnapshot   EventKind = "snapshot"
	EventStoreError EventKind = "store_error"
)

// Event is anything delivered over the event channel.
type Event interface {
	Kind() EventKind
}

// StatusEvent is emitted exactly once per reachability transition.
type StatusEvent struct {
	ID        string            `json:"id"`
	DeviceID  int64             `json:"device_id"`
	Name      string            `json:"name"`
	Address   string            `json:"address"`
	OldState  ReachabilityState `json:"old_state"`
	NewState  ReachabilityState `json:"new_state"`
	Timestamp time.Time         `json:"timestamp"`
}

func (*StatusEvent) Kind() EventKind { return EventStatus }

// SnapshotEvent carries the full device view after a tick completes.
type SnapshotEvent struct {
	Devices   []DeviceView `json:"devices"`
	Timestamp time.Time    `json:"timestamp"`
}

func (*SnapshotEvent) Kind() EventKind { return EventSnapshot }

// StoreErrorEvent reports a status write that exhausted its retries.
type StoreErrorEvent struct {
	DeviceID    int64     `json:"device_id"`
	Error       string    `json:"error"`
	Consecutive int       `json:"consecutive"`
	Timestamp   time.Time `json:"timestamp"`
}

func (*StoreErrorEvent) Kind() EventKind { return EventStoreError }

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

// Package ack tracks devices an operator has acknowledged.
//
// The set lives in memory only. A restart clears every acknowledgement;
// devices that are still unreachable will alert again until re-acknowledged.
package ack

import (
	"slices"
	"sync"

	"github.com/mfreeman451/netmon/pkg/models"
)

// Tracker is the acknowledgement set. It is safe for concurrent use.
type Tracker struct {
	mu    sync.RWMutex
	acked map[int64]struct{}
}

func NewTracker() *Tracker {
	return &Tracker{acked: make(map[int64]struct{})}
}

// Acknowledge records id if the device is currently Unreachable and
// reports whether it is acknowledged afterwards. Acknowledging a device in
// any other state has no effect. Repeated calls are idempotent.
func (t *Tracker) Acknowledge(id int64, state models.ReachabilityState) bool {
	if state != models.StateUnreachable {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.acked[id] = struct{}{}

	return true
}

// Clear removes id and reports whether it was present.
func (t *Tracker) Clear(id int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, ok := t.acked[id]
	delete(t.acked, id)

	return ok
}

func (t *Tracker) IsAcknowledged(id int64) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	_, ok := t.acked[id]

	return ok
}

// List returns the acknowledged ids in ascending order.
func (t *Tracker) List() []int64 {
	t.mu.RLock()
	ids := make([]int64, 0, len(t.acked))

	for id := range t.acked {
		ids = append(ids, id)
	}
	t.mu.RUnlock()

	slices.Sort(ids)

	return ids
}

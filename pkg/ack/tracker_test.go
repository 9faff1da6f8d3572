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

package ack

import (
	"testing"

	"github.com/mfreeman451/netmon/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestAcknowledge_Idempotent(t *testing.T) {
	once := NewTracker()
	twice := NewTracker()

	assert.True(t, once.Acknowledge(3, models.StateUnreachable))
	assert.True(t, twice.Acknowledge(3, models.StateUnreachable))
	assert.True(t, twice.Acknowledge(3, models.StateUnreachable))

	assert.Equal(t, once.List(), twice.List())
	assert.Equal(t, once.IsAcknowledged(3), twice.IsAcknowledged(3))
}

func TestAcknowledge_OnlyWhileUnreachable(t *testing.T) {
	tr := NewTracker()

	assert.False(t, tr.Acknowledge(1, models.StateReachable))
	assert.False(t, tr.Acknowledge(2, models.StateUnknown))
	assert.False(t, tr.IsAcknowledged(1))
	assert.False(t, tr.IsAcknowledged(2))
	assert.Empty(t, tr.List())
}

func TestClear(t *testing.T) {
	tr := NewTracker()
	tr.Acknowledge(5, models.StateUnreachable)
	tr.Acknowledge(2, models.StateUnreachable)

	assert.Equal(t, []int64{2, 5}, tr.List())

	assert.True(t, tr.Clear(5))
	assert.False(t, tr.Clear(5))
	assert.False(t, tr.IsAcknowledged(5))
	assert.Equal(t, []int64{2}, tr.List())
}

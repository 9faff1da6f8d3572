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

package api

//go:generate mockgen -destination=mock_api.go -package=api github.com/mfreeman451/netmon/pkg/api Engine,EventSource

import (
	"context"

	"github.com/mfreeman451/netmon/pkg/models"
)

// Engine is the monitoring loop as seen by the API.
type Engine interface {
	Snapshot() []models.DeviceView
	AcknowledgeDevice(ctx context.Context, id int64) (bool, error)
}

// EventSource fans out engine events to stream clients.
type EventSource interface {
	Subscribe() (events <-chan models.Event, cancel func())
}

// LatencySource returns recent probe latency samples for a device.
type LatencySource interface {
	GetMetrics(deviceID int64) []models.MetricPoint
}

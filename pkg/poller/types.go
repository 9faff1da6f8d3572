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
	"github.com/benbjohnson/clock"
	"github.com/mfreeman451/netmon/pkg/ack"
	"github.com/mfreeman451/netmon/pkg/alerts"
	"github.com/mfreeman451/netmon/pkg/db"
	"github.com/mfreeman451/netmon/pkg/events"
	"github.com/mfreeman451/netmon/pkg/metrics"
	"github.com/mfreeman451/netmon/pkg/models"
	"github.com/mfreeman451/netmon/pkg/probe"
	"github.com/mfreeman451/netmon/pkg/reachability"
)

// Dependencies are the collaborators a Poller drives. Store and Probes are
// required; the rest fall back to no-op or fresh instances.
type Dependencies struct {
	Store      db.Store
	Probes     []probe.Configured
	Acks       *ack.Tracker
	Events     events.Publisher
	Alerter    alerts.AlertService
	Latency    metrics.MetricCollector
	Collectors *metrics.Collectors
	Clock      clock.Clock
}

// deviceResult carries every probe outcome for one device in one tick.
type deviceResult struct {
	device  models.Device
	results []models.ProbeResult
}

// writeJob is the status write for one device, built on the loop and
// executed off it.
type writeJob struct {
	device     models.Device
	update     models.StatusUpdate
	transition reachability.Transition
	record     reachability.Record
	repeat     bool
}

type ackRequest struct {
	id    int64
	reply chan bool
}

type discardPublisher struct{}

func (discardPublisher) Publish(models.Event) bool { return true }

var _ events.Publisher = discardPublisher{}

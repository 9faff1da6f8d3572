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

// Package poller runs the monitoring loop: it probes every registered
// device on a fixed delay, folds the outcomes into the reachability state
// machine and persists the result.
package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/mfreeman451/netmon/pkg/ack"
	"github.com/mfreeman451/netmon/pkg/alerts"
	"github.com/mfreeman451/netmon/pkg/config"
	"github.com/mfreeman451/netmon/pkg/db"
	"github.com/mfreeman451/netmon/pkg/events"
	"github.com/mfreeman451/netmon/pkg/logger"
	"github.com/mfreeman451/netmon/pkg/metrics"
	"github.com/mfreeman451/netmon/pkg/models"
	"github.com/mfreeman451/netmon/pkg/probe"
	"github.com/mfreeman451/netmon/pkg/reachability"
	"golang.org/x/sync/semaphore"
)

// Poller is the scheduler and owner of all reachability state. The record
// table and the acknowledgement set are only mutated on the loop goroutine;
// other goroutines read Snapshot or submit AcknowledgeDevice requests.
type Poller struct {
	store      db.Store
	probes     []probe.Configured
	acks       *ack.Tracker
	events     events.Publisher
	alerter    alerts.AlertService
	latency    metrics.MetricCollector
	collectors *metrics.Collectors
	clock      clock.Clock
	logger     logger.Logger

	interval     time.Duration
	repeatAlerts bool
	sem          *semaphore.Weighted
	machine      *reachability.Machine

	snapshot atomic.Pointer[[]models.DeviceView]
	ackCh    chan ackRequest

	// storeFailures counts consecutive StoreUnavailable writes per device.
	failMu        sync.Mutex
	storeFailures map[int64]int

	warnedDups map[string]struct{}

	done      chan struct{}
	closeOnce sync.Once
	loopWg    sync.WaitGroup
	writes    sync.WaitGroup

	// onIdle runs after the next tick's timer is armed.
	onIdle func()
}

// New creates a poller from the daemon configuration. An invalid cfg is
// rejected with config.ErrInvalidConfig before any tick can run.
func New(cfg *config.Config, deps Dependencies, log logger.Logger) (*Poller, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", config.ErrInvalidConfig)
	}

	if err := cfg.Check(); err != nil {
		return nil, err
	}

	if deps.Store == nil {
		return nil, errNoStore
	}

	if len(deps.Probes) == 0 {
		return nil, errNoProbes
	}

	p := &Poller{
		store:         deps.Store,
		probes:        deps.Probes,
		acks:          deps.Acks,
		events:        deps.Events,
		alerter:       deps.Alerter,
		latency:       deps.Latency,
		collectors:    deps.Collectors,
		clock:         deps.Clock,
		logger:        log.WithComponent("poller"),
		interval:      time.Duration(cfg.PollInterval),
		repeatAlerts:  cfg.Alerts.Repeat(),
		sem:           semaphore.NewWeighted(int64(cfg.MaxConcurrentProbes)),
		machine:       reachability.NewMachine(cfg.FailureThreshold, cfg.SuccessThreshold),
		ackCh:         make(chan ackRequest),
		storeFailures: make(map[int64]int),
		warnedDups:    make(map[string]struct{}),
		done:          make(chan struct{}),
	}

	if p.acks == nil {
		p.acks = ack.NewTracker()
	}

	if p.events == nil {
		p.events = discardPublisher{}
	}

	if p.alerter == nil {
		p.alerter = alerts.NewMultiAlerter()
	}

	if p.collectors == nil {
		p.collectors = metrics.NewCollectors()
	}

	if p.clock == nil {
		p.clock = clock.New()
	}

	empty := make([]models.DeviceView, 0)
	p.snapshot.Store(&empty)

	return p, nil
}

// Start runs the poll loop until ctx is done or Stop is called. The first
// tick runs immediately; each later tick starts one interval after the
// previous one completed.
func (p *Poller) Start(ctx context.Context) error {
	p.loopWg.Add(1)
	defer p.loopWg.Done()

	select {
	case <-p.done:
		return nil
	default:
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-p.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	p.logger.Info().
		Dur("interval", p.interval).
		Int("probes", len(p.probes)).
		Msg("Starting poller")

	for {
		if err := p.tick(ctx); err != nil {
			if errors.Is(err, errTickAborted) {
				return p.exitErr(ctx)
			}

			p.logger.Error().Err(err).Msg("Error during poll")
		}

		timer := p.clock.Timer(p.interval)

		if p.onIdle != nil {
			p.onIdle()
		}

		if !p.idle(ctx, timer) {
			timer.Stop()

			return p.exitErr(ctx)
		}
	}
}

// idle serves acknowledgement requests until the timer fires. It returns
// false when the poller is shutting down.
func (p *Poller) idle(ctx context.Context, timer *clock.Timer) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case req := <-p.ackCh:
			p.handleAck(req)
		case <-timer.C:
			return true
		}
	}
}

func (p *Poller) exitErr(ctx context.Context) error {
	select {
	case <-p.done:
		p.logger.Info().Msg("Poller stopped")

		return nil
	default:
		return ctx.Err()
	}
}

// Stop prevents further ticks and waits for in-flight writes. Probe results
// that arrive after Stop are discarded.
func (p *Poller) Stop(ctx context.Context) error {
	p.closeOnce.Do(func() {
		close(p.done)
	})

	finished := make(chan struct{})

	go func() {
		p.loopWg.Wait()
		p.writes.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", errStopTimeout, ctx.Err())
	}
}

// tick runs one poll cycle and returns once every device's write finished.
func (p *Poller) tick(ctx context.Context) error {
	start := p.now()

	devices, err := p.store.ReadAllDevices(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return errTickAborted
		}

		return fmt.Errorf("failed to read devices: %w", err)
	}

	p.reconcile(devices)

	p.logger.Debug().Int("devices", len(devices)).Msg("Starting poll cycle")

	results := make(chan deviceResult, len(devices))
	probeCtx := context.WithoutCancel(ctx)

	for i := range devices {
		go p.probeDevice(ctx, probeCtx, devices[i], results)
	}

	writeCtx := context.WithoutCancel(ctx)
	written := make(chan models.DeviceView, len(devices))
	views := make([]models.DeviceView, 0, len(devices))
	pendingProbes, pendingWrites := len(devices), 0

	for pendingProbes > 0 || pendingWrites > 0 {
		select {
		case <-ctx.Done():
			p.logger.Info().
				Int("discarded", pendingProbes).
				Int("writes_in_flight", pendingWrites).
				Msg("Shutdown during poll cycle")

			return errTickAborted
		case req := <-p.ackCh:
			p.handleAck(req)
		case r := <-results:
			if ctx.Err() != nil {
				continue
			}

			pendingProbes--

			job := p.apply(r)
			pendingWrites++

			p.writes.Add(1)

			go func() {
				defer p.writes.Done()

				p.write(writeCtx, job)
				written <- p.view(job, r.results)
			}()
		case v := <-written:
			pendingWrites--

			views = append(views, v)
		}
	}

	p.publishSnapshot(views)
	p.collectors.TickDuration.Observe(p.clock.Since(start).Seconds())

	p.logger.Debug().
		Int("devices", len(devices)).
		Dur("duration", p.clock.Since(start)).
		Msg("Poll cycle completed")

	return nil
}

// reconcile brings the record table in line with the current device set.
func (p *Poller) reconcile(devices []models.Device) {
	p.machine.Rehydrate(devices)

	for _, id := range p.machine.Retain(devices) {
		p.acks.Clear(id)

		if p.latency != nil {
			p.latency.Forget(id)
		}

		p.failMu.Lock()
		delete(p.storeFailures, id)
		p.failMu.Unlock()
	}

	for addr, ids := range models.FindDuplicateAddresses(devices) {
		if _, seen := p.warnedDups[addr]; seen {
			continue
		}

		p.warnedDups[addr] = struct{}{}

		p.logger.Warn().
			Str("address", addr).
			Ints64("device_ids", ids).
			Msg("Multiple devices share an address")
	}
}

// apply folds one device's results into the state machine. It runs on the
// loop goroutine.
func (p *Poller) apply(r deviceResult) writeJob {
	now := p.now()
	d := r.device
	success := models.AnySuccess(r.results)

	t := p.machine.Apply(d.ID, success)
	rec, _ := p.machine.Get(d.ID)

	update := models.StatusUpdate{
		DeviceID:      d.ID,
		OverallStatus: t.To,
		Timestamp:     now,
		Transition:    t.Changed(),
	}

	for i := range r.results {
		switch r.results[i].Kind {
		case models.ProbePing:
			update.PingStatus = models.ProbeStatusFromBool(r.results[i].Success)
		case models.ProbeSNMP:
			update.SNMPStatus = models.ProbeStatusFromBool(r.results[i].Success)
		}
	}

	if t.Changed() {
		p.collectors.Transitions.WithLabelValues(string(t.To)).Inc()

		if t.To == models.StateReachable && p.acks.Clear(d.ID) {
			p.logger.Info().Int64("device_id", d.ID).Msg("Cleared acknowledgement on recovery")
		}

		p.logger.Info().
			Int64("device_id", d.ID).
			Str("name", d.Name).
			Str("from", string(t.From)).
			Str("to", string(t.To)).
			Msg("Reachability changed")
	}

	repeat := !t.Changed() && t.To == models.StateUnreachable &&
		p.repeatAlerts && !p.acks.IsAcknowledged(d.ID)

	return writeJob{
		device:     d,
		update:     update,
		transition: t,
		record:     rec,
		repeat:     repeat,
	}
}

func (p *Poller) view(job writeJob, results []models.ProbeResult) models.DeviceView {
	d := job.device
	d.OverallStatus = job.update.OverallStatus
	d.PingStatus = job.update.PingStatus
	d.SNMPStatus = job.update.SNMPStatus
	d.LastChecked = job.update.Timestamp

	v := models.DeviceView{
		Device:               d,
		ConsecutiveFailures:  job.record.ConsecutiveFailures,
		ConsecutiveSuccesses: job.record.ConsecutiveSuccesses,
		Acknowledged:         p.acks.IsAcknowledged(d.ID),
	}

	for i := range results {
		switch results[i].Kind {
		case models.ProbePing:
			v.PingDetail = results[i].Diagnostic
		case models.ProbeSNMP:
			v.SNMPDetail = results[i].Diagnostic
		}
	}

	return v
}

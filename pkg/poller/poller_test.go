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
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/mfreeman451/netmon/pkg/alerts"
	"github.com/mfreeman451/netmon/pkg/config"
	"github.com/mfreeman451/netmon/pkg/db"
	"github.com/mfreeman451/netmon/pkg/events"
	"github.com/mfreeman451/netmon/pkg/logger"
	"github.com/mfreeman451/netmon/pkg/metrics"
	"github.com/mfreeman451/netmon/pkg/models"
	"github.com/mfreeman451/netmon/pkg/probe"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const testInterval = time.Minute

// scriptedProbe returns a fixed sequence of outcomes per address, repeating
// the last one once the script runs out.
type scriptedProbe struct {
	mu       sync.Mutex
	outcomes map[string][]bool
	calls    map[string]int
	gate     chan struct{} // when set, Check blocks until it is closed
	started  chan string
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	hold     time.Duration
}

func newScriptedProbe(outcomes map[string][]bool) *scriptedProbe {
	return &scriptedProbe{outcomes: outcomes, calls: make(map[string]int)}
}

func (*scriptedProbe) Kind() models.ProbeKind { return models.ProbePing }

func (s *scriptedProbe) Check(_ context.Context, address string, _ time.Duration, _ int) models.ProbeResult {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)

	for {
		seen := s.maxSeen.Load()
		if n <= seen || s.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	if s.started != nil {
		s.started <- address
	}

	if s.gate != nil {
		<-s.gate
	}

	if s.hold > 0 {
		time.Sleep(s.hold)
	}

	s.mu.Lock()
	script := s.outcomes[address]
	i := s.calls[address]
	s.calls[address]++
	s.mu.Unlock()

	ok := true
	if len(script) > 0 {
		ok = script[min(i, len(script)-1)]
	}

	diag := "Offline, Ping Timeout"
	if ok {
		diag = "Online, Avg ping: 1.00 ms"
	}

	return models.ProbeResult{Success: ok, Diagnostic: diag, Latency: time.Millisecond}
}

func (s *scriptedProbe) totalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, n := range s.calls {
		total += n
	}

	return total
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.PollInterval = config.Duration(testInterval)

	return cfg
}

func configured(p probe.Probe) []probe.Configured {
	return []probe.Configured{{Probe: p, Timeout: time.Second, Attempts: 1}}
}

func newStore(t *testing.T) *db.SQLiteStore {
	t.Helper()

	store, err := db.New(context.Background(), db.Options{
		Path:       filepath.Join(t.TempDir(), "netmon.db"),
		RetryCount: 2,
		RetryDelay: time.Millisecond,
	}, logger.NewTestLogger())
	require.NoError(t, err)

	t.Cleanup(func() { _ = store.Close() })

	return store
}

func newTestPoller(t *testing.T, cfg *config.Config, deps Dependencies) *Poller {
	t.Helper()

	p, err := New(cfg, deps, logger.NewTestLogger())
	require.NoError(t, err)

	return p
}

// runPoller starts the loop and returns a channel signalled after every
// completed tick once the next timer is armed.
func runPoller(t *testing.T, p *Poller) <-chan struct{} {
	t.Helper()

	idle := make(chan struct{}, 16)
	p.onIdle = func() { idle <- struct{}{} }

	errCh := make(chan error, 1)

	go func() { errCh <- p.Start(context.Background()) }()

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		assert.NoError(t, p.Stop(ctx))
		assert.NoError(t, <-errCh)
	})

	return idle
}

func waitIdle(t *testing.T, idle <-chan struct{}) {
	t.Helper()

	select {
	case <-idle:
	case <-time.After(5 * time.Second):
		t.Fatal("poll cycle did not complete")
	}
}

func statusEvents(q *events.Queue) []*models.StatusEvent {
	var out []*models.StatusEvent

	for _, e := range q.Drain() {
		if se, ok := e.(*models.StatusEvent); ok {
			out = append(out, se)
		}
	}

	return out
}

func TestNew_RequiresStoreAndProbes(t *testing.T) {
	ctrl := gomock.NewController(t)

	_, err := New(testConfig(), Dependencies{Probes: configured(newScriptedProbe(nil))}, logger.NewTestLogger())
	require.ErrorIs(t, err, errNoStore)

	_, err = New(testConfig(), Dependencies{Store: db.NewMockStore(ctrl)}, logger.NewTestLogger())
	require.ErrorIs(t, err, errNoProbes)
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	ctrl := gomock.NewController(t)

	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"zero interval", func(c *config.Config) { c.PollInterval = 0 }},
		{"zero failure threshold", func(c *config.Config) { c.FailureThreshold = 0 }},
		{"zero success threshold", func(c *config.Config) { c.SuccessThreshold = 0 }},
		{"zero pool", func(c *config.Config) { c.MaxConcurrentProbes = 0 }},
		{"no probes", func(c *config.Config) { c.Probes = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)

			p, err := New(cfg, Dependencies{
				Store:  db.NewMockStore(ctrl),
				Probes: configured(newScriptedProbe(nil)),
			}, logger.NewTestLogger())
			require.ErrorIs(t, err, config.ErrInvalidConfig)
			assert.Nil(t, p)
		})
	}

	_, err := New(nil, Dependencies{}, logger.NewTestLogger())
	require.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestPoller_HysteresisScenario(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	id, err := store.AddDevice(ctx, &models.Device{Name: "router", Address: "10.0.0.1"})
	require.NoError(t, err)

	fp := newScriptedProbe(map[string][]bool{"10.0.0.1": {false, false, true, true}})
	queue := events.NewQueue()
	mock := clock.NewMock()

	p := newTestPoller(t, testConfig(), Dependencies{
		Store:  store,
		Probes: configured(fp),
		Events: queue,
		Clock:  mock,
	})

	idle := runPoller(t, p)

	// tick 1: one failure, still Unknown
	waitIdle(t, idle)

	snap := p.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, models.StateUnknown, snap[0].OverallStatus)
	assert.Equal(t, 1, snap[0].ConsecutiveFailures)
	assert.Equal(t, models.ProbeStatusFailed, snap[0].PingStatus)
	assert.Empty(t, statusEvents(queue))

	// acknowledging before the device is Unreachable has no effect
	acked, err := p.AcknowledgeDevice(ctx, id)
	require.NoError(t, err)
	assert.False(t, acked)
	assert.False(t, p.Snapshot()[0].Acknowledged)
	assert.Empty(t, p.Acknowledged())

	// tick 2: Unknown -> Unreachable
	mock.Add(testInterval)
	waitIdle(t, idle)

	assert.Equal(t, models.StateUnreachable, p.Snapshot()[0].OverallStatus)

	evs := statusEvents(queue)
	require.Len(t, evs, 1)
	assert.Equal(t, id, evs[0].DeviceID)
	assert.Equal(t, models.StateUnknown, evs[0].OldState)
	assert.Equal(t, models.StateUnreachable, evs[0].NewState)
	assert.NotEmpty(t, evs[0].ID)

	for range 2 {
		acked, err = p.AcknowledgeDevice(ctx, id)
		require.NoError(t, err)
		assert.True(t, acked)
	}

	assert.True(t, p.Snapshot()[0].Acknowledged)
	assert.Equal(t, []int64{id}, p.Acknowledged())

	// tick 3: first success, hysteresis holds Unreachable
	mock.Add(testInterval)
	waitIdle(t, idle)

	snap = p.Snapshot()
	assert.Equal(t, models.StateUnreachable, snap[0].OverallStatus)
	assert.Equal(t, 1, snap[0].ConsecutiveSuccesses)
	assert.Zero(t, snap[0].ConsecutiveFailures)
	assert.True(t, snap[0].Acknowledged)
	assert.Empty(t, statusEvents(queue))

	// tick 4: Unreachable -> Reachable clears the acknowledgement
	mock.Add(testInterval)
	waitIdle(t, idle)

	snap = p.Snapshot()
	assert.Equal(t, models.StateReachable, snap[0].OverallStatus)
	assert.False(t, snap[0].Acknowledged)
	assert.Empty(t, p.Acknowledged())

	evs = statusEvents(queue)
	require.Len(t, evs, 1)
	assert.Equal(t, models.StateUnreachable, evs[0].OldState)
	assert.Equal(t, models.StateReachable, evs[0].NewState)

	// persisted state and history follow the transitions
	d, err := store.GetDevice(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StateReachable, d.OverallStatus)
	assert.Equal(t, models.ProbeStatusSuccess, d.PingStatus)

	history, err := store.StatusHistory(ctx, id, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.StateReachable, history[0].Status)
	assert.Equal(t, models.StateUnreachable, history[1].Status)
}

func TestPoller_BoundedConcurrency(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := db.NewMockStore(ctrl)

	devices := make([]models.Device, 50)
	for i := range devices {
		devices[i] = models.Device{ID: int64(i + 1), Name: fmt.Sprintf("d%d", i), Address: fmt.Sprintf("10.0.0.%d", i+1)}
	}

	var writes atomic.Int32

	store.EXPECT().ReadAllDevices(gomock.Any()).Return(devices, nil)
	store.EXPECT().WriteStatus(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, *models.StatusUpdate) error {
			writes.Add(1)
			return nil
		}).Times(50)

	fp := newScriptedProbe(nil)
	fp.hold = 10 * time.Millisecond

	cfg := testConfig()
	cfg.MaxConcurrentProbes = 10

	p := newTestPoller(t, cfg, Dependencies{Store: store, Probes: configured(fp)})

	require.NoError(t, p.tick(context.Background()))

	assert.LessOrEqual(t, fp.maxSeen.Load(), int32(10))
	assert.GreaterOrEqual(t, fp.maxSeen.Load(), int32(2))
	assert.Equal(t, int32(50), writes.Load())
	assert.Len(t, p.Snapshot(), 50)
}

func TestPoller_FixedDelay(t *testing.T) {
	store := newStore(t)

	_, err := store.AddDevice(context.Background(), &models.Device{Name: "slow", Address: "10.0.0.9"})
	require.NoError(t, err)

	fp := newScriptedProbe(nil)
	fp.gate = make(chan struct{})
	fp.started = make(chan string, 8)

	mock := clock.NewMock()
	p := newTestPoller(t, testConfig(), Dependencies{Store: store, Probes: configured(fp), Clock: mock})

	idle := runPoller(t, p)

	select {
	case <-fp.started:
	case <-time.After(5 * time.Second):
		t.Fatal("first tick never probed")
	}

	// time passing during a tick does not schedule another one
	mock.Add(5 * testInterval)
	close(fp.gate)
	waitIdle(t, idle)

	assert.Equal(t, 1, fp.totalCalls())

	// the next tick is due one full interval after completion
	mock.Add(testInterval - time.Second)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, fp.totalCalls())

	mock.Add(time.Second)
	waitIdle(t, idle)

	assert.Equal(t, 2, fp.totalCalls())
}

func TestPoller_StoreErrorDoesNotHaltTick(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := db.NewMockStore(ctrl)
	alerter := alerts.NewMockAlertService(ctrl)

	devices := []models.Device{
		{ID: 1, Name: "a", Address: "10.0.0.1"},
		{ID: 2, Name: "b", Address: "10.0.0.2"},
	}

	unavailable := fmt.Errorf("%w after 5 attempts: database is locked", db.ErrStoreUnavailable)

	store.EXPECT().ReadAllDevices(gomock.Any()).Return(devices, nil).Times(2)
	store.EXPECT().WriteStatus(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, u *models.StatusUpdate) error {
			if u.DeviceID == 1 {
				return unavailable
			}

			return nil
		}).Times(4)

	var (
		mu     sync.Mutex
		titles []string
	)

	alerter.EXPECT().IsEnabled().Return(true).AnyTimes()
	alerter.EXPECT().Alert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, a *alerts.Alert) error {
			mu.Lock()
			titles = append(titles, a.Title)
			mu.Unlock()

			return nil
		}).Times(2)

	queue := events.NewQueue()
	collectors := metrics.NewCollectors()

	p := newTestPoller(t, testConfig(), Dependencies{
		Store:      store,
		Probes:     configured(newScriptedProbe(nil)),
		Events:     queue,
		Alerter:    alerter,
		Collectors: collectors,
	})

	require.NoError(t, p.tick(context.Background()))
	require.NoError(t, p.tick(context.Background()))

	var storeErrs []*models.StoreErrorEvent

	snapshots := 0

	for _, e := range queue.Drain() {
		switch ev := e.(type) {
		case *models.StoreErrorEvent:
			storeErrs = append(storeErrs, ev)
		case *models.SnapshotEvent:
			snapshots++

			assert.Len(t, ev.Devices, 2)
		}
	}

	require.Len(t, storeErrs, 2)
	assert.Equal(t, int64(1), storeErrs[0].DeviceID)
	assert.Equal(t, 1, storeErrs[0].Consecutive)
	assert.Equal(t, 2, storeErrs[1].Consecutive)
	assert.Equal(t, 2, snapshots)
	assert.Equal(t, []string{alerts.TitleStoreUnavailable, alerts.TitleStoreUnavailable}, titles)

	// device 2 was unaffected and settled normally
	snap := p.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, models.StateReachable, snap[1].OverallStatus)
}

func TestPoller_RepeatAlertsUntilAcknowledged(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := db.NewMockStore(ctrl)
	alerter := alerts.NewMockAlertService(ctrl)

	devices := []models.Device{{ID: 7, Name: "core", Address: "10.0.0.7"}}

	store.EXPECT().ReadAllDevices(gomock.Any()).Return(devices, nil).AnyTimes()
	store.EXPECT().WriteStatus(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	var titles []string

	alerter.EXPECT().IsEnabled().Return(true).AnyTimes()
	alerter.EXPECT().Alert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, a *alerts.Alert) error {
			titles = append(titles, a.Title)
			return nil
		}).AnyTimes()

	cfg := testConfig()
	cfg.FailureThreshold = 1

	p := newTestPoller(t, cfg, Dependencies{
		Store:   store,
		Probes:  configured(newScriptedProbe(map[string][]bool{"10.0.0.7": {false}})),
		Alerter: alerter,
	})

	ctx := context.Background()

	require.NoError(t, p.tick(ctx))
	require.NoError(t, p.tick(ctx))

	reply := make(chan bool, 1)
	p.handleAck(ackRequest{id: 7, reply: reply})
	require.True(t, <-reply)

	require.NoError(t, p.tick(ctx))

	assert.Equal(t, []string{alerts.TitleUnreachable, alerts.TitleStillUnreachable}, titles)
	assert.True(t, p.Snapshot()[0].Acknowledged)
}

func TestPoller_NoRepeatWhenDisabled(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := db.NewMockStore(ctrl)
	alerter := alerts.NewMockAlertService(ctrl)

	store.EXPECT().ReadAllDevices(gomock.Any()).
		Return([]models.Device{{ID: 1, Name: "x", Address: "10.0.0.1"}}, nil).AnyTimes()
	store.EXPECT().WriteStatus(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	alerter.EXPECT().IsEnabled().Return(true).AnyTimes()
	alerter.EXPECT().Alert(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	repeat := false
	cfg := testConfig()
	cfg.FailureThreshold = 1
	cfg.Alerts.RepeatWhileUnreachable = &repeat

	p := newTestPoller(t, cfg, Dependencies{
		Store:   store,
		Probes:  configured(newScriptedProbe(map[string][]bool{"10.0.0.1": {false}})),
		Alerter: alerter,
	})

	for i := 0; i < 3; i++ {
		require.NoError(t, p.tick(context.Background()))
	}
}

func TestPoller_DiscardsResultsAfterStop(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	id, err := store.AddDevice(ctx, &models.Device{Name: "late", Address: "10.0.0.3"})
	require.NoError(t, err)

	fp := newScriptedProbe(nil)
	fp.gate = make(chan struct{})
	fp.started = make(chan string, 1)

	p := newTestPoller(t, testConfig(), Dependencies{Store: store, Probes: configured(fp)})

	errCh := make(chan error, 1)

	go func() { errCh <- p.Start(ctx) }()

	select {
	case <-fp.started:
	case <-time.After(5 * time.Second):
		t.Fatal("probe never started")
	}

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	require.NoError(t, p.Stop(stopCtx))
	require.NoError(t, <-errCh)

	close(fp.gate)
	time.Sleep(50 * time.Millisecond)

	d, err := store.GetDevice(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.ProbeStatusNone, d.PingStatus)
	assert.True(t, d.LastChecked.IsZero())
	assert.Empty(t, p.Snapshot())

	_, err = p.AcknowledgeDevice(ctx, id)
	require.ErrorIs(t, err, ErrStopped)
}

func TestTick_CanceledContextAppliesNoResults(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := db.NewMockStore(ctrl)

	devices := make([]models.Device, 0, 8)
	for i := 1; i <= 8; i++ {
		devices = append(devices, models.Device{ID: int64(i), Name: fmt.Sprintf("d%d", i), Address: fmt.Sprintf("10.0.1.%d", i)})
	}

	store.EXPECT().ReadAllDevices(gomock.Any()).Return(devices, nil).AnyTimes()
	store.EXPECT().WriteStatus(gomock.Any(), gomock.Any()).Times(0)

	p := newTestPoller(t, testConfig(), Dependencies{Store: store, Probes: configured(newScriptedProbe(nil))})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Results race with the canceled context; none may be applied.
	for range 50 {
		require.ErrorIs(t, p.tick(ctx), errTickAborted)
	}

	p.writes.Wait()

	for _, d := range devices {
		rec, ok := p.machine.Get(d.ID)
		require.True(t, ok)
		assert.Zero(t, rec.ConsecutiveFailures)
		assert.Zero(t, rec.ConsecutiveSuccesses)
	}

	assert.Empty(t, p.Snapshot())
}

func TestReconcile_WarnsOncePerDuplicateAddress(t *testing.T) {
	ctrl := gomock.NewController(t)

	var buf bytes.Buffer

	p, err := New(testConfig(), Dependencies{
		Store:  db.NewMockStore(ctrl),
		Probes: configured(newScriptedProbe(nil)),
	}, logger.NewWithWriter(&buf, zerolog.DebugLevel))
	require.NoError(t, err)

	devices := []models.Device{
		{ID: 1, Name: "a", Address: "10.0.2.1"},
		{ID: 2, Name: "b", Address: "10.0.2.1"},
		{ID: 3, Name: "c", Address: "10.0.2.3"},
	}

	p.reconcile(devices)
	p.reconcile(devices)

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "Multiple devices share an address"))
	assert.Contains(t, out, `"address":"10.0.2.1"`)
	assert.Contains(t, out, `"device_ids":[1,2]`)
	assert.NotContains(t, out, "10.0.2.3")
}

func TestPoller_ForgetsRemovedDevices(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := db.NewMockStore(ctrl)
	latency := metrics.NewMockMetricCollector(ctrl)

	both := []models.Device{
		{ID: 1, Name: "a", Address: "10.0.0.1"},
		{ID: 2, Name: "b", Address: "10.0.0.1"},
	}

	gomock.InOrder(
		store.EXPECT().ReadAllDevices(gomock.Any()).Return(both, nil),
		store.EXPECT().ReadAllDevices(gomock.Any()).Return(both[:1], nil),
	)
	store.EXPECT().WriteStatus(gomock.Any(), gomock.Any()).Return(nil).Times(3)

	latency.EXPECT().AddMetric(gomock.Any(), gomock.Any(), time.Millisecond, models.ProbePing).Times(3)
	latency.EXPECT().Forget(int64(2))

	p := newTestPoller(t, testConfig(), Dependencies{
		Store:   store,
		Probes:  configured(newScriptedProbe(nil)),
		Latency: latency,
	})

	require.NoError(t, p.tick(context.Background()))
	assert.Equal(t, 2, p.machine.Len())

	require.NoError(t, p.tick(context.Background()))
	assert.Equal(t, 1, p.machine.Len())
	assert.Len(t, p.Snapshot(), 1)
}

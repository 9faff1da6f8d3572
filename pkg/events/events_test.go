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

package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/mfreeman451/netmon/pkg/logger"
	"github.com/mfreeman451/netmon/pkg/models"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func statusEvent(id int64) *models.StatusEvent {
	return &models.StatusEvent{
		ID:        "evt",
		DeviceID:  id,
		OldState:  models.StateUnknown,
		NewState:  models.StateUnreachable,
		Timestamp: time.Now(),
	}
}

// recorder collects delivered events.
type recorder struct {
	mu     sync.Mutex
	events []models.Event
}

func (r *recorder) Handle(_ context.Context, e models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, e)

	return nil
}

func (r *recorder) deviceIDs() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]int64, 0, len(r.events))

	for _, e := range r.events {
		if se, ok := e.(*models.StatusEvent); ok {
			ids = append(ids, se.DeviceID)
		}
	}

	return ids
}

func TestQueue_PublishNeverBlocks(t *testing.T) {
	q := NewQueue()

	done := make(chan struct{})

	go func() {
		defer close(done)

		for i := 0; i < 10000; i++ {
			q.Publish(statusEvent(int64(i)))
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Publish blocked without a consumer")
	}

	assert.Equal(t, 10000, q.Len())

	drained := q.Drain()
	require.Len(t, drained, 10000)
	assert.Equal(t, int64(0), drained[0].(*models.StatusEvent).DeviceID)
	assert.Equal(t, int64(9999), drained[9999].(*models.StatusEvent).DeviceID)
	assert.Empty(t, q.Drain())
}

func TestQueue_Close(t *testing.T) {
	q := NewQueue()

	assert.True(t, q.Publish(statusEvent(1)))
	q.Close()
	q.Close()

	assert.False(t, q.Publish(statusEvent(2)))
	assert.True(t, q.Closed())
	assert.Len(t, q.Drain(), 1)
}

func TestDispatcher_BlockingMode(t *testing.T) {
	q := NewQueue()
	rec := &recorder{}

	d := NewDispatcher(q, logger.NewTestLogger())
	d.AddHandler(rec)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)

	go func() { errCh <- d.Run(ctx) }()

	for i := int64(1); i <= 5; i++ {
		q.Publish(statusEvent(i))
	}

	require.Eventually(t, func() bool { return len(rec.deviceIDs()) == 5 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, rec.deviceIDs())

	q.Close()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not stop after queue close")
	}
}

func TestDispatcher_TimerMode(t *testing.T) {
	q := NewQueue()
	rec := &recorder{}
	mock := clock.NewMock()

	d := NewDispatcher(q, logger.NewTestLogger(), WithDrainInterval(time.Second), WithClock(mock))
	d.AddHandler(rec)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)

	go func() { errCh <- d.Run(ctx) }()

	q.Publish(statusEvent(9))

	require.Eventually(t, func() bool {
		mock.Add(time.Second)

		return len(rec.deviceIDs()) == 1
	}, 2*time.Second, 5*time.Millisecond)

	// Events still queued at shutdown are delivered before Run returns.
	q.Publish(statusEvent(10))
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not stop")
	}

	assert.Equal(t, []int64{9, 10}, rec.deviceIDs())
}

func TestDispatcher_HandlerFailuresIsolated(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	failing := NewMockHandler(ctrl)
	failing.EXPECT().Handle(gomock.Any(), gomock.Any()).Return(errors.New("sink down")).Times(2)

	rec := &recorder{}
	q := NewQueue()

	d := NewDispatcher(q, logger.NewTestLogger())
	d.AddHandler(HandlerFunc(func(context.Context, models.Event) error { panic("bad handler") }))
	d.AddHandler(failing)
	d.AddHandler(rec)

	q.Publish(statusEvent(1))
	q.Publish(statusEvent(2))
	q.Close()

	require.NoError(t, d.Run(context.Background()))
	assert.Equal(t, []int64{1, 2}, rec.deviceIDs())
}

func TestBroadcaster(t *testing.T) {
	b := NewBroadcaster(1)

	ch1, cancel1 := b.Subscribe()
	ch2, cancel2 := b.Subscribe()
	assert.Equal(t, 2, b.Subscribers())

	require.NoError(t, b.Handle(context.Background(), statusEvent(1)))
	// Buffer of one is full; this event is dropped for both.
	require.NoError(t, b.Handle(context.Background(), statusEvent(2)))

	assert.Equal(t, int64(1), (<-ch1).(*models.StatusEvent).DeviceID)
	assert.Equal(t, int64(1), (<-ch2).(*models.StatusEvent).DeviceID)

	cancel1()
	cancel1()
	assert.Equal(t, 1, b.Subscribers())

	_, open := <-ch1
	assert.False(t, open)

	cancel2()
	assert.Zero(t, b.Subscribers())
}

func runNATSServer(t *testing.T) *server.Server {
	t.Helper()

	srv, err := server.NewServer(&server.Options{Host: "127.0.0.1", Port: -1})
	require.NoError(t, err)

	go srv.Start()

	if !srv.ReadyForConnections(10 * time.Second) {
		srv.Shutdown()
		t.Fatalf("embedded NATS server not ready for connections")
	}

	t.Cleanup(srv.Shutdown)

	return srv
}

func TestNATSPublisher(t *testing.T) {
	srv := runNATSServer(t)

	sub, err := nats.Connect(srv.ClientURL())
	require.NoError(t, err)

	defer sub.Close()

	msgs, err := sub.SubscribeSync("netmon.events.>")
	require.NoError(t, err)
	require.NoError(t, sub.Flush())

	p, err := ConnectNATS(srv.ClientURL(), "netmon.events", []models.EventKind{models.EventStatus}, logger.NewTestLogger())
	require.NoError(t, err)

	defer func() { _ = p.Close() }()

	// Snapshot events are filtered out.
	require.NoError(t, p.Handle(context.Background(), &models.SnapshotEvent{Timestamp: time.Now()}))
	require.NoError(t, p.Handle(context.Background(), statusEvent(77)))

	msg, err := msgs.NextMsg(5 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, "netmon.events.status", msg.Subject)

	var got struct {
		Kind models.EventKind   `json:"kind"`
		Data models.StatusEvent `json:"data"`
	}

	require.NoError(t, json.Unmarshal(msg.Data, &got))
	assert.Equal(t, models.EventStatus, got.Kind)
	assert.Equal(t, int64(77), got.Data.DeviceID)
	assert.Equal(t, models.StateUnreachable, got.Data.NewState)

	_, err = msgs.NextMsg(100 * time.Millisecond)
	assert.ErrorIs(t, err, nats.ErrTimeout)
}

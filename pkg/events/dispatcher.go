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
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/mfreeman451/netmon/pkg/logger"
	"github.com/mfreeman451/netmon/pkg/models"
)

// Dispatcher is the single consumer of a Queue. Handlers run serially on
// the goroutine that called Run, in registration order.
type Dispatcher struct {
	queue    *Queue
	handlers []Handler
	interval time.Duration
	clock    clock.Clock
	logger   logger.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDrainInterval makes the dispatcher poll the queue on a fixed timer
// instead of waiting on its ready signal.
func WithDrainInterval(d time.Duration) DispatcherOption {
	return func(disp *Dispatcher) {
		disp.interval = d
	}
}

// WithClock sets the clock used for the drain timer.
func WithClock(c clock.Clock) DispatcherOption {
	return func(disp *Dispatcher) {
		disp.clock = c
	}
}

func NewDispatcher(queue *Queue, log logger.Logger, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		queue:  queue,
		clock:  clock.New(),
		logger: log.WithComponent("events"),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// AddHandler registers h. It must be called before Run.
func (d *Dispatcher) AddHandler(h Handler) {
	d.handlers = append(d.handlers, h)
}

// Run delivers events until ctx is done or the queue is closed, then
// delivers whatever is still queued and returns.
func (d *Dispatcher) Run(ctx context.Context) error {
	var tick <-chan time.Time

	if d.interval > 0 {
		ticker := d.clock.Ticker(d.interval)
		defer ticker.Stop()

		tick = ticker.C
	}

	for {
		if tick != nil {
			select {
			case <-ctx.Done():
				d.flush(context.WithoutCancel(ctx))

				return ctx.Err()
			case <-tick:
			}
		} else {
			select {
			case <-ctx.Done():
				d.flush(context.WithoutCancel(ctx))

				return ctx.Err()
			case <-d.queue.Ready():
			}
		}

		d.flush(ctx)

		if d.queue.Closed() && d.queue.Len() == 0 {
			return nil
		}
	}
}

func (d *Dispatcher) flush(ctx context.Context) {
	for _, e := range d.queue.Drain() {
		d.dispatch(ctx, e)
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, e models.Event) {
	for _, h := range d.handlers {
		if err := d.safeHandle(ctx, h, e); err != nil {
			d.logger.Warn().Err(err).Str("kind", string(e.Kind())).Msg("Event handler failed")
		}
	}
}

func (*Dispatcher) safeHandle(ctx context.Context, h Handler, e models.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errHandlerPanic, r)
		}
	}()

	return h.Handle(ctx, e)
}

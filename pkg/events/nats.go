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
	"fmt"
	"time"

	"github.com/mfreeman451/netmon/pkg/logger"
	"github.com/mfreeman451/netmon/pkg/models"
	"github.com/nats-io/nats.go"
)

const (
	natsConnectTimeout = 5 * time.Second
	natsReconnectWait  = 2 * time.Second
)

// Envelope is the wire form of an event published to NATS.
type Envelope struct {
	Kind models.EventKind `json:"kind"`
	Data models.Event     `json:"data"`
}

// NATSPublisher is a Handler that publishes events as JSON to
// "<subject>.<kind>".
type NATSPublisher struct {
	nc      *nats.Conn
	subject string
	kinds   map[models.EventKind]bool
	logger  logger.Logger
}

// ConnectNATS dials the server and returns a publisher for subject. When
// kinds is empty every event kind is published.
func ConnectNATS(natsURL, subject string, kinds []models.EventKind, log logger.Logger, extraOpts ...nats.Option) (*NATSPublisher, error) {
	log = log.WithComponent("events.nats")

	opts := []nats.Option{
		nats.Name("netmon"),
		nats.Timeout(natsConnectTimeout),
		nats.ReconnectWait(natsReconnectWait),
		nats.MaxReconnects(-1),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	opts = append(opts, extraOpts...)

	nc, err := nats.Connect(natsURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	p := &NATSPublisher{
		nc:      nc,
		subject: subject,
		kinds:   make(map[models.EventKind]bool, len(kinds)),
		logger:  log,
	}

	for _, k := range kinds {
		p.kinds[k] = true
	}

	log.Info().Str("url", nc.ConnectedUrl()).Str("subject", subject).Msg("Connected to NATS")

	return p, nil
}

func (p *NATSPublisher) Handle(_ context.Context, e models.Event) error {
	if len(p.kinds) > 0 && !p.kinds[e.Kind()] {
		return nil
	}

	if p.nc == nil || p.nc.IsClosed() {
		return errNotConnected
	}

	data, err := json.Marshal(Envelope{Kind: e.Kind(), Data: e})
	if err != nil {
		return fmt.Errorf("%w: %w", errMarshalEvent, err)
	}

	if err := p.nc.Publish(p.subject+"."+string(e.Kind()), data); err != nil {
		return fmt.Errorf("%w: %w", errPublishFailed, err)
	}

	return nil
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	if p.nc == nil || p.nc.IsClosed() {
		return nil
	}

	err := p.nc.Drain()
	if err != nil {
		p.nc.Close()
	}

	return err
}

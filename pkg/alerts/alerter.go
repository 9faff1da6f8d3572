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

package alerts

import (
	"context"
	"errors"

	"github.com/mfreeman451/netmon/pkg/config"
	"github.com/mfreeman451/netmon/pkg/logger"
	"github.com/rs/zerolog"
	"go.uber.org/multierr"
)

// LogAlerter writes alerts to the structured log.
type LogAlerter struct {
	logger logger.Logger
}

func NewLogAlerter(log logger.Logger) *LogAlerter {
	return &LogAlerter{logger: log.WithComponent("alerts")}
}

func (*LogAlerter) IsEnabled() bool {
	return true
}

func (l *LogAlerter) Alert(_ context.Context, alert *Alert) error {
	var event *zerolog.Event

	switch alert.Level {
	case Error:
		event = l.logger.Error()
	case Warning:
		event = l.logger.Warn()
	case Info:
		event = l.logger.Info()
	default:
		event = l.logger.Info()
	}

	event.
		Str("title", alert.Title).
		Int64("device_id", alert.DeviceID).
		Str("device_name", alert.DeviceName).
		Str("address", alert.Address).
		Fields(alert.Details).
		Msg(alert.Message)

	return nil
}

// MultiAlerter sends each alert to every enabled alerter.
type MultiAlerter struct {
	alerters []AlertService
}

func NewMultiAlerter(alerters ...AlertService) *MultiAlerter {
	return &MultiAlerter{alerters: alerters}
}

func (m *MultiAlerter) IsEnabled() bool {
	for _, a := range m.alerters {
		if a.IsEnabled() {
			return true
		}
	}

	return false
}

// Alert delivers to every enabled alerter. Cooldown suppression is not an
// error; any other failures are combined.
func (m *MultiAlerter) Alert(ctx context.Context, alert *Alert) error {
	var err error

	for _, a := range m.alerters {
		if !a.IsEnabled() {
			continue
		}

		if aErr := a.Alert(ctx, alert); aErr != nil && !errors.Is(aErr, errWebhookCooldown) {
			err = multierr.Append(err, aErr)
		}
	}

	return err
}

// FromConfig builds the alert service for cfg: a log alerter plus one
// webhook alerter per enabled webhook.
func FromConfig(cfg *config.AlertsConfig, log logger.Logger) (*MultiAlerter, error) {
	alerters := []AlertService{NewLogAlerter(log)}

	for _, wh := range cfg.Webhooks {
		if !wh.Enabled {
			continue
		}

		w, err := NewWebhookAlerter(wh, log)
		if err != nil {
			return nil, err
		}

		alerters = append(alerters, w)
	}

	return NewMultiAlerter(alerters...), nil
}

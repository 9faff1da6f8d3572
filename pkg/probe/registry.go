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

package probe

import (
	"fmt"
	"time"

	"github.com/mfreeman451/netmon/pkg/config"
	"github.com/mfreeman451/netmon/pkg/logger"
	"github.com/mfreeman451/netmon/pkg/models"
)

// Factory builds a Probe from the daemon configuration.
type Factory func(cfg *config.Config, log logger.Logger) (Probe, error)

// Registry maps probe kinds to factories.
type Registry struct {
	factories map[models.ProbeKind]Factory
}

// Configured is a probe together with the per-check budget it runs under.
type Configured struct {
	Probe    Probe
	Timeout  time.Duration
	Attempts int
}

func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[models.ProbeKind]Factory),
	}
}

// DefaultRegistry returns a registry with the ping and SNMP probes.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(models.ProbePing, func(cfg *config.Config, log logger.Logger) (Probe, error) {
		return NewPingProbe(PingOptions{Privileged: cfg.Ping.Privileged}, log), nil
	})

	r.Register(models.ProbeSNMP, func(cfg *config.Config, log logger.Logger) (Probe, error) {
		return NewSNMPProbe(SNMPOptions{
			Community: cfg.SNMP.Community,
			OID:       cfg.SNMP.OID,
			Port:      cfg.SNMP.Port,
			Version:   cfg.SNMP.Version,
		}, log)
	})

	return r
}

func (r *Registry) Register(kind models.ProbeKind, factory Factory) {
	r.factories[kind] = factory
}

// Build creates every probe listed in cfg.Probes, wrapped with Safe.
func (r *Registry) Build(cfg *config.Config, log logger.Logger) ([]Configured, error) {
	probes := make([]Configured, 0, len(cfg.Probes))

	for _, kind := range cfg.Probes {
		f, ok := r.factories[kind]
		if !ok {
			return nil, fmt.Errorf("%w: %s", errNoProbe, kind)
		}

		p, err := f(cfg, log)
		if err != nil {
			return nil, fmt.Errorf("failed to build %s probe: %w", kind, err)
		}

		c := Configured{Probe: Safe(p)}

		switch kind {
		case models.ProbePing:
			c.Timeout, c.Attempts = time.Duration(cfg.Ping.Timeout), cfg.Ping.Attempts
		case models.ProbeSNMP:
			c.Timeout, c.Attempts = time.Duration(cfg.SNMP.Timeout), cfg.SNMP.Attempts
		default:
			c.Timeout, c.Attempts = time.Duration(cfg.Ping.Timeout), 1
		}

		probes = append(probes, c)
	}

	return probes, nil
}

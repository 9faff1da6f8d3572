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

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mfreeman451/netmon/pkg/models"
)

const (
	defaultPollInterval     = 60 * time.Second
	defaultPingAttempts     = 3
	defaultPingTimeout      = time.Second
	defaultSNMPCommunity    = "public"
	defaultSNMPOID          = ".1.3.6.1.2.1.1.1.0" // sysDescr.0
	defaultSNMPPort         = 161
	defaultSNMPVersion      = "v2c"
	defaultSNMPTimeout      = 2 * time.Second
	defaultSNMPAttempts     = 1
	defaultThreshold        = 2
	defaultMaxConcurrent    = 10
	defaultStorePath        = "netmon.db"
	defaultRetryCount       = 5
	defaultRetryDelay       = 500 * time.Millisecond
	defaultDrainInterval    = time.Second
	defaultNATSSubject      = "netmon.events"
	defaultListenAddr       = ":8090"
	defaultSyslogListenAddr = ":514"
	defaultSyslogLogPath    = "log/syslog.log"
	defaultMetricsRetention = 100
)

// Default returns a configuration with every field at its default.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()

	return cfg
}

// applyDefaults fills zero-valued fields. Explicit invalid values are left
// for Validate to reject.
func (c *Config) applyDefaults() {
	if c.PollInterval == 0 {
		c.PollInterval = Duration(defaultPollInterval)
	}

	if len(c.Probes) == 0 {
		c.Probes = []models.ProbeKind{models.ProbePing, models.ProbeSNMP}
	}

	if c.Ping.Attempts == 0 {
		c.Ping.Attempts = defaultPingAttempts
	}

	if c.Ping.Timeout == 0 {
		c.Ping.Timeout = Duration(defaultPingTimeout)
	}

	c.applySNMPDefaults()

	if c.FailureThreshold == 0 {
		c.FailureThreshold = defaultThreshold
	}

	if c.SuccessThreshold == 0 {
		c.SuccessThreshold = defaultThreshold
	}

	if c.MaxConcurrentProbes == 0 {
		c.MaxConcurrentProbes = defaultMaxConcurrent
	}

	if c.Store.Path == "" {
		c.Store.Path = defaultStorePath
	}

	if c.Store.RetryCount == 0 {
		c.Store.RetryCount = defaultRetryCount
	}

	if c.Store.RetryDelay == 0 {
		c.Store.RetryDelay = Duration(defaultRetryDelay)
	}

	if c.Events.DrainInterval == 0 {
		c.Events.DrainInterval = Duration(defaultDrainInterval)
	}

	if c.Events.NATSURL != "" && c.Events.NATSSubject == "" {
		c.Events.NATSSubject = defaultNATSSubject
	}

	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = defaultListenAddr
	}

	if c.Metrics.Retention == 0 {
		c.Metrics.Retention = defaultMetricsRetention
	}

	if c.Tools.Syslog.Enabled {
		if c.Tools.Syslog.ListenAddr == "" {
			c.Tools.Syslog.ListenAddr = defaultSyslogListenAddr
		}

		if c.Tools.Syslog.LogPath == "" {
			c.Tools.Syslog.LogPath = defaultSyslogLogPath
		}
	}
}

func (c *Config) applySNMPDefaults() {
	if c.SNMP.Community == "" {
		c.SNMP.Community = defaultSNMPCommunity
	}

	if c.SNMP.OID == "" {
		c.SNMP.OID = defaultSNMPOID
	}

	if !strings.HasPrefix(c.SNMP.OID, ".") {
		c.SNMP.OID = "." + c.SNMP.OID
	}

	if c.SNMP.Port == 0 {
		c.SNMP.Port = defaultSNMPPort
	}

	if c.SNMP.Version == "" {
		c.SNMP.Version = defaultSNMPVersion
	}

	if c.SNMP.Timeout == 0 {
		c.SNMP.Timeout = Duration(defaultSNMPTimeout)
	}

	if c.SNMP.Attempts == 0 {
		c.SNMP.Attempts = defaultSNMPAttempts
	}
}

// Validate implements the Validator interface. Defaults are applied to
// unset fields first; any remaining invalid value is fatal at startup.
func (c *Config) Validate() error {
	c.applyDefaults()

	return c.Check()
}

// Check validates c as it stands, without filling defaults. Zero values of
// required settings are rejected.
func (c *Config) Check() error {
	checks := []struct {
		bad bool
		msg string
	}{
		{time.Duration(c.PollInterval) <= 0, "poll_interval must be positive"},
		{c.FailureThreshold < 1, "failure_threshold must be at least 1"},
		{c.SuccessThreshold < 1, "success_threshold must be at least 1"},
		{c.MaxConcurrentProbes < 1, "max_concurrent_probes must be at least 1"},
		{c.Ping.Attempts < 1, "ping.attempts must be at least 1"},
		{time.Duration(c.Ping.Timeout) <= 0, "ping.timeout must be positive"},
		{c.SNMP.Attempts < 1, "snmp.attempts must be at least 1"},
		{time.Duration(c.SNMP.Timeout) <= 0, "snmp.timeout must be positive"},
		{c.SNMP.Version != "v1" && c.SNMP.Version != "v2c", "snmp.version must be v1 or v2c"},
		{!isValidOID(c.SNMP.OID), "snmp.oid is not a numeric OID"},
		{c.Store.RetryCount < 1, "store.retry_count must be at least 1"},
		{time.Duration(c.Store.RetryDelay) < 0, "store.retry_delay must not be negative"},
		{time.Duration(c.Events.DrainInterval) <= 0, "events.drain_interval must be positive"},
		{c.Metrics.Retention < 1, "metrics.metrics_retention must be at least 1"},
		{len(c.Probes) == 0, "probes must list at least one probe kind"},
	}

	for _, check := range checks {
		if check.bad {
			return fmt.Errorf("%w: %s", ErrInvalidConfig, check.msg)
		}
	}

	seen := make([]models.ProbeKind, 0, len(c.Probes))

	for _, kind := range c.Probes {
		if kind != models.ProbePing && kind != models.ProbeSNMP {
			return fmt.Errorf("%w: unknown probe kind %q", ErrInvalidConfig, kind)
		}

		if models.ContainsKind(seen, kind) {
			return fmt.Errorf("%w: probe kind %q listed twice", ErrInvalidConfig, kind)
		}

		seen = append(seen, kind)
	}

	for i, wh := range c.Alerts.Webhooks {
		if wh.Enabled && wh.URL == "" {
			return fmt.Errorf("%w: webhook %d has no url", ErrInvalidConfig, i+1)
		}
	}

	return nil
}

func isValidOID(oid string) bool {
	if !strings.HasPrefix(oid, ".") || len(oid) < 2 {
		return false
	}

	// Check each part is a valid number
	parts := strings.Split(oid[1:], ".")
	for _, part := range parts {
		if part == "" {
			return false
		}

		for _, r := range part {
			if r < '0' || r > '9' {
				return false
			}
		}
	}

	return true
}

package config

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mfreeman451/netmon/pkg/logger"
	"github.com/mfreeman451/netmon/pkg/models"
)

type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		// parse numeric as nanoseconds
		*d = Duration(time.Duration(value))
		return nil
	case string:
		dur, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}

		*d = Duration(dur)

		return nil
	default:
		return errInvalidDuration
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// PingConfig configures the ICMP echo probe.
type PingConfig struct {
	Attempts   int      `json:"attempts"`
	Timeout    Duration `json:"timeout"`
	Privileged bool     `json:"privileged"` // raw ip4:icmp socket instead of udp4
}

// SNMPConfig configures the SNMP GET probe.
type SNMPConfig struct {
	Community string   `json:"community"`
	OID       string   `json:"oid"`
	Port      uint16   `json:"port"`
	Version   string   `json:"version"` // "v1" or "v2c"
	Timeout   Duration `json:"timeout"`
	Attempts  int      `json:"attempts"`
}

// StoreConfig configures the sqlite store and its write retry budget.
type StoreConfig struct {
	Path       string   `json:"path"`
	RetryCount int      `json:"retry_count"`
	RetryDelay Duration `json:"retry_delay"`
}

// EventsConfig configures the event channel consumer and optional NATS sink.
type EventsConfig struct {
	DrainInterval Duration `json:"drain_interval"`
	Blocking      bool     `json:"blocking"` // wait on the queue instead of polling every drain_interval
	NATSURL       string   `json:"nats_url,omitempty"`
	NATSSubject   string   `json:"nats_subject,omitempty"`
}

// WebhookConfig represents a webhook notification configuration.
type WebhookConfig struct {
	Enabled  bool     `json:"enabled"`
	URL      string   `json:"url"`
	Cooldown Duration `json:"cooldown"`
	Template string   `json:"template"`
	Discord  bool     `json:"discord"`
	Headers  []Header `json:"headers,omitempty"` // Optional custom headers
}

// Header represents a custom HTTP header.
type Header struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// AlertsConfig configures the alert side-effect.
type AlertsConfig struct {
	RepeatWhileUnreachable *bool           `json:"repeat_while_unreachable,omitempty"`
	Webhooks               []WebhookConfig `json:"webhooks,omitempty"`
}

// Repeat reports whether unacknowledged unreachable devices re-alert every tick.
func (a AlertsConfig) Repeat() bool {
	if a.RepeatWhileUnreachable == nil {
		return true
	}

	return *a.RepeatWhileUnreachable
}

// SyslogToolConfig configures the syslog receiver tool.
type SyslogToolConfig struct {
	Enabled    bool   `json:"enabled"`
	ListenAddr string `json:"listen_addr"`
	LogPath    string `json:"log_path"`
}

// ToolsConfig lists the auxiliary tools that run alongside the engine.
type ToolsConfig struct {
	Syslog SyslogToolConfig `json:"syslog"`
}

// Config represents the configuration of the monitoring daemon.
type Config struct {
	PollInterval        Duration             `json:"poll_interval"`
	Probes              []models.ProbeKind   `json:"probes"`
	Ping                PingConfig           `json:"ping"`
	SNMP                SNMPConfig           `json:"snmp"`
	FailureThreshold    int                  `json:"failure_threshold"`
	SuccessThreshold    int                  `json:"success_threshold"`
	MaxConcurrentProbes int                  `json:"max_concurrent_probes"`
	Store               StoreConfig          `json:"store"`
	Events              EventsConfig         `json:"events"`
	Alerts              AlertsConfig         `json:"alerts"`
	Server              models.ServerConfig  `json:"http"`
	Tools               ToolsConfig          `json:"tools"`
	Metrics             models.MetricsConfig `json:"metrics"`
	Logging             *logger.Config       `json:"logging,omitempty"`
}

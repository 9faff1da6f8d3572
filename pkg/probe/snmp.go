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
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/gosnmp/gosnmp"
	"github.com/mfreeman451/netmon/pkg/logger"
	"github.com/mfreeman451/netmon/pkg/models"
)

const (
	defaultSNMPPort    = 161
	maxDiagnosticValue = 64
)

// SNMPOptions configures an SNMPProbe.
type SNMPOptions struct {
	Community string
	OID       string
	Port      uint16
	Version   string
}

// SNMPProbe issues a single SNMP GET for one OID.
type SNMPProbe struct {
	community string
	oid       string
	port      uint16
	version   gosnmp.SnmpVersion
	logger    logger.Logger
}

func NewSNMPProbe(opts SNMPOptions, log logger.Logger) (*SNMPProbe, error) {
	p := &SNMPProbe{
		community: opts.Community,
		oid:       opts.OID,
		port:      opts.Port,
		logger:    log.WithComponent("probe.snmp"),
	}

	if p.port == 0 {
		p.port = defaultSNMPPort
	}

	switch opts.Version {
	case "v1":
		p.version = gosnmp.Version1
	case "", "v2c":
		p.version = gosnmp.Version2c
	default:
		return nil, fmt.Errorf("%w: %s", errUnsupportedSNMP, opts.Version)
	}

	return p, nil
}

func (*SNMPProbe) Kind() models.ProbeKind {
	return models.ProbeSNMP
}

func (p *SNMPProbe) Check(ctx context.Context, address string, timeout time.Duration, attempts int) models.ProbeResult {
	if attempts < 1 {
		attempts = 1
	}

	ctx, cancel := context.WithTimeout(ctx, timeout*time.Duration(attempts))
	defer cancel()

	result := models.ProbeResult{Kind: models.ProbeSNMP}

	if address == "" {
		result.Diagnostic = fmt.Sprintf("Offline, SNMP error: %v", errEmptyAddress)

		return stamp(result)
	}

	client := &gosnmp.GoSNMP{
		Target:    address,
		Port:      p.port,
		Community: p.community,
		Version:   p.version,
		Timeout:   timeout,
		Retries:   attempts - 1,
		Context:   ctx,
		MaxOids:   gosnmp.MaxOids,
	}

	if err := client.Connect(); err != nil {
		result.Diagnostic = fmt.Sprintf("Offline, SNMP connect failed: %v", err)

		return stamp(result)
	}
	defer func() { _ = client.Conn.Close() }()

	start := time.Now()

	packet, err := client.Get([]string{p.oid})
	if err != nil {
		p.logger.Debug().Err(err).Str("address", address).Str("oid", p.oid).Msg("SNMP get failed")
		result.Diagnostic = fmt.Sprintf("Offline, SNMP error: %v", err)

		return stamp(result)
	}

	value, err := checkResponse(packet)
	if err != nil {
		result.Diagnostic = fmt.Sprintf("Offline, SNMP error: %v", err)

		return stamp(result)
	}

	result.Success = true
	result.Latency = time.Since(start)
	result.Diagnostic = "Online, SNMP: " + value

	return stamp(result)
}

// checkResponse accepts only an error-free response whose first variable
// carries a value.
func checkResponse(packet *gosnmp.SnmpPacket) (string, error) {
	if packet.Error != gosnmp.NoError {
		return "", fmt.Errorf("error status %v at index %d", packet.Error, packet.ErrorIndex)
	}

	if len(packet.Variables) == 0 {
		return "", errNoVariables
	}

	variable := packet.Variables[0]

	switch variable.Type {
	case gosnmp.NoSuchObject, gosnmp.NoSuchInstance, gosnmp.EndOfMibView, gosnmp.Null:
		return "", fmt.Errorf("%s: %v", variable.Name, variable.Type)
	case gosnmp.OctetString:
		b, _ := variable.Value.([]byte)

		return truncate(string(b)), nil
	default:
		return truncate(fmt.Sprint(variable.Value)), nil
	}
}

func truncate(s string) string {
	if len(s) <= maxDiagnosticValue {
		return s
	}

	cut := maxDiagnosticValue
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}

	return s[:cut] + "..."
}

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
	"net"
	"strings"
	"testing"
	"time"

	"github.com/gosnmp/gosnmp"
	"github.com/mfreeman451/netmon/pkg/config"
	"github.com/mfreeman451/netmon/pkg/logger"
	"github.com/mfreeman451/netmon/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type panickingProbe struct{}

func (panickingProbe) Kind() models.ProbeKind { return models.ProbePing }

func (panickingProbe) Check(context.Context, string, time.Duration, int) models.ProbeResult {
	panic("socket exploded")
}

func TestSafe_RecoversPanic(t *testing.T) {
	result := Safe(panickingProbe{}).Check(context.Background(), "10.0.0.1", time.Second, 1)

	assert.False(t, result.Success)
	assert.Equal(t, models.ProbePing, result.Kind)
	assert.Contains(t, result.Diagnostic, "socket exploded")
	assert.False(t, result.Timestamp.IsZero())
}

func TestSafe_PassesThrough(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mock := NewMockProbe(ctrl)
	want := models.ProbeResult{Kind: models.ProbeSNMP, Success: true, Diagnostic: "Online"}

	mock.EXPECT().Check(gomock.Any(), "10.0.0.2", 2*time.Second, 3).Return(want)

	got := Safe(mock).Check(context.Background(), "10.0.0.2", 2*time.Second, 3)
	assert.Equal(t, want, got)

	// Wrapping twice does not nest.
	wrapped := Safe(mock)
	assert.Equal(t, wrapped, Safe(wrapped))
}

func TestRegistry_Build(t *testing.T) {
	cfg := config.Default()

	probes, err := DefaultRegistry().Build(cfg, logger.NewTestLogger())
	require.NoError(t, err)
	require.Len(t, probes, 2)

	assert.Equal(t, models.ProbePing, probes[0].Probe.Kind())
	assert.Equal(t, time.Second, probes[0].Timeout)
	assert.Equal(t, 3, probes[0].Attempts)
	assert.Equal(t, models.ProbeSNMP, probes[1].Probe.Kind())
	assert.Equal(t, 2*time.Second, probes[1].Timeout)
	assert.Equal(t, 1, probes[1].Attempts)
}

func TestRegistry_UnknownKind(t *testing.T) {
	cfg := config.Default()
	cfg.Probes = []models.ProbeKind{"http"}

	_, err := NewRegistry().Build(cfg, logger.NewTestLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, errNoProbe)
}

func TestNewSNMPProbe_RejectsVersion(t *testing.T) {
	_, err := NewSNMPProbe(SNMPOptions{Version: "v3"}, logger.NewTestLogger())
	assert.ErrorIs(t, err, errUnsupportedSNMP)
}

func TestCheckResponse(t *testing.T) {
	tests := []struct {
		name    string
		packet  *gosnmp.SnmpPacket
		want    string
		wantErr bool
	}{
		{
			name: "octet string",
			packet: &gosnmp.SnmpPacket{Variables: []gosnmp.SnmpPDU{
				{Name: ".1.3.6.1.2.1.1.1.0", Type: gosnmp.OctetString, Value: []byte("edge-router")},
			}},
			want: "edge-router",
		},
		{
			name: "counter",
			packet: &gosnmp.SnmpPacket{Variables: []gosnmp.SnmpPDU{
				{Name: ".1.3.6.1.2.1.2.2.1.10.1", Type: gosnmp.Counter32, Value: uint(42)},
			}},
			want: "42",
		},
		{
			name: "no such object",
			packet: &gosnmp.SnmpPacket{Variables: []gosnmp.SnmpPDU{
				{Name: ".1.3.6.1.4.1.9999", Type: gosnmp.NoSuchObject},
			}},
			wantErr: true,
		},
		{
			name: "no such instance",
			packet: &gosnmp.SnmpPacket{Variables: []gosnmp.SnmpPDU{
				{Name: ".1.3.6.1.2.1.1.1.1", Type: gosnmp.NoSuchInstance},
			}},
			wantErr: true,
		},
		{
			name:    "error status",
			packet:  &gosnmp.SnmpPacket{Error: gosnmp.GenErr, ErrorIndex: 1},
			wantErr: true,
		},
		{
			name:    "empty",
			packet:  &gosnmp.SnmpPacket{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := checkResponse(tt.packet)
			if tt.wantErr {
				assert.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short"))

	long := strings.Repeat("x", maxDiagnosticValue+10)
	assert.Equal(t, strings.Repeat("x", maxDiagnosticValue)+"...", truncate(long))
}

// startAgent runs a minimal SNMP responder on loopback. A nil respond
// function makes the agent silent.
func startAgent(t *testing.T, respond func(req *gosnmp.SnmpPacket) *gosnmp.SnmpPacket) uint16 {
	t.Helper()

	conn, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)

	t.Cleanup(func() { _ = conn.Close() })

	go func() {
		buf := make([]byte, 65535)

		for {
			n, addr, err := conn.ReadFrom(buf)
			if err != nil {
				return
			}

			if respond == nil {
				continue
			}

			decoder := &gosnmp.GoSNMP{Version: gosnmp.Version2c}

			req, err := decoder.SnmpDecodePacket(buf[:n])
			if err != nil {
				continue
			}

			out, err := respond(req).MarshalMsg()
			if err != nil {
				continue
			}

			_, _ = conn.WriteTo(out, addr)
		}
	}()

	return uint16(conn.LocalAddr().(*net.UDPAddr).Port)
}

func TestSNMPProbe_Success(t *testing.T) {
	port := startAgent(t, func(req *gosnmp.SnmpPacket) *gosnmp.SnmpPacket {
		return &gosnmp.SnmpPacket{
			Version:   req.Version,
			Community: req.Community,
			PDUType:   gosnmp.GetResponse,
			RequestID: req.RequestID,
			Variables: []gosnmp.SnmpPDU{
				{Name: ".1.3.6.1.2.1.1.1.0", Type: gosnmp.OctetString, Value: "lab switch"},
			},
		}
	})

	p, err := NewSNMPProbe(SNMPOptions{
		Community: "public",
		OID:       ".1.3.6.1.2.1.1.1.0",
		Port:      port,
		Version:   "v2c",
	}, logger.NewTestLogger())
	require.NoError(t, err)

	result := p.Check(context.Background(), "127.0.0.1", time.Second, 1)

	assert.True(t, result.Success, result.Diagnostic)
	assert.Equal(t, models.ProbeSNMP, result.Kind)
	assert.Equal(t, "Online, SNMP: lab switch", result.Diagnostic)
}

func TestSNMPProbe_SilentAgentBoundedByTimeout(t *testing.T) {
	port := startAgent(t, nil)

	p, err := NewSNMPProbe(SNMPOptions{
		Community: "public",
		OID:       ".1.3.6.1.2.1.1.1.0",
		Port:      port,
	}, logger.NewTestLogger())
	require.NoError(t, err)

	start := time.Now()
	result := p.Check(context.Background(), "127.0.0.1", 50*time.Millisecond, 2)

	assert.False(t, result.Success)
	assert.True(t, strings.HasPrefix(result.Diagnostic, "Offline"), result.Diagnostic)
	assert.Less(t, time.Since(start), time.Second)
}

func TestSNMPProbe_EmptyAddress(t *testing.T) {
	p, err := NewSNMPProbe(SNMPOptions{OID: ".1.3.6.1.2.1.1.1.0"}, logger.NewTestLogger())
	require.NoError(t, err)

	result := p.Check(context.Background(), "", time.Second, 1)
	assert.False(t, result.Success)
}

func TestPingProbe_EmptyAddress(t *testing.T) {
	p := NewPingProbe(PingOptions{}, logger.NewTestLogger())

	result := p.Check(context.Background(), "", time.Second, 3)

	assert.False(t, result.Success)
	assert.Equal(t, "Offline, Host Unreachable", result.Diagnostic)
	assert.Equal(t, models.ProbePing, result.Kind)
}

func TestPingProbe_IPv6Rejected(t *testing.T) {
	p := NewPingProbe(PingOptions{}, logger.NewTestLogger())

	result := p.Check(context.Background(), "::1", time.Second, 1)
	assert.False(t, result.Success)
}

func TestPingProbe_Loopback(t *testing.T) {
	p := NewPingProbe(PingOptions{Interval: 10 * time.Millisecond}, logger.NewTestLogger())

	result := p.Check(context.Background(), "127.0.0.1", 500*time.Millisecond, 2)
	if strings.Contains(result.Diagnostic, "socket error") {
		t.Skip("unprivileged ICMP sockets not permitted here")
	}

	assert.True(t, result.Success, result.Diagnostic)
	assert.True(t, strings.HasPrefix(result.Diagnostic, "Online, Avg ping: "), result.Diagnostic)
	assert.Positive(t, result.Latency)
}

func TestQuotedDestination(t *testing.T) {
	header := make([]byte, 28)
	copy(header[16:20], net.IPv4(192, 0, 2, 7).To4())

	assert.True(t, quotedDestination(header).Equal(net.IPv4(192, 0, 2, 7)))
	assert.Nil(t, quotedDestination(header[:10]))
}

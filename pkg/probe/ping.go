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
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/mfreeman451/netmon/pkg/logger"
	"github.com/mfreeman451/netmon/pkg/models"
	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/time/rate"
)

const (
	defaultEchoInterval = 200 * time.Millisecond
	echoPayload         = "netmon-echo"
	maxPacketSize       = 1500
)

// PingOptions configures a PingProbe.
type PingOptions struct {
	// Privileged selects a raw ip4:icmp socket. The default is an
	// unprivileged udp4 ICMP datagram socket.
	Privileged bool
	// Interval spaces consecutive echo requests.
	Interval time.Duration
}

// PingProbe sends ICMP echo requests and reports success when at least one
// reply arrives.
type PingProbe struct {
	network  string
	interval time.Duration
	id       int
	logger   logger.Logger
}

type echoOutcome int

const (
	echoTimeout echoOutcome = iota
	echoReply
	echoUnreachable
)

func NewPingProbe(opts PingOptions, log logger.Logger) *PingProbe {
	network := "udp4"
	if opts.Privileged {
		network = "ip4:icmp"
	}

	interval := opts.Interval
	if interval <= 0 {
		interval = defaultEchoInterval
	}

	return &PingProbe{
		network:  network,
		interval: interval,
		id:       os.Getpid() & 0xffff,
		logger:   log.WithComponent("probe.ping"),
	}
}

func (*PingProbe) Kind() models.ProbeKind {
	return models.ProbePing
}

func (p *PingProbe) Check(ctx context.Context, address string, timeout time.Duration, attempts int) models.ProbeResult {
	if attempts < 1 {
		attempts = 1
	}

	ctx, cancel := context.WithTimeout(ctx, timeout*time.Duration(attempts))
	defer cancel()

	result := models.ProbeResult{Kind: models.ProbePing}

	dst, err := resolveIPv4(ctx, address)
	if err != nil {
		result.Diagnostic = "Offline, Host Unreachable"
		p.logger.Debug().Err(err).Str("address", address).Msg("Failed to resolve ping target")

		return stamp(result)
	}

	conn, err := icmp.ListenPacket(p.network, "0.0.0.0")
	if err != nil {
		result.Diagnostic = fmt.Sprintf("Offline, socket error: %v", err)
		p.logger.Warn().Err(err).Str("network", p.network).Msg("Failed to open ICMP socket")

		return stamp(result)
	}
	defer func() { _ = conn.Close() }()

	var peer net.Addr = &net.IPAddr{IP: dst}
	if p.network == "udp4" {
		peer = &net.UDPAddr{IP: dst}
	}

	limiter := rate.NewLimiter(rate.Every(p.interval), 1)

	var (
		total       time.Duration
		received    int
		unreachable bool
	)

	for seq := 1; seq <= attempts; seq++ {
		if err := limiter.Wait(ctx); err != nil {
			break
		}

		rtt, outcome := p.echo(ctx, conn, peer, dst, seq, timeout)

		switch outcome {
		case echoReply:
			total += rtt
			received++
		case echoUnreachable:
			unreachable = true
		case echoTimeout:
		}
	}

	switch {
	case received > 0:
		avg := total / time.Duration(received)
		result.Success = true
		result.Latency = avg
		result.Diagnostic = fmt.Sprintf("Online, Avg ping: %.2f ms", float64(avg)/float64(time.Millisecond))
	case unreachable:
		result.Diagnostic = "Offline, Host Unreachable"
	default:
		result.Diagnostic = "Offline, Ping Timeout"
	}

	return stamp(result)
}

// echo sends one request and waits up to timeout for its reply.
func (p *PingProbe) echo(
	ctx context.Context, conn *icmp.PacketConn, peer net.Addr, dst net.IP, seq int, timeout time.Duration,
) (time.Duration, echoOutcome) {
	msg := icmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Code: 0,
		Body: &icmp.Echo{ID: p.id, Seq: seq, Data: []byte(echoPayload)},
	}

	b, err := msg.Marshal(nil)
	if err != nil {
		return 0, echoTimeout
	}

	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if err := conn.SetReadDeadline(deadline); err != nil {
		return 0, echoTimeout
	}

	start := time.Now()

	if _, err := conn.WriteTo(b, peer); err != nil {
		p.logger.Debug().Err(err).Str("peer", peer.String()).Msg("Failed to send echo request")

		return 0, echoUnreachable
	}

	buf := make([]byte, maxPacketSize)

	for {
		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			var netErr net.Error
			if !errors.As(err, &netErr) || !netErr.Timeout() {
				p.logger.Debug().Err(err).Str("peer", peer.String()).Msg("Failed to read echo reply")
			}

			return 0, echoTimeout
		}

		reply, err := icmp.ParseMessage(ipv4.ICMPTypeEcho.Protocol(), buf[:n])
		if err != nil {
			continue
		}

		switch reply.Type {
		case ipv4.ICMPTypeEchoReply:
			body, ok := reply.Body.(*icmp.Echo)
			if !ok || body.Seq != seq || !sameHost(from, dst) {
				continue
			}

			// The kernel rewrites the identifier on datagram sockets.
			if p.network != "udp4" && body.ID != p.id {
				continue
			}

			return time.Since(start), echoReply
		case ipv4.ICMPTypeDestinationUnreachable:
			// Routers answer from their own address; match on the quoted header.
			if body, ok := reply.Body.(*icmp.DstUnreach); ok && quotedDestination(body.Data).Equal(dst) {
				return 0, echoUnreachable
			}
		}
	}
}

func sameHost(addr net.Addr, ip net.IP) bool {
	switch a := addr.(type) {
	case *net.IPAddr:
		return a.IP.Equal(ip)
	case *net.UDPAddr:
		return a.IP.Equal(ip)
	default:
		return false
	}
}

// quotedDestination extracts the destination of the IPv4 header quoted in an
// ICMP error message.
func quotedDestination(data []byte) net.IP {
	if len(data) < ipv4.HeaderLen {
		return nil
	}

	return net.IP(data[16:20])
}

func resolveIPv4(ctx context.Context, address string) (net.IP, error) {
	if address == "" {
		return nil, errEmptyAddress
	}

	if ip := net.ParseIP(address); ip != nil {
		if v4 := ip.To4(); v4 != nil {
			return v4, nil
		}

		return nil, fmt.Errorf("%w: %s", errNoIPv4, address)
	}

	ips, err := net.DefaultResolver.LookupIP(ctx, "ip4", address)
	if err != nil {
		return nil, err
	}

	if len(ips) == 0 {
		return nil, fmt.Errorf("%w: %s", errNoIPv4, address)
	}

	return ips[0].To4(), nil
}

func stamp(r models.ProbeResult) models.ProbeResult {
	r.Timestamp = time.Now()

	return r
}

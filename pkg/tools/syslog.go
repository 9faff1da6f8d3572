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

package tools

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mfreeman451/netmon/pkg/config"
	"github.com/mfreeman451/netmon/pkg/logger"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	SyslogToolName = "syslog"

	syslogMaxDatagram = 2048
	syslogMaxSizeMB   = 5
	syslogMaxBackups  = 5
)

// SyslogTool receives syslog datagrams over UDP and appends each one to a
// rotating log file as "<peer> - <message>".
type SyslogTool struct {
	listenAddr string
	closer     io.Closer
	file       zerolog.Logger
	logger     logger.Logger

	mu        sync.Mutex
	addr      net.Addr
	ready     chan struct{}
	readyOnce sync.Once
}

// NewSyslogTool writes to cfg.LogPath, rotating at 5 MB with five backups.
func NewSyslogTool(cfg config.SyslogToolConfig, log logger.Logger) (*SyslogTool, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.LogPath), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create syslog directory: %w", err)
	}

	lj := &lumberjack.Logger{
		Filename:   cfg.LogPath,
		MaxSize:    syslogMaxSizeMB,
		MaxBackups: syslogMaxBackups,
	}

	t := newSyslogTool(cfg.ListenAddr, lj, log)
	t.closer = lj

	return t, nil
}

func newSyslogTool(listenAddr string, w io.Writer, log logger.Logger) *SyslogTool {
	return &SyslogTool{
		listenAddr: listenAddr,
		file:       zerolog.New(w).With().Timestamp().Logger(),
		logger:     log.WithComponent("syslog"),
		ready:      make(chan struct{}),
	}
}

func (*SyslogTool) Name() string { return SyslogToolName }

// Addr returns the bound address once Run has tried to listen. It is nil
// if listening failed.
func (t *SyslogTool) Addr() net.Addr {
	<-t.ready

	t.mu.Lock()
	defer t.mu.Unlock()

	return t.addr
}

func (t *SyslogTool) markReady() {
	t.readyOnce.Do(func() { close(t.ready) })
}

func (t *SyslogTool) Run(ctx context.Context) error {
	defer t.markReady()

	var lc net.ListenConfig

	conn, err := lc.ListenPacket(ctx, "udp", t.listenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", t.listenAddr, err)
	}

	defer func() {
		_ = conn.Close()

		if t.closer != nil {
			_ = t.closer.Close()
		}
	}()

	t.mu.Lock()
	t.addr = conn.LocalAddr()
	t.mu.Unlock()
	t.markReady()

	t.logger.Info().Str("addr", conn.LocalAddr().String()).Msg("Syslog receiver listening")

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	buf := make([]byte, syslogMaxDatagram)

	for {
		n, peer, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}

			t.logger.Warn().Err(err).Msg("Syslog read failed")

			continue
		}

		t.record(peer, buf[:n])
	}
}

func (t *SyslogTool) record(peer net.Addr, data []byte) {
	host := peer.String()
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	msg := strings.TrimRight(string(data), "\r\n\x00")

	t.file.Info().Msg(host + " - " + msg)
}

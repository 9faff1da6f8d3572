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
	"bytes"
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mfreeman451/netmon/pkg/config"
	"github.com/mfreeman451/netmon/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

func startSyslog(t *testing.T, tool *SyslogTool) (net.Addr, context.CancelFunc, <-chan error) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)

	go func() { errCh <- tool.Run(ctx) }()

	addr := tool.Addr()
	require.NotNil(t, addr)

	return addr, cancel, errCh
}

func sendDatagram(t *testing.T, addr net.Addr, msg string) {
	t.Helper()

	conn, err := net.Dial("udp", addr.String())
	require.NoError(t, err)

	defer func() { _ = conn.Close() }()

	_, err = conn.Write([]byte(msg))
	require.NoError(t, err)
}

func TestSyslogTool_RecordsMessages(t *testing.T) {
	var out syncBuffer

	tool := newSyslogTool("127.0.0.1:0", &out, logger.NewTestLogger())
	addr, cancel, errCh := startSyslog(t, tool)

	sendDatagram(t, addr, "<34>Oct 11 22:14:15 mymachine su: 'su root' failed\n")

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "127.0.0.1 - <34>Oct 11 22:14:15 mymachine su")
	}, 2*time.Second, 10*time.Millisecond)

	var line map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.SplitN(out.String(), "\n", 2)[0]), &line))
	assert.Equal(t, "info", line["level"])
	assert.NotEmpty(t, line["time"])
	assert.False(t, strings.HasSuffix(line["message"].(string), "\n"))

	cancel()
	require.NoError(t, <-errCh)
}

func TestSyslogTool_ListenFailure(t *testing.T) {
	tool := newSyslogTool("127.0.0.1:99999", &syncBuffer{}, logger.NewTestLogger())

	err := tool.Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, tool.Addr())
}

func TestNewSyslogTool_CreatesLogDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log", "syslog.log")

	tool, err := NewSyslogTool(config.SyslogToolConfig{
		Enabled:    true,
		ListenAddr: "127.0.0.1:0",
		LogPath:    path,
	}, logger.NewTestLogger())
	require.NoError(t, err)

	addr, cancel, errCh := startSyslog(t, tool)
	sendDatagram(t, addr, "hello")

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(path)
		return err == nil && strings.Contains(string(data), "127.0.0.1 - hello")
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-errCh)
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, []string{SyslogToolName}, r.Names())

	tools, err := r.Build(&config.ToolsConfig{}, logger.NewTestLogger())
	require.NoError(t, err)
	assert.Empty(t, tools)

	tools, err = r.Build(&config.ToolsConfig{Syslog: config.SyslogToolConfig{
		Enabled:    true,
		ListenAddr: "127.0.0.1:0",
		LogPath:    filepath.Join(t.TempDir(), "syslog.log"),
	}}, logger.NewTestLogger())
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, SyslogToolName, tools[0].Name())

	_, err = r.Get("speedtest", &config.ToolsConfig{}, logger.NewTestLogger())
	require.ErrorIs(t, err, errUnknownTool)

	disabled, err := r.Get(SyslogToolName, &config.ToolsConfig{}, logger.NewTestLogger())
	require.NoError(t, err)
	assert.Nil(t, disabled)
}

func TestRegistry_BuildReportsFactoryErrors(t *testing.T) {
	r := NewRegistry()
	r.Register("broken", func(*config.ToolsConfig, logger.Logger) (Tool, error) {
		return nil, assert.AnError
	})

	_, err := r.Build(&config.ToolsConfig{}, logger.NewTestLogger())
	require.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "broken")
}

type blockingTool struct {
	name    string
	started chan struct{}
}

func (b *blockingTool) Name() string { return b.name }

func (b *blockingTool) Run(ctx context.Context) error {
	close(b.started)
	<-ctx.Done()

	return ctx.Err()
}

type failingTool struct{}

func (failingTool) Name() string              { return "broken" }
func (failingTool) Run(context.Context) error { return assert.AnError }

func TestRunAll(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	bt := &blockingTool{name: "blocker", started: make(chan struct{})}
	done := make(chan error, 1)

	go func() { done <- RunAll(ctx, []Tool{failingTool{}, bt}, logger.NewTestLogger()) }()

	select {
	case <-bt.started:
	case <-time.After(2 * time.Second):
		t.Fatal("tool never started")
	}

	// the failing tool must not have stopped the others
	select {
	case <-done:
		t.Fatal("RunAll returned before cancellation")
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	require.NoError(t, <-done)
}

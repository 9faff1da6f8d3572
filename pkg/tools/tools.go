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

// Package tools runs auxiliary services alongside the monitoring engine.
// Tools are registered statically by name and enabled from configuration.
package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/mfreeman451/netmon/pkg/config"
	"github.com/mfreeman451/netmon/pkg/logger"
	"golang.org/x/sync/errgroup"
)

var errUnknownTool = errors.New("unknown tool")

// Tool is a long-running auxiliary service. Run blocks until ctx is done.
type Tool interface {
	Name() string
	Run(ctx context.Context) error
}

// Factory builds a tool from configuration. It returns nil when the tool
// is disabled.
type Factory func(cfg *config.ToolsConfig, log logger.Logger) (Tool, error)

// Registry maps tool names to factories.
type Registry struct {
	factories map[string]Factory
	order     []string
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// DefaultRegistry returns a registry with every built-in tool.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(SyslogToolName, func(cfg *config.ToolsConfig, log logger.Logger) (Tool, error) {
		if !cfg.Syslog.Enabled {
			return nil, nil
		}

		return NewSyslogTool(cfg.Syslog, log)
	})

	return r
}

func (r *Registry) Register(name string, f Factory) {
	if _, ok := r.factories[name]; !ok {
		r.order = append(r.order, name)
	}

	r.factories[name] = f
}

// Names lists the registered tools in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Build creates every enabled tool.
func (r *Registry) Build(cfg *config.ToolsConfig, log logger.Logger) ([]Tool, error) {
	var tools []Tool

	for _, name := range r.order {
		t, err := r.Get(name, cfg, log)
		if err != nil {
			return nil, fmt.Errorf("failed to build tool %s: %w", name, err)
		}

		if t != nil {
			tools = append(tools, t)
		}
	}

	return tools, nil
}

// Get builds a single tool by name. A disabled tool is returned as nil.
func (r *Registry) Get(name string, cfg *config.ToolsConfig, log logger.Logger) (Tool, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errUnknownTool, name)
	}

	return f(cfg, log)
}

// RunAll runs tools until ctx is done. A failing tool is logged and does
// not stop the others.
func RunAll(ctx context.Context, tools []Tool, log logger.Logger) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, t := range tools {
		g.Go(func() error {
			log.Info().Str("tool", t.Name()).Msg("Starting tool")

			if err := t.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Str("tool", t.Name()).Msg("Tool stopped with error")
			}

			return nil
		})
	}

	return g.Wait()
}

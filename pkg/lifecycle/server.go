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

// Package lifecycle runs the daemon's components and shuts them down in
// order on a signal or a fatal error.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/mfreeman451/netmon/pkg/grpc"
	"github.com/mfreeman451/netmon/pkg/logger"
	"go.uber.org/multierr"
)

const (
	ShutdownTimeout = 10 * time.Second
)

// Service defines the interface that all services must implement.
type Service interface {
	Start(context.Context) error
	Stop(context.Context) error
}

// HTTPServer is an HTTP surface that serves until shut down.
type HTTPServer interface {
	Start(addr string) error
	Shutdown(ctx context.Context) error
}

// Runner is a background loop that returns once ctx is done.
type Runner struct {
	Name string
	Run  func(ctx context.Context) error
}

// ServerOptions holds configuration for creating a server.
type ServerOptions struct {
	ServiceName string
	Service     Service

	// Runners are canceled after Service has stopped, so they observe
	// everything it produced while stopping.
	Runners []Runner

	HTTP     HTTPServer
	HTTPAddr string

	// GRPCHealthAddr enables the gRPC health endpoint when set.
	GRPCHealthAddr string

	// Closers are closed last, in order.
	Closers []io.Closer

	Logger logger.Logger

	// Signals overrides the shutdown signals, for tests.
	Signals <-chan os.Signal
}

// RunServer starts a service with the provided options and handles lifecycle.
func RunServer(ctx context.Context, opts *ServerOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	log := opts.Logger.WithComponent("lifecycle")
	log.Info().Str("service", opts.ServiceName).Msg("Starting service")

	errChan := make(chan error, 2+len(opts.Runners))

	report := func(err error) {
		select {
		case errChan <- err:
		default:
			log.Error().Err(err).Msg("Service error")
		}
	}

	var grpcServer *grpc.Server

	if opts.GRPCHealthAddr != "" {
		grpcServer = grpc.NewServer(opts.GRPCHealthAddr, opts.Logger)
		grpcServer.SetServing(opts.ServiceName, true)

		go func() {
			if err := grpcServer.Start(); err != nil {
				report(fmt.Errorf("gRPC server: %w", err))
			}
		}()
	}

	runCtx, stopRunners := context.WithCancel(context.WithoutCancel(ctx))
	defer stopRunners()

	var runners sync.WaitGroup

	for _, r := range opts.Runners {
		runners.Add(1)

		go func() {
			defer runners.Done()

			if err := r.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				report(fmt.Errorf("%s: %w", r.Name, err))
			}
		}()
	}

	go func() {
		if err := opts.Service.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			report(fmt.Errorf("%s: %w", opts.ServiceName, err))
		}
	}()

	if opts.HTTP != nil {
		go func() {
			if err := opts.HTTP.Start(opts.HTTPAddr); err != nil {
				report(fmt.Errorf("HTTP server: %w", err))
			}
		}()
	}

	cause := waitForShutdown(ctx, opts.Signals, errChan, log)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
	defer shutdownCancel()

	err := multierr.Combine(cause, shutdown(shutdownCtx, opts, grpcServer, stopRunners, &runners, log))
	if err != nil {
		log.Error().Err(err).Msg("Service stopped with errors")
	} else {
		log.Info().Msg("Service stopped")
	}

	return err
}

func waitForShutdown(ctx context.Context, signals <-chan os.Signal, errChan <-chan error, log logger.Logger) error {
	if signals == nil {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

		defer signal.Stop(sigChan)

		signals = sigChan
	}

	select {
	case sig := <-signals:
		log.Info().Str("signal", sig.String()).Msg("Received signal, initiating shutdown")

		return nil
	case err := <-errChan:
		log.Error().Err(err).Msg("Received error, initiating shutdown")

		return err
	case <-ctx.Done():
		log.Info().Msg("Context canceled, initiating shutdown")

		return nil
	}
}

// shutdown stops the engine first so in-flight writes finish, then the
// outward surfaces, then the background runners and closers.
func shutdown(
	ctx context.Context,
	opts *ServerOptions,
	grpcServer *grpc.Server,
	stopRunners context.CancelFunc,
	runners *sync.WaitGroup,
	log logger.Logger) error {
	var errs error

	if grpcServer != nil {
		grpcServer.SetServing(opts.ServiceName, false)
	}

	if err := opts.Service.Stop(ctx); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("stopping %s: %w", opts.ServiceName, err))
	}

	if opts.HTTP != nil {
		if err := opts.HTTP.Shutdown(ctx); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("stopping HTTP server: %w", err))
		}
	}

	stopRunners()

	done := make(chan struct{})

	go func() {
		runners.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		errs = multierr.Append(errs, fmt.Errorf("waiting for runners: %w", ctx.Err()))
	}

	if grpcServer != nil {
		grpcServer.Stop(ctx)
	}

	for _, c := range opts.Closers {
		if err := c.Close(); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	log.Debug().Msg("Shutdown sequence complete")

	return errs
}

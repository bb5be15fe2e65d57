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

package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/carverauto/noderadar/pkg/logger"
)

const defaultShutdownTimeout = 10 * time.Second

var errNoServices = errors.New("no services to run")

// Service is a long-running component. Start blocks until ctx is canceled or
// the service fails; Stop releases whatever Start acquired.
type Service interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// ServiceFunc adapts a blocking function into a Service with a no-op Stop.
type ServiceFunc func(ctx context.Context) error

func (f ServiceFunc) Start(ctx context.Context) error { return f(ctx) }

func (ServiceFunc) Stop(context.Context) error { return nil }

type ServerOptions struct {
	ServiceName     string
	Services        []Service
	ShutdownTimeout time.Duration
	Logger          logger.Logger
	// Signals defaults to SIGINT and SIGTERM.
	Signals []os.Signal
}

// RunServer starts every service, waits for a signal, ctx cancellation or the
// first service error, then stops all services in reverse order.
func RunServer(ctx context.Context, opts *ServerOptions) error {
	if opts == nil || len(opts.Services) == 0 {
		return errNoServices
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewTestLogger()
	}

	signals := opts.Signals
	if len(signals) == 0 {
		signals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}
	}

	sigCtx, stopSignals := signal.NotifyContext(ctx, signals...)
	defer stopSignals()

	g, runCtx := errgroup.WithContext(sigCtx)

	for _, svc := range opts.Services {
		svc := svc

		g.Go(func() error {
			if err := svc.Start(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}

			return nil
		})
	}

	log.Info().Str("service", opts.ServiceName).Int("components", len(opts.Services)).Msg("Service started")

	<-runCtx.Done()

	log.Info().Str("service", opts.ServiceName).Msg("Shutting down")

	timeout := opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var stopErr error

	for i := len(opts.Services) - 1; i >= 0; i-- {
		if err := opts.Services[i].Stop(shutdownCtx); err != nil {
			log.Error().Err(err).Str("service", opts.ServiceName).Msg("Error stopping component")

			stopErr = errors.Join(stopErr, err)
		}
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("%s: %w", opts.ServiceName, err)
	}

	return stopErr
}

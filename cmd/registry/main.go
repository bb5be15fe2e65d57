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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/carverauto/noderadar/pkg/config"
	"github.com/carverauto/noderadar/pkg/config/kvnats"
	"github.com/carverauto/noderadar/pkg/discovery"
	"github.com/carverauto/noderadar/pkg/lifecycle"
	"github.com/carverauto/noderadar/pkg/logger"
	"github.com/carverauto/noderadar/pkg/natsutil"
	"github.com/carverauto/noderadar/pkg/orchestrator"
	"github.com/carverauto/noderadar/pkg/registry"
	"github.com/carverauto/noderadar/pkg/registry/api"
	"github.com/carverauto/noderadar/pkg/version"
)

var errFailedToLoadConfig = errors.New("failed to load config")

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "/etc/noderadar/registry.json", "Path to registry config file")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.GetFullVersion())
		return nil
	}

	ctx := context.Background()

	var cfg Config

	cfgLoader := config.NewConfig(nil)

	var nc *nats.Conn

	// KV-sourced config needs the bucket before the first load.
	if natsURL := envNATSURL(); natsURL != "" {
		conn, err := natsutil.Connect(natsURL, nil)
		if err != nil {
			return err
		}

		nc = conn
		defer nc.Close()

		store, err := kvnats.New(ctx, nc, envKVBucket())
		if err != nil {
			return err
		}

		cfgLoader.SetKVStore(store)
	}

	if err := cfgLoader.LoadAndValidate(ctx, *configPath, &cfg); err != nil {
		return fmt.Errorf("%w: %w", errFailedToLoadConfig, err)
	}

	logConfig := cfg.Logging
	if logConfig == nil {
		logConfig = logger.DefaultConfigFor("registry")
	} else {
		logConfig.ApplyDefaults("registry")
	}

	if err := lifecycle.InitializeLogger(ctx, logConfig); err != nil {
		return err
	}

	defer func() { _ = lifecycle.ShutdownLogger() }()

	mainLogger, err := lifecycle.CreateComponentLogger(ctx, "registry", logConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	mainLogger.Info().Str("version", version.GetFullVersion()).Msg("Starting registry")

	if cfg.Metrics {
		if _, err := logger.InitializeMetrics(ctx, logger.MetricsConfig{
			ServiceName:    logConfig.OTel.ServiceName,
			ServiceVersion: version.GetVersion(),
			OTel:           &logConfig.OTel,
		}); err != nil {
			mainLogger.Warn().Err(err).Msg("OTel metrics disabled")
		}
	}

	reg := registry.NewRegistry(
		registry.WithLogger(mainLogger),
		registry.WithNodeExpiry(time.Duration(cfg.NodeExpiry)),
	)

	orchOpts := []orchestrator.Option{
		orchestrator.WithLogger(mainLogger),
		orchestrator.WithPollInterval(time.Duration(cfg.PollInterval)),
	}

	services := []lifecycle.Service{reg}

	if cfg.Discovery.Enabled {
		listener := discovery.NewListener(cfg.Discovery.ServiceName, cfg.Discovery.Port, mainLogger,
			discovery.WithBindAddress(cfg.Discovery.BindAddress))

		orchOpts = append(orchOpts, orchestrator.WithRemoteSource(listener))
		services = append(services, &listenerService{listener: listener})
	}

	if cfg.NATS.Enabled {
		if nc == nil {
			conn, err := natsutil.Connect(cfg.NATS.URL, mainLogger)
			if err != nil {
				return err
			}

			nc = conn
			defer nc.Close()
		}

		publisher, err := natsutil.CreateEventPublisher(ctx, nc, cfg.NATS.Stream, nil, mainLogger)
		if err != nil {
			return err
		}

		orchOpts = append(orchOpts, orchestrator.WithEventSink(publisher))

		if cfg.NATS.KVBucket != "" {
			if err := watchExpiry(ctx, nc, cfg.NATS.KVBucket, *configPath, reg, mainLogger); err != nil {
				mainLogger.Warn().Err(err).Msg("KV config overlay disabled")
			}
		}
	}

	queue := orchestrator.NewQueueInput()

	apiServer := api.NewAPIServer(reg, cfg.CORS,
		api.WithLogger(mainLogger),
		api.WithListenAddr(cfg.ListenAddr),
		api.WithOutboundQueue(queue),
	)

	orch := orchestrator.New(reg, append(orchOpts,
		orchestrator.WithInput(queue),
		orchestrator.WithSnapshotSink(apiServer))...)

	services = append(services, orch, apiServer)

	return lifecycle.RunServer(ctx, &lifecycle.ServerOptions{
		ServiceName: "registry",
		Services:    services,
		Logger:      mainLogger,
	})
}

// watchExpiry hot-applies node_expiry from the KV copy of the config file.
func watchExpiry(ctx context.Context, nc *nats.Conn, bucket, configPath string, reg *registry.Registry, log logger.Logger) error {
	store, err := kvnats.New(ctx, nc, bucket)
	if err != nil {
		return err
	}

	var overlay expiryOverlay

	config.StartKVWatchOverlay(ctx, store, config.KeyForPath(configPath), &overlay, log, func() {
		if err := reg.SetNodeExpiryTimeout(time.Duration(overlay.NodeExpiry)); err != nil {
			log.Warn().Err(err).Msg("Ignoring node_expiry overlay")
		}
	})

	return nil
}

// listenerService adapts the non-blocking discovery listener to lifecycle.Service.
type listenerService struct {
	listener *discovery.Listener
}

func (s *listenerService) Start(ctx context.Context) error {
	if err := s.listener.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	return nil
}

func (s *listenerService) Stop(context.Context) error {
	s.listener.Stop()

	return nil
}

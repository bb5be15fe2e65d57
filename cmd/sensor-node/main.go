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

	"github.com/benbjohnson/clock"

	"github.com/carverauto/noderadar/pkg/commsnode"
	"github.com/carverauto/noderadar/pkg/config"
	"github.com/carverauto/noderadar/pkg/hoststats"
	"github.com/carverauto/noderadar/pkg/lifecycle"
	"github.com/carverauto/noderadar/pkg/logger"
	"github.com/carverauto/noderadar/pkg/version"
)

var errFailedToLoadConfig = errors.New("failed to load config")

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "/etc/noderadar/sensor-node.json", "Path to sensor node config file")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.GetFullVersion())
		return nil
	}

	ctx := context.Background()

	var cfg Config

	if err := config.NewConfig(nil).LoadAndValidate(ctx, *configPath, &cfg); err != nil {
		return fmt.Errorf("%w: %w", errFailedToLoadConfig, err)
	}

	logConfig := cfg.Logging
	if logConfig == nil {
		logConfig = logger.DefaultConfigFor("sensor-node")
	} else {
		logConfig.ApplyDefaults("sensor-node")
	}

	if err := lifecycle.InitializeLogger(ctx, logConfig); err != nil {
		return err
	}

	defer func() { _ = lifecycle.ShutdownLogger() }()

	nodeLogger, err := lifecycle.CreateComponentLogger(ctx, "sensor-node", logConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	nodeLogger.Info().Str("version", version.GetFullVersion()).Msg("Starting sensor-node")

	if _, err := logger.InitializeMetrics(ctx, logger.MetricsConfig{
		ServiceName: logConfig.OTel.ServiceName,
		OTel:        &logConfig.OTel,
	}); err != nil {
		nodeLogger.Debug().Err(err).Msg("OTel metrics disabled")
	}

	configSchema, actionSchema := sensorSchemas()

	opts := []commsnode.Option{
		commsnode.WithLogger(nodeLogger),
		commsnode.WithSchemas(configSchema, actionSchema),
	}

	if cfg.HostStats {
		opts = append(opts, commsnode.WithPayloadProvider(hoststats.NewCollector(time.Duration(cfg.StatsWindow))))
	}

	node, err := commsnode.New(cfg.Config, opts...)
	if err != nil {
		return err
	}

	node.SetCameraIntrinsics(syntheticIntrinsics(cfg.Width, cfg.Height))

	return lifecycle.RunServer(ctx, &lifecycle.ServerOptions{
		ServiceName: "sensor-node",
		Services:    []lifecycle.Service{newSensor(&cfg, node, clock.New(), nodeLogger)},
		Logger:      nodeLogger,
	})
}

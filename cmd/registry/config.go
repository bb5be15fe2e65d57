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
	"errors"
	"fmt"
	"time"

	"github.com/carverauto/noderadar/pkg/discovery"
	"github.com/carverauto/noderadar/pkg/logger"
	"github.com/carverauto/noderadar/pkg/models"
	"github.com/carverauto/noderadar/pkg/natsutil"
	"github.com/carverauto/noderadar/pkg/orchestrator"
	"github.com/carverauto/noderadar/pkg/registry"
)

var errInvalidConfig = errors.New("invalid registry config")

type DiscoveryConfig struct {
	Enabled     bool   `json:"enabled"`
	ServiceName string `json:"service_name"`
	Port        int    `json:"port"`
	BindAddress string `json:"bind_address,omitempty"`
}

type Config struct {
	ListenAddr   string            `json:"listen_addr"`
	NodeExpiry   models.Duration   `json:"node_expiry"`
	PollInterval models.Duration   `json:"poll_interval"`
	Discovery    DiscoveryConfig   `json:"discovery"`
	CORS         models.CORSConfig `json:"cors"`
	NATS         models.NATSConfig `json:"nats"`
	Logging      *logger.Config    `json:"logging,omitempty"`
	Metrics      bool              `json:"metrics"`
}

// expiryOverlay is the part of the config the KV watch may change at runtime.
type expiryOverlay struct {
	NodeExpiry models.Duration `json:"node_expiry"`
}

func (c *Config) ApplyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = "localhost:10081"
	}

	if c.NodeExpiry <= 0 {
		c.NodeExpiry = models.Duration(registry.DefaultNodeExpiry)
	}

	if c.PollInterval <= 0 {
		c.PollInterval = models.Duration(orchestrator.DefaultPollInterval)
	}

	if c.Discovery.ServiceName == "" {
		c.Discovery.ServiceName = discovery.DefaultServiceName
	}

	if c.Discovery.Port == 0 {
		c.Discovery.Port = discovery.DefaultPort
	}

	if c.NATS.Enabled && c.NATS.Stream == "" {
		c.NATS.Stream = natsutil.DefaultStreamName
	}
}

// Validate fills defaults, then checks what remains.
func (c *Config) Validate() error {
	c.ApplyDefaults()

	if c.Discovery.Port < 0 || c.Discovery.Port > 65535 {
		return fmt.Errorf("%w: discovery port %d", errInvalidConfig, c.Discovery.Port)
	}

	if c.NATS.Enabled && c.NATS.URL == "" {
		return fmt.Errorf("%w: nats.url is required when nats is enabled", errInvalidConfig)
	}

	if time.Duration(c.PollInterval) > time.Duration(c.NodeExpiry) {
		return fmt.Errorf("%w: poll_interval must not exceed node_expiry", errInvalidConfig)
	}

	return nil
}

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

package commsnode

import (
	"errors"
	"fmt"
	"time"

	"github.com/carverauto/noderadar/pkg/models"
	"github.com/carverauto/noderadar/pkg/nodeclient"
	"github.com/carverauto/noderadar/pkg/udpstream"
)

const (
	DefaultUpkeepInterval = time.Second
	DefaultServicePort    = "stream"

	TransportTCP = "tcp"
	TransportRTC = "rtc"
)

var errInvalidConfig = errors.New("invalid comms node config")

type Config struct {
	NodeName          string           `json:"node_name"`
	RegistryURL       string           `json:"registry_url"`
	ServicePort       string           `json:"service_port"`
	ControlPort       string           `json:"control_port,omitempty"`
	ControlTransport  string           `json:"control_transport,omitempty"`
	HeartbeatInterval models.Duration  `json:"heartbeat_interval"`
	ReconnectInterval models.Duration  `json:"reconnect_interval"`
	UpkeepInterval    models.Duration  `json:"upkeep_interval"`
	DisconnectOnEmpty *bool            `json:"disconnect_on_empty,omitempty"`
	VerboseActions    bool             `json:"verbose_actions"`
	UDP               udpstream.Config `json:"udp"`
}

func (c *Config) ApplyDefaults() {
	if c.RegistryURL == "" {
		c.RegistryURL = nodeclient.DefaultRegistryURL
	}

	if c.ServicePort == "" {
		c.ServicePort = DefaultServicePort
	}

	if c.ControlTransport == "" {
		c.ControlTransport = TransportTCP
	}

	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = models.Duration(nodeclient.DefaultHeartbeatInterval)
	}

	if c.ReconnectInterval <= 0 {
		c.ReconnectInterval = models.Duration(nodeclient.DefaultReconnectInterval)
	}

	if c.UpkeepInterval <= 0 {
		c.UpkeepInterval = models.Duration(DefaultUpkeepInterval)
	}

	if c.DisconnectOnEmpty == nil {
		on := true
		c.DisconnectOnEmpty = &on
	}

	c.UDP.ApplyDefaults()
}

func (c *Config) Validate() error {
	if c.NodeName == "" {
		return fmt.Errorf("%w: node_name is required", errInvalidConfig)
	}

	if c.ControlTransport != TransportTCP && c.ControlTransport != TransportRTC {
		return fmt.Errorf("%w: control_transport %q", errInvalidConfig, c.ControlTransport)
	}

	return c.UDP.Validate()
}

func (c *Config) disconnectOnEmpty() bool {
	return c.DisconnectOnEmpty == nil || *c.DisconnectOnEmpty
}

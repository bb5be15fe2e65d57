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

package udpstream

import (
	"errors"
	"fmt"
	"time"

	"github.com/carverauto/noderadar/pkg/models"
)

const (
	DefaultChunkSize          = 1200
	DefaultJPEGQuality        = 85
	DefaultLogInterval        = 5 * time.Second
	DefaultIntrinsicsInterval = 2 * time.Second

	maxDatagram = 65507
)

var errInvalidConfig = errors.New("invalid udp stream config")

// Destination is an extra ip:port every packet is mirrored to.
type Destination struct {
	IP   string `json:"ip"`
	Port int    `json:"port"`
}

type Config struct {
	ChunkSize          int             `json:"chunk_size"`
	JPEGQuality        int             `json:"jpeg_quality"`
	LogInterval        models.Duration `json:"log_interval"`
	IntrinsicsInterval models.Duration `json:"intrinsics_interval"`
	LocalhostPort      int             `json:"localhost_port,omitempty"`
	ExtraDestinations  []Destination   `json:"extra_destinations,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		ChunkSize:          DefaultChunkSize,
		JPEGQuality:        DefaultJPEGQuality,
		LogInterval:        models.Duration(DefaultLogInterval),
		IntrinsicsInterval: models.Duration(DefaultIntrinsicsInterval),
	}
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.ChunkSize == 0 {
		c.ChunkSize = DefaultChunkSize
	}

	if c.JPEGQuality == 0 {
		c.JPEGQuality = DefaultJPEGQuality
	}

	if c.LogInterval <= 0 {
		c.LogInterval = models.Duration(DefaultLogInterval)
	}

	if c.IntrinsicsInterval <= 0 {
		c.IntrinsicsInterval = models.Duration(DefaultIntrinsicsInterval)
	}
}

func (c *Config) Validate() error {
	if c.ChunkSize <= PointCloudHeaderSize || c.ChunkSize > maxDatagram {
		return fmt.Errorf("%w: chunk_size %d must be in (%d, %d]", errInvalidConfig, c.ChunkSize, PointCloudHeaderSize, maxDatagram)
	}

	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("%w: jpeg_quality %d must be in [1, 100]", errInvalidConfig, c.JPEGQuality)
	}

	if c.LocalhostPort < 0 || c.LocalhostPort > 0xFFFF {
		return fmt.Errorf("%w: localhost_port %d", errInvalidConfig, c.LocalhostPort)
	}

	for _, d := range c.ExtraDestinations {
		if d.IP == "" || d.Port <= 0 || d.Port > 0xFFFF {
			return fmt.Errorf("%w: extra destination %s:%d", errInvalidConfig, d.IP, d.Port)
		}
	}

	return nil
}

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

	"github.com/carverauto/noderadar/pkg/commsnode"
	"github.com/carverauto/noderadar/pkg/logger"
	"github.com/carverauto/noderadar/pkg/models"
)

const (
	defaultFrameRate = 10
	defaultWidth     = 320
	defaultHeight    = 240
	defaultPoints    = 2000
)

var errInvalidConfig = errors.New("invalid sensor node config")

type Config struct {
	commsnode.Config

	FrameRate    int             `json:"frame_rate"`
	Width        int             `json:"width"`
	Height       int             `json:"height"`
	Points       int             `json:"points"`
	HostStats    bool            `json:"host_stats"`
	StatsWindow  models.Duration `json:"stats_window,omitempty"`
	StatusEvery  models.Duration `json:"status_every,omitempty"`
	Logging      *logger.Config  `json:"logging,omitempty"`
	DisableRGB   bool            `json:"disable_rgb,omitempty"`
	DisableDepth bool            `json:"disable_depth,omitempty"`
	DisableCloud bool            `json:"disable_cloud,omitempty"`
}

func (c *Config) ApplyDefaults() {
	c.Config.ApplyDefaults()

	if c.FrameRate <= 0 {
		c.FrameRate = defaultFrameRate
	}

	if c.Width <= 0 {
		c.Width = defaultWidth
	}

	if c.Height <= 0 {
		c.Height = defaultHeight
	}

	if c.Points <= 0 {
		c.Points = defaultPoints
	}

	if c.StatusEvery <= 0 {
		c.StatusEvery = models.Duration(time.Second)
	}
}

func (c *Config) Validate() error {
	if c.NodeName == "" {
		c.NodeName = "sensor"
	}

	c.ApplyDefaults()

	if c.FrameRate > 120 {
		return fmt.Errorf("%w: frame_rate %d above 120", errInvalidConfig, c.FrameRate)
	}

	return c.Config.Validate()
}

func (c *Config) frameInterval() time.Duration {
	return time.Second / time.Duration(c.FrameRate)
}

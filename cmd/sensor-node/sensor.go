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
	"encoding/json"
	"image"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/carverauto/noderadar/pkg/commsnode"
	"github.com/carverauto/noderadar/pkg/logger"
	"github.com/carverauto/noderadar/pkg/models"
	"github.com/carverauto/noderadar/pkg/udpstream"
)

const defaultRadius = 0.5

// frameNode is the part of commsnode.Node the generator drives.
type frameNode interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	IsConnected() (bool, bool)
	GetActions() []models.Action
	GetLatestConfig() (bool, []interface{})
	SendRGBFrame(img image.Image) error
	SendDepthFrame(depth *image.Gray16) error
	SendPointCloud(points []udpstream.Point) error
	SendControl(v interface{}) bool
	ControlMessages() []json.RawMessage
}

var _ frameNode = (*commsnode.Node)(nil)

type sensorState struct {
	rgb, depth, cloud bool
	points            int
	radius            float64
}

// sensor feeds synthetic frames into a node and reacts to config and actions.
type sensor struct {
	cfg    *Config
	node   frameNode
	clock  clock.Clock
	logger logger.Logger

	mu    sync.Mutex
	state sensorState
	tick  uint32

	done      chan struct{}
	closeOnce sync.Once
}

func newSensor(cfg *Config, node frameNode, clk clock.Clock, log logger.Logger) *sensor {
	return &sensor{
		cfg:    cfg,
		node:   node,
		clock:  clk,
		logger: log,
		state: sensorState{
			rgb:    !cfg.DisableRGB,
			depth:  !cfg.DisableDepth,
			cloud:  !cfg.DisableCloud,
			points: cfg.Points,
			radius: defaultRadius,
		},
		done: make(chan struct{}),
	}
}

func (s *sensor) Start(ctx context.Context) error {
	if err := s.node.Start(ctx); err != nil {
		return err
	}

	frames := s.clock.Ticker(s.cfg.frameInterval())
	defer frames.Stop()

	status := s.clock.Ticker(time.Duration(s.cfg.StatusEvery))
	defer status.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.done:
			return nil
		case <-frames.C:
			s.sendFrames()
		case <-status.C:
			s.housekeeping()
		}
	}
}

func (s *sensor) Stop(ctx context.Context) error {
	s.closeOnce.Do(func() { close(s.done) })

	return s.node.Stop(ctx)
}

func (s *sensor) snapshot() (sensorState, uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tick := s.tick
	s.tick++

	return s.state, tick
}

func (s *sensor) sendFrames() {
	if _, peer := s.node.IsConnected(); !peer {
		return
	}

	st, tick := s.snapshot()

	if st.rgb {
		if err := s.node.SendRGBFrame(gradientFrame(s.cfg.Width, s.cfg.Height, tick)); err != nil {
			s.logger.Debug().Err(err).Msg("RGB frame not delivered")
		}
	}

	if st.depth {
		if err := s.node.SendDepthFrame(depthRamp(s.cfg.Width, s.cfg.Height, tick)); err != nil {
			s.logger.Debug().Err(err).Msg("Depth frame not delivered")
		}
	}

	if st.cloud {
		if err := s.node.SendPointCloud(spherePoints(st.points, st.radius, tick)); err != nil {
			s.logger.Debug().Err(err).Msg("Point cloud not delivered")
		}
	}
}

// housekeeping applies registry input and exchanges control messages.
func (s *sensor) housekeeping() {
	if changed, values := s.node.GetLatestConfig(); changed {
		s.applyConfig(values)
	}

	for _, action := range s.node.GetActions() {
		s.handleAction(action)
	}

	registry, peer := s.node.IsConnected()

	st, tick := s.current()

	s.node.SendControl(map[string]interface{}{
		"type":   "status",
		"frame":  tick,
		"rgb":    st.rgb,
		"depth":  st.depth,
		"cloud":  st.cloud,
		"points": st.points,
	})

	for _, msg := range s.node.ControlMessages() {
		s.logger.Info().RawJSON("message", msg).Msg("Control message from peer")
	}

	s.logger.Debug().Bool("registry", registry).Bool("peer", peer).Uint32("frame", tick).Msg("Sensor status")
}

func (s *sensor) current() (sensorState, uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state, s.tick
}

// applyConfig maps the config vector onto the configurable schema widgets in
// order: rgb, depth, cloud, points. Values of the wrong type are ignored.
func (s *sensor) applyConfig(values []interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	flags := []*bool{&s.state.rgb, &s.state.depth, &s.state.cloud}

	for i, dst := range flags {
		if i < len(values) {
			if v, ok := values[i].(bool); ok {
				*dst = v
			}
		}
	}

	if len(values) > 3 {
		if v, ok := values[3].(float64); ok && v >= 1 {
			s.state.points = int(v)
		}
	}

	s.logger.Info().
		Bool("rgb", s.state.rgb).
		Bool("depth", s.state.depth).
		Bool("cloud", s.state.cloud).
		Int("points", s.state.points).
		Msg("Applied config update")
}

func (s *sensor) handleAction(action models.Action) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch action.Name {
	case "reset":
		s.tick = 0
		s.state.radius = defaultRadius
	case "sphere_radius":
		if len(action.Params) > 0 {
			if v, ok := action.Params[0].(float64); ok && v > 0 {
				s.state.radius = v
			}
		}
	default:
		s.logger.Warn().Str("action", action.Name).Msg("Unknown action")
		return
	}

	s.logger.Info().Str("action", action.Name).Msg("Action handled")
}

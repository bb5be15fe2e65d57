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

// Package commsnode is the node-side runtime: it keeps the node registered,
// follows the peer address learned through the registry, and streams frames
// and control messages to that peer.
package commsnode

import (
	"context"
	"encoding/json"
	"image"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/carverauto/noderadar/pkg/logger"
	"github.com/carverauto/noderadar/pkg/models"
	"github.com/carverauto/noderadar/pkg/nodeclient"
	"github.com/carverauto/noderadar/pkg/rtc"
	"github.com/carverauto/noderadar/pkg/schema"
	"github.com/carverauto/noderadar/pkg/stream"
	"github.com/carverauto/noderadar/pkg/udpstream"
)

type Node struct {
	cfg      Config
	clock    clock.Clock
	logger   logger.Logger
	registry RegistryLink
	frames   FrameSink
	control  ControlLink

	payload       nodeclient.PayloadProvider
	configSchema  schema.ConfigSchema
	commandSchema schema.ActionSchema

	peerMu      sync.Mutex
	peerIP      string
	peerPort    int
	controlIP   string
	controlPort int

	cfgMu       sync.Mutex
	configCache []interface{}

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

type Option func(*Node)

func WithRegistryLink(r RegistryLink) Option {
	return func(n *Node) { n.registry = r }
}

func WithFrameSink(f FrameSink) Option {
	return func(n *Node) { n.frames = f }
}

func WithControlLink(c ControlLink) Option {
	return func(n *Node) { n.control = c }
}

func WithClock(c clock.Clock) Option {
	return func(n *Node) {
		if c != nil {
			n.clock = c
		}
	}
}

func WithLogger(log logger.Logger) Option {
	return func(n *Node) {
		if log != nil {
			n.logger = log
		}
	}
}

// WithPayloadProvider attaches a heartbeat payload to the default registry link.
func WithPayloadProvider(p nodeclient.PayloadProvider) Option {
	return func(n *Node) { n.payload = p }
}

func WithSchemas(config schema.ConfigSchema, command schema.ActionSchema) Option {
	return func(n *Node) {
		n.configSchema = config
		n.commandSchema = command
	}
}

// New builds a node from cfg. Components not supplied through options are
// created from the config: a nodeclient for the registry, a udpstream
// connector for frames and, when control_port is set, a TCP or RTC control link.
func New(cfg Config, opts ...Option) (*Node, error) {
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	n := &Node{
		cfg:    cfg,
		clock:  clock.New(),
		logger: logger.NewTestLogger(),
	}

	for _, opt := range opts {
		opt(n)
	}

	if n.registry == nil {
		n.registry = nodeclient.New(cfg.NodeName,
			nodeclient.WithRegistryClient(nodeclient.NewHTTPRegistryClient(cfg.RegistryURL, 0)),
			nodeclient.WithHeartbeatInterval(time.Duration(cfg.HeartbeatInterval)),
			nodeclient.WithReconnectInterval(time.Duration(cfg.ReconnectInterval)),
			nodeclient.WithVerboseActions(cfg.VerboseActions),
			nodeclient.WithPayloadProvider(n.payload),
			nodeclient.WithSchemas(n.configSchema, n.commandSchema),
			nodeclient.WithClock(n.clock),
			nodeclient.WithLogger(n.logger),
		)
	}

	if n.frames == nil {
		n.frames = udpstream.NewConnector(
			udpstream.WithConfig(cfg.UDP),
			udpstream.WithClock(n.clock),
			udpstream.WithLogger(n.logger),
		)
	}

	if n.control == nil && cfg.ControlPort != "" {
		if cfg.ControlTransport == TransportRTC {
			n.control = rtc.NewConnector(rtc.WithLogger(n.logger))
		} else {
			n.control = stream.NewConnector(n.logger)
		}
	}

	return n, nil
}

// Start registers with the registry and begins following the peer.
func (n *Node) Start(ctx context.Context) error {
	n.runMu.Lock()
	defer n.runMu.Unlock()

	if n.cancel != nil {
		return nil
	}

	if err := n.registry.Start(ctx); err != nil {
		return err
	}

	loopCtx, cancel := context.WithCancel(ctx)
	n.cancel = cancel
	n.done = make(chan struct{})

	go n.upkeepLoop(loopCtx, n.done)

	return nil
}

// Stop ends the upkeep loop, leaves the registry and closes both peer links.
func (n *Node) Stop(ctx context.Context) error {
	n.runMu.Lock()

	if n.cancel == nil {
		n.runMu.Unlock()
		return nil
	}

	n.cancel()
	<-n.done
	n.cancel = nil

	n.runMu.Unlock()

	err := n.registry.Stop(ctx)

	n.frames.Disconnect()

	if n.control != nil {
		n.control.Disconnect()
	}

	return err
}

func (n *Node) upkeepLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := n.clock.Ticker(time.Duration(n.cfg.UpkeepInterval))
	defer ticker.Stop()

	for {
		n.upkeep(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// upkeep reconciles the peer links with the latest discovery data.
func (n *Node) upkeep(ctx context.Context) {
	remote, ok := n.registry.GetRemoteDiscovery()

	if !ok || remote.IsEmpty() {
		if n.cfg.disconnectOnEmpty() {
			n.dropPeer()
		}

		return
	}

	if remote.RemotePorts == nil {
		return
	}

	n.followFrames(remote.RemoteIP, remote.RemotePorts[n.cfg.ServicePort])

	if n.control != nil && n.cfg.ControlPort != "" {
		n.followControl(ctx, remote.RemoteIP, remote.RemotePorts[n.cfg.ControlPort])
	}
}

func (n *Node) dropPeer() {
	n.peerMu.Lock()
	defer n.peerMu.Unlock()

	if n.frames.IsConnected() {
		n.frames.Disconnect()
		n.logger.Info().Str("ip", n.peerIP).Int("port", n.peerPort).Msg("Peer gone, UDP stream disconnected")
	}

	n.peerIP, n.peerPort = "", 0

	if n.control != nil && n.control.IsConnected() {
		n.control.Disconnect()
		n.logger.Info().Msg("Peer gone, control link disconnected")
	}

	n.controlIP, n.controlPort = "", 0
}

func (n *Node) followFrames(ip string, port int) {
	if port <= 0 {
		return
	}

	n.peerMu.Lock()
	defer n.peerMu.Unlock()

	if ip == n.peerIP && port == n.peerPort {
		return
	}

	if err := n.frames.Reconnect(ip, port); err != nil {
		n.logger.Warn().Err(err).Str("ip", ip).Int("port", port).Msg("Failed to connect UDP stream to peer")
		return
	}

	n.peerIP, n.peerPort = ip, port
	n.logger.Info().Str("ip", ip).Int("port", port).Msg("UDP stream connected to peer")
}

// followControl reconnects on a destination change and also retries a link
// that dropped while the destination stayed the same.
func (n *Node) followControl(ctx context.Context, ip string, port int) {
	if port <= 0 {
		return
	}

	n.peerMu.Lock()
	defer n.peerMu.Unlock()

	if ip == n.controlIP && port == n.controlPort && n.control.IsConnected() {
		return
	}

	if err := n.control.Reconnect(ctx, ip, port); err != nil {
		n.logger.Debug().Err(err).Str("ip", ip).Int("port", port).Msg("Control link connect failed")
		return
	}

	n.controlIP, n.controlPort = ip, port
	n.logger.Info().Str("ip", ip).Int("port", port).Msg("Control link connected to peer")
}

func (n *Node) GetActions() []models.Action {
	return n.registry.GetPendingActions()
}

// GetLatestConfig returns the newest config vector and whether it differs from
// the previous one, by length or at any position. With no new vector since
// the last call it returns the cached one unchanged.
func (n *Node) GetLatestConfig() (bool, []interface{}) {
	fresh := n.registry.GetConfigChanges()

	n.cfgMu.Lock()
	defer n.cfgMu.Unlock()

	if len(fresh) == 0 {
		return false, n.configCache
	}

	changed := len(fresh) != len(n.configCache)

	if !changed {
		for i := range fresh {
			if !configValueEqual(fresh[i], n.configCache[i]) {
				changed = true
				break
			}
		}
	}

	n.configCache = fresh

	return changed, fresh
}

// configValueEqual compares decoded JSON values, which may be lists or maps.
func configValueEqual(a, b interface{}) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)

	return errA == nil && errB == nil && string(ja) == string(jb)
}

func (n *Node) SetNewSchemas(ctx context.Context, config *schema.ConfigSchema, command *schema.ActionSchema) {
	n.registry.UpdateSchemas(ctx, config, command)
}

// IsConnected reports registry reachability and whether a peer stream is set up.
func (n *Node) IsConnected() (registry, peer bool) {
	return n.registry.IsConnected(), n.frames.IsConnected()
}

func (n *Node) SetCameraIntrinsics(in udpstream.Intrinsics) {
	n.frames.SetCameraIntrinsics(in)
}

func (n *Node) SendRGBFrame(img image.Image) error {
	return n.frames.SendRGBFrame(img)
}

func (n *Node) SendDepthFrame(depth *image.Gray16) error {
	return n.frames.SendDepthFrame(depth)
}

func (n *Node) SendPointCloud(points []udpstream.Point) error {
	return n.frames.SendPointCloud(points)
}

// SendControl queues v on the control link; false without one.
func (n *Node) SendControl(v interface{}) bool {
	if n.control == nil {
		return false
	}

	return n.control.Send(v)
}

func (n *Node) ControlMessages() []json.RawMessage {
	if n.control == nil {
		return nil
	}

	return n.control.Received()
}

// Peer returns the UDP destination currently followed.
func (n *Node) Peer() (string, int) {
	n.peerMu.Lock()
	defer n.peerMu.Unlock()

	return n.peerIP, n.peerPort
}
